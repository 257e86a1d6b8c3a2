package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tackler-server/database"
	"tackler-server/models"
)

// RegisterCategoryRoutes registers public service category routes
func RegisterCategoryRoutes(router *gin.RouterGroup) {
	router.GET("/", getCategories)
	router.GET("/:id", getCategory)
}

func getCategories(c *gin.Context) {
	var categories []models.ServiceCategory
	if err := database.DB.Where("is_active = ?", true).Order("name ASC").Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories, "count": len(categories)})
}

func getCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var category models.ServiceCategory
	if err := database.DB.First(&category, categoryID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}
