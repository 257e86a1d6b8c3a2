package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tackler-server/database"
	"tackler-server/models"
)

// RegisterNotificationRoutes registers notification routes
func RegisterNotificationRoutes(router *gin.RouterGroup) {
	router.GET("/", getNotifications)
	router.GET("/unread-count", getUnreadCount)
	router.PUT("/:id/read", markNotificationRead)
	router.PUT("/read-all", markAllNotificationsRead)
}

func getNotifications(c *gin.Context) {
	userID := c.GetUint("user_id")

	var notifications []models.Notification
	query := database.DB.Where("user_id = ?", userID).Order("created_at DESC").Limit(50)
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}
	if err := query.Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "count": len(notifications)})
}

func getUnreadCount(c *gin.Context) {
	userID := c.GetUint("user_id")

	var count int64
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func markNotificationRead(c *gin.Context) {
	notifID, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := c.GetUint("user_id")

	result := database.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notifID, userID).
		Update("read", true)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func markAllNotificationsRead(c *gin.Context) {
	userID := c.GetUint("user_id")

	result := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": result.RowsAffected})
}
