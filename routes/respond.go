package routes

import (
	"log"
	"net/http"
	"strconv"

	"tackler-server/models"

	"github.com/gin-gonic/gin"
)

// parseUintParam parses a named path parameter as an id
func parseUintParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	return uint(id), err
}

// respondError writes a structured error response. Domain errors carry their
// own status and stable code; anything else is a 500.
func respondError(c *gin.Context, err error) {
	if appErr, ok := models.AsAppError(err); ok {
		c.JSON(appErr.Status, gin.H{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
		return
	}

	log.Printf("❌ Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
		"code":  "internal_error",
	})
}
