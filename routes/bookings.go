package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tackler-server/database"
	"tackler-server/middleware"
	"tackler-server/models"
	"tackler-server/services"
)

// CancelRequest carries an optional cancellation reason
type CancelRequest struct {
	Reason string `json:"reason"`
}

// RegisterBookingRoutes registers booking lifecycle routes
func RegisterBookingRoutes(router *gin.RouterGroup) {
	router.POST("/", middleware.RequireRole(models.RoleCustomer), createBooking)
	router.GET("/my-bookings", getMyBookings)
	router.GET("/available", middleware.RequireRole(models.RoleContractor), getAvailableBookings)

	// Draft endpoints must come before /:id so gin does not treat "draft" as an id
	router.GET("/draft", middleware.RequireRole(models.RoleCustomer), getDraft)
	router.PUT("/draft", middleware.RequireRole(models.RoleCustomer), saveDraft)
	router.DELETE("/draft", middleware.RequireRole(models.RoleCustomer), deleteDraft)

	router.GET("/:id", getBooking)
	router.POST("/:id/cancel", middleware.RequireRole(models.RoleCustomer), cancelBooking)
	router.GET("/:id/events", getBookingEvents)
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id parameter"})
		return 0, false
	}
	return uint(id), true
}

func createBooking(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.BookingCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "message": err.Error()})
		return
	}

	booking, err := services.NewBookingService().Create(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	// A submitted booking supersedes any saved draft
	if services.RedisClient != nil {
		_ = services.NewDraftService().Clear(c.Request.Context(), userID)
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking": booking,
		"status":  booking.Stage.DisplayStatus(),
	})
}

func getMyBookings(c *gin.Context) {
	userID := c.GetUint("user_id")
	userRole := models.UserRole(c.GetString("user_role"))

	var bookings []models.Booking
	query := database.DB.Preload("Category").Order("created_at DESC")

	if userRole == models.RoleContractor {
		var profile models.ContractorProfile
		if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contractor profile not found"})
			return
		}
		query = query.Where("contractor_id = ?", profile.ID)
	} else {
		query = query.Where("customer_id = ?", userID)
	}

	if stage := c.Query("stage"); stage != "" {
		query = query.Where("stage = ?", stage)
	}

	if err := query.Find(&bookings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// getAvailableBookings returns open bookings in the contractor's category
// that are still accepting bids.
func getAvailableBookings(c *gin.Context) {
	userID := c.GetUint("user_id")

	var profile models.ContractorProfile
	if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contractor profile not found"})
		return
	}

	var bookings []models.Booking
	if err := database.DB.Preload("Category").
		Where("category_id = ? AND stage = ?", profile.CategoryID, models.StageFindingContractor).
		Order("is_asap DESC, created_at DESC").
		Find(&bookings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch available bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

func getBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := c.GetUint("user_id")

	var booking models.Booking
	if err := database.DB.Preload("Category").First(&booking, bookingID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	// Only the customer, the assigned contractor, or an admin may view
	authorized := booking.CustomerID == userID
	if !authorized && booking.ContractorID != nil {
		var profile models.ContractorProfile
		if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err == nil {
			authorized = *booking.ContractorID == profile.ID
		}
	}
	if !authorized {
		if user, exists := c.Get("user"); exists {
			if u, ok := user.(models.User); ok && u.IsAdmin() {
				authorized = true
			}
		}
	}
	if !authorized {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking": booking,
		"status":  booking.Stage.DisplayStatus(),
	})
}

func cancelBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := c.GetUint("user_id")

	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	booking, err := services.NewBookingService().Cancel(bookingID, userID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func getBookingEvents(c *gin.Context) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := c.GetUint("user_id")

	var booking models.Booking
	if err := database.DB.First(&booking, bookingID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}
	if booking.CustomerID != userID {
		var profile models.ContractorProfile
		err := database.DB.Where("user_id = ?", userID).First(&profile).Error
		if err != nil || booking.ContractorID == nil || *booking.ContractorID != profile.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
	}

	var events []models.BookingEvent
	if err := database.DB.Where("booking_id = ?", bookingID).Order("id ASC").Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func getDraft(c *gin.Context) {
	if services.RedisClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Draft store unavailable"})
		return
	}
	userID := c.GetUint("user_id")

	draft, err := services.NewDraftService().Load(c.Request.Context(), userID)
	if err != nil {
		if err == services.ErrNoDraft {
			c.JSON(http.StatusNotFound, gin.H{"error": "No saved draft"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load draft"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

func saveDraft(c *gin.Context) {
	if services.RedisClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Draft store unavailable"})
		return
	}
	userID := c.GetUint("user_id")

	var draft models.BookingDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "message": err.Error()})
		return
	}

	if err := services.NewDraftService().Save(c.Request.Context(), userID, &draft); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save draft"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

func deleteDraft(c *gin.Context) {
	if services.RedisClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Draft store unavailable"})
		return
	}
	userID := c.GetUint("user_id")

	if err := services.NewDraftService().Clear(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete draft"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Draft deleted"})
}
