package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tackler-server/database"
	"tackler-server/middleware"
	"tackler-server/models"
	"tackler-server/services"
)

// RegisterBidRoutes registers bid lifecycle routes
func RegisterBidRoutes(router *gin.RouterGroup) {
	router.POST("/", middleware.RequireRole(models.RoleContractor), submitBid)
	router.GET("/my-bids", middleware.RequireRole(models.RoleContractor), getMyBids)
	router.POST("/:id/accept", middleware.RequireRole(models.RoleCustomer), acceptBid)
	router.POST("/:id/reject", middleware.RequireRole(models.RoleCustomer), rejectBid)
}

// RegisterBookingBidRoutes registers bid routes nested under a booking
func RegisterBookingBidRoutes(router *gin.RouterGroup) {
	router.GET("/:id/bids", getBookingBids)
	router.GET("/:id/can-bid", middleware.RequireRole(models.RoleContractor), canBid)
}

func submitBid(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.BidCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "message": err.Error()})
		return
	}

	bid, err := services.NewBidService().SubmitBid(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"bid": bid})
}

func getMyBids(c *gin.Context) {
	userID := c.GetUint("user_id")

	var profile models.ContractorProfile
	if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contractor profile not found"})
		return
	}

	var bids []models.Bid
	query := database.DB.Preload("Materials").
		Where("contractor_id = ?", profile.ID).
		Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&bids).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bids"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bids": bids, "count": len(bids)})
}

func acceptBid(c *gin.Context) {
	bidID, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := c.GetUint("user_id")

	result, err := services.NewBidService().AcceptBid(bidID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking":          result.Booking,
		"bid":              result.Bid,
		"rejected_bid_ids": result.RejectedBidIDs,
		"status":           result.Booking.Stage.DisplayStatus(),
	})
}

func rejectBid(c *gin.Context) {
	bidID, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := c.GetUint("user_id")

	var req models.BidRejectRequest
	_ = c.ShouldBindJSON(&req)

	bid, err := services.NewBidService().RejectBid(bidID, userID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bid": bid})
}

// getBookingBids lists bids on a booking. The customer sees all of them;
// a contractor sees only their own.
func getBookingBids(c *gin.Context) {
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

	query := database.DB.Preload("Materials").
		Where("booking_id = ?", bookingID).
		Order("created_at ASC")

	if booking.CustomerID != userID {
		var profile models.ContractorProfile
		if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		query = query.Where("contractor_id = ?", profile.ID)
	}

	var bids []models.Bid
	if err := query.Find(&bids).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bids"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bids": bids, "count": len(bids)})
}

// canBid is an advisory pre-check for the bid form. The submission path
// re-validates everything inside its transaction.
func canBid(c *gin.Context) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := c.GetUint("user_id")

	eligibility, err := services.NewBidService().CanContractorBid(bookingID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, eligibility)
}
