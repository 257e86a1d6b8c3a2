package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tackler-server/database"
	"tackler-server/middleware"
	"tackler-server/models"
	"tackler-server/services"
)

// StageAdvanceRequest moves a booking to the next work stage
type StageAdvanceRequest struct {
	Stage    models.BookingStage   `json:"stage" binding:"required"`
	Evidence *models.EvidenceInput `json:"evidence"`
}

// ExtraPartsRequest is the contractor's batch of requested parts
type ExtraPartsRequest struct {
	Parts []models.ExtraPartCreate `json:"parts" binding:"required,min=1,dive"`
}

// PaymentRequest completes payment on a booking
type PaymentRequest struct {
	Method string `json:"method" binding:"required,oneof=cash card wallet"`
}

// RegisterProgressRoutes registers stage progression, extra parts and
// payment routes under the bookings group.
func RegisterProgressRoutes(router *gin.RouterGroup) {
	router.POST("/:id/stage", middleware.RequireRole(models.RoleContractor), advanceStage)
	router.POST("/:id/extra-parts", middleware.RequireRole(models.RoleContractor), requestExtraParts)
	router.GET("/:id/extra-parts", listExtraParts)
	router.POST("/:id/extra-parts/:partId/resolve", middleware.RequireRole(models.RoleCustomer), resolveExtraPart)
	router.GET("/:id/payment-check", paymentCheck)
	router.POST("/:id/pay", middleware.RequireRole(models.RoleCustomer), completePayment)
	router.GET("/:id/evidence", listEvidence)
}

func advanceStage(c *gin.Context) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := c.GetUint("user_id")

	var req StageAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "message": err.Error()})
		return
	}

	booking, err := services.NewProgressService().AdvanceStage(bookingID, userID, req.Stage, req.Evidence)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking": booking,
		"status":  booking.Stage.DisplayStatus(),
	})
}

func requestExtraParts(c *gin.Context) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := c.GetUint("user_id")

	var req ExtraPartsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "message": err.Error()})
		return
	}

	parts, err := services.NewProgressService().RequestExtraParts(bookingID, userID, req.Parts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"extra_parts": parts, "count": len(parts)})
}

func listExtraParts(c *gin.Context) {
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
	if !bookingParticipant(c, &booking, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var parts []models.ExtraPart
	if err := database.DB.Where("booking_id = ?", bookingID).Order("created_at ASC").Find(&parts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch extra parts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"extra_parts": parts, "count": len(parts)})
}

func resolveExtraPart(c *gin.Context) {
	partID, err := parseUintParam(c, "partId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid part id"})
		return
	}
	userID := c.GetUint("user_id")

	var req models.ExtraPartResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "message": err.Error()})
		return
	}

	part, err := services.NewProgressService().ResolveExtraPart(partID, userID, req.Action, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"extra_part": part})
}

// paymentCheck tells the client whether payment can proceed. Advisory only,
// the pay endpoint re-checks inside its transaction.
func paymentCheck(c *gin.Context) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return
	}

	canPay, pending, err := services.NewProgressService().CanProceedToPayment(bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"can_pay":       canPay,
		"pending_parts": pending,
	})
}

func completePayment(c *gin.Context) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := c.GetUint("user_id")

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "message": err.Error()})
		return
	}

	booking, err := services.NewProgressService().CompletePayment(bookingID, userID, req.Method)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking": booking,
		"status":  booking.Stage.DisplayStatus(),
	})
}

func listEvidence(c *gin.Context) {
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
	if !bookingParticipant(c, &booking, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var evidence []models.StageEvidence
	if err := database.DB.Where("booking_id = ?", bookingID).Order("created_at ASC").Find(&evidence).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch evidence"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"evidence": evidence, "count": len(evidence)})
}

// bookingParticipant reports whether the user is the booking's customer or
// its assigned contractor.
func bookingParticipant(c *gin.Context, booking *models.Booking, userID uint) bool {
	if booking.CustomerID == userID {
		return true
	}
	if booking.ContractorID == nil {
		return false
	}
	var profile models.ContractorProfile
	if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return false
	}
	return *booking.ContractorID == profile.ID
}
