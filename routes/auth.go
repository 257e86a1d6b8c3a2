package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"tackler-server/database"
	"tackler-server/middleware"
	"tackler-server/models"
	"tackler-server/services"
	"tackler-server/utils"
)

// SignUpRequest represents the registration request
type SignUpRequest struct {
	PhoneNumber string          `json:"phone_number" binding:"required"`
	Password    string          `json:"password" binding:"required,min=6"`
	FullName    string          `json:"full_name" binding:"required"`
	Role        models.UserRole `json:"role"`

	// Contractor-only fields, used when role is contractor
	CategoryID uint     `json:"category_id"`
	Skills     []string `json:"skills"`
	City       string   `json:"city"`
}

// SignInRequest represents the sign in request
type SignInRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token             string                    `json:"token"`
	RefreshToken      string                    `json:"refresh_token"`
	User              models.User               `json:"user"`
	ContractorProfile *models.ContractorProfile `json:"contractor_profile,omitempty"`
}

// RegisterAuthRoutes registers authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup) {
	router.POST("/signup", signUp)
	router.POST("/signin", signIn)
	router.POST("/refresh", refreshToken)
	router.POST("/logout", logout)
}

// RegisterProfileRoutes registers authenticated profile routes
func RegisterProfileRoutes(router *gin.RouterGroup) {
	router.GET("/me", getMe)
	router.PUT("/contractor-profile", middleware.RequireRole(models.RoleContractor), upsertContractorProfile)
	router.PUT("/availability", middleware.RequireRole(models.RoleContractor), updateAvailability)
}

func signUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "message": err.Error()})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if role != models.RoleCustomer && role != models.RoleContractor {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role", "message": "Role must be customer or contractor"})
		return
	}
	if role == models.RoleContractor && req.CategoryID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing category", "message": "Contractors must register with a service category"})
		return
	}

	var existing models.User
	if err := database.DB.Where("phone_number = ?", req.PhoneNumber).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists", "message": "A user with this phone number already exists"})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	user := models.User{
		FullName:     req.FullName,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hashedPassword,
		Role:         role,
		IsActive:     true,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user account"})
		return
	}

	var profile *models.ContractorProfile
	if role == models.RoleContractor {
		p := models.ContractorProfile{
			UserID:      user.ID,
			CategoryID:  req.CategoryID,
			PhoneNumber: req.PhoneNumber,
			City:        req.City,
			Skills:      pq.StringArray(req.Skills),
		}
		if err := database.DB.Create(&p).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contractor profile"})
			return
		}
		profile = &p
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	refresh, err := services.NewJWTService().CreateRefreshToken(user.ID, c.GetHeader("X-Device-ID"), c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		Token:             token,
		RefreshToken:      refresh.Token,
		User:              user,
		ContractorProfile: profile,
	})
}

func signIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "message": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.Where("phone_number = ?", req.PhoneNumber).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
		return
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	refresh, err := services.NewJWTService().CreateRefreshToken(user.ID, c.GetHeader("X-Device-ID"), c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	resp := AuthResponse{Token: token, RefreshToken: refresh.Token, User: user}
	if user.IsContractor() {
		var profile models.ContractorProfile
		if err := database.DB.Preload("Category").Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
			resp.ContractorProfile = &profile
		}
	}

	c.JSON(http.StatusOK, resp)
}

func refreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "message": err.Error()})
		return
	}

	stored, err := services.NewJWTService().ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	token, err := utils.GenerateToken(stored.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		_ = services.NewJWTService().RevokeRefreshToken(req.RefreshToken)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func getMe(c *gin.Context) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	resp := gin.H{"user": user}
	if user.IsContractor() {
		var profile models.ContractorProfile
		if err := database.DB.Preload("Category").Where("user_id = ?", userID).First(&profile).Error; err == nil {
			resp["contractor_profile"] = profile
		}
	}

	c.JSON(http.StatusOK, resp)
}

func upsertContractorProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.ContractorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "message": err.Error()})
		return
	}

	var profile models.ContractorProfile
	err := database.DB.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		profile = models.ContractorProfile{UserID: userID}
	}

	profile.CategoryID = req.CategoryID
	profile.PhoneNumber = req.PhoneNumber
	profile.City = req.City
	profile.Address = req.Address
	profile.Experience = req.Experience
	profile.Skills = pq.StringArray(req.Skills)
	if req.HourlyRate > 0 {
		profile.HourlyRate = req.HourlyRate
	}
	if req.ProfilePhoto != nil {
		profile.ProfilePhoto = req.ProfilePhoto
	}
	if req.IDCardPhoto != nil {
		profile.IDCardPhoto = req.IDCardPhoto
	}

	if err := database.DB.Save(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save contractor profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"contractor_profile": profile})
}

func updateAvailability(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.AvailabilityUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "message": err.Error()})
		return
	}

	result := database.DB.Model(&models.ContractorProfile{}).
		Where("user_id = ?", userID).
		Update("is_available", req.IsAvailable)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update availability"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contractor profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_available": req.IsAvailable})
}
