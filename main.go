package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tackler-server/config"
	"tackler-server/database"
	"tackler-server/jobs"
	"tackler-server/middleware"
	"tackler-server/routes"
	"tackler-server/services"
	"tackler-server/utils"
	ws "tackler-server/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	config.Load()

	// Initialize database (runs migrations)
	if err := database.Initialize(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Seed reference data
	if err := seedServiceCategories(); err != nil {
		log.Printf("⚠️ Failed to seed service categories: %v", err)
	}

	// Redis backs the booking draft store. The bid and stage engines do not
	// depend on it, so a missing redis only disables drafts.
	if err := services.InitRedis(); err != nil {
		log.Printf("⚠️ Redis unavailable, booking drafts disabled: %v", err)
	}

	// Set Gin mode
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Disable automatic redirects for trailing slashes
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	// Security middleware stack
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.InputValidationMiddleware())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(middleware.AuditLogMiddleware())

	// CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Device-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Tackler server is running",
			"time":    time.Now().UTC(),
		})
	})

	// WebSocket hub for booking event delivery
	hub := ws.NewHub()
	go hub.Run()
	services.SetHub(hub)

	// WebSocket endpoint. Browsers cannot set headers on the upgrade request
	// so the token also comes as a query parameter.
	router.GET("/api/v1/ws", func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = c.GetHeader("Authorization")
			if len(token) > 7 && token[:7] == "Bearer " {
				token = token[7:]
			}
		}
		claims, err := utils.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		ws.ServeWebSocket(hub, c.Writer, c.Request, claims.UserID, c.Query("role"))
	})

	// API routes
	api := router.Group("/api/v1")

	// Public routes
	auth := api.Group("/auth")
	auth.Use(middleware.AuthRateLimitMiddleware())
	routes.RegisterAuthRoutes(auth)

	categories := api.Group("/categories")
	routes.RegisterCategoryRoutes(categories)

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware())

	routes.RegisterProfileRoutes(protected.Group("/profile"))

	bookings := protected.Group("/bookings")
	routes.RegisterBookingRoutes(bookings)
	routes.RegisterBookingBidRoutes(bookings)
	routes.RegisterProgressRoutes(bookings)

	routes.RegisterBidRoutes(protected.Group("/bids"))
	routes.RegisterNotificationRoutes(protected.Group("/notifications"))
	routes.RegisterMediaRoutes(protected)

	// Background jobs
	expirationJob := jobs.NewExpirationJob()
	go expirationJob.Start()
	defer expirationJob.Stop()

	// Hourly housekeeping: expired refresh tokens and idle rate limiters
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		jwtService := services.NewJWTService()
		for range ticker.C {
			if err := jwtService.CleanupExpiredTokens(); err != nil {
				log.Printf("⚠️ Token cleanup failed: %v", err)
			}
			middleware.CleanupRateLimiters()
		}
	}()

	port := config.AppConfig.Server.Port
	log.Printf("🚀 Tackler server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
