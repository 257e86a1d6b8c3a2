package routes

import (
	"context"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"tackler-server/config"
	"tackler-server/database"
	"tackler-server/middleware"
	"tackler-server/models"
)

// validateImageFile validates mimetype and size (<= 5MB)
func validateImageFile(h *multipart.FileHeader) bool {
	if h == nil || h.Size <= 0 || h.Size > 5*1024*1024 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(h.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	default:
		return false
	}
}

func newCloudinary() (*cloudinary.Cloudinary, error) {
	return cloudinary.NewFromURL(config.AppConfig.Media.CloudinaryURL)
}

func uploadImage(ctx context.Context, cld *cloudinary.Cloudinary, header *multipart.FileHeader, folder string) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	overwrite := true
	unique := true
	up, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         folder,
		PublicID:       strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename)),
		Overwrite:      &overwrite,
		UniqueFilename: &unique,
		ResourceType:   "image",
	})
	if err != nil {
		return "", err
	}
	return up.SecureURL, nil
}

// RegisterMediaRoutes adds photo upload endpoints under the protected group
func RegisterMediaRoutes(rg *gin.RouterGroup) {
	// Stage evidence photos for a booking the contractor is assigned to
	rg.POST("/bookings/:id/evidence-photos", middleware.RequireRole(models.RoleContractor), uploadEvidencePhotos)
}

func uploadEvidencePhotos(c *gin.Context) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := c.GetUint("user_id")

	if config.AppConfig.Media.CloudinaryURL == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Media uploads not configured"})
		return
	}

	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
		return
	}

	form := c.Request.MultipartForm
	headers := form.File["photos"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return
	}
	for _, h := range headers {
		if !validateImageFile(h) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image file: " + h.Filename})
			return
		}
	}

	var profile models.ContractorProfile
	if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contractor profile not found"})
		return
	}

	var booking models.Booking
	if err := database.DB.First(&booking, bookingID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}
	if booking.ContractorID == nil || *booking.ContractorID != profile.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	cld, err := newCloudinary()
	if err != nil {
		log.Printf("❌ Failed to initialize Cloudinary: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Media service initialization failed"})
		return
	}

	ctx := context.Background()
	folder := "bookings/" + strconv.Itoa(int(bookingID)) + "/evidence"

	var urls []string
	for _, h := range headers {
		url, err := uploadImage(ctx, cld, h, folder)
		if err != nil {
			log.Printf("❌ Evidence photo upload failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Photo upload failed"})
			return
		}
		urls = append(urls, url)
	}

	// Attach to an evidence record for the current stage so the photos show
	// up alongside the stage they document
	kind, tagged := models.EvidenceKindForStage(booking.Stage)
	if !tagged {
		kind = models.EvidenceDuring
	}
	evidence := models.StageEvidence{
		BookingID:    bookingID,
		ContractorID: profile.ID,
		Stage:        booking.Stage,
		Kind:         kind,
		PhotoURLs:    pq.StringArray(urls),
	}
	if err := database.DB.Create(&evidence).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save evidence"})
		return
	}

	log.Printf("✅ Uploaded %d evidence photo(s) for booking %d", len(urls), bookingID)
	c.JSON(http.StatusCreated, gin.H{"evidence": evidence, "photo_urls": urls})
}
