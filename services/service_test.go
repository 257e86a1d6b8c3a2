package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"tackler-server/config"
	"tackler-server/database"
	"tackler-server/models"
)

// setupTestDB opens an isolated in-memory database per test and installs it
// as the package-global handle the services read.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	config.Load()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         glogger.Default.LogMode(glogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ServiceCategory{},
		&models.ContractorProfile{},
		&models.Booking{},
		&models.Bid{},
		&models.BidMaterial{},
		&models.ExtraPart{},
		&models.StageEvidence{},
		&models.BookingEvent{},
		&models.Notification{},
		&models.RefreshToken{},
	))
	require.NoError(t, database.MigrateConstraints(db))

	database.DB = db
	t.Cleanup(func() {
		database.DB = nil
		sqlDB.Close()
	})

	return db
}

func createCategory(t *testing.T, db *gorm.DB, name string) *models.ServiceCategory {
	t.Helper()
	category := models.ServiceCategory{
		Name:     name,
		Slug:     strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		IsActive: true,
	}
	require.NoError(t, db.Create(&category).Error)
	return &category
}

func createCustomer(t *testing.T, db *gorm.DB, phone string) *models.User {
	t.Helper()
	user := models.User{
		FullName:     "Test Customer",
		PhoneNumber:  phone,
		PasswordHash: "x",
		Role:         models.RoleCustomer,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// createContractor creates a contractor user with an available profile in
// the given category and returns both.
func createContractor(t *testing.T, db *gorm.DB, phone string, categoryID uint) (*models.User, *models.ContractorProfile) {
	t.Helper()
	user := models.User{
		FullName:     "Test Contractor",
		PhoneNumber:  phone,
		PasswordHash: "x",
		Role:         models.RoleContractor,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)

	profile := models.ContractorProfile{
		UserID:      user.ID,
		CategoryID:  categoryID,
		PhoneNumber: phone,
		IsAvailable: true,
		IsVerified:  true,
	}
	require.NoError(t, db.Create(&profile).Error)
	return &user, &profile
}

func createTestBooking(t *testing.T, db *gorm.DB, customerID, categoryID uint) *models.Booking {
	t.Helper()
	booking := models.Booking{
		CustomerID:    customerID,
		CategoryID:    categoryID,
		Mode:          models.ModeSaver,
		Title:         "Fix kitchen sink",
		Address:       "12 Test Street",
		IsASAP:        true,
		PriceEstimate: 5000,
		Stage:         models.StageFindingContractor,
		PaymentStatus: models.PaymentStatusUnpaid,
	}
	require.NoError(t, db.Create(&booking).Error)
	return &booking
}

// advanceBookingTo walks the booking forward through the contractor stages
// until it reaches the target stage.
func advanceBookingTo(t *testing.T, svc *ProgressService, bookingID, contractorUserID uint, target models.BookingStage) *models.Booking {
	t.Helper()
	var booking models.Booking
	require.NoError(t, database.DB.First(&booking, bookingID).Error)

	for booking.Stage != target {
		next, ok := booking.Stage.NextWorkStage()
		require.True(t, ok, "no next stage from %s", booking.Stage)
		updated, err := svc.AdvanceStage(bookingID, contractorUserID, next, nil)
		require.NoError(t, err)
		booking = *updated
	}
	return &booking
}

func requireAppError(t *testing.T, err error, code models.ErrorCode) *models.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code)
	return appErr
}

func eventTypes(t *testing.T, db *gorm.DB, bookingID uint) []string {
	t.Helper()
	var types []string
	require.NoError(t, db.Model(&models.BookingEvent{}).
		Where("booking_id = ?", bookingID).
		Order("id ASC").
		Pluck("type", &types).Error)
	return types
}

func futureTime(d time.Duration) *time.Time {
	ts := time.Now().Add(d)
	return &ts
}
