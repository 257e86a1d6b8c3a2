package services

import (
	"time"

	"gorm.io/gorm"

	"tackler-server/database"
	"tackler-server/models"
)

// BookingService owns booking creation and cancellation. All other
// lifecycle writes go through the bid and progress engines; the HTTP layer
// never mutates booking fields directly.
type BookingService struct {
	db     *gorm.DB
	events *EventService
}

// NewBookingService creates a new booking service
func NewBookingService() *BookingService {
	return &BookingService{
		db:     database.DB,
		events: NewEventService(),
	}
}

// Create opens a booking in finding_contractor, ready to receive bids
func (s *BookingService) Create(customerID uint, req models.BookingCreate) (*models.Booking, error) {
	if req.PriceEstimate <= 0 {
		return nil, models.ErrValidation("price estimate must be positive")
	}
	mode := req.Mode
	if mode == "" {
		mode = models.ModeSaver
	}
	if !mode.IsValid() {
		return nil, models.ErrValidation("mode must be saver or tacklers_choice")
	}
	if !req.IsASAP {
		if req.ScheduledFor == nil {
			return nil, models.ErrValidation("scheduled_for is required for non-ASAP bookings")
		}
		if req.ScheduledFor.Before(time.Now()) {
			return nil, models.ErrValidation("scheduled_for must be in the future")
		}
	}

	var category models.ServiceCategory
	if err := s.db.Where("id = ? AND is_active = ?", req.CategoryID, true).First(&category).Error; err != nil {
		return nil, models.ErrNotFound("service category not found")
	}

	booking := models.Booking{
		CustomerID:    customerID,
		CategoryID:    req.CategoryID,
		Mode:          mode,
		Title:         req.Title,
		Description:   req.Description,
		Address:       req.Address,
		City:          req.City,
		IsASAP:        req.IsASAP,
		ScheduledFor:  req.ScheduledFor,
		PriceEstimate: req.PriceEstimate,
		Stage:         models.StageFindingContractor,
		PaymentStatus: models.PaymentStatusUnpaid,
	}

	if err := s.db.Create(&booking).Error; err != nil {
		return nil, err
	}

	return &booking, nil
}

// Cancel terminates a booking before a contractor is assigned. Any open
// bids are rejected in the same transaction so none can be accepted after
// the booking is gone.
func (s *BookingService) Cancel(bookingID, customerID uint, reason string) (*models.Booking, error) {
	now := time.Now()
	var booking models.Booking
	var event *models.BookingEvent

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, bookingID).Error; err != nil {
			return models.ErrNotFound("booking not found")
		}
		if booking.CustomerID != customerID {
			return models.ErrUnauthorized("only the booking's customer can cancel it")
		}
		if booking.Stage == models.StageCancelled {
			return models.ErrConflict("booking is already cancelled")
		}
		if booking.Stage != models.StageFindingContractor {
			return models.ErrConflict("booking can no longer be cancelled (stage: %s)", booking.Stage)
		}

		res := tx.Model(&models.Booking{}).
			Where("id = ? AND stage = ?", booking.ID, models.StageFindingContractor).
			Updates(map[string]interface{}{
				"stage":         models.StageCancelled,
				"cancel_reason": reason,
				"cancelled_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrConflict("booking changed concurrently, refresh and retry")
		}

		if err := tx.Model(&models.Bid{}).
			Where("booking_id = ? AND status = ?", booking.ID, models.BidStatusPending).
			Updates(map[string]interface{}{
				"status":        models.BidStatusRejected,
				"reject_reason": "booking was cancelled",
				"resolved_at":   now,
			}).Error; err != nil {
			return err
		}

		if err := tx.First(&booking, booking.ID).Error; err != nil {
			return err
		}

		event = models.NewBookingEvent(models.EventBookingCancelled, booking.ID, customerID, map[string]interface{}{
			"reason": reason,
		})
		return s.events.Record(tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(event)

	return &booking, nil
}
