package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"tackler-server/config"
	"tackler-server/database"
	"tackler-server/models"
)

// BidService is the bid lifecycle engine: eligibility, submission, expiry
// and the atomic accept/reject transitions. Every mutation runs as a single
// transaction; the pre-checks exist for fast feedback but the partial
// unique index on active bids and the guarded updates inside the
// transactions are what actually enforce the invariants.
type BidService struct {
	db     *gorm.DB
	events *EventService
}

// NewBidService creates a new bid service
func NewBidService() *BidService {
	return &BidService{
		db:     database.DB,
		events: NewEventService(),
	}
}

// BidAcceptance is the result of a successful accept: the promoted booking,
// the winning bid and the competing bids rejected in the same transaction.
type BidAcceptance struct {
	Booking        *models.Booking `json:"booking"`
	Bid            *models.Bid     `json:"bid"`
	RejectedBidIDs []uint          `json:"rejected_bid_ids"`
}

// SubmitBid validates eligibility and inserts a pending bid with the
// configured expiry window. The duplicate-bid check inside the transaction
// is advisory; a concurrent duplicate is caught by the unique index and
// surfaced as the same DuplicateBid error.
func (s *BidService) SubmitBid(contractorUserID uint, req models.BidCreate) (*models.Bid, error) {
	if req.Amount <= 0 {
		return nil, models.ErrInvalidAmount("bid amount must be positive")
	}
	if req.ETAMinutes < config.AppConfig.Bidding.MinETAMinutes {
		return nil, models.ErrInvalidEta("eta must be at least %d minutes", config.AppConfig.Bidding.MinETAMinutes)
	}
	for _, m := range req.Materials {
		if m.Name == "" {
			return nil, models.ErrValidation("material name is required")
		}
		if m.Cost < 0 {
			return nil, models.ErrValidation("material cost cannot be negative")
		}
	}

	now := time.Now()
	var bid models.Bid
	var booking models.Booking
	var event *models.BookingEvent

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var profile models.ContractorProfile
		if err := tx.Where("user_id = ?", contractorUserID).First(&profile).Error; err != nil {
			return models.ErrNotFound("contractor profile not found")
		}

		if err := tx.First(&booking, req.BookingID).Error; err != nil {
			return models.ErrNotFound("booking not found")
		}

		if !booking.IsBiddable() {
			return models.ErrBookingNotBiddable("booking is no longer accepting bids (stage: %s)", booking.Stage)
		}
		if booking.CategoryID != profile.CategoryID {
			return models.ErrServiceMismatch("booking service type does not match your category")
		}
		if !profile.IsAvailable {
			return models.ErrContractorUnavailable("contractor is not marked available")
		}

		// Advisory duplicate check; the unique index is the real guard
		var activeCount int64
		if err := tx.Model(&models.Bid{}).
			Where("booking_id = ? AND contractor_id = ? AND status IN ?",
				booking.ID, profile.ID, []models.BidStatus{models.BidStatusPending, models.BidStatusAccepted}).
			Count(&activeCount).Error; err != nil {
			return err
		}
		if activeCount > 0 {
			return models.ErrDuplicateBid("you already have an active bid on this booking")
		}

		bid = models.Bid{
			BookingID:     booking.ID,
			ContractorID:  profile.ID,
			Amount:        req.Amount,
			ETAMinutes:    req.ETAMinutes,
			Note:          req.Note,
			WarrantyTerms: req.WarrantyTerms,
			Status:        models.BidStatusPending,
			ExpiresAt:     now.Add(config.AppConfig.Bidding.Window),
		}
		for _, m := range req.Materials {
			bid.Materials = append(bid.Materials, models.BidMaterial{Name: m.Name, Cost: m.Cost})
		}

		if err := tx.Create(&bid).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ErrDuplicateBid("you already have an active bid on this booking")
			}
			return err
		}

		if err := tx.Model(&models.ContractorProfile{}).
			Where("id = ?", profile.ID).
			UpdateColumn("bids_submitted", gorm.Expr("bids_submitted + 1")).Error; err != nil {
			return err
		}

		event = models.NewBookingEvent(models.EventBidSubmitted, booking.ID, contractorUserID, map[string]interface{}{
			"bid_id":      bid.ID,
			"amount":      bid.Amount,
			"eta_minutes": bid.ETAMinutes,
			"expires_at":  bid.ExpiresAt,
		})
		return s.events.Record(tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(event)
	s.events.Notify(booking.CustomerID, models.EventBidSubmitted,
		"New bid received", "A contractor submitted a bid on your booking",
		map[string]interface{}{"booking_id": booking.ID, "bid_id": bid.ID})

	return &bid, nil
}

// AcceptBid atomically promotes the booking: the bid becomes accepted, the
// contractor is assigned, the stage moves to assigned and every competing
// pending bid is rejected. The guarded update on the booking row decides
// races between concurrent accepts; the loser gets BookingAlreadyAssigned.
func (s *BidService) AcceptBid(bidID, customerID uint) (*BidAcceptance, error) {
	now := time.Now()
	var bid models.Bid
	var booking models.Booking
	var rejectedIDs []uint
	var event *models.BookingEvent

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bid, bidID).Error; err != nil {
			return models.ErrNotFound("bid not found")
		}
		if err := tx.First(&booking, bid.BookingID).Error; err != nil {
			return models.ErrNotFound("booking not found")
		}

		if booking.CustomerID != customerID {
			return models.ErrUnauthorized("only the booking's customer can accept bids")
		}
		if bid.Status != models.BidStatusPending {
			return models.ErrBidAlreadyResolved("bid is already %s", bid.Status)
		}
		if bid.IsExpired(now) {
			return models.ErrBidExpired("the bidding window for this bid has closed")
		}

		// Optimistic check re-validated at write time: the update only
		// lands if the booking is still unassigned.
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND stage = ? AND contractor_id IS NULL", booking.ID, models.StageFindingContractor).
			Updates(map[string]interface{}{
				"contractor_id": bid.ContractorID,
				"stage":         models.StageAssigned,
				"final_price":   bid.Amount,
				"assigned_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrBookingAlreadyAssigned("another bid was accepted first")
		}

		res = tx.Model(&models.Bid{}).
			Where("id = ? AND status = ?", bid.ID, models.BidStatusPending).
			Updates(map[string]interface{}{"status": models.BidStatusAccepted, "resolved_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrBidAlreadyResolved("bid was resolved concurrently")
		}

		// Reject every other pending bid in the same transaction
		if err := tx.Model(&models.Bid{}).
			Where("booking_id = ? AND id <> ? AND status = ?", booking.ID, bid.ID, models.BidStatusPending).
			Pluck("id", &rejectedIDs).Error; err != nil {
			return err
		}
		if len(rejectedIDs) > 0 {
			if err := tx.Model(&models.Bid{}).
				Where("id IN ?", rejectedIDs).
				Updates(map[string]interface{}{
					"status":        models.BidStatusRejected,
					"reject_reason": "another bid was accepted",
					"resolved_at":   now,
				}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.ContractorProfile{}).
			Where("id = ?", bid.ContractorID).
			UpdateColumn("bids_accepted", gorm.Expr("bids_accepted + 1")).Error; err != nil {
			return err
		}

		// Reload the promoted rows so the caller sees committed state
		if err := tx.First(&booking, booking.ID).Error; err != nil {
			return err
		}
		if err := tx.Preload("Materials").First(&bid, bid.ID).Error; err != nil {
			return err
		}

		event = models.NewBookingEvent(models.EventBidAccepted, booking.ID, customerID, map[string]interface{}{
			"bid_id":           bid.ID,
			"contractor_id":    bid.ContractorID,
			"rejected_bid_ids": rejectedIDs,
		})
		return s.events.Record(tx, event)
	})
	if err != nil {
		// Lazy expiry: mark the bid expired outside the rolled-back
		// transaction so later reads agree with the error we returned.
		if appErr, ok := models.AsAppError(err); ok && appErr.Code == models.CodeBidExpired {
			s.db.Model(&models.Bid{}).
				Where("id = ? AND status = ?", bidID, models.BidStatusPending).
				Updates(map[string]interface{}{"status": models.BidStatusExpired, "resolved_at": now})
		}
		return nil, err
	}

	s.events.Publish(event)
	s.notifyBidResolved(&bid, "Bid accepted", "Your bid was accepted, head to the job", models.EventBidAccepted)
	s.notifyRejectedContractors(booking.ID, rejectedIDs)

	return &BidAcceptance{Booking: &booking, Bid: &bid, RejectedBidIDs: rejectedIDs}, nil
}

// RejectBid rejects a single pending bid without touching the others
func (s *BidService) RejectBid(bidID, customerID uint, reason string) (*models.Bid, error) {
	now := time.Now()
	var bid models.Bid
	var booking models.Booking
	var event *models.BookingEvent

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bid, bidID).Error; err != nil {
			return models.ErrNotFound("bid not found")
		}
		if err := tx.First(&booking, bid.BookingID).Error; err != nil {
			return models.ErrNotFound("booking not found")
		}
		if booking.CustomerID != customerID {
			return models.ErrUnauthorized("only the booking's customer can reject bids")
		}
		if bid.Status != models.BidStatusPending {
			return models.ErrBidAlreadyResolved("bid is already %s", bid.Status)
		}

		res := tx.Model(&models.Bid{}).
			Where("id = ? AND status = ?", bid.ID, models.BidStatusPending).
			Updates(map[string]interface{}{
				"status":        models.BidStatusRejected,
				"reject_reason": reason,
				"resolved_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrBidAlreadyResolved("bid was resolved concurrently")
		}

		if err := tx.First(&bid, bid.ID).Error; err != nil {
			return err
		}

		event = models.NewBookingEvent(models.EventBidRejected, booking.ID, customerID, map[string]interface{}{
			"bid_id": bid.ID,
			"reason": reason,
		})
		return s.events.Record(tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(event)
	s.notifyBidResolved(&bid, "Bid declined", "The customer declined your bid", models.EventBidRejected)

	return &bid, nil
}

// ExpireBids sweeps every pending bid past its expiry. The sweep is
// idempotent and safe to run concurrently: the status predicate makes a
// second pass a no-op. Expiring the last bid does not fail the booking;
// new bids can keep arriving while it is finding a contractor.
func (s *BidService) ExpireBids() (int64, error) {
	now := time.Now()
	res := s.db.Model(&models.Bid{}).
		Where("status = ? AND expires_at <= ?", models.BidStatusPending, now).
		Updates(map[string]interface{}{"status": models.BidStatusExpired, "resolved_at": now})
	return res.RowsAffected, res.Error
}

// CanContractorBid is the advisory read-only eligibility check surfaced to
// the UI before the bid form. It mirrors SubmitBid's rules but enforces
// nothing; submission re-checks everything inside its transaction.
func (s *BidService) CanContractorBid(bookingID, contractorUserID uint) (*models.Eligibility, error) {
	var profile models.ContractorProfile
	if err := s.db.Where("user_id = ?", contractorUserID).First(&profile).Error; err != nil {
		return &models.Eligibility{CanBid: false, Reason: "contractor profile not found"}, nil
	}

	var booking models.Booking
	if err := s.db.First(&booking, bookingID).Error; err != nil {
		return nil, models.ErrNotFound("booking not found")
	}

	if !booking.IsBiddable() {
		return &models.Eligibility{CanBid: false, Reason: "booking is no longer accepting bids"}, nil
	}
	if booking.CategoryID != profile.CategoryID {
		return &models.Eligibility{CanBid: false, Reason: "booking service type does not match your category"}, nil
	}
	if !profile.IsAvailable {
		return &models.Eligibility{CanBid: false, Reason: "you are not marked available"}, nil
	}

	var activeCount int64
	if err := s.db.Model(&models.Bid{}).
		Where("booking_id = ? AND contractor_id = ? AND status IN ?",
			booking.ID, profile.ID, []models.BidStatus{models.BidStatusPending, models.BidStatusAccepted}).
		Count(&activeCount).Error; err != nil {
		return nil, err
	}
	if activeCount > 0 {
		return &models.Eligibility{CanBid: false, Reason: "you already have an active bid on this booking"}, nil
	}

	return &models.Eligibility{CanBid: true}, nil
}

// notifyBidResolved tells the bidding contractor how their bid ended
func (s *BidService) notifyBidResolved(bid *models.Bid, title, body, notifType string) {
	var profile models.ContractorProfile
	if err := s.db.First(&profile, bid.ContractorID).Error; err != nil {
		return
	}
	s.events.Notify(profile.UserID, notifType, title, body,
		map[string]interface{}{"booking_id": bid.BookingID, "bid_id": bid.ID})
}

// notifyRejectedContractors tells the losing bidders the booking is gone
func (s *BidService) notifyRejectedContractors(bookingID uint, rejectedIDs []uint) {
	if len(rejectedIDs) == 0 {
		return
	}

	var userIDs []uint
	if err := s.db.Model(&models.Bid{}).
		Joins("JOIN contractor_profiles ON contractor_profiles.id = bids.contractor_id").
		Where("bids.id IN ?", rejectedIDs).
		Pluck("contractor_profiles.user_id", &userIDs).Error; err != nil {
		return
	}

	for _, userID := range userIDs {
		s.events.Notify(userID, models.EventBidRejected,
			"Bid not selected", "The customer went with another bid",
			map[string]interface{}{"booking_id": bookingID})
	}
}
