package services

import (
	"time"

	"gorm.io/gorm"

	"tackler-server/database"
	"tackler-server/models"
)

// ProgressService is the stage progression engine: ordered job-stage
// transitions after a contractor is assigned, extra-part gating and the
// final payment transition. Stage writes assert the expected predecessor
// at write time, so a stale or duplicate request loses the race instead of
// skipping or rewinding a stage.
type ProgressService struct {
	db     *gorm.DB
	events *EventService
}

// NewProgressService creates a new progress service
func NewProgressService() *ProgressService {
	return &ProgressService{
		db:     database.DB,
		events: NewEventService(),
	}
}

// AdvanceStage moves the booking to the named next stage. Only the
// assigned contractor may advance, the target must be exactly one step
// ahead, and evidence photos are attached tagged by the phase they
// document.
func (s *ProgressService) AdvanceStage(bookingID, contractorUserID uint, target models.BookingStage, evidence *models.EvidenceInput) (*models.Booking, error) {
	now := time.Now()
	var booking models.Booking
	var event *models.BookingEvent

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var profile models.ContractorProfile
		if err := tx.Where("user_id = ?", contractorUserID).First(&profile).Error; err != nil {
			return models.ErrNotFound("contractor profile not found")
		}

		if err := tx.First(&booking, bookingID).Error; err != nil {
			return models.ErrNotFound("booking not found")
		}

		if booking.ContractorID == nil || *booking.ContractorID != profile.ID {
			return models.ErrUnauthorized("you are not the contractor assigned to this booking")
		}
		if booking.Stage == models.StageCancelled {
			return models.ErrBookingNotActive("booking was cancelled")
		}
		if !booking.IsActive() {
			return models.ErrBookingNotActive("booking is not in an active job stage (stage: %s)", booking.Stage)
		}

		next, ok := booking.Stage.NextWorkStage()
		if !ok {
			return models.ErrInvalidStageTransition("stage %s cannot be advanced by the contractor", booking.Stage)
		}
		if next != target {
			return models.ErrInvalidStageTransition("cannot move from %s to %s; next stage is %s", booking.Stage, target, next)
		}

		updates := map[string]interface{}{"stage": target}
		switch target {
		case models.StageWorkStarted:
			updates["started_at"] = now
		case models.StageWorkCompleted:
			updates["completed_at"] = now
		}

		// Predecessor assertion at write time closes the stage-skip race:
		// a duplicate or delayed request finds the stage already moved.
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND stage = ?", booking.ID, booking.Stage).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrConflict("booking stage changed concurrently, refresh and retry")
		}

		if evidence != nil && len(evidence.PhotoURLs) > 0 {
			kind, tagged := models.EvidenceKindForStage(target)
			if !tagged {
				return models.ErrValidation("stage %s does not accept photo evidence", target)
			}
			record := models.StageEvidence{
				BookingID:    booking.ID,
				ContractorID: profile.ID,
				Stage:        target,
				Kind:         kind,
				PhotoURLs:    evidence.PhotoURLs,
				Note:         evidence.Note,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}

		if target == models.StageWorkCompleted {
			if err := tx.Model(&models.ContractorProfile{}).
				Where("id = ?", profile.ID).
				UpdateColumn("jobs_completed", gorm.Expr("jobs_completed + 1")).Error; err != nil {
				return err
			}
		}

		if err := tx.First(&booking, booking.ID).Error; err != nil {
			return err
		}

		event = models.NewBookingEvent(models.EventStageAdvanced, booking.ID, contractorUserID, map[string]interface{}{
			"stage":          target,
			"display_status": target.DisplayStatus(),
		})
		return s.events.Record(tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(event)
	s.events.Notify(booking.CustomerID, models.EventStageAdvanced,
		"Job update", "Your booking moved to "+target.DisplayStatus(),
		map[string]interface{}{"booking_id": booking.ID, "stage": target})

	return &booking, nil
}

// RequestExtraParts inserts pending extra-part rows for customer approval.
// Requests are only accepted while the job is active; every part starts
// pending and blocks payment until the customer resolves it.
func (s *ProgressService) RequestExtraParts(bookingID, contractorUserID uint, parts []models.ExtraPartCreate) ([]models.ExtraPart, error) {
	if len(parts) == 0 {
		return nil, models.ErrValidation("at least one part is required")
	}
	for _, p := range parts {
		if p.Name == "" {
			return nil, models.ErrValidation("part name is required")
		}
		if p.Quantity <= 0 {
			return nil, models.ErrValidation("part quantity must be positive")
		}
		if p.UnitPrice < 0 {
			return nil, models.ErrValidation("part unit price cannot be negative")
		}
	}

	var booking models.Booking
	var created []models.ExtraPart
	var event *models.BookingEvent

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var profile models.ContractorProfile
		if err := tx.Where("user_id = ?", contractorUserID).First(&profile).Error; err != nil {
			return models.ErrNotFound("contractor profile not found")
		}

		if err := tx.First(&booking, bookingID).Error; err != nil {
			return models.ErrNotFound("booking not found")
		}
		if booking.ContractorID == nil || *booking.ContractorID != profile.ID {
			return models.ErrUnauthorized("you are not the contractor assigned to this booking")
		}
		// Parts can be requested up to work_completed. Once the job reaches
		// awaiting_payment the bill is settled and only payment remains.
		if !booking.IsActive() || booking.Stage.Index() > models.StageWorkCompleted.Index() {
			return models.ErrBookingNotActive("extra parts can only be requested on an active job")
		}

		var partIDs []uint
		for _, p := range parts {
			part := models.ExtraPart{
				BookingID:    booking.ID,
				ContractorID: profile.ID,
				Name:         p.Name,
				Quantity:     p.Quantity,
				UnitPrice:    p.UnitPrice,
				TotalPrice:   float64(p.Quantity) * p.UnitPrice,
				Status:       models.ExtraPartStatusPending,
			}
			if err := tx.Create(&part).Error; err != nil {
				return err
			}
			created = append(created, part)
			partIDs = append(partIDs, part.ID)
		}

		event = models.NewBookingEvent(models.EventExtraPartsRequested, booking.ID, contractorUserID, map[string]interface{}{
			"part_ids": partIDs,
			"count":    len(partIDs),
		})
		return s.events.Record(tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(event)
	s.events.Notify(booking.CustomerID, models.EventExtraPartsRequested,
		"Extra parts requested", "Your contractor needs additional parts approved before payment",
		map[string]interface{}{"booking_id": booking.ID, "count": len(created)})

	return created, nil
}

// ResolveExtraPart records the customer's approve/reject decision on a
// pending part together with the action timestamp
func (s *ProgressService) ResolveExtraPart(partID, customerID uint, action string, notes string) (*models.ExtraPart, error) {
	var status models.ExtraPartStatus
	switch action {
	case "approve":
		status = models.ExtraPartStatusApproved
	case "reject":
		status = models.ExtraPartStatusRejected
	default:
		return nil, models.ErrValidation("action must be approve or reject")
	}

	now := time.Now()
	var part models.ExtraPart
	var booking models.Booking
	var event *models.BookingEvent

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&part, partID).Error; err != nil {
			return models.ErrNotFound("extra part not found")
		}
		if err := tx.First(&booking, part.BookingID).Error; err != nil {
			return models.ErrNotFound("booking not found")
		}
		if booking.CustomerID != customerID {
			return models.ErrUnauthorized("only the booking's customer can resolve extra parts")
		}
		if part.IsResolved() {
			return models.ErrConflict("extra part is already %s", part.Status)
		}

		updates := map[string]interface{}{
			"status":    status,
			"action_at": now,
		}
		if notes != "" {
			updates["customer_notes"] = notes
		}

		res := tx.Model(&models.ExtraPart{}).
			Where("id = ? AND status = ?", part.ID, models.ExtraPartStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrConflict("extra part was resolved concurrently")
		}

		if err := tx.First(&part, part.ID).Error; err != nil {
			return err
		}

		event = models.NewBookingEvent(models.EventExtraPartResolved, booking.ID, customerID, map[string]interface{}{
			"part_id": part.ID,
			"status":  part.Status,
		})
		return s.events.Record(tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(event)

	var profile models.ContractorProfile
	if err := s.db.First(&profile, part.ContractorID).Error; err == nil {
		s.events.Notify(profile.UserID, models.EventExtraPartResolved,
			"Extra part "+string(part.Status), "The customer resolved your parts request",
			map[string]interface{}{"booking_id": booking.ID, "part_id": part.ID})
	}

	return &part, nil
}

// CanProceedToPayment reports whether payment is unblocked and how many
// parts are still pending. Pure read; CompletePayment re-checks inside its
// own transaction.
func (s *ProgressService) CanProceedToPayment(bookingID uint) (bool, int64, error) {
	var pendingCount int64
	err := s.db.Model(&models.ExtraPart{}).
		Where("booking_id = ? AND status = ?", bookingID, models.ExtraPartStatusPending).
		Count(&pendingCount).Error
	if err != nil {
		return false, 0, err
	}
	return pendingCount == 0, pendingCount, nil
}

// CompletePayment settles the booking: total the agreed price plus the
// approved extra parts and move to the terminal paid stage. The pending
// parts count is re-checked inside the transaction immediately before the
// paid state is written, never trusted from an earlier snapshot.
func (s *ProgressService) CompletePayment(bookingID, customerID uint, method string) (*models.Booking, error) {
	if method == "" {
		return nil, models.ErrValidation("payment method is required")
	}

	now := time.Now()
	var booking models.Booking
	var event *models.BookingEvent

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, bookingID).Error; err != nil {
			return models.ErrNotFound("booking not found")
		}
		if booking.CustomerID != customerID {
			return models.ErrUnauthorized("only the booking's customer can pay")
		}
		if booking.PaymentStatus == models.PaymentStatusPaid {
			return models.ErrPaymentAlreadyComplete("booking is already paid")
		}

		// Authoritative re-check of the extra-parts gate. Checked ahead of
		// the stage so pending parts always surface as their own error no
		// matter what state the call arrives in.
		var pendingCount int64
		if err := tx.Model(&models.ExtraPart{}).
			Where("booking_id = ? AND status = ?", booking.ID, models.ExtraPartStatusPending).
			Count(&pendingCount).Error; err != nil {
			return err
		}
		if pendingCount > 0 {
			return models.ErrExtraPartsPending(pendingCount)
		}

		if booking.Stage != models.StageAwaitingPayment {
			return models.ErrWrongStage("payment requires stage %s (current: %s)", models.StageAwaitingPayment, booking.Stage)
		}

		var partsTotal float64
		if err := tx.Model(&models.ExtraPart{}).
			Where("booking_id = ? AND status = ?", booking.ID, models.ExtraPartStatusApproved).
			Select("COALESCE(SUM(total_price), 0)").
			Scan(&partsTotal).Error; err != nil {
			return err
		}

		base := booking.PriceEstimate
		if booking.FinalPrice != nil {
			base = *booking.FinalPrice
		}
		total := base + partsTotal

		res := tx.Model(&models.Booking{}).
			Where("id = ? AND stage = ? AND payment_status <> ?",
				booking.ID, models.StageAwaitingPayment, models.PaymentStatusPaid).
			Updates(map[string]interface{}{
				"stage":          models.StagePaid,
				"payment_status": models.PaymentStatusPaid,
				"payment_method": method,
				"final_price":    total,
				"paid_at":        now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrPaymentAlreadyComplete("payment completed concurrently")
		}

		if err := tx.First(&booking, booking.ID).Error; err != nil {
			return err
		}

		event = models.NewBookingEvent(models.EventPaymentCompleted, booking.ID, customerID, map[string]interface{}{
			"method": method,
			"total":  total,
		})
		return s.events.Record(tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(event)
	if booking.ContractorID != nil {
		var profile models.ContractorProfile
		if err := s.db.First(&profile, *booking.ContractorID).Error; err == nil {
			s.events.Notify(profile.UserID, models.EventPaymentCompleted,
				"Payment received", "The customer completed payment for the job",
				map[string]interface{}{"booking_id": booking.ID})
		}
	}

	return &booking, nil
}
