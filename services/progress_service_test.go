package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tackler-server/database"
	"tackler-server/models"
)

// setupAssigned builds a booking already promoted to assigned through a
// real accepted bid, the state the progress engine starts from.
func setupAssigned(t *testing.T) (*ProgressService, *models.Booking, *models.User, *models.User, *models.ContractorProfile) {
	t.Helper()
	db := setupTestDB(t)
	category := createCategory(t, db, "Plumbing")
	customer := createCustomer(t, db, "+10000000001")
	contractorUser, profile := createContractor(t, db, "+10000000002", category.ID)
	booking := createTestBooking(t, db, customer.ID, category.ID)

	bidSvc := NewBidService()
	bid, err := bidSvc.SubmitBid(contractorUser.ID, models.BidCreate{
		BookingID: booking.ID, Amount: 4500, ETAMinutes: 30,
	})
	require.NoError(t, err)
	result, err := bidSvc.AcceptBid(bid.ID, customer.ID)
	require.NoError(t, err)

	return NewProgressService(), result.Booking, customer, contractorUser, profile
}

func TestAdvanceStage(t *testing.T) {
	svc, booking, _, contractorUser, profile := setupAssigned(t)
	db := database.DB

	t.Run("walks the full ordered path", func(t *testing.T) {
		expected := []models.BookingStage{
			models.StageArriving,
			models.StageWorkStarted,
			models.StageInProgress,
			models.StageWorkCompleted,
			models.StageAwaitingPayment,
		}
		current := booking.Stage
		for _, next := range expected {
			updated, err := svc.AdvanceStage(booking.ID, contractorUser.ID, next, nil)
			require.NoError(t, err, "advancing %s -> %s", current, next)
			assert.Equal(t, next, updated.Stage)
			current = next
		}

		var reloaded models.Booking
		require.NoError(t, db.First(&reloaded, booking.ID).Error)
		assert.NotNil(t, reloaded.StartedAt)
		assert.NotNil(t, reloaded.CompletedAt)

		var reloadedProfile models.ContractorProfile
		require.NoError(t, db.First(&reloadedProfile, profile.ID).Error)
		assert.Equal(t, 1, reloadedProfile.JobsCompleted)
	})

	t.Run("cannot advance past awaiting_payment", func(t *testing.T) {
		_, err := svc.AdvanceStage(booking.ID, contractorUser.ID, models.StagePaid, nil)
		requireAppError(t, err, models.CodeInvalidStageTransition)
	})
}

func TestAdvanceStageRejectsSkipsAndRewinds(t *testing.T) {
	svc, booking, _, contractorUser, _ := setupAssigned(t)

	t.Run("skipping a stage is rejected", func(t *testing.T) {
		_, err := svc.AdvanceStage(booking.ID, contractorUser.ID, models.StageInProgress, nil)
		requireAppError(t, err, models.CodeInvalidStageTransition)
	})

	t.Run("moving backwards is rejected", func(t *testing.T) {
		_, err := svc.AdvanceStage(booking.ID, contractorUser.ID, models.StageArriving, nil)
		require.NoError(t, err)
		_, err = svc.AdvanceStage(booking.ID, contractorUser.ID, models.StageAssigned, nil)
		requireAppError(t, err, models.CodeInvalidStageTransition)
	})

	t.Run("duplicate advance loses the race", func(t *testing.T) {
		// Booking is at arriving; a repeated arriving -> work_started after
		// it already moved must fail rather than re-apply
		_, err := svc.AdvanceStage(booking.ID, contractorUser.ID, models.StageWorkStarted, nil)
		require.NoError(t, err)
		_, err = svc.AdvanceStage(booking.ID, contractorUser.ID, models.StageWorkStarted, nil)
		requireAppError(t, err, models.CodeInvalidStageTransition)
	})
}

func TestAdvanceStageAuthorization(t *testing.T) {
	svc, booking, _, _, _ := setupAssigned(t)
	db := database.DB

	otherUser, _ := createContractor(t, db, "+10000000009", booking.CategoryID)

	_, err := svc.AdvanceStage(booking.ID, otherUser.ID, models.StageArriving, nil)
	requireAppError(t, err, models.CodeUnauthorized)
}

func TestAdvanceStageEvidence(t *testing.T) {
	svc, booking, _, contractorUser, profile := setupAssigned(t)
	db := database.DB

	_, err := svc.AdvanceStage(booking.ID, contractorUser.ID, models.StageArriving, nil)
	require.NoError(t, err)

	_, err = svc.AdvanceStage(booking.ID, contractorUser.ID, models.StageWorkStarted, &models.EvidenceInput{
		PhotoURLs: []string{"https://cdn.example.com/before.jpg"},
		Note:      "state before work",
	})
	require.NoError(t, err)

	var evidence models.StageEvidence
	require.NoError(t, db.Where("booking_id = ?", booking.ID).First(&evidence).Error)
	assert.Equal(t, models.EvidenceBefore, evidence.Kind)
	assert.Equal(t, models.StageWorkStarted, evidence.Stage)
	assert.Equal(t, profile.ID, evidence.ContractorID)
	assert.Len(t, []string(evidence.PhotoURLs), 1)
}

func TestExtraPartsFlow(t *testing.T) {
	svc, booking, customer, contractorUser, _ := setupAssigned(t)
	db := database.DB

	advanceBookingTo(t, svc, booking.ID, contractorUser.ID, models.StageWorkCompleted)

	parts, err := svc.RequestExtraParts(booking.ID, contractorUser.ID, []models.ExtraPartCreate{
		{Name: "Shower valve", Quantity: 1, UnitPrice: 800},
		{Name: "Sealant", Quantity: 2, UnitPrice: 100},
	})
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, models.ExtraPartStatusPending, parts[0].Status)
	assert.Equal(t, float64(200), parts[1].TotalPrice)

	advanceBookingTo(t, svc, booking.ID, contractorUser.ID, models.StageAwaitingPayment)

	t.Run("pending parts block payment", func(t *testing.T) {
		canPay, pending, err := svc.CanProceedToPayment(booking.ID)
		require.NoError(t, err)
		assert.False(t, canPay)
		assert.Equal(t, int64(2), pending)

		_, err = svc.CompletePayment(booking.ID, customer.ID, "cash")
		appErr := requireAppError(t, err, models.CodeExtraPartsPending)
		assert.Contains(t, appErr.Message, "2")
	})

	t.Run("only the customer resolves parts", func(t *testing.T) {
		_, err := svc.ResolveExtraPart(parts[0].ID, contractorUser.ID, "approve", "")
		requireAppError(t, err, models.CodeUnauthorized)
	})

	t.Run("payment proceeds once every part is resolved", func(t *testing.T) {
		approved, err := svc.ResolveExtraPart(parts[0].ID, customer.ID, "approve", "go ahead")
		require.NoError(t, err)
		assert.Equal(t, models.ExtraPartStatusApproved, approved.Status)
		assert.NotNil(t, approved.ActionAt)

		rejected, err := svc.ResolveExtraPart(parts[1].ID, customer.ID, "reject", "not needed")
		require.NoError(t, err)
		assert.Equal(t, models.ExtraPartStatusRejected, rejected.Status)

		// Resolution is final
		_, err = svc.ResolveExtraPart(parts[0].ID, customer.ID, "reject", "")
		requireAppError(t, err, models.CodeConflict)

		paid, err := svc.CompletePayment(booking.ID, customer.ID, "cash")
		require.NoError(t, err)
		assert.Equal(t, models.StagePaid, paid.Stage)
		assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
		require.NotNil(t, paid.FinalPrice)

		// Accepted bid amount plus the approved part only
		assert.Equal(t, 4500.0+800.0, *paid.FinalPrice)
		assert.NotNil(t, paid.PaidAt)

		assert.Contains(t, eventTypes(t, db, booking.ID), models.EventPaymentCompleted)
	})

	t.Run("double payment is rejected", func(t *testing.T) {
		_, err := svc.CompletePayment(booking.ID, customer.ID, "cash")
		requireAppError(t, err, models.CodePaymentAlreadyComplete)
	})
}

func TestCompletePaymentWrongStage(t *testing.T) {
	svc, booking, customer, _, _ := setupAssigned(t)

	_, err := svc.CompletePayment(booking.ID, customer.ID, "cash")
	requireAppError(t, err, models.CodeWrongStage)
}

func TestPendingPartsBlockPaymentAtAnyStage(t *testing.T) {
	svc, booking, customer, contractorUser, _ := setupAssigned(t)

	advanceBookingTo(t, svc, booking.ID, contractorUser.ID, models.StageWorkCompleted)

	parts, err := svc.RequestExtraParts(booking.ID, contractorUser.ID, []models.ExtraPartCreate{
		{Name: "Drain trap", Quantity: 1, UnitPrice: 300},
	})
	require.NoError(t, err)

	// The parts gate fires before the stage precondition
	_, err = svc.CompletePayment(booking.ID, customer.ID, "cash")
	requireAppError(t, err, models.CodeExtraPartsPending)

	_, err = svc.ResolveExtraPart(parts[0].ID, customer.ID, "approve", "")
	require.NoError(t, err)

	advanceBookingTo(t, svc, booking.ID, contractorUser.ID, models.StageAwaitingPayment)

	paid, err := svc.CompletePayment(booking.ID, customer.ID, "cash")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	require.NotNil(t, paid.FinalPrice)
	assert.Equal(t, 4500.0+300.0, *paid.FinalPrice)
}

func TestExtraPartsRequireActiveJob(t *testing.T) {
	svc, booking, customer, contractorUser, _ := setupAssigned(t)

	t.Run("rejected at awaiting_payment", func(t *testing.T) {
		advanceBookingTo(t, svc, booking.ID, contractorUser.ID, models.StageAwaitingPayment)

		_, err := svc.RequestExtraParts(booking.ID, contractorUser.ID, []models.ExtraPartCreate{
			{Name: "Late part", Quantity: 1, UnitPrice: 100},
		})
		requireAppError(t, err, models.CodeBookingNotActive)
	})

	t.Run("rejected after payment", func(t *testing.T) {
		_, err := svc.CompletePayment(booking.ID, customer.ID, "card")
		require.NoError(t, err)

		_, err = svc.RequestExtraParts(booking.ID, contractorUser.ID, []models.ExtraPartCreate{
			{Name: "Late part", Quantity: 1, UnitPrice: 100},
		})
		requireAppError(t, err, models.CodeBookingNotActive)
	})
}
