package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tackler-server/config"
	"tackler-server/models"
)

func TestSubmitBid(t *testing.T) {
	db := setupTestDB(t)
	category := createCategory(t, db, "Plumbing")
	customer := createCustomer(t, db, "+10000000001")
	contractorUser, _ := createContractor(t, db, "+10000000002", category.ID)
	booking := createTestBooking(t, db, customer.ID, category.ID)

	svc := NewBidService()

	t.Run("creates pending bid with expiry window", func(t *testing.T) {
		before := time.Now()
		bid, err := svc.SubmitBid(contractorUser.ID, models.BidCreate{
			BookingID:  booking.ID,
			Amount:     4500,
			ETAMinutes: 30,
			Materials: []models.BidMaterialCreate{
				{Name: "PVC pipe", Cost: 500},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, models.BidStatusPending, bid.Status)
		assert.Equal(t, booking.ID, bid.BookingID)
		assert.Len(t, bid.Materials, 1)

		window := config.AppConfig.Bidding.Window
		assert.WithinDuration(t, before.Add(window), bid.ExpiresAt, 5*time.Second)

		assert.Contains(t, eventTypes(t, db, booking.ID), models.EventBidSubmitted)

		var profile models.ContractorProfile
		require.NoError(t, db.Where("user_id = ?", contractorUser.ID).First(&profile).Error)
		assert.Equal(t, 1, profile.BidsSubmitted)
	})

	t.Run("second active bid on same booking is rejected", func(t *testing.T) {
		_, err := svc.SubmitBid(contractorUser.ID, models.BidCreate{
			BookingID:  booking.ID,
			Amount:     4000,
			ETAMinutes: 20,
		})
		requireAppError(t, err, models.CodeDuplicateBid)

		var count int64
		require.NoError(t, db.Model(&models.Bid{}).Where("booking_id = ?", booking.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rebid allowed after previous bid is expired", func(t *testing.T) {
		require.NoError(t, db.Model(&models.Bid{}).
			Where("booking_id = ?", booking.ID).
			Update("expires_at", time.Now().Add(-time.Minute)).Error)
		swept, err := svc.ExpireBids()
		require.NoError(t, err)
		assert.Equal(t, int64(1), swept)

		bid, err := svc.SubmitBid(contractorUser.ID, models.BidCreate{
			BookingID:  booking.ID,
			Amount:     4200,
			ETAMinutes: 25,
		})
		require.NoError(t, err)
		assert.Equal(t, models.BidStatusPending, bid.Status)
	})
}

func TestSubmitBidValidation(t *testing.T) {
	db := setupTestDB(t)
	category := createCategory(t, db, "Plumbing")
	other := createCategory(t, db, "Electrical")
	customer := createCustomer(t, db, "+10000000001")
	contractorUser, profile := createContractor(t, db, "+10000000002", category.ID)
	booking := createTestBooking(t, db, customer.ID, category.ID)

	svc := NewBidService()

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := svc.SubmitBid(contractorUser.ID, models.BidCreate{
			BookingID: booking.ID, Amount: 0, ETAMinutes: 30,
		})
		requireAppError(t, err, models.CodeInvalidAmount)
	})

	t.Run("rejects eta below minimum", func(t *testing.T) {
		_, err := svc.SubmitBid(contractorUser.ID, models.BidCreate{
			BookingID: booking.ID, Amount: 4500, ETAMinutes: config.AppConfig.Bidding.MinETAMinutes - 1,
		})
		requireAppError(t, err, models.CodeInvalidEta)
	})

	t.Run("rejects category mismatch", func(t *testing.T) {
		mismatched := createTestBooking(t, db, customer.ID, other.ID)
		_, err := svc.SubmitBid(contractorUser.ID, models.BidCreate{
			BookingID: mismatched.ID, Amount: 4500, ETAMinutes: 30,
		})
		requireAppError(t, err, models.CodeServiceMismatch)
	})

	t.Run("rejects unavailable contractor", func(t *testing.T) {
		require.NoError(t, db.Model(profile).Update("is_available", false).Error)
		_, err := svc.SubmitBid(contractorUser.ID, models.BidCreate{
			BookingID: booking.ID, Amount: 4500, ETAMinutes: 30,
		})
		requireAppError(t, err, models.CodeContractorUnavailable)
		require.NoError(t, db.Model(profile).Update("is_available", true).Error)
	})

	t.Run("rejects booking past bidding", func(t *testing.T) {
		require.NoError(t, db.Model(booking).Update("stage", models.StageAssigned).Error)
		_, err := svc.SubmitBid(contractorUser.ID, models.BidCreate{
			BookingID: booking.ID, Amount: 4500, ETAMinutes: 30,
		})
		requireAppError(t, err, models.CodeBookingNotBiddable)
	})
}

func TestAcceptBid(t *testing.T) {
	db := setupTestDB(t)
	category := createCategory(t, db, "Plumbing")
	customer := createCustomer(t, db, "+10000000001")
	winnerUser, winnerProfile := createContractor(t, db, "+10000000002", category.ID)
	loserUser, _ := createContractor(t, db, "+10000000003", category.ID)
	booking := createTestBooking(t, db, customer.ID, category.ID)

	svc := NewBidService()

	winningBid, err := svc.SubmitBid(winnerUser.ID, models.BidCreate{
		BookingID: booking.ID, Amount: 4500, ETAMinutes: 30,
	})
	require.NoError(t, err)
	losingBid, err := svc.SubmitBid(loserUser.ID, models.BidCreate{
		BookingID: booking.ID, Amount: 5000, ETAMinutes: 60,
	})
	require.NoError(t, err)

	t.Run("only the booking customer may accept", func(t *testing.T) {
		_, err := svc.AcceptBid(winningBid.ID, loserUser.ID)
		requireAppError(t, err, models.CodeUnauthorized)
	})

	t.Run("accept assigns contractor and rejects competitors", func(t *testing.T) {
		result, err := svc.AcceptBid(winningBid.ID, customer.ID)
		require.NoError(t, err)

		assert.Equal(t, models.StageAssigned, result.Booking.Stage)
		require.NotNil(t, result.Booking.ContractorID)
		assert.Equal(t, winnerProfile.ID, *result.Booking.ContractorID)
		require.NotNil(t, result.Booking.FinalPrice)
		assert.Equal(t, winningBid.Amount, *result.Booking.FinalPrice)
		assert.NotNil(t, result.Booking.AssignedAt)

		assert.Equal(t, models.BidStatusAccepted, result.Bid.Status)
		assert.Equal(t, []uint{losingBid.ID}, result.RejectedBidIDs)

		var loser models.Bid
		require.NoError(t, db.First(&loser, losingBid.ID).Error)
		assert.Equal(t, models.BidStatusRejected, loser.Status)
		require.NotNil(t, loser.RejectReason)
		assert.Equal(t, "another bid was accepted", *loser.RejectReason)

		assert.Contains(t, eventTypes(t, db, booking.ID), models.EventBidAccepted)
	})

	t.Run("second accept on assigned booking fails", func(t *testing.T) {
		_, err := svc.AcceptBid(losingBid.ID, customer.ID)
		requireAppError(t, err, models.CodeBidAlreadyResolved)
	})
}

func TestAcceptBidRaces(t *testing.T) {
	db := setupTestDB(t)
	category := createCategory(t, db, "Plumbing")
	customer := createCustomer(t, db, "+10000000001")
	firstUser, _ := createContractor(t, db, "+10000000002", category.ID)
	secondUser, _ := createContractor(t, db, "+10000000003", category.ID)
	booking := createTestBooking(t, db, customer.ID, category.ID)

	svc := NewBidService()

	firstBid, err := svc.SubmitBid(firstUser.ID, models.BidCreate{
		BookingID: booking.ID, Amount: 4000, ETAMinutes: 30,
	})
	require.NoError(t, err)
	secondBid, err := svc.SubmitBid(secondUser.ID, models.BidCreate{
		BookingID: booking.ID, Amount: 4500, ETAMinutes: 30,
	})
	require.NoError(t, err)

	t.Run("assigned booking loses the accept race", func(t *testing.T) {
		_, err := svc.AcceptBid(firstBid.ID, customer.ID)
		require.NoError(t, err)

		// Force the second bid back to pending to simulate a stale accept
		// arriving after the booking was already taken
		require.NoError(t, db.Model(&models.Bid{}).
			Where("id = ?", secondBid.ID).
			Updates(map[string]interface{}{"status": models.BidStatusPending, "resolved_at": nil}).Error)

		_, err = svc.AcceptBid(secondBid.ID, customer.ID)
		requireAppError(t, err, models.CodeBookingAlreadyAssigned)
	})
}

func TestAcceptExpiredBid(t *testing.T) {
	db := setupTestDB(t)
	category := createCategory(t, db, "Plumbing")
	customer := createCustomer(t, db, "+10000000001")
	contractorUser, _ := createContractor(t, db, "+10000000002", category.ID)
	booking := createTestBooking(t, db, customer.ID, category.ID)

	svc := NewBidService()

	bid, err := svc.SubmitBid(contractorUser.ID, models.BidCreate{
		BookingID: booking.ID, Amount: 4500, ETAMinutes: 30,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(bid).Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err = svc.AcceptBid(bid.ID, customer.ID)
	requireAppError(t, err, models.CodeBidExpired)

	// Lazy expiry: the failed accept marks the bid expired
	var reloaded models.Bid
	require.NoError(t, db.First(&reloaded, bid.ID).Error)
	assert.Equal(t, models.BidStatusExpired, reloaded.Status)
	assert.NotNil(t, reloaded.ResolvedAt)

	// Booking stays open for new bids
	var reloadedBooking models.Booking
	require.NoError(t, db.First(&reloadedBooking, booking.ID).Error)
	assert.Equal(t, models.StageFindingContractor, reloadedBooking.Stage)
	assert.Nil(t, reloadedBooking.ContractorID)
}

func TestRejectBid(t *testing.T) {
	db := setupTestDB(t)
	category := createCategory(t, db, "Plumbing")
	customer := createCustomer(t, db, "+10000000001")
	contractorUser, _ := createContractor(t, db, "+10000000002", category.ID)
	booking := createTestBooking(t, db, customer.ID, category.ID)

	svc := NewBidService()

	bid, err := svc.SubmitBid(contractorUser.ID, models.BidCreate{
		BookingID: booking.ID, Amount: 4500, ETAMinutes: 30,
	})
	require.NoError(t, err)

	rejected, err := svc.RejectBid(bid.ID, customer.ID, "too expensive")
	require.NoError(t, err)
	assert.Equal(t, models.BidStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectReason)
	assert.Equal(t, "too expensive", *rejected.RejectReason)

	// Terminal bids never change again
	_, err = svc.RejectBid(bid.ID, customer.ID, "again")
	requireAppError(t, err, models.CodeBidAlreadyResolved)
	_, err = svc.AcceptBid(bid.ID, customer.ID)
	requireAppError(t, err, models.CodeBidAlreadyResolved)
}

func TestExpireBidsSweep(t *testing.T) {
	db := setupTestDB(t)
	category := createCategory(t, db, "Plumbing")
	customer := createCustomer(t, db, "+10000000001")
	firstUser, _ := createContractor(t, db, "+10000000002", category.ID)
	secondUser, _ := createContractor(t, db, "+10000000003", category.ID)
	booking := createTestBooking(t, db, customer.ID, category.ID)

	svc := NewBidService()

	stale, err := svc.SubmitBid(firstUser.ID, models.BidCreate{
		BookingID: booking.ID, Amount: 4000, ETAMinutes: 30,
	})
	require.NoError(t, err)
	fresh, err := svc.SubmitBid(secondUser.ID, models.BidCreate{
		BookingID: booking.ID, Amount: 4500, ETAMinutes: 30,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(stale).Update("expires_at", time.Now().Add(-time.Minute)).Error)

	swept, err := svc.ExpireBids()
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	var reloaded models.Bid
	require.NoError(t, db.First(&reloaded, stale.ID).Error)
	assert.Equal(t, models.BidStatusExpired, reloaded.Status)

	var reloadedFresh models.Bid
	require.NoError(t, db.First(&reloadedFresh, fresh.ID).Error)
	assert.Equal(t, models.BidStatusPending, reloadedFresh.Status)

	// Idempotent: a second pass finds nothing
	swept, err = svc.ExpireBids()
	require.NoError(t, err)
	assert.Equal(t, int64(0), swept)
}

func TestCanContractorBid(t *testing.T) {
	db := setupTestDB(t)
	category := createCategory(t, db, "Plumbing")
	customer := createCustomer(t, db, "+10000000001")
	contractorUser, _ := createContractor(t, db, "+10000000002", category.ID)
	booking := createTestBooking(t, db, customer.ID, category.ID)

	svc := NewBidService()

	eligibility, err := svc.CanContractorBid(booking.ID, contractorUser.ID)
	require.NoError(t, err)
	assert.True(t, eligibility.CanBid)

	_, err = svc.SubmitBid(contractorUser.ID, models.BidCreate{
		BookingID: booking.ID, Amount: 4500, ETAMinutes: 30,
	})
	require.NoError(t, err)

	eligibility, err = svc.CanContractorBid(booking.ID, contractorUser.ID)
	require.NoError(t, err)
	assert.False(t, eligibility.CanBid)
	assert.NotEmpty(t, eligibility.Reason)
}
