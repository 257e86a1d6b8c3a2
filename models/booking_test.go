package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageOrdering(t *testing.T) {
	assert.Equal(t, 0, StageFindingContractor.Index())
	assert.Equal(t, 1, StageAssigned.Index())
	assert.Equal(t, 7, StagePaid.Index())
	assert.Equal(t, -1, StageCancelled.Index())
	assert.Equal(t, -1, BookingStage("bogus").Index())
}

func TestNextWorkStage(t *testing.T) {
	path := map[BookingStage]BookingStage{
		StageAssigned:      StageArriving,
		StageArriving:      StageWorkStarted,
		StageWorkStarted:   StageInProgress,
		StageInProgress:    StageWorkCompleted,
		StageWorkCompleted: StageAwaitingPayment,
	}
	for from, want := range path {
		next, ok := from.NextWorkStage()
		assert.True(t, ok, "stage %s should be advanceable", from)
		assert.Equal(t, want, next)
	}

	// Entry and exit of the contractor segment are driven by the bid and
	// payment engines, never by a stage advance
	for _, stage := range []BookingStage{StageFindingContractor, StageAwaitingPayment, StagePaid, StageCancelled} {
		_, ok := stage.NextWorkStage()
		assert.False(t, ok, "stage %s should not be advanceable", stage)
	}
}

func TestStageTerminal(t *testing.T) {
	assert.True(t, StagePaid.IsTerminal())
	assert.True(t, StageCancelled.IsTerminal())
	assert.False(t, StageFindingContractor.IsTerminal())
	assert.False(t, StageAwaitingPayment.IsTerminal())
}

func TestDisplayStatus(t *testing.T) {
	assert.Equal(t, "pending_bids", StageFindingContractor.DisplayStatus())
	assert.Equal(t, "contractor_found", StageAssigned.DisplayStatus())
	assert.Equal(t, "completed", StagePaid.DisplayStatus())

	// Every other stage shows its own name
	assert.Equal(t, "arriving", StageArriving.DisplayStatus())
	assert.Equal(t, "in_progress", StageInProgress.DisplayStatus())
	assert.Equal(t, "cancelled", StageCancelled.DisplayStatus())
}

func TestBookingWindows(t *testing.T) {
	b := Booking{Stage: StageFindingContractor}
	assert.True(t, b.IsBiddable())
	assert.False(t, b.IsActive())

	for _, stage := range []BookingStage{StageAssigned, StageArriving, StageWorkStarted, StageInProgress, StageWorkCompleted, StageAwaitingPayment} {
		b.Stage = stage
		assert.False(t, b.IsBiddable(), "stage %s", stage)
		assert.True(t, b.IsActive(), "stage %s", stage)
	}

	for _, stage := range []BookingStage{StagePaid, StageCancelled} {
		b.Stage = stage
		assert.False(t, b.IsBiddable(), "stage %s", stage)
		assert.False(t, b.IsActive(), "stage %s", stage)
	}
}

func TestEvidenceKindForStage(t *testing.T) {
	kind, ok := EvidenceKindForStage(StageWorkStarted)
	assert.True(t, ok)
	assert.Equal(t, EvidenceBefore, kind)

	kind, ok = EvidenceKindForStage(StageInProgress)
	assert.True(t, ok)
	assert.Equal(t, EvidenceDuring, kind)

	kind, ok = EvidenceKindForStage(StageWorkCompleted)
	assert.True(t, ok)
	assert.Equal(t, EvidenceAfter, kind)

	_, ok = EvidenceKindForStage(StageArriving)
	assert.False(t, ok)
}
