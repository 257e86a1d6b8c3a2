package models

import (
	"encoding/json"
	"time"
)

// Booking event types emitted on every successful state transition
const (
	EventBidSubmitted        = "bid_submitted"
	EventBidAccepted         = "bid_accepted"
	EventBidRejected         = "bid_rejected"
	EventStageAdvanced       = "stage_advanced"
	EventExtraPartsRequested = "extra_parts_requested"
	EventExtraPartResolved   = "extra_part_resolved"
	EventPaymentCompleted    = "payment_completed"
	EventBookingCancelled    = "booking_cancelled"
)

// BookingEvent is the persisted record of a state transition. The row is
// written in the same transaction as the transition itself; websocket
// delivery is at-least-once and consumers deduplicate by event id.
type BookingEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Type      string    `json:"type" gorm:"type:varchar(50);not null;index"`
	BookingID uint      `json:"booking_id" gorm:"not null;index"`
	ActorID   uint      `json:"actor_id" gorm:"not null"`
	Payload   string    `json:"payload" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the BookingEvent model
func (BookingEvent) TableName() string {
	return "booking_events"
}

// NewBookingEvent builds an event with a JSON-encoded payload
func NewBookingEvent(eventType string, bookingID, actorID uint, payload map[string]interface{}) *BookingEvent {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("{}")
	}
	return &BookingEvent{
		Type:      eventType,
		BookingID: bookingID,
		ActorID:   actorID,
		Payload:   string(data),
	}
}

// PayloadMap decodes the JSON payload for delivery to subscribers
func (e *BookingEvent) PayloadMap() map[string]interface{} {
	out := map[string]interface{}{}
	_ = json.Unmarshal([]byte(e.Payload), &out)
	return out
}
