package models

import (
	"time"
)

// BookingDraft is the resumable booking form a customer abandoned mid-way.
// It lives only in the draft store (redis) and is never read by the bid or
// stage engines; loading a draft just pre-fills the creation form.
type BookingDraft struct {
	CategoryID    uint        `json:"category_id"`
	Mode          BookingMode `json:"mode"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Address       string      `json:"address"`
	City          string      `json:"city"`
	IsASAP        bool        `json:"is_asap"`
	ScheduledFor  *time.Time  `json:"scheduled_for"`
	PriceEstimate float64     `json:"price_estimate"`
	Step          int         `json:"step"` // wizard step the customer stopped at
	SavedAt       time.Time   `json:"saved_at"`
}
