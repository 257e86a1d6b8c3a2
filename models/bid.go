package models

import (
	"time"
)

// BidStatus represents the lifecycle state of a bid. Transitions are
// monotonic: pending → accepted | rejected | expired, and a terminal bid
// never changes again. Bids are never deleted, only resolved.
type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
	BidStatusExpired  BidStatus = "expired"
)

// Bid represents a contractor's offer against a booking
type Bid struct {
	ID           uint              `json:"id" gorm:"primaryKey"`
	BookingID    uint              `json:"booking_id" gorm:"not null;index"`
	Booking      Booking           `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
	ContractorID uint              `json:"contractor_id" gorm:"not null;index"`
	Contractor   ContractorProfile `json:"contractor,omitempty" gorm:"foreignKey:ContractorID"`

	Amount        float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	ETAMinutes    int       `json:"eta_minutes" gorm:"not null"`
	Note          string    `json:"note" gorm:"type:text"`
	WarrantyTerms string    `json:"warranty_terms" gorm:"type:text"`
	Status        BidStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	RejectReason  *string   `json:"reject_reason" gorm:"type:text"`

	ExpiresAt  time.Time  `json:"expires_at" gorm:"not null;index"`
	ResolvedAt *time.Time `json:"resolved_at"`

	Materials []BidMaterial `json:"materials,omitempty" gorm:"foreignKey:BidID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Bid model
func (Bid) TableName() string {
	return "bids"
}

// IsTerminal reports whether the bid can no longer change state
func (b *Bid) IsTerminal() bool {
	return b.Status != BidStatusPending
}

// IsExpired reports whether the bidding window has closed. Expiry is
// evaluated lazily on reads and accepts; the sweep job catches the rest.
func (b *Bid) IsExpired(now time.Time) bool {
	return now.After(b.ExpiresAt)
}

// BidMaterial is a material line item included in a bid
type BidMaterial struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BidID     uint      `json:"bid_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(200);not null"`
	Cost      float64   `json:"cost" gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the BidMaterial model
func (BidMaterial) TableName() string {
	return "bid_materials"
}

// BidCreate represents the request structure for submitting a bid
type BidCreate struct {
	BookingID     uint                `json:"booking_id" binding:"required"`
	Amount        float64             `json:"amount" binding:"required"`
	ETAMinutes    int                 `json:"eta_minutes" binding:"required"`
	Note          string              `json:"note"`
	WarrantyTerms string              `json:"warranty_terms"`
	Materials     []BidMaterialCreate `json:"materials"`
}

// BidMaterialCreate is a material line item in a bid submission
type BidMaterialCreate struct {
	Name string  `json:"name" binding:"required"`
	Cost float64 `json:"cost"`
}

// BidRejectRequest represents the request structure for rejecting a bid
type BidRejectRequest struct {
	Reason string `json:"reason"`
}

// Eligibility is the advisory result of a can-bid pre-check. The
// authoritative enforcement always happens inside the submit transaction.
type Eligibility struct {
	CanBid bool   `json:"can_bid"`
	Reason string `json:"reason,omitempty"`
}
