package models

import (
	"time"
)

// ExtraPartStatus represents the approval state of an extra part request
type ExtraPartStatus string

const (
	ExtraPartStatusPending  ExtraPartStatus = "pending"
	ExtraPartStatusApproved ExtraPartStatus = "approved"
	ExtraPartStatusRejected ExtraPartStatus = "rejected"
)

// ExtraPart is an additional billable item the contractor requests mid-job.
// Payment is blocked while any part for the booking is still pending.
type ExtraPart struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	BookingID    uint    `json:"booking_id" gorm:"not null;index"`
	Booking      Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
	ContractorID uint    `json:"contractor_id" gorm:"not null;index"`

	Name       string  `json:"name" gorm:"type:varchar(200);not null"`
	Quantity   int     `json:"quantity" gorm:"not null;default:1"`
	UnitPrice  float64 `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	TotalPrice float64 `json:"total_price" gorm:"type:decimal(10,2);not null"`

	Status        ExtraPartStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CustomerNotes *string         `json:"customer_notes" gorm:"type:text"`
	ActionAt      *time.Time      `json:"action_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the ExtraPart model
func (ExtraPart) TableName() string {
	return "extra_parts"
}

// IsResolved reports whether the customer already acted on the part
func (p *ExtraPart) IsResolved() bool {
	return p.Status != ExtraPartStatusPending
}

// ExtraPartCreate is one requested part in an extra-parts submission
type ExtraPartCreate struct {
	Name      string  `json:"name" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required"`
	UnitPrice float64 `json:"unit_price" binding:"required"`
}

// ExtraPartResolveRequest represents the customer's approve/reject action
type ExtraPartResolveRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
	Notes  string `json:"notes"`
}
