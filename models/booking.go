package models

import (
	"time"

	"gorm.io/gorm"
)

// BookingMode controls how a booking is matched with a contractor
type BookingMode string

const (
	ModeSaver          BookingMode = "saver"
	ModeTacklersChoice BookingMode = "tacklers_choice"
)

// IsValid checks the booking mode value
func (m BookingMode) IsValid() bool {
	return m == ModeSaver || m == ModeTacklersChoice
}

// BookingStage is the single canonical lifecycle enum for a booking.
// The legacy clients used a separate display status ("pending_bids",
// "contractor_found", ...) next to the stage; here the stage is the only
// stored field and DisplayStatus derives the old vocabulary from it.
type BookingStage string

const (
	StageFindingContractor BookingStage = "finding_contractor"
	StageAssigned          BookingStage = "assigned"
	StageArriving          BookingStage = "arriving"
	StageWorkStarted       BookingStage = "work_started"
	StageInProgress        BookingStage = "in_progress"
	StageWorkCompleted     BookingStage = "work_completed"
	StageAwaitingPayment   BookingStage = "awaiting_payment"
	StagePaid              BookingStage = "paid"
	StageCancelled         BookingStage = "cancelled"
)

// stageOrder is the forward execution path. Cancelled sits outside the
// ordered path and is only reachable through booking cancellation.
var stageOrder = []BookingStage{
	StageFindingContractor,
	StageAssigned,
	StageArriving,
	StageWorkStarted,
	StageInProgress,
	StageWorkCompleted,
	StageAwaitingPayment,
	StagePaid,
}

// Index returns the position of the stage on the forward path, or -1 for
// stages outside it (cancelled, unknown values)
func (s BookingStage) Index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// NextWorkStage returns the stage the assigned contractor may advance to
// from s. Only the contractor-driven segment assigned → awaiting_payment is
// reachable this way; finding_contractor leaves via bid acceptance and
// awaiting_payment leaves via payment.
func (s BookingStage) NextWorkStage() (BookingStage, bool) {
	switch s {
	case StageAssigned:
		return StageArriving, true
	case StageArriving:
		return StageWorkStarted, true
	case StageWorkStarted:
		return StageInProgress, true
	case StageInProgress:
		return StageWorkCompleted, true
	case StageWorkCompleted:
		return StageAwaitingPayment, true
	default:
		return "", false
	}
}

// IsTerminal reports whether the booking lifecycle is over
func (s BookingStage) IsTerminal() bool {
	return s == StagePaid || s == StageCancelled
}

// DisplayStatus maps the canonical stage to the status vocabulary the
// mobile clients still expect
func (s BookingStage) DisplayStatus() string {
	switch s {
	case StageFindingContractor:
		return "pending_bids"
	case StageAssigned:
		return "contractor_found"
	case StagePaid:
		return "completed"
	default:
		return string(s)
	}
}

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// Booking represents a customer's service request and its lifecycle state
type Booking struct {
	ID           uint               `json:"id" gorm:"primaryKey"`
	CustomerID   uint               `json:"customer_id" gorm:"not null;index"`
	Customer     User               `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	CategoryID   uint               `json:"category_id" gorm:"not null;index"`
	Category     ServiceCategory    `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	ContractorID *uint              `json:"contractor_id" gorm:"index"` // null until a bid is accepted
	Contractor   *ContractorProfile `json:"contractor,omitempty" gorm:"foreignKey:ContractorID"`

	Mode        BookingMode `json:"mode" gorm:"type:varchar(20);not null;default:'saver'"`
	Title       string      `json:"title" gorm:"type:varchar(200);not null"`
	Description string      `json:"description" gorm:"type:text"`
	Address     string      `json:"address" gorm:"type:text;not null"`
	City        string      `json:"city" gorm:"type:varchar(100)"`

	IsASAP       bool       `json:"is_asap" gorm:"default:true"`
	ScheduledFor *time.Time `json:"scheduled_for"`

	PriceEstimate float64  `json:"price_estimate" gorm:"type:decimal(10,2);not null"`
	FinalPrice    *float64 `json:"final_price" gorm:"type:decimal(10,2)"`

	Stage         BookingStage  `json:"stage" gorm:"type:varchar(30);not null;default:'finding_contractor';index"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;default:'unpaid'"`
	PaymentMethod *string       `json:"payment_method" gorm:"type:varchar(30)"`
	CancelReason  *string       `json:"cancel_reason" gorm:"type:text"`

	AssignedAt  *time.Time `json:"assigned_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	PaidAt      *time.Time `json:"paid_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// IsBiddable reports whether contractors may still submit bids
func (b *Booking) IsBiddable() bool {
	return b.Stage == StageFindingContractor
}

// IsActive reports whether the job is between assignment and payment,
// the window in which the assigned contractor may act on it
func (b *Booking) IsActive() bool {
	idx := b.Stage.Index()
	return idx >= StageAssigned.Index() && idx <= StageAwaitingPayment.Index()
}

// BookingCreate represents the request structure for creating a booking
type BookingCreate struct {
	CategoryID    uint        `json:"category_id" binding:"required"`
	Mode          BookingMode `json:"mode"`
	Title         string      `json:"title" binding:"required"`
	Description   string      `json:"description"`
	Address       string      `json:"address" binding:"required"`
	City          string      `json:"city"`
	IsASAP        bool        `json:"is_asap"`
	ScheduledFor  *time.Time  `json:"scheduled_for"`
	PriceEstimate float64     `json:"price_estimate" binding:"required,gt=0"`
}
