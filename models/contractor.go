package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ContractorProfile represents a contractor's professional profile.
// A bid may only be submitted by a contractor whose category matches the
// booking's category and whose availability flag is on.
type ContractorProfile struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	UserID     uint            `json:"user_id" gorm:"uniqueIndex;not null"`
	CategoryID uint            `json:"category_id" gorm:"not null"`
	Category   ServiceCategory `json:"category" gorm:"foreignKey:CategoryID"`

	PhoneNumber string         `json:"phone_number" gorm:"type:varchar(20);not null"`
	City        string         `json:"city" gorm:"type:varchar(100)"`
	Address     string         `json:"address" gorm:"type:text"`
	Experience  string         `json:"experience" gorm:"type:text"`
	Skills      pq.StringArray `json:"skills" gorm:"type:text[]"`
	HourlyRate  float64        `json:"hourly_rate" gorm:"type:decimal(10,2);default:2500"`

	ProfilePhoto *string `json:"profile_photo" gorm:"type:varchar(500)"`
	IDCardPhoto  *string `json:"id_card_photo" gorm:"type:varchar(500)"`

	IsAvailable bool `json:"is_available" gorm:"default:false"`
	IsVerified  bool `json:"is_verified" gorm:"default:false"`

	BidsSubmitted int     `json:"bids_submitted" gorm:"default:0"`
	BidsAccepted  int     `json:"bids_accepted" gorm:"default:0"`
	JobsCompleted int     `json:"jobs_completed" gorm:"default:0"`
	Rating        float64 `json:"rating" gorm:"type:decimal(3,2);default:0"`
	TotalReviews  int     `json:"total_reviews" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for the ContractorProfile model
func (ContractorProfile) TableName() string {
	return "contractor_profiles"
}

// ContractorProfileRequest represents the request structure for creating or
// updating a contractor profile
type ContractorProfileRequest struct {
	CategoryID   uint     `json:"category_id" binding:"required"`
	PhoneNumber  string   `json:"phone_number" binding:"required"`
	City         string   `json:"city"`
	Address      string   `json:"address"`
	Experience   string   `json:"experience"`
	Skills       []string `json:"skills"`
	HourlyRate   float64  `json:"hourly_rate"`
	ProfilePhoto *string  `json:"profile_photo"`
	IDCardPhoto  *string  `json:"id_card_photo"`
}

// AvailabilityUpdateRequest toggles the contractor's availability
type AvailabilityUpdateRequest struct {
	IsAvailable bool `json:"is_available"`
}
