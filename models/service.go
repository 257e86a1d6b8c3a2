package models

import (
	"time"

	"gorm.io/gorm"
)

// ServiceCategory represents a type of home service (plumbing, electrical,
// cleaning, ...). Bookings and contractor profiles both point at a category
// and bids are only allowed when the two match.
type ServiceCategory struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Slug        string         `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Icon        string         `json:"icon" gorm:"type:varchar(255)"`
	BasePrice   float64        `json:"base_price" gorm:"type:decimal(10,2);default:0"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for the ServiceCategory model
func (ServiceCategory) TableName() string {
	return "service_categories"
}
