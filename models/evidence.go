package models

import (
	"time"

	"github.com/lib/pq"
)

// EvidenceKind tags photo evidence by the phase of the job it documents
type EvidenceKind string

const (
	EvidenceBefore EvidenceKind = "before"
	EvidenceDuring EvidenceKind = "during"
	EvidenceAfter  EvidenceKind = "after"
)

// EvidenceKindForStage maps a target stage to the evidence tag attached
// when advancing into it. Stages outside the working window carry none.
func EvidenceKindForStage(stage BookingStage) (EvidenceKind, bool) {
	switch stage {
	case StageWorkStarted:
		return EvidenceBefore, true
	case StageInProgress:
		return EvidenceDuring, true
	case StageWorkCompleted:
		return EvidenceAfter, true
	default:
		return "", false
	}
}

// StageEvidence holds the photo URLs a contractor attached while advancing
// a booking into a stage. The server never uploads anything here; URLs are
// opaque strings produced by the media endpoint or any external store.
type StageEvidence struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	BookingID    uint           `json:"booking_id" gorm:"not null;index"`
	ContractorID uint           `json:"contractor_id" gorm:"not null"`
	Stage        BookingStage   `json:"stage" gorm:"type:varchar(30);not null"`
	Kind         EvidenceKind   `json:"kind" gorm:"type:varchar(20);not null"`
	PhotoURLs    pq.StringArray `json:"photo_urls" gorm:"type:text[]"`
	Note         string         `json:"note" gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at"`
}

// TableName specifies the table name for the StageEvidence model
func (StageEvidence) TableName() string {
	return "stage_evidence"
}

// EvidenceInput carries photo URLs submitted with a stage advance
type EvidenceInput struct {
	PhotoURLs []string `json:"photo_urls"`
	Note      string   `json:"note"`
}
