package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubmissionStatus defines lifecycle states for vendor product submissions.
type SubmissionStatus string

const (
	// SubmissionStatusPending indicates the submission is awaiting review.
	SubmissionStatusPending SubmissionStatus = "pending"
	// SubmissionStatusApproved indicates the submission was merged into the catalog.
	SubmissionStatusApproved SubmissionStatus = "approved"
	// SubmissionStatusRejected indicates the submission was declined.
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	}
	return false
}

// SubmissionType is derived at submit time from whether the product id already existed.
type SubmissionType string

const (
	SubmissionTypeCreate SubmissionType = "create"
	SubmissionTypeUpdate SubmissionType = "update"
)

// ProductSubmission is a vendor-proposed change to one product.
// Snapshot and BaseSnapshot never change after creation.
type ProductSubmission struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	VendorID        uint             `gorm:"not null;index" json:"vendor_id"`
	Vendor          *Account         `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	ProductID       string           `gorm:"size:191;not null;index" json:"product_id"`
	SubmissionType  SubmissionType   `gorm:"type:varchar(16);not null" json:"submission_type"`
	Snapshot        datatypes.JSON   `gorm:"not null" json:"snapshot"`
	BaseSnapshot    datatypes.JSON   `json:"base_snapshot"`
	VendorNote      string           `gorm:"type:text" json:"vendor_note"`
	Status          SubmissionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RejectionReason string           `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	ReviewedAt      *time.Time       `json:"reviewed_at"`
	ReviewedBy      *uint            `json:"reviewed_by"`
}

// IsPending reports whether the submission can still be reviewed.
func (s *ProductSubmission) IsPending() bool {
	return s.Status == SubmissionStatusPending
}
