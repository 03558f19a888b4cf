package models

import "time"

// Identity document kinds. One row per (user, kind).
const (
	DocGovernmentID = "gid"
	DocPersonalID   = "pid"
)

// IdentityDocument stores one uploaded ID document per user and kind
// together with the fields extracted from its front image. Resubmission
// upserts over the previous attempt; no history is kept.
type IdentityDocument struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint   `gorm:"not null;uniqueIndex:idx_user_doc_kind"`
	Kind      string `gorm:"size:8;not null;uniqueIndex:idx_user_doc_kind"`
	FrontURL  string `gorm:"size:512;not null"`
	BackURL   string `gorm:"size:512"`
	// Extracted fields from the front image, free text as produced by the
	// extraction service. Empty when extraction failed.
	ExtractedName string `gorm:"size:255"`
	ExtractedDOB  string `gorm:"size:64"`
	// Mark the document when extraction failed (do not delete the record so
	// the reverify worker and admins can review it).
	ExtractFailed bool   `gorm:"default:false;index"`
	FailedReason  string `gorm:"size:255"`
	// Set for locally stored images so the reverify worker can re-run
	// extraction without re-fetching from the object store.
	LocalPath string `gorm:"size:512"`
}
