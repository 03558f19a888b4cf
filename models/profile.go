package models

import "time"

// Verification status values written by the verification engine.
const (
	StatusUnverified        = 0
	StatusPartiallyVerified = 1 // government ID matched the declared identity
	StatusFullyVerified     = 2 // personal ID also matched the government ID
)

// Profile represents a user's self-declared identity and contact data
// (one-to-one with User). The verification engine owns VerificationStatus
// and Verified; everything else is edited by the user.
type Profile struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
	UserID    uint       `gorm:"uniqueIndex;not null"` // one-to-one relation
	User      User       `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	// DOB is kept as a formatted dd-mm-yyyy string, not a date column. The
	// extraction service returns free text and the match rule is plain
	// string comparison, so a date type would only invite false mismatches.
	DOB           string `gorm:"size:32"`
	Gender        string `gorm:"size:32"`
	Address       string `gorm:"size:512"`
	Country       string `gorm:"size:128"`
	State         string `gorm:"size:128"`
	City          string `gorm:"size:128"`
	Contact       string `gorm:"size:64"`
	Qualification string `gorm:"size:255"`
	Occupation    string `gorm:"size:255"`
	ProfilePic    string `gorm:"size:512"`
	// VerificationStatus in {0,1,2}; Verified is true iff status >= 1.
	VerificationStatus int  `gorm:"default:0;not null"`
	Verified           bool `gorm:"default:false;not null"`
}
