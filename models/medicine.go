package models

import "time"

// Medicine represents a donated medicine item. Readable by any verified
// user for discovery; mutated or deleted only by its owner.
type Medicine struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	UserID     uint      `gorm:"index;not null"`
	User       User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name       string    `gorm:"size:255;not null"`
	Brand      string    `gorm:"size:255"`
	ItemType   string    `gorm:"size:128"` // free-text category
	ExpiryDate time.Time `gorm:"not null"`
	Quantity   int       `gorm:"not null"`
	ImageURL   string    `gorm:"size:512"`
}
