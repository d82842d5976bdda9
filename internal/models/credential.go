package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Credential stores a password hash for email/password logins.
// The most recently created row for a user is the one that is checked.
type Credential struct {
	ID             uuid.UUID `gorm:"type:char(36);primarykey"`
	UserID         uuid.UUID `gorm:"type:char(36);not null;index"`
	HashedPassword string    `gorm:"type:text;not null"`
	CreatedAt      time.Time
}

func (Credential) TableName() string {
	return "passwords"
}

func (c *Credential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
