package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:char(36);primarykey" json:"id"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name         *string    `gorm:"type:varchar(255)" json:"name"`
	Avatar       *string    `gorm:"type:text" json:"avatar,omitempty"`
	Phone        *string    `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Title        *string    `gorm:"type:varchar(100)" json:"title,omitempty"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	Credentials   []Credential         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Organizations []OrganizationMember `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DisplayName returns the name if set, otherwise the email.
func (u User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}
