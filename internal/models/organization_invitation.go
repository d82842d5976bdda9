package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
	InvitationExpired  InvitationStatus = "expired"
)

// Terminal reports whether no further transition is allowed out of s.
func (s InvitationStatus) Terminal() bool {
	return s != InvitationPending
}

type OrganizationInvitation struct {
	ID              uuid.UUID        `gorm:"type:char(36);primarykey" json:"id"`
	OrganizationID  uuid.UUID        `gorm:"type:char(36);not null;index" json:"organization_id"`
	InvitedByUserID uuid.UUID        `gorm:"type:char(36);not null" json:"invited_by_user_id"`
	Email           string           `gorm:"type:varchar(255);not null;index" json:"email"`
	Role            OrganizationRole `gorm:"type:varchar(50);not null;default:'member'" json:"role"`
	Status          InvitationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ExpiresAt       time.Time        `gorm:"not null" json:"expires_at"`
	AcceptedAt      *time.Time       `json:"accepted_at"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	InvitedBy    User         `gorm:"foreignKey:InvitedByUserID" json:"invited_by,omitempty"`
}

func (i *OrganizationInvitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// ExpiredAt reports whether the invitation can no longer be accepted at now.
func (i OrganizationInvitation) ExpiredAt(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}
