package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Organization struct {
	ID                 uuid.UUID         `gorm:"type:char(36);primarykey" json:"id"`
	Name               string            `gorm:"type:varchar(255);not null" json:"name"`
	Slug               string            `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Address            *string           `gorm:"type:text" json:"address"`
	Phone              *string           `gorm:"type:varchar(20)" json:"phone"`
	Email              *string           `gorm:"type:varchar(255)" json:"email"`
	Website            *string           `gorm:"type:varchar(255)" json:"website"`
	LogoURL            *string           `gorm:"column:logo_url;type:text" json:"logo_url"`
	SubscriptionPlan   string            `gorm:"type:varchar(50);default:'free'" json:"subscription_plan"`
	SubscriptionStatus string            `gorm:"type:varchar(20);default:'active'" json:"subscription_status"`
	Settings           datatypes.JSONMap `json:"settings"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`

	// Relations
	Members     []OrganizationMember     `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Invitations []OrganizationInvitation `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"invitations,omitempty"`
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
