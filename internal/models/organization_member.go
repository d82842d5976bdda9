package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type OrganizationRole string

const (
	RoleOwner   OrganizationRole = "owner"
	RoleAdmin   OrganizationRole = "admin"
	RoleManager OrganizationRole = "manager"
	RoleMember  OrganizationRole = "member"
	RoleGuest   OrganizationRole = "guest"
)

// InvitableRoles are the roles that can be granted through an invitation or a role change.
// Ownership only moves through an explicit transfer.
var InvitableRoles = []OrganizationRole{RoleAdmin, RoleManager, RoleMember, RoleGuest}

// Valid reports whether r is one of the known roles.
func (r OrganizationRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleManager, RoleMember, RoleGuest:
		return true
	}
	return false
}

// Invitable reports whether r may be granted by invitation.
func (r OrganizationRole) Invitable() bool {
	return r.Valid() && r != RoleOwner
}

type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "active"
	MemberStatusInactive  MemberStatus = "inactive"
	MemberStatusPending   MemberStatus = "pending"
	MemberStatusSuspended MemberStatus = "suspended"
)

type OrganizationMember struct {
	OrganizationID uuid.UUID         `gorm:"type:char(36);primarykey" json:"organization_id"`
	UserID         uuid.UUID         `gorm:"type:char(36);primarykey;index" json:"user_id"`
	Role           OrganizationRole  `gorm:"type:varchar(50);not null;default:'member'" json:"role"`
	Status         MemberStatus      `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Permissions    datatypes.JSONMap `json:"permissions,omitempty"`
	JoinedAt       time.Time         `gorm:"autoCreateTime" json:"joined_at"`
	UpdatedAt      time.Time         `json:"updated_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsActive reports whether the membership currently grants its role.
func (m OrganizationMember) IsActive() bool {
	return m.Status == MemberStatusActive
}
