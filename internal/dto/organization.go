package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/org-membership-api/internal/models"
)

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID                 uuid.UUID              `json:"id"`
	Name               string                 `json:"name"`
	Slug               string                 `json:"slug"`
	Address            *string                `json:"address,omitempty"`
	Phone              *string                `json:"phone,omitempty"`
	Email              *string                `json:"email,omitempty"`
	Website            *string                `json:"website,omitempty"`
	LogoURL            *string                `json:"logo_url,omitempty"`
	SubscriptionPlan   string                 `json:"subscription_plan"`
	SubscriptionStatus string                 `json:"subscription_status"`
	Settings           map[string]interface{} `json:"settings,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
}

// OrganizationWithRoleDTO represents an organization with the user's role
type OrganizationWithRoleDTO struct {
	OrganizationDTO
	Role models.OrganizationRole `json:"role"`
}

// OrganizationMemberDTO represents a member in an organization
type OrganizationMemberDTO struct {
	User     UserDTO                 `json:"user"`
	Role     models.OrganizationRole `json:"role"`
	Status   models.MemberStatus     `json:"status"`
	JoinedAt time.Time               `json:"joined_at"`
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:                 org.ID,
		Name:               org.Name,
		Slug:               org.Slug,
		Address:            org.Address,
		Phone:              org.Phone,
		Email:              org.Email,
		Website:            org.Website,
		LogoURL:            org.LogoURL,
		SubscriptionPlan:   org.SubscriptionPlan,
		SubscriptionStatus: org.SubscriptionStatus,
		Settings:           org.Settings,
		CreatedAt:          org.CreatedAt,
	}
}

// ToOrganizationWithRoleDTO converts an organization member to DTO with role
func ToOrganizationWithRoleDTO(member models.OrganizationMember) OrganizationWithRoleDTO {
	return OrganizationWithRoleDTO{
		OrganizationDTO: ToOrganizationDTO(member.Organization),
		Role:            member.Role,
	}
}

// ToOrganizationMemberDTO converts a member to DTO
func ToOrganizationMemberDTO(member models.OrganizationMember) OrganizationMemberDTO {
	user := ToUserDTO(member.User)
	user.ID = member.UserID
	return OrganizationMemberDTO{
		User:     user,
		Role:     member.Role,
		Status:   member.Status,
		JoinedAt: member.JoinedAt,
	}
}

// ToOrganizationMemberDTOs converts a member list
func ToOrganizationMemberDTOs(members []models.OrganizationMember) []OrganizationMemberDTO {
	result := make([]OrganizationMemberDTO, len(members))
	for i, member := range members {
		result[i] = ToOrganizationMemberDTO(member)
	}
	return result
}
