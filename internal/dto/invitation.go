package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/utils"
)

// InvitationDTO represents an invitation in API responses
type InvitationDTO struct {
	ID             uuid.UUID               `json:"id"`
	OrganizationID uuid.UUID               `json:"organization_id"`
	Email          string                  `json:"email"`
	Role           models.OrganizationRole `json:"role"`
	Status         models.InvitationStatus `json:"status"`
	ExpiresAt      time.Time               `json:"expires_at"`
	AcceptedAt     *time.Time              `json:"accepted_at,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	InvitedBy      *UserDTO                `json:"invited_by,omitempty"`
	Organization   *OrganizationDTO        `json:"organization,omitempty"`
}

// InvitationListDTO is a page of invitations
type InvitationListDTO struct {
	Invitations []InvitationDTO `json:"invitations"`
	utils.PaginationResponse
}

// ToInvitationDTO converts an invitation; relations are included only when loaded
func ToInvitationDTO(invitation models.OrganizationInvitation) InvitationDTO {
	result := InvitationDTO{
		ID:             invitation.ID,
		OrganizationID: invitation.OrganizationID,
		Email:          invitation.Email,
		Role:           invitation.Role,
		Status:         invitation.Status,
		ExpiresAt:      invitation.ExpiresAt,
		AcceptedAt:     invitation.AcceptedAt,
		CreatedAt:      invitation.CreatedAt,
	}

	if invitation.InvitedBy.ID != uuid.Nil {
		user := ToUserDTO(invitation.InvitedBy)
		result.InvitedBy = &user
	}
	if invitation.Organization.ID != uuid.Nil {
		org := ToOrganizationDTO(invitation.Organization)
		result.Organization = &org
	}

	return result
}

// ToInvitationDTOs converts a list of invitations
func ToInvitationDTOs(invitations []models.OrganizationInvitation) []InvitationDTO {
	result := make([]InvitationDTO, len(invitations))
	for i, invitation := range invitations {
		result[i] = ToInvitationDTO(invitation)
	}
	return result
}
