package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/org-membership-api/internal/dto"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/services"
	"github.com/yukikurage/org-membership-api/internal/utils"
)

// InvitationHandler serves invitation endpoints.
type InvitationHandler struct {
	invitationService *services.InvitationService
}

// NewInvitationHandler creates a new InvitationHandler.
func NewInvitationHandler(invitationService *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
	}
}

// CreateInvitation invites an email address into the organization in :id
func (h *InvitationHandler) CreateInvitation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "id", "organization")
	if !ok {
		return
	}

	type CreateInvitationRequest struct {
		Email string                  `json:"email" binding:"required"`
		Role  models.OrganizationRole `json:"role"`
	}

	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	invitation, err := h.invitationService.Create(c.Request.Context(), actor, orgID, services.CreateInvitationInput{
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInvitationDTO(*invitation))
}

// ListOrganizationInvitations pages through the invitations of an organization
func (h *InvitationHandler) ListOrganizationInvitations(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "id", "organization")
	if !ok {
		return
	}

	page := utils.GetPaginationParams(c)
	invitations, total, err := h.invitationService.ListForOrganization(c.Request.Context(), actor, orgID, page)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.InvitationListDTO{
		Invitations: dto.ToInvitationDTOs(invitations),
		PaginationResponse: utils.PaginationResponse{
			Page:  page.Page,
			Limit: page.Limit,
			Total: total,
		},
	})
}

// ListMyInvitations lists pending invitations addressed to the caller
func (h *InvitationHandler) ListMyInvitations(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListPendingForActor(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvitationDTOs(invitations))
}

// GetInvitation returns an invitation with its organization and inviter
func (h *InvitationHandler) GetInvitation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invitation")
	if !ok {
		return
	}

	invitation, err := h.invitationService.GetDetails(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvitationDTO(*invitation))
}

// AcceptInvitation joins the caller to the inviting organization
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invitation")
	if !ok {
		return
	}

	member, err := h.invitationService.Accept(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organization_id": member.OrganizationID,
		"role":            member.Role,
		"status":          member.Status,
	})
}

// DeclineInvitation refuses an invitation addressed to the caller
func (h *InvitationHandler) DeclineInvitation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invitation")
	if !ok {
		return
	}

	if err := h.invitationService.Decline(c.Request.Context(), actor, id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": models.InvitationRevoked,
	})
}

// DeleteInvitation revokes and deletes an invitation
func (h *InvitationHandler) DeleteInvitation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invitation")
	if !ok {
		return
	}

	deleted, err := h.invitationService.Revoke(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted": deleted,
	})
}
