package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/org-membership-api/internal/dto"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/services"
)

// MembershipHandler serves the member endpoints of an organization.
type MembershipHandler struct {
	memberService *services.MembershipService
}

// NewMembershipHandler creates a new MembershipHandler.
func NewMembershipHandler(memberService *services.MembershipService) *MembershipHandler {
	return &MembershipHandler{
		memberService: memberService,
	}
}

// ListMembers lists all members of an organization
func (h *MembershipHandler) ListMembers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "id", "organization")
	if !ok {
		return
	}

	members, err := h.memberService.ListMembers(c.Request.Context(), actor, orgID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationMemberDTOs(members))
}

// RemoveMember removes a member from an organization
func (h *MembershipHandler) RemoveMember(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "id", "organization")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "user_id", "user")
	if !ok {
		return
	}

	if err := h.memberService.RemoveMember(c.Request.Context(), actor, orgID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ChangeRole sets a new role on a member
func (h *MembershipHandler) ChangeRole(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "id", "organization")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "user_id", "user")
	if !ok {
		return
	}

	type ChangeRoleRequest struct {
		Role models.OrganizationRole `json:"role" binding:"required"`
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	member, err := h.memberService.ChangeRole(c.Request.Context(), actor, orgID, userID, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": member.UserID,
		"role":    member.Role,
		"status":  member.Status,
	})
}

// SuspendMember deactivates a membership
func (h *MembershipHandler) SuspendMember(c *gin.Context) {
	h.changeStatus(c, h.memberService.Suspend, models.MemberStatusSuspended)
}

// ReactivateMember restores a suspended membership
func (h *MembershipHandler) ReactivateMember(c *gin.Context) {
	h.changeStatus(c, h.memberService.Reactivate, models.MemberStatusActive)
}

func (h *MembershipHandler) changeStatus(c *gin.Context, change func(context.Context, services.Actor, uuid.UUID, uuid.UUID) error, status models.MemberStatus) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "id", "organization")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "user_id", "user")
	if !ok {
		return
	}

	if err := change(c.Request.Context(), actor, orgID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"status":  status,
	})
}
