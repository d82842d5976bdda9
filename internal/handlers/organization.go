package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/org-membership-api/internal/constants"
	"github.com/yukikurage/org-membership-api/internal/dto"
	apierrors "github.com/yukikurage/org-membership-api/internal/errors"
	"github.com/yukikurage/org-membership-api/internal/middleware"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/services"
)

// OrganizationHandler serves organization endpoints.
type OrganizationHandler struct {
	orgService    *services.OrganizationService
	memberService *services.MembershipService
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgService *services.OrganizationService, memberService *services.MembershipService) *OrganizationHandler {
	return &OrganizationHandler{
		orgService:    orgService,
		memberService: memberService,
	}
}

type organizationRequest struct {
	Name    string  `json:"name" binding:"required"`
	Slug    string  `json:"slug" binding:"required"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Website *string `json:"website"`
	LogoURL *string `json:"logo_url"`
}

func (r organizationRequest) input() services.OrganizationInput {
	return services.OrganizationInput{
		Name:    r.Name,
		Slug:    r.Slug,
		Address: r.Address,
		Phone:   r.Phone,
		Email:   r.Email,
		Website: r.Website,
		LogoURL: r.LogoURL,
	}
}

// CreateOrganization creates a new organization owned by the caller
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req organizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	org, err := h.orgService.Create(c.Request.Context(), actor, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.OrganizationWithRoleDTO{
		OrganizationDTO: dto.ToOrganizationDTO(*org),
		Role:            models.RoleOwner,
	})
}

// ListOrganizations returns the organizations the caller is an active member of
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	memberships, err := h.orgService.ListForUser(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := make([]dto.OrganizationWithRoleDTO, len(memberships))
	for i, member := range memberships {
		result[i] = dto.ToOrganizationWithRoleDTO(member)
	}

	c.JSON(http.StatusOK, result)
}

// GetOrganizationBySlug looks an organization up by slug, for members only
func (h *OrganizationHandler) GetOrganizationBySlug(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	org, member, err := h.orgService.GetBySlug(c.Request.Context(), actor, c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OrganizationWithRoleDTO{
		OrganizationDTO: dto.ToOrganizationDTO(*org),
		Role:            member.Role,
	})
}

// GetOrganization returns the organization loaded by RequireOrganizationAccess
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	value, exists := c.Get(constants.ContextKeyOrg)
	if !exists {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}
	org, ok := value.(models.Organization)
	if !ok {
		apierrors.InternalError(c, "Invalid organization data")
		return
	}
	role, _ := middleware.GetOrganizationRole(c)

	c.JSON(http.StatusOK, dto.OrganizationWithRoleDTO{
		OrganizationDTO: dto.ToOrganizationDTO(org),
		Role:            role,
	})
}

// UpdateOrganization replaces the editable fields
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "id", "organization")
	if !ok {
		return
	}

	var req organizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	org, err := h.orgService.Update(c.Request.Context(), actor, orgID, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org))
}

// DeleteOrganization deletes the organization with its members and invitations
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "id", "organization")
	if !ok {
		return
	}

	if err := h.orgService.Delete(c.Request.Context(), actor, orgID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// LeaveOrganization removes the caller from the organization
func (h *OrganizationHandler) LeaveOrganization(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "id", "organization")
	if !ok {
		return
	}

	if err := h.memberService.Leave(c.Request.Context(), actor, orgID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Left organization",
	})
}

// TransferOwnership hands the owner role to another active member
func (h *OrganizationHandler) TransferOwnership(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "id", "organization")
	if !ok {
		return
	}

	type TransferRequest struct {
		UserID string `json:"user_id" binding:"required,uuid"`
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	if err := h.memberService.TransferOwnership(c.Request.Context(), actor, orgID, uuid.MustParse(req.UserID)); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ownership transferred",
	})
}
