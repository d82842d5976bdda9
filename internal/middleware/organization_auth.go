package middleware

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/org-membership-api/internal/constants"
	apierrors "github.com/yukikurage/org-membership-api/internal/errors"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/policy"
	"github.com/yukikurage/org-membership-api/internal/services"
)

// RequireOrganizationAccess checks that the user is an active member of the organization in :id
func RequireOrganizationAccess(orgService *services.OrganizationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			apierrors.BadRequest(c, "Invalid organization ID")
			return
		}

		actor, ok := GetActor(c)
		if !ok {
			apierrors.Unauthorized(c, "Authentication required")
			return
		}

		// Non-members get 404 so organization existence is not leaked
		org, role, err := orgService.Get(c.Request.Context(), actor, orgID)
		if err != nil {
			if errors.Is(err, services.ErrOrganizationNotFound) {
				apierrors.NotFound(c, "Organization not found")
				return
			}
			log.Printf("Failed to check organization access: %v", err)
			apierrors.InternalError(c, "")
			return
		}

		// Store organization and role in context
		c.Set(constants.ContextKeyOrg, *org)
		c.Set(constants.ContextKeyMembership, role)
		c.Next()
	}
}

// RequireOrganizationPermission rejects requests whose role (set by RequireOrganizationAccess) cannot perform action
func RequireOrganizationPermission(action policy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(constants.ContextKeyMembership)
		if !exists {
			apierrors.Forbidden(c, "Organization access required")
			return
		}

		role, ok := value.(models.OrganizationRole)
		if !ok {
			apierrors.InternalError(c, "Invalid organization member data")
			return
		}

		if decision := policy.Evaluate(&role, action); !decision.Allowed {
			apierrors.Forbidden(c, decision.Reason)
			return
		}

		c.Next()
	}
}

// GetOrganizationRole returns the role stored by RequireOrganizationAccess
func GetOrganizationRole(c *gin.Context) (models.OrganizationRole, bool) {
	value, exists := c.Get(constants.ContextKeyMembership)
	if !exists {
		return "", false
	}
	role, ok := value.(models.OrganizationRole)
	return role, ok
}
