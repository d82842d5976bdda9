package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yukikurage/org-membership-api/internal/loader"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/policy"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"gorm.io/gorm"
)

// Loader operation names.
const (
	loadOrganization = "organization"
	loadActiveRole   = "active_role"
	loadUser         = "user"
)

// findOrganization loads an organization through the request-scoped loader.
func findOrganization(ctx context.Context, store repository.Store, id uuid.UUID) (*models.Organization, error) {
	org, err := loader.Fetch(ctx, loadOrganization, id.String(), func(ctx context.Context) (*models.Organization, error) {
		return store.Organizations().FindByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}

// findActiveRole returns nil when the user has no active membership.
func findActiveRole(ctx context.Context, store repository.Store, organizationID, userID uuid.UUID) (*models.OrganizationRole, error) {
	key := organizationID.String() + ":" + userID.String()
	role, err := loader.Fetch(ctx, loadActiveRole, key, func(ctx context.Context) (*models.OrganizationRole, error) {
		return store.Organizations().FindActiveRole(ctx, organizationID, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	return role, nil
}

// findUser always reads the stored user so email comparisons use the current address.
func findUser(ctx context.Context, store repository.Store, id uuid.UUID) (*models.User, error) {
	user, err := store.Users().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func authorize(role *models.OrganizationRole, action policy.Action) error {
	decision := policy.Evaluate(role, action)
	if !decision.Allowed {
		return denied(decision.Reason)
	}
	return nil
}

// authorizeInOrganization loads the actor's active role and checks it against action.
func authorizeInOrganization(ctx context.Context, store repository.Store, actor Actor, organizationID uuid.UUID, action policy.Action) (*models.OrganizationRole, error) {
	role, err := findActiveRole(ctx, store, organizationID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := authorize(role, action); err != nil {
		return nil, err
	}
	return role, nil
}

// passThrough returns typed errors unchanged and wraps everything else.
func passThrough(err error, action string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
