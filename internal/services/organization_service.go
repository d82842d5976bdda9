package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/yukikurage/org-membership-api/internal/constants"
	"github.com/yukikurage/org-membership-api/internal/loader"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/policy"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"gorm.io/gorm"
)

// OrganizationService provides business logic for organization operations.
type OrganizationService struct {
	store repository.Store
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(store repository.Store) *OrganizationService {
	return &OrganizationService{
		store: store,
	}
}

// OrganizationInput holds the editable fields of an organization.
type OrganizationInput struct {
	Name    string
	Slug    string
	Address *string
	Phone   *string
	Email   *string
	Website *string
	LogoURL *string
}

func (in OrganizationInput) normalize() OrganizationInput {
	return OrganizationInput{
		Name:    strings.TrimSpace(in.Name),
		Slug:    strings.TrimSpace(in.Slug),
		Address: trimOptional(in.Address),
		Phone:   trimOptional(in.Phone),
		Email:   trimOptional(in.Email),
		Website: trimOptional(in.Website),
		LogoURL: trimOptional(in.LogoURL),
	}
}

func (in OrganizationInput) validate() error {
	errs := ValidationErrors{}

	switch {
	case in.Name == "":
		errs.Add("name", "organization name is required")
	case utf8.RuneCountInString(in.Name) > constants.MaxOrganizationNameLength:
		errs.Add("name", "name too long")
	}

	switch {
	case in.Slug == "":
		errs.Add("slug", "organization slug is required")
	case len(in.Slug) > constants.MaxSlugLength:
		errs.Add("slug", "slug too long")
	case !slugRe.MatchString(in.Slug):
		errs.Add("slug", "slug can only contain lowercase letters, numbers, and dashes")
	}

	checkOptionalLength(errs, "phone", in.Phone, 20)
	checkOptionalEmail(errs, "email", in.Email)
	checkOptionalURL(errs, "website", in.Website)
	checkOptionalURL(errs, "logo_url", in.LogoURL)

	return errs.Err()
}

func (in OrganizationInput) apply(org *models.Organization) {
	org.Name = in.Name
	org.Slug = in.Slug
	org.Address = in.Address
	org.Phone = in.Phone
	org.Email = in.Email
	org.Website = in.Website
	org.LogoURL = in.LogoURL
}

// Create creates a new organization owned by the actor.
func (s *OrganizationService) Create(ctx context.Context, actor Actor, input OrganizationInput) (*models.Organization, error) {
	input = input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	org := &models.Organization{}
	input.apply(org)

	owner := &models.OrganizationMember{
		UserID: actor.UserID,
		Role:   models.RoleOwner,
		Status: models.MemberStatusActive,
	}

	if err := s.store.Organizations().CreateWithOwner(ctx, org, owner); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}
	loader.Invalidate(ctx)

	return org, nil
}

// Update replaces the editable fields of an organization.
func (s *OrganizationService) Update(ctx context.Context, actor Actor, orgID uuid.UUID, input OrganizationInput) (*models.Organization, error) {
	input = input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	org, err := findOrganization(ctx, s.store, orgID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeInOrganization(ctx, s.store, actor, orgID, policy.ActionUpdateOrganization); err != nil {
		return nil, err
	}

	updated := *org
	input.apply(&updated)
	if err := s.store.Organizations().Update(ctx, &updated); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	loader.Invalidate(ctx)

	return &updated, nil
}

// Delete removes an organization with its memberships and invitations.
func (s *OrganizationService) Delete(ctx context.Context, actor Actor, orgID uuid.UUID) error {
	if _, err := findOrganization(ctx, s.store, orgID); err != nil {
		return err
	}
	if _, err := authorizeInOrganization(ctx, s.store, actor, orgID, policy.ActionDeleteOrganization); err != nil {
		return err
	}

	deleted, err := s.store.Organizations().Delete(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	loader.Invalidate(ctx)
	if !deleted {
		return ErrOrganizationNotFound
	}

	return nil
}

// GetBySlug returns the organization only when the actor is an active member of it.
func (s *OrganizationService) GetBySlug(ctx context.Context, actor Actor, slug string) (*models.Organization, *models.OrganizationMember, error) {
	org, member, err := s.store.Organizations().FindBySlugForMember(ctx, slug, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrganizationNotFound
		}
		return nil, nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, member, nil
}

// Get returns an organization and the actor's role in it.
// Non-members get ErrOrganizationNotFound so existence is not revealed.
func (s *OrganizationService) Get(ctx context.Context, actor Actor, orgID uuid.UUID) (*models.Organization, models.OrganizationRole, error) {
	org, err := findOrganization(ctx, s.store, orgID)
	if err != nil {
		return nil, "", err
	}

	role, err := findActiveRole(ctx, s.store, orgID, actor.UserID)
	if err != nil {
		return nil, "", err
	}
	if !policy.Can(role, policy.ActionViewOrganization) {
		return nil, "", ErrOrganizationNotFound
	}

	return org, *role, nil
}

// ListForUser returns the organizations the actor is an active member of.
func (s *OrganizationService) ListForUser(ctx context.Context, actor Actor) ([]models.OrganizationMember, error) {
	memberships, err := s.store.Organizations().ListActiveMembershipsByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return memberships, nil
}
