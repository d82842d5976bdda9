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

// MembershipService manages the members of an organization.
type MembershipService struct {
	store repository.Store
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(store repository.Store) *MembershipService {
	return &MembershipService{
		store: store,
	}
}

// AddMember inserts a membership without a policy check.
// It is the building block for flows that already authorized the caller.
func (s *MembershipService) AddMember(ctx context.Context, orgID, userID uuid.UUID, role models.OrganizationRole, status models.MemberStatus) (*models.OrganizationMember, error) {
	if !role.Valid() {
		errs := ValidationErrors{}
		errs.Add("role", "unknown role")
		return nil, errs.Err()
	}
	if _, err := findOrganization(ctx, s.store, orgID); err != nil {
		return nil, err
	}

	member := &models.OrganizationMember{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		Status:         status,
	}
	if err := s.store.Organizations().AddMember(ctx, member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	loader.Invalidate(ctx)

	return member, nil
}

// findTarget loads the membership the actor wants to act on and refuses self and owner targets.
func (s *MembershipService) findTarget(ctx context.Context, actor Actor, orgID, userID uuid.UUID, selfErr error) (*models.OrganizationMember, error) {
	if userID == actor.UserID {
		return nil, selfErr
	}

	member, err := s.store.Organizations().FindMember(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	if member.Role == models.RoleOwner {
		return nil, ErrCannotModifyOwner
	}
	return member, nil
}

// RemoveMember removes another member together with the invitations sent to them.
func (s *MembershipService) RemoveMember(ctx context.Context, actor Actor, orgID, userID uuid.UUID) error {
	if _, err := findOrganization(ctx, s.store, orgID); err != nil {
		return err
	}
	if _, err := authorizeInOrganization(ctx, s.store, actor, orgID, policy.ActionRemoveMember); err != nil {
		return err
	}

	if _, err := s.findTarget(ctx, actor, orgID, userID, ErrCannotRemoveYourself); err != nil {
		return err
	}

	target, err := findUser(ctx, s.store, userID)
	if err != nil {
		return err
	}

	removed, err := s.store.Organizations().RemoveMember(ctx, orgID, userID, target.Email)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	loader.Invalidate(ctx)
	if !removed {
		return ErrMemberNotFound
	}

	return nil
}

// Suspend deactivates a membership without deleting it.
func (s *MembershipService) Suspend(ctx context.Context, actor Actor, orgID, userID uuid.UUID) error {
	return s.setStatus(ctx, actor, orgID, userID, models.MemberStatusActive, models.MemberStatusSuspended)
}

// Reactivate restores a suspended membership.
func (s *MembershipService) Reactivate(ctx context.Context, actor Actor, orgID, userID uuid.UUID) error {
	return s.setStatus(ctx, actor, orgID, userID, models.MemberStatusSuspended, models.MemberStatusActive)
}

func (s *MembershipService) setStatus(ctx context.Context, actor Actor, orgID, userID uuid.UUID, from, to models.MemberStatus) error {
	if _, err := findOrganization(ctx, s.store, orgID); err != nil {
		return err
	}
	if _, err := authorizeInOrganization(ctx, s.store, actor, orgID, policy.ActionSuspendMember); err != nil {
		return err
	}

	member, err := s.findTarget(ctx, actor, orgID, userID, ErrCannotModifyYourself)
	if err != nil {
		return err
	}
	if member.Status != from {
		return ErrMemberStatusConflict
	}

	ok, err := s.store.Organizations().UpdateMemberStatus(ctx, orgID, userID, from, to)
	if err != nil {
		return fmt.Errorf("failed to update member status: %w", err)
	}
	loader.Invalidate(ctx)
	if !ok {
		return ErrMemberStatusConflict
	}

	return nil
}

// Leave removes the actor from the organization.
func (s *MembershipService) Leave(ctx context.Context, actor Actor, orgID uuid.UUID) error {
	if _, err := findOrganization(ctx, s.store, orgID); err != nil {
		return err
	}

	role, err := findActiveRole(ctx, s.store, orgID, actor.UserID)
	if err != nil {
		return err
	}
	if role != nil && *role == models.RoleOwner {
		return ErrOwnerCannotLeave
	}
	if err := authorize(role, policy.ActionLeaveOrganization); err != nil {
		return err
	}

	user, err := findUser(ctx, s.store, actor.UserID)
	if err != nil {
		return err
	}

	removed, err := s.store.Organizations().RemoveMember(ctx, orgID, actor.UserID, user.Email)
	if err != nil {
		return fmt.Errorf("failed to leave organization: %w", err)
	}
	loader.Invalidate(ctx)
	if !removed {
		return ErrMemberNotFound
	}

	return nil
}

// ChangeRole sets a new non-owner role on another member.
func (s *MembershipService) ChangeRole(ctx context.Context, actor Actor, orgID, userID uuid.UUID, role models.OrganizationRole) (*models.OrganizationMember, error) {
	errs := ValidationErrors{}
	checkInvitableRole(errs, role)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if _, err := findOrganization(ctx, s.store, orgID); err != nil {
		return nil, err
	}
	if _, err := authorizeInOrganization(ctx, s.store, actor, orgID, policy.ActionChangeMemberRole); err != nil {
		return nil, err
	}

	member, err := s.findTarget(ctx, actor, orgID, userID, ErrCannotModifyYourself)
	if err != nil {
		return nil, err
	}
	if member.Role == role {
		return member, nil
	}

	ok, err := s.store.Organizations().UpdateMemberRole(ctx, orgID, userID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to change member role: %w", err)
	}
	loader.Invalidate(ctx)
	if !ok {
		return nil, ErrMemberNotFound
	}

	member.Role = role
	return member, nil
}

// TransferOwnership makes another active member the owner and demotes the actor to admin.
func (s *MembershipService) TransferOwnership(ctx context.Context, actor Actor, orgID, userID uuid.UUID) error {
	if _, err := findOrganization(ctx, s.store, orgID); err != nil {
		return err
	}
	if _, err := authorizeInOrganization(ctx, s.store, actor, orgID, policy.ActionTransferOwnership); err != nil {
		return err
	}
	if userID == actor.UserID {
		return ErrTransferTargetInvalid
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		target, err := tx.Organizations().FindMember(ctx, orgID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}
		if !target.IsActive() {
			return ErrTransferTargetInvalid
		}

		if _, err := tx.Organizations().UpdateMemberRole(ctx, orgID, userID, models.RoleOwner); err != nil {
			return err
		}
		ok, err := tx.Organizations().UpdateMemberRole(ctx, orgID, actor.UserID, models.RoleAdmin)
		if err != nil {
			return err
		}
		if !ok {
			return ErrMemberNotFound
		}
		return nil
	})
	if err != nil {
		return passThrough(err, "transfer ownership")
	}
	loader.Invalidate(ctx)

	return nil
}

// ListMembers lists every member of an organization the actor belongs to.
func (s *MembershipService) ListMembers(ctx context.Context, actor Actor, orgID uuid.UUID) ([]models.OrganizationMember, error) {
	if _, err := findOrganization(ctx, s.store, orgID); err != nil {
		return nil, err
	}
	if _, err := authorizeInOrganization(ctx, s.store, actor, orgID, policy.ActionViewOrganization); err != nil {
		return nil, err
	}

	members, err := s.store.Organizations().ListMembers(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}
