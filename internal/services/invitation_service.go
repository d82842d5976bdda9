package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/org-membership-api/internal/constants"
	"github.com/yukikurage/org-membership-api/internal/loader"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/notify"
	"github.com/yukikurage/org-membership-api/internal/policy"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"github.com/yukikurage/org-membership-api/internal/utils"
	"gorm.io/gorm"
)

// InvitationService drives invitations through pending → accepted | revoked | expired.
type InvitationService struct {
	store    repository.Store
	notifier notify.Notifier
	now      func() time.Time
}

// NewInvitationService creates a new InvitationService.
func NewInvitationService(store repository.Store, notifier notify.Notifier) *InvitationService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &InvitationService{
		store:    store,
		notifier: notifier,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// CreateInvitationInput holds the invitee and the role they will get.
type CreateInvitationInput struct {
	Email string
	Role  models.OrganizationRole
}

// Create issues a pending invitation valid for seven days and notifies the invitee.
func (s *InvitationService) Create(ctx context.Context, actor Actor, orgID uuid.UUID, input CreateInvitationInput) (*models.OrganizationInvitation, error) {
	email := strings.TrimSpace(input.Email)
	role := input.Role
	if role == "" {
		role = models.RoleMember
	}

	errs := ValidationErrors{}
	checkEmail(errs, "email", email)
	checkInvitableRole(errs, role)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if _, err := authorizeInOrganization(ctx, s.store, actor, orgID, policy.ActionInviteUser); err != nil {
		return nil, err
	}
	org, err := findOrganization(ctx, s.store, orgID)
	if err != nil {
		return nil, err
	}
	inviter, err := findUser(ctx, s.store, actor.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	invitation := &models.OrganizationInvitation{
		OrganizationID:  orgID,
		InvitedByUserID: actor.UserID,
		Email:           email,
		Role:            role,
		Status:          models.InvitationPending,
		ExpiresAt:       now.Add(constants.InvitationTTL),
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		// serializes inviters of one organization; the pending lookup below is not a lock
		if _, err := tx.Organizations().FindByIDForUpdate(ctx, orgID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrganizationNotFound
			}
			return err
		}

		existing, err := tx.Invitations().FindPending(ctx, orgID, email)
		switch {
		case err == nil:
			if !existing.ExpiredAt(now) {
				return ErrInvitationAlreadyPending
			}
			if _, err := tx.Invitations().MarkExpired(ctx, existing.ID, now); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		user, err := tx.Users().FindByEmail(ctx, email)
		switch {
		case err == nil:
			if err := checkJoinable(ctx, tx, orgID, user.ID); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := tx.Invitations().Create(ctx, invitation); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrInvitationAlreadyPending
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, passThrough(err, "create invitation")
	}
	loader.Invalidate(ctx)

	if err := s.notifier.NotifyInvitation(ctx, email, org.Name, inviter.DisplayName(), role); err != nil {
		log.Printf("Failed to notify %s about invitation %s: %v", email, invitation.ID, err)
	}

	return invitation, nil
}

// checkJoinable refuses users that already hold an active or suspended membership.
// Suspensions are lifted by Reactivate only.
func checkJoinable(ctx context.Context, tx repository.Store, orgID, userID uuid.UUID) error {
	member, err := tx.Organizations().FindMember(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	switch member.Status {
	case models.MemberStatusActive:
		return ErrAlreadyMember
	case models.MemberStatusSuspended:
		return ErrMemberSuspended
	}
	return nil
}

// findInvitation maps a missing row to ErrInvitationNotFound.
func (s *InvitationService) findInvitation(ctx context.Context, id uuid.UUID) (*models.OrganizationInvitation, error) {
	invitation, err := s.store.Invitations().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}
	return invitation, nil
}

// checkAddressee compares the invitation email with the actor's stored email, exactly.
func (s *InvitationService) checkAddressee(ctx context.Context, actor Actor, invitation *models.OrganizationInvitation) error {
	user, err := findUser(ctx, s.store, actor.UserID)
	if err != nil {
		return err
	}
	if user.Email != invitation.Email {
		return ErrInvitationEmailMismatch
	}
	return nil
}

// Accept marks the invitation accepted and grants the actor its role, atomically.
func (s *InvitationService) Accept(ctx context.Context, actor Actor, id uuid.UUID) (*models.OrganizationMember, error) {
	invitation, err := s.findInvitation(ctx, id)
	if err != nil {
		return nil, err
	}
	if invitation.Status.Terminal() {
		return nil, ErrInvitationNotPending
	}

	now := s.now()
	if invitation.ExpiredAt(now) {
		return nil, ErrInvitationExpired
	}
	if err := s.checkAddressee(ctx, actor, invitation); err != nil {
		return nil, err
	}

	role := invitation.Role
	if role == "" {
		role = models.RoleMember
	}
	var member *models.OrganizationMember
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		ok, err := tx.Invitations().MarkAccepted(ctx, id, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvitationNotPending
		}

		// a suspension can land after the invitation was issued
		current, err := tx.Organizations().FindMemberForUpdate(ctx, invitation.OrganizationID, actor.UserID)
		switch {
		case err == nil:
			if current.Status == models.MemberStatusSuspended {
				return ErrMemberSuspended
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := tx.Organizations().UpsertMember(ctx, &models.OrganizationMember{
			OrganizationID: invitation.OrganizationID,
			UserID:         actor.UserID,
			Role:           role,
			Status:         models.MemberStatusActive,
		}); err != nil {
			return err
		}

		member, err = tx.Organizations().FindMember(ctx, invitation.OrganizationID, actor.UserID)
		return err
	})
	if err != nil {
		return nil, passThrough(err, "accept invitation")
	}
	loader.Invalidate(ctx)

	return member, nil
}

// Decline moves the invitation to revoked on behalf of the invitee.
func (s *InvitationService) Decline(ctx context.Context, actor Actor, id uuid.UUID) error {
	invitation, err := s.findInvitation(ctx, id)
	if err != nil {
		return err
	}
	if invitation.Status.Terminal() {
		return ErrInvitationNotPending
	}
	if err := s.checkAddressee(ctx, actor, invitation); err != nil {
		return err
	}

	ok, err := s.store.Invitations().MarkRevoked(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to decline invitation: %w", err)
	}
	loader.Invalidate(ctx)
	if !ok {
		return ErrInvitationNotPending
	}

	return nil
}

// Revoke hard-deletes an invitation. Revoking an accepted invitation also removes the
// membership it granted. It reports whether this call made the row disappear.
func (s *InvitationService) Revoke(ctx context.Context, actor Actor, id uuid.UUID) (bool, error) {
	invitation, err := s.findInvitation(ctx, id)
	if err != nil {
		return false, err
	}
	if _, err := authorizeInOrganization(ctx, s.store, actor, invitation.OrganizationID, policy.ActionDeleteInvitation); err != nil {
		return false, err
	}

	var deleted bool
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		locked, err := tx.Invitations().FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// removed concurrently
				return nil
			}
			return err
		}

		if locked.Status == models.InvitationAccepted {
			removed, err := s.removeAcceptedMember(ctx, tx, locked)
			if err != nil {
				return err
			}
			deleted = removed
		}

		ok, err := tx.Invitations().Delete(ctx, id)
		if err != nil {
			return err
		}
		deleted = deleted || ok
		return nil
	})
	if err != nil {
		return false, passThrough(err, "revoke invitation")
	}
	loader.Invalidate(ctx)

	return deleted, nil
}

// removeAcceptedMember removes the membership granted by an accepted invitation.
// The cascade deletes the invitation row itself, so true means the row is gone.
func (s *InvitationService) removeAcceptedMember(ctx context.Context, tx repository.Store, invitation *models.OrganizationInvitation) (bool, error) {
	user, err := tx.Users().FindByEmail(ctx, invitation.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	member, err := tx.Organizations().FindMember(ctx, invitation.OrganizationID, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if member.Role == models.RoleOwner {
		return false, ErrCannotRevokeOwnerMembership
	}

	if _, err := tx.Organizations().RemoveMember(ctx, invitation.OrganizationID, user.ID, invitation.Email); err != nil {
		return false, err
	}
	return true, nil
}

// ExpireStale moves every pending invitation whose deadline passed to expired.
func (s *InvitationService) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.store.Invitations().ExpireStale(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}
	loader.Invalidate(ctx)
	return count, nil
}

// ListForOrganization lists invitations of an organization, oldest first.
func (s *InvitationService) ListForOrganization(ctx context.Context, actor Actor, orgID uuid.UUID, page utils.PaginationParams) ([]models.OrganizationInvitation, int64, error) {
	if _, err := findOrganization(ctx, s.store, orgID); err != nil {
		return nil, 0, err
	}
	if _, err := authorizeInOrganization(ctx, s.store, actor, orgID, policy.ActionViewInvitations); err != nil {
		return nil, 0, err
	}

	invitations, total, err := s.store.Invitations().ListByOrganization(ctx, orgID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, total, nil
}

// ListPendingForActor lists the unexpired pending invitations addressed to the actor.
func (s *InvitationService) ListPendingForActor(ctx context.Context, actor Actor) ([]models.OrganizationInvitation, error) {
	user, err := findUser(ctx, s.store, actor.UserID)
	if err != nil {
		return nil, err
	}

	invitations, err := s.store.Invitations().ListPendingForEmail(ctx, user.Email, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// GetDetails returns an invitation with its organization and inviter.
// Only the addressee and members allowed to view invitations can see it; everyone
// else gets ErrInvitationNotFound.
func (s *InvitationService) GetDetails(ctx context.Context, actor Actor, id uuid.UUID) (*models.OrganizationInvitation, error) {
	invitation, err := s.store.Invitations().FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}

	err = s.checkAddressee(ctx, actor, invitation)
	if err == nil {
		return invitation, nil
	}
	if !errors.Is(err, ErrInvitationEmailMismatch) {
		return nil, err
	}

	role, err := findActiveRole(ctx, s.store, invitation.OrganizationID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !policy.Can(role, policy.ActionViewInvitations) {
		return nil, ErrInvitationNotFound
	}
	return invitation, nil
}
