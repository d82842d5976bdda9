package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/utils"
)

// Store groups the repositories that share one database handle.
// Repositories obtained from the Store passed to fn run inside the transaction.
type Store interface {
	Users() UserRepository
	Organizations() OrganizationRepository
	Invitations() InvitationRepository

	// Transaction runs fn in a single database transaction; any error rolls every write back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithCredential creates a user and its first password hash atomically
	CreateWithCredential(ctx context.Context, user *models.User, credential *models.Credential) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// FindByEmail finds a user by exact email match
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdateName sets the display name
	UpdateName(ctx context.Context, id uuid.UUID, name string) error

	// FindLatestCredential returns the most recent password hash for the user
	FindLatestCredential(ctx context.Context, userID uuid.UUID) (*models.Credential, error)

	// ReplaceCredential swaps every stored hash for a new one
	ReplaceCredential(ctx context.Context, userID uuid.UUID, hashedPassword string) error

	// Delete removes the user with credentials and memberships
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// OrganizationRepository defines the interface for organization and membership data access
type OrganizationRepository interface {
	// CreateWithOwner creates an organization and its owner membership atomically
	CreateWithOwner(ctx context.Context, org *models.Organization, owner *models.OrganizationMember) error

	// FindByID finds an organization by ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)

	// FindByIDForUpdate finds an organization and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Organization, error)

	// FindBySlugForMember finds an organization by slug only if userID is an active member of it
	FindBySlugForMember(ctx context.Context, slug string, userID uuid.UUID) (*models.Organization, *models.OrganizationMember, error)

	// Update persists organization fields
	Update(ctx context.Context, org *models.Organization) error

	// Delete deletes an organization with its memberships and invitations
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// AddMember inserts a membership; duplicates return gorm.ErrDuplicatedKey
	AddMember(ctx context.Context, member *models.OrganizationMember) error

	// UpsertMember inserts a membership or overwrites role and status of the existing one
	UpsertMember(ctx context.Context, member *models.OrganizationMember) error

	// FindMember finds a membership regardless of its status
	FindMember(ctx context.Context, organizationID, userID uuid.UUID) (*models.OrganizationMember, error)

	// FindMemberForUpdate finds a membership and locks its row until the transaction ends
	FindMemberForUpdate(ctx context.Context, organizationID, userID uuid.UUID) (*models.OrganizationMember, error)

	// FindActiveRole returns the role of an active membership, or nil
	FindActiveRole(ctx context.Context, organizationID, userID uuid.UUID) (*models.OrganizationRole, error)

	// UpdateMemberStatus moves a membership from one status to another
	UpdateMemberStatus(ctx context.Context, organizationID, userID uuid.UUID, from, to models.MemberStatus) (bool, error)

	// UpdateMemberRole changes the role of a membership
	UpdateMemberRole(ctx context.Context, organizationID, userID uuid.UUID, role models.OrganizationRole) (bool, error)

	// RemoveMember deletes the membership and every invitation for email within the organization
	RemoveMember(ctx context.Context, organizationID, userID uuid.UUID, email string) (bool, error)

	// ListMembers lists all members of an organization with their users
	ListMembers(ctx context.Context, organizationID uuid.UUID) ([]models.OrganizationMember, error)

	// ListActiveMembershipsByUser lists the active memberships of a user with their organizations
	ListActiveMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]models.OrganizationMember, error)

	// CountOwnedOrganizations counts organizations where the user is owner
	CountOwnedOrganizations(ctx context.Context, userID uuid.UUID) (int64, error)
}

// InvitationRepository defines the interface for invitation data access
type InvitationRepository interface {
	// Create inserts a pending invitation; a second pending row for the same pair returns gorm.ErrDuplicatedKey
	Create(ctx context.Context, invitation *models.OrganizationInvitation) error

	// FindByID finds an invitation by ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.OrganizationInvitation, error)

	// FindByIDForUpdate finds an invitation and locks the row for the current transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.OrganizationInvitation, error)

	// FindByIDWithDetails loads the invitation with its organization and inviter
	FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.OrganizationInvitation, error)

	// FindPending finds the pending invitation for an (organization, email) pair
	FindPending(ctx context.Context, organizationID uuid.UUID, email string) (*models.OrganizationInvitation, error)

	// ListByOrganization lists invitations of an organization, oldest first
	ListByOrganization(ctx context.Context, organizationID uuid.UUID, page utils.PaginationParams) ([]models.OrganizationInvitation, int64, error)

	// ListPendingForEmail lists unexpired pending invitations addressed to email
	ListPendingForEmail(ctx context.Context, email string, now time.Time) ([]models.OrganizationInvitation, error)

	// MarkAccepted moves a pending, unexpired invitation to accepted
	MarkAccepted(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)

	// MarkRevoked moves a pending invitation to revoked
	MarkRevoked(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkExpired moves a single pending invitation whose deadline passed to expired
	MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)

	// Delete hard-deletes an invitation
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// ExpireStale moves every pending invitation whose deadline passed to expired
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}
