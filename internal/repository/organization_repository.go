package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yukikurage/org-membership-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// CreateWithOwner creates an organization and its owner membership in a transaction
func (r *GormOrganizationRepository) CreateWithOwner(ctx context.Context, org *models.Organization, owner *models.OrganizationMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}

		owner.OrganizationID = org.ID
		return tx.Create(owner).Error
	})
}

// FindByID finds an organization by ID
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// FindByIDForUpdate locks the organization row so writers scoped to it run one at a time
func (r *GormOrganizationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// FindBySlugForMember joins the organization with the caller's active membership in one query.
// A missing organization and a missing membership are indistinguishable.
func (r *GormOrganizationRepository) FindBySlugForMember(ctx context.Context, slug string, userID uuid.UUID) (*models.Organization, *models.OrganizationMember, error) {
	db := r.db.WithContext(ctx)

	var member models.OrganizationMember
	if err := db.
		InnerJoins("Organization", db.Where(&models.Organization{Slug: slug})).
		Where("organization_members.user_id = ? AND organization_members.status = ?", userID, models.MemberStatusActive).
		First(&member).Error; err != nil {
		return nil, nil, err
	}

	org := member.Organization
	member.Organization = models.Organization{}
	return &org, &member, nil
}

// Update updates an organization
func (r *GormOrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(org).Error
}

// Delete deletes an organization and all related data in a transaction
func (r *GormOrganizationRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Delete all invitations in the organization
		if err := tx.Where("organization_id = ?", id).Delete(&models.OrganizationInvitation{}).Error; err != nil {
			return err
		}

		// Delete all members
		if err := tx.Where("organization_id = ?", id).Delete(&models.OrganizationMember{}).Error; err != nil {
			return err
		}

		// Delete organization
		result := tx.Where("id = ?", id).Delete(&models.Organization{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected == 1
		return nil
	})
	return deleted, err
}

// AddMember adds a member to an organization
func (r *GormOrganizationRepository) AddMember(ctx context.Context, member *models.OrganizationMember) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(member).Error
}

// UpsertMember inserts the membership or resets role and status of an existing row.
func (r *GormOrganizationRepository) UpsertMember(ctx context.Context, member *models.OrganizationMember) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "organization_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "status", "updated_at"}),
		}).
		Create(member).Error
}

// FindMember finds a specific organization member
func (r *GormOrganizationRepository) FindMember(ctx context.Context, organizationID, userID uuid.UUID) (*models.OrganizationMember, error) {
	var member models.OrganizationMember
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindMemberForUpdate locks the membership row. SQLite serializes writers instead.
func (r *GormOrganizationRepository) FindMemberForUpdate(ctx context.Context, organizationID, userID uuid.UUID) (*models.OrganizationMember, error) {
	var member models.OrganizationMember
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindActiveRole returns nil without error when the user has no active membership.
func (r *GormOrganizationRepository) FindActiveRole(ctx context.Context, organizationID, userID uuid.UUID) (*models.OrganizationRole, error) {
	var member models.OrganizationMember
	err := r.db.WithContext(ctx).
		Select("role").
		Where("organization_id = ? AND user_id = ? AND status = ?", organizationID, userID, models.MemberStatusActive).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member.Role, nil
}

// UpdateMemberStatus only touches the row while it is still in the from status
func (r *GormOrganizationRepository) UpdateMemberStatus(ctx context.Context, organizationID, userID uuid.UUID, from, to models.MemberStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ? AND status = ?", organizationID, userID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateMemberRole changes the role of a membership
func (r *GormOrganizationRepository) UpdateMemberRole(ctx context.Context, organizationID, userID uuid.UUID, role models.OrganizationRole) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Update("role", role)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RemoveMember removes a non-owner member and the invitations addressed to them in a transaction.
// It reports false and leaves the invitations alone when no such membership exists.
func (r *GormOrganizationRepository) RemoveMember(ctx context.Context, organizationID, userID uuid.UUID, email string) (bool, error) {
	var removed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("organization_id = ? AND user_id = ? AND role <> ?", organizationID, userID, models.RoleOwner).
			Delete(&models.OrganizationMember{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true

		return tx.Where("organization_id = ? AND email = ?", organizationID, email).
			Delete(&models.OrganizationInvitation{}).Error
	})
	return removed, err
}

// ListMembers lists all members of an organization
func (r *GormOrganizationRepository) ListMembers(ctx context.Context, organizationID uuid.UUID) ([]models.OrganizationMember, error) {
	var members []models.OrganizationMember
	if err := r.db.WithContext(ctx).Preload("User").
		Where("organization_id = ?", organizationID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListActiveMembershipsByUser lists all organizations a user is an active member of
func (r *GormOrganizationRepository) ListActiveMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]models.OrganizationMember, error) {
	var memberships []models.OrganizationMember
	if err := r.db.WithContext(ctx).Preload("Organization").
		Where("user_id = ? AND status = ?", userID, models.MemberStatusActive).
		Order("joined_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// CountOwnedOrganizations counts organizations where the user is owner
func (r *GormOrganizationRepository) CountOwnedOrganizations(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrganizationMember{}).
		Where("user_id = ? AND role = ?", userID, models.RoleOwner).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
