package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/org-membership-api/internal/database"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvitationRepository is a GORM implementation of InvitationRepository
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &GormInvitationRepository{db: db}
}

// Create creates a new invitation
func (r *GormInvitationRepository) Create(ctx context.Context, invitation *models.OrganizationInvitation) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(invitation).Error
}

// FindByID finds an invitation by ID
func (r *GormInvitationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.OrganizationInvitation, error) {
	var invitation models.OrganizationInvitation
	if err := r.db.WithContext(ctx).First(&invitation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
// SQLite has no row locks and serializes writers instead.
func (r *GormInvitationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.OrganizationInvitation, error) {
	var invitation models.OrganizationInvitation
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&invitation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// FindByIDWithDetails finds an invitation with its organization and inviter
func (r *GormInvitationRepository) FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.OrganizationInvitation, error) {
	var invitation models.OrganizationInvitation
	if err := r.db.WithContext(ctx).
		Preload("Organization").
		Preload("InvitedBy").
		First(&invitation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// FindPending finds the pending invitation for an email within an organization
func (r *GormInvitationRepository) FindPending(ctx context.Context, organizationID uuid.UUID, email string) (*models.OrganizationInvitation, error) {
	var invitation models.OrganizationInvitation
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND email = ? AND status = ?", organizationID, email, models.InvitationPending).
		First(&invitation).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// ListByOrganization lists invitations of an organization with the total count
func (r *GormInvitationRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID, page utils.PaginationParams) ([]models.OrganizationInvitation, int64, error) {
	db := r.db.WithContext(ctx).
		Model(&models.OrganizationInvitation{}).
		Where("organization_id = ?", organizationID).
		Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invitations []models.OrganizationInvitation
	if err := db.Preload("InvitedBy").
		Scopes(database.Paginate(page)).
		Order("created_at ASC").
		Find(&invitations).Error; err != nil {
		return nil, 0, err
	}
	return invitations, total, nil
}

// ListPendingForEmail lists pending invitations addressed to email that have not expired
func (r *GormInvitationRepository) ListPendingForEmail(ctx context.Context, email string, now time.Time) ([]models.OrganizationInvitation, error) {
	var invitations []models.OrganizationInvitation
	if err := r.db.WithContext(ctx).
		Preload("Organization").
		Preload("InvitedBy").
		Where("email = ? AND status = ? AND expires_at > ?", email, models.InvitationPending, now).
		Order("created_at ASC").
		Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// MarkAccepted is a compare-and-set on status: only one caller can win.
func (r *GormInvitationRepository) MarkAccepted(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrganizationInvitation{}).
		Where("id = ? AND status = ? AND expires_at > ?", id, models.InvitationPending, now).
		Updates(map[string]interface{}{
			"status":      models.InvitationAccepted,
			"accepted_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkRevoked moves a pending invitation to revoked
func (r *GormInvitationRepository) MarkRevoked(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrganizationInvitation{}).
		Where("id = ? AND status = ?", id, models.InvitationPending).
		Update("status", models.InvitationRevoked)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkExpired moves a pending invitation past its deadline to expired
func (r *GormInvitationRepository) MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrganizationInvitation{}).
		Where("id = ? AND status = ? AND expires_at <= ?", id, models.InvitationPending, now).
		Update("status", models.InvitationExpired)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Delete deletes an invitation
func (r *GormInvitationRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.OrganizationInvitation{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ExpireStale expires every pending invitation past its deadline and returns how many moved
func (r *GormInvitationRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrganizationInvitation{}).
		Where("status = ? AND expires_at <= ?", models.InvitationPending, now).
		Update("status", models.InvitationExpired)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
