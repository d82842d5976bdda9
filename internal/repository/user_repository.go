package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yukikurage/org-membership-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when creating a user fails inside the signup transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateCredential is returned when storing the password hash fails inside the signup transaction.
	ErrCreateCredential = errors.New("user repository: create credential failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// CreateWithCredential creates a user and its password hash atomically.
func (r *GormUserRepository) CreateWithCredential(ctx context.Context, user *models.User, credential *models.Credential) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		credential.UserID = user.ID
		if err := tx.Create(credential).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateCredential, err)
		}

		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateName sets the display name
func (r *GormUserRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindLatestCredential returns the newest password hash
func (r *GormUserRepository) FindLatestCredential(ctx context.Context, userID uuid.UUID) (*models.Credential, error) {
	var credential models.Credential
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&credential).Error; err != nil {
		return nil, err
	}
	return &credential, nil
}

// ReplaceCredential removes old hashes and stores the new one in a transaction
func (r *GormUserRepository) ReplaceCredential(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Credential{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.Credential{UserID: userID, HashedPassword: hashedPassword}).Error
	})
}

// Delete removes the user, its credentials, memberships and sent invitations in a transaction
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Credential{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.OrganizationMember{}).Error; err != nil {
			return err
		}

		if err := tx.Where("invited_by_user_id = ?", id).Delete(&models.OrganizationInvitation{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected == 1
		return nil
	})
	return deleted, err
}
