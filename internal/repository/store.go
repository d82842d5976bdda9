package repository

import (
	"context"

	"gorm.io/gorm"
)

// GormStore is a GORM implementation of Store
type GormStore struct {
	db *gorm.DB
}

// NewStore creates a new Store around an injected database handle
func NewStore(db *gorm.DB) Store {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository {
	return NewUserRepository(s.db)
}

func (s *GormStore) Organizations() OrganizationRepository {
	return NewOrganizationRepository(s.db)
}

func (s *GormStore) Invitations() InvitationRepository {
	return NewInvitationRepository(s.db)
}

// Transaction runs fn with a Store bound to one transaction.
// Nested calls run as savepoints of the outer transaction.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
