package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestInvitationRepository_Create_OnePendingPerEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInvitationRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	org := createTestOrganization(t, db, "acme", owner)
	expires := time.Now().UTC().Add(time.Hour)
	first := createTestInvitation(t, db, org, owner, "guest@example.com", expires)

	err := repo.Create(ctx, &models.OrganizationInvitation{
		OrganizationID:  org.ID,
		InvitedByUserID: owner.ID,
		Email:           "guest@example.com",
		Role:            models.RoleMember,
		Status:          models.InvitationPending,
		ExpiresAt:       expires,
	})
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// a terminal row no longer blocks a new invitation
	ok, err := repo.MarkRevoked(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	createTestInvitation(t, db, org, owner, "guest@example.com", expires)
}

func TestInvitationRepository_MarkAccepted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInvitationRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	org := createTestOrganization(t, db, "acme", owner)
	now := time.Now().UTC()

	t.Run("pending and unexpired", func(t *testing.T) {
		invitation := createTestInvitation(t, db, org, owner, "a@example.com", now.Add(time.Hour))

		ok, err := repo.MarkAccepted(ctx, invitation.ID, now)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = repo.MarkAccepted(ctx, invitation.ID, now)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("expired", func(t *testing.T) {
		invitation := createTestInvitation(t, db, org, owner, "b@example.com", now.Add(-time.Minute))

		ok, err := repo.MarkAccepted(ctx, invitation.ID, now)
		require.NoError(t, err)
		require.False(t, ok)

		stored, err := repo.FindByID(ctx, invitation.ID)
		require.NoError(t, err)
		require.Equal(t, models.InvitationPending, stored.Status)
	})

	t.Run("revoked", func(t *testing.T) {
		invitation := createTestInvitation(t, db, org, owner, "c@example.com", now.Add(time.Hour))
		ok, err := repo.MarkRevoked(ctx, invitation.ID)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = repo.MarkAccepted(ctx, invitation.ID, now)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestInvitationRepository_MarkExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInvitationRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	org := createTestOrganization(t, db, "acme", owner)
	now := time.Now().UTC()
	live := createTestInvitation(t, db, org, owner, "live@example.com", now.Add(time.Hour))
	stale := createTestInvitation(t, db, org, owner, "stale@example.com", now.Add(-time.Hour))

	ok, err := repo.MarkExpired(ctx, live.ID, now)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.MarkExpired(ctx, stale.ID, now)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestInvitationRepository_ExpireStale(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInvitationRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	org := createTestOrganization(t, db, "acme", owner)
	now := time.Now().UTC()
	createTestInvitation(t, db, org, owner, "live@example.com", now.Add(time.Hour))
	createTestInvitation(t, db, org, owner, "stale1@example.com", now.Add(-time.Hour))
	createTestInvitation(t, db, org, owner, "stale2@example.com", now.Add(-2*time.Hour))
	accepted := createTestInvitation(t, db, org, owner, "done@example.com", now.Add(time.Hour))
	_, err := repo.MarkAccepted(ctx, accepted.ID, now)
	require.NoError(t, err)

	count, err := repo.ExpireStale(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	count, err = repo.ExpireStale(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.Zero(t, count)

	pending, err := repo.ListPendingForEmail(ctx, "live@example.com", now)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "acme", pending[0].Organization.Slug)
	require.Equal(t, owner.Email, pending[0].InvitedBy.Email)
}

func TestInvitationRepository_ListByOrganization(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInvitationRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	org := createTestOrganization(t, db, "acme", owner)
	expires := time.Now().UTC().Add(time.Hour)
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		createTestInvitation(t, db, org, owner, email, expires)
	}

	invitations, total, err := repo.ListByOrganization(ctx, org.ID, utils.NewPaginationParams(2, 2))
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, invitations, 1)
	require.Equal(t, owner.Email, invitations[0].InvitedBy.Email)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestInvitationRepository_ExpireStale_Postgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewInvitationRepository(db)

	mock.ExpectExec(`UPDATE "organization_invitations" SET "status"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.ExpireStale(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.EqualValues(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationRepository_ExpireStale_PropagatesError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewInvitationRepository(db)

	boom := errors.New("connection reset")
	mock.ExpectExec(`UPDATE "organization_invitations"`).WillReturnError(boom)

	count, err := repo.ExpireStale(context.Background(), time.Now().UTC())
	require.ErrorIs(t, err, boom)
	require.Zero(t, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
