package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/org-membership-api/internal/database"
	"github.com/yukikurage/org-membership-api/internal/loader"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Passw0rd!"

type notice struct {
	Email   string
	Org     string
	Inviter string
	Role    models.OrganizationRole
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
	err     error
}

func (n *recordingNotifier) NotifyInvitation(_ context.Context, email, organizationName, inviterName string, role models.OrganizationRole) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{Email: email, Org: organizationName, Inviter: inviterName, Role: role})
	return n.err
}

type serviceTestEnv struct {
	db          *gorm.DB
	store       repository.Store
	auth        *AuthService
	orgs        *OrganizationService
	members     *MembershipService
	invitations *InvitationService
	notifier    *recordingNotifier
	now         time.Time
}

func setupServiceTestEnv(t *testing.T) *serviceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))

	store := repository.NewStore(db)
	notifier := &recordingNotifier{}
	env := &serviceTestEnv{
		db:          db,
		store:       store,
		auth:        NewAuthService(store),
		orgs:        NewOrganizationService(store),
		members:     NewMembershipService(store),
		invitations: NewInvitationService(store, notifier),
		notifier:    notifier,
		now:         time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env.auth.cost = bcrypt.MinCost
	env.invitations.now = func() time.Time { return env.now }

	return env
}

// testContext returns a context carrying a fresh request-scoped loader.
func testContext() context.Context {
	return loader.WithLoader(context.Background(), loader.New(time.Minute))
}

func (e *serviceTestEnv) signup(t *testing.T, email string) Actor {
	t.Helper()

	user, err := e.auth.Signup(testContext(), SignupInput{
		Name:            "Test User",
		Email:           email,
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	require.NoError(t, err)
	return Actor{UserID: user.ID, Email: user.Email}
}

func (e *serviceTestEnv) createOrganization(t *testing.T, owner Actor, slug string) *models.Organization {
	t.Helper()

	org, err := e.orgs.Create(testContext(), owner, OrganizationInput{Name: slug, Slug: slug})
	require.NoError(t, err)
	return org
}

func (e *serviceTestEnv) addMember(t *testing.T, orgID uuid.UUID, actor Actor, role models.OrganizationRole) {
	t.Helper()

	_, err := e.members.AddMember(testContext(), orgID, actor.UserID, role, models.MemberStatusActive)
	require.NoError(t, err)
}

func (e *serviceTestEnv) invite(t *testing.T, inviter Actor, orgID uuid.UUID, email string, role models.OrganizationRole) *models.OrganizationInvitation {
	t.Helper()

	invitation, err := e.invitations.Create(testContext(), inviter, orgID, CreateInvitationInput{Email: email, Role: role})
	require.NoError(t, err)
	return invitation
}

func (e *serviceTestEnv) invitation(t *testing.T, id uuid.UUID) *models.OrganizationInvitation {
	t.Helper()

	invitation, err := e.store.Invitations().FindByID(context.Background(), id)
	require.NoError(t, err)
	return invitation
}

func (e *serviceTestEnv) activeRole(t *testing.T, orgID, userID uuid.UUID) *models.OrganizationRole {
	t.Helper()

	role, err := e.store.Organizations().FindActiveRole(context.Background(), orgID, userID)
	require.NoError(t, err)
	return role
}

func (e *serviceTestEnv) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, e.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()

	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}
