package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/org-membership-api/internal/auth"
	"github.com/yukikurage/org-membership-api/internal/constants"
	"github.com/yukikurage/org-membership-api/internal/database"
	apierrors "github.com/yukikurage/org-membership-api/internal/errors"
	"github.com/yukikurage/org-membership-api/internal/loader"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"github.com/yukikurage/org-membership-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Passw0rd!"

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerTestEnv struct {
	db          *gorm.DB
	tokens      *auth.TokenIssuer
	authService *services.AuthService
	orgService  *services.OrganizationService
	members     *services.MembershipService
	invitations *services.InvitationService

	authHandler       *AuthHandler
	orgHandler        *OrganizationHandler
	memberHandler     *MembershipHandler
	invitationHandler *InvitationHandler
}

func setupHandlerTestEnv(t *testing.T) *handlerTestEnv {
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
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	authService := services.NewAuthService(store)
	orgService := services.NewOrganizationService(store)
	members := services.NewMembershipService(store)
	invitations := services.NewInvitationService(store, nil)

	return &handlerTestEnv{
		db:                db,
		tokens:            tokens,
		authService:       authService,
		orgService:        orgService,
		members:           members,
		invitations:       invitations,
		authHandler:       NewAuthHandler(authService, tokens),
		orgHandler:        NewOrganizationHandler(orgService, members),
		memberHandler:     NewMembershipHandler(members),
		invitationHandler: NewInvitationHandler(invitations),
	}
}

func serviceContext() context.Context {
	return loader.WithLoader(context.Background(), loader.New(time.Minute))
}

func (e *handlerTestEnv) signup(t *testing.T, email string) services.Actor {
	t.Helper()

	user, err := e.authService.Signup(serviceContext(), services.SignupInput{
		Name:            "Test User",
		Email:           email,
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	require.NoError(t, err)
	return services.Actor{UserID: user.ID, Email: user.Email}
}

func (e *handlerTestEnv) createOrganization(t *testing.T, owner services.Actor, slug string) *models.Organization {
	t.Helper()

	org, err := e.orgService.Create(serviceContext(), owner, services.OrganizationInput{Name: slug, Slug: slug})
	require.NoError(t, err)
	return org
}

func (e *handlerTestEnv) addMember(t *testing.T, orgID uuid.UUID, actor services.Actor, role models.OrganizationRole) {
	t.Helper()

	_, err := e.members.AddMember(serviceContext(), orgID, actor.UserID, role, models.MemberStatusActive)
	require.NoError(t, err)
}

func (e *handlerTestEnv) invite(t *testing.T, inviter services.Actor, orgID uuid.UUID, email string) *models.OrganizationInvitation {
	t.Helper()

	invitation, err := e.invitations.Create(serviceContext(), inviter, orgID, services.CreateInvitationInput{Email: email, Role: models.RoleMember})
	require.NoError(t, err)
	return invitation
}

// newTestContext builds a gin context for calling a handler directly.
// A zero actor leaves the request unauthenticated.
func newTestContext(t *testing.T, method, url string, payload interface{}, actor services.Actor, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req = req.WithContext(serviceContext())

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	if actor.UserID != uuid.Nil {
		c.Set(constants.ContextKeyUserID, actor.UserID)
		c.Set(constants.ContextKeyUserEmail, actor.Email)
	}

	return c, w
}

// newTestRouter returns an engine with a cookie session store, as the server uses a redis one.
func newTestRouter() *gin.Engine {
	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	return r
}

func ginParam(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}

func idParam(id uuid.UUID) gin.Param {
	return gin.Param{Key: "id", Value: id.String()}
}

func userIDParam(id uuid.UUID) gin.Param {
	return gin.Param{Key: "user_id", Value: id.String()}
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()

	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}
