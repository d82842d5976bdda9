package middleware

import (
	"net/http"
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
)

func setupAuthRouter(tokens *auth.TokenIssuer, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-secret"))))

	router.POST("/login", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(constants.ContextKeyUserID, userID.String())
		session.Set(constants.ContextKeyUserEmail, "user@example.com")
		if err := session.Save(); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})

	router.GET("/me", RequireAuth(tokens), func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID.String(), "email": actor.Email})
	})

	return router
}

func TestRequireAuth_NoCredentials(t *testing.T) {
	router := setupAuthRouter(nil, uuid.New())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_Session(t *testing.T) {
	userID := uuid.New()
	router := setupAuthRouter(nil, userID)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), userID.String())
	require.Contains(t, w.Body.String(), "user@example.com")
}

func TestRequireAuth_BearerToken(t *testing.T) {
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	userID := uuid.New()
	router := setupAuthRouter(tokens, uuid.New())

	token, _, err := tokens.Issue(userID, "bearer@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), userID.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	require.False(t, ok)

	id := uuid.New()
	c.Set(constants.ContextKeyUserID, id.String())
	got, ok := GetUserID(c)
	require.True(t, ok)
	require.Equal(t, id, got)

	c.Set(constants.ContextKeyUserID, uint64(42))
	_, ok = GetUserID(c)
	require.False(t, ok)
}
