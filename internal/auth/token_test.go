package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	userID := uuid.New()

	token, expiresAt, err := issuer.Issue(userID, "user@example.com")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	gotID, gotEmail, err := issuer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, userID, gotID)
	require.Equal(t, "user@example.com", gotEmail)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	issuer.now = func() time.Time { return issued }

	token, _, err := issuer.Issue(uuid.New(), "user@example.com")
	require.NoError(t, err)

	issuer.now = time.Now
	_, _, err = issuer.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("secret", time.Hour).Issue(uuid.New(), "user@example.com")
	require.NoError(t, err)

	_, _, err = NewTokenIssuer("other", time.Hour).Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{UserID: uuid.NewString(), Email: "user@example.com"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, _, err = NewTokenIssuer("secret", time.Hour).Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Garbage(t *testing.T) {
	_, _, err := NewTokenIssuer("secret", time.Hour).Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
