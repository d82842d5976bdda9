package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/org-membership-api/internal/models"
)

func TestAuthService_SignupAndLogin(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := testContext()

	user, err := env.auth.Signup(ctx, SignupInput{
		Name:            "  Alice  ",
		Email:           "alice@example.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, "Alice", user.DisplayName())

	loggedIn, err := env.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: testPassword})
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)

	_, err = env.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: testPassword})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Signup_Validation(t *testing.T) {
	env := setupServiceTestEnv(t)

	_, err := env.auth.Signup(testContext(), SignupInput{
		Name:            "A",
		Email:           "not-an-email",
		Password:        "short",
		ConfirmPassword: "different",
	})
	requireKind(t, err, KindValidation)

	var typed *Error
	require.True(t, errors.As(err, &typed))
	require.Contains(t, typed.Fields, "name")
	require.Contains(t, typed.Fields, "email")
	require.Contains(t, typed.Fields, "password")
	require.Contains(t, typed.Fields, "confirm_password")
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	env := setupServiceTestEnv(t)
	env.signup(t, "alice@example.com")

	_, err := env.auth.Signup(testContext(), SignupInput{
		Name:            "Alice Again",
		Email:           "alice@example.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	require.ErrorIs(t, err, ErrEmailTaken)
	require.Equal(t, "email", err.(*Error).Field)
}

func TestAuthService_UpdateName(t *testing.T) {
	env := setupServiceTestEnv(t)
	actor := env.signup(t, "alice@example.com")
	ctx := testContext()

	// warm the loader so the update has to invalidate it
	_, err := env.auth.GetUser(ctx, actor.UserID)
	require.NoError(t, err)

	user, err := env.auth.UpdateName(ctx, actor, "Alice Liddell")
	require.NoError(t, err)
	require.Equal(t, "Alice Liddell", user.DisplayName())

	_, err = env.auth.UpdateName(ctx, actor, "   ")
	requireKind(t, err, KindValidation)
}

func TestAuthService_ChangePassword(t *testing.T) {
	env := setupServiceTestEnv(t)
	actor := env.signup(t, "alice@example.com")
	ctx := testContext()

	err := env.auth.ChangePassword(ctx, actor, ChangePasswordInput{
		CurrentPassword: "Wr0ng-pass",
		NewPassword:     "N3w-password",
		ConfirmPassword: "N3w-password",
	})
	require.ErrorIs(t, err, ErrIncorrectPassword)

	err = env.auth.ChangePassword(ctx, actor, ChangePasswordInput{
		CurrentPassword: testPassword,
		NewPassword:     testPassword,
		ConfirmPassword: testPassword,
	})
	requireKind(t, err, KindValidation)

	err = env.auth.ChangePassword(ctx, actor, ChangePasswordInput{
		CurrentPassword: testPassword,
		NewPassword:     "N3w-password",
		ConfirmPassword: "N3w-password",
	})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, LoginInput{Email: actor.Email, Password: testPassword})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, LoginInput{Email: actor.Email, Password: "N3w-password"})
	require.NoError(t, err)
}

func TestAuthService_DeleteAccount(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	member := env.signup(t, "member@example.com")
	org := env.createOrganization(t, owner, "acme")
	env.addMember(t, org.ID, member, models.RoleMember)
	ctx := testContext()

	err := env.auth.DeleteAccount(ctx, member, "someone-else@example.com")
	require.ErrorIs(t, err, ErrConfirmEmailMismatch)

	err = env.auth.DeleteAccount(ctx, owner, owner.Email)
	require.ErrorIs(t, err, ErrOwnsOrganizations)

	require.NoError(t, env.auth.DeleteAccount(ctx, member, member.Email))
	require.Zero(t, env.count(t, &models.OrganizationMember{}, "user_id = ?", member.UserID))
	require.Zero(t, env.count(t, &models.Credential{}, "user_id = ?", member.UserID))

	_, err = env.auth.GetUser(testContext(), member.UserID)
	require.ErrorIs(t, err, ErrUserNotFound)
}
