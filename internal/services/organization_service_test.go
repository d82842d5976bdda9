package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/org-membership-api/internal/models"
)

// Creating an organization makes the creator its owner; a taken slug is a conflict on slug.
func TestOrganizationService_Create(t *testing.T) {
	env := setupServiceTestEnv(t)
	u1 := env.signup(t, "u1@example.com")
	ctx := testContext()

	org, err := env.orgs.Create(ctx, u1, OrganizationInput{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)

	role := env.activeRole(t, org.ID, u1.UserID)
	require.NotNil(t, role)
	require.Equal(t, models.RoleOwner, *role)

	_, err = env.orgs.Create(ctx, u1, OrganizationInput{Name: "Acme Two", Slug: "acme"})
	require.ErrorIs(t, err, ErrSlugTaken)
	requireKind(t, err, KindConflict)
	require.Equal(t, "slug", err.(*Error).Field)
	require.EqualValues(t, 1, env.count(t, &models.Organization{}, "1 = 1"))
}

func TestOrganizationService_Create_Validation(t *testing.T) {
	env := setupServiceTestEnv(t)
	u1 := env.signup(t, "u1@example.com")

	website := "not a url"
	email := "nope"
	_, err := env.orgs.Create(testContext(), u1, OrganizationInput{
		Name:    "",
		Slug:    "Bad Slug!",
		Website: &website,
		Email:   &email,
	})
	requireKind(t, err, KindValidation)

	var typed *Error
	require.True(t, errors.As(err, &typed))
	require.Contains(t, typed.Fields, "name")
	require.Contains(t, typed.Fields, "slug")
	require.Contains(t, typed.Fields, "website")
	require.Contains(t, typed.Fields, "email")
}

func TestOrganizationService_Update(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	admin := env.signup(t, "admin@example.com")
	member := env.signup(t, "member@example.com")
	org := env.createOrganization(t, owner, "acme")
	env.createOrganization(t, owner, "taken")
	env.addMember(t, org.ID, admin, models.RoleAdmin)
	env.addMember(t, org.ID, member, models.RoleMember)

	website := "https://acme.example.com"
	updated, err := env.orgs.Update(testContext(), admin, org.ID, OrganizationInput{Name: "Acme Inc", Slug: "acme-inc", Website: &website})
	require.NoError(t, err)
	require.Equal(t, "acme-inc", updated.Slug)

	_, err = env.orgs.Update(testContext(), member, org.ID, OrganizationInput{Name: "Hijack", Slug: "hijack"})
	requireKind(t, err, KindPermissionDenied)

	_, err = env.orgs.Update(testContext(), owner, org.ID, OrganizationInput{Name: "Acme", Slug: "taken"})
	require.ErrorIs(t, err, ErrSlugTaken)

	stored, err := env.store.Organizations().FindByID(testContext(), org.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme Inc", stored.Name)
	require.Equal(t, website, *stored.Website)
}

func TestOrganizationService_Delete(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	admin := env.signup(t, "admin@example.com")
	org := env.createOrganization(t, owner, "acme")
	env.addMember(t, org.ID, admin, models.RoleAdmin)
	env.invite(t, owner, org.ID, "guest@example.com", models.RoleGuest)

	err := env.orgs.Delete(testContext(), admin, org.ID)
	requireKind(t, err, KindPermissionDenied)

	require.NoError(t, env.orgs.Delete(testContext(), owner, org.ID))
	require.Zero(t, env.count(t, &models.OrganizationMember{}, "organization_id = ?", org.ID))
	require.Zero(t, env.count(t, &models.OrganizationInvitation{}, "organization_id = ?", org.ID))

	err = env.orgs.Delete(testContext(), owner, org.ID)
	require.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestOrganizationService_GetAndGetBySlug(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	outsider := env.signup(t, "outsider@example.com")
	org := env.createOrganization(t, owner, "acme")

	found, member, err := env.orgs.GetBySlug(testContext(), owner, "acme")
	require.NoError(t, err)
	require.Equal(t, org.ID, found.ID)
	require.Equal(t, models.RoleOwner, member.Role)

	_, _, err = env.orgs.GetBySlug(testContext(), outsider, "acme")
	require.ErrorIs(t, err, ErrOrganizationNotFound)

	_, role, err := env.orgs.Get(testContext(), owner, org.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleOwner, role)

	_, _, err = env.orgs.Get(testContext(), outsider, org.ID)
	require.ErrorIs(t, err, ErrOrganizationNotFound)

	memberships, err := env.orgs.ListForUser(testContext(), owner)
	require.NoError(t, err)
	require.Len(t, memberships, 1)

	memberships, err = env.orgs.ListForUser(testContext(), outsider)
	require.NoError(t, err)
	require.Empty(t, memberships)
}
