package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/yukikurage/org-membership-api/internal/constants"
	"github.com/yukikurage/org-membership-api/internal/loader"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
)

// AuthService handles account related business logic.
type AuthService struct {
	store repository.Store
	cost  int
}

// NewAuthService creates a new AuthService.
func NewAuthService(store repository.Store) *AuthService {
	return &AuthService{
		store: store,
		cost:  bcrypt.DefaultCost,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Signup creates a new user together with its first credential.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	errs := ValidationErrors{}
	if n := utf8.RuneCountInString(name); n < constants.MinNameLength || n > constants.MaxNameLength {
		errs.Add("name", fmt.Sprintf("display name must be between %d and %d characters long", constants.MinNameLength, constants.MaxNameLength))
	}
	checkEmail(errs, "email", email)
	checkPassword(errs, "password", input.Password)
	if input.Password != input.ConfirmPassword {
		errs.Add("confirm_password", "passwords do not match")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if _, err := s.store.Users().FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email: email,
		Name:  &name,
	}
	credential := &models.Credential{HashedPassword: string(hashedPassword)}

	if err := s.store.Users().CreateWithCredential(ctx, user, credential); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrCreateUser), errors.Is(err, repository.ErrCreateCredential):
			return nil, fmt.Errorf("%w: %v", ErrFailedToCreateUser, err)
		default:
			return nil, fmt.Errorf("failed to complete signup: %w", err)
		}
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.store.Users().FindByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.verifyPassword(ctx, user.ID, input.Password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return user, nil
}

func (s *AuthService) verifyPassword(ctx context.Context, userID uuid.UUID, password string) error {
	credential, err := s.store.Users().FindLatestCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to find credential: %w", err)
	}
	return bcrypt.CompareHashAndPassword([]byte(credential.HashedPassword), []byte(password))
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := loader.Fetch(ctx, loadUser, id.String(), func(ctx context.Context) (*models.User, error) {
		return s.store.Users().FindByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UpdateName changes the actor's display name.
func (s *AuthService) UpdateName(ctx context.Context, actor Actor, name string) (*models.User, error) {
	name = strings.TrimSpace(name)

	errs := ValidationErrors{}
	if name == "" {
		errs.Add("name", "name is required")
	} else if utf8.RuneCountInString(name) > constants.MaxProfileNameLength {
		errs.Add("name", "name is too long")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.store.Users().UpdateName(ctx, actor.UserID, name); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update name: %w", err)
	}
	loader.Invalidate(ctx)

	return s.GetUser(ctx, actor.UserID)
}

// ChangePasswordInput holds the fields of a password change.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// ChangePassword verifies the current password and stores a hash of the new one.
func (s *AuthService) ChangePassword(ctx context.Context, actor Actor, input ChangePasswordInput) error {
	errs := ValidationErrors{}
	if input.CurrentPassword == "" {
		errs.Add("current_password", "current password is required")
	}
	checkPassword(errs, "new_password", input.NewPassword)
	if input.NewPassword != input.ConfirmPassword {
		errs.Add("confirm_password", "passwords do not match")
	}
	if input.CurrentPassword != "" && input.CurrentPassword == input.NewPassword {
		errs.Add("new_password", "new password must be different from current password")
	}
	if err := errs.Err(); err != nil {
		return err
	}

	if err := s.verifyPassword(ctx, actor.UserID, input.CurrentPassword); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIncorrectPassword
		}
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.cost)
	if err != nil {
		return ErrFailedToHashPassword
	}

	if err := s.store.Users().ReplaceCredential(ctx, actor.UserID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// DeleteAccount removes the actor after they typed their own email.
// Owners have to hand over or delete their organizations first.
func (s *AuthService) DeleteAccount(ctx context.Context, actor Actor, confirmEmail string) error {
	user, err := findUser(ctx, s.store, actor.UserID)
	if err != nil {
		return err
	}

	if strings.TrimSpace(confirmEmail) != user.Email {
		return ErrConfirmEmailMismatch
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		owned, err := tx.Organizations().CountOwnedOrganizations(ctx, user.ID)
		if err != nil {
			return err
		}
		if owned > 0 {
			return ErrOwnsOrganizations
		}

		deleted, err := tx.Users().Delete(ctx, user.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return passThrough(err, "delete account")
	}
	loader.Invalidate(ctx)

	return nil
}
