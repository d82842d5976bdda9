package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/org-membership-api/internal/constants"
	"github.com/yukikurage/org-membership-api/internal/models"
)

var (
	validate = validator.New()
	slugRe   = regexp.MustCompile(`^[a-z0-9-]+$`)
)

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func checkEmail(errs ValidationErrors, field, email string) {
	switch {
	case email == "":
		errs.Add(field, "email is required")
	case len(email) > constants.MaxEmailLength || !validEmail(email):
		errs.Add(field, "please enter a valid email")
	}
}

// checkPassword applies the password policy: minimum length, at least one letter,
// one digit and one character that is neither.
func checkPassword(errs ValidationErrors, field, password string) {
	if utf8.RuneCountInString(password) < constants.MinPasswordLength {
		errs.Add(field, fmt.Sprintf("must be at least %d characters long", constants.MinPasswordLength))
	}

	var letter, digit, special bool
	for _, r := range password {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	if !letter {
		errs.Add(field, "must contain at least one letter")
	}
	if !digit {
		errs.Add(field, "must contain at least one number")
	}
	if !special {
		errs.Add(field, "must contain at least one special character")
	}
}

func checkInvitableRole(errs ValidationErrors, role models.OrganizationRole) {
	if !role.Invitable() {
		errs.Add("role", "please select a role")
	}
}

func checkOptionalURL(errs ValidationErrors, field string, value *string) {
	if value == nil || *value == "" {
		return
	}
	if validate.Var(*value, "url") != nil {
		errs.Add(field, "please enter a valid URL")
	}
}

func checkOptionalEmail(errs ValidationErrors, field string, value *string) {
	if value == nil || *value == "" {
		return
	}
	checkEmail(errs, field, *value)
}

func checkOptionalLength(errs ValidationErrors, field string, value *string, max int) {
	if value != nil && utf8.RuneCountInString(*value) > max {
		errs.Add(field, fmt.Sprintf("must be at most %d characters long", max))
	}
}

// trimOptional trims value and turns an empty result into nil.
func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
