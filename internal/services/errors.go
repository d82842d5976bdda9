package services

import (
	"errors"
	"sort"
	"strings"
)

// Kind classifies a failure the caller can act on.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindPermissionDenied Kind = "permission_denied"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
)

// Error is a typed outcome returned by service entry points.
// Anything that is not an *Error is an unexpected fault.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Fields  map[string][]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], ", "))
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Is matches errors of the same kind, field and message so copies of a sentinel compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Field == t.Field && e.Message == t.Message
}

// KindOf returns the kind of err, or "" for unexpected faults.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, field, message string) *Error {
	return &Error{Kind: kind, Field: field, Message: message}
}

func denied(reason string) *Error {
	return newError(KindPermissionDenied, "", reason)
}

var (
	ErrUserNotFound         = newError(KindNotFound, "", "user not found")
	ErrEmailTaken           = newError(KindConflict, "email", "an account with this email already exists")
	ErrIncorrectPassword    = newError(KindValidation, "current_password", "current password is incorrect")
	ErrConfirmEmailMismatch = newError(KindValidation, "email", "email does not match your account")
	ErrOwnsOrganizations    = newError(KindConflict, "", "transfer or delete the organizations you own first")

	ErrOrganizationNotFound = newError(KindNotFound, "", "organization not found")
	ErrSlugTaken            = newError(KindConflict, "slug", "this slug is already taken")

	ErrMemberNotFound        = newError(KindNotFound, "", "organization member not found")
	ErrAlreadyMember         = newError(KindConflict, "email", "user is already a member of this organization")
	ErrCannotRemoveYourself  = newError(KindValidation, "user_id", "cannot remove yourself, leave the organization instead")
	ErrCannotModifyYourself  = newError(KindValidation, "user_id", "cannot change your own membership")
	ErrCannotModifyOwner     = newError(KindPermissionDenied, "", "the organization owner cannot be changed or removed")
	ErrOwnerCannotLeave      = newError(KindPermissionDenied, "", "the owner cannot leave the organization, transfer ownership first")
	ErrMemberSuspended       = newError(KindConflict, "email", "this membership is suspended, an owner or admin has to reactivate it")
	ErrMemberStatusConflict  = newError(KindConflict, "status", "membership is not in the expected status")
	ErrTransferTargetInvalid = newError(KindValidation, "user_id", "ownership can only be transferred to another active member")

	ErrInvitationNotFound          = newError(KindNotFound, "", "invitation not found")
	ErrInvitationAlreadyPending    = newError(KindConflict, "email", "an invitation is already pending for this email")
	ErrInvitationNotPending        = newError(KindConflict, "status", "invitation is no longer pending")
	ErrInvitationExpired           = newError(KindValidation, "invitation", "invitation has expired")
	ErrInvitationEmailMismatch     = newError(KindPermissionDenied, "", "this invitation was sent to a different email address")
	ErrCannotRevokeOwnerMembership = newError(KindPermissionDenied, "", "cannot revoke the invitation of the organization owner")
)

// ValidationErrors collects field-level validation messages.
type ValidationErrors map[string][]string

func (v ValidationErrors) Add(field, message string) {
	v[field] = append(v[field], message)
}

// Err returns nil when no messages were added.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Message: "invalid input", Fields: v}
}
