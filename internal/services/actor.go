package services

import (
	"github.com/google/uuid"
)

// Actor is the authenticated user on whose behalf an operation runs.
// Email is the address the identity provider vouched for; decisions that hinge on
// email re-read the stored user instead.
type Actor struct {
	UserID uuid.UUID
	Email  string
}
