package constants

import "time"

// Session and context keys
const (
	SessionCookieName    = "org_session"
	ContextKeyUserID     = "user_id"
	ContextKeyUserEmail  = "user_email"
	ContextKeyMembership = "organization_member"
	ContextKeyOrg        = "organization"
)

// Account rules
const (
	MinPasswordLength = 8
	MinNameLength     = 2
	MaxNameLength     = 30

	MaxProfileNameLength = 255
	MaxEmailLength       = 255
)

// Organization rules
const (
	MaxOrganizationNameLength = 255
	MaxSlugLength             = 100
)

// InvitationTTL is how long an invitation stays acceptable after it is issued.
const InvitationTTL = 7 * 24 * time.Hour

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
