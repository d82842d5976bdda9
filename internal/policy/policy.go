// Package policy decides which organization roles may perform which actions.
package policy

import (
	"fmt"

	"github.com/yukikurage/org-membership-api/internal/models"
)

// Action represents an organization-scoped operation that needs a role check.
type Action string

const (
	ActionInviteUser         Action = "invite_user"
	ActionDeleteInvitation   Action = "delete_invitation"
	ActionViewInvitations    Action = "view_invitations"
	ActionUpdateOrganization Action = "update_organization"
	ActionDeleteOrganization Action = "delete_organization"
	ActionRemoveMember       Action = "remove_member"
	ActionSuspendMember      Action = "suspend_member"
	ActionChangeMemberRole   Action = "change_member_role"
	ActionTransferOwnership  Action = "transfer_ownership"
	ActionLeaveOrganization  Action = "leave_organization"
	ActionViewOrganization   Action = "view_organization"
)

var everyRole = []models.OrganizationRole{
	models.RoleOwner,
	models.RoleAdmin,
	models.RoleManager,
	models.RoleMember,
	models.RoleGuest,
}

var rules = map[Action][]models.OrganizationRole{
	ActionInviteUser:         {models.RoleOwner, models.RoleAdmin, models.RoleManager},
	ActionDeleteInvitation:   {models.RoleOwner, models.RoleAdmin, models.RoleManager},
	ActionViewInvitations:    {models.RoleOwner, models.RoleAdmin, models.RoleManager},
	ActionUpdateOrganization: {models.RoleOwner, models.RoleAdmin},
	ActionDeleteOrganization: {models.RoleOwner},
	ActionRemoveMember:       {models.RoleOwner, models.RoleAdmin},
	ActionSuspendMember:      {models.RoleOwner, models.RoleAdmin},
	ActionChangeMemberRole:   {models.RoleOwner, models.RoleAdmin},
	ActionTransferOwnership:  {models.RoleOwner},
	// the owner has to transfer ownership before leaving
	ActionLeaveOrganization: {models.RoleAdmin, models.RoleManager, models.RoleMember, models.RoleGuest},
	ActionViewOrganization:  everyRole,
}

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Evaluate decides whether role may perform action.
// A nil role means the actor has no active membership.
func Evaluate(role *models.OrganizationRole, action Action) Decision {
	allowed, ok := rules[action]
	if !ok {
		return Decision{Reason: fmt.Sprintf("unknown action %q", action)}
	}
	if role == nil {
		return Decision{Reason: "not an active member of the organization"}
	}

	for _, r := range allowed {
		if r == *role {
			return Decision{Allowed: true}
		}
	}
	return Decision{Reason: fmt.Sprintf("role %s cannot %s", *role, action)}
}

// Can reports whether role may perform action.
func Can(role *models.OrganizationRole, action Action) bool {
	return Evaluate(role, action).Allowed
}
