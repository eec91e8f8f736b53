// Package authz holds the role/ownership authorization policy for template
// documents. The policy is a pure function over (role, ownership, visibility,
// operation) so the decision table lives in exactly one place.
package authz

import "fmt"

// Role is the closed set of privilege levels a user can hold.
type Role string

const (
	RoleUser    Role = "USER"    // manages private templates only
	RoleCreator Role = "CREATOR" // may publish public templates
	RoleAdmin   Role = "ADMIN"   // bypasses ownership and visibility checks
)

// ParseRole maps stored role text to a Role. Unknown values degrade to the
// least privileged role rather than failing.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleCreator:
		return RoleCreator
	default:
		return RoleUser
	}
}

// Operation is a template operation subject to the policy.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpList   Operation = "list"
	OpRender Operation = "render" // rendering requires read permission
)

// AccessDeniedError names the rejected operation and target so a denial is
// never silently downgraded to a no-op.
type AccessDeniedError struct {
	Op         Operation
	TemplateID string
}

func (e *AccessDeniedError) Error() string {
	if e.TemplateID == "" {
		return fmt.Sprintf("access denied: %s", e.Op)
	}
	return fmt.Sprintf("access denied: %s template %s", e.Op, e.TemplateID)
}

// Can decides whether a subject with the given role may perform op on a
// template it does (or does not) own, with the given visibility.
//
// Admins may do anything. Owners may do anything to their own templates.
// Non-owners may only read public templates; they may never mutate a
// template they do not own.
func Can(role Role, owner, public bool, op Operation) bool {
	if role == RoleAdmin {
		return true
	}
	switch op {
	case OpCreate, OpList:
		// any authenticated subject may create and list; visibility is
		// clamped on create and filtering applied on list
		return true
	case OpRead, OpRender:
		return owner || public
	case OpUpdate, OpDelete:
		return owner
	}
	return false
}

// ClampVisibility applies the create-time visibility rule: USER-role subjects
// always create private templates, whatever they asked for. CREATOR and
// ADMIN keep the requested visibility.
func ClampVisibility(role Role, requestedPublic bool) bool {
	if role == RoleUser {
		return false
	}
	return requestedPublic
}

// ListsAll reports whether the role's listing is unfiltered. Non-admin
// listings are restricted to owned plus public templates.
func ListsAll(role Role) bool {
	return role == RoleAdmin
}
