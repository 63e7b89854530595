package domain

import (
	"fmt"
	"strings"
)

// Action enumerates the operations a permission can grant on a service.
type Action string

const (
	ActionRead    Action = "READ"
	ActionWrite   Action = "WRITE"
	ActionUpdate  Action = "UPDATE"
	ActionDelete  Action = "DELETE"
	ActionExecute Action = "EXECUTE"
	ActionApprove Action = "APPROVE"
)

// KnownActions lists every supported action value.
func KnownActions() []Action {
	return []Action{ActionRead, ActionWrite, ActionUpdate, ActionDelete, ActionExecute, ActionApprove}
}

// ParseAction normalizes and validates a raw action string.
func ParseAction(raw string) (Action, error) {
	candidate := Action(strings.ToUpper(strings.TrimSpace(raw)))
	for _, action := range KnownActions() {
		if candidate == action {
			return action, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", raw)
}

// Permission defines a (service, action) capability. Identity is the
// (ServiceName, Action) tuple; at most one permission may exist per tuple.
// Only the description is mutable after creation.
type Permission struct {
	ID          string
	ServiceName string
	Action      Action
	Description *string
}

// Authority renders the capability as its canonical "SERVICE:ACTION" string.
func (p Permission) Authority() string {
	return p.ServiceName + ":" + string(p.Action)
}

// Role aggregates a deduplicated set of permissions under a unique name.
type Role struct {
	ID          string
	Name        string
	Description *string
	Permissions []Permission
}

// HasPermission reports whether the role already carries the permission.
func (r Role) HasPermission(permissionID string) bool {
	for _, p := range r.Permissions {
		if p.ID == permissionID {
			return true
		}
	}
	return false
}

// UserRole assigns a role to a user.
type UserRole struct {
	UserID string
	RoleID string
}

// AuthoritySet is the derived union of authority strings granted to a user
// through its roles. The root wildcard is never materialized here; callers
// must short-circuit on User.IsRootUser instead.
type AuthoritySet map[string]struct{}

// NewAuthoritySet builds a set from permission values, deduplicating entries.
func NewAuthoritySet(permissions []Permission) AuthoritySet {
	set := make(AuthoritySet, len(permissions))
	for _, p := range permissions {
		set[p.Authority()] = struct{}{}
	}
	return set
}

// Has reports membership of the provided authority string.
func (s AuthoritySet) Has(authority string) bool {
	_, ok := s[authority]
	return ok
}

// Strings returns the set as a sorted-insensitive slice for embedding in claims.
func (s AuthoritySet) Strings() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, 0, len(s))
	for authority := range s {
		out = append(out, authority)
	}
	return out
}
