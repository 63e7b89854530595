package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
	"github.com/jahid-csedu/iam-system-sub000/internal/core/port"
)

// Identity is the computed view of an authenticated caller, built once per
// request from validated token claims. It carries everything authorization
// needs without further storage round trips.
type Identity struct {
	Username    string
	Authorities domain.AuthoritySet
	IsRoot      bool
}

// NewIdentity constructs an Identity from a subject and authority strings.
func NewIdentity(username string, authorities []string, isRoot bool) Identity {
	set := make(domain.AuthoritySet, len(authorities))
	for _, authority := range authorities {
		authority = strings.TrimSpace(authority)
		if authority == "" {
			continue
		}
		set[authority] = struct{}{}
	}
	return Identity{Username: username, Authorities: set, IsRoot: isRoot}
}

// Authorizer decides whether a resolved identity may perform a capability.
type Authorizer struct{}

// NewAuthorizer constructs an Authorizer.
func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

// Authorize allows the call iff the identity is root or its authority set
// contains the canonical "SERVICE:ACTION" string. A deny is ErrAccessDenied,
// which is distinct from any authentication failure: identity resolution must
// already have succeeded before this check runs.
func (a *Authorizer) Authorize(identity Identity, serviceName string, action domain.Action) error {
	if identity.IsRoot {
		return nil
	}

	required := serviceName + ":" + string(action)
	if identity.Authorities.Has(required) {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrAccessDenied, required)
}

// HasPermission is the boolean form of Authorize for business logic that
// needs a decision rather than a hard failure.
func (a *Authorizer) HasPermission(identity Identity, capability string) bool {
	if identity.IsRoot {
		return true
	}
	return identity.Authorities.Has(strings.TrimSpace(capability))
}

// AuthorityResolver derives the effective authority set for a user from its
// role assignments.
type AuthorityResolver struct {
	permissions port.PermissionRepository
}

// NewAuthorityResolver constructs an AuthorityResolver.
func NewAuthorityResolver(permissions port.PermissionRepository) *AuthorityResolver {
	return &AuthorityResolver{permissions: permissions}
}

// Resolve returns the union of authority strings across all of the user's
// roles. The root wildcard is never materialized; callers consult
// User.IsRootUser separately.
func (r *AuthorityResolver) Resolve(ctx context.Context, userID string) ([]string, error) {
	if r.permissions == nil {
		return nil, nil
	}

	permissions, err := r.permissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user permissions: %w", err)
	}

	return domain.NewAuthoritySet(permissions).Strings(), nil
}
