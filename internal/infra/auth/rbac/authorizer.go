package rbac

import (
	"context"

	"fieldserve/internal/domain"
)

// Authorizer gates admin routes on the persisted role record for the
// principal's subject. The policy is fail-closed: a missing record, a
// non-admin record, and any lookup error all come back ErrForbidden.
// Absence of proof of permission is denial, never allow.
type Authorizer struct {
	roles domain.RoleStore
}

func NewAuthorizer(roles domain.RoleStore) *Authorizer {
	return &Authorizer{roles: roles}
}

func (a *Authorizer) RequireAdmin(ctx context.Context, principal domain.Principal) error {
	if principal.Subject == "" {
		return domain.ErrForbidden
	}
	if a.roles == nil {
		return domain.ErrForbidden
	}
	record, err := a.roles.LookupRole(ctx, principal.Subject)
	if err != nil {
		return domain.ErrForbidden
	}
	if !record.IsAdmin {
		return domain.ErrForbidden
	}
	return nil
}
