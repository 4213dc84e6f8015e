package domain

import "context"

type Principal struct {
	Subject   string
	Roles     []string
	RawClaims map[string]any
}

type RoleRecord struct {
	Subject string
	IsAdmin bool
}

type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (Principal, error)
}

// Authorizer decides admin access for a principal. Implementations are
// fail-closed: any lookup or evaluation failure is ErrForbidden, never allow.
type Authorizer interface {
	RequireAdmin(ctx context.Context, principal Principal) error
}

type RoleStore interface {
	LookupRole(ctx context.Context, subject string) (RoleRecord, error)
}
