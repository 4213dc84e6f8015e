package policy

import (
	"context"

	"fieldserve/internal/domain"

	"github.com/open-policy-agent/opa/rego"
)

const defaultQuery = "data.fieldserve.authz.allow"

// defaultModule is the admin policy evaluated when no bundle path is
// configured. It mirrors the rbac authorizer: the persisted role record
// decides, with a token role of "admin" as an additional grant.
const defaultModule = `package fieldserve.authz

import rego.v1

default allow := false

allow if {
	input.record.is_admin == true
}

allow if {
	some role in input.roles
	role == "admin"
}
`

// Authorizer evaluates admin access through a rego policy over the same
// role lookup the rbac authorizer uses. Like every authorizer here it
// is fail-closed: compile, lookup, and eval errors are all Forbidden.
type Authorizer struct {
	roles domain.RoleStore
	query rego.PreparedEvalQuery
}

func NewAuthorizer(ctx context.Context, roles domain.RoleStore, bundlePath string) (*Authorizer, error) {
	opts := []func(*rego.Rego){rego.Query(defaultQuery)}
	if bundlePath != "" {
		opts = append(opts, rego.Load([]string{bundlePath}, nil))
	} else {
		opts = append(opts, rego.Module("authz.rego", defaultModule))
	}
	prepared, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	return &Authorizer{roles: roles, query: prepared}, nil
}

func (a *Authorizer) RequireAdmin(ctx context.Context, principal domain.Principal) error {
	if principal.Subject == "" {
		return domain.ErrForbidden
	}
	input := map[string]any{
		"subject": principal.Subject,
		"roles":   principal.Roles,
		"record":  map[string]any{"is_admin": false},
	}
	if a.roles != nil {
		if record, err := a.roles.LookupRole(ctx, principal.Subject); err == nil {
			input["record"] = map[string]any{"is_admin": record.IsAdmin}
		}
	}
	results, err := a.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return domain.ErrForbidden
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.ErrForbidden
	}
	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok || !allowed {
		return domain.ErrForbidden
	}
	return nil
}
