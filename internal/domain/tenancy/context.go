package tenancy

import (
	"context"
)

// contextKey is a private type for context keys used by the tenancy package
type contextKey struct{}

var tenantKey contextKey

// WithTenant returns a new context carrying the tenant identity. The value
// replaces any identity already present; it never merges.
func WithTenant(ctx context.Context, tenant Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, tenant)
}

// FromContext retrieves the tenant identity from the context. The second
// return value is false when no identity was installed, which is the normal
// state for unauthenticated and system paths.
func FromContext(ctx context.Context) (Tenant, bool) {
	tenant, ok := ctx.Value(tenantKey).(Tenant)
	return tenant, ok
}

// MustFromContext retrieves an established tenant identity or panics.
// Use on paths where the tenant middleware is guaranteed to have run.
func MustFromContext(ctx context.Context) Tenant {
	tenant, ok := FromContext(ctx)
	if !ok || !tenant.IsSet() {
		panic("tenancy: no tenant identity in context")
	}
	return tenant
}

// WithBypass returns a context whose tenant identity has scope bypass
// toggled. When no identity is present an empty bypassing identity is
// installed so administrative paths can run unscoped cross-company queries.
// Callers must have verified the principal's administrative grant first.
func WithBypass(ctx context.Context, enable bool) context.Context {
	tenant, _ := FromContext(ctx)
	return WithTenant(ctx, tenant.WithBypass(enable))
}
