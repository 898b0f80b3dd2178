// Package tenancy holds the active tenant identity for a single request.
//
// A Tenant names the company, and optionally the branch, that every scoped
// data access must be filtered by. It is carried on the request context and
// is never shared across requests: process-global tenant state would leak
// identities between concurrent requests.
//
// Usage:
//
//	tenant, err := tenancy.NewTenant(ctx, companyID, &branchID, directory)
//	ctx = tenancy.WithTenant(ctx, tenant)
//	...
//	tenant, ok := tenancy.FromContext(ctx)
package tenancy

import (
	"context"

	"github.com/google/uuid"
)

// BranchDirectory resolves branch membership for tenant assignment checks.
// The persistence layer provides the production implementation.
type BranchDirectory interface {
	// BranchBelongsToCompany reports whether the branch exists and is owned
	// by the given company.
	BranchBelongsToCompany(ctx context.Context, companyID, branchID uuid.UUID) (bool, error)
}

// Tenant is the active tenant identity for one request.
//
// The zero value is "not established": scoped queries run unfiltered and the
// accessors panic. Once built through NewTenant or NewCompanyTenant the
// company is fixed for the value's lifetime; derive a new value rather than
// mutating.
type Tenant struct {
	companyID    uuid.UUID
	branchID     *uuid.UUID
	bypassScopes bool
	established  bool
}

// NewCompanyTenant establishes a tenant identity at company level.
func NewCompanyTenant(companyID uuid.UUID) Tenant {
	return Tenant{
		companyID:   companyID,
		established: true,
	}
}

// NewTenant establishes a tenant identity for the given company and optional
// branch. When a branch is supplied its membership is verified through the
// directory; a branch owned by another company fails with
// *InvalidTenantAssignmentError.
func NewTenant(ctx context.Context, companyID uuid.UUID, branchID *uuid.UUID, dir BranchDirectory) (Tenant, error) {
	if branchID == nil {
		return NewCompanyTenant(companyID), nil
	}

	ok, err := dir.BranchBelongsToCompany(ctx, companyID, *branchID)
	if err != nil {
		return Tenant{}, err
	}
	if !ok {
		return Tenant{}, &InvalidTenantAssignmentError{
			CompanyID: companyID,
			BranchID:  *branchID,
		}
	}

	branch := *branchID
	return Tenant{
		companyID:   companyID,
		branchID:    &branch,
		established: true,
	}, nil
}

// IsSet reports whether a tenant identity has been established.
func (t Tenant) IsSet() bool {
	return t.established
}

// CompanyID returns the active company. Calling it before an identity has
// been established is a programming error and panics; callers that may run
// on unauthenticated paths must check IsSet first.
func (t Tenant) CompanyID() uuid.UUID {
	if !t.established {
		panic("tenancy: CompanyID called before tenant identity was established")
	}
	return t.companyID
}

// BranchID returns the active branch, nil when the identity is company-wide.
// Panics if no identity has been established.
func (t Tenant) BranchID() *uuid.UUID {
	if !t.established {
		panic("tenancy: BranchID called before tenant identity was established")
	}
	if t.branchID == nil {
		return nil
	}
	branch := *t.branchID
	return &branch
}

// ShouldBypassScopes reports whether automatic scope filtering is disabled
// for this identity. Readable on the zero value so filters can check it
// before IsSet.
func (t Tenant) ShouldBypassScopes() bool {
	return t.bypassScopes
}

// WithBypass returns a copy with scope bypass toggled. The tenancy layer
// does not re-check authorization: only code paths that have already
// verified a super-admin principal or an explicit administrative grant may
// enable it.
func (t Tenant) WithBypass(enable bool) Tenant {
	t.bypassScopes = enable
	return t
}
