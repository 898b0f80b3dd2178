// Package tenantscope provides automatic tenant isolation for GORM queries.
//
// Every read and write against a tenant-owned entity is filtered by the
// company, and where declared the branch, of the tenant identity carried on
// the request context. Entities opt in by declaring their tenant columns;
// the filter injects equality predicates for exactly those columns.
//
// Usage:
//
//	db.Scopes(tenantscope.Apply(&ledger.Account{})).Find(&accounts)
//	// WHERE company_id = ? is auto-added from the ambient tenant
//
// Crossing the tenant boundary is only possible through the named escape
// hatches in this package (WithoutScope, CompanyOnly, ExplicitBranch,
// ExplicitCompany). They are deliberately the only spellings that remove or
// replace the automatic filter, so code review and static analysis can flag
// every use.
package tenantscope

import (
	"github.com/erp/ledgercore/internal/domain/tenancy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scopeable is implemented by entities subject to tenant isolation. The
// returned column names are the subset of company_id/branch_id the entity
// carries; the filter applies predicates for exactly these.
type Scopeable interface {
	TenantColumns() []string
}

// Tenant column names entities may declare
const (
	CompanyColumn = "company_id"
	BranchColumn  = "branch_id"
)

// Statement settings used to coordinate with the registered callbacks
const (
	skipKey    = "tenantscope:skip"
	handledKey = "tenantscope:handled"
)

// Apply returns a GORM scope that injects the tenant predicates declared by
// the model, sourced from the ambient tenant identity.
//
// Precedence, in order: a bypassing identity disables filtering entirely;
// an absent identity leaves the query unscoped (unauthenticated and system
// paths run unfiltered by design and must be gated at the route level);
// otherwise one equality predicate per declared column that the identity
// can supply. The order must not change: bypass is checked before IsSet so
// a bypassing super-admin without an established company still sees
// everything.
func Apply(model Scopeable) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = markHandled(db)

		tenant, _ := tenancy.FromContext(db.Statement.Context)
		if tenant.ShouldBypassScopes() {
			return db
		}
		if !tenant.IsSet() {
			return db
		}

		for _, column := range model.TenantColumns() {
			switch column {
			case CompanyColumn:
				db = db.Where(CompanyColumn+" = ?", tenant.CompanyID())
			case BranchColumn:
				if branchID := tenant.BranchID(); branchID != nil {
					db = db.Where(BranchColumn+" = ?", *branchID)
				}
			}
		}
		return db
	}
}

// WithoutScope removes the automatic tenant filter entirely. Reserved for
// cross-tenant administrative queries; callers must independently verify
// the principal is authorized to cross the boundary.
func WithoutScope(db *gorm.DB) *gorm.DB {
	return db.Set(skipKey, true)
}

// CompanyOnly keeps the company predicate from the ambient tenant but drops
// the branch predicate, for company-wide views within a tenant.
func CompanyOnly(model Scopeable) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = markHandled(db)

		tenant, _ := tenancy.FromContext(db.Statement.Context)
		if tenant.ShouldBypassScopes() || !tenant.IsSet() {
			return db
		}
		if !declaresColumn(model, CompanyColumn) {
			return db
		}
		return db.Where(CompanyColumn+" = ?", tenant.CompanyID())
	}
}

// ExplicitBranch replaces the automatic scope with the ambient company and
// an explicitly supplied branch, for operators intentionally querying
// another branch of their own company.
func ExplicitBranch(model Scopeable, branchID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = markHandled(db)

		tenant, _ := tenancy.FromContext(db.Statement.Context)
		if tenant.ShouldBypassScopes() || !tenant.IsSet() {
			return db
		}
		if declaresColumn(model, CompanyColumn) {
			db = db.Where(CompanyColumn+" = ?", tenant.CompanyID())
		}
		if declaresColumn(model, BranchColumn) {
			db = db.Where(BranchColumn+" = ?", branchID)
		}
		return db
	}
}

// ExplicitCompany replaces the automatic scope with an explicitly supplied
// company. Reserved for administrative tooling; callers must independently
// enforce that the principal may see the target company's data.
func ExplicitCompany(model Scopeable, companyID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = markHandled(db)

		if !declaresColumn(model, CompanyColumn) {
			return db
		}
		return db.Where(CompanyColumn+" = ?", companyID)
	}
}

// markHandled records that scoping was decided for this statement so the
// registered callbacks do not filter a second time.
func markHandled(db *gorm.DB) *gorm.DB {
	return db.Set(handledKey, true)
}

func declaresColumn(model Scopeable, column string) bool {
	for _, c := range model.TenantColumns() {
		if c == column {
			return true
		}
	}
	return false
}
