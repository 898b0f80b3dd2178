package tenantscope

import (
	"reflect"

	"github.com/erp/ledgercore/internal/domain/tenancy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Interceptor provides GORM callback hooks that enforce tenant filtering on
// every statement touching a Scopeable model. It is the data-access boundary
// the request's tenant identity is applied at: repositories do not need to
// remember to scope, and forgetting cannot widen a query beyond the tenant.
type Interceptor struct{}

// NewInterceptor creates a new tenant scoping interceptor
func NewInterceptor() *Interceptor {
	return &Interceptor{}
}

// RegisterCallbacks registers the tenant callbacks with GORM
func (i *Interceptor) RegisterCallbacks(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("tenantscope:before_query", i.beforeQuery); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("tenantscope:before_row", i.beforeQuery); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("tenantscope:before_update", i.beforeUpdate); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("tenantscope:before_delete", i.beforeQuery); err != nil {
		return err
	}
	// Create is not intercepted: tenant columns are set explicitly by the
	// aggregate constructors, and inventing them here would hide defects.
	return nil
}

// RemoveCallbacks unregisters the tenant callbacks. Test support only.
func (i *Interceptor) RemoveCallbacks(db *gorm.DB) {
	_ = db.Callback().Query().Remove("tenantscope:before_query")
	_ = db.Callback().Row().Remove("tenantscope:before_row")
	_ = db.Callback().Update().Remove("tenantscope:before_update")
	_ = db.Callback().Delete().Remove("tenantscope:before_delete")
}

// beforeQuery injects tenant predicates into SELECT/DELETE statements
func (i *Interceptor) beforeQuery(db *gorm.DB) {
	i.addTenantFilter(db)
}

// beforeUpdate injects tenant predicates and strips tenant columns from the
// assignment list: a row's company/branch is immutable for its lifetime, so
// re-parenting through an UPDATE is silently dropped rather than applied.
func (i *Interceptor) beforeUpdate(db *gorm.DB) {
	if model := scopeableModel(db); model != nil {
		db.Statement.Omit(model.TenantColumns()...)
	}
	i.addTenantFilter(db)
}

// addTenantFilter applies the declared tenant predicates from the ambient
// identity. Precedence mirrors Apply: explicit skip, then bypass, then
// unset identity, then declared columns.
func (i *Interceptor) addTenantFilter(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	if db.Statement.Unscoped {
		return
	}
	if _, ok := db.Get(skipKey); ok {
		return
	}
	if _, ok := db.Get(handledKey); ok {
		return
	}

	model := scopeableModel(db)
	if model == nil {
		return
	}

	tenant, _ := tenancy.FromContext(db.Statement.Context)
	if tenant.ShouldBypassScopes() {
		return
	}
	if !tenant.IsSet() {
		return
	}

	exprs := make([]clause.Expression, 0, 2)
	for _, column := range model.TenantColumns() {
		switch column {
		case CompanyColumn:
			exprs = append(exprs, clause.Eq{
				Column: clause.Column{Table: clause.CurrentTable, Name: CompanyColumn},
				Value:  tenant.CompanyID(),
			})
		case BranchColumn:
			if branchID := tenant.BranchID(); branchID != nil {
				exprs = append(exprs, clause.Eq{
					Column: clause.Column{Table: clause.CurrentTable, Name: BranchColumn},
					Value:  *branchID,
				})
			}
		}
	}
	if len(exprs) == 0 {
		return
	}

	db.Statement.AddClause(clause.Where{Exprs: exprs})
}

// scopeableModel returns the statement's model when it declares tenant
// columns, nil otherwise. Model and Dest are checked first, then the parsed
// schema: finders like Find(&[]T{}) carry only a slice destination, and the
// element type is reachable solely through Schema.ModelType. GORM parses the
// schema before registered callbacks run, so it is available here.
func scopeableModel(db *gorm.DB) Scopeable {
	if model, ok := db.Statement.Model.(Scopeable); ok {
		return model
	}
	if model, ok := db.Statement.Dest.(Scopeable); ok {
		return model
	}
	if schema := db.Statement.Schema; schema != nil {
		if model, ok := reflect.New(schema.ModelType).Interface().(Scopeable); ok {
			return model
		}
	}
	return nil
}
