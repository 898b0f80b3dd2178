package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/ledgercore/internal/domain/ledger"
	"github.com/erp/ledgercore/internal/domain/shared"
	"github.com/erp/ledgercore/internal/infrastructure/persistence/tenantscope"
)

// GormAccountRepository implements ledger.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account by ID within the current tenant
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	var account ledger.Account
	if err := r.db.WithContext(ctx).
		Scopes(tenantscope.Apply(&ledger.Account{})).
		First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByIDs finds accounts by IDs within the current tenant. IDs the tenant
// cannot see are absent from the result rather than an error.
func (r *GormAccountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*ledger.Account, error) {
	result := make(map[uuid.UUID]*ledger.Account, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var accounts []ledger.Account
	if err := r.db.WithContext(ctx).
		Scopes(tenantscope.Apply(&ledger.Account{})).
		Where("id IN ?", ids).
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	for i := range accounts {
		result[accounts[i].ID] = &accounts[i]
	}
	return result, nil
}

// FindByCode finds an account by its code within the current tenant
func (r *GormAccountRepository) FindByCode(ctx context.Context, code string) (*ledger.Account, error) {
	var account ledger.Account
	if err := r.db.WithContext(ctx).
		Scopes(tenantscope.Apply(&ledger.Account{})).
		First(&account, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindAll lists accounts for the current tenant
func (r *GormAccountRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.Account, error) {
	var accounts []ledger.Account

	sortField := ValidateSortField(filter.OrderBy, AccountSortFields, "code")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	if err := r.db.WithContext(ctx).
		Scopes(tenantscope.Apply(&ledger.Account{})).
		Order(fmt.Sprintf("%s %s", sortField, sortOrder)).
		Limit(filter.Limit()).
		Offset(filter.Offset()).
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Save creates or updates an account
func (r *GormAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}
