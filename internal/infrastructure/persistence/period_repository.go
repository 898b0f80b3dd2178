package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/ledgercore/internal/domain/ledger"
	"github.com/erp/ledgercore/internal/domain/shared"
	"github.com/erp/ledgercore/internal/infrastructure/persistence/tenantscope"
)

// GormPeriodRepository implements ledger.PeriodRepository using GORM
type GormPeriodRepository struct {
	db *gorm.DB
}

// NewGormPeriodRepository creates a new GormPeriodRepository
func NewGormPeriodRepository(db *gorm.DB) *GormPeriodRepository {
	return &GormPeriodRepository{db: db}
}

// FindByID finds a period by ID within the current tenant
func (r *GormPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.AccountingPeriod, error) {
	var period ledger.AccountingPeriod
	if err := r.db.WithContext(ctx).
		Scopes(tenantscope.Apply(&ledger.AccountingPeriod{})).
		First(&period, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &period, nil
}

// FindCovering finds the period whose date range covers the given date within
// the current tenant. Period ranges do not overlap, so at most one matches.
func (r *GormPeriodRepository) FindCovering(ctx context.Context, date time.Time) (*ledger.AccountingPeriod, error) {
	var period ledger.AccountingPeriod
	if err := r.db.WithContext(ctx).
		Scopes(tenantscope.Apply(&ledger.AccountingPeriod{})).
		Where("start_date <= ? AND end_date >= ?", date, date).
		First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &period, nil
}

// FindAll lists periods for the current tenant
func (r *GormPeriodRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.AccountingPeriod, error) {
	var periods []ledger.AccountingPeriod

	sortField := ValidateSortField(filter.OrderBy, PeriodSortFields, "start_date")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	if err := r.db.WithContext(ctx).
		Scopes(tenantscope.Apply(&ledger.AccountingPeriod{})).
		Order(fmt.Sprintf("%s %s", sortField, sortOrder)).
		Limit(filter.Limit()).
		Offset(filter.Offset()).
		Find(&periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}

// Save creates or updates a period
func (r *GormPeriodRepository) Save(ctx context.Context, period *ledger.AccountingPeriod) error {
	return r.db.WithContext(ctx).Save(period).Error
}
