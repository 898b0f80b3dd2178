// Package cache provides read-through caching for hot lookup paths.
//
// The posting path resolves the accounting period covering the entry date on
// every post. Period definitions change rarely, so the lookup is cached in
// Redis with a bounded TTL; a period close is visible to all instances within
// that window at the latest, and immediately on the instance that wrote it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/erp/ledgercore/internal/domain/ledger"
	"github.com/erp/ledgercore/internal/domain/shared"
	"github.com/erp/ledgercore/internal/domain/tenancy"
	"github.com/erp/ledgercore/internal/infrastructure/logger"
)

const periodKeyPrefix = "ledger:period:"

// CachedPeriodRepository decorates a PeriodRepository with a Redis
// read-through cache on FindCovering. All other operations delegate, and
// Save bumps the company's cache generation so stale covering lookups
// cannot outlive a period change by more than the TTL.
//
// Redis failures degrade to the underlying repository: the cache can make
// posting slower, never wrong or unavailable.
type CachedPeriodRepository struct {
	inner  ledger.PeriodRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCachedPeriodRepository creates a caching decorator around a period repository
func NewCachedPeriodRepository(inner ledger.PeriodRepository, client *redis.Client, ttl time.Duration) *CachedPeriodRepository {
	return &CachedPeriodRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
	}
}

// FindByID delegates to the underlying repository
func (r *CachedPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.AccountingPeriod, error) {
	return r.inner.FindByID(ctx, id)
}

// FindCovering resolves the period covering the date, serving from cache
// when possible. Lookups without an established tenant identity, or with a
// bypassing one, go straight to the repository: the cache key is per company
// and must never mix tenants.
func (r *CachedPeriodRepository) FindCovering(ctx context.Context, date time.Time) (*ledger.AccountingPeriod, error) {
	tenant, _ := tenancy.FromContext(ctx)
	if !tenant.IsSet() || tenant.ShouldBypassScopes() {
		return r.inner.FindCovering(ctx, date)
	}
	companyID := tenant.CompanyID()

	key, err := r.coveringKey(ctx, companyID, date)
	if err == nil {
		if cached, hit := r.get(ctx, key); hit {
			return cached, nil
		}
	}

	period, err2 := r.inner.FindCovering(ctx, date)
	if err2 != nil {
		return nil, err2
	}
	if err == nil {
		r.set(ctx, key, period)
	}
	return period, nil
}

// FindAll delegates to the underlying repository
func (r *CachedPeriodRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.AccountingPeriod, error) {
	return r.inner.FindAll(ctx, filter)
}

// Save persists the period and invalidates every cached covering lookup for
// its company by bumping the generation counter.
func (r *CachedPeriodRepository) Save(ctx context.Context, period *ledger.AccountingPeriod) error {
	if err := r.inner.Save(ctx, period); err != nil {
		return err
	}
	if err := r.client.Incr(ctx, generationKey(period.CompanyID)).Err(); err != nil {
		logger.L(ctx).Warn("period cache invalidation failed", zap.Error(err))
	}
	return nil
}

// coveringKey builds the cache key for a company and date. The company's
// generation counter is part of the key, so bumping it orphans all previous
// entries; they expire with their TTL.
func (r *CachedPeriodRepository) coveringKey(ctx context.Context, companyID uuid.UUID, date time.Time) (string, error) {
	gen, err := r.client.Get(ctx, generationKey(companyID)).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("%s%s:g%d:%s", periodKeyPrefix, companyID, gen, date.UTC().Format("2006-01-02")), nil
}

func generationKey(companyID uuid.UUID) string {
	return periodKeyPrefix + companyID.String() + ":gen"
}

func (r *CachedPeriodRepository) get(ctx context.Context, key string) (*ledger.AccountingPeriod, bool) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.L(ctx).Warn("period cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var period ledger.AccountingPeriod
	if err := json.Unmarshal(payload, &period); err != nil {
		logger.L(ctx).Warn("period cache entry corrupt, ignoring", zap.Error(err))
		return nil, false
	}
	return &period, true
}

func (r *CachedPeriodRepository) set(ctx context.Context, key string, period *ledger.AccountingPeriod) {
	payload, err := json.Marshal(period)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		logger.L(ctx).Warn("period cache write failed", zap.Error(err))
	}
}

var _ ledger.PeriodRepository = (*CachedPeriodRepository)(nil)
