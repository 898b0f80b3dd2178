package ledger

import (
	"context"
	"time"

	"github.com/erp/ledgercore/internal/domain/shared"
	"github.com/google/uuid"
)

// EntryFilter defines filtering options for journal entry queries
type EntryFilter struct {
	shared.Filter
	Status    *EntryStatus
	AccountID *uuid.UUID
	FromDate  *time.Time
	ToDate    *time.Time
}

// AccountRepository defines the interface for account persistence.
// All lookups run inside the ambient tenant scope; an account belonging to
// another company is indistinguishable from a missing one.
type AccountRepository interface {
	// FindByID finds an account by ID within the current tenant
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindByIDs finds accounts by IDs within the current tenant.
	// Missing IDs are simply absent from the result.
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Account, error)

	// FindByCode finds an account by its code within the current tenant
	FindByCode(ctx context.Context, code string) (*Account, error)

	// FindAll lists accounts for the current tenant
	FindAll(ctx context.Context, filter shared.Filter) ([]Account, error)

	// Save persists an account
	Save(ctx context.Context, account *Account) error
}

// PeriodRepository defines the interface for accounting period persistence
type PeriodRepository interface {
	// FindByID finds a period by ID within the current tenant
	FindByID(ctx context.Context, id uuid.UUID) (*AccountingPeriod, error)

	// FindCovering finds the period whose date range covers the given date
	// within the current tenant. Returns shared.ErrNotFound when no period
	// covers the date.
	FindCovering(ctx context.Context, date time.Time) (*AccountingPeriod, error)

	// FindAll lists periods for the current tenant
	FindAll(ctx context.Context, filter shared.Filter) ([]AccountingPeriod, error)

	// Save persists a period
	Save(ctx context.Context, period *AccountingPeriod) error
}

// JournalRepository defines the interface for journal entry persistence.
// CreatePosted is the only write path; it persists the entry and all lines
// atomically and assigns the per-company entry number inside the same
// transaction.
type JournalRepository interface {
	// FindByID finds a journal entry with its lines within the current tenant
	FindByID(ctx context.Context, id uuid.UUID) (*JournalEntry, error)

	// Exists reports whether an entry with the ID is already recorded for
	// the current tenant
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// FindAll lists journal entries for the current tenant
	FindAll(ctx context.Context, filter EntryFilter) ([]JournalEntry, error)

	// CreatePosted atomically records a validated entry and its lines,
	// assigning the next entry number for the company. When the entry is a
	// reversal, the original entry transitions to REVERSED in the same
	// transaction. Either everything is durable after the call, or nothing is.
	CreatePosted(ctx context.Context, entry *JournalEntry) error
}
