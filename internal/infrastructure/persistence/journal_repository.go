package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/ledgercore/internal/domain/ledger"
	"github.com/erp/ledgercore/internal/domain/shared"
	"github.com/erp/ledgercore/internal/infrastructure/persistence/tenantscope"
)

// entrySequence backs the per-company journal entry numbering. The upsert in
// nextEntryNumber takes a row lock, so concurrent postings for the same
// company serialize on it and numbers are gapless per transaction outcome.
type entrySequence struct {
	CompanyID  uuid.UUID `gorm:"type:uuid;primary_key"`
	NextNumber int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (entrySequence) TableName() string {
	return "entry_sequences"
}

// GormJournalRepository implements ledger.JournalRepository using GORM
type GormJournalRepository struct {
	db *gorm.DB
}

// NewGormJournalRepository creates a new GormJournalRepository
func NewGormJournalRepository(db *gorm.DB) *GormJournalRepository {
	return &GormJournalRepository{db: db}
}

// FindByID finds a journal entry with its lines within the current tenant
func (r *GormJournalRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.JournalEntry, error) {
	var entry ledger.JournalEntry
	if err := r.db.WithContext(ctx).
		Scopes(tenantscope.Apply(&ledger.JournalEntry{})).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// Exists reports whether an entry with the ID is already recorded for the
// current tenant
func (r *GormJournalRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.JournalEntry{}).
		Scopes(tenantscope.Apply(&ledger.JournalEntry{})).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll lists journal entries for the current tenant with filtering
func (r *GormJournalRepository) FindAll(ctx context.Context, filter ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	var entries []ledger.JournalEntry

	query := r.db.WithContext(ctx).
		Model(&ledger.JournalEntry{}).
		Scopes(tenantscope.Apply(&ledger.JournalEntry{}))

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("entry_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("entry_date <= ?", *filter.ToDate)
	}
	if filter.AccountID != nil {
		query = query.Where("id IN (?)", r.db.
			Model(&ledger.JournalLine{}).
			Select("entry_id").
			Where("account_id = ?", *filter.AccountID))
	}

	sortField := ValidateSortField(filter.OrderBy, JournalEntrySortFields, "entry_date")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	if err := query.
		Order(fmt.Sprintf("%s %s", sortField, sortOrder)).
		Limit(filter.Limit()).
		Offset(filter.Offset()).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CreatePosted atomically records a validated draft entry and its lines,
// assigning the next entry number for the company inside the same
// transaction. A reversal also flips its original entry to REVERSED here, so
// the link and the reversing entry become durable together. A failure at any
// step leaves nothing behind.
func (r *GormJournalRepository) CreatePosted(ctx context.Context, entry *ledger.JournalEntry) error {
	if len(entry.Lines) == 0 {
		return ledger.ErrEmptyEntry
	}
	if entry.IsPosted() {
		return ledger.ErrAlreadyPosted
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := r.nextEntryNumber(tx, entry.CompanyID)
		if err != nil {
			return err
		}
		if err := entry.MarkPosted(number); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(entry).Error; err != nil {
			// Two concurrent posts with the same client-supplied ID can both
			// pass the existence check; the loser lands here on the primary
			// key and reports the same way as a sequential retry.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ledger.ErrAlreadyPosted
			}
			return err
		}
		for i := range entry.Lines {
			entry.Lines[i].EntryID = entry.ID
		}
		if err := tx.Create(&entry.Lines).Error; err != nil {
			return err
		}

		if entry.ReversalOf != nil {
			if err := r.markReversed(tx, *entry.ReversalOf, entry.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// nextEntryNumber allocates the next entry number for a company. The single
// upsert statement is atomic under postgres; the returned number is unique
// per company even under concurrent postings.
func (r *GormJournalRepository) nextEntryNumber(tx *gorm.DB, companyID uuid.UUID) (int64, error) {
	var next int64
	err := tx.Raw(
		`INSERT INTO entry_sequences (company_id, next_number) VALUES (?, 1)
		 ON CONFLICT (company_id) DO UPDATE SET next_number = entry_sequences.next_number + 1
		 RETURNING next_number`,
		companyID,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

// markReversed transitions the original entry to REVERSED and links the
// reversing entry. Only a POSTED entry can transition; a concurrent reversal
// loses the race and reports the conflict, rolling back the whole posting.
func (r *GormJournalRepository) markReversed(tx *gorm.DB, originalID, reversingID uuid.UUID) error {
	result := tx.
		Model(&ledger.JournalEntry{}).
		Scopes(tenantscope.Apply(&ledger.JournalEntry{})).
		Where("id = ? AND status = ?", originalID, ledger.EntryStatusPosted).
		Updates(map[string]interface{}{
			"status":      ledger.EntryStatusReversed,
			"reversed_by": reversingID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("REVERSAL_CONFLICT", "Entry is not in a reversible state")
	}
	return nil
}
