// Package ledger implements the posting guard: the single path through which
// journal entries become part of the ledger.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/erp/ledgercore/internal/domain/ledger"
	"github.com/erp/ledgercore/internal/domain/shared"
	"github.com/erp/ledgercore/internal/domain/tenancy"
	"github.com/erp/ledgercore/internal/infrastructure/logger"
	"github.com/erp/ledgercore/internal/infrastructure/telemetry"
)

// PostingService validates and records journal entries. Every entry passes
// the same gate: period open, accounts postable, debits equal credits, then
// one atomic write. The check order is fixed; callers can rely on the first
// failing check being the one reported.
type PostingService struct {
	accounts ledger.AccountRepository
	periods  ledger.PeriodRepository
	journals ledger.JournalRepository
}

// NewPostingService creates a new PostingService
func NewPostingService(
	accounts ledger.AccountRepository,
	periods ledger.PeriodRepository,
	journals ledger.JournalRepository,
) *PostingService {
	return &PostingService{
		accounts: accounts,
		periods:  periods,
		journals: journals,
	}
}

// ValidateAndPost runs the full posting guard over a draft entry and records
// it. On success the returned entry carries its assigned entry number and
// POSTED status. On any failure the ledger is untouched.
//
// Re-posting an entry ID that is already recorded fails with ErrAlreadyPosted
// and changes nothing, so clients may safely retry after timeouts.
func (s *PostingService) ValidateAndPost(ctx context.Context, entry *ledger.JournalEntry) (*ledger.JournalEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "journal.post",
		attribute.String("entry.id", entry.ID.String()),
		attribute.Int("entry.lines", len(entry.Lines)),
	)
	defer span.End()

	posted, err := s.validateAndPost(ctx, entry)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("entry.number", posted.EntryNumber))
	return posted, nil
}

func (s *PostingService) validateAndPost(ctx context.Context, entry *ledger.JournalEntry) (*ledger.JournalEntry, error) {
	tenant, ok := tenancy.FromContext(ctx)
	if !ok || !tenant.IsSet() {
		return nil, shared.ErrUnauthorized
	}
	if entry.CompanyID != tenant.CompanyID() {
		return nil, shared.ErrForbidden
	}

	exists, err := s.journals.Exists(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ledger.ErrAlreadyPosted
	}

	if len(entry.Lines) == 0 {
		return nil, ledger.ErrEmptyEntry
	}

	if err := s.checkPeriod(ctx, entry.EntryDate); err != nil {
		return nil, err
	}
	if err := s.checkAccounts(ctx, entry); err != nil {
		return nil, err
	}
	if !entry.IsBalanced() {
		return nil, &ledger.UnbalancedJournalError{Imbalance: entry.Imbalance()}
	}

	if err := s.journals.CreatePosted(ctx, entry); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("journal entry posted",
		zap.String("entry_id", entry.ID.String()),
		zap.Int64("entry_number", entry.EntryNumber),
		zap.Int("lines", len(entry.Lines)),
	)
	return entry, nil
}

// Reverse builds a reversing entry for a posted entry and records it through
// the same guard. The original transitions to REVERSED in the same
// transaction that posts the reversal.
func (s *PostingService) Reverse(ctx context.Context, entryID uuid.UUID, entryDate time.Time, memo string) (*ledger.JournalEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "journal.reverse",
		attribute.String("entry.id", entryID.String()),
	)
	defer span.End()

	original, err := s.journals.FindByID(ctx, entryID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	reversal, err := ledger.NewReversingEntry(original, entryDate, memo)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	posted, err := s.ValidateAndPost(ctx, reversal)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.L(ctx).Info("journal entry reversed",
		zap.String("original_id", original.ID.String()),
		zap.String("reversal_id", posted.ID.String()),
	)
	return posted, nil
}

// GetEntry returns a journal entry with its lines
func (s *PostingService) GetEntry(ctx context.Context, entryID uuid.UUID) (*ledger.JournalEntry, error) {
	return s.journals.FindByID(ctx, entryID)
}

// ListEntries lists journal entries for the current tenant
func (s *PostingService) ListEntries(ctx context.Context, filter ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	return s.journals.FindAll(ctx, filter)
}

// checkPeriod verifies an open accounting period covers the entry date
func (s *PostingService) checkPeriod(ctx context.Context, date time.Time) error {
	period, err := s.periods.FindCovering(ctx, date)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &ledger.ClosedPeriodError{Date: date}
		}
		return err
	}
	if !period.IsOpen() {
		return &ledger.ClosedPeriodError{
			Date:       date,
			PeriodID:   period.ID,
			PeriodName: period.Name,
		}
	}
	return nil
}

// checkAccounts verifies every line's account is visible to the tenant and
// may receive postings. An account of another company resolves to nothing
// under the tenant scope, so it reports the same way as a missing one.
func (s *PostingService) checkAccounts(ctx context.Context, entry *ledger.JournalEntry) error {
	ids := make([]uuid.UUID, 0, len(entry.Lines))
	seen := make(map[uuid.UUID]struct{}, len(entry.Lines))
	for i := range entry.Lines {
		id := entry.Lines[i].AccountID
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	accounts, err := s.accounts.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}

	for _, id := range ids {
		account, found := accounts[id]
		if !found {
			return &ledger.InactiveAccountError{AccountID: id, Reason: "account not found"}
		}
		if !account.IsActive {
			return &ledger.InactiveAccountError{AccountID: id, Code: account.Code, Reason: "account is inactive"}
		}
		if !account.AllowsPosting {
			return &ledger.InactiveAccountError{AccountID: id, Code: account.Code, Reason: "account does not allow posting"}
		}
	}
	return nil
}
