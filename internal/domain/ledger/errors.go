package ledger

import (
	"fmt"
	"time"

	"github.com/erp/ledgercore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrAlreadyPosted is returned when a posting is attempted for an entry that
// has already been recorded. Posted entries are append-only; corrections go
// through reversing entries.
var ErrAlreadyPosted = shared.NewDomainError("ALREADY_POSTED", "Journal entry has already been posted")

// ErrEmptyEntry is returned when a posting is attempted for an entry with no lines
var ErrEmptyEntry = shared.NewDomainError("EMPTY_ENTRY", "Journal entry has no lines")

// ClosedPeriodError indicates a posting attempted against a closed period,
// or against a date no period covers. Recoverable: the caller can choose a
// different date or have the period reopened administratively.
type ClosedPeriodError struct {
	Date       time.Time
	PeriodID   uuid.UUID // Nil when no period covers the date
	PeriodName string
}

// Error implements the error interface
func (e *ClosedPeriodError) Error() string {
	if e.PeriodID == uuid.Nil {
		return fmt.Sprintf("no accounting period covers %s", e.Date.Format("2006-01-02"))
	}
	return fmt.Sprintf("accounting period %s is closed for %s", e.PeriodName, e.Date.Format("2006-01-02"))
}

// InactiveAccountError indicates a posting line references an account that
// is missing, inactive, or not flagged for posting. Recoverable by
// correcting the entry.
type InactiveAccountError struct {
	AccountID uuid.UUID
	Code      string
	Reason    string
}

// Error implements the error interface
func (e *InactiveAccountError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("account %s (%s) cannot receive postings: %s", e.Code, e.AccountID, e.Reason)
	}
	return fmt.Sprintf("account %s cannot receive postings: %s", e.AccountID, e.Reason)
}

// UnbalancedJournalError indicates the entry's debits and credits do not sum
// to zero. Imbalance is debits minus credits at minor-unit precision.
type UnbalancedJournalError struct {
	Imbalance decimal.Decimal
}

// Error implements the error interface
func (e *UnbalancedJournalError) Error() string {
	return fmt.Sprintf("journal entry is unbalanced by %s", e.Imbalance.StringFixed(2))
}
