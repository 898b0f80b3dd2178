package ledger

import (
	"time"

	"github.com/erp/ledgercore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// minorUnitPlaces is the currency precision amounts are recorded at.
// The balance check compares exactly at this precision; there is no
// floating-point tolerance.
const minorUnitPlaces = 2

// LineDirection indicates whether a journal line is a debit or a credit
type LineDirection string

const (
	Debit  LineDirection = "DEBIT"
	Credit LineDirection = "CREDIT"
)

// IsValid checks if the direction is valid
func (d LineDirection) IsValid() bool {
	return d == Debit || d == Credit
}

// String returns the string representation
func (d LineDirection) String() string {
	return string(d)
}

// EntryStatus represents the lifecycle state of a journal entry
type EntryStatus string

const (
	EntryStatusDraft    EntryStatus = "DRAFT"
	EntryStatusPosted   EntryStatus = "POSTED"
	EntryStatusReversed EntryStatus = "REVERSED"
)

// IsValid checks if the status is valid
func (s EntryStatus) IsValid() bool {
	switch s {
	case EntryStatusDraft, EntryStatusPosted, EntryStatusReversed:
		return true
	}
	return false
}

// String returns the string representation
func (s EntryStatus) String() string {
	return string(s)
}

// JournalLine is a single debit or credit against one account. Amount is
// always positive; the direction carries the sign.
type JournalLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	EntryID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo    int             `gorm:"not null"`
	AccountID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Direction LineDirection   `gorm:"type:varchar(6);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Memo      string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (JournalLine) TableName() string {
	return "journal_lines"
}

// SignedAmount returns the amount with the conventional sign:
// debits positive, credits negative.
func (l *JournalLine) SignedAmount() decimal.Decimal {
	if l.Direction == Credit {
		return l.Amount.Neg()
	}
	return l.Amount
}

// JournalEntry is a balanced financial event made of ordered journal lines.
// Entries are built in memory as drafts; posting assigns the immutable entry
// number and freezes the lines. Corrections are made with reversing entries,
// never by editing posted lines.
type JournalEntry struct {
	shared.CompanyAggregateRoot
	EntryNumber int64         `gorm:"not null;index"`
	EntryDate   time.Time     `gorm:"not null;index"`
	Memo        string        `gorm:"type:varchar(500)"`
	Status      EntryStatus   `gorm:"type:varchar(10);not null;index"`
	Lines       []JournalLine `gorm:"foreignKey:EntryID;references:ID"`
	PostedAt    *time.Time
	ReversalOf  *uuid.UUID `gorm:"type:uuid;index"`
	ReversedBy  *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (JournalEntry) TableName() string {
	return "journal_entries"
}

// TenantColumns declares the tenant columns the scope filter applies.
// Journal entries are recorded per branch.
func (JournalEntry) TenantColumns() []string {
	return []string{"company_id", "branch_id"}
}

// NewJournalEntry creates a draft entry for a company. branchID may be nil
// for company-level postings.
func NewJournalEntry(companyID uuid.UUID, branchID *uuid.UUID, entryDate time.Time, memo string) (*JournalEntry, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if entryDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ENTRY_DATE", "Entry date is required")
	}

	root := shared.NewCompanyAggregateRoot(companyID)
	if branchID != nil {
		branch := *branchID
		root.BranchID = &branch
	}

	return &JournalEntry{
		CompanyAggregateRoot: root,
		EntryDate:            entryDate,
		Memo:                 memo,
		Status:               EntryStatusDraft,
		Lines:                make([]JournalLine, 0),
	}, nil
}

// AddLine appends a debit or credit line to a draft entry. The amount must
// be positive and carry no more precision than the currency minor unit.
func (e *JournalEntry) AddLine(accountID uuid.UUID, direction LineDirection, amount decimal.Decimal, memo string) error {
	if e.Status != EntryStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Lines can only be added to draft entries")
	}
	if accountID == uuid.Nil {
		return shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if !direction.IsValid() {
		return shared.NewDomainError("INVALID_DIRECTION", "Line direction must be DEBIT or CREDIT")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Line amount must be positive")
	}
	if !amount.Equal(amount.Round(minorUnitPlaces)) {
		return shared.NewDomainError("INVALID_AMOUNT", "Line amount exceeds currency minor-unit precision")
	}

	e.Lines = append(e.Lines, JournalLine{
		ID:        uuid.New(),
		EntryID:   e.ID,
		LineNo:    len(e.Lines) + 1,
		AccountID: accountID,
		Direction: direction,
		Amount:    amount,
		Memo:      memo,
	})
	return nil
}

// TotalDebits returns the sum of all debit line amounts
func (e *JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for i := range e.Lines {
		if e.Lines[i].Direction == Debit {
			total = total.Add(e.Lines[i].Amount)
		}
	}
	return total
}

// TotalCredits returns the sum of all credit line amounts
func (e *JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for i := range e.Lines {
		if e.Lines[i].Direction == Credit {
			total = total.Add(e.Lines[i].Amount)
		}
	}
	return total
}

// Imbalance returns debits minus credits. Zero for a balanced entry.
func (e *JournalEntry) Imbalance() decimal.Decimal {
	total := decimal.Zero
	for i := range e.Lines {
		total = total.Add(e.Lines[i].SignedAmount())
	}
	return total
}

// IsBalanced reports whether debits equal credits exactly
func (e *JournalEntry) IsBalanced() bool {
	return e.Imbalance().IsZero()
}

// IsPosted reports whether the entry has been durably recorded
func (e *JournalEntry) IsPosted() bool {
	return e.Status == EntryStatusPosted || e.Status == EntryStatusReversed
}

// MarkPosted records the assigned entry number and freezes the entry.
// Only the posting path calls this, inside the posting transaction.
func (e *JournalEntry) MarkPosted(entryNumber int64) error {
	if e.IsPosted() {
		return ErrAlreadyPosted
	}
	if entryNumber <= 0 {
		return shared.NewDomainError("INVALID_ENTRY_NUMBER", "Entry number must be positive")
	}
	now := time.Now()
	e.EntryNumber = entryNumber
	e.Status = EntryStatusPosted
	e.PostedAt = &now
	e.Touch()
	return nil
}

// MarkReversed links a posted entry to the reversing entry that corrects it
func (e *JournalEntry) MarkReversed(reversingEntryID uuid.UUID) error {
	if e.Status != EntryStatusPosted {
		return shared.NewDomainError("INVALID_STATE", "Only posted entries can be reversed")
	}
	e.Status = EntryStatusReversed
	e.ReversedBy = &reversingEntryID
	e.Touch()
	e.IncrementVersion()
	return nil
}

// NewReversingEntry builds a draft entry that mirrors a posted entry with
// every line's direction flipped. Posting it corrects the original without
// mutating posted lines.
func NewReversingEntry(original *JournalEntry, entryDate time.Time, memo string) (*JournalEntry, error) {
	if original.Status != EntryStatusPosted {
		return nil, shared.NewDomainError("INVALID_STATE", "Only posted entries can be reversed")
	}

	reversal, err := NewJournalEntry(original.CompanyID, original.BranchID, entryDate, memo)
	if err != nil {
		return nil, err
	}
	originalID := original.ID
	reversal.ReversalOf = &originalID

	for i := range original.Lines {
		line := &original.Lines[i]
		direction := Credit
		if line.Direction == Credit {
			direction = Debit
		}
		if err := reversal.AddLine(line.AccountID, direction, line.Amount, line.Memo); err != nil {
			return nil, err
		}
	}
	return reversal, nil
}
