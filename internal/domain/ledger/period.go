package ledger

import (
	"time"

	"github.com/erp/ledgercore/internal/domain/shared"
	"github.com/google/uuid"
)

// PeriodStatus represents the posting state of an accounting period
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// IsValid checks if the status is a valid PeriodStatus
func (s PeriodStatus) IsValid() bool {
	return s == PeriodStatusOpen || s == PeriodStatusClosed
}

// String returns the string representation
func (s PeriodStatus) String() string {
	return string(s)
}

// AccountingPeriod is a bounded date range postings fall into. A closed
// period accepts no new or modified journal entries.
type AccountingPeriod struct {
	shared.CompanyAggregateRoot
	Name      string       `gorm:"type:varchar(50);not null;index"`
	StartDate time.Time    `gorm:"not null;index"`
	EndDate   time.Time    `gorm:"not null;index"`
	Status    PeriodStatus `gorm:"type:varchar(10);not null;default:'OPEN';index"`
	ClosedAt  *time.Time
	ClosedBy  *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (AccountingPeriod) TableName() string {
	return "accounting_periods"
}

// TenantColumns declares the tenant columns the scope filter applies.
// Periods are company-wide.
func (AccountingPeriod) TenantColumns() []string {
	return []string{"company_id"}
}

// NewAccountingPeriod creates a new open period for a company
func NewAccountingPeriod(companyID uuid.UUID, name string, start, end time.Time) (*AccountingPeriod, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PERIOD_NAME", "Period name cannot be empty")
	}
	if start.IsZero() || end.IsZero() {
		return nil, shared.NewDomainError("INVALID_PERIOD_RANGE", "Period start and end dates are required")
	}
	if !start.Before(end) {
		return nil, shared.NewDomainError("INVALID_PERIOD_RANGE", "Period start date must be before end date")
	}

	return &AccountingPeriod{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Name:                 name,
		StartDate:            start,
		EndDate:              end,
		Status:               PeriodStatusOpen,
	}, nil
}

// Covers reports whether the date falls inside the period, bounds inclusive
func (p *AccountingPeriod) Covers(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// IsOpen reports whether the period accepts postings
func (p *AccountingPeriod) IsOpen() bool {
	return p.Status == PeriodStatusOpen
}

// Close closes the period to further postings
func (p *AccountingPeriod) Close(closedBy uuid.UUID) error {
	if p.Status == PeriodStatusClosed {
		return shared.NewDomainError("INVALID_STATE", "Period is already closed")
	}
	now := time.Now()
	p.Status = PeriodStatusClosed
	p.ClosedAt = &now
	p.ClosedBy = &closedBy
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Reopen reopens a closed period. This is an administrative operation;
// authorization is the caller's responsibility.
func (p *AccountingPeriod) Reopen() error {
	if p.Status == PeriodStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Period is already open")
	}
	p.Status = PeriodStatusOpen
	p.ClosedAt = nil
	p.ClosedBy = nil
	p.Touch()
	p.IncrementVersion()
	return nil
}
