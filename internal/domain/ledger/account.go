package ledger

import (
	"github.com/erp/ledgercore/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountType classifies an account in the chart of accounts
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// String returns the string representation
func (t AccountType) String() string {
	return string(t)
}

// Account represents one account in a company's chart of accounts.
// Header accounts group postable accounts and never receive journal lines
// themselves: AllowsPosting is false for them while they stay active.
type Account struct {
	shared.CompanyAggregateRoot
	Code          string      `gorm:"type:varchar(20);not null;index"`
	Name          string      `gorm:"type:varchar(200);not null"`
	Type          AccountType `gorm:"type:varchar(20);not null;index"`
	ParentID      *uuid.UUID  `gorm:"type:uuid;index"`
	IsActive      bool        `gorm:"not null;default:true;index"`
	AllowsPosting bool        `gorm:"not null;default:true"`
	Description   string      `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// TenantColumns declares the tenant columns the scope filter applies.
// Accounts are company-wide: the chart of accounts is shared by all branches.
func (Account) TenantColumns() []string {
	return []string{"company_id"}
}

// NewAccount creates a new postable account for a company
func NewAccount(companyID uuid.UUID, code, name string, accountType AccountType) (*Account, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot be empty")
	}
	if len(code) > 20 {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot exceed 20 characters")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Account type is not valid")
	}

	return &Account{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Code:                 code,
		Name:                 name,
		Type:                 accountType,
		IsActive:             true,
		AllowsPosting:        true,
	}, nil
}

// NewHeaderAccount creates a structural account that groups postable accounts
func NewHeaderAccount(companyID uuid.UUID, code, name string, accountType AccountType) (*Account, error) {
	account, err := NewAccount(companyID, code, name, accountType)
	if err != nil {
		return nil, err
	}
	account.AllowsPosting = false
	return account, nil
}

// IsPostable reports whether the account may receive journal lines.
// Both flags must hold at posting time.
func (a *Account) IsPostable() bool {
	return a.IsActive && a.AllowsPosting
}

// Deactivate marks the account inactive, blocking further postings
func (a *Account) Deactivate() {
	a.IsActive = false
	a.Touch()
	a.IncrementVersion()
}

// Activate re-enables the account
func (a *Account) Activate() {
	a.IsActive = true
	a.Touch()
	a.IncrementVersion()
}
