package tenancy

import (
	"context"

	"github.com/erp/ledgercore/internal/domain/shared"
	"github.com/google/uuid"
)

// Company is a tenant: the unit of isolation every scoped entity belongs to.
type Company struct {
	shared.BaseAggregateRoot
	Code     string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name     string `gorm:"type:varchar(200);not null"`
	IsActive bool   `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (Company) TableName() string {
	return "companies"
}

// NewCompany creates a new active company
func NewCompany(code, name string) (*Company, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_COMPANY_CODE", "Company code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_COMPANY_NAME", "Company name cannot be empty")
	}
	return &Company{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		IsActive:          true,
	}, nil
}

// Branch is a subdivision of a company. Branch-level entities carry both the
// company and the branch column; the branch's owning company never changes.
type Branch struct {
	shared.BaseAggregateRoot
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_branch_company_code,priority:1"`
	Code      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_branch_company_code,priority:2"`
	Name      string    `gorm:"type:varchar(200);not null"`
	IsActive  bool      `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (Branch) TableName() string {
	return "branches"
}

// NewBranch creates a new active branch under a company
func NewBranch(companyID uuid.UUID, code, name string) (*Branch, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_BRANCH_CODE", "Branch code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_BRANCH_NAME", "Branch name cannot be empty")
	}
	return &Branch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CompanyID:         companyID,
		Code:              code,
		Name:              name,
		IsActive:          true,
	}, nil
}

// CompanyRepository defines the interface for company/branch persistence.
// These lookups are unscoped by nature: they resolve tenant identity before
// any tenant scope exists.
type CompanyRepository interface {
	BranchDirectory

	// FindCompanyByID finds a company by ID
	FindCompanyByID(ctx context.Context, id uuid.UUID) (*Company, error)

	// FindBranchByID finds a branch by ID
	FindBranchByID(ctx context.Context, id uuid.UUID) (*Branch, error)

	// SaveCompany persists a company
	SaveCompany(ctx context.Context, company *Company) error

	// SaveBranch persists a branch
	SaveBranch(ctx context.Context, branch *Branch) error
}
