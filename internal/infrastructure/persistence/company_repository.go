package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/ledgercore/internal/domain/shared"
	"github.com/erp/ledgercore/internal/domain/tenancy"
)

// GormCompanyRepository implements tenancy.CompanyRepository using GORM.
// Companies and branches are the tenancy directory itself, so these queries
// run outside any tenant scope: they resolve the identity everything else is
// scoped by.
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindCompanyByID finds a company by ID
func (r *GormCompanyRepository) FindCompanyByID(ctx context.Context, id uuid.UUID) (*tenancy.Company, error) {
	var company tenancy.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &company, nil
}

// FindBranchByID finds a branch by ID
func (r *GormCompanyRepository) FindBranchByID(ctx context.Context, id uuid.UUID) (*tenancy.Branch, error) {
	var branch tenancy.Branch
	if err := r.db.WithContext(ctx).First(&branch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &branch, nil
}

// BranchBelongsToCompany reports whether the branch exists under the company
func (r *GormCompanyRepository) BranchBelongsToCompany(ctx context.Context, companyID, branchID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&tenancy.Branch{}).
		Where("id = ? AND company_id = ?", branchID, companyID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveCompany creates or updates a company
func (r *GormCompanyRepository) SaveCompany(ctx context.Context, company *tenancy.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

// SaveBranch creates or updates a branch
func (r *GormCompanyRepository) SaveBranch(ctx context.Context, branch *tenancy.Branch) error {
	return r.db.WithContext(ctx).Save(branch).Error
}
