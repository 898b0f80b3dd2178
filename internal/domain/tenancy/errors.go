package tenancy

import (
	"fmt"

	"github.com/google/uuid"
)

// InvalidTenantAssignmentError indicates a branch was asserted that does not
// belong to the asserted company. It is fatal to the current operation and
// not retryable: it points at a defect in the caller or in the principal's
// authorization data.
type InvalidTenantAssignmentError struct {
	CompanyID uuid.UUID
	BranchID  uuid.UUID
}

// Error implements the error interface
func (e *InvalidTenantAssignmentError) Error() string {
	return fmt.Sprintf("branch %s does not belong to company %s", e.BranchID, e.CompanyID)
}
