package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/erp/ledgercore/internal/domain/ledger"
	"github.com/erp/ledgercore/internal/domain/shared"
)

// newMockAccountRepository creates a GormAccountRepository with a mocked SQL connection
func newMockAccountRepository(t *testing.T) (*GormAccountRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormAccountRepository(gormDB), mock, mockDB
}

func accountRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "company_id", "code", "name", "type", "is_active", "allows_posting"})
}

func TestGormAccountRepository_FindByID(t *testing.T) {
	t.Run("finds account within the tenant scope", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()
		accountID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id = \$1 AND company_id = \$2 ORDER BY`).
			WithArgs(accountID, companyID, 1).
			WillReturnRows(accountRows().
				AddRow(accountID, companyID, "1000", "Cash", "ASSET", true, true))

		account, err := repo.FindByID(tenantContext(companyID), accountID)

		assert.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, "1000", account.Code)
		assert.True(t, account.IsPostable())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("account of another company is not found", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()
		accountID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id = \$1 AND company_id = \$2 ORDER BY`).
			WithArgs(accountID, companyID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		account, err := repo.FindByID(tenantContext(companyID), accountID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Nil(t, account)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAccountRepository_FindByIDs(t *testing.T) {
	t.Run("maps found accounts by ID", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()
		firstID := uuid.New()
		secondID := uuid.New()
		missingID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id IN \(\$1,\$2,\$3\) AND company_id = \$4`).
			WithArgs(firstID, secondID, missingID, companyID).
			WillReturnRows(accountRows().
				AddRow(firstID, companyID, "1000", "Cash", "ASSET", true, true).
				AddRow(secondID, companyID, "4000", "Sales", "REVENUE", true, true))

		accounts, err := repo.FindByIDs(tenantContext(companyID), []uuid.UUID{firstID, secondID, missingID})

		assert.NoError(t, err)
		assert.Len(t, accounts, 2)
		assert.Contains(t, accounts, firstID)
		assert.Contains(t, accounts, secondID)
		assert.NotContains(t, accounts, missingID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty input skips the database", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		accounts, err := repo.FindByIDs(tenantContext(uuid.New()), nil)

		assert.NoError(t, err)
		assert.Empty(t, accounts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAccountRepository_FindAll(t *testing.T) {
	t.Run("orders by validated sort field within the tenant", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE company_id = \$1 ORDER BY code ASC LIMIT \$2`).
			WithArgs(companyID, 20).
			WillReturnRows(accountRows())

		filter := shared.Filter{OrderBy: "code", OrderDir: "asc"}
		accounts, err := repo.FindAll(tenantContext(companyID), filter)

		assert.NoError(t, err)
		assert.Empty(t, accounts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown sort field falls back to the default", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE company_id = \$1 ORDER BY code DESC LIMIT \$2`).
			WithArgs(companyID, 20).
			WillReturnRows(accountRows())

		filter := shared.Filter{OrderBy: "code; DROP TABLE accounts"}
		_, err := repo.FindAll(tenantContext(companyID), filter)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAccountRepository_FindByCode(t *testing.T) {
	t.Run("finds account by code", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()
		accountID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE code = \$1 AND company_id = \$2 ORDER BY`).
			WithArgs("1000", companyID, 1).
			WillReturnRows(accountRows().
				AddRow(accountID, companyID, "1000", "Cash", "ASSET", true, true))

		account, err := repo.FindByCode(tenantContext(companyID), "1000")

		assert.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, accountID, account.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAccountRepository_Save(t *testing.T) {
	t.Run("creates a new account when update matches nothing", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()
		account, err := ledger.NewAccount(companyID, "1000", "Cash", ledger.AccountTypeAsset)
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "accounts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO "accounts"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Save(tenantContext(companyID), account)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
