package tenantscope

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/ledgercore/internal/domain/tenancy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// PlainWidget declares no tenant columns and must never be filtered
type PlainWidget struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"size:100"`
}

func (PlainWidget) TableName() string {
	return "plain_widgets"
}

func setupInterceptedDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, mockDB := setupMockDB(t)
	require.NoError(t, NewInterceptor().RegisterCallbacks(db))
	return db, mock, func() { mockDB.Close() }
}

func TestInterceptor_Query(t *testing.T) {
	companyID := uuid.New()

	t.Run("filters scoped models automatically", func(t *testing.T) {
		db, mock, cleanup := setupInterceptedDB(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "company_widgets" WHERE "company_widgets"\."company_id" = \$1`).
			WithArgs(companyID).
			WillReturnRows(widgetRows())

		var widgets []CompanyWidget
		err := db.WithContext(companyContext(companyID)).
			Model(&CompanyWidget{}).
			Find(&widgets).Error

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filters slice destinations without an explicit model", func(t *testing.T) {
		db, mock, cleanup := setupInterceptedDB(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "company_widgets" WHERE "company_widgets"\."company_id" = \$1`).
			WithArgs(companyID).
			WillReturnRows(widgetRows())

		var widgets []CompanyWidget
		err := db.WithContext(companyContext(companyID)).Find(&widgets).Error

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filters branch-scoped models on both columns", func(t *testing.T) {
		db, mock, cleanup := setupInterceptedDB(t)
		defer cleanup()
		branchID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "branch_widgets" WHERE "branch_widgets"\."company_id" = \$1 AND "branch_widgets"\."branch_id" = \$2`).
			WithArgs(companyID, branchID).
			WillReturnRows(widgetRows())

		var widgets []BranchWidget
		err := db.WithContext(branchContext(t, companyID, branchID)).
			Model(&BranchWidget{}).
			Find(&widgets).Error

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("leaves unscoped models alone", func(t *testing.T) {
		db, mock, cleanup := setupInterceptedDB(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "plain_widgets"$`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

		var widgets []PlainWidget
		err := db.WithContext(companyContext(companyID)).
			Model(&PlainWidget{}).
			Find(&widgets).Error

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("WithoutScope removes the automatic filter", func(t *testing.T) {
		db, mock, cleanup := setupInterceptedDB(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "company_widgets"$`).
			WillReturnRows(widgetRows())

		var widgets []CompanyWidget
		err := WithoutScope(db.WithContext(companyContext(companyID))).
			Model(&CompanyWidget{}).
			Find(&widgets).Error

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bypassing identity sees all companies", func(t *testing.T) {
		db, mock, cleanup := setupInterceptedDB(t)
		defer cleanup()

		ctx := tenancy.WithBypass(companyContext(companyID), true)

		mock.ExpectQuery(`SELECT \* FROM "company_widgets"$`).
			WillReturnRows(widgetRows())

		var widgets []CompanyWidget
		err := db.WithContext(ctx).
			Model(&CompanyWidget{}).
			Find(&widgets).Error

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent identity runs unscoped", func(t *testing.T) {
		db, mock, cleanup := setupInterceptedDB(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "company_widgets"$`).
			WillReturnRows(widgetRows())

		var widgets []CompanyWidget
		err := db.WithContext(context.Background()).
			Model(&CompanyWidget{}).
			Find(&widgets).Error

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("manual escape hatch is not filtered twice", func(t *testing.T) {
		db, mock, cleanup := setupInterceptedDB(t)
		defer cleanup()
		target := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "company_widgets" WHERE company_id = \$1`).
			WithArgs(target).
			WillReturnRows(widgetRows())

		var widgets []CompanyWidget
		err := db.WithContext(companyContext(companyID)).
			Model(&CompanyWidget{}).
			Scopes(ExplicitCompany(&CompanyWidget{}, target)).
			Find(&widgets).Error

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInterceptor_Update(t *testing.T) {
	companyID := uuid.New()

	t.Run("scopes updates and strips tenant columns from assignments", func(t *testing.T) {
		db, mock, cleanup := setupInterceptedDB(t)
		defer cleanup()

		// company_id appears only in the WHERE clause, never in SET
		mock.ExpectExec(`UPDATE "company_widgets" SET "name"=\$1 WHERE 1 = 1 AND "company_widgets"\."company_id" = \$2`).
			WithArgs("renamed", companyID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := db.WithContext(companyContext(companyID)).
			Model(&CompanyWidget{}).
			Where("1 = 1").
			Updates(map[string]interface{}{"name": "renamed", "company_id": uuid.New()}).Error

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInterceptor_Delete(t *testing.T) {
	companyID := uuid.New()

	t.Run("scopes deletes", func(t *testing.T) {
		db, mock, cleanup := setupInterceptedDB(t)
		defer cleanup()
		widgetID := uuid.New()

		mock.ExpectExec(`DELETE FROM "company_widgets" WHERE id = \$1 AND "company_widgets"\."company_id" = \$2`).
			WithArgs(widgetID, companyID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := db.WithContext(companyContext(companyID)).
			Where("id = ?", widgetID).
			Delete(&CompanyWidget{}).Error

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInterceptor_RemoveCallbacks(t *testing.T) {
	companyID := uuid.New()

	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()

	interceptor := NewInterceptor()
	require.NoError(t, interceptor.RegisterCallbacks(db))
	interceptor.RemoveCallbacks(db)

	mock.ExpectQuery(`SELECT \* FROM "company_widgets"$`).
		WillReturnRows(widgetRows())

	var widgets []CompanyWidget
	err := db.WithContext(companyContext(companyID)).
		Model(&CompanyWidget{}).
		Find(&widgets).Error

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
