package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"gas-market/core/reconcile"
	"gas-market/feature/gasmarket/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestStore_TouchStaleSQL(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `MERCADO_GAS` SET `ATUALIZADO_EM`=\\? WHERE .*`ATUALIZADO_EM` IS NULL").
		WithArgs(t1, "A", sqlmock.AnyArg(), "P").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := New(db).TouchStale(context.Background(), candidate(" P ", "A ", "GLP", 0), t1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_TouchThenAppendRollsBackOnInsertFailure(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `MERCADO_GAS` SET `ATUALIZADO_EM`=?")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `MERCADO_GAS`")).
		WillReturnError(errors.New("duplicate entry"))
	mock.ExpectRollback()

	engine := reconcile.NewEngine[models.Candidate, models.Record](New(db), reconcile.FixedClock{T: t1})
	out, err := engine.Reconcile(context.Background(), reconcile.TouchThenAppend, []models.Candidate{
		candidate("P", "A", "GLP", 1),
		candidate("P", "A", "GN", 2),
	})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "duplicate entry")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_MatchAndMergeCommitsPerRecord(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `MERCADO_GAS` WHERE")).
		WillReturnRows(sqlmock.NewRows([]string{"ID"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `MERCADO_GAS`")).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `MERCADO_GAS` WHERE")).
		WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	engine := reconcile.NewEngine[models.Candidate, models.Record](New(db), reconcile.FixedClock{T: t1})
	out, err := engine.Reconcile(context.Background(), reconcile.MatchAndMerge, []models.Candidate{
		candidate("P", "A", "GLP", 1),
		candidate("P", "A", "GN", 2),
	})
	require.Error(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 1, out.Created)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, uint(10), out.Rows[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateInPlaceSQL(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `MERCADO_GAS` SET `LOCAL`=\\?,`EMPRESA`=\\?,`UNIDADE`=\\?,`VALOR`=\\?,`ATUALIZADO_EM`=\\? WHERE `ID` = \\?").
		WithArgs(nil, nil, "ton", 5.0, t1, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	existing := &models.Record{ID: 4, Date: day, Spreadsheet: "P", Sheet: "A", Product: "GLP", Unit: "kg", CreatedAt: t0}
	updated, err := New(db).UpdateInPlace(context.Background(), existing, candidate("P", "A", "GLP", 5), t1)
	require.NoError(t, err)
	assert.Equal(t, "ton", updated.Unit)
	assert.Equal(t, "kg", existing.Unit, "the caller's row is not mutated")
	assert.NoError(t, mock.ExpectationsWereMet())
}
