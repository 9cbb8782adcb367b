package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"gas-market/core/database"
	"gas-market/core/reconcile"
	"gas-market/feature/gasmarket/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	day = models.NewDate(2025, time.September, 24)
	t0  = time.Date(2025, 9, 24, 8, 0, 0, 0, time.UTC)
	t1  = time.Date(2025, 9, 25, 8, 0, 0, 0, time.UTC)
)

func strptr(s string) *string { return &s }

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &models.Record{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func candidate(spreadsheet, sheet, product string, value float64) models.Candidate {
	return models.Candidate{
		Date:        day,
		Spreadsheet: spreadsheet,
		Sheet:       sheet,
		Product:     product,
		Unit:        "ton",
		Value:       value,
	}
}

func TestStore_BulkInsertAndList(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	rows, err := s.BulkInsert(ctx, []models.Candidate{
		candidate(" P ", "A", "GLP", 1),
		candidate("P", "A", "GN", 2),
	}, t0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.NotZero(t, rows[0].ID)
	assert.Greater(t, rows[1].ID, rows[0].ID)
	assert.Equal(t, "P", rows[0].Spreadsheet)

	listed, err := s.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, day, listed[0].Date)
	assert.Equal(t, "GLP", listed[0].Product)
	assert.WithinDuration(t, t0, listed[0].CreatedAt, time.Second)
	assert.Nil(t, listed[0].UpdatedAt)

	empty, err := s.BulkInsert(ctx, nil, t0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_TouchStale(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	_, err := s.BulkInsert(ctx, []models.Candidate{
		candidate("P", "A", "GLP", 1),
		candidate("P", "A", "GN", 2),
		candidate("P", "B", "GLP", 3),
		candidate("p", "A", "GLP", 4),
	}, t0)
	require.NoError(t, err)

	n, err := s.TouchStale(ctx, candidate("P", "A", "other", 0), t1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.TouchStale(ctx, candidate("P", "A", "other", 0), t1.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "already stamped rows keep their stamp")

	pending, err := s.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "B", pending[0].Sheet)
	assert.Equal(t, "p", pending[1].Spreadsheet)

	all, err := s.List(ctx, false)
	require.NoError(t, err)
	require.NotNil(t, all[0].UpdatedAt)
	assert.WithinDuration(t, t1, *all[0].UpdatedAt, time.Second)
}

func TestStore_FindOne(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	_, err := s.BulkInsert(ctx, []models.Candidate{candidate("Planilha", "Aba", "GLP", 1)}, t0)
	require.NoError(t, err)

	found, err := s.FindOne(ctx, candidate(" planilha", "ABA", "glp", 0))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Planilha", found.Spreadsheet)

	missing, err := s.FindOne(ctx, candidate("Planilha", "Aba", "GN", 0))
	require.NoError(t, err)
	assert.Nil(t, missing)

	other := candidate("Planilha", "Aba", "GLP", 0)
	other.Date = models.NewDate(2025, 9, 25)
	missing, err = s.FindOne(ctx, other)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_UpdateInPlace(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	rows, err := s.BulkInsert(ctx, []models.Candidate{candidate("P", "A", "GLP", 1)}, t0)
	require.NoError(t, err)

	update := candidate("P", "A", "GLP", 9.5)
	update.Unit = "m3"
	update.Location = strptr(" Guamaré ")
	update.Company = strptr("  ")

	updated, err := s.UpdateInPlace(ctx, &rows[0], update, t1)
	require.NoError(t, err)
	assert.Equal(t, 9.5, updated.Value)

	stored, err := s.FindOne(ctx, update)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 9.5, stored.Value)
	assert.Equal(t, "m3", stored.Unit)
	require.NotNil(t, stored.Location)
	assert.Equal(t, "Guamaré", *stored.Location)
	assert.Nil(t, stored.Company)
	assert.WithinDuration(t, t0, stored.CreatedAt, time.Second)
	require.NotNil(t, stored.UpdatedAt)
	assert.WithinDuration(t, t1, *stored.UpdatedAt, time.Second)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	err := s.Transaction(ctx, func(tx reconcile.Store[models.Candidate, models.Record]) error {
		if _, err := tx.BulkInsert(ctx, []models.Candidate{candidate("P", "A", "GLP", 1)}, t0); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	rows, err := s.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStore_ListByMonth(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	dates := []models.Date{
		models.NewDate(2025, 8, 31),
		models.NewDate(2025, 9, 30),
		models.NewDate(2025, 9, 1),
		models.NewDate(2025, 10, 1),
		models.NewDate(2024, 9, 15),
	}
	var batch []models.Candidate
	for _, d := range dates {
		c := candidate("P", "A", "GLP", 1)
		c.Date = d
		batch = append(batch, c)
	}
	_, err := s.BulkInsert(ctx, batch, t0)
	require.NoError(t, err)

	rows, err := s.ListByMonth(ctx, 9, 2025)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.NewDate(2025, 9, 1), rows[0].Date)
	assert.Equal(t, models.NewDate(2025, 9, 30), rows[1].Date)

	rows, err = s.ListByMonth(ctx, 12, 2025)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStore_Create(t *testing.T) {
	s := New(setupDB(t))

	rec, err := s.Create(context.Background(), candidate("P", "A", "GLP", 2.44), t0)
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, 2.44, rec.Value)
}

func TestStore_WithEngine(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	first := reconcile.NewEngine[models.Candidate, models.Record](s, reconcile.FixedClock{T: t0})
	out, err := first.Reconcile(ctx, reconcile.TouchThenAppend, []models.Candidate{
		candidate("P", "A", "GLP", 1),
		candidate("P", "A", "GN", 2),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Touched)
	assert.Equal(t, 2, out.Created)

	second := reconcile.NewEngine[models.Candidate, models.Record](s, reconcile.FixedClock{T: t1})
	out, err = second.Reconcile(ctx, reconcile.TouchThenAppend, []models.Candidate{
		candidate("P", "A", "GLP", 3),
		candidate("P", "A", "GN", 4),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Touched)
	assert.Equal(t, 2, out.Created)

	pending, err := s.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, 3.0, pending[0].Value)

	out, err = second.Reconcile(ctx, reconcile.MatchAndMerge, []models.Candidate{
		candidate("p", "a", "glp", 7),
		candidate("P", "A", "C3", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, 1, out.Created)

	all, err := s.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, 7.0, all[0].Value, "merge updates the first matching row")
}

func TestStore_MergeMatchesAccentedKeys(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	key := candidate("ATI GUAMARÉ.xlsx", "HISTÓRICO - GLP", "GLP", 1)
	_, err := s.BulkInsert(ctx, []models.Candidate{key}, t0)
	require.NoError(t, err)

	found, err := s.FindOne(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, found)

	engine := reconcile.NewEngine[models.Candidate, models.Record](s, reconcile.FixedClock{T: t1})
	out, err := engine.Reconcile(ctx, reconcile.MatchAndMerge, []models.Candidate{
		candidate("ATI GUAMARÉ.xlsx", "HISTÓRICO - GLP", "GLP", 2),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, 0, out.Created)

	all, err := s.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2.0, all[0].Value)
}
