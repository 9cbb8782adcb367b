package store

import (
	"context"
	"fmt"
	"time"

	"gas-market/core/reconcile"
	"gas-market/feature/gasmarket/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// insertBatchSize bounds the rows per INSERT statement.
const insertBatchSize = 500

// Store persists gas market records with GORM.
type Store struct {
	db *gorm.DB
}

var _ reconcile.Store[models.Candidate, models.Record] = (*Store)(nil)

// New creates a store bound to db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindOne returns the row sharing the candidate's date, spreadsheet, sheet and
// product, compared case-insensitively, or nil when there is none.
func (s *Store) FindOne(ctx context.Context, c models.Candidate) (*models.Record, error) {
	c = c.Trim()

	var rows []models.Record
	err := s.db.WithContext(ctx).
		Where(map[string]any{"DATA": c.Date}).
		Where(lowerEq("PLANILHA", c.Spreadsheet)).
		Where(lowerEq("ABA", c.Sheet)).
		Where(lowerEq("PRODUTO", c.Product)).
		Order(byColumn("ID")).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up record: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// TouchStale stamps ATUALIZADO_EM on stored rows of the candidate's date,
// spreadsheet and sheet that have not been stamped yet.
func (s *Store) TouchStale(ctx context.Context, c models.Candidate, at time.Time) (int64, error) {
	c = c.Trim()

	res := s.db.WithContext(ctx).
		Model(&models.Record{}).
		Where(map[string]any{
			"DATA":          c.Date,
			"PLANILHA":      c.Spreadsheet,
			"ABA":           c.Sheet,
			"ATUALIZADO_EM": nil,
		}).
		Update("ATUALIZADO_EM", at)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to touch stale records: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// BulkInsert inserts candidates as new rows created at `at`.
func (s *Store) BulkInsert(ctx context.Context, candidates []models.Candidate, at time.Time) ([]models.Record, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	rows := make([]models.Record, len(candidates))
	for i, c := range candidates {
		rows[i] = c.ToRecord(at)
	}

	if err := s.db.WithContext(ctx).CreateInBatches(&rows, insertBatchSize).Error; err != nil {
		return nil, fmt.Errorf("failed to insert records: %w", err)
	}
	return rows, nil
}

// UpdateInPlace overwrites LOCAL, EMPRESA, UNIDADE and VALOR of existing and
// stamps ATUALIZADO_EM. CRIADO_EM is left untouched.
func (s *Store) UpdateInPlace(ctx context.Context, existing *models.Record, c models.Candidate, at time.Time) (*models.Record, error) {
	c = c.Trim()

	updated := *existing
	updated.Location = c.Location
	updated.Company = c.Company
	updated.Unit = c.Unit
	updated.Value = c.Value
	updated.UpdatedAt = &at

	err := s.db.WithContext(ctx).
		Model(&updated).
		Select("LOCAL", "EMPRESA", "UNIDADE", "VALOR", "ATUALIZADO_EM").
		Updates(&updated).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update record %d: %w", existing.ID, err)
	}
	return &updated, nil
}

// Transaction runs fn with a store bound to a single database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx reconcile.Store[models.Candidate, models.Record]) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Create inserts a single candidate.
func (s *Store) Create(ctx context.Context, c models.Candidate, at time.Time) (*models.Record, error) {
	rows, err := s.BulkInsert(ctx, []models.Candidate{c}, at)
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// List returns every record ordered by ID. With onlyPending, rows already
// superseded (ATUALIZADO_EM set) are left out.
func (s *Store) List(ctx context.Context, onlyPending bool) ([]models.Record, error) {
	q := s.db.WithContext(ctx).Order(byColumn("ID"))
	if onlyPending {
		q = q.Where(map[string]any{"ATUALIZADO_EM": nil})
	}

	var rows []models.Record
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return rows, nil
}

// ListByMonth returns the records whose DATA falls in the given month.
func (s *Store) ListByMonth(ctx context.Context, month, year int) ([]models.Record, error) {
	start := models.NewDate(year, time.Month(month), 1)
	end := models.DateOf(start.AddDate(0, 1, 0))

	var rows []models.Record
	err := s.db.WithContext(ctx).
		Where(clause.Gte{Column: clause.Column{Name: "DATA"}, Value: start}).
		Where(clause.Lt{Column: clause.Column{Name: "DATA"}, Value: end}).
		Order(byColumn("DATA")).
		Order(byColumn("ID")).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records for %02d/%d: %w", month, year, err)
	}
	return rows, nil
}

// lowerEq folds both sides with the database's LOWER so they share one
// case mapping.
func lowerEq(column, value string) clause.Expr {
	return clause.Expr{
		SQL:  "LOWER(?) = LOWER(?)",
		Vars: []any{clause.Column{Name: column}, value},
	}
}

func byColumn(name string) clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Name: name}}
}
