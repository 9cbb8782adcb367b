package reconcile

import (
	"context"
	"errors"
	"fmt"
)

// Engine applies reconcile plans against a Store.
type Engine[R Record, P any] struct {
	store Store[R, P]
	clock Clock
}

// NewEngine creates an engine. A nil clock defaults to SystemClock in UTC.
func NewEngine[R Record, P any](store Store[R, P], clock Clock) *Engine[R, P] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine[R, P]{store: store, clock: clock}
}

// Reconcile validates records, plans them for strategy and applies the plan.
func (e *Engine[R, P]) Reconcile(ctx context.Context, strategy Strategy, records []R) (*Outcome[P], error) {
	plan, err := BuildPlan(strategy, records)
	if err != nil {
		return nil, err
	}
	return e.Apply(ctx, plan)
}

// Apply executes the actions in plan.
//
// TouchThenAppend runs every touch and then the bulk insert inside one
// transaction, so a failed insert also rolls back the touches. MatchAndMerge
// commits each record in its own transaction; on failure the outcome of the
// records already committed is returned together with the error.
func (e *Engine[R, P]) Apply(ctx context.Context, plan *Plan[R]) (*Outcome[P], error) {
	if plan == nil {
		return nil, errors.New("nil plan")
	}

	switch plan.Strategy {
	case TouchThenAppend:
		return e.applyAppend(ctx, plan)
	case MatchAndMerge:
		return e.applyMerge(ctx, plan)
	default:
		return nil, fmt.Errorf("unknown reconcile strategy %q", plan.Strategy)
	}
}

func (e *Engine[R, P]) applyAppend(ctx context.Context, plan *Plan[R]) (*Outcome[P], error) {
	at := e.clock.Now()
	var out Outcome[P]

	err := e.store.Transaction(ctx, func(tx Store[R, P]) error {
		var touched int64
		var inserts []R

		// Touches must all run before the insert so that rows of this
		// batch are never stamped as stale.
		for _, action := range plan.Actions {
			switch action.Type {
			case ActionTouch:
				n, err := tx.TouchStale(ctx, action.Records[0], at)
				if err != nil {
					return fmt.Errorf("failed to touch group %s: %w", action.Key, err)
				}
				touched += n
			case ActionInsert:
				inserts = append(inserts, action.Records...)
			}
		}

		rows, err := tx.BulkInsert(ctx, inserts, at)
		if err != nil {
			return fmt.Errorf("failed to insert %d records: %w", len(inserts), err)
		}

		out.Touched = touched
		out.Created = len(rows)
		out.Rows = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (e *Engine[R, P]) applyMerge(ctx context.Context, plan *Plan[R]) (*Outcome[P], error) {
	out := &Outcome[P]{}

	for _, action := range plan.Actions {
		if action.Type != ActionMerge {
			continue
		}
		record := action.Records[0]
		at := e.clock.Now()

		var (
			row     *P
			created bool
		)
		err := e.store.Transaction(ctx, func(tx Store[R, P]) error {
			existing, err := tx.FindOne(ctx, record)
			if err != nil {
				return err
			}
			if existing != nil {
				row, err = tx.UpdateInPlace(ctx, existing, record, at)
				return err
			}
			rows, err := tx.BulkInsert(ctx, []R{record}, at)
			if err != nil {
				return err
			}
			if len(rows) > 0 {
				row = &rows[0]
			}
			created = true
			return nil
		})
		if err != nil {
			return out, fmt.Errorf("failed to merge record %s: %w", action.Key, err)
		}

		if created {
			out.Created++
		} else {
			out.Updated++
		}
		if row != nil {
			out.Rows = append(out.Rows, *row)
		}
	}

	return out, nil
}
