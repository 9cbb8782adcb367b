package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Record is an incoming, not yet persisted record that can be reconciled.
type Record interface {
	// GroupKey returns the key shared by rows that supersede each other
	// under TouchThenAppend (date, spreadsheet, sheet).
	GroupKey() string
	// IdentityKey returns the full business key used by MatchAndMerge and by
	// in-batch duplicate detection.
	IdentityKey() string
	// MissingFields lists required fields that are empty.
	MissingFields() []string
}

// Store is the persistence collaborator used by the engine.
// R is the incoming record type and P the persisted row type.
type Store[R Record, P any] interface {
	// FindOne returns the stored row sharing the record's identity key, or nil.
	FindOne(ctx context.Context, record R) (*P, error)
	// TouchStale stamps `at` on every stored row sharing the record's group key
	// whose update timestamp is still null. It returns the affected row count.
	TouchStale(ctx context.Context, record R, at time.Time) (int64, error)
	// BulkInsert inserts records as new rows created at `at`.
	BulkInsert(ctx context.Context, records []R, at time.Time) ([]P, error)
	// UpdateInPlace overwrites the mutable fields of existing with record.
	UpdateInPlace(ctx context.Context, existing *P, record R, at time.Time) (*P, error)
	// Transaction runs fn against a store bound to one transaction. An error
	// returned by fn rolls the transaction back.
	Transaction(ctx context.Context, fn func(tx Store[R, P]) error) error
}

// Strategy selects how a batch is written.
type Strategy string

const (
	// TouchThenAppend stamps pre-existing rows of each group as superseded,
	// then appends the whole batch in one insert.
	TouchThenAppend Strategy = "touch_then_append"
	// MatchAndMerge updates rows matching the full identity key in place and
	// inserts the rest, committing each record independently.
	MatchAndMerge Strategy = "match_and_merge"
)

// ParseStrategy resolves a strategy name. Dashes and case are ignored, and the
// short names "append" and "merge" are accepted.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_") {
	case string(TouchThenAppend), "append":
		return TouchThenAppend, nil
	case string(MatchAndMerge), "merge", "upsert":
		return MatchAndMerge, nil
	default:
		return "", fmt.Errorf("unknown reconcile strategy %q", name)
	}
}

// ActionType represents the type of write action.
type ActionType string

const (
	// ActionTouch stamps stale rows of one group key.
	ActionTouch ActionType = "touch"
	// ActionInsert appends records as new rows.
	ActionInsert ActionType = "insert"
	// ActionMerge updates or inserts a single record by identity key.
	ActionMerge ActionType = "merge"
)

// Action represents a planned write.
type Action[R Record] struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type" yaml:"type"`

	// Key is the group key for touches and the identity key for merges.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	// Reason explains why this action is needed.
	Reason string `json:"reason" yaml:"reason"`

	// Records are the records the action writes. A touch carries the first
	// record of its group.
	Records []R `json:"records,omitempty" yaml:"records,omitempty"`
}

// Plan is the ordered list of writes for one batch.
type Plan[R Record] struct {
	Strategy Strategy    `json:"strategy" yaml:"strategy"`
	Actions  []Action[R] `json:"actions" yaml:"actions"`
	Summary  PlanSummary `json:"summary" yaml:"summary"`
}

// PlanSummary provides aggregate counts for a plan.
type PlanSummary struct {
	// Records is the number of records in the batch.
	Records int `json:"records" yaml:"records"`

	// Groups counts distinct group keys.
	Groups int `json:"groups" yaml:"groups"`

	// TouchActions counts planned touch-updates.
	TouchActions int `json:"touch_actions" yaml:"touch_actions"`

	// InsertActions counts planned bulk inserts.
	InsertActions int `json:"insert_actions" yaml:"insert_actions"`

	// MergeActions counts planned per-record merges.
	MergeActions int `json:"merge_actions" yaml:"merge_actions"`
}

// Outcome reports what Apply wrote.
type Outcome[P any] struct {
	// Touched is the number of pre-existing rows stamped as superseded.
	Touched int64 `json:"touched"`
	// Created counts inserted rows.
	Created int `json:"created"`
	// Updated counts rows updated in place.
	Updated int `json:"updated"`
	// Rows holds the written rows in batch order.
	Rows []P `json:"-"`
}

// Processed returns the number of records written.
func (o *Outcome[P]) Processed() int {
	return o.Created + o.Updated
}
