package reconcile

import (
	"fmt"
	"strings"

	"gas-market/core/validation"
)

// Validate runs the batch level checks shared by both strategies: the batch
// must not be empty and no record may miss a required field. MatchAndMerge
// additionally rejects two records sharing an identity key.
func Validate[R Record](strategy Strategy, records []R) error {
	if len(records) == 0 {
		return validation.New(validation.KindEmptyInput, "no records to process")
	}

	for i, record := range records {
		if missing := record.MissingFields(); len(missing) > 0 {
			e := validation.AtRow(validation.KindEmptyRequiredField, i+1, missing[0], "",
				"required fields must not be empty: %s", strings.Join(missing, ", "))
			e.Columns = missing
			return e
		}
	}

	if strategy == MatchAndMerge {
		seen := make(map[string]int, len(records))
		for i, record := range records {
			key := record.IdentityKey()
			if first, dup := seen[key]; dup {
				return validation.AtRow(validation.KindDuplicateKey, i+1, "", key,
					"duplicate record in batch, same key as item %d", first)
			}
			seen[key] = i + 1
		}
	}

	return nil
}

// BuildPlan validates records and computes the writes for strategy.
// It does NOT touch storage; use Engine.Apply for that.
func BuildPlan[R Record](strategy Strategy, records []R) (*Plan[R], error) {
	if err := Validate(strategy, records); err != nil {
		return nil, err
	}

	plan := &Plan[R]{Strategy: strategy}
	plan.Summary.Records = len(records)

	switch strategy {
	case TouchThenAppend:
		seen := make(map[string]struct{})
		for _, record := range records {
			key := record.GroupKey()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			plan.Actions = append(plan.Actions, Action[R]{
				Type:    ActionTouch,
				Key:     key,
				Reason:  "supersede stored rows of the same group",
				Records: []R{record},
			})
			plan.Summary.TouchActions++
		}
		plan.Summary.Groups = len(seen)
		plan.Actions = append(plan.Actions, Action[R]{
			Type:    ActionInsert,
			Reason:  "append batch",
			Records: records,
		})
		plan.Summary.InsertActions = 1

	case MatchAndMerge:
		groups := make(map[string]struct{})
		for _, record := range records {
			groups[record.GroupKey()] = struct{}{}
			plan.Actions = append(plan.Actions, Action[R]{
				Type:    ActionMerge,
				Key:     record.IdentityKey(),
				Reason:  "update by identity key or insert",
				Records: []R{record},
			})
		}
		plan.Summary.Groups = len(groups)
		plan.Summary.MergeActions = len(records)

	default:
		return nil, fmt.Errorf("unknown reconcile strategy %q", strategy)
	}

	return plan, nil
}
