// Package reconcile decides how a batch of incoming records is written against
// existing storage.
//
// Two strategies are supported and selected per call site:
//
//   - TouchThenAppend: for every distinct group key in the batch, rows already
//     stored under that key whose update timestamp is null are stamped as
//     superseded. The whole batch is then appended in one bulk insert. Touches
//     and the insert share one transaction.
//   - MatchAndMerge: every record is looked up by its full identity key. A match
//     is updated in place (and stamped with the engine clock), otherwise the
//     record is inserted. Each record commits on its own, so a failure leaves
//     earlier records written.
//
// Work is split in two steps, mirroring a plan/apply workflow:
//
//	plan, err := reconcile.BuildPlan(reconcile.TouchThenAppend, records)
//	// inspect plan.Actions / plan.Summary, e.g. for a dry run
//	outcome, err := engine.Apply(ctx, plan)
//
// Engine.Reconcile combines both. Storage is reached only through the Store
// interface; validation failures are reported as *validation.Error values.
package reconcile
