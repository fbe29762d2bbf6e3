// Package upsert provides batched update-or-create reconciliation of
// in-memory records against a relational store.
//
// Given a sequence of records, a match key (one or more fields) and a set of
// updatable fields, the engine determines which records already exist in the
// store, copies the updatable fields onto the existing rows, and inserts the
// rest as new rows. Existence is resolved with a single store round-trip per
// sub-batch: one disjunctive query covering every match key in the batch,
// instead of one query per record.
//
// # Architecture
//
// The package is split into two pieces:
//
//  1. Engine: BulkUpdateOrCreate validates the input eagerly, slices it into
//     contiguous sub-batches, and reconciles each sub-batch against a Store,
//     producing one Outcome (created, updated) per sub-batch.
//
//  2. Accumulator: a single-producer buffer over the engine for streams of
//     unknown length. Records are pushed one at a time; the buffer is flushed
//     through the engine whenever it reaches the configured threshold, and a
//     final deferred Close guarantees no buffered records are dropped.
//
// The store itself is an interface (see Store) so the engine stays independent
// of the underlying database layer. A GORM-backed implementation lives in
// core/gormstore.
//
// # Usage Example
//
//	store := gormstore.New[models.Product](db, log)
//	outcomes, err := upsert.BulkUpdateOrCreate(ctx, store, records, upsert.Params{
//	    MatchFields:  []string{"sku"},
//	    UpdateFields: []string{"name", "price"},
//	    BatchSize:    500,
//	})
//
//	// Streaming:
//	acc := upsert.NewAccumulator(store, params, upsert.WithThreshold(100))
//	defer acc.Close(ctx)
//	for rec := range input {
//	    if err := acc.Push(ctx, rec); err != nil {
//	        return err
//	    }
//	}
//
// # Semantics
//
// Within one sub-batch, records sharing a match key collapse to the last one
// pushed (last writer wins); enable Params.StrictDuplicates to reject
// duplicates up front instead. Sub-batches are committed independently: a
// store failure leaves earlier sub-batches applied and is returned unchanged
// to the caller. Callers needing all-or-nothing behavior must supply a store
// whose calls share an external transaction.
package upsert
