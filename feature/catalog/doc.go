// Package catalog implements the product catalog sync feature.
//
// It is the flagship consumer of the core/upsert engine: product definitions
// are loaded from a JSON object (in object storage or on the local
// filesystem) and reconciled into the products table in batches, updating
// rows whose SKU already exists and inserting the rest.
//
// # Components
//
//   - Loader: reads and decodes product JSON from storage or file.
//   - Service: orchestrates a sync run, streaming products through an
//     upsert.Accumulator over a gormstore-backed products store, and
//     optionally uploads a per-run report back to storage.
//
// Each run carries a generated run ID attached to every log entry and to the
// uploaded report object.
package catalog
