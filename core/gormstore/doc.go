// Package gormstore implements the upsert.Store capability set on top of a
// GORM connection.
//
// A Store is generic over its model type: gormstore.New[models.Product](db, log)
// yields an upsert.Store whose existence queries, bulk updates and inserts
// all run against the products table. The model's pointer type must implement
// upsert.Record; field names are mapped to column names through GORM's
// default naming strategy.
//
// The existence lookup issues a single SELECT with one equality conjunction
// per match key, joined by OR, so a whole sub-batch is resolved in one
// round-trip. Bulk updates run as one transaction of per-row column-map
// updates; inserts are row-at-a-time (see upsert.Store for the rationale).
package gormstore
