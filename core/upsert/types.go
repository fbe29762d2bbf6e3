package upsert

import "context"

// Record is the field-access contract reconciled entities must expose.
// The engine never reflects over structs; it reads and writes fields
// exclusively through this interface.
type Record interface {
	// Field returns the named field's value. The second return value is
	// false when the record has no such field.
	Field(name string) (any, bool)

	// SetField assigns the named field. It returns false when the record
	// has no such field (or cannot accept the value).
	SetField(name string, value any) bool
}

// Store is the capability set the engine consumes from the data layer.
// Implementations are expected to be plain pass-throughs to the underlying
// database client; the engine adds no retries, timeouts or rollback on top.
type Store interface {
	// FindMatches returns every persisted record whose matchFields values
	// equal one of the given key tuples. Each key is an ordered tuple
	// aligned with matchFields. Implementations must not issue a query for
	// an empty key set; the engine never passes one.
	FindMatches(ctx context.Context, matchFields []string, keys [][]any) ([]Record, error)

	// UpdateFields persists the named fields of each record in one
	// operation. Records are existing rows previously returned by
	// FindMatches, so their identity is already assigned.
	UpdateFields(ctx context.Context, records []Record, fields []string) error

	// Insert persists a single new record. Row-at-a-time on purpose:
	// stores with row-level side effects (multi-table inheritance,
	// generated child rows) cannot express them through a generic bulk
	// insert.
	Insert(ctx context.Context, record Record) error
}

// Params configures a reconciliation run.
type Params struct {
	// MatchFields identify a record against storage. Defaults to ["id"].
	MatchFields []string

	// UpdateFields are copied from the input record onto a matched
	// existing row. Must be non-empty.
	UpdateFields []string

	// BatchSize bounds each reconciliation round. Zero means the whole
	// input in one round.
	BatchSize int

	// CaseInsensitive lower-cases string match-key values before
	// comparison. Non-string values pass through unchanged. The store is
	// queried with the folded values, so this relies on a
	// case-insensitive collation on the store side.
	CaseInsensitive bool

	// StrictDuplicates rejects inputs where two records of one sub-batch
	// share a match key, instead of silently keeping the later record.
	StrictDuplicates bool
}

// matchFields returns the configured match fields or the default key.
func (p Params) matchFields() []string {
	if len(p.MatchFields) == 0 {
		return []string{"id"}
	}
	return p.MatchFields
}

// Outcome is the result of one sub-batch: the records inserted as new rows
// and the existing rows that received field updates. Created preserves the
// first-seen key order of the input; Updated preserves the order the store
// returned the existing rows.
type Outcome struct {
	Created []Record
	Updated []Record
}
