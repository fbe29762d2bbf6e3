package upsert

import (
	"context"
	"fmt"
	"strings"
)

// matchKey is an encoded match-field tuple, usable as a map key regardless of
// the component types.
type matchKey string

// BulkUpdateOrCreate reconciles records against the store in contiguous
// sub-batches of params.BatchSize, returning one Outcome per sub-batch in
// input order.
//
// For each sub-batch it runs a single disjunctive existence query covering
// every match key, copies params.UpdateFields from the input records onto the
// matched rows, persists those through one UpdateFields call, and inserts
// each unmatched record individually.
//
// Input is validated in full before any store call; a ValidationError never
// leaves partial writes. Store errors propagate unchanged and abort the run,
// leaving earlier sub-batches committed.
func BulkUpdateOrCreate(ctx context.Context, store Store, records []Record, params Params) ([]Outcome, error) {
	if err := validate(records, params); err != nil {
		return nil, err
	}

	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = len(records)
	}

	outcomes := make([]Outcome, 0, (len(records)+batchSize-1)/batchSize)
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		outcome, err := reconcileBatch(ctx, store, records[start:end], params)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// validate performs the eager precondition checks over the entire input.
func validate(records []Record, params Params) error {
	if len(records) == 0 {
		return validationErrorf("no objects")
	}
	if len(params.UpdateFields) == 0 {
		return validationErrorf("empty update_fields")
	}

	matchFields := params.matchFields()
	for _, rec := range records {
		for _, f := range matchFields {
			if _, ok := rec.Field(f); !ok {
				return validationErrorf("missing field %s", f)
			}
		}
		for _, f := range params.UpdateFields {
			if _, ok := rec.Field(f); !ok {
				return validationErrorf("missing field %s", f)
			}
		}
	}

	if params.StrictDuplicates {
		batchSize := params.BatchSize
		if batchSize <= 0 {
			batchSize = len(records)
		}
		seen := make(map[matchKey]struct{}, batchSize)
		for i, rec := range records {
			if i%batchSize == 0 {
				clear(seen)
			}
			key, _ := keyOf(rec, matchFields, params.CaseInsensitive)
			if _, dup := seen[key]; dup {
				return validationErrorf("duplicate match key %q", string(key))
			}
			seen[key] = struct{}{}
		}
	}

	return nil
}

// reconcileBatch resolves one sub-batch: one existence query, one bulk
// update, one insert per remaining record.
func reconcileBatch(ctx context.Context, store Store, batch []Record, params Params) (Outcome, error) {
	matchFields := params.matchFields()

	// Key -> record map, last writer wins. Key order is first-seen so the
	// created list stays deterministic.
	pending := make(map[matchKey]Record, len(batch))
	keyValues := make(map[matchKey][]any, len(batch))
	keyOrder := make([]matchKey, 0, len(batch))
	for _, rec := range batch {
		key, values := keyOf(rec, matchFields, params.CaseInsensitive)
		if _, exists := pending[key]; !exists {
			keyOrder = append(keyOrder, key)
			keyValues[key] = values
		}
		pending[key] = rec
	}

	// One round-trip resolves existence for the whole sub-batch. The batch
	// is non-empty, so the key set never is either.
	keys := make([][]any, 0, len(keyOrder))
	for _, key := range keyOrder {
		keys = append(keys, keyValues[key])
	}
	existing, err := store.FindMatches(ctx, matchFields, keys)
	if err != nil {
		return Outcome{}, err
	}

	updated := make([]Record, 0, len(existing))
	for _, row := range existing {
		key, _ := keyOf(row, matchFields, params.CaseInsensitive)
		src, ok := pending[key]
		if !ok {
			// The store contract guarantees every returned row matches
			// one of the submitted keys. Rows outside it are skipped,
			// not reported.
			continue
		}
		for _, f := range params.UpdateFields {
			value, _ := src.Field(f)
			row.SetField(f, value)
		}
		delete(pending, key)
		updated = append(updated, row)
	}
	if len(updated) > 0 {
		if err := store.UpdateFields(ctx, updated, params.UpdateFields); err != nil {
			return Outcome{}, err
		}
	}

	created := make([]Record, 0, len(pending))
	for _, key := range keyOrder {
		rec, ok := pending[key]
		if !ok {
			continue
		}
		if err := store.Insert(ctx, rec); err != nil {
			return Outcome{}, err
		}
		created = append(created, rec)
	}

	return Outcome{Created: created, Updated: updated}, nil
}

// keyOf extracts the match-key tuple of a record: the encoded form used as a
// map key plus the raw component values used to build the store predicate.
// With fold set, string components are lower-cased; other types are left
// unchanged.
func keyOf(rec Record, matchFields []string, fold bool) (matchKey, []any) {
	values := make([]any, len(matchFields))
	var b strings.Builder
	for i, f := range matchFields {
		value, _ := rec.Field(f)
		if fold {
			if s, ok := value.(string); ok {
				value = strings.ToLower(s)
			}
		}
		values[i] = value
		// 0x1f separates components so composite keys cannot collide on
		// concatenation.
		fmt.Fprintf(&b, "%v\x1f", value)
	}
	return matchKey(b.String()), values
}
