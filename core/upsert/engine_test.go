package upsert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// product is a minimal test record.
type product struct {
	ID    int
	SKU   string
	Name  string
	Price float64
}

func (p *product) Field(name string) (any, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "sku":
		return p.SKU, true
	case "name":
		return p.Name, true
	case "price":
		return p.Price, true
	}
	return nil, false
}

func (p *product) SetField(name string, value any) bool {
	switch name {
	case "id":
		p.ID, _ = value.(int)
	case "sku":
		p.SKU, _ = value.(string)
	case "name":
		p.Name, _ = value.(string)
	case "price":
		p.Price, _ = value.(float64)
	default:
		return false
	}
	return true
}

type findCall struct {
	fields []string
	keys   [][]any
}

type updateCall struct {
	records []Record
	fields  []string
}

// fakeStore is an in-memory Store. With caseInsensitive set it matches string
// key components like a case-insensitive collation would.
type fakeStore struct {
	rows            []*product
	caseInsensitive bool

	findErr   error
	updateErr error
	insertErr error

	findCalls   []findCall
	updateCalls []updateCall
	inserts     []Record
}

func (s *fakeStore) FindMatches(ctx context.Context, matchFields []string, keys [][]any) ([]Record, error) {
	s.findCalls = append(s.findCalls, findCall{fields: matchFields, keys: keys})
	if s.findErr != nil {
		return nil, s.findErr
	}
	var matched []Record
	for _, row := range s.rows {
		for _, key := range keys {
			if s.rowMatches(row, matchFields, key) {
				matched = append(matched, row)
				break
			}
		}
	}
	return matched, nil
}

func (s *fakeStore) rowMatches(row *product, matchFields []string, key []any) bool {
	for i, f := range matchFields {
		value, ok := row.Field(f)
		if !ok {
			return false
		}
		want := key[i]
		if s.caseInsensitive {
			if vs, ok := value.(string); ok {
				ws, _ := want.(string)
				if !strings.EqualFold(vs, ws) {
					return false
				}
				continue
			}
		}
		if fmt.Sprintf("%v", value) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func (s *fakeStore) UpdateFields(ctx context.Context, records []Record, fields []string) error {
	s.updateCalls = append(s.updateCalls, updateCall{records: records, fields: fields})
	return s.updateErr
}

func (s *fakeStore) Insert(ctx context.Context, record Record) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserts = append(s.inserts, record)
	return nil
}

func skuParams() Params {
	return Params{
		MatchFields:  []string{"sku"},
		UpdateFields: []string{"name", "price"},
	}
}

func TestBulkUpdateOrCreate_AllCreated(t *testing.T) {
	store := &fakeStore{}
	records := []Record{
		&product{SKU: "a", Name: "Alpha"},
		&product{SKU: "b", Name: "Beta"},
		&product{SKU: "c", Name: "Gamma"},
	}

	outcomes, err := BulkUpdateOrCreate(context.Background(), store, records, skuParams())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	assert.Equal(t, records, outcomes[0].Created)
	assert.Empty(t, outcomes[0].Updated)
	assert.Len(t, store.inserts, 3)
	assert.Empty(t, store.updateCalls, "no bulk update expected when nothing matched")
}

func TestBulkUpdateOrCreate_AllUpdated(t *testing.T) {
	existingA := &product{ID: 1, SKU: "a", Name: "old", Price: 1}
	existingB := &product{ID: 2, SKU: "b", Name: "old", Price: 2}
	store := &fakeStore{rows: []*product{existingA, existingB}}

	records := []Record{
		&product{SKU: "a", Name: "Alpha", Price: 9.5},
		&product{SKU: "b", Name: "Beta", Price: 12},
	}

	outcomes, err := BulkUpdateOrCreate(context.Background(), store, records, skuParams())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	assert.Empty(t, outcomes[0].Created)
	assert.Equal(t, []Record{existingA, existingB}, outcomes[0].Updated)
	assert.Empty(t, store.inserts)

	// Update fields copied verbatim onto the existing rows; identity kept.
	assert.Equal(t, "Alpha", existingA.Name)
	assert.Equal(t, 9.5, existingA.Price)
	assert.Equal(t, 1, existingA.ID)
	assert.Equal(t, "Beta", existingB.Name)

	require.Len(t, store.updateCalls, 1)
	assert.Equal(t, []string{"name", "price"}, store.updateCalls[0].fields)
}

func TestBulkUpdateOrCreate_Mixed(t *testing.T) {
	existing := &product{ID: 7, SKU: "b", Name: "old"}
	store := &fakeStore{rows: []*product{existing}}

	fresh := &product{SKU: "a", Name: "Alpha"}
	records := []Record{fresh, &product{SKU: "b", Name: "Beta"}}

	outcomes, err := BulkUpdateOrCreate(context.Background(), store, records, skuParams())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	assert.Equal(t, []Record{fresh}, outcomes[0].Created)
	assert.Equal(t, []Record{existing}, outcomes[0].Updated)
	assert.Equal(t, "Beta", existing.Name)
}

func TestBulkUpdateOrCreate_Batching(t *testing.T) {
	store := &fakeStore{}
	var records []Record
	for i := 0; i < 5; i++ {
		records = append(records, &product{SKU: fmt.Sprintf("sku-%d", i)})
	}

	params := skuParams()
	params.BatchSize = 2

	outcomes, err := BulkUpdateOrCreate(context.Background(), store, records, params)
	require.NoError(t, err)

	// ceil(5/2) = 3 outcomes over contiguous slices of the input.
	require.Len(t, outcomes, 3)
	assert.Equal(t, records[0:2], outcomes[0].Created)
	assert.Equal(t, records[2:4], outcomes[1].Created)
	assert.Equal(t, records[4:5], outcomes[2].Created)

	require.Len(t, store.findCalls, 3)
	assert.Len(t, store.findCalls[0].keys, 2)
	assert.Len(t, store.findCalls[1].keys, 2)
	assert.Len(t, store.findCalls[2].keys, 1)
}

func TestBulkUpdateOrCreate_CaseInsensitive(t *testing.T) {
	t.Run("enabled matches across case", func(t *testing.T) {
		existing := &product{ID: 1, SKU: "Foo", Name: "old"}
		store := &fakeStore{rows: []*product{existing}, caseInsensitive: true}

		params := skuParams()
		params.CaseInsensitive = true

		outcomes, err := BulkUpdateOrCreate(context.Background(), store,
			[]Record{&product{SKU: "foo", Name: "new"}}, params)
		require.NoError(t, err)
		require.Len(t, outcomes, 1)
		assert.Empty(t, outcomes[0].Created)
		assert.Equal(t, []Record{existing}, outcomes[0].Updated)
		assert.Equal(t, "new", existing.Name)

		// The store is queried with the folded key values.
		require.Len(t, store.findCalls, 1)
		assert.Equal(t, [][]any{{"foo"}}, store.findCalls[0].keys)
	})

	t.Run("disabled treats case as distinct", func(t *testing.T) {
		existing := &product{ID: 1, SKU: "Foo", Name: "old"}
		store := &fakeStore{rows: []*product{existing}}

		rec := &product{SKU: "foo", Name: "new"}
		outcomes, err := BulkUpdateOrCreate(context.Background(), store, []Record{rec}, skuParams())
		require.NoError(t, err)
		require.Len(t, outcomes, 1)
		assert.Equal(t, []Record{rec}, outcomes[0].Created)
		assert.Empty(t, outcomes[0].Updated)
		assert.Equal(t, "old", existing.Name)
	})
}

func TestBulkUpdateOrCreate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		params  Params
		wantMsg string
	}{
		{
			name:    "no records",
			records: nil,
			params:  skuParams(),
			wantMsg: "no objects",
		},
		{
			name:    "empty update fields",
			records: []Record{&product{SKU: "a"}},
			params:  Params{MatchFields: []string{"sku"}},
			wantMsg: "empty update_fields",
		},
		{
			name: "missing update field on later record",
			records: []Record{
				&product{SKU: "a"},
				&narrowRecord{sku: "b"},
			},
			params:  skuParams(),
			wantMsg: "missing field name",
		},
		{
			name:    "missing match field",
			records: []Record{&narrowRecord{sku: "a"}},
			params: Params{
				MatchFields:  []string{"serial"},
				UpdateFields: []string{"sku"},
			},
			wantMsg: "missing field serial",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			outcomes, err := BulkUpdateOrCreate(context.Background(), store, tt.records, tt.params)

			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, verr.Message)
			assert.Nil(t, outcomes)

			// Fail-fast: no store interaction whatsoever.
			assert.Empty(t, store.findCalls)
			assert.Empty(t, store.updateCalls)
			assert.Empty(t, store.inserts)
		})
	}
}

// narrowRecord only exposes a sku field.
type narrowRecord struct {
	sku string
}

func (r *narrowRecord) Field(name string) (any, bool) {
	if name == "sku" {
		return r.sku, true
	}
	return nil, false
}

func (r *narrowRecord) SetField(name string, value any) bool {
	if name == "sku" {
		r.sku, _ = value.(string)
		return true
	}
	return false
}

func TestBulkUpdateOrCreate_DuplicateKeysLastWriterWins(t *testing.T) {
	store := &fakeStore{}
	first := &product{SKU: "a", Name: "first"}
	second := &product{SKU: "a", Name: "second"}

	outcomes, err := BulkUpdateOrCreate(context.Background(), store, []Record{first, second}, skuParams())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	// The earlier duplicate is dropped without error.
	assert.Equal(t, []Record{second}, outcomes[0].Created)
	assert.Len(t, store.inserts, 1)
	require.Len(t, store.findCalls, 1)
	assert.Len(t, store.findCalls[0].keys, 1)
}

func TestBulkUpdateOrCreate_StrictDuplicates(t *testing.T) {
	store := &fakeStore{}
	params := skuParams()
	params.StrictDuplicates = true

	_, err := BulkUpdateOrCreate(context.Background(), store,
		[]Record{&product{SKU: "a"}, &product{SKU: "a"}}, params)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "duplicate match key")
	assert.Empty(t, store.findCalls)
}

func TestBulkUpdateOrCreate_StrictDuplicatesAcrossBatches(t *testing.T) {
	// Duplicates in different sub-batches are fine; each sub-batch is
	// reconciled independently.
	store := &fakeStore{}
	params := skuParams()
	params.StrictDuplicates = true
	params.BatchSize = 1

	outcomes, err := BulkUpdateOrCreate(context.Background(), store,
		[]Record{&product{SKU: "a", Name: "x"}, &product{SKU: "a", Name: "y"}}, params)
	require.NoError(t, err)
	assert.Len(t, outcomes, 2)
}

func TestBulkUpdateOrCreate_StoreErrorsPropagate(t *testing.T) {
	findErr := errors.New("connection reset")
	store := &fakeStore{findErr: findErr}

	_, err := BulkUpdateOrCreate(context.Background(), store,
		[]Record{&product{SKU: "a"}}, skuParams())
	assert.ErrorIs(t, err, findErr)

	insertErr := errors.New("duplicate entry")
	store = &fakeStore{insertErr: insertErr}
	_, err = BulkUpdateOrCreate(context.Background(), store,
		[]Record{&product{SKU: "a"}}, skuParams())
	assert.ErrorIs(t, err, insertErr)
}

func TestBulkUpdateOrCreate_DefaultMatchField(t *testing.T) {
	store := &fakeStore{}
	_, err := BulkUpdateOrCreate(context.Background(), store,
		[]Record{&product{ID: 3}}, Params{UpdateFields: []string{"name"}})
	require.NoError(t, err)

	require.Len(t, store.findCalls, 1)
	assert.Equal(t, []string{"id"}, store.findCalls[0].fields)
	assert.Equal(t, [][]any{{3}}, store.findCalls[0].keys)
}

func TestBulkUpdateOrCreate_CompositeMatchKey(t *testing.T) {
	existing := &product{ID: 1, SKU: "a", Name: "Alpha", Price: 1}
	store := &fakeStore{rows: []*product{existing}}

	params := Params{
		MatchFields:  []string{"sku", "name"},
		UpdateFields: []string{"price"},
	}
	records := []Record{
		&product{SKU: "a", Name: "Alpha", Price: 3},
		&product{SKU: "a", Name: "Other", Price: 4},
	}

	outcomes, err := BulkUpdateOrCreate(context.Background(), store, records, params)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Len(t, outcomes[0].Updated, 1)
	assert.Len(t, outcomes[0].Created, 1)
	assert.Equal(t, 3.0, existing.Price)
}
