package upsert

import "context"

// DefaultFlushThreshold is the buffer size at which an Accumulator flushes
// automatically.
const DefaultFlushThreshold = 100

// Observer receives each Outcome produced by an Accumulator flush,
// synchronously and in production order.
type Observer func(Outcome)

// Accumulator buffers records pushed one at a time and reconciles them
// through the engine once the buffer reaches the flush threshold, or on an
// explicit Flush/Close.
//
// It is designed for a single producer on one goroutine; concurrent Push
// calls require external locking.
type Accumulator struct {
	store     Store
	params    Params
	threshold int
	observer  Observer
	buffer    []Record
}

// AccumulatorOption customizes an Accumulator.
type AccumulatorOption func(*Accumulator)

// WithThreshold sets the buffer size that triggers an automatic flush.
func WithThreshold(n int) AccumulatorOption {
	return func(a *Accumulator) {
		if n > 0 {
			a.threshold = n
		}
	}
}

// WithObserver registers a callback invoked once per Outcome of every flush.
func WithObserver(fn Observer) AccumulatorOption {
	return func(a *Accumulator) {
		a.observer = fn
	}
}

// NewAccumulator creates an Accumulator reconciling against store with the
// given engine parameters. The flush threshold defaults to
// DefaultFlushThreshold. Params.BatchSize keeps its engine meaning and
// usually stays zero: each flush is then one reconciliation round.
func NewAccumulator(store Store, params Params, opts ...AccumulatorOption) *Accumulator {
	a := &Accumulator{
		store:     store,
		params:    params,
		threshold: DefaultFlushThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Push appends a record to the buffer. When the buffer reaches the flush
// threshold the flush runs inside this call, before any further Push is
// accepted; its error is returned here.
func (a *Accumulator) Push(ctx context.Context, rec Record) error {
	a.buffer = append(a.buffer, rec)
	if len(a.buffer) >= a.threshold {
		return a.Flush(ctx)
	}
	return nil
}

// Flush reconciles the buffered records. An empty buffer is a no-op. The
// buffer is cleared only after the engine has produced every outcome and the
// observer has seen each of them; on error the buffer is retained so the
// caller may retry or inspect it.
func (a *Accumulator) Flush(ctx context.Context) error {
	if len(a.buffer) == 0 {
		return nil
	}
	outcomes, err := BulkUpdateOrCreate(ctx, a.store, a.buffer, a.params)
	if err != nil {
		return err
	}
	if a.observer != nil {
		for _, outcome := range outcomes {
			a.observer(outcome)
		}
	}
	a.buffer = nil
	return nil
}

// Close flushes any remaining buffered records. Intended for use with defer
// so records are never silently dropped when the producing scope exits:
//
//	acc := upsert.NewAccumulator(store, params)
//	defer acc.Close(ctx)
func (a *Accumulator) Close(ctx context.Context) error {
	return a.Flush(ctx)
}

// Len reports the number of currently buffered records.
func (a *Accumulator) Len() int {
	return len(a.buffer)
}
