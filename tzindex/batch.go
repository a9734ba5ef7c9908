package tzindex

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BatchPolicy selects how a batch treats out of range coordinates.
type BatchPolicy uint8

const (
	// PolicyElement marks an out of range element as having no result and
	// carries on with the rest of the batch.
	PolicyElement BatchPolicy = iota
	// PolicyStrict aborts the batch at the first out of range element.
	PolicyStrict
)

func (p BatchPolicy) String() string {
	switch p {
	case PolicyElement:
		return "element"
	case PolicyStrict:
		return "strict"
	default:
		return fmt.Sprintf("BatchPolicy(%d)", uint8(p))
	}
}

// ParseBatchPolicy is the inverse of BatchPolicy.String.
func ParseBatchPolicy(s string) (BatchPolicy, error) {
	switch s {
	case "", "element":
		return PolicyElement, nil
	case "strict":
		return PolicyStrict, nil
	default:
		return 0, fmt.Errorf("tzindex: unknown batch policy %q", s)
	}
}

// Result is the outcome for one batch position. Err is nil, ErrMissingInput
// or ErrOutOfRange.
type Result struct {
	Zone string
	Err  error
}

// OK reports whether the position has a zone.
func (r Result) OK() bool { return r.Err == nil }

// BatchOptions configures ResolveBatch and ResolveBatchParallel.
type BatchOptions struct {
	Policy BatchPolicy
	// ChunkSize is the number of positions a parallel worker claims at a time.
	ChunkSize int
}

type BatchOption func(*BatchOptions)

func WithPolicy(policy BatchPolicy) BatchOption {
	return func(o *BatchOptions) {
		o.Policy = policy
	}
}

func WithChunkSize(n int) BatchOption {
	return func(o *BatchOptions) {
		o.ChunkSize = n
	}
}

const defaultChunkSize = 1024

func newBatchOptions(opts ...BatchOption) BatchOptions {
	o := BatchOptions{Policy: PolicyElement, ChunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = defaultChunkSize
	}
	return o
}

// ResolveBatch resolves lats[k], lons[k] for every k. The result has the same
// length and order as the input.
//
// Per position failures are reported in the corresponding Result. The
// returned error is non nil only when the lengths differ, when the table is
// corrupt (wrapping ErrDataIntegrity) or, under PolicyStrict, at the first out
// of range position (wrapping ErrOutOfRange).
func (ix *Index) ResolveBatch(lats, lons []float64, opts ...BatchOption) ([]Result, error) {
	if len(lats) != len(lons) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(lats), len(lons))
	}
	o := newBatchOptions(opts...)
	out := make([]Result, len(lats))
	if err := ix.resolveRange(out, lats, lons, 0, len(lats), o.Policy); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveBatchParallel is ResolveBatch fanned out over at most workers
// goroutines, one chunk of positions at a time. Chunks write disjoint
// positions of the result and share only the read only tables. ctx is
// checked between chunks.
//
// When several chunks fail, the error for the lowest position is returned, so
// the outcome matches ResolveBatch.
func (ix *Index) ResolveBatchParallel(
	ctx context.Context, lats, lons []float64, workers int, opts ...BatchOption,
) ([]Result, error) {
	if len(lats) != len(lons) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(lats), len(lons))
	}
	o := newBatchOptions(opts...)
	if workers < 1 {
		workers = 1
	}

	out := make([]Result, len(lats))
	chunks := (len(lats) + o.ChunkSize - 1) / o.ChunkSize
	chunkErrs := make([]error, chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	// Chunks start in order, so by the time a failure cancels gctx every
	// lower chunk has started and will run to completion.
	for c := 0; c < chunks && gctx.Err() == nil; c++ {
		g.Go(func() error {
			start := c * o.ChunkSize
			end := min(start+o.ChunkSize, len(lats))
			chunkErrs[c] = ix.resolveRange(out, lats, lons, start, end, o.Policy)
			return chunkErrs[c]
		})
	}

	if err := g.Wait(); err != nil {
		for _, chunkErr := range chunkErrs {
			if chunkErr != nil {
				return nil, chunkErr
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (ix *Index) resolveRange(out []Result, lats, lons []float64, start, end int, policy BatchPolicy) error {
	for k := start; k < end; k++ {
		zone, err := ix.Resolve(lats[k], lons[k])
		switch {
		case err == nil:
			out[k] = Result{Zone: zone}
		case errors.Is(err, ErrDataIntegrity):
			return fmt.Errorf("position %d: %w", k, err)
		case errors.Is(err, ErrOutOfRange) && policy == PolicyStrict:
			return fmt.Errorf("%w: position %d (%v, %v)", err, k, lats[k], lons[k])
		default:
			out[k] = Result{Err: err}
		}
	}
	return nil
}
