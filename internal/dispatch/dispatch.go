// Package dispatch runs one extraction call per chunk with bounded
// concurrency and merges the results in chunk order.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dbsmedya/ifcchunk/internal/chunk"
	"github.com/dbsmedya/ifcchunk/internal/extract"
	"github.com/dbsmedya/ifcchunk/internal/logger"
)

var (
	// ErrInvalidLimit is returned for a negative concurrency limit.
	ErrInvalidLimit = errors.New("concurrency limit must not be negative")
	// ErrNilExtractFunc is returned when Run is given no extraction function.
	ErrNilExtractFunc = errors.New("extract function is nil")
	// ErrPanic wraps a panic raised by an extraction call.
	ErrPanic = errors.New("extraction panicked")
)

// Coordinator dispatches chunks to an extraction function.
type Coordinator struct {
	log          *logger.Logger
	metrics      *Metrics
	chunkTimeout time.Duration
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithChunkTimeout bounds each extraction call. Zero disables the bound.
func WithChunkTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.chunkTimeout = d
		}
	}
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{log: logger.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run calls fn once per chunk with a default Coordinator.
func Run(ctx context.Context, chunks []chunk.Chunk, limit int, fn extract.Func) (*Result, error) {
	return NewCoordinator().Run(ctx, chunks, limit, fn)
}

// OptimalConcurrency picks a limit from the number of chunks: every chunk
// at once for up to 5, 5 for up to 20, 10 for up to 100, then a tenth of
// the chunks capped at 20.
func OptimalConcurrency(chunks int) int {
	switch {
	case chunks < 1:
		return 1
	case chunks <= 5:
		return chunks
	case chunks <= 20:
		return 5
	case chunks <= 100:
		return 10
	default:
		return min(20, chunks/10)
	}
}

// Run calls fn once per chunk with at most limit calls in flight. A limit
// of 0 selects OptimalConcurrency(len(chunks)).
//
// A failing or panicking chunk is recorded in Result.Failures and does not
// stop the others. The merged components follow chunk order regardless of
// completion order. When ctx is cancelled, chunks not yet started are
// listed in Result.Skipped and ctx.Err() is returned with the partial
// result.
func (c *Coordinator) Run(ctx context.Context, chunks []chunk.Chunk, limit int, fn extract.Func) (*Result, error) {
	if fn == nil {
		return nil, ErrNilExtractFunc
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if limit == 0 {
		limit = OptimalConcurrency(len(chunks))
	}
	if limit > len(chunks) && len(chunks) > 0 {
		limit = len(chunks)
	}

	runID := uuid.NewString()
	log := c.log.WithRun(runID)
	start := time.Now()

	outcomes := make([]Outcome, len(chunks))
	for i, ch := range chunks {
		outcomes[i] = Outcome{Index: i, Assembly: ch.Assembly, State: Pending}
	}

	if len(chunks) > 0 {
		log.Infow("Starting extraction run",
			"chunks", len(chunks),
			"concurrency", limit,
		)
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range chunks {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			c.process(ctx, log, &outcomes[i], chunks[i], fn)
			return nil
		})
	}
	_ = g.Wait()

	res := merge(runID, outcomes)
	res.Summary.Concurrency = limit
	res.Summary.Elapsed = time.Since(start)
	c.metrics.skipped(len(res.Skipped))

	if len(chunks) > 0 {
		log.Infow("Extraction run completed",
			"components", res.Summary.TotalComponents,
			"succeeded", res.Summary.Succeeded,
			"failed", res.Summary.Failed,
			"skipped", res.Summary.Skipped,
			"tokens", res.Summary.TotalTokens,
			"duration", res.Summary.Elapsed.String(),
		)
	}

	if len(res.Skipped) > 0 {
		return res, ctx.Err()
	}
	return res, nil
}

// process runs one chunk. It writes only to o.
func (c *Coordinator) process(ctx context.Context, runLog *logger.Logger, o *Outcome, ch chunk.Chunk, fn extract.Func) {
	if ctx.Err() != nil {
		return
	}
	log := runLog.WithChunk(o.Index).WithAssembly(o.Assembly.ID, o.Assembly.Name)

	if err := o.moveTo(InFlight); err != nil {
		log.Errorw("Chunk state error", "error", err)
		return
	}
	c.metrics.started()

	callCtx := ctx
	if c.chunkTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.chunkTimeout)
		defer cancel()
	}

	log.Debugw("Extracting chunk", "entities", ch.Len())
	began := time.Now()
	res, err := call(callCtx, fn, ch)
	o.Duration = time.Since(began)

	if err != nil {
		o.Err = err
		_ = o.moveTo(Failed)
		log.Warnw("Chunk extraction failed", "error", err, "duration", o.Duration.String())
	} else {
		o.Components = res.Components
		o.Tokens = res.Tokens
		_ = o.moveTo(Succeeded)
		log.Debugw("Chunk extracted",
			"components", len(o.Components),
			"tokens", o.Tokens,
			"duration", o.Duration.String(),
		)
	}
	c.metrics.finished(o)
}

func call(ctx context.Context, fn extract.Func, ch chunk.Chunk) (res *extract.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	res, err = fn(ctx, ch)
	if err == nil && res == nil {
		res = &extract.Result{}
	}
	return res, err
}

// merge folds outcomes, already in chunk order, into a Result.
func merge(runID string, outcomes []Outcome) *Result {
	res := &Result{
		RunID:      runID,
		Components: []extract.Component{},
		Failures:   []Failure{},
		Outcomes:   outcomes,
	}

	var tokens int
	var chunkTime time.Duration
	for _, o := range outcomes {
		chunkTime += o.Duration
		switch o.State {
		case Succeeded:
			res.Components = append(res.Components, o.Components...)
			tokens += o.Tokens
		case Failed:
			res.Failures = append(res.Failures, Failure{
				Index:    o.Index,
				Assembly: o.Assembly,
				Message:  o.Err.Error(),
			})
		default:
			res.Skipped = append(res.Skipped, o.Assembly)
		}
	}

	res.Summary = Summarize(res.Components)
	res.Summary.Chunks = len(outcomes)
	res.Summary.Succeeded = len(outcomes) - len(res.Failures) - len(res.Skipped)
	res.Summary.Failed = len(res.Failures)
	res.Summary.Skipped = len(res.Skipped)
	res.Summary.TotalTokens = tokens
	res.Summary.ChunkTime = chunkTime
	return res
}

// SkippedIDs lists the assembly identifiers of skipped chunks.
func (r *Result) SkippedIDs() []string {
	ids := make([]string, 0, len(r.Skipped))
	for _, a := range r.Skipped {
		ids = append(ids, a.ID)
	}
	return ids
}
