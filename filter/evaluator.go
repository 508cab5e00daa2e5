package filter

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/backloggery/game"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of worker goroutines
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if workers > 0 {
			e.workerCount = workers
		}
	}
}

// WithBatchSize sets the batch size for chunked processing
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// ConcurrentEvaluator filters game lists, splitting large lists into chunks
// that are matched in parallel. Result order always follows input order.
type ConcurrentEvaluator struct {
	workerCount int
	batchSize   int
}

// NewConcurrentEvaluator creates a new concurrent evaluator
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   500,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate returns the games matching filter, in their original order
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter Filter, games []game.Record) ([]game.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return []game.Record{}, nil
	}

	// For small libraries, don't bother with concurrency
	if len(games) < e.batchSize || e.workerCount == 1 {
		return e.evaluateSequential(filter, games), nil
	}

	return e.evaluateConcurrent(ctx, filter, games)
}

// evaluateSequential evaluates a filter against all games sequentially
func (e *ConcurrentEvaluator) evaluateSequential(filter Filter, games []game.Record) []game.Record {
	matches := make([]game.Record, 0, len(games)/4)
	for _, g := range games {
		if filter.Match(g) {
			matches = append(matches, g)
		}
	}
	return matches
}

// evaluateConcurrent evaluates chunks of games with bounded concurrency
func (e *ConcurrentEvaluator) evaluateConcurrent(ctx context.Context, filter Filter, games []game.Record) ([]game.Record, error) {
	chunkSize := max(len(games)/e.workerCount, e.batchSize)
	chunks := (len(games) + chunkSize - 1) / chunkSize
	results := make([][]game.Record, chunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)

	for i := 0; i < chunks; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, len(games))
		chunk := games[start:end]

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.evaluateSequential(filter, chunk)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	matches := make([]game.Record, 0, total)
	for _, r := range results {
		matches = append(matches, r...)
	}

	return matches, nil
}
