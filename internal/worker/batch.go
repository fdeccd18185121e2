package worker

import (
	"context"

	"github.com/ppiankov/taxscroll/internal/model"
)

// Looker retrieves the tax cards of one parcel identifier
type Looker interface {
	Lookup(ctx context.Context, pin string) (*model.CardResult, error)
}

// CardJob looks up one identifier
type CardJob struct {
	PIN    string
	Looker Looker
}

// Execute runs the lookup. Failures are carried in the result, never returned.
func (j *CardJob) Execute(ctx context.Context) Result {
	result, err := j.Looker.Lookup(ctx, j.PIN)
	if err != nil {
		return &model.CardResult{PIN: j.PIN, Error: err}
	}
	if result == nil {
		result = &model.CardResult{PIN: j.PIN}
	}
	return result
}

// BatchProcessor looks up many identifiers concurrently
type BatchProcessor struct {
	looker      Looker
	concurrency int
	onResult    func(*model.CardResult)
}

// NewBatchProcessor creates a batch processor with the given number of workers
func NewBatchProcessor(looker Looker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		looker:      looker,
		concurrency: concurrency,
	}
}

// OnResult registers a callback invoked, in identifier order, for every result
func (b *BatchProcessor) OnResult(fn func(*model.CardResult)) {
	b.onResult = fn
}

// ProcessPINs looks up every identifier and returns one result per identifier in
// input order. Identifiers left unprocessed by cancellation carry ctx's error.
func (b *BatchProcessor) ProcessPINs(ctx context.Context, pins []string) []*model.CardResult {
	if len(pins) == 0 {
		return []*model.CardResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, pin := range pins {
		if !pool.Submit(&CardJob{PIN: pin, Looker: b.looker}) {
			break
		}
	}

	results := pool.Wait()

	cards := make([]*model.CardResult, len(pins))
	for i, pin := range pins {
		var r *model.CardResult
		if i < len(results) && results[i] != nil {
			r = results[i].(*model.CardResult)
		} else {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			r = &model.CardResult{PIN: pin, Error: err}
		}
		cards[i] = r
		if b.onResult != nil {
			b.onResult(r)
		}
	}

	return cards
}
