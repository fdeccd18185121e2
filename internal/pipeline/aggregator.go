package pipeline

import (
	"encoding/json"
	"io"
	"math/rand/v2"
	"sync"

	"github.com/ppiankov/taxscroll/internal/model"
)

// Aggregator owns the run's output sequence. Records are only ever appended.
type Aggregator struct {
	records []*model.Record
	sampler *Sampler
	sampled int
}

// NewAggregator creates an aggregator. The sampler may be nil.
func NewAggregator(sampler *Sampler) *Aggregator {
	return &Aggregator{
		records: make([]*model.Record, 0),
		sampler: sampler,
	}
}

// Append adds the record to the end of the sequence and offers it to the sampler
func (a *Aggregator) Append(r *model.Record) {
	a.records = append(a.records, r)
	if a.sampler != nil && a.sampler.Offer(r) {
		a.sampled++
	}
}

// Records returns the sequence in append order
func (a *Aggregator) Records() []*model.Record {
	return append(make([]*model.Record, 0, len(a.records)), a.records...)
}

// Len returns the number of records appended
func (a *Aggregator) Len() int {
	return len(a.records)
}

// Sampled returns how many records were surfaced for inspection
func (a *Aggregator) Sampled() int {
	return a.sampled
}

// Sampler surfaces a copy of each record to Sink with probability Rate.
// Rate <= 0 never samples; Rate >= 1 always does.
type Sampler struct {
	Rate float64
	Rand func() float64 // Defaults to math/rand/v2
	Sink func(*model.Record)
}

// Offer decides independently whether to sample r and reports whether it did
func (s *Sampler) Offer(r *model.Record) bool {
	if s.Rate <= 0 || s.Sink == nil {
		return false
	}

	if s.Rate < 1 {
		draw := rand.Float64
		if s.Rand != nil {
			draw = s.Rand
		}
		if draw() >= s.Rate {
			return false
		}
	}

	s.Sink(r.Clone())
	return true
}

// JSONLineSink writes each sampled record as one compact JSON line
func JSONLineSink(w io.Writer) func(*model.Record) {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return func(r *model.Record) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(r)
	}
}
