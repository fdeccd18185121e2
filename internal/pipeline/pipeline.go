package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ppiankov/taxscroll/internal/extract"
	"github.com/ppiankov/taxscroll/internal/model"
	"github.com/ppiankov/taxscroll/internal/reconcile"
	"github.com/ppiankov/taxscroll/internal/validate"
)

// PageSource provides the positioned text of a document, one page at a time.
// Pages are numbered from 1.
type PageSource interface {
	NumPages() int
	Page(n int) (*model.Page, error)
}

// Pipeline turns a scroll into parcel records: anchors, field extraction,
// reconciliation, validation and aggregation, page by page
type Pipeline struct {
	locator   *extract.Locator
	extractor *extract.Extractor
	chain     reconcile.Chain
	validator *validate.Validator
	sampler   *Sampler
	pages     []int
}

// Options wires the side channels of a run. Nil fields are disabled.
type Options struct {
	Reporter validate.Reporter
	Sampler  *Sampler
}

// NewPipeline creates a pipeline for the default tax scroll schema
func NewPipeline(cfg *model.Config, opts Options) *Pipeline {
	return &Pipeline{
		locator:   extract.NewLocator(cfg.Schema.PINLength, cfg.Schema.AnchorLift),
		extractor: extract.NewExtractor(extract.DefaultSchema()),
		chain:     reconcile.DefaultChain(),
		validator: validate.NewValidator(validate.RequiredFields, opts.Reporter),
		sampler:   opts.Sampler,
		pages:     append([]int(nil), cfg.Document.Pages...),
	}
}

// Result is the outcome of a completed run
type Result struct {
	Records []*model.Record
	Report  model.Report
}

// Run processes the selected pages of src in order. Any page that cannot be loaded
// aborts the run with no result.
func (p *Pipeline) Run(ctx context.Context, src PageSource) (*Result, error) {
	pages, err := p.selectPages(src.NumPages())
	if err != nil {
		return nil, err
	}

	agg := NewAggregator(p.sampler)
	report := model.Report{GeneratedAt: time.Now().UTC()}

	for _, n := range pages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled: %w", err)
		}

		page, err := src.Page(n)
		if err != nil {
			return nil, fmt.Errorf("load page %d: %w", n, err)
		}
		report.Pages++

		for _, anchor := range p.locator.Anchors(page) {
			record := p.extractor.Extract(page, anchor)
			p.chain.Apply(record)

			if d := p.validator.Validate(ctx, record, page.Number); !d.Complete() {
				report.Incomplete++
			}

			agg.Append(record)
			report.Anchors++
		}
	}

	report.Sampled = agg.Sampled()

	return &Result{
		Records: agg.Records(),
		Report:  report,
	}, nil
}

// selectPages returns the configured page subset, or every page
func (p *Pipeline) selectPages(total int) ([]int, error) {
	if len(p.pages) == 0 {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	}

	for _, n := range p.pages {
		if n < 1 || n > total {
			return nil, fmt.Errorf("page %d out of range 1-%d", n, total)
		}
	}

	// Output follows document order whatever order the subset was given in
	pages := append([]int(nil), p.pages...)
	slices.Sort(pages)
	return slices.Compact(pages), nil
}
