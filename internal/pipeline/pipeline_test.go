package pipeline

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"

	"github.com/ppiankov/taxscroll/internal/model"
	"github.com/ppiankov/taxscroll/internal/scrolltest"
	"github.com/ppiankov/taxscroll/internal/validate"
)

// fakeSource serves prepared pages and fails on request
type fakeSource struct {
	pages  []*model.Page
	failOn int
}

func (s *fakeSource) NumPages() int {
	return len(s.pages)
}

func (s *fakeSource) Page(n int) (*model.Page, error) {
	if n == s.failOn {
		return nil, errors.New("corrupt content stream")
	}
	return s.pages[n-1], nil
}

func twoPageSource() *fakeSource {
	return &fakeSource{pages: []*model.Page{
		scrolltest.Page(1, []float64{500, 460}),
		scrolltest.Page(2, []float64{300}),
	}}
}

func TestPipeline_Run(t *testing.T) {
	collector := &validate.Collector{}
	p := NewPipeline(model.DefaultConfig(), Options{Reporter: collector})

	result, err := p.Run(context.Background(), twoPageSource())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(result.Records))
	}
	if result.Report.Pages != 2 || result.Report.Anchors != 3 || result.Report.Incomplete != 0 {
		t.Errorf("unexpected report %+v", result.Report)
	}
	if len(collector.Diagnostics()) != 0 {
		t.Errorf("expected no diagnostics, got %v", collector.Diagnostics())
	}

	wantPages := []string{"1", "1", "2"}
	for i, r := range result.Records {
		if got := r.Get(model.FieldPage); got != wantPages[i] {
			t.Errorf("record %d: expected page %s, got %s", i, wantPages[i], got)
		}
		expected := scrolltest.Expected(i/2 + 1)
		for _, name := range r.Names() {
			if got := r.Get(name); got != expected[name] {
				t.Errorf("record %d field %s: expected %q, got %q", i, name, expected[name], got)
			}
		}
	}
}

func TestPipeline_PINsAreFifteenDigits(t *testing.T) {
	p := NewPipeline(model.DefaultConfig(), Options{})

	result, err := p.Run(context.Background(), twoPageSource())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	pattern := regexp.MustCompile(`^\d{15}$`)
	for i, r := range result.Records {
		if pin := r.Get(model.FieldPIN); !pattern.MatchString(pin) {
			t.Errorf("record %d: pin %q is not 15 digits", i, pin)
		}
	}
}

func TestPipeline_MissingFieldIsolated(t *testing.T) {
	// address_line_1 is backfilled from address_line_2 when empty, and the pin is the
	// anchor itself: a row without one is never located.
	skip := map[string]bool{
		model.FieldAddressLine1: true,
		model.FieldPIN:          true,
	}

	for _, field := range validate.RequiredFields {
		if skip[field] {
			continue
		}
		t.Run(field, func(t *testing.T) {
			collector := &validate.Collector{}
			p := NewPipeline(model.DefaultConfig(), Options{Reporter: collector})
			src := &fakeSource{pages: []*model.Page{
				scrolltest.Page(1, nil),
				scrolltest.Page(2, []float64{300}, field),
			}}

			result, err := p.Run(context.Background(), src)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if len(result.Records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(result.Records))
			}

			expected := scrolltest.Expected(2)
			expected[field] = ""
			r := result.Records[0]
			for _, name := range r.Names() {
				if got := r.Get(name); got != expected[name] {
					t.Errorf("field %s: expected %q, got %q", name, expected[name], got)
				}
			}

			diagnostics := collector.Diagnostics()
			if len(diagnostics) != 1 {
				t.Fatalf("expected 1 diagnostic, got %d", len(diagnostics))
			}
			d := diagnostics[0]
			if len(d.Missing) != 1 || d.Missing[0] != field {
				t.Errorf("expected missing [%s], got %v", field, d.Missing)
			}
			if d.Page != 2 {
				t.Errorf("expected diagnostic page 2, got %d", d.Page)
			}
			if result.Report.Incomplete != 1 {
				t.Errorf("expected 1 incomplete record, got %d", result.Report.Incomplete)
			}
		})
	}
}

func TestPipeline_MissingFirstAddressLineBackfilled(t *testing.T) {
	collector := &validate.Collector{}
	p := NewPipeline(model.DefaultConfig(), Options{Reporter: collector})
	src := &fakeSource{pages: []*model.Page{
		scrolltest.Page(1, []float64{300}, model.FieldAddressLine1),
	}}

	result, err := p.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.Records))
	}

	r := result.Records[0]
	if got := r.Get(model.FieldAddressLine1); got != "APT 4" {
		t.Errorf("expected address_line_1 %q, got %q", "APT 4", got)
	}
	if got := r.Get(model.FieldAddressLine2); got != "" {
		t.Errorf("expected empty address_line_2, got %q", got)
	}
	if n := len(collector.Diagnostics()); n != 0 {
		t.Errorf("expected no diagnostics, got %d", n)
	}
}

func TestPipeline_SourceFailureIsFatal(t *testing.T) {
	src := twoPageSource()
	src.failOn = 2

	p := NewPipeline(model.DefaultConfig(), Options{})
	result, err := p.Run(context.Background(), src)
	if err == nil {
		t.Fatal("expected error for unreadable page, got nil")
	}
	if result != nil {
		t.Error("expected no result on fatal error")
	}
}

func TestPipeline_PageSubset(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Document.Pages = []int{2, 1, 2}
	p := NewPipeline(cfg, Options{})

	result, err := p.Run(context.Background(), twoPageSource())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Report.Pages != 2 {
		t.Errorf("expected 2 pages processed, got %d", result.Report.Pages)
	}
	if got := result.Records[0].Get(model.FieldPage); got != "1" {
		t.Errorf("expected document order, first page %s", got)
	}

	cfg.Document.Pages = []int{3}
	if _, err := NewPipeline(cfg, Options{}).Run(context.Background(), twoPageSource()); err == nil {
		t.Error("expected error for page out of range")
	}
}

func TestPipeline_SamplingDoesNotAlterOutput(t *testing.T) {
	run := func(rate float64) ([]*model.Record, int) {
		var sunk int
		p := NewPipeline(model.DefaultConfig(), Options{Sampler: &Sampler{
			Rate: rate,
			Sink: func(r *model.Record) {
				sunk++
				r.Set(model.FieldName, "MUTATED")
			},
		}})
		result, err := p.Run(context.Background(), twoPageSource())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return result.Records, sunk
	}

	never, neverSunk := run(0)
	always, alwaysSunk := run(1)

	if neverSunk != 0 {
		t.Errorf("rate 0: expected no samples, got %d", neverSunk)
	}
	if alwaysSunk != len(always) {
		t.Errorf("rate 1: expected %d samples, got %d", len(always), alwaysSunk)
	}
	if len(never) != len(always) {
		t.Fatalf("record counts differ: %d vs %d", len(never), len(always))
	}
	for i := range never {
		if never[i].Get(model.FieldName) != always[i].Get(model.FieldName) {
			t.Errorf("record %d differs between sampling rates", i)
		}
		for _, name := range never[i].Names() {
			if never[i].Get(name) != always[i].Get(name) {
				t.Errorf("record %d field %s differs between sampling rates", i, name)
			}
		}
	}
}

func TestPipeline_ValidationIsNonDestructive(t *testing.T) {
	src := &fakeSource{pages: []*model.Page{
		scrolltest.Page(1, []float64{500}, model.FieldFire),
	}}

	with := NewPipeline(model.DefaultConfig(), Options{Reporter: &validate.Collector{}})
	without := NewPipeline(model.DefaultConfig(), Options{})

	a, err := with.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	b, err := without.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ja, _ := a.Records[0].MarshalJSON()
	jb, _ := b.Records[0].MarshalJSON()
	if string(ja) != string(jb) {
		t.Errorf("records differ:\n%s\n%s", ja, jb)
	}
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewPipeline(model.DefaultConfig(), Options{}).Run(ctx, twoPageSource()); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestSampler_Offer(t *testing.T) {
	layout, err := model.NewLayout(model.RecordFields, model.FieldPage)
	if err != nil {
		t.Fatalf("NewLayout failed: %v", err)
	}

	tests := []struct {
		rate float64
		draw float64
		want bool
	}{
		{0, 0, false},
		{-1, 0, false},
		{0.5, 0.4, true},
		{0.5, 0.5, false},
		{0.5, 0.9, false},
		{1, 0.99, true},
		{2, 0.99, true},
	}

	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.rate, 'f', -1, 64)+"/"+strconv.FormatFloat(tt.draw, 'f', -1, 64), func(t *testing.T) {
			var got *model.Record
			s := &Sampler{
				Rate: tt.rate,
				Rand: func() float64 { return tt.draw },
				Sink: func(r *model.Record) { got = r },
			}

			r := layout.NewRecord()
			if sampled := s.Offer(r); sampled != tt.want {
				t.Errorf("expected sampled=%v, got %v", tt.want, sampled)
			}
			if tt.want && got == r {
				t.Error("expected sink to receive a copy")
			}
		})
	}
}
