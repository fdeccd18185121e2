package extract

import (
	"cmp"
	"slices"
	"strings"

	"github.com/ppiankov/taxscroll/internal/model"
)

// defaultRowTolerance is how far apart (points) two fragment tops may be and still read
// as one line when ordering a field's fragments
const defaultRowTolerance = 2.0

// Extractor materializes records from a page for a given schema
type Extractor struct {
	schema       *Schema
	rowTolerance float64
}

// NewExtractor creates an extractor for the schema
func NewExtractor(schema *Schema) *Extractor {
	return &Extractor{
		schema:       schema,
		rowTolerance: defaultRowTolerance,
	}
}

// Schema returns the extractor's schema
func (e *Extractor) Schema() *Schema {
	return e.schema
}

// Extract builds the record anchored at anchor. Fields whose region holds no
// fragments are left empty.
func (e *Extractor) Extract(page *model.Page, anchor model.Anchor) *model.Record {
	record := e.schema.Layout().NewRecord()
	for _, spec := range e.schema.fields {
		record.Set(spec.Name, e.Field(page, spec, anchor.ReferenceY))
	}
	return record
}

// Field returns one field's value for an anchor at refY: the fragments lying inside the
// field's region that pass its filter, concatenated in reading order without a
// separator, then transformed.
func (e *Extractor) Field(page *model.Page, spec FieldSpec, refY float64) string {
	region := spec.Region(refY)

	var matched []model.Fragment
	for _, f := range page.Fragments {
		if !f.BBox.Within(region) {
			continue
		}
		if spec.Filter != nil && !spec.Filter(f) {
			continue
		}
		matched = append(matched, f)
	}
	if len(matched) == 0 {
		return ""
	}

	e.readingOrder(matched)

	var b strings.Builder
	for _, f := range matched {
		b.WriteString(f.Text)
	}

	text := strings.TrimSpace(b.String())
	if spec.Transform != nil {
		text = spec.Transform(text)
	}
	return text
}

// readingOrder sorts fragments top-to-bottom, then left-to-right within a line. A line
// is every fragment whose top lies within rowTolerance of the line's first (highest)
// fragment.
func (e *Extractor) readingOrder(fragments []model.Fragment) {
	slices.SortStableFunc(fragments, func(a, b model.Fragment) int {
		return cmp.Compare(b.BBox.Y1, a.BBox.Y1)
	})

	for start := 0; start < len(fragments); {
		top := fragments[start].BBox.Y1
		end := start + 1
		for end < len(fragments) && top-fragments[end].BBox.Y1 <= e.rowTolerance {
			end++
		}
		slices.SortStableFunc(fragments[start:end], func(a, b model.Fragment) int {
			return cmp.Compare(a.BBox.X0, b.BBox.X0)
		})
		start = end
	}
}
