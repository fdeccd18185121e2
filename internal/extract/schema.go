package extract

import (
	"fmt"
	"regexp"

	"github.com/ppiankov/taxscroll/internal/model"
)

// Span is a closed interval on one axis
type Span struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// Filter decides whether a fragment found inside a field region belongs to the field
type Filter func(model.Fragment) bool

// Transform maps a field's concatenated text to the stored value
type Transform func(string) string

// LeftOf keeps fragments whose left edge lies strictly before x. It separates a
// field from a neighbouring column that shares its region in another band.
func LeftOf(x float64) Filter {
	return func(f model.Fragment) bool {
		return f.BBox.X0 < x
	}
}

var pageNumberPattern = regexp.MustCompile(`(?i)Page (\d+) of \d+`)

// PageNumber returns N from a "Page N of M" footer, or "" when the text has no such footer
func PageNumber(text string) string {
	m := pageNumberPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// FieldSpec locates one record field on the page
type FieldSpec struct {
	Name      string
	X         Span      // Absolute page coordinates; columns are fixed per page
	Y         Span      // Offsets from the anchor reference when Anchored, page coordinates otherwise
	Anchored  bool
	Filter    Filter    // Optional
	Transform Transform // Optional
}

// Region returns the rectangle the field occupies for an anchor at refY
func (f FieldSpec) Region(refY float64) model.BBox {
	y := f.Y
	if f.Anchored {
		y = Span{Low: refY + f.Y.Low, High: refY + f.Y.High}
	}
	return model.BBox{X0: f.X.Low, Y0: y.Low, X1: f.X.High, Y1: y.High}
}

// Schema is an immutable table of field specs; it is the only place that knows the
// scroll's geometry
type Schema struct {
	fields []FieldSpec
	layout *model.Layout
}

// NewSchema validates the field table and derives the record layout from it.
// Fields listed in numeric are rendered as JSON numbers.
func NewSchema(fields []FieldSpec, numeric ...string) (*Schema, error) {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.X.Low > f.X.High || f.Y.Low > f.Y.High {
			return nil, fmt.Errorf("field %q: inverted region", f.Name)
		}
		names = append(names, f.Name)
	}

	layout, err := model.NewLayout(names, numeric...)
	if err != nil {
		return nil, fmt.Errorf("build layout: %w", err)
	}

	return &Schema{
		fields: append([]FieldSpec(nil), fields...),
		layout: layout,
	}, nil
}

// Fields returns a copy of the field table
func (s *Schema) Fields() []FieldSpec {
	return append([]FieldSpec(nil), s.fields...)
}

// Layout returns the record layout shared by every record of this schema
func (s *Schema) Layout() *model.Layout {
	return s.layout
}

// Row geometry of the scroll, relative to the anchor reference (the header band's bottom)
const (
	rowHeight = 8.4
	rowPitch  = 12.1
)

// band returns the vertical offsets of the row n pitches below the header band,
// shifted down by drift for columns that render low
func band(n int, drift float64) Span {
	low := -float64(n)*rowPitch - drift
	return Span{Low: low, High: low + rowHeight}
}

func field(name string, x0, x1 float64, y Span) FieldSpec {
	return FieldSpec{Name: name, X: Span{Low: x0, High: x1}, Y: y, Anchored: true}
}

func (f FieldSpec) withFilter(filter Filter) FieldSpec {
	f.Filter = filter
	return f
}

// DefaultSchema returns the field table of the Yancey County tax scroll. Each
// record has a header band (owner and mailing address), the anchor row (identifier
// and valuation) and a trailing row (taxes due).
func DefaultSchema() *Schema {
	header, anchorRow, trailing := band(0, 0), band(1, 0), band(2, 0)

	fields := []FieldSpec{
		field(model.FieldName, 36.482, 309.086, header).withFilter(LeftOf(37)),
		// Addresses that drift down toward the anchor row start left of address_line_2's column.
		field(model.FieldAddressLine1, 171.343, 458.867, Span{Low: -10, High: rowHeight}).withFilter(LeftOf(309)),
		field(model.FieldAddressLine2, 309.086, 458.867, header),
		field(model.FieldCity, 458.867, 539.752, header),
		field(model.FieldState, 539.752, 578.73, header),
		field(model.FieldZip, 578.73, 669.596, header),
		field(model.FieldBillNumber, 669.596, 732.477, header),
		field(model.FieldAccountNumber, 732.477, 769.181, header),

		field(model.FieldPIN, 36.482, 97.678, anchorRow),
		field(model.FieldSizeA, 97.678, 171.343, anchorRow),
		field(model.FieldLandValue, 171.343, 255.827, anchorRow),
		field(model.FieldBuildingValue, 255.827, 356.999, anchorRow),
		field(model.FieldUseValue, 356.999, 428.632, band(1, 3)),
		field(model.FieldEquipment, 428.632, 487.459, anchorRow),
		field(model.FieldMobileHome, 487.459, 559.332, anchorRow),
		field(model.FieldVehicle, 559.332, 612.236, anchorRow),
		field(model.FieldOther, 612.236, 660.739, anchorRow),
		field(model.FieldExclusion, 631.645, 732.477, anchorRow),
		field(model.FieldNetTaxable, 706.301, 769.181, anchorRow),

		field(model.FieldCountyTax, 36.482, 97.678, trailing),
		field(model.FieldFire, 97.678, 255.827, trailing).withFilter(LeftOf(171)),
		field(model.FieldDistrict, 171.343, 309.086, trailing),
		field(model.FieldCountyLate, 309.086, 458.867, trailing),
		field(model.FieldDeferredTax, 612.236, 706.301, band(2, 3)),
		field(model.FieldTotalDue, 706.301, 769.181, trailing),

		{
			Name:      model.FieldPage,
			X:         Span{Low: 396, High: 792},
			Y:         Span{Low: 33.29, High: 44.295},
			Transform: PageNumber,
		},
	}

	schema, err := NewSchema(fields, model.FieldPage)
	if err != nil {
		panic(fmt.Sprintf("default schema: %v", err))
	}
	return schema
}
