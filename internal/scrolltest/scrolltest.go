// Package scrolltest builds synthetic scroll pages with one fragment placed inside
// each field region of the default schema.
package scrolltest

import (
	"strconv"

	"github.com/ppiankov/taxscroll/internal/model"
)

// DefaultPIN is the identifier carried by fixture rows
const DefaultPIN = "123456789012345"

// AnchorLift matches the default schema's distance from the anchor's bottom edge to the
// record reference position
const AnchorLift = 11.9

// RowSpacing separates consecutive fixture rows without overlapping regions
const RowSpacing = 40.0

// Cell is one fixture fragment and the field it backs
type Cell struct {
	Field    string
	Fragment model.Fragment
}

func cell(field, text string, x0, x1, y0, y1 float64) Cell {
	return Cell{
		Field: field,
		Fragment: model.Fragment{
			Text: text,
			BBox: model.BBox{X0: x0, Y0: y0, X1: x1, Y1: y1},
		},
	}
}

// Row returns the fragments of one record whose reference position is refY
func Row(refY float64, pin string) []Cell {
	head := func(field, text string, x0, x1 float64) Cell {
		return cell(field, text, x0, x1, refY+1, refY+7)
	}
	mid := func(field, text string, x0, x1 float64) Cell {
		return cell(field, text, x0, x1, refY-11.5, refY-4.5)
	}
	tail := func(field, text string, x0, x1 float64) Cell {
		return cell(field, text, x0, x1, refY-23.5, refY-16.5)
	}

	return []Cell{
		head(model.FieldName, "JOHN DOE", 36.6, 150),
		head(model.FieldAddressLine1, "123 MAIN ST", 172, 300),
		head(model.FieldAddressLine2, "APT 4", 310, 450),
		head(model.FieldCity, "BURNSVILLE", 460, 530),
		head(model.FieldState, "NC", 541, 570),
		head(model.FieldZip, "28714", 580, 660),
		head(model.FieldBillNumber, "98765", 670, 730),
		head(model.FieldAccountNumber, "4321", 733, 768),

		cell(model.FieldPIN, pin, 37, 97, refY-AnchorLift, refY-4.9),
		mid(model.FieldSizeA, "1.25", 98, 170),
		mid(model.FieldLandValue, "$12,000.00", 172, 255),
		mid(model.FieldBuildingValue, "$85,500.00", 256, 356),
		cell(model.FieldUseValue, "$1.00", 357.5, 428, refY-14, refY-8),
		mid(model.FieldEquipment, "$2.00", 429, 487),
		mid(model.FieldMobileHome, "$3.00", 488, 559),
		mid(model.FieldVehicle, "$4.00", 560, 612),
		mid(model.FieldOther, "$5.00", 613, 630),
		mid(model.FieldExclusion, "$6.00", 661, 705),
		mid(model.FieldNetTaxable, "$97,500.00", 733, 768),

		tail(model.FieldCountyTax, "$612.45", 37, 97),
		tail(model.FieldFire, "F12", 98, 170),
		tail(model.FieldDistrict, "D7", 172, 300),
		tail(model.FieldCountyLate, "$7.00", 310, 458),
		cell(model.FieldDeferredTax, "$8.00", 613, 705, refY-26.5, refY-19.5),
		tail(model.FieldTotalDue, "$620.45", 707, 768),
	}
}

// Footer is the page-number fragment shared by every record on a page
func Footer(number, total int) Cell {
	return cell(model.FieldPage, "Page "+strconv.Itoa(number)+" of "+strconv.Itoa(total), 400, 500, 34, 43)
}

// Page builds a page with one record per reference position, top to bottom as given.
// Fields named in omit get no fragment.
func Page(number int, refYs []float64, omit ...string) *model.Page {
	skip := make(map[string]bool, len(omit))
	for _, f := range omit {
		skip[f] = true
	}

	page := &model.Page{Number: number, Width: 792, Height: 612}
	add := func(c Cell) {
		if !skip[c.Field] {
			page.Fragments = append(page.Fragments, c.Fragment)
		}
	}

	for _, refY := range refYs {
		for _, c := range Row(refY, DefaultPIN) {
			add(c)
		}
	}
	add(Footer(number, 120))

	return page
}

// Expected returns the field values extracted from a fixture row on page number
func Expected(number int) map[string]string {
	return map[string]string{
		model.FieldName:          "JOHN DOE",
		model.FieldAddressLine1:  "123 MAIN ST",
		model.FieldAddressLine2:  "APT 4",
		model.FieldCity:          "BURNSVILLE",
		model.FieldState:         "NC",
		model.FieldZip:           "28714",
		model.FieldBillNumber:    "98765",
		model.FieldAccountNumber: "4321",
		model.FieldPIN:           DefaultPIN,
		model.FieldSizeA:         "1.25",
		model.FieldLandValue:     "$12,000.00",
		model.FieldBuildingValue: "$85,500.00",
		model.FieldUseValue:      "$1.00",
		model.FieldEquipment:     "$2.00",
		model.FieldMobileHome:    "$3.00",
		model.FieldVehicle:       "$4.00",
		model.FieldOther:         "$5.00",
		model.FieldExclusion:     "$6.00",
		model.FieldNetTaxable:    "$97,500.00",
		model.FieldCountyTax:     "$612.45",
		model.FieldFire:          "F12",
		model.FieldDistrict:      "D7",
		model.FieldCountyLate:    "$7.00",
		model.FieldDeferredTax:   "$8.00",
		model.FieldTotalDue:      "$620.45",
		model.FieldPage:          strconv.Itoa(number),
	}
}
