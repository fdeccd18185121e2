// Package reconcile repairs predictable extraction artifacts in parcel records.
package reconcile

import (
	"regexp"
	"strings"

	"github.com/ppiankov/taxscroll/internal/model"
)

// Rule is one named repair. Apply must be total: its own precondition decides whether
// it changes anything, and it never fails.
type Rule struct {
	Name  string
	Apply func(*model.Record)
}

// Chain is an ordered list of rules applied exactly once each, in order
type Chain []Rule

// Apply runs every rule of the chain on the record, in place
func (c Chain) Apply(r *model.Record) {
	for _, rule := range c {
		rule.Apply(r)
	}
}

// Names returns the rule names in application order
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, rule := range c {
		names[i] = rule.Name
	}
	return names
}

// DefaultChain returns the repairs for the tax scroll, in the order they must run
func DefaultChain() Chain {
	return Chain{
		{Name: "name-address-bleed", Apply: SplitNameAddress},
		{Name: "address-promotion", Apply: PromoteAddress},
		{Name: "fire-line-truncation", Apply: TruncateFire},
		{Name: "fire-district-split", Apply: SplitFireDistrict},
		{Name: "zero-size-land-value", Apply: DefaultLandValue},
	}
}

// secondaryAddress matches the start of a mailing address run into an owner name:
// a street number followed by a street, or a PO BOX / C/O line
var secondaryAddress = regexp.MustCompile(`(?i) (\d+ .+|PO BOX .*|C/O .*)`)

// SplitNameAddress moves a mailing address that bled into the name column back into
// address_line_1
func SplitNameAddress(r *model.Record) {
	name := r.Get(model.FieldName)
	if name == "" || r.Get(model.FieldAddressLine1) != "" {
		return
	}

	m := secondaryAddress.FindStringSubmatchIndex(name)
	if m == nil {
		return
	}

	r.Set(model.FieldName, name[:m[0]])
	r.Set(model.FieldAddressLine1, name[m[2]:m[3]])
}

// PromoteAddress moves address_line_2 into an empty address_line_1
func PromoteAddress(r *model.Record) {
	second := r.Get(model.FieldAddressLine2)
	if second == "" || r.Get(model.FieldAddressLine1) != "" {
		return
	}

	r.Set(model.FieldAddressLine1, second)
	r.Set(model.FieldAddressLine2, "")
}

// TruncateFire keeps the first line of a fire district that overflowed onto a second line
func TruncateFire(r *model.Record) {
	fire := r.Get(model.FieldFire)
	if i := strings.IndexByte(fire, '\n'); i >= 0 {
		r.Set(model.FieldFire, fire[:i])
	}
}

// SplitFireDistrict splits "FIRE DISTRICT" rendered in the fire column when the
// district column is empty
func SplitFireDistrict(r *model.Record) {
	if r.Get(model.FieldDistrict) != "" {
		return
	}

	fire, district, found := strings.Cut(r.Get(model.FieldFire), " ")
	if !found {
		return
	}

	r.Set(model.FieldFire, fire)
	r.Set(model.FieldDistrict, district)
}

// DefaultLandValue fills the land value the scroll omits for parcels of size zero
func DefaultLandValue(r *model.Record) {
	if r.Get(model.FieldLandValue) == "" && r.Get(model.FieldSizeA) == "0" {
		r.Set(model.FieldLandValue, "$0.00")
	}
}
