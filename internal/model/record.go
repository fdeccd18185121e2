package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Parcel record field names, in output order
const (
	FieldName          = "name"
	FieldAddressLine1  = "address_line_1"
	FieldAddressLine2  = "address_line_2"
	FieldCity          = "city"
	FieldState         = "state"
	FieldZip           = "zip"
	FieldBillNumber    = "bill_number"
	FieldAccountNumber = "account_number"
	FieldPIN           = "pin"
	FieldSizeA         = "size_a"
	FieldLandValue     = "land_value"
	FieldBuildingValue = "building_value"
	FieldUseValue      = "use_value"
	FieldEquipment     = "equipment"
	FieldMobileHome    = "mobile_home"
	FieldVehicle       = "vehicle"
	FieldOther         = "other"
	FieldExclusion     = "exclusion"
	FieldNetTaxable    = "net_taxable"
	FieldCountyTax     = "county_tax"
	FieldFire          = "fire"
	FieldDistrict      = "district"
	FieldCountyLate    = "county_late"
	FieldDeferredTax   = "deferred_tax"
	FieldTotalDue      = "total_due"
	FieldPage          = "page"
)

// RecordFields lists every parcel record field in output order
var RecordFields = []string{
	FieldName, FieldAddressLine1, FieldAddressLine2, FieldCity, FieldState, FieldZip,
	FieldBillNumber, FieldAccountNumber,
	FieldPIN, FieldSizeA, FieldLandValue, FieldBuildingValue, FieldUseValue,
	FieldEquipment, FieldMobileHome, FieldVehicle, FieldOther, FieldExclusion, FieldNetTaxable,
	FieldCountyTax, FieldFire, FieldDistrict, FieldCountyLate, FieldDeferredTax, FieldTotalDue,
	FieldPage,
}

// Layout is the fixed, ordered set of named slots shared by all records of a schema.
// A Layout is immutable once built.
type Layout struct {
	names   []string
	index   map[string]int
	numeric map[string]bool
}

// NewLayout builds a layout from ordered field names. Fields listed in numeric are
// rendered as JSON numbers.
func NewLayout(names []string, numeric ...string) (*Layout, error) {
	l := &Layout{
		names:   make([]string, 0, len(names)),
		index:   make(map[string]int, len(names)),
		numeric: make(map[string]bool, len(numeric)),
	}

	for _, name := range names {
		if name == "" {
			return nil, fmt.Errorf("empty field name")
		}
		if _, dup := l.index[name]; dup {
			return nil, fmt.Errorf("duplicate field %q", name)
		}
		l.index[name] = len(l.names)
		l.names = append(l.names, name)
	}

	for _, name := range numeric {
		if _, ok := l.index[name]; !ok {
			return nil, fmt.Errorf("numeric field %q not in layout", name)
		}
		l.numeric[name] = true
	}

	return l, nil
}

// Names returns a copy of the layout's field names in order
func (l *Layout) Names() []string {
	return append([]string(nil), l.names...)
}

// Has reports whether the layout declares the field
func (l *Layout) Has(name string) bool {
	_, ok := l.index[name]
	return ok
}

// NewRecord creates an empty record with every field set to ""
func (l *Layout) NewRecord() *Record {
	return &Record{
		layout: l,
		values: make([]string, len(l.names)),
	}
}

// Record holds one parcel row's field values. Its set of field names is fixed by its
// layout; values can be moved between slots but slots are never added or removed.
type Record struct {
	layout *Layout
	values []string
}

// Get returns the value of a field, or "" if the field is not declared
func (r *Record) Get(name string) string {
	i, ok := r.layout.index[name]
	if !ok {
		return ""
	}
	return r.values[i]
}

// Set assigns a field value. It returns false and changes nothing when the
// field is not declared by the record's layout.
func (r *Record) Set(name, value string) bool {
	i, ok := r.layout.index[name]
	if !ok {
		return false
	}
	r.values[i] = value
	return true
}

// Names returns the record's field names in output order
func (r *Record) Names() []string {
	return r.layout.Names()
}

// Layout returns the layout the record was created from
func (r *Record) Layout() *Layout {
	return r.layout
}

// Clone returns an independent copy sharing the same layout
func (r *Record) Clone() *Record {
	return &Record{
		layout: r.layout,
		values: append([]string(nil), r.values...),
	}
}

// Equal reports whether both records have the same layout and identical values
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.layout != other.layout || len(r.values) != len(other.values) {
		return false
	}
	for i := range r.values {
		if r.values[i] != other.values[i] {
			return false
		}
	}
	return true
}

// Map returns the record's values keyed by field name
func (r *Record) Map() map[string]string {
	m := make(map[string]string, len(r.values))
	for i, name := range r.layout.names {
		m[name] = r.values[i]
	}
	return m
}

// MarshalJSON renders the record as one object with fields in layout order.
// Numeric fields become JSON numbers, or null when empty.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, name := range r.layout.names {
		if i > 0 {
			buf.WriteByte(',')
		}

		if err := writeString(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')

		value := r.values[i]
		if r.layout.numeric[name] {
			if value == "" {
				buf.WriteString("null")
				continue
			}
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				buf.WriteString(strconv.FormatInt(n, 10))
				continue
			}
		}

		if err := writeString(&buf, value); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeString appends s as a JSON string without HTML escaping ("C/O A & B" stays readable)
func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // Encode terminates with a newline
	return nil
}
