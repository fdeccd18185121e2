package validate

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/ppiankov/taxscroll/internal/model"
)

// RequiredFields are the record fields every complete parcel row carries.
// address_line_2 is optional.
var RequiredFields = []string{
	model.FieldName,
	model.FieldAddressLine1,
	model.FieldCity,
	model.FieldState,
	model.FieldZip,
	model.FieldBillNumber,
	model.FieldAccountNumber,

	model.FieldPIN,
	model.FieldSizeA,
	model.FieldLandValue,
	model.FieldBuildingValue,
	model.FieldUseValue,
	model.FieldEquipment,
	model.FieldMobileHome,
	model.FieldVehicle,
	model.FieldOther,
	model.FieldExclusion,
	model.FieldNetTaxable,

	model.FieldCountyTax,
	model.FieldFire,
	model.FieldDistrict,
	model.FieldCountyLate,
	model.FieldDeferredTax,
	model.FieldTotalDue,

	model.FieldPage,
}

// Diagnostic describes one incomplete record
type Diagnostic struct {
	PIN     string   `json:"pin"`
	Page    int      `json:"page"`
	Missing []string `json:"missing"`
}

// Complete reports whether no required field is missing
func (d Diagnostic) Complete() bool {
	return len(d.Missing) == 0
}

// Reporter receives diagnostics for incomplete records
type Reporter interface {
	Report(ctx context.Context, d Diagnostic)
}

// Validator checks reconciled records against a required field list. It only
// reads records.
type Validator struct {
	required []string
	reporter Reporter
}

// NewValidator creates a validator. A nil reporter discards diagnostics.
func NewValidator(required []string, reporter Reporter) *Validator {
	if reporter == nil {
		reporter = discard{}
	}
	return &Validator{
		required: append([]string(nil), required...),
		reporter: reporter,
	}
}

// Check computes the record's diagnostic. Missing fields follow the required list's
// order. The page is the record's printed page number, or physicalPage when the
// footer could not be read.
func (v *Validator) Check(r *model.Record, physicalPage int) Diagnostic {
	d := Diagnostic{
		PIN:  r.Get(model.FieldPIN),
		Page: physicalPage,
	}

	if n, err := strconv.Atoi(r.Get(model.FieldPage)); err == nil {
		d.Page = n
	}

	for _, name := range v.required {
		if r.Get(name) == "" {
			d.Missing = append(d.Missing, name)
		}
	}

	return d
}

// Validate checks the record and reports it when incomplete
func (v *Validator) Validate(ctx context.Context, r *model.Record, physicalPage int) Diagnostic {
	d := v.Check(r, physicalPage)
	if !d.Complete() {
		v.reporter.Report(ctx, d)
	}
	return d
}

type discard struct{}

func (discard) Report(context.Context, Diagnostic) {}

// LogReporter writes one warning per incomplete record
type LogReporter struct {
	Logger *slog.Logger
}

// Report logs the diagnostic
func (r *LogReporter) Report(ctx context.Context, d Diagnostic) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, "missing fields",
		"pin", d.PIN,
		"page", d.Page,
		"missing", strings.Join(d.Missing, ","))
}

// Collector keeps diagnostics in memory (thread-safe)
type Collector struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

// Report stores the diagnostic
func (c *Collector) Report(_ context.Context, d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnostics = append(c.diagnostics, d)
}

// Diagnostics returns the collected diagnostics in report order
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.diagnostics...)
}
