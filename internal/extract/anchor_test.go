package extract

import (
	"math"
	"testing"

	"github.com/ppiankov/taxscroll/internal/model"
	"github.com/ppiankov/taxscroll/internal/scrolltest"
)

func TestLocator_IsAnchor(t *testing.T) {
	locator := NewLocator(15, 11.9)

	tests := []struct {
		text string
		want bool
	}{
		{"123456789012345", true},
		{"  123456789012345 ", true},
		{"12345678901234", false},
		{"1234567890123456", false},
		{"12345678901234A", false},
		{"123456789 12345", false},
		{"", false},
		{"１２３４５６７８９０１２３４５", false}, // full-width digits
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := locator.IsAnchor(tt.text); got != tt.want {
				t.Errorf("IsAnchor(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestLocator_LocateReferencePosition(t *testing.T) {
	locator := NewLocator(15, scrolltest.AnchorLift)
	page := scrolltest.Page(2, []float64{100})

	anchors := locator.Anchors(page)
	if len(anchors) != 1 {
		t.Fatalf("expected 1 anchor, got %d", len(anchors))
	}
	if anchors[0].Page != 2 {
		t.Errorf("expected page 2, got %d", anchors[0].Page)
	}
	if math.Abs(anchors[0].ReferenceY-100) > 1e-9 {
		t.Errorf("expected reference 100, got %f", anchors[0].ReferenceY)
	}
	if anchors[0].Text != scrolltest.DefaultPIN {
		t.Errorf("expected text %s, got %s", scrolltest.DefaultPIN, anchors[0].Text)
	}
}

func TestLocator_DuplicateIdentifiersAreSeparateAnchors(t *testing.T) {
	locator := NewLocator(15, 11.9)
	page := &model.Page{Number: 1, Fragments: []model.Fragment{
		{Text: "111111111111111", BBox: model.BBox{X0: 37, Y0: 300, X1: 97, Y1: 307}},
		{Text: "111111111111111", BBox: model.BBox{X0: 37, Y0: 260, X1: 97, Y1: 267}},
	}}

	anchors := locator.Anchors(page)
	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors for duplicate identifiers, got %d", len(anchors))
	}
}

func TestLocator_AnchorsTopToBottom(t *testing.T) {
	locator := NewLocator(15, 11.9)
	page := &model.Page{Number: 1, Fragments: []model.Fragment{
		{Text: "000000000000002", BBox: model.BBox{X0: 37, Y0: 200, X1: 97, Y1: 207}},
		{Text: "000000000000001", BBox: model.BBox{X0: 37, Y0: 500, X1: 97, Y1: 507}},
		{Text: "000000000000003", BBox: model.BBox{X0: 37, Y0: 100, X1: 97, Y1: 107}},
	}}

	anchors := locator.Anchors(page)
	want := []string{"000000000000001", "000000000000002", "000000000000003"}
	if len(anchors) != len(want) {
		t.Fatalf("expected %d anchors, got %d", len(want), len(anchors))
	}
	for i, a := range anchors {
		if a.Text != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], a.Text)
		}
	}
}

func TestLocator_LocateStopsEarly(t *testing.T) {
	locator := NewLocator(15, 11.9)
	page := scrolltest.Page(1, []float64{500, 460, 420})

	count := 0
	for range locator.Locate(page) {
		count++
		break
	}
	if count != 1 {
		t.Errorf("expected iteration to stop after 1 anchor, got %d", count)
	}
}
