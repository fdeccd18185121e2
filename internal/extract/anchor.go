package extract

import (
	"iter"
	"slices"
	"strings"

	"github.com/ppiankov/taxscroll/internal/model"
)

// Locator finds record anchors: fragments whose text is a fixed-length numeric identifier
type Locator struct {
	length int
	lift   float64
}

// NewLocator creates a locator for identifiers of the given length. Lift is added to
// the anchor fragment's bottom edge to obtain the record's reference position.
func NewLocator(length int, lift float64) *Locator {
	return &Locator{
		length: length,
		lift:   lift,
	}
}

// IsAnchor reports whether text, once trimmed, is exactly length ASCII digits
func (l *Locator) IsAnchor(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) != l.length {
		return false
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return false
		}
	}
	return true
}

// Locate lazily yields one anchor per matching fragment, in the page's fragment order.
// Identical identifiers are not merged.
func (l *Locator) Locate(page *model.Page) iter.Seq[model.Anchor] {
	return func(yield func(model.Anchor) bool) {
		for _, f := range page.Fragments {
			if !l.IsAnchor(f.Text) {
				continue
			}
			anchor := model.Anchor{
				Page:       page.Number,
				ReferenceY: f.BBox.Y0 + l.lift,
				Text:       strings.TrimSpace(f.Text),
			}
			if !yield(anchor) {
				return
			}
		}
	}
}

// Anchors returns the page's anchors in top-to-bottom reading order
func (l *Locator) Anchors(page *model.Page) []model.Anchor {
	anchors := slices.Collect(l.Locate(page))
	SortAnchors(anchors)
	return anchors
}

// SortAnchors orders anchors by descending reference position. Ties keep their order.
func SortAnchors(anchors []model.Anchor) {
	slices.SortStableFunc(anchors, func(a, b model.Anchor) int {
		switch {
		case a.ReferenceY > b.ReferenceY:
			return -1
		case a.ReferenceY < b.ReferenceY:
			return 1
		default:
			return 0
		}
	})
}
