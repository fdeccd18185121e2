package model

// BBox is an axis-aligned rectangle in page coordinates (origin bottom-left, y up)
type BBox struct {
	X0 float64 `json:"x0" yaml:"x0"`
	Y0 float64 `json:"y0" yaml:"y0"`
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
}

// Width returns the horizontal extent of the box
func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent of the box
func (b BBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Within reports whether b lies entirely inside outer (edges inclusive)
func (b BBox) Within(outer BBox) bool {
	return b.X0 >= outer.X0 && b.X1 <= outer.X1 &&
		b.Y0 >= outer.Y0 && b.Y1 <= outer.Y1
}

// Intersects reports whether b and other share any area or edge
func (b BBox) Intersects(other BBox) bool {
	return b.X0 <= other.X1 && other.X0 <= b.X1 &&
		b.Y0 <= other.Y1 && other.Y0 <= b.Y1
}

// Fragment is one positioned run of text on a page
type Fragment struct {
	Text string `json:"text" yaml:"text"`
	BBox BBox   `json:"bbox" yaml:"bbox"`
}

// Page is the ordered set of fragments of one document page
type Page struct {
	Number    int        `json:"number" yaml:"number"` // 1-based page index in the document
	Width     float64    `json:"width,omitempty" yaml:"width,omitempty"`
	Height    float64    `json:"height,omitempty" yaml:"height,omitempty"`
	Fragments []Fragment `json:"fragments" yaml:"fragments"`
}

// Anchor marks one record row on a page
type Anchor struct {
	Page       int     `json:"page"`
	ReferenceY float64 `json:"reference_y"` // Vertical origin for anchor-relative field regions
	Text       string  `json:"text"`        // Identifier text of the anchor fragment
}
