package source

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/taxscroll/internal/model"
)

// Glyph is one positioned piece of text as drawn by the content stream. X and Y are
// the baseline origin.
type Glyph struct {
	Text     string
	X        float64
	Y        float64
	W        float64
	FontSize float64
}

// descentRatio places a glyph's bottom edge below its baseline, as a fraction of
// the font size
const descentRatio = 0.2

// Assembler groups glyphs into line fragments: glyphs on one baseline (within
// RowTolerance) separated by less than ColumnGap font sizes form one fragment, and a
// gap wider than WordGap font sizes inside a fragment becomes a space
type Assembler struct {
	RowTolerance float64
	WordGap      float64
	ColumnGap    float64
}

// NewAssembler returns an assembler for the document settings
func NewAssembler(cfg model.DocumentConfig) Assembler {
	return Assembler{
		RowTolerance: cfg.RowTolerance,
		WordGap:      cfg.WordGap,
		ColumnGap:    cfg.ColumnGap,
	}
}

// Identity describes the settings that shape assembled fragments. Two assemblers
// with the same identity split any page identically.
func (a Assembler) Identity() string {
	return fmt.Sprintf("rows=%g words=%g columns=%g", a.RowTolerance, a.WordGap, a.ColumnGap)
}

type row struct {
	yMin, yMax float64
	glyphs     []Glyph
}

// Assemble returns the page's fragments, top row first, left to right within a row
func (a Assembler) Assemble(glyphs []Glyph) []model.Fragment {
	var fragments []model.Fragment
	for _, r := range a.rows(glyphs) {
		fragments = append(fragments, a.merge(r.glyphs)...)
	}
	return fragments
}

// rows buckets glyphs by baseline
func (a Assembler) rows(glyphs []Glyph) []row {
	var rows []row
	for _, g := range glyphs {
		if strings.TrimSpace(g.Text) == "" {
			continue
		}

		found := false
		for i := range rows {
			if g.Y >= rows[i].yMin-a.RowTolerance && g.Y <= rows[i].yMax+a.RowTolerance {
				rows[i].glyphs = append(rows[i].glyphs, g)
				rows[i].yMin = min(rows[i].yMin, g.Y)
				rows[i].yMax = max(rows[i].yMax, g.Y)
				found = true
				break
			}
		}
		if !found {
			rows = append(rows, row{yMin: g.Y, yMax: g.Y, glyphs: []Glyph{g}})
		}
	}

	slices.SortStableFunc(rows, func(x, y row) int {
		switch {
		case x.yMax > y.yMax:
			return -1
		case x.yMax < y.yMax:
			return 1
		default:
			return 0
		}
	})
	return rows
}

// merge joins the glyphs of one row into fragments
func (a Assembler) merge(glyphs []Glyph) []model.Fragment {
	slices.SortStableFunc(glyphs, func(x, y Glyph) int {
		switch {
		case x.X < y.X:
			return -1
		case x.X > y.X:
			return 1
		default:
			return 0
		}
	})

	var (
		fragments []model.Fragment
		text      strings.Builder
		box       model.BBox
		open      bool
	)

	flush := func() {
		if !open {
			return
		}
		if s := strings.TrimSpace(norm.NFKC.String(text.String())); s != "" {
			fragments = append(fragments, model.Fragment{Text: s, BBox: box})
		}
		text.Reset()
		open = false
	}

	for _, g := range glyphs {
		size := g.FontSize
		if size <= 0 {
			size = 1
		}
		bottom := g.Y - descentRatio*size
		gb := model.BBox{X0: g.X, Y0: bottom, X1: g.X + g.W, Y1: bottom + size}

		if open {
			gap := g.X - box.X1
			if gap > a.ColumnGap*size {
				flush()
			} else if gap > a.WordGap*size && !strings.HasSuffix(text.String(), " ") && !strings.HasPrefix(g.Text, " ") {
				text.WriteByte(' ')
			}
		}

		if !open {
			box = gb
			open = true
		} else {
			box = model.BBox{
				X0: min(box.X0, gb.X0),
				Y0: min(box.Y0, gb.Y0),
				X1: max(box.X1, gb.X1),
				Y1: max(box.Y1, gb.Y1),
			}
		}
		text.WriteString(g.Text)
	}
	flush()

	return fragments
}
