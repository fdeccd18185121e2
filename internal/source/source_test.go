package source

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/taxscroll/internal/cache"
	"github.com/ppiankov/taxscroll/internal/model"
	"github.com/ppiankov/taxscroll/internal/scrolltest"
)

func testAssembler() Assembler {
	return NewAssembler(model.DefaultConfig().Document)
}

// word lays out one glyph per character, 4pt wide, starting at x
func word(s string, x, y float64) []Glyph {
	var glyphs []Glyph
	for i, r := range s {
		glyphs = append(glyphs, Glyph{Text: string(r), X: x + float64(i)*4, Y: y, W: 4, FontSize: 8})
	}
	return glyphs
}

func concat(parts ...[]Glyph) []Glyph {
	var out []Glyph
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestAssembler_WordsAndColumns(t *testing.T) {
	glyphs := concat(
		word("JOHN", 10, 100), // ends at 26
		word("DOE", 28, 100),  // 2pt gap: a space
		word("123", 80, 100),  // 42pt gap: a new fragment
	)

	fragments := testAssembler().Assemble(glyphs)
	if len(fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d: %+v", len(fragments), fragments)
	}
	if fragments[0].Text != "JOHN DOE" {
		t.Errorf("expected %q, got %q", "JOHN DOE", fragments[0].Text)
	}
	if fragments[1].Text != "123" {
		t.Errorf("expected %q, got %q", "123", fragments[1].Text)
	}

	want := model.BBox{X0: 10, Y0: 98.4, X1: 40, Y1: 106.4}
	got := fragments[0].BBox
	if !near(got.X0, want.X0) || !near(got.Y0, want.Y0) || !near(got.X1, want.X1) || !near(got.Y1, want.Y1) {
		t.Errorf("expected bbox %+v, got %+v", want, got)
	}
}

func TestAssembler_RowsTopFirst(t *testing.T) {
	glyphs := concat(
		word("LOW", 10, 50),
		word("HIGH", 10, 100),
		word("ER", 26.5, 100.8), // slight baseline jitter
	)

	fragments := testAssembler().Assemble(glyphs)
	if len(fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d: %+v", len(fragments), fragments)
	}
	if fragments[0].Text != "HIGHER" || fragments[1].Text != "LOW" {
		t.Errorf("unexpected order: %q, %q", fragments[0].Text, fragments[1].Text)
	}
}

func TestAssembler_UnsortedGlyphs(t *testing.T) {
	glyphs := []Glyph{
		{Text: "C", X: 18, Y: 10, W: 4, FontSize: 8},
		{Text: "A", X: 10, Y: 10, W: 4, FontSize: 8},
		{Text: "B", X: 14, Y: 10, W: 4, FontSize: 8},
	}

	fragments := testAssembler().Assemble(glyphs)
	if len(fragments) != 1 || fragments[0].Text != "ABC" {
		t.Errorf("expected ABC, got %+v", fragments)
	}
}

func TestAssembler_NormalizesText(t *testing.T) {
	glyphs := concat(
		[]Glyph{{Text: "ﬁ", X: 10, Y: 10, W: 4, FontSize: 8}},
		word("RE", 14, 10),
		[]Glyph{{Text: "１２", X: 100, Y: 10, W: 8, FontSize: 8}},
	)

	fragments := testAssembler().Assemble(glyphs)
	if len(fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %+v", fragments)
	}
	if fragments[0].Text != "fiRE" {
		t.Errorf("expected ligature to decompose, got %q", fragments[0].Text)
	}
	if fragments[1].Text != "12" {
		t.Errorf("expected ASCII digits, got %q", fragments[1].Text)
	}
}

func TestAssembler_DropsBlankGlyphs(t *testing.T) {
	glyphs := concat(
		word("A", 10, 10),
		[]Glyph{{Text: " ", X: 14, Y: 10, W: 200, FontSize: 8}},
		word("B", 300, 10),
	)

	fragments := testAssembler().Assemble(glyphs)
	if len(fragments) != 2 {
		t.Errorf("expected blank glyph not to bridge columns, got %+v", fragments)
	}
	if len(testAssembler().Assemble(nil)) != 0 {
		t.Error("expected no fragments for no glyphs")
	}
}

func TestStatic(t *testing.T) {
	s := Static{scrolltest.Page(1, nil)}
	if s.NumPages() != 1 {
		t.Errorf("expected 1 page, got %d", s.NumPages())
	}
	if _, err := s.Page(2); !errors.Is(err, ErrUnreadable) {
		t.Errorf("expected ErrUnreadable, got %v", err)
	}
}

// countingSource counts decodes
type countingSource struct {
	Static
	calls int
	err   error
}

func (c *countingSource) Page(n int) (*model.Page, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.Static.Page(n)
}

func TestCached_DecodesOnce(t *testing.T) {
	src := &countingSource{Static: Static{scrolltest.Page(1, []float64{500})}}
	store := cache.NewLayeredCache(time.Minute, t.TempDir(), time.Hour)

	cached := NewCached(src, store, "doc", 0)
	first, err := cached.Page(1)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	second, err := cached.Page(1)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}

	if src.calls != 1 {
		t.Errorf("expected 1 decode, got %d", src.calls)
	}
	if hits, misses := cached.Stats(); hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}
	if len(first.Fragments) != len(second.Fragments) || first.Fragments[0] != second.Fragments[0] {
		t.Error("cached page differs from decoded page")
	}
}

func TestCached_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	src := &countingSource{Static: Static{scrolltest.Page(1, []float64{500})}}

	if _, err := NewCached(src, cache.NewDiskCache(dir, time.Hour), "doc", 0).Page(1); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCached(src, cache.NewDiskCache(dir, time.Hour), "doc", 0).Page(1); err != nil {
		t.Fatal(err)
	}
	if src.calls != 1 {
		t.Errorf("expected the second run to hit the disk cache, got %d decodes", src.calls)
	}

	if _, err := NewCached(src, cache.NewDiskCache(dir, time.Hour), "edited", 0).Page(1); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Errorf("expected a changed document key to miss, got %d decodes", src.calls)
	}
}

// glyphSource assembles the same glyphs into its single page on every decode
type glyphSource struct {
	assembler Assembler
	glyphs    []Glyph
}

func (g glyphSource) NumPages() int { return 1 }

func (g glyphSource) Page(n int) (*model.Page, error) {
	return &model.Page{Number: n, Fragments: g.assembler.Assemble(g.glyphs)}, nil
}

func TestCached_AssemblySettingsChangeKey(t *testing.T) {
	dir := t.TempDir()
	glyphs := []Glyph{
		{Text: "A", X: 10, Y: 10, W: 4, FontSize: 8},
		{Text: "B", X: 15, Y: 10, W: 4, FontSize: 8}, // 1pt gap
	}

	wide := testAssembler()
	narrow := Assembler{RowTolerance: 2, WordGap: 0.05, ColumnGap: 0.1}
	if wide.Identity() == narrow.Identity() {
		t.Fatal("expected different identities for different settings")
	}

	pages := func(a Assembler) int {
		c := NewCached(glyphSource{assembler: a, glyphs: glyphs}, cache.NewDiskCache(dir, time.Hour), CacheKey("doc", a), 0)
		page, err := c.Page(1)
		if err != nil {
			t.Fatalf("Page failed: %v", err)
		}
		return len(page.Fragments)
	}

	if n := pages(wide); n != 1 {
		t.Fatalf("expected 1 fragment with default settings, got %d", n)
	}
	if n := pages(narrow); n != 2 {
		t.Errorf("expected narrow column gap to split into 2 fragments, got %d", n)
	}
	if n := pages(wide); n != 1 {
		t.Errorf("expected default settings to still read 1 fragment, got %d", n)
	}

	if CacheKey("doc", wide) != CacheKey("doc", testAssembler()) {
		t.Error("expected equal settings to share a key")
	}
}

func TestCached_PropagatesErrors(t *testing.T) {
	src := &countingSource{Static: Static{scrolltest.Page(1, nil)}, err: ErrUnreadable}

	_, err := NewCached(src, cache.Nop{}, "doc", 0).Page(1)
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("expected ErrUnreadable, got %v", err)
	}
}

func TestOpenPDF_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scroll.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenPDF(path, testAssembler()); !errors.Is(err, ErrUnreadable) {
		t.Errorf("expected ErrUnreadable, got %v", err)
	}
	if _, err := OpenPDF(filepath.Join(t.TempDir(), "missing.pdf"), testAssembler()); !errors.Is(err, ErrUnreadable) {
		t.Errorf("expected ErrUnreadable for missing file, got %v", err)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
