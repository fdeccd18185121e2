// Package source loads positioned text fragments from scroll documents.
package source

import (
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/ppiankov/taxscroll/internal/model"
)

// ErrUnreadable marks a document or page that cannot be decoded. It is fatal to a run.
var ErrUnreadable = errors.New("unreadable document")

// PDF reads pages of a PDF file
type PDF struct {
	path      string
	file      *os.File
	reader    *pdf.Reader
	assembler Assembler
}

// OpenPDF opens the document at path. Close releases the file.
func OpenPDF(path string, assembler Assembler) (doc *PDF, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: open %s: %v", ErrUnreadable, path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnreadable, path, err)
	}

	return &PDF{
		path:      path,
		file:      f,
		reader:    reader,
		assembler: assembler,
	}, nil
}

// Path returns the document path
func (d *PDF) Path() string {
	return d.path
}

// NumPages returns the number of pages in the document
func (d *PDF) NumPages() int {
	return d.reader.NumPage()
}

// Page decodes page n (1-based) into fragments. Malformed content streams are
// reported as ErrUnreadable.
func (d *PDF) Page(n int) (page *model.Page, err error) {
	if n < 1 || n > d.reader.NumPage() {
		return nil, fmt.Errorf("%w: page %d out of range 1-%d", ErrUnreadable, n, d.reader.NumPage())
	}

	// The PDF library panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			page = nil
			err = fmt.Errorf("%w: page %d: %v", ErrUnreadable, n, r)
		}
	}()

	p := d.reader.Page(n)
	if p.V.IsNull() {
		return nil, fmt.Errorf("%w: page %d missing", ErrUnreadable, n)
	}

	content := p.Content()
	glyphs := make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, Glyph{
			Text:     t.S,
			X:        t.X,
			Y:        t.Y,
			W:        t.W,
			FontSize: t.FontSize,
		})
	}

	width, height := mediaBox(p)
	return &model.Page{
		Number:    n,
		Width:     width,
		Height:    height,
		Fragments: d.assembler.Assemble(glyphs),
	}, nil
}

// Close releases the underlying file
func (d *PDF) Close() error {
	return d.file.Close()
}

// mediaBox returns the page size, or zeros when the page does not declare one
func mediaBox(p pdf.Page) (float64, float64) {
	box := p.V.Key("MediaBox")
	if box.Len() != 4 {
		return 0, 0
	}
	return box.Index(2).Float64() - box.Index(0).Float64(), box.Index(3).Float64() - box.Index(1).Float64()
}
