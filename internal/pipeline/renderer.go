package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/taxscroll/internal/model"
)

// Renderer writes run artifacts and the human summary
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer printing summaries to out
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// RenderJSON writes v as 2-space indented JSON. The file is replaced atomically, so
// a failed write leaves any previous artifact intact.
func (r *Renderer) RenderJSON(v any, path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := EncodeJSON(tmp, v); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}

	return nil
}

// EncodeJSON writes v as 2-space indented JSON without HTML escaping
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// RenderSummary prints the run totals
func (r *Renderer) RenderSummary(report model.Report, outPath string) {
	complete := report.Anchors - report.Incomplete

	fmt.Fprintf(r.out, "\n")
	fmt.Fprintf(r.out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(r.out, "  Scroll Parsed\n")
	fmt.Fprintf(r.out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(r.out, "\n")
	fmt.Fprintf(r.out, "  Document:    %s\n", report.Document)
	fmt.Fprintf(r.out, "  Run:         %s\n", report.RunID)
	fmt.Fprintf(r.out, "  Pages:       %d\n", report.Pages)
	fmt.Fprintf(r.out, "  Records:     %d\n", report.Anchors)
	fmt.Fprintf(r.out, "  Complete:    %d\n", complete)
	fmt.Fprintf(r.out, "  Incomplete:  %d\n", report.Incomplete)
	fmt.Fprintf(r.out, "  Sampled:     %d\n", report.Sampled)
	fmt.Fprintf(r.out, "  Output:      %s\n", outPath)
	fmt.Fprintf(r.out, "\n")
}
