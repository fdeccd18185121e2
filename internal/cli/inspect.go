package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/taxscroll/internal/extract"
	"github.com/ppiankov/taxscroll/internal/model"
	"github.com/ppiankov/taxscroll/internal/pipeline"
	"github.com/ppiankov/taxscroll/internal/source"
)

var (
	inspectPage   int
	inspectRegion string
	inspectJSON   bool
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <scroll.pdf>",
	Short: "Print the positioned text fragments of one page",
	Long: `Inspect dumps the fragments of a page with their bounding boxes, followed by
the record anchors found on it. Use it to calibrate field regions.

Coordinates are PDF points with the origin at the bottom-left corner.

Example:
  taxscroll inspect scroll.pdf --page 3
  taxscroll inspect scroll.pdf --page 3 --region 30,500,200,560
  taxscroll inspect scroll.pdf --page 3 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().IntVarP(&inspectPage, "page", "p", 1, "page to inspect, 1-based")
	inspectCmd.Flags().StringVar(&inspectRegion, "region", "", "only fragments touching x0,y0,x1,y1")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the page as JSON")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var region *model.BBox
	if inspectRegion != "" {
		box, err := parseRegion(inspectRegion)
		if err != nil {
			return err
		}
		region = &box
	}

	doc, err := source.OpenPDF(args[0], source.NewAssembler(cfg.Document))
	if err != nil {
		return err
	}
	defer func() { _ = doc.Close() }()

	page, err := doc.Page(inspectPage)
	if err != nil {
		return err
	}

	if region != nil {
		page.Fragments = filterFragments(page.Fragments, *region)
	}

	if inspectJSON {
		return pipeline.EncodeJSON(os.Stdout, page)
	}

	fmt.Printf("Page %d of %d (%.0f x %.0f), %d fragments\n\n",
		page.Number, doc.NumPages(), page.Width, page.Height, len(page.Fragments))
	for _, f := range page.Fragments {
		fmt.Printf("%8.2f %8.2f %8.2f %8.2f  %q\n", f.BBox.X0, f.BBox.Y0, f.BBox.X1, f.BBox.Y1, f.Text)
	}

	locator := extract.NewLocator(cfg.Schema.PINLength, cfg.Schema.AnchorLift)
	anchors := locator.Anchors(page)
	fmt.Printf("\n%d anchors\n", len(anchors))
	for _, a := range anchors {
		fmt.Printf("  %s  reference y %.2f\n", a.Text, a.ReferenceY)
	}

	return nil
}

// parseRegion reads "x0,y0,x1,y1"
func parseRegion(s string) (model.BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return model.BBox{}, fmt.Errorf("region %q: want x0,y0,x1,y1", s)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.BBox{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = f
	}

	box := model.BBox{X0: v[0], Y0: v[1], X1: v[2], Y1: v[3]}
	if box.Width() < 0 || box.Height() < 0 {
		return model.BBox{}, fmt.Errorf("region %q: inverted box", s)
	}
	return box, nil
}

func filterFragments(fragments []model.Fragment, region model.BBox) []model.Fragment {
	var kept []model.Fragment
	for _, f := range fragments {
		if f.BBox.Intersects(region) {
			kept = append(kept, f)
		}
	}
	return kept
}
