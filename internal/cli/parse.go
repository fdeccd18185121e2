package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/taxscroll/internal/cache"
	"github.com/ppiankov/taxscroll/internal/logger"
	"github.com/ppiankov/taxscroll/internal/pipeline"
	"github.com/ppiankov/taxscroll/internal/source"
	"github.com/ppiankov/taxscroll/internal/validate"
)

var (
	parseOut        string
	parsePages      []int
	parseSampleRate float64
	parseNoCache    bool
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <scroll.pdf>",
	Short: "Extract parcel records from a tax scroll PDF",
	Long: `Parse reads every page of a tax scroll and writes one JSON record per parcel row:
- Find each row by its 15-digit parcel identifier
- Read every field from its region relative to that identifier
- Repair known layout quirks (name/address bleed, fire/district column)
- Log a warning for each record missing a required field

Sampled records are printed to stdout as JSON lines for inspection.

Example:
  taxscroll parse scroll.pdf
  taxscroll parse scroll.pdf --out records.json --pages 1,2,3
  taxscroll parse scroll.pdf --sample-rate 0 --no-cache`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseOut, "out", "o", "scroll.json", "output JSON path")
	parseCmd.Flags().IntSliceVar(&parsePages, "pages", nil, "pages to parse, 1-based (default: all)")
	parseCmd.Flags().Float64Var(&parseSampleRate, "sample-rate", 0.01, "probability of printing a record to stdout")
	parseCmd.Flags().BoolVar(&parseNoCache, "no-cache", false, "disable the parsed page cache")
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cfg.Document.Path = path
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.RecordsPath = parseOut
	}
	if flags.Changed("pages") {
		cfg.Document.Pages = parsePages
	}
	if flags.Changed("sample-rate") {
		cfg.Output.SampleRate = parseSampleRate
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !parseNoCache
	}

	runID := logger.NewRunID()
	ctx := logger.WithRunID(cmd.Context(), runID)
	log := logger.WithContext(ctx)

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Parsing: %s\n", path)
		fmt.Fprintf(os.Stderr, "Output: %s\n", cfg.Output.RecordsPath)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	assembler := source.NewAssembler(cfg.Document)
	doc, err := source.OpenPDF(path, assembler)
	if err != nil {
		return err
	}
	defer func() { _ = doc.Close() }()

	var pages pipeline.PageSource = doc
	var cached *source.Cached
	if cfg.Cache.Enabled {
		key, err := cache.DocumentKey(path)
		if err != nil {
			return err
		}
		cached = source.NewCached(doc, cache.New(cfg.Cache), source.CacheKey(key, assembler), 0)
		pages = cached
	}

	var sampler *pipeline.Sampler
	if cfg.Output.SampleRate > 0 {
		sampler = &pipeline.Sampler{
			Rate: cfg.Output.SampleRate,
			Sink: pipeline.JSONLineSink(os.Stdout),
		}
	}

	p := pipeline.NewPipeline(cfg, pipeline.Options{
		Reporter: &validate.LogReporter{Logger: log},
		Sampler:  sampler,
	})

	log.Debug("parse started", "document", path, "pages", doc.NumPages())

	result, err := p.Run(ctx, pages)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	result.Report.RunID = runID
	result.Report.Document = path

	if cached != nil {
		hits, misses := cached.Stats()
		log.Debug("page cache", "hits", hits, "misses", misses)
	}

	renderer := pipeline.NewRenderer(os.Stderr)
	if err := renderer.RenderJSON(result.Records, cfg.Output.RecordsPath); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	renderer.RenderSummary(result.Report, cfg.Output.RecordsPath)

	return nil
}
