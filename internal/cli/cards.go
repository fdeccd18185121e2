package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/taxscroll/internal/logger"
	"github.com/ppiankov/taxscroll/internal/model"
	"github.com/ppiankov/taxscroll/internal/pins"
	"github.com/ppiankov/taxscroll/internal/pipeline"
	"github.com/ppiankov/taxscroll/internal/retrieve"
	"github.com/ppiankov/taxscroll/internal/worker"
)

var (
	cardsOut         string
	cardsConcurrency int
	cardsTimeout     time.Duration
	cardsMax         int
	cardsShuffle     bool
	cardsStopBefore  string
	cardsRPS         float64
	cardsNoRobots    bool
	cardsUserAgent   string
	httpProxy        string
	httpsProxy       string
)

// cardsCmd represents the cards command
var cardsCmd = &cobra.Command{
	Use:   "cards <parcel_ids.txt>",
	Short: "Retrieve the tax card of every parcel identifier",
	Long: `Cards looks every identifier of a list up on the county's web tax-card service:
- Load the search form of the start page once
- Search each identifier by map number
- Fetch every tax card the search returns
- Scrape the card's label/value rows

Requests are rate limited per host and robots.txt is honoured.

Example:
  taxscroll cards parcel_ids.txt
  taxscroll cards parcel_ids.txt --max 10 --shuffle
  taxscroll cards parcel_ids.txt --concurrency 2 --rps 1 --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runCards,
}

func init() {
	rootCmd.AddCommand(cardsCmd)

	cardsCmd.Flags().StringVarP(&cardsOut, "out", "o", "cards.json", "output JSON path")
	cardsCmd.Flags().IntVar(&cardsConcurrency, "concurrency", 4, "number of concurrent lookups")
	cardsCmd.Flags().DurationVar(&cardsTimeout, "timeout", 0, "total timeout for all lookups (0 = none)")

	cardsCmd.Flags().IntVar(&cardsMax, "max", 0, "look up at most this many identifiers (0 = all)")
	cardsCmd.Flags().BoolVar(&cardsShuffle, "shuffle", false, "look identifiers up in random order")
	cardsCmd.Flags().StringVar(&cardsStopBefore, "stop-before", "", "only look up identifiers listed before this one")

	cardsCmd.Flags().Float64Var(&cardsRPS, "rps", 2, "requests per second per host (0 = unlimited)")
	cardsCmd.Flags().BoolVar(&cardsNoRobots, "no-robots", false, "ignore robots.txt")
	cardsCmd.Flags().StringVar(&cardsUserAgent, "ua", "", "HTTP User-Agent")
	cardsCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cardsCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runCards(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyCardsFlags(cmd, cfg)

	ctx := logger.WithRunID(cmd.Context(), logger.NewRunID())
	if cardsTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cardsTimeout)
		defer cancel()
	}
	log := logger.WithContext(ctx)

	list, err := pins.Read(file, pins.Options{
		MaxPINs:    cfg.Retrieval.MaxPINs,
		Shuffle:    cfg.Retrieval.Shuffle,
		StopBefore: cfg.Retrieval.StopBefore,
	})
	if err != nil {
		return fmt.Errorf("read identifiers: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Tax Card Retrieval\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Identifiers:  %d\n", len(list))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Service:      %s\n", cfg.Retrieval.StartURL)
	fmt.Fprintf(os.Stderr, "\n")

	retriever, err := retrieve.NewRetriever(cfg, log)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(retriever, cfg.Concurrency.Workers)
	processor.OnResult(func(r *model.CardResult) {
		if r.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.PIN, r.Error)
			return
		}
		if len(r.Cards) == 0 {
			fmt.Fprintf(os.Stderr, "- %s: no results\n", r.PIN)
			return
		}
		fmt.Fprintf(os.Stderr, "✓ %s (%d cards)\n", r.PIN, len(r.Cards))
	})

	results := processor.ProcessPINs(ctx, list)

	cards, failures := collectCards(results)

	renderer := pipeline.NewRenderer(os.Stderr)
	if err := renderer.RenderJSON(cards, cfg.Output.CardsPath); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Retrieval Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d identifiers\n", len(results))
	fmt.Fprintf(os.Stderr, "  Cards:     %d\n", len(cards))
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", cfg.Output.CardsPath)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

func applyCardsFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.CardsPath = cardsOut
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency.Workers = cardsConcurrency
	}
	if flags.Changed("max") {
		cfg.Retrieval.MaxPINs = cardsMax
	}
	if flags.Changed("shuffle") {
		cfg.Retrieval.Shuffle = cardsShuffle
	}
	if flags.Changed("stop-before") {
		cfg.Retrieval.StopBefore = cardsStopBefore
	}
	if flags.Changed("rps") {
		cfg.RateLimiting.RequestsPerSecond = cardsRPS
	}
	if flags.Changed("no-robots") {
		cfg.Retrieval.RespectRobots = !cardsNoRobots
	}
	if flags.Changed("ua") {
		cfg.HTTP.UserAgent = cardsUserAgent
	}
	if flags.Changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
}

// collectCards flattens the cards of all results in identifier order and counts failures
func collectCards(results []*model.CardResult) ([]map[string]string, int) {
	cards := []map[string]string{}
	failures := 0
	for _, r := range results {
		if r.Error != nil {
			failures++
			continue
		}
		cards = append(cards, r.Cards...)
	}
	return cards, failures
}
