// Package retrieve looks parcel identifiers up on the county's web tax-card service.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/ppiankov/taxscroll/internal/model"
	"github.com/ppiankov/taxscroll/internal/util"
	"github.com/ppiankov/taxscroll/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids a request
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Retriever searches the lookup service for a parcel identifier and scrapes every
// tax card the search returns. It is safe for concurrent use; all lookups share one
// session and the start page's form is loaded once.
type Retriever struct {
	cfg     model.RetrievalConfig
	fetcher *Fetcher
	limiter *worker.Limiter
	robots  *util.RobotsChecker
	logger  *slog.Logger

	mu   sync.Mutex
	form url.Values
}

// NewRetriever creates a retriever from the configuration
func NewRetriever(cfg *model.Config, logger *slog.Logger) (*Retriever, error) {
	if cfg.Retrieval.StartURL == "" || cfg.Retrieval.SearchURL == "" {
		return nil, fmt.Errorf("start and search URLs are required")
	}
	if strings.Count(cfg.Retrieval.CardURL, "%s") != 1 {
		return nil, fmt.Errorf("card URL %q must contain exactly one %%s", cfg.Retrieval.CardURL)
	}

	fetcher, err := NewFetcher(cfg.HTTP)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	r := &Retriever{
		cfg:     cfg.Retrieval,
		fetcher: fetcher,
		limiter: worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		logger:  logger,
	}
	if cfg.Retrieval.RespectRobots {
		r.robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}
	return r, nil
}

// Lookup searches for pin and returns the result tokens and scraped cards, one card
// per token in result order. A search with no hits is not an error.
func (r *Retriever) Lookup(ctx context.Context, pin string) (*model.CardResult, error) {
	form, err := r.startForm(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.gate(ctx, r.cfg.SearchURL); err != nil {
		return nil, err
	}
	page, err := r.fetcher.PostFormWithRetry(ctx, r.cfg.SearchURL, MergeForm(form, SearchValues(pin)))
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", pin, err)
	}

	tokens, err := ParseHits(page.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	result := &model.CardResult{PIN: pin, Tokens: tokens}
	for _, token := range tokens {
		card, err := r.card(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", token, err)
		}
		result.Cards = append(result.Cards, card)
	}

	r.logger.DebugContext(ctx, "lookup complete", "pin", pin, "cards", len(result.Cards))
	return result, nil
}

func (r *Retriever) card(ctx context.Context, token string) (Card, error) {
	cardURL := fmt.Sprintf(r.cfg.CardURL, url.QueryEscape(token))
	if err := r.gate(ctx, cardURL); err != nil {
		return nil, err
	}

	page, err := r.fetcher.FetchWithRetry(ctx, cardURL)
	if err != nil {
		return nil, err
	}
	return ParseCard(page.Body)
}

// startForm loads the search form of the start page on first use. A failed load is
// retried by the next lookup.
func (r *Retriever) startForm(ctx context.Context) (url.Values, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.form != nil {
		return r.form, nil
	}

	if err := r.gate(ctx, r.cfg.StartURL); err != nil {
		return nil, err
	}
	page, err := r.fetcher.FetchWithRetry(ctx, r.cfg.StartURL)
	if err != nil {
		return nil, fmt.Errorf("load start page: %w", err)
	}

	form, err := ParseForm(page.Body)
	if err != nil {
		return nil, fmt.Errorf("parse start page: %w", err)
	}

	r.logger.DebugContext(ctx, "search form loaded", "fields", len(form))
	r.form = form
	return form, nil
}

// gate applies robots.txt and the per-host rate limit before a request
func (r *Retriever) gate(ctx context.Context, rawURL string) error {
	if r.robots != nil {
		allowed, delay, err := r.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		if u, err := url.Parse(rawURL); err == nil {
			r.limiter.SetHostDelay(u.Host, delay)
		}
	}

	if err := r.limiter.Wait(ctx, rawURL); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}
