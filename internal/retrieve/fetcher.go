package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/ppiankov/taxscroll/internal/model"
	"github.com/ppiankov/taxscroll/internal/util"
)

const fetchMaxRetries = 3

// fetchSleepFunc is the sleep function used between retries (injectable for tests)
var fetchSleepFunc = time.Sleep

// Fetcher issues HTTP requests for one lookup session. Cookies set by the service
// are kept and replayed, as the search depends on the session the start page opens.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// NewFetcher creates a fetcher with its own cookie jar
func NewFetcher(cfg model.HTTPConfig) (*Fetcher, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
	}, nil
}

// Page is a fetched HTML response
type Page struct {
	Body       []byte
	URL        *url.URL // Final URL after redirects
	StatusCode int
}

// StatusError reports a non-2xx response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Get fetches rawURL
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Page, error) {
	return f.do(ctx, http.MethodGet, rawURL, nil)
}

// PostForm submits form values to rawURL
func (f *Fetcher) PostForm(ctx context.Context, rawURL string, form url.Values) (*Page, error) {
	return f.do(ctx, http.MethodPost, rawURL, form)
}

// FetchWithRetry fetches rawURL, retrying transient failures with exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*Page, error) {
	return f.withRetry(ctx, func() (*Page, error) {
		return f.Get(ctx, rawURL)
	})
}

// PostFormWithRetry submits form values, retrying transient failures
func (f *Fetcher) PostFormWithRetry(ctx context.Context, rawURL string, form url.Values) (*Page, error) {
	return f.withRetry(ctx, func() (*Page, error) {
		return f.PostForm(ctx, rawURL, form)
	})
}

func (f *Fetcher) withRetry(ctx context.Context, attempt func() (*Page, error)) (*Page, error) {
	var lastErr error
	for i := 0; i < fetchMaxRetries; i++ {
		page, err := attempt()
		if err == nil {
			return page, nil
		}
		lastErr = err

		if !isRetryableFetchError(err) || ctx.Err() != nil {
			return nil, err
		}
		if i < fetchMaxRetries-1 {
			fetchSleepFunc(time.Duration(1<<uint(i)) * time.Second)
		}
	}
	return nil, lastErr
}

func (f *Fetcher) do(ctx context.Context, method, rawURL string, form url.Values) (*Page, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Page{
		Body:       data,
		URL:        resp.Request.URL,
		StatusCode: resp.StatusCode,
	}, nil
}

// isRetryableFetchError reports whether err is a transient failure worth retrying:
// 5xx, 429, timeouts and refused or reset connections
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
