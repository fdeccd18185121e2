package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestNormalizeUserAgent(t *testing.T) {
	tests := []struct {
		ua, want string
	}{
		{"taxscroll/0.1 (+https://github.com/ppiankov/taxscroll)", "taxscroll"},
		{"curl", "curl"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeUserAgent(tt.ua); got != tt.want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", tt.ua, got, tt.want)
		}
	}
}

func TestRobotsChecker_CanFetch(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		fetches.Add(1)
		_, _ = fmt.Fprint(w, "User-agent: taxscroll\nDisallow: /private\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n")
	}))
	defer server.Close()

	checker := NewRobotsChecker("taxscroll/0.1", 5*time.Second)
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/search.php")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("expected /search.php to be allowed")
	}
	if delay != 2*time.Second {
		t.Errorf("expected crawl delay 2s, got %v", delay)
	}

	allowed, _, _ = checker.CanFetch(ctx, server.URL+"/private/card")
	if allowed {
		t.Error("expected /private/card to be disallowed")
	}

	if fetches.Load() != 1 {
		t.Errorf("expected robots.txt to be fetched once, got %d", fetches.Load())
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	checker := NewRobotsChecker("taxscroll/0.1", 5*time.Second)
	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/taxcard.php?id=1")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("expected missing robots.txt to allow everything")
	}
}

func TestRobotsChecker_InvalidURL(t *testing.T) {
	checker := NewRobotsChecker("taxscroll", time.Second)
	if _, _, err := checker.CanFetch(context.Background(), "::invalid"); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "", "example.org")

	req := &http.Request{URL: &url.URL{Scheme: "http", Host: "secure.webtaxpay.com"}}
	got, err := proxy(req)
	if err != nil {
		t.Fatalf("proxy failed: %v", err)
	}
	if got == nil || got.Host != "proxy.internal:3128" {
		t.Errorf("expected configured proxy, got %v", got)
	}

	req = &http.Request{URL: &url.URL{Scheme: "http", Host: "example.org"}}
	got, err = proxy(req)
	if err != nil {
		t.Fatalf("proxy failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected no proxy for excluded host, got %v", got)
	}
}
