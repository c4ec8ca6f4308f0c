package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNormalizeUserAgent(t *testing.T) {
	tests := []struct {
		ua       string
		expected string
	}{
		{"Periodize/0.1 (+https://github.com/ppiankov/periodize)", "Periodize"},
		{"curl/8.0", "curl"},
		{"bot", "bot"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeUserAgent(tt.ua); got != tt.expected {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", tt.ua, got, tt.expected)
		}
	}
}

func TestRobotsChecker_CanFetch(t *testing.T) {
	var robotsHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			_, _ = fmt.Fprint(w, "User-agent: Periodize\nDisallow: /private/\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker("Periodize/0.1", 5*time.Second, nil)
	ctx := context.Background()

	tests := []struct {
		path    string
		allowed bool
	}{
		{"/exports/hermitage.csv", true},
		{"/private/dump.csv", false},
		{"", true},
	}

	for _, tt := range tests {
		allowed, delay, err := checker.CanFetch(ctx, server.URL+tt.path)
		if err != nil {
			t.Fatalf("CanFetch(%q) failed: %v", tt.path, err)
		}
		if allowed != tt.allowed {
			t.Errorf("CanFetch(%q) = %v, want %v", tt.path, allowed, tt.allowed)
		}
		if delay != 2*time.Second {
			t.Errorf("Expected crawl delay 2s, got %v", delay)
		}
	}

	if hits := robotsHits.Load(); hits != 1 {
		t.Errorf("Expected robots.txt to be fetched once, got %d", hits)
	}

	checker.Clear()
	if _, _, err := checker.CanFetch(ctx, server.URL+"/x"); err != nil {
		t.Fatal(err)
	}
	if hits := robotsHits.Load(); hits != 2 {
		t.Errorf("Expected refetch after Clear, got %d fetches", hits)
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	checker := NewRobotsChecker("Periodize/0.1", 5*time.Second, nil)
	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/data.csv")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("Expected missing robots.txt to allow everything")
	}
}

func TestRobotsChecker_InvalidURL(t *testing.T) {
	checker := NewRobotsChecker("Periodize/0.1", time.Second, nil)
	if _, _, err := checker.CanFetch(context.Background(), "data.csv"); err == nil {
		t.Error("Expected error for URL without host")
	}
}
