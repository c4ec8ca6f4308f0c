package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc(t *testing.T) {
	tests := []struct {
		desc       string
		httpProxy  string
		httpsProxy string
		noProxy    string
		target     string
		expected   string
	}{
		{"http proxy", "http://proxy:3128", "", "", "http://museum.example.org/data.csv", "http://proxy:3128"},
		{"https falls back to http proxy", "http://proxy:3128", "", "", "https://museum.example.org/data.csv", "http://proxy:3128"},
		{"https proxy", "http://proxy:3128", "http://secure:3129", "", "https://museum.example.org/data.csv", "http://secure:3129"},
		{"no_proxy host", "http://proxy:3128", "", "museum.example.org", "http://museum.example.org/data.csv", ""},
		{"no_proxy domain suffix", "http://proxy:3128", "", ".example.org", "http://museum.example.org/data.csv", ""},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			proxy := NewProxyFunc(tt.httpProxy, tt.httpsProxy, tt.noProxy)
			req, err := http.NewRequest(http.MethodGet, tt.target, nil)
			if err != nil {
				t.Fatal(err)
			}

			got, err := proxy(req)
			if err != nil {
				t.Fatalf("proxy failed: %v", err)
			}

			if tt.expected == "" {
				if got != nil {
					t.Errorf("Expected no proxy, got %s", got)
				}
				return
			}
			if got == nil || got.String() != tt.expected {
				t.Errorf("Expected %s, got %v", tt.expected, got)
			}
		})
	}
}

func TestNewTransport(t *testing.T) {
	transport := NewTransport("http://proxy:3128", "", "")
	if transport.Proxy == nil {
		t.Fatal("Expected proxy func on transport")
	}
	if http.DefaultTransport.(*http.Transport).Proxy == nil {
		t.Error("Expected default transport to be left untouched")
	}
}
