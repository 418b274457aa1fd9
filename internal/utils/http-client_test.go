package utils

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

func uaRecorder(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = r.Header.Get("User-Agent")
	})
}

func TestDoDefaultsToBrowserUserAgent(t *testing.T) {
	var got string
	ts := httptest.NewServer(uaRecorder(&got))
	defer ts.Close()

	client := NewHTTPClient(HTTPClientConfig{})
	req, err := http.NewRequest("GET", ts.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if !slices.Contains(userAgents, got) {
		t.Errorf("expected a User-Agent from the pool, got %q", got)
	}
}

func TestDoUsesConfiguredUserAgentAndHeaders(t *testing.T) {
	var got string
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		auth = r.Header.Get("Authorization")
	}))
	defer ts.Close()

	client := NewHTTPClient(HTTPClientConfig{
		UserAgent: ToolUserAgent,
		Headers:   map[string]string{"Authorization": "Bearer t"},
	})
	req, _ := http.NewRequest("GET", ts.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got != ToolUserAgent {
		t.Errorf("User-Agent = %q, want %q", got, ToolUserAgent)
	}
	if auth != "Bearer t" {
		t.Errorf("Authorization = %q, want %q", auth, "Bearer t")
	}
}

func TestStdClientAppliesUserAgent(t *testing.T) {
	var got string
	ts := httptest.NewServer(uaRecorder(&got))
	defer ts.Close()

	std := NewHTTPClient(HTTPClientConfig{UserAgent: ToolUserAgent}).StdClient()
	resp, err := std.Get(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got != ToolUserAgent {
		t.Errorf("User-Agent = %q, want %q", got, ToolUserAgent)
	}
}
