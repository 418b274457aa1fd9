package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestStopWithoutStart(t *testing.T) {
	s, _ := newTestServer(t, &fakeFetcher{})
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop before Start: %v", err)
	}
}

func TestCORSHeaders(t *testing.T) {
	assert := assert_.New(t)
	s, _ := newTestServer(t, &fakeFetcher{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "chrome-extension://abcdef")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(http.StatusOK, w.Code)
	assert.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRouteIs404(t *testing.T) {
	assert := assert_.New(t)
	s, _ := newTestServer(t, &fakeFetcher{})
	w := doRequest(s, http.MethodGet, "/nope", "")
	assert.Equal(http.StatusNotFound, w.Code)
}
