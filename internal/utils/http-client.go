package utils

import (
	"net/http"
	"net/url"
	"time"
)

type HTTPClientConfig struct {
	Timeout   time.Duration
	KATimeout time.Duration
	ProxyURL  string
	UserAgent string
	Headers   map[string]string
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient wraps http.Client with the configured proxy, timeouts and
// User-Agent. When no User-Agent is configured a browser one is picked
// from the local pool, since the upstream site throttles tool agents.
type HTTPClient struct {
	client    *http.Client
	transport *http.Transport
	config    HTTPClientConfig
}

func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Minute
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 90 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = GetRandomUserAgent()
	}
	transport := &http.Transport{
		IdleConnTimeout:     cfg.KATimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		DisableCompression:  true,
	}
	if cfg.ProxyURL != "" {
		if proxyURL, err := url.Parse(cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		transport: transport,
		config:    cfg,
	}
}

func (h *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", h.config.UserAgent)
	for k, v := range h.config.Headers {
		req.Header.Set(k, v)
	}
	return h.client.Do(req)
}

// StdClient returns a plain *http.Client on the same transport with the
// User-Agent and headers applied per request, for libraries that accept
// an http.Client directly.
func (h *HTTPClient) StdClient() *http.Client {
	return &http.Client{
		Timeout: h.config.Timeout,
		Transport: &headerTransport{
			base:      h.transport,
			userAgent: h.config.UserAgent,
			headers:   h.config.Headers,
		},
	}
}

type headerTransport struct {
	base      http.RoundTripper
	userAgent string
	headers   map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", t.userAgent)
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
