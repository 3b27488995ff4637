package enumerator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBytes caps how much of an autocomplete payload is read.
const maxResponseBytes = 1 << 20 // 1 MB

// HTTPClient is a small JSON-oriented HTTP client shared by the
// suggestion sources.
type HTTPClient struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
}

// NewHTTPClient creates a new HTTP client with connection pooling.
func NewHTTPClient(userAgent string, timeout time.Duration) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		headers:   make(map[string]string),
	}
}

// SetHeader sets a custom header sent with every request.
func (h *HTTPClient) SetHeader(name, value string) {
	h.headers[name] = value
}

// GetJSON performs a GET request and returns the body and status code.
// The body is truncated at maxResponseBytes.
func (h *HTTPClient) GetJSON(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "application/json, text/javascript;q=0.9, */*;q=0.5")
	for name, value := range h.headers {
		req.Header.Set(name, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

// Close releases idle connections.
func (h *HTTPClient) Close() {
	h.client.CloseIdleConnections()
}
