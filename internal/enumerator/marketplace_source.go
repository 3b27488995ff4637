package enumerator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/keydoru/keydoru/internal/parser"
)

// MarketplaceSource queries the marketplace's structured autocomplete
// endpoints in a fixed fallback order. Endpoint templates carry one %s
// placeholder for the escaped prefix. Candidates are extracted by
// walking the response JSON for phrase-like fields, so the source
// survives endpoint shape drift.
type MarketplaceSource struct {
	endpoints    []string
	maxPerPrefix int
	userAgent    string
	timeout      time.Duration

	clientOnce sync.Once
	client     *HTTPClient
}

// NewMarketplaceSource creates the marketplace autocomplete source.
// The HTTP client is created lazily on first fetch.
func NewMarketplaceSource(endpoints []string, maxPerPrefix int, userAgent string, timeout time.Duration) *MarketplaceSource {
	return &MarketplaceSource{
		endpoints:    endpoints,
		maxPerPrefix: maxPerPrefix,
		userAgent:    userAgent,
		timeout:      timeout,
	}
}

// Name returns the source tag.
func (s *MarketplaceSource) Name() string {
	return SourceMarketplace
}

// Fetch tries each endpoint in order and returns the candidates of the
// first one that responds with parsable JSON. Candidates must start
// with the queried prefix (case-insensitively) and are deduplicated and
// capped per prefix. Exhausting all endpoints yields an empty result,
// not an error.
func (s *MarketplaceSource) Fetch(ctx context.Context, prefix string) ([]Suggestion, error) {
	client := s.getClient()

	for _, tmpl := range s.endpoints {
		endpoint := fmt.Sprintf(tmpl, url.QueryEscape(prefix))

		body, status, err := client.GetJSON(ctx, endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Debug("Marketplace endpoint failed", "endpoint", endpoint, "error", err)
			continue
		}
		if status != http.StatusOK {
			slog.Debug("Marketplace endpoint non-success", "endpoint", endpoint, "status", status)
			continue
		}

		phrases, err := parser.ExtractPhrases(body, parser.PhraseKey, 0)
		if err != nil {
			slog.Debug("Marketplace payload unparsable", "endpoint", endpoint, "error", err)
			continue
		}

		return s.filter(phrases, prefix, endpoint), nil
	}

	return nil, nil
}

// filter applies the prefix match, case-insensitive dedup and the
// per-prefix cap, preserving response order.
func (s *MarketplaceSource) filter(phrases []string, prefix, endpoint string) []Suggestion {
	lowerPrefix := strings.ToLower(strings.TrimSpace(prefix))
	seen := make(map[string]struct{})
	var out []Suggestion

	for _, phrase := range phrases {
		trimmed := strings.TrimSpace(phrase)
		lower := strings.ToLower(trimmed)
		if !strings.HasPrefix(lower, lowerPrefix) {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}

		out = append(out, Suggestion{
			Phrase:  trimmed,
			Source:  SourceMarketplace,
			Prefix:  prefix,
			Rank:    len(out),
			Payload: endpoint,
		})
		if s.maxPerPrefix > 0 && len(out) >= s.maxPerPrefix {
			break
		}
	}

	return out
}

// Close releases the HTTP client if it was ever created.
func (s *MarketplaceSource) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

func (s *MarketplaceSource) getClient() *HTTPClient {
	s.clientOnce.Do(func() {
		s.client = NewHTTPClient(s.userAgent, s.timeout)
	})
	return s.client
}
