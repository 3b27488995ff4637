package enumerator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// GeneralSource queries a public general-web suggestion endpoint with a
// domain-biasing phrase prepended to the prefix, then strips the bias
// back off the returned suggestions. The endpoint is expected to answer
// in the common suggest format: ["query", ["s1", "s2", ...]].
type GeneralSource struct {
	endpoint     string // Template with one %s for the escaped query
	bias         string
	maxPerPrefix int
	userAgent    string
	timeout      time.Duration

	clientOnce sync.Once
	client     *HTTPClient
}

// NewGeneralSource creates the general-web autocomplete source. The
// HTTP client is created lazily on first fetch.
func NewGeneralSource(endpoint, bias string, maxPerPrefix int, userAgent string, timeout time.Duration) *GeneralSource {
	return &GeneralSource{
		endpoint:     endpoint,
		bias:         strings.TrimSpace(bias),
		maxPerPrefix: maxPerPrefix,
		userAgent:    userAgent,
		timeout:      timeout,
	}
}

// Name returns the source tag.
func (s *GeneralSource) Name() string {
	return SourceGeneral
}

// Fetch queries the endpoint with the decorated prefix. Malformed or
// empty payloads yield an empty result, not an error.
func (s *GeneralSource) Fetch(ctx context.Context, prefix string) ([]Suggestion, error) {
	query := prefix
	if s.bias != "" {
		query = s.bias + " " + prefix
	}
	endpoint := fmt.Sprintf(s.endpoint, url.QueryEscape(query))

	body, status, err := s.getClient().GetJSON(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		slog.Debug("General endpoint non-success", "endpoint", endpoint, "status", status)
		return nil, nil
	}

	phrases, ok := parseSuggestPayload(body)
	if !ok {
		slog.Debug("General payload unparsable", "endpoint", endpoint)
		return nil, nil
	}

	seen := make(map[string]struct{})
	var out []Suggestion
	for _, phrase := range phrases {
		candidate := s.stripBias(phrase)
		if candidate == "" {
			continue
		}
		lower := strings.ToLower(candidate)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}

		out = append(out, Suggestion{
			Phrase:  candidate,
			Source:  SourceGeneral,
			Prefix:  prefix,
			Rank:    len(out),
			Payload: endpoint,
		})
		if s.maxPerPrefix > 0 && len(out) >= s.maxPerPrefix {
			break
		}
	}

	return out, nil
}

// stripBias removes the biasing phrase from a returned suggestion,
// wherever the endpoint echoed it.
func (s *GeneralSource) stripBias(phrase string) string {
	phrase = strings.TrimSpace(phrase)
	if s.bias == "" {
		return phrase
	}

	lower := strings.ToLower(phrase)
	bias := strings.ToLower(s.bias)
	switch {
	case lower == bias:
		return ""
	case strings.HasPrefix(lower, bias+" "):
		return strings.TrimSpace(phrase[len(bias)+1:])
	case strings.HasSuffix(lower, " "+bias):
		return strings.TrimSpace(phrase[:len(phrase)-len(bias)-1])
	}
	return phrase
}

// parseSuggestPayload decodes the ["query", [suggestions...]] format.
func parseSuggestPayload(body []byte) ([]string, bool) {
	var root []any
	if err := json.Unmarshal(body, &root); err != nil || len(root) < 2 {
		return nil, false
	}

	list, ok := root[1].([]any)
	if !ok {
		return nil, false
	}

	phrases := make([]string, 0, len(list))
	for _, elem := range list {
		if s, ok := elem.(string); ok {
			phrases = append(phrases, s)
		}
	}
	return phrases, true
}

// Close releases the HTTP client if it was ever created.
func (s *GeneralSource) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

func (s *GeneralSource) getClient() *HTTPClient {
	s.clientOnce.Do(func() {
		s.client = NewHTTPClient(s.userAgent, s.timeout)
	})
	return s.client
}
