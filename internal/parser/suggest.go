// Package parser extracts candidate phrases from autocomplete payloads
// of arbitrary JSON shape. Rather than hardcoding field paths, it walks
// the decoded value recursively and collects string values whose
// containing object key looks phrase-like, which keeps extraction
// working across endpoint shape drift.
package parser

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// KeyMatcher decides whether an object key may contain a phrase.
type KeyMatcher func(key string) bool

// phraseKeyFragments are substrings that mark a field as phrase-like.
var phraseKeyFragments = []string{"query", "phrase", "text", "term", "suggestion", "keyword"}

// PhraseKey is the default KeyMatcher: true when the key contains any
// phrase-like fragment, case-insensitively.
func PhraseKey(key string) bool {
	key = strings.ToLower(key)
	for _, fragment := range phraseKeyFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}
	return false
}

// maxNodes bounds the recursive walk against pathological payloads.
const maxNodes = 10000

// ExtractPhrases decodes raw JSON and collects up to maxResults string
// values found under phrase-like keys, in deterministic order. Strings
// inside arrays inherit the array's containing key. Returns an error
// only for undecodable input.
func ExtractPhrases(raw []byte, match KeyMatcher, maxResults int) ([]string, error) {
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	w := &walker{match: match, maxResults: maxResults}
	w.visit(root, "")
	return w.results, nil
}

type walker struct {
	match      KeyMatcher
	maxResults int
	results    []string
	nodes      int
}

func (w *walker) full() bool {
	return w.maxResults > 0 && len(w.results) >= w.maxResults
}

func (w *walker) visit(v any, key string) {
	if w.full() {
		return
	}
	w.nodes++
	if w.nodes > maxNodes {
		return
	}

	switch t := v.(type) {
	case string:
		if key != "" && w.match(key) && strings.TrimSpace(t) != "" {
			w.results = append(w.results, t)
		}
	case []any:
		for _, elem := range t {
			w.visit(elem, key)
		}
	case map[string]any:
		// Sorted keys keep extraction order stable across runs.
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			w.visit(t[k], k)
		}
	}
}
