package enumerator

import "context"

// SuggestionSource is a pluggable autocomplete capability queried by
// the frontier. Implementations must not panic across this boundary;
// a malformed or empty upstream payload yields an empty slice, and a
// network fault is returned as an error for the caller to absorb.
type SuggestionSource interface {
	// Name returns the stable source tag attributed to suggestions.
	Name() string
	// Fetch returns the ordered suggestions for a prefix.
	Fetch(ctx context.Context, prefix string) ([]Suggestion, error)
	// Close releases the source's network resources. Called exactly
	// once per run, on every exit path.
	Close() error
}

// Store persists discovered candidates. Write faults are not absorbed
// by the frontier; they abort the run.
type Store interface {
	// UpsertCandidates writes one prefix's accepted suggestions as a
	// single transactional batch, refreshing last-seen on rediscovery.
	UpsertCandidates(batch []Suggestion) error
}
