// Package enumerator implements the seedless keyword enumerator: a
// budgeted breadth-first traversal over the phrase-prefix space that
// queries pluggable suggestion sources and persists discovered
// keywords through the Store interface.
package enumerator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/keydoru/keydoru/internal/config"
)

// Frontier drives the prefix-space traversal. Prefixes are processed
// one at a time and sources are queried sequentially per prefix; the
// inter-prefix delay is the politeness mechanism.
type Frontier struct {
	cfg     *config.DiscoveryConfig
	store   Store
	sources []SuggestionSource
	limiter *SourceLimiter
	rng     *rand.Rand

	closeOnce sync.Once
}

// runState is the run-scoped mutable frontier state. It is owned by a
// single Run call; a parallel reimplementation must serialize all
// mutations behind a single writer.
type runState struct {
	queue   []string
	visited map[string]struct{}
	unique  map[string]struct{}
	budget  int
}

func (st *runState) exhausted() bool {
	return len(st.unique) >= st.budget
}

func (st *runState) enqueue(prefix string) bool {
	if _, ok := st.visited[prefix]; ok {
		return false
	}
	st.visited[prefix] = struct{}{}
	st.queue = append(st.queue, prefix)
	return true
}

func (st *runState) dequeue() (string, bool) {
	if len(st.queue) == 0 {
		return "", false
	}
	prefix := st.queue[0]
	st.queue = st.queue[1:]
	return prefix, true
}

// NewFrontier creates a frontier over the given store and sources.
func NewFrontier(cfg *config.DiscoveryConfig, store Store, sources []SuggestionSource) *Frontier {
	return &Frontier{
		cfg:     cfg,
		store:   store,
		sources: sources,
		limiter: NewSourceLimiter(cfg.SourceDelay),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run executes one enumeration run to queue or budget exhaustion.
// Source fetch faults are logged and treated as empty results; store
// write faults abort the run. Sources are closed exactly once on every
// exit path.
func (f *Frontier) Run(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{
		PerSource: make(map[string]int),
		StartTime: time.Now(),
	}
	defer func() { stats.Duration = time.Since(stats.StartTime) }()

	if len(f.sources) == 0 {
		slog.Warn("No suggestion sources enabled, nothing to enumerate")
		return stats, nil
	}
	defer f.closeSources()

	alphabet := f.cfg.Alphabet
	if len(alphabet) == 0 {
		alphabet = defaultAlphabet()
	}

	st := &runState{
		visited: make(map[string]struct{}),
		unique:  make(map[string]struct{}),
		budget:  f.cfg.Budget,
	}

	seeds := f.cfg.InitialPrefixes
	if len(seeds) == 0 {
		seeds = alphabet
	}
	for _, seed := range seeds {
		if seed == "" {
			continue
		}
		st.enqueue(seed)
	}

	slog.Info("Starting enumeration",
		"seeds", len(st.queue),
		"sources", len(f.sources),
		"budget", f.cfg.Budget,
		"max_depth", f.cfg.MaxDepth)

	for {
		if st.exhausted() {
			// Remaining queued prefixes are abandoned, not drained.
			stats.BudgetExhausted = true
			break
		}

		prefix, ok := st.dequeue()
		if !ok {
			break
		}

		newForPrefix, err := f.processPrefix(ctx, prefix, st, stats)
		stats.PrefixesProcessed++
		stats.UniqueKeywords = len(st.unique)
		if err != nil {
			return stats, err
		}

		if utf8.RuneCountInString(prefix) < f.cfg.MaxDepth &&
			newForPrefix >= f.cfg.MinExpand &&
			!st.exhausted() {
			for _, fragment := range alphabet {
				st.enqueue(prefix + fragment)
			}
		}

		if len(st.queue) > 0 && !st.exhausted() {
			if err := f.pause(ctx); err != nil {
				return stats, err
			}
		}
	}

	stats.UniqueKeywords = len(st.unique)
	slog.Info("Enumeration completed",
		"prefixes", stats.PrefixesProcessed,
		"unique_keywords", stats.UniqueKeywords,
		"suggestions", stats.SuggestionsPersisted,
		"budget_exhausted", stats.BudgetExhausted)

	return stats, nil
}

// processPrefix queries every source for one prefix and persists the
// accepted suggestions as a single batch. Returns the number of
// distinct phrases this prefix newly added to the run-wide set.
func (f *Frontier) processPrefix(ctx context.Context, prefix string, st *runState, stats *RunStats) (int, error) {
	var batch []Suggestion
	distinctNew := 0
	now := time.Now().UTC()

	for _, src := range f.sources {
		if err := f.limiter.Wait(ctx, src.Name()); err != nil {
			return distinctNew, err
		}

		raw, err := src.Fetch(ctx, prefix)
		if err != nil {
			slog.Warn("Suggestion fetch failed",
				"source", src.Name(), "prefix", prefix, "error", err)
			continue
		}

		seen := make(map[string]struct{})
		for _, sug := range raw {
			phrase := NormalizePhrase(sug.Phrase)
			if !ValidPhrase(phrase) {
				continue
			}
			if _, dup := seen[phrase]; dup {
				continue
			}
			seen[phrase] = struct{}{}

			if _, known := st.unique[phrase]; !known {
				// The budget gates only newly-seen phrases; an
				// already-counted phrase is still attributed to
				// additional sources past exhaustion.
				if st.exhausted() {
					continue
				}
				st.unique[phrase] = struct{}{}
				distinctNew++
			}

			batch = append(batch, Suggestion{
				Phrase:  phrase,
				Source:  src.Name(),
				Prefix:  prefix,
				Rank:    sug.Rank,
				Payload: sug.Payload,
				SeenAt:  now,
			})
		}
	}

	if len(batch) > 0 {
		if err := f.store.UpsertCandidates(batch); err != nil {
			return distinctNew, fmt.Errorf("failed to persist suggestions for prefix %q: %w", prefix, err)
		}
		stats.SuggestionsPersisted += len(batch)
		for _, sug := range batch {
			stats.PerSource[sug.Source]++
		}
	}

	slog.Debug("Processed prefix",
		"prefix", prefix, "persisted", len(batch), "new_keywords", distinctNew)

	return distinctNew, nil
}

// pause waits the configured inter-prefix delay, with jitter, before
// the next dequeue.
func (f *Frontier) pause(ctx context.Context) error {
	delay := f.cfg.PrefixDelay
	if delay <= 0 {
		return nil
	}
	if j := f.cfg.DelayJitter; j > 0 {
		factor := 1 + (f.rng.Float64()*2-1)*j
		delay = time.Duration(float64(delay) * factor)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// closeSources releases every source exactly once, logging but not
// propagating close faults.
func (f *Frontier) closeSources() {
	f.closeOnce.Do(func() {
		for _, src := range f.sources {
			if err := src.Close(); err != nil {
				slog.Warn("Failed to close suggestion source",
					"source", src.Name(), "error", err)
			}
		}
	})
}

// defaultAlphabet is the fallback expansion set when no alphabet is
// configured.
func defaultAlphabet() []string {
	fragments := make([]string, 0, 26)
	for c := 'a'; c <= 'z'; c++ {
		fragments = append(fragments, string(c))
	}
	return fragments
}
