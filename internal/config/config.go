// Package config provides configuration management for keydoru.
// It defines configuration structures and default values for keyword
// discovery and opportunity scoring.
package config

import (
	"time"
)

// DiscoveryConfig holds the prefix-frontier enumeration parameters.
type DiscoveryConfig struct {
	Budget          int           `mapstructure:"budget" yaml:"budget"`                     // Max distinct keywords accepted per run
	MaxDepth        int           `mapstructure:"max_depth" yaml:"max_depth"`               // Max prefix length (in runes)
	MinExpand       int           `mapstructure:"min_expand" yaml:"min_expand"`             // Distinct new keywords required to expand a prefix
	Alphabet        []string      `mapstructure:"alphabet" yaml:"alphabet"`                 // Ordered expansion fragments (empty = a..z)
	InitialPrefixes []string      `mapstructure:"initial_prefixes" yaml:"initial_prefixes"` // Seed prefixes (empty = raw alphabet)
	PrefixDelay     time.Duration `mapstructure:"prefix_delay" yaml:"prefix_delay"`         // Delay between processed prefixes
	DelayJitter     float64       `mapstructure:"delay_jitter" yaml:"delay_jitter"`         // Jitter fraction applied to PrefixDelay (0..1)
	SourceDelay     time.Duration `mapstructure:"source_delay" yaml:"source_delay"`         // Minimum spacing between requests per source

	// Suggestion sources
	EnableMarketplace    bool     `mapstructure:"enable_marketplace" yaml:"enable_marketplace"`       // Query the marketplace autocomplete
	EnableGeneral        bool     `mapstructure:"enable_general" yaml:"enable_general"`               // Query the general-web autocomplete
	MarketplaceEndpoints []string `mapstructure:"marketplace_endpoints" yaml:"marketplace_endpoints"` // Ordered fallback endpoint templates (%s = prefix)
	GeneralEndpoint      string   `mapstructure:"general_endpoint" yaml:"general_endpoint"`           // Suggestion endpoint template (%s = query)
	GeneralBias          string   `mapstructure:"general_bias" yaml:"general_bias"`                   // Domain-biasing phrase wrapped around the prefix
	MaxPerPrefix         int      `mapstructure:"max_per_prefix" yaml:"max_per_prefix"`               // Cap on candidates extracted per prefix response
}

// ScoringConfig holds the opportunity-scoring weights.
// All weights are non-negative multipliers on robust-normalized signals.
type ScoringConfig struct {
	WeightReviewVelocity  float64 `mapstructure:"weight_review_velocity" yaml:"weight_review_velocity"`
	WeightFavorites       float64 `mapstructure:"weight_favorites" yaml:"weight_favorites"`
	WeightAdRatio         float64 `mapstructure:"weight_ad_ratio" yaml:"weight_ad_ratio"`
	WeightDominance       float64 `mapstructure:"weight_dominance" yaml:"weight_dominance"`
	WeightPriceDispersion float64 `mapstructure:"weight_price_dispersion" yaml:"weight_price_dispersion"`
	TopN                  int     `mapstructure:"top_n" yaml:"top_n"` // Rows printed by the score command (0 = all)
}

// Config is the full application configuration.
type Config struct {
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	Scoring   ScoringConfig   `mapstructure:"scoring" yaml:"scoring"`

	DatabasePath   string        `mapstructure:"database_path" yaml:"database_path"`     // Path to SQLite database file
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`           // HTTP User-Agent header
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // HTTP request timeout

	LogLevel string `mapstructure:"log_level" yaml:"log_level"` // debug|info|warn|error
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`   // Optional log file path
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			Budget:            500,
			MaxDepth:          3,
			MinExpand:         3,
			PrefixDelay:       1 * time.Second,
			DelayJitter:       0.2,
			SourceDelay:       250 * time.Millisecond,
			EnableMarketplace: true,
			EnableGeneral:     true,
			GeneralBias:       "buy handmade",
			MaxPerPrefix:      20,
		},
		Scoring: ScoringConfig{
			WeightReviewVelocity:  1.0,
			WeightFavorites:       0.5,
			WeightAdRatio:         0.8,
			WeightDominance:       0.6,
			WeightPriceDispersion: 0.4,
			TopN:                  50,
		},
		DatabasePath:   "./keydoru.db",
		UserAgent:      "Keydoru/1.0",
		RequestTimeout: 30 * time.Second,
		LogLevel:       "info",
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	d := &c.Discovery

	if d.Budget <= 0 {
		return ErrInvalidBudget
	}
	if d.MaxDepth <= 0 {
		return ErrInvalidMaxDepth
	}
	if d.MinExpand <= 0 {
		return ErrInvalidMinExpand
	}
	if d.DelayJitter < 0 || d.DelayJitter > 1 {
		return ErrInvalidJitter
	}
	if d.MaxPerPrefix <= 0 {
		d.MaxPerPrefix = 20
	}

	// Enforce a minimum politeness delay between prefixes
	if d.PrefixDelay < 100*time.Millisecond {
		d.PrefixDelay = 100 * time.Millisecond
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.DatabasePath == "" {
		return ErrEmptyDatabasePath
	}

	s := &c.Scoring
	for _, w := range []float64{
		s.WeightReviewVelocity, s.WeightFavorites, s.WeightAdRatio,
		s.WeightDominance, s.WeightPriceDispersion,
	} {
		if w < 0 {
			return ErrNegativeWeight
		}
	}

	return nil
}
