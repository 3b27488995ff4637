package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/keydoru/keydoru/internal/config"
	"github.com/keydoru/keydoru/internal/enumerator"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Enumerate keyword candidates through the prefix frontier",
	Long: `Runs the budgeted breadth-first traversal over the phrase-prefix
space, querying the enabled autocomplete sources and persisting every
discovered (phrase, source, prefix) observation.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")
	discoverCmd.Flags().IntP("budget", "b", 500, "Stop after N distinct keywords")
	discoverCmd.Flags().Int("max-depth", 3, "Maximum prefix length")
	discoverCmd.Flags().Int("min-expand", 3, "Distinct new keywords required to expand a prefix")
	discoverCmd.Flags().StringSlice("alphabet", nil, "Expansion fragments (default a..z)")
	discoverCmd.Flags().StringSlice("prefixes", nil, "Initial prefixes (default the alphabet)")
	discoverCmd.Flags().DurationP("delay", "r", 0, "Delay between processed prefixes")
	discoverCmd.Flags().Bool("marketplace", true, "Query the marketplace autocomplete source")
	discoverCmd.Flags().Bool("general", true, "Query the general-web autocomplete source")
	discoverCmd.Flags().StringSlice("marketplace-endpoints", nil, "Marketplace endpoint templates in fallback order (%s = prefix)")
	discoverCmd.Flags().String("general-endpoint", "", "General suggestion endpoint template (%s = query)")
	discoverCmd.Flags().Int("max-per-prefix", 20, "Cap on candidates per prefix response")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"discovery.budget", "budget"},
		{"discovery.max_depth", "max-depth"},
		{"discovery.min_expand", "min-expand"},
		{"discovery.alphabet", "alphabet"},
		{"discovery.initial_prefixes", "prefixes"},
		{"discovery.prefix_delay", "delay"},
		{"discovery.enable_marketplace", "marketplace"},
		{"discovery.enable_general", "general"},
		{"discovery.marketplace_endpoints", "marketplace-endpoints"},
		{"discovery.general_endpoint", "general-endpoint"},
		{"discovery.max_per_prefix", "max-per-prefix"},
	}
	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, discoverCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if showConfig {
		return showCurrentConfig(cfg)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sources := buildSources(cfg)
	frontier := enumerator.NewFrontier(&cfg.Discovery, store, sources)

	runID := uuid.NewString()
	stats, err := frontier.Run(cmd.Context())
	if stats != nil {
		recordRun(store, runID, stats)
		printRunStats(stats)
	}
	return err
}

// buildSources creates the enabled suggestion sources in deterministic
// order: marketplace first, then general.
func buildSources(cfg *config.Config) []enumerator.SuggestionSource {
	var sources []enumerator.SuggestionSource
	d := cfg.Discovery

	if d.EnableMarketplace && len(d.MarketplaceEndpoints) > 0 {
		sources = append(sources, enumerator.NewMarketplaceSource(
			d.MarketplaceEndpoints, d.MaxPerPrefix, cfg.UserAgent, cfg.RequestTimeout))
	}
	if d.EnableGeneral && d.GeneralEndpoint != "" {
		sources = append(sources, enumerator.NewGeneralSource(
			d.GeneralEndpoint, d.GeneralBias, d.MaxPerPrefix, cfg.UserAgent, cfg.RequestTimeout))
	}

	return sources
}

// recordRun stores the run's stats under run metadata, best effort.
func recordRun(store interface {
	SetMeta(key, value string) error
}, runID string, stats *enumerator.RunStats) {
	payload, err := json.Marshal(stats)
	if err != nil {
		return
	}
	_ = store.SetMeta("last_discover_run", runID)
	_ = store.SetMeta("last_discover_stats", string(payload))
}

func printRunStats(stats *enumerator.RunStats) {
	fmt.Printf("Enumeration finished in %v\n", stats.Duration.Round(time.Millisecond))
	fmt.Printf("  Prefixes processed:    %d\n", stats.PrefixesProcessed)
	fmt.Printf("  Unique keywords:       %d\n", stats.UniqueKeywords)
	fmt.Printf("  Suggestions persisted: %d\n", stats.SuggestionsPersisted)
	for source, count := range stats.PerSource {
		fmt.Printf("    %-12s %d\n", source+":", count)
	}
	fmt.Printf("  Budget exhausted:      %t\n", stats.BudgetExhausted)
}
