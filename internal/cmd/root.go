// Package cmd provides the command-line interface for keydoru.
// It handles command parsing, configuration loading, and wiring of the
// discovery and scoring pipeline stages.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/keydoru/keydoru/internal/config"
	"github.com/keydoru/keydoru/internal/logging"
	"github.com/keydoru/keydoru/internal/storage"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "keydoru",
	Short: "Seedless keyword opportunity discovery for marketplace storefronts",
	Long: `Keydoru discovers marketable search phrases without a seed list by
exploring the phrase-prefix space through autocomplete sources, merges
independently collected demand and competition signals per keyword,
and ranks keywords by opportunity score.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./keydoru.yml)")
	rootCmd.PersistentFlags().StringP("database", "d", "./keydoru.db", "Path to SQLite database file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "Optional log file path")
	rootCmd.PersistentFlags().DurationP("timeout", "t", 30*time.Second, "HTTP request timeout")
	rootCmd.PersistentFlags().StringP("user-agent", "u", "Keydoru/1.0", "HTTP User-Agent header")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"database_path", "database"},
		{"log_level", "log-level"},
		{"log_file", "log-file"},
		{"request_timeout", "timeout"},
		{"user_agent", "user-agent"},
	}

	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.PersistentFlags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("keydoru")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("KD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, config file, environment and flags, then
// installs the logger and validates.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	opts := logging.DefaultOptions()
	opts.Level = logging.ParseLevel(cfg.LogLevel)
	opts.FilePath = cfg.LogFile
	if err := logging.Setup(opts); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// openStore opens the SQLite store at the configured path.
func openStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// showCurrentConfig dumps the merged configuration as YAML.
func showCurrentConfig(cfg *config.Config) error {
	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Current keydoru configuration\n")
	fmt.Printf("# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Printf("# Environment variables prefix: KD_\n\n")
	fmt.Print(string(yamlData))
	return nil
}
