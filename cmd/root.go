package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/dixel/internal/config"
	"github.com/zjrosen/dixel/internal/log"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply does not race the input loop of `events --follow`.
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	cfg     config.Config

	dbFlag    string
	fromFlag  string
	valueFlag string
	jsonFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "dixel",
	Short: "Pixel-art edition collections on a local ledger",
	Long: `Dixel keeps a factory of pixel-art collections in a local SQLite ledger.

A collection is one 24x24 canvas; every edition minted from it carries its own
32-color palette. Accounts are addresses with balances; use 'dixel faucet' to
fund them. Addresses may be given as 0x-prefixed hex or as a plain name such
as "alice", which always maps to the same address.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/dixel/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "",
		"database path (overrides db_path)")
	rootCmd.PersistentFlags().StringVar(&fromFlag, "from", "",
		"sending account for transactions")
	rootCmd.PersistentFlags().StringVar(&valueFlag, "value", "",
		`amount sent with the transaction, in wei or with a unit ("0.01ether")`)
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false,
		"print results as JSON")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("db_path", defaults.DBPath)
	viper.SetDefault("external_url", defaults.ExternalURL)
	viper.SetDefault("factory.beneficiary", defaults.Factory.Beneficiary)
	viper.SetDefault("factory.creation_fee", defaults.Factory.CreationFee)
	viper.SetDefault("factory.minting_fee", defaults.Factory.MintingFee)
	viper.SetDefault("render_cache.enabled", defaults.RenderCache.Enabled)
	viper.SetDefault("render_cache.ttl", defaults.RenderCache.TTL)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("log.enabled", defaults.Log.Enabled)
	viper.SetDefault("log.path", defaults.Log.Path)
	viper.SetDefault("log.level", defaults.Log.Level)

	viper.SetConfigFile(configPath())
	if err := viper.ReadInConfig(); err != nil {
		// No config yet: write the commented default so users can find it.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			if writeErr := config.WriteDefaultConfig(configPath()); writeErr == nil {
				_ = viper.ReadInConfig()
			}
		} else {
			fmt.Fprintf(os.Stderr, "warning: reading config: %v\n", err)
		}
	}

	cfg = config.Config{}
	_ = viper.Unmarshal(&cfg)
	if dbFlag != "" {
		cfg.DBPath = dbFlag
	}
}

// configPath resolves the config file: --config, then .dixel/config.yaml in
// the working directory, then ~/.config/dixel/config.yaml.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	local := filepath.Join(".dixel", "config.yaml")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	if dir := config.DefaultDir(); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return local
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		log.ErrorErr(log.CatCLI, "command failed", err)
	}
	return err
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
