// Package config provides configuration types and defaults for dixel.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/log"
)

// Config holds all configuration options for dixel.
type Config struct {
	DBPath      string            `mapstructure:"db_path"`
	ExternalURL string            `mapstructure:"external_url"`
	Factory     FactoryConfig     `mapstructure:"factory"`
	RenderCache RenderCacheConfig `mapstructure:"render_cache"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	Log         LogConfig         `mapstructure:"log"`
}

// FactoryConfig holds the settings `dixel deploy` uses for a new factory.
type FactoryConfig struct {
	// Beneficiary receives creation and minting fees. Defaults to the deployer.
	Beneficiary string `mapstructure:"beneficiary"`

	// CreationFee is an amount in wei, or with a unit such as "0.01ether".
	CreationFee string `mapstructure:"creation_fee"`

	// MintingFee is the platform share of every mint, out of 10000.
	MintingFee uint64 `mapstructure:"minting_fee"`
}

// RenderCacheConfig controls the in-process SVG cache.
type RenderCacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/dixel/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// LogConfig controls the debug log file.
type LogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Level   string `mapstructure:"level"` // debug, info (default), warn, error
}

// DefaultDir returns ~/.config/dixel, or "" if the home dir is unavailable.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "dixel")
}

// DefaultDBPath returns the database location used when db_path is unset.
func DefaultDBPath() string {
	if dir := DefaultDir(); dir != "" {
		return filepath.Join(dir, "dixel.db")
	}
	return "dixel.db"
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	if dir := DefaultDir(); dir != "" {
		return filepath.Join(dir, "traces", "traces.jsonl")
	}
	return ""
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		DBPath:      DefaultDBPath(),
		ExternalURL: collection.DefaultExternalURL,
		Factory: FactoryConfig{
			CreationFee: "0",
			MintingFee:  500,
		},
		RenderCache: RenderCacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     DefaultTracesFilePath(),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("db_path is required")
	}
	if err := ValidateExternalURL(c.ExternalURL); err != nil {
		return err
	}
	if err := ValidateFactory(c.Factory); err != nil {
		return err
	}
	if c.RenderCache.TTL < 0 {
		return fmt.Errorf("render_cache.ttl must not be negative, got %s", c.RenderCache.TTL)
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	return ValidateLog(c.Log)
}

// ValidateExternalURL requires an absolute http(s) URL. Empty uses the default.
func ValidateExternalURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("external_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("external_url must be an absolute http(s) URL, got %q", raw)
	}
	if strings.Contains(raw, `"`) {
		return fmt.Errorf("external_url must not contain quotes")
	}
	return nil
}

// ValidateFactory checks the deploy settings.
func ValidateFactory(f FactoryConfig) error {
	if f.Beneficiary != "" {
		addr, err := chain.ParseAddress(f.Beneficiary)
		if err != nil {
			return fmt.Errorf("factory.beneficiary: %w", err)
		}
		if addr.IsZero() {
			return fmt.Errorf("factory.beneficiary must not be the zero address")
		}
	}
	if f.CreationFee != "" {
		if _, err := chain.ParseAmount(f.CreationFee); err != nil {
			return fmt.Errorf("factory.creation_fee: %w", err)
		}
	}
	if f.MintingFee > collection.FrictionBase {
		return fmt.Errorf("factory.minting_fee must be at most %d, got %d", collection.FrictionBase, f.MintingFee)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

func ValidateLog(l LogConfig) error {
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", l.Level)
	}
	if l.Enabled && l.Path == "" {
		return fmt.Errorf("log.path is required when logging is enabled")
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Dixel Configuration

# SQLite database holding accounts, factories and collections
# (default: ~/.config/dixel/dixel.db)
# db_path: /path/to/dixel.db

# Site linked from token and contract documents
external_url: https://dixel.club

# Settings used by 'dixel deploy'
factory:
  # beneficiary: 0x...        # Receives creation and minting fees (default: deployer)
  creation_fee: "0"           # Paid on every collection creation, in wei or e.g. "0.01ether"
  minting_fee: 500            # Platform share of every mint, out of 10000 (500 = 5%)

# Rendered SVG images are cached in-process
render_cache:
  enabled: true
  ttl: 10m

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/dixel/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)

# Debug log
# log:
#   enabled: true
#   path: dixel.log
#   level: debug
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
