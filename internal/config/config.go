// Package config loads periodmap settings from .env files, the environment
// and an optional YAML config file.
//
// Precedence, highest first:
//  1. Command-line flags (applied by the CLI through UpdateFromFlags)
//  2. PERIODMAP_* environment variables
//  3. .env.local and .env in the working directory
//  4. periodmap.yaml in the working directory or ~/.config/periodmap
//  5. Defaults from pkg/constants
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/periodmap"
	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/constants"
	"github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/logging"
	"github.com/agentstation/periodmap/pkg/period"
)

// Config keys. Environment variables are the upper-case key with the
// PERIODMAP_ prefix, for example PERIODMAP_CUTOFF_YEAR.
const (
	KeyListingURL      = "listing_url"
	KeyContentSelector = "content_selector"
	KeyCacheFile       = "cache_file"
	KeyStaticDir       = "static_dir"
	KeyCutoffYear      = "cutoff_year"
	KeyStartYear       = "start_year"
	KeyMinYear         = "min_year"
	KeyMaxYear         = "max_year"
	KeyHTTPTimeout     = "http_timeout"
	KeyUserAgent       = "user_agent"
	KeyWorkers         = "workers"
	KeyCategories      = "categories"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyLogOutput       = "log_output"
)

// Config holds the settings loaded from all sources.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Output  string

	// Config file actually read, empty when none was found
	ConfigFile string

	// Listing page
	ListingURL      string
	ContentSelector string
	HTTPTimeout     time.Duration
	UserAgent       string

	// Storage
	CacheFile string
	StaticDir string

	// Reconciliation
	CutoffYear int
	StartYear  int
	MinYear    int
	MaxYear    int
	Workers    int

	// Categories overrides the heading keyword table when not empty
	Categories catalogs.CategoryTable

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
	LogFields map[string]any
}

// Load reads the configuration. An explicit configFile must exist; without
// one the default locations are searched and a missing file is fine.
func Load(configFile string) (*Config, error) {
	// .env files first so their values are visible to viper
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(constants.DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", constants.DefaultConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "reading config file", err)
		}
	}

	// LOG_* variables apply when no periodmap-specific key is set
	env := logging.ConfigFromEnv()

	cfg := &Config{
		ConfigFile: v.ConfigFileUsed(),

		ListingURL:      v.GetString(KeyListingURL),
		ContentSelector: v.GetString(KeyContentSelector),
		HTTPTimeout:     v.GetDuration(KeyHTTPTimeout),
		UserAgent:       v.GetString(KeyUserAgent),

		CacheFile: v.GetString(KeyCacheFile),
		StaticDir: v.GetString(KeyStaticDir),

		CutoffYear: v.GetInt(KeyCutoffYear),
		StartYear:  v.GetInt(KeyStartYear),
		MinYear:    v.GetInt(KeyMinYear),
		MaxYear:    v.GetInt(KeyMaxYear),
		Workers:    v.GetInt(KeyWorkers),

		LogLevel:  firstNonEmpty(v.GetString(KeyLogLevel), env.Level),
		LogFormat: firstNonEmpty(v.GetString(KeyLogFormat), env.Format),
		LogOutput: firstNonEmpty(v.GetString(KeyLogOutput), env.Output),
		LogFields: env.Fields,
	}

	if v.IsSet(KeyCategories) {
		if err := v.UnmarshalKey(KeyCategories, &cfg.Categories); err != nil {
			return nil, errors.NewConfigError("config", "decoding categories", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it.
func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyListingURL, constants.DefaultListingURL)
	v.SetDefault(KeyContentSelector, constants.DefaultContentSelector)
	v.SetDefault(KeyHTTPTimeout, constants.DefaultHTTPTimeout)
	v.SetDefault(KeyUserAgent, constants.DefaultUserAgent)
	v.SetDefault(KeyCacheFile, constants.DefaultCacheFile)
	v.SetDefault(KeyStaticDir, constants.DefaultStaticDir)
	v.SetDefault(KeyCutoffYear, constants.DefaultCutoffYear)
	v.SetDefault(KeyStartYear, constants.DefaultStartYear)
	v.SetDefault(KeyMinYear, constants.DefaultMinYear)
	v.SetDefault(KeyMaxYear, constants.DefaultMaxYear)
	v.SetDefault(KeyWorkers, constants.DefaultWorkers)
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyLogFormat, "")
	v.SetDefault(KeyLogOutput, "")
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.ListingURL == "" {
		return errors.NewConfigError("config", KeyListingURL+" is required", nil)
	}
	if c.CacheFile == "" {
		return errors.NewConfigError("config", KeyCacheFile+" is required", nil)
	}
	if c.HTTPTimeout <= 0 {
		return errors.NewConfigError("config", KeyHTTPTimeout+" must be positive", nil)
	}
	if c.Workers < 1 || c.Workers > constants.MaxWorkers {
		return errors.NewConfigError("config", KeyWorkers+" is out of range", nil)
	}
	if c.StartYear > c.CutoffYear {
		return errors.NewConfigError("config", KeyStartYear+" is after "+KeyCutoffYear, nil)
	}
	if err := (period.Bounds{MinYear: c.MinYear, MaxYear: c.MaxYear}).Validate(); err != nil {
		return errors.NewConfigError("config", "invalid year bounds", err)
	}
	if len(c.Categories) > 0 {
		if err := c.Categories.Validate(); err != nil {
			return errors.NewConfigError("config", "invalid "+KeyCategories, err)
		}
	}
	return nil
}

// UpdateFromFlags applies parsed command flags. An explicit log level wins
// over the verbose and quiet shortcuts; quiet wins when both are set.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, output, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if output != "" {
		c.Output = output
	}

	switch {
	case logLevel != "":
		c.LogLevel = logLevel
	case quiet:
		c.LogLevel = "warn"
	case verbose:
		c.LogLevel = "debug"
	}
}

// Options converts the configuration to client options.
func (c *Config) Options() []periodmap.Option {
	opts := []periodmap.Option{
		periodmap.WithListingURL(c.ListingURL),
		periodmap.WithContentSelector(c.ContentSelector),
		periodmap.WithHTTPTimeout(c.HTTPTimeout),
		periodmap.WithUserAgent(c.UserAgent),
		periodmap.WithCacheFile(c.CacheFile),
		periodmap.WithStaticDir(c.StaticDir),
		periodmap.WithCutoffYear(c.CutoffYear),
		periodmap.WithStartYear(c.StartYear),
		periodmap.WithYearBounds(c.MinYear, c.MaxYear),
		periodmap.WithWorkers(c.Workers),
	}
	if len(c.Categories) > 0 {
		opts = append(opts, periodmap.WithCategoryTable(c.Categories))
	}
	return opts
}

// loadEnvFiles loads environment variables from .env files. Variables already
// set are kept, and .env.local is read first so it overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
