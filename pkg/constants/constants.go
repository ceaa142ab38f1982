// Package constants provides shared constants used throughout the periodmap codebase.
// This includes timeouts, period bounds, file permissions, and other configuration
// values that should be consistent across the library and the CLI.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for fetching the listing page
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 5 * time.Minute
)

// Period bounds and strategy selection
const (
	// DefaultMinYear is the lowest year accepted for an extracted period
	DefaultMinYear = 2020

	// DefaultMaxYear is the highest year accepted for an extracted period
	DefaultMaxYear = 2030

	// DefaultCutoffYear is the first year served by the live crawl instead of static captures
	DefaultCutoffYear = 2025

	// DefaultStartYear is the first year of the expected range when none is given
	DefaultStartYear = 2020
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// DefaultWorkers is the default size of the bounded worker pool
	DefaultWorkers = 4

	// MaxWorkers caps the worker pool regardless of configuration
	MaxWorkers = 32

	// MaxPageBytes is the largest listing page body read into memory (16 MB)
	MaxPageBytes = 16 << 20

	// ContextAncestorLevels is how far up the tree a static capture looks for date text
	ContextAncestorLevels = 5

	// ContextMinChars stops the ancestor climb once this much text has been collected
	ContextMinChars = 200
)

// Publisher defaults
const (
	// DefaultListingURL is the CMED price list listing page
	DefaultListingURL = "https://www.gov.br/anvisa/pt-br/assuntos/medicamentos/cmed/precos/anos-anteriores/anos-anteriores"

	// DefaultContentSelector selects the primary content region of the listing page
	DefaultContentSelector = "#content-core"

	// DefaultUserAgent is sent with every listing page request
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// DefaultAccept is the Accept header sent with every listing page request
	DefaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	// DefaultAcceptLanguage is the Accept-Language header sent with every request
	DefaultAcceptLanguage = "pt-BR,pt;q=0.9,en;q=0.8"
)

// Path constants
const (
	// DefaultCacheFile is the default location of the known-periods cache
	DefaultCacheFile = "data/cache/known_periods.yaml"

	// DefaultStaticDir is the default root of the static capture store
	DefaultStaticDir = "data/snippets"

	// DefaultConfigName is the config file name searched for by the CLI (without extension)
	DefaultConfigName = "periodmap"

	// EnvPrefix prefixes every environment variable read by the config loader
	EnvPrefix = "PERIODMAP"
)

// Export constants
const (
	// ExportDelimiter is the default column delimiter of the catalog export
	ExportDelimiter = ';'

	// TimeFormatExport is the collection timestamp format of the catalog export
	TimeFormatExport = time.RFC3339
)
