package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/stackscan/internal/fetcher"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "stackscan"

	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = fetcher.DefaultTimeout

	// DefaultMaxPages is the page budget per seed URL.
	DefaultMaxPages = 10

	// MaxMaxPages is the largest accepted page budget.
	MaxMaxPages = 100

	// DefaultBatchSize is the number of seeds crawled concurrently.
	DefaultBatchSize = 4

	// DefaultUserAgent is sent with every request unless overridden.
	DefaultUserAgent = fetcher.DefaultUserAgent

	// DefaultMaxBodySize limits the response body size to read.
	DefaultMaxBodySize = fetcher.DefaultMaxBodySize
)

// Config holds all configuration options for stackscan.
// It is populated from CLI flags and passed through the application
// rather than kept in global state.
type Config struct {
	// Timeout is the timeout for each HTTP request.
	Timeout time.Duration

	// MaxPages is the maximum number of pages fetched per seed URL.
	MaxPages int

	// Verbose enables debug log output.
	Verbose bool

	// BatchSize is the number of seeds crawled concurrently.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile decides.
	ConfigFilePath string

	// SiteConfigs holds the loaded configuration file, if any.
	SiteConfigs *File

	// JSONReport selects JSON output.
	JSONReport bool

	// MarkdownReport selects Markdown output, which is also the default.
	MarkdownReport bool

	// TableReport selects terminal table output.
	TableReport bool

	// Summary prepends a site-wide summary to the Markdown report.
	Summary bool

	// ReportFile is the output file path for the report.
	// When empty, the report goes to stdout.
	ReportFile string

	// Targets is the list of seed URLs to crawl.
	Targets []string

	// DBDir is the directory holding the scan database.
	DBDir string

	// SaveToDB stores finished scans in the database.
	SaveToDB bool

	// SkipRecent skips seeds already scanned within this duration.
	// Zero disables the check.
	SkipRecent time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		MaxPages:    DefaultMaxPages,
		BatchSize:   DefaultBatchSize,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		DBDir:       XDGDataDir(),
		SaveToDB:    true,
	}
}

// XDGDataDir returns the XDG data directory for stackscan.
// On Linux: ~/.local/share/stackscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for stackscan.
// On Linux: ~/.config/stackscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxPages < 1 || c.MaxPages > MaxMaxPages {
		return ErrInvalidMaxPages
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	formats := 0
	for _, selected := range []bool{c.JSONReport, c.MarkdownReport, c.TableReport} {
		if selected {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.SkipRecent < 0 {
		return ErrInvalidSkipRecent
	}

	return nil
}
