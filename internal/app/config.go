package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperifyio/covidmx/internal/cases"
	"github.com/hyperifyio/covidmx/internal/extract"
	"github.com/hyperifyio/covidmx/internal/listing"
	"github.com/hyperifyio/covidmx/internal/normalize"
)

// DefaultListingURL is the page that lists the daily technical bulletins.
const DefaultListingURL = "https://www.gob.mx/salud/documentos/coronavirus-covid-19-comunicado-tecnico-diario-238449"

// Config holds runtime configuration for the application.
type Config struct {
	// Fetch
	ListingURL  string
	BaseURL     string
	Container   string
	DownloadDir string
	UserAgent   string
	HTTPTimeout time.Duration

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	NoCache          bool

	// Parse
	Extractor       string
	Pages           string
	RowTolerance    float64
	MinNonNull      int
	VerifyIntegrity bool
	TablesDir       string
	LedgerPath      string

	// Bulletins and charts
	BulletinDir     string
	ChartDirs       []string
	CurrentDirs     []string
	CoordinatesPath string
	AssetsHost      string
	SummaryPDF      bool

	Verbose bool
	LogJSON bool
}

// DefaultConfig returns the settings used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		ListingURL:      DefaultListingURL,
		BaseURL:         listing.DefaultBaseURL,
		Container:       listing.DefaultContainer,
		DownloadDir:     "data/pdf",
		UserAgent:       "covidmx/" + BuildVersion,
		HTTPTimeout:     60 * time.Second,
		CacheDir:        ".covidmx-cache",
		Extractor:       extract.StreamBackend,
		Pages:           "all",
		RowTolerance:    extract.DefaultRowTolerance,
		MinNonNull:      normalize.DefaultMinNonNull,
		VerifyIntegrity: true,
		TablesDir:       "data/tablas",
		LedgerPath:      "data/info.tsv",
		BulletinDir:     "data/comunicados",
		ChartDirs:       []string{"docs/graficas"},
		CoordinatesPath: "misc/coord_estados_mexico.tsv",
	}
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.ListingURL) == "" {
		return errors.New("config: listing url is required")
	}
	if cfg.RowTolerance <= 0 {
		return errors.New("config: row tolerance must be positive")
	}
	if cfg.MinNonNull < 0 {
		return errors.New("config: min non-null threshold must not be negative")
	}
	if cfg.HTTPTimeout < 0 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	if _, err := extract.New(cfg.Extractor); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ValidateHeader rejects an override header that has no columns or blank
// names.
func ValidateHeader(header []string) error {
	if len(header) == 0 {
		return errors.New("config: header must not be empty")
	}
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("config: blank header name at position %d", i+1)
		}
	}
	return nil
}

// caseHeader is the typed column order used when no override is given.
func caseHeader() []string { return append([]string(nil), cases.Header...) }
