package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags and env.
type FileConfig struct {
	Fetch struct {
		Listing   string `yaml:"listing" json:"listing" toml:"listing"`
		Base      string `yaml:"base" json:"base" toml:"base"`
		Container string `yaml:"container" json:"container" toml:"container"`
		Dir       string `yaml:"dir" json:"dir" toml:"dir"`
		UA        string `yaml:"ua" json:"ua" toml:"ua"`
		Timeout   string `yaml:"timeout" json:"timeout" toml:"timeout"`
	} `yaml:"fetch" json:"fetch" toml:"fetch"`

	Cache struct {
		Dir         string `yaml:"dir" json:"dir" toml:"dir"`
		MaxAge      string `yaml:"maxAge" json:"maxAge" toml:"maxAge"`
		Clear       bool   `yaml:"clear" json:"clear" toml:"clear"`
		StrictPerms bool   `yaml:"strictPerms" json:"strictPerms" toml:"strictPerms"`
		Disable     bool   `yaml:"disable" json:"disable" toml:"disable"`
	} `yaml:"cache" json:"cache" toml:"cache"`

	Parse struct {
		Extractor       string  `yaml:"extractor" json:"extractor" toml:"extractor"`
		Pages           string  `yaml:"pages" json:"pages" toml:"pages"`
		RowTolerance    float64 `yaml:"rowTolerance" json:"rowTolerance" toml:"rowTolerance"`
		MinNonNull      int     `yaml:"minNonNull" json:"minNonNull" toml:"minNonNull"`
		VerifyIntegrity *bool   `yaml:"verifyIntegrity" json:"verifyIntegrity" toml:"verifyIntegrity"`
		TablesDir       string  `yaml:"tablesDir" json:"tablesDir" toml:"tablesDir"`
		Ledger          string  `yaml:"ledger" json:"ledger" toml:"ledger"`
	} `yaml:"parse" json:"parse" toml:"parse"`

	Charts struct {
		BulletinDir string   `yaml:"bulletinDir" json:"bulletinDir" toml:"bulletinDir"`
		Dirs        []string `yaml:"dirs" json:"dirs" toml:"dirs"`
		Current     []string `yaml:"current" json:"current" toml:"current"`
		Coordinates string   `yaml:"coordinates" json:"coordinates" toml:"coordinates"`
		AssetsHost  string   `yaml:"assetsHost" json:"assetsHost" toml:"assetsHost"`
		SummaryPDF  bool     `yaml:"summaryPDF" json:"summaryPDF" toml:"summaryPDF"`
	} `yaml:"charts" json:"charts" toml:"charts"`

	Verbose bool `yaml:"verbose" json:"verbose" toml:"verbose"`
	LogJSON bool `yaml:"logJSON" json:"logJSON" toml:"logJSON"`
}

// LoadConfigFile reads YAML, JSON or TOML into FileConfig, chosen by
// extension.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse toml: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value set in fc onto cfg. It runs right
// after defaults, so anything present in the file wins over them.
func ApplyFileConfig(cfg *Config, fc FileConfig) error {
	if cfg == nil {
		return nil
	}
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, v, key string) error {
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	setString(&cfg.ListingURL, fc.Fetch.Listing)
	setString(&cfg.BaseURL, fc.Fetch.Base)
	setString(&cfg.Container, fc.Fetch.Container)
	setString(&cfg.DownloadDir, fc.Fetch.Dir)
	setString(&cfg.UserAgent, fc.Fetch.UA)
	if err := setDuration(&cfg.HTTPTimeout, fc.Fetch.Timeout, "fetch.timeout"); err != nil {
		return err
	}

	setString(&cfg.CacheDir, fc.Cache.Dir)
	if err := setDuration(&cfg.CacheMaxAge, fc.Cache.MaxAge, "cache.maxAge"); err != nil {
		return err
	}
	cfg.CacheClear = cfg.CacheClear || fc.Cache.Clear
	cfg.CacheStrictPerms = cfg.CacheStrictPerms || fc.Cache.StrictPerms
	cfg.NoCache = cfg.NoCache || fc.Cache.Disable

	setString(&cfg.Extractor, fc.Parse.Extractor)
	setString(&cfg.Pages, fc.Parse.Pages)
	if fc.Parse.RowTolerance != 0 {
		cfg.RowTolerance = fc.Parse.RowTolerance
	}
	if fc.Parse.MinNonNull != 0 {
		cfg.MinNonNull = fc.Parse.MinNonNull
	}
	if fc.Parse.VerifyIntegrity != nil {
		cfg.VerifyIntegrity = *fc.Parse.VerifyIntegrity
	}
	setString(&cfg.TablesDir, fc.Parse.TablesDir)
	setString(&cfg.LedgerPath, fc.Parse.Ledger)

	setString(&cfg.BulletinDir, fc.Charts.BulletinDir)
	if len(fc.Charts.Dirs) > 0 {
		cfg.ChartDirs = append([]string{}, fc.Charts.Dirs...)
	}
	if len(fc.Charts.Current) > 0 {
		cfg.CurrentDirs = append([]string{}, fc.Charts.Current...)
	}
	setString(&cfg.CoordinatesPath, fc.Charts.Coordinates)
	setString(&cfg.AssetsHost, fc.Charts.AssetsHost)
	cfg.SummaryPDF = cfg.SummaryPDF || fc.Charts.SummaryPDF

	cfg.Verbose = cfg.Verbose || fc.Verbose
	cfg.LogJSON = cfg.LogJSON || fc.LogJSON
	return nil
}
