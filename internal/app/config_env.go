package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix namespaces every environment variable read by covidmx.
const EnvPrefix = "COVIDMX_"

func getenv(key string) string { return strings.TrimSpace(os.Getenv(EnvPrefix + key)) }

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. Env takes precedence over the
// config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	strs := []struct {
		key string
		dst *string
	}{
		{"LISTING_URL", &cfg.ListingURL},
		{"BASE_URL", &cfg.BaseURL},
		{"CONTAINER", &cfg.Container},
		{"DOWNLOAD_DIR", &cfg.DownloadDir},
		{"USER_AGENT", &cfg.UserAgent},
		{"CACHE_DIR", &cfg.CacheDir},
		{"EXTRACTOR", &cfg.Extractor},
		{"PAGES", &cfg.Pages},
		{"TABLES_DIR", &cfg.TablesDir},
		{"LEDGER", &cfg.LedgerPath},
		{"BULLETIN_DIR", &cfg.BulletinDir},
		{"COORDINATES", &cfg.CoordinatesPath},
		{"ASSETS_HOST", &cfg.AssetsHost},
	}
	for _, s := range strs {
		if v := getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	lists := []struct {
		key string
		dst *[]string
	}{
		{"CHART_DIRS", &cfg.ChartDirs},
		{"CURRENT_DIRS", &cfg.CurrentDirs},
	}
	for _, l := range lists {
		if v := getenv(l.key); v != "" {
			*l.dst = SplitList(v)
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", &cfg.HTTPTimeout},
		{"CACHE_MAX_AGE", &cfg.CacheMaxAge},
	}
	for _, d := range durations {
		if v := getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("env %s%s: %w", EnvPrefix, d.key, err)
			}
			*d.dst = parsed
		}
	}

	if v := getenv("ROW_TOLERANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("env %sROW_TOLERANCE: %w", EnvPrefix, err)
		}
		cfg.RowTolerance = f
	}
	if v := getenv("MIN_NON_NULL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %sMIN_NON_NULL: %w", EnvPrefix, err)
		}
		cfg.MinNonNull = n
	}

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, key string) {
		switch strings.ToLower(getenv(key)) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.NoCache, "NO_CACHE")
	setBool(&cfg.VerifyIntegrity, "VERIFY_INTEGRITY")
	setBool(&cfg.SummaryPDF, "SUMMARY_PDF")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.LogJSON, "LOG_JSON")
	return nil
}

// SplitList splits a comma separated list, dropping blank items.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfig layers defaults, the optional config file and the environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		fc, err := LoadConfigFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		if err := ApplyFileConfig(&cfg, fc); err != nil {
			return cfg, err
		}
	}
	if err := ApplyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
