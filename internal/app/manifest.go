package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hyperifyio/covidmx/internal/fileutil"
)

// manifestOptions records the settings that shaped a parse run.
type manifestOptions struct {
	Extractor       string   `json:"extractor"`
	Pages           string   `json:"pages"`
	RowTolerance    float64  `json:"row_tolerance"`
	MinNonNull      int      `json:"min_non_null"`
	VerifyIntegrity bool     `json:"verify_integrity"`
	Header          []string `json:"header"`
	RawHeader       bool     `json:"raw_header"`
	NewCases        string   `json:"new_cases,omitempty"`
}

// manifest is the machine-readable sidecar written next to every case table.
type manifest struct {
	RunID       string          `json:"run_id"`
	Version     string          `json:"version"`
	Source      string          `json:"source"`
	SourceSHA   string          `json:"source_sha256"`
	Output      string          `json:"output"`
	Date        string          `json:"date,omitempty"`
	Grids       int             `json:"grids"`
	Rows        int             `json:"rows"`
	Annotated   int             `json:"annotated"`
	Options     manifestOptions `json:"options"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// fileSHA256Hex returns a lowercase hex-encoded SHA-256 of the file at path.
func fileSHA256Hex(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// deriveManifestSidecarPath returns a sidecar JSON path next to the output table.
func deriveManifestSidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}

func writeManifest(path string, m manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return fileutil.WriteAtomicBytes(path, append(data, '\n'))
}
