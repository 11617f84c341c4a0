package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const manifestName = "manifest.json"

// Manifest records which raw artifacts belong to the latest run, in
// configuration city order. It is bookkeeping, not a raw artifact: it is
// rewritten each run while the files it points at are never touched again.
type Manifest struct {
	RunID     string          `json:"run_id"`
	StartedAt string          `json:"started_at"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Files     []ManifestEntry `json:"files"`
}

type ManifestEntry struct {
	City string `json:"city"`
	Path string `json:"path"`
}

func (m *Manifest) Write(rawDir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(rawDir, manifestName), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads the latest run's manifest from the raw directory.
func LoadManifest(rawDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(rawDir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("read manifest (run extract first?): %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
