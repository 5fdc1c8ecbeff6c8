package storage

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/minsnailee/llm-detective/pkg/scenario"
)

// ScenarioStore serves scenario documents from a data directory, one
// JSON file per scenario. Authoring and approval happen elsewhere; this
// store only reads.
type ScenarioStore struct {
	dataDir string
	logger  *slog.Logger
}

func NewScenarioStore(dataDir string, logger *slog.Logger) *ScenarioStore {
	if dataDir == "" {
		dataDir = "./data"
	}
	return &ScenarioStore{dataDir: dataDir, logger: logger}
}

// List returns scenario titles keyed to their filenames. Unreadable or
// malformed files are skipped with a warning.
func (s *ScenarioStore) List() (map[string]string, error) {
	dir := filepath.Join(s.dataDir, "scenarios")
	scenarios := make(map[string]string)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		file, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("Failed to read scenario file", "path", path, "error", err)
			return nil
		}

		var detail scenario.Detail
		if err := json.Unmarshal(file, &detail); err != nil {
			s.logger.Warn("Failed to unmarshal scenario file", "path", path, "error", err)
			return nil
		}

		scenarios[detail.Title] = filepath.Base(path)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	return scenarios, nil
}

// Get loads one scenario by filename.
func (s *ScenarioStore) Get(filename string) (*scenario.Detail, error) {
	path := filepath.Join(s.dataDir, "scenarios", filepath.Base(filename))

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scenario not found: %s", filename)
		}
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var detail scenario.Detail
	if err := json.Unmarshal(file, &detail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario: %w", err)
	}
	return &detail, nil
}
