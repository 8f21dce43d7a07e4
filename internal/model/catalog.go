package model

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk schema for a model catalog overlay.
type catalogFile struct {
	Models []Entry `yaml:"models"`
}

// LoadCatalog merges model entries from YAML files in dir into the
// registry. Files must have a .yaml or .yml extension; entries override
// built-ins with the same ID. A missing directory is not an error.
func (r *Registry) LoadCatalog(dir string, logger *slog.Logger) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("model catalog directory does not exist, skipping", "dir", dir)
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read catalog dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read catalog file", "path", path, "err", err)
			continue
		}

		var cat catalogFile
		if err := yaml.Unmarshal(data, &cat); err != nil {
			logger.Warn("cannot parse catalog file", "path", path, "err", err)
			continue
		}

		for _, m := range cat.Models {
			if m.ID == "" || m.Route == "" {
				logger.Warn("skipping catalog entry without id or route", "path", path)
				continue
			}
			r.add(m)
			logger.Info("loaded catalog model", "id", m.ID, "route", m.Route, "path", path)
		}
	}

	return nil
}
