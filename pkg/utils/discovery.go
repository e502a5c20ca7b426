package utils

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverConfigs finds every YAML configuration file under dir, sorted by
// path. Hidden directories are skipped.
func DiscoverConfigs(dir string) ([]string, error) {
	var configs []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if IsConfigFile(path) {
			configs = append(configs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan for configurations: %w", err)
	}

	sort.Strings(configs)
	return configs, nil
}

// IsConfigFile reports whether path has a YAML extension
func IsConfigFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
