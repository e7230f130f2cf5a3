package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// resolveExternalPath returns path as-is if absolute, otherwise joins it with projectRoot.
func resolveExternalPath(projectRoot, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectRoot, path)
}

// loadDependencyFiles reads each file in DependencyFiles as a YAML list of
// coordinates and appends them to c.Dependencies. An artifact declared twice
// is an error naming both sources.
func (c *Config) loadDependencyFiles(projectRoot string) error {
	if len(c.DependencyFiles) == 0 {
		return nil
	}

	// Track where each artifact was declared for duplicate detection.
	sources := make(map[string]string, len(c.Dependencies))
	for _, dep := range c.Dependencies {
		sources[dep.Key()] = "inline config"
	}

	for _, relPath := range c.DependencyFiles {
		absPath := resolveExternalPath(projectRoot, relPath)
		data, err := os.ReadFile(absPath)
		if err != nil {
			return fmt.Errorf("load dependency file %q: %w", relPath, err)
		}

		var deps []Coordinate
		if err := yaml.Unmarshal(data, &deps); err != nil {
			return fmt.Errorf("parse dependency file %q: %w", relPath, err)
		}

		for _, dep := range deps {
			if existing, ok := sources[dep.Key()]; ok {
				return fmt.Errorf("dependency %s declared in both %s and %q", dep.Key(), existing, relPath)
			}
			sources[dep.Key()] = relPath
			c.Dependencies = append(c.Dependencies, dep)
		}
	}

	return nil
}
