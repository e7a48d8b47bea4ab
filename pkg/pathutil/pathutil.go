// Package pathutil provides safe path validation for user-supplied file paths.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePath cleans a user-supplied path and rejects directory traversal.
func ValidatePath(path string) (string, error) {
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("path contains directory traversal pattern: %s", path)
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}
	return absPath, nil
}

// ValidateConfigPath validates a configuration file path. Config and pattern
// files are expected to be YAML.
func ValidateConfigPath(path string) (string, error) {
	absPath, err := ValidatePath(path)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	if ext != ".yaml" && ext != ".yml" {
		return "", fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}
	return absPath, nil
}
