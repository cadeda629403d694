package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"appbundler/internal/core"
)

// Validate loads and resolves a manifest without producing anything,
// reporting the resolved metadata and any soft problems it can detect
// up front (missing icon files, globs that match nothing).
func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	manifestPath := strings.TrimSpace(req.ManifestPath)
	if manifestPath == "" {
		manifestPath = defaultManifestName
	}
	manifest, err := s.Manifest.LoadManifest(manifestPath)
	if err != nil {
		return ValidateResult{}, err
	}
	root, err := filepath.Abs(filepath.Dir(manifestPath))
	if err != nil {
		return ValidateResult{}, err
	}

	binaryName := fallbackString(manifest.Project.Name, "app")
	spec, err := core.NewManifestResolver().Resolve(manifest, binaryName)
	if err != nil {
		return ValidateResult{}, err
	}

	result := ValidateResult{
		Name:       spec.Name,
		Identifier: spec.Identifier,
		Version:    spec.Version,
	}
	collected, err := core.NewResourceCollector(root).Collect(spec.Resources)
	if err != nil {
		return ValidateResult{}, err
	}
	result.Warnings = append(result.Warnings, collected.Warnings...)
	for _, icon := range spec.Icons {
		path := icon
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if _, statErr := os.Stat(path); statErr != nil {
			result.Warnings = append(result.Warnings, "icon file not found: "+icon)
		}
	}
	return result, nil
}
