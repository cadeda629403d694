package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appbundler/internal/types"
)

func TestLoadManifestResourceForms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`project:
  name: demo
  version: 1.0.0
bundle:
  identifier: com.example.demo
  resources:
    - assets/logo.png
    - from: build/*.json
      to: config
`), 0o644))

	manifest, err := NewManifestFileAdapter().LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", manifest.Project.Name)
	require.Len(t, manifest.Bundle.Resources, 2)
	assert.Equal(t, types.ResourceRef{From: "assets/logo.png"}, manifest.Bundle.Resources[0])
	assert.Equal(t, types.ResourceRef{From: "build/*.json", To: "config"}, manifest.Bundle.Resources[1])
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := NewManifestFileAdapter().LoadManifest(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestLoadManifestMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project: [unterminated"), 0o644))

	_, err := NewManifestFileAdapter().LoadManifest(path)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestLoadManifestRejectsBadResourceEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`bundle:
  resources:
    - [not, a, resource]
`), 0o644))

	_, err := NewManifestFileAdapter().LoadManifest(path)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
