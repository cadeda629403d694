package app

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appbundler/internal/adapters"
	"appbundler/internal/types"
)

type fakeToolRunner struct {
	missing map[string]bool
	calls   [][]string
	onRun   func(dir string, name string, args []string) error
}

func (f *fakeToolRunner) LookPath(name string) error {
	if f.missing[name] {
		return errors.New("executable file not found in $PATH")
	}
	return nil
}

func (f *fakeToolRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.onRun != nil {
		if err := f.onRun(dir, name, args); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

const sampleManifest = `project:
  name: demo
  version: 1.2.0
  description: a demo application
  homepage: https://demo.acme.test
  authors:
    - Acme <dev@acme.test>
bundle:
  identifier: com.acme.demo
  icon:
    - assets/icon.png
  resources:
    - assets/logo.png
  deb_depends:
    - libc6
    - libssl3
`

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "bundle.yaml"), []byte(sampleManifest), 0o644))

	assets := filepath.Join(root, "assets")
	require.NoError(t, os.MkdirAll(assets, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(assets, "logo.png"), []byte("logo"), 0o644))

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	iconFile, err := os.Create(filepath.Join(assets, "icon.png"))
	require.NoError(t, err)
	defer iconFile.Close()
	require.NoError(t, png.Encode(iconFile, img))

	binDir := filepath.Join(root, "target", "debug")
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "demo"), []byte("\x7fELF"), 0o755))
	return root
}

func TestBundleDebEndToEnd(t *testing.T) {
	root := writeProject(t)

	var sawBinary, sawResource, sawIcon bool
	var control, desktop string
	tools := &fakeToolRunner{
		onRun: func(dir string, name string, args []string) error {
			treeRoot := args[len(args)-2]
			exists := func(rel string) bool {
				_, err := os.Stat(filepath.Join(treeRoot, filepath.FromSlash(rel)))
				return err == nil
			}
			sawBinary = exists("usr/bin/demo")
			sawResource = exists("usr/lib/demo/assets/logo.png")
			sawIcon = exists("usr/share/icons/hicolor/64x64/apps/demo.png")
			if data, err := os.ReadFile(filepath.Join(treeRoot, "DEBIAN", "control")); err == nil {
				control = string(data)
			}
			if data, err := os.ReadFile(filepath.Join(treeRoot, "usr", "share", "applications", "demo.desktop")); err == nil {
				desktop = string(data)
			}
			return os.WriteFile(args[len(args)-1], []byte("deb"), 0o644)
		},
	}
	service := Service{Manifest: adapters.NewManifestFileAdapter(), Tools: tools}

	result, err := service.Bundle(t.Context(), BundleRequest{
		ManifestPath: filepath.Join(root, "bundle.yaml"),
		Format:       types.FormatDeb,
	})
	require.NoError(t, err)

	assert.True(t, sawBinary, "binary must land in usr/bin")
	assert.True(t, sawResource, "resources must keep their project-relative layout")
	assert.True(t, sawIcon, "largest icon must install under hicolor")
	assert.Contains(t, control, "Package: demo\n")
	assert.Contains(t, control, "Depends: libc6, libssl3\n")
	assert.Contains(t, desktop, "Icon=demo\n")

	base := filepath.Base(result.ArtifactPath)
	assert.True(t, strings.HasPrefix(base, "demo_1.2.0_"), "unexpected artifact name %q", base)
	assert.True(t, strings.HasSuffix(base, ".deb"))
	_, err = os.Stat(result.ArtifactPath)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
}

func TestBundleRejectsUnknownFormat(t *testing.T) {
	service := Service{Manifest: adapters.NewManifestFileAdapter(), Tools: &fakeToolRunner{}}
	_, err := service.Bundle(t.Context(), BundleRequest{
		ManifestPath: "bundle.yaml",
		Format:       types.PackageFormat("rpm"),
	})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestBundleMissingBinary(t *testing.T) {
	root := writeProject(t)
	require.NoError(t, os.Remove(filepath.Join(root, "target", "debug", "demo")))

	service := Service{Manifest: adapters.NewManifestFileAdapter(), Tools: &fakeToolRunner{}}
	_, err := service.Bundle(t.Context(), BundleRequest{
		ManifestPath: filepath.Join(root, "bundle.yaml"),
		Format:       types.FormatDeb,
	})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "binary not found")
}

func TestBundleReleaseUsesReleaseDirectory(t *testing.T) {
	root := writeProject(t)
	releaseDir := filepath.Join(root, "target", "release")
	require.NoError(t, os.MkdirAll(releaseDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(releaseDir, "demo"), []byte("\x7fELF"), 0o755))
	require.NoError(t, os.Remove(filepath.Join(root, "target", "debug", "demo")))

	tools := &fakeToolRunner{
		onRun: func(dir string, name string, args []string) error {
			return os.WriteFile(args[len(args)-1], []byte("deb"), 0o644)
		},
	}
	service := Service{Manifest: adapters.NewManifestFileAdapter(), Tools: tools}
	_, err := service.Bundle(t.Context(), BundleRequest{
		ManifestPath: filepath.Join(root, "bundle.yaml"),
		Format:       types.FormatDeb,
		Release:      true,
	})
	require.NoError(t, err)
}

func TestTargetArchMapping(t *testing.T) {
	assert.Equal(t, "amd64", targetArch("x86_64-unknown-linux-gnu"))
	assert.Equal(t, "386", targetArch("i686-pc-windows-msvc"))
	assert.Equal(t, "arm64", targetArch("aarch64-apple-darwin"))
	assert.Equal(t, "arm", targetArch("armv7-unknown-linux-gnueabihf"))
	assert.NotEmpty(t, targetArch(""))
}

func TestValidateReportsMetadataAndWarnings(t *testing.T) {
	root := writeProject(t)
	require.NoError(t, os.Remove(filepath.Join(root, "assets", "icon.png")))

	service := Service{Manifest: adapters.NewManifestFileAdapter(), Tools: &fakeToolRunner{}}
	result, err := service.Validate(t.Context(), ValidateRequest{
		ManifestPath: filepath.Join(root, "bundle.yaml"),
	})
	require.NoError(t, err)
	assert.Equal(t, "demo", result.Name)
	assert.Equal(t, "com.acme.demo", result.Identifier)
	assert.Equal(t, "1.2.0", result.Version)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "assets/icon.png")
}

func TestValidateMissingManifest(t *testing.T) {
	service := Service{Manifest: adapters.NewManifestFileAdapter(), Tools: &fakeToolRunner{}}
	_, err := service.Validate(t.Context(), ValidateRequest{
		ManifestPath: filepath.Join(t.TempDir(), "absent.yaml"),
	})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}
