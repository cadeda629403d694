package bundler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appbundler/internal/icons"
	"appbundler/internal/types"
)

func TestDebPackageStagesTreeAndFinalizes(t *testing.T) {
	binary := writeBinary(t, t.TempDir())
	resDir, mappings := stagedResources(t)
	outputDir := t.TempDir()

	var stagedControl, stagedDesktop, stagedSums string
	tools := &fakeToolRunner{
		onRun: func(dir string, name string, args []string) error {
			root := args[len(args)-2]
			read := func(rel string) string {
				data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
				require.NoError(t, err)
				return string(data)
			}
			stagedControl = read("DEBIAN/control")
			stagedDesktop = read("usr/share/applications/demo.desktop")
			stagedSums = read("DEBIAN/md5sums")
			_, err := os.Stat(filepath.Join(root, "usr", "bin", "demo"))
			require.NoError(t, err)
			_, err = os.Stat(filepath.Join(root, "usr", "lib", "demo", "assets", "logo.png"))
			require.NoError(t, err)
			return os.WriteFile(args[len(args)-1], []byte("deb"), 0o644)
		},
	}

	artifact, err := DebPackager{Tools: tools}.Package(t.Context(), Request{
		Spec:         testSpec(),
		BinaryPath:   binary,
		OutputDir:    outputDir,
		Arch:         "amd64",
		ResourcesDir: resDir,
		Resources:    mappings,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "demo-app_1.2.0_amd64.deb"), artifact)
	_, err = os.Stat(artifact)
	require.NoError(t, err)

	assert.Contains(t, stagedControl, "Package: demo-app\n")
	assert.Contains(t, stagedControl, "Version: 1.2.0\n")
	assert.Contains(t, stagedControl, "Architecture: amd64\n")
	assert.Contains(t, stagedControl, "Maintainer: Acme <dev@acme.test>\n")
	assert.Contains(t, stagedControl, "Depends: libgtk-3-0, libc6\n")
	assert.Contains(t, stagedControl, "Description: a demo application\n")
	assert.Contains(t, stagedControl, " A longer description.\n .\n With a second paragraph.\n")

	assert.Contains(t, stagedDesktop, "[Desktop Entry]\n")
	assert.Contains(t, stagedDesktop, "Exec=demo\n")
	assert.Contains(t, stagedDesktop, "Name=Demo App\n")
	assert.Contains(t, stagedDesktop, "Terminal=false\n")
	assert.Contains(t, stagedDesktop, "Categories=Utility;\n")

	assert.Contains(t, stagedSums, "usr/bin/demo")
	assert.NotContains(t, stagedSums, "DEBIAN")

	require.Len(t, tools.calls, 1)
	assert.Equal(t, "dpkg-deb", tools.calls[0][0])
	assert.Equal(t, "--build", tools.calls[0][1])
	assert.Equal(t, "--root-owner-group", tools.calls[0][2])
}

func TestDebPackageInstallsIcon(t *testing.T) {
	binary := writeBinary(t, t.TempDir())
	iconDir := t.TempDir()
	iconPath := filepath.Join(iconDir, "app.png")
	require.NoError(t, os.WriteFile(iconPath, []byte("png"), 0o644))

	var desktop string
	var iconInstalled bool
	tools := &fakeToolRunner{
		onRun: func(dir string, name string, args []string) error {
			root := args[len(args)-2]
			data, err := os.ReadFile(filepath.Join(root, "usr", "share", "applications", "demo.desktop"))
			require.NoError(t, err)
			desktop = string(data)
			_, statErr := os.Stat(filepath.Join(root, "usr", "share", "icons", "hicolor", "128x128", "apps", "demo.png"))
			iconInstalled = statErr == nil
			return os.WriteFile(args[len(args)-1], []byte("deb"), 0o644)
		},
	}

	_, err := DebPackager{Tools: tools}.Package(t.Context(), Request{
		Spec:       testSpec(),
		BinaryPath: binary,
		OutputDir:  t.TempDir(),
		Arch:       "amd64",
		Icons: icons.Artifacts{
			Files: []icons.File{{Name: "app.png", Path: iconPath, Size: 128, Scale: 1}},
		},
	})
	require.NoError(t, err)
	assert.True(t, iconInstalled)
	assert.Contains(t, desktop, "Icon=demo\n")
}

func TestDebPackageToolMissing(t *testing.T) {
	tools := &fakeToolRunner{missing: map[string]bool{"dpkg-deb": true}}
	_, err := DebPackager{Tools: tools}.Package(t.Context(), Request{
		Spec:       testSpec(),
		BinaryPath: writeBinary(t, t.TempDir()),
		OutputDir:  t.TempDir(),
		Arch:       "amd64",
	})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Empty(t, tools.calls)
}

func TestDebPackageToolFailureRetainsStaging(t *testing.T) {
	outputDir := t.TempDir()
	tools := &fakeToolRunner{failRun: true, output: []byte("dpkg-deb: error")}
	_, err := DebPackager{Tools: tools}.Package(t.Context(), Request{
		Spec:       testSpec(),
		BinaryPath: writeBinary(t, t.TempDir()),
		OutputDir:  outputDir,
		Arch:       "amd64",
	})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))

	entries, readErr := os.ReadDir(outputDir)
	require.NoError(t, readErr)
	retained := false
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".staging-") {
			retained = true
		}
	}
	assert.True(t, retained, "staging tree must survive an external tool failure")
}

func TestDebPackageRejectsInvalidVersion(t *testing.T) {
	spec := testSpec()
	spec.Version = "not a version"
	_, err := DebPackager{Tools: &fakeToolRunner{}}.Package(t.Context(), Request{
		Spec:       spec,
		BinaryPath: writeBinary(t, t.TempDir()),
		OutputDir:  t.TempDir(),
		Arch:       "amd64",
	})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestDesktopEntryMimeTypesAndExecArgs(t *testing.T) {
	spec := testSpec()
	spec.Linux.MimeTypes = []string{"text/x-demo", "application/x-demo"}
	spec.Linux.ExecArgs = []string{"--gui"}

	entry := desktopEntry(spec, "")
	assert.Contains(t, entry, "Exec=demo --gui\n")
	assert.Contains(t, entry, "MimeType=text/x-demo;application/x-demo;\n")
	assert.NotContains(t, entry, "Icon=")
}

func TestControlFileDependsOrderVerbatim(t *testing.T) {
	spec := testSpec()
	spec.Deb.Depends = []string{"libc6", "libgtk-3-0"}
	forward := controlFile(spec, "amd64", 10)
	spec.Deb.Depends = []string{"libgtk-3-0", "libc6"}
	reversed := controlFile(spec, "amd64", 10)

	assert.Contains(t, forward, "Depends: libc6, libgtk-3-0\n")
	assert.Contains(t, reversed, "Depends: libgtk-3-0, libc6\n")
	assert.Equal(t, forward, controlFile(func() types.BundleSpec {
		s := testSpec()
		s.Deb.Depends = []string{"libc6", "libgtk-3-0"}
		return s
	}(), "amd64", 10), "identical input must render identical control files")
}

func TestDebArchMapping(t *testing.T) {
	assert.Equal(t, "amd64", debArch("amd64"))
	assert.Equal(t, "i386", debArch("386"))
	assert.Equal(t, "armhf", debArch("arm"))
	assert.Equal(t, "arm64", debArch("arm64"))
	assert.Equal(t, "riscv64", debArch("riscv64"))
}
