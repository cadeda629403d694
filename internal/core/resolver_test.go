package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appbundler/internal/types"
)

func TestResolveMissingIdentifier(t *testing.T) {
	resolver := NewManifestResolver()
	_, err := resolver.Resolve(types.Manifest{
		Project: types.ProjectSettings{Name: "demo", Version: "1.0.0"},
	}, "demo")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "bundle.identifier")
}

func TestResolveFallbackChains(t *testing.T) {
	resolver := NewManifestResolver()
	spec, err := resolver.Resolve(types.Manifest{
		Project: types.ProjectSettings{
			Name:        "demo",
			Version:     "1.0.0",
			Description: "a demo application",
			Homepage:    "https://demo.example",
			Authors:     []string{"Jan <jan@example.com>"},
		},
		Bundle: types.BundleSettings{
			Identifier: "com.example.demo",
		},
	}, "demo")
	require.NoError(t, err)

	// Name falls back to the binary name, version and descriptions to
	// the project metadata.
	assert.Equal(t, "demo", spec.Name)
	assert.Equal(t, "1.0.0", spec.Version)
	assert.Equal(t, "a demo application", spec.ShortDescription)
	assert.Equal(t, "a demo application", spec.LongDescription)
	assert.Equal(t, "https://demo.example", spec.Homepage)
}

func TestResolveOverlayWins(t *testing.T) {
	resolver := NewManifestResolver()
	spec, err := resolver.Resolve(types.Manifest{
		Project: types.ProjectSettings{
			Name:        "demo",
			Version:     "1.0.0",
			Description: "project description",
		},
		Bundle: types.BundleSettings{
			Identifier:       "com.example.demo",
			Name:             "Demo App",
			Version:          "2.0.0",
			ShortDescription: "short",
			LongDescription:  "long text",
		},
	}, "demo")
	require.NoError(t, err)
	assert.Equal(t, "Demo App", spec.Name)
	assert.Equal(t, "2.0.0", spec.Version)
	assert.Equal(t, "short", spec.ShortDescription)
	assert.Equal(t, "long text", spec.LongDescription)
}

func TestResolvePlatformSettings(t *testing.T) {
	useTerminal := true
	resolver := NewManifestResolver()
	spec, err := resolver.Resolve(types.Manifest{
		Project: types.ProjectSettings{Name: "demo", Version: "1.0.0"},
		Bundle: types.BundleSettings{
			Identifier:              "com.example.demo",
			LinuxMimeTypes:          []string{"text/x-demo"},
			LinuxUseTerminal:        &useTerminal,
			DebDepends:              []string{"libgtk-3-0", "libc6"},
			OSXFrameworks:           []string{"Sparkle.framework"},
			OSXMinimumSystemVersion: "10.13",
			OSXURLSchemes:           []string{"demo"},
		},
	}, "demo")
	require.NoError(t, err)
	assert.True(t, spec.Linux.UseTerminal)
	if diff := cmp.Diff([]string{"libgtk-3-0", "libc6"}, spec.Deb.Depends); diff != "" {
		t.Fatalf("unexpected depends (-want +got):\n%s", diff)
	}
	assert.Equal(t, "10.13", spec.OSX.MinimumSystemVersion)
	assert.Equal(t, []string{"demo"}, spec.OSX.URLSchemes)
}

func TestResolveRejectsUnsafeIdentifier(t *testing.T) {
	resolver := NewManifestResolver()
	for _, identifier := range []string{
		"com.example/demo",
		"com example",
		".com.example",
		"com.example.",
		"com..example",
	} {
		_, err := resolver.Resolve(types.Manifest{
			Project: types.ProjectSettings{Name: "demo", Version: "1.0.0"},
			Bundle:  types.BundleSettings{Identifier: identifier},
		}, "demo")
		require.Error(t, err, "identifier %q should be rejected", identifier)
		assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
	}
}
