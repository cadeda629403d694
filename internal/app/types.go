package app

import "appbundler/internal/types"

type BundleRequest struct {
	ManifestPath string
	Format       types.PackageFormat

	// BinaryPath overrides the conventional build-output location;
	// BinaryName overrides the name derived from the project metadata.
	BinaryPath string
	BinaryName string

	OutputDir string

	// Target is the cross-compilation triple the binary was built for,
	// empty for a host build.  Release selects the release build
	// directory when BinaryPath is not given.
	Target  string
	Release bool

	// Features records the feature set the binary was compiled with.
	// Compilation happens outside the bundler; the list is carried for
	// logging only.
	Features []string
}

type BundleResult struct {
	ArtifactPath string
	Warnings     []string
}

type ValidateRequest struct {
	ManifestPath string
}

type ValidateResult struct {
	Name       string
	Identifier string
	Version    string
	Warnings   []string
}
