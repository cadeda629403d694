package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"appbundler/internal/bundler"
	"appbundler/internal/core"
	"appbundler/internal/icons"
	"appbundler/internal/shared"
	"appbundler/internal/types"
)

const defaultManifestName = "bundle.yaml"

var hostArch = runtime.GOARCH

// Bundle runs the full pipeline for one package format: load and
// resolve the manifest, stage resources and convert icons (the two are
// independent and run concurrently), then hand everything to the
// format's packager.
func (s Service) Bundle(ctx context.Context, req BundleRequest) (BundleResult, error) {
	if !req.Format.Valid() {
		supported := make([]string, 0, len(types.SupportedFormats()))
		for _, format := range types.SupportedFormats() {
			supported = append(supported, string(format))
		}
		return BundleResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported package format %q (supported: %s)", req.Format, strings.Join(supported, ", ")))
	}

	manifestPath := strings.TrimSpace(req.ManifestPath)
	if manifestPath == "" {
		manifestPath = defaultManifestName
	}
	manifest, err := s.Manifest.LoadManifest(manifestPath)
	if err != nil {
		return BundleResult{}, err
	}
	root, err := filepath.Abs(filepath.Dir(manifestPath))
	if err != nil {
		return BundleResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to resolve project root").
			WithCause(err)
	}

	binaryName := fallbackString(req.BinaryName, manifest.Project.Name)
	if binaryName == "" {
		return BundleResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("missing required field: project.name")
	}

	spec, err := core.NewManifestResolver().Resolve(manifest, binaryName)
	if err != nil {
		return BundleResult{}, err
	}
	assert.NotEmpty(ctx, spec.Identifier, "resolved spec must carry an identifier")

	if len(req.Features) > 0 {
		log.Debug().
			Strs("features", req.Features).
			Msg("feature flags recorded; compilation happens outside the bundler")
	}

	binaryPath := strings.TrimSpace(req.BinaryPath)
	if binaryPath == "" {
		binaryPath = conventionalBinaryPath(root, binaryName, req.Target, req.Release)
	} else if !filepath.IsAbs(binaryPath) {
		binaryPath = filepath.Join(root, binaryPath)
	}
	if _, err := os.Stat(binaryPath); err != nil {
		return BundleResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("binary not found: " + binaryPath).
			WithCause(err)
	}

	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		outputDir = filepath.Join(root, "target", "bundle", string(req.Format))
	}

	workDir, err := os.MkdirTemp("", "appbundler-")
	if err != nil {
		return BundleResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create working directory").
			WithCause(err)
	}
	defer os.RemoveAll(workDir)

	// Resource staging and icon conversion touch disjoint inputs and
	// outputs, so they run concurrently.
	var (
		wg        sync.WaitGroup
		resources core.CollectResult
		resDir    string
		resErr    error
		artifacts icons.Artifacts
		iconErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		resources, resDir, resErr = stageResources(root, spec, workDir)
	}()
	go func() {
		defer wg.Done()
		artifacts, iconErr = convertIcons(root, spec, req.Format, workDir)
	}()
	wg.Wait()
	if resErr != nil {
		return BundleResult{}, resErr
	}
	if iconErr != nil {
		return BundleResult{}, iconErr
	}

	packager, err := bundler.ForFormat(req.Format, s.Tools)
	if err != nil {
		return BundleResult{}, err
	}
	artifact, err := packager.Package(ctx, bundler.Request{
		Spec:         spec,
		BinaryPath:   binaryPath,
		OutputDir:    outputDir,
		Arch:         targetArch(req.Target),
		ResourcesDir: resDir,
		Resources:    resources.Mappings,
		Icons:        artifacts,
	})
	if err != nil {
		return BundleResult{}, err
	}

	log.Info().
		Str("format", string(req.Format)).
		Str("artifact", artifact).
		Msg("bundle complete")
	return BundleResult{
		ArtifactPath: artifact,
		Warnings:     append(resources.Warnings, artifacts.Warnings...),
	}, nil
}

// stageResources expands the spec's resource declarations and copies
// them into a staging tree under workDir.  An empty declaration list
// yields an empty ResourcesDir so packagers can skip the copy.
func stageResources(root string, spec types.BundleSpec, workDir string) (core.CollectResult, string, error) {
	result, err := core.NewResourceCollector(root).Collect(spec.Resources)
	if err != nil {
		return core.CollectResult{}, "", err
	}
	if len(result.Mappings) == 0 {
		return result, "", nil
	}
	dir := filepath.Join(workDir, "resources")
	if err := core.CopyAll(result.Mappings, dir); err != nil {
		return core.CollectResult{}, "", err
	}
	return result, dir, nil
}

func convertIcons(root string, spec types.BundleSpec, format types.PackageFormat, workDir string) (icons.Artifacts, error) {
	paths := make([]string, 0, len(spec.Icons))
	for _, p := range spec.Icons {
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		if shared.HasGlobMeta(p) {
			matches, err := filepath.Glob(p)
			if err != nil {
				return icons.Artifacts{}, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("invalid icon glob %q", p)).
					WithCause(err)
			}
			paths = append(paths, matches...)
			continue
		}
		paths = append(paths, p)
	}
	set, err := icons.LoadSet(paths)
	if err != nil {
		return icons.Artifacts{}, err
	}
	return icons.NewConverter().Convert(set, format, filepath.Join(workDir, "icons"), spec.Name)
}

// conventionalBinaryPath is where the build tooling leaves the compiled
// binary: target/[<triple>/]{debug|release}/<name>.
func conventionalBinaryPath(root string, binaryName string, target string, release bool) string {
	profile := "debug"
	if release {
		profile = "release"
	}
	parts := []string{root, "target"}
	if target != "" {
		parts = append(parts, target)
	}
	parts = append(parts, profile, binaryName)
	return filepath.Join(parts...)
}

// targetArch maps the architecture component of a target triple to the
// Go-style name the packagers record.  A host build reports the running
// architecture.
func targetArch(target string) string {
	if target == "" {
		return hostArch
	}
	arch := target
	if i := strings.Index(target, "-"); i >= 0 {
		arch = target[:i]
	}
	switch arch {
	case "x86_64", "amd64":
		return "amd64"
	case "i686", "i586", "i386", "x86":
		return "386"
	case "aarch64", "arm64":
		return "arm64"
	case "armv7", "arm":
		return "arm"
	default:
		return arch
	}
}

func fallbackString(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
