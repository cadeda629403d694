// Package bundler contains the per-format packagers.  Each packager
// assembles the final artifact in an exclusively-owned staging
// directory and finalizes it atomically; native packaging tools are
// reached only through the injected ToolRunner port.
package bundler

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"appbundler/internal/icons"
	"appbundler/internal/ports"
	"appbundler/internal/types"
)

// Request carries everything a packager consumes: the resolved spec,
// the compiled binary, staged resources, and converted icons.  The
// packager exclusively owns OutputDir's target path for the duration
// of assembly.
type Request struct {
	Spec       types.BundleSpec
	BinaryPath string
	OutputDir  string

	// Arch is the Go-style architecture of the target binary
	// (amd64, arm64, ...), used where the package format records one.
	Arch string

	// ResourcesDir is the root of the staged resource tree produced by
	// the collector, empty when no resources were declared.
	ResourcesDir string
	Resources    []types.ResourceMapping

	Icons icons.Artifacts
}

// Packager produces exactly one artifact for its format and returns
// its path.  Failures never leave a partial result at the output path.
type Packager interface {
	Format() types.PackageFormat
	Package(ctx context.Context, req Request) (string, error)
}

// ForFormat selects the packager implementation for a format.
func ForFormat(format types.PackageFormat, tools ports.ToolRunner) (Packager, error) {
	switch format {
	case types.FormatOSX:
		return OSXPackager{}, nil
	case types.FormatIOS:
		return IOSPackager{}, nil
	case types.FormatDeb:
		return DebPackager{Tools: tools}, nil
	case types.FormatMSI:
		return MSIPackager{Tools: tools}, nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported package format: %s", format))
	}
}
