package core

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"appbundler/internal/types"
)

// ManifestResolver merges the manifest's bundle overlay with project
// metadata into one fully-resolved BundleSpec.  Resolution is pure: no
// filesystem access, no side effects.  Every optional field follows the
// same ordered chain, overlay -> project default -> empty value, applied
// exactly once so precedence stays auditable.
type ManifestResolver struct{}

func NewManifestResolver() ManifestResolver {
	return ManifestResolver{}
}

// Resolve produces the BundleSpec for the given manifest.  binaryName
// is the compiled target's file name, used as the final fallback for
// the display name.
func (r ManifestResolver) Resolve(manifest types.Manifest, binaryName string) (types.BundleSpec, error) {
	identifier := strings.TrimSpace(manifest.Bundle.Identifier)
	if identifier == "" {
		return types.BundleSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("missing required field: bundle.identifier")
	}
	if err := validateIdentifier(identifier); err != nil {
		return types.BundleSpec{}, err
	}

	spec := types.BundleSpec{
		Identifier:       identifier,
		Name:             fallback(manifest.Bundle.Name, binaryName),
		Version:          fallback(manifest.Bundle.Version, manifest.Project.Version),
		BinaryName:       binaryName,
		Icons:            manifest.Bundle.Icon,
		Resources:        manifest.Bundle.Resources,
		Copyright:        manifest.Bundle.Copyright,
		Category:         manifest.Bundle.Category,
		ShortDescription: fallback(manifest.Bundle.ShortDescription, manifest.Project.Description),
		LongDescription:  fallback(manifest.Bundle.LongDescription, manifest.Project.Description),
		Homepage:         manifest.Project.Homepage,
		Authors:          manifest.Project.Authors,
		Linux: types.LinuxSettings{
			MimeTypes: manifest.Bundle.LinuxMimeTypes,
			ExecArgs:  manifest.Bundle.LinuxExecArgs,
		},
		Deb: types.DebSettings{
			Depends: manifest.Bundle.DebDepends,
		},
		OSX: types.OSXSettings{
			Frameworks:           manifest.Bundle.OSXFrameworks,
			MinimumSystemVersion: manifest.Bundle.OSXMinimumSystemVersion,
			URLSchemes:           manifest.Bundle.OSXURLSchemes,
		},
	}
	if manifest.Bundle.LinuxUseTerminal != nil {
		spec.Linux.UseTerminal = *manifest.Bundle.LinuxUseTerminal
	}
	return spec, nil
}

func fallback(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// validateIdentifier rejects identifiers that cannot safely appear in
// file names or platform metadata.  Packagers rely on this having run;
// they never re-check.
func validateIdentifier(identifier string) error {
	for _, r := range identifier {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-':
		default:
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("bundle.identifier contains unsafe character %q", r))
		}
	}
	if strings.HasPrefix(identifier, ".") || strings.HasSuffix(identifier, ".") || strings.Contains(identifier, "..") {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("bundle.identifier must be a reverse-DNS name like com.example.app")
	}
	return nil
}
