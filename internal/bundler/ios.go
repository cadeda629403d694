package bundler

// An iOS application bundle is flat:
//
//	Name.app/
//	    Name           the main binary
//	    Info.plist     app metadata
//	    icon_*.png     icon files
//	    Resources/     data files
//
// The produced layout is installable by an external device-simulation
// collaborator; this packager never invokes it.

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"appbundler/internal/core"
	"appbundler/internal/types"
)

type IOSPackager struct{}

func (p IOSPackager) Format() types.PackageFormat {
	return types.FormatIOS
}

func (p IOSPackager) Package(ctx context.Context, req Request) (string, error) {
	output := filepath.Join(req.OutputDir, req.Spec.Name+".app")
	stage, err := newStaging(output)
	if err != nil {
		return "", err
	}
	if err := p.populate(stage, req); err != nil {
		stage.discard()
		return "", err
	}
	stage.markPopulated()
	if err := stage.finalize(""); err != nil {
		return "", err
	}
	log.Info().Str("bundle", output).Msg("iOS app bundle finalized")
	return output, nil
}

func (p IOSPackager) populate(stage *staging, req Request) error {
	if err := copyExecutable(req.BinaryPath, stage.path(req.Spec.BinaryName)); err != nil {
		return err
	}
	if req.ResourcesDir != "" {
		if err := core.CopyTree(req.ResourcesDir, stage.path("Resources")); err != nil {
			return err
		}
	}
	iconFiles := make([]string, 0, len(req.Icons.Files))
	for _, icon := range req.Icons.Files {
		if err := core.CopyFile(icon.Path, stage.path(icon.Name)); err != nil {
			return err
		}
		iconFiles = append(iconFiles, icon.Name)
	}
	info := infoPlist{
		CFBundleDisplayName: req.Spec.Name,
		CFBundleExecutable:  req.Spec.BinaryName,
		CFBundleIconFiles:   iconFiles,
		CFBundleIdentifier:  req.Spec.Identifier,
		CFBundleVersion:     req.Spec.Version,
		// True for all iOS apps, even non-iPhone ones.
		LSRequiresIPhoneOS: true,
	}
	return writeInfoPlist(stage.path("Info.plist"), info)
}
