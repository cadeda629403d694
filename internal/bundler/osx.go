package bundler

// A macOS application bundle is a directory tree:
//
//	Name.app/
//	    Contents/
//	        Info.plist     app metadata
//	        MacOS/         executable binaries
//	        Resources/     icons, data files
//	        Frameworks/    private frameworks (shared libraries)

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"howett.net/plist"

	"appbundler/internal/core"
	"appbundler/internal/types"
)

type OSXPackager struct{}

func (p OSXPackager) Format() types.PackageFormat {
	return types.FormatOSX
}

func (p OSXPackager) Package(ctx context.Context, req Request) (string, error) {
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
	log.Info().Str("bundle", output).Msg("macOS app bundle finalized")
	return output, nil
}

func (p OSXPackager) populate(stage *staging, req Request) error {
	contents := stage.path("Contents")
	resourcesDir := filepath.Join(contents, "Resources")
	for _, dir := range []string{
		filepath.Join(contents, "MacOS"),
		resourcesDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to create bundle directory: %s", dir)).
				WithCause(err)
		}
	}

	binaryDest := filepath.Join(contents, "MacOS", req.Spec.BinaryName)
	if err := copyExecutable(req.BinaryPath, binaryDest); err != nil {
		return err
	}

	if req.ResourcesDir != "" {
		if err := core.CopyTree(req.ResourcesDir, resourcesDir); err != nil {
			return err
		}
	}

	iconFile := ""
	if req.Icons.Container != "" {
		iconFile = filepath.Base(req.Icons.Container)
		if err := core.CopyFile(req.Icons.Container, filepath.Join(resourcesDir, iconFile)); err != nil {
			return err
		}
	}

	for _, framework := range req.Spec.OSX.Frameworks {
		dest := filepath.Join(contents, "Frameworks", filepath.Base(framework))
		if err := copyFramework(framework, dest); err != nil {
			return err
		}
	}

	return writeInfoPlist(filepath.Join(contents, "Info.plist"), macInfoPlist(req.Spec, iconFile))
}

// infoPlist covers the keys both Apple formats use; zero values are
// omitted from the emitted property list.
type infoPlist struct {
	CFBundleDevelopmentRegion     string          `plist:"CFBundleDevelopmentRegion,omitempty"`
	CFBundleDisplayName           string          `plist:"CFBundleDisplayName,omitempty"`
	CFBundleExecutable            string          `plist:"CFBundleExecutable,omitempty"`
	CFBundleIconFile              string          `plist:"CFBundleIconFile,omitempty"`
	CFBundleIconFiles             []string        `plist:"CFBundleIconFiles,omitempty"`
	CFBundleIdentifier            string          `plist:"CFBundleIdentifier"`
	CFBundleInfoDictionaryVersion string          `plist:"CFBundleInfoDictionaryVersion,omitempty"`
	CFBundleName                  string          `plist:"CFBundleName,omitempty"`
	CFBundlePackageType           string          `plist:"CFBundlePackageType,omitempty"`
	CFBundleShortVersionString    string          `plist:"CFBundleShortVersionString,omitempty"`
	CFBundleVersion               string          `plist:"CFBundleVersion,omitempty"`
	CFBundleURLTypes              []plistURLType  `plist:"CFBundleURLTypes,omitempty"`
	LSMinimumSystemVersion        string          `plist:"LSMinimumSystemVersion,omitempty"`
	LSRequiresIPhoneOS            bool            `plist:"LSRequiresIPhoneOS,omitempty"`
	NSHighResolutionCapable       bool            `plist:"NSHighResolutionCapable,omitempty"`
	NSHumanReadableCopyright      string          `plist:"NSHumanReadableCopyright,omitempty"`
}

type plistURLType struct {
	CFBundleURLName    string   `plist:"CFBundleURLName"`
	CFBundleURLSchemes []string `plist:"CFBundleURLSchemes"`
}

func macInfoPlist(spec types.BundleSpec, iconFile string) infoPlist {
	info := infoPlist{
		CFBundleDevelopmentRegion:     "English",
		CFBundleExecutable:            spec.BinaryName,
		CFBundleIconFile:              iconFile,
		CFBundleIdentifier:            spec.Identifier,
		CFBundleInfoDictionaryVersion: "6.0",
		CFBundleName:                  spec.Name,
		CFBundlePackageType:           "APPL",
		CFBundleShortVersionString:    spec.Version,
		CFBundleVersion:               spec.Version,
		LSMinimumSystemVersion:        spec.OSX.MinimumSystemVersion,
		NSHighResolutionCapable:       true,
		NSHumanReadableCopyright:      spec.Copyright,
	}
	for _, scheme := range spec.OSX.URLSchemes {
		info.CFBundleURLTypes = append(info.CFBundleURLTypes, plistURLType{
			CFBundleURLName:    spec.Identifier,
			CFBundleURLSchemes: []string{scheme},
		})
	}
	return info
}

func writeInfoPlist(path string, info infoPlist) error {
	file, err := os.Create(path)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to create Info.plist: %s", path)).
			WithCause(err)
	}
	defer file.Close()
	encoder := plist.NewEncoder(file)
	encoder.Indent("\t")
	if err := encoder.Encode(info); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode Info.plist").
			WithCause(err)
	}
	return nil
}

func copyExecutable(src string, dest string) error {
	if err := core.CopyFile(src, dest); err != nil {
		return err
	}
	if err := os.Chmod(dest, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to mark binary executable: %s", dest)).
			WithCause(err)
	}
	return nil
}

// copyFramework copies a framework file or directory into Frameworks/.
func copyFramework(src string, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("framework not found: %s", src)).
			WithCause(err)
	}
	if info.IsDir() {
		return core.CopyTree(src, dest)
	}
	return core.CopyFile(src, dest)
}
