package bundler

// A Debian package staging tree:
//
//	DEBIAN/control       package metadata
//	DEBIAN/md5sums       checksums of the data files
//	usr/bin/...          the binary
//	usr/share/applications/<bin>.desktop
//	usr/share/icons/hicolor/<WxH>/apps/<bin>.png
//	usr/lib/<bin>/...    bundle resources
//
// dpkg-deb turns the tree into the final .deb archive.

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	debversion "github.com/knqyf263/go-deb-version"
	"github.com/rs/zerolog/log"

	"appbundler/internal/core"
	"appbundler/internal/ports"
	"appbundler/internal/shared"
	"appbundler/internal/types"
)

const debTool = "dpkg-deb"

type DebPackager struct {
	Tools ports.ToolRunner
}

func (p DebPackager) Format() types.PackageFormat {
	return types.FormatDeb
}

func (p DebPackager) Package(ctx context.Context, req Request) (string, error) {
	if err := p.Tools.LookPath(debTool); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("packaging tool not found: %s", debTool)).
			WithCause(err)
	}
	if _, err := debversion.NewVersion(req.Spec.Version); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%q is not a valid debian version", req.Spec.Version)).
			WithCause(err)
	}

	arch := debArch(req.Arch)
	artifact := fmt.Sprintf("%s_%s_%s.deb", debPackageName(req.Spec.Name), req.Spec.Version, arch)
	output := filepath.Join(req.OutputDir, artifact)
	stage, err := newStaging(output)
	if err != nil {
		return "", err
	}
	if err := p.populate(stage, req, arch); err != nil {
		stage.discard()
		return "", err
	}
	stage.markPopulated()

	out, err := p.Tools.Run(ctx, stage.dir, debTool, "--build", "--root-owner-group", stage.path("root"), stage.path(artifact))
	if err != nil {
		stage.retain()
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("%s failed (staging retained at %s)", debTool, stage.dir)).
			WithCause(shared.CommandError(out, err))
	}
	if err := stage.finalize(artifact); err != nil {
		return "", err
	}
	log.Info().Str("package", output).Msg("debian package finalized")
	return output, nil
}

func (p DebPackager) populate(stage *staging, req Request, arch string) error {
	root := stage.path("root")
	binName := req.Spec.BinaryName

	if err := copyExecutable(req.BinaryPath, filepath.Join(root, "usr", "bin", binName)); err != nil {
		return err
	}
	if req.ResourcesDir != "" {
		dest := filepath.Join(root, "usr", "lib", binName)
		if err := core.CopyTree(req.ResourcesDir, dest); err != nil {
			return err
		}
	}
	iconRef := ""
	if len(req.Icons.Files) > 0 {
		icon := req.Icons.Files[0]
		dest := filepath.Join(root, "usr", "share", "icons", "hicolor",
			fmt.Sprintf("%dx%d", icon.Size, icon.Size), "apps", binName+".png")
		if err := core.CopyFile(icon.Path, dest); err != nil {
			return err
		}
		iconRef = binName
	}

	desktop := desktopEntry(req.Spec, iconRef)
	desktopPath := filepath.Join(root, "usr", "share", "applications", binName+".desktop")
	if err := writeStagedFile(desktopPath, desktop); err != nil {
		return err
	}

	installedSize, err := totalDirSizeKiB(root)
	if err != nil {
		return err
	}
	control := controlFile(req.Spec, arch, installedSize)
	if err := writeStagedFile(filepath.Join(root, "DEBIAN", "control"), control); err != nil {
		return err
	}
	md5sums, err := dataMD5Sums(root)
	if err != nil {
		return err
	}
	return writeStagedFile(filepath.Join(root, "DEBIAN", "md5sums"), md5sums)
}

// controlFile renders DEBIAN/control; see
// https://www.debian.org/doc/debian-policy/ch-controlfields.html.
// The Depends field preserves the declared dependency order verbatim.
func controlFile(spec types.BundleSpec, arch string, installedSizeKiB int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Package: %s\n", debPackageName(spec.Name))
	fmt.Fprintf(&b, "Version: %s\n", spec.Version)
	fmt.Fprintf(&b, "Architecture: %s\n", arch)
	fmt.Fprintf(&b, "Installed-Size: %d\n", installedSizeKiB)
	fmt.Fprintf(&b, "Maintainer: %s\n", maintainer(spec.Authors))
	if spec.Homepage != "" {
		fmt.Fprintf(&b, "Homepage: %s\n", spec.Homepage)
	}
	if len(spec.Deb.Depends) > 0 {
		fmt.Fprintf(&b, "Depends: %s\n", strings.Join(spec.Deb.Depends, ", "))
	}
	short := strings.TrimSpace(spec.ShortDescription)
	if short == "" {
		short = "(none)"
	}
	long := strings.TrimSpace(spec.LongDescription)
	if long == "" {
		long = "(none)"
	}
	fmt.Fprintf(&b, "Description: %s\n", short)
	for _, line := range strings.Split(long, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			b.WriteString(" .\n")
		} else {
			fmt.Fprintf(&b, " %s\n", line)
		}
	}
	return b.String()
}

// desktopEntry renders the freedesktop .desktop file; see
// https://specifications.freedesktop.org/desktop-entry-spec/latest/.
func desktopEntry(spec types.BundleSpec, iconRef string) string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Encoding=UTF-8\n")
	if spec.Category != "" {
		fmt.Fprintf(&b, "Categories=%s;\n", spec.Category)
	}
	if spec.ShortDescription != "" {
		fmt.Fprintf(&b, "Comment=%s\n", spec.ShortDescription)
	}
	exec := spec.BinaryName
	if len(spec.Linux.ExecArgs) > 0 {
		exec += " " + strings.Join(spec.Linux.ExecArgs, " ")
	}
	fmt.Fprintf(&b, "Exec=%s\n", exec)
	if iconRef != "" {
		fmt.Fprintf(&b, "Icon=%s\n", iconRef)
	}
	fmt.Fprintf(&b, "Name=%s\n", spec.Name)
	fmt.Fprintf(&b, "Terminal=%t\n", spec.Linux.UseTerminal)
	b.WriteString("Type=Application\n")
	if len(spec.Linux.MimeTypes) > 0 {
		fmt.Fprintf(&b, "MimeType=%s;\n", strings.Join(spec.Linux.MimeTypes, ";"))
	}
	return b.String()
}

// dataMD5Sums computes the DEBIAN/md5sums content for every data file
// in the tree, skipping the DEBIAN control directory itself.
func dataMD5Sums(root string) (string, error) {
	var b strings.Builder
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "DEBIAN" && filepath.Dir(path) == root {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		hash := md5.New()
		if _, err := io.Copy(hash, file); err != nil {
			return err
		}
		fmt.Fprintf(&b, "%x  %s\n", hash.Sum(nil), filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to compute md5sums").
			WithCause(err)
	}
	return b.String(), nil
}

func totalDirSizeKiB(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to compute installed size").
			WithCause(err)
	}
	return (total + 1023) / 1024, nil
}

func writeStagedFile(path string, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to create directory: %s", filepath.Dir(path))).
			WithCause(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write file: %s", path)).
			WithCause(err)
	}
	return nil
}

func debPackageName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "-"))
}

func maintainer(authors []string) string {
	if len(authors) == 0 {
		return "unknown"
	}
	return strings.Join(authors, ", ")
}

// debArch maps a Go architecture name to the Debian one.
func debArch(arch string) string {
	switch arch {
	case "amd64":
		return "amd64"
	case "386":
		return "i386"
	case "arm":
		return "armhf"
	case "arm64":
		return "arm64"
	default:
		return arch
	}
}
