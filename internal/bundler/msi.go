package bundler

// A Windows installer is produced in two steps: a WiX v4 authoring
// file (installer.wxs) is generated from the resolved spec, then the
// external `wix` compiler turns it into the .msi artifact.  The
// product GUID is derived from the bundle identifier so rebuilds of
// the same application upgrade in place instead of installing twice.

import (
	"context"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"appbundler/internal/ports"
	"appbundler/internal/shared"
	"appbundler/internal/types"
)

const msiTool = "wix"

// guidNamespace seeds the name-based product GUID derivation.
var guidNamespace = uuid.UUID{
	0xfd, 0x85, 0x95, 0xa8, 0x17, 0xa3, 0x47, 0x4e,
	0xa6, 0x16, 0x76, 0x14, 0x8d, 0xfa, 0x0c, 0x7b,
}

type MSIPackager struct {
	Tools ports.ToolRunner
}

func (p MSIPackager) Format() types.PackageFormat {
	return types.FormatMSI
}

// ProductGUID returns the deterministic upgrade GUID for a bundle
// identifier.
func ProductGUID(identifier string) uuid.UUID {
	return uuid.NewSHA1(guidNamespace, []byte(identifier))
}

func (p MSIPackager) Package(ctx context.Context, req Request) (string, error) {
	if err := p.Tools.LookPath(msiTool); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("packaging tool not found: %s", msiTool)).
			WithCause(err)
	}

	artifact := fmt.Sprintf("%s_%s.msi", req.Spec.Name, req.Spec.Version)
	output := filepath.Join(req.OutputDir, artifact)
	stage, err := newStaging(output)
	if err != nil {
		return "", err
	}
	wxs, err := installerWXS(req)
	if err != nil {
		stage.discard()
		return "", err
	}
	if err := writeStagedFile(stage.path("installer.wxs"), wxs); err != nil {
		stage.discard()
		return "", err
	}
	stage.markPopulated()

	out, err := p.Tools.Run(ctx, stage.dir, msiTool, "build", "installer.wxs", "-o", artifact)
	if err != nil {
		stage.retain()
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("%s failed (staging retained at %s)", msiTool, stage.dir)).
			WithCause(shared.CommandError(out, err))
	}
	if err := stage.finalize(artifact); err != nil {
		return "", err
	}
	log.Info().Str("package", output).Msg("windows installer finalized")
	return output, nil
}

// The wxs* types mirror the WiX v4 authoring schema
// (https://wixtoolset.org/docs/schema/wxs/).

type wxsDocument struct {
	XMLName xml.Name   `xml:"Wix"`
	Xmlns   string     `xml:"xmlns,attr"`
	Package wxsPackage `xml:"Package"`
}

type wxsPackage struct {
	Name          string `xml:"Name,attr"`
	Version       string `xml:"Version,attr"`
	Manufacturer  string `xml:"Manufacturer,attr"`
	UpgradeCode   string `xml:"UpgradeCode,attr"`
	Language      string `xml:"Language,attr"`
	Compressed    string `xml:"Compressed,attr"`
	MajorUpgrade  wxsMajorUpgrade
	MediaTemplate wxsMediaTemplate
	Icon          *wxsIcon
	Property      *wxsProperty
	StandardDir   wxsStandardDir `xml:"StandardDirectory"`
	Feature       wxsFeature
}

type wxsMajorUpgrade struct {
	XMLName         xml.Name `xml:"MajorUpgrade"`
	DowngradeErrMsg string   `xml:"DowngradeErrorMessage,attr"`
}

type wxsMediaTemplate struct {
	XMLName  xml.Name `xml:"MediaTemplate"`
	EmbedCab string   `xml:"EmbedCab,attr"`
}

type wxsIcon struct {
	XMLName    xml.Name `xml:"Icon"`
	ID         string   `xml:"Id,attr"`
	SourceFile string   `xml:"SourceFile,attr"`
}

type wxsProperty struct {
	XMLName xml.Name `xml:"Property"`
	ID      string   `xml:"Id,attr"`
	Value   string   `xml:"Value,attr"`
}

type wxsStandardDir struct {
	ID        string         `xml:"Id,attr"`
	Directory []wxsDirectory `xml:"Directory"`
}

type wxsDirectory struct {
	ID        string         `xml:"Id,attr"`
	Name      string         `xml:"Name,attr"`
	Component []wxsComponent `xml:"Component,omitempty"`
	Directory []wxsDirectory `xml:"Directory,omitempty"`
}

type wxsComponent struct {
	ID   string  `xml:"Id,attr"`
	Guid string  `xml:"Guid,attr"`
	File wxsFile `xml:"File"`
}

type wxsFile struct {
	ID      string `xml:"Id,attr"`
	Source  string `xml:"Source,attr"`
	KeyPath string `xml:"KeyPath,attr"`
}

type wxsFeature struct {
	XMLName      xml.Name          `xml:"Feature"`
	ID           string            `xml:"Id,attr"`
	ComponentRef []wxsComponentRef `xml:"ComponentRef"`
}

type wxsComponentRef struct {
	ID string `xml:"Id,attr"`
}

// installerWXS renders the WiX authoring for a bundle.  Component and
// file identifiers are derived from the destination paths so the same
// spec always produces identical authoring.
func installerWXS(req Request) (string, error) {
	productGUID := ProductGUID(req.Spec.Identifier)

	installDir := wxsDirectory{
		ID:   "INSTALLDIR",
		Name: req.Spec.Name,
	}
	var refs []wxsComponentRef

	addFile := func(dir *wxsDirectory, dest string, source string) {
		id := wxsID(dest)
		dir.Component = append(dir.Component, wxsComponent{
			ID:   "cmp" + id,
			Guid: uuid.NewSHA1(productGUID, []byte(dest)).String(),
			File: wxsFile{
				ID:      "fil" + id,
				Source:  source,
				KeyPath: "yes",
			},
		})
		refs = append(refs, wxsComponentRef{ID: "cmp" + id})
	}

	binSource, err := filepath.Abs(req.BinaryPath)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to resolve binary path: %s", req.BinaryPath)).
			WithCause(err)
	}
	addFile(&installDir, req.Spec.BinaryName+".exe", binSource)

	mappings := append([]types.ResourceMapping(nil), req.Resources...)
	sort.Slice(mappings, func(i, j int) bool {
		return mappings[i].Dest < mappings[j].Dest
	})
	for _, mapping := range mappings {
		dest := filepath.ToSlash(mapping.Dest)
		source := filepath.Join(req.ResourcesDir, filepath.FromSlash(dest))
		dir := ensureDirectory(&installDir, filepath.Dir(dest))
		addFile(dir, dest, source)
	}

	doc := wxsDocument{
		Xmlns: "http://wixtoolset.org/schemas/v4/wxs",
		Package: wxsPackage{
			Name:         req.Spec.Name,
			Version:      req.Spec.Version,
			Manufacturer: maintainer(req.Spec.Authors),
			UpgradeCode:  productGUID.String(),
			Language:     "1033",
			Compressed:   "yes",
			MajorUpgrade: wxsMajorUpgrade{
				DowngradeErrMsg: "A newer version of [ProductName] is already installed.",
			},
			MediaTemplate: wxsMediaTemplate{EmbedCab: "yes"},
			StandardDir: wxsStandardDir{
				ID:        "ProgramFiles64Folder",
				Directory: []wxsDirectory{installDir},
			},
			Feature: wxsFeature{
				ID:           "MainFeature",
				ComponentRef: refs,
			},
		},
	}
	// The converted .ico becomes the product icon shown in the
	// installed-programs list.
	if req.Icons.Container != "" {
		doc.Package.Icon = &wxsIcon{ID: "ProductIcon", SourceFile: req.Icons.Container}
		doc.Package.Property = &wxsProperty{ID: "ARPPRODUCTICON", Value: "ProductIcon"}
	}

	body, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode installer authoring").
			WithCause(err)
	}
	return xml.Header + string(body) + "\n", nil
}

// ensureDirectory walks a slash-separated relative directory path,
// creating nested Directory elements on the way, and returns the
// innermost one.  "." means the install root itself.
func ensureDirectory(root *wxsDirectory, rel string) *wxsDirectory {
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" {
		return root
	}
	dir := root
	for _, part := range strings.Split(rel, "/") {
		found := -1
		for i := range dir.Directory {
			if dir.Directory[i].Name == part {
				found = i
				break
			}
		}
		if found == -1 {
			dir.Directory = append(dir.Directory, wxsDirectory{
				ID:   "dir" + wxsID(dir.ID+"/"+part),
				Name: part,
			})
			found = len(dir.Directory) - 1
		}
		dir = &dir.Directory[found]
	}
	return dir
}

// wxsID turns a destination path into a WiX identifier: letters,
// digits, underscores and periods only, never starting with a digit.
func wxsID(dest string) string {
	var b strings.Builder
	for _, r := range dest {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	id := b.String()
	if id == "" || (id[0] >= '0' && id[0] <= '9') {
		id = "_" + id
	}
	return id
}
