package icons

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"appbundler/internal/core"
	"appbundler/internal/types"
)

// Rendition records how one required resolution was produced, for
// reproducibility: the source it came from and whether the data was
// resampled rather than passed through.
type Rendition struct {
	Size        int
	Scale       int
	Source      string
	Synthesized bool
}

// File is one emitted icon file, used by formats that install a set of
// loose PNGs rather than a single container.
type File struct {
	Name  string
	Path  string
	Size  int
	Scale int
}

// Artifacts is everything a packager needs from icon conversion.
type Artifacts struct {
	// Container is the path of the produced container file (.icns,
	// .ico, or a single .png), empty when the format emits loose files
	// or no icons were declared.
	Container  string
	Files      []File
	Renditions []Rendition
	Warnings   []string
}

// icnsSizes and icoSizes are the required resolution tables of the two
// multi-resolution container formats.
var icnsSizes = []int{16, 32, 64, 128, 256, 512}
var icoSizes = []int{16, 24, 32, 48, 64, 256}

// Converter renders the icon container for a target format.  Output is
// deterministic: the resampling filter is fixed and sources are
// consulted in a stable order, so identical inputs yield byte-identical
// data.
type Converter struct{}

func NewConverter() Converter {
	return Converter{}
}

// Convert produces the icon artifacts for the format in destDir.  An
// empty set yields empty artifacts, not an error; a bundle without an
// icon is legal everywhere.
func (c Converter) Convert(set Set, format types.PackageFormat, destDir string, baseName string) (Artifacts, error) {
	if len(set) == 0 {
		return Artifacts{}, nil
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Artifacts{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create icon output directory").
			WithCause(err)
	}
	switch format {
	case types.FormatOSX:
		return c.convertICNS(set, destDir, baseName)
	case types.FormatMSI:
		return c.convertICO(set, destDir, baseName)
	case types.FormatDeb:
		return c.convertLargestPNG(set, destDir, baseName)
	case types.FormatIOS:
		return c.convertPNGSet(set, destDir)
	default:
		return Artifacts{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("no icon conversion for format %q", format))
	}
}

func (c Converter) convertICNS(set Set, destDir string, baseName string) (Artifacts, error) {
	// A prebuilt .icns source short-circuits conversion entirely.
	for _, source := range set {
		if source.ICNS {
			dest := filepath.Join(destDir, filepath.Base(source.Path))
			if err := core.CopyFile(source.Path, dest); err != nil {
				return Artifacts{}, err
			}
			return Artifacts{Container: dest}, nil
		}
	}

	artifacts := Artifacts{}
	var entries []icnsEntry
	largest := largestSource(set)
	for _, size := range icnsSizes {
		data, rendition, warning, err := c.renderSquare(set, size, 1)
		if err != nil {
			return Artifacts{}, err
		}
		if warning != "" {
			artifacts.Warnings = append(artifacts.Warnings, warning)
		}
		artifacts.Renditions = append(artifacts.Renditions, rendition)
		entries = append(entries, icnsEntry{Size: size, Scale: 1, PNG: data})

		// 2x counterparts only where the sources can serve them
		// without upscaling.
		if largest.PixelSize() >= size*2 {
			data, rendition, _, err := c.renderSquare(set, size*2, 2)
			if err != nil {
				return Artifacts{}, err
			}
			rendition.Size = size
			artifacts.Renditions = append(artifacts.Renditions, rendition)
			entries = append(entries, icnsEntry{Size: size, Scale: 2, PNG: data})
		}
	}
	dest := filepath.Join(destDir, baseName+".icns")
	if err := writeICNS(dest, entries); err != nil {
		return Artifacts{}, err
	}
	artifacts.Container = dest
	return artifacts, nil
}

func (c Converter) convertICO(set Set, destDir string, baseName string) (Artifacts, error) {
	if err := rejectICNSSources(set); err != nil {
		return Artifacts{}, err
	}
	artifacts := Artifacts{}
	var entries []icoEntry
	for _, size := range icoSizes {
		data, rendition, warning, err := c.renderSquare(set, size, 1)
		if err != nil {
			return Artifacts{}, err
		}
		if warning != "" {
			artifacts.Warnings = append(artifacts.Warnings, warning)
		}
		artifacts.Renditions = append(artifacts.Renditions, rendition)
		entries = append(entries, icoEntry{Size: size, PNG: data})
	}
	dest := filepath.Join(destDir, baseName+".ico")
	if err := writeICO(dest, entries); err != nil {
		return Artifacts{}, err
	}
	artifacts.Container = dest
	return artifacts, nil
}

// convertLargestPNG emits the single largest available square raster,
// used as the Linux desktop icon.
func (c Converter) convertLargestPNG(set Set, destDir string, baseName string) (Artifacts, error) {
	if err := rejectICNSSources(set); err != nil {
		return Artifacts{}, err
	}
	largest := largestSource(set)
	data, rendition, warning, err := c.renderSquare(set, largest.PixelSize(), largest.Scale)
	if err != nil {
		return Artifacts{}, err
	}
	artifacts := Artifacts{Renditions: []Rendition{rendition}}
	if warning != "" {
		artifacts.Warnings = append(artifacts.Warnings, warning)
	}
	dest := filepath.Join(destDir, baseName+".png")
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return Artifacts{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write icon file").
			WithCause(err)
	}
	artifacts.Container = dest
	artifacts.Files = []File{{
		Name:  baseName + ".png",
		Path:  dest,
		Size:  rendition.Size,
		Scale: rendition.Scale,
	}}
	return artifacts, nil
}

// convertPNGSet emits one icon_WxH[@2x].png per distinct (size, scale)
// available from the sources; nothing is synthesized for iOS.
func (c Converter) convertPNGSet(set Set, destDir string) (Artifacts, error) {
	if err := rejectICNSSources(set); err != nil {
		return Artifacts{}, err
	}
	artifacts := Artifacts{}
	seen := map[[2]int]bool{}
	for _, source := range set {
		key := [2]int{source.PixelSize(), source.Scale}
		if seen[key] {
			continue
		}
		seen[key] = true
		size := source.PixelSize() / source.Scale
		suffix := ""
		if source.Scale == 2 {
			suffix = "@2x"
		}
		name := fmt.Sprintf("icon_%dx%d%s.png", size, size, suffix)
		dest := filepath.Join(destDir, name)
		data, rendition, warning, err := c.renderSquare(Set{source}, source.PixelSize(), source.Scale)
		if err != nil {
			return Artifacts{}, err
		}
		if warning != "" {
			artifacts.Warnings = append(artifacts.Warnings, warning)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return Artifacts{}, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to write icon file").
				WithCause(err)
		}
		artifacts.Renditions = append(artifacts.Renditions, rendition)
		artifacts.Files = append(artifacts.Files, File{
			Name:  name,
			Path:  dest,
			Size:  size,
			Scale: source.Scale,
		})
	}
	sort.Slice(artifacts.Files, func(i, j int) bool {
		if artifacts.Files[i].Size != artifacts.Files[j].Size {
			return artifacts.Files[i].Size < artifacts.Files[j].Size
		}
		return artifacts.Files[i].Scale < artifacts.Files[j].Scale
	})
	return artifacts, nil
}

// renderSquare produces PNG data at pixels x pixels.  A PNG source of
// exactly that size passes through bit-identical; otherwise the
// highest-resolution source is resampled with a fixed Catmull-Rom
// filter.  Rendering from a smaller source is a warning, never an
// error.
func (c Converter) renderSquare(set Set, pixels int, preferScale int) ([]byte, Rendition, string, error) {
	if source, ok := exactMatch(set, pixels, preferScale); ok {
		if strings.EqualFold(filepath.Ext(source.Path), ".png") {
			data, err := os.ReadFile(source.Path)
			if err != nil {
				return nil, Rendition{}, "", errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg(fmt.Sprintf("failed to read icon file: %s", source.Path)).
					WithCause(err)
			}
			return data, Rendition{Size: pixels, Scale: preferScale, Source: source.Path}, "", nil
		}
		// Exact size in a non-PNG format: re-encode without resampling.
		data, err := reencodePNG(source.Path)
		if err != nil {
			return nil, Rendition{}, "", err
		}
		return data, Rendition{Size: pixels, Scale: preferScale, Source: source.Path}, "", nil
	}

	source := largestSource(set)
	warning := ""
	if source.PixelSize() < pixels {
		warning = fmt.Sprintf("icon %s is %dpx, upscaling to %dpx", source.Path, source.PixelSize(), pixels)
		log.Warn().
			Str("icon", source.Path).
			Int("have", source.PixelSize()).
			Int("want", pixels).
			Msg("icon source smaller than required resolution")
	}
	data, err := resamplePNG(source.Path, pixels)
	if err != nil {
		return nil, Rendition{}, "", err
	}
	rendition := Rendition{Size: pixels, Scale: preferScale, Source: source.Path, Synthesized: true}
	return data, rendition, warning, nil
}

func exactMatch(set Set, pixels int, preferScale int) (Source, bool) {
	var fallback Source
	found := false
	for _, source := range set {
		if source.Width != pixels || source.Height != pixels {
			continue
		}
		if source.Scale == preferScale {
			return source, true
		}
		if !found {
			fallback = source
			found = true
		}
	}
	return fallback, found
}

func largestSource(set Set) Source {
	largest := set[0]
	for _, source := range set[1:] {
		if source.PixelSize() > largest.PixelSize() {
			largest = source
		}
	}
	return largest
}

func rejectICNSSources(set Set) error {
	for _, source := range set {
		if source.ICNS {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unsupported icon format: %s (.icns sources apply to the osx format only)", source.Path))
		}
	}
	return nil
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("icon file not found: %s", path)).
			WithCause(err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported icon format: %s", path)).
			WithCause(err)
	}
	return img, nil
}

func reencodePNG(path string) ([]byte, error) {
	img, err := decodeImage(path)
	if err != nil {
		return nil, err
	}
	return encodePNG(img)
}

func resamplePNG(path string, pixels int) ([]byte, error) {
	img, err := decodeImage(path)
	if err != nil {
		return nil, err
	}
	scaled := image.NewRGBA(image.Rect(0, 0, pixels, pixels))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)
	return encodePNG(scaled)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode icon png").
			WithCause(err)
	}
	return buf.Bytes(), nil
}
