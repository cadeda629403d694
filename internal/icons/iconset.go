// Package icons turns manifest icon declarations into the icon
// container a target package format requires: a multi-resolution ICNS
// or ICO file, a per-size PNG set, or a single raster.
package icons

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/ZanzyTHEbar/errbuilder-go"
	_ "golang.org/x/image/bmp"

	"appbundler/internal/shared"
)

// Source is one declared icon image: its path, the scale its file name
// declares (a "@2x" stem suffix means 2), and the pixel dimensions
// detected from the image header.
type Source struct {
	Path   string
	Scale  int
	Width  int
	Height int

	// ICNS marks a prebuilt .icns container, usable only as a
	// passthrough for the macOS format.
	ICNS bool
}

// PixelSize is the usable square size of the source, the smaller of
// its two dimensions.
func (s Source) PixelSize() int {
	if s.Width < s.Height {
		return s.Width
	}
	return s.Height
}

// Set is the ordered list of declared icon sources.
type Set []Source

// LoadSet reads the image header of every declared icon file.  An
// undecodable source is an error; .icns files are carried through
// without decoding since only the macOS packager can use them.
func LoadSet(paths []string) (Set, error) {
	var set Set
	for _, path := range paths {
		if strings.EqualFold(filepath.Ext(path), ".icns") {
			if _, err := os.Stat(path); err != nil {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeNotFound).
					WithMsg(fmt.Sprintf("icon file not found: %s", path)).
					WithCause(err)
			}
			set = append(set, Source{Path: path, Scale: 1, ICNS: true})
			continue
		}
		source, err := loadSource(path)
		if err != nil {
			return nil, err
		}
		set = append(set, source)
	}
	return set, nil
}

func loadSource(path string) (Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return Source{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("icon file not found: %s", path)).
			WithCause(err)
	}
	defer file.Close()
	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return Source{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported icon format: %s", path)).
			WithCause(err)
	}
	scale := 1
	if shared.IsRetina(path) {
		scale = 2
	}
	return Source{
		Path:   path,
		Scale:  scale,
		Width:  config.Width,
		Height: config.Height,
	}, nil
}
