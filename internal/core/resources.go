package core

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"appbundler/internal/shared"
	"appbundler/internal/types"
)

// ResourceCollector expands the resource declarations of a BundleSpec
// into concrete (absolute source, relative destination) pairs.  Globs
// are expanded here, never at package time; directories are included
// recursively preserving their internal layout.
type ResourceCollector struct {
	Root string
}

type CollectResult struct {
	Mappings []types.ResourceMapping
	Warnings []string
}

func NewResourceCollector(root string) ResourceCollector {
	return ResourceCollector{Root: root}
}

// Collect expands every declaration in order.  A glob matching zero
// files records a warning and continues; an explicit non-glob path that
// does not exist is an error.  Destination collisions resolve
// deterministically with the last-declared mapping winning.
func (c ResourceCollector) Collect(refs []types.ResourceRef) (CollectResult, error) {
	result := CollectResult{}
	index := map[string]int{}

	add := func(mapping types.ResourceMapping) {
		dest := filepath.ToSlash(mapping.Dest)
		mapping.Dest = dest
		if at, seen := index[dest]; seen {
			result.Mappings[at] = mapping
			return
		}
		index[dest] = len(result.Mappings)
		result.Mappings = append(result.Mappings, mapping)
	}

	for _, ref := range refs {
		from := strings.TrimSpace(ref.From)
		if from == "" {
			return CollectResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("resource declaration has an empty source path")
		}
		if shared.HasGlobMeta(from) {
			if err := c.collectGlob(ref, from, add, &result.Warnings); err != nil {
				return CollectResult{}, err
			}
			continue
		}
		if err := c.collectPath(ref, from, add); err != nil {
			return CollectResult{}, err
		}
	}
	return result, nil
}

func (c ResourceCollector) collectGlob(ref types.ResourceRef, pattern string, add func(types.ResourceMapping), warnings *[]string) error {
	matches, err := filepath.Glob(c.abs(pattern))
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid resource glob %q", pattern)).
			WithCause(err)
	}
	if len(matches) == 0 {
		warning := fmt.Sprintf("resource glob %q matched no files", pattern)
		log.Warn().Str("glob", pattern).Msg("resource glob matched no files")
		*warnings = append(*warnings, warning)
		return nil
	}
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			return fsError("failed to stat resource", match, err)
		}
		if info.IsDir() {
			if err := c.collectDir(match, c.globDest(ref, match), add); err != nil {
				return err
			}
			continue
		}
		add(types.ResourceMapping{Source: match, Dest: c.globDest(ref, match)})
	}
	return nil
}

func (c ResourceCollector) collectPath(ref types.ResourceRef, from string, add func(types.ResourceMapping)) error {
	path := c.abs(from)
	info, err := os.Stat(path)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("resource not found: %s", from)).
			WithCause(err)
	}
	if info.IsDir() {
		dest := ref.To
		if dest == "" {
			dest = c.defaultDest(path)
		}
		return c.collectDir(path, dest, add)
	}
	dest := ref.To
	if dest == "" {
		dest = c.defaultDest(path)
	}
	add(types.ResourceMapping{Source: path, Dest: dest})
	return nil
}

// collectDir walks the directory recursively, mapping each file to
// destRoot joined with its path relative to the directory.
func (c ResourceCollector) collectDir(dir string, destRoot string, add func(types.ResourceMapping)) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		add(types.ResourceMapping{Source: path, Dest: filepath.Join(destRoot, rel)})
		return nil
	})
	if err != nil {
		return fsError("failed to walk resource directory", dir, err)
	}
	return nil
}

// globDest computes the destination of a glob match: under the declared
// `to` directory when present, otherwise the match's project-relative
// path so the source layout is preserved.
func (c ResourceCollector) globDest(ref types.ResourceRef, match string) string {
	if ref.To != "" {
		return filepath.Join(ref.To, filepath.Base(match))
	}
	return c.defaultDest(match)
}

// defaultDest is the destination used when no `to` was declared: the
// source's path relative to the project root, or just its base name for
// sources outside the root.
func (c ResourceCollector) defaultDest(path string) string {
	if rel, err := filepath.Rel(c.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return filepath.Base(path)
}

func (c ResourceCollector) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Root, path)
}

// CopyAll materializes the collected mappings under destRoot, creating
// parent directories as needed and preserving source permission bits.
func CopyAll(mappings []types.ResourceMapping, destRoot string) error {
	for _, mapping := range mappings {
		dest := filepath.Join(destRoot, filepath.FromSlash(mapping.Dest))
		if err := CopyFile(mapping.Source, dest); err != nil {
			return err
		}
	}
	return nil
}

// CopyFile copies a single file, creating the destination's parent
// directories first.
func CopyFile(src string, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fsError("failed to stat file", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fsError("failed to create directory", filepath.Dir(dest), err)
	}
	srcFile, err := os.Open(src)
	if err != nil {
		return fsError("failed to open file", src, err)
	}
	defer srcFile.Close()
	destFile, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fsError("failed to create file", dest, err)
	}
	defer destFile.Close()
	if _, err := io.Copy(destFile, srcFile); err != nil {
		return fsError("failed to copy file", dest, err)
	}
	return nil
}

// CopyTree copies the full contents of srcDir into destDir.
func CopyTree(srcDir string, destDir string) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		return CopyFile(path, filepath.Join(destDir, rel))
	})
}

func fsError(msg string, path string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("%s: %s", msg, path)).
		WithCause(err)
}
