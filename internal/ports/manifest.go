package ports

import "appbundler/internal/types"

// ManifestPort loads a bundle manifest from disk.
type ManifestPort interface {
	LoadManifest(path string) (types.Manifest, error)
}
