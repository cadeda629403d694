// Package app wires the use cases together: manifest loading,
// resolution, resource staging, icon conversion, and the per-format
// packagers.  The CLI layer talks only to this package.
package app

import (
	"appbundler/internal/adapters"
	"appbundler/internal/ports"
)

type Service struct {
	Manifest ports.ManifestPort
	Tools    ports.ToolRunner
}

func NewService() Service {
	return Service{
		Manifest: adapters.NewManifestFileAdapter(),
		Tools:    adapters.NewExecToolRunner(),
	}
}
