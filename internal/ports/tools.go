package ports

import "context"

// ToolRunner is the subprocess boundary for native packaging utilities
// (dpkg-deb, wix).  Packagers receive it as a dependency so tests can
// substitute a fake.
type ToolRunner interface {
	// LookPath reports whether the named tool is installed.
	LookPath(name string) error

	// Run executes the tool synchronously in dir and returns its
	// combined output.  A non-zero exit status is returned as an error
	// alongside the captured output.
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}
