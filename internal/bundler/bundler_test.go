package bundler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"appbundler/internal/types"
)

// fakeToolRunner records invocations and simulates the native tools.
// onRun, when set, runs in place of the real tool and typically drops
// the expected artifact into the staging directory.
type fakeToolRunner struct {
	missing map[string]bool
	failRun bool
	output  []byte

	calls [][]string
	dirs  []string
	onRun func(dir string, name string, args []string) error
}

func (f *fakeToolRunner) LookPath(name string) error {
	if f.missing[name] {
		return errors.New("executable file not found in $PATH")
	}
	return nil
}

func (f *fakeToolRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	f.dirs = append(f.dirs, dir)
	if f.failRun {
		return f.output, errors.New("exit status 2")
	}
	if f.onRun != nil {
		if err := f.onRun(dir, name, args); err != nil {
			return nil, err
		}
	}
	return f.output, nil
}

func writeBinary(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "demo")
	require.NoError(t, os.WriteFile(path, []byte("\x7fELF fake binary"), 0o755))
	return path
}

func testSpec() types.BundleSpec {
	return types.BundleSpec{
		Identifier:       "com.acme.demo",
		Name:             "Demo App",
		Version:          "1.2.0",
		BinaryName:       "demo",
		Copyright:        "Copyright (c) 2026 Acme",
		Category:         "Utility",
		ShortDescription: "a demo application",
		LongDescription:  "A longer description.\n\nWith a second paragraph.",
		Homepage:         "https://demo.acme.test",
		Authors:          []string{"Acme <dev@acme.test>"},
		Deb: types.DebSettings{
			Depends: []string{"libgtk-3-0", "libc6"},
		},
	}
}

func stagedResources(t *testing.T) (string, []types.ResourceMapping) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "assets", "logo.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("logo"), 0o644))
	return dir, []types.ResourceMapping{{Source: path, Dest: "assets/logo.png"}}
}
