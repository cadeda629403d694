package adapters

import (
	"context"
	"os/exec"

	"appbundler/internal/ports"
)

// ExecToolRunner invokes native packaging tools as blocking subprocess
// calls with captured combined output.
type ExecToolRunner struct{}

func NewExecToolRunner() ExecToolRunner {
	return ExecToolRunner{}
}

func (r ExecToolRunner) LookPath(name string) error {
	_, err := exec.LookPath(name)
	return err
}

func (r ExecToolRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

var _ ports.ToolRunner = ExecToolRunner{}
