package bundler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

// stageState tracks the packager lifecycle:
// Staging -> Populated -> Finalized, with any error moving to Failed.
type stageState int

const (
	stateStaging stageState = iota
	statePopulated
	stateFinalized
	stateFailed
)

// staging is a temporary working tree beside the output path.  The
// visible output location is only ever touched during finalize, so a
// failed build never overwrites a previous artifact.
type staging struct {
	dir    string
	output string
	state  stageState
}

func newStaging(output string) (*staging, error) {
	parent := filepath.Dir(output)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to create output directory: %s", parent)).
			WithCause(err)
	}
	dir, err := os.MkdirTemp(parent, ".staging-")
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create staging directory").
			WithCause(err)
	}
	return &staging{dir: dir, output: output, state: stateStaging}, nil
}

func (s *staging) path(elem ...string) string {
	return filepath.Join(append([]string{s.dir}, elem...)...)
}

func (s *staging) markPopulated() {
	s.state = statePopulated
}

// finalize atomically replaces the output path.  When rel is empty the
// whole staging directory becomes the artifact (app bundles); otherwise
// the named file inside it is moved out and the rest is removed.  A
// previous artifact is moved aside first and restored if the swap
// fails, so a failed finalize never destroys the prior result.
func (s *staging) finalize(rel string) error {
	if s.state != statePopulated {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("staging directory finalized before it was populated")
	}
	src := s.dir
	if rel != "" {
		src = s.path(rel)
	}

	backup := ""
	if _, err := os.Lstat(s.output); err == nil {
		backup = filepath.Join(filepath.Dir(s.output), "."+filepath.Base(s.output)+".previous")
		_ = os.RemoveAll(backup)
		if err := os.Rename(s.output, backup); err != nil {
			s.discard()
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to move previous artifact aside: %s", s.output)).
				WithCause(err)
		}
	}
	if err := os.Rename(src, s.output); err != nil {
		if backup != "" {
			_ = os.Rename(backup, s.output)
		}
		s.discard()
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to finalize artifact: %s", s.output)).
			WithCause(err)
	}
	if backup != "" {
		_ = os.RemoveAll(backup)
	}
	if rel != "" {
		_ = os.RemoveAll(s.dir)
	}
	s.state = stateFinalized
	return nil
}

// discard removes the staging directory after a copy or generation
// error.
func (s *staging) discard() {
	s.state = stateFailed
	_ = os.RemoveAll(s.dir)
}

// retain marks the staging directory failed but keeps it on disk for
// inspection, used when an external tool rejected an otherwise fully
// populated tree.
func (s *staging) retain() {
	s.state = stateFailed
	log.Warn().Str("dir", s.dir).Msg("staging directory retained for inspection")
}
