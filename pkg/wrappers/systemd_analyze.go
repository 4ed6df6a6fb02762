package wrappers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/user/sdsec/pkg/logger"
)

var (
	ErrAnalyzerNotFound = errors.New("analyzer binary not found")
	ErrAnalyzerFailed   = errors.New("analyzer failed")
)

// DefaultArgs asks systemd-analyze for machine readable per-unit results.
var DefaultArgs = []string{"security", "--json=short", "--no-pager"}

// Analyzer produces the raw structured output of one audit run
type Analyzer interface {
	Name() string
	Collect(ctx context.Context) ([]byte, error)
}

// Runner executes a command and returns its stdout and stderr.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// SystemdAnalyzeWrapper implements Analyzer for systemd-analyze security
type SystemdAnalyzeWrapper struct {
	Path string
	Args []string

	// Run and LookPath default to os/exec.
	Run      Runner
	LookPath func(file string) (string, error)
}

// NewSystemdAnalyzeWrapper returns a wrapper for the given binary and args.
// Empty values fall back to systemd-analyze and DefaultArgs.
func NewSystemdAnalyzeWrapper(path string, args []string) *SystemdAnalyzeWrapper {
	if path == "" {
		path = "systemd-analyze"
	}
	if len(args) == 0 {
		args = DefaultArgs
	}
	return &SystemdAnalyzeWrapper{
		Path:     path,
		Args:     args,
		Run:      execRunner,
		LookPath: exec.LookPath,
	}
}

func (s *SystemdAnalyzeWrapper) Name() string {
	return "systemd-analyze security"
}

func (s *SystemdAnalyzeWrapper) Description() string {
	return "Audits the security exposure of every loaded systemd service unit."
}

// Collect runs the analyzer once and returns its full stdout. A missing
// binary or a failing exit status is fatal; there is no retry.
func (s *SystemdAnalyzeWrapper) Collect(ctx context.Context) ([]byte, error) {
	lookPath := s.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	run := s.Run
	if run == nil {
		run = execRunner
	}

	bin, err := lookPath(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAnalyzerNotFound, s.Path, err)
	}

	logger.Debugf("%s: running %s %s", s.Description(), bin, strings.Join(s.Args, " "))
	stdout, stderr, err := run(ctx, bin, s.Args...)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrAnalyzerFailed, msg)
	}

	logger.Debugf("%s returned %d bytes", s.Name(), len(stdout))
	return stdout, nil
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
