// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

// Package shell runs the external tools (gcloud, meteor) the deployment delegates to.
package shell

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// Runner resolves and runs external commands.
type Runner interface {
	// LookPath returns the resolved path of the named binary.
	LookPath(name string) (string, error)
	// Run runs the named binary in dir and blocks until it exits. Non-zero exit is an error.
	Run(ctx context.Context, dir, name string, args ...string) error
}

// stderrTailSize is how much of a failed command's stderr ends up in its error.
const stderrTailSize = 2048

// Exec is a Runner backed by os/exec.
type Exec struct {
	logger log.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewExec returns a Runner that streams child output to the process stdout/stderr.
// In quiet mode child output is discarded; a failing command still reports its stderr tail.
func NewExec(logger log.Logger, quiet bool) *Exec {
	e := &Exec{logger: logger, stdout: os.Stdout, stderr: os.Stderr}
	if quiet {
		e.stdout, e.stderr = io.Discard, io.Discard
	}
	return e
}

func (e *Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (e *Exec) Run(ctx context.Context, dir, name string, args ...string) error {
	cmdline := strings.Join(append([]string{name}, args...), " ")
	level.Debug(e.logger).Log("msg", "running command", "cmd", cmdline, "dir", dir)

	tail := &tailBuffer{max: stderrTailSize}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = e.stdout
	cmd.Stderr = io.MultiWriter(e.stderr, tail)
	if err := cmd.Run(); err != nil {
		if out := strings.TrimSpace(tail.String()); out != "" {
			return errors.Wrapf(err, "%s: %s", cmdline, out)
		}
		return errors.Wrap(err, cmdline)
	}
	return nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
