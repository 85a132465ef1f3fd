// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

// Package shelltest provides a recording shell.Runner for tests.
package shelltest

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/meteor-gae/meteor-gae/pkg/shell"
	"github.com/pkg/errors"
)

var _ shell.Runner = &Runner{}

// Call is one recorded Run invocation.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Runner records every LookPath and Run. Binaries are resolvable only when listed in Paths.
// Hooks, keyed by binary name, decide the outcome of Run; a binary without a hook succeeds.
type Runner struct {
	Paths map[string]string
	Hooks map[string]func(Call) error

	mtx    sync.Mutex
	looked []string
	calls  []Call
}

// New returns a Runner with gcloud and meteor resolvable and meteor build creating the bundle dir.
func New() *Runner {
	return &Runner{
		Paths: map[string]string{"gcloud": "/usr/bin/gcloud", "meteor": "/usr/local/bin/meteor"},
		Hooks: map[string]func(Call) error{"meteor": MeteorBuild},
	}
}

func (r *Runner) LookPath(name string) (string, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.looked = append(r.looked, name)
	if p, ok := r.Paths[name]; ok {
		return p, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

func (r *Runner) Run(_ context.Context, dir, name string, args ...string) error {
	c := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}
	r.mtx.Lock()
	r.calls = append(r.calls, c)
	hook := r.Hooks[name]
	r.mtx.Unlock()
	if hook == nil {
		return nil
	}
	return hook(c)
}

// Calls returns the recorded Run invocations in order.
func (r *Runner) Calls() []Call {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsTo returns the recorded Run invocations of the named binary.
func (r *Runner) CallsTo(name string) []Call {
	var ret []Call
	for _, c := range r.Calls() {
		if c.Name == name {
			ret = append(ret, c)
		}
	}
	return ret
}

// Looked returns the names passed to LookPath in order.
func (r *Runner) Looked() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return append([]string(nil), r.looked...)
}

// MeteorBuild emulates `meteor build <out> --directory` by creating <out>/bundle.
func MeteorBuild(c Call) error {
	if len(c.Args) < 2 || c.Args[0] != "build" {
		return nil
	}
	out := c.Args[1]
	if !filepath.IsAbs(out) {
		out = filepath.Join(c.Dir, out)
	}
	return os.MkdirAll(filepath.Join(out, "bundle", "programs", "server"), 0o755)
}

// Fail returns a hook that fails every invocation with msg.
func Fail(msg string) func(Call) error {
	return func(Call) error { return errors.New(msg) }
}
