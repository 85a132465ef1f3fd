// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

package bundle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/meteor-gae/meteor-gae/pkg/shell/shelltest"
	"github.com/meteor-gae/meteor-gae/pkg/testutil"
)

func TestCompile(t *testing.T) {
	projectDir, out := t.TempDir(), t.TempDir()
	r := shelltest.New()

	b, err := NewCompiler(log.NewNopLogger(), r).Compile(context.Background(), projectDir, out)
	testutil.Ok(t, err)
	testutil.Equals(t, filepath.Join(out, "bundle"), b.Dir)
	testutil.Equals(t, []shelltest.Call{{
		Dir:  projectDir,
		Name: "meteor",
		Args: []string{"build", out, "--directory", "--server-only", "--architecture", Architecture},
	}}, r.Calls())
}

func TestCompile_TempDir(t *testing.T) {
	r := shelltest.New()
	b, err := NewCompiler(log.NewNopLogger(), r).Compile(context.Background(), t.TempDir(), "")
	testutil.Ok(t, err)
	defer os.RemoveAll(filepath.Dir(b.Dir))

	testutil.Assert(t, strings.HasPrefix(filepath.Base(filepath.Dir(b.Dir)), "meteor-gae-"), b.Dir)
	_, err = os.Stat(b.Dir)
	testutil.Ok(t, err)
}

func TestCompile_Failure(t *testing.T) {
	r := shelltest.New()
	r.Hooks["meteor"] = shelltest.Fail("exit status 1: While building for os.linux.x86_64: error")

	_, err := NewCompiler(log.NewNopLogger(), r).Compile(context.Background(), t.TempDir(), t.TempDir())
	testutil.NotOk(t, err)
	testutil.Assert(t, strings.Contains(err.Error(), "While building"), "tool output surfaces in %v", err)
}

func TestCompile_FailureRemovesTempDir(t *testing.T) {
	r := shelltest.New()
	var out string
	r.Hooks["meteor"] = func(c shelltest.Call) error {
		out = c.Args[1]
		return shelltest.Fail("boom")(c)
	}

	_, err := NewCompiler(log.NewNopLogger(), r).Compile(context.Background(), t.TempDir(), "")
	testutil.NotOk(t, err)
	_, statErr := os.Stat(out)
	testutil.Assert(t, os.IsNotExist(statErr), "temp build dir %v should be removed", out)
}

func TestCompile_NoOutput(t *testing.T) {
	r := shelltest.New()
	r.Hooks["meteor"] = nil

	_, err := NewCompiler(log.NewNopLogger(), r).Compile(context.Background(), t.TempDir(), t.TempDir())
	testutil.NotOk(t, err)
}
