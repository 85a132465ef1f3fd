// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

// Package bundle compiles a Meteor project into a server bundle.
package bundle

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/meteor-gae/meteor-gae/pkg/merrors"
	"github.com/meteor-gae/meteor-gae/pkg/shell"
	"github.com/pkg/errors"
)

// Architecture of the App Engine flexible environment VMs.
const Architecture = "os.linux.x86_64"

// Bundle is the directory `meteor build --directory` writes the server to.
type Bundle struct {
	Dir string
}

type Compiler struct {
	logger log.Logger
	runner shell.Runner
}

func NewCompiler(logger log.Logger, runner shell.Runner) *Compiler {
	return &Compiler{logger: logger, runner: runner}
}

// Compile builds the project in projectDir into outputDir. An empty outputDir builds into a fresh
// temporary directory, which is removed again if the build fails.
func (c *Compiler) Compile(ctx context.Context, projectDir, outputDir string) (_ *Bundle, err error) {
	if outputDir == "" {
		outputDir, err = os.MkdirTemp("", "meteor-gae-")
		if err != nil {
			return nil, errors.Wrap(err, "create build dir")
		}
		defer func() {
			if err == nil {
				return
			}
			var errs merrors.Errors
			errs.Add(err, errors.Wrapf(os.RemoveAll(outputDir), "remove build dir %v", outputDir))
			err = errs.Err()
		}()
	}
	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return nil, errors.Wrap(err, "abs build dir")
	}

	level.Info(c.logger).Log("msg", "building Meteor bundle", "project", projectDir, "output", outputDir)
	if err := c.runner.Run(ctx, projectDir, "meteor", "build", outputDir,
		"--directory", "--server-only", "--architecture", Architecture); err != nil {
		return nil, errors.Wrap(err, "meteor build")
	}

	b := &Bundle{Dir: filepath.Join(outputDir, "bundle")}
	fi, err := os.Stat(b.Dir)
	if err != nil {
		return nil, errors.Wrap(err, "meteor build succeeded but produced no bundle")
	}
	if !fi.IsDir() {
		return nil, errors.Errorf("meteor build output %v is not a directory", b.Dir)
	}
	level.Info(c.logger).Log("msg", "Meteor bundle built", "dir", b.Dir)
	return b, nil
}
