// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

// Package pipeline runs a deployment: validate, build, prepare, deploy. The first failing step ends
// the run.
package pipeline

import (
	"context"
	"io"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/meteor-gae/meteor-gae/pkg/appengine"
	"github.com/meteor-gae/meteor-gae/pkg/bundle"
	"github.com/meteor-gae/meteor-gae/pkg/shell"
	"github.com/meteor-gae/meteor-gae/pkg/validate"
	"github.com/pkg/errors"
)

type State int

const (
	Idle State = iota
	Validated
	Built
	Prepared
	Deployed
	// Failed is terminal, entered from whichever state a step failed in.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validated:
		return "validated"
	case Built:
		return "built"
	case Prepared:
		return "prepared"
	case Deployed:
		return "deployed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

type Options struct {
	Validate validate.Options
	// BundleDir is where the bundle is built. Empty means a new temporary directory.
	BundleDir string
	// DryRun stops after Prepared and prints the plan to PlanOutput instead of deploying.
	DryRun     bool
	PlanOutput io.Writer
	// VersionFromGit deploys as the abbreviated git HEAD commit unless the settings pin a version.
	VersionFromGit bool
}

// Pipeline is single use: Run may be called once.
type Pipeline struct {
	logger log.Logger
	runner shell.Runner
	opts   Options

	state State
	// Bundle is set once the build succeeded.
	Bundle *bundle.Bundle
}

func New(logger log.Logger, runner shell.Runner, opts Options) *Pipeline {
	return &Pipeline{logger: logger, runner: runner, opts: opts}
}

func (p *Pipeline) State() State { return p.state }

func (p *Pipeline) transition(s State) {
	level.Debug(p.logger).Log("msg", "pipeline state changed", "from", p.state, "to", s)
	p.state = s
}

func (p *Pipeline) fail(step string, err error) error {
	level.Debug(p.logger).Log("msg", "pipeline step failed", "step", step, "state", p.state)
	p.transition(Failed)
	return errors.Wrap(err, step)
}

// Run executes the whole deployment.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.state != Idle {
		return errors.Errorf("pipeline already ran, state %v", p.state)
	}

	res, err := validate.New(p.logger, p.runner).Validate(p.opts.Validate)
	if err != nil {
		return p.fail("validate", err)
	}
	if p.opts.VersionFromGit && res.Settings.Deploy.Version == "" {
		ref, err := res.Project.HeadRef()
		if err != nil {
			return p.fail("validate", errors.Wrap(err, "version from git"))
		}
		level.Info(p.logger).Log("msg", "using git HEAD as App Engine version", "version", ref)
		res.Settings.Deploy = res.Settings.Deploy.WithVersion(ref)
	}
	p.transition(Validated)

	b, err := bundle.NewCompiler(p.logger, p.runner).Compile(ctx, res.Project.Dir, p.opts.BundleDir)
	if err != nil {
		return p.fail("build", err)
	}
	p.Bundle = b
	p.transition(Built)

	gae := appengine.New(p.logger, p.runner, appengine.Config{
		Settings: res.Settings,
		App:      res.App,
		Docker:   res.Docker,
	})
	if err := gae.Prepare(b); err != nil {
		return p.fail("prepare", err)
	}
	p.transition(Prepared)

	if p.opts.DryRun {
		out := p.opts.PlanOutput
		if out == nil {
			out = io.Discard
		}
		if err := gae.PrintPlan(out, b); err != nil {
			return p.fail("plan", err)
		}
		return nil
	}

	if err := gae.Deploy(ctx, b); err != nil {
		return p.fail("deploy", err)
	}
	p.transition(Deployed)
	return nil
}
