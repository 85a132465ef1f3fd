// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

// Package validate checks that everything a deployment needs is in place before anything is built.
package validate

import (
	"os"
	"path/filepath"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/meteor-gae/meteor-gae/pkg/config"
	"github.com/meteor-gae/meteor-gae/pkg/config/loader"
	"github.com/meteor-gae/meteor-gae/pkg/project"
	"github.com/meteor-gae/meteor-gae/pkg/shell"
	"github.com/pkg/errors"
)

// ErrToolMissing is returned when gcloud or meteor cannot be resolved.
var ErrToolMissing = errors.New("required tool is not installed")

// DefaultMinMeteorVersion is the oldest Meteor release whose server bundle runs on the custom runtime.
const DefaultMinMeteorVersion = "1.6"

const defaultAppFile = "app.yaml"

type Options struct {
	ProjectDir       string
	SettingsPath     string
	AppPath          string
	DockerPath       string
	MinMeteorVersion string
}

// Result holds the validated inputs of a deployment.
type Result struct {
	Project  *project.Project
	Settings *config.SettingsFile
	App      *config.AppConfig
	Docker   config.DockerFile
}

type Validator struct {
	logger log.Logger
	runner shell.Runner
}

func New(logger log.Logger, runner shell.Runner) *Validator {
	return &Validator{logger: logger, runner: runner}
}

// Validate runs all checks in order and stops at the first failure.
func (v *Validator) Validate(opts Options) (*Result, error) {
	if err := v.requireTool("gcloud", "https://cloud.google.com/sdk/docs/install"); err != nil {
		return nil, err
	}

	prj, err := v.meteorProject(opts)
	if err != nil {
		return nil, err
	}

	settings, err := loader.LoadSettings(opts.SettingsPath)
	if err != nil {
		return nil, err
	}
	level.Debug(v.logger).Log("msg", "settings validated", "path", settings.Path, "project", settings.Deploy.Project)

	app, err := v.appConfig(prj.Dir, opts.AppPath)
	if err != nil {
		return nil, err
	}

	docker, err := loader.LoadDockerFile(opts.DockerPath)
	if err != nil {
		return nil, err
	}
	level.Debug(v.logger).Log("msg", "Dockerfile found", "path", docker.Path)

	return &Result{Project: prj, Settings: settings, App: app, Docker: docker}, nil
}

func (v *Validator) requireTool(name, installURL string) error {
	p, err := v.runner.LookPath(name)
	if err != nil {
		return errors.Wrapf(ErrToolMissing, "%s not found (%v), install it from %s", name, err, installURL)
	}
	level.Debug(v.logger).Log("msg", "found tool", "name", name, "path", p)
	return nil
}

func (v *Validator) meteorProject(opts Options) (*project.Project, error) {
	if err := v.requireTool("meteor", "https://www.meteor.com/developers/install"); err != nil {
		return nil, err
	}
	dir := opts.ProjectDir
	if dir == "" {
		dir = "."
	}
	prj, err := project.Open(dir)
	if err != nil {
		return nil, err
	}
	minVersion := opts.MinMeteorVersion
	if minVersion == "" {
		minVersion = DefaultMinMeteorVersion
	}
	if err := prj.RequireVersion(minVersion); err != nil {
		return nil, err
	}
	level.Debug(v.logger).Log("msg", "Meteor project validated", "dir", prj.Dir, "release", prj.Release, "packages", len(prj.Packages))
	return prj, nil
}

// appConfig loads the given app.yaml. Without one, app.yaml in the project dir is used if present,
// otherwise the default custom runtime configuration.
func (v *Validator) appConfig(projectDir, path string) (*config.AppConfig, error) {
	if path != "" {
		return loader.LoadAppConfig(path)
	}
	candidate := filepath.Join(projectDir, defaultAppFile)
	if _, err := os.Stat(candidate); err == nil {
		level.Info(v.logger).Log("msg", "no app config given, using the one found in the project", "path", candidate)
		return loader.LoadAppConfig(candidate)
	}
	level.Info(v.logger).Log("msg", "no app config given or found, using defaults", "runtime", "custom", "env", "flex")
	return config.DefaultAppConfig(), nil
}
