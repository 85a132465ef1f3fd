// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

// Package appengine stages a Meteor bundle for the App Engine flexible environment and deploys it.
package appengine

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/meteor-gae/meteor-gae/pkg/bundle"
	"github.com/meteor-gae/meteor-gae/pkg/config"
	"github.com/meteor-gae/meteor-gae/pkg/shell"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// SettingsEnv is the variable Meteor reads its settings from at startup.
	SettingsEnv = "METEOR_SETTINGS"

	appFile    = "app.yaml"
	dockerFile = "Dockerfile"
)

type Config struct {
	Settings *config.SettingsFile
	App      *config.AppConfig
	Docker   config.DockerFile
}

// Instance deploys one bundle as one App Engine service version.
type Instance struct {
	logger log.Logger
	runner shell.Runner
	cfg    Config
}

func New(logger log.Logger, runner shell.Runner, cfg Config) *Instance {
	return &Instance{logger: logger, runner: runner, cfg: cfg}
}

// AppYAML renders the deployed app.yaml: the app config with the Meteor settings in env_variables.
func (i *Instance) AppYAML() ([]byte, error) {
	settings, err := json.Marshal(i.cfg.Settings.MeteorSettings())
	if err != nil {
		return nil, errors.Wrap(err, "marshal Meteor settings")
	}

	env := i.cfg.App.EnvVariables()
	if _, ok := env[SettingsEnv]; ok {
		level.Warn(i.logger).Log("msg", "app config sets env variable that is generated from the settings file, overriding it", "name", SettingsEnv, "app", i.cfg.App.Path)
	}
	env[SettingsEnv] = string(settings)

	values := make(map[string]interface{}, len(i.cfg.App.Values)+1)
	for k, v := range i.cfg.App.Values {
		values[k] = v
	}
	values["env_variables"] = env

	b, err := yaml.Marshal(values)
	if err != nil {
		return nil, errors.Wrap(err, "marshal app config")
	}
	return b, nil
}

// Prepare writes app.yaml and the Dockerfile into the bundle directory.
func (i *Instance) Prepare(b *bundle.Bundle) error {
	app, err := i.AppYAML()
	if err != nil {
		return err
	}
	appPath := filepath.Join(b.Dir, appFile)
	if err := os.WriteFile(appPath, app, 0o644); err != nil {
		return errors.Wrapf(err, "write %v", appPath)
	}

	dockerPath := filepath.Join(b.Dir, dockerFile)
	if err := copyFile(i.cfg.Docker.Path, dockerPath); err != nil {
		return errors.Wrapf(err, "copy %v to %v", i.cfg.Docker.Path, dockerPath)
	}
	level.Info(i.logger).Log("msg", "bundle prepared", "dir", b.Dir, "app", appPath, "docker", dockerPath)
	return nil
}

// DeployArgs returns the gcloud arguments Deploy runs with.
func (i *Instance) DeployArgs() []string {
	return append([]string{"app", "deploy", appFile, "--quiet"}, i.cfg.Settings.Deploy.Args()...)
}

// Deploy runs `gcloud app deploy` in the prepared bundle directory.
func (i *Instance) Deploy(ctx context.Context, b *bundle.Bundle) error {
	level.Info(i.logger).Log("msg", "deploying to App Engine", "project", i.cfg.Settings.Deploy.Project, "version", i.cfg.Settings.Deploy.Version)
	if err := i.runner.Run(ctx, b.Dir, "gcloud", i.DeployArgs()...); err != nil {
		return errors.Wrap(err, "gcloud app deploy")
	}
	level.Info(i.logger).Log("msg", "deployed to App Engine", "project", i.cfg.Settings.Deploy.Project)
	return nil
}

// PrintPlan writes what Deploy would do: the diff between the source and the generated app.yaml
// and the gcloud command line.
func (i *Instance) PrintPlan(w io.Writer, b *bundle.Bundle) error {
	var (
		base     []byte
		baseName = "(default app config)"
		err      error
	)
	if i.cfg.App.Path != "" {
		baseName = i.cfg.App.Path
		if base, err = os.ReadFile(i.cfg.App.Path); err != nil {
			return errors.Wrapf(err, "read %v", i.cfg.App.Path)
		}
	} else if base, err = yaml.Marshal(i.cfg.App.Values); err != nil {
		return errors.Wrap(err, "marshal default app config")
	}

	generated, err := os.ReadFile(filepath.Join(b.Dir, appFile))
	if err != nil {
		return errors.Wrap(err, "read generated app config")
	}
	if err := printDiff(w, baseName, filepath.Join(b.Dir, appFile), string(base), string(generated)); err != nil {
		return err
	}
	_, err = io.WriteString(w, "(dry run) cd "+b.Dir+" && gcloud "+strings.Join(i.DeployArgs(), " ")+"\n")
	return err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
