// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

package main

import (
	"context"
	"os"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/meteor-gae/meteor-gae/pkg/extkingpin"
	"github.com/meteor-gae/meteor-gae/pkg/pipeline"
	"github.com/meteor-gae/meteor-gae/pkg/shell"
	"github.com/meteor-gae/meteor-gae/pkg/validate"
)

type deployFlags struct {
	settings       *string
	app            *string
	docker         *string
	projectDir     *string
	minMeteor      *string
	bundleDir      *string
	dryRun         *bool
	versionFromGit *bool
	quiet          *bool
}

func registerFlags(app *extkingpin.App, quiet *bool) *deployFlags {
	return &deployFlags{
		settings:       app.Flag("settings", "Path to the Meteor settings file. Its \"meteor-google-cloud\" key holds the gcloud app deploy options.").Short('s').Default("settings.json").String(),
		app:            app.Flag("app", "Path to the app.yaml App Engine config file. Defaults to app.yaml in the project dir, if any.").Short('c').String(),
		docker:         app.Flag("docker", "Path to the Dockerfile.").Short('d').Default("Dockerfile").String(),
		projectDir:     app.Flag("project.dir", "Meteor project directory.").Default(".").String(),
		minMeteor:      app.Flag("meteor.min-version", "Minimum Meteor release the project must use.").Default(validate.DefaultMinMeteorVersion).String(),
		bundleDir:      app.Flag("bundle.dir", "Directory to build the bundle in. A temporary directory is used if empty.").String(),
		dryRun:         app.Flag("dry-run", "Build and prepare the bundle, print the generated app.yaml diff and gcloud command, do not deploy.").Bool(),
		versionFromGit: app.Flag("version-from-git", "Deploy as the abbreviated git HEAD commit when the settings do not set a version.").Bool(),
		quiet:          quiet,
	}
}

func (f *deployFlags) validateOptions() validate.Options {
	return validate.Options{
		ProjectDir:       *f.projectDir,
		SettingsPath:     *f.settings,
		AppPath:          *f.app,
		DockerPath:       *f.docker,
		MinMeteorVersion: *f.minMeteor,
	}
}

func (f *deployFlags) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Validate:       f.validateOptions(),
		BundleDir:      *f.bundleDir,
		DryRun:         *f.dryRun,
		PlanOutput:     os.Stdout,
		VersionFromGit: *f.versionFromGit,
	}
}

func registerDeploy(app *extkingpin.App, f *deployFlags) {
	cmd := app.Command("deploy", "Validate the environment, build the Meteor bundle and deploy it to App Engine.")
	cmd.Default()
	cmd.Run(func(ctx context.Context, logger log.Logger) error {
		return runDeploy(ctx, logger, shell.NewExec(logger, *f.quiet), f.pipelineOptions())
	})
}

func runDeploy(ctx context.Context, logger log.Logger, runner shell.Runner, opts pipeline.Options) error {
	p := pipeline.New(logger, runner, opts)
	if err := p.Run(ctx); err != nil {
		return err
	}
	if opts.DryRun {
		level.Info(logger).Log("msg", "dry run finished, bundle left in place", "dir", p.Bundle.Dir)
		return nil
	}
	level.Info(logger).Log("msg", "deployment finished", "bundle", p.Bundle.Dir)
	return nil
}

func registerValidate(app *extkingpin.App, f *deployFlags) {
	cmd := app.Command("validate", "Only check gcloud, the Meteor project and the settings, app and docker files.")
	cmd.Run(func(ctx context.Context, logger log.Logger) error {
		res, err := validate.New(logger, shell.NewExec(logger, *f.quiet)).Validate(f.validateOptions())
		if err != nil {
			return err
		}
		level.Info(logger).Log("msg", "environment is valid", "project", res.Settings.Deploy.Project, "meteor", res.Project.Release)
		return nil
	})
}
