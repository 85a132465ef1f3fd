// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/meteor-gae/meteor-gae/pkg/pipeline"
	"github.com/meteor-gae/meteor-gae/pkg/shell/shelltest"
	"github.com/meteor-gae/meteor-gae/pkg/testutil"
	"github.com/meteor-gae/meteor-gae/pkg/validate"
)

func meteorApp(t *testing.T, settings string) pipeline.Options {
	dir := t.TempDir()
	for name, content := range map[string]string{
		".meteor/release":  "METEOR@1.10.2\n",
		".meteor/packages": "meteor-base\nmongo\n",
		"settings.json":    settings,
		"app.yaml":         "runtime: custom\nenv: flex\nenv_variables:\n  ROOT_URL: https://example.com\n",
		"Dockerfile":       "FROM node:12\nCOPY . /app\n",
	} {
		p := filepath.Join(dir, filepath.FromSlash(name))
		testutil.Ok(t, os.MkdirAll(filepath.Dir(p), 0o755))
		testutil.Ok(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return pipeline.Options{
		Validate: validate.Options{
			ProjectDir:   dir,
			SettingsPath: filepath.Join(dir, "settings.json"),
			AppPath:      filepath.Join(dir, "app.yaml"),
			DockerPath:   filepath.Join(dir, "Dockerfile"),
		},
		BundleDir: filepath.Join(t.TempDir(), "out"),
	}
}

func TestRunDeploy_ExitCodes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := shelltest.New()
		err := runDeploy(context.Background(), log.NewNopLogger(), r, meteorApp(t, `{"meteor-google-cloud": {"project": "p"}}`))
		testutil.Equals(t, 0, exitCode(err))
		testutil.Equals(t, 1, len(r.CallsTo("meteor")))
		testutil.Equals(t, 1, len(r.CallsTo("gcloud")))
	})
	t.Run("invalid settings", func(t *testing.T) {
		r := shelltest.New()
		err := runDeploy(context.Background(), log.NewNopLogger(), r, meteorApp(t, `{"meteor-google-cloud": `))
		testutil.NotOk(t, err)
		testutil.Equals(t, 1, exitCode(err))
		testutil.Equals(t, 0, len(r.CallsTo("meteor")), "no build after invalid settings")
	})
}
