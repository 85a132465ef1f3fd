// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

package loader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/meteor-gae/meteor-gae/pkg/config"
	"github.com/meteor-gae/meteor-gae/pkg/testutil"
	"github.com/pkg/errors"
)

func TestParseSettings(t *testing.T) {
	s, err := ParseSettings([]byte(`{
  "meteor-google-cloud": {
    "project": "my-gcp-project",
    "version": 12,
    "promote": true,
    "stop-previous-version": false
  },
  "public": {"analytics": "UA-1"},
  "private": {"retries": 3}
}`))
	testutil.Ok(t, err)
	testutil.Equals(t, config.DeployOptions{
		Project: "my-gcp-project",
		Version: "12",
		Flags: map[string]interface{}{
			"project":               "my-gcp-project",
			"version":               json.Number("12"),
			"promote":               true,
			"stop-previous-version": false,
		},
	}, s.Deploy)
	testutil.Equals(t, map[string]interface{}{
		"public":  map[string]interface{}{"analytics": "UA-1"},
		"private": map[string]interface{}{"retries": json.Number("3")},
	}, s.MeteorSettings())
}

func TestParseSettings_Invalid(t *testing.T) {
	for _, tcase := range []struct {
		name  string
		input string
	}{
		{name: "syntax", input: `{"meteor-google-cloud": {`},
		{name: "not an object", input: `[1, 2]`},
		{name: "null", input: `null`},
		{name: "trailing data", input: `{"meteor-google-cloud": {"project": "p"}} {}`},
		{name: "no deploy section", input: `{"public": {}}`},
		{name: "deploy section not an object", input: `{"meteor-google-cloud": "p"}`},
		{name: "no project", input: `{"meteor-google-cloud": {"promote": true}}`},
		{name: "empty project", input: `{"meteor-google-cloud": {"project": ""}}`},
		{name: "nested option", input: `{"meteor-google-cloud": {"project": "p", "x": {"y": 1}}}`},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			_, err := ParseSettings([]byte(tcase.input))
			testutil.NotOk(t, err)
		})
	}
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSettings(filepath.Join(dir, "settings.json"))
	testutil.NotOk(t, err)
	testutil.Equals(t, config.ErrInvalidFile, errors.Cause(err))

	p := filepath.Join(dir, "settings.json")
	testutil.Ok(t, os.WriteFile(p, []byte(`{"meteor-google-cloud": {"project": "p"}`), 0o644))
	_, err = LoadSettings(p)
	testutil.NotOk(t, err)
	testutil.Equals(t, config.ErrInvalidFile, errors.Cause(err))

	testutil.Ok(t, os.WriteFile(p, []byte(`{"meteor-google-cloud": {"project": "p"}}`), 0o644))
	s, err := LoadSettings(p)
	testutil.Ok(t, err)
	testutil.Equals(t, p, s.Path)
	testutil.Equals(t, "p", s.Deploy.Project)
}

func TestParseAppConfig(t *testing.T) {
	values, err := ParseAppConfig([]byte(`
runtime: custom
env: flex
automatic_scaling:
  min_num_instances: 1
  max_num_instances: 4
env_variables:
  ROOT_URL: https://app.example.com
  MONGO_URL: mongodb://db.example.com/app
`))
	testutil.Ok(t, err)
	testutil.Equals(t, map[string]interface{}{
		"runtime": "custom",
		"env":     "flex",
		"automatic_scaling": map[string]interface{}{
			"min_num_instances": 1,
			"max_num_instances": 4,
		},
		"env_variables": map[string]interface{}{
			"ROOT_URL":  "https://app.example.com",
			"MONGO_URL": "mongodb://db.example.com/app",
		},
	}, values)

	for _, input := range []string{"", "- a\n- b\n", "runtime: [custom\n", "env_variables: [A, B]\n"} {
		_, err := ParseAppConfig([]byte(input))
		testutil.NotOk(t, err, input)
	}
}

func TestLoadDockerFile(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadDockerFile("")
	testutil.NotOk(t, err)
	_, err = LoadDockerFile(filepath.Join(dir, "Dockerfile"))
	testutil.NotOk(t, err)
	testutil.Equals(t, config.ErrInvalidFile, errors.Cause(err))
	_, err = LoadDockerFile(dir)
	testutil.NotOk(t, err)

	p := filepath.Join(dir, "Dockerfile")
	testutil.Ok(t, os.WriteFile(p, nil, 0o644))
	_, err = LoadDockerFile(p)
	testutil.NotOk(t, err)

	testutil.Ok(t, os.WriteFile(p, []byte("FROM node:14\n"), 0o644))
	d, err := LoadDockerFile(p)
	testutil.Ok(t, err)
	testutil.Equals(t, config.DockerFile{Path: p}, d)
}
