// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

package config

import (
	"encoding/json"
	"testing"

	"github.com/meteor-gae/meteor-gae/pkg/testutil"
)

func TestDeployOptions_Args(t *testing.T) {
	o := DeployOptions{
		Project: "my-project",
		Flags: map[string]interface{}{
			"project":               "my-project",
			"promote":               true,
			"stop-previous-version": false,
			"max-instances":         json.Number("3"),
		},
	}
	testutil.Equals(t, []string{
		"--max-instances=3",
		"--project=my-project",
		"--promote",
		"--no-stop-previous-version",
	}, o.Args())

	v := o.WithVersion("abc1234")
	testutil.Equals(t, "abc1234", v.Version)
	testutil.Equals(t, []string{
		"--max-instances=3",
		"--project=my-project",
		"--promote",
		"--no-stop-previous-version",
		"--version=abc1234",
	}, v.Args())
	_, ok := o.Flags["version"]
	testutil.Assert(t, !ok, "WithVersion must not modify the receiver")
}

func TestSettingsFile_MeteorSettings(t *testing.T) {
	s := &SettingsFile{Values: map[string]interface{}{
		DeploySection: map[string]interface{}{"project": "p"},
		"public":      map[string]interface{}{"env": "prod"},
	}}
	testutil.Equals(t, map[string]interface{}{
		"public": map[string]interface{}{"env": "prod"},
	}, s.MeteorSettings())
}

func TestAppConfig_EnvVariables(t *testing.T) {
	testutil.Equals(t, map[string]interface{}{}, DefaultAppConfig().EnvVariables())

	a := &AppConfig{Values: map[string]interface{}{
		"env_variables": map[string]interface{}{"ROOT_URL": "https://example.com"},
	}}
	env := a.EnvVariables()
	env["MONGO_URL"] = "mongodb://db"
	testutil.Equals(t, map[string]interface{}{"ROOT_URL": "https://example.com"}, a.Values["env_variables"])
}
