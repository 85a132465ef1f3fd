// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

package config

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// DeploySection is the settings key holding the App Engine deploy options.
const DeploySection = "meteor-google-cloud"

// ErrInvalidFile marks a configuration file that is missing or malformed.
var ErrInvalidFile = errors.New("invalid configuration file")

// SettingsFile is the Meteor settings JSON. Its DeploySection configures `gcloud app deploy`;
// everything else is handed to the deployed app as METEOR_SETTINGS.
type SettingsFile struct {
	Path   string
	Values map[string]interface{}
	Deploy DeployOptions
}

// MeteorSettings returns the settings without the deploy section.
func (s *SettingsFile) MeteorSettings() map[string]interface{} {
	ret := make(map[string]interface{}, len(s.Values))
	for k, v := range s.Values {
		if k == DeploySection {
			continue
		}
		ret[k] = v
	}
	return ret
}

// DeployOptions are the flags passed to `gcloud app deploy`.
type DeployOptions struct {
	Project string
	Version string
	// Flags maps flag names (without leading dashes) to string, json.Number or bool values.
	Flags map[string]interface{}
}

// WithVersion returns a copy of o deploying as version v.
func (o DeployOptions) WithVersion(v string) DeployOptions {
	flags := make(map[string]interface{}, len(o.Flags)+1)
	for k, val := range o.Flags {
		flags[k] = val
	}
	flags["version"] = v
	return DeployOptions{Project: o.Project, Version: v, Flags: flags}
}

// Args renders the flags sorted by name: strings and numbers as --name=value, true as --name and
// false as --no-name.
func (o DeployOptions) Args() []string {
	names := make([]string, 0, len(o.Flags))
	for k := range o.Flags {
		names = append(names, k)
	}
	sort.Strings(names)

	args := make([]string, 0, len(names))
	for _, k := range names {
		switch v := o.Flags[k].(type) {
		case bool:
			if v {
				args = append(args, "--"+k)
			} else {
				args = append(args, "--no-"+k)
			}
		case json.Number:
			args = append(args, fmt.Sprintf("--%s=%s", k, v.String()))
		default:
			args = append(args, fmt.Sprintf("--%s=%v", k, v))
		}
	}
	return args
}

// AppConfig is the App Engine service configuration (app.yaml).
type AppConfig struct {
	// Path is empty when the default configuration is used.
	Path   string
	Values map[string]interface{}
}

// DefaultAppConfig is used when no app.yaml is given or found: a flexible environment custom
// runtime built from the Dockerfile.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{Values: map[string]interface{}{
		"runtime": "custom",
		"env":     "flex",
	}}
}

// EnvVariables returns a copy of the env_variables mapping.
func (a *AppConfig) EnvVariables() map[string]interface{} {
	ret := map[string]interface{}{}
	if m, ok := a.Values["env_variables"].(map[string]interface{}); ok {
		for k, v := range m {
			ret[k] = v
		}
	}
	return ret
}

// DockerFile is the container build file copied into the bundle.
type DockerFile struct {
	Path string
}
