// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

package loader

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/meteor-gae/meteor-gae/pkg/config"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

func invalid(path, format string, args ...interface{}) error {
	return errors.Wrapf(config.ErrInvalidFile, "%v: "+format, append([]interface{}{path}, args...)...)
}

func readFile(path, kind string) ([]byte, error) {
	if path == "" {
		return nil, errors.Wrapf(config.ErrInvalidFile, "no %s file given", kind)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, invalid(path, "read %s file: %v", kind, err)
	}
	return b, nil
}

// LoadSettings reads and validates the Meteor settings JSON at path.
func LoadSettings(path string) (*config.SettingsFile, error) {
	b, err := readFile(path, "settings")
	if err != nil {
		return nil, err
	}
	s, err := ParseSettings(b)
	if err != nil {
		return nil, errors.Wrapf(config.ErrInvalidFile, "%v: %v", path, err)
	}
	s.Path = path
	return s, nil
}

// ParseSettings parses settings JSON. Numbers are kept as json.Number so they are passed on unchanged.
func ParseSettings(b []byte) (*config.SettingsFile, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var values map[string]interface{}
	if err := dec.Decode(&values); err != nil {
		return nil, errors.Wrap(err, "unmarshal settings")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New("unmarshal settings: unexpected data after top-level object")
	}
	if values == nil {
		return nil, errors.New("settings must be a JSON object")
	}

	deploy, err := parseDeployOptions(values[config.DeploySection])
	if err != nil {
		return nil, errors.Wrapf(err, "key %q", config.DeploySection)
	}
	return &config.SettingsFile{Values: values, Deploy: deploy}, nil
}

func parseDeployOptions(section interface{}) (config.DeployOptions, error) {
	if section == nil {
		return config.DeployOptions{}, errors.New("not found, it must hold at least the GCP project to deploy to")
	}
	m, ok := section.(map[string]interface{})
	if !ok {
		return config.DeployOptions{}, errors.Errorf("must be an object, got %T", section)
	}

	o := config.DeployOptions{Flags: make(map[string]interface{}, len(m))}
	for k, v := range m {
		switch v.(type) {
		case string, bool, json.Number:
		default:
			return config.DeployOptions{}, errors.Errorf("option %q: unsupported value %v, expected string, number or boolean", k, v)
		}
		o.Flags[k] = v
	}

	if p, ok := m["project"].(string); ok {
		o.Project = p
	}
	if o.Project == "" {
		return config.DeployOptions{}, errors.New(`option "project" must be a non-empty string`)
	}
	switch v := m["version"].(type) {
	case string:
		o.Version = v
	case json.Number:
		o.Version = v.String()
	}
	return o, nil
}

// LoadAppConfig reads and validates the app.yaml at path.
func LoadAppConfig(path string) (*config.AppConfig, error) {
	b, err := readFile(path, "app")
	if err != nil {
		return nil, err
	}
	values, err := ParseAppConfig(b)
	if err != nil {
		return nil, errors.Wrapf(config.ErrInvalidFile, "%v: %v", path, err)
	}
	return &config.AppConfig{Path: path, Values: values}, nil
}

// ParseAppConfig parses app.yaml content. The document must be a mapping and env_variables, if set,
// a mapping as well.
func ParseAppConfig(b []byte) (map[string]interface{}, error) {
	var values map[string]interface{}
	if err := yaml.Unmarshal(b, &values); err != nil {
		return nil, errors.Wrap(err, "unmarshal app config")
	}
	if values == nil {
		return nil, errors.New("app config must be a YAML mapping")
	}
	if env, ok := values["env_variables"]; ok && env != nil {
		if _, ok := env.(map[string]interface{}); !ok {
			return nil, errors.Errorf("env_variables must be a mapping, got %T", env)
		}
	}
	return values, nil
}

// LoadDockerFile checks that path is a non-empty regular file.
func LoadDockerFile(path string) (config.DockerFile, error) {
	if path == "" {
		return config.DockerFile{}, errors.Wrap(config.ErrInvalidFile, "no Dockerfile given")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return config.DockerFile{}, invalid(path, "stat Dockerfile: %v", err)
	}
	if !fi.Mode().IsRegular() {
		return config.DockerFile{}, invalid(path, "Dockerfile is not a regular file")
	}
	if fi.Size() == 0 {
		return config.DockerFile{}, invalid(path, "Dockerfile is empty")
	}
	return config.DockerFile{Path: path}, nil
}
