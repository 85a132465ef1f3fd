// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

package project

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

var (
	ErrNotMeteorProject = errors.New("not a Meteor project, run the command from the root of a Meteor project or pass --project.dir")
	ErrVersionMismatch  = errors.New("meteor version constraint not satisfied")
)

const (
	releaseFile  = ".meteor/release"
	packagesFile = ".meteor/packages"
)

// Release is the Meteor release a project is pinned to, e.g. METEOR@2.7.3.
type Release struct {
	Name    string
	Version string
}

func (r Release) String() string { return r.Name + "@" + r.Version }

// ParseRelease parses the content of .meteor/release.
func ParseRelease(s string) (Release, error) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, "@")
	if i <= 0 || i == len(s)-1 {
		return Release{}, errors.Errorf("unsupported Meteor release %q, expected NAME@VERSION", s)
	}
	return Release{Name: s[:i], Version: s[i+1:]}, nil
}

// Semver converts a Meteor version (1.6, 1.8.0.2, 2.14-beta.1) to a comparable vMAJOR.MINOR.PATCH
// semantic version. Components past the third are dropped.
func Semver(v string) (string, error) {
	core, pre := v, ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core, pre = v[:i], v[i:]
	}
	parts := strings.Split(core, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	sv := "v" + strings.Join(parts, ".") + pre
	if !semver.IsValid(sv) {
		return "", errors.Errorf("invalid Meteor version %q", v)
	}
	return sv, nil
}

// Project is a Meteor application checked out on disk.
type Project struct {
	Dir      string
	Release  Release
	Packages []string
}

// Open reads the Meteor metadata of the project in dir.
func Open(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "abs %v", dir)
	}
	rb, err := os.ReadFile(filepath.Join(abs, releaseFile))
	if err != nil {
		return nil, errors.Wrapf(ErrNotMeteorProject, "read %v: %v", filepath.Join(abs, releaseFile), err)
	}
	pb, err := os.ReadFile(filepath.Join(abs, packagesFile))
	if err != nil {
		return nil, errors.Wrapf(ErrNotMeteorProject, "read %v: %v", filepath.Join(abs, packagesFile), err)
	}
	rel, err := ParseRelease(string(rb))
	if err != nil {
		return nil, errors.Wrapf(err, "parse %v", filepath.Join(abs, releaseFile))
	}
	return &Project{Dir: abs, Release: rel, Packages: parsePackages(pb)}, nil
}

// parsePackages returns package names from .meteor/packages, without comments or version constraints.
func parsePackages(b []byte) []string {
	var ret []string
	s := bufio.NewScanner(bytes.NewReader(b))
	for s.Scan() {
		line := s.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i := strings.Index(line, "@"); i > 0 {
			line = line[:i]
		}
		ret = append(ret, line)
	}
	return ret
}

// RequireVersion fails with ErrVersionMismatch if the project release is older than minVersion.
func (p *Project) RequireVersion(minVersion string) error {
	want, err := Semver(minVersion)
	if err != nil {
		return errors.Wrap(err, "minimum version")
	}
	got, err := Semver(p.Release.Version)
	if err != nil {
		return errors.Wrapf(err, "release %v", p.Release)
	}
	if semver.Compare(got, want) < 0 {
		return errors.Wrapf(ErrVersionMismatch, "project uses %v, at least %v is required", p.Release, minVersion)
	}
	return nil
}

// HeadRef returns the abbreviated commit hash HEAD points to in the git repository containing the
// project.
func (p *Project) HeadRef() (string, error) {
	repo, err := git.PlainOpenWithOptions(p.Dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", errors.Wrapf(err, "open git repository at %v", p.Dir)
	}
	head, err := repo.Head()
	if err != nil {
		return "", errors.Wrap(err, "resolve HEAD")
	}
	return head.Hash().String()[:7], nil
}
