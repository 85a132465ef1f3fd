// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

package extkingpin

import (
	"context"
	"fmt"
	"os"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"
)

// RunFunc is the body of a command. It is invoked after flags are parsed and the logger is set up.
type RunFunc func(ctx context.Context, logger log.Logger) error

// App is a kingpin application that maps each registered command to its RunFunc.
type App struct {
	app  *kingpin.Application
	runs map[string]RunFunc
}

func NewApp(app *kingpin.Application) *App {
	app.HelpFlag.Short('h')
	return &App{app: app, runs: map[string]RunFunc{}}
}

func (a *App) Flag(name, help string) *kingpin.FlagClause {
	return a.app.Flag(name, help)
}

// Command registers a new command. The returned Cmd must be given a RunFunc with Run.
func (a *App) Command(name, help string) *Cmd {
	return &Cmd{CmdClause: a.app.Command(name, help), app: a}
}

// Parse parses os.Args. On invalid arguments it prints usage and exits with code 1.
func (a *App) Parse() (string, RunFunc) {
	cmd, run, err := a.parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrapf(err, "error parsing commandline arguments: %v", os.Args))
		a.app.Usage(os.Args[1:])
		os.Exit(1)
	}
	return cmd, run
}

func (a *App) parse(args []string) (string, RunFunc, error) {
	cmd, err := a.app.Parse(args)
	if err != nil {
		return "", nil, err
	}
	run, ok := a.runs[cmd]
	if !ok {
		return "", nil, errors.Errorf("no run function registered for command %q", cmd)
	}
	return cmd, run, nil
}

type Cmd struct {
	*kingpin.CmdClause
	app *App
}

func (c *Cmd) Run(fn RunFunc) {
	c.app.runs[c.FullCommand()] = fn
}
