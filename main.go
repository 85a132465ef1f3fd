// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/meteor-gae/meteor-gae/pkg/extkingpin"
	"github.com/meteor-gae/meteor-gae/pkg/version"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"
)

const (
	logFormatLogfmt = "logfmt"
	logFormatJson   = "json"
)

func setupLogger(verbose, quiet bool, logFormat string) log.Logger {
	lvl := level.AllowInfo()
	switch {
	case quiet:
		lvl = level.AllowError()
	case verbose:
		lvl = level.AllowDebug()
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	if logFormat == logFormatJson {
		logger = log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	}
	logger = level.NewFilter(logger, lvl)
	if verbose {
		return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	}
	return log.With(logger, "ts", log.DefaultTimestampUTC)
}

func main() {
	app := extkingpin.NewApp(kingpin.New(filepath.Base(os.Args[0]), "Deploy a Meteor application to Google App Engine.").Version(version.String()))
	verbose := app.Flag("verbose", "Enable verbose mode (debug logs).").Short('v').Bool()
	quiet := app.Flag("quiet", "Enable quiet mode: only errors are logged and output of gcloud and meteor is discarded.").Short('q').Bool()
	logFormat := app.Flag("log.format", "Log format to use. Possible options: logfmt or json.").
		Default(logFormatLogfmt).Enum(logFormatLogfmt, logFormatJson)

	f := registerFlags(app, quiet)
	registerDeploy(app, f)
	registerValidate(app, f)

	cmd, runner := app.Parse()
	if *verbose && *quiet {
		fmt.Fprintln(os.Stderr, "--verbose and --quiet are mutually exclusive")
		os.Exit(1)
	}
	logger := setupLogger(*verbose, *quiet, *logFormat)

	var g run.Group
	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return runner(ctx, logger)
		}, func(error) {
			cancel()
		})
	}

	// Listen for termination signals. Cancelling the context kills the running gcloud or meteor.
	{
		cancel := make(chan struct{})
		g.Add(func() error {
			return interrupt(logger, cancel)
		}, func(error) {
			close(cancel)
		})
	}

	if err := g.Run(); err != nil {
		if *verbose {
			// Use %+v for github.com/pkg/errors error to print with stack.
			level.Error(logger).Log("msg", fmt.Sprintf("%s command failed", cmd), "err", fmt.Sprintf("%+v", err))
		} else {
			level.Error(logger).Log("msg", fmt.Sprintf("%s command failed", cmd), "err", err)
		}
		os.Exit(exitCode(err))
	}
	level.Debug(logger).Log("msg", "exiting")
}

// exitCode maps the result of a run to the process exit code.
func exitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

func interrupt(logger log.Logger, cancel <-chan struct{}) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-c:
		level.Info(logger).Log("msg", "caught signal. Exiting.", "signal", s)
		return errors.Errorf("interrupted by %v", s)
	case <-cancel:
		return nil
	}
}
