// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the run subcommand: build the configuration, run
// every job of the batch file and produce the summary artifacts.
package run

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/matt-FFFFFF/dmsbatch/internal/batchrun"
	"github.com/matt-FFFFFF/dmsbatch/internal/config"
	"github.com/matt-FFFFFF/dmsbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/dmsbatch/internal/profile"
	"github.com/matt-FFFFFF/dmsbatch/internal/runbatch"
	"github.com/matt-FFFFFF/dmsbatch/internal/tailwriter"
	"github.com/matt-FFFFFF/dmsbatch/internal/tui"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

const (
	tuiFlag                  = "tui"
	outputSuccessDetailsFlag = "output-success-details"
	cliExitStr               = ""
)

// RunCmd is the command that runs a batch.
var RunCmd = newCommand()

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run every job of a batch file and build the summary artifacts",
		Description: `Run the per-job program once for every row of the batch file, at most
--ncpus jobs at a time, then check that every job wrote all of its outputs and
build the summary artifacts from them.

Settings come from an optional configuration file (--config) overlaid by the
command line. A program option given globally must not also be a column of the
batch file.

If any step fails the summary artifacts are removed; the batch log, the per-job
outputs and the per-job logs are kept. With --use-existing a batch whose outputs
all exist is skipped.

A first interrupt is logged; a second stops queued jobs from starting.
`,
		Flags: slices.Concat(settingFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:        tuiFlag,
				Aliases:     []string{"t", "interactive"},
				Usage:       "Show a live job board while the batch runs",
				Value:       false,
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        outputSuccessDetailsFlag,
				Aliases:     []string{"success"},
				Usage:       "Include log paths and last output lines of successful jobs in the results",
				Value:       false,
				DefaultText: "false",
				OnlyOnce:    true,
			},
		}, optionFlags(profile.BCSubamp)),
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	ctxlog.Debug(ctx, "Running run command")

	if err := loadEnvFiles(cmd.StringSlice(envFileFlag)); err != nil {
		ctxlog.Error(ctx, "failed to load environment", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	cfg, err := buildConfig(ctx, cmd)
	if err != nil {
		ctxlog.Error(ctx, "invalid configuration", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	w := writer(cmd)

	var out batchrun.Outcome

	if cmd.Bool(tuiFlag) {
		out, err = runWithBoard(ctx, w, cfg)
	} else {
		out, err = runBatch(ctx, cfg)
	}

	if werr := writeOutcome(w, out, cmd.Bool(outputSuccessDetailsFlag)); werr != nil {
		ctxlog.Error(ctx, "failed to write results", "error", werr)
	}

	if err != nil {
		ctxlog.Error(ctx, "batch failed", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}

	return os.Stdout
}

func runBatch(ctx context.Context, cfg config.GlobalConfig) (batchrun.Outcome, error) {
	runner, err := batchrun.Prepare(ctx, cfg)
	if err != nil {
		return batchrun.Outcome{}, err //nolint:wrapcheck
	}

	return runner.Run(ctx) //nolint:wrapcheck
}

// runWithBoard runs the batch behind the job board. Console logging is held
// back until the board closes and then written to w; the batch log is written
// as usual.
func runWithBoard(ctx context.Context, w io.Writer, cfg config.GlobalConfig) (batchrun.Outcome, error) {
	board := tui.NewRunner(!term.IsTerminal(int(os.Stdin.Fd())))

	runner, err := batchrun.Prepare(ctx, cfg, batchrun.WithReporter(board.Reporter()))
	if err != nil {
		return batchrun.Outcome{}, err //nolint:wrapcheck
	}

	names := make([]string, 0, len(runner.Jobs()))
	for _, j := range runner.Jobs() {
		names = append(names, j.Name)
	}

	buf := &bytes.Buffer{}
	boardCtx := ctxlog.New(ctx, ctxlog.NewConsole(tailwriter.New(buf, nil)))

	ctxlog.Info(ctx, "Starting interactive job board...", "jobs", len(names))

	var out batchrun.Outcome

	err = board.Run(boardCtx, names, func(ctx context.Context) error {
		var runErr error

		out, runErr = runner.Run(ctx)

		return runErr
	})

	buf.WriteTo(w) //nolint:errcheck

	return out, err
}

func writeOutcome(w io.Writer, out batchrun.Outcome, successDetails bool) error {
	if out.Skipped {
		_, err := fmt.Fprintln(w, "Every output already exists, nothing was run.")
		return err //nolint:wrapcheck
	}

	opts := runbatch.DefaultOutputOptions()
	opts.ShowSuccessDetails = successDetails

	if len(out.Jobs) > 0 {
		fmt.Fprintln(w, "Jobs:") //nolint:errcheck

		if err := out.Jobs.WriteWithOptions(w, opts); err != nil {
			return err
		}
	}

	if len(out.Artifacts) > 0 {
		fmt.Fprintln(w, "Summary artifacts:") //nolint:errcheck

		if err := out.Artifacts.WriteWithOptions(w, opts); err != nil {
			return err
		}
	}

	if len(out.Removed) > 0 {
		fmt.Fprintln(w, "Removed incomplete summary artifacts:") //nolint:errcheck

		for _, p := range out.Removed {
			fmt.Fprintf(w, "  %s\n", p) //nolint:errcheck
		}
	}

	return nil
}
