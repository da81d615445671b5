// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the dmsbatch command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/dmsbatch"
	"github.com/matt-FFFFFF/dmsbatch/cmd/dmsbatch/options"
	"github.com/matt-FFFFFF/dmsbatch/cmd/dmsbatch/run"
	"github.com/matt-FFFFFF/dmsbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/dmsbatch/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		options.OptionsCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "dmsbatch",
	Description: `dmsbatch runs a deep mutational scanning analysis program once per row of a
CSV batch file, in parallel, checks that every job wrote its outputs and then
builds summary plots and tables across all samples. A failed batch never leaves
a partial set of summary artifacts behind.`,
	Usage:     "dmsbatch run --batchfile batch.csv --summaryprefix run1 --refseq ref.fasta",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", dmsbatch.Version, dmsbatch.Commit)

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework

	signalbroker.Stop(sigCh)

	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
