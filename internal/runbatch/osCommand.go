// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/matt-FFFFFF/dmsbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/dmsbatch/internal/progress"
	"github.com/matt-FFFFFF/dmsbatch/internal/tailwriter"
	"github.com/spf13/afero"
)

const (
	tickerInterval = 30 * time.Second // How often a long running process is logged
	maxLastLine    = 200              // Longest last output line kept in a Result
	logFileMode    = 0o644
)

var _ Runnable = (*OSCommand)(nil)

// FsFactory returns the filesystem job logs are written to.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrOpenJobLog is returned when the job's log file could not be opened.
	ErrOpenJobLog = errors.New("could not open job log")
	// ErrNonZeroExit is returned when the process exits with a non-zero code.
	ErrNonZeroExit = errors.New("process exited with non-zero exit code")
	// ErrProcessWait is returned when waiting for the process fails for a reason other than its exit code.
	ErrProcessWait = errors.New("error waiting for process")
)

// OSCommand runs an external program with its combined stdout and stderr
// appended to LogPath. It is never killed: once started it runs to completion.
type OSCommand struct {
	*BaseCommand
	Path    string   // Executable, looked up in PATH when it has no separator
	Args    []string // Arguments, not including the executable
	LogPath string   // File receiving the combined output
}

// Run implements the Runnable interface for OSCommand.
func (c *OSCommand) Run(ctx context.Context) Results {
	label := FullLabel(c)
	logger := ctxlog.Logger(ctx).With("runnableType", "OSCommand", "label", label)
	reporter := c.Reporter()

	res := &Result{
		Label:   c.Label,
		LogPath: c.LogPath,
		Status:  ResultStatusUnknown,
	}

	logger.Debug("command info", "path", c.Path, "cwd", c.Cwd, "args", c.Args, "log", c.LogPath)

	f, err := FsFactory().OpenFile(c.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFileMode)
	if err != nil {
		return c.fail(reporter, res, errors.Join(ErrOpenJobLog, err))
	}
	defer f.Close() //nolint:errcheck

	out := tailwriter.New(f, func(line string) {
		reporter.Report(progress.NewEvent(c.Label, progress.EventOutput, line,
			progress.EventData{OutputLine: line, LogPath: c.LogPath}))
	})

	cmd := exec.Command(c.Path, c.Args...) //nolint:gosec
	cmd.Dir = c.Cwd
	cmd.Env = c.environ()
	cmd.Stdout = out
	cmd.Stderr = out

	reporter.Report(progress.NewEvent(c.Label, progress.EventStarted, "running",
		progress.EventData{LogPath: c.LogPath}))

	start := time.Now()

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(out, "could not start %s: %v\n", c.Path, err) //nolint:errcheck
		res.LastLine = out.LastLine(maxLastLine)

		return c.fail(reporter, res, errors.Join(ErrCouldNotStartProcess, err))
	}

	logger.Info("started job", "pid", cmd.Process.Pid)

	done := make(chan struct{})
	wg := &sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()

		ticker := time.NewTicker(tickerInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				logger.Info("job still running", "elapsed", time.Since(start).Round(time.Second).String())
			case <-done:
				return
			}
		}
	}()

	waitErr := cmd.Wait()

	close(done)
	wg.Wait()

	res.Duration = time.Since(start)
	res.ExitCode = cmd.ProcessState.ExitCode()
	res.LastLine = out.LastLine(maxLastLine)

	var exitErr *exec.ExitError

	switch {
	case waitErr == nil:
		res.Status = ResultStatusSuccess
	case errors.As(waitErr, &exitErr):
		res.Error = fmt.Errorf("%w: %d", ErrNonZeroExit, res.ExitCode)
		res.Status = ResultStatusError
	default:
		res.Error = errors.Join(ErrProcessWait, waitErr)
		res.Status = ResultStatusError
	}

	if res.Status == ResultStatusError && res.ExitCode == 0 {
		res.ExitCode = -1
	}

	logger.Debug("process finished", "exitCode", res.ExitCode, "duration", res.Duration.String())
	reportResult(reporter, c.Label, res)

	return Results{res}
}

func (c *OSCommand) fail(reporter progress.Reporter, res *Result, err error) Results {
	res.Error = err
	res.ExitCode = -1
	res.Status = ResultStatusError
	reportResult(reporter, c.Label, res)

	return Results{res}
}

func (c *OSCommand) environ() []string {
	env := os.Environ()
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}

	return env
}
