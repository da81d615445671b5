// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/matt-FFFFFF/dmsbatch/internal/progress"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func shCommand(t *testing.T, label, script string) *OSCommand {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}

	return &OSCommand{
		BaseCommand: NewBaseCommand(label, "", RunOnSuccess, nil),
		Path:        "/bin/sh",
		Args:        []string{"-c", script},
		LogPath:     filepath.Join(t.TempDir(), label+".log"),
	}
}

func TestOSCommandRun_Success(t *testing.T) {
	defer goleak.VerifyNone(t)

	cmd := shCommand(t, "sample1", `echo "hello $GREETING"`)
	cmd.Env = map[string]string{"GREETING": "world"}

	results := cmd.Run(context.Background())
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, ResultStatusSuccess, res.Status)
	assert.Equal(t, 0, res.ExitCode)
	require.NoError(t, res.Error)
	assert.Equal(t, "hello world", res.LastLine)
	assert.Equal(t, cmd.LogPath, res.LogPath)

	got, err := os.ReadFile(cmd.LogPath)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(got))
}

func TestOSCommandRun_CombinedOutputAndExitCode(t *testing.T) {
	defer goleak.VerifyNone(t)

	cmd := shCommand(t, "sample2", "echo out; echo err >&2; exit 3")

	res := cmd.Run(context.Background())[0]
	assert.Equal(t, ResultStatusError, res.Status)
	assert.Equal(t, 3, res.ExitCode)
	require.ErrorIs(t, res.Error, ErrNonZeroExit)
	assert.Equal(t, "err", res.LastLine)

	got, err := os.ReadFile(cmd.LogPath)
	require.NoError(t, err)
	assert.Equal(t, "out\nerr\n", string(got))
}

func TestOSCommandRun_AppendsToLog(t *testing.T) {
	defer goleak.VerifyNone(t)

	cmd := shCommand(t, "sample3", "echo again")
	require.NoError(t, os.WriteFile(cmd.LogPath, []byte("program log\n"), 0o644))

	cmd.Run(context.Background())

	got, err := os.ReadFile(cmd.LogPath)
	require.NoError(t, err)
	assert.Equal(t, "program log\nagain\n", string(got))
}

func TestOSCommandRun_CouldNotStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	cmd := shCommand(t, "missing", "")
	cmd.Path = filepath.Join(t.TempDir(), "does-not-exist")

	res := cmd.Run(context.Background())[0]
	assert.Equal(t, ResultStatusError, res.Status)
	assert.Equal(t, -1, res.ExitCode)
	require.ErrorIs(t, res.Error, ErrCouldNotStartProcess)

	got, err := os.ReadFile(cmd.LogPath)
	require.NoError(t, err)
	assert.Contains(t, string(got), "could not start")
}

func TestOSCommandRun_LogOpenFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	stubs := gostub.Stub(&FsFactory, func() afero.Fs {
		return afero.NewReadOnlyFs(afero.NewMemMapFs())
	})
	defer stubs.Reset()

	cmd := shCommand(t, "readonly", "echo never")

	res := cmd.Run(context.Background())[0]
	assert.Equal(t, ResultStatusError, res.Status)
	require.ErrorIs(t, res.Error, ErrOpenJobLog)
}

func TestOSCommandRun_Events(t *testing.T) {
	defer goleak.VerifyNone(t)

	reporter, rec := newRecorder(context.Background())
	cmd := shCommand(t, "evented", "echo one; echo two; exit 1")
	cmd.SetProgressReporter(reporter)

	cmd.Run(context.Background())
	reporter.Close()

	assert.Equal(t, []progress.EventType{
		progress.EventStarted,
		progress.EventOutput,
		progress.EventOutput,
		progress.EventFailed,
	}, rec.types("evented"))

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, 1, last.Data.ExitCode)
	assert.Equal(t, "two", last.Data.OutputLine)
	assert.Equal(t, cmd.LogPath, last.Data.LogPath)
}
