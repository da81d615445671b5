// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/afero"
)

// ErrOpenBatchLog is returned when the batch log file cannot be created.
var ErrOpenBatchLog = errors.New("failed to open batch log")

const batchLogPerm = 0o644

// fileLevel keeps the batch log at INFO or below so progress lines are
// recorded even when the console is quieter.
type fileLevel struct{}

func (fileLevel) Level() slog.Level {
	return min(LevelVar.Level(), slog.LevelInfo)
}

// BatchLog is the log file of one batch run. It is acquired at the start of
// the run and must be closed on every exit path.
type BatchLog struct {
	Logger *slog.Logger
	Path   string
	file   afero.File
	once   sync.Once
	err    error
}

// OpenBatchLog truncates or creates path and returns a logger that writes
// every record to both console and the file. A nil console writes to the
// file only.
func OpenBatchLog(fs afero.Fs, path string, console *slog.Logger) (*BatchLog, error) {
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, batchLogPerm)
	if err != nil {
		return nil, errors.Join(ErrOpenBatchLog, err)
	}

	fileHandler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: fileLevel{}})

	var consoleHandler slog.Handler
	if console != nil {
		consoleHandler = console.Handler()
	}

	return &BatchLog{
		Logger: slog.New(NewFanout(consoleHandler, fileHandler)),
		Path:   path,
		file:   f,
	}, nil
}

// Close flushes and closes the file. It is safe to call more than once.
func (b *BatchLog) Close() error {
	b.once.Do(func() {
		if err := b.file.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
			b.err = err
		}

		b.err = errors.Join(b.err, b.file.Close())
	})

	return b.err
}
