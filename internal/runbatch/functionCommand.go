// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matt-FFFFFF/dmsbatch/internal/ctxlog"
)

var _ Runnable = (*FunctionCommand)(nil)

// ErrFunctionCmdPanic is the error returned when a function command panics.
type ErrFunctionCmdPanic struct {
	v any
}

// Error implements the error interface for ErrFunctionCmdPanic.
func (e *ErrFunctionCmdPanic) Error() string {
	return fmt.Sprintf("function command panic: %v", e.v)
}

// Unwrap returns the panic value when it was an error.
func (e *ErrFunctionCmdPanic) Unwrap() error {
	err, _ := e.v.(error)
	return err
}

var (
	// ErrSkipIntentional marks a command skipped because its run condition was not met.
	ErrSkipIntentional = errors.New("intentionally skip execution")
	// ErrSkipOnError marks a command skipped because an earlier command failed.
	ErrSkipOnError = errors.New("skip execution due to previous error")
)

// NewErrFunctionCmdPanic creates a new ErrFunctionCmdPanic with the given value.
func NewErrFunctionCmdPanic(v any) error {
	return &ErrFunctionCmdPanic{v: v}
}

// FunctionCommandFunc is the in-process work of a FunctionCommand.
type FunctionCommandFunc func(ctx context.Context) error

// FunctionCommand runs a Go function as a step of a batch.
type FunctionCommand struct {
	*BaseCommand
	Func FunctionCommandFunc
}

// Run implements the Runnable interface for FunctionCommand.
// A panicking function is reported as a failed step.
func (f *FunctionCommand) Run(ctx context.Context) Results {
	label := FullLabel(f)
	logger := ctxlog.Logger(ctx).With("runnableType", "FunctionCommand", "label", label)

	res := &Result{
		Label:  f.Label,
		Status: ResultStatusSuccess,
	}

	if f.Func == nil {
		logger.Debug("no function to run, returning success")
		return Results{res}
	}

	logger.Debug("executing function")

	start := time.Now()
	err := f.call(ctx)
	res.Duration = time.Since(start)

	if err != nil {
		logger.Debug("function failed", "error", err)

		res.Error = err
		res.ExitCode = -1
		res.Status = ResultStatusError
	}

	return Results{res}
}

func (f *FunctionCommand) call(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.Error(ctx, "function command panicked", "panic", r)
			err = NewErrFunctionCmdPanic(r)
		}
	}()

	return f.Func(ctx)
}
