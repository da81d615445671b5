// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package compose turns a batch row and the global option values into the
// argument list of one external program invocation.
//
// Composition is a total function over the profile's option schema: every
// option is visited in schema order and its category decides whether the row,
// the global value or neither supplies it. The same inputs always give the
// same arguments.
package compose

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matt-FFFFFF/dmsbatch/internal/jobtable"
	"github.com/matt-FFFFFF/dmsbatch/internal/options"
	"github.com/matt-FFFFFF/dmsbatch/internal/profile"
)

var (
	// ErrConflict is matched by ConflictError.
	ErrConflict = errors.New("option set both globally and in the batch file")
	// ErrForbiddenOverride is matched by ForbiddenOverrideError.
	ErrForbiddenOverride = errors.New("option cannot be set in the batch file")
)

// ConflictError is an option given both as a batch column and globally.
// Equal values still conflict.
type ConflictError struct {
	Job         string
	Option      string
	RowValue    string
	GlobalValue options.Value
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("job %q: option %q is set both in the batch file (%q) and globally (%s)",
		e.Job, e.Option, e.RowValue, e.GlobalValue)
}

// Is reports ErrConflict.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ForbiddenOverrideError is a global-only or fixed option used as a batch column.
type ForbiddenOverrideError struct {
	Job      string
	Option   string
	Category options.Category
}

func (e *ForbiddenOverrideError) Error() string {
	return fmt.Sprintf("job %q: option %q is %s and cannot be a batch file column", e.Job, e.Option, e.Category)
}

// Is reports ErrForbiddenOverride.
func (e *ForbiddenOverrideError) Is(target error) bool { return target == ErrForbiddenOverride }

// Job is the immutable, composed invocation of one batch row.
type Job struct {
	Name    string
	Program string
	args    []string
}

// Args returns the arguments after the program name.
func (j Job) Args() []string {
	return slices.Clone(j.args)
}

// Argv returns the program name followed by the arguments.
func (j Job) Argv() []string {
	return slices.Concat([]string{j.Program}, j.args)
}

// WithProgram returns a copy of j that runs program instead.
func (j Job) WithProgram(program string) Job {
	j.args = slices.Clone(j.args)
	j.Program = program

	return j
}

// String renders the command line for logs.
func (j Job) String() string {
	return strings.Join(j.Argv(), " ")
}

// Compose builds the invocation of row. global holds only explicitly given
// values; an option counts as set globally when global has it.
//
// A batch column owns its option for every row, even rows with an empty cell,
// which then leave the option to the program's default. Global values are
// forwarded when truthy, and numbers always are.
func Compose(p *profile.Profile, row jobtable.Row, global options.Values) (Job, error) {
	primary, _ := row.Value(p.PrimaryInput)

	args := []string{"--" + jobtable.NameColumn, row.Name, "--" + p.PrimaryInput}
	args = append(args, strings.Fields(primary)...)

	for _, opt := range p.Schema().All() {
		cell, inRow := row.Value(opt.Name)

		switch opt.Category {
		case options.Fixed, options.GlobalOnly:
			if inRow {
				return Job{}, &ForbiddenOverrideError{Job: row.Name, Option: opt.Name, Category: opt.Category}
			}

			if opt.Category == options.Fixed {
				continue
			}

			args = appendGlobal(args, opt, global.Get(opt.Name))
		case options.RowOverridable:
			gv := global.Get(opt.Name)

			if inRow && gv.IsSet() {
				return Job{}, &ConflictError{Job: row.Name, Option: opt.Name, RowValue: cell, GlobalValue: gv}
			}

			if !inRow {
				args = appendGlobal(args, opt, gv)
				continue
			}

			var err error

			args, err = appendRow(args, opt, cell)
			if err != nil {
				return Job{}, fmt.Errorf("job %q: %w", row.Name, err)
			}
		}
	}

	return Job{Name: row.Name, Program: p.Program, args: args}, nil
}

func appendGlobal(args []string, opt options.Option, v options.Value) []string {
	if !v.Truthy() {
		return args
	}

	return append(append(args, opt.Flag()), v.Tokens()...)
}

func appendRow(args []string, opt options.Option, cell string) ([]string, error) {
	if cell == "" {
		return args, nil
	}

	if opt.Kind == options.PresenceFlag {
		return append(args, opt.Flag()), nil
	}

	v, err := options.Parse(opt, cell)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	// Scalar string cells are passed through verbatim, embedded spaces included.
	if opt.Kind == options.Scalar {
		return append(args, opt.Flag(), cell), nil
	}

	return append(append(args, opt.Flag()), v.Tokens()...), nil
}

// All composes every row of t in table order. Every failing row is reported.
func All(p *profile.Profile, t *jobtable.Table, global options.Values) ([]Job, error) {
	var (
		jobs = make([]Job, 0, t.Len())
		errs error
	)

	for _, row := range t.Rows() {
		j, err := Compose(p, row, global)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}

		jobs = append(jobs, j)
	}

	if errs != nil {
		return nil, errs
	}

	return jobs, nil
}

// UnknownColumns returns the batch columns that are neither the job name, the
// primary input nor an option of p. They are not forwarded.
func UnknownColumns(p *profile.Profile, header []string) []string {
	var out []string

	for _, h := range header {
		if h == jobtable.NameColumn || h == p.PrimaryInput {
			continue
		}

		if _, ok := p.Schema().Lookup(h); !ok {
			out = append(out, h)
		}
	}

	return out
}
