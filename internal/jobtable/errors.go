// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jobtable

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is matched by every error Parse returns.
	ErrParse = errors.New("invalid batch file")
	// ErrNoRows is a batch file with a header but no jobs.
	ErrNoRows = errors.New("no job rows")
)

// ParseError is a malformed batch file: unreadable CSV, ragged rows or a
// repeated header.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %v", ErrParse, e.Line, e.Err)
	}

	return fmt.Sprintf("%s: %v", ErrParse, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error { return e.Err }

// Is reports ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// MissingColumnError is a required column absent from the header.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", ErrParse, e.Column)
}

// Is reports ErrParse.
func (e *MissingColumnError) Is(target error) bool { return target == ErrParse }

// MissingValueError is a row with an empty cell in a required column.
type MissingValueError struct {
	Line   int
	Column string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("%s: line %d: no value for required column %q", ErrParse, e.Line, e.Column)
}

// Is reports ErrParse.
func (e *MissingValueError) Is(target error) bool { return target == ErrParse }

// InvalidNameError is a job or prefix name failing the name predicate.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("%s: invalid name %q: only letters, digits, '_', '-' and '.' are allowed", ErrParse, e.Name)
}

// Is reports ErrParse.
func (e *InvalidNameError) Is(target error) bool { return target == ErrParse }

// DuplicateNameError is a job name used by more than one row.
type DuplicateNameError struct {
	Name  string
	Lines []int
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s: duplicate name %q on lines %v", ErrParse, e.Name, e.Lines)
}

// Is reports ErrParse.
func (e *DuplicateNameError) Is(target error) bool { return target == ErrParse }
