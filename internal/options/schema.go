// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package options

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrDuplicateOption is returned when a schema names an option twice.
	ErrDuplicateOption = errors.New("option defined more than once")
	// ErrUnknownOption is returned when a value is given for an option the schema does not know.
	ErrUnknownOption = errors.New("unknown option")
)

// Category decides where an option may be set.
type Category int

const (
	// RowOverridable options may be set globally or in a batch file column, never both.
	RowOverridable Category = iota
	// GlobalOnly options are forwarded but may not appear as batch file columns.
	GlobalOnly
	// Fixed options are consumed by the orchestrator and never forwarded.
	Fixed
)

// String implements fmt.Stringer.
func (c Category) String() string {
	switch c {
	case RowOverridable:
		return "row-overridable"
	case GlobalOnly:
		return "global-only"
	case Fixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Kind decides how a value turns into argument tokens.
type Kind int

const (
	// Scalar options take exactly one value token.
	Scalar Kind = iota
	// List options take one token per element. Row values are split on whitespace.
	List
	// PresenceFlag options are emitted without a value token.
	PresenceFlag
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case List:
		return "list"
	case PresenceFlag:
		return "presence-flag"
	default:
		return "unknown"
	}
}

// Type is the element type of scalar and list options.
type Type int

const (
	// TypeString accepts any text.
	TypeString Type = iota
	// TypeInt accepts base-10 integers.
	TypeInt
	// TypeFloat accepts decimal numbers.
	TypeFloat
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Option is one entry of a Schema.
type Option struct {
	Name     string
	Category Category
	Kind     Kind
	Type     Type
	Usage    string
}

// Flag returns the command line flag for the option, e.g. "--bclen".
func (o Option) Flag() string {
	return "--" + o.Name
}

// Forwarded reports whether the option is ever passed to the external program.
func (o Option) Forwarded() bool {
	return o.Category != Fixed
}

// Schema is an ordered, immutable set of options.
// The order is the order in which composed arguments are emitted.
type Schema struct {
	opts   []Option
	byName map[string]int
}

// NewSchema builds a schema, rejecting duplicate names.
func NewSchema(opts ...Option) (*Schema, error) {
	s := &Schema{
		opts:   slices.Clone(opts),
		byName: make(map[string]int, len(opts)),
	}

	for i, o := range s.opts {
		if _, ok := s.byName[o.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateOption, o.Name)
		}

		s.byName[o.Name] = i
	}

	return s, nil
}

// MustSchema is NewSchema for package-level schemas; it panics on error.
func MustSchema(opts ...Option) *Schema {
	s, err := NewSchema(opts...)
	if err != nil {
		panic(err)
	}

	return s
}

// Lookup returns the option called name.
func (s *Schema) Lookup(name string) (Option, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Option{}, false
	}

	return s.opts[i], true
}

// All returns every option in schema order.
func (s *Schema) All() []Option {
	return slices.Clone(s.opts)
}

// Forwarded returns the options passed to the external program, in schema order.
func (s *Schema) Forwarded() []Option {
	out := make([]Option, 0, len(s.opts))

	for _, o := range s.opts {
		if o.Forwarded() {
			out = append(out, o)
		}
	}

	return out
}
