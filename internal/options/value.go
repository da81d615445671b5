// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package options

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrOptionType is returned when a value does not fit the option's kind or type.
var ErrOptionType = errors.New("value does not match option type")

type valueKind int

const (
	kindUnset valueKind = iota
	kindString
	kindInt
	kindFloat
	kindList
	kindBool
)

// Value is a typed option value. The zero Value is unset.
type Value struct {
	kind valueKind
	s    string
	i    int64
	f    float64
	list []string
	b    bool
}

// String returns a string value.
func String(s string) Value { return Value{kind: kindString, s: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: kindInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: kindFloat, f: f} }

// Bool returns a boolean value, used by presence flags.
func Bool(b bool) Value { return Value{kind: kindBool, b: b} }

// ListOf returns a list value. The items are copied.
func ListOf(items ...string) Value {
	return Value{kind: kindList, list: slices.Clone(items)}
}

// IsSet reports whether the value was given at all.
func (v Value) IsSet() bool {
	return v.kind != kindUnset
}

// IsNumeric reports whether the value is an integer or float.
func (v Value) IsNumeric() bool {
	return v.kind == kindInt || v.kind == kindFloat
}

// Truthy reports whether a global value is forwarded: non-empty strings and
// lists, true booleans and every number, zero included.
func (v Value) Truthy() bool {
	switch v.kind {
	case kindString:
		return v.s != ""
	case kindInt, kindFloat:
		return true
	case kindList:
		return len(v.list) > 0
	case kindBool:
		return v.b
	default:
		return false
	}
}

// Tokens returns the argument tokens for the value: one for scalars, one per
// element for lists and none for booleans.
func (v Value) Tokens() []string {
	switch v.kind {
	case kindString:
		return []string{v.s}
	case kindInt:
		return []string{strconv.FormatInt(v.i, 10)}
	case kindFloat:
		return []string{formatFloat(v.f)}
	case kindList:
		return slices.Clone(v.list)
	default:
		return nil
	}
}

// String renders the value for messages.
func (v Value) String() string {
	switch v.kind {
	case kindUnset:
		return "<unset>"
	case kindBool:
		return strconv.FormatBool(v.b)
	case kindList:
		return "[" + strings.Join(v.list, " ") + "]"
	default:
		return v.Tokens()[0]
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.s == o.s && v.i == o.i && v.f == o.f && v.b == o.b &&
		slices.Equal(v.list, o.list)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Parse converts text given on the command line into a value for opt.
// List options accept whitespace separated text.
func Parse(opt Option, raw string) (Value, error) {
	switch opt.Kind {
	case PresenceFlag:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, typeErr(opt, raw)
		}

		return Bool(b), nil
	case List:
		return parseList(opt, strings.Fields(raw))
	default:
		return parseScalar(opt, strings.TrimSpace(raw))
	}
}

// ParseList converts repeated command line values into a list value.
// Each element may itself hold whitespace separated tokens.
func ParseList(opt Option, raw []string) (Value, error) {
	if opt.Kind != List {
		return Value{}, typeErr(opt, raw)
	}

	var tokens []string
	for _, r := range raw {
		tokens = append(tokens, strings.Fields(r)...)
	}

	return parseList(opt, tokens)
}

func parseScalar(opt Option, raw string) (Value, error) {
	switch opt.Type {
	case TypeInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, typeErr(opt, raw)
		}

		return Int(i), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, typeErr(opt, raw)
		}

		return Float(f), nil
	default:
		return String(raw), nil
	}
}

func parseList(opt Option, tokens []string) (Value, error) {
	for _, tok := range tokens {
		if _, err := parseScalar(opt, tok); err != nil {
			return Value{}, err
		}
	}

	return ListOf(tokens...), nil
}

// FromAny converts a decoded configuration value (YAML or HCL) into a value for opt.
func FromAny(opt Option, raw any) (Value, error) {
	switch opt.Kind {
	case PresenceFlag:
		switch x := raw.(type) {
		case bool:
			return Bool(x), nil
		case string:
			return Parse(opt, x)
		}

		return Value{}, typeErr(opt, raw)
	case List:
		var items []any

		switch x := raw.(type) {
		case []any:
			items = x
		case []string:
			for _, s := range x {
				items = append(items, s)
			}
		case string:
			return Parse(opt, x)
		default:
			items = []any{x}
		}

		tokens := make([]string, 0, len(items))

		for _, item := range items {
			v, err := scalarFromAny(opt, item)
			if err != nil {
				return Value{}, err
			}

			tokens = append(tokens, v.Tokens()...)
		}

		return ListOf(tokens...), nil
	default:
		return scalarFromAny(opt, raw)
	}
}

func scalarFromAny(opt Option, raw any) (Value, error) {
	var (
		f       float64
		numeric = true
	)

	switch x := raw.(type) {
	case string:
		return parseScalar(opt, strings.TrimSpace(x))
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case float64:
		f = x
	default:
		numeric = false
	}

	if !numeric {
		return Value{}, typeErr(opt, raw)
	}

	switch opt.Type {
	case TypeInt:
		if f != math.Trunc(f) {
			return Value{}, typeErr(opt, raw)
		}

		return Int(int64(f)), nil
	case TypeFloat:
		return Float(f), nil
	default:
		return String(formatFloat(f)), nil
	}
}

func typeErr(opt Option, raw any) error {
	return fmt.Errorf("%w: option %s (%s %s) cannot take %v", ErrOptionType, opt.Name, opt.Kind, opt.Type, raw)
}

// Values is an immutable set of explicitly given option values.
type Values struct {
	m map[string]Value
}

// NewValues copies m into a Values. Unset entries are dropped.
func NewValues(m map[string]Value) Values {
	out := Values{m: make(map[string]Value, len(m))}

	for k, v := range m {
		if v.IsSet() {
			out.m[k] = v
		}
	}

	return out
}

// Get returns the value for name; the zero Value when absent.
func (vs Values) Get(name string) Value {
	return vs.m[name]
}

// Has reports whether name was given.
func (vs Values) Has(name string) bool {
	_, ok := vs.m[name]
	return ok
}

// Len returns the number of values.
func (vs Values) Len() int {
	return len(vs.m)
}

// Names returns the option names in sorted order.
func (vs Values) Names() []string {
	return slices.Sorted(maps.Keys(vs.m))
}

// With returns a copy of vs with name set to v. vs itself is not modified.
func (vs Values) With(name string, v Value) Values {
	next := maps.Clone(vs.m)
	if next == nil {
		next = make(map[string]Value, 1)
	}

	if v.IsSet() {
		next[name] = v
	} else {
		delete(next, name)
	}

	return Values{m: next}
}

// Merge returns a copy of vs overlaid with every value of over.
func (vs Values) Merge(over Values) Values {
	next := maps.Clone(vs.m)
	if next == nil {
		next = make(map[string]Value, len(over.m))
	}

	maps.Copy(next, over.m)

	return Values{m: next}
}

// Validate checks that every value names a known option of the right shape.
func (vs Values) Validate(s *Schema) error {
	var err error

	for _, name := range vs.Names() {
		opt, ok := s.Lookup(name)
		if !ok {
			err = errors.Join(err, fmt.Errorf("%w: %s", ErrUnknownOption, name))
			continue
		}

		v := vs.m[name]

		switch {
		case opt.Kind == List && v.kind != kindList,
			opt.Kind == Scalar && (v.kind == kindList || v.kind == kindBool),
			opt.Kind == PresenceFlag && v.kind != kindBool && v.kind != kindString:
			err = errors.Join(err, typeErr(opt, v.String()))
		}
	}

	return err
}
