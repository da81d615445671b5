// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package hcl decodes HCL configuration files. Expressions may reference
// environment variables as env.NAME and call the hclfuncs function table.
//
//	batchfile     = "batch.csv"
//	outdir        = "${env.SCRATCH}/run1"
//	summaryprefix = "run1"
//
//	options {
//	  refseq = "ref.fasta"
//	  R1trim = [200, 170]
//	}
package hcl

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/lonegunmanb/hclfuncs"
	"github.com/matt-FFFFFF/dmsbatch/internal/config"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

// FileExt is the extension of HCL configuration files.
const FileExt = ".hcl"

const (
	optionsBlock = "options"
	envVariable  = "env"
)

var (
	// ErrParseConfig is returned when an HCL configuration file cannot be decoded.
	ErrParseConfig = errors.New("failed to parse HCL configuration")
	// ErrUnsupportedValue is returned for values that have no option equivalent.
	ErrUnsupportedValue = errors.New("unsupported value")
)

// FsFactory is a function that returns an afero filesystem.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

var rootSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "profile"},
		{Name: "program"},
		{Name: "batchfile"},
		{Name: "outdir"},
		{Name: "summaryprefix"},
		{Name: "ncpus"},
		{Name: "use_existing"},
		{Name: "env"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: optionsBlock},
	},
}

// LoadFile reads and decodes path.
func LoadFile(path string) (config.Raw, error) {
	src, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return config.Raw{}, errors.Join(ErrParseConfig, err)
	}

	return Decode(path, src, Environ())
}

// Decode decodes src. env holds the variables visible as env.NAME.
// Every diagnostic is reported.
func Decode(filename string, src []byte, env map[string]string) (config.Raw, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return config.Raw{}, errors.Join(ErrParseConfig, diags)
	}

	content, diags := file.Body.Content(rootSchema)
	if diags.HasErrors() {
		return config.Raw{}, errors.Join(ErrParseConfig, diags)
	}

	ectx := evalContext(filepath.Dir(filename), env)

	var (
		raw    config.Raw
		result error
	)

	for name, attr := range content.Attributes {
		v, diags := attr.Expr.Value(ectx)
		if diags.HasErrors() {
			result = multierror.Append(result, diags.Errs()...)
			continue
		}

		if err := assign(&raw, name, v); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", attr.NameRange, err))
		}
	}

	for i, block := range content.Blocks {
		if i > 0 {
			result = multierror.Append(result, fmt.Errorf("%s: only one %s block is allowed", block.DefRange, optionsBlock))
			continue
		}

		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			result = multierror.Append(result, diags.Errs()...)
			continue
		}

		raw.Options = make(map[string]any, len(attrs))

		for name, attr := range attrs {
			v, diags := attr.Expr.Value(ectx)
			if diags.HasErrors() {
				result = multierror.Append(result, diags.Errs()...)
				continue
			}

			goVal, err := toGo(v)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", attr.NameRange, err))
				continue
			}

			raw.Options[name] = goVal
		}
	}

	if result != nil {
		return config.Raw{}, errors.Join(ErrParseConfig, result)
	}

	return raw, nil
}

func evalContext(baseDir string, env map[string]string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vars[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			envVariable: cty.ObjectVal(vars),
		},
		Functions: hclfuncs.Functions(baseDir),
	}
}

func assign(raw *config.Raw, name string, v cty.Value) error {
	if v.IsNull() {
		return nil
	}

	switch name {
	case "ncpus":
		n, err := asInt(v)
		if err != nil {
			return err
		}

		raw.NCPUs = &n
	case "use_existing":
		if v.Type() != cty.Bool {
			return fmt.Errorf("%w: use_existing must be a bool", ErrUnsupportedValue)
		}

		b := v.True()
		raw.UseExisting = &b
	case "env":
		if !v.Type().IsObjectType() && !v.Type().IsMapType() {
			return fmt.Errorf("%w: env must be a map of strings", ErrUnsupportedValue)
		}

		raw.Env = make(map[string]string, v.LengthInt())

		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			if ev.Type() != cty.String {
				return fmt.Errorf("%w: env.%s must be a string", ErrUnsupportedValue, k.AsString())
			}

			raw.Env[k.AsString()] = ev.AsString()
		}
	default:
		if v.Type() != cty.String {
			return fmt.Errorf("%w: %s must be a string", ErrUnsupportedValue, name)
		}

		s := v.AsString()

		switch name {
		case "profile":
			raw.Profile = s
		case "program":
			raw.Program = s
		case "batchfile":
			raw.BatchFile = s
		case "outdir":
			raw.OutDir = s
		case "summaryprefix":
			raw.SummaryPrefix = s
		}
	}

	return nil
}

func asInt(v cty.Value) (int, error) {
	if v.Type() != cty.Number {
		return 0, fmt.Errorf("%w: want a number", ErrUnsupportedValue)
	}

	bf := v.AsBigFloat()
	if !bf.IsInt() {
		return 0, fmt.Errorf("%w: want a whole number, got %s", ErrUnsupportedValue, bf.Text('g', -1))
	}

	i, _ := bf.Int64()

	return int(i), nil
}

// toGo converts a cty value into the types options.FromAny accepts.
func toGo(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, fmt.Errorf("%w: null or unknown", ErrUnsupportedValue)
	}

	t := v.Type()

	switch {
	case t == cty.String:
		return v.AsString(), nil
	case t == cty.Bool:
		return v.True(), nil
	case t == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, acc := bf.Int64()
			if acc == big.Exact {
				return i, nil
			}
		}

		f, _ := bf.Float64()

		return f, nil
	case t.IsListType() || t.IsTupleType() || t.IsSetType():
		out := make([]any, 0, v.LengthInt())

		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()

			gv, err := toGo(ev)
			if err != nil {
				return nil, err
			}

			out = append(out, gv)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, t.FriendlyName())
	}
}

// Environ returns the process environment as the variables visible as env.NAME.
func Environ() map[string]string {
	env := make(map[string]string)

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	return env
}
