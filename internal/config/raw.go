// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/dmsbatch/internal/options"
	"github.com/matt-FFFFFF/dmsbatch/internal/profile"
)

var (
	// ErrInvalidYaml is returned when a YAML configuration file cannot be decoded.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrReservedOption is returned when the options map sets an option that has
	// its own top level setting or is never forwarded.
	ErrReservedOption = errors.New("option cannot be set in the options map")
)

// Raw is a decoded configuration file before its options are type checked
// against a profile. Nil and empty fields were not given.
type Raw struct {
	Profile       string            `yaml:"profile"`
	Program       string            `yaml:"program"`
	BatchFile     string            `yaml:"batchfile"`
	OutDir        string            `yaml:"outdir"`
	SummaryPrefix string            `yaml:"summaryprefix"`
	NCPUs         *int              `yaml:"ncpus"`
	UseExisting   *bool             `yaml:"use_existing"`
	Env           map[string]string `yaml:"env"`
	Options       map[string]any    `yaml:"options"`
}

// DecodeYAML decodes a YAML configuration file. Unknown keys are an error.
func DecodeYAML(data []byte) (Raw, error) {
	var raw Raw

	if err := yaml.UnmarshalWithOptions(data, &raw, yaml.Strict()); err != nil {
		return Raw{}, fmt.Errorf("%w: %w", ErrInvalidYaml, err)
	}

	return raw, nil
}

// Source type checks the options of r against the schema of p and returns
// the layer r describes. Every bad option is reported.
func (r Raw) Source(p *profile.Profile) (Source, error) {
	src := Source{
		Profile:       r.Profile,
		Program:       r.Program,
		BatchFile:     r.BatchFile,
		OutDir:        r.OutDir,
		SummaryPrefix: r.SummaryPrefix,
		NCPUs:         r.NCPUs,
		UseExisting:   r.UseExisting,
		Env:           r.Env,
	}

	vals, err := resolveOptions(p.Schema(), r.Options)
	if err != nil {
		return Source{}, err
	}

	src.Options = vals

	return src, nil
}

func resolveOptions(s *options.Schema, raw map[string]any) (options.Values, error) {
	var (
		m    = make(map[string]options.Value, len(raw))
		errs error
	)

	names := make([]string, 0, len(raw))
	for k := range raw {
		names = append(names, k)
	}

	slices.Sort(names)

	for _, name := range names {
		opt, ok := s.Lookup(name)
		if !ok {
			errs = errors.Join(errs, fmt.Errorf("%w: %s", options.ErrUnknownOption, name))
			continue
		}

		if opt.Category != options.RowOverridable {
			errs = errors.Join(errs, fmt.Errorf("%w: %s is %s", ErrReservedOption, name, opt.Category))
			continue
		}

		v, err := options.FromAny(opt, raw[name])
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}

		m[name] = v
	}

	if errs != nil {
		return options.Values{}, errs
	}

	return options.NewValues(m), nil
}
