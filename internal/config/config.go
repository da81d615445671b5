// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/matt-FFFFFF/dmsbatch/internal/jobtable"
	"github.com/matt-FFFFFF/dmsbatch/internal/options"
	"github.com/matt-FFFFFF/dmsbatch/internal/profile"
)

// Defaults applied when no layer sets a value.
const (
	DefaultProfile = "bcsubamp"
	DefaultOutDir  = "."
	DefaultNCPUs   = -1
)

var (
	// ErrInvalidConfig is returned when the merged configuration is not usable.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Source is one layer of settings. Zero fields were not given.
type Source struct {
	Profile       string
	Program       string
	BatchFile     string
	OutDir        string
	SummaryPrefix string
	NCPUs         *int
	UseExisting   *bool
	Env           map[string]string
	Options       options.Values
}

// GlobalConfig is the immutable configuration of one batch run. It is built
// once by Build and passed by value; nothing modifies it afterwards.
type GlobalConfig struct {
	Profile       *profile.Profile `validate:"required"`
	Program       string           `validate:"required"`
	BatchFile     string           `validate:"required"`
	OutDir        string           `validate:"required"`
	SummaryPrefix string           `validate:"required,jobname"`
	NCPUs         int
	UseExisting   bool
	env           map[string]string
	opts          options.Values
}

// Env returns a copy of the extra environment of the external program.
func (c GlobalConfig) Env() map[string]string {
	return maps.Clone(c.env)
}

// Options returns the explicitly set row-overridable options.
func (c GlobalConfig) Options() options.Values {
	return c.opts
}

// Globals returns every value forwarded to each job as a global: the
// explicitly set options plus the output directory and reuse flag.
func (c GlobalConfig) Globals() options.Values {
	useExisting := "no"
	if c.UseExisting {
		useExisting = "yes"
	}

	return c.opts.
		With(profile.OptOutDir, options.String(c.OutDir)).
		With(profile.OptUseExisting, options.String(useExisting))
}

// Build merges layers, later layers winning, applies defaults and validates
// the result. Options are merged per option.
func Build(layers ...Source) (GlobalConfig, error) {
	merged := Source{}

	for _, l := range layers {
		merged = overlay(merged, l)
	}

	name := merged.Profile
	if name == "" {
		name = DefaultProfile
	}

	p, err := profile.Lookup(name)
	if err != nil {
		return GlobalConfig{}, errors.Join(ErrInvalidConfig, err)
	}

	cfg := GlobalConfig{
		Profile:       p,
		Program:       firstNonEmpty(merged.Program, p.Program),
		BatchFile:     merged.BatchFile,
		OutDir:        firstNonEmpty(merged.OutDir, DefaultOutDir),
		SummaryPrefix: merged.SummaryPrefix,
		NCPUs:         DefaultNCPUs,
		env:           maps.Clone(merged.Env),
		opts:          merged.Options,
	}

	if merged.NCPUs != nil {
		cfg.NCPUs = *merged.NCPUs
	}

	if merged.UseExisting != nil {
		cfg.UseExisting = *merged.UseExisting
	}

	if err := Validate(cfg); err != nil {
		return GlobalConfig{}, err
	}

	return cfg, nil
}

func overlay(base, over Source) Source {
	out := base
	out.Profile = firstNonEmpty(over.Profile, base.Profile)
	out.Program = firstNonEmpty(over.Program, base.Program)
	out.BatchFile = firstNonEmpty(over.BatchFile, base.BatchFile)
	out.OutDir = firstNonEmpty(over.OutDir, base.OutDir)
	out.SummaryPrefix = firstNonEmpty(over.SummaryPrefix, base.SummaryPrefix)

	if over.NCPUs != nil {
		out.NCPUs = over.NCPUs
	}

	if over.UseExisting != nil {
		out.UseExisting = over.UseExisting
	}

	if len(over.Env) > 0 {
		out.Env = maps.Clone(base.Env)
		if out.Env == nil {
			out.Env = make(map[string]string, len(over.Env))
		}

		maps.Copy(out.Env, over.Env)
	}

	out.Options = base.Options.Merge(over.Options)

	return out
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}

	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.RegisterValidation("jobname", func(fl validator.FieldLevel) bool {
		return jobtable.ValidName(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

// Validate checks the required settings, the summary prefix and the options
// against the profile's schema. The worker count is checked when it is
// resolved.
func Validate(c GlobalConfig) error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errors.Join(ErrInvalidConfig, err)
		}

		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}

		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
	}

	if err := c.opts.Validate(c.Profile.Schema()); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	return nil
}

func fieldMessage(fe validator.FieldError) string {
	name := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "jobname":
		return fmt.Sprintf("%s %q may only contain letters, digits, '_', '-' and '.'", name, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", name, fe.Tag())
	}
}
