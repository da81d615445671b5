// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package options provides the options command, which documents the option
// schema of a program profile.
package options

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/dmsbatch/internal/config"
	opts "github.com/matt-FFFFFF/dmsbatch/internal/options"
	"github.com/matt-FFFFFF/dmsbatch/internal/profile"
	"github.com/urfave/cli/v3"
)

const (
	profileArg = "profile"
	formatFlag = "format"
)

// ErrFormat is returned for an unknown output format.
var ErrFormat = errors.New("invalid format, use text, yaml or json")

// OptionsCmd is the command that lists the options of a profile.
var OptionsCmd = &cli.Command{
	Name:  "options",
	Usage: "List the options a program profile accepts",
	Description: `List every option of a program profile with its category and value kind.

row-overridable options may be set globally or as a batch file column, never both.
global-only options are set once for the batch. fixed options are read by dmsbatch
itself and never passed to the program.`,
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name: profileArg,
		},
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        formatFlag,
			Aliases:     []string{"f"},
			Usage:       "Output format: text, yaml or json",
			DefaultText: "text",
			Value:       "text",
		},
	},
	Action: actionFunc,
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	name := cmd.StringArg(profileArg)
	if name == "" {
		name = config.DefaultProfile
	}

	p, err := profile.Lookup(name)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	w := cmd.Root().Writer
	if w == nil {
		w = os.Stdout
	}

	if err := write(w, p, cmd.String(formatFlag)); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

// optionDoc is the documented form of one option.
type optionDoc struct {
	Name     string `json:"name"            yaml:"name"`
	Category string `json:"category"        yaml:"category"`
	Kind     string `json:"kind"            yaml:"kind"`
	Type     string `json:"type,omitempty"  yaml:"type,omitempty"`
	Usage    string `json:"usage,omitempty" yaml:"usage,omitempty"`
}

type profileDoc struct {
	Profile         string      `json:"profile"          yaml:"profile"`
	Program         string      `json:"program"          yaml:"program"`
	PrimaryInput    string      `json:"primary_input"    yaml:"primary_input"`
	RequiredColumns []string    `json:"required_columns" yaml:"required_columns"`
	Options         []optionDoc `json:"options"          yaml:"options"`
}

func document(p *profile.Profile) profileDoc {
	doc := profileDoc{
		Profile:         p.Name,
		Program:         p.Program,
		PrimaryInput:    p.PrimaryInput,
		RequiredColumns: p.RequiredColumns(),
	}

	for _, o := range p.Schema().All() {
		d := optionDoc{
			Name:     o.Name,
			Category: o.Category.String(),
			Kind:     o.Kind.String(),
			Usage:    o.Usage,
		}

		if o.Kind != opts.PresenceFlag {
			d.Type = o.Type.String()
		}

		doc.Options = append(doc.Options, d)
	}

	return doc
}

func write(w io.Writer, p *profile.Profile, format string) error {
	doc := document(p)

	switch strings.ToLower(format) {
	case "yaml":
		b, err := yaml.Marshal(doc)
		if err != nil {
			return err //nolint:wrapcheck
		}

		_, err = w.Write(b)

		return err //nolint:wrapcheck
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(doc) //nolint:wrapcheck
	case "text", "":
		return writeText(w, doc)
	default:
		return fmt.Errorf("%w: %s", ErrFormat, format)
	}
}

func writeText(w io.Writer, doc profileDoc) error {
	if _, err := fmt.Fprintf(w, "Profile %s runs %s; required columns: %s\n\n",
		doc.Profile, doc.Program, strings.Join(doc.RequiredColumns, ", ")); err != nil {
		return err //nolint:wrapcheck
	}

	for _, o := range doc.Options {
		kind := o.Kind
		if o.Type != "" {
			kind += " " + o.Type
		}

		if _, err := fmt.Fprintf(w, "  %-14s %-16s %-14s %s\n", o.Name, o.Category, kind, o.Usage); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}
