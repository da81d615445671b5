// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package profile describes the external programs the batch driver knows how
// to run: the executable, the primary input column, the columns every batch
// row must carry, the per-job outputs it writes and the options it accepts.
package profile

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matt-FFFFFF/dmsbatch/internal/options"
)

// ErrUnknownProfile is returned by Lookup for names that are not registered.
var ErrUnknownProfile = errors.New("unknown profile")

// Option names the orchestrator reads itself.
const (
	OptOutDir        = "outdir"
	OptUseExisting   = "use_existing"
	OptNCPUs         = "ncpus"
	OptSummaryPrefix = "summaryprefix"
	OptBatchFile     = "batchfile"
)

// NameColumn is the column holding the job name in every batch file.
const NameColumn = "name"

// OutputKind is one per-job output file, identified by its suffix.
type OutputKind struct {
	Name   string // e.g. "codoncounts"
	Suffix string // e.g. "_codoncounts.csv"
}

// Profile is an immutable description of an external per-job program.
type Profile struct {
	Name            string
	Program         string
	PrimaryInput    string
	requiredColumns []string
	outputKinds     []OutputKind
	schema          *options.Schema
}

// RequiredColumns returns the columns every batch file must contain.
func (p *Profile) RequiredColumns() []string {
	return slices.Clone(p.requiredColumns)
}

// OutputKinds returns the per-job outputs the program writes, in a stable order.
func (p *Profile) OutputKinds() []OutputKind {
	return slices.Clone(p.outputKinds)
}

// Schema returns the option schema of the program.
func (p *Profile) Schema() *options.Schema {
	return p.schema
}

// Kind returns the output kind called name.
func (p *Profile) Kind(name string) (OutputKind, bool) {
	for _, k := range p.outputKinds {
		if k.Name == name {
			return k, true
		}
	}

	return OutputKind{}, false
}

// Output kind names of the bcsubamp profile.
const (
	KindCodonCounts = "codoncounts"
	KindReadStats   = "readstats"
	KindBCStats     = "bcstats"
	KindReadsPerBC  = "readsperbc"
)

func rowOpt(name string, kind options.Kind, typ options.Type, usage string) options.Option {
	return options.Option{Name: name, Category: options.RowOverridable, Kind: kind, Type: typ, Usage: usage}
}

// BCSubamp is the barcoded subamplicon profile.
var BCSubamp = &Profile{
	Name:            "bcsubamp",
	Program:         "dms2_bcsubamp",
	PrimaryInput:    "R1",
	requiredColumns: []string{NameColumn, "R1"},
	outputKinds: []OutputKind{
		{Name: KindCodonCounts, Suffix: "_codoncounts.csv"},
		{Name: KindReadStats, Suffix: "_readstats.csv"},
		{Name: KindBCStats, Suffix: "_bcstats.csv"},
		{Name: KindReadsPerBC, Suffix: "_readsperbc.csv"},
	},
	schema: options.MustSchema(
		options.Option{Name: OptOutDir, Category: options.GlobalOnly, Kind: options.Scalar, Type: options.TypeString,
			Usage: "directory for per-job and summary output"},
		options.Option{Name: OptUseExisting, Category: options.GlobalOnly, Kind: options.Scalar, Type: options.TypeString,
			Usage: "yes or no; reuse existing output"},
		rowOpt("refseq", options.Scalar, options.TypeString, "reference sequence FASTA"),
		rowOpt("alignspecs", options.List, options.TypeString, "subamplicon alignment specs"),
		rowOpt("fastqdir", options.Scalar, options.TypeString, "directory holding the FASTQ files"),
		rowOpt("R2", options.Scalar, options.TypeString, "read 2 FASTQ files"),
		rowOpt("R1trim", options.List, options.TypeInt, "trim read 1 to these lengths"),
		rowOpt("R2trim", options.List, options.TypeInt, "trim read 2 to these lengths"),
		rowOpt("bclen", options.Scalar, options.TypeInt, "barcode length"),
		rowOpt("bclen2", options.Scalar, options.TypeInt, "read 2 barcode length"),
		rowOpt("chartype", options.Scalar, options.TypeString, "character type to count"),
		rowOpt("maxmuts", options.Scalar, options.TypeFloat, "maximum mutations per subamplicon"),
		rowOpt("minq", options.Scalar, options.TypeInt, "minimum Q score"),
		rowOpt("minreads", options.Scalar, options.TypeInt, "minimum reads per barcode"),
		rowOpt("minfraccall", options.Scalar, options.TypeFloat, "minimum fraction of reads calling a site"),
		rowOpt("minconcur", options.Scalar, options.TypeFloat, "minimum concurrence of a consensus call"),
		rowOpt("sitemask", options.Scalar, options.TypeString, "CSV of sites to keep"),
		rowOpt("purgeread", options.Scalar, options.TypeFloat, "randomly purge this fraction of reads"),
		rowOpt("purgebc", options.Scalar, options.TypeFloat, "randomly purge this fraction of barcodes"),
		rowOpt("bcinfo", options.PresenceFlag, options.TypeString, "write barcode info file"),
		rowOpt("bcinfo_csv", options.PresenceFlag, options.TypeString, "write barcode info as CSV"),
		options.Option{Name: OptNCPUs, Category: options.Fixed, Kind: options.Scalar, Type: options.TypeInt,
			Usage: "worker count, -1 for all cores"},
		options.Option{Name: OptSummaryPrefix, Category: options.Fixed, Kind: options.Scalar, Type: options.TypeString,
			Usage: "prefix of the summary artifacts"},
		options.Option{Name: OptBatchFile, Category: options.Fixed, Kind: options.Scalar, Type: options.TypeString,
			Usage: "batch file listing the jobs"},
	),
}

var registry = map[string]*Profile{
	BCSubamp.Name: BCSubamp,
}

// Lookup returns the registered profile called name.
func Lookup(name string) (*Profile, error) {
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}

	return p, nil
}
