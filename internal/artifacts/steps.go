// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package artifacts

import (
	"context"
	"encoding/csv"
	"io"
	"slices"
	"strconv"

	"github.com/matt-FFFFFF/dmsbatch/internal/layout"
	"github.com/matt-FFFFFF/dmsbatch/internal/profile"
	"github.com/matt-FFFFFF/dmsbatch/internal/render"
	"github.com/matt-FFFFFF/dmsbatch/internal/stats"
)

// codonMutTypesHeader is the header of the codon mutation types table.
var codonMutTypesHeader = []string{"name", "synonymous", "nonsynonymous", "stop"}

// categoryChart draws one bar per category for each sample. Categories are
// taken in first seen order across samples; a category a sample lacks counts 0.
func (p *Pipeline) categoryChart(kind string, a layout.Artifact, title, ylabel string) func(context.Context) error {
	return func(context.Context) error {
		tables := make([]stats.CategoryCounts, len(p.samples))

		var categories []string

		for i, s := range p.samples {
			t, err := read(p, s, kind, stats.ReadCategoryCounts)
			if err != nil {
				return err
			}

			tables[i] = t

			for _, c := range t.Categories {
				if !slices.Contains(categories, c) {
					categories = append(categories, c)
				}
			}
		}

		series := make([]render.Series, len(categories))

		for ci, c := range categories {
			series[ci] = render.Series{Name: c, Values: make([]float64, len(tables))}

			for si, t := range tables {
				n, _ := t.Get(c)
				series[ci].Values[si] = float64(n)
			}
		}

		return p.write(a, func(w io.Writer) error {
			return render.Bars(w, render.Chart{Title: title, YLabel: ylabel}, p.names(), series)
		})
	}
}

func (p *Pipeline) readsPerBarcode(context.Context) error {
	series := make([]render.XYSeries, 0, len(p.samples))

	for _, s := range p.samples {
		rows, err := read(p, s, profile.KindReadsPerBC, stats.ReadReadsPerBarcode)
		if err != nil {
			return err
		}

		xy := render.XYSeries{Name: s.Job, X: make([]float64, len(rows)), Y: make([]float64, len(rows))}
		for i, r := range rows {
			xy.X[i] = float64(r.Reads)
			xy.Y[i] = float64(r.Barcodes)
		}

		series = append(series, xy)
	}

	return p.write(layout.ReadsPerBCPDF, func(w io.Writer) error {
		return render.Lines(w, render.Chart{
			Title: "Reads per barcode", XLabel: "reads per barcode", YLabel: "number of barcodes",
		}, series)
	})
}

// perSite draws one line per sample of a per-site statistic.
func (p *Pipeline) perSite(a layout.Artifact, c render.Chart, stat func([]stats.SiteCounts) []float64) error {
	series := make([]render.XYSeries, 0, len(p.samples))

	for _, s := range p.samples {
		sites, err := p.codonCounts(s)
		if err != nil {
			return err
		}

		series = append(series, render.XYSeries{Name: s.Job, X: siteAxis(sites), Y: stat(sites)})
	}

	return p.write(a, func(w io.Writer) error { return render.Lines(w, c, series) })
}

func (p *Pipeline) depth(context.Context) error {
	return p.perSite(layout.DepthPDF, render.Chart{Title: "Sequencing depth", XLabel: "site", YLabel: "codons counted"},
		stats.Depth)
}

func (p *Pipeline) mutFreq(context.Context) error {
	return p.perSite(layout.MutFreqPDF, render.Chart{Title: "Mutation frequency", XLabel: "site", YLabel: "mutation frequency"},
		stats.MutFreq)
}

func (p *Pipeline) codonMutTypes(context.Context) error {
	types := make([]stats.MutTypes, len(p.samples))

	for i, s := range p.samples {
		sites, err := p.codonCounts(s)
		if err != nil {
			return err
		}

		types[i] = stats.CodonMutTypes(sites)
	}

	series := []render.Series{
		{Name: "synonymous", Values: make([]float64, len(types))},
		{Name: "nonsynonymous", Values: make([]float64, len(types))},
		{Name: "stop", Values: make([]float64, len(types))},
	}

	for i, t := range types {
		series[0].Values[i] = t.Synonymous
		series[1].Values[i] = t.Nonsynonymous
		series[2].Values[i] = t.Stop
	}

	err := p.write(layout.CodonMutTypesPDF, func(w io.Writer) error {
		return render.Bars(w, render.Chart{Title: "Codon mutation types", YLabel: "mutation frequency"}, p.names(), series)
	})
	if err != nil {
		return err
	}

	return p.write(layout.CodonMutTypesCSV, func(w io.Writer) error {
		return writeCodonMutTypes(w, p.names(), types)
	})
}

func writeCodonMutTypes(w io.Writer, names []string, types []stats.MutTypes) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(codonMutTypesHeader); err != nil {
		return err //nolint:wrapcheck
	}

	for i, t := range types {
		if err := cw.Write([]string{names[i], formatFloat(t.Synonymous), formatFloat(t.Nonsynonymous), formatFloat(t.Stop)}); err != nil {
			return err //nolint:wrapcheck
		}
	}

	cw.Flush()

	return cw.Error() //nolint:wrapcheck
}

func (p *Pipeline) codonNTChanges(context.Context) error {
	series := []render.Series{
		{Name: "1 nucleotide", Values: make([]float64, len(p.samples))},
		{Name: "2 nucleotides", Values: make([]float64, len(p.samples))},
		{Name: "3 nucleotides", Values: make([]float64, len(p.samples))},
	}

	for i, s := range p.samples {
		sites, err := p.codonCounts(s)
		if err != nil {
			return err
		}

		for k, f := range stats.CodonNTChanges(sites) {
			series[k].Values[i] = f
		}
	}

	return p.write(layout.CodonNTChangesPDF, func(w io.Writer) error {
		return render.Bars(w, render.Chart{Title: "Nucleotide changes per codon mutation", YLabel: "mutation frequency"},
			p.names(), series)
	})
}

func (p *Pipeline) singleNTChanges(context.Context) error {
	var (
		groups []string
		series = make([]render.Series, 0, len(p.samples))
	)

	for _, s := range p.samples {
		sites, err := p.codonCounts(s)
		if err != nil {
			return err
		}

		subs := stats.SingleNTChanges(sites)
		values := make([]float64, len(subs))

		if groups == nil {
			groups = make([]string, len(subs))
			for i, sub := range subs {
				groups[i] = sub.Name()
			}
		}

		for i, sub := range subs {
			values[i] = sub.Freq
		}

		series = append(series, render.Series{Name: s.Job, Values: values})
	}

	return p.write(layout.SingleNTChangesPDF, func(w io.Writer) error {
		return render.Bars(w, render.Chart{Title: "Single nucleotide changes", YLabel: "fraction of mutations"},
			groups, series)
	})
}

func (p *Pipeline) cumulMutCounts(context.Context) error {
	series := make([]render.XYSeries, 0, len(p.samples))

	for _, s := range p.samples {
		sites, err := p.codonCounts(s)
		if err != nil {
			return err
		}

		fracs := stats.CumulativeMutCounts(sites, stats.MaxCumulativeCount)
		xy := render.XYSeries{Name: s.Job, X: make([]float64, len(fracs)), Y: fracs}

		for i := range fracs {
			xy.X[i] = float64(i + 1)
		}

		series = append(series, xy)
	}

	return p.write(layout.CumulMutCountsPDF, func(w io.Writer) error {
		return render.Lines(w, render.Chart{
			Title: "Cumulative mutation counts", XLabel: "times observed", YLabel: "fraction of possible mutations",
		}, series)
	})
}

// siteAxis returns numeric site positions. Sites that are not numbers are
// placed by their row order.
func siteAxis(sites []stats.SiteCounts) []float64 {
	out := make([]float64, len(sites))

	for i, s := range sites {
		f, err := strconv.ParseFloat(s.Site, 64)
		if err != nil {
			f = float64(i + 1)
		}

		out[i] = f
	}

	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
