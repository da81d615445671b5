// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package render draws summary charts as PDF documents. Every function is a
// pure transformation of the data it is given into bytes written to w.
package render

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	format       = "pdf"
	width        = 7 * vg.Inch
	height       = 4 * vg.Inch
	barGroupSize = 0.8 * vg.Inch
)

var (
	// ErrData is returned when the data cannot be drawn.
	ErrData = errors.New("invalid chart data")
	// ErrRender is returned when the chart could not be drawn or written.
	ErrRender = errors.New("could not render chart")
)

// Chart holds the labels of a chart.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
}

// Series is one bar per group, in group order.
type Series struct {
	Name   string
	Values []float64
}

// XYSeries is one line.
type XYSeries struct {
	Name string
	X, Y []float64
}

func newPlot(c Chart) *plot.Plot {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.Legend.Top = true

	return p
}

// Bars draws grouped bars: one group per entry of groups, one bar per series
// within each group.
func Bars(w io.Writer, c Chart, groups []string, series []Series) error {
	if len(groups) == 0 || len(series) == 0 {
		return fmt.Errorf("%w: %s: nothing to draw", ErrData, c.Title)
	}

	p := newPlot(c)
	barWidth := barGroupSize / vg.Length(len(series))

	for i, s := range series {
		if len(s.Values) != len(groups) {
			return fmt.Errorf("%w: %s: series %q has %d values for %d groups",
				ErrData, c.Title, s.Name, len(s.Values), len(groups))
		}

		bars, err := plotter.NewBarChart(plotter.Values(s.Values), barWidth)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrData, c.Title, err)
		}

		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = barWidth*vg.Length(i) - barGroupSize/2 + barWidth/2

		p.Add(bars)

		if len(series) > 1 {
			p.Legend.Add(s.Name, bars)
		}
	}

	p.NominalX(groups...)

	return write(w, p, c)
}

// Lines draws one line per series.
func Lines(w io.Writer, c Chart, series []XYSeries) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: %s: nothing to draw", ErrData, c.Title)
	}

	p := newPlot(c)

	for i, s := range series {
		if len(s.X) != len(s.Y) {
			return fmt.Errorf("%w: %s: series %q has %d x and %d y values",
				ErrData, c.Title, s.Name, len(s.X), len(s.Y))
		}

		xys := make(plotter.XYs, len(s.X))
		for j := range s.X {
			xys[j].X = s.X[j]
			xys[j].Y = s.Y[j]
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrData, c.Title, err)
		}

		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i / len(plotutil.DefaultColors))

		p.Add(line)
		p.Legend.Add(s.Name, line)
	}

	return write(w, p, c)
}

func write(w io.Writer, p *plot.Plot, c Chart) error {
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, c.Title, err)
	}

	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, c.Title, err)
	}

	return nil
}
