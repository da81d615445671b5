// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package stats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// ErrTable is returned for a per-job table that cannot be read.
var ErrTable = errors.New("malformed table")

// Column names of the reads per barcode table.
const (
	ColReads    = "number of reads"
	ColBarcodes = "number of barcodes"
)

// CategoryCounts is a one row table of named counts, such as read or barcode statistics.
type CategoryCounts struct {
	Categories []string
	Counts     []int64
}

// Get returns the count of category.
func (c CategoryCounts) Get(category string) (int64, bool) {
	for i, cat := range c.Categories {
		if cat == category {
			return c.Counts[i], true
		}
	}

	return 0, false
}

// ReadsPerBarcode is one row of the reads per barcode table: Barcodes barcodes
// were each seen Reads times.
type ReadsPerBarcode struct {
	Reads    int64
	Barcodes int64
}

// SiteCounts holds the codon counts at one site.
type SiteCounts struct {
	Site     string
	Wildtype string
	Counts   [64]int64 // indexed like Codons
}

// Depth returns the number of codons counted at the site.
func (s SiteCounts) Depth() int64 {
	var d int64
	for _, c := range s.Counts {
		d += c
	}

	return d
}

func readAll(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0

	recs, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTable, err)
	}

	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no header", ErrTable)
	}

	for _, rec := range recs {
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
	}

	return recs, nil
}

func parseCount(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a count", ErrTable, s)
	}

	return n, nil
}

// ReadCategoryCounts reads a header of categories and a single row of counts.
func ReadCategoryCounts(r io.Reader) (CategoryCounts, error) {
	recs, err := readAll(r)
	if err != nil {
		return CategoryCounts{}, err
	}

	if len(recs) != 2 {
		return CategoryCounts{}, fmt.Errorf("%w: want one row of counts, got %d", ErrTable, len(recs)-1)
	}

	out := CategoryCounts{Categories: recs[0], Counts: make([]int64, len(recs[1]))}

	for i, s := range recs[1] {
		if out.Counts[i], err = parseCount(s); err != nil {
			return CategoryCounts{}, err
		}
	}

	return out, nil
}

// ReadReadsPerBarcode reads the reads per barcode table.
func ReadReadsPerBarcode(r io.Reader) ([]ReadsPerBarcode, error) {
	recs, err := readAll(r)
	if err != nil {
		return nil, err
	}

	ri, bi := slices.Index(recs[0], ColReads), slices.Index(recs[0], ColBarcodes)
	if ri < 0 || bi < 0 {
		return nil, fmt.Errorf("%w: want columns %q and %q", ErrTable, ColReads, ColBarcodes)
	}

	out := make([]ReadsPerBarcode, 0, len(recs)-1)

	for _, rec := range recs[1:] {
		reads, err := parseCount(rec[ri])
		if err != nil {
			return nil, err
		}

		bcs, err := parseCount(rec[bi])
		if err != nil {
			return nil, err
		}

		out = append(out, ReadsPerBarcode{Reads: reads, Barcodes: bcs})
	}

	return out, nil
}

// ReadCodonCounts reads a codon counts table: site, wildtype and one column per codon.
func ReadCodonCounts(r io.Reader) ([]SiteCounts, error) {
	recs, err := readAll(r)
	if err != nil {
		return nil, err
	}

	header := recs[0]

	si, wi := slices.Index(header, "site"), slices.Index(header, "wildtype")
	if si < 0 || wi < 0 {
		return nil, fmt.Errorf("%w: want columns site and wildtype", ErrTable)
	}

	var cols [64]int

	for i, codon := range Codons {
		if cols[i] = slices.Index(header, codon); cols[i] < 0 {
			return nil, fmt.Errorf("%w: missing codon column %s", ErrTable, codon)
		}
	}

	out := make([]SiteCounts, 0, len(recs)-1)

	for _, rec := range recs[1:] {
		sc := SiteCounts{Site: rec[si], Wildtype: strings.ToUpper(rec[wi])}

		if _, ok := CodonIndex(sc.Wildtype); !ok {
			return nil, fmt.Errorf("%w: site %s: wildtype %q is not a codon", ErrTable, sc.Site, rec[wi])
		}

		for i, col := range cols {
			if sc.Counts[i], err = parseCount(rec[col]); err != nil {
				return nil, err
			}
		}

		out = append(out, sc)
	}

	return out, nil
}
