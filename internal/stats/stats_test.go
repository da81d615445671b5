// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package stats

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func site(t *testing.T, name, wt string, counts map[string]int64) SiteCounts {
	t.Helper()

	sc := SiteCounts{Site: name, Wildtype: wt}

	for codon, n := range counts {
		i, ok := CodonIndex(codon)
		require.True(t, ok, codon)
		sc.Counts[i] = n
	}

	return sc
}

func fixture(t *testing.T) []SiteCounts {
	t.Helper()

	return []SiteCounts{
		site(t, "1", "ATG", map[string]int64{"ATG": 90, "ATA": 5, "TAG": 5}),
		site(t, "2", "CTG", map[string]int64{"CTG": 80, "CTA": 10, "TTA": 10}),
	}
}

func TestCodons(t *testing.T) {
	assert.Equal(t, "AAA", Codons[0])
	assert.Equal(t, "TTT", Codons[63])

	i, ok := CodonIndex("ATG")
	require.True(t, ok)
	assert.Equal(t, "ATG", Codons[i])

	_, ok = CodonIndex("AUG")
	assert.False(t, ok)

	for codon, want := range map[string]byte{"ATG": 'M', "TAA": Stop, "TAG": Stop, "TGA": Stop, "TGG": 'W', "GGC": 'G', "CTA": 'L'} {
		got, ok := Translate(codon)
		require.True(t, ok, codon)
		assert.Equal(t, string(want), string(got), codon)
	}
}

func TestDepthAndMutFreq(t *testing.T) {
	sites := append(fixture(t), SiteCounts{Site: "3", Wildtype: "AAA"})

	assert.Equal(t, []float64{100, 100, 0}, Depth(sites))

	freq := MutFreq(sites)
	assert.InDelta(t, 0.1, freq[0], 1e-12)
	assert.InDelta(t, 0.2, freq[1], 1e-12)
	assert.Zero(t, freq[2], "no coverage means no mutations")
}

func TestCodonMutTypes(t *testing.T) {
	got := CodonMutTypes(fixture(t))
	assert.InDelta(t, 0.1, got.Synonymous, 1e-12)
	assert.InDelta(t, 0.025, got.Nonsynonymous, 1e-12)
	assert.InDelta(t, 0.025, got.Stop, 1e-12)

	assert.Equal(t, MutTypes{}, CodonMutTypes(nil))
}

func TestCodonNTChanges(t *testing.T) {
	got := CodonNTChanges(fixture(t))
	assert.InDelta(t, 0.075, got[0], 1e-12)
	assert.InDelta(t, 0.075, got[1], 1e-12)
	assert.Zero(t, got[2])
}

func TestSingleNTChanges(t *testing.T) {
	got := SingleNTChanges(fixture(t))
	require.Len(t, got, 12)

	for _, s := range got {
		if s.Name() == "G>A" {
			assert.InDelta(t, 0.075, s.Freq, 1e-12)
			continue
		}

		assert.Zero(t, s.Freq, s.Name())
	}

	assert.Equal(t, "A>C", got[0].Name())
}

func TestCumulativeMutCounts(t *testing.T) {
	got := CumulativeMutCounts(fixture(t), 6)
	require.Len(t, got, 6)

	for i := range 5 {
		assert.InDelta(t, 4.0/126, got[i], 1e-12)
	}

	assert.InDelta(t, 2.0/126, got[5], 1e-12)

	assert.Len(t, CumulativeMutCounts(fixture(t), 500), MaxCumulativeCount)
	assert.Nil(t, CumulativeMutCounts(nil, 10))
	assert.Nil(t, CumulativeMutCounts(fixture(t), 0))
}

func codonCountsCSV(rows ...string) string {
	return "site,wildtype," + strings.Join(Codons[:], ",") + "\n" + strings.Join(rows, "")
}

func row(siteName, wt string, counts map[string]int) string {
	cells := make([]string, 64)
	for i, c := range Codons {
		cells[i] = strconv.Itoa(counts[c])
	}

	return siteName + "," + wt + "," + strings.Join(cells, ",") + "\n"
}

func TestReadCodonCounts(t *testing.T) {
	in := codonCountsCSV(row("1", "atg", map[string]int{"ATG": 9, "ATA": 1}))

	sites, err := ReadCodonCounts(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "ATG", sites[0].Wildtype)
	assert.Equal(t, int64(10), sites[0].Depth())

	_, err = ReadCodonCounts(strings.NewReader(codonCountsCSV(row("1", "XYZ", nil))))
	require.ErrorIs(t, err, ErrTable)

	_, err = ReadCodonCounts(strings.NewReader("site,wildtype,AAA\n1,AAA,1\n"))
	require.ErrorIs(t, err, ErrTable)
}

func TestReadCategoryCounts(t *testing.T) {
	c, err := ReadCategoryCounts(strings.NewReader("total, retained\n100, 90\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"total", "retained"}, c.Categories)

	n, ok := c.Get("retained")
	require.True(t, ok)
	assert.Equal(t, int64(90), n)

	_, ok = c.Get("nope")
	assert.False(t, ok)

	for _, bad := range []string{"", "a\n", "a\n1\n2\n", "a\n-1\n", "a\nx\n"} {
		_, err := ReadCategoryCounts(strings.NewReader(bad))
		require.ErrorIs(t, err, ErrTable, bad)
	}
}

func TestReadReadsPerBarcode(t *testing.T) {
	got, err := ReadReadsPerBarcode(strings.NewReader("number of reads,number of barcodes\n1,300\n2,120\n"))
	require.NoError(t, err)
	assert.Equal(t, []ReadsPerBarcode{{Reads: 1, Barcodes: 300}, {Reads: 2, Barcodes: 120}}, got)

	_, err = ReadReadsPerBarcode(strings.NewReader("reads,barcodes\n1,2\n"))
	require.ErrorIs(t, err, ErrTable)
}
