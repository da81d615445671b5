// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package stats

import (
	"fmt"
	"strings"
)

// MaxCumulativeCount caps the x axis of CumulativeMutCounts.
const MaxCumulativeCount = 100

// mutantsPerSite is the number of non-wildtype codons at a site.
const mutantsPerSite = 63

// Depth returns the number of codons counted at each site.
func Depth(sites []SiteCounts) []float64 {
	out := make([]float64, len(sites))
	for i, s := range sites {
		out[i] = float64(s.Depth())
	}

	return out
}

// MutFreq returns, for each site, the fraction of counted codons that are not
// wildtype. Sites without coverage have frequency 0.
func MutFreq(sites []SiteCounts) []float64 {
	out := make([]float64, len(sites))

	for i, s := range sites {
		d := s.Depth()
		if d == 0 {
			continue
		}

		wt, _ := CodonIndex(s.Wildtype)
		out[i] = 1 - float64(s.Counts[wt])/float64(d)
	}

	return out
}

// MutTypes is the per-codon frequency of each kind of codon mutation.
type MutTypes struct {
	Synonymous    float64
	Nonsynonymous float64
	Stop          float64
}

// CodonMutTypes classifies every mutant codon by its effect on the protein
// and divides by the total depth.
func CodonMutTypes(sites []SiteCounts) MutTypes {
	var (
		syn, nonsyn, stop float64
		depth             int64
	)

	for _, s := range sites {
		depth += s.Depth()
		wtAA, _ := Translate(s.Wildtype)

		for i, n := range s.Counts {
			if n == 0 || Codons[i] == s.Wildtype {
				continue
			}

			aa, _ := Translate(Codons[i])

			switch {
			case aa == Stop:
				stop += float64(n)
			case aa == wtAA:
				syn += float64(n)
			default:
				nonsyn += float64(n)
			}
		}
	}

	if depth == 0 {
		return MutTypes{}
	}

	d := float64(depth)

	return MutTypes{Synonymous: syn / d, Nonsynonymous: nonsyn / d, Stop: stop / d}
}

// CodonNTChanges returns the per-codon frequency of mutant codons differing
// from wildtype at one, two and three nucleotides.
func CodonNTChanges(sites []SiteCounts) [3]float64 {
	var (
		out   [3]float64
		depth int64
	)

	for _, s := range sites {
		depth += s.Depth()

		for i, n := range s.Counts {
			if k := len(ntDiffs(Codons[i], s.Wildtype)); k > 0 {
				out[k-1] += float64(n)
			}
		}
	}

	if depth == 0 {
		return [3]float64{}
	}

	for i := range out {
		out[i] /= float64(depth)
	}

	return out
}

// Substitution is the frequency of one single nucleotide change.
type Substitution struct {
	From, To byte
	Freq     float64
}

// Name returns the change as "A>C".
func (s Substitution) Name() string {
	return fmt.Sprintf("%c>%c", s.From, s.To)
}

// SingleNTChanges returns the per-codon frequency of each of the twelve
// nucleotide substitutions, counted over mutant codons that differ from
// wildtype at exactly one position.
func SingleNTChanges(sites []SiteCounts) []Substitution {
	var (
		counts [4][4]float64
		depth  int64
	)

	for _, s := range sites {
		depth += s.Depth()

		for i, n := range s.Counts {
			diffs := ntDiffs(Codons[i], s.Wildtype)
			if len(diffs) != 1 || n == 0 {
				continue
			}

			p := diffs[0]
			counts[strings.IndexByte(Nucleotides, s.Wildtype[p])][strings.IndexByte(Nucleotides, Codons[i][p])] += float64(n)
		}
	}

	out := make([]Substitution, 0, 12)

	for f := range 4 {
		for t := range 4 {
			if f == t {
				continue
			}

			sub := Substitution{From: Nucleotides[f], To: Nucleotides[t]}
			if depth > 0 {
				sub.Freq = counts[f][t] / float64(depth)
			}

			out = append(out, sub)
		}
	}

	return out
}

// CumulativeMutCounts returns, for n = 1..maxN, the fraction of all possible
// codon mutations (63 per site) observed at least n times. maxN is capped at
// MaxCumulativeCount.
func CumulativeMutCounts(sites []SiteCounts, maxN int) []float64 {
	maxN = min(maxN, MaxCumulativeCount)
	if maxN < 1 || len(sites) == 0 {
		return nil
	}

	atLeast := make([]float64, maxN)

	for _, s := range sites {
		for i, n := range s.Counts {
			if Codons[i] == s.Wildtype {
				continue
			}

			for k := 1; k <= maxN && int64(k) <= n; k++ {
				atLeast[k-1]++
			}
		}
	}

	total := float64(len(sites) * mutantsPerSite)
	for i := range atLeast {
		atLeast[i] /= total
	}

	return atLeast
}
