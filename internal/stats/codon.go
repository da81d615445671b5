// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package stats

import "strings"

// Nucleotides in the order codon columns are listed.
const Nucleotides = "ACGT"

// Stop is the amino acid code of a stop codon.
const Stop = '*'

// The standard genetic code, indexed 16i+4j+k over the bases TCAG.
const (
	codeBases = "TCAG"
	codeTable = "FFLLSSSSYY**CC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG"
)

// Codons lists all 64 codons in alphabetical order, AAA first.
var Codons = func() [64]string {
	var out [64]string

	i := 0

	for _, a := range Nucleotides {
		for _, b := range Nucleotides {
			for _, c := range Nucleotides {
				out[i] = string([]rune{a, b, c})
				i++
			}
		}
	}

	return out
}()

// CodonIndex returns the position of codon in Codons.
func CodonIndex(codon string) (int, bool) {
	if len(codon) != 3 {
		return 0, false
	}

	idx := 0

	for i := range 3 {
		n := strings.IndexByte(Nucleotides, codon[i])
		if n < 0 {
			return 0, false
		}

		idx = idx*4 + n
	}

	return idx, true
}

// Translate returns the one letter amino acid of codon, Stop for stop codons.
func Translate(codon string) (byte, bool) {
	if len(codon) != 3 {
		return 0, false
	}

	idx := 0

	for i := range 3 {
		n := strings.IndexByte(codeBases, codon[i])
		if n < 0 {
			return 0, false
		}

		idx = idx*4 + n
	}

	return codeTable[idx], true
}

// ntDiffs returns the positions at which two codons differ.
func ntDiffs(a, b string) []int {
	var out []int

	for i := range 3 {
		if a[i] != b[i] {
			out = append(out, i)
		}
	}

	return out
}
