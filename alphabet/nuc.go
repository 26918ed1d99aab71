// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package alphabet defines the nucleotide and amino-acid letters that the
// placement pipeline operates on.
//
// Letters are stored as their upper-case ASCII code so that sequences read
// from FASTA can be converted with a single table lookup per byte.
package alphabet

import (
	"fmt"
)

// Nuc is a nucleotide letter, encoded as an upper-case ASCII byte.
type Nuc byte

const (
	A   Nuc = 'A'
	C   Nuc = 'C'
	G   Nuc = 'G'
	T   Nuc = 'T'
	N   Nuc = 'N'
	Gap Nuc = '-'

	// IUPAC ambiguity codes.
	R Nuc = 'R'
	Y Nuc = 'Y'
	S Nuc = 'S'
	W Nuc = 'W'
	K Nuc = 'K'
	M Nuc = 'M'
	B Nuc = 'B'
	D Nuc = 'D'
	H Nuc = 'H'
	V Nuc = 'V'
)

const invalidNuc = Nuc(0)

var (
	asciiToNucMap [256]Nuc
	revCompMap    [256]Nuc
)

func init() {
	for _, n := range []Nuc{A, C, G, T, N, Gap, R, Y, S, W, K, M, B, D, H, V} {
		asciiToNucMap[n] = n
		asciiToNucMap[n|0x20] = n // lower case
	}
	asciiToNucMap['-'] = Gap
	asciiToNucMap['.'] = Gap
	asciiToNucMap['U'] = T
	asciiToNucMap['u'] = T

	for i := range revCompMap {
		revCompMap[i] = N
	}
	pairs := [][2]Nuc{{A, T}, {C, G}, {R, Y}, {K, M}, {B, V}, {D, H}, {S, S}, {W, W}, {N, N}, {Gap, Gap}}
	for _, p := range pairs {
		revCompMap[p[0]] = p[1]
		revCompMap[p[1]] = p[0]
	}
}

// IsGap reports whether n is the gap letter.
func (n Nuc) IsGap() bool { return n == Gap }

// IsACGT reports whether n is one of the four canonical bases.
func (n Nuc) IsACGT() bool { return n == A || n == C || n == G || n == T }

// IsACGTN reports whether n is a canonical base or N.
func (n Nuc) IsACGTN() bool { return n.IsACGT() || n == N }

// IsAmbiguous reports whether n is N or any other IUPAC ambiguity code.
func (n Nuc) IsAmbiguous() bool { return n != Gap && !n.IsACGT() }

func (n Nuc) String() string { return string(rune(n)) }

// ParseNuc converts a single ASCII character into a Nuc. Lower-case letters
// are accepted and 'U' is read as 'T'.
func ParseNuc(ch byte) (Nuc, error) {
	n := asciiToNucMap[ch]
	if n == invalidNuc {
		return invalidNuc, fmt.Errorf("invalid nucleotide letter %q", ch)
	}
	return n, nil
}

// ParseNucSeq converts an ASCII sequence into a []Nuc.
func ParseNucSeq(seq string) ([]Nuc, error) {
	out := make([]Nuc, len(seq))
	for i := 0; i < len(seq); i++ {
		n := asciiToNucMap[seq[i]]
		if n == invalidNuc {
			return nil, fmt.Errorf("invalid nucleotide letter %q at position %d", seq[i], i)
		}
		out[i] = n
	}
	return out, nil
}

// NucSeqString converts a []Nuc back into its ASCII representation.
func NucSeqString(seq []Nuc) string {
	b := make([]byte, len(seq))
	for i, n := range seq {
		b[i] = byte(n)
	}
	return string(b)
}

// ReverseComplement writes the reverse complement of src into a new slice.
// Letters without a complement map to N.
func ReverseComplement(src []Nuc) []Nuc {
	dst := make([]Nuc, len(src))
	for i, j := 0, len(src)-1; j >= 0; i, j = i+1, j-1 {
		dst[i] = revCompMap[src[j]]
	}
	return dst
}
