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

// Package mutation defines nucleotide and amino-acid changes relative to the
// reference sequence, and their textual forms as they appear on tree
// branches, e.g. "A123T" or "S:N501Y".
//
// Positions are 0-based in memory and 1-based in text.
package mutation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/phyloplace/alphabet"
)

// NucSub is a nucleotide substitution. A deletion rendered as a substitution
// has Qry == alphabet.Gap.
type NucSub struct {
	Pos int
	Ref alphabet.Nuc
	Qry alphabet.Nuc
}

// IsDel reports whether s is a deletion rendered as a substitution.
func (s NucSub) IsDel() bool { return s.Qry.IsGap() }

func (s NucSub) String() string {
	return fmt.Sprintf("%c%d%c", s.Ref, s.Pos+1, s.Qry)
}

// NucDel is a single deleted reference position.
type NucDel struct {
	Pos int
	Ref alphabet.Nuc
}

// ToSub renders the deletion as a substitution against the gap letter.
func (d NucDel) ToSub() NucSub {
	return NucSub{Pos: d.Pos, Ref: d.Ref, Qry: alphabet.Gap}
}

// AaSub is an amino-acid substitution in a named gene (CDS).
type AaSub struct {
	Gene string
	Pos  int
	Ref  alphabet.Aa
	Qry  alphabet.Aa
}

// StringWithoutGene returns the "N501Y" form used on gene-keyed branch
// mutation lists.
func (s AaSub) StringWithoutGene() string {
	return fmt.Sprintf("%c%d%c", s.Ref, s.Pos+1, s.Qry)
}

func (s AaSub) String() string {
	return s.Gene + ":" + s.StringWithoutGene()
}

// AaDel is a single deleted codon.
type AaDel struct {
	Gene string
	Pos  int
	Ref  alphabet.Aa
}

// ToSub renders the deletion as a substitution against the gap letter.
func (d AaDel) ToSub() AaSub {
	return AaSub{Gene: d.Gene, Pos: d.Pos, Ref: d.Ref, Qry: alphabet.AaGap}
}

// LessNucSub orders substitutions by position, then reference letter, then
// query letter.
func LessNucSub(a, b NucSub) bool {
	if a.Pos != b.Pos {
		return a.Pos < b.Pos
	}
	if a.Ref != b.Ref {
		return a.Ref < b.Ref
	}
	return a.Qry < b.Qry
}

// SortNucSubs sorts subs in place with LessNucSub.
func SortNucSubs(subs []NucSub) {
	sort.Slice(subs, func(i, j int) bool { return LessNucSub(subs[i], subs[j]) })
}

// SortAaSubs sorts subs in place by gene, position, reference and query
// letter.
func SortAaSubs(subs []AaSub) {
	sort.Slice(subs, func(i, j int) bool {
		a, b := subs[i], subs[j]
		if a.Gene != b.Gene {
			return a.Gene < b.Gene
		}
		if a.Pos != b.Pos {
			return a.Pos < b.Pos
		}
		if a.Ref != b.Ref {
			return a.Ref < b.Ref
		}
		return a.Qry < b.Qry
	})
}

var (
	nucSubRegexp = regexp.MustCompile(`^([A-Z-])(\d{1,10})([A-Z-])$`)
	aaSubRegexp  = regexp.MustCompile(`^(?:([A-Za-z0-9_.-]+):)?([A-Z*-])(\d{1,10})([A-Z*-])$`)
)

// ParseNucSub parses the "A123T" form.
func ParseNucSub(s string) (NucSub, error) {
	m := nucSubRegexp.FindStringSubmatch(s)
	if m == nil {
		return NucSub{}, errors.E(errors.Invalid, fmt.Sprintf("unable to parse nucleotide substitution %q", s))
	}
	ref, err := alphabet.ParseNuc(m[1][0])
	if err != nil {
		return NucSub{}, errors.E(errors.Invalid, err, s)
	}
	qry, err := alphabet.ParseNuc(m[3][0])
	if err != nil {
		return NucSub{}, errors.E(errors.Invalid, err, s)
	}
	pos, err := strconv.Atoi(m[2])
	if err != nil || pos < 1 {
		return NucSub{}, errors.E(errors.Invalid, fmt.Sprintf("invalid position in %q", s))
	}
	return NucSub{Pos: pos - 1, Ref: ref, Qry: qry}, nil
}

// ParseAaSub parses either "S:N501Y" or, when gene is non-empty, "N501Y".
func ParseAaSub(gene, s string) (AaSub, error) {
	m := aaSubRegexp.FindStringSubmatch(s)
	if m == nil {
		return AaSub{}, errors.E(errors.Invalid, fmt.Sprintf("unable to parse amino acid substitution %q", s))
	}
	if m[1] != "" {
		gene = m[1]
	}
	if gene == "" {
		return AaSub{}, errors.E(errors.Invalid, fmt.Sprintf("amino acid substitution %q has no gene", s))
	}
	ref, err := alphabet.ParseAa(m[2][0])
	if err != nil {
		return AaSub{}, errors.E(errors.Invalid, err, s)
	}
	qry, err := alphabet.ParseAa(m[4][0])
	if err != nil {
		return AaSub{}, errors.E(errors.Invalid, err, s)
	}
	pos, err := strconv.Atoi(m[3])
	if err != nil || pos < 1 {
		return AaSub{}, errors.E(errors.Invalid, fmt.Sprintf("invalid position in %q", s))
	}
	return AaSub{Gene: gene, Pos: pos - 1, Ref: ref, Qry: qry}, nil
}
