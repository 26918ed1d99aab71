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

// Package align places a query sequence on the reference without gaps, using
// the seed anchor as the offset, and calls nucleotide changes against the
// reference.
package align

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/phyloplace/alphabet"
	"github.com/grailbio/phyloplace/mutation"
	"github.com/grailbio/phyloplace/seed"
)

// Opts controls alignment.
type Opts struct {
	Seed seed.Opts
	// RetryReverseComplement retries seeding on the reverse complement of a
	// query that fails to seed.
	RetryReverseComplement bool
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	Seed:                   seed.DefaultOpts,
	RetryReverseComplement: true,
}

// Alignment is a query laid out in reference coordinates.
type Alignment struct {
	// Query has the length of the reference. Positions not covered by the
	// query hold alphabet.Gap.
	Query []alphabet.Nuc
	// Range is the span from the first to the last non-gap query letter.
	Range mutation.Range
	// Score is the number of positions in Range where query and reference
	// agree.
	Score int
	Shift int
	// IsReverseComplement is set when the query aligned only after reverse
	// complementing it.
	IsReverseComplement bool
}

// Align anchors qry on ref and lays it out in reference coordinates. Query
// letters that fall outside the reference are dropped.
func Align(qry, ref []alphabet.Nuc, opts Opts) (Alignment, error) {
	anchor, err := seed.FindAnchor(qry, ref, opts.Seed)
	rc := false
	if err != nil && errors.Is(errors.NotExist, err) && opts.RetryReverseComplement {
		rcQry := alphabet.ReverseComplement(qry)
		var rcErr error
		if anchor, rcErr = seed.FindAnchor(rcQry, ref, opts.Seed); rcErr == nil {
			log.Debug.Printf("align: query seeded on the reverse strand")
			qry, rc, err = rcQry, true, nil
		}
	}
	if err != nil {
		return Alignment{}, errors.E(err, "unable to align")
	}

	a := Alignment{Query: make([]alphabet.Nuc, len(ref)), Shift: anchor.Shift, IsReverseComplement: rc}
	for i := range a.Query {
		a.Query[i] = alphabet.Gap
	}
	begin, end := -1, -1
	for i, l := range qry {
		r := i + anchor.Shift
		if r < 0 || r >= len(ref) {
			continue
		}
		a.Query[r] = l
		if l.IsGap() {
			continue
		}
		if begin < 0 {
			begin = r
		}
		end = r + 1
	}
	if begin < 0 {
		return Alignment{}, errors.E(errors.NotExist, fmt.Sprintf("unable to align: query does not overlap the reference at shift %d", anchor.Shift))
	}
	a.Range = mutation.Range{Begin: begin, End: end}
	for r := begin; r < end; r++ {
		if a.Query[r] == ref[r] {
			a.Score++
		}
	}
	return a, nil
}

// Changes are the differences between an aligned query and the reference.
type Changes struct {
	Substitutions []mutation.NucSub
	Deletions     []mutation.NucDel
	// Missing are runs of N.
	Missing []mutation.LetterRange
	// NonACGTNs are runs of ambiguity codes other than N.
	NonACGTNs      []mutation.LetterRange
	AlignmentRange mutation.Range
}

// TotalMissing returns the number of N positions.
func (c Changes) TotalMissing() int {
	n := 0
	for _, r := range c.Missing {
		n += r.Len()
	}
	return n
}

// FindChanges calls changes of a inside its alignment range. A gap is a
// deletion, N is missing, and every other letter differing from the
// reference is a substitution. Ambiguous letters are reported both as
// substitutions and as non-ACGTN ranges.
func FindChanges(a Alignment, ref []alphabet.Nuc) Changes {
	c := Changes{AlignmentRange: a.Range}
	for pos := a.Range.Begin; pos < a.Range.End; pos++ {
		q := a.Query[pos]
		switch {
		case q == ref[pos], q == alphabet.N:
		case q.IsGap():
			c.Deletions = append(c.Deletions, mutation.NucDel{Pos: pos, Ref: ref[pos]})
		default:
			c.Substitutions = append(c.Substitutions, mutation.NucSub{Pos: pos, Ref: ref[pos], Qry: q})
		}
	}
	c.Missing = mutation.FindLetterRanges(a.Query, a.Range.Begin, a.Range.End,
		func(n alphabet.Nuc) bool { return n == alphabet.N })
	c.NonACGTNs = mutation.FindLetterRanges(a.Query, a.Range.Begin, a.Range.End,
		func(n alphabet.Nuc) bool { return !n.IsACGTN() && !n.IsGap() })
	return c
}
