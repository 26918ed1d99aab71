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

package seed

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/phyloplace/alphabet"
	"gonum.org/v1/gonum/stat"
)

// Opts controls multi-seed anchoring of a query.
type Opts struct {
	// KmerLength is the length of each seed.
	KmerLength int
	// SeedSpacing is the target distance between consecutive seeds on the
	// query.
	SeedSpacing int
	// MinSeeds is the minimum number of seeds that must match for the anchor
	// to be accepted. It is also the minimum number of seeds tried.
	MinSeeds int
	// MismatchesAllowed is the mismatch budget of each seed. A seed matches if
	// its score is at least KmerLength-MismatchesAllowed.
	MismatchesAllowed int
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	KmerLength:        21,
	SeedSpacing:       100,
	MinSeeds:          10,
	MismatchesAllowed: 3,
}

// Hit is one accepted seed: the k-mer at QryPos matched the reference at
// RefPos.
type Hit struct {
	QryPos, RefPos int
	Score          int
}

// Anchor is the result of anchoring a query against a reference.
type Anchor struct {
	// Shift is the offset that maps query coordinates to reference coordinates:
	// refPos = qryPos + Shift.
	Shift int
	Hits  []Hit
	// Tried is the number of seeds that were matched against the reference.
	Tried int
}

// seedPositions returns up to n evenly spaced k-mer start positions on a query
// of length qryLen.
func seedPositions(qryLen, kmerLen, n int) []int {
	last := qryLen - kmerLen
	if last < 0 {
		return nil
	}
	if n > last+1 {
		n = last + 1
	}
	if n <= 1 {
		return []int{0}
	}
	pos := make([]int, n)
	for i := range pos {
		pos[i] = i * last / (n - 1)
	}
	return pos
}

func isUnambiguous(kmer []alphabet.Nuc) bool {
	for _, n := range kmer {
		if !n.IsACGT() {
			return false
		}
	}
	return true
}

// FindAnchor places qry on ref by matching evenly spaced seeds with Match.
// Seeds are chained left to right: each seed is searched at or after the
// reference position of the previously accepted one. Seeds containing gaps or
// ambiguous letters are skipped. The returned shift is the median offset of
// the accepted seeds.
//
// An error of kind errors.NotExist is returned when fewer than opts.MinSeeds
// seeds match; the caller may retry with the reverse complement.
func FindAnchor(qry, ref []alphabet.Nuc, opts Opts) (Anchor, error) {
	k := opts.KmerLength
	if k <= 0 {
		return Anchor{}, errors.E(errors.Invalid, fmt.Sprintf("seed length must be positive, got %d", k))
	}
	if len(qry) < k || len(ref) <= k {
		return Anchor{}, errors.E(errors.NotExist,
			fmt.Sprintf("sequence too short for seeding: query %d, reference %d, seed %d", len(qry), len(ref), k))
	}
	nSeeds := len(qry) / max(opts.SeedSpacing, 1)
	if nSeeds < opts.MinSeeds {
		nSeeds = opts.MinSeeds
	}

	var (
		a        Anchor
		startPos int
		minScore = k - opts.MismatchesAllowed
	)
	for _, qryPos := range seedPositions(len(qry), k, nSeeds) {
		kmer := qry[qryPos : qryPos+k]
		if !isUnambiguous(kmer) {
			continue
		}
		a.Tried++
		m := Match(kmer, ref, startPos, opts.MismatchesAllowed)
		if m.Score < minScore {
			continue
		}
		a.Hits = append(a.Hits, Hit{QryPos: qryPos, RefPos: m.Shift, Score: m.Score})
		startPos = m.Shift
	}
	if len(a.Hits) == 0 || len(a.Hits) < opts.MinSeeds {
		return a, errors.E(errors.NotExist,
			fmt.Sprintf("seed matching failed: %d of %d seeds matched, %d required", len(a.Hits), a.Tried, opts.MinSeeds))
	}

	shifts := make([]float64, len(a.Hits))
	for i, h := range a.Hits {
		shifts[i] = float64(h.RefPos - h.QryPos)
	}
	sort.Float64s(shifts)
	a.Shift = int(stat.Quantile(0.5, stat.Empirical, shifts, nil))
	if log.At(log.Debug) {
		log.Debug.Printf("anchor: shift %d from %d/%d seeds", a.Shift, len(a.Hits), a.Tried)
	}
	return a, nil
}
