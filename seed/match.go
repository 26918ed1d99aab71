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

// Package seed localizes query k-mers inside a reference sequence. Matching is
// approximate and greedy: it is meant to find an anchor quickly, not to find
// the optimal placement of every k-mer.
package seed

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/phyloplace/alphabet"
)

// Result is the outcome of a single seed match.  Score is the number of
// matching letters at offset Shift of the reference.
type Result struct {
	Shift int
	Score int
}

// Match finds the best-scoring offset of kmer in ref at or after startPos,
// tolerating up to mismatchesAllowed mismatches before a candidate offset is
// abandoned.
//
// Offsets in [startPos, len(ref)-len(kmer)) are scanned; the final window is
// never evaluated.  A candidate replaces the current best only if its score is
// strictly higher, and the scan stops at the first perfect match.  If nothing
// scores above zero, Match returns {0, 0} regardless of startPos, so callers
// must compare Score against their own acceptance threshold.
//
// It panics if ref is shorter than kmer or startPos is out of range.
func Match(kmer, ref []alphabet.Nuc, startPos, mismatchesAllowed int) Result {
	refLen, kmerLen := len(ref), len(kmer)
	if refLen < kmerLen {
		panic(errors.E(errors.Precondition,
			fmt.Sprintf("seed.Match: reference length %d is shorter than k-mer length %d", refLen, kmerLen)))
	}
	endPos := refLen - kmerLen
	if startPos < 0 || startPos > endPos {
		panic(errors.E(errors.Precondition,
			fmt.Sprintf("seed.Match: start position %d outside [0, %d]", startPos, endPos)))
	}

	var maxScore, maxShift int
	for shift := startPos; shift < endPos; shift++ {
		score := 0
		for pos := 0; pos < kmerLen; pos++ {
			if kmer[pos] == ref[shift+pos] {
				score++
			}
			// More than mismatchesAllowed mismatches in the pos+1 letters seen so
			// far; this offset can't become useful.
			if score+mismatchesAllowed < pos+1 {
				break
			}
		}
		if score > maxScore {
			maxScore = score
			maxShift = shift
			if score == kmerLen {
				break
			}
		}
	}
	return Result{Shift: maxShift, Score: maxScore}
}
