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

package mutation

import (
	"strconv"
	"strings"

	"github.com/grailbio/phyloplace/alphabet"
)

// Range is a half-open interval [Begin, End) of reference positions.
type Range struct {
	Begin, End int
}

// Len returns the number of positions in r.
func (r Range) Len() int { return r.End - r.Begin }

// Contains reports whether pos lies in r.
func (r Range) Contains(pos int) bool { return pos >= r.Begin && pos < r.End }

// String returns the 1-based closed form, "12-20", or "12" for a single
// position.
func (r Range) String() string {
	if r.Len() == 1 {
		return strconv.Itoa(r.Begin + 1)
	}
	return strconv.Itoa(r.Begin+1) + "-" + strconv.Itoa(r.End)
}

// LetterRange is a run of one letter, e.g. a stretch of N or of an ambiguity
// code.
type LetterRange struct {
	Range
	Letter alphabet.Nuc
}

func (r LetterRange) String() string {
	return r.Letter.String() + ":" + r.Range.String()
}

// ContainsAny reports whether pos lies in any of ranges.
func ContainsAny(ranges []Range, pos int) bool {
	for _, r := range ranges {
		if r.Contains(pos) {
			return true
		}
	}
	return false
}

// TotalLen returns the summed length of ranges.
func TotalLen(ranges []Range) int {
	n := 0
	for _, r := range ranges {
		n += r.Len()
	}
	return n
}

// FindLetterRanges returns maximal runs of positions in seq[begin:end] for
// which match returns true.  Reported coordinates are indices into seq.
func FindLetterRanges(seq []alphabet.Nuc, begin, end int, match func(alphabet.Nuc) bool) []LetterRange {
	var out []LetterRange
	for i := begin; i < end; {
		if !match(seq[i]) {
			i++
			continue
		}
		j := i + 1
		for j < end && seq[j] == seq[i] {
			j++
		}
		out = append(out, LetterRange{Range: Range{i, j}, Letter: seq[i]})
		i = j
	}
	return out
}

// DeletionRanges groups single-position deletions into maximal runs. dels
// must be sorted by position.
func DeletionRanges(dels []NucDel) []Range {
	var out []Range
	for _, d := range dels {
		if n := len(out); n > 0 && out[n-1].End == d.Pos {
			out[n-1].End++
			continue
		}
		out = append(out, Range{d.Pos, d.Pos + 1})
	}
	return out
}

// FormatRanges joins the textual forms of ranges with sep.
func FormatRanges(ranges []Range, sep string) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, sep)
}

// FormatLetterRanges joins the textual forms of ranges with sep.
func FormatLetterRanges(ranges []LetterRange, sep string) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, sep)
}
