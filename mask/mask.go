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

// Package mask holds the placement mask: reference ranges whose substitutions
// are ignored when computing branch lengths of newly attached nodes.
package mask

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/phyloplace/mutation"
)

type entry struct {
	mutation.Range
}

// Compare compares two entries by start position for use in llrb.
func (e entry) Compare(c llrb.Comparable) int {
	return e.Begin - c.(entry).Begin
}

// Mask is an immutable union of half-open reference ranges. The zero value
// and nil are empty masks. Safe for concurrent reads.
type Mask struct {
	byBegin llrb.Tree
	ranges  []mutation.Range
}

// New returns the union of ranges. Empty ranges are dropped, and overlapping
// or abutting ranges are merged.
func New(ranges []mutation.Range) *Mask {
	sorted := make([]mutation.Range, 0, len(ranges))
	for _, r := range ranges {
		if r.End > r.Begin {
			sorted = append(sorted, r)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Begin < sorted[j].Begin })
	m := &Mask{}
	for _, r := range sorted {
		if n := len(m.ranges); n > 0 && r.Begin <= m.ranges[n-1].End {
			if r.End > m.ranges[n-1].End {
				m.ranges[n-1].End = r.End
			}
			continue
		}
		m.ranges = append(m.ranges, r)
	}
	for _, r := range m.ranges {
		m.byBegin.Insert(entry{r})
	}
	return m
}

// Contains reports whether pos is masked.
func (m *Mask) Contains(pos int) bool {
	if m == nil || m.byBegin.Len() == 0 {
		return false
	}
	c := m.byBegin.Floor(entry{mutation.Range{Begin: pos, End: pos}})
	if c == nil {
		return false
	}
	return c.(entry).Contains(pos)
}

// Ranges returns the merged ranges in increasing order. The caller must not
// modify the result.
func (m *Mask) Ranges() []mutation.Range {
	if m == nil {
		return nil
	}
	return m.ranges
}

// Len returns the number of masked positions.
func (m *Mask) Len() int {
	return mutation.TotalLen(m.Ranges())
}

func (m *Mask) String() string {
	return mutation.FormatRanges(m.Ranges(), ",")
}

// getTokens splits up to len(tokens) whitespace-delimited fields from line,
// returning the number found.
func getTokens(tokens [][]byte, line []byte) int {
	end := 0
	for i := range tokens {
		pos := end
		for pos < len(line) && line[pos] <= ' ' {
			pos++
		}
		if pos == len(line) {
			return i
		}
		end = pos
		for end < len(line) && line[end] > ' ' {
			end++
		}
		tokens[i] = line[pos:end]
	}
	return len(tokens)
}

// ReadBED parses a BED file with 0-based half-open coordinates. The chromosome
// column is ignored since the reference is a single sequence. Comment, "track"
// and "browser" lines are skipped.
func ReadBED(r io.Reader) (*Mask, error) {
	scanner := bufio.NewScanner(r)
	var (
		ranges []mutation.Range
		tokens = make([][]byte, 3)
		lineNo int
	)
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		n := getTokens(tokens, line)
		if n == 0 || tokens[0][0] == '#' || string(tokens[0]) == "track" || string(tokens[0]) == "browser" {
			continue
		}
		if n < 3 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("mask: line %d: expected at least 3 columns", lineNo))
		}
		begin, err := strconv.Atoi(string(tokens[1]))
		if err != nil {
			return nil, errors.E(errors.Invalid, err, fmt.Sprintf("mask: line %d", lineNo))
		}
		end, err := strconv.Atoi(string(tokens[2]))
		if err != nil {
			return nil, errors.E(errors.Invalid, err, fmt.Sprintf("mask: line %d", lineNo))
		}
		if begin < 0 || end < begin {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("mask: line %d: invalid interval [%d, %d)", lineNo, begin, end))
		}
		ranges = append(ranges, mutation.Range{Begin: begin, End: end})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return New(ranges), nil
}

// ReadBEDPath reads a possibly compressed BED file from path.
func ReadBEDPath(ctx context.Context, path string) (m *Mask, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	var r io.Reader = f.Reader(ctx)
	if u, _ := compress.NewReaderPath(r, f.Name()); u != nil {
		r = u
	}
	return ReadBED(r)
}
