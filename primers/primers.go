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

// Package primers detects query substitutions that fall inside PCR primer
// binding sites.
package primers

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/phyloplace/mutation"
)

// Primer is a primer binding site on the reference.
type Primer struct {
	Name string
	mutation.Range
}

// Change lists the substitutions found in one primer.
type Change struct {
	Primer        Primer
	Substitutions []mutation.NucSub
}

func (c Change) String() string {
	parts := make([]string, len(c.Substitutions))
	for i, s := range c.Substitutions {
		parts[i] = s.String()
	}
	return c.Primer.Name + ":" + strings.Join(parts, ";")
}

// row is one line of a primer TSV file. Begin is 1-based and End inclusive.
type row struct {
	Name  string `tsv:"name"`
	Begin int    `tsv:"begin"`
	End   int    `tsv:"end"`
}

// Read parses a primer TSV file with a "name", "begin" and "end" header.
// Coordinates are 1-based and inclusive. Primers are returned sorted by
// begin position.
func Read(r io.Reader) ([]Primer, error) {
	tr := tsv.NewReader(r)
	tr.HasHeaderRow = true
	tr.Comment = '#'
	var out []Primer
	for line := 1; ; line++ {
		var p row
		if err := tr.Read(&p); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, err, "reading primers")
		}
		if p.Begin < 1 || p.End < p.Begin {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("primer %q (record %d): invalid range %d-%d", p.Name, line, p.Begin, p.End))
		}
		out = append(out, Primer{Name: p.Name, Range: mutation.Range{Begin: p.Begin - 1, End: p.End}})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Begin < out[j].Begin })
	return out, nil
}

// ReadPath reads a primer TSV file from path.
func ReadPath(ctx context.Context, path string) (primers []Primer, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Read(f.Reader(ctx))
}

// FindChanges returns, for every primer overlapped by at least one
// substitution, the substitutions inside it. Ambiguous query letters are not
// reported.
func FindChanges(primers []Primer, subs []mutation.NucSub) []Change {
	var out []Change
	for _, p := range primers {
		var c []mutation.NucSub
		for _, s := range subs {
			if p.Contains(s.Pos) && s.Qry.IsACGT() {
				c = append(c, s)
			}
		}
		if len(c) > 0 {
			out = append(out, Change{Primer: p, Substitutions: c})
		}
	}
	return out
}

// Total returns the number of substitutions across changes.
func Total(changes []Change) int {
	n := 0
	for _, c := range changes {
		n += len(c.Substitutions)
	}
	return n
}

// Format joins the textual forms of changes with sep.
func Format(changes []Change, sep string) string {
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = c.String()
	}
	return strings.Join(parts, sep)
}
