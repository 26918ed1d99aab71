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

// Package results writes placement results as a tab-separated table, one row
// per query in input order.
package results

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/phyloplace/mutation"
	"github.com/grailbio/phyloplace/placement"
	"github.com/grailbio/phyloplace/primers"
	"github.com/pkg/errors"
)

// Row is one line of the results table. List columns are comma-separated.
type Row struct {
	Index                 int64  `tsv:"index"`
	SeqName               string `tsv:"seqName"`
	Clade                 string `tsv:"clade"`
	NearestNodeID         string `tsv:"nearestNodeId"`
	NearestNodes          string `tsv:"nearestNodes"`
	Distance              string `tsv:"distance"`
	Divergence            string `tsv:"divergence"`
	AlignmentStart        string `tsv:"alignmentStart"`
	AlignmentEnd          string `tsv:"alignmentEnd"`
	AlignmentScore        string `tsv:"alignmentScore"`
	PrivateSubstitutions  string `tsv:"privateNucMutations.substitutions"`
	PrivateDeletions      string `tsv:"privateNucMutations.deletions"`
	PrivateReversions     string `tsv:"privateNucMutations.reversions"`
	PrivateAaMutations    string `tsv:"privateAaMutations"`
	TotalMissing          int64  `tsv:"totalMissing"`
	Missing               string `tsv:"missing"`
	NonACGTNs             string `tsv:"nonACGTNs"`
	TotalPcrPrimerChanges int64  `tsv:"totalPcrPrimerChanges"`
	PcrPrimerChanges      string `tsv:"pcrPrimerChanges"`
	MissingGenes          string `tsv:"missingGenes"`
	QCStatus              string `tsv:"qc.overallStatus"`
	Errors                string `tsv:"errors"`
}

func subStrings(subs []mutation.NucSub) string {
	parts := make([]string, len(subs))
	for i, s := range subs {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// FromResult returns the row of a placed query.
func FromResult(r placement.Result) Row {
	dels := make([]mutation.NucSub, len(r.PrivateNuc.Deletions))
	for i, d := range r.PrivateNuc.Deletions {
		dels[i] = d.ToSub()
	}
	var missing []mutation.Range
	for _, m := range r.Missing {
		missing = append(missing, m.Range)
	}
	genes := make([]string, 0, len(r.PrivateAa))
	for g := range r.PrivateAa {
		genes = append(genes, g)
	}
	sort.Strings(genes)
	var aa []string
	for _, g := range genes {
		for _, s := range r.PrivateAa[g].AsSubs() {
			aa = append(aa, s.String())
		}
	}
	return Row{
		Index:                 int64(r.Index),
		SeqName:               r.SeqName,
		Clade:                 r.Clade,
		NearestNodeID:         strconv.Itoa(r.NearestNodeID),
		NearestNodes:          strings.Join(r.NearestNodes, ","),
		Distance:              strconv.Itoa(r.Distance),
		Divergence:            strconv.FormatFloat(r.Divergence, 'g', -1, 64),
		AlignmentStart:        strconv.Itoa(r.AlignmentRange.Begin + 1),
		AlignmentEnd:          strconv.Itoa(r.AlignmentRange.End),
		AlignmentScore:        strconv.Itoa(r.AlignmentScore),
		PrivateSubstitutions:  subStrings(r.PrivateNuc.Substitutions),
		PrivateDeletions:      mutation.FormatRanges(mutation.DeletionRanges(r.PrivateNuc.Deletions), ","),
		PrivateReversions:     subStrings(r.PrivateNuc.Reversions),
		PrivateAaMutations:    strings.Join(aa, ","),
		TotalMissing:          int64(mutation.TotalLen(missing)),
		Missing:               mutation.FormatRanges(missing, ","),
		NonACGTNs:             mutation.FormatLetterRanges(r.NonACGTNs, ","),
		TotalPcrPrimerChanges: int64(primers.Total(r.PCRPrimerChanges)),
		PcrPrimerChanges:      primers.Format(r.PCRPrimerChanges, ","),
		MissingGenes:          strings.Join(r.MissingGenes, ","),
		QCStatus:              r.QCStatus,
	}
}

// FromError returns the row of a query that could not be placed.
func FromError(index int, seqName string, err error) Row {
	return Row{Index: int64(index), SeqName: seqName, Errors: err.Error()}
}

// Write writes rows to w sorted by query index, preceded by a header line.
func Write(w io.Writer, rows []Row) error {
	sorted := append([]Row(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	tw := tsv.NewRowWriter(w)
	for i := range sorted {
		if err := tw.Write(&sorted[i]); err != nil {
			return errors.Wrapf(err, "results: write %s", sorted[i].SeqName)
		}
	}
	return errors.Wrap(tw.Flush(), "results: flush")
}

// Read reads a table written by Write.
func Read(r io.Reader) ([]Row, error) {
	tr := tsv.NewReader(r)
	tr.HasHeaderRow = true
	tr.UseHeaderNames = true
	var rows []Row
	for {
		var row Row
		if err := tr.Read(&row); err != nil {
			if err == io.EOF {
				return rows, nil
			}
			return nil, errors.Wrap(err, "results: read")
		}
		rows = append(rows, row)
	}
}
