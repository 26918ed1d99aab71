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

package placement

import (
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/phyloplace/alphabet"
	"github.com/grailbio/phyloplace/mutation"
	"github.com/grailbio/phyloplace/primers"
	"github.com/grailbio/phyloplace/tree"
)

// Query is the per-sequence input of placement, as produced by alignment and
// change calling.
type Query struct {
	Index   int
	SeqName string

	Substitutions  []mutation.NucSub
	Deletions      []mutation.NucDel
	Missing        []mutation.LetterRange
	NonACGTNs      []mutation.LetterRange
	AlignmentRange mutation.Range
	AlignmentScore int

	// PrivateAa holds per-gene amino-acid changes relative to the nearest
	// node, supplied by translation. May be nil.
	PrivateAa        map[string]mutation.PrivateAa
	MissingGenes     []string
	PCRPrimerChanges []primers.Change
	QCStatus         string
}

// Candidate is a tree node scored against a query.
type Candidate struct {
	Key      tree.Key
	ID       int
	Name     string
	Distance int
}

// Evaluator ranks reference nodes against a query.
type Evaluator interface {
	// NearestNodes returns a non-empty list of candidates sorted by
	// ascending distance.
	NearestNodes(q Query) ([]Candidate, error)
}

// MutationDistanceEvaluator scores a node by the number of sites at which the
// query and the node genotype differ.
//
// Only sites inside the query alignment range and outside its missing ranges
// are compared. Sites where the query carries an ambiguous letter are not
// counted. Equal distances are ordered by preorder position.
type MutationDistanceEvaluator struct {
	g *Genotypes
}

// NewMutationDistanceEvaluator returns an evaluator over the reference nodes
// of g.
func NewMutationDistanceEvaluator(g *Genotypes) *MutationDistanceEvaluator {
	return &MutationDistanceEvaluator{g: g}
}

// queryGenotype is the query state at its non-reference sites.
func queryGenotype(q Query) Genotype {
	gt := make(Genotype, len(q.Substitutions)+len(q.Deletions))
	for _, s := range q.Substitutions {
		gt[s.Pos] = s.Qry
	}
	for _, d := range q.Deletions {
		gt[d.Pos] = alphabet.Gap
	}
	return gt
}

// inScope reports whether site pos takes part in distances and private
// mutations of q.
func inScope(q Query, pos int) bool {
	if !q.AlignmentRange.Contains(pos) {
		return false
	}
	for _, r := range q.Missing {
		if r.Contains(pos) {
			return false
		}
	}
	return true
}

func distance(q Query, qgt, ngt Genotype, ref []alphabet.Nuc) int {
	d := 0
	for pos, ql := range qgt {
		if ql.IsAmbiguous() || !inScope(q, pos) {
			continue
		}
		if ql != ngt.Letter(pos, ref) {
			d++
		}
	}
	for pos := range ngt {
		if _, ok := qgt[pos]; ok || !inScope(q, pos) {
			continue
		}
		// The query carries the reference letter here.
		d++
	}
	return d
}

// NearestNodes implements Evaluator.
func (e *MutationDistanceEvaluator) NearestNodes(q Query) ([]Candidate, error) {
	if len(e.g.nodes) == 0 {
		return nil, errors.E(errors.Invalid, "tree has no reference nodes")
	}
	if q.AlignmentRange.End > len(e.g.ref) {
		return nil, errors.E(errors.Invalid, "alignment range exceeds the reference")
	}
	qgt := queryGenotype(q)
	cands := make([]Candidate, len(e.g.nodes))
	for i, n := range e.g.nodes {
		cands[i] = Candidate{
			Key:      n.Key,
			ID:       n.ID,
			Name:     n.Name,
			Distance: distance(q, qgt, e.g.byKey[n.Key], e.g.ref),
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Distance < cands[j].Distance })
	return cands, nil
}
