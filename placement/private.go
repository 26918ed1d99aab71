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

	"github.com/grailbio/phyloplace/alphabet"
	"github.com/grailbio/phyloplace/mutation"
)

// FindPrivateNucMutations returns the mutations of q relative to the node
// genotype node.
//
// A query substitution is private unless the node carries the same letter.
// Its Ref is the node letter. Where the node carries a mutation but the query
// has the reference letter, a reversion back to the reference is reported.
// Deletions are private unless the node is deleted at the same site. Sites
// outside the alignment range, in missing ranges or with ambiguous query
// letters are ignored.
func FindPrivateNucMutations(node Genotype, q Query, ref []alphabet.Nuc) mutation.PrivateNuc {
	var p mutation.PrivateNuc
	qgt := queryGenotype(q)
	for _, s := range q.Substitutions {
		if !s.Qry.IsACGT() || !inScope(q, s.Pos) {
			continue
		}
		nl := node.Letter(s.Pos, ref)
		if nl == s.Qry {
			continue
		}
		p.Substitutions = append(p.Substitutions, mutation.NucSub{Pos: s.Pos, Ref: nl, Qry: s.Qry})
	}
	for _, d := range q.Deletions {
		if !inScope(q, d.Pos) {
			continue
		}
		nl := node.Letter(d.Pos, ref)
		if nl.IsGap() {
			continue
		}
		p.Deletions = append(p.Deletions, mutation.NucDel{Pos: d.Pos, Ref: nl})
	}
	for pos, nl := range node {
		if _, ok := qgt[pos]; ok || !inScope(q, pos) {
			continue
		}
		rev := mutation.NucSub{Pos: pos, Ref: nl, Qry: ref[pos]}
		p.Substitutions = append(p.Substitutions, rev)
		p.Reversions = append(p.Reversions, rev)
	}
	mutation.SortNucSubs(p.Substitutions)
	mutation.SortNucSubs(p.Reversions)
	sort.Slice(p.Deletions, func(i, j int) bool { return p.Deletions[i].Pos < p.Deletions[j].Pos })
	return p
}
