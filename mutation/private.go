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

// PrivateNuc holds the nucleotide mutations of a query that are not inherited
// from its nearest tree node.
type PrivateNuc struct {
	// Substitutions includes reversions of the node's own substitutions.
	Substitutions []NucSub
	Deletions     []NucDel
	// Reversions is the subset of Substitutions that revert a node mutation
	// back to the reference letter.
	Reversions []NucSub
}

// PrivateAa holds the amino-acid mutations of one gene that are not
// inherited from the nearest tree node.
type PrivateAa struct {
	Substitutions []AaSub
	Deletions     []AaDel
}

// AsSubs returns the substitutions followed by the deletions rendered as
// substitutions against the gap letter, sorted with LessNucSub.
func (p PrivateNuc) AsSubs() []NucSub {
	subs := make([]NucSub, 0, len(p.Substitutions)+len(p.Deletions))
	subs = append(subs, p.Substitutions...)
	for _, d := range p.Deletions {
		subs = append(subs, d.ToSub())
	}
	SortNucSubs(subs)
	return subs
}

// BranchStrings renders p the way it appears under the "nuc" key of a tree
// branch.
func (p PrivateNuc) BranchStrings() []string {
	subs := p.AsSubs()
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.String()
	}
	return out
}

// AsSubs returns the substitutions and the deletions rendered as
// substitutions, sorted.
func (p PrivateAa) AsSubs() []AaSub {
	subs := make([]AaSub, 0, len(p.Substitutions)+len(p.Deletions))
	subs = append(subs, p.Substitutions...)
	for _, d := range p.Deletions {
		subs = append(subs, d.ToSub())
	}
	SortAaSubs(subs)
	return subs
}

// BranchStrings renders p the way it appears under a gene key of a tree
// branch, without the gene prefix.
func (p PrivateAa) BranchStrings() []string {
	subs := p.AsSubs()
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.StringWithoutGene()
	}
	return out
}
