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

// Package attach grafts placed queries onto the reference tree.
//
// Attachment is a single pass over the tree, run once all placements are
// known. Results are grouped by target node first; a target receiving one
// result gets a new leaf, a target receiving several gets the subtree built by
// the cluster package. Only reference nodes receive attachments, and the pass
// does not descend below non-reference nodes.
package attach

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/phyloplace/cluster"
	"github.com/grailbio/phyloplace/mutation"
	"github.com/grailbio/phyloplace/placement"
	"github.com/grailbio/phyloplace/primers"
	"github.com/grailbio/phyloplace/tree"
)

// NodeTypeNew is the "Node type" of every node created by attachment.
const NodeTypeNew = "New"

// Groups maps a target node ID to the positions of its results.
type Groups map[int][]int

// Group groups results by nearest node ID. Positions within a group are in
// increasing order.
func Group(results []placement.Result) Groups {
	g := Groups{}
	for i, r := range results {
		g[r.NearestNodeID] = append(g[r.NearestNodeID], i)
	}
	return g
}

// Stats summarizes an attachment pass.
type Stats struct {
	// Targets is the number of nodes that received attachments.
	Targets int
	// Leaves is the number of query leaves added.
	Leaves int
	// Clusters is the number of targets that received a clustered subtree.
	Clusters int
	// AuxNodes is the number of auxiliary clones inserted.
	AuxNodes int
}

// Merge adds the values of o to s.
func (s *Stats) Merge(o Stats) {
	s.Targets += o.Targets
	s.Leaves += o.Leaves
	s.Clusters += o.Clusters
	s.AuxNodes += o.AuxNodes
}

// Attach grafts results onto t in place. It must be called once per run: a
// second pass over the same tree adds duplicate children.
func Attach(t *tree.Tree, results []placement.Result) (Stats, error) {
	return AttachGroups(t, results, Group(results))
}

// AttachGroups is Attach with a precomputed grouping. All groups are checked
// before the tree is modified: a group whose node ID does not name a
// reference node, or which holds a position outside results, fails the whole
// pass with an error of kind errors.Integrity.
func AttachGroups(t *tree.Tree, results []placement.Result, groups Groups) (Stats, error) {
	if err := validate(t, results, groups); err != nil {
		return Stats{}, err
	}
	if pass := t.BeginAttachPass(); pass > 1 {
		log.Error.Printf("attach: pass %d over the same tree, existing attachments will be duplicated", pass)
	}
	a := attacher{t: t, results: results, groups: groups}
	if err := a.visit(t.Root); err != nil {
		return a.stats, err
	}
	log.Printf("attach: %d results on %d nodes: %d leaves, %d clustered subtrees, %d auxiliary nodes",
		len(results), a.stats.Targets, a.stats.Leaves, a.stats.Clusters, a.stats.AuxNodes)
	return a.stats, nil
}

func validate(t *tree.Tree, results []placement.Result, groups Groups) error {
	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		for _, i := range groups[id] {
			if i < 0 || i >= len(results) {
				return errors.E(errors.Integrity, fmt.Sprintf("attach: query index %d for node %d is out of range [0, %d)", i, id, len(results)))
			}
			if n, ok := t.Lookup(id); !ok || !n.IsRef {
				r := results[i]
				return errors.E(errors.Integrity, fmt.Sprintf("attach: query %d (%s, index %d) targets node %d, which is not a reference node", r.Index, r.SeqName, i, id))
			}
		}
	}
	return nil
}

type attacher struct {
	t       *tree.Tree
	results []placement.Result
	groups  Groups
	stats   Stats
}

func (a *attacher) visit(k tree.Key) error {
	n := a.t.Node(k)
	if !n.IsRef {
		return nil
	}
	// Children added below are not visited.
	children := append([]tree.Key(nil), n.Children...)
	for _, c := range children {
		if err := a.visit(c); err != nil {
			return err
		}
	}
	idx, ok := a.groups[n.ID]
	if !ok || len(idx) == 0 {
		return nil
	}
	a.stats.Targets++
	if len(idx) == 1 {
		a.addAuxIfLeaf(n)
		r := a.results[idx[0]]
		leaf := a.newLeaf(r, r.PrivateNuc.BranchStrings())
		a.t.PrependChild(n.Key, leaf.Key)
		a.stats.Leaves++
		return nil
	}
	group := make([]placement.Result, len(idx))
	for i, j := range idx {
		group[i] = a.results[j]
	}
	st, err := cluster.Build(n, group)
	if err != nil {
		return errors.E(errors.Integrity, err, fmt.Sprintf("attach: node %v", n))
	}
	a.addAuxIfLeaf(n)
	root := a.graft(st.Root, group)
	a.t.PrependChild(n.Key, root.Key)
	a.stats.Clusters++
	return nil
}

// addAuxIfLeaf gives a leaf n an auxiliary child: a copy of n, with the same
// ID, without branch mutations or labels. n is renamed <name>_parent.
func (a *attacher) addAuxIfLeaf(n *tree.Node) {
	if !n.IsLeaf() {
		return
	}
	aux := a.t.CloneDetached(n.Key)
	aux.BranchAttrs = tree.BranchAttrs{}
	a.t.AppendChild(n.Key, aux.Key)
	n.Name += "_parent"
	a.stats.AuxNodes++
}

// graft materializes a cluster subtree and returns its root.
func (a *attacher) graft(c *cluster.Node, group []placement.Result) *tree.Node {
	if c.IsLeaf() {
		a.stats.Leaves++
		return a.newLeaf(group[c.Member], subStrings(c.Mutations))
	}
	n := a.t.AddNew(c.Name)
	n.NodeAttrs.SetDiv(c.Div)
	n.NodeAttrs.Set(tree.KeyClade, c.Clade)
	n.NodeAttrs.Set(tree.KeyNodeType, NodeTypeNew)
	n.BranchAttrs.Mutations = map[string][]string{tree.NucSegment: subStrings(c.Mutations)}
	for _, cc := range c.Children {
		child := a.graft(cc, group)
		a.t.AppendChild(n.Key, child.Key)
	}
	return n
}

func subStrings(subs []mutation.NucSub) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.String()
	}
	return out
}

// newLeaf creates the detached leaf of result r with nuc as the nucleotide
// mutations of its branch.
func (a *attacher) newLeaf(r placement.Result, nuc []string) *tree.Node {
	n := a.t.AddNew(r.SeqName + "_new")
	n.BranchAttrs.Mutations = branchMutations(r, nuc)

	attrs := &n.NodeAttrs
	attrs.SetDiv(r.Divergence)
	attrs.Set(tree.KeyClade, r.Clade)
	attrs.Set(tree.KeyNodeType, NodeTypeNew)
	attrs.Set(tree.KeyRegion, tree.UnknownValue)
	attrs.Set(tree.KeyCountry, tree.UnknownValue)
	attrs.Set(tree.KeyDivision, tree.UnknownValue)
	attrs.Set(tree.KeyAlignment, fmt.Sprintf("start: %d, end: %d (score: %d)",
		r.AlignmentRange.Begin, r.AlignmentRange.End, r.AlignmentScore))
	attrs.Set(tree.KeyMissing, formatMissing(r.Missing))
	attrs.Set(tree.KeyGaps, mutation.FormatRanges(mutation.DeletionRanges(r.Deletions), ", "))
	attrs.Set(tree.KeyNonACGTNs, mutation.FormatLetterRanges(r.NonACGTNs, ", "))
	if primers.Total(r.PCRPrimerChanges) > 0 {
		attrs.Set(tree.KeyHasPCRPrimerChanges, "Yes")
		attrs.Set(tree.KeyPCRPrimerChanges, primers.Format(r.PCRPrimerChanges, ", "))
	} else {
		attrs.Set(tree.KeyHasPCRPrimerChanges, "No")
	}
	attrs.Set(tree.KeyMissingGenes, strings.Join(r.MissingGenes, ", "))
	attrs.Set(tree.KeyQCStatus, r.QCStatus)
	for k, v := range r.CustomNodeAttrs {
		attrs.SetOtherValue(k, v)
	}
	return n
}

func formatMissing(missing []mutation.LetterRange) string {
	ranges := make([]mutation.Range, len(missing))
	for i, m := range missing {
		ranges[i] = m.Range
	}
	return mutation.FormatRanges(ranges, ", ")
}

// branchMutations returns the "nuc" entry and one entry per gene with private
// amino-acid mutations.
func branchMutations(r placement.Result, nuc []string) map[string][]string {
	m := map[string][]string{tree.NucSegment: nuc}
	for gene, aa := range r.PrivateAa {
		m[gene] = aa.BranchStrings()
	}
	return m
}
