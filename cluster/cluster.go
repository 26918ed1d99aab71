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

// Package cluster builds a subtree for a group of queries that were placed on
// the same reference node, so that queries sharing mutations branch together.
//
// Clustering is agglomerative on the symmetric difference of the queries'
// private nucleotide mutation sets. Ties are broken by a canonical key derived
// from each cluster's content, so the result does not depend on the order of
// the input group.
package cluster

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgryski/go-farm"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/phyloplace/mutation"
	"github.com/grailbio/phyloplace/placement"
	"github.com/grailbio/phyloplace/tree"
	"github.com/grailbio/phyloplace/util"
	"gonum.org/v1/gonum/mat"
)

// Node is a node of a built subtree.
type Node struct {
	// Member is the position of the query in the input group for leaves, and
	// -1 for internal nodes.
	Member int
	// Name is set for internal nodes.
	Name string
	// Mutations are the nucleotide mutations of the branch leading to the
	// node, deletions rendered as substitutions against the gap letter.
	Mutations []mutation.NucSub
	// Div and Clade are set for internal nodes. Leaves take theirs from the
	// placement result.
	Div   float64
	Clade string

	Children []*Node

	// key is the canonical key of the cluster rooted here.
	key string
	// minName is the smallest sequence name in the cluster.
	minName string
	// set is the accumulated mutation set relative to the target node.
	set []mutation.NucSub
}

// IsLeaf reports whether n is a query leaf.
func (n *Node) IsLeaf() bool { return n.Member >= 0 }

// Walk calls fn on n and its descendants in preorder.
func (n *Node) Walk(fn func(n *Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Subtree is the result of Build. Root is always an internal node.
type Subtree struct {
	Root *Node
}

type cluster struct {
	node *Node
	fp   uint64
}

func newCluster(n *Node) cluster {
	return cluster{node: n, fp: farm.Fingerprint64([]byte(n.key))}
}

// less orders clusters canonically.
func (c cluster) less(o cluster) bool {
	if c.fp != o.fp {
		return c.fp < o.fp
	}
	return c.node.key < o.node.key
}

func formatSet(set []mutation.NucSub) string {
	parts := make([]string, len(set))
	for i, m := range set {
		parts[i] = m.String()
	}
	return strings.Join(parts, ",")
}

// DistanceMatrix returns the pairwise symmetric-difference sizes of sets,
// which must not be empty.
func DistanceMatrix(sets [][]mutation.NucSub) *mat.SymDense {
	d := mat.NewSymDense(len(sets), nil)
	for i := range sets {
		for j := i + 1; j < len(sets); j++ {
			d.SetSym(i, j, float64(util.SymmetricDifferenceSize(sets[i], sets[j])))
		}
	}
	return d
}

// Build clusters group, the results placed on target. The group must have at
// least two results.
func Build(target *tree.Node, group []placement.Result) (*Subtree, error) {
	if len(group) < 2 {
		return nil, errors.E(errors.Precondition, fmt.Sprintf("cluster: need at least two results for node %v, got %d", target, len(group)))
	}
	active := make([]cluster, len(group))
	sets := make([][]mutation.NucSub, len(group))
	for i, r := range group {
		set := util.Dedup(r.PrivateNuc.AsSubs())
		sets[i] = set
		n := &Node{Member: i, set: set, key: formatSet(set) + "|" + r.SeqName, minName: r.SeqName}
		active[i] = newCluster(n)
	}
	dist := DistanceMatrix(sets)
	if log.At(log.Debug) {
		log.Debug.Printf("cluster: %d queries on node %v, distances:\n%v", len(group), target, mat.Formatted(dist))
	}

	// alive[i] is false once slot i has been merged into another slot.
	alive := make([]bool, len(group))
	for i := range alive {
		alive[i] = true
	}
	for remaining := len(group); remaining > 1; remaining-- {
		bi, bj := -1, -1
		for i := range active {
			if !alive[i] {
				continue
			}
			for j := i + 1; j < len(active); j++ {
				if !alive[j] {
					continue
				}
				if bi < 0 || closer(dist.At(i, j), active[i], active[j], dist.At(bi, bj), active[bi], active[bj]) {
					bi, bj = i, j
				}
			}
		}
		a, b := active[bi], active[bj]
		if b.less(a) {
			a, b = b, a
		}
		merged := &Node{
			Member:   -1,
			set:      util.Intersection(a.node.set, b.node.set),
			key:      "(" + a.node.key + ";" + b.node.key + ")",
			minName:  a.node.minName,
			Children: []*Node{a.node, b.node},
		}
		if b.node.minName < merged.minName {
			merged.minName = b.node.minName
		}
		active[bi] = newCluster(merged)
		alive[bj] = false
		for k := range active {
			if alive[k] && k != bi {
				dist.SetSym(bi, k, float64(util.SymmetricDifferenceSize(merged.set, active[k].node.set)))
			}
		}
	}
	var root *Node
	for i := range active {
		if alive[i] {
			root = active[i].node
		}
	}
	finish(root, target, group)
	return &Subtree{Root: root}, nil
}

// closer reports whether pair (a1, a2) at distance d1 is preferred over pair
// (b1, b2) at distance d2.
func closer(d1 float64, a1, a2 cluster, d2 float64, b1, b2 cluster) bool {
	if d1 != d2 {
		return d1 < d2
	}
	if a2.less(a1) {
		a1, a2 = a2, a1
	}
	if b2.less(b1) {
		b1, b2 = b2, b1
	}
	if a1.less(b1) || b1.less(a1) {
		return a1.less(b1)
	}
	return a2.less(b2)
}

// finish computes branch mutations relative to the parent and collapses empty
// internal branches below the root. Children are ordered by the smallest
// sequence name below them. Internal nodes are then named in preorder and
// given their divergence and clade.
func finish(root *Node, target *tree.Node, group []placement.Result) {
	var collapse func(n *Node, parentSet []mutation.NucSub)
	collapse = func(n *Node, parentSet []mutation.NucSub) {
		n.Mutations = util.Difference(n.set, parentSet)
		if n.IsLeaf() {
			return
		}
		var children []*Node
		for _, c := range n.Children {
			collapse(c, n.set)
			if !c.IsLeaf() && len(c.Mutations) == 0 {
				children = append(children, c.Children...)
				continue
			}
			children = append(children, c)
		}
		sort.SliceStable(children, func(i, j int) bool {
			ci, cj := children[i], children[j]
			if ci.minName != cj.minName {
				return ci.minName < cj.minName
			}
			return ci.key < cj.key
		})
		n.Children = children
	}
	collapse(root, nil)

	parentDiv := 0.0
	if target.NodeAttrs.Div != nil {
		parentDiv = *target.NodeAttrs.Div
	}
	seq := 0
	root.Walk(func(n *Node) {
		if n.IsLeaf() {
			return
		}
		seq++
		n.Name = fmt.Sprintf("%s_cluster_%d", target.Name, seq)
		var subs []mutation.NucSub
		for _, m := range n.set {
			if !m.IsDel() {
				subs = append(subs, m)
			}
		}
		n.Div = parentDiv + placement.BranchLength(subs, target.Tmp.Mask, target.Tmp.DivergenceUnits, target.Tmp.RefLen)
		n.Clade = commonClade(n, group, target.NodeAttrs.Clade())
	})
}

func commonClade(n *Node, group []placement.Result, fallback string) string {
	clade, unique := "", true
	first := true
	n.Walk(func(c *Node) {
		if !c.IsLeaf() {
			return
		}
		cc := group[c.Member].Clade
		if first {
			clade, first = cc, false
		} else if cc != clade {
			unique = false
		}
	})
	if !unique || clade == "" {
		return fallback
	}
	return clade
}
