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
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/phyloplace/alphabet"
	"github.com/grailbio/phyloplace/mutation"
	"github.com/grailbio/phyloplace/tree"
)

// Genotype maps a reference position to the non-reference letter a node
// carries there. Deleted positions map to alphabet.Gap.
type Genotype map[int]alphabet.Nuc

// Letter returns the letter g carries at pos.
func (g Genotype) Letter(pos int, ref []alphabet.Nuc) alphabet.Nuc {
	if l, ok := g[pos]; ok {
		return l
	}
	return ref[pos]
}

// Genotypes holds the cumulative nucleotide state of every reference node,
// in preorder. It is immutable once built.
type Genotypes struct {
	ref   []alphabet.Nuc
	nodes []*tree.Node
	byKey map[tree.Key]Genotype
}

// NewGenotypes accumulates the "nuc" branch mutations of every reference node
// of t from the root down. Non-reference subtrees are skipped.
func NewGenotypes(t *tree.Tree, ref []alphabet.Nuc) (*Genotypes, error) {
	g := &Genotypes{ref: ref, byKey: map[tree.Key]Genotype{}}
	var err error
	var visit func(k tree.Key, parent Genotype)
	visit = func(k tree.Key, parent Genotype) {
		n := t.Node(k)
		if err != nil || !n.IsRef {
			return
		}
		gt := make(Genotype, len(parent)+len(n.BranchAttrs.Mutations[tree.NucSegment]))
		for pos, l := range parent {
			gt[pos] = l
		}
		for _, s := range n.BranchAttrs.Mutations[tree.NucSegment] {
			sub, e := mutation.ParseNucSub(s)
			if e != nil {
				err = errors.E(e, fmt.Sprintf("node %v", n))
				return
			}
			if sub.Pos >= len(ref) {
				err = errors.E(errors.Invalid, fmt.Sprintf("node %v: mutation %v is outside the reference (length %d)", n, sub, len(ref)))
				return
			}
			if sub.Qry == ref[sub.Pos] {
				delete(gt, sub.Pos)
			} else {
				gt[sub.Pos] = sub.Qry
			}
		}
		g.nodes = append(g.nodes, n)
		g.byKey[k] = gt
		for _, c := range n.Children {
			visit(c, gt)
		}
	}
	visit(t.Root, nil)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Get returns the genotype of the reference node at k.
func (g *Genotypes) Get(k tree.Key) (Genotype, bool) {
	gt, ok := g.byKey[k]
	return gt, ok
}

// Ref returns the reference sequence.
func (g *Genotypes) Ref() []alphabet.Nuc { return g.ref }
