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

// Package placement selects the nearest reference-tree node of a query and
// derives what is needed to attach the query there: private mutations,
// divergence and clade.
package placement

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/phyloplace/mutation"
	"github.com/grailbio/phyloplace/primers"
	"github.com/grailbio/phyloplace/tree"
)

// Opts controls placement.
type Opts struct {
	// IncludeNearestNodeInfo collects the names of all nodes tied with the
	// nearest one into Result.NearestNodes.
	IncludeNearestNodeInfo bool
}

// DefaultOpts is the default placement configuration.
var DefaultOpts = Opts{}

// Result is the placement of one query. It is not modified once created.
type Result struct {
	Index   int
	SeqName string

	// NearestNodeID is the ID of the reference node the query attaches to.
	NearestNodeID int
	// NearestNodes are the names of the nodes at the minimum distance. Only
	// set with Opts.IncludeNearestNodeInfo.
	NearestNodes []string
	Distance     int

	PrivateNuc      mutation.PrivateNuc
	PrivateAa       map[string]mutation.PrivateAa
	Divergence      float64
	Clade           string
	CustomNodeAttrs map[string]string

	AlignmentRange   mutation.Range
	AlignmentScore   int
	Missing          []mutation.LetterRange
	Deletions        []mutation.NucDel
	NonACGTNs        []mutation.LetterRange
	PCRPrimerChanges []primers.Change
	MissingGenes     []string
	QCStatus         string
}

// Placer places queries on a reference tree. It only reads the tree and is
// safe for concurrent use.
type Placer struct {
	tree      *tree.Tree
	genotypes *Genotypes
	eval      Evaluator
	cladeKeys []string
	opts      Opts
}

// NewPlacer returns a placer over t. cladeKeys names the custom node
// attributes copied from the nearest node into each result.
func NewPlacer(t *tree.Tree, g *Genotypes, eval Evaluator, cladeKeys []string, opts Opts) *Placer {
	return &Placer{tree: t, genotypes: g, eval: eval, cladeKeys: cladeKeys, opts: opts}
}

// Place computes the placement of q. Only candidates[0] of the evaluator is
// used as the attachment target; the tie set is informational.
func (p *Placer) Place(q Query) (Result, error) {
	cands, err := p.eval.NearestNodes(q)
	if err != nil {
		return Result{}, err
	}
	if len(cands) == 0 {
		return Result{}, errors.E(errors.Integrity, fmt.Sprintf("query %d (%s): evaluator returned no candidates", q.Index, q.SeqName))
	}
	best := cands[0]
	// Genotypes only cover reference nodes of the tree.
	gt, ok := p.genotypes.Get(best.Key)
	if !ok {
		return Result{}, errors.E(errors.Integrity, fmt.Sprintf("query %d (%s): nearest node key %d (id %d, %q) is not a reference node",
			q.Index, q.SeqName, best.Key, best.ID, best.Name))
	}
	node := p.tree.Node(best.Key)

	r := Result{
		Index:            q.Index,
		SeqName:          q.SeqName,
		NearestNodeID:    node.ID,
		Distance:         best.Distance,
		PrivateAa:        q.PrivateAa,
		Clade:            node.NodeAttrs.Clade(),
		AlignmentRange:   q.AlignmentRange,
		AlignmentScore:   q.AlignmentScore,
		Missing:          q.Missing,
		Deletions:        q.Deletions,
		NonACGTNs:        q.NonACGTNs,
		PCRPrimerChanges: q.PCRPrimerChanges,
		MissingGenes:     q.MissingGenes,
		QCStatus:         q.QCStatus,
	}
	if p.opts.IncludeNearestNodeInfo {
		for _, c := range cands {
			if c.Distance != best.Distance {
				break
			}
			r.NearestNodes = append(r.NearestNodes, c.Name)
		}
	}
	for _, k := range p.cladeKeys {
		if v, ok := node.NodeAttrs.OtherValue(k); ok {
			if r.CustomNodeAttrs == nil {
				r.CustomNodeAttrs = map[string]string{}
			}
			r.CustomNodeAttrs[k] = v
		}
	}
	ref := p.genotypes.Ref()
	r.PrivateNuc = FindPrivateNucMutations(gt, q, ref)
	parentDiv := 0.0
	if node.NodeAttrs.Div != nil {
		parentDiv = *node.NodeAttrs.Div
	}
	r.Divergence = parentDiv + BranchLength(r.PrivateNuc.Substitutions, node.Tmp.Mask, node.Tmp.DivergenceUnits, len(ref))
	if log.At(log.Debug) {
		log.Debug.Printf("query %d (%s): nearest node %v at distance %d, %d private substitutions, divergence %g",
			q.Index, q.SeqName, node, best.Distance, len(r.PrivateNuc.Substitutions), r.Divergence)
	}
	return r, nil
}
