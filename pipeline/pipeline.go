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

// Package pipeline runs phylogenetic placement over a batch of queries.
//
// A run has two phases. First, queries are aligned and placed in parallel
// against the read-only reference tree; each worker handles a contiguous
// slice of the queries and writes only into its own slots. Then, once every
// placement is known, all results are attached to the tree in a single pass.
// A query that fails does not affect the others.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/phyloplace/align"
	"github.com/grailbio/phyloplace/alphabet"
	"github.com/grailbio/phyloplace/attach"
	"github.com/grailbio/phyloplace/encoding/fasta"
	"github.com/grailbio/phyloplace/mask"
	"github.com/grailbio/phyloplace/placement"
	"github.com/grailbio/phyloplace/primers"
	"github.com/grailbio/phyloplace/tree"
)

// Inputs are the data of a run. Everything except Tree is only read.
type Inputs struct {
	Ref     []alphabet.Nuc
	Tree    *tree.Tree
	Queries []fasta.Record
	Primers []primers.Primer
	// Mask holds the placement mask. If nil, the mask ranges stored in the
	// tree metadata are used.
	Mask *mask.Mask
}

// QueryError records a query that could not be placed.
type QueryError struct {
	Index   int
	SeqName string
	Err     error
}

func (e QueryError) Error() string {
	return fmt.Sprintf("query %d (%s): %v", e.Index, e.SeqName, e.Err)
}

// Stats summarizes a run.
type Stats struct {
	Queries int
	Placed  int
	Failed  int
	// Attach summarizes the attachment pass.
	Attach attach.Stats
}

// Merge adds the values of o to s.
func (s *Stats) Merge(o Stats) {
	s.Queries += o.Queries
	s.Placed += o.Placed
	s.Failed += o.Failed
	s.Attach.Merge(o.Attach)
}

// Output is the outcome of a run. Inputs.Tree holds the attached queries.
type Output struct {
	// Results are the placed queries, in input order.
	Results []placement.Result
	// Errors are the failed queries, in input order.
	Errors []QueryError
	Stats  Stats
	// Digest fingerprints the placement decisions of the run.
	Digest Digest
}

type slot struct {
	result placement.Result
	err    error
	stats  Stats
}

type runner struct {
	in      Inputs
	opts    Opts
	placer  *placement.Placer
	metrics *metrics
}

// Run places in.Queries on in.Tree, then attaches them to it.
func Run(ctx context.Context, in Inputs, opts Opts) (*Output, error) {
	if in.Tree == nil {
		return nil, errors.E(errors.Invalid, "pipeline: no reference tree")
	}
	if len(in.Ref) == 0 {
		return nil, errors.E(errors.Invalid, "pipeline: empty reference sequence")
	}
	r := &runner{in: in, opts: opts, metrics: newMetrics(opts.Registerer)}
	if err := r.configure(); err != nil {
		return nil, err
	}

	// Phase 1: align and place.
	n := len(in.Queries)
	slots := make([]slot, n)
	parallelism := opts.Parallelism
	if parallelism > n {
		parallelism = n
	}
	if parallelism < 1 {
		parallelism = 1
	}
	log.Printf("pipeline: placing %d queries (%d jobs)", n, parallelism)
	err := traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * n) / parallelism
		endIdx := ((jobIdx + 1) * n) / parallelism
		for i := startIdx; i < endIdx; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			slots[i] = r.placeOne(i, in.Queries[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &Output{}
	for i, s := range slots {
		out.Stats.Merge(s.stats)
		if s.err != nil {
			out.Errors = append(out.Errors, QueryError{Index: i, SeqName: in.Queries[i].Name, Err: s.err})
			continue
		}
		out.Results = append(out.Results, s.result)
	}

	// Phase 2: attach, single writer.
	start := time.Now()
	as, err := attach.Attach(in.Tree, out.Results)
	if err != nil {
		return nil, err
	}
	r.metrics.attachDuration.Observe(time.Since(start).Seconds())
	out.Stats.Attach = as
	out.Digest = DigestResults(out.Results)
	log.Printf("pipeline: %d queries, %d placed, %d failed, digest %v",
		out.Stats.Queries, out.Stats.Placed, out.Stats.Failed, out.Digest)
	return out, nil
}

// configure attaches the run configuration to the tree and builds the placer.
func (r *runner) configure() error {
	t := r.in.Tree
	var units tree.DivergenceUnits
	if r.opts.DivergenceUnits != "" {
		units = tree.ParseDivergenceUnits(r.opts.DivergenceUnits)
	} else {
		units = tree.GuessDivergenceUnits(t)
	}
	m := r.in.Mask
	if m == nil {
		ranges, err := t.PlacementMaskRanges()
		if err != nil {
			return err
		}
		m = mask.New(ranges)
	}
	t.SetConfig(tree.Config{DivergenceUnits: units, Mask: m, RefLen: len(r.in.Ref)})
	log.Printf("pipeline: divergence units %v, placement mask %d sites", units, m.Len())

	g, err := placement.NewGenotypes(t, r.in.Ref)
	if err != nil {
		return err
	}
	cladeKeys, err := t.CladeNodeAttrKeys()
	if err != nil {
		return err
	}
	r.placer = placement.NewPlacer(t, g, placement.NewMutationDistanceEvaluator(g), cladeKeys, r.opts.Placement)
	return nil
}

func (r *runner) placeOne(index int, rec fasta.Record) (s slot) {
	start := time.Now()
	s.stats.Queries = 1
	defer func() {
		r.metrics.placeDuration.Observe(time.Since(start).Seconds())
		if s.err != nil {
			s.stats.Failed = 1
			r.metrics.queries.WithLabelValues("failed").Inc()
			log.Debug.Printf("pipeline: query %d (%s): %v", index, rec.Name, s.err)
			return
		}
		s.stats.Placed = 1
		r.metrics.queries.WithLabelValues("placed").Inc()
		r.metrics.distance.Observe(float64(s.result.Distance))
	}()
	qry, err := alphabet.ParseNucSeq(rec.Seq)
	if err != nil {
		s.err = errors.E(errors.Invalid, err, "query sequence")
		return
	}
	a, err := align.Align(qry, r.in.Ref, r.opts.Align)
	if err != nil {
		s.err = err
		return
	}
	c := align.FindChanges(a, r.in.Ref)
	q := placement.Query{
		Index:            index,
		SeqName:          rec.Name,
		Substitutions:    c.Substitutions,
		Deletions:        c.Deletions,
		Missing:          c.Missing,
		NonACGTNs:        c.NonACGTNs,
		AlignmentRange:   c.AlignmentRange,
		AlignmentScore:   a.Score,
		PCRPrimerChanges: primers.FindChanges(r.in.Primers, c.Substitutions),
		QCStatus:         r.qcStatus(c),
	}
	s.result, s.err = r.placer.Place(q)
	return
}

func (r *runner) qcStatus(c align.Changes) string {
	nonACGTNs := 0
	for _, lr := range c.NonACGTNs {
		nonACGTNs += lr.Len()
	}
	if c.TotalMissing() > r.opts.MaxMissing || nonACGTNs > r.opts.MaxNonACGTNs {
		return "bad"
	}
	return "good"
}
