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

package main

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/phyloplace/alphabet"
	"github.com/grailbio/phyloplace/encoding/fasta"
	"github.com/grailbio/phyloplace/encoding/newick"
	"github.com/grailbio/phyloplace/encoding/results"
	"github.com/grailbio/phyloplace/mask"
	"github.com/grailbio/phyloplace/pipeline"
	"github.com/grailbio/phyloplace/primers"
	"github.com/grailbio/phyloplace/tree"
	"github.com/prometheus/client_golang/prometheus"
	"v.io/x/lib/cmdline"
)

type runFlags struct {
	referencePath string
	treePath      string
	primersPath   string
	maskPath      string

	outputTree   string
	outputTSV    string
	outputNewick string
	logMetrics   bool

	opts pipeline.Opts
}

func newCmdRun() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "run",
		Short:    "Align queries, place them on the reference tree and attach them",
		ArgsName: "queries.fasta",
	}
	flags := runFlags{opts: pipeline.DefaultOpts}
	cmd.Flags.StringVar(&flags.referencePath, "reference", "", "Reference sequence FASTA file, holding exactly one sequence")
	cmd.Flags.StringVar(&flags.treePath, "tree", "", "Reference tree in Auspice v2 JSON format")
	cmd.Flags.StringVar(&flags.primersPath, "primers", "", "Optional TSV of PCR primers with columns name, begin, end (1-based, inclusive)")
	cmd.Flags.StringVar(&flags.maskPath, "mask", "", `Optional BED file of placement mask ranges. Substitutions in these ranges
do not count towards divergence. By default the ranges declared in the tree
meta are used.`)
	cmd.Flags.StringVar(&flags.outputTree, "output-tree", "", "Output Auspice JSON tree with the queries attached. Compressed if the name ends with .gz")
	cmd.Flags.StringVar(&flags.outputTSV, "output-tsv", "", "Output TSV with one row per query")
	cmd.Flags.StringVar(&flags.outputNewick, "output-newick", "", "Output tree in Newick format")
	cmd.Flags.BoolVar(&flags.logMetrics, "log-metrics", false, "Log the run metrics when done")
	cmd.Flags.IntVar(&flags.opts.Parallelism, "parallelism", runtime.NumCPU(), "Number of queries processed in parallel")
	cmd.Flags.StringVar(&flags.opts.DivergenceUnits, "divergence-units", "", `Units of the tree divergence, "NumSubstitutionsPerYear" or
"NumSubstitutionsPerYearPerSite". By default they are guessed from the tree.`)
	cmd.Flags.BoolVar(&flags.opts.Placement.IncludeNearestNodeInfo, "include-nearest-node-info", false, "Report all nodes tied for nearest in the TSV")
	cmd.Flags.IntVar(&flags.opts.Align.Seed.KmerLength, "kmer-length", flags.opts.Align.Seed.KmerLength, "Seed length")
	cmd.Flags.IntVar(&flags.opts.Align.Seed.SeedSpacing, "seed-spacing", flags.opts.Align.Seed.SeedSpacing, "Target distance between seeds on the query")
	cmd.Flags.IntVar(&flags.opts.Align.Seed.MinSeeds, "min-seeds", flags.opts.Align.Seed.MinSeeds, "Minimum number of matching seeds")
	cmd.Flags.IntVar(&flags.opts.Align.Seed.MismatchesAllowed, "mismatches-allowed", flags.opts.Align.Seed.MismatchesAllowed, "Mismatches allowed in one seed")
	cmd.Flags.IntVar(&flags.opts.MaxMissing, "max-missing", flags.opts.MaxMissing, "Number of N letters above which a query fails QC")
	cmd.Flags.IntVar(&flags.opts.MaxNonACGTNs, "max-non-acgtns", flags.opts.MaxNonACGTNs, "Number of ambiguous letters above which a query fails QC")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("run takes one queries FASTA path, but got %v", argv)
		}
		if flags.referencePath == "" || flags.treePath == "" {
			return fmt.Errorf("run: -reference and -tree are required")
		}
		return runPlacement(vcontext.Background(), flags, argv[0])
	})
	return cmd
}

func readReference(ctx context.Context, path string) ([]alphabet.Nuc, error) {
	rec, err := fasta.ReadOnePath(ctx, path)
	if err != nil {
		return nil, err
	}
	ref, err := alphabet.ParseNucSeq(rec.Seq)
	if err != nil {
		return nil, errors.E(errors.Invalid, err, "reference", path)
	}
	log.Printf("reference %s: %d letters", rec.Name, len(ref))
	return ref, nil
}

func readQueries(ctx context.Context, path string) ([]fasta.Record, error) {
	r, closer, err := fasta.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	recs, err := fasta.ReadAll(r)
	if cerr := closer(); err == nil {
		err = cerr
	}
	return recs, err
}

func runPlacement(ctx context.Context, flags runFlags, queriesPath string) error {
	var (
		in  pipeline.Inputs
		err error
	)
	if in.Ref, err = readReference(ctx, flags.referencePath); err != nil {
		return err
	}
	if in.Tree, err = readTree(ctx, flags.treePath); err != nil {
		return err
	}
	if in.Queries, err = readQueries(ctx, queriesPath); err != nil {
		return err
	}
	if flags.primersPath != "" {
		if in.Primers, err = primers.ReadPath(ctx, flags.primersPath); err != nil {
			return err
		}
	}
	if flags.maskPath != "" {
		if in.Mask, err = mask.ReadBEDPath(ctx, flags.maskPath); err != nil {
			return err
		}
	}
	reg := prometheus.NewRegistry()
	opts := flags.opts
	opts.Registerer = reg
	out, err := pipeline.Run(ctx, in, opts)
	if err != nil {
		return err
	}
	for _, e := range out.Errors {
		log.Error.Printf("%v", e)
	}

	if flags.outputTree != "" {
		if err := writeOutput(ctx, flags.outputTree, func(w io.Writer) error {
			return tree.WriteJSON(w, in.Tree)
		}); err != nil {
			return err
		}
	}
	if flags.outputTSV != "" {
		rows := make([]results.Row, 0, len(out.Results)+len(out.Errors))
		for _, r := range out.Results {
			rows = append(rows, results.FromResult(r))
		}
		for _, e := range out.Errors {
			rows = append(rows, results.FromError(e.Index, e.SeqName, e.Err))
		}
		if err := writeOutput(ctx, flags.outputTSV, func(w io.Writer) error {
			return results.Write(w, rows)
		}); err != nil {
			return err
		}
	}
	if flags.outputNewick != "" {
		if err := writeOutput(ctx, flags.outputNewick, func(w io.Writer) error {
			return newick.Write(w, in.Tree)
		}); err != nil {
			return err
		}
	}
	if flags.logMetrics {
		logMetrics(reg)
	}
	return nil
}

func logMetrics(g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		log.Error.Printf("gather metrics: %v", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				log.Printf("metric %s%v: %g", mf.GetName(), m.GetLabel(), m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				log.Printf("metric %s: count %d, sum %g", mf.GetName(), h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
}

func convertNewick(treePath, destPath string) error {
	ctx := vcontext.Background()
	t, err := readTree(ctx, treePath)
	if err != nil {
		return err
	}
	return writeOutput(ctx, destPath, func(w io.Writer) error {
		return newick.Write(w, t)
	})
}
