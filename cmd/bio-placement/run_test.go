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
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/phyloplace/alphabet"
	"github.com/grailbio/phyloplace/encoding/results"
	"github.com/grailbio/phyloplace/pipeline"
	"github.com/grailbio/phyloplace/seed"
	"github.com/grailbio/phyloplace/tree"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

func other(n alphabet.Nuc) alphabet.Nuc {
	if n == alphabet.A {
		return alphabet.C
	}
	return alphabet.A
}

func mutate(seq []alphabet.Nuc, positions ...int) string {
	q := append([]alphabet.Nuc(nil), seq...)
	for _, p := range positions {
		q[p] = other(q[p])
	}
	return alphabet.NucSeqString(q)
}

const treeTemplate = `{
  "version": "v2",
  "meta": {"title": "test", "extensions": {"nextclade": {"clade_node_attrs": [{"name": "lineage"}]}}},
  "tree": {
    "name": "root",
    "node_attrs": {"div": 0, "clade_membership": {"value": "19A"}},
    "children": [
      {"name": "A", "node_attrs": {"div": 1, "clade_membership": {"value": "20A"}, "lineage": {"value": "B.1"}},
       "branch_attrs": {"mutations": {"nuc": ["%s"]}}},
      {"name": "B", "node_attrs": {"div": 1, "clade_membership": {"value": "20B"}},
       "branch_attrs": {"mutations": {"nuc": ["%s"]}}}
    ]
  }
}`

func TestRunPlacement(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	r := rand.New(rand.NewSource(1))
	letters := []alphabet.Nuc{alphabet.A, alphabet.C, alphabet.G, alphabet.T}
	ref := make([]alphabet.Nuc, 1000)
	for i := range ref {
		ref[i] = letters[r.Intn(4)]
	}
	subAt := func(pos int) string {
		return fmt.Sprintf("%c%d%c", ref[pos], pos+1, other(ref[pos]))
	}

	write := func(name, data string) string {
		path := filepath.Join(dir, name)
		assert.NoError(t, os.WriteFile(path, []byte(data), 0644))
		return path
	}
	flags := runFlags{
		referencePath: write("ref.fasta", ">ref\n"+alphabet.NucSeqString(ref)+"\n"),
		treePath:      write("tree.json", fmt.Sprintf(treeTemplate, subAt(100), subAt(500))),
		outputTree:    filepath.Join(dir, "out.json.gz"),
		outputTSV:     filepath.Join(dir, "out.tsv"),
		outputNewick:  filepath.Join(dir, "out.nwk"),
		opts:          pipeline.DefaultOpts,
	}
	flags.opts.Parallelism = 2
	flags.opts.Align.Seed = seed.Opts{KmerLength: 12, SeedSpacing: 40, MinSeeds: 3, MismatchesAllowed: 2}
	queries := write("queries.fasta", strings.Join([]string{
		">q1 first", mutate(ref, 100, 300),
		">q2", mutate(ref, 500),
		">q3", "ACGTACGT",
	}, "\n")+"\n")

	assert.NoError(t, runPlacement(ctx, flags, queries))

	f, err := os.Open(flags.outputTree)
	assert.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	assert.NoError(t, err)
	out, err := tree.ReadJSON(gz)
	assert.NoError(t, err)
	var names []string
	out.Preorder(func(n *tree.Node) bool {
		names = append(names, n.Name)
		return true
	})
	expect.EQ(t, names, []string{"root", "A_parent", "q1_new", "A", "B_parent", "q2_new", "B"})
	q1 := out.Node(out.Node(out.Node(out.Root).Children[0]).Children[0])
	lineage, ok := q1.NodeAttrs.OtherValue("lineage")
	expect.True(t, ok)
	expect.EQ(t, lineage, "B.1")
	expect.EQ(t, q1.BranchAttrs.Mutations["nuc"], []string{subAt(300)})

	data, err := os.ReadFile(flags.outputTSV)
	assert.NoError(t, err)
	rows, err := results.Read(bytes.NewReader(data))
	assert.NoError(t, err)
	assert.EQ(t, len(rows), 3)
	expect.EQ(t, rows[0].SeqName, "q1")
	expect.EQ(t, rows[0].Clade, "20A")
	expect.EQ(t, rows[2].SeqName, "q3")
	expect.True(t, rows[2].Errors != "")

	nwk, err := os.ReadFile(flags.outputNewick)
	assert.NoError(t, err)
	expect.True(t, strings.Contains(string(nwk), "q1_new"))

	assert.NoError(t, convertNewick(flags.outputTree, filepath.Join(dir, "converted.nwk")))
	converted, err := os.ReadFile(filepath.Join(dir, "converted.nwk"))
	assert.NoError(t, err)
	expect.EQ(t, string(converted), string(nwk))
}
