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

package tree

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/grailbio/phyloplace/mask"
	"github.com/grailbio/phyloplace/mutation"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTreeJSON = `{
  "version": "v2",
  "meta": {
    "title": "test",
    "extensions": {
      "nextclade": {
        "clade_node_attrs": [{"name": "lineage", "displayName": "Lineage"}],
        "placement_mask_ranges": [{"begin": 0, "end": 55}]
      }
    }
  },
  "tree": {
    "name": "root",
    "node_attrs": {"div": 0, "clade_membership": {"value": "19A"}},
    "branch_attrs": {},
    "children": [
      {
        "name": "A",
        "node_attrs": {"div": 0.0001, "clade_membership": {"value": "20A"}, "lineage": {"value": "B.1"}, "num_date": {"value": 2020.1, "confidence": [2020.0, 2020.2]}},
        "branch_attrs": {"mutations": {"nuc": ["C241T", "A23403G"], "S": ["D614G"]}, "labels": {"clade": "20A"}},
        "extra": true
      },
      {
        "name": "B",
        "node_attrs": {"div": 0.00005},
        "branch_attrs": {"mutations": {"nuc": ["C8782T"]}},
        "children": [
          {"name": "B1", "node_attrs": {"div": 0.0002}, "branch_attrs": {}}
        ]
      }
    ]
  }
}`

func readTestTree(t *testing.T) *Tree {
	tr, err := ReadJSON(strings.NewReader(testTreeJSON))
	require.NoError(t, err)
	return tr
}

func names(t *Tree, keys []Key) []string {
	var out []string
	for _, k := range keys {
		out = append(out, t.Node(k).Name)
	}
	return out
}

func TestReadJSON(t *testing.T) {
	tr := readTestTree(t)
	require.NoError(t, tr.Validate())
	root := tr.RootNode()
	expect.EQ(t, root.Name, "root")
	expect.EQ(t, root.ID, 0)
	expect.EQ(t, names(tr, root.Children), []string{"A", "B"})

	var preorder []string
	var ids []int
	tr.Preorder(func(n *Node) bool {
		preorder = append(preorder, n.Name)
		ids = append(ids, n.ID)
		expect.True(t, n.IsRef)
		return true
	})
	expect.EQ(t, preorder, []string{"root", "A", "B", "B1"})
	expect.EQ(t, ids, []int{0, 1, 2, 3})

	a, ok := tr.Lookup(1)
	require.True(t, ok)
	expect.EQ(t, a.Name, "A")
	expect.EQ(t, a.NodeAttrs.Clade(), "20A")
	expect.EQ(t, *a.NodeAttrs.Div, 0.0001)
	expect.EQ(t, a.BranchAttrs.Mutations["nuc"], []string{"C241T", "A23403G"})
	expect.EQ(t, a.BranchAttrs.Segments(), []string{"S", "nuc"})
	lineage, ok := a.NodeAttrs.OtherValue("lineage")
	expect.True(t, ok)
	expect.EQ(t, lineage, "B.1")

	b1, _ := tr.Lookup(3)
	expect.EQ(t, tr.PathFromRoot(b1.Key), []Key{0, 2, 3})
	_, ok = tr.Lookup(4)
	expect.False(t, ok)

	keys, err := tr.CladeNodeAttrKeys()
	require.NoError(t, err)
	expect.EQ(t, keys, []string{"lineage"})
	ranges, err := tr.PlacementMaskRanges()
	require.NoError(t, err)
	expect.EQ(t, ranges, []mutation.Range{{Begin: 0, End: 55}})
}

func TestJSONRoundTripKeepsUnknownFields(t *testing.T) {
	tr := readTestTree(t)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, tr))

	var want, got interface{}
	require.NoError(t, json.Unmarshal([]byte(testTreeJSON), &want))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, want, got)
}

func TestReadJSONErrors(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"meta": {}}`))
	assert.Contains(t, err.Error(), "no \"tree\" field")
	_, err = ReadJSON(strings.NewReader(`{"tree": {"name": "x", "node_attrs": {"div": "a"}}}`))
	assert.Contains(t, err.Error(), "node_attrs.div")
}

func TestMutateArena(t *testing.T) {
	tr := readTestTree(t)
	a, _ := tr.Lookup(1)

	clone := tr.CloneDetached(a.Key)
	expect.EQ(t, clone.ID, a.ID)
	expect.True(t, clone.IsRef)
	expect.True(t, clone.Key != a.Key)
	clone.BranchAttrs.Mutations["nuc"][0] = "X"
	expect.EQ(t, a.BranchAttrs.Mutations["nuc"][0], "C241T")

	n1 := tr.AddNew("n1")
	n2 := tr.AddNew("n2")
	expect.False(t, n1.IsRef)
	expect.EQ(t, n1.ID, 4)
	expect.EQ(t, n2.ID, 5)
	tr.AppendChild(a.Key, clone.Key)
	tr.PrependChild(a.Key, n1.Key)
	tr.PrependChild(a.Key, n2.Key)
	expect.EQ(t, names(tr, a.Children), []string{"n2", "n1", "A"})
	require.NoError(t, tr.Validate())

	// Lookup still resolves the original node, not the clone.
	got, _ := tr.Lookup(1)
	expect.EQ(t, got.Key, a.Key)
	_, ok := tr.Lookup(n1.ID)
	expect.False(t, ok)
}

func TestCloneTree(t *testing.T) {
	tr := readTestTree(t)
	tr.BeginAttachPass()
	c := tr.Clone()
	n := c.AddNew("x")
	c.PrependChild(c.Root, n.Key)
	c.RootNode().NodeAttrs.Set(KeyClade, "changed")

	expect.EQ(t, len(tr.RootNode().Children), 2)
	expect.EQ(t, tr.RootNode().NodeAttrs.Clade(), "19A")
	expect.EQ(t, c.AttachPasses(), 1)
	expect.EQ(t, tr.Len(), 4)
}

func TestSetConfig(t *testing.T) {
	tr := readTestTree(t)
	m := mask.New([]mutation.Range{{Begin: 0, End: 10}})
	tr.SetConfig(Config{DivergenceUnits: NumSubstitutionsPerYearPerSite, Mask: m})
	tr.Preorder(func(n *Node) bool {
		expect.EQ(t, n.Tmp.DivergenceUnits, NumSubstitutionsPerYearPerSite)
		expect.True(t, n.Tmp.Mask == m)
		return true
	})
	expect.EQ(t, tr.AddNew("x").Tmp.DivergenceUnits, NumSubstitutionsPerYearPerSite)
}

func TestDivergenceUnits(t *testing.T) {
	expect.EQ(t, ParseDivergenceUnits("NumSubstitutionsPerYearPerSite"), NumSubstitutionsPerYearPerSite)
	expect.EQ(t, ParseDivergenceUnits("count"), NumSubstitutionsPerYear)
	expect.EQ(t, ParseDivergenceUnits("furlongs"), NumSubstitutionsPerYear)

	tr := readTestTree(t)
	expect.EQ(t, GuessDivergenceUnits(tr), NumSubstitutionsPerYearPerSite)
	tr.RootNode().NodeAttrs.SetDiv(12)
	expect.EQ(t, GuessDivergenceUnits(tr), NumSubstitutionsPerYear)
	expect.EQ(t, GuessDivergenceUnits(New("r")), NumSubstitutionsPerYear)
}
