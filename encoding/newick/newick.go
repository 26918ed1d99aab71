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

// Package newick exports a placement tree in Newick format.
//
// Branch lengths are differences of the Auspice cumulative divergence between
// a node and its parent. A branch whose endpoints lack a divergence has no
// length.
package newick

import (
	"io"

	gotree "github.com/evolbioinfo/gotree/tree"
	"github.com/grailbio/phyloplace/tree"
	"github.com/pkg/errors"
)

// Convert builds the gotree representation of t.
func Convert(t *tree.Tree) *gotree.Tree {
	out := gotree.NewTree()
	var build func(n *tree.Node) *gotree.Node
	build = func(n *tree.Node) *gotree.Node {
		gn := out.NewNode()
		gn.SetName(n.Name)
		for _, k := range n.Children {
			c := t.Node(k)
			e := out.ConnectNodes(gn, build(c))
			if n.NodeAttrs.Div != nil && c.NodeAttrs.Div != nil {
				e.SetLength(*c.NodeAttrs.Div - *n.NodeAttrs.Div)
			}
		}
		return gn
	}
	out.SetRoot(build(t.RootNode()))
	return out
}

// Write writes t to w as a single Newick line.
func Write(w io.Writer, t *tree.Tree) error {
	_, err := io.WriteString(w, Convert(t).Newick()+"\n")
	return errors.Wrap(err, "newick write")
}
