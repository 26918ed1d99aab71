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
	"encoding/json"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/phyloplace/mutation"
)

// jsonNode is the Auspice v2 node object.
type jsonNode struct {
	Name        string                     `json:"name"`
	BranchAttrs BranchAttrs                `json:"branch_attrs"`
	NodeAttrs   NodeAttrs                  `json:"node_attrs"`
	Children    []*jsonNode                `json:"children,omitempty"`
	Other       map[string]json.RawMessage `json:"-"`
}

var knownNodeKeys = []string{"name", "branch_attrs", "node_attrs", "children"}

func (n *jsonNode) UnmarshalJSON(data []byte) error {
	type plain jsonNode
	if err := json.Unmarshal(data, (*plain)(n)); err != nil {
		return err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for _, k := range knownNodeKeys {
		delete(m, k)
	}
	if len(m) > 0 {
		n.Other = m
	}
	return nil
}

func (n *jsonNode) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(n.Other)+4)
	for k, v := range n.Other {
		m[k] = v
	}
	m["name"] = n.Name
	m["branch_attrs"] = n.BranchAttrs
	m["node_attrs"] = n.NodeAttrs
	if len(n.Children) > 0 {
		m["children"] = n.Children
	}
	return json.Marshal(m)
}

// ReadJSON parses an Auspice v2 tree. Every node is a reference node, and
// identifiers are assigned in preorder starting from zero at the root.
func ReadJSON(r io.Reader) (*Tree, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.E(errors.Invalid, err, "parsing tree json")
	}
	rawRoot, ok := doc["tree"]
	if !ok {
		return nil, errors.E(errors.Invalid, "tree json has no \"tree\" field")
	}
	var root jsonNode
	if err := json.Unmarshal(rawRoot, &root); err != nil {
		return nil, errors.E(errors.Invalid, err, "parsing tree json")
	}
	t := &Tree{byID: map[int]Key{}}
	if raw, ok := doc["meta"]; ok {
		if err := json.Unmarshal(raw, &t.Meta); err != nil {
			return nil, errors.E(errors.Invalid, err, "parsing tree meta")
		}
	}
	delete(doc, "tree")
	delete(doc, "meta")
	if len(doc) > 0 {
		t.Other = doc
	}
	var build func(jn *jsonNode, parent Key) Key
	build = func(jn *jsonNode, parent Key) Key {
		n := t.add(&Node{
			Name:        jn.Name,
			IsRef:       true,
			Parent:      parent,
			NodeAttrs:   jn.NodeAttrs,
			BranchAttrs: jn.BranchAttrs,
			Other:       jn.Other,
		})
		for _, c := range jn.Children {
			ck := build(c, n.Key)
			n.Children = append(n.Children, ck)
		}
		return n.Key
	}
	t.Root = build(&root, NoKey)
	return t, nil
}

// WriteJSON writes t as an Auspice v2 tree. Detached nodes are not written.
func WriteJSON(w io.Writer, t *Tree) error {
	var export func(k Key) *jsonNode
	export = func(k Key) *jsonNode {
		n := t.Node(k)
		jn := &jsonNode{
			Name:        n.Name,
			BranchAttrs: n.BranchAttrs,
			NodeAttrs:   n.NodeAttrs,
			Other:       n.Other,
		}
		for _, c := range n.Children {
			jn.Children = append(jn.Children, export(c))
		}
		return jn
	}
	doc := make(map[string]interface{}, len(t.Other)+2)
	for k, v := range t.Other {
		doc[k] = v
	}
	if t.Meta != nil {
		doc["meta"] = t.Meta
	}
	doc["tree"] = export(t.Root)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

type nextcladeExtension struct {
	CladeNodeAttrs []struct {
		Name string `json:"name"`
	} `json:"clade_node_attrs"`
	PlacementMaskRanges []struct {
		Begin int `json:"begin"`
		End   int `json:"end"`
	} `json:"placement_mask_ranges"`
}

func (t *Tree) nextcladeExtension() (nextcladeExtension, error) {
	var ext nextcladeExtension
	raw, ok := t.Meta["extensions"]
	if !ok {
		return ext, nil
	}
	var exts map[string]json.RawMessage
	if err := json.Unmarshal(raw, &exts); err != nil {
		return ext, errors.E(errors.Invalid, err, "meta.extensions")
	}
	if raw, ok = exts["nextclade"]; !ok {
		return ext, nil
	}
	if err := json.Unmarshal(raw, &ext); err != nil {
		return ext, errors.E(errors.Invalid, err, "meta.extensions.nextclade")
	}
	return ext, nil
}

// CladeNodeAttrKeys returns the names of the custom clade-defining node
// attributes declared in the tree meta.
func (t *Tree) CladeNodeAttrKeys() ([]string, error) {
	ext, err := t.nextcladeExtension()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(ext.CladeNodeAttrs))
	for i, a := range ext.CladeNodeAttrs {
		keys[i] = a.Name
	}
	return keys, nil
}

// PlacementMaskRanges returns the placement mask declared in the tree meta.
func (t *Tree) PlacementMaskRanges() ([]mutation.Range, error) {
	ext, err := t.nextcladeExtension()
	if err != nil {
		return nil, err
	}
	ranges := make([]mutation.Range, len(ext.PlacementMaskRanges))
	for i, r := range ext.PlacementMaskRanges {
		ranges[i] = mutation.Range{Begin: r.Begin, End: r.End}
	}
	return ranges, nil
}
