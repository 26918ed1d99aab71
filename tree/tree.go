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

// Package tree implements the reference phylogenetic tree that new sequences
// are placed on.
//
// Nodes live in an arena owned by the Tree and refer to each other by Key, so
// the tree can be grouped by node identifier before it is mutated. Every node
// present when the tree is loaded is a reference node; nodes added later are
// not. A Tree may be read concurrently, but must be mutated by a single
// writer.
package tree

import (
	"encoding/json"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/phyloplace/mask"
)

// Key addresses a node in the tree arena.
type Key int

// NoKey is the parent of the root.
const NoKey Key = -1

// Tmp is per-run scratch state of a node. It is copied from the tree Config
// and never serialized.
type Tmp struct {
	DivergenceUnits DivergenceUnits
	Mask            *mask.Mask
	RefLen          int
}

// Node is one tree node.
type Node struct {
	// Key is the arena slot of the node.
	Key Key
	// ID identifies the node for the lifetime of a run. Reference nodes are
	// numbered in preorder at load time.
	ID int
	// IsRef is true for nodes present when the tree was loaded.
	IsRef    bool
	Name     string
	Parent   Key
	Children []Key

	NodeAttrs   NodeAttrs
	BranchAttrs BranchAttrs
	Tmp         Tmp

	// Other holds unrecognized fields of the node object.
	Other map[string]json.RawMessage
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

func (n *Node) String() string {
	return fmt.Sprintf("%s(id=%d,ref=%v)", n.Name, n.ID, n.IsRef)
}

// Config is the run-global configuration attached to a tree.
type Config struct {
	DivergenceUnits DivergenceUnits
	// Mask holds the placement mask ranges.
	Mask *mask.Mask
	// RefLen is the length of the reference sequence.
	RefLen int
}

// Tree is an arena of nodes rooted at Root.
type Tree struct {
	Root Key
	// Meta is the Auspice "meta" object, kept verbatim.
	Meta map[string]json.RawMessage
	// Other holds unrecognized top-level fields.
	Other map[string]json.RawMessage

	config       Config
	nodes        []*Node
	byID         map[int]Key
	nextID       int
	attachPasses int
}

// New returns a tree holding only a reference root named rootName.
func New(rootName string) *Tree {
	t := &Tree{byID: map[int]Key{}}
	root := t.add(&Node{Name: rootName, IsRef: true, Parent: NoKey})
	t.Root = root.Key
	return t
}

func (t *Tree) add(n *Node) *Node {
	n.Key = Key(len(t.nodes))
	if n.IsRef {
		n.ID = t.nextID
		t.nextID++
		t.byID[n.ID] = n.Key
	}
	n.Tmp = Tmp(t.config)
	t.nodes = append(t.nodes, n)
	return n
}

// AddRef appends a new reference node under parent. It is used while
// building a tree; nodes added after loading must use AddNew.
func (t *Tree) AddRef(parent Key, name string) *Node {
	n := t.add(&Node{Name: name, IsRef: true, Parent: parent})
	p := t.Node(parent)
	p.Children = append(p.Children, n.Key)
	return n
}

// AddNew creates a detached non-reference node with a fresh identifier.
func (t *Tree) AddNew(name string) *Node {
	n := t.add(&Node{Name: name, Parent: NoKey})
	n.ID = t.nextID
	t.nextID++
	return n
}

// CloneDetached creates a detached copy of node k. The copy keeps the ID,
// IsRef flag, name and attributes of the original, but has no children. It is
// not registered for lookup by ID, so Lookup keeps resolving to the original.
func (t *Tree) CloneDetached(k Key) *Node {
	orig := t.Node(k)
	c := &Node{
		Key:         Key(len(t.nodes)),
		ID:          orig.ID,
		IsRef:       orig.IsRef,
		Name:        orig.Name,
		Parent:      NoKey,
		NodeAttrs:   orig.NodeAttrs.Clone(),
		BranchAttrs: orig.BranchAttrs.Clone(),
		Tmp:         orig.Tmp,
		Other:       cloneRaw(orig.Other),
	}
	t.nodes = append(t.nodes, c)
	return c
}

// AppendChild makes child the last child of parent.
func (t *Tree) AppendChild(parent, child Key) {
	p := t.Node(parent)
	p.Children = append(p.Children, child)
	t.Node(child).Parent = parent
}

// PrependChild makes child the first child of parent.
func (t *Tree) PrependChild(parent, child Key) {
	p := t.Node(parent)
	p.Children = append(p.Children, 0)
	copy(p.Children[1:], p.Children)
	p.Children[0] = child
	t.Node(child).Parent = parent
}

// Node returns the node at k. It panics if k is not in the arena.
func (t *Tree) Node(k Key) *Node {
	return t.nodes[k]
}

// RootNode returns the root node.
func (t *Tree) RootNode() *Node { return t.nodes[t.Root] }

// Len returns the number of nodes in the arena, including detached ones.
func (t *Tree) Len() int { return len(t.nodes) }

// Lookup returns the reference node with the given identifier.
func (t *Tree) Lookup(id int) (*Node, bool) {
	k, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return t.nodes[k], true
}

// Config returns the run-global configuration.
func (t *Tree) Config() Config { return t.config }

// SetConfig attaches cfg to the tree and copies it into the scratch state of
// every node.
func (t *Tree) SetConfig(cfg Config) {
	t.config = cfg
	for _, n := range t.nodes {
		n.Tmp = Tmp(cfg)
	}
}

// Preorder calls fn on every node reachable from the root, parents before
// children and children in order. If fn returns false, the children of that
// node are skipped.
func (t *Tree) Preorder(fn func(n *Node) bool) {
	var visit func(k Key)
	visit = func(k Key) {
		n := t.nodes[k]
		if !fn(n) {
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(t.Root)
}

// PathFromRoot returns the keys from the root down to k, inclusive.
func (t *Tree) PathFromRoot(k Key) []Key {
	var path []Key
	for ; k != NoKey; k = t.nodes[k].Parent {
		path = append(path, k)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// BeginAttachPass records the start of an attachment pass and returns the
// number of passes recorded so far, including this one.
func (t *Tree) BeginAttachPass() int {
	t.attachPasses++
	return t.attachPasses
}

// AttachPasses returns the number of attachment passes run on t.
func (t *Tree) AttachPasses() int { return t.attachPasses }

// Clone returns a deep copy of t, including detached nodes.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		Root:         t.Root,
		Meta:         cloneRaw(t.Meta),
		Other:        cloneRaw(t.Other),
		config:       t.config,
		nodes:        make([]*Node, len(t.nodes)),
		byID:         make(map[int]Key, len(t.byID)),
		nextID:       t.nextID,
		attachPasses: t.attachPasses,
	}
	for i, n := range t.nodes {
		cn := *n
		cn.Children = append([]Key(nil), n.Children...)
		cn.NodeAttrs = n.NodeAttrs.Clone()
		cn.BranchAttrs = n.BranchAttrs.Clone()
		cn.Other = cloneRaw(n.Other)
		c.nodes[i] = &cn
	}
	for id, k := range t.byID {
		c.byID[id] = k
	}
	return c
}

// Validate checks the parent and child links of every reachable node.
func (t *Tree) Validate() error {
	seen := make([]bool, len(t.nodes))
	var err error
	t.Preorder(func(n *Node) bool {
		if err != nil {
			return false
		}
		if seen[n.Key] {
			err = errors.E(errors.Integrity, fmt.Sprintf("node %v is reachable twice", n))
			return false
		}
		seen[n.Key] = true
		for _, c := range n.Children {
			if t.nodes[c].Parent != n.Key {
				err = errors.E(errors.Integrity, fmt.Sprintf("node %v has parent %d, want %d", t.nodes[c], t.nodes[c].Parent, n.Key))
				return false
			}
		}
		return true
	})
	return err
}
