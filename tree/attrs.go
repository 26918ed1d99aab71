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
	"sort"

	"github.com/grailbio/base/errors"
)

// UnknownValue is the Auspice placeholder for metadata that is not known for
// a node, e.g. the region of a newly placed sequence.
const UnknownValue = "?"

// Keys of the string-valued node attributes understood by this package. Each
// is serialized as {"value": "..."}.
const (
	KeyClade               = "clade_membership"
	KeyNodeType            = "Node type"
	KeyRegion              = "region"
	KeyCountry             = "country"
	KeyDivision            = "division"
	KeyAlignment           = "Alignment"
	KeyMissing             = "Missing"
	KeyGaps                = "Gaps"
	KeyNonACGTNs           = "Non-ACGTNs"
	KeyHasPCRPrimerChanges = "Has PCR primer changes"
	KeyPCRPrimerChanges    = "PCR primer changes"
	KeyMissingGenes        = "Missing genes"
	KeyQCStatus            = "QC Status"
)

const keyDiv = "div"

// NodeAttrs are the Auspice "node_attrs" of a node.
type NodeAttrs struct {
	// Div is the cumulative divergence from the root. Nil if absent.
	Div *float64
	// Values holds the recognized string attributes, keyed by the Key*
	// constants. A missing key means the attribute is absent.
	Values map[string]string
	// Other holds all remaining attributes verbatim, including custom
	// clade-defining attributes.
	Other map[string]json.RawMessage
}

var knownValueKeys = map[string]bool{
	KeyClade: true, KeyNodeType: true, KeyRegion: true, KeyCountry: true,
	KeyDivision: true, KeyAlignment: true, KeyMissing: true, KeyGaps: true,
	KeyNonACGTNs: true, KeyHasPCRPrimerChanges: true, KeyPCRPrimerChanges: true,
	KeyMissingGenes: true, KeyQCStatus: true,
}

type valueAttr struct {
	Value string `json:"value"`
}

// Clade returns the clade_membership value, or "" if absent.
func (a *NodeAttrs) Clade() string { return a.Values[KeyClade] }

// Set sets a recognized string attribute.
func (a *NodeAttrs) Set(key, value string) {
	if a.Values == nil {
		a.Values = map[string]string{}
	}
	a.Values[key] = value
}

// SetDiv sets the divergence.
func (a *NodeAttrs) SetDiv(div float64) { a.Div = &div }

// SetOtherValue stores a custom attribute as {"value": value}.
func (a *NodeAttrs) SetOtherValue(key, value string) {
	data, err := json.Marshal(valueAttr{value})
	if err != nil {
		panic(err)
	}
	if a.Other == nil {
		a.Other = map[string]json.RawMessage{}
	}
	a.Other[key] = data
}

// OtherValue returns the "value" field of a custom attribute.
func (a *NodeAttrs) OtherValue(key string) (string, bool) {
	raw, ok := a.Other[key]
	if !ok {
		return "", false
	}
	var v valueAttr
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v.Value, true
}

// Clone returns a deep copy of a.
func (a NodeAttrs) Clone() NodeAttrs {
	c := NodeAttrs{}
	if a.Div != nil {
		c.SetDiv(*a.Div)
	}
	if a.Values != nil {
		c.Values = make(map[string]string, len(a.Values))
		for k, v := range a.Values {
			c.Values[k] = v
		}
	}
	c.Other = cloneRaw(a.Other)
	return c
}

// MarshalJSON implements json.Marshaler.
func (a NodeAttrs) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(a.Values)+len(a.Other)+1)
	for k, v := range a.Other {
		m[k] = v
	}
	for k, v := range a.Values {
		m[k] = valueAttr{v}
	}
	if a.Div != nil {
		m[keyDiv] = *a.Div
	}
	return json.Marshal(m)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *NodeAttrs) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*a = NodeAttrs{}
	for k, raw := range m {
		switch {
		case k == keyDiv:
			var div float64
			if err := json.Unmarshal(raw, &div); err != nil {
				return errors.E(errors.Invalid, err, "node_attrs.div")
			}
			a.SetDiv(div)
		case knownValueKeys[k]:
			var v valueAttr
			if err := json.Unmarshal(raw, &v); err != nil {
				return errors.E(errors.Invalid, err, "node_attrs."+k)
			}
			a.Set(k, v.Value)
		default:
			if a.Other == nil {
				a.Other = map[string]json.RawMessage{}
			}
			a.Other[k] = raw
		}
	}
	return nil
}

// BranchAttrs are the Auspice "branch_attrs" of a node.
type BranchAttrs struct {
	// Mutations maps a segment name, "nuc" or a gene name, to the ordered
	// mutation strings of the branch leading to the node.
	Mutations map[string][]string
	// Other holds free-form branch attributes such as "labels".
	Other map[string]json.RawMessage
}

// NucSegment is the Mutations key of nucleotide mutations.
const NucSegment = "nuc"

// Clone returns a deep copy of b.
func (b BranchAttrs) Clone() BranchAttrs {
	c := BranchAttrs{Other: cloneRaw(b.Other)}
	if b.Mutations != nil {
		c.Mutations = make(map[string][]string, len(b.Mutations))
		for k, v := range b.Mutations {
			c.Mutations[k] = append(make([]string, 0, len(v)), v...)
		}
	}
	return c
}

// Segments returns the mutation segment names in sorted order.
func (b BranchAttrs) Segments() []string {
	keys := make([]string, 0, len(b.Mutations))
	for k := range b.Mutations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON implements json.Marshaler.
func (b BranchAttrs) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(b.Other)+1)
	for k, v := range b.Other {
		m[k] = v
	}
	if len(b.Mutations) > 0 {
		m["mutations"] = b.Mutations
	}
	return json.Marshal(m)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *BranchAttrs) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*b = BranchAttrs{}
	if raw, ok := m["mutations"]; ok {
		if err := json.Unmarshal(raw, &b.Mutations); err != nil {
			return errors.E(errors.Invalid, err, "branch_attrs.mutations")
		}
		delete(m, "mutations")
	}
	if len(m) > 0 {
		b.Other = m
	}
	return nil
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	c := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		c[k] = append(json.RawMessage(nil), v...)
	}
	return c
}
