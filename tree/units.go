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
	"strings"

	"github.com/grailbio/base/log"
)

// DivergenceUnits is the unit in which node divergence is measured.
type DivergenceUnits int

const (
	// NumSubstitutionsPerYear measures divergence as a plain substitution
	// count. It is the fallback for unknown configuration values.
	NumSubstitutionsPerYear DivergenceUnits = iota
	// NumSubstitutionsPerYearPerSite measures divergence per reference site.
	NumSubstitutionsPerYearPerSite
)

// maxPerSiteDivergence is the largest tree divergence that is still read as
// per-site units when the units are not configured.
const maxPerSiteDivergence = 5.0

func (u DivergenceUnits) String() string {
	switch u {
	case NumSubstitutionsPerYearPerSite:
		return "NumSubstitutionsPerYearPerSite"
	default:
		return "NumSubstitutionsPerYear"
	}
}

// ParseDivergenceUnits parses a configured unit name. Unknown names fall back
// to NumSubstitutionsPerYear after logging an error.
func ParseDivergenceUnits(s string) DivergenceUnits {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numsubstitutionsperyearpersite", "per-site", "persite", "site":
		return NumSubstitutionsPerYearPerSite
	case "numsubstitutionsperyear", "count", "substitutions":
		return NumSubstitutionsPerYear
	default:
		log.Error.Printf("unknown divergence units %q, using %v", s, NumSubstitutionsPerYear)
		return NumSubstitutionsPerYear
	}
}

// GuessDivergenceUnits infers the units from the largest divergence found in
// t. Trees without any divergence use NumSubstitutionsPerYear.
func GuessDivergenceUnits(t *Tree) DivergenceUnits {
	maxDiv, found := 0.0, false
	t.Preorder(func(n *Node) bool {
		if d := n.NodeAttrs.Div; d != nil {
			found = true
			if *d > maxDiv {
				maxDiv = *d
			}
		}
		return true
	})
	if found && maxDiv <= maxPerSiteDivergence {
		return NumSubstitutionsPerYearPerSite
	}
	return NumSubstitutionsPerYear
}
