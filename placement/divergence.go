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

package placement

import (
	"github.com/grailbio/phyloplace/mask"
	"github.com/grailbio/phyloplace/mutation"
	"github.com/grailbio/phyloplace/tree"
)

// Divergence returns the divergence of a node placed below a parent with
// divergence parentDiv and separated from it by nPrivateSubs substitutions.
//
// The branch length is the substitution count, divided by refLen when units
// is NumSubstitutionsPerYearPerSite. Any other units value is treated as a
// plain count.
func Divergence(parentDiv float64, nPrivateSubs int, units tree.DivergenceUnits, refLen int) float64 {
	branch := float64(nPrivateSubs)
	switch units {
	case tree.NumSubstitutionsPerYearPerSite:
		branch /= float64(refLen)
	default:
	}
	return parentDiv + branch
}

// BranchLength returns the length of a branch carrying subs. Substitutions
// inside m are not counted.
func BranchLength(subs []mutation.NucSub, m *mask.Mask, units tree.DivergenceUnits, refLen int) float64 {
	n := 0
	for _, s := range subs {
		if !m.Contains(s.Pos) {
			n++
		}
	}
	return Divergence(0, n, units, refLen)
}
