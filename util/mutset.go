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

// Package util holds set operations on mutation lists.
//
// All functions take slices sorted with mutation.LessNucSub and without
// duplicates, and return slices in the same order.
package util

import "github.com/grailbio/phyloplace/mutation"

// SymmetricDifferenceSize returns the number of mutations that are in exactly
// one of a and b.
func SymmetricDifferenceSize(a, b []mutation.NucSub) int {
	i, j, n := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			i++
			j++
		case mutation.LessNucSub(a[i], b[j]):
			n++
			i++
		default:
			n++
			j++
		}
	}
	return n + len(a) - i + len(b) - j
}

// Intersection returns the mutations present in both a and b.
func Intersection(a, b []mutation.NucSub) []mutation.NucSub {
	var out []mutation.NucSub
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case mutation.LessNucSub(a[i], b[j]):
			i++
		default:
			j++
		}
	}
	return out
}

// Difference returns the mutations of a that are not in b.
func Difference(a, b []mutation.NucSub) []mutation.NucSub {
	var out []mutation.NucSub
	i, j := 0, 0
	for i < len(a) {
		switch {
		case j == len(b) || mutation.LessNucSub(a[i], b[j]):
			out = append(out, a[i])
			i++
		case a[i] == b[j]:
			i++
			j++
		default:
			j++
		}
	}
	return out
}

// Dedup removes adjacent duplicates from a sorted slice in place.
func Dedup(a []mutation.NucSub) []mutation.NucSub {
	if len(a) == 0 {
		return a
	}
	out := a[:1]
	for _, m := range a[1:] {
		if m != out[len(out)-1] {
			out = append(out, m)
		}
	}
	return out
}
