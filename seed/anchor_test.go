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

package seed

import (
	"math/rand"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/phyloplace/alphabet"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func randomSeq(r *rand.Rand, n int) []alphabet.Nuc {
	letters := []alphabet.Nuc{alphabet.A, alphabet.C, alphabet.G, alphabet.T}
	seq := make([]alphabet.Nuc, n)
	for i := range seq {
		seq[i] = letters[r.Intn(len(letters))]
	}
	return seq
}

func testOpts() Opts {
	return Opts{KmerLength: 12, SeedSpacing: 40, MinSeeds: 3, MismatchesAllowed: 2}
}

func TestSeedPositions(t *testing.T) {
	expect.EQ(t, seedPositions(100, 10, 4), []int{0, 30, 60, 90})
	expect.EQ(t, seedPositions(10, 10, 4), []int{0})
	expect.EQ(t, seedPositions(12, 10, 5), []int{0, 1, 2})
	expect.EQ(t, len(seedPositions(5, 10, 4)), 0)
}

func TestFindAnchorSubsequence(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	ref := randomSeq(r, 1000)
	qry := append([]alphabet.Nuc(nil), ref[250:700]...)
	// Sprinkle a few substitutions.
	for _, p := range []int{17, 101, 333} {
		if qry[p] == alphabet.A {
			qry[p] = alphabet.C
		} else {
			qry[p] = alphabet.A
		}
	}
	a, err := FindAnchor(qry, ref, testOpts())
	require.NoError(t, err)
	expect.EQ(t, a.Shift, 250)
	expect.True(t, len(a.Hits) >= 3)
	for i := 1; i < len(a.Hits); i++ {
		expect.True(t, a.Hits[i].RefPos >= a.Hits[i-1].RefPos)
	}
}

func TestFindAnchorSkipsAmbiguousSeeds(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	ref := randomSeq(r, 600)
	qry := append([]alphabet.Nuc(nil), ref[100:500]...)
	for i := 0; i < 30; i++ {
		qry[i] = alphabet.N
	}
	a, err := FindAnchor(qry, ref, testOpts())
	require.NoError(t, err)
	expect.EQ(t, a.Shift, 100)
	expect.True(t, a.Tried < len(seedPositions(len(qry), 12, len(qry)/40)))
}

func TestFindAnchorReverseComplementFails(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	ref := randomSeq(r, 800)
	qry := alphabet.ReverseComplement(ref[200:600])
	_, err := FindAnchor(qry, ref, testOpts())
	expect.True(t, errors.Is(errors.NotExist, err))

	a, err := FindAnchor(alphabet.ReverseComplement(qry), ref, testOpts())
	require.NoError(t, err)
	expect.EQ(t, a.Shift, 200)
}

func TestFindAnchorShortInputs(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	ref := randomSeq(r, 100)
	_, err := FindAnchor(ref[:5], ref, testOpts())
	expect.True(t, errors.Is(errors.NotExist, err))
	_, err = FindAnchor(ref, ref[:12], testOpts())
	expect.True(t, errors.Is(errors.NotExist, err))
	_, err = FindAnchor(ref, ref, Opts{})
	expect.True(t, errors.Is(errors.Invalid, err))
}
