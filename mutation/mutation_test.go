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

package mutation

import (
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/phyloplace/alphabet"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNucSubString(t *testing.T) {
	s := NucSub{Pos: 9, Ref: alphabet.A, Qry: alphabet.T}
	expect.EQ(t, s.String(), "A10T")
	expect.EQ(t, NucDel{Pos: 4, Ref: alphabet.C}.ToSub().String(), "C5-")
	expect.True(t, NucDel{Pos: 4, Ref: alphabet.C}.ToSub().IsDel())

	got, err := ParseNucSub("A10T")
	require.NoError(t, err)
	expect.EQ(t, got, s)
	_, err = ParseNucSub("A0T")
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = ParseNucSub("10T")
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestAaSub(t *testing.T) {
	got, err := ParseAaSub("", "S:N501Y")
	require.NoError(t, err)
	expect.EQ(t, got, AaSub{Gene: "S", Pos: 500, Ref: 'N', Qry: 'Y'})
	expect.EQ(t, got.String(), "S:N501Y")
	expect.EQ(t, got.StringWithoutGene(), "N501Y")

	got, err = ParseAaSub("ORF1a", "T265I")
	require.NoError(t, err)
	expect.EQ(t, got.Gene, "ORF1a")

	_, err = ParseAaSub("", "T265I")
	expect.True(t, errors.Is(errors.Invalid, err))
	expect.EQ(t, AaDel{Gene: "N", Pos: 30, Ref: 'E'}.ToSub().StringWithoutGene(), "E31-")
}

func TestPrivateNucBranchStrings(t *testing.T) {
	p := PrivateNuc{
		Substitutions: []NucSub{
			{Pos: 19, Ref: alphabet.C, Qry: alphabet.G},
			{Pos: 9, Ref: alphabet.A, Qry: alphabet.T},
		},
		Deletions: []NucDel{{Pos: 14, Ref: alphabet.G}},
	}
	expect.EQ(t, p.BranchStrings(), []string{"A10T", "G15-", "C20G"})
	// The input slices are left untouched.
	expect.EQ(t, p.Substitutions[0].Pos, 19)
}

func TestPrivateAaBranchStrings(t *testing.T) {
	p := PrivateAa{
		Substitutions: []AaSub{{Gene: "S", Pos: 613, Ref: 'D', Qry: 'G'}, {Gene: "S", Pos: 500, Ref: 'N', Qry: 'Y'}},
		Deletions:     []AaDel{{Gene: "S", Pos: 68, Ref: 'H'}},
	}
	expect.EQ(t, p.BranchStrings(), []string{"H69-", "N501Y", "D614G"})
}

func TestRanges(t *testing.T) {
	seq, err := alphabet.ParseNucSeq("NNACGRRTNA-")
	require.NoError(t, err)
	ns := FindLetterRanges(seq, 0, len(seq), func(n alphabet.Nuc) bool { return n == alphabet.N })
	assert.Equal(t, []LetterRange{
		{Range{0, 2}, alphabet.N},
		{Range{8, 9}, alphabet.N},
	}, ns)
	amb := FindLetterRanges(seq, 0, len(seq), func(n alphabet.Nuc) bool { return !n.IsACGTN() && !n.IsGap() })
	expect.EQ(t, FormatLetterRanges(amb, ","), "R:6-7")

	expect.EQ(t, FormatRanges([]Range{{0, 2}, {8, 9}}, ", "), "1-2, 9")
	expect.EQ(t, TotalLen([]Range{{0, 2}, {8, 9}}), 3)
	expect.True(t, ContainsAny([]Range{{0, 2}, {8, 9}}, 8))
	expect.False(t, ContainsAny([]Range{{0, 2}, {8, 9}}, 2))

	dels := []NucDel{{Pos: 3}, {Pos: 4}, {Pos: 5}, {Pos: 9}}
	expect.EQ(t, DeletionRanges(dels), []Range{{3, 6}, {9, 10}})
}
