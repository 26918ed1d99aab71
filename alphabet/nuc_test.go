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

package alphabet

import (
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestParseNucSeq(t *testing.T) {
	seq, err := ParseNucSeq("ACgtn-RyU")
	expect.NoError(t, err)
	expect.EQ(t, NucSeqString(seq), "ACGTN-RYT")

	_, err = ParseNucSeq("ACZ")
	expect.True(t, err != nil)
}

func TestClassification(t *testing.T) {
	expect.True(t, Gap.IsGap())
	expect.False(t, N.IsGap())
	expect.True(t, N.IsACGTN())
	expect.True(t, N.IsAmbiguous())
	expect.True(t, R.IsAmbiguous())
	expect.False(t, R.IsACGTN())
	expect.False(t, A.IsAmbiguous())
	expect.False(t, Gap.IsAmbiguous())
}

func TestReverseComplement(t *testing.T) {
	seq, err := ParseNucSeq("AACGTRN-")
	expect.NoError(t, err)
	expect.EQ(t, NucSeqString(ReverseComplement(seq)), "-NYACGTT")
	expect.EQ(t, NucSeqString(ReverseComplement(ReverseComplement(seq))), "AACGTRN-")
}

func TestParseAa(t *testing.T) {
	a, err := ParseAa('k')
	expect.NoError(t, err)
	expect.EQ(t, a, Aa('K'))
	expect.True(t, AaX.IsAmbiguous())
	expect.True(t, AaGap.IsGap())
	_, err = ParseAa('J')
	expect.True(t, err != nil)
}
