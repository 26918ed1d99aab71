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

package results

import (
	"bytes"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/phyloplace/mutation"
	"github.com/grailbio/phyloplace/placement"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func testResult() placement.Result {
	return placement.Result{
		Index:         1,
		SeqName:       "q1",
		Clade:         "20A",
		NearestNodeID: 7,
		Distance:      2,
		Divergence:    1.5,
		PrivateNuc: mutation.PrivateNuc{
			Substitutions: []mutation.NucSub{{Pos: 9, Ref: 'A', Qry: 'T'}},
			Deletions:     []mutation.NucDel{{Pos: 20, Ref: 'C'}, {Pos: 21, Ref: 'G'}},
			Reversions:    []mutation.NucSub{{Pos: 2, Ref: 'G', Qry: 'A'}},
		},
		PrivateAa: map[string]mutation.PrivateAa{
			"S":    {Substitutions: []mutation.AaSub{{Gene: "S", Pos: 500, Ref: 'N', Qry: 'Y'}}},
			"ORF1": {Deletions: []mutation.AaDel{{Gene: "ORF1", Pos: 3, Ref: 'S'}}},
		},
		AlignmentRange: mutation.Range{Begin: 0, End: 100},
		AlignmentScore: 90,
		Missing:        []mutation.LetterRange{{Range: mutation.Range{Begin: 50, End: 55}, Letter: 'N'}},
	}
}

func TestFromResult(t *testing.T) {
	row := FromResult(testResult())
	expect.EQ(t, row.PrivateSubstitutions, "A10T")
	expect.EQ(t, row.PrivateDeletions, "21-22")
	expect.EQ(t, row.PrivateReversions, "G3A")
	expect.EQ(t, row.PrivateAaMutations, "ORF1:S4-,S:N501Y")
	expect.EQ(t, row.AlignmentStart, "1")
	expect.EQ(t, row.AlignmentEnd, "100")
	expect.EQ(t, row.TotalMissing, int64(5))
	expect.EQ(t, row.Missing, "51-55")
	expect.EQ(t, row.Divergence, "1.5")
}

func TestWriteRead(t *testing.T) {
	rows := []Row{
		FromResult(testResult()),
		FromError(0, "q0", errors.E(errors.NotExist, "unable to align")),
	}
	var buf bytes.Buffer
	assert.NoError(t, Write(&buf, rows))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.EQ(t, len(lines), 3)
	expect.True(t, strings.HasPrefix(lines[0], "index\tseqName\tclade\t"))
	expect.True(t, strings.HasPrefix(lines[1], "0\tq0\t"))

	got, err := Read(&buf)
	assert.NoError(t, err)
	assert.EQ(t, len(got), 2)
	expect.EQ(t, got[0].SeqName, "q0")
	expect.True(t, strings.Contains(got[0].Errors, "unable to align"))
	expect.EQ(t, got[1], rows[0])
}
