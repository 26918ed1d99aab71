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

package primers

import (
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/phyloplace/alphabet"
	"github.com/grailbio/phyloplace/mutation"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const primerTSV = `name	begin	end
# ARTIC v3
nCoV_R	20	30
nCoV_L	1	10
`

func TestRead(t *testing.T) {
	p, err := Read(strings.NewReader(primerTSV))
	assert.NoError(t, err)
	expect.EQ(t, p, []Primer{
		{Name: "nCoV_L", Range: mutation.Range{Begin: 0, End: 10}},
		{Name: "nCoV_R", Range: mutation.Range{Begin: 19, End: 30}},
	})

	_, err = Read(strings.NewReader("name\tbegin\tend\nbad\t10\t5\n"))
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestFindChanges(t *testing.T) {
	p, err := Read(strings.NewReader(primerTSV))
	assert.NoError(t, err)
	subs := []mutation.NucSub{
		{Pos: 4, Ref: alphabet.A, Qry: alphabet.G},
		{Pos: 9, Ref: alphabet.C, Qry: alphabet.R},
		{Pos: 15, Ref: alphabet.C, Qry: alphabet.T},
		{Pos: 19, Ref: alphabet.G, Qry: alphabet.T},
		{Pos: 29, Ref: alphabet.T, Qry: alphabet.A},
	}
	changes := FindChanges(p, subs)
	expect.EQ(t, len(changes), 2)
	expect.EQ(t, Total(changes), 3)
	expect.EQ(t, Format(changes, ", "), "nCoV_L:A5G, nCoV_R:G20T;T30A")
	expect.EQ(t, len(FindChanges(p, nil)), 0)
}
