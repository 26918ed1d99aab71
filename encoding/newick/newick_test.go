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

package newick_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/grailbio/phyloplace/encoding/newick"
	"github.com/grailbio/phyloplace/tree"
	"github.com/grailbio/testutil/assert"
	tassert "github.com/stretchr/testify/assert"
)

func TestWrite(t *testing.T) {
	tr := tree.New("root")
	tr.RootNode().NodeAttrs.SetDiv(0)
	a := tr.AddRef(tr.Root, "A")
	a.NodeAttrs.SetDiv(1.5)
	b := tr.AddRef(tr.Root, "B")
	b.NodeAttrs.SetDiv(2)
	tr.AddRef(b.Key, "B1")

	gt := newick.Convert(tr)
	assert.EQ(t, len(gt.Tips()), 2)

	var buf bytes.Buffer
	assert.NoError(t, newick.Write(&buf, tr))
	got := buf.String()
	tassert.Contains(t, got, "A:1.5")
	tassert.Contains(t, got, "B1")
	tassert.Contains(t, got, "B:2")
	tassert.True(t, strings.HasSuffix(got, "root;\n"), got)
}
