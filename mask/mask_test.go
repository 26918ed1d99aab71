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

package mask

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/phyloplace/mutation"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestMaskMerge(t *testing.T) {
	m := New([]mutation.Range{{Begin: 20, End: 30}, {Begin: 0, End: 5}, {Begin: 25, End: 40}, {Begin: 5, End: 7}, {Begin: 50, End: 50}})
	expect.EQ(t, m.Ranges(), []mutation.Range{{Begin: 0, End: 7}, {Begin: 20, End: 40}})
	expect.EQ(t, m.Len(), 27)
	expect.EQ(t, m.String(), "1-7,21-40")
	for _, test := range []struct {
		pos  int
		want bool
	}{
		{-1, false}, {0, true}, {6, true}, {7, false}, {19, false},
		{20, true}, {39, true}, {40, false}, {50, false},
	} {
		expect.EQ(t, m.Contains(test.pos), test.want, "pos %d", test.pos)
	}
}

func TestNilMask(t *testing.T) {
	var m *Mask
	expect.False(t, m.Contains(3))
	expect.EQ(t, m.Len(), 0)
	expect.False(t, New(nil).Contains(0))
}

func TestReadBED(t *testing.T) {
	bed := `# placement mask
track name=mask
MN908947.3	0	55
MN908947.3	29803 29903	extra
`
	m, err := ReadBED(strings.NewReader(bed))
	assert.NoError(t, err)
	expect.EQ(t, m.Ranges(), []mutation.Range{{Begin: 0, End: 55}, {Begin: 29803, End: 29903}})

	_, err = ReadBED(strings.NewReader("chr\t10\n"))
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = ReadBED(strings.NewReader("chr\t10\t5\n"))
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestReadBEDPath(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, "mask.bed")
	assert.NoError(t, os.WriteFile(path, []byte("ref\t100\t200\n"), 0644))
	m, err := ReadBEDPath(context.Background(), path)
	assert.NoError(t, err)
	expect.True(t, m.Contains(150))
	expect.False(t, m.Contains(200))
}
