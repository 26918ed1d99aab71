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

package pipeline

import (
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/grailbio/phyloplace/placement"
	"github.com/minio/highwayhash"
)

// Digest fingerprints the placement decisions of a run: for every query, its
// name, nearest node and private nucleotide mutations. It does not depend on
// the order of the queries, even when names repeat.
type Digest [highwayhash.Size]byte

var zeroKey = Digest{}

func (d Digest) String() string { return hex.EncodeToString(d[:16]) }

// DigestResults computes the digest of results.
func DigestResults(results []placement.Result) Digest {
	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	muts := make([][]string, len(results))
	joined := make([]string, len(results))
	for i := range results {
		muts[i] = results[i].PrivateNuc.BranchStrings()
		joined[i] = strings.Join(muts[i], ",")
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := results[order[i]], results[order[j]]
		if a.SeqName != b.SeqName {
			return a.SeqName < b.SeqName
		}
		if a.NearestNodeID != b.NearestNodeID {
			return a.NearestNodeID < b.NearestNodeID
		}
		return joined[order[i]] < joined[order[j]]
	})
	var buf []byte
	putString := func(s string) {
		buf = binary.AppendUvarint(buf, uint64(len(s)))
		buf = append(buf, s...)
	}
	for _, i := range order {
		r := results[i]
		putString(r.SeqName)
		buf = binary.AppendVarint(buf, int64(r.NearestNodeID))
		buf = binary.AppendUvarint(buf, uint64(len(muts[i])))
		for _, m := range muts[i] {
			putString(m)
		}
	}
	return highwayhash.Sum(buf, zeroKey[:])
}
