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
	"runtime"

	"github.com/grailbio/phyloplace/align"
	"github.com/grailbio/phyloplace/placement"
	"github.com/prometheus/client_golang/prometheus"
)

// Opts controls a placement run.
type Opts struct {
	// Parallelism is the number of workers aligning and placing queries.
	Parallelism int
	Align       align.Opts
	Placement   placement.Opts
	// DivergenceUnits names the units of the tree divergence. If empty, they
	// are guessed from the tree.
	DivergenceUnits string
	// MaxMissing is the number of N letters above which a query is reported
	// with QC status "bad".
	MaxMissing int
	// MaxNonACGTNs is the number of ambiguous letters, other than N, above
	// which a query is reported with QC status "bad".
	MaxNonACGTNs int
	// Registerer receives the run metrics. If nil, metrics are collected but
	// not registered. Metrics are registered once per Run, so a Registerer
	// serves a single run.
	Registerer prometheus.Registerer
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	Parallelism:  runtime.NumCPU(),
	Align:        align.DefaultOpts,
	Placement:    placement.DefaultOpts,
	MaxMissing:   3000,
	MaxNonACGTNs: 10,
}
