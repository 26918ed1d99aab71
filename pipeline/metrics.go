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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	queries        *prometheus.CounterVec
	placeDuration  prometheus.Histogram
	attachDuration prometheus.Histogram
	distance       prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "phyloplace",
			Name:      "queries_total",
			Help:      "Number of queries processed, by outcome.",
		}, []string{"status"}),
		placeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "phyloplace",
			Name:      "query_duration_seconds",
			Help:      "Time to align and place one query.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
		}),
		attachDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "phyloplace",
			Name:      "attach_duration_seconds",
			Help:      "Time to attach all placed queries to the tree.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		distance: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "phyloplace",
			Name:      "nearest_node_distance",
			Help:      "Mutation distance between a query and its nearest node.",
			Buckets:   prometheus.LinearBuckets(0, 2, 20),
		}),
	}
}
