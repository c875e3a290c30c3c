/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package aggregation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeFailed  = "failed"
	outcomeSkipped = "skipped"
)

// Metrics are the collectors shared by every family. Create one per registry and pass
// it to each family with WithMetrics.
type Metrics struct {
	statesCreated *prometheus.CounterVec
	merges        *prometheus.CounterVec
	decodeErrors  *prometheus.CounterVec
}

// NewMetrics registers the collectors with registerer, or with a private registry
// when registerer is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	factory := promauto.With(registerer)
	return &Metrics{
		statesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketch_states_created_total",
				Help: "Number of aggregation states created.",
			},
			[]string{"family", "kind"},
		),
		merges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketch_merges_total",
				Help: "Number of sketch merges into a non empty state.",
			},
			[]string{"family"},
		),
		decodeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sketch_decode_errors_total",
				Help: "Number of sketches that failed to decode.",
			},
			[]string{"family", "outcome"},
		),
	}
}
