// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package filter

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	samplesProcessedMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bflow_filter_samples_processed_total",
		Help: "Total samples processed by a filter.",
	}, []string{"filter"})

	batchesMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bflow_filter_batches_total",
		Help: "Total batches processed by a filter.",
	}, []string{"filter"})
)

func init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(samplesProcessedMetric, batchesMetric)
	})
}

// lastObserved tracks the cumulative value last pushed per filter name,
// since CounterVec only supports Add.
var lastObserved sync.Map

type observed struct {
	mu               sync.Mutex
	samplesProcessed uint64
	nBatches         uint64
}

func observeFilterStats(name string, samplesProcessed, nBatches uint64) {
	if name == "" {
		return
	}
	v, _ := lastObserved.LoadOrStore(name, &observed{})
	o := v.(*observed)
	o.mu.Lock()
	defer o.mu.Unlock()
	if d := samplesProcessed - o.samplesProcessed; d > 0 {
		samplesProcessedMetric.WithLabelValues(name).Add(float64(d))
		o.samplesProcessed = samplesProcessed
	}
	if d := nBatches - o.nBatches; d > 0 {
		batchesMetric.WithLabelValues(name).Add(float64(d))
		o.nBatches = nBatches
	}
}
