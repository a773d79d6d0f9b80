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

package ringbuffer

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are registered once globally and labeled by buffer name.
var (
	registerOnce sync.Once

	totalBatchesMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bflow_ringbuffer_batches_total",
		Help: "Total batches submitted to a ring buffer.",
	}, []string{"buffer"})

	droppedMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bflow_ringbuffer_dropped_by_producer_total",
		Help: "Total batches dropped by the producer under an overflow policy.",
	}, []string{"buffer"})

	blockedNsMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bflow_ringbuffer_blocked_ns_total",
		Help: "Cumulative nanoseconds spent blocked waiting on not-empty/not-full.",
	}, []string{"buffer"})

	occupancyMetric = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bflow_ringbuffer_occupancy",
		Help: "Current number of queued batches in a ring buffer.",
	}, []string{"buffer"})
)

func init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(totalBatchesMetric, droppedMetric, blockedNsMetric, occupancyMetric)
	})
}

// registerBufferMetrics pre-creates the label set for a buffer name so its
// series exist (at zero) even before the first observation.
func registerBufferMetrics(name string) {
	if name == "" {
		return
	}
	totalBatchesMetric.WithLabelValues(name)
	droppedMetric.WithLabelValues(name)
	blockedNsMetric.WithLabelValues(name)
	occupancyMetric.WithLabelValues(name)
}

// observeBufferStats pushes a freshly read snapshot into the Prometheus
// vectors. Stats() reports cumulative totals but CounterVec only supports
// Add, so we track the last-observed value per buffer and add the delta.
var lastObserved sync.Map // buffer name -> *observedCounters

type observedCounters struct {
	mu                sync.Mutex
	totalBatches      uint64
	droppedByProducer uint64
	blockedNs         int64
}

func observeBufferStats(name string, s Stats, occupancy int) {
	if name == "" {
		return
	}
	occupancyMetric.WithLabelValues(name).Set(float64(occupancy))

	v, _ := lastObserved.LoadOrStore(name, &observedCounters{})
	oc := v.(*observedCounters)
	oc.mu.Lock()
	defer oc.mu.Unlock()
	if d := s.TotalBatches - oc.totalBatches; d > 0 {
		totalBatchesMetric.WithLabelValues(name).Add(float64(d))
		oc.totalBatches = s.TotalBatches
	}
	if d := s.DroppedByProducer - oc.droppedByProducer; d > 0 {
		droppedMetric.WithLabelValues(name).Add(float64(d))
		oc.droppedByProducer = s.DroppedByProducer
	}
	if d := s.BlockedNs - oc.blockedNs; d > 0 {
		blockedNsMetric.WithLabelValues(name).Add(float64(d))
		oc.blockedNs = s.BlockedNs
	}
}
