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

// Package conformance is the generic compliance suite: one Suite runs
// against any filter built through a Factory, exercising lifecycle,
// connection, data-flow, error, threading, performance, buffer-config, and
// behavioral categories without knowing anything about the filter's
// concrete business logic.
package conformance

import (
	"testing"
	"time"

	"bflow"
	"bflow/pkg/filter"
	"bflow/pkg/ringbuffer"
)

// FilterAPI is the subset of *filter.Filter's public surface the suite
// drives generically. Every concrete reference filter embeds *filter.Filter
// as its first field, so it satisfies this automatically via promotion.
type FilterAPI interface {
	Start() bflow.EC
	Stop() bflow.EC
	Deinit()
	SinkConnect(port int, sink *ringbuffer.BatchBuffer) bflow.EC
	GetStats() filter.Stats
	GetHealth() bflow.EC
	GetBacklog() int
	Describe() string
	Running() bool
	WorkerErr() bflow.WorkerErrInfo
}

// Instance is one freshly constructed filter under test, plus the handles
// the suite needs to drive it: the input buffer to push synthetic batches
// into (nil for a source, which needs none), and a constructor for a sink
// buffer the suite can connect to port 0 (nil for a pure sink filter with
// no output port).
type Instance struct {
	Filter FilterAPI

	// Input is the buffer the suite pushes synthetic batches into. nil for
	// a source filter (no inputs).
	Input *ringbuffer.BatchBuffer

	// MaxSinkPort is one past the highest valid sink port (equivalently,
	// the filter's MaxSinks). 0 for a pure sink filter.
	MaxSinkPort int

	// NewSink constructs a fresh output buffer suitable for SinkConnect.
	// nil when MaxSinkPort == 0.
	NewSink func(t *testing.T) *ringbuffer.BatchBuffer

	// Timeout is the timeout the suite should use for Submit/GetTail calls
	// against this filter's buffers (matches the filter's own configured
	// timeout so blocking tests converge in a bounded time).
	Timeout time.Duration
}

// Factory builds fresh, unconnected, unstarted Instances for one filter
// type. New is called once per subtest so state (e.g. a LowPass's IIR
// memory) never leaks between categories.
type Factory struct {
	// Name labels the top-level subtest (e.g. "Passthrough", "Tee").
	Name string
	New  func(t *testing.T) Instance
}

// Suite runs every compliance category against f, each as its own labelled
// subtest so a single failure identifies both the filter and the property
// violated.
func Suite(t *testing.T, f Factory) {
	t.Run(f.Name, func(t *testing.T) {
		t.Run("Lifecycle", func(t *testing.T) { testLifecycle(t, f) })
		t.Run("Connection", func(t *testing.T) { testConnection(t, f) })
		t.Run("DataFlow", func(t *testing.T) { testDataFlow(t, f) })
		t.Run("Error", func(t *testing.T) { testError(t, f) })
		t.Run("Threading", func(t *testing.T) { testThreading(t, f) })
		t.Run("Performance", func(t *testing.T) { testPerformance(t, f) })
		t.Run("BufferConfig", func(t *testing.T) { testBufferConfig(t, f) })
		t.Run("Behavioral", func(t *testing.T) { testBehavioral(t, f) })
	})
}

// connectSink builds and wires a fresh sink on port 0 (or t.Skip's the
// calling subtest if this filter type has no sink port), returning it.
func connectSink(t *testing.T, inst Instance) *ringbuffer.BatchBuffer {
	t.Helper()
	if inst.MaxSinkPort == 0 {
		t.Skip("filter has no sink port")
	}
	sink := inst.NewSink(t)
	if ec := inst.Filter.SinkConnect(0, sink); ec != bflow.OK {
		t.Fatalf("SinkConnect(0): %v", ec)
	}
	return sink
}

// pushFloat32 writes samples into the next writable batch on buf and
// submits it, optionally marking it COMPLETE (in which case samples is
// ignored and Head is forced to 0, the empty-terminator convention).
func pushFloat32(buf *ringbuffer.BatchBuffer, samples []float32, tNs, periodNs int64, complete bool, timeout time.Duration) bflow.EC {
	head, ec := buf.GetHead()
	if ec != bflow.OK {
		return ec
	}
	if complete {
		head.Head = 0
		head.EC = bflow.ErrComplete
	} else {
		n := copy(head.Float32s(), samples)
		head.Head = n
		head.TNs = tNs
		head.PeriodNs = periodNs
		head.EC = bflow.OK
	}
	return buf.Submit(timeout)
}

// drainUntilComplete reads batches from buf until it observes COMPLETE,
// STOPPED, or a timeout, returning every sample seen and whether COMPLETE
// was observed.
func drainUntilComplete(buf *ringbuffer.BatchBuffer, timeout time.Duration) ([]float32, bool) {
	var out []float32
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		batch, ec := buf.GetTail(50 * time.Millisecond)
		switch ec {
		case bflow.ErrTimeout:
			continue
		case bflow.ErrStopped:
			return out, false
		}
		n := batch.Head
		out = append(out, batch.Float32s()[:n]...)
		complete := ec == bflow.ErrComplete
		buf.ReleaseTail()
		if complete {
			return out, true
		}
	}
	return out, false
}
