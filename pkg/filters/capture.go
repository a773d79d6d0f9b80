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

package filters

import (
	"sync"
	"time"

	"bflow"
	"bflow/pkg/filter"
	"bflow/pkg/property"
	"bflow/pkg/ringbuffer"
)

// Capture is an in-memory sink filter for tests and demos: it appends every
// sample it reads to an internal slice, safe for concurrent reads from the
// test goroutine while the worker is still running.
type Capture struct {
	*filter.Filter
	mu      sync.Mutex
	samples []float32
	done    bool
}

// NewCapture constructs a Capture reading from in.
func NewCapture(name string, in *ringbuffer.BatchBuffer, timeout time.Duration) *Capture {
	c := &Capture{}
	c.Filter = filter.New(filter.Config{
		Name:       name,
		FilterType: "capture",
		WorkerFn:   func(f *filter.Filter) { c.workerLoop(f) },
		MaxSinks:   0,
		TimeoutNs:  timeout,
	}, []*ringbuffer.BatchBuffer{in}, filter.Ops{})
	return c
}

func (c *Capture) workerLoop(f *filter.Filter) {
	consumeInput0(f, func(batch *bflow.Batch, complete bool) {
		n := batch.Head
		c.mu.Lock()
		c.samples = append(c.samples, batch.Float32s()[:n]...)
		if complete {
			c.done = true
		}
		c.mu.Unlock()
	})
}

// Samples returns a copy of every sample captured so far.
func (c *Capture) Samples() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float32(nil), c.samples...)
}

// Done reports whether a COMPLETE batch has been observed.
func (c *Capture) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Capture) Constraints() []property.Constraint {
	return []property.Constraint{property.Exists{Port: 0, Key: property.DataType}}
}
func (c *Capture) Behaviors() []property.Behavior { return nil }
