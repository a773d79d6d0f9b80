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
	"time"

	"bflow"
	"bflow/pkg/filter"
	"bflow/pkg/property"
	"bflow/pkg/ringbuffer"
)

// Tee copies its single input to every connected sink port (numSinks
// ports, set at construction). Each sink gets its own independent copy of the data: buffers
// are SPSC, so sharing one slice across sinks is not safe.
type Tee struct {
	*filter.Filter
	numSinks int
}

// NewTee constructs a Tee with numSinks output ports.
func NewTee(name string, in *ringbuffer.BatchBuffer, numSinks int, timeout time.Duration) *Tee {
	t := &Tee{numSinks: numSinks}
	t.Filter = filter.New(filter.Config{
		Name:        name,
		FilterType:  "tee",
		WorkerFn:    func(f *filter.Filter) { t.workerLoop(f) },
		MaxSinks:    numSinks,
		TimeoutNs:   timeout,
		RequireSink: true,
	}, []*ringbuffer.BatchBuffer{in}, filter.Ops{})
	return t
}

func (t *Tee) workerLoop(f *filter.Filter) {
	consumeInput0(f, func(batch *bflow.Batch, complete bool) {
		n := batch.Head
		data := append([]float32(nil), batch.Float32s()[:n]...)
		for port := 0; port < t.numSinks; port++ {
			f.SubmitToSink(port, func(dst *bflow.Batch) {
				copy(dst.Float32s(), data)
				dst.Head = n
				dst.TNs = batch.TNs
				dst.PeriodNs = batch.PeriodNs
				if complete {
					dst.EC = bflow.ErrComplete
				} else {
					dst.EC = bflow.OK
				}
			})
		}
	})
}

func (t *Tee) Constraints() []property.Constraint { return nil }
func (t *Tee) Behaviors() []property.Behavior {
	return []property.Behavior{
		property.Preserve{Key: property.DataType, Input: 0},
		property.Preserve{Key: property.SamplePeriodNs, Input: 0},
		property.Preserve{Key: property.GuaranteeFull, Input: 0},
	}
}
