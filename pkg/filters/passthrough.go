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

// consumeInput0 is the shared single-input worker shape: block on GetTail,
// hand the batch (and whether it carries COMPLETE) to process, release the
// slot, record the batch, and exit once COMPLETE has been propagated or the
// buffer reports STOPPED.
func consumeInput0(f *filter.Filter, process func(batch *bflow.Batch, complete bool)) {
	in := f.Input(0)
	for f.Running() {
		batch, ec := in.GetTail(f.Timeout())
		switch ec {
		case bflow.ErrTimeout:
			continue
		case bflow.ErrStopped:
			return
		}
		complete := ec == bflow.ErrComplete
		n := batch.Head
		process(batch, complete)
		in.ReleaseTail()
		f.RecordBatch(n)
		if complete {
			return
		}
	}
}

// Passthrough copies every batch from its single input to its single
// output unchanged.
type Passthrough struct {
	*filter.Filter
}

// NewPassthrough constructs a Passthrough reading from in.
func NewPassthrough(name string, in *ringbuffer.BatchBuffer, timeout time.Duration) *Passthrough {
	p := &Passthrough{}
	p.Filter = filter.New(filter.Config{
		Name:        name,
		FilterType:  "passthrough",
		WorkerFn:    passthroughWorker,
		MaxSinks:    1,
		TimeoutNs:   timeout,
		RequireSink: true,
	}, []*ringbuffer.BatchBuffer{in}, filter.Ops{})
	return p
}

func passthroughWorker(f *filter.Filter) {
	consumeInput0(f, func(batch *bflow.Batch, complete bool) {
		n := batch.Head
		data := append([]float32(nil), batch.Float32s()[:n]...)
		f.SubmitToSink(0, func(dst *bflow.Batch) {
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
	})
}

func (p *Passthrough) Constraints() []property.Constraint { return nil }
func (p *Passthrough) Behaviors() []property.Behavior {
	return []property.Behavior{
		property.Preserve{Key: property.DataType, Input: 0},
		property.Preserve{Key: property.SamplePeriodNs, Input: 0},
		property.Preserve{Key: property.GuaranteeFull, Input: 0},
	}
}
