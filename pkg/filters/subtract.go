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

// Subtract is a two-input, elementwise filter: output[i] = inputs[0][i] -
// inputs[1][i]. Both inputs must be aligned on SAMPLE_PERIOD_NS (enforced
// by MULTI_INPUT_ALIGNED) and deliver batches of matching length; Subtract
// reads one batch from each input per iteration (requires both producers
// to advance roughly in lockstep, true for a shared upstream source such as
// a Tee).
type Subtract struct {
	*filter.Filter
}

// NewSubtract constructs a Subtract reading from two inputs.
func NewSubtract(name string, a, b *ringbuffer.BatchBuffer, timeout time.Duration) *Subtract {
	s := &Subtract{}
	s.Filter = filter.New(filter.Config{
		Name:        name,
		FilterType:  "subtract",
		WorkerFn:    subtractWorker,
		MaxSinks:    1,
		TimeoutNs:   timeout,
		RequireSink: true,
	}, []*ringbuffer.BatchBuffer{a, b}, filter.Ops{})
	return s
}

func subtractWorker(f *filter.Filter) {
	inA, inB := f.Input(0), f.Input(1)
	for f.Running() {
		batchA, ecA := inA.GetTail(f.Timeout())
		if ecA == bflow.ErrTimeout {
			continue
		}
		if ecA == bflow.ErrStopped {
			return
		}
		completeA := ecA == bflow.ErrComplete

		var batchB *bflow.Batch
		var ecB bflow.EC
		for {
			batchB, ecB = inB.GetTail(f.Timeout())
			if ecB != bflow.ErrTimeout {
				break
			}
			if !f.Running() {
				inA.ReleaseTail()
				return
			}
		}
		if ecB == bflow.ErrStopped {
			inA.ReleaseTail()
			return
		}
		completeB := ecB == bflow.ErrComplete

		n := batchA.Head
		if batchB.Head < n {
			n = batchB.Head
		}
		out := make([]float32, n)
		sa, sb := batchA.Float32s(), batchB.Float32s()
		for i := 0; i < n; i++ {
			out[i] = sa[i] - sb[i]
		}
		tns, periodNs := batchA.TNs, batchA.PeriodNs

		inA.ReleaseTail()
		inB.ReleaseTail()
		f.RecordBatch(n)

		complete := completeA || completeB
		f.SubmitToSink(0, func(dst *bflow.Batch) {
			copy(dst.Float32s(), out)
			dst.Head = n
			dst.TNs = tns
			dst.PeriodNs = periodNs
			if complete {
				dst.EC = bflow.ErrComplete
			} else {
				dst.EC = bflow.OK
			}
		})
		if complete {
			return
		}
	}
}

func (s *Subtract) Constraints() []property.Constraint {
	return []property.Constraint{
		property.MultiInputAligned{Ports: []int{0, 1}, Key: property.SamplePeriodNs},
		property.MultiInputAligned{Ports: []int{0, 1}, Key: property.DataType},
	}
}

func (s *Subtract) Behaviors() []property.Behavior {
	return []property.Behavior{
		property.Preserve{Key: property.DataType, Input: 0},
		property.Preserve{Key: property.SamplePeriodNs, Input: 0},
		property.SetUnknown{Key: property.GuaranteeFull}, // the shorter of the two batches may not be full
	}
}
