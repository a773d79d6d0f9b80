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

// LowPass is a single-pole IIR low-pass filter: y[n] = y[n-1] + alpha *
// (x[n] - y[n-1]). State carries across batches on a single filter
// instance (single producer per input, so no synchronization needed).
type LowPass struct {
	*filter.Filter
	alpha  float64
	state  float64
	primed bool
}

// NewLowPass constructs a LowPass with the given pole (0 < alpha <= 1;
// smaller alpha means heavier smoothing).
func NewLowPass(name string, in *ringbuffer.BatchBuffer, alpha float64, timeout time.Duration) *LowPass {
	l := &LowPass{alpha: alpha}
	l.Filter = filter.New(filter.Config{
		Name:        name,
		FilterType:  "lowpass",
		WorkerFn:    func(f *filter.Filter) { l.workerLoop(f) },
		MaxSinks:    1,
		TimeoutNs:   timeout,
		RequireSink: true,
	}, []*ringbuffer.BatchBuffer{in}, filter.Ops{})
	return l
}

func (l *LowPass) workerLoop(f *filter.Filter) {
	consumeInput0(f, func(batch *bflow.Batch, complete bool) {
		n := batch.Head
		src := batch.Float32s()[:n]
		out := make([]float32, n)
		for i, x := range src {
			if !l.primed {
				l.state = float64(x)
				l.primed = true
			} else {
				l.state += l.alpha * (float64(x) - l.state)
			}
			out[i] = float32(l.state)
		}
		tns, periodNs := batch.TNs, batch.PeriodNs
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
	})
}

func (l *LowPass) Constraints() []property.Constraint {
	return []property.Constraint{property.Eq{Port: 0, Key: property.DataType, Want: int64(bflow.Float32)}}
}

func (l *LowPass) Behaviors() []property.Behavior {
	return []property.Behavior{
		property.Preserve{Key: property.DataType, Input: 0},
		property.Preserve{Key: property.SamplePeriodNs, Input: 0},
		property.Preserve{Key: property.GuaranteeFull, Input: 0},
	}
}
