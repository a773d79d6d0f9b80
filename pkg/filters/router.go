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
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	rendezvous "github.com/dgryski/go-rendezvous"

	"bflow"
	"bflow/pkg/filter"
	"bflow/pkg/property"
	"bflow/pkg/ringbuffer"
)

// Router fans batches out across its sink ports by rendezvous (highest
// random weight) hashing on batch_id, so a given batch_id always lands on
// the same sink port as long as the port set is unchanged, and changing the
// port set reassigns the minimum share of ids.
type Router struct {
	*filter.Filter
	rv    *rendezvous.Rendezvous
	ports map[string]int
}

// NewRouter constructs a Router with numPorts sink ports.
func NewRouter(name string, in *ringbuffer.BatchBuffer, numPorts int, timeout time.Duration) *Router {
	names := make([]string, numPorts)
	ports := make(map[string]int, numPorts)
	for i := 0; i < numPorts; i++ {
		names[i] = strconv.Itoa(i)
		ports[names[i]] = i
	}
	r := &Router{
		rv:    rendezvous.New(names, xxhash.Sum64String),
		ports: ports,
	}
	r.Filter = filter.New(filter.Config{
		Name:        name,
		FilterType:  "router",
		WorkerFn:    func(f *filter.Filter) { r.workerLoop(f) },
		MaxSinks:    numPorts,
		TimeoutNs:   timeout,
		RequireSink: true,
	}, []*ringbuffer.BatchBuffer{in}, filter.Ops{})
	return r
}

func (r *Router) workerLoop(f *filter.Filter) {
	consumeInput0(f, func(batch *bflow.Batch, complete bool) {
		n := batch.Head
		data := append([]float32(nil), batch.Float32s()[:n]...)
		tns, periodNs := batch.TNs, batch.PeriodNs
		if complete {
			// Broadcast COMPLETE to every port; a source only exhausts once.
			for name := range r.ports {
				port := r.ports[name]
				f.SubmitToSink(port, func(dst *bflow.Batch) {
					dst.Head = 0
					dst.EC = bflow.ErrComplete
				})
			}
			return
		}
		port := r.ports[r.rv.Lookup(strconv.FormatUint(batch.BatchID, 10))]
		f.SubmitToSink(port, func(dst *bflow.Batch) {
			copy(dst.Float32s(), data)
			dst.Head = n
			dst.TNs = tns
			dst.PeriodNs = periodNs
			dst.EC = bflow.OK
		})
	})
}

func (r *Router) Constraints() []property.Constraint { return nil }
func (r *Router) Behaviors() []property.Behavior {
	return []property.Behavior{
		property.Preserve{Key: property.DataType, Input: 0},
		property.Preserve{Key: property.SamplePeriodNs, Input: 0},
		property.SetUnknown{Key: property.GuaranteeFull}, // fan-out may split the final partial batch onto any port
	}
}
