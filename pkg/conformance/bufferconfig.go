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

package conformance

import (
	"testing"

	"bflow"
	"bflow/pkg/ringbuffer"
)

// testBufferConfig checks that the sink buffer a Factory constructs is
// well-formed against the BatchBuffer config contract (init is the only
// fallible non-blocking path) and that a handful of config variations
// this suite tries directly are rejected up front regardless
// of which filter is under test: zero/undefined dtype and out-of-range
// expo fields are rejected at New, never accepted and left to fail later.
func testBufferConfig(t *testing.T, f Factory) {
	inst := f.New(t)
	if inst.MaxSinkPort == 0 {
		t.Skip("filter has no sink buffer to validate")
	}
	sink := inst.NewSink(t)
	if sink.Capacity() <= 0 || sink.BatchCapacity() <= 0 {
		t.Fatalf("factory-provided sink has non-positive capacity (%d rings x %d samples)", sink.Capacity(), sink.BatchCapacity())
	}
	inst.Filter.Deinit()

	// Config-level invariants independent of any particular filter: these
	// are properties of ringbuffer.New itself, exercised once per Factory
	// call so every registered filter's test run also sanities the buffer
	// layer it depends on.
	if _, err := ringbuffer.New(ringbuffer.Config{
		Dtype:             bflow.Undefined,
		BatchCapacityExpo: 4,
		RingCapacityExpo:  2,
		Name:              "bad-dtype",
	}); err == nil {
		t.Fatalf("New with Undefined dtype succeeded, want INVALID_CONFIG")
	}
	if _, err := ringbuffer.New(ringbuffer.Config{
		Dtype:             bflow.Float32,
		BatchCapacityExpo: 0,
		RingCapacityExpo:  2,
		Name:              "bad-batch-expo",
	}); err == nil {
		t.Fatalf("New with zero batch_capacity_expo succeeded, want INVALID_CONFIG")
	}
	if _, err := ringbuffer.New(ringbuffer.Config{
		Dtype:             bflow.Float32,
		BatchCapacityExpo: 4,
		RingCapacityExpo:  0,
		Name:              "bad-ring-expo",
	}); err == nil {
		t.Fatalf("New with zero ring_capacity_expo succeeded, want INVALID_CONFIG")
	}
}
