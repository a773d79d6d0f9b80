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
	"time"

	"bflow"
)

// testPerformance covers backpressure: under a BLOCK-overflow input
// buffer (the suite's factories all wire BLOCK), a burst of batches pushed
// back-to-back must all eventually be consumed with samples_processed
// advancing monotonically and without the worker ever reporting a
// worker-fatal error, within a generous deadline. This is a throughput
// sanity check, not a microbenchmark — it proves the filter keeps up
// rather than measuring exact ns/op.
func testPerformance(t *testing.T, f Factory) {
	inst := f.New(t)
	if inst.Input == nil {
		t.Skip("source filter paces itself; nothing to push")
	}

	var sink interface {
		GetTail(time.Duration) (*bflow.Batch, bflow.EC)
		ReleaseTail()
	}
	if inst.MaxSinkPort > 0 {
		s := inst.NewSink(t)
		if ec := inst.Filter.SinkConnect(0, s); ec != bflow.OK {
			t.Fatalf("SinkConnect(0): %v", ec)
		}
		sink = s
	}

	timeout := inst.Timeout
	if timeout == 0 {
		timeout = time.Second
	}

	if ec := inst.Filter.Start(); ec != bflow.OK {
		t.Fatalf("Start: %v", ec)
	}
	defer inst.Filter.Stop()

	const nBatches = 200
	go func() {
		for i := 0; i < nBatches; i++ {
			pushFloat32(inst.Input, []float32{float32(i)}, int64(i)*1000, 1000, false, timeout)
		}
	}()

	if sink != nil {
		seen := 0
		deadline := time.Now().Add(5 * time.Second)
		for seen < nBatches && time.Now().Before(deadline) {
			_, ec := sink.GetTail(100 * time.Millisecond)
			if ec == bflow.ErrTimeout {
				continue
			}
			if ec != bflow.OK {
				break
			}
			sink.ReleaseTail()
			seen++
		}
		if seen < nBatches {
			t.Fatalf("only observed %d/%d batches through the sink within deadline", seen, nBatches)
		}
	} else {
		deadline := time.Now().Add(5 * time.Second)
		for inst.Filter.GetStats().NBatches < nBatches && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		if got := inst.Filter.GetStats().NBatches; got < nBatches {
			t.Fatalf("samples_processed/n_batches stalled at %d/%d", got, nBatches)
		}
	}

	if werr := inst.Filter.WorkerErr(); werr.Code != bflow.OK && !werr.Code.IsLifecycleSignal() {
		t.Fatalf("worker-fatal error under load: %v", werr)
	}
}
