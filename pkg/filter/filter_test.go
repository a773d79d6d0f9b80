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

package filter

import (
	"testing"
	"time"

	"bflow"
	"bflow/pkg/ringbuffer"
)

func newTestInput(t *testing.T) *ringbuffer.BatchBuffer {
	t.Helper()
	b, err := ringbuffer.New(ringbuffer.Config{
		Dtype:             bflow.Float32,
		BatchCapacityExpo: 2,
		RingCapacityExpo:  2,
		Overflow:          ringbuffer.Block,
		Name:              "in",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ec := b.Start(); ec != bflow.OK {
		t.Fatalf("Start: %v", ec)
	}
	return b
}

// passthroughWorker copies every batch it reads on input 0 to sink port 0,
// counting samples, until it sees STOPPED or COMPLETE.
func passthroughWorker(f *Filter) {
	in := f.Input(0)
	for f.Running() {
		batch, ec := in.GetTail(100 * time.Millisecond)
		if ec == bflow.ErrStopped {
			return
		}
		if ec == bflow.ErrTimeout {
			continue
		}
		n := batch.Head
		data := append([]float32(nil), batch.Float32s()[:n]...)
		isComplete := ec == bflow.ErrComplete
		f.SubmitToSink(0, func(dst *bflow.Batch) {
			copy(dst.Float32s(), data)
			dst.Head = n
			if isComplete {
				dst.EC = bflow.ErrComplete
			} else {
				dst.EC = bflow.OK
			}
		})
		in.ReleaseTail()
		f.RecordBatch(n)
		if isComplete {
			return
		}
	}
}

func TestFilter_StartStopLifecycle(t *testing.T) {
	in := newTestInput(t)
	f := New(Config{Name: "pt", FilterType: "passthrough", WorkerFn: passthroughWorker, MaxSinks: 1}, []*ringbuffer.BatchBuffer{in}, Ops{})

	if ec := f.Start(); ec != bflow.OK {
		t.Fatalf("Start: %v", ec)
	}
	if ec := f.Start(); ec != bflow.ErrAlreadyRunning {
		t.Fatalf("second Start = %v, want ALREADY_RUNNING", ec)
	}
	if !f.Running() {
		t.Fatalf("expected Running() true after Start")
	}
	if ec := f.Stop(); ec != bflow.OK {
		t.Fatalf("Stop: %v", ec)
	}
	if f.Running() {
		t.Fatalf("expected Running() false after Stop")
	}
	// Idempotent deinit.
	f.Deinit()
	f.Deinit()
}

func TestFilter_SinkConnectErrors(t *testing.T) {
	in := newTestInput(t)
	f := New(Config{Name: "f", MaxSinks: 1}, []*ringbuffer.BatchBuffer{in}, Ops{})

	if ec := f.SinkConnect(0, nil); ec != bflow.ErrNullPtr {
		t.Fatalf("SinkConnect(nil) = %v, want NULL_PTR", ec)
	}
	out := newTestInput(t)
	if ec := f.SinkConnect(5, out); ec != bflow.ErrExceedsMaxSinks {
		t.Fatalf("SinkConnect(port=5) = %v, want EXCEEDS_MAX_SINKS", ec)
	}
	if ec := f.SinkConnect(0, out); ec != bflow.OK {
		t.Fatalf("SinkConnect: %v", ec)
	}
	if ec := f.SinkConnect(0, out); ec != bflow.ErrAlreadyConnected {
		t.Fatalf("duplicate SinkConnect = %v, want ALREADY_CONNECTED", ec)
	}
}

func TestFilter_PassesDataThroughToSink(t *testing.T) {
	in := newTestInput(t)
	out := newTestInput(t)
	f := New(Config{Name: "pt", FilterType: "passthrough", WorkerFn: passthroughWorker, MaxSinks: 1}, []*ringbuffer.BatchBuffer{in}, Ops{})
	if ec := f.SinkConnect(0, out); ec != bflow.OK {
		t.Fatalf("SinkConnect: %v", ec)
	}
	if ec := f.Start(); ec != bflow.OK {
		t.Fatalf("Start: %v", ec)
	}
	defer f.Stop()

	head, ec := in.GetHead()
	if ec != bflow.OK {
		t.Fatalf("GetHead: %v", ec)
	}
	head.Float32s()[0] = 3.5
	head.Head = 1
	if ec := in.Submit(0); ec != bflow.OK {
		t.Fatalf("Submit: %v", ec)
	}

	tail, ec := out.GetTail(time.Second)
	if ec != bflow.OK {
		t.Fatalf("GetTail on sink: %v", ec)
	}
	if tail.Float32s()[0] != 3.5 {
		t.Fatalf("got %v, want 3.5", tail.Float32s()[0])
	}
	out.ReleaseTail()

	stats := f.GetStats()
	if stats.NBatches != 1 || stats.SamplesProcessed != 1 {
		t.Fatalf("stats = %+v, want 1 batch / 1 sample", stats)
	}
}

func TestFilter_CompletionPropagation(t *testing.T) {
	in := newTestInput(t)
	out := newTestInput(t)
	f := New(Config{Name: "pt", FilterType: "passthrough", WorkerFn: passthroughWorker, MaxSinks: 1}, []*ringbuffer.BatchBuffer{in}, Ops{})
	if ec := f.SinkConnect(0, out); ec != bflow.OK {
		t.Fatalf("SinkConnect: %v", ec)
	}
	if ec := f.Start(); ec != bflow.OK {
		t.Fatalf("Start: %v", ec)
	}

	head, _ := in.GetHead()
	head.Head = 0
	head.EC = bflow.ErrComplete
	if ec := in.Submit(0); ec != bflow.OK {
		t.Fatalf("Submit: %v", ec)
	}

	_, ec := out.GetTail(time.Second)
	if ec != bflow.ErrComplete {
		t.Fatalf("GetTail = %v, want COMPLETE", ec)
	}
	out.ReleaseTail()

	// The worker should have exited on its own after propagating COMPLETE;
	// Stop must still return promptly (it's a no-op join at this point).
	done := make(chan bflow.EC, 1)
	go func() { done <- f.Stop() }()
	select {
	case ec := <-done:
		if ec != bflow.OK {
			t.Fatalf("Stop after COMPLETE: %v", ec)
		}
	case <-time.After(time.Second):
		t.Fatalf("Stop did not return after worker observed COMPLETE")
	}
}

func TestFilter_GetHealthReflectsWorkerErr(t *testing.T) {
	in := newTestInput(t)
	erroringWorker := func(f *Filter) {
		bflow.Assert(f, bflow.ErrIOError, "simulated failure")
	}
	f := New(Config{Name: "broken", WorkerFn: erroringWorker, MaxSinks: 1}, []*ringbuffer.BatchBuffer{in}, Ops{})
	if ec := f.Start(); ec != bflow.OK {
		t.Fatalf("Start: %v", ec)
	}
	f.Stop()

	if got := f.GetHealth(); got != bflow.ErrIOError {
		t.Fatalf("GetHealth = %v, want IO_ERROR", got)
	}
	werr := f.WorkerErr()
	if werr.Code != bflow.ErrIOError || werr.File == "" {
		t.Fatalf("WorkerErr = %+v, want populated IO_ERROR with call site", werr)
	}
}

func TestFilter_BacklogReportsQueuedBatches(t *testing.T) {
	in := newTestInput(t)
	f := New(Config{Name: "idle", MaxSinks: 1}, []*ringbuffer.BatchBuffer{in}, Ops{})

	head, _ := in.GetHead()
	head.Head = 1
	in.Submit(0)

	if got := f.GetBacklog(); got != 1 {
		t.Fatalf("GetBacklog = %d, want 1", got)
	}
}
