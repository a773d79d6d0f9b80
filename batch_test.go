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

package bflow

import "testing"

func TestNewArena_DisjointFixedSlices(t *testing.T) {
	batches := NewArena(Float32, 4, 8)
	if len(batches) != 4 {
		t.Fatalf("got %d batches, want 4", len(batches))
	}
	for i := range batches {
		if batches[i].Capacity() != 8 {
			t.Fatalf("batch %d capacity = %d, want 8", i, batches[i].Capacity())
		}
	}
	// Writing into one batch's region must not touch another's.
	batches[0].Float32s()[0] = 42
	if batches[1].Float32s()[0] != 0 {
		t.Fatalf("batch 1 was clobbered by a write into batch 0")
	}
	// Appending beyond capacity must not silently grow past the arena slot
	// (the slice was built with a hard cap via the three-index form).
	s := batches[0].Float32s()
	if cap(s) != 8 {
		t.Fatalf("batch slice cap = %d, want 8 (no room to grow into the next slot)", cap(s))
	}
}

func TestBatch_TypedAccessorMismatchPanics(t *testing.T) {
	b := NewArena(Int32, 1, 4)[0]
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic calling Float32s on an int32 batch")
		}
	}()
	_ = b.Float32s()
}

func TestDType_String(t *testing.T) {
	cases := map[DType]string{
		Float32:   "float32",
		Int32:     "int32",
		UInt32:    "uint32",
		Undefined: "undefined",
	}
	for d, want := range cases {
		if got := d.String(); got != want {
			t.Fatalf("%v.String() = %q, want %q", d, got, want)
		}
	}
}

func TestEC_IsLifecycleSignal(t *testing.T) {
	for _, e := range []EC{ErrTimeout, ErrStopped, ErrComplete} {
		if !e.IsLifecycleSignal() {
			t.Fatalf("%v should be a lifecycle signal", e)
		}
	}
	for _, e := range []EC{OK, ErrIOError, ErrPropertyViolation} {
		if e.IsLifecycleSignal() {
			t.Fatalf("%v should not be a lifecycle signal", e)
		}
	}
}

type fakeErrSink struct {
	err     WorkerErrInfo
	running bool
}

func (f *fakeErrSink) SetWorkerErr(w WorkerErrInfo) { f.err = w }
func (f *fakeErrSink) SetRunning(r bool)            { f.running = r }

func TestAssert_RecordsCallSiteNotHelper(t *testing.T) {
	sink := &fakeErrSink{running: true}
	ok := Assert(sink, ErrIOError, "read failed: %v", "eof")
	if !ok {
		t.Fatalf("Assert should return true for a non-OK code")
	}
	if sink.running {
		t.Fatalf("Assert must clear running")
	}
	if sink.err.Code != ErrIOError {
		t.Fatalf("code = %v, want ErrIOError", sink.err.Code)
	}
	if sink.err.Message != "read failed: eof" {
		t.Fatalf("message = %q", sink.err.Message)
	}
	if sink.err.File == "" || sink.err.Line == 0 {
		t.Fatalf("expected a populated call-site location, got %+v", sink.err)
	}
}

func TestAssert_OKIsNoop(t *testing.T) {
	sink := &fakeErrSink{running: true}
	if Assert(sink, OK, "unused") {
		t.Fatalf("Assert(OK, ...) must return false")
	}
	if !sink.running {
		t.Fatalf("Assert(OK, ...) must not touch running")
	}
}
