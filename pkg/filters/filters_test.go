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
	"math"
	"testing"
	"time"

	"bflow"
	"bflow/pkg/ringbuffer"
)

func newBuf(t *testing.T, name string) *ringbuffer.BatchBuffer {
	t.Helper()
	b, err := ringbuffer.New(ringbuffer.Config{
		Dtype:             bflow.Float32,
		BatchCapacityExpo: 6, // capacity 64
		RingCapacityExpo:  3,
		Overflow:          ringbuffer.Block,
		Name:              name,
	})
	if err != nil {
		t.Fatalf("New(%s): %v", name, err)
	}
	if ec := b.Start(); ec != bflow.OK {
		t.Fatalf("Start(%s): %v", name, ec)
	}
	return b
}

// TestDCOffsetDAG wires gen -> tee -> [low, pass] -> sub -> cap and checks
// the mean of the captured tail is near zero: once the low-pass has
// settled, a heavily smoothed copy of a DC-biased sine subtracted from the
// unfiltered copy should cancel the DC term, leaving only the oscillating
// high-frequency residual.
func TestDCOffsetDAG(t *testing.T) {
	gen := NewGenerator(GeneratorConfig{
		Name: "gen", FreqHz: 1000, Amplitude: 1.0, DCOffset: 2.0,
		PeriodNs: 1000, NumSamples: 20000, TimeoutNs: time.Second,
	})

	teeIn := newBuf(t, "tee-in")
	tee := NewTee("tee", teeIn, 2, time.Second)

	lowIn := newBuf(t, "low-in")
	low := NewLowPass("low", lowIn, 0.01, time.Second)
	lowOut := newBuf(t, "low-out")

	passIn := newBuf(t, "pass-in")
	pass := NewPassthrough("pass", passIn, time.Second)
	passOut := newBuf(t, "pass-out")

	sub := NewSubtract("sub", passOut, lowOut, time.Second)
	subOut := newBuf(t, "sub-out")

	cap := NewCapture("cap", subOut, time.Second)

	if ec := gen.SinkConnect(0, teeIn); ec != bflow.OK {
		t.Fatalf("gen.SinkConnect: %v", ec)
	}
	if ec := tee.SinkConnect(0, lowIn); ec != bflow.OK {
		t.Fatalf("tee.SinkConnect(0): %v", ec)
	}
	if ec := tee.SinkConnect(1, passIn); ec != bflow.OK {
		t.Fatalf("tee.SinkConnect(1): %v", ec)
	}
	if ec := low.SinkConnect(0, lowOut); ec != bflow.OK {
		t.Fatalf("low.SinkConnect: %v", ec)
	}
	if ec := pass.SinkConnect(0, passOut); ec != bflow.OK {
		t.Fatalf("pass.SinkConnect: %v", ec)
	}
	if ec := sub.SinkConnect(0, subOut); ec != bflow.OK {
		t.Fatalf("sub.SinkConnect: %v", ec)
	}

	for _, child := range []interface{ Start() bflow.EC }{cap, sub, low, pass, tee} {
		if ec := child.Start(); ec != bflow.OK {
			t.Fatalf("Start: %v", ec)
		}
	}
	defer cap.Stop()
	defer sub.Stop()
	defer low.Stop()
	defer pass.Stop()
	defer tee.Stop()

	if ec := gen.Start(); ec != bflow.OK {
		t.Fatalf("gen.Start: %v", ec)
	}
	defer gen.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for !cap.Done() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !cap.Done() {
		t.Fatalf("capture never observed COMPLETE")
	}

	samples := cap.Samples()
	if len(samples) == 0 {
		t.Fatalf("no samples captured")
	}
	tail := samples
	if len(tail) > 1000 {
		tail = tail[len(tail)-1000:]
	}
	var sum float64
	for _, v := range tail {
		sum += float64(v)
	}
	mean := sum / float64(len(tail))
	if math.Abs(mean) > 0.25 {
		t.Fatalf("mean of tail = %v, want near 0 (DC term canceled)", mean)
	}
}

// TestRouter_RoutesToSomePort checks a single submitted batch lands on
// exactly one of the router's configured sink ports.
func TestRouter_RoutesToSomePort(t *testing.T) {
	in := newBuf(t, "router-in")
	r := NewRouter("router", in, 3, time.Second)

	var outs []*ringbuffer.BatchBuffer
	for i := 0; i < 3; i++ {
		out := newBuf(t, "router-out")
		if ec := r.SinkConnect(i, out); ec != bflow.OK {
			t.Fatalf("SinkConnect(%d): %v", i, ec)
		}
		outs = append(outs, out)
	}
	if ec := r.Start(); ec != bflow.OK {
		t.Fatalf("Start: %v", ec)
	}
	defer r.Stop()

	head, _ := in.GetHead()
	head.Float32s()[0] = 1
	head.Head = 1
	head.BatchID = 42
	in.Submit(0)

	var got *ringbuffer.BatchBuffer
	deadline := time.Now().Add(time.Second)
	for got == nil && time.Now().Before(deadline) {
		for _, o := range outs {
			if !o.IsEmpty() {
				got = o
				break
			}
		}
		time.Sleep(time.Millisecond)
	}
	if got == nil {
		t.Fatalf("no output port received the batch")
	}
}

// TestCapture_AccumulatesAcrossBatches checks Capture appends samples
// across multiple submitted batches and flips Done() only on COMPLETE.
func TestCapture_AccumulatesAcrossBatches(t *testing.T) {
	in := newBuf(t, "cap-in")
	cap := NewCapture("cap", in, time.Second)
	if ec := cap.Start(); ec != bflow.OK {
		t.Fatalf("Start: %v", ec)
	}
	defer cap.Stop()

	for i := 0; i < 3; i++ {
		head, _ := in.GetHead()
		head.Float32s()[0] = float32(i)
		head.Head = 1
		in.Submit(0)
	}

	deadline := time.Now().Add(time.Second)
	for len(cap.Samples()) < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := cap.Samples(); len(got) != 3 {
		t.Fatalf("got %d samples, want 3", len(got))
	}
	if cap.Done() {
		t.Fatalf("Done() true before any COMPLETE batch")
	}

	head, _ := in.GetHead()
	head.Head = 0
	head.EC = bflow.ErrComplete
	in.Submit(0)

	deadline = time.Now().Add(time.Second)
	for !cap.Done() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !cap.Done() {
		t.Fatalf("Done() never became true after COMPLETE")
	}
}

// TestSubtract_ElementwiseDifference checks Subtract computes a[i]-b[i]
// over the shorter of the two input batches.
func TestSubtract_ElementwiseDifference(t *testing.T) {
	a := newBuf(t, "sub-a")
	b := newBuf(t, "sub-b")
	s := NewSubtract("sub", a, b, time.Second)
	out := newBuf(t, "sub-out")
	if ec := s.SinkConnect(0, out); ec != bflow.OK {
		t.Fatalf("SinkConnect: %v", ec)
	}
	if ec := s.Start(); ec != bflow.OK {
		t.Fatalf("Start: %v", ec)
	}
	defer s.Stop()

	ha, _ := a.GetHead()
	copy(ha.Float32s(), []float32{5, 6, 7})
	ha.Head = 3
	a.Submit(0)

	hb, _ := b.GetHead()
	copy(hb.Float32s(), []float32{1, 2, 3, 4})
	hb.Head = 4
	b.Submit(0)

	var got *bflow.Batch
	deadline := time.Now().Add(time.Second)
	for got == nil && time.Now().Before(deadline) {
		if !out.IsEmpty() {
			batch, ec := out.GetTail(10 * time.Millisecond)
			if ec == bflow.OK {
				got = batch
			}
		} else {
			time.Sleep(time.Millisecond)
		}
	}
	if got == nil {
		t.Fatalf("no output batch received")
	}
	defer out.ReleaseTail()
	if got.Head != 3 {
		t.Fatalf("Head = %d, want 3 (min of the two input lengths)", got.Head)
	}
	want := []float32{4, 4, 4}
	for i, w := range want {
		if got.Float32s()[i] != w {
			t.Fatalf("sample %d = %v, want %v", i, got.Float32s()[i], w)
		}
	}
}

// TestLowPass_ConstantInputConverges checks a constant input settles the
// IIR state to that constant.
func TestLowPass_ConstantInputConverges(t *testing.T) {
	in := newBuf(t, "low-in")
	l := NewLowPass("low", in, 0.2, time.Second)
	out := newBuf(t, "low-out")
	if ec := l.SinkConnect(0, out); ec != bflow.OK {
		t.Fatalf("SinkConnect: %v", ec)
	}
	if ec := l.Start(); ec != bflow.OK {
		t.Fatalf("Start: %v", ec)
	}
	defer l.Stop()

	for i := 0; i < 50; i++ {
		head, _ := in.GetHead()
		head.Float32s()[0] = 3.0
		head.Head = 1
		in.Submit(0)
	}

	var last float32
	deadline := time.Now().Add(2 * time.Second)
	for n := 0; n < 50 && time.Now().Before(deadline); {
		batch, ec := out.GetTail(50 * time.Millisecond)
		if ec != bflow.OK {
			continue
		}
		last = batch.Float32s()[0]
		out.ReleaseTail()
		n++
	}
	if math.Abs(float64(last-3.0)) > 0.05 {
		t.Fatalf("settled value = %v, want close to 3.0", last)
	}
}
