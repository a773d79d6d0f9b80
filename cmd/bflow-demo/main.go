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

// Overview:
//   bflow-demo builds the DC-offset cancellation DAG used throughout the
//   reference filter tests and runs it end to end against a real clock:
//
//     generator --> tee --+--> low_pass ----+
//                          |                 +--> subtract --> capture
//                          +--> passthrough --+
//
//   generator emits a DC-biased sine wave. low_pass tracks its slow-moving
//   mean; passthrough forwards the raw signal unchanged; subtract computes
//   passthrough - low_pass, which cancels the DC term and leaves the
//   (mostly) zero-mean oscillation. capture accumulates the result so the
//   demo can report how close the output mean lands to zero.
//
//   tee, low_pass, passthrough and subtract are hosted inside a
//   pkg/pipeline.Pipeline so this binary also exercises property validation
//   and the pipeline's external-input aliasing / sink-forwarding, not just
//   the bare filters.
//
//   The generator loads a checkpoint of its sample index and phase at
//   startup and saves one on exit through a pkg/statestore.StateStore. The
//   default in-process logging store lives only as long as this process, so
//   each run then starts at phase zero; with -redis_addr the checkpoint
//   outlives the process and a later run continues the same sine wave. The
//   restored sample index counts toward -samples, so a resumed run emits
//   only the samples still left below that total.
//
// Usage:
//   go run ./cmd/bflow-demo -freq 50 -amplitude 1 -dc_offset 0.75 \
//       -alpha 0.05 -samples 2000 -period_ns 1000
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"bflow"
	"bflow/pkg/filter"
	"bflow/pkg/filters"
	"bflow/pkg/pipeline"
	"bflow/pkg/property"
	"bflow/pkg/ringbuffer"
	"bflow/pkg/statestore"
)

func main() {
	freqHz := flag.Float64("freq", 50, "generator sine frequency in Hz")
	amplitude := flag.Float64("amplitude", 1, "generator sine amplitude")
	dcOffset := flag.Float64("dc_offset", 0.75, "generator DC bias added to the sine")
	periodNs := flag.Int64("period_ns", 1000, "nominal sample period in nanoseconds")
	numSamples := flag.Int64("samples", 2000, "total samples the generator emits before COMPLETE (0 = unbounded, runs until timeout)")
	alpha := flag.Float64("alpha", 0.05, "low_pass smoothing factor (0,1]")
	runFor := flag.Duration("timeout", 10*time.Second, "hard ceiling on how long the pipeline is allowed to run")
	redisAddr := flag.String("redis_addr", "", "if set, checkpoint the generator's phase to this Redis address instead of the in-process logging store")
	flag.Parse()

	timeoutNs := 2 * time.Second

	var store filter.StateStore
	if *redisAddr != "" {
		store = statestore.NewRedisStore(*redisAddr)
	} else {
		store = statestore.NewLoggingStore()
	}

	gen := filters.NewGenerator(filters.GeneratorConfig{
		Name:       "gen",
		FreqHz:     *freqHz,
		Amplitude:  *amplitude,
		DCOffset:   *dcOffset,
		PeriodNs:   *periodNs,
		NumSamples: *numSamples,
		TimeoutNs:  timeoutNs,
		Store:      store,
	})
	if ec := gen.LoadState(); ec != bflow.OK {
		log.Fatalf("gen.LoadState: %v", ec)
	}

	teeIn := mustBuf("tee-in", timeoutNs)
	lowIn := mustBuf("low-in", timeoutNs)
	passIn := mustBuf("pass-in", timeoutNs)
	subA := mustBuf("sub-a", timeoutNs)
	subB := mustBuf("sub-b", timeoutNs)

	tee := filters.NewTee("tee", teeIn, 2, timeoutNs)
	low := filters.NewLowPass("low_pass", lowIn, *alpha, timeoutNs)
	pass := filters.NewPassthrough("passthrough", passIn, timeoutNs)
	sub := filters.NewSubtract("subtract", subA, subB, timeoutNs)

	dag, ec := pipeline.Init(pipeline.Config{
		Name: "dc-cancel",
		Filters: []pipeline.Child{
			tee, low, pass, sub,
		},
		Connections: []pipeline.Connection{
			// subtract computes passthrough (port0/A) - low_pass (port1/B),
			// so the raw signal and its slow mean are wired onto the two
			// subtract inputs in that order.
			{From: "passthrough", FromPort: 0, To: "subtract", ToPort: 0},
			{From: "low_pass", FromPort: 0, To: "subtract", ToPort: 1},
			{From: "tee", FromPort: 0, To: "low_pass", ToPort: 0},
			{From: "tee", FromPort: 1, To: "passthrough", ToPort: 0},
		},
		InputFilter:  "tee",
		InputPort:    0,
		OutputFilter: "subtract",
		OutputPort:   0,
		// gen feeds tee's input from outside the pipeline; declaring its
		// contract here lets low_pass's DATA_TYPE constraint see a known
		// value instead of failing on tee's otherwise-unknown input.
		ExternalInputProperties: property.Table{
			property.DataType:       property.KnownInt(int64(bflow.Float32)),
			property.SamplePeriodNs: property.KnownInt(*periodNs),
			property.GuaranteeFull:  property.KnownBool(true),
		},
	})
	if ec != bflow.OK {
		log.Fatalf("pipeline.Init: %v", ec)
	}

	capIn := mustBuf("capture-in", timeoutNs)
	capture := filters.NewCapture("capture", capIn, timeoutNs)

	if ec := gen.SinkConnect(0, dag.Input(0)); ec != bflow.OK {
		log.Fatalf("gen.SinkConnect: %v", ec)
	}
	if ec := dag.SinkConnect(0, capIn); ec != bflow.OK {
		log.Fatalf("dag.SinkConnect: %v", ec)
	}

	children := []interface {
		Start() bflow.EC
		Stop() bflow.EC
		Deinit()
		Describe() string
	}{gen, dag, capture}

	for _, c := range children {
		if ec := c.Start(); ec != bflow.OK {
			log.Fatalf("%T.Start: %v", c, ec)
		}
	}
	fmt.Println("running:")
	for _, c := range children {
		fmt.Println("  " + c.Describe())
	}

	deadline := time.After(*runFor)
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
loop:
	for {
		select {
		case <-deadline:
			break loop
		case <-tick.C:
			if capture.Done() {
				break loop
			}
		}
	}

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Stop()
	}
	if ec := gen.SaveState(); ec != bflow.OK {
		log.Printf("gen.SaveState: %v", ec)
	}

	samples := capture.Samples()
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := 0.0
	if len(samples) > 0 {
		mean = sum / float64(len(samples))
	}
	fmt.Printf("captured %d samples, mean=%.5f (input dc_offset=%.5f)\n", len(samples), mean, *dcOffset)
	fmt.Printf("gen stats:  %+v\n", gen.GetStats())
	fmt.Printf("dag stats:  %+v\n", dag.GetStats())

	for _, c := range children {
		c.Deinit()
	}
}

func mustBuf(name string, timeout time.Duration) *ringbuffer.BatchBuffer {
	b, err := ringbuffer.New(ringbuffer.Config{
		Dtype:             bflow.Float32,
		BatchCapacityExpo: 6,
		RingCapacityExpo:  4,
		Overflow:          ringbuffer.Block,
		TimeoutNs:         timeout,
		Name:              name,
	})
	if err != nil {
		log.Fatalf("ringbuffer.New(%s): %v", name, err)
	}
	if ec := b.Start(); ec != bflow.OK {
		log.Fatalf("%s.Start: %v", name, ec)
	}
	return b
}
