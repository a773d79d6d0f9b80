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

// Package filters hosts the reference filter implementations: a source
// (Generator), pass-through and fan-out transforms (Passthrough, Tee,
// Router), signal-processing transforms (LowPass, Subtract), and two test
// sinks (Capture, CSVSink). Each embeds *filter.Filter as its first field
// and declares a property contract alongside its worker function.
package filters

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"time"

	"bflow"
	"bflow/pkg/filter"
	"bflow/pkg/property"
)

// Generator is a source filter with no inputs: it produces a DC-biased sine
// wave at a configured sample period until NumSamples have been emitted (0
// means run until Stop), then emits a COMPLETE batch and exits.
type Generator struct {
	*filter.Filter
	freqHz     float64
	amplitude  float64
	dcOffset   float64
	periodNs   int64
	numSamples int64

	store    filter.StateStore // optional; nil means SaveState/LoadState are no-ops
	stateKey string

	// n and phaseBits checkpoint the generator's progress so SaveState can be
	// called concurrently with the worker (read-only snapshot) and LoadState
	// can resume a prior run before Start.
	n         atomic.Int64
	phaseBits atomic.Uint64
}

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	Name       string
	FreqHz     float64
	Amplitude  float64
	DCOffset   float64
	PeriodNs   int64
	NumSamples int64 // 0 = unbounded, runs until Stop
	TimeoutNs  time.Duration

	// Store, if non-nil, backs SaveState/LoadState: the generator's sample
	// index and phase are checkpointed under "bflow:generator:<Name>" so a later process can
	// resume the sine wave where this one left off instead of restarting at
	// phase zero.
	Store filter.StateStore
}

// NewGenerator constructs and wires a Generator's base filter.
func NewGenerator(cfg GeneratorConfig) *Generator {
	g := &Generator{
		freqHz:     cfg.FreqHz,
		amplitude:  cfg.Amplitude,
		dcOffset:   cfg.DCOffset,
		periodNs:   cfg.PeriodNs,
		numSamples: cfg.NumSamples,
		store:      cfg.Store,
		stateKey:   "bflow:generator:" + cfg.Name,
	}
	g.Filter = filter.New(filter.Config{
		Name:        cfg.Name,
		FilterType:  "generator",
		WorkerFn:    func(*filter.Filter) { g.workerLoop() },
		MaxSinks:    1,
		TimeoutNs:   cfg.TimeoutNs,
		RequireSink: true,
	}, nil, filter.Ops{
		SaveState: func(*filter.Filter) bflow.EC { return g.saveState() },
		LoadState: func(*filter.Filter) bflow.EC { return g.loadState() },
	})
	return g
}

// saveState persists the current sample index and phase. A no-op (OK) if no
// Store was configured.
func (g *Generator) saveState() bflow.EC {
	if g.store == nil {
		return bflow.OK
	}
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(g.n.Load()))
	binary.BigEndian.PutUint64(buf[8:16], g.phaseBits.Load())
	if err := g.store.Save(g.stateKey, buf[:]); err != nil {
		return bflow.ErrIOError
	}
	return bflow.OK
}

// loadState restores a previously saved sample index and phase. Must be
// called before Start; a missing or empty record leaves the generator at its
// zero-valued start (n=0, phase=0), which is not an error.
func (g *Generator) loadState() bflow.EC {
	if g.store == nil {
		return bflow.OK
	}
	data, err := g.store.Load(g.stateKey)
	if err != nil {
		return bflow.ErrIOError
	}
	if len(data) != 16 {
		return bflow.OK
	}
	g.n.Store(int64(binary.BigEndian.Uint64(data[0:8])))
	g.phaseBits.Store(binary.BigEndian.Uint64(data[8:16]))
	return bflow.OK
}

func (g *Generator) workerLoop() {
	angularStep := 2 * math.Pi * g.freqHz * float64(g.periodNs) / 1e9
	phase := math.Float64frombits(g.phaseBits.Load())
	n := g.n.Load()
	for g.Running() {
		if g.numSamples > 0 && n >= g.numSamples {
			g.SubmitToSink(0, func(dst *bflow.Batch) {
				dst.Head = 0
				dst.EC = bflow.ErrComplete
			})
			return
		}
		var produced int
		startN := n
		ec := g.SubmitToSink(0, func(dst *bflow.Batch) {
			samples := dst.Float32s()
			count := len(samples)
			if g.numSamples > 0 && int64(count) > g.numSamples-n {
				count = int(g.numSamples - n)
			}
			for i := 0; i < count; i++ {
				samples[i] = float32(g.dcOffset + g.amplitude*math.Sin(phase))
				phase += angularStep
				n++
			}
			produced = count
			dst.Head = count
			dst.TNs = startN * g.periodNs
			dst.PeriodNs = g.periodNs
			dst.EC = bflow.OK
		})
		g.n.Store(n)
		g.phaseBits.Store(math.Float64bits(phase))
		if ec != bflow.OK {
			return
		}
		g.RecordBatch(produced)
		time.Sleep(time.Microsecond) // yield; a real source would pace to wall-clock
	}
}

// Constraints: a source has no inputs, hence no constraints.
func (g *Generator) Constraints() []property.Constraint { return nil }

// Behaviors: sets DATA_TYPE, SAMPLE_PERIOD_NS and GUARANTEE_FULL on the
// output (every batch but possibly the last is full).
func (g *Generator) Behaviors() []property.Behavior {
	return []property.Behavior{
		property.Set{Key: property.DataType, Value: property.KnownInt(int64(bflow.Float32))},
		property.Set{Key: property.SamplePeriodNs, Value: property.KnownInt(g.periodNs)},
		property.Set{Key: property.GuaranteeFull, Value: property.KnownBool(true)},
	}
}
