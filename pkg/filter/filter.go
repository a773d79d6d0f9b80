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

// Package filter implements the filter core: lifecycle, worker-goroutine
// hosting, an operations table every filter can override, and the sink
// fan-out table. A leaf filter embeds *Filter as its first field; a
// container (pkg/pipeline) overrides the subset of the Ops table that lets
// it forward to its internal DAG instead of hosting its own worker.
package filter

import (
	"sync"
	"sync/atomic"
	"time"

	"bflow"
	"bflow/pkg/ringbuffer"
)

// WorkerFn is the function a filter's hosted goroutine runs while the
// filter is started. It must respect f.Running() and return promptly once
// it observes STOPPED, COMPLETE, or an unrecoverable error reported via
// bflow.Assert(f, ...).
type WorkerFn func(f *Filter)

// Ops is the operations table. Every entry has a default, core-provided
// implementation; a concrete filter overrides only what it needs. No entry
// is ever nil — Filter's constructor fills every hole with the matching
// default before the filter is used.
type Ops struct {
	Start              func(f *Filter) bflow.EC
	Stop               func(f *Filter) bflow.EC
	Deinit             func(f *Filter)
	Flush              func(f *Filter) bflow.EC
	Drain              func(f *Filter) bflow.EC
	Reset              func(f *Filter) bflow.EC
	SaveState          func(f *Filter) bflow.EC
	LoadState          func(f *Filter) bflow.EC
	GetStats           func(f *Filter) Stats
	GetHealth          func(f *Filter) bflow.EC
	GetBacklog         func(f *Filter) int
	Describe           func(f *Filter) string
	Reconfigure        func(f *Filter, newCfg any) bflow.EC
	ValidateConnection func(f *Filter, other *Filter, port int) bflow.EC
	SinkConnect        func(f *Filter, port int, sink *ringbuffer.BatchBuffer) bflow.EC
}

// StateStore is implemented by persistence backends a filter can opt into
// for SaveState/LoadState (see pkg/statestore). A concrete filter with real
// state to persist holds its own StateStore field and overrides Ops.SaveState
// / Ops.LoadState with closures that marshal its own fields (see
// filters.Generator), since what to marshal is filter-specific and the core
// has nothing generic to save on a filter's behalf.
type StateStore interface {
	Save(key string, data []byte) error
	Load(key string) ([]byte, error)
}

// Config configures a filter at construction.
type Config struct {
	Name       string
	FilterType string
	WorkerFn   WorkerFn
	NInputs    int
	MaxSinks   int
	BuffConfig ringbuffer.Config
	TimeoutNs  time.Duration

	// RequireSink marks a filter that cannot usefully run with no connected
	// sink (almost every source/transform): Start fails with NO_SINK before
	// any worker goroutine is spawned, instead of the worker discovering the
	// missing sink mid-run. Pure sinks leave this false.
	RequireSink bool
}

// Stats is a point-in-time snapshot of a filter's processing counters.
type Stats struct {
	SamplesProcessed uint64
	NBatches         uint64
}

// Filter is the base struct every concrete filter embeds as its first
// field. Its exported methods are the "filt_*" public wrappers: they
// dispatch through Ops unconditionally, matching the no-null-check
// contract of the wrapped vtable.
type Filter struct {
	cfg Config
	ops Ops

	inputs []*ringbuffer.BatchBuffer
	sinks  []sinkSlot

	sinkMu sync.Mutex

	running atomic.Bool
	wg      sync.WaitGroup

	samplesProcessed atomic.Uint64
	nBatches         atomic.Uint64

	workerErr WorkerErrSnapshot
	workerMu  sync.Mutex
}

type sinkSlot struct {
	connected bool
	buf       *ringbuffer.BatchBuffer
}

// WorkerErrSnapshot is the last worker_err_info recorded for this filter,
// readable by the parent goroutine only after Stop has joined the worker.
type WorkerErrSnapshot = bflow.WorkerErrInfo

// New constructs a filter with the given config and input buffers, filling
// every unset Ops entry with the core's default implementation.
func New(cfg Config, inputs []*ringbuffer.BatchBuffer, ops Ops) *Filter {
	if cfg.MaxSinks <= 0 {
		cfg.MaxSinks = 1
	}
	f := &Filter{
		cfg:    cfg,
		inputs: inputs,
		sinks:  make([]sinkSlot, cfg.MaxSinks),
	}
	f.ops = fillDefaults(ops)
	return f
}

func fillDefaults(ops Ops) Ops {
	if ops.Start == nil {
		ops.Start = defaultStart
	}
	if ops.Stop == nil {
		ops.Stop = defaultStop
	}
	if ops.Deinit == nil {
		ops.Deinit = defaultDeinit
	}
	if ops.Flush == nil {
		ops.Flush = func(*Filter) bflow.EC { return bflow.OK }
	}
	if ops.Drain == nil {
		ops.Drain = func(*Filter) bflow.EC { return bflow.OK }
	}
	if ops.Reset == nil {
		ops.Reset = func(*Filter) bflow.EC { return bflow.OK }
	}
	if ops.SaveState == nil {
		ops.SaveState = defaultSaveState
	}
	if ops.LoadState == nil {
		ops.LoadState = defaultLoadState
	}
	if ops.GetStats == nil {
		ops.GetStats = defaultGetStats
	}
	if ops.GetHealth == nil {
		ops.GetHealth = defaultGetHealth
	}
	if ops.GetBacklog == nil {
		ops.GetBacklog = defaultGetBacklog
	}
	if ops.Describe == nil {
		ops.Describe = defaultDescribe
	}
	if ops.Reconfigure == nil {
		ops.Reconfigure = func(*Filter, any) bflow.EC { return bflow.OK }
	}
	if ops.ValidateConnection == nil {
		ops.ValidateConnection = func(*Filter, *Filter, int) bflow.EC { return bflow.OK }
	}
	if ops.SinkConnect == nil {
		ops.SinkConnect = defaultSinkConnect
	}
	return ops
}

// Public wrappers: dispatch through ops unconditionally, no null checks
// (fillDefaults already guaranteed every slot is non-nil).

func (f *Filter) Start() bflow.EC { return f.ops.Start(f) }
func (f *Filter) Stop() bflow.EC { return f.ops.Stop(f) }
func (f *Filter) Deinit() { f.ops.Deinit(f) }
func (f *Filter) Flush() bflow.EC { return f.ops.Flush(f) }
func (f *Filter) Drain() bflow.EC { return f.ops.Drain(f) }
func (f *Filter) Reset() bflow.EC { return f.ops.Reset(f) }
func (f *Filter) SaveState() bflow.EC { return f.ops.SaveState(f) }
func (f *Filter) LoadState() bflow.EC { return f.ops.LoadState(f) }
func (f *Filter) GetStats() Stats { return f.ops.GetStats(f) }
func (f *Filter) GetHealth() bflow.EC { return f.ops.GetHealth(f) }
func (f *Filter) GetBacklog() int { return f.ops.GetBacklog(f) }
func (f *Filter) Describe() string { return f.ops.Describe(f) }
func (f *Filter) Reconfigure(newCfg any) bflow.EC { return f.ops.Reconfigure(f, newCfg) }
func (f *Filter) ValidateConnection(other *Filter, port int) bflow.EC {
	return f.ops.ValidateConnection(f, other, port)
}
func (f *Filter) SinkConnect(port int, sink *ringbuffer.BatchBuffer) bflow.EC {
	return f.ops.SinkConnect(f, port, sink)
}

// Name, FilterType, Inputs, Timeout expose config a worker function needs.
func (f *Filter) Name() string { return f.cfg.Name }
func (f *Filter) FilterType() string { return f.cfg.FilterType }
func (f *Filter) Timeout() time.Duration { return f.cfg.TimeoutNs }
func (f *Filter) Input(port int) *ringbuffer.BatchBuffer { return f.inputs[port] }
func (f *Filter) NumInputs() int { return len(f.inputs) }
func (f *Filter) Running() bool { return f.running.Load() }

// SetRunning and SetWorkerErr implement bflow.ErrSink so worker functions
// can call bflow.Assert(f, code, "...", args...) without pkg/filter
// importing anything from the leaf filter packages.
func (f *Filter) SetRunning(r bool) { f.running.Store(r) }

func (f *Filter) SetWorkerErr(w bflow.WorkerErrInfo) {
	f.workerMu.Lock()
	f.workerErr = w
	f.workerMu.Unlock()
}

// WorkerErr returns the last recorded worker error. Safe to call any time
// after Stop() has returned.
func (f *Filter) WorkerErr() bflow.WorkerErrInfo {
	f.workerMu.Lock()
	defer f.workerMu.Unlock()
	return f.workerErr
}

// RecordBatch increments the filter's sample/batch counters and pushes them
// into Prometheus; worker functions call this once per batch processed.
func (f *Filter) RecordBatch(nSamples int) {
	f.samplesProcessed.Add(uint64(nSamples))
	f.nBatches.Add(1)
	observeFilterStats(f.cfg.Name, f.samplesProcessed.Load(), f.nBatches.Load())
}

// SubmitToSink writes one batch into the sink connected at port, calling
// fill on the sink buffer's head slot before publishing it. An unconnected
// port is a no-op.
func (f *Filter) SubmitToSink(port int, fill func(dst *bflow.Batch)) bflow.EC {
	f.sinkMu.Lock()
	slot := f.sinks[port]
	f.sinkMu.Unlock()
	if !slot.connected {
		return bflow.OK
	}
	head, ec := slot.buf.GetHead()
	if ec != bflow.OK {
		return ec
	}
	fill(head)
	return slot.buf.Submit(f.cfg.TimeoutNs)
}

// defaultStart spawns exactly one worker goroutine bound to cfg.WorkerFn.
func defaultStart(f *Filter) bflow.EC {
	if !f.running.CompareAndSwap(false, true) {
		return bflow.ErrAlreadyRunning
	}
	if f.cfg.WorkerFn == nil {
		f.running.Store(false)
		return bflow.ErrInvalidConfig
	}
	if f.cfg.RequireSink && !f.anySinkConnected() {
		f.running.Store(false)
		return bflow.ErrNoSink
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.cfg.WorkerFn(f)
	}()
	return bflow.OK
}

// anySinkConnected reports whether at least one sink port has been wired,
// used by the RequireSink precondition in defaultStart.
func (f *Filter) anySinkConnected() bool {
	f.sinkMu.Lock()
	defer f.sinkMu.Unlock()
	for _, s := range f.sinks {
		if s.connected {
			return true
		}
	}
	return false
}

// defaultStop clears running, stops every owned input buffer to wake the
// worker out of GetTail, and joins it. worker_err_info is preserved.
func defaultStop(f *Filter) bflow.EC {
	if !f.running.CompareAndSwap(true, false) {
		// Never started, already stopped, or a worker Assert cleared
		// running: any worker is already returning, so just join it.
		f.wg.Wait()
		return bflow.OK
	}
	for _, in := range f.inputs {
		in.Stop()
	}
	f.wg.Wait()
	return bflow.OK
}

// defaultDeinit is idempotent: if running, stop first, then deinit every
// owned input buffer.
func defaultDeinit(f *Filter) {
	if f.running.Load() {
		f.ops.Stop(f)
	}
	for _, in := range f.inputs {
		in.Deinit()
	}
}

// defaultSaveState/defaultLoadState are no-ops: a filter with nothing to
// persist (the common case) just returns OK, the same SET_UNKNOWN-style
// default the property system uses for an output it doesn't produce. A
// filter with real state overrides both (see filters.Generator).
func defaultSaveState(f *Filter) bflow.EC { return bflow.OK }

func defaultLoadState(f *Filter) bflow.EC { return bflow.OK }

func defaultGetStats(f *Filter) Stats {
	return Stats{
		SamplesProcessed: f.samplesProcessed.Load(),
		NBatches:         f.nBatches.Load(),
	}
}

func defaultGetHealth(f *Filter) bflow.EC {
	f.workerMu.Lock()
	defer f.workerMu.Unlock()
	if f.workerErr.Code != bflow.OK && !f.workerErr.Code.IsLifecycleSignal() {
		return f.workerErr.Code
	}
	return bflow.OK
}

func defaultGetBacklog(f *Filter) int {
	total := 0
	for _, in := range f.inputs {
		total += in.Occupancy()
	}
	return total
}

func defaultDescribe(f *Filter) string {
	return f.cfg.Name + " (" + f.cfg.FilterType + ")"
}

// defaultSinkConnect enforces: port in range, no duplicate connection for
// the same port, guarded by sinkMu.
func defaultSinkConnect(f *Filter, port int, sink *ringbuffer.BatchBuffer) bflow.EC {
	if sink == nil {
		return bflow.ErrNullPtr
	}
	if port < 0 || port >= len(f.sinks) {
		return bflow.ErrExceedsMaxSinks
	}
	f.sinkMu.Lock()
	defer f.sinkMu.Unlock()
	if f.sinks[port].connected {
		return bflow.ErrAlreadyConnected
	}
	f.sinks[port] = sinkSlot{connected: true, buf: sink}
	return bflow.OK
}
