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

// Package ringbuffer implements the single-producer/single-consumer batch
// ring buffer: a fixed-capacity queue of fixed-capacity sample batches with
// blocking, timeout, and overflow-policy semantics.
//
// The blocking primitives (not-empty / not-full, broadcast on stop) use
// version channels: a chan struct{} that is closed to broadcast a state
// change and replaced under the buffer's mutex. A waiter snapshots the
// current channel, then selects on it alongside the stop channel and an
// optional timer, which gives condition-variable semantics with timeout
// support.
package ringbuffer

import (
	"sync"
	"sync/atomic"
	"time"

	"bflow"
)

// OverflowPolicy selects producer-side behavior when Submit finds the ring
// full.
type OverflowPolicy int

const (
	Block OverflowPolicy = iota
	DropHead
	DropTail
)

// DropTailBusyPolicy selects what a DROP_TAIL producer does when the slot it
// would reclaim is CONSUMING: block until the consumer releases it, or give
// up immediately with CONSUMER_ACTIVE.
type DropTailBusyPolicy int

const (
	DropTailBlocks DropTailBusyPolicy = iota
	DropTailReturnsConsumerActive
)

// Config configures a BatchBuffer at construction. All fields are immutable
// for the buffer's lifetime.
type Config struct {
	Dtype             bflow.DType
	BatchCapacityExpo uint
	RingCapacityExpo  uint
	Overflow          OverflowPolicy
	DropTailOnBusy    DropTailBusyPolicy
	TimeoutNs         time.Duration
	Name              string
}

type stats struct {
	totalBatches      atomic.Uint64
	droppedByProducer atomic.Uint64
	blockedNs         atomic.Int64
}

// Stats is a point-in-time snapshot of a buffer's counters.
type Stats struct {
	TotalBatches      uint64
	DroppedByProducer uint64
	BlockedNs         int64
}

// BatchBuffer is an SPSC ring of batches. Exactly one producer and one
// consumer may be attached at a time. Neither the buffer nor pkg/filter
// checks this at runtime: pkg/filter's SinkConnect only rejects a second
// connection on the same port of the same filter, so two filters (or two
// ports) connected to one buffer are not detected.
type BatchBuffer struct {
	cfg           Config
	batchCapacity int
	ringCapacity  int
	mask          uint64

	batches []bflow.Batch
	slots   []slotMeta

	// scratch is the staging batch GetHead hands out while the ring is full,
	// so the producer never writes through the slot at head&mask — when full
	// that slot aliases the oldest unconsumed batch. pendingScratch is
	// producer-side state only (SPSC), so neither needs synchronization.
	scratch        *bflow.Batch
	pendingScratch bool

	head atomic.Uint64
	tail atomic.Uint64

	mu       sync.Mutex
	notEmpty chan struct{}
	notFull  chan struct{}
	stopCh   chan struct{}
	running  atomic.Bool

	stats stats
}

// New validates cfg and allocates the buffer's arena and metadata. It is the
// only fallible non-blocking operation in this package.
func New(cfg Config) (*BatchBuffer, error) {
	if cfg.Dtype == bflow.Undefined {
		return nil, configErr("dtype must not be Undefined")
	}
	if cfg.BatchCapacityExpo == 0 || cfg.BatchCapacityExpo > 24 {
		return nil, configErr("batch_capacity_expo out of range")
	}
	if cfg.RingCapacityExpo == 0 || cfg.RingCapacityExpo > 24 {
		return nil, configErr("ring_capacity_expo out of range")
	}
	batchCapacity := 1 << cfg.BatchCapacityExpo
	ringCapacity := 1 << cfg.RingCapacityExpo

	b := &BatchBuffer{
		cfg:           cfg,
		batchCapacity: batchCapacity,
		ringCapacity:  ringCapacity,
		mask:          uint64(ringCapacity - 1),
		batches:       bflow.NewArena(cfg.Dtype, ringCapacity, batchCapacity),
		slots:         make([]slotMeta, ringCapacity),
		scratch:       &bflow.NewArena(cfg.Dtype, 1, batchCapacity)[0],
		notEmpty:      make(chan struct{}),
		notFull:       make(chan struct{}),
		stopCh:        make(chan struct{}),
	}
	close(b.stopCh) // not running yet; any wait returns STOPPED until Start
	registerBufferMetrics(cfg.Name)
	return b, nil
}

// configErr wraps INVALID_CONFIG with a message; kept tiny since init is the
// only place in this package that returns a Go error rather than an EC.
type configError string

func (e configError) Error() string { return "ringbuffer: invalid config: " + string(e) }
func (e configError) Unwrap() error { return bflow.ErrInvalidConfig }
func configErr(msg string) error    { return configError(msg) }

// Deinit releases the buffer's backing arrays. Idempotent: calling it twice,
// or after the buffer was never started, is safe.
func (b *BatchBuffer) Deinit() {
	b.batches = nil
	b.slots = nil
	b.scratch = nil
}

// Start transitions the buffer to running. Returns ALREADY_RUNNING if it is
// already running.
func (b *BatchBuffer) Start() bflow.EC {
	if !b.running.CompareAndSwap(false, true) {
		return bflow.ErrAlreadyRunning
	}
	b.mu.Lock()
	b.stopCh = make(chan struct{})
	b.mu.Unlock()
	return bflow.OK
}

// Stop transitions the buffer to stopped, broadcasting to every blocked
// waiter (in GetTail/Submit) that they should return STOPPED. A no-op if
// not running.
func (b *BatchBuffer) Stop() bflow.EC {
	if !b.running.CompareAndSwap(true, false) {
		return bflow.OK
	}
	b.mu.Lock()
	close(b.stopCh)
	b.mu.Unlock()
	return bflow.OK
}

// Running reports whether the buffer is currently started.
func (b *BatchBuffer) Running() bool { return b.running.Load() }

// Name returns the buffer's configured name.
func (b *BatchBuffer) Name() string { return b.cfg.Name }

// Capacity returns the ring's fixed batch capacity (number of batch slots).
func (b *BatchBuffer) Capacity() int { return b.ringCapacity }

// BatchCapacity returns the per-batch sample capacity.
func (b *BatchBuffer) BatchCapacity() int { return b.batchCapacity }

// Occupancy returns the number of batches currently queued.
func (b *BatchBuffer) Occupancy() int {
	return int(b.head.Load() - b.tail.Load())
}

// IsEmpty reports whether the ring has no queued batches.
func (b *BatchBuffer) IsEmpty() bool { return b.head.Load() == b.tail.Load() }

// IsFull reports whether the ring is at capacity.
func (b *BatchBuffer) IsFull() bool { return b.Occupancy() >= b.ringCapacity }

// Stats returns a snapshot of the buffer's counters.
func (b *BatchBuffer) Stats() Stats {
	s := Stats{
		TotalBatches:      b.stats.totalBatches.Load(),
		DroppedByProducer: b.stats.droppedByProducer.Load(),
		BlockedNs:         b.stats.blockedNs.Load(),
	}
	observeBufferStats(b.cfg.Name, s, b.Occupancy())
	return s
}

// GetHead returns the producer-side writable batch. The caller fills
// Data[0:Head) and metadata in place, then calls Submit. Returns STOPPED if
// the buffer is not running.
//
// While the ring has space this is the batch at the head index. When the
// ring is full, the slot at head&mask aliases the oldest unconsumed batch,
// so GetHead instead returns the staging batch: Submit copies it into a
// real slot once the overflow policy has made space, drops it (DROP_HEAD),
// or retains it across a TIMEOUT/CONSUMER_ACTIVE so no data is lost.
func (b *BatchBuffer) GetHead() (*bflow.Batch, bflow.EC) {
	if !b.running.Load() {
		return nil, bflow.ErrStopped
	}
	if b.pendingScratch {
		return b.scratch, bflow.OK
	}
	h := b.head.Load()
	t := b.tail.Load()
	if h-t < uint64(b.ringCapacity) {
		return &b.batches[h&b.mask], bflow.OK
	}
	if b.cfg.Overflow == DropTail && b.tryReclaimTail() == bflow.OK {
		return &b.batches[b.head.Load()&b.mask], bflow.OK
	}
	b.pendingScratch = true
	return b.scratch, bflow.OK
}

// Submit publishes the batch the producer just wrote via GetHead, applying
// the configured overflow policy if the ring is full. timeout == 0 means
// wait indefinitely under BLOCK.
func (b *BatchBuffer) Submit(timeout time.Duration) bflow.EC {
	if !b.running.Load() {
		return bflow.ErrStopped
	}
	start := time.Now()
	for {
		h := b.head.Load()
		t := b.tail.Load()
		if h-t < uint64(b.ringCapacity) {
			idx := h & b.mask
			if b.pendingScratch {
				b.batches[idx].CopyFrom(b.scratch)
				b.pendingScratch = false
			}
			b.slots[idx].store(slotReady)
			b.head.Store(h + 1)
			b.stats.totalBatches.Add(1)
			b.signalNotEmpty()
			return bflow.OK
		}

		switch b.cfg.Overflow {
		case DropHead:
			b.pendingScratch = false
			b.stats.droppedByProducer.Add(1)
			return bflow.OK
		case DropTail:
			ec := b.tryReclaimTail()
			if ec == bflow.OK {
				continue
			}
			if b.cfg.DropTailOnBusy == DropTailReturnsConsumerActive {
				return bflow.ErrConsumerActive
			}
			// else: configured to block past a busy slot, fall through.
		}

		ec := b.waitNotFull(timeout, start)
		if ec != bflow.OK {
			return ec
		}
		if !b.running.Load() {
			return bflow.ErrStopped
		}
	}
}

// GetTail returns the consumer-side readable batch at the current tail
// index, blocking (subject to timeout) until one is available. The
// returned EC is COMPLETE if the dequeued batch carries ec==COMPLETE,
// STOPPED if the buffer was stopped, TIMEOUT if the deadline elapsed, or OK
// otherwise.
func (b *BatchBuffer) GetTail(timeout time.Duration) (*bflow.Batch, bflow.EC) {
	if !b.running.Load() {
		return nil, bflow.ErrStopped
	}
	start := time.Now()
	for {
		h := b.head.Load()
		t := b.tail.Load()
		if t < h {
			idx := t & b.mask
			// READY->CONSUMING must be a CAS: a DROP_TAIL producer may be
			// reclaiming this slot concurrently. Losing the race means the
			// slot was dropped and tail is advancing; re-read and retry.
			// CONSUMING already is this consumer's own re-get (SPSC: nobody
			// else transitions a slot into CONSUMING), so just return it.
			if !b.slots[idx].cas(slotReady, slotConsuming) &&
				b.slots[idx].load() != slotConsuming {
				continue
			}
			batch := &b.batches[idx]
			if batch.EC == bflow.ErrComplete {
				return batch, bflow.ErrComplete
			}
			return batch, bflow.OK
		}
		ec := b.waitNotEmpty(timeout, start)
		if ec != bflow.OK {
			return nil, ec
		}
		if !b.running.Load() {
			return nil, bflow.ErrStopped
		}
	}
}

// ReleaseTail advances the tail past the batch most recently returned by
// GetTail, waking a producer blocked on not-full.
func (b *BatchBuffer) ReleaseTail() {
	t := b.tail.Load()
	idx := t & b.mask
	b.slots[idx].store(slotConsumed)
	b.tail.Store(t + 1)
	b.signalNotFull()
}

// tryReclaimTail implements the DROP_TAIL interlock: it may only reclaim a
// slot in READY or CONSUMED state. A CONSUMING slot means the consumer is
// mid-read, and the producer must not touch it.
func (b *BatchBuffer) tryReclaimTail() bflow.EC {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.head.Load()
	t := b.tail.Load()
	if h-t < uint64(b.ringCapacity) {
		return bflow.OK // no longer full; let the caller's loop re-check and write normally
	}
	idx := t & b.mask
	// READY->EMPTY must be a CAS against the consumer's READY->CONSUMING:
	// whoever wins owns the slot. CONSUMED/EMPTY cannot be mid-read, so a
	// plain store suffices for those.
	switch {
	case b.slots[idx].cas(slotReady, slotEmpty):
	case b.slots[idx].load() == slotConsuming:
		return bflow.ErrConsumerActive
	default:
		b.slots[idx].store(slotEmpty)
	}
	b.tail.Store(t + 1)
	b.stats.droppedByProducer.Add(1)
	b.signalNotFullLocked()
	return bflow.OK
}

func (b *BatchBuffer) signalNotEmpty() {
	b.mu.Lock()
	close(b.notEmpty)
	b.notEmpty = make(chan struct{})
	b.mu.Unlock()
}

func (b *BatchBuffer) signalNotFull() {
	b.mu.Lock()
	b.signalNotFullLocked()
	b.mu.Unlock()
}

func (b *BatchBuffer) signalNotFullLocked() {
	close(b.notFull)
	b.notFull = make(chan struct{})
}

// waitNotEmpty blocks until the ring may be non-empty, the buffer stops, or
// the deadline passes. The channel snapshot and the emptiness re-check
// happen under the same lock: a submit that fills the ring after the
// re-check is guaranteed to close the snapshotted channel (signalNotEmpty
// replaces it under this mutex), so the wake-up cannot be lost between the
// caller's unlocked check and the select below.
func (b *BatchBuffer) waitNotEmpty(timeout time.Duration, start time.Time) bflow.EC {
	b.mu.Lock()
	ch := b.notEmpty
	stop := b.stopCh
	nonEmpty := b.tail.Load() < b.head.Load()
	b.mu.Unlock()
	if nonEmpty {
		return bflow.OK
	}

	waitStart := time.Now()
	defer func() { b.stats.blockedNs.Add(time.Since(waitStart).Nanoseconds()) }()

	if timeout > 0 {
		left := timeout - time.Since(start)
		if left <= 0 {
			return bflow.ErrTimeout
		}
		timer := time.NewTimer(left)
		defer timer.Stop()
		select {
		case <-ch:
			return bflow.OK
		case <-stop:
			return bflow.ErrStopped
		case <-timer.C:
			return bflow.ErrTimeout
		}
	}
	select {
	case <-ch:
		return bflow.OK
	case <-stop:
		return bflow.ErrStopped
	}
}

// waitNotFull is the producer-side mirror of waitNotEmpty: the channel
// snapshot and the fullness re-check share the lock, so a ReleaseTail (or
// DROP_TAIL reclaim) that frees a slot after the re-check must close the
// snapshotted channel.
func (b *BatchBuffer) waitNotFull(timeout time.Duration, start time.Time) bflow.EC {
	b.mu.Lock()
	ch := b.notFull
	stop := b.stopCh
	hasSpace := b.head.Load()-b.tail.Load() < uint64(b.ringCapacity)
	b.mu.Unlock()
	if hasSpace {
		return bflow.OK
	}

	waitStart := time.Now()
	defer func() { b.stats.blockedNs.Add(time.Since(waitStart).Nanoseconds()) }()

	if timeout > 0 {
		left := timeout - time.Since(start)
		if left <= 0 {
			return bflow.ErrTimeout
		}
		timer := time.NewTimer(left)
		defer timer.Stop()
		select {
		case <-ch:
			return bflow.OK
		case <-stop:
			return bflow.ErrStopped
		case <-timer.C:
			return bflow.ErrTimeout
		}
	}
	select {
	case <-ch:
		return bflow.OK
	case <-stop:
		return bflow.ErrStopped
	}
}
