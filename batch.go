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

import "fmt"

// Batch is the fixed-capacity unit exchanged between filters. Data holds
// exactly one of []float32, []int32 or []uint32 matching the owning
// buffer's dtype; its backing array is allocated once by the buffer at
// construction and never reallocated or re-sliced to a different array —
// producers only ever write into data[0:Head) of the same slice header.
type Batch struct {
	Data     any
	Head     int
	TNs      int64
	PeriodNs int64
	BatchID  uint64
	EC       EC
	Meta     any
}

// Capacity returns the fixed sample capacity of the batch, independent of Head.
func (b *Batch) Capacity() int {
	switch d := b.Data.(type) {
	case []float32:
		return len(d)
	case []int32:
		return len(d)
	case []uint32:
		return len(d)
	default:
		return 0
	}
}

// Float32s returns the batch's backing slice as []float32, panicking with a
// DTYPE_MISMATCH-flavored message if the batch does not hold float32 data.
// Like the worker-assert discipline elsewhere in this module, a dtype
// mismatch is a programmer error at the call site, not a value to paper
// over with a zero slice.
func (b *Batch) Float32s() []float32 {
	v, ok := b.Data.([]float32)
	if !ok {
		panic(fmt.Sprintf("bflow: Float32s called on batch holding %T", b.Data))
	}
	return v
}

// Int32s returns the batch's backing slice as []int32.
func (b *Batch) Int32s() []int32 {
	v, ok := b.Data.([]int32)
	if !ok {
		panic(fmt.Sprintf("bflow: Int32s called on batch holding %T", b.Data))
	}
	return v
}

// Uint32s returns the batch's backing slice as []uint32.
func (b *Batch) Uint32s() []uint32 {
	v, ok := b.Data.([]uint32)
	if !ok {
		panic(fmt.Sprintf("bflow: Uint32s called on batch holding %T", b.Data))
	}
	return v
}

// Dtype reports the dtype of the batch's backing slice.
func (b *Batch) Dtype() DType {
	switch b.Data.(type) {
	case []float32:
		return Float32
	case []int32:
		return Int32
	case []uint32:
		return UInt32
	default:
		return Undefined
	}
}

// CopyFrom copies src's metadata and valid sample prefix (data[0:Head)) into
// b. Both batches must hold the same dtype; b keeps its own backing slice.
func (b *Batch) CopyFrom(src *Batch) {
	switch d := src.Data.(type) {
	case []float32:
		copy(b.Float32s(), d[:src.Head])
	case []int32:
		copy(b.Int32s(), d[:src.Head])
	case []uint32:
		copy(b.Uint32s(), d[:src.Head])
	}
	b.Head = src.Head
	b.TNs = src.TNs
	b.PeriodNs = src.PeriodNs
	b.BatchID = src.BatchID
	b.EC = src.EC
	b.Meta = src.Meta
}

// NewArena allocates the sample arena for n batches of the given dtype and
// per-batch capacity, and returns n Batch headers viewing disjoint regions
// of it. Batch.Data stays a typed slice header pointing into the arena for
// the lifetime of the buffer (invariant B-I1).
func NewArena(dtype DType, nBatches, batchCapacity int) []Batch {
	batches := make([]Batch, nBatches)
	switch dtype {
	case Float32:
		arena := make([]float32, nBatches*batchCapacity)
		for i := range batches {
			batches[i].Data = arena[i*batchCapacity : (i+1)*batchCapacity : (i+1)*batchCapacity]
		}
	case Int32:
		arena := make([]int32, nBatches*batchCapacity)
		for i := range batches {
			batches[i].Data = arena[i*batchCapacity : (i+1)*batchCapacity : (i+1)*batchCapacity]
		}
	case UInt32:
		arena := make([]uint32, nBatches*batchCapacity)
		for i := range batches {
			batches[i].Data = arena[i*batchCapacity : (i+1)*batchCapacity : (i+1)*batchCapacity]
		}
	default:
		panic("bflow: NewArena requires a concrete dtype")
	}
	return batches
}
