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

package ringbuffer

import "sync/atomic"

type slotState int32

const (
	slotEmpty slotState = iota
	slotReady
	slotConsuming
	slotConsumed
)

// slotPad is sized so each slotMeta occupies a full cache line: the state
// machine is written by the consumer (READY->CONSUMING->CONSUMED) and
// sometimes by a DROP_TAIL producer, so neighboring slots must not share a
// line with it or unrelated writes stall each other.
const slotPad = 64 - 4

type slotMeta struct {
	state atomic.Int32
	_     [slotPad]byte
}

func (s *slotMeta) load() slotState   { return slotState(s.state.Load()) }
func (s *slotMeta) store(v slotState) { s.state.Store(int32(v)) }
func (s *slotMeta) cas(old, new slotState) bool {
	return s.state.CompareAndSwap(int32(old), int32(new))
}
