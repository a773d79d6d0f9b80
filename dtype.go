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

// Package bflow provides the data model and error taxonomy shared by every
// component of the batch dataflow runtime: sample dtype, the fixed-capacity
// Batch exchanged between filters, and the closed error-code enum that all
// fallible operations return.
package bflow

// DType identifies the sample type carried by a BatchBuffer. It is fixed at
// buffer construction and never changes thereafter.
type DType uint8

const (
	Undefined DType = iota
	Float32
	Int32
	UInt32
)

// String implements fmt.Stringer.
func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case UInt32:
		return "uint32"
	default:
		return "undefined"
	}
}

// SampleWidth returns the width in bytes of one sample of this dtype.
func (d DType) SampleWidth() int {
	switch d {
	case Float32, Int32, UInt32:
		return 4
	default:
		return 0
	}
}
