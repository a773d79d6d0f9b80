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

package property

// Behavior derives one entry of a filter's output table from its merged
// input tables. Behaviors for a filter are applied in declaration order
// against the same merged input table, building up the output table one
// Key at a time.
type Behavior interface {
	Apply(out Table, inputs []Table) Table
}

// Set assigns Key a fixed known value in the output table, independent of
// any input — used by sources and by filters whose output property is a
// function of configuration, not of the inputs (e.g. a rate converter
// setting a new SAMPLE_PERIOD_NS).
type Set struct {
	Key   Key
	Value Value
}

func (b Set) Apply(out Table, _ []Table) Table {
	return out.Set(b.Key, b.Value)
}

// Preserve copies Key verbatim from one named input, used by filters that
// pass a property through unchanged (e.g. a low-pass filter preserving
// DATA_TYPE and SAMPLE_PERIOD_NS from its single input).
type Preserve struct {
	Key   Key
	Input int
}

func (b Preserve) Apply(out Table, inputs []Table) Table {
	return out.Set(b.Key, inputs[b.Input].Get(b.Key))
}

// Scale multiplies a numeric input property by Factor, used by filters that
// change cadence predictably (e.g. a decimator halving SAMPLE_PERIOD_NS's
// inverse, or doubling the period itself).
type Scale struct {
	Key    Key
	Input  int
	Factor float64
}

func (b Scale) Apply(out Table, inputs []Table) Table {
	v := inputs[b.Input].Get(b.Key)
	if !v.Known {
		return out.Set(b.Key, Unknown)
	}
	return out.Set(b.Key, KnownInt(int64(float64(v.Int) * b.Factor)))
}

// SetUnknown marks Key unknown in the output, used by filters whose effect
// on a property cannot be predicted statically (e.g. a variable-rate
// resampler's SAMPLE_PERIOD_NS) — downstream filters must not require it.
type SetUnknown struct {
	Key Key
}

func (b SetUnknown) Apply(out Table, _ []Table) Table {
	return out.Set(b.Key, Unknown)
}
