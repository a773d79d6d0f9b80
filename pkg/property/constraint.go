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

import "fmt"

// Constraint is something a filter requires of one (or several) of its
// input property tables. Check is evaluated against the already-propagated
// tables of the filter's inputs, indexed the same way as the filter's input
// ports. It returns a human-readable reason on failure, or "" on success.
// An unknown property always fails a constraint that names it, never passes
// by assumption.
type Constraint interface {
	Check(inputs []Table) (ok bool, reason string)
}

// Exists requires that port's Key be known, independent of its value.
type Exists struct {
	Port int
	Key  Key
}

func (c Exists) Check(inputs []Table) (bool, string) {
	v := inputs[c.Port].Get(c.Key)
	if !v.Known {
		return false, fmt.Sprintf("input %d: %s is unknown, EXISTS requires it known", c.Port, c.Key)
	}
	return true, ""
}

// Eq requires port's Key equal a fixed integer value (used for DataType and
// similar enum-backed properties).
type Eq struct {
	Port int
	Key  Key
	Want int64
}

func (c Eq) Check(inputs []Table) (bool, string) {
	v := inputs[c.Port].Get(c.Key)
	if !v.Known {
		return false, fmt.Sprintf("input %d: %s is unknown, EQ(%d) requires it known", c.Port, c.Key, c.Want)
	}
	if v.Int != c.Want {
		return false, fmt.Sprintf("input %d: %s = %d, want %d", c.Port, c.Key, v.Int, c.Want)
	}
	return true, ""
}

// Gte requires port's Key be numerically >= Want.
type Gte struct {
	Port int
	Key  Key
	Want int64
}

func (c Gte) Check(inputs []Table) (bool, string) {
	v := inputs[c.Port].Get(c.Key)
	if !v.Known {
		return false, fmt.Sprintf("input %d: %s is unknown, GTE(%d) requires it known", c.Port, c.Key, c.Want)
	}
	if v.Int < c.Want {
		return false, fmt.Sprintf("input %d: %s = %d, want >= %d", c.Port, c.Key, v.Int, c.Want)
	}
	return true, ""
}

// Lte requires port's Key be numerically <= Want.
type Lte struct {
	Port int
	Key  Key
	Want int64
}

func (c Lte) Check(inputs []Table) (bool, string) {
	v := inputs[c.Port].Get(c.Key)
	if !v.Known {
		return false, fmt.Sprintf("input %d: %s is unknown, LTE(%d) requires it known", c.Port, c.Key, c.Want)
	}
	if v.Int > c.Want {
		return false, fmt.Sprintf("input %d: %s = %d, want <= %d", c.Port, c.Key, v.Int, c.Want)
	}
	return true, ""
}

// MultiInputAligned requires Key be known and equal across every named
// input port (e.g. elementwise-subtract requiring matching SAMPLE_PERIOD_NS
// on both of its inputs).
type MultiInputAligned struct {
	Ports []int
	Key   Key
}

func (c MultiInputAligned) Check(inputs []Table) (bool, string) {
	if len(c.Ports) == 0 {
		return true, ""
	}
	first := inputs[c.Ports[0]].Get(c.Key)
	if !first.Known {
		return false, fmt.Sprintf("input %d: %s is unknown, MULTI_INPUT_ALIGNED requires it known", c.Ports[0], c.Key)
	}
	for _, p := range c.Ports[1:] {
		v := inputs[p].Get(c.Key)
		if !v.Known {
			return false, fmt.Sprintf("input %d: %s is unknown, MULTI_INPUT_ALIGNED requires it known", p, c.Key)
		}
		if v.Int != first.Int || v.Bool != first.Bool {
			return false, fmt.Sprintf("input %d: %s misaligned with input %d", p, c.Key, c.Ports[0])
		}
	}
	return true, ""
}
