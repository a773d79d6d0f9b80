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

import (
	"strings"
	"testing"

	"bflow"
)

type fakeNode struct {
	name        string
	numInputs   int
	constraints []Constraint
	behaviors   []Behavior
}

func (n fakeNode) Name() string              { return n.name }
func (n fakeNode) NumInputs() int            { return n.numInputs }
func (n fakeNode) Constraints() []Constraint { return n.constraints }
func (n fakeNode) Behaviors() []Behavior     { return n.behaviors }

func TestValidate_LinearChainPropagatesDataType(t *testing.T) {
	source := fakeNode{
		name:      "source",
		numInputs: 0,
		behaviors: []Behavior{Set{Key: DataType, Value: KnownInt(int64(bflow.Float32))}},
	}
	sink := fakeNode{
		name:        "sink",
		numInputs:   1,
		constraints: []Constraint{Eq{Port: 0, Key: DataType, Want: int64(bflow.Float32)}},
	}
	g := Graph{
		Nodes: []Node{source, sink},
		Edges: []Edge{{From: "source", To: "sink", Port: 0}},
	}
	result, reason, ec := Validate(g)
	if ec != bflow.OK {
		t.Fatalf("Validate = %v (%s), want OK", ec, reason)
	}
	if got := result["sink"].Get(DataType); !got.Known || got.Int != int64(bflow.Float32) {
		t.Fatalf("sink output DataType = %+v, want known Float32", got)
	}
}

func TestValidate_PropertyViolationEarlyExit(t *testing.T) {
	source := fakeNode{
		name:      "source",
		numInputs: 0,
		behaviors: []Behavior{Set{Key: DataType, Value: KnownInt(int64(bflow.Int32))}},
	}
	sink := fakeNode{
		name:        "sink",
		numInputs:   1,
		constraints: []Constraint{Eq{Port: 0, Key: DataType, Want: int64(bflow.Float32)}},
	}
	g := Graph{
		Nodes: []Node{source, sink},
		Edges: []Edge{{From: "source", To: "sink", Port: 0}},
	}
	_, reason, ec := Validate(g)
	if ec != bflow.ErrPropertyViolation {
		t.Fatalf("Validate = %v, want PROPERTY_VIOLATION", ec)
	}
	// The diagnostic must name both ends of the failing connection.
	for _, want := range []string{"source", "sink"} {
		if !strings.Contains(reason, want) {
			t.Fatalf("diagnostic %q does not name %q", reason, want)
		}
	}
}

func TestValidate_IncompletePipelineWithoutSource(t *testing.T) {
	a := fakeNode{name: "a", numInputs: 1}
	b := fakeNode{name: "b", numInputs: 1}
	g := Graph{
		Nodes: []Node{a, b},
		Edges: []Edge{{From: "a", To: "b", Port: 0}},
	}
	_, _, ec := Validate(g)
	if ec != bflow.ErrIncompletePipeline {
		t.Fatalf("Validate = %v, want INCOMPLETE_PIPELINE", ec)
	}
}

func TestValidate_CycleRejected(t *testing.T) {
	source := fakeNode{name: "source", numInputs: 0}
	a := fakeNode{name: "a", numInputs: 1}
	b := fakeNode{name: "b", numInputs: 1}
	g := Graph{
		Nodes: []Node{source, a, b},
		Edges: []Edge{
			{From: "source", To: "a", Port: 0},
			{From: "a", To: "b", Port: 0},
			{From: "b", To: "a", Port: 0}, // a<->b cycle
		},
	}
	_, _, ec := Validate(g)
	if ec != bflow.ErrInvalidConfig {
		t.Fatalf("Validate = %v, want INVALID_CONFIG (cycle)", ec)
	}
}

func TestValidate_MultiInputAlignedRequiresMatch(t *testing.T) {
	srcA := fakeNode{name: "a", numInputs: 0, behaviors: []Behavior{Set{Key: SamplePeriodNs, Value: KnownInt(1000)}}}
	srcB := fakeNode{name: "b", numInputs: 0, behaviors: []Behavior{Set{Key: SamplePeriodNs, Value: KnownInt(2000)}}}
	subtract := fakeNode{
		name:        "subtract",
		numInputs:   2,
		constraints: []Constraint{MultiInputAligned{Ports: []int{0, 1}, Key: SamplePeriodNs}},
	}
	g := Graph{
		Nodes: []Node{srcA, srcB, subtract},
		Edges: []Edge{
			{From: "a", To: "subtract", Port: 0},
			{From: "b", To: "subtract", Port: 1},
		},
	}
	_, _, ec := Validate(g)
	if ec != bflow.ErrPropertyViolation {
		t.Fatalf("Validate = %v, want PROPERTY_VIOLATION for misaligned periods", ec)
	}
}

func TestValidate_SetUnknownPreventsDownstreamRequirement(t *testing.T) {
	source := fakeNode{
		name:      "source",
		numInputs: 0,
		behaviors: []Behavior{Set{Key: SamplePeriodNs, Value: KnownInt(1000)}},
	}
	resampler := fakeNode{
		name:      "resampler",
		numInputs: 1,
		behaviors: []Behavior{SetUnknown{Key: SamplePeriodNs}},
	}
	strictSink := fakeNode{
		name:        "sink",
		numInputs:   1,
		constraints: []Constraint{Exists{Port: 0, Key: SamplePeriodNs}},
	}
	g := Graph{
		Nodes: []Node{source, resampler, strictSink},
		Edges: []Edge{
			{From: "source", To: "resampler", Port: 0},
			{From: "resampler", To: "sink", Port: 0},
		},
	}
	_, _, ec := Validate(g)
	if ec != bflow.ErrPropertyViolation {
		t.Fatalf("Validate = %v, want PROPERTY_VIOLATION (resampler marked period unknown)", ec)
	}
}
