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

package conformance

import (
	"testing"

	"bflow"
	"bflow/pkg/property"
)

// propertyNode is the subset of a concrete filter's methods pkg/property
// consumes; every reference filter implements it alongside FilterAPI (both
// are satisfied by embedding *filter.Filter plus the filter's own
// Constraints/Behaviors methods), so we recover it with a type assertion
// on the Instance.Filter interface value rather than widening FilterAPI.
type propertyNode interface {
	NumInputs() int
	Constraints() []property.Constraint
	Behaviors() []property.Behavior
}

// testBehavioral checks the property contract a filter declares is
// internally consistent: run as the lone node of a single-node graph (no
// edges), it must be rejected as INCOMPLETE_PIPELINE (a graph with no
// source filter) when it has inputs, and must validate cleanly when
// it has none (a source's declared behaviors run against an all-unknown
// input table with no constraints to violate).
func testBehavioral(t *testing.T, f Factory) {
	inst := f.New(t)
	defer inst.Filter.Deinit()

	pn, ok := inst.Filter.(propertyNode)
	if !ok {
		t.Skip("filter does not expose a property contract")
	}

	graph := property.Graph{Nodes: []property.Node{soloNode{pn, "under-test"}}}
	_, reason, ec := property.Validate(graph)

	if pn.NumInputs() == 0 {
		if ec != bflow.OK {
			t.Fatalf("source's lone-node validation = %v (%s), want OK", ec, reason)
		}
		return
	}
	if ec != bflow.ErrIncompletePipeline {
		t.Fatalf("transform/sink alone in a graph with no source = %v (%s), want INCOMPLETE_PIPELINE", ec, reason)
	}
}

// soloNode adapts a propertyNode plus a fixed name to property.Node.
type soloNode struct {
	pn   propertyNode
	name string
}

func (s soloNode) Name() string { return s.name }
func (s soloNode) NumInputs() int { return s.pn.NumInputs() }
func (s soloNode) Constraints() []property.Constraint { return s.pn.Constraints() }
func (s soloNode) Behaviors() []property.Behavior { return s.pn.Behaviors() }
