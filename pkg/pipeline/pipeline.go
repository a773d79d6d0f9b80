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

// Package pipeline treats a DAG of child filters as a single filter: a
// thin façade wiring intra-DAG connections, forwarding external
// sink_connect to the designated output child, and running the property
// validator before any worker is spawned.
package pipeline

import (
	"strings"
	"time"

	"bflow"
	"bflow/pkg/filter"
	"bflow/pkg/property"
	"bflow/pkg/ringbuffer"
)

// Child is anything a Pipeline can host: a leaf filter or a nested
// pipeline, both of which already expose the filt_* surface identically.
type Child interface {
	Name() string
	Start() bflow.EC
	Stop() bflow.EC
	Deinit()
	SinkConnect(port int, sink *ringbuffer.BatchBuffer) bflow.EC
	Describe() string
	GetStats() filter.Stats

	// NumInputs, Constraints, Behaviors, Input let the pipeline build a
	// property.Graph and alias its own external input to a child's.
	NumInputs() int
	Constraints() []property.Constraint
	Behaviors() []property.Behavior
	Input(port int) *ringbuffer.BatchBuffer
}

// Connection is an intra-DAG wire: from's output feeds to's input port.
type Connection struct {
	From     string
	FromPort int
	To       string
	ToPort   int
}

// Config configures a Pipeline at construction.
type Config struct {
	Name         string
	BuffConfig   ringbuffer.Config
	TimeoutNs    time.Duration
	Filters      []Child
	Connections  []Connection
	InputFilter  string
	InputPort    int
	OutputFilter string
	OutputPort   int

	// ExternalInputProperties declares, optionally, the property table the
	// pipeline's external producer guarantees on InputPort (e.g. a
	// filters.Generator's DATA_TYPE/SAMPLE_PERIOD_NS/GUARANTEE_FULL
	// contract). When set, ValidateProperties wires it in as a synthetic
	// always-known source feeding InputFilter, so downstream constraints
	// (e.g. a low-pass filter's EQ(DATA_TYPE, float32)) see real values
	// instead of all-unknown. When left nil, the pipeline still validates
	// — InputFilter is just treated like a source with nothing declared
	// about its input, the same as before this field existed.
	ExternalInputProperties property.Table
}

// Pipeline is a container filter: externally indistinguishable from a leaf
// filter at the filt_* surface.
type Pipeline struct {
	cfg      Config
	children map[string]Child
	input    *ringbuffer.BatchBuffer // aliased to the input filter's input buffer
}

// Init validates connection endpoints against the child list and wires
// every intra-DAG connection by calling SinkConnect on the producer side,
// pointing at the consumer's input buffer. The pipeline's external input is
// aliased to the designated input child's buffer, zero-copy.
func Init(cfg Config) (*Pipeline, bflow.EC) {
	children := make(map[string]Child, len(cfg.Filters))
	for _, c := range cfg.Filters {
		children[c.Name()] = c
	}

	for _, conn := range cfg.Connections {
		from, ok := children[conn.From]
		if !ok {
			return nil, bflow.ErrInvalidArg
		}
		to, ok := children[conn.To]
		if !ok {
			return nil, bflow.ErrInvalidArg
		}
		if conn.ToPort >= to.NumInputs() {
			return nil, bflow.ErrInvalidArg
		}
		if ec := from.SinkConnect(conn.FromPort, to.Input(conn.ToPort)); ec != bflow.OK {
			return nil, ec
		}
	}

	inputChild, ok := children[cfg.InputFilter]
	if !ok {
		return nil, bflow.ErrInvalidArg
	}
	if _, ok := children[cfg.OutputFilter]; !ok {
		return nil, bflow.ErrInvalidArg
	}

	return &Pipeline{
		cfg:      cfg,
		children: children,
		input:    inputChild.Input(cfg.InputPort),
	}, bflow.OK
}

func (p *Pipeline) Name() string { return p.cfg.Name }

// ValidateProperties builds a property.Graph from the child filters and
// connections and runs the topological validator. Called explicitly by a
// caller, or implicitly by Start before any worker is spawned.
//
// The pipeline's designated input filter is marked as an external input: it
// receives data through the pipeline's externally-aliased input buffer, not
// from another child, so it must not trip the root-source (INCOMPLETE_
// PIPELINE) check even when none of the children is itself a zero-input
// source. That check is scoped to a root pipeline with no external inputs
// at all; a pipeline fed from outside (e.g. cmd/bflow-demo's DC-offset DAG
// fed by an external Generator) is not one.
func (p *Pipeline) ValidateProperties() (property.Result, string, bflow.EC) {
	nodes := make([]property.Node, 0, len(p.cfg.Filters)+1)
	for _, c := range p.cfg.Filters {
		nodes = append(nodes, childNode{c})
	}
	edges := make([]property.Edge, 0, len(p.cfg.Connections)+1)
	for _, conn := range p.cfg.Connections {
		edges = append(edges, property.Edge{From: conn.From, To: conn.To, Port: conn.ToPort})
	}
	if len(p.cfg.ExternalInputProperties) > 0 {
		nodes = append(nodes, externalSourceNode{table: p.cfg.ExternalInputProperties})
		edges = append(edges, property.Edge{From: externalSourceName, To: p.cfg.InputFilter, Port: p.cfg.InputPort})
	}
	return property.Validate(property.Graph{
		Nodes:          nodes,
		Edges:          edges,
		ExternalInputs: []string{p.cfg.InputFilter},
	})
}

type childNode struct{ c Child }

func (n childNode) Name() string { return n.c.Name() }
func (n childNode) NumInputs() int { return n.c.NumInputs() }
func (n childNode) Constraints() []property.Constraint { return n.c.Constraints() }
func (n childNode) Behaviors() []property.Behavior { return n.c.Behaviors() }

// externalSourceName is the synthetic node ValidateProperties wires in for a
// declared ExternalInputProperties table; it never collides with a real
// child name since children are keyed by their own Name().
const externalSourceName = "__external_input__"

// externalSourceNode is a property.Node with no inputs whose output table is
// exactly the declared ExternalInputProperties, letting the validator
// propagate known values from outside the pipeline the same way it would
// from a real source filter's SET behaviors.
type externalSourceNode struct{ table property.Table }

func (n externalSourceNode) Name() string { return externalSourceName }
func (n externalSourceNode) NumInputs() int { return 0 }
func (n externalSourceNode) Constraints() []property.Constraint { return nil }

func (n externalSourceNode) Behaviors() []property.Behavior {
	behaviors := make([]property.Behavior, 0, len(n.table))
	for k, v := range n.table {
		behaviors = append(behaviors, property.Set{Key: k, Value: v})
	}
	return behaviors
}

// Start validates properties, then starts every child. By the time Init
// has run, every intra-DAG connection already exists, so start order does
// not matter.
func (p *Pipeline) Start() bflow.EC {
	if _, _, ec := p.ValidateProperties(); ec != bflow.OK {
		return ec
	}
	for _, c := range p.cfg.Filters {
		if ec := c.Start(); ec != bflow.OK {
			return ec
		}
	}
	return bflow.OK
}

// Stop stops children in reverse declaration order and joins them.
func (p *Pipeline) Stop() bflow.EC {
	for i := len(p.cfg.Filters) - 1; i >= 0; i-- {
		p.cfg.Filters[i].Stop()
	}
	return bflow.OK
}

// Deinit deinits every child. Idempotent because each child's own Deinit
// is idempotent.
func (p *Pipeline) Deinit() {
	for _, c := range p.cfg.Filters {
		c.Deinit()
	}
}

// SinkConnect forwards to the designated output filter; the pipeline itself
// holds no sinks of its own.
func (p *Pipeline) SinkConnect(port int, sink *ringbuffer.BatchBuffer) bflow.EC {
	out, ok := p.children[p.cfg.OutputFilter]
	if !ok {
		return bflow.ErrInvalidConfig
	}
	return out.SinkConnect(port, sink)
}

// Input exposes the pipeline's aliased external input buffer, used by a
// caller acting as the pipeline's producer.
func (p *Pipeline) Input(port int) *ringbuffer.BatchBuffer { return p.input }

// NumInputs, Constraints, Behaviors let a Pipeline itself be nested as a
// Child of an outer Pipeline.
func (p *Pipeline) NumInputs() int { return 1 }
func (p *Pipeline) Constraints() []property.Constraint {
	return p.children[p.cfg.InputFilter].Constraints()
}
func (p *Pipeline) Behaviors() []property.Behavior {
	return p.children[p.cfg.OutputFilter].Behaviors()
}

func (p *Pipeline) GetStats() filter.Stats {
	var total filter.Stats
	for _, c := range p.cfg.Filters {
		s := c.GetStats()
		total.SamplesProcessed += s.SamplesProcessed
		total.NBatches += s.NBatches
	}
	return total
}

// Describe prints the pipeline's name and every child filter's status.
func (p *Pipeline) Describe() string {
	var b strings.Builder
	b.WriteString(p.cfg.Name)
	b.WriteString(" [")
	for i, c := range p.cfg.Filters {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Describe())
	}
	b.WriteString("]")
	return b.String()
}
