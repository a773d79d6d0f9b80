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
	"fmt"
	"sort"
	"strings"

	"bflow"
)

// Node is anything the validator can place in a graph: a filter contract
// (its input constraints and output behaviors) plus its arity. pkg/pipeline
// implements this over *filter.Filter so this package never has to import
// pkg/filter.
type Node interface {
	Name() string
	NumInputs() int
	Constraints() []Constraint
	Behaviors() []Behavior
}

// Edge is a connection from one node's output to a named input port of
// another. Since a filter produces a single output table regardless of
// which sink port reads it, an edge does not need a "from port".
type Edge struct {
	From string
	To   string
	Port int // the consumer's input port this edge feeds
}

// Graph is the DAG to validate: every concrete filter in a pipeline (or
// sub-pipeline) plus its intra-DAG connections.
type Graph struct {
	Nodes []Node
	Edges []Edge

	// ExternalInputs names nodes that receive data from outside this graph
	// (e.g. a pkg/pipeline.Pipeline's designated input filter, fed through
	// the pipeline's externally-aliased input buffer) rather than from
	// another node in Edges. Such a node satisfies the root-source
	// requirement even though it has NumInputs() > 0 and no incoming Edge:
	// the "must contain at least one source filter" rule is scoped to a
	// *root* pipeline with no external inputs at all.
	ExternalInputs []string
}

// Result is keyed by node name and holds the output table the validator
// computed for that node, for callers that want to inspect what a pipeline
// ultimately produces (pipeline.Start checks only the EC and discards it).
type Result map[string]Table

// allKeys is the closed property universe, iterated in a fixed order so
// merge output is deterministic.
var allKeys = [...]Key{DataType, SamplePeriodNs, MinBatchCapacity, MaxBatchCapacity, GuaranteeFull}

// Validate walks Nodes in topological order, merging each node's input
// tables, checking its constraints against the unmerged per-port tables,
// then applying its behaviors to produce its output table. It reports the
// first constraint failure, with the offending node name in the message.
// The returned string is diagnostic context only; the EC is the contract.
func Validate(g Graph) (Result, string, bflow.EC) {
	order, ec := topoSort(g)
	if ec != bflow.OK {
		return nil, "", ec
	}
	if !hasSource(g) {
		return nil, "", bflow.ErrIncompletePipeline
	}

	byName := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byName[n.Name()] = n
	}
	incoming := make(map[string][]Edge)
	for _, e := range g.Edges {
		incoming[e.To] = append(incoming[e.To], e)
	}

	out := make(Result, len(g.Nodes))
	for _, name := range order {
		n := byName[name]
		inputs := make([]Table, n.NumInputs())
		for i := range inputs {
			inputs[i] = AllUnknown()
		}
		for _, e := range incoming[name] {
			if e.Port < len(inputs) {
				inputs[e.Port] = out[e.From]
			}
		}

		for _, c := range n.Constraints() {
			if ok, reason := c.Check(inputs); !ok {
				return nil, fmt.Sprintf("%s%s: %s", name, feedContext(incoming[name]), reason), bflow.ErrPropertyViolation
			}
		}

		table := mergeInputs(inputs)
		for _, b := range n.Behaviors() {
			table = b.Apply(table, inputs)
		}
		out[name] = table
	}
	return out, "", bflow.OK
}

// feedContext names the producer behind each connected input port, so a
// violation message identifies both ends of the failing connection (the
// constraint's own reason text references inputs by port index).
func feedContext(edges []Edge) string {
	if len(edges) == 0 {
		return ""
	}
	sorted := append([]Edge(nil), edges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Port < sorted[j].Port })
	var sb strings.Builder
	sb.WriteString(" (")
	for i, e := range sorted {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "input %d from %s", e.Port, e.From)
	}
	sb.WriteString(")")
	return sb.String()
}

func mergeInputs(inputs []Table) Table {
	merged := Table{}
	for _, k := range allKeys {
		var found Value
		conflict := false
		for _, t := range inputs {
			v := t.Get(k)
			if !v.Known {
				continue
			}
			if !found.Known {
				found = v
			} else if found.Int != v.Int || found.Bool != v.Bool {
				conflict = true
			}
		}
		if !conflict && found.Known {
			merged[k] = found
		}
	}
	return merged
}

// hasSource reports whether g has a node that can originate data without
// depending on another node in g: either a true source (NumInputs()==0) or
// a node fed from outside the graph (ExternalInputs). A graph with neither
// is an incomplete root pipeline.
func hasSource(g Graph) bool {
	for _, n := range g.Nodes {
		if n.NumInputs() == 0 {
			return true
		}
	}
	for _, name := range g.ExternalInputs {
		if name != "" {
			return true
		}
	}
	return false
}

// topoSort runs Kahn's algorithm over node names.
func topoSort(g Graph) ([]string, bflow.EC) {
	inDegree := make(map[string]int, len(g.Nodes))
	adj := make(map[string][]string)
	for _, n := range g.Nodes {
		inDegree[n.Name()] = 0
	}
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e.To)
		inDegree[e.To]++
	}

	var queue []string
	for _, n := range g.Nodes {
		if inDegree[n.Name()] == 0 {
			queue = append(queue, n.Name())
		}
	}

	var order []string
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)
		for _, next := range adj[name] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, bflow.ErrInvalidConfig // a cycle: some nodes never reached in-degree 0
	}
	return order, bflow.OK
}
