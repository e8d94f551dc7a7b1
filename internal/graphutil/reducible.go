// Copyright The Tidewater Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package graphutil

import (
	"fmt"
	"strings"

	ybgraph "github.com/yourbasic/graph"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/tidewater-vm/tidewater/compiler/ir"
	"github.com/tidewater-vm/tidewater/internal/funcutil"
)

// CheckReducible verifies that every control cycle of the graph is entered
// only through a single Loop header. The loop-state computation of the
// optimizer assumes this: the entry edge of a loop must dominate its body.
// Returns an error naming the first offending cycle.
func CheckReducible(g *ir.Graph) error {
	cg := NewControlGraph(g)
	for _, component := range topo.TarjanSCC(cg) {
		if len(component) < 2 {
			id := component[0].ID()
			if !cg.Edges[id][id] {
				continue
			}
		}
		inComponent := map[int64]bool{}
		for _, n := range component {
			inComponent[n.ID()] = true
		}
		var header *ir.Node
		for _, n := range component {
			node := cg.IDMap[n.ID()]
			if node.Opcode() != ir.OpLoop {
				continue
			}
			if header != nil {
				return fmt.Errorf("irreducible control flow: cycle with loop headers %s and %s", header, node)
			}
			header = node
		}
		if header == nil {
			return fmt.Errorf("irreducible control flow: cycle through %s has no loop header", cg.IDMap[component[0].ID()])
		}
		// Every edge entering the cycle must target the header.
		headerID := int64(header.ID())
		for _, n := range component {
			id := n.ID()
			for pred := range cg.RevEdges[id] {
				if !inComponent[pred] && id != headerID {
					return fmt.Errorf("irreducible control flow: %s enters cycle at %s, not at header %s",
						cg.IDMap[pred], cg.IDMap[id], header)
				}
			}
		}
	}
	return nil
}

// EffectCycles returns the nontrivial strongly connected components of the
// effect subgraph. In a well-formed graph each one threads through the
// effect phi of a loop header; the fixture loader uses this to reject
// malformed effect chains.
func EffectCycles(g *ir.Graph) [][]*ir.Node {
	eg := NewEffectGraph(g)
	var cycles [][]*ir.Node
	for _, component := range ybgraph.StrongComponents(eg) {
		if len(component) < 2 {
			id := int64(component[0])
			if !eg.Edges[id][id] {
				continue
			}
		}
		var nodes []*ir.Node
		for _, v := range component {
			if n, ok := eg.IDMap[int64(v)]; ok {
				nodes = append(nodes, n)
			}
		}
		if len(nodes) > 0 {
			cycles = append(cycles, nodes)
		}
	}
	return cycles
}

// ValidateEffectCycles reports an error if some effect cycle of the graph
// is not broken by a loop-header effect phi.
func ValidateEffectCycles(g *ir.Graph) error {
	isLoopPhi := func(n *ir.Node) bool {
		return n.Opcode() == ir.OpEffectPhi && n.ControlInput().Opcode() == ir.OpLoop
	}
	for _, cycle := range EffectCycles(g) {
		if !funcutil.Exists(cycle, isLoopPhi) {
			names := funcutil.Map(cycle, (*ir.Node).String)
			return fmt.Errorf("effect chain cycle through %s without a loop effect phi",
				strings.Join(names, ", "))
		}
	}
	return nil
}
