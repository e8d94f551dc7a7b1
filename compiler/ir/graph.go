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

package ir

import "fmt"

// Well-known heap constant handles. Field 0 of every heap object is its map;
// backing stores of fast elements carry one of these two maps.
const (
	FixedArrayMapHandle       = "fixed_array_map"
	FixedDoubleArrayMapHandle = "fixed_double_array_map"
)

// A Graph owns the nodes of one function's IR. Node ids are dense and
// allocation order is creation order; nodes are only reclaimed when the
// whole graph is dropped.
type Graph struct {
	nodes []*Node

	start *Node
	end   *Node

	// heapConstants caches HeapConstant nodes per handle so identical
	// well-known values are represented by a single node.
	heapConstants map[string]*Node
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{heapConstants: map[string]*Node{}}
}

// NewNode allocates a node with the given operator and inputs. The number
// of inputs must match the operator's input counts.
func (g *Graph) NewNode(op *Operator, inputs ...*Node) *Node {
	if len(inputs) != op.TotalInputs() {
		panic(fmt.Sprintf("ir: %s expects %d inputs, got %d", op, op.TotalInputs(), len(inputs)))
	}
	n := &Node{
		id:     uint32(len(g.nodes)),
		op:     op,
		typ:    TypeAny,
		inputs: make([]*Node, len(inputs)),
	}
	g.nodes = append(g.nodes, n)
	for i, in := range inputs {
		n.inputs[i] = in
		in.uses = append(in.uses, n)
	}
	return n
}

// NodeCount returns the number of nodes ever allocated in the graph,
// which is also one past the largest node id.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// NodeByID returns the node with the given id.
func (g *Graph) NodeByID(id uint32) *Node { return g.nodes[id] }

// Nodes returns all nodes in allocation order, including dead ones.
func (g *Graph) Nodes() []*Node { return g.nodes }

// SetStart records the graph's unique Start node.
func (g *Graph) SetStart(n *Node) { g.start = n }

// Start returns the graph's Start node.
func (g *Graph) Start() *Node { return g.start }

// SetEnd records the graph's unique End node.
func (g *Graph) SetEnd(n *Node) { g.end = n }

// End returns the graph's End node.
func (g *Graph) End() *Node { return g.end }

// HeapConstant returns the canonical HeapConstant node for handle, creating
// it on first use.
func (g *Graph) HeapConstant(handle string) *Node {
	if n, ok := g.heapConstants[handle]; ok {
		return n
	}
	n := g.NewNode(HeapConstantOp(handle))
	n.SetType(TypeOtherInternal)
	g.heapConstants[handle] = n
	return n
}

// FixedArrayMapConstant returns the map of writable fast-elements backing
// stores.
func (g *Graph) FixedArrayMapConstant() *Node {
	n := g.HeapConstant(FixedArrayMapHandle)
	n.SetType(TypeMap)
	return n
}

// FixedDoubleArrayMapConstant returns the map of double-elements backing
// stores.
func (g *Graph) FixedDoubleArrayMapConstant() *Node {
	n := g.HeapConstant(FixedDoubleArrayMapHandle)
	n.SetType(TypeMap)
	return n
}
