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

// Package graphutil projects the sea-of-nodes graph onto its control and
// effect subgraphs, in a shape existing graph libraries can consume.
package graphutil

import (
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"

	"github.com/tidewater-vm/tidewater/compiler/ir"
)

// NGraph is an adjacency view of one subgraph of the IR. It implements the
// iterator interface of github.com/yourbasic/graph and gonum's
// graph.Directed, so both libraries' algorithms run on it directly. Node
// identifiers are the IR node ids, which are dense.
type NGraph struct {
	// The order of the graph: one past the largest node id.
	order int

	// IDMap maps from node IDs to IR nodes.
	IDMap map[int64]*ir.Node

	// Keys are all the node IDs, sorted.
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed
	// edge from IDMap[x] to IDMap[y].
	Edges map[int64]map[int64]bool

	// RevEdges is the reverse adjacency matrix.
	RevEdges map[int64]map[int64]bool
}

// NewControlGraph returns the control subgraph of g: the nodes producing
// control, with an edge from each control input to its user.
func NewControlGraph(g *ir.Graph) NGraph {
	return newSubgraph(g,
		func(n *ir.Node) bool { return n.Op().ControlOut > 0 || n.Opcode() == ir.OpEnd },
		func(n *ir.Node, i int) *ir.Node { return n.ControlInputAt(i) },
		func(n *ir.Node) int { return n.Op().ControlIn })
}

// NewEffectGraph returns the effect subgraph of g: the nodes producing
// effects, with an edge from each effect input to its user.
func NewEffectGraph(g *ir.Graph) NGraph {
	return newSubgraph(g,
		func(n *ir.Node) bool { return n.Op().EffectOut > 0 },
		func(n *ir.Node, i int) *ir.Node { return n.EffectInput(i) },
		func(n *ir.Node) int { return n.Op().EffectIn })
}

func newSubgraph(g *ir.Graph, include func(*ir.Node) bool,
	input func(*ir.Node, int) *ir.Node, arity func(*ir.Node) int) NGraph {
	idmap := map[int64]*ir.Node{}
	edges := map[int64]map[int64]bool{}
	rev := map[int64]map[int64]bool{}
	var keys []int64

	for _, n := range g.Nodes() {
		if n.IsDead() || !include(n) {
			continue
		}
		id := int64(n.ID())
		idmap[id] = n
		keys = append(keys, id)
		if edges[id] == nil {
			edges[id] = map[int64]bool{}
		}
		for i := 0; i < arity(n); i++ {
			pred := int64(input(n, i).ID())
			if edges[pred] == nil {
				edges[pred] = map[int64]bool{}
			}
			edges[pred][id] = true
			if rev[id] == nil {
				rev[id] = map[int64]bool{}
			}
			rev[id][pred] = true
		}
	}
	slices.Sort(keys)

	return NGraph{
		order:    g.NodeCount(),
		IDMap:    idmap,
		Keys:     keys,
		Edges:    edges,
		RevEdges: rev,
	}
}

// Order implements the order of the graph.Iterator interface for the NGraph
func (c NGraph) Order() int {
	return c.order
}

// Visit implements the graph.Iterator interface for the NGraph
func (c NGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if _, ok := c.IDMap[int64(v)]; !ok {
		return false
	}
	for w := range c.Edges[int64(v)] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** gonum Directed interface implementation ****************

// Node implements the gonum Graph interface
func (c NGraph) Node(id int64) graph.Node {
	if n, ok := c.IDMap[id]; ok {
		return INode{n}
	}
	return nil
}

// Nodes returns the set of nodes in the graph
func (c NGraph) Nodes() graph.Nodes {
	ids := make([]int64, len(c.Keys))
	copy(ids, c.Keys)
	return &NodeSet{nodes: c.IDMap, ids: ids}
}

// From returns the set of nodes reachable from the id via one edge
func (c NGraph) From(id int64) graph.Nodes {
	var ids []int64
	for out := range c.Edges[id] {
		ids = append(ids, out)
	}
	return &NodeSet{nodes: c.IDMap, ids: ids}
}

// To returns the set of nodes with an edge to the id
func (c NGraph) To(id int64) graph.Nodes {
	var ids []int64
	for in := range c.RevEdges[id] {
		ids = append(ids, in)
	}
	return &NodeSet{nodes: c.IDMap, ids: ids}
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between
// the two node identifiers
func (c NGraph) HasEdgeBetween(xid, yid int64) bool {
	return c.Edges[xid][yid] || c.Edges[yid][xid]
}

// HasEdgeFromTo returns a boolean indicating whether a directed edge exists
// from uid to vid
func (c NGraph) HasEdgeFromTo(uid, vid int64) bool {
	return c.Edges[uid][vid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (c NGraph) Edge(uid, vid int64) graph.Edge {
	if c.Edges[uid][vid] {
		return NEdge{from: INode{c.IDMap[uid]}, to: INode{c.IDMap[vid]}}
	}
	return nil
}

// *************** Nodes implementation **********************

// INode is a wrapper around an *ir.Node that implements the gonum
// graph.Node interface
type INode struct {
	Node *ir.Node
}

// ID returns the id of the node
func (n INode) ID() int64 {
	return int64(n.Node.ID())
}

func (n INode) String() string {
	if n.Node == nil {
		return ""
	}
	return n.Node.String()
}

// NEdge is a directed edge between two INodes
type NEdge struct {
	from INode
	to   INode
}

// From returns the origin of the edge
func (e NEdge) From() graph.Node { return e.from }

// To returns the destination of the edge
func (e NEdge) To() graph.Node { return e.to }

// ReversedEdge returns the same edge with origin and destination swapped
func (e NEdge) ReversedEdge() graph.Edge { return NEdge{from: e.to, to: e.from} }

// NodeSet implements the graph.Nodes interface, an iterator over a set of
// nodes
type NodeSet struct {
	nodes map[int64]*ir.Node
	ids   []int64
	cur   int
}

// Len returns the number of remaining nodes
func (s *NodeSet) Len() int { return len(s.ids) - s.cur }

// Next advances the iterator and returns whether a node is available
func (s *NodeSet) Next() bool {
	if s.cur < len(s.ids) {
		s.cur++
		return true
	}
	return false
}

// Node returns the current node
func (s *NodeSet) Node() graph.Node {
	if s.cur > 0 && s.cur <= len(s.ids) {
		return INode{s.nodes[s.ids[s.cur-1]]}
	}
	return nil
}

// Reset rewinds the iterator
func (s *NodeSet) Reset() { s.cur = 0 }
