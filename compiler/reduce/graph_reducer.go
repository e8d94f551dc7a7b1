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

package reduce

import (
	"fmt"

	"github.com/tidewater-vm/tidewater/compiler/ir"
)

type visitState uint8

const (
	unvisited visitState = iota
	revisit
	onStack
	visited
)

type stackEntry struct {
	node       *ir.Node
	inputIndex int
}

// A GraphReducer runs a set of reducers over every node reachable from the
// end node. Nodes are reduced after their inputs, and a node is revisited
// whenever one of its inputs reports progress, so the run terminates at a
// fixed point of all reducers.
type GraphReducer struct {
	graph    *ir.Graph
	reducers []Reducer

	state []visitState
	stack []stackEntry
	queue []*ir.Node

	// maxSteps bounds the number of reduction steps; 0 means unbounded.
	maxSteps int
	steps    int
}

// NewGraphReducer returns a reducer driver for the graph.
func NewGraphReducer(graph *ir.Graph, reducers ...Reducer) *GraphReducer {
	return &GraphReducer{
		graph:    graph,
		reducers: reducers,
		state:    make([]visitState, graph.NodeCount()),
	}
}

// AddReducer registers another reducer. Reducers that need the driver as
// their editor are constructed after it and added here.
func (gr *GraphReducer) AddReducer(r Reducer) {
	gr.reducers = append(gr.reducers, r)
}

// SetMaxSteps bounds the number of reduction steps of subsequent runs; 0
// removes the bound. The bound is a safety net against reducers that fail
// to converge, not a tuning knob.
func (gr *GraphReducer) SetMaxSteps(n int) {
	gr.maxSteps = n
}

// ReduceGraph reduces every node reachable from the graph's end node.
func (gr *GraphReducer) ReduceGraph() {
	gr.ReduceNode(gr.graph.End())
}

// ReduceNode reduces the subgraph reachable from node.
func (gr *GraphReducer) ReduceNode(node *ir.Node) {
	gr.push(node)
	for len(gr.stack) > 0 || len(gr.queue) > 0 {
		if len(gr.stack) > 0 {
			gr.reduceTop()
			continue
		}
		// Drain the deferred revisits.
		n := gr.queue[0]
		gr.queue = gr.queue[1:]
		if gr.stateOf(n) == revisit {
			gr.push(n)
		}
	}
}

// Revisit implements Editor. Nodes already scheduled are left alone.
func (gr *GraphReducer) Revisit(node *ir.Node) {
	if gr.stateOf(node) == visited {
		gr.setState(node, revisit)
		gr.queue = append(gr.queue, node)
	}
}

// ReplaceWithValue implements Editor: value uses of node move to value,
// effect uses to effect. Control uses are not expected on the nodes the
// reducers replace.
func (gr *GraphReducer) ReplaceWithValue(node, value, effect *ir.Node) {
	if effect == nil && node.Op().EffectIn > 0 {
		effect = node.EffectInput(0)
	}
	for _, user := range node.Uses() {
		for i := 0; i < user.InputCount(); i++ {
			if user.Input(i) != node {
				continue
			}
			switch user.KindOfInput(i) {
			case ir.ValueEdge:
				user.ReplaceInput(i, value)
			case ir.EffectEdge:
				user.ReplaceInput(i, effect)
			case ir.ControlEdge:
				panic(fmt.Sprintf("reduce: control use of replaced node %s by %s", node, user))
			}
		}
		gr.Revisit(user)
	}
}

func (gr *GraphReducer) reduceTop() {
	entry := &gr.stack[len(gr.stack)-1]
	node := entry.node
	if node.IsDead() {
		gr.pop()
		return
	}

	// Recurse into the first input that has not been visited yet.
	for i := entry.inputIndex; i < node.InputCount(); i++ {
		input := node.Input(i)
		if input != node && gr.stateOf(input) != onStack && gr.stateOf(input) != visited {
			entry.inputIndex = i + 1
			gr.push(input)
			return
		}
	}

	if gr.maxSteps > 0 && gr.steps >= gr.maxSteps {
		gr.pop()
		return
	}
	gr.steps++
	reduction := gr.reduce(node)
	gr.pop()

	if !reduction.IsChanged() {
		return
	}
	replacement := reduction.Replacement()
	if replacement == node {
		// In-place progress: successors must observe the new state.
		for _, user := range node.Uses() {
			gr.Revisit(user)
		}
		return
	}
	gr.replace(node, replacement)
}

// reduce runs the reducers over the node, restarting from the first reducer
// after in-place changes so every reducer sees the final node. The reducer
// that just made in-place progress is skipped on the restart.
func (gr *GraphReducer) reduce(node *ir.Node) Reduction {
	skip := -1
	for i := 0; i < len(gr.reducers); {
		if i == skip {
			i++
			continue
		}
		reduction := gr.reducers[i].Reduce(node)
		switch {
		case !reduction.IsChanged():
			i++
		case reduction.Replacement() == node:
			skip = i
			i = 0
		default:
			return reduction
		}
	}
	if skip >= 0 {
		return Changed(node)
	}
	return NoChange()
}

// replace redirects all uses of node to replacement and kills node.
func (gr *GraphReducer) replace(node, replacement *ir.Node) {
	for _, user := range node.Uses() {
		for i := 0; i < user.InputCount(); i++ {
			if user.Input(i) == node {
				user.ReplaceInput(i, replacement)
			}
		}
		gr.Revisit(user)
	}
	node.Kill()
	if gr.stateOf(replacement) == unvisited {
		gr.push(replacement)
	}
}

func (gr *GraphReducer) push(node *ir.Node) {
	gr.setState(node, onStack)
	gr.stack = append(gr.stack, stackEntry{node: node})
}

func (gr *GraphReducer) pop() {
	node := gr.stack[len(gr.stack)-1].node
	gr.setState(node, visited)
	gr.stack = gr.stack[:len(gr.stack)-1]
}

func (gr *GraphReducer) stateOf(node *ir.Node) visitState {
	if int(node.ID()) >= len(gr.state) {
		grown := make([]visitState, node.ID()+1)
		copy(grown, gr.state)
		gr.state = grown
	}
	return gr.state[node.ID()]
}

func (gr *GraphReducer) setState(node *ir.Node, s visitState) {
	gr.stateOf(node) // grow if needed
	gr.state[node.ID()] = s
}
