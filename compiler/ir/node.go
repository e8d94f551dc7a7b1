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

// A Node is one vertex of the sea-of-nodes graph. Its inputs are ordered:
// value inputs first, then effect inputs, then control inputs, with the
// partition sizes given by the operator. Nodes track their users so that
// reducers can rewire all uses of a node in one step.
type Node struct {
	id     uint32
	op     *Operator
	typ    Type
	inputs []*Node

	// uses lists the nodes that have this node as an input, one entry per
	// use edge (a user appears twice if it uses this node twice).
	uses []*Node

	dead bool
}

// ID returns the node's stable, dense identifier.
func (n *Node) ID() uint32 { return n.id }

// Op returns the node's operator.
func (n *Node) Op() *Operator { return n.op }

// Opcode returns the opcode of the node's operator.
func (n *Node) Opcode() Opcode { return n.op.Opcode }

// Type returns the node's static type.
func (n *Node) Type() Type { return n.typ }

// SetType narrows or widens the node's static type.
func (n *Node) SetType(t Type) { n.typ = t }

// IsDead reports whether the node has been removed from the graph.
func (n *Node) IsDead() bool { return n.dead }

// InputCount returns the number of input edges.
func (n *Node) InputCount() int { return len(n.inputs) }

// Input returns the i-th input edge, counting across all partitions.
func (n *Node) Input(i int) *Node { return n.inputs[i] }

// ValueInput returns the i-th value input.
func (n *Node) ValueInput(i int) *Node {
	if i >= n.op.ValueIn {
		panic(fmt.Sprintf("ir: node %s has no value input %d", n, i))
	}
	return n.inputs[i]
}

// EffectInput returns the i-th effect input.
func (n *Node) EffectInput(i int) *Node {
	if i >= n.op.EffectIn {
		panic(fmt.Sprintf("ir: node %s has no effect input %d", n, i))
	}
	return n.inputs[n.op.ValueIn+i]
}

// ControlInput returns the first control input.
func (n *Node) ControlInput() *Node {
	return n.ControlInputAt(0)
}

// ControlInputAt returns the i-th control input.
func (n *Node) ControlInputAt(i int) *Node {
	if i >= n.op.ControlIn {
		panic(fmt.Sprintf("ir: node %s has no control input %d", n, i))
	}
	return n.inputs[n.op.ValueIn+n.op.EffectIn+i]
}

// EdgeKind classifies an input edge by its index within the partition order.
type EdgeKind uint8

const (
	ValueEdge EdgeKind = iota
	EffectEdge
	ControlEdge
)

// KindOfInput returns the partition the i-th input edge belongs to.
func (n *Node) KindOfInput(i int) EdgeKind {
	switch {
	case i < n.op.ValueIn:
		return ValueEdge
	case i < n.op.ValueIn+n.op.EffectIn:
		return EffectEdge
	default:
		return ControlEdge
	}
}

// ReplaceInput redirects the i-th input edge to the given node, keeping use
// lists consistent.
func (n *Node) ReplaceInput(i int, to *Node) {
	from := n.inputs[i]
	if from == to {
		return
	}
	if from != nil {
		from.removeUse(n)
	}
	n.inputs[i] = to
	if to != nil {
		to.uses = append(to.uses, n)
	}
}

// Uses returns a snapshot of the node's users, one entry per use edge.
func (n *Node) Uses() []*Node {
	users := make([]*Node, len(n.uses))
	copy(users, n.uses)
	return users
}

// UseCount returns the number of use edges pointing at the node.
func (n *Node) UseCount() int { return len(n.uses) }

// Kill disconnects the node from all of its inputs and marks it dead.
// Callers must have rewired or discarded its uses first.
func (n *Node) Kill() {
	for i, in := range n.inputs {
		if in != nil {
			in.removeUse(n)
			n.inputs[i] = nil
		}
	}
	n.dead = true
}

func (n *Node) removeUse(user *Node) {
	for i, u := range n.uses {
		if u == user {
			last := len(n.uses) - 1
			n.uses[i] = n.uses[last]
			n.uses[last] = nil
			n.uses = n.uses[:last]
			return
		}
	}
	panic(fmt.Sprintf("ir: node %s is not a user of %s", user, n))
}

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d", n.op, n.id)
}
