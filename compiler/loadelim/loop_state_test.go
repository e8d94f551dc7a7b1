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

package loadelim

import (
	"testing"

	"github.com/tidewater-vm/tidewater/compiler/ir"
)

// loopGraph builds a single-block loop whose body contains the given
// effectful node, wired as
//
//	start -> entryEffect -> ephi(loop) -> body -> back edge to ephi
//
// The body node is created by the callback with the loop's effect phi as
// its effect input and the loop header as its control.
type loopGraph struct {
	g     *ir.Graph
	start *ir.Node
	loop  *ir.Node
	ephi  *ir.Node
	body  *ir.Node
}

func buildLoop(entryEffect func(g *ir.Graph, start *ir.Node) *ir.Node,
	body func(g *ir.Graph, ephi, loop *ir.Node) *ir.Node) *loopGraph {
	g := ir.NewGraph()
	start := g.NewNode(ir.StartOp())
	g.SetStart(start)
	entry := entryEffect(g, start)
	loop := g.NewNode(ir.LoopOp(2), start, start)
	loop.ReplaceInput(1, loop)
	ephi := g.NewNode(ir.EffectPhiOp(2), entry, entry, loop)
	bodyNode := body(g, ephi, loop)
	ephi.ReplaceInput(1, bodyNode)
	return &loopGraph{g: g, start: start, loop: loop, ephi: ephi, body: bodyNode}
}

func TestLoopKillsAliasingElementStore(t *testing.T) {
	var p, q, i, j, v *ir.Node
	lg := buildLoop(
		func(g *ir.Graph, start *ir.Node) *ir.Node {
			p = g.NewNode(ir.ParameterOp(0))
			p.SetType(ir.TypeObject)
			q = g.NewNode(ir.ParameterOp(1))
			q.SetType(ir.TypeObject)
			i = g.NewNode(ir.NumberConstantOp(0))
			j = g.NewNode(ir.NumberConstantOp(1))
			v = g.HeapConstant("v")
			return g.NewNode(ir.StoreElementOp(taggedElement()), p, i, v, start, start)
		},
		func(g *ir.Graph, ephi, loop *ir.Node) *ir.Node {
			return g.NewNode(ir.StoreElementOp(taggedElement()), q, j, v, ephi, loop)
		})

	le := New(newTestEditor(), lg.g, quietLogger())
	reduceAll(t, le, lg.start, lg.ephi.EffectInput(0), lg.ephi)

	// The body stores through a possibly-aliasing object, so the entry fact
	// must not survive into the loop.
	if got := le.nodeStates.Get(lg.ephi).LookupElement(p, i); got != nil {
		t.Errorf("entry element fact survived the loop body: %v", got)
	}
}

func TestLoopKeepsDisjointFieldFact(t *testing.T) {
	var a, q, v *ir.Node
	lg := buildLoop(
		func(g *ir.Graph, start *ir.Node) *ir.Node {
			size := g.NewNode(ir.NumberConstantOp(16))
			a = g.NewNode(ir.AllocateOp(16), size, start, start)
			a.SetType(ir.TypeObject)
			q = g.NewNode(ir.ParameterOp(0))
			q.SetType(ir.TypeObject)
			v = g.HeapConstant("v")
			return g.NewNode(ir.StoreFieldOp(tagged(8)), a, v, a, start)
		},
		func(g *ir.Graph, ephi, loop *ir.Node) *ir.Node {
			// The body writes a field of a parameter, which cannot alias the
			// fresh allocation.
			return g.NewNode(ir.StoreFieldOp(tagged(8)), q, v, ephi, loop)
		})

	le := New(newTestEditor(), lg.g, quietLogger())
	reduceAll(t, le, lg.start, a, lg.ephi.EffectInput(0), lg.ephi)

	if got := le.nodeStates.Get(lg.ephi).LookupField(a, 1); got != v {
		t.Errorf("disjoint field fact lost at the loop header: got %v, want %s", got, v)
	}
}

func TestLoopWithCallClearsState(t *testing.T) {
	var p, v *ir.Node
	lg := buildLoop(
		func(g *ir.Graph, start *ir.Node) *ir.Node {
			p = g.NewNode(ir.ParameterOp(0))
			p.SetType(ir.TypeObject)
			v = g.HeapConstant("v")
			return g.NewNode(ir.StoreFieldOp(tagged(8)), p, v, start, start)
		},
		func(g *ir.Graph, ephi, loop *ir.Node) *ir.Node {
			return g.NewNode(ir.CallOp(0), ephi, loop)
		})

	le := New(newTestEditor(), lg.g, quietLogger())
	reduceAll(t, le, lg.start, lg.ephi.EffectInput(0), lg.ephi)

	if !le.nodeStates.Get(lg.ephi).Equals(emptyState) {
		t.Errorf("state at the loop header is not empty despite a call in the body")
	}
}

func TestLoopWithUntrackedStoreClearsState(t *testing.T) {
	var p, v *ir.Node
	lg := buildLoop(
		func(g *ir.Graph, start *ir.Node) *ir.Node {
			p = g.NewNode(ir.ParameterOp(0))
			p.SetType(ir.TypeObject)
			v = g.HeapConstant("v")
			return g.NewNode(ir.StoreFieldOp(tagged(8)), p, v, start, start)
		},
		func(g *ir.Graph, ephi, loop *ir.Node) *ir.Node {
			f := g.NewNode(ir.NumberConstantOp(0.5))
			wide := ir.FieldAccess{BaseIsTagged: ir.TaggedBase, Offset: 8, Representation: ir.RepFloat64}
			return g.NewNode(ir.StoreFieldOp(wide), p, f, ephi, loop)
		})

	le := New(newTestEditor(), lg.g, quietLogger())
	reduceAll(t, le, lg.start, lg.ephi.EffectInput(0), lg.ephi)

	if !le.nodeStates.Get(lg.ephi).Equals(emptyState) {
		t.Errorf("untracked store in the loop body did not clear the state")
	}
}

func TestLoopBodyTransitionKillsMapAndElements(t *testing.T) {
	var p, backing, objectMap *ir.Node
	lg := buildLoop(
		func(g *ir.Graph, start *ir.Node) *ir.Node {
			p = g.NewNode(ir.ParameterOp(0))
			p.SetType(ir.TypeObject)
			objectMap = g.HeapConstant("object_map")
			backing = g.HeapConstant("backing")
			s0 := g.NewNode(ir.StoreFieldOp(tagged(0)), p, objectMap, start, start)
			return g.NewNode(ir.StoreFieldOp(tagged(16)), p, backing, s0, start)
		},
		func(g *ir.Graph, ephi, loop *ir.Node) *ir.Node {
			source := g.HeapConstant("object_map")
			target := g.HeapConstant("target_map")
			return g.NewNode(ir.TransitionElementsKindOp(ir.FastTransition),
				p, source, target, ephi, loop)
		})

	le := New(newTestEditor(), lg.g, quietLogger())
	entry := lg.ephi.EffectInput(0)
	reduceAll(t, le, lg.start, entry.EffectInput(0), entry, lg.ephi)

	state := le.nodeStates.Get(lg.ephi)
	if got := state.LookupField(p, 0); got != nil {
		t.Errorf("map fact survived a transition in the loop body: %v", got)
	}
	if got := state.LookupField(p, 2); got != nil {
		t.Errorf("elements fact survived a transition in the loop body: %v", got)
	}
}

// The loop walk only applies kills; it must never add the facts the body's
// stores would establish.
func TestLoopWalkNeverAdds(t *testing.T) {
	var p, v2 *ir.Node
	lg := buildLoop(
		func(g *ir.Graph, start *ir.Node) *ir.Node {
			p = g.NewNode(ir.ParameterOp(0))
			p.SetType(ir.TypeObject)
			v1 := g.HeapConstant("v1")
			return g.NewNode(ir.StoreFieldOp(tagged(8)), p, v1, start, start)
		},
		func(g *ir.Graph, ephi, loop *ir.Node) *ir.Node {
			v2 = g.HeapConstant("v2")
			return g.NewNode(ir.StoreFieldOp(tagged(8)), p, v2, ephi, loop)
		})

	le := New(newTestEditor(), lg.g, quietLogger())
	reduceAll(t, le, lg.start, lg.ephi.EffectInput(0), lg.ephi)

	if got := le.nodeStates.Get(lg.ephi).LookupField(p, 1); got != nil {
		t.Errorf("loop header knows %v for the stored slot, want nothing", got)
	}
}
