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

import "testing"

func TestNodeInputPartitions(t *testing.T) {
	g := NewGraph()
	start := g.NewNode(StartOp())
	p0 := g.NewNode(ParameterOp(0))
	v := g.NewNode(HeapConstantOp("v"))
	store := g.NewNode(StoreFieldOp(FieldAccess{BaseIsTagged: TaggedBase, Offset: 8, Representation: RepTagged}),
		p0, v, start, start)

	if got := store.ValueInput(0); got != p0 {
		t.Errorf("ValueInput(0) = %s, want %s", got, p0)
	}
	if got := store.ValueInput(1); got != v {
		t.Errorf("ValueInput(1) = %s, want %s", got, v)
	}
	if got := store.EffectInput(0); got != start {
		t.Errorf("EffectInput(0) = %s, want %s", got, start)
	}
	if got := store.ControlInput(); got != start {
		t.Errorf("ControlInput() = %s, want %s", got, start)
	}

	kinds := []EdgeKind{ValueEdge, ValueEdge, EffectEdge, ControlEdge}
	for i, want := range kinds {
		if got := store.KindOfInput(i); got != want {
			t.Errorf("KindOfInput(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestNodeIDsAreDense(t *testing.T) {
	g := NewGraph()
	for i := 0; i < 5; i++ {
		n := g.NewNode(ParameterOp(i))
		if n.ID() != uint32(i) {
			t.Errorf("node %d has id %d", i, n.ID())
		}
	}
	if g.NodeCount() != 5 {
		t.Errorf("NodeCount() = %d, want 5", g.NodeCount())
	}
}

func TestReplaceInputMaintainsUses(t *testing.T) {
	g := NewGraph()
	start := g.NewNode(StartOp())
	a := g.NewNode(ParameterOp(0))
	b := g.NewNode(ParameterOp(1))
	ret := g.NewNode(ReturnOp(), a, start, start)

	if a.UseCount() != 1 || b.UseCount() != 0 {
		t.Fatalf("initial use counts: a=%d b=%d", a.UseCount(), b.UseCount())
	}
	ret.ReplaceInput(0, b)
	if a.UseCount() != 0 {
		t.Errorf("a still has %d uses after replacement", a.UseCount())
	}
	if b.UseCount() != 1 {
		t.Errorf("b has %d uses after replacement, want 1", b.UseCount())
	}
	if ret.ValueInput(0) != b {
		t.Errorf("ret value input is %s, want %s", ret.ValueInput(0), b)
	}
}

func TestKillDisconnectsInputs(t *testing.T) {
	g := NewGraph()
	start := g.NewNode(StartOp())
	a := g.NewNode(ParameterOp(0))
	ret := g.NewNode(ReturnOp(), a, start, start)

	ret.Kill()
	if !ret.IsDead() {
		t.Errorf("node not dead after Kill")
	}
	if a.UseCount() != 0 || start.UseCount() != 0 {
		t.Errorf("inputs keep uses after Kill: a=%d start=%d", a.UseCount(), start.UseCount())
	}
}

func TestHeapConstantsAreCanonical(t *testing.T) {
	g := NewGraph()
	m1 := g.FixedArrayMapConstant()
	m2 := g.FixedArrayMapConstant()
	if m1 != m2 {
		t.Errorf("FixedArrayMapConstant not canonical: %s vs %s", m1, m2)
	}
	if m1 == g.FixedDoubleArrayMapConstant() {
		t.Errorf("distinct handles map to the same constant")
	}
	if g.HeapConstant(FixedArrayMapHandle) != m1 {
		t.Errorf("HeapConstant(%q) is not the fixed array map", FixedArrayMapHandle)
	}
}

func TestOperatorAccessorsPanicOnWrongOpcode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("FieldAccessOf on a Start operator did not panic")
		}
	}()
	FieldAccessOf(StartOp())
}
