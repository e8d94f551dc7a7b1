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

func TestEnsureWritableFastElements(t *testing.T) {
	g := ir.NewGraph()
	start := g.NewNode(ir.StartOp())
	obj := g.NewNode(ir.ParameterOp(0))
	obj.SetType(ir.TypeObject)
	elements := g.NewNode(ir.LoadFieldOp(tagged(16)), obj, start, start)
	ensure := g.NewNode(ir.EnsureWritableFastElementsOp(), obj, elements, elements, start)

	le := New(newTestEditor(), g, quietLogger())
	reduceAll(t, le, start, elements, ensure)

	state := le.nodeStates.Get(ensure)
	// The node's result has the fixed array map and became the object's new
	// backing store.
	if got := state.LookupField(ensure, 0); got != g.FixedArrayMapConstant() {
		t.Errorf("result map = %v, want the fixed array map", got)
	}
	if got := state.LookupField(obj, 2); got != ensure {
		t.Errorf("backing store of the object = %v, want %s", got, ensure)
	}
}

func TestEnsureWritableFastElementsRedundant(t *testing.T) {
	g := ir.NewGraph()
	start := g.NewNode(ir.StartOp())
	obj := g.NewNode(ir.ParameterOp(0))
	obj.SetType(ir.TypeObject)
	elements := g.NewNode(ir.ParameterOp(1))
	elements.SetType(ir.TypeOtherInternal)
	// The backing store is known to have the fixed array map already.
	s := g.NewNode(ir.StoreFieldOp(tagged(0)), elements, g.FixedArrayMapConstant(), start, start)
	ensure := g.NewNode(ir.EnsureWritableFastElementsOp(), obj, elements, s, start)

	editor := newTestEditor()
	le := New(editor, g, quietLogger())
	r := reduceAll(t, le, start, s, ensure)

	if r.Replacement() != elements {
		t.Fatalf("ensure reduced to %v, want the elements input %s", r.Replacement(), elements)
	}
	if editor.valueOf[ensure] != elements || editor.effectOf[ensure] != s {
		t.Errorf("ReplaceWithValue rewired to (%v, %v), want (%s, %s)",
			editor.valueOf[ensure], editor.effectOf[ensure], elements, s)
	}
}

func TestMaybeGrowFastElements(t *testing.T) {
	tests := []struct {
		name    string
		flags   ir.GrowFastElementsFlags
		wantMap string
	}{
		{"plain elements", 0, ir.FixedArrayMapHandle},
		{"double elements", ir.GrowFastElementsDoubleElements, ir.FixedDoubleArrayMapHandle},
		{"array object", ir.GrowFastElementsArrayObject, ir.FixedArrayMapHandle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := ir.NewGraph()
			start := g.NewNode(ir.StartOp())
			obj := g.NewNode(ir.ParameterOp(0))
			obj.SetType(ir.TypeArray)
			length := g.NewNode(ir.NumberConstantOp(1))
			// Seed facts for the backing store and the length.
			oldElements := g.HeapConstant("old_elements")
			sElem := g.NewNode(ir.StoreFieldOp(tagged(16)), obj, oldElements, start, start)
			sLen := g.NewNode(ir.StoreFieldOp(tagged(24)), obj, length, sElem, start)
			index := g.NewNode(ir.NumberConstantOp(0))
			grow := g.NewNode(ir.MaybeGrowFastElementsOp(tt.flags),
				obj, oldElements, index, length, sLen, start)

			le := New(newTestEditor(), g, quietLogger())
			reduceAll(t, le, start, sElem, sLen, grow)

			state := le.nodeStates.Get(grow)
			if got := state.LookupField(grow, 0); got != g.HeapConstant(tt.wantMap) {
				t.Errorf("result map = %v, want %s", got, tt.wantMap)
			}
			if got := state.LookupField(obj, 2); got != grow {
				t.Errorf("backing store = %v, want the grow node", got)
			}
			wantLength := length
			if tt.flags&ir.GrowFastElementsArrayObject != 0 {
				// The length fact is killed, and nothing re-adds it.
				wantLength = nil
			}
			if got := state.LookupField(obj, 3); got != wantLength {
				t.Errorf("length fact = %v, want %v", got, wantLength)
			}
		})
	}
}

func TestTransitionElementsKind(t *testing.T) {
	g := ir.NewGraph()
	start := g.NewNode(ir.StartOp())
	obj := g.NewNode(ir.ParameterOp(0))
	obj.SetType(ir.TypeObject)
	sourceMap := g.HeapConstant("source_map")
	targetMap := g.HeapConstant("target_map")
	s := g.NewNode(ir.StoreFieldOp(tagged(0)), obj, sourceMap, start, start)
	transition := g.NewNode(ir.TransitionElementsKindOp(ir.FastTransition),
		obj, sourceMap, targetMap, s, start)

	le := New(newTestEditor(), g, quietLogger())
	reduceAll(t, le, start, s, transition)

	// The known source map transitions to the target map.
	if got := le.nodeStates.Get(transition).LookupField(obj, 0); got != targetMap {
		t.Errorf("map after transition = %v, want %s", got, targetMap)
	}
}

func TestTransitionElementsKindRedundant(t *testing.T) {
	g := ir.NewGraph()
	start := g.NewNode(ir.StartOp())
	obj := g.NewNode(ir.ParameterOp(0))
	obj.SetType(ir.TypeObject)
	sourceMap := g.HeapConstant("source_map")
	targetMap := g.HeapConstant("target_map")
	s := g.NewNode(ir.StoreFieldOp(tagged(0)), obj, targetMap, start, start)
	transition := g.NewNode(ir.TransitionElementsKindOp(ir.FastTransition),
		obj, sourceMap, targetMap, s, start)

	le := New(newTestEditor(), g, quietLogger())
	r := reduceAll(t, le, start, s, transition)

	if r.Replacement() != s {
		t.Fatalf("transition reduced to %v, want its effect input %s", r.Replacement(), s)
	}
}

func TestSlowTransitionKillsBackingStore(t *testing.T) {
	g := ir.NewGraph()
	start := g.NewNode(ir.StartOp())
	obj := g.NewNode(ir.ParameterOp(0))
	obj.SetType(ir.TypeObject)
	backing := g.HeapConstant("backing")
	sourceMap := g.HeapConstant("source_map")
	targetMap := g.HeapConstant("target_map")
	sElem := g.NewNode(ir.StoreFieldOp(tagged(16)), obj, backing, start, start)
	transition := g.NewNode(ir.TransitionElementsKindOp(ir.SlowTransition),
		obj, sourceMap, targetMap, sElem, start)

	le := New(newTestEditor(), g, quietLogger())
	reduceAll(t, le, start, sElem, transition)

	if got := le.nodeStates.Get(transition).LookupField(obj, 2); got != nil {
		t.Errorf("backing store fact survived a slow transition: %v", got)
	}
}

func TestTransitionWithUnknownMapOnlyKills(t *testing.T) {
	g := ir.NewGraph()
	start := g.NewNode(ir.StartOp())
	obj := g.NewNode(ir.ParameterOp(0))
	obj.SetType(ir.TypeObject)
	other := g.NewNode(ir.ParameterOp(1))
	other.SetType(ir.TypeObject)
	knownMap := g.HeapConstant("known_map")
	sourceMap := g.HeapConstant("source_map")
	targetMap := g.HeapConstant("target_map")
	// The fact is about a possibly-aliasing object, not obj itself.
	s := g.NewNode(ir.StoreFieldOp(tagged(0)), other, knownMap, start, start)
	transition := g.NewNode(ir.TransitionElementsKindOp(ir.FastTransition),
		obj, sourceMap, targetMap, s, start)

	le := New(newTestEditor(), g, quietLogger())
	reduceAll(t, le, start, s, transition)

	state := le.nodeStates.Get(transition)
	if got := state.LookupField(other, 0); got != nil {
		t.Errorf("aliasing map fact survived the transition: %v", got)
	}
	if got := state.LookupField(obj, 0); got != nil {
		t.Errorf("transition with unknown previous map recorded %v", got)
	}
}
