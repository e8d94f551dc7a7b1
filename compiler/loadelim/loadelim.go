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
	"fmt"

	"github.com/tidewater-vm/tidewater/compiler/config"
	"github.com/tidewater-vm/tidewater/compiler/ir"
	"github.com/tidewater-vm/tidewater/compiler/reduce"
)

// Field slot conventions for heap objects. Slot 0 holds the object's map,
// slot 2 the elements backing store and slot 3 the array length.
const (
	mapField      = 0
	elementsField = 2
	lengthField   = 3
)

// LoadElimination is the reducer that eliminates redundant loads and
// stores. One instance analyzes one graph; it owns the per-effect-node
// state table and reports graph rewrites through the editor.
type LoadElimination struct {
	editor reduce.Editor
	graph  *ir.Graph
	logger *config.LogGroup

	nodeStates nodeStates
	stats      Stats
}

// Stats counts the rewrites one run performed.
type Stats struct {
	// LoadsEliminated counts loads replaced by a known value.
	LoadsEliminated int

	// StoresEliminated counts stores replaced by their incoming effect.
	StoresEliminated int

	// ChecksEliminated counts redundant map checks, elements-kind
	// transitions and EnsureWritableFastElements nodes removed.
	ChecksEliminated int
}

// Stats returns the rewrite counts so far.
func (le *LoadElimination) Stats() Stats { return le.stats }

// New returns a load-elimination reducer over graph that reports rewrites
// to editor.
func New(editor reduce.Editor, graph *ir.Graph, logger *config.LogGroup) *LoadElimination {
	return &LoadElimination{editor: editor, graph: graph, logger: logger}
}

// Reduce processes one node, updating the abstract state attached to it and
// possibly replacing it.
func (le *LoadElimination) Reduce(node *ir.Node) reduce.Reduction {
	switch node.Opcode() {
	case ir.OpCheckMaps:
		return le.reduceCheckMaps(node)
	case ir.OpEnsureWritableFastElements:
		return le.reduceEnsureWritableFastElements(node)
	case ir.OpMaybeGrowFastElements:
		return le.reduceMaybeGrowFastElements(node)
	case ir.OpTransitionElementsKind:
		return le.reduceTransitionElementsKind(node)
	case ir.OpLoadField:
		return le.reduceLoadField(node)
	case ir.OpStoreField:
		return le.reduceStoreField(node)
	case ir.OpLoadElement:
		return le.reduceLoadElement(node)
	case ir.OpStoreElement:
		return le.reduceStoreElement(node)
	case ir.OpStoreTypedElement:
		return le.reduceStoreTypedElement(node)
	case ir.OpEffectPhi:
		return le.reduceEffectPhi(node)
	case ir.OpStart:
		return le.reduceStart(node)
	case ir.OpDead:
		return reduce.NoChange()
	default:
		return le.reduceOtherNode(node)
	}
}

func (le *LoadElimination) reduceCheckMaps(node *ir.Node) reduce.Reduction {
	object := node.ValueInput(0)
	effect := node.EffectInput(0)
	state := le.nodeStates.Get(effect)
	if state == nil {
		return reduce.NoChange()
	}
	mapInputCount := node.Op().ValueIn - 1
	if objectMap := state.LookupField(object, mapField); objectMap != nil {
		for i := 0; i < mapInputCount; i++ {
			if node.ValueInput(1+i) == objectMap {
				// The map is already known to match; the check is redundant.
				le.logger.Tracef("loadelim: %s is redundant, %s has a checked map", node, object)
				le.stats.ChecksEliminated++
				return reduce.Replace(effect)
			}
		}
	}
	if mapInputCount == 1 {
		state = state.AddField(object, mapField, node.ValueInput(1))
	}
	return le.updateState(node, state)
}

func (le *LoadElimination) reduceEnsureWritableFastElements(node *ir.Node) reduce.Reduction {
	object := node.ValueInput(0)
	elements := node.ValueInput(1)
	effect := node.EffectInput(0)
	state := le.nodeStates.Get(effect)
	if state == nil {
		return reduce.NoChange()
	}
	fixedArrayMap := le.graph.FixedArrayMapConstant()
	if elementsMap := state.LookupField(elements, mapField); elementsMap != nil {
		if elementsMap == fixedArrayMap {
			// The backing store is already writable.
			le.logger.Tracef("loadelim: %s is redundant, %s already writable", node, elements)
			le.stats.ChecksEliminated++
			le.editor.ReplaceWithValue(node, elements, effect)
			return reduce.Replace(elements)
		}
	}
	// The result is a backing store with the fixed array map.
	state = state.AddField(node, mapField, fixedArrayMap)
	// The object's previous backing store is gone; this node is the new one.
	state = state.KillField(object, elementsField)
	state = state.AddField(object, elementsField, node)
	return le.updateState(node, state)
}

func (le *LoadElimination) reduceMaybeGrowFastElements(node *ir.Node) reduce.Reduction {
	flags := ir.GrowFastElementsFlagsOf(node.Op())
	object := node.ValueInput(0)
	effect := node.EffectInput(0)
	state := le.nodeStates.Get(effect)
	if state == nil {
		return reduce.NoChange()
	}
	if flags&ir.GrowFastElementsDoubleElements != 0 {
		state = state.AddField(node, mapField, le.graph.FixedDoubleArrayMapConstant())
	} else {
		state = state.AddField(node, mapField, le.graph.FixedArrayMapConstant())
	}
	if flags&ir.GrowFastElementsArrayObject != 0 {
		// Growing an array updates its length.
		state = state.KillField(object, lengthField)
	}
	state = state.KillField(object, elementsField)
	state = state.AddField(object, elementsField, node)
	return le.updateState(node, state)
}

func (le *LoadElimination) reduceTransitionElementsKind(node *ir.Node) reduce.Reduction {
	object := node.ValueInput(0)
	sourceMap := node.ValueInput(1)
	targetMap := node.ValueInput(2)
	effect := node.EffectInput(0)
	state := le.nodeStates.Get(effect)
	if state == nil {
		return reduce.NoChange()
	}
	if objectMap := state.LookupField(object, mapField); objectMap != nil {
		if objectMap == targetMap {
			// The object already has the target map; the transition is
			// redundant regardless of the source map.
			le.logger.Tracef("loadelim: %s is redundant, %s has target map", node, object)
			le.stats.ChecksEliminated++
			return reduce.Replace(effect)
		}
		state = state.KillField(object, mapField)
		if objectMap == sourceMap {
			state = state.AddField(object, mapField, targetMap)
		}
	} else {
		state = state.KillField(object, mapField)
	}
	if ir.ElementsTransitionOf(node.Op()) == ir.SlowTransition {
		// A slow transition reallocates the backing store.
		state = state.KillField(object, elementsField)
	}
	return le.updateState(node, state)
}

func (le *LoadElimination) reduceLoadField(node *ir.Node) reduce.Reduction {
	access := ir.FieldAccessOf(node.Op())
	object := node.ValueInput(0)
	effect := node.EffectInput(0)
	state := le.nodeStates.Get(effect)
	if state == nil {
		return reduce.NoChange()
	}
	if fieldIndex := fieldIndexOf(access); fieldIndex >= 0 {
		if replacement := state.LookupField(object, fieldIndex); replacement != nil {
			// The replacement must be live and at least as precisely typed
			// as the load.
			if !replacement.IsDead() && replacement.Type().Is(node.Type()) {
				le.logger.Tracef("loadelim: replacing %s with %s", node, replacement)
				le.stats.LoadsEliminated++
				le.editor.ReplaceWithValue(node, replacement, effect)
				return reduce.Replace(replacement)
			}
		}
		state = state.AddField(object, fieldIndex, node)
	}
	return le.updateState(node, state)
}

func (le *LoadElimination) reduceStoreField(node *ir.Node) reduce.Reduction {
	access := ir.FieldAccessOf(node.Op())
	object := node.ValueInput(0)
	newValue := node.ValueInput(1)
	effect := node.EffectInput(0)
	state := le.nodeStates.Get(effect)
	if state == nil {
		return reduce.NoChange()
	}
	if fieldIndex := fieldIndexOf(access); fieldIndex >= 0 {
		oldValue := state.LookupField(object, fieldIndex)
		if oldValue == newValue {
			// The slot already holds this exact value.
			le.logger.Tracef("loadelim: store %s is fully redundant", node)
			le.stats.StoresEliminated++
			return reduce.Replace(effect)
		}
		state = state.KillField(object, fieldIndex)
		state = state.AddField(object, fieldIndex, newValue)
	} else {
		// Untracked access; assume it can clobber anything.
		state = emptyState
	}
	return le.updateState(node, state)
}

func (le *LoadElimination) reduceLoadElement(node *ir.Node) reduce.Reduction {
	object := node.ValueInput(0)
	index := node.ValueInput(1)
	effect := node.EffectInput(0)
	state := le.nodeStates.Get(effect)
	if state == nil {
		return reduce.NoChange()
	}
	if replacement := state.LookupElement(object, index); replacement != nil {
		if !replacement.IsDead() && replacement.Type().Is(node.Type()) {
			le.logger.Tracef("loadelim: replacing %s with %s", node, replacement)
			le.stats.LoadsEliminated++
			le.editor.ReplaceWithValue(node, replacement, effect)
			return reduce.Replace(replacement)
		}
	}
	state = state.AddElement(object, index, node)
	return le.updateState(node, state)
}

func (le *LoadElimination) reduceStoreElement(node *ir.Node) reduce.Reduction {
	access := ir.ElementAccessOf(node.Op())
	object := node.ValueInput(0)
	index := node.ValueInput(1)
	newValue := node.ValueInput(2)
	effect := node.EffectInput(0)
	state := le.nodeStates.Get(effect)
	if state == nil {
		return reduce.NoChange()
	}
	oldValue := state.LookupElement(object, index)
	if oldValue == newValue {
		le.logger.Tracef("loadelim: store %s is fully redundant", node)
		le.stats.StoresEliminated++
		return reduce.Replace(effect)
	}
	state = state.KillElement(object, index)
	// Record the new value only if storing it back does not truncate: a
	// narrower store followed by a full-width load would observe different
	// bits than the stored node.
	switch access.Representation {
	case ir.RepNone, ir.RepBit:
		panic(fmt.Sprintf("loadelim: unexpected %s element store", access.Representation))
	case ir.RepWord8, ir.RepWord16, ir.RepWord32, ir.RepWord64, ir.RepFloat32:
	case ir.RepFloat64, ir.RepSimd128, ir.RepTaggedSigned, ir.RepTaggedPointer, ir.RepTagged:
		state = state.AddElement(object, index, newValue)
	}
	return le.updateState(node, state)
}

func (le *LoadElimination) reduceStoreTypedElement(node *ir.Node) reduce.Reduction {
	effect := node.EffectInput(0)
	state := le.nodeStates.Get(effect)
	if state == nil {
		return reduce.NoChange()
	}
	// Typed-array contents are not tracked; the state passes through.
	return le.updateState(node, state)
}

func (le *LoadElimination) reduceEffectPhi(node *ir.Node) reduce.Reduction {
	effect0 := node.EffectInput(0)
	control := node.ControlInput()
	state0 := le.nodeStates.Get(effect0)
	if state0 == nil {
		return reduce.NoChange()
	}
	if control.Opcode() == ir.OpLoop {
		// With reducible loops the entry edge dominates the header, so the
		// loop state is the entry state minus everything the body may kill.
		return le.updateState(node, le.computeLoopState(node, state0))
	}
	if control.Opcode() != ir.OpMerge {
		panic(fmt.Sprintf("loadelim: effect phi %s on %s control", node, control))
	}

	// If any predecessor is unknown the merge would only have to be redone;
	// wait for the driver to revisit.
	inputCount := node.Op().EffectIn
	for i := 1; i < inputCount; i++ {
		if le.nodeStates.Get(node.EffectInput(i)) == nil {
			return reduce.NoChange()
		}
	}

	state := state0.clone()
	for i := 1; i < inputCount; i++ {
		state.Merge(le.nodeStates.Get(node.EffectInput(i)))
	}
	return le.updateState(node, state)
}

func (le *LoadElimination) reduceStart(node *ir.Node) reduce.Reduction {
	return le.updateState(node, emptyState)
}

// reduceOtherNode handles every effectful operation the pass has no model
// for: state flows through NoWrite operators and is reset for anything that
// may write.
func (le *LoadElimination) reduceOtherNode(node *ir.Node) reduce.Reduction {
	if node.Op().EffectIn == 1 {
		if node.Op().EffectOut == 1 {
			effect := node.EffectInput(0)
			state := le.nodeStates.Get(effect)
			if state == nil {
				return reduce.NoChange()
			}
			if !node.Op().HasProperty(ir.NoWrite) {
				state = emptyState
			}
			return le.updateState(node, state)
		}
		// Effect terminators carry no outgoing state.
		return reduce.NoChange()
	}
	if node.Op().EffectIn != 0 || node.Op().EffectOut != 0 {
		panic(fmt.Sprintf("loadelim: unexpected effect arity on %s", node))
	}
	return reduce.NoChange()
}

// updateState publishes state for node when it progressed, signalling the
// driver to revisit the node's successors. Pointer equality is the fast
// path; structural equality decides the rest.
func (le *LoadElimination) updateState(node *ir.Node, state *abstractState) reduce.Reduction {
	original := le.nodeStates.Get(node)
	if state != original {
		if original == nil || !state.Equals(original) {
			le.nodeStates.Set(node, state)
			return reduce.Changed(node)
		}
	}
	return reduce.NoChange()
}

// fieldIndexOf maps a field access to the tracked slot index, or -1 when
// the access is not tracked. Only pointer-sized, pointer-aligned slots on a
// tagged base within the tracked range qualify.
func fieldIndexOf(access ir.FieldAccess) int {
	rep := access.Representation
	switch rep {
	case ir.RepNone, ir.RepBit:
		panic(fmt.Sprintf("loadelim: unexpected %s field access", rep))
	case ir.RepWord32, ir.RepWord64:
		if rep != ir.PointerRepresentation() {
			return -1 // only pointer-size word fields are tracked
		}
	case ir.RepWord8, ir.RepWord16, ir.RepFloat32:
		return -1
	case ir.RepFloat64, ir.RepSimd128:
		return -1
	case ir.RepTaggedSigned, ir.RepTaggedPointer, ir.RepTagged:
	}
	if access.BaseIsTagged != ir.TaggedBase {
		panic(fmt.Sprintf("loadelim: untagged base on tracked %s access", rep))
	}
	if access.Offset%ir.PointerSize != 0 {
		panic(fmt.Sprintf("loadelim: misaligned field offset %d", access.Offset))
	}
	fieldIndex := access.Offset / ir.PointerSize
	if fieldIndex >= maxTrackedFields {
		return -1
	}
	return fieldIndex
}
