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
	"golang.org/x/tools/container/intsets"

	"github.com/tidewater-vm/tidewater/compiler/ir"
)

// computeLoopState weakens the loop-entry state by the killing effect of
// every effectful node reachable backwards from the loop phi's back edges.
// Kills are monotone and commute, so one backward sweep over the body is a
// sound over-approximation of the loop fixed point; adding effects are
// deliberately never applied.
func (le *LoadElimination) computeLoopState(node *ir.Node, state *abstractState) *abstractState {
	var visited intsets.Sparse
	visited.Insert(int(node.ID()))
	var queue []*ir.Node
	for i := 1; i < node.Op().EffectIn; i++ {
		queue = append(queue, node.EffectInput(i))
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if !visited.Insert(int(current.ID())) {
			continue
		}
		if !current.Op().HasProperty(ir.NoWrite) {
			switch current.Opcode() {
			case ir.OpEnsureWritableFastElements:
				object := current.ValueInput(0)
				state = state.KillField(object, elementsField)
			case ir.OpMaybeGrowFastElements:
				flags := ir.GrowFastElementsFlagsOf(current.Op())
				object := current.ValueInput(0)
				state = state.KillField(object, elementsField)
				if flags&ir.GrowFastElementsArrayObject != 0 {
					state = state.KillField(object, lengthField)
				}
			case ir.OpTransitionElementsKind:
				object := current.ValueInput(0)
				state = state.KillField(object, mapField)
				state = state.KillField(object, elementsField)
			case ir.OpStoreField:
				access := ir.FieldAccessOf(current.Op())
				object := current.ValueInput(0)
				fieldIndex := fieldIndexOf(access)
				if fieldIndex < 0 {
					return emptyState
				}
				state = state.KillField(object, fieldIndex)
			case ir.OpStoreElement:
				object := current.ValueInput(0)
				index := current.ValueInput(1)
				state = state.KillElement(object, index)
			case ir.OpStoreBuffer, ir.OpStoreTypedElement:
				// Neither touches tracked state.
			default:
				return emptyState
			}
		}
		for i := 0; i < current.Op().EffectIn; i++ {
			queue = append(queue, current.EffectInput(i))
		}
	}
	return state
}
