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

// An Opcode identifies the operation a node performs. The set below covers
// the memory-affecting operations the optimizer reasons about, the
// control-flow skeleton (Start, End, Merge, Loop, branches) and the pure
// value producers that appear as their inputs.
type Opcode uint8

const (
	// OpDead marks a node that has been removed from the graph.
	OpDead Opcode = iota

	// Control operators.
	OpStart
	OpEnd
	OpMerge
	OpLoop
	OpBranch
	OpIfTrue
	OpIfFalse
	OpReturn

	// Value operators.
	OpParameter
	OpHeapConstant
	OpNumberConstant
	OpPhi

	// Effect operators.
	OpEffectPhi
	OpAllocate
	OpFinishRegion
	OpCheckMaps
	OpEnsureWritableFastElements
	OpMaybeGrowFastElements
	OpTransitionElementsKind
	OpLoadField
	OpStoreField
	OpLoadElement
	OpStoreElement
	OpStoreTypedElement
	OpStoreBuffer
	OpCall

	numOpcodes
)

var opcodeNames = [numOpcodes]string{
	OpDead:                       "Dead",
	OpStart:                      "Start",
	OpEnd:                        "End",
	OpMerge:                      "Merge",
	OpLoop:                       "Loop",
	OpBranch:                     "Branch",
	OpIfTrue:                     "IfTrue",
	OpIfFalse:                    "IfFalse",
	OpReturn:                     "Return",
	OpParameter:                  "Parameter",
	OpHeapConstant:               "HeapConstant",
	OpNumberConstant:             "NumberConstant",
	OpPhi:                        "Phi",
	OpEffectPhi:                  "EffectPhi",
	OpAllocate:                   "Allocate",
	OpFinishRegion:               "FinishRegion",
	OpCheckMaps:                  "CheckMaps",
	OpEnsureWritableFastElements: "EnsureWritableFastElements",
	OpMaybeGrowFastElements:      "MaybeGrowFastElements",
	OpTransitionElementsKind:     "TransitionElementsKind",
	OpLoadField:                  "LoadField",
	OpStoreField:                 "StoreField",
	OpLoadElement:                "LoadElement",
	OpStoreElement:               "StoreElement",
	OpStoreTypedElement:          "StoreTypedElement",
	OpStoreBuffer:                "StoreBuffer",
	OpCall:                       "Call",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "Unknown"
}

// OpcodeByName returns the opcode with the given name, or OpDead and false
// when no opcode matches.
func OpcodeByName(name string) (Opcode, bool) {
	for op, opName := range opcodeNames {
		if opName == name {
			return Opcode(op), true
		}
	}
	return OpDead, false
}
