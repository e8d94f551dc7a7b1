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

// MachineRepresentation describes the bit-level representation of a value
// stored in memory.
type MachineRepresentation uint8

const (
	RepNone MachineRepresentation = iota
	RepBit
	RepWord8
	RepWord16
	RepWord32
	RepWord64
	RepFloat32
	RepFloat64
	RepSimd128
	RepTaggedSigned
	RepTaggedPointer
	RepTagged
)

var repNames = [...]string{
	RepNone:          "None",
	RepBit:           "Bit",
	RepWord8:         "Word8",
	RepWord16:        "Word16",
	RepWord32:        "Word32",
	RepWord64:        "Word64",
	RepFloat32:       "Float32",
	RepFloat64:       "Float64",
	RepSimd128:       "Simd128",
	RepTaggedSigned:  "TaggedSigned",
	RepTaggedPointer: "TaggedPointer",
	RepTagged:        "Tagged",
}

func (r MachineRepresentation) String() string {
	if int(r) < len(repNames) {
		return repNames[r]
	}
	return "Unknown"
}

// RepByName returns the machine representation with the given name. Used by
// the graph fixture loader.
func RepByName(name string) (MachineRepresentation, bool) {
	for r, rName := range repNames {
		if rName == name {
			return MachineRepresentation(r), true
		}
	}
	return RepNone, false
}

// PointerSize is the size in bytes of a tagged pointer on the target.
const PointerSize = 8

// PointerRepresentation returns the word representation that matches the
// target pointer width.
func PointerRepresentation() MachineRepresentation { return RepWord64 }

// BaseTaggedness says whether the base address of an access is a tagged
// heap pointer or an untagged machine address.
type BaseTaggedness uint8

const (
	UntaggedBase BaseTaggedness = iota
	TaggedBase
)

// A FieldAccess describes a load or store of a fixed-offset slot of a heap
// object.
type FieldAccess struct {
	// BaseIsTagged is the taggedness of the object input.
	BaseIsTagged BaseTaggedness

	// Offset is the byte offset of the slot from the object base.
	Offset int

	// Representation is the machine representation of the stored value.
	Representation MachineRepresentation

	// Type is the static type of the stored value.
	Type Type
}

// An ElementAccess describes a load or store of an indexed element of a heap
// object's backing store.
type ElementAccess struct {
	// BaseIsTagged is the taggedness of the object input.
	BaseIsTagged BaseTaggedness

	// HeaderSize is the byte offset of element 0 from the object base.
	HeaderSize int

	// Representation is the machine representation of the stored values.
	Representation MachineRepresentation

	// Type is the static type of the stored values.
	Type Type
}

// GrowFastElementsFlags parameterize a MaybeGrowFastElements operator.
type GrowFastElementsFlags uint8

const (
	// GrowFastElementsArrayObject is set when the object is a proper array,
	// so growing also updates its length.
	GrowFastElementsArrayObject GrowFastElementsFlags = 1 << iota

	// GrowFastElementsDoubleElements is set when the backing store holds
	// unboxed doubles.
	GrowFastElementsDoubleElements

	// GrowFastElementsHoleyElements is set when the backing store may
	// contain holes.
	GrowFastElementsHoleyElements
)

// ElementsTransition is the kind of a TransitionElementsKind operator.
type ElementsTransition uint8

const (
	// FastTransition changes the map in place; the backing store is reused.
	FastTransition ElementsTransition = iota

	// SlowTransition reallocates the backing store.
	SlowTransition
)
