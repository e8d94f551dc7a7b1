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

import "github.com/tidewater-vm/tidewater/compiler/ir"

// Aliasing is the answer of the alias oracle for a pair of value nodes.
type Aliasing uint8

const (
	// NoAlias means the two nodes can never refer to the same object.
	NoAlias Aliasing = iota

	// MayAlias means the oracle cannot rule out that they do.
	MayAlias

	// MustAlias means they always refer to the same object.
	MustAlias
)

func (a Aliasing) String() string {
	switch a {
	case NoAlias:
		return "NoAlias"
	case MayAlias:
		return "MayAlias"
	case MustAlias:
		return "MustAlias"
	}
	return "Unknown"
}

// QueryAlias decides how the objects named by two value nodes can be
// related. Identity is the only source of MustAlias. Disjoint static types
// rule aliasing out, and a fresh allocation cannot alias another
// allocation, a heap constant or an incoming parameter. FinishRegion nodes
// are transparent wrappers around the allocation they finalize.
func QueryAlias(a, b *ir.Node) Aliasing {
	if a == b {
		return MustAlias
	}
	if !a.Type().Maybe(b.Type()) {
		return NoAlias
	}
	if b.Opcode() == ir.OpAllocate {
		switch a.Opcode() {
		case ir.OpAllocate, ir.OpHeapConstant, ir.OpParameter:
			return NoAlias
		case ir.OpFinishRegion:
			return QueryAlias(a.ValueInput(0), b)
		}
	}
	if a.Opcode() == ir.OpAllocate {
		switch b.Opcode() {
		case ir.OpHeapConstant, ir.OpParameter:
			return NoAlias
		case ir.OpFinishRegion:
			return QueryAlias(a, b.ValueInput(0))
		}
	}
	return MayAlias
}

func mayAlias(a, b *ir.Node) bool { return QueryAlias(a, b) != NoAlias }

func mustAlias(a, b *ir.Node) bool { return QueryAlias(a, b) == MustAlias }
