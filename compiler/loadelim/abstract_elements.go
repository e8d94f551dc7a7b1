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

// elementTableSize bounds the number of element facts a state can hold.
// Element indices are arbitrary value nodes, so without a bound the table
// could grow with the program; forgetting the oldest fact is always sound.
const elementTableSize = 8

// An element records that object[index] held value at this program point.
// A slot with a nil object is empty.
type element struct {
	object *ir.Node
	index  *ir.Node
	value  *ir.Node
}

// abstractElements is a bounded ring of element facts with oldest-wins
// eviction. Instances are immutable after construction; every mutator
// returns a fresh table or the receiver unchanged.
type abstractElements struct {
	elements  [elementTableSize]element
	nextIndex int
}

func newAbstractElements(object, index, value *ir.Node) *abstractElements {
	a := &abstractElements{}
	a.elements[0] = element{object, index, value}
	a.nextIndex = 1
	return a
}

// Lookup returns the value known for (object, index), or nil. Both the
// object and the index must MustAlias the record's.
func (a *abstractElements) Lookup(object, index *ir.Node) *ir.Node {
	for _, el := range a.elements {
		if el.object == nil {
			continue
		}
		if mustAlias(object, el.object) && mustAlias(index, el.index) {
			return el.value
		}
	}
	return nil
}

// Extend writes a new fact into the ring, evicting the oldest record once
// the table is full.
func (a *abstractElements) Extend(object, index, value *ir.Node) *abstractElements {
	that := &abstractElements{}
	*that = *a
	that.elements[that.nextIndex] = element{object, index, value}
	that.nextIndex = (that.nextIndex + 1) % elementTableSize
	return that
}

// Kill drops every record that a write to (object, index) could invalidate:
// records whose object may alias the written object and whose index may
// alias the written index. The receiver is returned unchanged when nothing
// aliases, so callers can use pointer equality as a no-progress check.
func (a *abstractElements) Kill(object, index *ir.Node) *abstractElements {
	for _, el := range a.elements {
		if el.object == nil {
			continue
		}
		if mayAlias(object, el.object) {
			that := &abstractElements{}
			for _, el := range a.elements {
				if el.object == nil {
					continue
				}
				if !mayAlias(object, el.object) || !mayAlias(index, el.index) {
					that.elements[that.nextIndex] = el
					that.nextIndex++
				}
			}
			that.nextIndex %= elementTableSize
			return that
		}
	}
	return a
}

// Equals compares the two tables as sets of records.
func (a *abstractElements) Equals(that *abstractElements) bool {
	if a == that {
		return true
	}
	if !subsetOf(a, that) {
		return false
	}
	return subsetOf(that, a)
}

// subsetOf reports whether every record of a occurs in b.
func subsetOf(a, b *abstractElements) bool {
	for _, el := range a.elements {
		if el.object == nil {
			continue
		}
		found := false
		for _, other := range b.elements {
			if el == other {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Merge keeps only the records present in both tables. Returns the receiver
// when the tables are already equal.
func (a *abstractElements) Merge(that *abstractElements) *abstractElements {
	if a.Equals(that) {
		return a
	}
	merged := &abstractElements{}
	for _, el := range a.elements {
		if el.object == nil {
			continue
		}
		for _, other := range that.elements {
			if el == other {
				merged.elements[merged.nextIndex] = el
				merged.nextIndex++
				break
			}
		}
	}
	merged.nextIndex %= elementTableSize
	return merged
}
