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

// maxTrackedFields bounds the field slots the analysis reasons about.
// Accesses beyond PointerSize*maxTrackedFields bytes are left untracked.
const maxTrackedFields = 32

// An abstractState is everything known about the heap at one effect node:
// one abstractField per tracked field slot (nil means no information for
// that slot) plus an optional element table. States published to the
// node-state table are immutable; all mutators copy.
type abstractState struct {
	fields   [maxTrackedFields]*abstractField
	elements *abstractElements
}

// emptyState is the state with no facts. It is shared; the pass never
// mutates a published state.
var emptyState = &abstractState{}

// LookupField returns the value known for the fieldIndex slot on object, or
// nil.
func (s *abstractState) LookupField(object *ir.Node, fieldIndex int) *ir.Node {
	if field := s.fields[fieldIndex]; field != nil {
		return field.Lookup(object)
	}
	return nil
}

// LookupElement returns the value known for object[index], or nil.
func (s *abstractState) LookupElement(object, index *ir.Node) *ir.Node {
	if s.elements != nil {
		return s.elements.Lookup(object, index)
	}
	return nil
}

// AddField returns a copy of the state that additionally knows the
// fieldIndex slot on object holds value.
func (s *abstractState) AddField(object *ir.Node, fieldIndex int, value *ir.Node) *abstractState {
	that := &abstractState{}
	*that = *s
	if field := that.fields[fieldIndex]; field != nil {
		that.fields[fieldIndex] = field.Extend(object, value)
	} else {
		that.fields[fieldIndex] = newAbstractField(object, value)
	}
	return that
}

// KillField removes everything known about the fieldIndex slot on any
// object that may alias object. Returns the receiver when nothing changes.
func (s *abstractState) KillField(object *ir.Node, fieldIndex int) *abstractState {
	if field := s.fields[fieldIndex]; field != nil {
		killed := field.Kill(object)
		if killed != field {
			that := &abstractState{}
			*that = *s
			that.fields[fieldIndex] = killed
			return that
		}
	}
	return s
}

// AddElement returns a copy of the state that additionally knows
// object[index] holds value.
func (s *abstractState) AddElement(object, index, value *ir.Node) *abstractState {
	that := &abstractState{}
	*that = *s
	if that.elements != nil {
		that.elements = that.elements.Extend(object, index, value)
	} else {
		that.elements = newAbstractElements(object, index, value)
	}
	return that
}

// KillElement removes everything a write to (object, index) could
// invalidate. Returns the receiver when nothing changes.
func (s *abstractState) KillElement(object, index *ir.Node) *abstractState {
	if s.elements != nil {
		killed := s.elements.Kill(object, index)
		if killed != s.elements {
			that := &abstractState{}
			*that = *s
			that.elements = killed
			return that
		}
	}
	return s
}

// Merge weakens the state to the facts it has in common with that. The
// receiver must be a fresh copy that has not been published yet; merging
// mutates it in place.
func (s *abstractState) Merge(that *abstractState) {
	if s.elements != nil {
		if that.elements != nil {
			s.elements = s.elements.Merge(that.elements)
		} else {
			s.elements = nil
		}
	}
	for i, field := range s.fields {
		if field == nil {
			continue
		}
		if that.fields[i] != nil {
			s.fields[i] = field.Merge(that.fields[i])
		} else {
			s.fields[i] = nil
		}
	}
}

// Equals compares the two states structurally.
func (s *abstractState) Equals(that *abstractState) bool {
	if s == that {
		return true
	}
	if s.elements != nil {
		if that.elements == nil || !that.elements.Equals(s.elements) {
			return false
		}
	} else if that.elements != nil {
		return false
	}
	for i, field := range s.fields {
		if field != nil {
			if that.fields[i] == nil || !that.fields[i].Equals(field) {
				return false
			}
		} else if that.fields[i] != nil {
			return false
		}
	}
	return true
}

// clone returns a private copy of the state that may be merged into.
func (s *abstractState) clone() *abstractState {
	that := &abstractState{}
	*that = *s
	return that
}
