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

// abstractField maps object nodes to the value last known to occupy one
// specific field slot of that object. Instances are immutable; mutators
// return a fresh map or the receiver unchanged.
type abstractField struct {
	info map[*ir.Node]*ir.Node
}

func newAbstractField(object, value *ir.Node) *abstractField {
	return &abstractField{info: map[*ir.Node]*ir.Node{object: value}}
}

// Lookup returns the value known for the slot on object, or nil. Only a key
// that MustAliases object can answer, and MustAlias is identity, so at most
// one key matches.
func (a *abstractField) Lookup(object *ir.Node) *ir.Node {
	for obj, val := range a.info {
		if mustAlias(object, obj) {
			return val
		}
	}
	return nil
}

// Extend records (object, value), overwriting any previous entry for the
// same object.
func (a *abstractField) Extend(object, value *ir.Node) *abstractField {
	info := make(map[*ir.Node]*ir.Node, len(a.info)+1)
	for obj, val := range a.info {
		info[obj] = val
	}
	info[object] = value
	return &abstractField{info: info}
}

// Kill drops every entry whose key may alias object. The receiver is
// returned unchanged when nothing aliases, so callers can use pointer
// equality as a no-progress check.
func (a *abstractField) Kill(object *ir.Node) *abstractField {
	for obj := range a.info {
		if mayAlias(object, obj) {
			info := make(map[*ir.Node]*ir.Node, len(a.info))
			for obj, val := range a.info {
				if !mayAlias(object, obj) {
					info[obj] = val
				}
			}
			return &abstractField{info: info}
		}
	}
	return a
}

// Equals compares the two maps as sets of (object, value) pairs.
func (a *abstractField) Equals(that *abstractField) bool {
	if a == that {
		return true
	}
	if len(a.info) != len(that.info) {
		return false
	}
	for obj, val := range a.info {
		if that.info[obj] != val {
			return false
		}
	}
	return true
}

// Merge keeps only the pairs present in both maps with identical values.
// Returns the receiver when the maps are already equal.
func (a *abstractField) Merge(that *abstractField) *abstractField {
	if a.Equals(that) {
		return a
	}
	info := map[*ir.Node]*ir.Node{}
	for obj, val := range a.info {
		if that.info[obj] == val {
			info[obj] = val
		}
	}
	return &abstractField{info: info}
}
