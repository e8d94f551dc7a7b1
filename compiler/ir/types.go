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

import "strings"

// A Type is a bitset over a small universe of value shapes. Set union is the
// lattice join, so subtyping is bitset inclusion and two types can describe
// a common value exactly when their bitsets intersect.
type Type uint16

// TypeBoolean through TypeOtherInternal are the atomic shape bits.
const (
	TypeBoolean Type = 1 << iota
	TypeNumber
	TypeString
	TypeUndefined
	TypeNull
	TypeObject
	TypeArray
	TypeMap
	TypeOtherInternal

	numTypeBits = iota
)

const (
	// TypeNone is the empty type; no value inhabits it.
	TypeNone Type = 0

	// TypeAny describes every value.
	TypeAny Type = 1<<numTypeBits - 1
)

// TypeReceiver is any heap object a field or element access can target.
const TypeReceiver = TypeObject | TypeArray

// Maybe reports whether a value could inhabit both t and u.
func (t Type) Maybe(u Type) bool { return t&u != TypeNone }

// Is reports whether t is a subtype of u: every value of type t is a value
// of type u.
func (t Type) Is(u Type) bool { return t&^u == TypeNone }

var typeNames = []struct {
	bit  Type
	name string
}{
	{TypeBoolean, "Boolean"},
	{TypeNumber, "Number"},
	{TypeString, "String"},
	{TypeUndefined, "Undefined"},
	{TypeNull, "Null"},
	{TypeObject, "Object"},
	{TypeArray, "Array"},
	{TypeMap, "Map"},
	{TypeOtherInternal, "OtherInternal"},
}

func (t Type) String() string {
	if t == TypeNone {
		return "None"
	}
	if t == TypeAny {
		return "Any"
	}
	var parts []string
	for _, tn := range typeNames {
		if t&tn.bit != 0 {
			parts = append(parts, tn.name)
		}
	}
	return strings.Join(parts, "|")
}

// TypeByName parses a type name as printed by String, accepting "|" unions.
// Used by the graph fixture loader.
func TypeByName(name string) (Type, bool) {
	switch name {
	case "", "Any":
		return TypeAny, true
	case "None":
		return TypeNone, true
	case "Receiver":
		return TypeReceiver, true
	}
	t := TypeNone
	for _, part := range strings.Split(name, "|") {
		found := false
		for _, tn := range typeNames {
			if tn.name == part {
				t |= tn.bit
				found = true
				break
			}
		}
		if !found {
			return TypeNone, false
		}
	}
	return t, true
}
