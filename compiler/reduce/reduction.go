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

// Package reduce drives reducers over a sea-of-nodes graph until no reducer
// makes progress.
package reduce

import "github.com/tidewater-vm/tidewater/compiler/ir"

// A Reduction is the verdict of one reducer on one node. The zero value is
// NoChange. Changed(n) means the node was updated in place and its uses
// should be revisited; Replace(v) with v != n means all uses of the node
// must be redirected to v.
type Reduction struct {
	replacement *ir.Node
}

// NoChange reports that the reducer left the node as-is.
func NoChange() Reduction { return Reduction{} }

// Changed reports that the node (or bookkeeping attached to it) progressed
// without replacing it.
func Changed(node *ir.Node) Reduction { return Reduction{replacement: node} }

// Replace reports that every use of the reduced node must be redirected to
// value.
func Replace(value *ir.Node) Reduction { return Reduction{replacement: value} }

// IsChanged reports whether the reduction made any progress.
func (r Reduction) IsChanged() bool { return r.replacement != nil }

// Replacement returns the node uses should be redirected to, or nil for
// NoChange.
func (r Reduction) Replacement() *ir.Node { return r.replacement }

// A Reducer inspects one node at a time and reports whether it changed the
// graph or its own bookkeeping for the node.
type Reducer interface {
	Reduce(node *ir.Node) Reduction
}

// An Editor is the graph-mutation callback surface handed to reducers that
// rewire uses themselves before returning Replace.
type Editor interface {
	// ReplaceWithValue redirects the value uses of node to value and its
	// effect uses to effect, scheduling the touched users for revisit.
	ReplaceWithValue(node, value, effect *ir.Node)

	// Revisit schedules a node to be reduced again.
	Revisit(node *ir.Node)
}
