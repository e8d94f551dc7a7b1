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

// nodeStates is a dense table from effect-node id to the last state
// published for that node. A nil entry means the node has not been
// processed yet, which is distinct from a published empty state.
type nodeStates struct {
	info []*abstractState
}

// Get returns the state published for node, or nil.
func (t *nodeStates) Get(node *ir.Node) *abstractState {
	if id := int(node.ID()); id < len(t.info) {
		return t.info[id]
	}
	return nil
}

// Set publishes a state for node, growing the table as needed.
func (t *nodeStates) Set(node *ir.Node, state *abstractState) {
	id := int(node.ID())
	if id >= len(t.info) {
		grown := make([]*abstractState, id+1)
		copy(grown, t.info)
		t.info = grown
	}
	t.info[id] = state
}
