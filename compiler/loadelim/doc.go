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

// Package loadelim eliminates redundant memory loads and stores over the
// sea-of-nodes IR.
//
// The pass walks the effect chain and maintains, per effect node, an
// abstract state: for each tracked field slot a map from object node to the
// last value known to be stored there, plus a small bounded table of
// (object, index, value) element facts. A load whose slot has a known live
// value of a compatible type is replaced by that value; a store that writes
// the value already known to be in its slot is replaced by its incoming
// effect. Every fact that a write could invalidate is removed through the
// alias oracle, and control-flow merges keep only the facts common to all
// predecessors, so forgetting is the only way the analysis can be wrong —
// which is always sound.
//
// States are immutable once published to the per-node state table, so
// identity comparison doubles as a cheap no-progress check and sub-states
// are shared freely between the states of neighboring effect nodes.
package loadelim
