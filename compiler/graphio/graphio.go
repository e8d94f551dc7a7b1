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

// Package graphio reads sea-of-nodes graphs from a yaml description. The
// format exists for tests and for the command-line tools; it is not a
// stable serialization of the IR.
package graphio

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tidewater-vm/tidewater/compiler/ir"
	"github.com/tidewater-vm/tidewater/internal/funcutil"
	"github.com/tidewater-vm/tidewater/internal/graphutil"
)

// A GraphSpec is the top-level yaml document: a named list of node specs.
// Nodes may only reference nodes defined before them, except that any input
// of a Loop, Merge, Phi or EffectPhi node may reference later nodes to close
// cycles.
type GraphSpec struct {
	Name  string     `yaml:"name"`
	Nodes []NodeSpec `yaml:"nodes"`
}

// A NodeSpec describes one node.
type NodeSpec struct {
	Name string `yaml:"name"`
	Op   string `yaml:"op"`

	// Type is the node's static type, in the syntax of ir.TypeByName.
	Type string `yaml:"type,omitempty"`

	// Operator parameters; which one applies depends on Op.
	Index      *int        `yaml:"index,omitempty"`      // Parameter
	Handle     string      `yaml:"handle,omitempty"`     // HeapConstant
	Num        float64     `yaml:"num,omitempty"`        // NumberConstant
	Size       int         `yaml:"size,omitempty"`       // Allocate
	Field      *AccessSpec `yaml:"field,omitempty"`      // LoadField, StoreField
	Element    *AccessSpec `yaml:"element,omitempty"`    // LoadElement, StoreElement
	Flags      []string    `yaml:"flags,omitempty"`      // MaybeGrowFastElements
	Transition string      `yaml:"transition,omitempty"` // TransitionElementsKind

	// Inputs by name, one list per partition.
	Value   []string `yaml:"value,omitempty"`
	Effect  []string `yaml:"effect,omitempty"`
	Control []string `yaml:"control,omitempty"`
}

// An AccessSpec describes a field or element access.
type AccessSpec struct {
	Offset int    `yaml:"offset"`
	Header int    `yaml:"header"`
	Rep    string `yaml:"rep"`
	Base   string `yaml:"base,omitempty"`
	Type   string `yaml:"type,omitempty"`
}

// LoadFile reads a graph from a yaml file.
func LoadFile(filename string) (*ir.Graph, map[string]*ir.Node, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("could not read graph file: %w", err)
	}
	return Load(b)
}

// Load builds a graph from yaml bytes. It returns the graph and the map
// from spec names to nodes.
func Load(b []byte) (*ir.Graph, map[string]*ir.Node, error) {
	var spec GraphSpec
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, nil, fmt.Errorf("could not unmarshal graph: %w", err)
	}
	return Build(spec)
}

// Build constructs the graph described by spec.
func Build(spec GraphSpec) (*ir.Graph, map[string]*ir.Node, error) {
	b := builder{
		graph: ir.NewGraph(),
		named: map[string]*ir.Node{},
	}
	for _, ns := range spec.Nodes {
		if ns.Name == "" {
			return nil, nil, fmt.Errorf("graph %q: node without a name", spec.Name)
		}
		if _, dup := b.named[ns.Name]; dup {
			return nil, nil, fmt.Errorf("graph %q: duplicate node name %q", spec.Name, ns.Name)
		}
		node, err := b.build(ns)
		if err != nil {
			return nil, nil, fmt.Errorf("graph %q, node %q: %w", spec.Name, ns.Name, err)
		}
		b.named[ns.Name] = node
	}
	if err := b.patchBackEdges(); err != nil {
		return nil, nil, fmt.Errorf("graph %q: %w", spec.Name, err)
	}
	if b.graph.Start() == nil || b.graph.End() == nil {
		return nil, nil, fmt.Errorf("graph %q: missing Start or End node", spec.Name)
	}
	if err := graphutil.ValidateEffectCycles(b.graph); err != nil {
		return nil, nil, fmt.Errorf("graph %q: %w", spec.Name, err)
	}
	return b.graph, b.named, nil
}

// cyclicOps are the operators whose inputs may reference nodes defined
// later in the document.
var cyclicOps = []string{"Loop", "Merge", "Phi", "EffectPhi"}

type backEdge struct {
	node  *ir.Node
	input int
	name  string
}

type builder struct {
	graph *ir.Graph
	named map[string]*ir.Node

	// backEdges are inputs referencing nodes not yet defined; they are
	// resolved once all nodes exist.
	backEdges []backEdge
}

//gocyclo:ignore
func (b *builder) build(ns NodeSpec) (*ir.Node, error) {
	var op *ir.Operator
	switch ns.Op {
	case "Start":
		op = ir.StartOp()
	case "End":
		op = ir.EndOp(len(ns.Control))
	case "Merge":
		op = ir.MergeOp(len(ns.Control))
	case "Loop":
		op = ir.LoopOp(len(ns.Control))
	case "Branch":
		op = ir.BranchOp()
	case "IfTrue":
		op = ir.IfTrueOp()
	case "IfFalse":
		op = ir.IfFalseOp()
	case "Return":
		op = ir.ReturnOp()
	case "Parameter":
		index := 0
		if ns.Index != nil {
			index = *ns.Index
		}
		op = ir.ParameterOp(index)
	case "HeapConstant":
		if ns.Handle == "" {
			return nil, fmt.Errorf("HeapConstant requires a handle")
		}
		node := b.graph.HeapConstant(ns.Handle)
		return node, b.setType(node, ns)
	case "NumberConstant":
		op = ir.NumberConstantOp(ns.Num)
	case "Phi":
		op = ir.PhiOp(len(ns.Value))
	case "EffectPhi":
		op = ir.EffectPhiOp(len(ns.Effect))
	case "Allocate":
		op = ir.AllocateOp(ns.Size)
	case "FinishRegion":
		op = ir.FinishRegionOp()
	case "CheckMaps":
		if len(ns.Value) < 2 {
			return nil, fmt.Errorf("CheckMaps requires an object and at least one map")
		}
		op = ir.CheckMapsOp(len(ns.Value) - 1)
	case "EnsureWritableFastElements":
		op = ir.EnsureWritableFastElementsOp()
	case "MaybeGrowFastElements":
		flags, err := parseGrowFlags(ns.Flags)
		if err != nil {
			return nil, err
		}
		op = ir.MaybeGrowFastElementsOp(flags)
	case "TransitionElementsKind":
		kind, err := parseTransition(ns.Transition)
		if err != nil {
			return nil, err
		}
		op = ir.TransitionElementsKindOp(kind)
	case "LoadField", "StoreField":
		access, err := fieldAccess(ns.Field)
		if err != nil {
			return nil, err
		}
		if ns.Op == "LoadField" {
			op = ir.LoadFieldOp(access)
		} else {
			op = ir.StoreFieldOp(access)
		}
	case "LoadElement", "StoreElement":
		access, err := elementAccess(ns.Element)
		if err != nil {
			return nil, err
		}
		if ns.Op == "LoadElement" {
			op = ir.LoadElementOp(access)
		} else {
			op = ir.StoreElementOp(access)
		}
	case "StoreTypedElement":
		op = ir.StoreTypedElementOp()
	case "StoreBuffer":
		op = ir.StoreBufferOp()
	case "Call":
		op = ir.CallOp(len(ns.Value))
	default:
		return nil, fmt.Errorf("unknown op %q", ns.Op)
	}

	if len(ns.Value) != op.ValueIn {
		return nil, fmt.Errorf("%s expects %d value inputs, got %d", ns.Op, op.ValueIn, len(ns.Value))
	}
	if len(ns.Effect) != op.EffectIn {
		return nil, fmt.Errorf("%s expects %d effect inputs, got %d", ns.Op, op.EffectIn, len(ns.Effect))
	}
	if len(ns.Control) != op.ControlIn {
		return nil, fmt.Errorf("%s expects %d control inputs, got %d", ns.Op, op.ControlIn, len(ns.Control))
	}

	names := make([]string, 0, op.TotalInputs())
	names = append(names, ns.Value...)
	names = append(names, ns.Effect...)
	names = append(names, ns.Control...)

	// Back references are only allowed where cycles are legal.
	cyclic := funcutil.Contains(cyclicOps, ns.Op)
	inputs := make([]*ir.Node, len(names))
	var missing []backEdge
	for i, name := range names {
		in, ok := b.named[name]
		if !ok {
			if !cyclic {
				return nil, fmt.Errorf("input %q is not defined", name)
			}
			missing = append(missing, backEdge{input: i, name: name})
			in = b.placeholder()
		}
		inputs[i] = in
	}

	node := b.graph.NewNode(op, inputs...)
	for _, m := range missing {
		m.node = node
		b.backEdges = append(b.backEdges, m)
	}
	switch ns.Op {
	case "Start":
		b.graph.SetStart(node)
	case "End":
		b.graph.SetEnd(node)
	}
	return node, b.setType(node, ns)
}

// placeholder returns a fresh dead node standing in for a not-yet-defined
// back-edge input.
func (b *builder) placeholder() *ir.Node {
	n := b.graph.NewNode(&ir.Operator{Opcode: ir.OpDead})
	return n
}

func (b *builder) patchBackEdges() error {
	for _, be := range b.backEdges {
		target, ok := b.named[be.name]
		if !ok {
			return fmt.Errorf("node %s: back edge input %q is not defined", be.node, be.name)
		}
		be.node.ReplaceInput(be.input, target)
	}
	return nil
}

func (b *builder) setType(node *ir.Node, ns NodeSpec) error {
	if ns.Type == "" {
		return nil
	}
	t, ok := ir.TypeByName(ns.Type)
	if !ok {
		return fmt.Errorf("unknown type %q", ns.Type)
	}
	node.SetType(t)
	return nil
}

var growFlagNames = map[string]ir.GrowFastElementsFlags{
	"array-object":    ir.GrowFastElementsArrayObject,
	"double-elements": ir.GrowFastElementsDoubleElements,
	"holey-elements":  ir.GrowFastElementsHoleyElements,
}

func parseGrowFlags(names []string) (ir.GrowFastElementsFlags, error) {
	var flags ir.GrowFastElementsFlags
	for _, name := range names {
		flag, ok := growFlagNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown grow flag %q (known: %v)",
				name, funcutil.SetToOrderedSlice(knownGrowFlags()))
		}
		flags |= flag
	}
	return flags, nil
}

func knownGrowFlags() map[string]bool {
	known := map[string]bool{}
	for name := range growFlagNames {
		known[name] = true
	}
	return known
}

func parseTransition(name string) (ir.ElementsTransition, error) {
	switch name {
	case "", "fast":
		return ir.FastTransition, nil
	case "slow":
		return ir.SlowTransition, nil
	}
	return 0, fmt.Errorf("unknown transition kind %q", name)
}

func fieldAccess(spec *AccessSpec) (ir.FieldAccess, error) {
	if spec == nil {
		return ir.FieldAccess{}, fmt.Errorf("missing field access")
	}
	rep, base, typ, err := accessParts(spec)
	if err != nil {
		return ir.FieldAccess{}, err
	}
	return ir.FieldAccess{
		BaseIsTagged:   base,
		Offset:         spec.Offset,
		Representation: rep,
		Type:           typ,
	}, nil
}

func elementAccess(spec *AccessSpec) (ir.ElementAccess, error) {
	if spec == nil {
		return ir.ElementAccess{}, fmt.Errorf("missing element access")
	}
	rep, base, typ, err := accessParts(spec)
	if err != nil {
		return ir.ElementAccess{}, err
	}
	return ir.ElementAccess{
		BaseIsTagged:   base,
		HeaderSize:     spec.Header,
		Representation: rep,
		Type:           typ,
	}, nil
}

func accessParts(spec *AccessSpec) (ir.MachineRepresentation, ir.BaseTaggedness, ir.Type, error) {
	repName := spec.Rep
	if repName == "" {
		repName = "Tagged"
	}
	rep, ok := ir.RepByName(repName)
	if !ok {
		return 0, 0, 0, fmt.Errorf("unknown machine representation %q", spec.Rep)
	}
	base := ir.TaggedBase
	switch spec.Base {
	case "", "tagged":
	case "untagged":
		base = ir.UntaggedBase
	default:
		return 0, 0, 0, fmt.Errorf("unknown base taggedness %q", spec.Base)
	}
	typ := ir.TypeAny
	if spec.Type != "" {
		t, ok := ir.TypeByName(spec.Type)
		if !ok {
			return 0, 0, 0, fmt.Errorf("unknown access type %q", spec.Type)
		}
		typ = t
	}
	return rep, base, typ, nil
}
