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

// Package render writes graphviz representations of the IR for debugging.
package render

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/tidewater-vm/tidewater/compiler/ir"
)

// edgeStyle defines specific styles for the edge classes of the graph
// - value edges are plain
// - effect edges are dashed and red
// - control edges are dotted and blue
func edgeStyle(kind ir.EdgeKind) string {
	switch kind {
	case ir.EffectEdge:
		return "[style=dashed color=red]"
	case ir.ControlEdge:
		return "[style=dotted color=blue]"
	}
	return ""
}

func nodeStr(node *ir.Node) string {
	return node.String()
}

// WriteGraphviz writes a graphviz representation of the graph to w. Dead
// nodes are skipped.
func WriteGraphviz(g *ir.Graph, w io.Writer) error {
	var err error
	before := "digraph ir {\n"
	after := "}\n"

	_, err = w.Write([]byte(before))
	if err != nil {
		return fmt.Errorf("error while writing in file: %w", err)
	}
	for _, node := range g.Nodes() {
		if node.IsDead() {
			continue
		}
		for i := 0; i < node.InputCount(); i++ {
			input := node.Input(i)
			if input == nil || input.IsDead() {
				continue
			}
			s := fmt.Sprintf("  \"%s\" -> \"%s\" %s;\n",
				nodeStr(input), nodeStr(node), edgeStyle(node.KindOfInput(i)))
			if _, err := w.Write([]byte(s)); err != nil {
				return fmt.Errorf("error while writing in file: %w", err)
			}
		}
	}
	_, err = w.Write([]byte(after))
	if err != nil {
		return fmt.Errorf("error while writing in file: %w", err)
	}
	return nil
}

// GraphvizToFile writes the graphviz representation of the graph to the
// file at path.
func GraphvizToFile(g *ir.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create dot file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := WriteGraphviz(g, w); err != nil {
		return err
	}
	return w.Flush()
}
