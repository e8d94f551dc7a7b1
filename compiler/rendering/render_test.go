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

package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/tidewater-vm/tidewater/compiler/ir"
)

func TestWriteGraphviz(t *testing.T) {
	g := ir.NewGraph()
	start := g.NewNode(ir.StartOp())
	g.SetStart(start)
	p := g.NewNode(ir.ParameterOp(0))
	access := ir.FieldAccess{BaseIsTagged: ir.TaggedBase, Offset: 8, Representation: ir.RepTagged}
	load := g.NewNode(ir.LoadFieldOp(access), p, start, start)
	ret := g.NewNode(ir.ReturnOp(), load, load, start)
	end := g.NewNode(ir.EndOp(1), ret)
	g.SetEnd(end)

	var buf bytes.Buffer
	if err := WriteGraphviz(g, &buf); err != nil {
		t.Fatalf("WriteGraphviz: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "digraph ir {") || !strings.HasSuffix(out, "}\n") {
		t.Errorf("output is not a digraph: %q", out)
	}
	valueEdge := fmt.Sprintf("\"%s\" -> \"%s\" ;", p, load)
	effectEdge := fmt.Sprintf("\"%s\" -> \"%s\" [style=dashed color=red];", load, ret)
	controlEdge := fmt.Sprintf("\"%s\" -> \"%s\" [style=dotted color=blue];", start, load)
	for _, want := range []string{valueEdge, effectEdge, controlEdge} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
}

func TestWriteGraphvizSkipsDeadNodes(t *testing.T) {
	g := ir.NewGraph()
	start := g.NewNode(ir.StartOp())
	g.SetStart(start)
	p := g.NewNode(ir.ParameterOp(0))
	ret := g.NewNode(ir.ReturnOp(), p, start, start)
	end := g.NewNode(ir.EndOp(1), ret)
	g.SetEnd(end)
	dead := g.NewNode(ir.ParameterOp(1))
	dead.Kill()

	var buf bytes.Buffer
	if err := WriteGraphviz(g, &buf); err != nil {
		t.Fatalf("WriteGraphviz: %v", err)
	}
	if strings.Contains(buf.String(), dead.String()) {
		t.Errorf("dead node rendered: %s", buf.String())
	}
}
