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

import (
	"fmt"

	"github.com/tidewater-vm/tidewater/compiler/config"
	"github.com/tidewater-vm/tidewater/compiler/ir"
	"github.com/tidewater-vm/tidewater/compiler/reduce"
	"github.com/tidewater-vm/tidewater/internal/graphutil"
)

// Run eliminates redundant loads and stores in g, driving the pass to a
// fixed point over the whole graph. The graph must have reducible control
// flow; irreducible graphs are rejected before any rewriting happens.
func Run(g *ir.Graph, cfg *config.Config, logger *config.LogGroup) (Stats, error) {
	if err := graphutil.CheckReducible(g); err != nil {
		return Stats{}, fmt.Errorf("load elimination: %w", err)
	}
	gr := reduce.NewGraphReducer(g)
	if cfg.MaxReductions > 0 {
		gr.SetMaxSteps(cfg.MaxReductions)
	}
	le := New(gr, g, logger)
	gr.AddReducer(le)
	gr.ReduceGraph()
	stats := le.Stats()
	if cfg.ReportStats {
		logger.Infof("load elimination: %d loads, %d stores, %d checks eliminated",
			stats.LoadsEliminated, stats.StoresEliminated, stats.ChecksEliminated)
	}
	return stats, nil
}
