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

// tidewater: optimize sea-of-nodes graph fixtures from the command line.
// This is the entry point of the optimizer tooling.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tidewater-vm/tidewater/compiler/config"
	"github.com/tidewater-vm/tidewater/compiler/graphio"
	"github.com/tidewater-vm/tidewater/compiler/loadelim"
	render "github.com/tidewater-vm/tidewater/compiler/rendering"
	"github.com/tidewater-vm/tidewater/internal/formatutil"
)

// flags
var (
	configPath = ""
	dotBefore  = ""
	dotAfter   = ""
	verbose    = false
)

func init() {
	flag.StringVar(&configPath, "config", "", "config file path")
	flag.StringVar(&dotBefore, "dot-before", "", "write the input graph in graphviz format to this file")
	flag.StringVar(&dotAfter, "dot-after", "", "write the optimized graph in graphviz format to this file")
	flag.BoolVar(&verbose, "verbose", false, "trace every rewrite")
}

const usage = `Run load elimination on sea-of-nodes graph fixtures.

Usage:
  tidewater [options] graph.yaml...

Use the -help flag to display the options.

Examples:
% tidewater -verbose testdata/redundant-load.yaml
`

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "error: expected at least one graph file\n%s", usage)
		os.Exit(2)
	}
	if err := doMain(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "tidewater: %s\n", formatutil.Red(err.Error()))
		os.Exit(1)
	}
}

func doMain(files []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := config.NewLogGroup(cfg)
	for _, file := range files {
		if err := optimizeFile(cfg, logger, file); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg := config.NewDefault()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ReportStats = true
	if verbose {
		cfg.LogLevel = int(config.TraceLevel)
	}
	return cfg, nil
}

func optimizeFile(cfg *config.Config, logger *config.LogGroup, file string) error {
	g, _, err := graphio.LoadFile(file)
	if err != nil {
		return err
	}
	if dotBefore != "" {
		if err := render.GraphvizToFile(g, dotBefore); err != nil {
			return err
		}
	}
	stats, err := loadelim.Run(g, cfg, logger)
	if err != nil {
		return err
	}
	total := stats.LoadsEliminated + stats.StoresEliminated + stats.ChecksEliminated
	verdict := formatutil.Faint("nothing to do")
	if total > 0 {
		verdict = formatutil.Green(fmt.Sprintf("%d nodes eliminated", total))
	}
	fmt.Printf("%s: %s\n", formatutil.Bold(formatutil.Sanitize(file)), verdict)
	dotTarget := dotAfter
	if dotTarget == "" {
		dotTarget = cfg.DotOutput
	}
	if dotTarget != "" {
		if err := render.GraphvizToFile(g, dotTarget); err != nil {
			return err
		}
	}
	return nil
}
