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

// Package config holds the runtime options of the optimizer tools and the
// leveled logger they share.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config contains the options of the optimizer pipeline. If some field is
// not defined in the config file, it keeps its default from NewDefault.
type Config struct {
	Options `yaml:",inline"`

	sourceFile string
}

// Options are the yaml-settable knobs.
type Options struct {
	// LogLevel controls the verbosity of the tools.
	LogLevel int `yaml:"log-level"`

	// MaxReductions bounds the number of reduction steps the graph reducer
	// performs before giving up; 0 means no bound.
	MaxReductions int `yaml:"max-reductions"`

	// DotOutput is a file path the optimized graph is rendered to in
	// graphviz format; empty disables rendering.
	DotOutput string `yaml:"dot-output"`

	// ReportStats prints elimination counts after each pass.
	ReportStats bool `yaml:"report-stats"`
}

// SourceFile returns the path the config was loaded from, or "".
func (c *Config) SourceFile() string { return c.sourceFile }

// NewDefault returns the default config.
func NewDefault() *Config {
	return &Config{
		Options: Options{
			LogLevel:      int(InfoLevel),
			MaxReductions: 0,
			DotOutput:     "",
			ReportStats:   false,
		},
	}
}

// Load reads a configuration from a file.
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := parse(b)
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %q: %w", filename, err)
	}
	cfg.sourceFile = filename
	return cfg, nil
}

func parse(b []byte) (*Config, error) {
	cfg := NewDefault()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}
	// If log-level has not been specified (i.e. it is 0) keep the default.
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.LogLevel < int(ErrLevel) || cfg.LogLevel > int(TraceLevel) {
		return nil, fmt.Errorf("log-level %d out of range [%d,%d]", cfg.LogLevel, ErrLevel, TraceLevel)
	}
	if cfg.MaxReductions < 0 {
		return nil, fmt.Errorf("max-reductions must not be negative")
	}
	return cfg, nil
}
