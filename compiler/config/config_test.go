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

package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != int(DebugLevel) {
		t.Errorf("LogLevel = %d, want %d", cfg.LogLevel, DebugLevel)
	}
	if cfg.MaxReductions != 10000 {
		t.Errorf("MaxReductions = %d, want 10000", cfg.MaxReductions)
	}
	if cfg.DotOutput != "out.dot" {
		t.Errorf("DotOutput = %q, want %q", cfg.DotOutput, "out.dot")
	}
	if !cfg.ReportStats {
		t.Errorf("ReportStats = false, want true")
	}
	if cfg.SourceFile() != path {
		t.Errorf("SourceFile() = %q, want %q", cfg.SourceFile(), path)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "empty.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != int(InfoLevel) {
		t.Errorf("default LogLevel = %d, want %d", cfg.LogLevel, InfoLevel)
	}
	if cfg.MaxReductions != 0 || cfg.DotOutput != "" || cfg.ReportStats {
		t.Errorf("defaults changed: %+v", cfg.Options)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"unknown key", "bad-key.yaml", "could not unmarshal"},
		{"missing file", "does-not-exist.yaml", "could not read"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(filepath.Join("testdata", tt.file))
			if err == nil {
				t.Fatalf("Load succeeded, want error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestParseRejectsOutOfRangeValues(t *testing.T) {
	if _, err := parse([]byte("log-level: 9\n")); err == nil {
		t.Errorf("log-level 9 accepted")
	}
	if _, err := parse([]byte("max-reductions: -1\n")); err == nil {
		t.Errorf("negative max-reductions accepted")
	}
}

func TestGlobalConfig(t *testing.T) {
	SetGlobalConfig(filepath.Join("testdata", "config.yaml"))
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.LogLevel != int(DebugLevel) {
		t.Errorf("LogLevel = %d, want %d", cfg.LogLevel, DebugLevel)
	}
}

func TestLogGroupRespectsLevel(t *testing.T) {
	cfg := NewDefault()
	cfg.LogLevel = int(WarnLevel)
	logger := NewLogGroup(cfg)
	var buf bytes.Buffer
	logger.SetAllOutput(&buf)
	logger.SetAllFlags(0)

	logger.Infof("hidden %d", 1)
	logger.Debugf("hidden %d", 2)
	logger.Tracef("hidden %d", 3)
	if buf.Len() != 0 {
		t.Errorf("messages above the level were logged: %q", buf.String())
	}

	logger.Warnf("shown")
	logger.Errorf("shown")
	out := buf.String()
	if !strings.Contains(out, "[WARN] shown") || !strings.Contains(out, "[ERROR] shown") {
		t.Errorf("missing leveled output: %q", out)
	}
}
