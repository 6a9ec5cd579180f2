// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/config"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/serializer"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		wantFormat serializer.Format
		wantErr    bool
	}{
		{
			name:       "valid yaml format",
			format:     "yaml",
			wantFormat: serializer.FormatYAML,
			wantErr:    false,
		},
		{
			name:       "valid json format",
			format:     "json",
			wantFormat: serializer.FormatJSON,
			wantErr:    false,
		},
		{
			name:       "valid table format",
			format:     "table",
			wantFormat: serializer.FormatTable,
			wantErr:    false,
		},
		{
			name:       "invalid format xml",
			format:     "xml",
			wantFormat: "",
			wantErr:    true,
		},
		{
			name:       "invalid format csv",
			format:     "csv",
			wantFormat: "",
			wantErr:    true,
		},
		{
			name:       "invalid format unknown",
			format:     "unknown",
			wantFormat: "",
			wantErr:    true,
		},
		{
			name:       "empty format",
			format:     "",
			wantFormat: "",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create a minimal CLI command with the format flag
			cmd := &cli.Command{
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Value: tt.format,
					},
				},
				Action: func(_ context.Context, c *cli.Command) error {
					got, err := parseOutputFormat(c)
					if (err != nil) != tt.wantErr {
						t.Errorf("parseOutputFormat() error = %v, wantErr %v", err, tt.wantErr)
						return nil
					}
					if !tt.wantErr && got != tt.wantFormat {
						t.Errorf("parseOutputFormat() = %v, want %v", got, tt.wantFormat)
					}
					return nil
				},
			}

			// Run the command with the test format
			err := cmd.Run(context.Background(), []string{"test"})
			if err != nil {
				t.Fatalf("failed to run command: %v", err)
			}
		})
	}
}

func TestOverrides(t *testing.T) {
	var got map[string]any
	cmd := &cli.Command{
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "hosts"},
			&cli.StringFlag{Name: "transport"},
			&cli.DurationFlag{Name: "interval"},
			&cli.StringFlag{Name: "listen", Value: ":9090"},
			&cli.StringFlag{Name: "unrelated"},
		},
		Action: func(_ context.Context, c *cli.Command) error {
			got = overrides(c)
			return nil
		},
	}

	err := cmd.Run(context.Background(), []string{"test", "--hosts", "a,b", "--interval", "3s", "--unrelated", "x"})
	if err != nil {
		t.Fatalf("failed to run command: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("overrides() = %v, want 2 entries", got)
	}
	hosts, ok := got[config.KeyHosts].([]string)
	if !ok || len(hosts) != 2 || hosts[0] != "a" || hosts[1] != "b" {
		t.Errorf("hosts override = %v, want [a b]", got[config.KeyHosts])
	}
	if got[config.KeyInterval] != 3*time.Second {
		t.Errorf("interval override = %v, want 3s", got[config.KeyInterval])
	}
	if _, ok := got[config.KeyListen]; ok {
		t.Error("flag default must not become an override")
	}
}

func TestConfigFlagsMatchCommands(t *testing.T) {
	defined := make(map[string]bool)
	var walk func(c *cli.Command)
	walk = func(c *cli.Command) {
		for _, f := range c.Flags {
			for _, n := range f.Names() {
				defined[n] = true
			}
		}
		for _, sub := range c.Commands {
			walk(sub)
		}
	}
	walk(newRootCmd())

	for _, f := range configFlags {
		if !defined[f.flag] {
			t.Errorf("config flag %q is not defined on any command", f.flag)
		}
	}
}
