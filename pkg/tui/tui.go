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

package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/aggregator"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/dashboard"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/defaults"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/snapshot"
)

const (
	title       = "GPU Availability"
	footerLines = 3
	usedSep     = ", "
	clockLayout = "15:04:05"
)

// Gatherer produces one ClusterView per call.
type Gatherer interface {
	Gather(ctx context.Context, hosts []string) aggregator.ClusterView
}

// Option configures Run.
type Option func(*options)

type options struct {
	interval   time.Duration
	staleAfter time.Duration
	clock      clock.WithTicker
}

// WithInterval sets the refresh interval.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		o.interval = d
	}
}

// WithStaleAfter sets the staleness threshold passed to the renderer.
func WithStaleAfter(d time.Duration) Option {
	return func(o *options) {
		o.staleAfter = d
	}
}

// WithClock replaces the wall clock.
func WithClock(c clock.WithTicker) Option {
	return func(o *options) {
		o.clock = c
	}
}

// Rows returns the table header followed by one row per host.
func Rows(m dashboard.DisplayModel) [][]string {
	rows := make([][]string, 0, len(m.Hosts)+1)
	rows = append(rows, dashboard.TableHeader)
	for _, h := range m.Hosts {
		rows = append(rows, h.Row(usedSep))
	}
	return rows
}

// RowStyles colors host rows by status, keyed by table row index.
func RowStyles(m dashboard.DisplayModel) map[int]ui.Style {
	styles := map[int]ui.Style{
		0: ui.NewStyle(ui.ColorWhite, ui.ColorClear, ui.ModifierBold),
	}
	for i, h := range m.Hosts {
		styles[i+1] = statusStyle(h.Status)
	}
	return styles
}

func statusStyle(s snapshot.Status) ui.Style {
	switch s {
	case snapshot.StatusOK:
		return ui.NewStyle(ui.ColorGreen)
	case snapshot.StatusFull:
		return ui.NewStyle(ui.ColorYellow)
	default:
		return ui.NewStyle(ui.ColorRed)
	}
}

// Footer is the caption under the table.
func Footer(m dashboard.DisplayModel) string {
	return fmt.Sprintf("%s | %d / %d GPUs free | %d of %d hosts down\nLast updated: %s | q to quit",
		m.Caption, m.Summary.FreeGPU, m.Summary.TotalGPU, m.Summary.HostsDown, m.Summary.Hosts,
		m.GeneratedAt.Format(clockLayout))
}

// Run shows the table until ctx is canceled or the user quits.
func Run(ctx context.Context, g Gatherer, hosts []string, opts ...Option) error {
	o := options{
		interval:   defaults.RefreshInterval,
		staleAfter: defaults.StaleAfter,
		clock:      clock.RealClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.interval <= 0 {
		o.interval = defaults.RefreshInterval
	}

	if err := ui.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer ui.Close()

	table := widgets.NewTable()
	table.Title = title
	table.TextStyle = ui.NewStyle(ui.ColorWhite)
	table.RowSeparator = true
	table.FillRow = true
	table.Rows = [][]string{dashboard.TableHeader}

	footer := widgets.NewParagraph()
	footer.Border = false
	footer.Text = "Loading..."

	layout := func(w, h int) {
		table.SetRect(0, 0, w, h-footerLines)
		footer.SetRect(0, h-footerLines, w, h)
	}
	layout(ui.TerminalDimensions())
	ui.Render(table, footer)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	models := make(chan dashboard.DisplayModel, 1)
	go refresh(ctx, g, hosts, o, models)

	events := ui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			switch e.ID {
			case "q", "<C-c>":
				return nil
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				layout(payload.Width, payload.Height)
				ui.Clear()
				ui.Render(table, footer)
			}
		case m := <-models:
			table.Rows = Rows(m)
			table.RowStyles = RowStyles(m)
			footer.Text = Footer(m)
			ui.Render(table, footer)
		}
	}
}

// refresh gathers off the UI goroutine so slow hosts never block input.
func refresh(ctx context.Context, g Gatherer, hosts []string, o options, out chan<- dashboard.DisplayModel) {
	ticker := o.clock.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		view := g.Gather(ctx, hosts)
		if ctx.Err() != nil {
			return
		}
		m := dashboard.Render(view, o.clock.Now(), dashboard.WithStaleAfter(o.staleAfter))
		slog.Debug("terminal view refreshed", slog.Int("hosts", m.Summary.Hosts))

		select {
		case out <- m:
		case <-ctx.Done():
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}
	}
}
