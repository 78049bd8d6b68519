// Package dashboard renders a live terminal view of a running load test.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/cqlfire/internal/metrics"
)

// RunInfo holds run parameters for display.
type RunInfo struct {
	RunID         string
	ContactPoints []string
	Keyspace      string
	Consistency   string
	Workers       int
	Duration      time.Duration
	WriteRatio    float64
	Rate          int
}

// Dashboard renders a live terminal UI for load test metrics.
type Dashboard struct {
	collector    *metrics.Collector
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	grid            *ui.Grid
	summaryPara     *widgets.Paragraph
	opsGauge        *widgets.Gauge
	countsPara      *widgets.Paragraph
	latencySparkle  *widgets.SparklineGroup
	latencyPara     *widgets.Paragraph
	errorList       *widgets.List
	latencyHistory  []float64
	startTime       time.Time
	runInfo         RunInfo
	peakThroughput  float64
}

// New creates a new Dashboard. shutdownFunc is invoked when the user
// quits with q or Ctrl-C.
func New(collector *metrics.Collector, info RunInfo, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		collector:      collector,
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		latencyHistory: make([]float64, 0, 100),
		startTime:      time.Now(),
		runInfo:        info,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

func (d *Dashboard) initWidgets() {
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.opsGauge = widgets.NewGauge()
	d.opsGauge.Title = "Operations Per Second"
	d.opsGauge.Percent = 0
	d.opsGauge.BarColor = ui.ColorBlue
	d.opsGauge.BorderStyle.Fg = ui.ColorCyan
	d.opsGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.countsPara = widgets.NewParagraph()
	d.countsPara.Title = "Operations"
	d.countsPara.Text = "Waiting for data..."
	d.countsPara.BorderStyle.Fg = ui.ColorCyan

	sparkline := widgets.NewSparkline()
	sparkline.Title = "Avg latency (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.latencySparkle = widgets.NewSparklineGroup(sparkline)
	d.latencySparkle.Title = "Real-time Latency"
	d.latencySparkle.BorderStyle.Fg = ui.ColorCyan

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Latency Stats"
	d.latencyPara.Text = "Write avg: 0ms\nRead avg : 0ms"
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	d.errorList = widgets.NewList()
	d.errorList.Title = "Error Samples"
	d.errorList.Rows = []string{"No failures"}
	d.errorList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.errorList.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.18,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.20,
			ui.NewCol(0.5, d.opsGauge),
			ui.NewCol(0.5, d.countsPara),
		),
		ui.NewRow(0.32,
			ui.NewCol(0.65, d.latencySparkle),
			ui.NewCol(0.35, d.latencyPara),
		),
		ui.NewRow(0.30,
			ui.NewCol(1.0, d.errorList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Do not return here; wait for Stop() to cancel context
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the collector.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	elapsed := time.Since(d.startTime)
	stats := d.collector.Stats(elapsed)

	avgMs := 0.0
	if stats.TotalOps > 0 {
		avgMs = (stats.AvgWriteLatencyMs*float64(stats.Writes) +
			stats.AvgReadLatencyMs*float64(stats.Reads)) / float64(stats.TotalOps)
	}
	if avgMs > 0 {
		d.latencyHistory = append(d.latencyHistory, avgMs)
		if len(d.latencyHistory) > 100 {
			d.latencyHistory = d.latencyHistory[1:]
		}
		d.latencySparkle.Sparklines[0].Data = d.latencyHistory
		d.latencySparkle.Title = fmt.Sprintf("Real-time Latency | Current: %.2fms", avgMs)
	}

	if stats.Throughput > d.peakThroughput {
		d.peakThroughput = stats.Throughput
	}
	gaugeMax := d.peakThroughput
	if gaugeMax < 100 {
		gaugeMax = 100
	}
	percent := int((stats.Throughput / gaugeMax) * 100)
	if percent > 100 {
		percent = 100
	}
	d.opsGauge.Percent = percent
	d.opsGauge.Label = fmt.Sprintf("%.1f ops/sec", stats.Throughput)

	remaining := d.runInfo.Duration - elapsed
	if remaining < 0 {
		remaining = 0
	}
	pacing := "unlimited"
	if d.runInfo.Rate > 0 {
		pacing = fmt.Sprintf("%d ops/sec", d.runInfo.Rate)
	}
	d.summaryPara.Text = fmt.Sprintf(
		"Run: %s\nCluster: %v | Keyspace: %s | Consistency: %s\nWorkers: %d | Write ratio: %.2f | Rate: %s | Elapsed: %s | Remaining: %s",
		d.runInfo.RunID,
		d.runInfo.ContactPoints,
		d.runInfo.Keyspace,
		d.runInfo.Consistency,
		d.runInfo.Workers,
		d.runInfo.WriteRatio,
		pacing,
		elapsed.Round(time.Second),
		remaining.Round(time.Second),
	)

	d.countsPara.Text = fmt.Sprintf(
		"Total:        %d\nWrites:       %d (errors %d)\nReads:        %d (errors %d)\nWrite share:  %.1f%%",
		stats.TotalOps,
		stats.Writes, stats.WriteErrors,
		stats.Reads, stats.ReadErrors,
		stats.WriteShare*100,
	)

	d.latencyPara.Text = fmt.Sprintf(
		"Write avg: %.2fms\nWrite P99: %.2fms\nRead avg : %.2fms\nRead P99 : %.2fms",
		stats.AvgWriteLatencyMs,
		stats.WriteP99LatencyMs,
		stats.AvgReadLatencyMs,
		stats.ReadP99LatencyMs,
	)

	if len(stats.ErrorSamples) > 0 {
		d.errorList.Rows = stats.ErrorSamples
	}
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}
