// Package progress prints stage progress of a pipeline run to a terminal.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Njuelle/brief-to-plan/internal/pipeline"
)

// Indicator provides progress display for a pipeline run
type Indicator struct {
	writer      io.Writer
	mu          sync.Mutex
	total       int
	completed   int
	failed      int
	running     map[string]time.Time
	startTime   time.Time
	showSpinner bool
	spinnerIdx  int
	stopChan    chan struct{}
	done        chan struct{}
	stopOnce    sync.Once // Ensures Stop() is only called once
	spinning    bool
	isCI        bool
	now         func() time.Time
}

// Config holds configuration for progress indicator
type Config struct {
	Writer      io.Writer
	ShowSpinner bool
	IsCI        bool // Set to true in CI/CD environments to disable fancy output
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewIndicator creates a new progress indicator
func NewIndicator(cfg Config) *Indicator {
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}

	// Auto-detect CI environment
	if !cfg.IsCI {
		cfg.IsCI = os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
	}

	return &Indicator{
		writer:      cfg.Writer,
		running:     make(map[string]time.Time),
		startTime:   time.Now(),
		showSpinner: cfg.ShowSpinner && !cfg.IsCI,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		isCI:        cfg.IsCI,
		now:         time.Now,
	}
}

// RunStarted implements pipeline.Observer
func (p *Indicator) RunStarted(_ context.Context, info pipeline.RunInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = p.now()
	p.total = 0
	for _, level := range info.Levels {
		p.total += len(level)
	}
	fmt.Fprintf(p.writer, "Planning in %d stages (%d levels)\n", p.total, len(info.Levels))

	if p.showSpinner && !p.spinning {
		p.spinning = true
		go p.spinnerLoop()
	}
}

// StageStarted implements pipeline.Observer
func (p *Indicator) StageStarted(_ context.Context, info pipeline.StageInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.running[info.Name] = p.now()
	p.printStageStatus(info.Name, "running", 0, nil)
}

// StageFinished implements pipeline.Observer
func (p *Indicator) StageFinished(_ context.Context, result pipeline.StageResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.running, result.Name)
	if result.Err != nil {
		p.failed++
		p.printStageStatus(result.Name, "failed", result.Duration, result.Err)
		return
	}
	p.completed++
	p.printStageStatus(result.Name, "completed", result.Duration, nil)
}

// RunFinished implements pipeline.Observer and stops the spinner
func (p *Indicator) RunFinished(_ context.Context, result pipeline.RunResult) {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	if result.Err != nil {
		fmt.Fprintf(p.writer, "✗ Run failed after %s (%d/%d stages completed)\n",
			formatDuration(result.Duration), p.completed, p.total)
		return
	}
	fmt.Fprintf(p.writer, "✓ Run completed in %s (%d/%d stages)\n",
		formatDuration(result.Duration), p.completed, p.total)
}

// Stop stops the spinner and waits for it to exit
func (p *Indicator) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)

		p.mu.Lock()
		spinning := p.spinning
		p.mu.Unlock()

		if spinning {
			<-p.done
			p.mu.Lock()
			p.clearLine()
			p.mu.Unlock()
		}
	})
}

// spinnerLoop runs the spinner animation
func (p *Indicator) spinnerLoop() {
	defer close(p.done)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.mu.Lock()
			p.renderProgress()
			p.spinnerIdx = (p.spinnerIdx + 1) % len(spinnerFrames)
			p.mu.Unlock()
		}
	}
}

// renderProgress renders the current progress line
func (p *Indicator) renderProgress() {
	progress := 0.0
	if p.total > 0 {
		progress = float64(p.completed+p.failed) / float64(p.total)
	}

	barWidth := 20
	filled := int(float64(barWidth) * progress)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(p.writer, "\r%s [%s] %d/%d stages | %s | %s",
		spinnerFrames[p.spinnerIdx],
		bar,
		p.completed+p.failed,
		p.total,
		strings.Join(p.runningNames(), ", "),
		formatDuration(p.now().Sub(p.startTime)),
	)
}

func (p *Indicator) runningNames() []string {
	names := make([]string, 0, len(p.running))
	for name := range p.running {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Indicator) clearLine() {
	if p.showSpinner {
		fmt.Fprintf(p.writer, "\r%s\r", strings.Repeat(" ", 80))
	}
}

// printStageStatus prints stage status in a line-oriented format
func (p *Indicator) printStageStatus(stage, status string, d time.Duration, err error) {
	p.clearLine()

	symbol := "⟲"
	switch status {
	case "running":
		symbol = "▶"
	case "completed":
		symbol = "✓"
	case "failed":
		symbol = "✗"
	}

	msg := fmt.Sprintf("%s %s [%s]", symbol, stage, status)
	if d > 0 {
		msg += " " + formatDuration(d)
	}
	if err != nil {
		msg += fmt.Sprintf(" - %v", firstLine(err.Error()))
	}

	fmt.Fprintln(p.writer, msg)
}

// firstLine drops error suggestions so progress stays one line per event.
func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

var _ pipeline.Observer = (*Indicator)(nil)
