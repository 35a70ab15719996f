// Package output provides output formatting for feedback-bench.
package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ProgressBar renders a single-line progress bar showing the percent
// complete and the processed-item count reported by workers.
type ProgressBar struct {
	w         io.Writer
	title     string
	width     int
	percent   float64
	processed uint64
	mu        sync.Mutex
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(w io.Writer, title string) *ProgressBar {
	return &ProgressBar{
		w:     w,
		title: title,
		width: 40,
	}
}

// Update redraws the bar with the given percent (clamped to [0,100])
// and processed count. Safe for concurrent use.
func (p *ProgressBar) Update(percent float64, processed uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case percent < 0:
		percent = 0
	case percent > 100:
		percent = 100
	}
	p.percent = percent
	p.processed = processed
	p.render()
}

// Finish draws the bar at 100% and terminates the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.percent = 100
	p.render()
	fmt.Fprintln(p.w)
}

// Abort terminates the line at the current position, for canceled
// runs.
func (p *ProgressBar) Abort() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, " canceled\n")
}

func (p *ProgressBar) render() {
	filled := int(float64(p.width) * p.percent / 100)
	if filled > p.width {
		filled = p.width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)

	fmt.Fprintf(p.w, "\r%s [%s] %5.1f%% (%d processed)",
		p.title,
		bar,
		p.percent,
		p.processed,
	)
}
