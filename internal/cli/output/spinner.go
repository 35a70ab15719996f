// Package output provides output formatting for feedback-bench.
package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// spinnerInterval is the frame redraw period.
const spinnerInterval = 100 * time.Millisecond

// Spinner displays an indeterminate activity animation, used while the
// shutdown path waits for canceled operations and hooks to drain.
type Spinner struct {
	w       io.Writer
	message string
	frames  []string

	started  bool
	stopOnce sync.Once
	done     chan struct{}
	idle     chan struct{}
}

// NewSpinner creates a new spinner.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		message: message,
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		done:    make(chan struct{}),
		idle:    make(chan struct{}),
	}
}

// Start starts the spinner animation. The first frame renders
// immediately.
func (s *Spinner) Start() {
	s.started = true
	go func() {
		defer close(s.idle)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			fmt.Fprintf(s.w, "\r%s %s", s.frames[i%len(s.frames)], s.message)
			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.stop("\r\033[K")
}

// Success stops the spinner with a success message.
func (s *Spinner) Success(message string) {
	s.stop(fmt.Sprintf("\r\033[K✓ %s\n", message))
}

// Fail stops the spinner with a failure message.
func (s *Spinner) Fail(message string) {
	s.stop(fmt.Sprintf("\r\033[K✗ %s\n", message))
}

// stop ends the animation exactly once and writes the final line after
// the render goroutine has exited, so a late frame cannot overwrite it.
func (s *Spinner) stop(final string) {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.started {
			<-s.idle
		}
		fmt.Fprint(s.w, final)
	})
}
