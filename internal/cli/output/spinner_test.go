package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

// syncBuffer guards concurrent writes from the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_StartStop(t *testing.T) {
	buf := &syncBuffer{}
	s := NewSpinner(buf, "draining")

	s.Start()
	s.Stop()

	if !strings.Contains(buf.String(), "draining") {
		t.Errorf("spinner never rendered its message: %q", buf.String())
	}
}

func TestSpinner_Success(t *testing.T) {
	buf := &syncBuffer{}
	s := NewSpinner(buf, "draining")
	s.Start()
	s.Success("all operations stopped")

	if !strings.Contains(buf.String(), "✓ all operations stopped") {
		t.Errorf("missing success line: %q", buf.String())
	}
}

func TestSpinner_Fail(t *testing.T) {
	buf := &syncBuffer{}
	s := NewSpinner(buf, "draining")
	s.Start()
	s.Fail("drain timed out")

	if !strings.Contains(buf.String(), "✗ drain timed out") {
		t.Errorf("missing failure line: %q", buf.String())
	}
}

func TestSpinner_StopIdempotent(t *testing.T) {
	buf := &syncBuffer{}
	s := NewSpinner(buf, "draining")
	s.Start()

	s.Success("done")
	s.Stop()
	s.Fail("too late")

	out := buf.String()
	if strings.Contains(out, "too late") {
		t.Errorf("second stop wrote a final line: %q", out)
	}
}

func TestSpinner_FinalLineIsLast(t *testing.T) {
	buf := &syncBuffer{}
	s := NewSpinner(buf, "draining")
	s.Start()
	s.Success("done")

	if out := buf.String(); !strings.HasSuffix(out, "✓ done\n") {
		t.Errorf("animation frame written after the final line: %q", out)
	}
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	buf := &syncBuffer{}
	s := NewSpinner(buf, "draining")

	s.Fail("nothing ran")
	if !strings.Contains(buf.String(), "✗ nothing ran") {
		t.Errorf("missing failure line: %q", buf.String())
	}
}
