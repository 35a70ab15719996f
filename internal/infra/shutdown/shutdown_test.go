package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yndnr/feedback-go/pkg/feedback"
)

func waitDone(t *testing.T, h *Handler) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete within deadline")
	}
}

func TestWait_RunsHooksInReverseOrder(t *testing.T) {
	h := NewHandler(time.Second)

	var order []int
	h.OnShutdown(func(context.Context) error {
		order = append(order, 1)
		return nil
	})
	h.OnShutdown(func(context.Context) error {
		order = append(order, 2)
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()

	h.Trigger()
	if err := <-errCh; err != nil {
		t.Fatalf("Wait: %v", err)
	}
	waitDone(t, h)

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("hook order = %v, want [2 1]", order)
	}
}

func TestWait_ReturnsHookError(t *testing.T) {
	h := NewHandler(time.Second)
	hookErr := errors.New("close failed")
	h.OnShutdown(func(context.Context) error { return hookErr })
	h.OnShutdown(func(context.Context) error { return nil })

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()

	h.Trigger()
	if err := <-errCh; err != hookErr {
		t.Errorf("Wait = %v, want %v", err, hookErr)
	}
}

func TestWait_HookTimeoutContext(t *testing.T) {
	h := NewHandler(50 * time.Millisecond)

	var sawDeadline bool
	h.OnShutdown(func(ctx context.Context) error {
		_, sawDeadline = ctx.Deadline()
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()

	h.Trigger()
	if err := <-errCh; err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !sawDeadline {
		t.Error("hook context carries no deadline")
	}
}

func TestNotifyFeedback_CanceledOnTrigger(t *testing.T) {
	h := NewHandler(time.Second)
	fb := feedback.New()
	h.NotifyFeedback(fb)

	h.Trigger()

	select {
	case <-fb.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("feedback not canceled after Trigger")
	}
}

func TestNotifyFeedback_MultipleFeedbacks(t *testing.T) {
	h := NewHandler(time.Second)
	fbs := []*feedback.Feedback{feedback.New(), feedback.New(), feedback.New()}
	for _, fb := range fbs {
		h.NotifyFeedback(fb)
	}

	h.Trigger()

	for i, fb := range fbs {
		select {
		case <-fb.Done():
		case <-time.After(2 * time.Second):
			t.Fatalf("feedback %d not canceled after Trigger", i)
		}
	}
}

func TestTrigger_Idempotent(t *testing.T) {
	h := NewHandler(time.Second)
	h.Trigger()
	h.Trigger() // must not panic

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()
	if err := <-errCh; err != nil {
		t.Fatalf("Wait after double Trigger: %v", err)
	}
}

func TestDone_ClosesAfterWait(t *testing.T) {
	h := NewHandler(time.Second)

	select {
	case <-h.Done():
		t.Fatal("Done() closed before shutdown")
	default:
	}

	go func() { _ = h.Wait() }()
	h.Trigger()
	waitDone(t, h)
}
