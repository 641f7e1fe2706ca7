package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 callback invocation, got %d", n)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	var called atomic.Bool
	d.Trigger(func() { called.Store(true) })
	d.Cancel()
	time.Sleep(100 * time.Millisecond)
	if called.Load() {
		t.Error("callback ran after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	if d := NewDebouncer(0); d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func waitForChange(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Changed():
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestWatcher_DetectsRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.json")
	if err := os.WriteFile(path, []byte(`{"name":"root"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(path, WithDebounceDuration(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Same shape as the file store's atomic save.
	tmp := filepath.Join(dir, ".tree-1.json")
	if err := os.WriteFile(tmp, []byte(`{"name":"renamed"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	waitForChange(t, w)
}

func TestWatcher_PollingFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	var changes atomic.Int32
	w, err := New(path,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithDebounceDuration(10*time.Millisecond),
		WithOnChange(func() { changes.Add(1) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if !w.IsPolling() {
		t.Fatal("expected polling mode")
	}

	if err := os.WriteFile(path, []byte("bigger content"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitForChange(t, w)
	if changes.Load() == 0 {
		t.Error("OnChange callback not invoked")
	}
}

func TestWatcher_StartTwice(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "tree.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if err := w.Start(context.Background()); err != ErrAlreadyStarted {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "tree.json"))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if w.IsStarted() {
		t.Error("watcher still started after Run returned")
	}
	select {
	case <-w.Done():
	default:
		t.Error("Run should close the watcher on cancel")
	}
}

func TestWatcher_StopRestartsButCloseIsFinal(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "tree.json"), WithForcePoll(true))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("restart after Stop: %v", err)
	}
	select {
	case <-w.Done():
		t.Fatal("Done closed before Close")
	default:
	}

	w.Close()
	w.Close()
	select {
	case <-w.Done():
	default:
		t.Fatal("Done not closed after Close")
	}
	if w.IsStarted() {
		t.Error("watcher still started after Close")
	}
	if err := w.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
