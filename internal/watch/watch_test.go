package watch

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
	d := newDebouncer(50 * time.Millisecond)

	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.trigger(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 callback invocation, got %d", n)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)

	var called atomic.Bool
	d.trigger(func() { called.Store(true) })
	d.cancel()

	time.Sleep(100 * time.Millisecond)
	if called.Load() {
		t.Error("callback should not run after cancel")
	}
}

func TestFile_DetectsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.csv")
	if err := os.WriteFile(path, []byte("Client\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- File(ctx, path, Options{
			Debounce: 20 * time.Millisecond,
			OnChange: func() { changes.Add(1) },
		})
	}()

	// The watch is registered asynchronously; keep writing until it is seen.
	deadline := time.Now().Add(3 * time.Second)
	for changes.Load() == 0 && time.Now().Before(deadline) {
		if err := os.WriteFile(path, []byte("Client\nAlice\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	if changes.Load() == 0 {
		t.Fatal("no change detected")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("File returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("File did not return after cancel")
	}
}

func TestFile_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	go func() {
		_ = File(ctx, path, Options{
			Debounce: 10 * time.Millisecond,
			OnChange: func() { changes.Add(1) },
		})
	}()

	for i := 0; i < 10; i++ {
		if err := os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	if n := changes.Load(); n != 0 {
		t.Errorf("sibling writes triggered %d refreshes", n)
	}
}

func TestFile_ReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.csv")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	removed := make(chan struct{}, 1)
	go func() {
		_ = File(ctx, path, Options{
			OnError: func(err error) {
				if errors.Is(err, ErrFileRemoved) {
					select {
					case removed <- struct{}{}:
					default:
					}
				}
			},
		})
	}()

	deadline := time.After(3 * time.Second)
	for {
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Remove(path); err != nil {
			t.Fatal(err)
		}
		select {
		case <-removed:
			return
		case <-deadline:
			t.Fatal("removal not reported")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestFile_MissingDirectory(t *testing.T) {
	err := File(context.Background(), filepath.Join(t.TempDir(), "nope", "export.csv"), Options{})
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
