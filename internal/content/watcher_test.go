package content_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/baseballyama/blog/internal/content"
)

func TestWatcherEmitsEventsOnFileChange(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	w, err := content.NewWatcher(ctx, dir, discardLogger())
	if err != nil {
		cancel()
		t.Fatalf("NewWatcher failed: %v", err)
	}
	t.Cleanup(func() {
		_ = w.Close()
		cancel()
	})

	subCtx, subCancel := context.WithCancel(context.Background())
	t.Cleanup(subCancel)
	ch := w.Subscribe(subCtx)

	// Give the watcher time to attach.
	time.Sleep(200 * time.Millisecond)

	writePost(t, dir, "hello.md", "# Hello\n")

	timeout := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Path == "hello.md" {
				return
			}
		case <-timeout:
			t.Fatalf("did not receive event for hello.md")
		}
	}
}

func TestWatcherFollowsNewSubdirectories(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	w, err := content.NewWatcher(ctx, dir, discardLogger())
	if err != nil {
		cancel()
		t.Fatalf("NewWatcher failed: %v", err)
	}
	t.Cleanup(func() {
		_ = w.Close()
		cancel()
	})

	ch := w.Subscribe(context.Background())
	time.Sleep(200 * time.Millisecond)

	sub := filepath.Join(dir, "series")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Wait for the directory to be registered before writing into it.
	time.Sleep(200 * time.Millisecond)
	writePost(t, sub, "part1.md", "# Part 1\n")

	timeout := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Path == "series/part1.md" {
				return
			}
		case <-timeout:
			t.Fatalf("did not receive event from new subdirectory")
		}
	}
}

func TestWatcherCloseEndsSubscriptions(t *testing.T) {
	t.Parallel()

	w, err := content.NewWatcher(context.Background(), t.TempDir(), discardLogger())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	ch := w.Subscribe(context.Background())

	if err := w.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}

	select {
	case _, ok := <-ch:
		if ok {
			// Drain any event that raced with Close, then expect closure.
			for range ch {
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscription channel was not closed")
	}
}

func TestWatcherReportsRemovals(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writePost(t, dir, "gone.md", "# Gone\n")

	ctx, cancel := context.WithCancel(context.Background())
	w, err := content.NewWatcher(ctx, dir, discardLogger())
	if err != nil {
		cancel()
		t.Fatalf("NewWatcher failed: %v", err)
	}
	t.Cleanup(func() {
		_ = w.Close()
		cancel()
	})
	ch := w.Subscribe(ctx)
	time.Sleep(200 * time.Millisecond)

	if err := os.Remove(filepath.Join(dir, "gone.md")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Path == "gone.md" && evt.Removed() {
				return
			}
		case <-timeout:
			t.Fatalf("did not receive removal event for gone.md")
		}
	}
}
