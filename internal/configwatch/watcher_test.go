package configwatch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	if err := os.WriteFile(path, []byte("[DEFAULT]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var calls atomic.Int32
	changed := make(chan string, 4)
	w, err := New(path, 250*time.Millisecond, func(p string) {
		calls.Add(1)
		changed <- p
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if !w.IsRunning() {
		t.Fatal("expected watcher to be running")
	}

	for i := 0; i < 3; i++ {
		content := []byte("[DEFAULT]\nconnection = sqlite:///" + string(rune('a'+i)) + ".db\n")
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatalf("rewrite config: %v", err)
		}
	}

	select {
	case got := <-changed:
		if got != w.Path() {
			t.Errorf("callback path = %q, want %q", got, w.Path())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}

	time.Sleep(600 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("callback ran %d times, want 1", n)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")

	var calls atomic.Int32
	w, err := New(path, 50*time.Millisecond, func(string) { calls.Add(1) })
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.ini"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write other file: %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("callback ran %d times for an unrelated file", n)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "config.ini"), 0, func(string) {})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}

	w.Stop()
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	w.Stop()
	w.Stop()

	if w.IsRunning() {
		t.Error("expected watcher to be stopped")
	}
}

func TestWatcher_StartMissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing", "config.ini"), 0, func(string) {})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err == nil {
		t.Error("expected error watching a missing directory")
	}
}
