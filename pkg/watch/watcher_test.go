package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/panbanda/scss-unused/pkg/config"
)

func newTestWatcher(t *testing.T, root string, debounce time.Duration) *Watcher {
	t.Helper()
	w, err := NewWatcher([]string{root}, config.DefaultConfig(), debounce)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { w.Stop() })
	return w
}

func TestNewWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		debounce time.Duration
		want     time.Duration
	}{
		{"default debounce", 0, DefaultDebounce},
		{"custom debounce", time.Second, time.Second},
		{"negative debounce defaults", -time.Second, DefaultDebounce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWatcher(t, tmpDir, tt.debounce)

			if w.fsWatcher == nil {
				t.Error("fsWatcher should not be nil")
			}
			if w.pending == nil {
				t.Error("pending map should be initialized")
			}
			if w.debounce != tt.want {
				t.Errorf("debounce = %v, want %v", w.debounce, tt.want)
			}
		})
	}
}

func TestNewWatcher_NilConfig(t *testing.T) {
	w, err := NewWatcher(nil, nil, 0)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if w.config == nil {
		t.Error("config should default when nil")
	}
}

func TestWatcher_Stop(t *testing.T) {
	w, err := NewWatcher([]string{t.TempDir()}, nil, time.Second)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestWatcher_addDir(t *testing.T) {
	tmpDir := t.TempDir()
	for _, dir := range []string{"src/components", "node_modules/pkg"} {
		if err := os.MkdirAll(filepath.Join(tmpDir, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}

	w := newTestWatcher(t, tmpDir, time.Second)
	if err := w.addDir(tmpDir); err != nil {
		t.Fatalf("addDir() error = %v", err)
	}

	watched := make(map[string]bool)
	for _, f := range w.WatchedFiles() {
		watched[f] = true
	}
	for _, dir := range []string{tmpDir, filepath.Join(tmpDir, "src"), filepath.Join(tmpDir, "src", "components")} {
		if !watched[dir] {
			t.Errorf("WatchedFiles() should contain %s", dir)
		}
	}
	if watched[filepath.Join(tmpDir, "node_modules")] {
		t.Error("excluded directories should not be watched")
	}
}

func TestWatcher_handleEvent(t *testing.T) {
	tmpDir := t.TempDir()
	w := newTestWatcher(t, tmpDir, time.Second)

	tests := []struct {
		name        string
		event       fsnotify.Event
		wantPending bool
	}{
		{"write event for scss file", fsnotify.Event{Name: filepath.Join(tmpDir, "a.scss"), Op: fsnotify.Write}, true},
		{"create event for scss file", fsnotify.Event{Name: filepath.Join(tmpDir, "new.scss"), Op: fsnotify.Create}, true},
		{"remove event for scss file", fsnotify.Event{Name: filepath.Join(tmpDir, "gone.scss"), Op: fsnotify.Remove}, true},
		{"chmod event ignored", fsnotify.Event{Name: filepath.Join(tmpDir, "mode.scss"), Op: fsnotify.Chmod}, false},
		{"unsupported file type ignored", fsnotify.Event{Name: filepath.Join(tmpDir, "readme.md"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w.handleEvent(tt.event)

			w.mu.Lock()
			_, pending := w.pending[tt.event.Name]
			w.mu.Unlock()

			if pending != tt.wantPending {
				t.Errorf("pending = %v, want %v", pending, tt.wantPending)
			}
		})
	}
}

func TestWatcher_takeReady(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), time.Second)
	now := time.Now()

	w.pending["b.scss"] = now.Add(-2 * time.Second)
	w.pending["a.scss"] = now.Add(-2 * time.Second)
	w.pending["fresh.scss"] = now

	ready := w.takeReady(now)
	if len(ready) != 2 || ready[0] != "a.scss" || ready[1] != "b.scss" {
		t.Errorf("takeReady() = %v, want [a.scss b.scss]", ready)
	}
	if _, ok := w.pending["fresh.scss"]; !ok {
		t.Error("files inside the debounce window should stay pending")
	}
	if len(w.takeReady(now)) != 0 {
		t.Error("ready files should be removed from pending")
	}
}

func TestWatcher_StartDeliversChanges(t *testing.T) {
	tmpDir := t.TempDir()
	w := newTestWatcher(t, tmpDir, 50*time.Millisecond)

	var mu sync.Mutex
	var batches [][]string
	done := make(chan struct{}, 1)
	w.SetCallback(func(changed []string) {
		mu.Lock()
		batches = append(batches, changed)
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	// Wait for the root to be registered before writing
	deadline := time.Now().Add(2 * time.Second)
	for len(w.WatchedFiles()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	path := filepath.Join(tmpDir, "style.scss")
	if err := os.WriteFile(path, []byte("$a: 1;"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("callback was not invoked")
	}

	mu.Lock()
	if len(batches[0]) != 1 || batches[0][0] != path {
		t.Errorf("first batch = %v, want [%s]", batches[0], path)
	}
	mu.Unlock()

	cancel()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("Start() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}
