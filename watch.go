package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDelay = 100 * time.Millisecond

// shaderWatcher sends a reload request when the shader file changes.
// The parent directory is watched so editors that replace the file on save
// are still noticed.
type shaderWatcher struct {
	w     *fsnotify.Watcher
	path  string
	delay time.Duration
}

func newShaderWatcher(path string) (*shaderWatcher, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	return &shaderWatcher{w: w, path: path, delay: watchDelay}, nil
}

func (sw *shaderWatcher) Close() error {
	return sw.w.Close()
}

func (sw *shaderWatcher) matches(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != sw.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// run forwards changes to out until ctx is cancelled or the watcher is closed.
// Bursts of events within the delay are merged into one request.
func (sw *shaderWatcher) run(ctx context.Context, out chan<- reloadReq) {
	done := ctx.Done()
	timer := time.NewTimer(sw.delay)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-done:
			return
		case ev, ok := <-sw.w.Events:
			if !ok {
				return
			}
			if sw.matches(ev) {
				resetTimer(timer, sw.delay)
			}
		case err, ok := <-sw.w.Errors:
			if !ok {
				return
			}
			slog.Error("shader watcher", "err", err)
		case <-timer.C:
			select {
			case <-done:
				return
			case out <- reloadReq{reason: "watch"}:
			}
		}
	}
}

// resetTimer drains a fired but unread timer before resetting it.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
