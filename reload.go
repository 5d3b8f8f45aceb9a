package main

import (
	"image"
	"log/slog"
	"sync"
)

// reloadReq asks the render loop to replace the fragment shader.
// If src is empty, the shader file is read again.
type reloadReq struct {
	reason string
	src    string
	// done receives the result if set; it must be buffered.
	done chan<- error
}

type rebuilder interface {
	rebuild(fragSrc string) error
}

// reloader applies reload requests on the render thread.
type reloader struct {
	path  string
	build rebuilder
	stats *frameStats
}

func (r *reloader) handle(req reloadReq) error {
	err := r.apply(req)
	r.stats.reloaded(err)
	if err != nil {
		slog.Error("shader reload failed", "reason", req.reason, "err", err)
	} else {
		slog.Info("shader reloaded", "reason", req.reason, "path", r.path)
	}
	if req.done != nil {
		req.done <- err
	}
	return err
}

func (r *reloader) apply(req reloadReq) error {
	src := req.src
	if src == "" {
		var err error
		src, err = readShader(r.path)
		if err != nil {
			return err
		}
	}
	return r.build.rebuild(src)
}

type Status struct {
	Shader    string
	Width     int
	Height    int
	Frames    uint64
	Reloads   int
	Failures  int
	LastError string
}

// frameStats is written by the render loop and read by the control API.
type frameStats struct {
	mu       sync.Mutex
	shader   string
	size     image.Point
	frames   uint64
	reloads  int
	failures int
	lastErr  string
}

func (s *frameStats) frame(size image.Point) {
	s.mu.Lock()
	s.size = size
	s.frames++
	s.mu.Unlock()
}

func (s *frameStats) reloaded(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failures++
		s.lastErr = err.Error()
		return
	}
	s.reloads++
	s.lastErr = ""
}

func (s *frameStats) snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Shader:    s.shader,
		Width:     s.size.X,
		Height:    s.size.Y,
		Frames:    s.frames,
		Reloads:   s.reloads,
		Failures:  s.failures,
		LastError: s.lastErr,
	}
}
