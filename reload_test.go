package main

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBuild records the sources it is asked to link and fails on "bad".
type fakeBuild struct {
	srcs []string
}

func (b *fakeBuild) rebuild(src string) error {
	if src == "bad" {
		return &ShaderError{Stage: "fragment shader", Log: "0:1: syntax error"}
	}
	b.srcs = append(b.srcs, src)
	return nil
}

func TestReloaderFromFile(t *testing.T) {
	path := writeFile(t, "fx.frag", "void main(){}")
	b := &fakeBuild{}
	var stats frameStats
	r := &reloader{path: path, build: b, stats: &stats}

	done := make(chan error, 1)
	require.NoError(t, r.handle(reloadReq{reason: "key", done: done}))
	assert.NoError(t, <-done)
	assert.Equal(t, []string{"void main(){}"}, b.srcs)
	assert.Equal(t, 1, stats.snapshot().Reloads)
}

func TestReloaderSource(t *testing.T) {
	b := &fakeBuild{}
	var stats frameStats
	r := &reloader{build: b, stats: &stats}

	require.NoError(t, r.handle(reloadReq{reason: "upload", src: "void main(){ }"}))
	assert.Equal(t, []string{"void main(){ }"}, b.srcs)
}

func TestReloaderFailure(t *testing.T) {
	b := &fakeBuild{}
	var stats frameStats
	r := &reloader{build: b, stats: &stats}

	err := r.handle(reloadReq{reason: "key"})
	assert.ErrorIs(t, err, errNoShaderFile)

	done := make(chan error, 1)
	err = r.handle(reloadReq{reason: "upload", src: "bad", done: done})
	var serr *ShaderError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, err, <-done)

	st := stats.snapshot()
	assert.Equal(t, 0, st.Reloads)
	assert.Equal(t, 2, st.Failures)
	assert.Contains(t, st.LastError, "syntax error")
	assert.Empty(t, b.srcs)

	require.NoError(t, r.handle(reloadReq{src: "ok"}))
	assert.Empty(t, stats.snapshot().LastError)
}

func TestFrameStats(t *testing.T) {
	stats := frameStats{shader: "fx.frag"}
	stats.frame(image.Pt(1920, 1080))
	stats.frame(image.Pt(1280, 720))
	st := stats.snapshot()
	assert.Equal(t, Status{Shader: "fx.frag", Width: 1280, Height: 720, Frames: 2}, st)
}
