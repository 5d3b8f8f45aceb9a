package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/twitchtv/twirp"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const maxShaderSize = 1 << 20

// server is the remote control API. Requests are handed over to the render
// loop, which owns the GL context.
type server struct {
	closed  <-chan struct{}
	reloads chan<- reloadReq
	stats   *frameStats
}

func (s *server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /reload", s.serveReload)
	mux.HandleFunc("POST /shader", s.serveShader)
	mux.HandleFunc("GET /status", s.serveStatus)
	return mux
}

func (s *server) send(ctx context.Context, req reloadReq) error {
	done := make(chan error, 1)
	req.done = done
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.closed:
		return errors.New("server is closed")
	case s.reloads <- req:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.closed:
		return errors.New("server is closed")
	case err := <-done:
		return err
	}
}

func (s *server) serveReload(w http.ResponseWriter, r *http.Request) {
	err := s.send(r.Context(), reloadReq{reason: "api"})
	s.reply(w, err)
}

func (s *server) serveShader(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxShaderSize+1))
	if err != nil {
		writeError(w, twirp.NewError(twirp.Malformed, err.Error()))
		return
	}
	if len(body) > maxShaderSize {
		writeError(w, twirp.InvalidArgumentError("body", "shader source is too large"))
		return
	} else if len(body) == 0 {
		writeError(w, twirp.RequiredArgumentError("body"))
		return
	}
	err = s.send(r.Context(), reloadReq{reason: "upload", src: string(body)})
	s.reply(w, err)
}

func (s *server) serveStatus(w http.ResponseWriter, r *http.Request) {
	st := s.stats.snapshot()
	msg, err := structpb.NewStruct(map[string]any{
		"shader":     st.Shader,
		"width":      st.Width,
		"height":     st.Height,
		"frames":     st.Frames,
		"reloads":    st.Reloads,
		"failures":   st.Failures,
		"last_error": st.LastError,
	})
	if err != nil {
		writeError(w, twirp.InternalErrorWith(err))
		return
	}
	writeProto(w, msg)
}

func (s *server) reply(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, toTwirpError(err))
		return
	}
	msg, _ := structpb.NewStruct(map[string]any{"ok": true})
	writeProto(w, msg)
}

func toTwirpError(err error) twirp.Error {
	var serr *ShaderError
	switch {
	case errors.As(err, &serr):
		return twirp.NewError(twirp.InvalidArgument, serr.Stage+" failed").WithMeta("log", serr.Log)
	case errors.Is(err, errNoShaderFile):
		return twirp.NewError(twirp.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return twirp.NewError(twirp.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return twirp.NewError(twirp.DeadlineExceeded, err.Error())
	}
	return twirp.InternalErrorWith(err)
}

func writeError(w http.ResponseWriter, err twirp.Error) {
	if werr := twirp.WriteError(w, err); werr != nil {
		slog.Error("failed to write api error", "err", werr)
	}
}

func writeProto(w http.ResponseWriter, msg *structpb.Struct) {
	data, err := protojson.Marshal(msg)
	if err != nil {
		writeError(w, twirp.InternalErrorWith(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
