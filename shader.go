package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/gl/all-core/gl"
)

var errNoShaderFile = errors.New("no shader file configured")

// ShaderError carries the info log of a failed compile or link.
type ShaderError struct {
	Stage string
	Log   string
}

func (e *ShaderError) Error() string {
	if e.Log == "" {
		return e.Stage + " failed"
	}
	return e.Stage + " failed:\n" + e.Log
}

func stageName(typ uint32) string {
	switch typ {
	case gl.VERTEX_SHADER:
		return "vertex shader"
	case gl.GEOMETRY_SHADER:
		return "geometry shader"
	case gl.FRAGMENT_SHADER:
		return "fragment shader"
	}
	return fmt.Sprintf("shader %#x", typ)
}

// fragSource returns the fragment shader at path, or the embedded effect.
func fragSource(path string) (string, error) {
	if path == "" {
		return defaultFragShader, nil
	}
	return readShader(path)
}

func readShader(path string) (string, error) {
	if path == "" {
		return "", errNoShaderFile
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load shader %q: %w", path, err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return "", fmt.Errorf("load shader %q: empty file", path)
	}
	return string(b), nil
}

// cSource returns src terminated by a single NUL, as expected by gl.Strs.
func cSource(src string) string {
	src = strings.TrimRight(src, "\x00")
	return src + "\x00"
}

// infoLog trims the NUL padding and trailing newlines of a GL info log.
func infoLog(buf []byte) string {
	if i := strings.IndexByte(string(buf), 0); i >= 0 {
		buf = buf[:i]
	}
	return strings.TrimRight(string(buf), "\r\n")
}
