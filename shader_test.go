package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/gl/all-core/gl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedShaders(t *testing.T) {
	assert.True(t, strings.HasPrefix(vertShader, "#version 450"))
	assert.Contains(t, vertShader, "void main(){}")
	assert.Contains(t, geomShader, "max_vertices = 4")
	assert.Contains(t, geomShader, "out vec2 C;")
	for _, name := range []string{"width", "height"} {
		assert.Contains(t, defaultFragShader, "uniform float "+name+";")
	}
}

func TestFragSource(t *testing.T) {
	src, err := fragSource("")
	require.NoError(t, err)
	assert.Equal(t, defaultFragShader, src)

	path := writeFile(t, "fx.frag", "#version 450\nvoid main(){}\n")
	src, err = fragSource(path)
	require.NoError(t, err)
	assert.Equal(t, "#version 450\nvoid main(){}\n", src)
}

func TestReadShaderErrors(t *testing.T) {
	_, err := readShader("")
	assert.ErrorIs(t, err, errNoShaderFile)

	_, err = readShader(filepath.Join(t.TempDir(), "missing.frag"))
	assert.Error(t, err)

	_, err = readShader(writeFile(t, "blank.frag", " \n\t\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty file")
}

func TestCSource(t *testing.T) {
	assert.Equal(t, "void main(){}\x00", cSource("void main(){}"))
	assert.Equal(t, "void main(){}\x00", cSource("void main(){}\x00"))
	assert.Equal(t, "void main(){}\x00", cSource("void main(){}\x00\x00"))
}

func TestInfoLog(t *testing.T) {
	assert.Equal(t, "0:1(1): error: syntax error", infoLog([]byte("0:1(1): error: syntax error\n\x00\x00")))
	assert.Equal(t, "", infoLog([]byte{0}))
}

func TestShaderError(t *testing.T) {
	err := &ShaderError{Stage: stageName(gl.FRAGMENT_SHADER), Log: "0:3: undeclared identifier"}
	assert.Equal(t, "fragment shader failed:\n0:3: undeclared identifier", err.Error())
	assert.Equal(t, "program link failed", (&ShaderError{Stage: "program link"}).Error())
	assert.Equal(t, "geometry shader", stageName(gl.GEOMETRY_SHADER))
	assert.Equal(t, "vertex shader", stageName(gl.VERTEX_SHADER))

	// startup errors are returned as is, so the stage is named once
	verr := error(&ShaderError{Stage: stageName(gl.VERTEX_SHADER), Log: "0:1: error"})
	assert.Equal(t, 1, strings.Count(verr.Error(), "vertex shader"))
}
