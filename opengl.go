package main

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/go-gl/gl/all-core/gl"
)

func glCheckErr() {
	if e := gl.GetError(); e != 0 {
		panic(fmt.Errorf("gl error: %x", e))
	}
}

func compileShader(typ uint32, src string) (uint32, error) {
	src = cSource(src)
	s := gl.CreateShader(typ)
	cstr, free := gl.Strs(src)
	gl.ShaderSource(s, 1, cstr, nil)
	free()
	gl.CompileShader(s)
	var st int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &st)
	if st == gl.FALSE {
		var sz int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &sz)
		text := make([]byte, sz+1)
		gl.GetShaderInfoLog(s, sz, nil, &text[0])
		gl.DeleteShader(s)
		return 0, &ShaderError{Stage: stageName(typ), Log: infoLog(text)}
	}
	return s, nil
}

func linkProgram(shaders ...uint32) (uint32, error) {
	prog := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(prog, s)
	}
	gl.LinkProgram(prog)
	for _, s := range shaders {
		gl.DetachShader(prog, s)
	}

	var st int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &st)
	if st == gl.FALSE {
		var sz int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &sz)
		text := make([]byte, sz+1)
		gl.GetProgramInfoLog(prog, sz, nil, &text[0])
		gl.DeleteProgram(prog)
		return 0, &ShaderError{Stage: "program link", Log: infoLog(text)}
	}
	return prog, nil
}

// activeUniforms maps the names of the active uniforms of prog to their locations.
func activeUniforms(prog uint32) map[string]int32 {
	var n, maxLen int32
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORMS, &n)
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)
	out := make(map[string]int32, n)
	if n == 0 {
		return out
	}
	buf := make([]byte, maxLen+1)
	for i := int32(0); i < n; i++ {
		var (
			length int32
			size   int32
			typ    uint32
		)
		gl.GetActiveUniform(prog, uint32(i), int32(len(buf)), &length, &size, &typ, &buf[0])
		name := string(buf[:length])
		out[name] = gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
	}
	return out
}

// uniforms holds the locations set by the render loop; missing ones are -1.
type uniforms struct {
	width  int32
	height int32
	aspect int32
	time   int32
	// zero is cleared once after linking.
	zero int32
}

// resolveUniforms picks uniform locations by name. Effects that declare none
// of width, height or aspect use the positional layout: aspect at location 0
// and a float at location 1 initialised to 0.
func resolveUniforms(active map[string]int32) uniforms {
	loc := func(name string) int32 {
		if l, ok := active[name]; ok {
			return l
		}
		return -1
	}
	u := uniforms{
		width:  loc("width"),
		height: loc("height"),
		aspect: loc("aspect"),
		time:   loc("time"),
		zero:   -1,
	}
	if u.width >= 0 || u.height >= 0 || u.aspect >= 0 {
		return u
	}
	for _, l := range active {
		switch l {
		case 0:
			if u.time != 0 {
				u.aspect = 0
			}
		case 1:
			if u.time != 1 {
				u.zero = 1
			}
		}
	}
	return u
}

// program is a linked effect together with its fragment shader and the
// locations of the uniforms set every frame.
type program struct {
	id   uint32
	frag uint32
	uniforms
}

func newProgram(vert, geom uint32, fragSrc string) (*program, error) {
	frag, err := compileShader(gl.FRAGMENT_SHADER, fragSrc)
	if err != nil {
		return nil, err
	}
	id, err := linkProgram(vert, geom, frag)
	if err != nil {
		gl.DeleteShader(frag)
		return nil, err
	}
	p := &program{
		id:       id,
		frag:     frag,
		uniforms: resolveUniforms(activeUniforms(id)),
	}
	if p.zero >= 0 {
		gl.ProgramUniform1f(id, p.zero, 0)
	}
	return p, nil
}

func (p *program) delete() {
	gl.DeleteProgram(p.id)
	gl.DeleteShader(p.frag)
}

func (p *program) setUniforms(width, height int, t float32) {
	gl.Uniform1f(p.width, float32(width))
	gl.Uniform1f(p.height, float32(height))
	if height != 0 {
		gl.Uniform1f(p.aspect, float32(width)/float32(height))
	}
	gl.Uniform1f(p.time, t)
}

func glDebugMsg(source uint32, gltype uint32, id uint32, severity uint32, length int32, message string, userParam unsafe.Pointer) {
	switch severity {
	case gl.DEBUG_SEVERITY_NOTIFICATION:
		slog.Debug(message)
	default:
		slog.Info(message, "severity", fmt.Sprintf("%x", severity), "type", fmt.Sprintf("%x", gltype))
	}
}
