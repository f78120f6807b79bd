// Package shader compiles and links GLSL ES programs through a
// [backend.Driver].
//
// Every function expects a context of the driver to be current.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/dmabridge/backend"
)

var (
	// ErrCompile is returned when a shader fails to compile.
	ErrCompile = errors.New("shader: compile failed")

	// ErrLink is returned when a program fails to link.
	ErrLink = errors.New("shader: link failed")

	// ErrNoAttrib is returned for a vertex attribute the program does not
	// use.
	ErrNoAttrib = errors.New("shader: no such attribute")
)

// VertexHeader and FragmentHeader are prepended to sources without a
// #version line.
// GLSL ES 1.00 needs a default float precision in fragment shaders.
const (
	VertexHeader   = "#version 100\n"
	FragmentHeader = "#version 100\nprecision mediump float;\n"
)

// StageName returns a readable name for a shader type.
func StageName(typ backend.Enum) string {
	switch typ {
	case backend.GL_VERTEX_SHADER:
		return "vertex"
	case backend.GL_FRAGMENT_SHADER:
		return "fragment"
	default:
		return fmt.Sprintf("stage %#x", uint32(typ))
	}
}

// header returns the stage header unless src has its own #version line.
func header(typ backend.Enum, src string) string {
	if strings.HasPrefix(strings.TrimSpace(src), "#version") {
		return ""
	}
	switch typ {
	case backend.GL_VERTEX_SHADER:
		return VertexHeader
	case backend.GL_FRAGMENT_SHADER:
		return FragmentHeader
	}
	return ""
}

// Compile compiles src as a shader of the given type. A stage header is
// added when src does not start with a #version directive. On failure the
// shader is deleted and the info log is part of the error.
func Compile(drv backend.Driver, typ backend.Enum, src string) (backend.Shader, error) {
	s := drv.CreateShader(typ)
	if s == 0 {
		return 0, fmt.Errorf("%w: %s: %s shader not created (%s)",
			ErrCompile, drv.Name(), StageName(typ), backend.GLErrorString(drv.GLError()))
	}
	drv.ShaderSource(s, header(typ, src)+src)
	drv.CompileShader(s)
	log := strings.TrimSpace(drv.GetShaderInfoLog(s))
	if drv.GetShaderi(s, backend.GL_COMPILE_STATUS) != int32(backend.GL_TRUE) {
		drv.DeleteShader(s)
		return 0, fmt.Errorf("%w: %s: %s: %s", ErrCompile, drv.Name(), StageName(typ), log)
	}
	if log != "" {
		slogger().Warn("shader: compile log", "driver", drv.Name(), "stage", StageName(typ), "log", log)
	}
	slogger().Debug("shader: compiled", "driver", drv.Name(), "stage", StageName(typ), "shader", s)
	return s, nil
}

// Program is a linked program on one driver.
type Program struct {
	drv backend.Driver
	id  backend.Program
}

// Link compiles the two stages and links them into a program. The shader
// objects are deleted once linked.
func Link(drv backend.Driver, vertexSrc, fragmentSrc string) (*Program, error) {
	vs, err := Compile(drv, backend.GL_VERTEX_SHADER, vertexSrc)
	if err != nil {
		return nil, err
	}
	defer drv.DeleteShader(vs)
	fs, err := Compile(drv, backend.GL_FRAGMENT_SHADER, fragmentSrc)
	if err != nil {
		return nil, err
	}
	defer drv.DeleteShader(fs)

	id := drv.CreateProgram()
	if id == 0 {
		return nil, fmt.Errorf("%w: %s: program not created", ErrLink, drv.Name())
	}
	drv.AttachShader(id, vs)
	drv.AttachShader(id, fs)
	drv.LinkProgram(id)
	if drv.GetProgrami(id, backend.GL_LINK_STATUS) != int32(backend.GL_TRUE) {
		log := strings.TrimSpace(drv.GetProgramInfoLog(id))
		drv.DeleteProgram(id)
		return nil, fmt.Errorf("%w: %s: %s", ErrLink, drv.Name(), log)
	}
	slogger().Debug("shader: linked", "driver", drv.Name(), "program", id)
	return &Program{drv: drv, id: id}, nil
}

// ID returns the GL program name, 0 after Delete.
func (p *Program) ID() backend.Program { return p.id }

// Use makes p the current program.
func (p *Program) Use() { p.drv.UseProgram(p.id) }

// Attrib returns the location of a vertex attribute.
func (p *Program) Attrib(name string) (uint32, error) {
	loc := p.drv.GetAttribLocation(p.id, name)
	if loc < 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoAttrib, name)
	}
	return uint32(loc), nil
}

// Uniform returns the location of a uniform, -1 when the program does not
// use it. Setting location -1 is a no-op in GL.
func (p *Program) Uniform(name string) int32 {
	return p.drv.GetUniformLocation(p.id, name)
}

// SetInt sets an integer or sampler uniform of the current program.
func (p *Program) SetInt(name string, v int32) {
	p.drv.Uniform1i(p.Uniform(name), v)
}

// Delete deletes the program. Further calls do nothing.
func (p *Program) Delete() {
	if p.id == 0 {
		return
	}
	p.drv.DeleteProgram(p.id)
	p.id = 0
}
