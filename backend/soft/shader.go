//go:build linux

package soft

import (
	"slices"
	"strings"

	"github.com/gogpu/dmabridge/backend"
)

type shader struct {
	typ      backend.Enum
	source   string
	compiled bool
	log      string

	// inputs are vertex attributes in declaration order; uniforms are
	// uniform names in declaration order.
	inputs   []string
	uniforms []string
}

type program struct {
	shaders  []backend.Shader
	linked   bool
	log      string
	attribs  map[string]int32
	uniforms map[string]int32
	values   map[int32]int32
}

// declarations returns the names declared with any of the given storage
// qualifiers, in source order.
func declarations(src string, qualifiers ...string) []string {
	var names []string
	for _, stmt := range strings.Split(stripLines(src), ";") {
		if i := strings.LastIndexAny(stmt, "{}"); i >= 0 {
			stmt = stmt[i+1:]
		}
		if i := strings.Index(stmt, "layout"); i >= 0 {
			if j := strings.IndexByte(stmt[i:], ')'); j >= 0 {
				stmt = stmt[:i] + stmt[i+j+1:]
			}
		}
		fields := strings.Fields(stmt)
		if len(fields) < 3 || !slices.Contains(qualifiers, fields[0]) {
			continue
		}
		name := fields[len(fields)-1]
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = name[:i]
		}
		names = append(names, name)
	}
	return names
}

// stripLines removes preprocessor directives and line comments.
func stripLines(src string) string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			lines[i] = ""
			continue
		}
		if j := strings.Index(line, "//"); j >= 0 {
			lines[i] = line[:j]
		}
	}
	return strings.Join(lines, "\n")
}

func (c *context) lookupShader(s backend.Shader) (*shader, bool) {
	sh, ok := c.objects.shaders[s]
	if !ok {
		c.fail(backend.GL_INVALID_VALUE)
	}
	return sh, ok
}

func (c *context) lookupProgram(p backend.Program) (*program, bool) {
	pr, ok := c.objects.programs[p]
	if !ok {
		c.fail(backend.GL_INVALID_VALUE)
	}
	return pr, ok
}

// CreateShader implements backend.GL.
func (d *Driver) CreateShader(typ backend.Enum) backend.Shader {
	c := d.ctx()
	if c == nil {
		return 0
	}
	if typ != backend.GL_VERTEX_SHADER && typ != backend.GL_FRAGMENT_SHADER {
		c.fail(backend.GL_INVALID_ENUM)
		return 0
	}
	s := backend.Shader(c.objects.name())
	c.objects.shaders[s] = &shader{typ: typ}
	return s
}

// ShaderSource implements backend.GL.
func (d *Driver) ShaderSource(s backend.Shader, src string) {
	c := d.ctx()
	if c == nil {
		return
	}
	if sh, ok := c.lookupShader(s); ok {
		sh.source = src
	}
}

// CompileShader implements backend.GL. A shader compiles when it defines
// main; declarations are collected for linking.
func (d *Driver) CompileShader(s backend.Shader) {
	c := d.ctx()
	if c == nil {
		return
	}
	sh, ok := c.lookupShader(s)
	if !ok {
		return
	}
	sh.compiled = strings.Contains(sh.source, "void main")
	if !sh.compiled {
		sh.log = "0:1(1): error: no function with name 'main'"
		return
	}
	sh.log = ""
	if sh.typ == backend.GL_VERTEX_SHADER {
		sh.inputs = declarations(sh.source, "attribute", "in")
	}
	sh.uniforms = declarations(sh.source, "uniform")
}

// GetShaderi implements backend.GL.
func (d *Driver) GetShaderi(s backend.Shader, pname backend.Enum) int32 {
	c := d.ctx()
	if c == nil {
		return 0
	}
	sh, ok := c.lookupShader(s)
	if !ok {
		return 0
	}
	switch pname {
	case backend.GL_COMPILE_STATUS:
		if sh.compiled {
			return int32(backend.GL_TRUE)
		}
		return int32(backend.GL_FALSE)
	case backend.GL_SHADER_TYPE:
		return int32(sh.typ) //nolint:gosec // G115: shader types fit in GLint
	case backend.GL_INFO_LOG_LENGTH:
		if sh.log == "" {
			return 0
		}
		return int32(len(sh.log) + 1) //nolint:gosec // G115: logs are short
	}
	c.fail(backend.GL_INVALID_ENUM)
	return 0
}

// GetShaderInfoLog implements backend.GL.
func (d *Driver) GetShaderInfoLog(s backend.Shader) string {
	c := d.ctx()
	if c == nil {
		return ""
	}
	if sh, ok := c.lookupShader(s); ok {
		return sh.log
	}
	return ""
}

// DeleteShader implements backend.GL.
func (d *Driver) DeleteShader(s backend.Shader) {
	c := d.ctx()
	if c == nil || s == 0 {
		return
	}
	delete(c.objects.shaders, s)
}

// CreateProgram implements backend.GL.
func (d *Driver) CreateProgram() backend.Program {
	c := d.ctx()
	if c == nil {
		return 0
	}
	p := backend.Program(c.objects.name())
	c.objects.programs[p] = &program{}
	return p
}

// AttachShader implements backend.GL.
func (d *Driver) AttachShader(p backend.Program, s backend.Shader) {
	c := d.ctx()
	if c == nil {
		return
	}
	pr, ok := c.lookupProgram(p)
	if !ok {
		return
	}
	if _, ok := c.lookupShader(s); !ok {
		return
	}
	for _, have := range pr.shaders {
		if have == s {
			c.fail(backend.GL_INVALID_OPERATION)
			return
		}
	}
	pr.shaders = append(pr.shaders, s)
}

// LinkProgram implements backend.GL. Attribute locations are assigned in
// declaration order.
func (d *Driver) LinkProgram(p backend.Program) {
	c := d.ctx()
	if c == nil {
		return
	}
	pr, ok := c.lookupProgram(p)
	if !ok {
		return
	}
	pr.linked = false
	pr.attribs = make(map[string]int32)
	pr.uniforms = make(map[string]int32)
	pr.values = make(map[int32]int32)
	var vs, fs bool
	for _, s := range pr.shaders {
		sh, ok := c.objects.shaders[s]
		if !ok || !sh.compiled {
			pr.log = "error: linking with uncompiled shader"
			return
		}
		switch sh.typ {
		case backend.GL_VERTEX_SHADER:
			vs = true
			for _, name := range sh.inputs {
				if _, dup := pr.attribs[name]; !dup {
					pr.attribs[name] = int32(len(pr.attribs)) //nolint:gosec // G115: bounded by source size
				}
			}
		case backend.GL_FRAGMENT_SHADER:
			fs = true
		}
		for _, name := range sh.uniforms {
			if _, dup := pr.uniforms[name]; !dup {
				pr.uniforms[name] = int32(len(pr.uniforms)) //nolint:gosec // G115: bounded by source size
			}
		}
	}
	if !vs || !fs {
		pr.log = "error: program lacks a vertex or fragment shader"
		return
	}
	pr.linked = true
	pr.log = ""
}

// GetProgrami implements backend.GL.
func (d *Driver) GetProgrami(p backend.Program, pname backend.Enum) int32 {
	c := d.ctx()
	if c == nil {
		return 0
	}
	pr, ok := c.lookupProgram(p)
	if !ok {
		return 0
	}
	switch pname {
	case backend.GL_LINK_STATUS:
		if pr.linked {
			return int32(backend.GL_TRUE)
		}
		return int32(backend.GL_FALSE)
	case backend.GL_INFO_LOG_LENGTH:
		if pr.log == "" {
			return 0
		}
		return int32(len(pr.log) + 1) //nolint:gosec // G115: logs are short
	}
	c.fail(backend.GL_INVALID_ENUM)
	return 0
}

// GetProgramInfoLog implements backend.GL.
func (d *Driver) GetProgramInfoLog(p backend.Program) string {
	c := d.ctx()
	if c == nil {
		return ""
	}
	if pr, ok := c.lookupProgram(p); ok {
		return pr.log
	}
	return ""
}

// UseProgram implements backend.GL.
func (d *Driver) UseProgram(p backend.Program) {
	c := d.ctx()
	if c == nil {
		return
	}
	if p != 0 {
		pr, ok := c.lookupProgram(p)
		if !ok {
			return
		}
		if !pr.linked {
			c.fail(backend.GL_INVALID_OPERATION)
			return
		}
	}
	c.program = p
}

// DeleteProgram implements backend.GL.
func (d *Driver) DeleteProgram(p backend.Program) {
	c := d.ctx()
	if c == nil || p == 0 {
		return
	}
	delete(c.objects.programs, p)
	if c.program == p {
		c.program = 0
	}
}

// GetAttribLocation implements backend.GL.
func (d *Driver) GetAttribLocation(p backend.Program, name string) int32 {
	c := d.ctx()
	if c == nil {
		return -1
	}
	pr, ok := c.lookupProgram(p)
	if !ok {
		return -1
	}
	if !pr.linked {
		c.fail(backend.GL_INVALID_OPERATION)
		return -1
	}
	if loc, ok := pr.attribs[name]; ok {
		return loc
	}
	return -1
}

// GetUniformLocation implements backend.GL.
func (d *Driver) GetUniformLocation(p backend.Program, name string) int32 {
	c := d.ctx()
	if c == nil {
		return -1
	}
	pr, ok := c.lookupProgram(p)
	if !ok {
		return -1
	}
	if !pr.linked {
		c.fail(backend.GL_INVALID_OPERATION)
		return -1
	}
	if loc, ok := pr.uniforms[name]; ok {
		return loc
	}
	return -1
}

// Uniform1i implements backend.GL.
func (d *Driver) Uniform1i(location, v int32) {
	c := d.ctx()
	if c == nil || location == -1 {
		return
	}
	pr, ok := c.objects.programs[c.program]
	if !ok {
		c.fail(backend.GL_INVALID_OPERATION)
		return
	}
	if location < 0 || int(location) >= len(pr.uniforms) {
		c.fail(backend.GL_INVALID_OPERATION)
		return
	}
	pr.values[location] = v
}
