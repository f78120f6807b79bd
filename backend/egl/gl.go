//go:build linux && cgo

package egl

/*
#include <stdint.h>
#include <stdlib.h>

static uint32_t dmb_u_v(uintptr_t fn) {
	return ((uint32_t (*)(void))fn)();
}

static uint32_t dmb_u_u(uintptr_t fn, uint32_t a) {
	return ((uint32_t (*)(uint32_t))fn)(a);
}

static void dmb_v_v(uintptr_t fn) {
	((void (*)(void))fn)();
}

static void dmb_v_u(uintptr_t fn, uint32_t a) {
	((void (*)(uint32_t))fn)(a);
}

static void dmb_v_uu(uintptr_t fn, uint32_t a, uint32_t b) {
	((void (*)(uint32_t, uint32_t))fn)(a, b);
}

static void dmb_v_uui(uintptr_t fn, uint32_t a, uint32_t b, int32_t c) {
	((void (*)(uint32_t, uint32_t, int32_t))fn)(a, b, c);
}

static void dmb_v_uii(uintptr_t fn, uint32_t a, int32_t b, int32_t c) {
	((void (*)(uint32_t, int32_t, int32_t))fn)(a, b, c);
}

static void dmb_v_ii(uintptr_t fn, int32_t a, int32_t b) {
	((void (*)(int32_t, int32_t))fn)(a, b);
}

static void dmb_v_iiii(uintptr_t fn, int32_t a, int32_t b, int32_t c, int32_t d) {
	((void (*)(int32_t, int32_t, int32_t, int32_t))fn)(a, b, c, d);
}

static void dmb_v_ffff(uintptr_t fn, float a, float b, float c, float d) {
	((void (*)(float, float, float, float))fn)(a, b, c, d);
}

static void dmb_gen(uintptr_t fn, int32_t n, uint32_t *names) {
	((void (*)(int32_t, uint32_t *))fn)(n, names);
}

static void dmb_delete(uintptr_t fn, int32_t n, const uint32_t *names) {
	((void (*)(int32_t, const uint32_t *))fn)(n, names);
}

static void dmb_v_up(uintptr_t fn, uint32_t a, uintptr_t p) {
	((void (*)(uint32_t, void *))fn)(a, (void *)p);
}

static void dmb_glTexImage2D(uintptr_t fn, uint32_t target, int32_t level, int32_t internal, int32_t w, int32_t h, uint32_t format, uint32_t type, const void *pixels) {
	((void (*)(uint32_t, int32_t, int32_t, int32_t, int32_t, int32_t, uint32_t, uint32_t, const void *))fn)(target, level, internal, w, h, 0, format, type, pixels);
}

static void dmb_glTexSubImage2D(uintptr_t fn, uint32_t target, int32_t level, int32_t x, int32_t y, int32_t w, int32_t h, uint32_t format, uint32_t type, const void *pixels) {
	((void (*)(uint32_t, int32_t, int32_t, int32_t, int32_t, int32_t, uint32_t, uint32_t, const void *))fn)(target, level, x, y, w, h, format, type, pixels);
}

static void dmb_glFramebufferTexture2D(uintptr_t fn, uint32_t target, uint32_t attachment, uint32_t textarget, uint32_t tex, int32_t level) {
	((void (*)(uint32_t, uint32_t, uint32_t, uint32_t, int32_t))fn)(target, attachment, textarget, tex, level);
}

static void dmb_glReadPixels(uintptr_t fn, int32_t x, int32_t y, int32_t w, int32_t h, uint32_t format, uint32_t type, void *dst) {
	((void (*)(int32_t, int32_t, int32_t, int32_t, uint32_t, uint32_t, void *))fn)(x, y, w, h, format, type, dst);
}

static void dmb_glBufferData(uintptr_t fn, uint32_t target, intptr_t size, const void *data, uint32_t usage) {
	((void (*)(uint32_t, intptr_t, const void *, uint32_t))fn)(target, size, data, usage);
}

static void dmb_glVertexAttribPointer(uintptr_t fn, uint32_t index, int32_t size, uint32_t type, uint8_t normalized, int32_t stride, uintptr_t offset) {
	((void (*)(uint32_t, int32_t, uint32_t, uint8_t, int32_t, const void *))fn)(index, size, type, normalized, stride, (const void *)offset);
}

static void dmb_glShaderSource(uintptr_t fn, uint32_t shader, const char *src) {
	((void (*)(uint32_t, int32_t, const char *const *, const int32_t *))fn)(shader, 1, &src, NULL);
}

static void dmb_getiv(uintptr_t fn, uint32_t obj, uint32_t pname, int32_t *v) {
	((void (*)(uint32_t, uint32_t, int32_t *))fn)(obj, pname, v);
}

static void dmb_infolog(uintptr_t fn, uint32_t obj, int32_t size, int32_t *length, char *buf) {
	((void (*)(uint32_t, int32_t, int32_t *, char *))fn)(obj, size, length, buf);
}

static int32_t dmb_location(uintptr_t fn, uint32_t program, const char *name) {
	return ((int32_t (*)(uint32_t, const char *))fn)(program, name);
}
*/
import "C"

import (
	"unsafe"

	"github.com/gogpu/dmabridge/backend"
)

func bytesPtr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

// GLError implements backend.GL.
func (d *Driver) GLError() backend.Enum {
	return backend.Enum(C.dmb_u_v(fn(d.glGetError)))
}

func (d *Driver) gen(f uintptr) uint32 {
	var name C.uint32_t
	C.dmb_gen(fn(f), 1, &name)
	return uint32(name)
}

func (d *Driver) del(f uintptr, name uint32) {
	n := C.uint32_t(name)
	C.dmb_delete(fn(f), 1, &n)
}

// GenTexture implements backend.GL.
func (d *Driver) GenTexture() backend.Texture { return backend.Texture(d.gen(d.glGenTextures)) }

// DeleteTexture implements backend.GL.
func (d *Driver) DeleteTexture(tex backend.Texture) { d.del(d.glDeleteTextures, uint32(tex)) }

// BindTexture implements backend.GL.
func (d *Driver) BindTexture(target backend.Enum, tex backend.Texture) {
	C.dmb_v_uu(fn(d.glBindTexture), C.uint32_t(target), C.uint32_t(tex))
}

// ActiveTexture implements backend.GL.
func (d *Driver) ActiveTexture(unit backend.Enum) {
	C.dmb_v_u(fn(d.glActiveTexture), C.uint32_t(unit))
}

// TexParameteri implements backend.GL.
func (d *Driver) TexParameteri(target, pname backend.Enum, param int32) {
	C.dmb_v_uui(fn(d.glTexParameteri), C.uint32_t(target), C.uint32_t(pname), C.int32_t(param))
}

// TexImage2D implements backend.GL.
func (d *Driver) TexImage2D(target backend.Enum, level, internalFormat, width, height int32, format, typ backend.Enum, pixels []byte) {
	C.dmb_glTexImage2D(fn(d.glTexImage2D), C.uint32_t(target), C.int32_t(level), C.int32_t(internalFormat),
		C.int32_t(width), C.int32_t(height), C.uint32_t(format), C.uint32_t(typ), bytesPtr(pixels))
}

// TexSubImage2D implements backend.GL.
func (d *Driver) TexSubImage2D(target backend.Enum, level, x, y, width, height int32, format, typ backend.Enum, pixels []byte) {
	C.dmb_glTexSubImage2D(fn(d.glTexSubImage2D), C.uint32_t(target), C.int32_t(level), C.int32_t(x), C.int32_t(y),
		C.int32_t(width), C.int32_t(height), C.uint32_t(format), C.uint32_t(typ), bytesPtr(pixels))
}

// EGLImageTargetTexture2DOES implements backend.GL.
func (d *Driver) EGLImageTargetTexture2DOES(target backend.Enum, img backend.Image) {
	C.dmb_v_up(fn(d.glEGLImageTargetTexture2DOES), C.uint32_t(target), C.uintptr_t(img))
}

// GenFramebuffer implements backend.GL.
func (d *Driver) GenFramebuffer() backend.Framebuffer {
	return backend.Framebuffer(d.gen(d.glGenFramebuffers))
}

// DeleteFramebuffer implements backend.GL.
func (d *Driver) DeleteFramebuffer(fb backend.Framebuffer) { d.del(d.glDeleteFramebuffers, uint32(fb)) }

// BindFramebuffer implements backend.GL.
func (d *Driver) BindFramebuffer(target backend.Enum, fb backend.Framebuffer) {
	C.dmb_v_uu(fn(d.glBindFramebuffer), C.uint32_t(target), C.uint32_t(fb))
}

// FramebufferTexture2D implements backend.GL.
func (d *Driver) FramebufferTexture2D(target, attachment, texTarget backend.Enum, tex backend.Texture, level int32) {
	C.dmb_glFramebufferTexture2D(fn(d.glFramebufferTexture2D), C.uint32_t(target), C.uint32_t(attachment),
		C.uint32_t(texTarget), C.uint32_t(tex), C.int32_t(level))
}

// CheckFramebufferStatus implements backend.GL.
func (d *Driver) CheckFramebufferStatus(target backend.Enum) backend.Enum {
	return backend.Enum(C.dmb_u_u(fn(d.glCheckFramebufferStatus), C.uint32_t(target)))
}

// ReadPixels implements backend.GL.
func (d *Driver) ReadPixels(x, y, width, height int32, format, typ backend.Enum, dst []byte) {
	C.dmb_glReadPixels(fn(d.glReadPixels), C.int32_t(x), C.int32_t(y), C.int32_t(width), C.int32_t(height),
		C.uint32_t(format), C.uint32_t(typ), bytesPtr(dst))
}

// GenBuffer implements backend.GL.
func (d *Driver) GenBuffer() backend.Buffer { return backend.Buffer(d.gen(d.glGenBuffers)) }

// DeleteBuffer implements backend.GL.
func (d *Driver) DeleteBuffer(buf backend.Buffer) { d.del(d.glDeleteBuffers, uint32(buf)) }

// BindBuffer implements backend.GL.
func (d *Driver) BindBuffer(target backend.Enum, buf backend.Buffer) {
	C.dmb_v_uu(fn(d.glBindBuffer), C.uint32_t(target), C.uint32_t(buf))
}

// BufferData implements backend.GL.
func (d *Driver) BufferData(target backend.Enum, data []byte, usage backend.Enum) {
	C.dmb_glBufferData(fn(d.glBufferData), C.uint32_t(target), C.intptr_t(len(data)), bytesPtr(data), C.uint32_t(usage))
}

// VertexAttribPointer implements backend.GL.
func (d *Driver) VertexAttribPointer(index uint32, size int32, typ backend.Enum, normalized bool, stride int32, offset uintptr) {
	var n C.uint8_t
	if normalized {
		n = 1
	}
	C.dmb_glVertexAttribPointer(fn(d.glVertexAttribPointer), C.uint32_t(index), C.int32_t(size), C.uint32_t(typ), n,
		C.int32_t(stride), C.uintptr_t(offset))
}

// EnableVertexAttribArray implements backend.GL.
func (d *Driver) EnableVertexAttribArray(index uint32) {
	C.dmb_v_u(fn(d.glEnableVertexAttribArray), C.uint32_t(index))
}

// DrawArrays implements backend.GL.
func (d *Driver) DrawArrays(mode backend.Enum, first, count int32) {
	C.dmb_v_uii(fn(d.glDrawArrays), C.uint32_t(mode), C.int32_t(first), C.int32_t(count))
}

// Viewport implements backend.GL.
func (d *Driver) Viewport(x, y, width, height int32) {
	C.dmb_v_iiii(fn(d.glViewport), C.int32_t(x), C.int32_t(y), C.int32_t(width), C.int32_t(height))
}

// ClearColor implements backend.GL.
func (d *Driver) ClearColor(r, g, b, a float32) {
	C.dmb_v_ffff(fn(d.glClearColor), C.float(r), C.float(g), C.float(b), C.float(a))
}

// Clear implements backend.GL.
func (d *Driver) Clear(mask backend.Enum) {
	C.dmb_v_u(fn(d.glClear), C.uint32_t(mask))
}

// CreateShader implements backend.GL.
func (d *Driver) CreateShader(typ backend.Enum) backend.Shader {
	return backend.Shader(C.dmb_u_u(fn(d.glCreateShader), C.uint32_t(typ)))
}

// ShaderSource implements backend.GL.
func (d *Driver) ShaderSource(s backend.Shader, src string) {
	csrc := C.CString(src)
	defer C.free(unsafe.Pointer(csrc))
	C.dmb_glShaderSource(fn(d.glShaderSource), C.uint32_t(s), csrc)
}

// CompileShader implements backend.GL.
func (d *Driver) CompileShader(s backend.Shader) {
	C.dmb_v_u(fn(d.glCompileShader), C.uint32_t(s))
}

func (d *Driver) getiv(f uintptr, obj uint32, pname backend.Enum) int32 {
	var v C.int32_t
	C.dmb_getiv(fn(f), C.uint32_t(obj), C.uint32_t(pname), &v)
	return int32(v)
}

func (d *Driver) infoLog(get, log uintptr, obj uint32) string {
	n := d.getiv(get, obj, backend.GL_INFO_LOG_LENGTH)
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	var length C.int32_t
	C.dmb_infolog(fn(log), C.uint32_t(obj), C.int32_t(n), &length, (*C.char)(unsafe.Pointer(&buf[0])))
	return string(buf[:length])
}

// GetShaderi implements backend.GL.
func (d *Driver) GetShaderi(s backend.Shader, pname backend.Enum) int32 {
	return d.getiv(d.glGetShaderiv, uint32(s), pname)
}

// GetShaderInfoLog implements backend.GL.
func (d *Driver) GetShaderInfoLog(s backend.Shader) string {
	return d.infoLog(d.glGetShaderiv, d.glGetShaderInfoLog, uint32(s))
}

// DeleteShader implements backend.GL.
func (d *Driver) DeleteShader(s backend.Shader) {
	C.dmb_v_u(fn(d.glDeleteShader), C.uint32_t(s))
}

// CreateProgram implements backend.GL.
func (d *Driver) CreateProgram() backend.Program {
	return backend.Program(C.dmb_u_v(fn(d.glCreateProgram)))
}

// AttachShader implements backend.GL.
func (d *Driver) AttachShader(p backend.Program, s backend.Shader) {
	C.dmb_v_uu(fn(d.glAttachShader), C.uint32_t(p), C.uint32_t(s))
}

// LinkProgram implements backend.GL.
func (d *Driver) LinkProgram(p backend.Program) {
	C.dmb_v_u(fn(d.glLinkProgram), C.uint32_t(p))
}

// GetProgrami implements backend.GL.
func (d *Driver) GetProgrami(p backend.Program, pname backend.Enum) int32 {
	return d.getiv(d.glGetProgramiv, uint32(p), pname)
}

// GetProgramInfoLog implements backend.GL.
func (d *Driver) GetProgramInfoLog(p backend.Program) string {
	return d.infoLog(d.glGetProgramiv, d.glGetProgramInfoLog, uint32(p))
}

// UseProgram implements backend.GL.
func (d *Driver) UseProgram(p backend.Program) {
	C.dmb_v_u(fn(d.glUseProgram), C.uint32_t(p))
}

// DeleteProgram implements backend.GL.
func (d *Driver) DeleteProgram(p backend.Program) {
	C.dmb_v_u(fn(d.glDeleteProgram), C.uint32_t(p))
}

func (d *Driver) location(f uintptr, p backend.Program, name string) int32 {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return int32(C.dmb_location(fn(f), C.uint32_t(p), cname))
}

// GetAttribLocation implements backend.GL.
func (d *Driver) GetAttribLocation(p backend.Program, name string) int32 {
	return d.location(d.glGetAttribLocation, p, name)
}

// GetUniformLocation implements backend.GL.
func (d *Driver) GetUniformLocation(p backend.Program, name string) int32 {
	return d.location(d.glGetUniformLocation, p, name)
}

// Uniform1i implements backend.GL.
func (d *Driver) Uniform1i(location, v int32) {
	C.dmb_v_ii(fn(d.glUniform1i), C.int32_t(location), C.int32_t(v))
}

// Flush implements backend.GL.
func (d *Driver) Flush() { C.dmb_v_v(fn(d.glFlush)) }

// Finish implements backend.GL.
func (d *Driver) Finish() { C.dmb_v_v(fn(d.glFinish)) }

var _ backend.Driver = (*Driver)(nil)
