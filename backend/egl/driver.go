//go:build linux

package egl

import (
	"strings"

	"github.com/gogpu/dmabridge/backend"
)

// Driver calls the EGL and GLES entry points of one loaded driver through
// the addresses of its symbol table.
type Driver struct {
	name string

	eglGetDisplay                 uintptr
	eglInitialize                 uintptr
	eglTerminate                  uintptr
	eglBindAPI                    uintptr
	eglQueryString                uintptr
	eglChooseConfig               uintptr
	eglGetConfigAttrib            uintptr
	eglCreateContext              uintptr
	eglDestroyContext             uintptr
	eglCreateWindowSurface        uintptr
	eglCreatePbufferSurface       uintptr
	eglDestroySurface             uintptr
	eglMakeCurrent                uintptr
	eglSwapBuffers                uintptr
	eglGetError                   uintptr
	eglCreateImageKHR             uintptr
	eglDestroyImageKHR            uintptr
	eglExportDMABUFImageQueryMESA uintptr
	eglExportDMABUFImageMESA      uintptr

	glGetError                   uintptr
	glGenTextures                uintptr
	glDeleteTextures             uintptr
	glBindTexture                uintptr
	glActiveTexture              uintptr
	glTexParameteri              uintptr
	glTexImage2D                 uintptr
	glTexSubImage2D              uintptr
	glEGLImageTargetTexture2DOES uintptr
	glGenFramebuffers            uintptr
	glDeleteFramebuffers         uintptr
	glBindFramebuffer            uintptr
	glFramebufferTexture2D       uintptr
	glCheckFramebufferStatus     uintptr
	glReadPixels                 uintptr
	glGenBuffers                 uintptr
	glDeleteBuffers              uintptr
	glBindBuffer                 uintptr
	glBufferData                 uintptr
	glVertexAttribPointer        uintptr
	glEnableVertexAttribArray    uintptr
	glDrawArrays                 uintptr
	glViewport                   uintptr
	glClearColor                 uintptr
	glClear                      uintptr
	glCreateShader               uintptr
	glShaderSource               uintptr
	glCompileShader              uintptr
	glGetShaderiv                uintptr
	glGetShaderInfoLog           uintptr
	glDeleteShader               uintptr
	glCreateProgram              uintptr
	glAttachShader               uintptr
	glLinkProgram                uintptr
	glGetProgramiv               uintptr
	glGetProgramInfoLog          uintptr
	glUseProgram                 uintptr
	glDeleteProgram              uintptr
	glGetAttribLocation          uintptr
	glGetUniformLocation         uintptr
	glUniform1i                  uintptr
	glFlush                      uintptr
	glFinish                     uintptr
}

// entries maps every required symbol to the Driver field holding it.
func (d *Driver) entries() map[string]*uintptr {
	return map[string]*uintptr{
		"eglGetDisplay":                 &d.eglGetDisplay,
		"eglInitialize":                 &d.eglInitialize,
		"eglTerminate":                  &d.eglTerminate,
		"eglBindAPI":                    &d.eglBindAPI,
		"eglQueryString":                &d.eglQueryString,
		"eglChooseConfig":               &d.eglChooseConfig,
		"eglGetConfigAttrib":            &d.eglGetConfigAttrib,
		"eglCreateContext":              &d.eglCreateContext,
		"eglDestroyContext":             &d.eglDestroyContext,
		"eglCreateWindowSurface":        &d.eglCreateWindowSurface,
		"eglCreatePbufferSurface":       &d.eglCreatePbufferSurface,
		"eglDestroySurface":             &d.eglDestroySurface,
		"eglMakeCurrent":                &d.eglMakeCurrent,
		"eglSwapBuffers":                &d.eglSwapBuffers,
		"eglGetError":                   &d.eglGetError,
		"eglCreateImageKHR":             &d.eglCreateImageKHR,
		"eglDestroyImageKHR":            &d.eglDestroyImageKHR,
		"eglExportDMABUFImageQueryMESA": &d.eglExportDMABUFImageQueryMESA,
		"eglExportDMABUFImageMESA":      &d.eglExportDMABUFImageMESA,

		"glGetError":                   &d.glGetError,
		"glGenTextures":                &d.glGenTextures,
		"glDeleteTextures":             &d.glDeleteTextures,
		"glBindTexture":                &d.glBindTexture,
		"glActiveTexture":              &d.glActiveTexture,
		"glTexParameteri":              &d.glTexParameteri,
		"glTexImage2D":                 &d.glTexImage2D,
		"glTexSubImage2D":              &d.glTexSubImage2D,
		"glEGLImageTargetTexture2DOES": &d.glEGLImageTargetTexture2DOES,
		"glGenFramebuffers":            &d.glGenFramebuffers,
		"glDeleteFramebuffers":         &d.glDeleteFramebuffers,
		"glBindFramebuffer":            &d.glBindFramebuffer,
		"glFramebufferTexture2D":       &d.glFramebufferTexture2D,
		"glCheckFramebufferStatus":     &d.glCheckFramebufferStatus,
		"glReadPixels":                 &d.glReadPixels,
		"glGenBuffers":                 &d.glGenBuffers,
		"glDeleteBuffers":              &d.glDeleteBuffers,
		"glBindBuffer":                 &d.glBindBuffer,
		"glBufferData":                 &d.glBufferData,
		"glVertexAttribPointer":        &d.glVertexAttribPointer,
		"glEnableVertexAttribArray":    &d.glEnableVertexAttribArray,
		"glDrawArrays":                 &d.glDrawArrays,
		"glViewport":                   &d.glViewport,
		"glClearColor":                 &d.glClearColor,
		"glClear":                      &d.glClear,
		"glCreateShader":               &d.glCreateShader,
		"glShaderSource":               &d.glShaderSource,
		"glCompileShader":              &d.glCompileShader,
		"glGetShaderiv":                &d.glGetShaderiv,
		"glGetShaderInfoLog":           &d.glGetShaderInfoLog,
		"glDeleteShader":               &d.glDeleteShader,
		"glCreateProgram":              &d.glCreateProgram,
		"glAttachShader":               &d.glAttachShader,
		"glLinkProgram":                &d.glLinkProgram,
		"glGetProgramiv":               &d.glGetProgramiv,
		"glGetProgramInfoLog":          &d.glGetProgramInfoLog,
		"glUseProgram":                 &d.glUseProgram,
		"glDeleteProgram":              &d.glDeleteProgram,
		"glGetAttribLocation":          &d.glGetAttribLocation,
		"glGetUniformLocation":         &d.glGetUniformLocation,
		"glUniform1i":                  &d.glUniform1i,
		"glFlush":                      &d.glFlush,
		"glFinish":                     &d.glFinish,
	}
}

// bind fills the entry points from syms. It fails without modifying d
// when any required symbol is unresolved.
func bind(name string, syms backend.SymbolTable) (*Driver, error) {
	if _, err := backend.MustLookup(syms, backend.AllSymbols()...); err != nil {
		return nil, err
	}
	d := &Driver{name: name}
	for sym, field := range d.entries() {
		*field = syms.Lookup(sym)
	}
	return d, nil
}

// Name implements backend.Driver.
func (d *Driver) Name() string { return d.name }

// LibraryID implements backend.LibraryIdentifier. dlopen returns the loaded
// image for a path already open, so bindings of one library resolve the same
// eglGetDisplay address.
func (d *Driver) LibraryID() uintptr { return d.eglGetDisplay }

// isExtension reports whether symbol is an extension entry point that may
// only be reachable through eglGetProcAddress.
func isExtension(symbol string) bool {
	for _, suffix := range []string{"KHR", "EXT", "OES", "MESA", "ANGLE"} {
		if strings.HasSuffix(symbol, suffix) {
			return true
		}
	}
	return false
}

// terminate returns attribs with a trailing EGL_NONE, or nil for an empty
// list.
func terminate(attribs []backend.Int) []backend.Int {
	if len(attribs) == 0 {
		return nil
	}
	for i := 0; i < len(attribs); i += 2 {
		if attribs[i] == backend.EGL_NONE {
			return attribs
		}
	}
	out := make([]backend.Int, len(attribs), len(attribs)+1)
	copy(out, attribs)
	return append(out, backend.EGL_NONE)
}
