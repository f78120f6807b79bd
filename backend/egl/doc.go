// Package egl implements the "egl" backend: EGL and GLES entry points of a
// driver loaded at runtime with dlopen.
//
// Every call goes through a small C trampoline that casts the resolved
// address to the right prototype, so no EGL or GLES headers and no link-time
// dependency on a particular libEGL are needed. Two drivers (say Mesa from
// the system path and ANGLE from an application directory) can therefore
// live side by side in one process, each with its own symbol table.
//
// Extension entry points that a library does not export directly are
// resolved through eglGetProcAddress. A GLES library uses the
// eglGetProcAddress of the EGL library opened just before it on the same
// [Backend], so libraries must be opened in EGL, GLES order per driver.
//
// The package requires cgo and Linux. Importing it registers the backend:
//
//	import _ "github.com/gogpu/dmabridge/backend/egl"
package egl
