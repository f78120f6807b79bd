// Package backend provides the driver abstraction shared by every EGL/GLES
// implementation dmabridge can talk to.
//
// A backend knows how to open driver libraries and how to turn a fully
// resolved symbol table into a [Driver], the callable EGL and GLES entry
// points for one driver instance. Two backends ship with the module:
//
//   - "egl": the system or an alternate libEGL/libGLESv2 loaded with dlopen
//     (backend/egl, requires cgo)
//   - "soft": a pure Go emulation backed by memfd storage (backend/soft),
//     used by tests and for headless runs on machines without a GPU
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime:
//
//	import _ "github.com/gogpu/dmabridge/backend/egl"
//
//	be := backend.Get("egl")
//
// # Driver Handles
//
// EGL objects are represented by the pointer-sized [Display], [Config],
// [Context], [Surface] and [Image] handles. GL objects use the 32-bit
// [Texture], [Framebuffer], [Buffer], [Shader] and [Program] names. The zero
// value of every handle is the corresponding EGL_NO_* or GL "none" value.
package backend
