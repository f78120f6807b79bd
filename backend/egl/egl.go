//go:build linux && cgo

package egl

/*
#include <stdint.h>

typedef uintptr_t H;

static H dmb_eglGetDisplay(uintptr_t fn, uintptr_t native) {
	return (H)((void *(*)(uintptr_t))fn)(native);
}

static uint32_t dmb_eglInitialize(uintptr_t fn, H dpy, int32_t *major, int32_t *minor) {
	return ((uint32_t (*)(void *, int32_t *, int32_t *))fn)((void *)dpy, major, minor);
}

static uint32_t dmb_eglTerminate(uintptr_t fn, H dpy) {
	return ((uint32_t (*)(void *))fn)((void *)dpy);
}

static uint32_t dmb_eglBindAPI(uintptr_t fn, uint32_t api) {
	return ((uint32_t (*)(uint32_t))fn)(api);
}

static const char *dmb_eglQueryString(uintptr_t fn, H dpy, int32_t name) {
	return ((const char *(*)(void *, int32_t))fn)((void *)dpy, name);
}

static uint32_t dmb_eglChooseConfig(uintptr_t fn, H dpy, const int32_t *attribs, H *configs, int32_t size, int32_t *num) {
	return ((uint32_t (*)(void *, const int32_t *, void **, int32_t, int32_t *))fn)((void *)dpy, attribs, (void **)configs, size, num);
}

static uint32_t dmb_eglGetConfigAttrib(uintptr_t fn, H dpy, H cfg, int32_t attr, int32_t *value) {
	return ((uint32_t (*)(void *, void *, int32_t, int32_t *))fn)((void *)dpy, (void *)cfg, attr, value);
}

static H dmb_eglCreateContext(uintptr_t fn, H dpy, H cfg, H share, const int32_t *attribs) {
	return (H)((void *(*)(void *, void *, void *, const int32_t *))fn)((void *)dpy, (void *)cfg, (void *)share, attribs);
}

static uint32_t dmb_eglDestroyContext(uintptr_t fn, H dpy, H ctx) {
	return ((uint32_t (*)(void *, void *))fn)((void *)dpy, (void *)ctx);
}

static H dmb_eglCreateWindowSurface(uintptr_t fn, H dpy, H cfg, uintptr_t win, const int32_t *attribs) {
	return (H)((void *(*)(void *, void *, uintptr_t, const int32_t *))fn)((void *)dpy, (void *)cfg, win, attribs);
}

static H dmb_eglCreatePbufferSurface(uintptr_t fn, H dpy, H cfg, const int32_t *attribs) {
	return (H)((void *(*)(void *, void *, const int32_t *))fn)((void *)dpy, (void *)cfg, attribs);
}

static uint32_t dmb_eglDestroySurface(uintptr_t fn, H dpy, H surf) {
	return ((uint32_t (*)(void *, void *))fn)((void *)dpy, (void *)surf);
}

static uint32_t dmb_eglMakeCurrent(uintptr_t fn, H dpy, H draw, H read, H ctx) {
	return ((uint32_t (*)(void *, void *, void *, void *))fn)((void *)dpy, (void *)draw, (void *)read, (void *)ctx);
}

static uint32_t dmb_eglSwapBuffers(uintptr_t fn, H dpy, H surf) {
	return ((uint32_t (*)(void *, void *))fn)((void *)dpy, (void *)surf);
}

static int32_t dmb_eglGetError(uintptr_t fn) {
	return ((int32_t (*)(void))fn)();
}

static H dmb_eglCreateImageKHR(uintptr_t fn, H dpy, H ctx, uint32_t target, uintptr_t buffer, const int32_t *attribs) {
	return (H)((void *(*)(void *, void *, uint32_t, void *, const int32_t *))fn)((void *)dpy, (void *)ctx, target, (void *)buffer, attribs);
}

static uint32_t dmb_eglDestroyImageKHR(uintptr_t fn, H dpy, H img) {
	return ((uint32_t (*)(void *, void *))fn)((void *)dpy, (void *)img);
}

static uint32_t dmb_eglExportDMABUFImageQueryMESA(uintptr_t fn, H dpy, H img, int *fourcc, int *planes, uint64_t *modifiers) {
	return ((uint32_t (*)(void *, void *, int *, int *, uint64_t *))fn)((void *)dpy, (void *)img, fourcc, planes, modifiers);
}

static uint32_t dmb_eglExportDMABUFImageMESA(uintptr_t fn, H dpy, H img, int *fds, int32_t *strides, int32_t *offsets) {
	return ((uint32_t (*)(void *, void *, int *, int32_t *, int32_t *))fn)((void *)dpy, (void *)img, fds, strides, offsets);
}
*/
import "C"

import (
	"unsafe"

	"github.com/gogpu/dmabridge/backend"
)

// maxPlanes bounds the planes of an exported image (DRM formats have at
// most four).
const maxPlanes = 4

func fn(addr uintptr) C.uintptr_t { return C.uintptr_t(addr) }

func h[T ~uintptr](v T) C.H { return C.H(v) }

func ok(b C.uint32_t) bool { return b != 0 }

// attribPtr returns a pointer to the EGL_NONE terminated attribute list, or
// nil for an empty one.
func attribPtr(attribs []backend.Int) *C.int32_t {
	attribs = terminate(attribs)
	if len(attribs) == 0 {
		return nil
	}
	return (*C.int32_t)(unsafe.Pointer(&attribs[0]))
}

// GetDisplay implements backend.EGL.
func (d *Driver) GetDisplay(native backend.NativeDisplay) backend.Display {
	return backend.Display(C.dmb_eglGetDisplay(fn(d.eglGetDisplay), C.uintptr_t(native)))
}

// Initialize implements backend.EGL.
func (d *Driver) Initialize(dpy backend.Display) (major, minor backend.Int, success bool) {
	var ma, mi C.int32_t
	r := C.dmb_eglInitialize(fn(d.eglInitialize), h(dpy), &ma, &mi)
	return backend.Int(ma), backend.Int(mi), ok(r)
}

// Terminate implements backend.EGL.
func (d *Driver) Terminate(dpy backend.Display) bool {
	return ok(C.dmb_eglTerminate(fn(d.eglTerminate), h(dpy)))
}

// BindAPI implements backend.EGL.
func (d *Driver) BindAPI(api backend.Enum) bool {
	return ok(C.dmb_eglBindAPI(fn(d.eglBindAPI), C.uint32_t(api)))
}

// QueryString implements backend.EGL.
func (d *Driver) QueryString(dpy backend.Display, name backend.Int) string {
	s := C.dmb_eglQueryString(fn(d.eglQueryString), h(dpy), C.int32_t(name))
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

// ChooseConfig implements backend.EGL.
func (d *Driver) ChooseConfig(dpy backend.Display, attribs []backend.Int) ([]backend.Config, bool) {
	a := attribPtr(attribs)
	var n C.int32_t
	if !ok(C.dmb_eglChooseConfig(fn(d.eglChooseConfig), h(dpy), a, nil, 0, &n)) {
		return nil, false
	}
	if n == 0 {
		return nil, true
	}
	cfgs := make([]C.H, n)
	if !ok(C.dmb_eglChooseConfig(fn(d.eglChooseConfig), h(dpy), a, &cfgs[0], n, &n)) {
		return nil, false
	}
	out := make([]backend.Config, n)
	for i := range out {
		out[i] = backend.Config(cfgs[i])
	}
	return out, true
}

// GetConfigAttrib implements backend.EGL.
func (d *Driver) GetConfigAttrib(dpy backend.Display, cfg backend.Config, attr backend.Int) (backend.Int, bool) {
	var v C.int32_t
	r := C.dmb_eglGetConfigAttrib(fn(d.eglGetConfigAttrib), h(dpy), h(cfg), C.int32_t(attr), &v)
	return backend.Int(v), ok(r)
}

// CreateContext implements backend.EGL.
func (d *Driver) CreateContext(dpy backend.Display, cfg backend.Config, share backend.Context, attribs []backend.Int) backend.Context {
	return backend.Context(C.dmb_eglCreateContext(fn(d.eglCreateContext), h(dpy), h(cfg), h(share), attribPtr(attribs)))
}

// DestroyContext implements backend.EGL.
func (d *Driver) DestroyContext(dpy backend.Display, ctx backend.Context) bool {
	return ok(C.dmb_eglDestroyContext(fn(d.eglDestroyContext), h(dpy), h(ctx)))
}

// CreateWindowSurface implements backend.EGL.
func (d *Driver) CreateWindowSurface(dpy backend.Display, cfg backend.Config, win backend.NativeWindow, attribs []backend.Int) backend.Surface {
	return backend.Surface(C.dmb_eglCreateWindowSurface(fn(d.eglCreateWindowSurface), h(dpy), h(cfg), C.uintptr_t(win), attribPtr(attribs)))
}

// CreatePbufferSurface implements backend.EGL.
func (d *Driver) CreatePbufferSurface(dpy backend.Display, cfg backend.Config, attribs []backend.Int) backend.Surface {
	return backend.Surface(C.dmb_eglCreatePbufferSurface(fn(d.eglCreatePbufferSurface), h(dpy), h(cfg), attribPtr(attribs)))
}

// DestroySurface implements backend.EGL.
func (d *Driver) DestroySurface(dpy backend.Display, surf backend.Surface) bool {
	return ok(C.dmb_eglDestroySurface(fn(d.eglDestroySurface), h(dpy), h(surf)))
}

// MakeCurrent implements backend.EGL.
func (d *Driver) MakeCurrent(dpy backend.Display, draw, read backend.Surface, ctx backend.Context) bool {
	return ok(C.dmb_eglMakeCurrent(fn(d.eglMakeCurrent), h(dpy), h(draw), h(read), h(ctx)))
}

// SwapBuffers implements backend.EGL.
func (d *Driver) SwapBuffers(dpy backend.Display, surf backend.Surface) bool {
	return ok(C.dmb_eglSwapBuffers(fn(d.eglSwapBuffers), h(dpy), h(surf)))
}

// EGLError implements backend.EGL.
func (d *Driver) EGLError() backend.Int {
	return backend.Int(C.dmb_eglGetError(fn(d.eglGetError)))
}

// CreateImage implements backend.EGL.
func (d *Driver) CreateImage(dpy backend.Display, ctx backend.Context, target backend.Enum, buffer uintptr, attribs []backend.Int) backend.Image {
	return backend.Image(C.dmb_eglCreateImageKHR(fn(d.eglCreateImageKHR), h(dpy), h(ctx), C.uint32_t(target), C.uintptr_t(buffer), attribPtr(attribs)))
}

// DestroyImage implements backend.EGL.
func (d *Driver) DestroyImage(dpy backend.Display, img backend.Image) bool {
	return ok(C.dmb_eglDestroyImageKHR(fn(d.eglDestroyImageKHR), h(dpy), h(img)))
}

// ExportDMABUFImageQuery implements backend.EGL. Only the first plane's
// modifier is reported; all planes of an image share it.
func (d *Driver) ExportDMABUFImageQuery(dpy backend.Display, img backend.Image) (backend.FourCC, int, backend.Modifier, bool) {
	var fourcc, planes C.int
	var mods [maxPlanes]C.uint64_t
	if !ok(C.dmb_eglExportDMABUFImageQueryMESA(fn(d.eglExportDMABUFImageQueryMESA), h(dpy), h(img), &fourcc, &planes, &mods[0])) {
		return 0, 0, 0, false
	}
	//nolint:gosec // G115: fourcc is a raw 32-bit word
	return backend.FourCC(uint32(fourcc)), int(planes), backend.Modifier(mods[0]), true
}

// ExportDMABUFImage implements backend.EGL.
func (d *Driver) ExportDMABUFImage(dpy backend.Display, img backend.Image, planes int) ([]int, []backend.Int, []backend.Int, bool) {
	if planes < 1 || planes > maxPlanes {
		return nil, nil, nil, false
	}
	var fds [maxPlanes]C.int
	var strides, offsets [maxPlanes]C.int32_t
	for i := range fds {
		fds[i] = -1
	}
	if !ok(C.dmb_eglExportDMABUFImageMESA(fn(d.eglExportDMABUFImageMESA), h(dpy), h(img), &fds[0], &strides[0], &offsets[0])) {
		return nil, nil, nil, false
	}
	outFDs := make([]int, planes)
	outStrides := make([]backend.Int, planes)
	outOffsets := make([]backend.Int, planes)
	for i := 0; i < planes; i++ {
		outFDs[i] = int(fds[i])
		outStrides[i] = backend.Int(strides[i])
		outOffsets[i] = backend.Int(offsets[i])
	}
	return outFDs, outStrides, outOffsets, true
}
