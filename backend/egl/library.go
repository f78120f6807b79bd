//go:build linux && cgo

package egl

/*
#cgo LDFLAGS: -ldl

#include <stdint.h>
#include <stdlib.h>
#include <dlfcn.h>

static uintptr_t dmb_dlopen(const char *path) {
	return (uintptr_t)dlopen(path, RTLD_NOW | RTLD_LOCAL);
}

static uintptr_t dmb_dlsym(uintptr_t handle, const char *name) {
	return (uintptr_t)dlsym((void *)handle, name);
}

static int dmb_dlclose(uintptr_t handle) {
	return dlclose((void *)handle);
}

static const char *dmb_dlerror(void) {
	return dlerror();
}

static uintptr_t dmb_eglGetProcAddress(uintptr_t fn, const char *name) {
	return (uintptr_t)((void *(*)(const char *))fn)(name);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/gogpu/dmabridge/backend"
)

// library is a dlopen handle. Extension entry points dlsym cannot find are
// resolved through eglGetProcAddress: for libEGL its own, for libGLESv2 the
// one of the EGL library opened just before it on the same backend.
type library struct {
	path    string
	mu      sync.Mutex
	handle  C.uintptr_t
	getProc C.uintptr_t
}

func openLibrary(path string, companion uintptr) (*library, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	h := C.dmb_dlopen(cpath)
	if h == 0 {
		msg := "unknown error"
		if e := C.dmb_dlerror(); e != nil {
			msg = C.GoString(e)
		}
		return nil, fmt.Errorf("egl: dlopen %s: %s", path, msg)
	}
	l := &library{path: path, handle: h, getProc: C.uintptr_t(companion)}
	if own := l.dlsym("eglGetProcAddress"); own != 0 {
		l.getProc = own
	}
	return l, nil
}

func (l *library) dlsym(name string) C.uintptr_t {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return C.dmb_dlsym(l.handle, cname)
}

// Path implements backend.Library.
func (l *library) Path() string { return l.path }

// Lookup implements backend.Library.
func (l *library) Lookup(symbol string) (uintptr, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == 0 {
		return 0, false
	}
	if addr := l.dlsym(symbol); addr != 0 {
		return uintptr(addr), true
	}
	if l.getProc == 0 || !isExtension(symbol) {
		return 0, false
	}
	cname := C.CString(symbol)
	defer C.free(unsafe.Pointer(cname))
	addr := C.dmb_eglGetProcAddress(l.getProc, cname)
	return uintptr(addr), addr != 0
}

// Close implements backend.Library.
func (l *library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == 0 {
		return backend.ErrLibraryClosed
	}
	h := l.handle
	l.handle = 0
	l.getProc = 0
	if C.dmb_dlclose(h) != 0 {
		return errors.New("egl: dlclose " + l.path + ": " + C.GoString(C.dmb_dlerror()))
	}
	return nil
}
