//go:build linux && cgo

package egl

import (
	"sync"

	"github.com/gogpu/dmabridge/backend"
)

func init() {
	backend.Register(backend.BackendEGL, func() backend.Backend {
		return New()
	})
}

// Backend loads EGL/GLES driver libraries with dlopen.
type Backend struct {
	mu sync.Mutex
	// lastGetProc is eglGetProcAddress of the most recently opened library
	// that exports it.
	lastGetProc uintptr
}

// New returns a backend with no libraries opened.
func New() *Backend {
	return &Backend{}
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return backend.BackendEGL }

// OpenLibrary implements backend.Backend. Path is passed to dlopen as is, so
// a bare soname searches the system library path.
func (b *Backend) OpenLibrary(path string) (backend.Library, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, err := openLibrary(path, b.lastGetProc)
	if err != nil {
		return nil, err
	}
	if l.getProc != 0 {
		b.lastGetProc = uintptr(l.getProc)
	}
	return l, nil
}

// NewDriver implements backend.Backend.
func (b *Backend) NewDriver(name string, syms backend.SymbolTable) (backend.Driver, error) {
	return bind(name, syms)
}

var _ backend.Backend = (*Backend)(nil)
