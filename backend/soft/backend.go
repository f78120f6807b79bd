//go:build linux

package soft

import (
	"errors"
	"hash/fnv"

	"github.com/gogpu/dmabridge/backend"
)

// BadNativeDisplay is a native display for which GetDisplay returns
// EGL_NO_DISPLAY.
const BadNativeDisplay = ^backend.NativeDisplay(0)

// ModifierTiled is the vendor tiling modifier used when Options.Tiled is set
// (I915_FORMAT_MOD_X_TILED). Soft drivers cannot export or import it.
const ModifierTiled backend.Modifier = 0x0100000000000001

// Options tune the behaviour of soft drivers.
type Options struct {
	// CacheCurrent makes eglMakeCurrent a no-op when asked to bind the
	// triple the driver bound last, even if another driver has since taken
	// the hardware binding.
	CacheCurrent bool

	// Tiled allocates textures with ModifierTiled. Such textures can be
	// wrapped in images and queried but not exported.
	Tiled bool

	// LooseChooseConfig makes eglChooseConfig ignore size attributes and
	// return every config with a matching renderable type.
	LooseChooseConfig bool

	// Missing lists symbols the opened libraries do not export.
	Missing []string

	// Configs replaces the default config list.
	Configs []ConfigDesc
}

// ConfigDesc describes one framebuffer configuration.
type ConfigDesc struct {
	Red, Green, Blue, Alpha int32
	Depth, Stencil          int32
	Renderable              backend.Int
	SurfaceType             backend.Int
	VisualID                int32
}

// DefaultConfigs is the config list of a soft driver, in preference order.
var DefaultConfigs = []ConfigDesc{
	{Red: 8, Green: 8, Blue: 8, Alpha: 8, Depth: 24, Stencil: 8,
		Renderable:  backend.EGL_OPENGL_ES2_BIT | backend.EGL_OPENGL_ES3_BIT,
		SurfaceType: backend.EGL_WINDOW_BIT | backend.EGL_PBUFFER_BIT, VisualID: 0x21},
	{Red: 8, Green: 8, Blue: 8, Alpha: 0, Depth: 16, Stencil: 0,
		Renderable:  backend.EGL_OPENGL_ES2_BIT | backend.EGL_OPENGL_ES3_BIT,
		SurfaceType: backend.EGL_WINDOW_BIT | backend.EGL_PBUFFER_BIT, VisualID: 0x22},
	{Red: 5, Green: 6, Blue: 5, Alpha: 0, Depth: 16, Stencil: 0,
		Renderable:  backend.EGL_OPENGL_ES2_BIT,
		SurfaceType: backend.EGL_WINDOW_BIT, VisualID: 0x23},
}

var errEmptyPath = errors.New("soft: empty library path")

func init() {
	backend.Register(backend.BackendSoft, func() backend.Backend {
		return NewBackend(DefaultDevice(), Options{})
	})
}

// Backend creates soft drivers on one Device.
type Backend struct {
	dev  *Device
	opts Options
}

// NewBackend returns a backend whose drivers share dev.
func NewBackend(dev *Device, opts Options) *Backend {
	return &Backend{dev: dev, opts: opts}
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return backend.BackendSoft }

// Device returns the device drivers of this backend are created on.
func (b *Backend) Device() *Device { return b.dev }

// OpenLibrary implements backend.Backend. Any non-empty path opens; the
// library exports every required symbol except Options.Missing.
func (b *Backend) OpenLibrary(path string) (backend.Library, error) {
	if path == "" {
		return nil, errEmptyPath
	}
	missing := make(map[string]bool, len(b.opts.Missing))
	for _, m := range b.opts.Missing {
		missing[m] = true
	}
	known := make(map[string]bool)
	for _, s := range backend.AllSymbols() {
		known[s] = true
	}
	return &library{path: path, known: known, missing: missing}, nil
}

// NewDriver implements backend.Backend.
func (b *Backend) NewDriver(name string, syms backend.SymbolTable) (backend.Driver, error) {
	if _, err := backend.MustLookup(syms, backend.AllSymbols()...); err != nil {
		return nil, err
	}
	return newDriver(name, b.dev, b.opts), nil
}

type library struct {
	path    string
	known   map[string]bool
	missing map[string]bool
	closed  bool
}

func (l *library) Path() string { return l.path }

// Lookup returns a stable fake address for known symbols.
func (l *library) Lookup(symbol string) (uintptr, bool) {
	if l.closed || !l.known[symbol] || l.missing[symbol] {
		return 0, false
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(l.path))
	_, _ = h.Write([]byte(symbol))
	return uintptr(h.Sum64() | 1), true
}

func (l *library) Close() error {
	if l.closed {
		return backend.ErrLibraryClosed
	}
	l.closed = true
	return nil
}
