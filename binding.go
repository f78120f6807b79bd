package dmabridge

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/dmabridge/backend"
)

// Requirement pairs a driver library with the entry points it must provide.
type Requirement struct {
	Path    string
	Symbols []string
}

// DefaultRequirements returns the EGL and GLES requirements of one driver
// instance. The EGL library is listed first so that extension entry points
// of the GLES library can be resolved through its eglGetProcAddress.
func DefaultRequirements(eglPath, glesPath string) []Requirement {
	return []Requirement{
		{Path: eglPath, Symbols: backend.RequiredEGLSymbols},
		{Path: glesPath, Symbols: backend.RequiredGLESSymbols},
	}
}

// Binding is the resolved entry-point table of one driver instance.
// It is immutable once LoadBinding returns.
type Binding struct {
	be      backend.Backend
	libs    []backend.Library
	symbols map[string]uintptr

	closeOnce sync.Once
	closeErr  error
}

// LoadBinding opens every library of reqs on be and resolves its symbols.
//
// Loading is all or nothing: the first library that cannot be opened or the
// first missing symbol aborts with a *SymbolError, and every library opened
// so far is closed again. Repeated loads of the same paths return
// independent bindings.
func LoadBinding(be backend.Backend, reqs ...Requirement) (*Binding, error) {
	b := &Binding{
		be:      be,
		symbols: make(map[string]uintptr),
	}
	for _, req := range reqs {
		lib, err := be.OpenLibrary(req.Path)
		if err != nil {
			b.closeLibraries()
			return nil, &SymbolError{Library: req.Path, Err: err}
		}
		b.libs = append(b.libs, lib)
		for _, name := range req.Symbols {
			addr, ok := lib.Lookup(name)
			if !ok || addr == 0 {
				b.closeLibraries()
				Logger().Debug("dmabridge: symbol missing", "library", req.Path, "symbol", name)
				return nil, &SymbolError{Library: req.Path, Symbol: name}
			}
			b.symbols[name] = addr
		}
	}
	Logger().Info("dmabridge: binding loaded",
		"backend", be.Name(), "libraries", len(b.libs), "symbols", len(b.symbols))
	return b, nil
}

// Lookup implements backend.SymbolTable.
func (b *Binding) Lookup(name string) uintptr {
	return b.symbols[name]
}

// Symbols returns the resolved symbol names in sorted order.
func (b *Binding) Symbols() []string {
	names := make([]string, 0, len(b.symbols))
	for name := range b.symbols {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Backend returns the backend the binding was loaded on.
func (b *Binding) Backend() backend.Backend { return b.be }

// Driver builds a callable driver from the binding.
func (b *Binding) Driver(name string) (backend.Driver, error) {
	drv, err := b.be.NewDriver(name, b)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSymbolResolution, name, err)
	}
	return drv, nil
}

// Close closes the driver libraries. Drivers built from the binding must not
// be used afterwards.
func (b *Binding) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = b.closeLibraries()
	})
	return b.closeErr
}

func (b *Binding) closeLibraries() error {
	var errs []error
	for i := len(b.libs) - 1; i >= 0; i-- {
		if err := b.libs[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", b.libs[i].Path(), err))
		}
	}
	b.libs = nil
	return errors.Join(errs...)
}

var _ backend.SymbolTable = (*Binding)(nil)
