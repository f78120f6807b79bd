package backend

import (
	"errors"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrLibraryClosed is returned when looking up symbols in a closed library.
	ErrLibraryClosed = errors.New("backend: library closed")

	// ErrMissingSymbol is returned by NewDriver when the symbol table lacks an
	// entry point the driver needs.
	ErrMissingSymbol = errors.New("backend: missing symbol")
)

// Backend opens driver libraries and builds drivers from resolved symbols.
//
// A Backend never hands out a Driver built from a partial symbol table:
// NewDriver must be called with a table in which every name from
// RequiredEGLSymbols and RequiredGLESSymbols resolves.
type Backend interface {
	// Name returns the backend identifier (e.g., "egl", "soft").
	Name() string

	// OpenLibrary opens the driver library at path.
	OpenLibrary(path string) (Library, error)

	// NewDriver builds the entry-point table for one driver instance.
	// The name is used for diagnostics only ("native", "secondary").
	NewDriver(name string, syms SymbolTable) (Driver, error)
}

// Library is an opened driver shared object.
type Library interface {
	// Path returns the path the library was opened from.
	Path() string

	// Lookup resolves a symbol. The second result is false if the library
	// does not provide it.
	Lookup(symbol string) (uintptr, bool)

	// Close releases the library handle.
	Close() error
}

// SymbolTable is a resolved name to address mapping.
type SymbolTable interface {
	// Lookup returns the address of symbol, or 0 if it is not part of the table.
	Lookup(symbol string) uintptr
}

// MustLookup returns the addresses of names from syms, failing on the first
// unresolved one. Backends call it from NewDriver.
func MustLookup(syms SymbolTable, names ...string) ([]uintptr, error) {
	addrs := make([]uintptr, len(names))
	for i, name := range names {
		addr := syms.Lookup(name)
		if addr == 0 {
			return nil, &missingSymbolError{name: name}
		}
		addrs[i] = addr
	}
	return addrs, nil
}

type missingSymbolError struct {
	name string
}

func (e *missingSymbolError) Error() string {
	return "backend: missing symbol " + e.name
}

func (e *missingSymbolError) Unwrap() error { return ErrMissingSymbol }
