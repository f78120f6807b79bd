package dmabridge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/dmabridge/backend"
)

// Errors reported by the bridge. Every error returned by this package wraps
// exactly one of them.
var (
	// ErrSymbolResolution is returned when a driver library cannot be opened
	// or lacks a required entry point.
	ErrSymbolResolution = errors.New("dmabridge: symbol resolution failed")

	// ErrDisplayInit is returned when a driver cannot produce or initialise
	// a display for the native display handle.
	ErrDisplayInit = errors.New("dmabridge: display initialization failed")

	// ErrConfigMismatch is returned when no config satisfies the hard
	// requirements.
	ErrConfigMismatch = errors.New("dmabridge: no matching config")

	// ErrContextCreation is returned when a rendering context cannot be
	// created.
	ErrContextCreation = errors.New("dmabridge: context creation failed")

	// ErrSurfaceCreation is returned when a window or pbuffer surface cannot
	// be created.
	ErrSurfaceCreation = errors.New("dmabridge: surface creation failed")

	// ErrExport is returned when a texture cannot be exported as a dma-buf.
	ErrExport = errors.New("dmabridge: texture export failed")

	// ErrImport is returned when a dma-buf cannot be imported as a texture.
	ErrImport = errors.New("dmabridge: texture import failed")

	// ErrFlushTimeout is reserved for a flush that does not complete. Driver
	// calls are assumed to return in bounded time, so nothing returns it yet.
	ErrFlushTimeout = errors.New("dmabridge: flush timed out")

	// ErrMakeCurrent is returned when eglMakeCurrent fails.
	ErrMakeCurrent = errors.New("dmabridge: make current failed")

	// ErrImportsOutstanding is returned when releasing an export that still
	// has live imports.
	ErrImportsOutstanding = errors.New("dmabridge: export has live imports")

	// ErrReleased is returned when using a released texture, descriptor or
	// closed bridge.
	ErrReleased = errors.New("dmabridge: already released")

	// ErrVerification is returned when imported content differs from the
	// exported content.
	ErrVerification = errors.New("dmabridge: readback mismatch")
)

// SymbolError reports the first entry point a library failed to provide.
// Symbol is empty when the library itself could not be opened.
type SymbolError struct {
	Library string
	Symbol  string
	Err     error
}

func (e *SymbolError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("dmabridge: open %s: %v", e.Library, e.Err)
	}
	return fmt.Sprintf("dmabridge: %s: missing symbol %s", e.Library, e.Symbol)
}

// Unwrap returns ErrSymbolResolution.
func (e *SymbolError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSymbolResolution, e.Err}
	}
	return []error{ErrSymbolResolution}
}

// DriverError is a failed driver call together with the error code the
// driver reported right after it.
type DriverError struct {
	// Driver is the diagnostic name of the driver instance.
	Driver string

	// Call is the entry point name, e.g. "eglCreateContext".
	Call string

	// Code is the EGL or GL error code, 0 if the driver reported none.
	Code int

	// Kind is the sentinel the failure maps to.
	Kind error
}

// CodeName returns the symbolic name of Code.
func (e *DriverError) CodeName() string {
	if strings.HasPrefix(e.Call, "egl") {
		return backend.EGLErrorString(backend.Int(e.Code)) //nolint:gosec // G115: EGL codes are 16-bit
	}
	return backend.GLErrorString(backend.Enum(e.Code)) //nolint:gosec // G115: GL codes are 16-bit
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%v: %s: %s: %s", e.Kind, e.Driver, e.Call, e.CodeName())
}

// Unwrap returns Kind.
func (e *DriverError) Unwrap() error { return e.Kind }

// eglError builds a DriverError from the driver's pending EGL error.
func eglError(drv backend.Driver, call string, kind error) *DriverError {
	return &DriverError{Driver: drv.Name(), Call: call, Code: int(drv.EGLError()), Kind: kind}
}

// glError returns a DriverError if the driver has a pending GL error.
func glError(drv backend.Driver, call string, kind error) error {
	code := drv.GLError()
	if code == backend.GL_NO_ERROR {
		return nil
	}
	return &DriverError{Driver: drv.Name(), Call: call, Code: int(code), Kind: kind}
}

// StepError names the session step that failed.
type StepError struct {
	Step State
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
