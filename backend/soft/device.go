//go:build linux

package soft

import (
	"sync"

	"github.com/gogpu/dmabridge/backend"
)

// Device is the emulated GPU shared by soft drivers. It tracks the context
// bound on the (single) rendering thread and the native windows surfaces
// may be created on.
//
// Device is safe for concurrent use.
type Device struct {
	mu sync.Mutex

	bound       *context
	boundDriver *Driver
	misdirected int
	binds       int

	nextHandle uintptr
	windows    map[backend.NativeWindow]int32
}

// NewDevice creates an emulated GPU with no bound context.
func NewDevice() *Device {
	return &Device{
		windows: make(map[backend.NativeWindow]int32),
	}
}

var (
	defaultDeviceOnce sync.Once
	defaultDevice     *Device
)

// DefaultDevice returns the process-wide device used by the registered
// "soft" backend, so that two drivers obtained from the registry share one
// hardware binding.
func DefaultDevice() *Device {
	defaultDeviceOnce.Do(func() { defaultDevice = NewDevice() })
	return defaultDevice
}

// RegisterWindow makes win a valid native window whose pixel format is the
// given native visual id.
func (d *Device) RegisterWindow(win backend.NativeWindow, visualID int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.windows[win] = visualID
}

// UnregisterWindow forgets win.
func (d *Device) UnregisterWindow(win backend.NativeWindow) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.windows, win)
}

func (d *Device) windowVisual(win backend.NativeWindow) (int32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.windows[win]
	return v, ok
}

// Misdirected returns how many GL calls were dropped because the issuing
// driver's context was not the hardware-bound one.
func (d *Device) Misdirected() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.misdirected
}

// Binds returns how many times a context was actually bound to the hardware.
func (d *Device) Binds() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.binds
}

// Bound returns the name of the driver owning the hardware binding and its
// context handle. ok is false when nothing is bound.
func (d *Device) Bound() (driver string, ctx backend.Context, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bound == nil {
		return "", 0, false
	}
	return d.boundDriver.name, d.bound.id, true
}

func (d *Device) handle() uintptr {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextHandle++
	return d.nextHandle
}

func (d *Device) bind(drv *Driver, c *context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bound = c
	d.boundDriver = drv
	d.binds++
}

// unbind releases the binding if drv owns it.
func (d *Device) unbind(drv *Driver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.boundDriver == drv {
		d.bound = nil
		d.boundDriver = nil
	}
}

func (d *Device) isBound(c *context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bound == c
}

func (d *Device) misdirect() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.misdirected++
}
