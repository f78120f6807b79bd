//go:build linux

package dmabridge

import (
	"testing"

	"github.com/gogpu/dmabridge/backend"
	"github.com/gogpu/dmabridge/backend/soft"
)

const (
	nativeEGL     = "libEGL.so.1"
	nativeGLES    = "libGLESv2.so.2"
	secondaryEGL  = "/opt/angle/libEGL.so"
	secondaryGLES = "/opt/angle/libGLESv2.so"
)

// pbufferRequirements asks for an 8-bit RGB ES2 pbuffer config.
func pbufferRequirements() ConfigRequirements {
	r := DefaultConfigRequirements()
	r.SurfaceType = backend.EGL_PBUFFER_BIT
	return r
}

// loadDriver binds a soft driver and closes the binding when the test ends.
func loadDriver(t *testing.T, be backend.Backend, name string, reqs []Requirement) backend.Driver {
	t.Helper()
	b, err := LoadBinding(be, reqs...)
	if err != nil {
		t.Fatalf("LoadBinding() error = %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	drv, err := b.Driver(name)
	if err != nil {
		t.Fatalf("Driver() error = %v", err)
	}
	return drv
}

// readyContext returns a context set with a 16x16 pbuffer that is
// destroyed when the test ends.
func readyContext(t *testing.T, arb *Arbiter, name string, drv backend.Driver) *DriverContext {
	t.Helper()
	dc := NewDriverContext(name, drv)
	t.Cleanup(func() {
		_ = arb.Forget(dc)
		if err := dc.Destroy(); err != nil {
			t.Errorf("Destroy(%s) error = %v", name, err)
		}
	})
	if err := dc.OpenDisplay(backend.EGL_DEFAULT_DISPLAY); err != nil {
		t.Fatalf("OpenDisplay() error = %v", err)
	}
	if err := dc.ChooseConfig(pbufferRequirements()); err != nil {
		t.Fatalf("ChooseConfig() error = %v", err)
	}
	if err := dc.CreateContext(nil, ES2); err != nil {
		t.Fatalf("CreateContext() error = %v", err)
	}
	if err := dc.CreatePbuffer(16, 16); err != nil {
		t.Fatalf("CreatePbuffer() error = %v", err)
	}
	return dc
}

// pair is a native and a secondary soft driver on one device, bridged.
type pair struct {
	dev    *soft.Device
	be     *soft.Backend
	arb    *Arbiter
	bridge *Bridge
	src    *DriverContext
	dst    *DriverContext
}

func newPair(t *testing.T, opts soft.Options) *pair {
	t.Helper()
	p := &pair{dev: soft.NewDevice(), arb: NewArbiter()}
	p.be = soft.NewBackend(p.dev, opts)
	p.src = readyContext(t, p.arb, "native",
		loadDriver(t, p.be, "native", DefaultRequirements(nativeEGL, nativeGLES)))
	p.dst = readyContext(t, p.arb, "secondary",
		loadDriver(t, p.be, "secondary", DefaultRequirements(secondaryEGL, secondaryGLES)))
	p.bridge = NewBridge(p.arb)
	t.Cleanup(func() {
		if err := p.bridge.Close(); err != nil {
			t.Errorf("Bridge.Close() error = %v", err)
		}
	})
	return p
}

func softStats(dc *DriverContext) soft.Stats {
	return dc.Driver().(*soft.Driver).Stats()
}
