//go:build linux

package dmabridge

import (
	"errors"
	"testing"

	"github.com/gogpu/dmabridge/backend"
	"github.com/gogpu/dmabridge/backend/soft"
)

// TestArbiterIdempotent tests that activating the same triple twice leaves
// the same hardware binding as activating it once.
func TestArbiterIdempotent(t *testing.T) {
	p := newPair(t, soft.Options{CacheCurrent: true})
	if err := p.arb.Activate(p.src); err != nil {
		t.Fatal(err)
	}
	drv1, ctx1, ok1 := p.dev.Bound()
	if err := p.arb.Activate(p.src); err != nil {
		t.Fatal(err)
	}
	drv2, ctx2, ok2 := p.dev.Bound()
	if drv1 != drv2 || ctx1 != ctx2 || ok1 != ok2 {
		t.Errorf("Bound() = %q, %v, %v after second activation, want %q, %v, %v", drv2, ctx2, ok2, drv1, ctx1, ok1)
	}
	if ctx2 != p.src.Context() {
		t.Errorf("bound context = %v, want %v", ctx2, p.src.Context())
	}
	st := p.arb.Stats()
	if st.Activations != 2 || st.Deactivations != 0 || st.Switches != 0 {
		t.Errorf("Stats() = %+v, want 2 activations only", st)
	}
	if p.arb.Current() != p.src {
		t.Error("Current() is not the activated context")
	}
}

// TestArbiterStaleCache tests the driver switch on drivers that cache their
// last triple. Bypassing the arbiter the return to the first driver is
// elided and its calls go nowhere; through the arbiter they land.
func TestArbiterStaleCache(t *testing.T) {
	t.Run("raw", func(t *testing.T) {
		p := newPair(t, soft.Options{CacheCurrent: true})
		for _, dc := range []*DriverContext{p.src, p.dst, p.src} {
			if !dc.drv.MakeCurrent(dc.display, dc.surface, dc.surface, dc.context) {
				t.Fatalf("MakeCurrent(%s) failed", dc.name)
			}
		}
		if drv, _, _ := p.dev.Bound(); drv != "secondary" {
			t.Fatalf("Bound() = %q, want the stale secondary binding", drv)
		}
		before := p.dev.Misdirected()
		p.src.drv.GenTexture()
		if p.dev.Misdirected() != before+1 {
			t.Error("GL call on the elided driver was not misdirected")
		}
		// Leave both drivers detached for the cleanup.
		p.dst.drv.MakeCurrent(p.dst.display, 0, 0, 0)
		p.src.drv.MakeCurrent(p.src.display, 0, 0, 0)
	})

	t.Run("arbiter", func(t *testing.T) {
		p := newPair(t, soft.Options{CacheCurrent: true})
		for _, dc := range []*DriverContext{p.src, p.dst, p.src} {
			if err := p.arb.Activate(dc); err != nil {
				t.Fatalf("Activate(%s) error = %v", dc.name, err)
			}
		}
		drv, ctx, ok := p.dev.Bound()
		if !ok || drv != "native" || ctx != p.src.Context() {
			t.Fatalf("Bound() = %q, %v, %v, want native", drv, ctx, ok)
		}
		before := p.dev.Misdirected()
		if tex := p.src.drv.GenTexture(); tex == 0 {
			t.Error("GenTexture() = 0")
		}
		if p.dev.Misdirected() != before {
			t.Error("GL call after the arbiter switch was misdirected")
		}
		st := p.arb.Stats()
		if st.Switches != 2 || st.Deactivations != 2 || st.Activations != 3 {
			t.Errorf("Stats() = %+v, want 3 activations, 2 switches, 2 deactivations", st)
		}
	})
}

func TestArbiterDeactivateForget(t *testing.T) {
	p := newPair(t, soft.Options{})
	if err := p.arb.Deactivate(); err != nil {
		t.Errorf("Deactivate() with nothing active error = %v", err)
	}
	if err := p.arb.Activate(p.dst); err != nil {
		t.Fatal(err)
	}
	if err := p.arb.Forget(p.src); err != nil {
		t.Errorf("Forget(inactive) error = %v", err)
	}
	if p.arb.Current() != p.dst {
		t.Error("Forget(inactive) detached the active context")
	}
	if err := p.arb.Forget(p.dst); err != nil {
		t.Errorf("Forget(active) error = %v", err)
	}
	if p.arb.Current() != nil {
		t.Error("Current() != nil after Forget")
	}
	if _, _, ok := p.dev.Bound(); ok {
		t.Error("device still bound after Forget")
	}

	if err := p.arb.Activate(p.src); err != nil {
		t.Fatal(err)
	}
	if err := p.arb.Deactivate(); err != nil {
		t.Errorf("Deactivate() error = %v", err)
	}
	if _, _, ok := p.dev.Bound(); ok {
		t.Error("device still bound after Deactivate")
	}
}

func TestArbiterErrors(t *testing.T) {
	p := newPair(t, soft.Options{})
	empty := NewDriverContext("native", p.src.Driver())
	if err := p.arb.Activate(empty); !errors.Is(err, ErrMakeCurrent) {
		t.Errorf("Activate(no context) error = %v, want ErrMakeCurrent", err)
	}

	// A surface of another config cannot be made current with the context.
	bad := *p.src
	bad.surface = backend.Surface(0xdead)
	err := p.arb.Activate(&bad)
	var de *DriverError
	if !errors.Is(err, ErrMakeCurrent) || !errors.As(err, &de) || de.Call != "eglMakeCurrent" {
		t.Errorf("Activate(bad surface) error = %v, want an eglMakeCurrent DriverError", err)
	}
	if p.arb.Current() == &bad {
		t.Error("failed activation recorded as current")
	}
}
