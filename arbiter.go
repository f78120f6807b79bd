package dmabridge

import (
	"fmt"

	"github.com/gogpu/dmabridge/backend"
)

// ArbiterStats counts make-current traffic.
type ArbiterStats struct {
	// Activations is the number of Activate calls that made a triple current.
	Activations int

	// Deactivations is the number of null triples made current, including
	// those issued when switching drivers.
	Deactivations int

	// Switches is the number of activations that changed the driver.
	Switches int
}

// Arbiter serialises make-current calls across driver instances.
//
// Some drivers remember the triple they made current last and skip
// eglMakeCurrent when asked for the same triple again, even after another
// driver has taken the hardware binding. Before switching to a different
// driver the arbiter therefore makes a null triple current on the driver
// that was active, which resets its cache and guarantees the next
// activation on it is real.
//
// An Arbiter belongs to one OS thread.
type Arbiter struct {
	last  *DriverContext
	stats ArbiterStats
}

// NewArbiter returns an arbiter with nothing active.
func NewArbiter() *Arbiter {
	return &Arbiter{}
}

// Activate makes dc's context and surface current.
func (a *Arbiter) Activate(dc *DriverContext) error {
	if dc.context == 0 {
		return fmt.Errorf("%w: %s: no context", ErrMakeCurrent, dc.name)
	}
	if a.last != nil && a.last.drv != dc.drv {
		if err := a.detach(a.last); err != nil {
			return err
		}
		a.stats.Switches++
	}
	Logger().Debug("dmabridge: eglMakeCurrent", "driver", dc.name, "context", dc.context, "surface", dc.surface)
	if !dc.drv.MakeCurrent(dc.display, dc.surface, dc.surface, dc.context) {
		return eglError(dc.drv, "eglMakeCurrent", ErrMakeCurrent)
	}
	a.last = dc
	a.stats.Activations++
	return nil
}

// Deactivate detaches the last activated context, if any.
func (a *Arbiter) Deactivate() error {
	if a.last == nil {
		return nil
	}
	return a.detach(a.last)
}

func (a *Arbiter) detach(dc *DriverContext) error {
	Logger().Debug("dmabridge: eglMakeCurrent null", "driver", dc.name)
	if !dc.drv.MakeCurrent(dc.display, 0, 0, backend.Context(0)) {
		return eglError(dc.drv, "eglMakeCurrent", ErrMakeCurrent)
	}
	a.last = nil
	a.stats.Deactivations++
	return nil
}

// Forget detaches dc if it is the active context. Call it before
// destroying dc.
func (a *Arbiter) Forget(dc *DriverContext) error {
	if a.last != dc {
		return nil
	}
	return a.detach(dc)
}

// Current returns the last activated context, nil if none.
func (a *Arbiter) Current() *DriverContext { return a.last }

// Stats returns the make-current counters.
func (a *Arbiter) Stats() ArbiterStats { return a.stats }
