package dmabridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/dmabridge/backend"
	"github.com/gogpu/gpucontext"
)

// State is the lifecycle state of a Session.
type State uint8

const (
	StateUninitialized State = iota
	StateDriversBound
	StateContextsReady
	StateSurfacesReady
	StateImageBridged
	StateRunning
	StateShuttingDown
	StateTerminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateDriversBound:
		return "DriversBound"
	case StateContextsReady:
		return "ContextsReady"
	case StateSurfacesReady:
		return "SurfacesReady"
	case StateImageBridged:
		return "ImageBridged"
	case StateRunning:
		return "Running"
	case StateShuttingDown:
		return "ShuttingDown"
	case StateTerminated:
		return "Terminated"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Default session size.
const (
	DefaultWidth  = 256
	DefaultHeight = 256
)

// SessionConfig configures a Session.
type SessionConfig struct {
	// Backend opens the driver libraries of both drivers.
	Backend backend.Backend

	// Native and Secondary are the library requirements of the exporting
	// and the rendering driver.
	Native    []Requirement
	Secondary []Requirement

	// Config is the config request for both drivers. The zero value selects
	// DefaultConfigRequirements, with a pbuffer surface type when headless.
	Config ConfigRequirements

	// Version is the requested context version, ES2 when zero.
	Version APIVersion

	// Width and Height are the texture and initial window size.
	Width, Height int32

	// Title is the window title.
	Title string

	// Headless uses pbuffer surfaces and no window system.
	Headless bool

	// WindowSystem creates the window. Required unless Headless.
	WindowSystem WindowSystem

	// Renderer draws the imported texture each frame. Optional.
	Renderer Renderer

	// Pixels is the exported content; Pattern when nil.
	Pixels []byte
}

func (c *SessionConfig) setDefaults() {
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.Version == (APIVersion{}) {
		c.Version = ES2
	}
	if c.Config == (ConfigRequirements{}) {
		c.Config = DefaultConfigRequirements()
		if c.Headless {
			c.Config.SurfaceType = backend.EGL_PBUFFER_BIT
		}
	}
	if c.Title == "" {
		c.Title = "dmabridge"
	}
	if c.Pixels == nil {
		c.Pixels = Pattern(int(c.Width), int(c.Height))
	}
}

type cleanup struct {
	name string
	fn   func() error
}

// Session runs the two-driver pipeline: bind both drivers, create their
// contexts and surfaces, export a texture from the native driver, import it
// into the secondary one and draw it on window events.
//
// A Session must be used from one OS thread.
type Session struct {
	cfg   SessionConfig
	state State

	cleanups []cleanup

	arb       *Arbiter
	bridge    *Bridge
	native    *DriverContext
	secondary *DriverContext
	window    Window
	exported  *ExportedTexture
	imported  *ImportedTexture

	width, height int32
	mapped        bool
	redraw        bool
	frames        int
}

// NewSession validates cfg and returns a session in StateUninitialized.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Backend == nil {
		return nil, errors.New("dmabridge: session needs a backend")
	}
	if len(cfg.Native) == 0 || len(cfg.Secondary) == 0 {
		return nil, errors.New("dmabridge: session needs native and secondary requirements")
	}
	if !cfg.Headless && cfg.WindowSystem == nil {
		return nil, errors.New("dmabridge: windowed session needs a window system")
	}
	if cfg.Width < 0 || cfg.Height < 0 {
		return nil, fmt.Errorf("dmabridge: invalid size %dx%d", cfg.Width, cfg.Height)
	}
	cfg.setDefaults()
	return &Session{
		cfg:    cfg,
		arb:    NewArbiter(),
		width:  cfg.Width,
		height: cfg.Height,
	}, nil
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Frames returns the number of frames drawn.
func (s *Session) Frames() int { return s.frames }

// Size returns the current viewport size.
func (s *Session) Size() (width, height int32) { return s.width, s.height }

// Arbiter returns the session's arbiter.
func (s *Session) Arbiter() *Arbiter { return s.arb }

// Bridge returns the bridge, nil before StateImageBridged.
func (s *Session) Bridge() *Bridge { return s.bridge }

// Exported returns the exported texture, nil before StateImageBridged.
func (s *Session) Exported() *ExportedTexture { return s.exported }

// Imported returns the imported texture, nil before StateImageBridged.
func (s *Session) Imported() *ImportedTexture { return s.imported }

func (s *Session) enter(st State) {
	Logger().Info("dmabridge: session state", "from", s.state.String(), "to", st.String())
	s.state = st
}

func (s *Session) push(name string, fn func() error) {
	s.cleanups = append(s.cleanups, cleanup{name: name, fn: fn})
}

// unwind runs the pushed cleanups in reverse order.
func (s *Session) unwind() error {
	var errs []error
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		c := s.cleanups[i]
		if err := c.fn(); err != nil {
			Logger().Warn("dmabridge: cleanup failed", "step", c.name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	s.cleanups = nil
	return errors.Join(errs...)
}

// Start walks the session from StateUninitialized to StateImageBridged.
// A failing step returns a *StepError naming the state it was heading for;
// everything acquired by the completed steps is released and the session
// ends in StateTerminated.
func (s *Session) Start() error {
	if s.state != StateUninitialized {
		return fmt.Errorf("dmabridge: start in state %s", s.state)
	}
	attachLogger(s.cfg.Renderer)
	attachLogger(s.cfg.WindowSystem)
	steps := []struct {
		to State
		fn func() error
	}{
		{StateDriversBound, s.bindDrivers},
		{StateContextsReady, s.createContexts},
		{StateSurfacesReady, s.createSurfaces},
		{StateImageBridged, s.bridgeImage},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			if uerr := s.unwind(); uerr != nil {
				err = errors.Join(err, uerr)
			}
			s.detachLoggers()
			s.enter(StateTerminated)
			return &StepError{Step: step.to, Err: err}
		}
		s.enter(step.to)
	}
	return nil
}

func (s *Session) detachLoggers() {
	detachLogger(s.cfg.Renderer)
	detachLogger(s.cfg.WindowSystem)
}

func (s *Session) bindDrivers() error {
	bind := func(name string, reqs []Requirement) (backend.Driver, error) {
		b, err := LoadBinding(s.cfg.Backend, reqs...)
		if err != nil {
			return nil, err
		}
		s.push(name+" binding", b.Close)
		return b.Driver(name)
	}
	nativeDrv, err := bind("native", s.cfg.Native)
	if err != nil {
		return err
	}
	secondaryDrv, err := bind("secondary", s.cfg.Secondary)
	if err != nil {
		return err
	}
	s.native = NewDriverContext("native", nativeDrv)
	s.secondary = NewDriverContext("secondary", secondaryDrv)
	return nil
}

func (s *Session) nativeDisplay() backend.NativeDisplay {
	if s.cfg.Headless {
		return backend.EGL_DEFAULT_DISPLAY
	}
	return s.cfg.WindowSystem.NativeDisplay()
}

func (s *Session) createContexts() error {
	native := s.nativeDisplay()
	for _, dc := range []*DriverContext{s.native, s.secondary} {
		s.push(dc.name+" context", func() error {
			return errors.Join(s.arb.Forget(dc), dc.Destroy())
		})
		if err := dc.OpenDisplay(native); err != nil {
			return err
		}
	}
	if err := s.native.ChooseConfig(s.cfg.Config); err != nil {
		return err
	}
	req := s.cfg.Config
	if !s.cfg.Headless {
		// Both surfaces live on one window, so the secondary config must
		// use the same visual.
		visual, err := s.native.NativeVisualID()
		if err != nil {
			return err
		}
		req.NativeVisualID = visual
	}
	if err := s.secondary.ChooseConfig(req); err != nil {
		return err
	}
	for _, dc := range []*DriverContext{s.native, s.secondary} {
		if err := dc.CreateContext(nil, s.cfg.Version); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) createSurfaces() error {
	if !s.cfg.Headless {
		visual, err := s.native.NativeVisualID()
		if err != nil {
			return err
		}
		win, err := s.cfg.WindowSystem.CreateWindow(visual, s.cfg.Width, s.cfg.Height, s.cfg.Title)
		if err != nil {
			return fmt.Errorf("%w: create window: %w", ErrSurfaceCreation, err)
		}
		s.window = win
		s.push("window", win.Destroy)
		s.width, s.height = win.Size()
	}
	s.push("surfaces", func() error {
		var errs []error
		for _, dc := range []*DriverContext{s.secondary, s.native} {
			errs = append(errs, s.arb.Forget(dc), dc.DestroySurface())
		}
		return errors.Join(errs...)
	})
	for _, dc := range []*DriverContext{s.native, s.secondary} {
		var err error
		if s.cfg.Headless {
			err = dc.CreatePbuffer(s.cfg.Width, s.cfg.Height)
		} else {
			err = dc.CreateSurface(s.window.Native())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) bridgeImage() error {
	s.bridge = NewBridge(s.arb)
	s.push("bridge", s.bridge.Close)
	spec := TextureSpec{Width: s.cfg.Width, Height: s.cfg.Height, Format: FormatRGBA8}
	exp, err := s.bridge.Export(s.native, spec, s.cfg.Pixels)
	if err != nil {
		return err
	}
	s.exported = exp
	imp, err := s.bridge.Import(s.secondary, exp, spec.Width, spec.Height)
	if err != nil {
		return err
	}
	s.imported = imp
	if s.cfg.Headless || s.cfg.Renderer == nil {
		return nil
	}
	if err := s.arb.Activate(s.secondary); err != nil {
		return err
	}
	if err := s.cfg.Renderer.Init(s.secondary, imp.Texture()); err != nil {
		return err
	}
	s.push("renderer", func() error {
		if err := s.arb.Activate(s.secondary); err != nil {
			return err
		}
		return s.cfg.Renderer.Release()
	})
	s.cfg.Renderer.Resize(s.width, s.height)
	return nil
}

// Run pumps window events until the window is closed, the cancel key is
// pressed, the event stream ends or ctx is done. It returns with the
// session in StateShuttingDown; call Shutdown to release it.
func (s *Session) Run(ctx context.Context) error {
	if s.state != StateImageBridged {
		return fmt.Errorf("dmabridge: run in state %s", s.state)
	}
	if s.cfg.Headless {
		return errors.New("dmabridge: headless session has no event loop")
	}
	s.enter(StateRunning)
	events := s.window.Events()
	for s.state == StateRunning {
		select {
		case <-ctx.Done():
			s.enter(StateShuttingDown)
			return nil
		case ev, ok := <-events:
			if !ok {
				s.enter(StateShuttingDown)
				return nil
			}
			s.handle(ev)
		}
		if s.redraw && s.mapped && s.state == StateRunning {
			s.redraw = false
			if err := s.draw(); err != nil {
				s.enter(StateShuttingDown)
				return err
			}
		}
	}
	return nil
}

// handle applies one event to the session state.
func (s *Session) handle(ev Event) {
	Logger().Debug("dmabridge: event", "kind", ev.Kind.String(), "width", ev.Width, "height", ev.Height)
	switch ev.Kind {
	case EventMapped:
		s.mapped = true
	case EventUnmapped:
		s.mapped = false
	case EventResized:
		if ev.Width <= 0 || ev.Height <= 0 || (ev.Width == s.width && ev.Height == s.height) {
			return
		}
		s.width, s.height = ev.Width, ev.Height
		if s.cfg.Renderer != nil {
			if err := s.arb.Activate(s.secondary); err != nil {
				Logger().Warn("dmabridge: resize skipped", "width", ev.Width, "height", ev.Height, "err", err)
			} else {
				s.cfg.Renderer.Resize(ev.Width, ev.Height)
			}
		}
		s.redraw = true
	case EventExpose:
		if s.mapped {
			s.redraw = true
		}
	case EventCloseRequested:
		s.enter(StateShuttingDown)
	case EventKeyPressed:
		switch ev.Key {
		case gpucontext.KeyEscape:
			s.enter(StateShuttingDown)
		case gpucontext.KeySpace:
			if err := s.Verify(); err != nil {
				Logger().Warn("dmabridge: verification failed", "err", err)
			} else {
				Logger().Info("dmabridge: verification passed")
			}
		}
	}
}

func (s *Session) draw() error {
	if s.cfg.Renderer == nil {
		return nil
	}
	if err := s.arb.Activate(s.secondary); err != nil {
		return err
	}
	if err := s.cfg.Renderer.Draw(); err != nil {
		return err
	}
	if err := s.secondary.SwapBuffers(); err != nil {
		return err
	}
	s.frames++
	return nil
}

// Readback returns the imported texture's pixels as read by the secondary
// driver.
func (s *Session) Readback() ([]byte, error) {
	if s.imported == nil {
		return nil, fmt.Errorf("dmabridge: readback in state %s", s.state)
	}
	return s.imported.ReadPixels()
}

// Verify compares the secondary driver's view of the texture with the
// exported pixels. The error wraps ErrVerification on a mismatch.
func (s *Session) Verify() error {
	if s.imported == nil {
		return fmt.Errorf("%w: nothing imported (state %s)", ErrVerification, s.state)
	}
	if s.imported.Stale() {
		return fmt.Errorf("%w: exporter has unflushed writes", ErrVerification)
	}
	got, err := s.imported.ReadPixels()
	if err != nil {
		return err
	}
	return ComparePixels(got, s.cfg.Pixels[:len(got)], int(s.cfg.Width))
}

// Shutdown releases the renderer, the imported and exported textures, the
// surfaces, the window, both contexts and both bindings, in that order.
// It is safe to call in any state and more than once.
func (s *Session) Shutdown() error {
	if s.state == StateTerminated {
		return nil
	}
	if s.state != StateShuttingDown {
		s.enter(StateShuttingDown)
	}
	err := s.unwind()
	s.detachLoggers()
	s.exported, s.imported = nil, nil
	s.enter(StateTerminated)
	return err
}
