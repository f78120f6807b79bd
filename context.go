package dmabridge

import (
	"fmt"
	"sync"

	"github.com/gogpu/dmabridge/backend"
)

// APIVersion is a requested OpenGL ES context version.
type APIVersion struct {
	Major, Minor int32
}

// ES2 and ES3 are the context versions the bridge works with.
var (
	ES2 = APIVersion{Major: 2}
	ES3 = APIVersion{Major: 3}
)

// displayRefs counts DriverContexts per initialised display. EGL displays
// are per loaded library and native handle, so context sets of one driver,
// or of two bindings of the same library, share a display and only the last
// Destroy terminates it.
var (
	displayMu   sync.Mutex
	displayRefs = make(map[displayKey]int)
)

type displayKey struct {
	owner any
	dpy   backend.Display
}

func keyOf(drv backend.Driver, dpy backend.Display) displayKey {
	if li, ok := drv.(backend.LibraryIdentifier); ok {
		return displayKey{owner: li.LibraryID(), dpy: dpy}
	}
	return displayKey{owner: drv, dpy: dpy}
}

func retainDisplay(drv backend.Driver, dpy backend.Display) {
	displayMu.Lock()
	defer displayMu.Unlock()
	displayRefs[keyOf(drv, dpy)]++
}

// releaseDisplay reports whether the caller held the last reference.
func releaseDisplay(drv backend.Driver, dpy backend.Display) bool {
	displayMu.Lock()
	defer displayMu.Unlock()
	k := keyOf(drv, dpy)
	displayRefs[k]--
	if displayRefs[k] > 0 {
		return false
	}
	delete(displayRefs, k)
	return true
}

// DriverContext is the display, config, context and surface of one driver
// instance. The display owns everything else; Destroy releases the members
// in reverse creation order.
//
// A DriverContext is not safe for concurrent use. All calls must come from
// the thread the arbiter activates contexts on.
type DriverContext struct {
	name string
	drv  backend.Driver

	display backend.Display
	config  backend.Config
	context backend.Context
	surface backend.Surface

	// pbuffer records that surface is offscreen.
	pbuffer bool
	width   int32
	height  int32

	eglMajor, eglMinor backend.Int
	vendor             string
	version            APIVersion
}

// NewDriverContext returns an empty context set for drv.
func NewDriverContext(name string, drv backend.Driver) *DriverContext {
	return &DriverContext{name: name, drv: drv}
}

// Name returns the diagnostic name.
func (dc *DriverContext) Name() string { return dc.name }

// Driver returns the driver the context set belongs to.
func (dc *DriverContext) Driver() backend.Driver { return dc.drv }

// Display returns the EGL display, 0 before OpenDisplay.
func (dc *DriverContext) Display() backend.Display { return dc.display }

// Config returns the chosen config, 0 before ChooseConfig.
func (dc *DriverContext) Config() backend.Config { return dc.config }

// Context returns the EGL context, 0 before CreateContext.
func (dc *DriverContext) Context() backend.Context { return dc.context }

// Surface returns the surface, 0 before CreateSurface or CreatePbuffer.
func (dc *DriverContext) Surface() backend.Surface { return dc.surface }

// Vendor returns the EGL vendor string recorded by OpenDisplay.
func (dc *DriverContext) Vendor() string { return dc.vendor }

// EGLVersion returns the EGL version negotiated by OpenDisplay.
func (dc *DriverContext) EGLVersion() (major, minor int) {
	return int(dc.eglMajor), int(dc.eglMinor)
}

// OpenDisplay gets and initialises the display for native and binds the
// OpenGL ES API.
func (dc *DriverContext) OpenDisplay(native backend.NativeDisplay) error {
	dpy := dc.drv.GetDisplay(native)
	if dpy == 0 {
		return eglError(dc.drv, "eglGetDisplay", ErrDisplayInit)
	}
	major, minor, ok := dc.drv.Initialize(dpy)
	if !ok {
		return eglError(dc.drv, "eglInitialize", ErrDisplayInit)
	}
	dc.display = dpy
	retainDisplay(dc.drv, dpy)
	if !dc.drv.BindAPI(backend.EGL_OPENGL_ES_API) {
		return eglError(dc.drv, "eglBindAPI", ErrDisplayInit)
	}
	dc.eglMajor, dc.eglMinor = major, minor
	dc.vendor = dc.drv.QueryString(dpy, backend.EGL_VENDOR)
	Logger().Info("dmabridge: display initialized",
		"driver", dc.name, "egl", fmt.Sprintf("%d.%d", major, minor), "vendor", dc.vendor)
	return nil
}

// ChooseConfig selects the first config, in driver preference order, whose
// queried attributes satisfy req. Candidates are re-checked with
// eglGetConfigAttrib since drivers disagree on how eglChooseConfig treats
// some attributes.
func (dc *DriverContext) ChooseConfig(req ConfigRequirements) error {
	if dc.display == 0 {
		return fmt.Errorf("%w: %s: display not open", ErrConfigMismatch, dc.name)
	}
	cfgs, ok := dc.drv.ChooseConfig(dc.display, req.Attribs())
	if !ok {
		return eglError(dc.drv, "eglChooseConfig", ErrConfigMismatch)
	}
	for _, cfg := range cfgs {
		attrs, err := dc.configAttribs(cfg)
		if err != nil {
			return err
		}
		if req.satisfies(attrs) {
			dc.config = cfg
			Logger().Debug("dmabridge: config chosen", "driver", dc.name, "config", cfg,
				"rgba", [4]int32{attrs.red, attrs.green, attrs.blue, attrs.alpha},
				"depth", attrs.depth, "stencil", attrs.stencil, "visual", attrs.visualID)
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %d candidates, none satisfies the request", ErrConfigMismatch, dc.name, len(cfgs))
}

func (dc *DriverContext) configAttribs(cfg backend.Config) (configAttribs, error) {
	var c configAttribs
	for _, q := range []struct {
		attr backend.Int
		dst  *int32
	}{
		{backend.EGL_RED_SIZE, &c.red},
		{backend.EGL_GREEN_SIZE, &c.green},
		{backend.EGL_BLUE_SIZE, &c.blue},
		{backend.EGL_ALPHA_SIZE, &c.alpha},
		{backend.EGL_DEPTH_SIZE, &c.depth},
		{backend.EGL_STENCIL_SIZE, &c.stencil},
		{backend.EGL_NATIVE_VISUAL_ID, &c.visualID},
	} {
		v, ok := dc.drv.GetConfigAttrib(dc.display, cfg, q.attr)
		if !ok {
			return c, eglError(dc.drv, "eglGetConfigAttrib", ErrConfigMismatch)
		}
		*q.dst = int32(v)
	}
	var ok bool
	if c.renderable, ok = dc.drv.GetConfigAttrib(dc.display, cfg, backend.EGL_RENDERABLE_TYPE); !ok {
		return c, eglError(dc.drv, "eglGetConfigAttrib", ErrConfigMismatch)
	}
	if c.surfaceType, ok = dc.drv.GetConfigAttrib(dc.display, cfg, backend.EGL_SURFACE_TYPE); !ok {
		return c, eglError(dc.drv, "eglGetConfigAttrib", ErrConfigMismatch)
	}
	return c, nil
}

// NativeVisualID returns the native visual of the chosen config. Windows
// handed to CreateSurface must be created with it.
func (dc *DriverContext) NativeVisualID() (int32, error) {
	if dc.config == 0 {
		return 0, fmt.Errorf("%w: %s: no config chosen", ErrConfigMismatch, dc.name)
	}
	v, ok := dc.drv.GetConfigAttrib(dc.display, dc.config, backend.EGL_NATIVE_VISUAL_ID)
	if !ok {
		return 0, eglError(dc.drv, "eglGetConfigAttrib", ErrConfigMismatch)
	}
	return int32(v), nil
}

// CreateContext creates the rendering context. A non-nil share must belong
// to the same driver instance and hold a live context; objects are then
// visible in both. Sharing across drivers is the job of the Bridge.
func (dc *DriverContext) CreateContext(share *DriverContext, version APIVersion) error {
	if dc.config == 0 {
		return fmt.Errorf("%w: %s: no config chosen", ErrContextCreation, dc.name)
	}
	var shareCtx backend.Context
	if share != nil {
		if share.drv != dc.drv {
			return fmt.Errorf("%w: %s: cannot share with driver %s", ErrContextCreation, dc.name, share.name)
		}
		if share.context == 0 {
			return fmt.Errorf("%w: %s: share context %s not created", ErrContextCreation, dc.name, share.name)
		}
		shareCtx = share.context
	}
	attribs := []backend.Int{backend.EGL_CONTEXT_MAJOR_VERSION, backend.Int(version.Major)}
	if version.Minor != 0 {
		attribs = append(attribs, backend.EGL_CONTEXT_MINOR_VERSION, backend.Int(version.Minor))
	}
	attribs = append(attribs, backend.EGL_NONE)
	ctx := dc.drv.CreateContext(dc.display, dc.config, shareCtx, attribs)
	if ctx == 0 {
		return eglError(dc.drv, "eglCreateContext", ErrContextCreation)
	}
	dc.context = ctx
	dc.version = version
	Logger().Info("dmabridge: context created", "driver", dc.name,
		"version", fmt.Sprintf("%d.%d", version.Major, version.Minor), "shared", share != nil)
	return nil
}

// CreateSurface creates a window surface on win, which must have been
// created with NativeVisualID.
func (dc *DriverContext) CreateSurface(win backend.NativeWindow) error {
	if dc.config == 0 {
		return fmt.Errorf("%w: %s: no config chosen", ErrSurfaceCreation, dc.name)
	}
	s := dc.drv.CreateWindowSurface(dc.display, dc.config, win, nil)
	if s == 0 {
		return eglError(dc.drv, "eglCreateWindowSurface", ErrSurfaceCreation)
	}
	dc.surface = s
	dc.pbuffer = false
	Logger().Debug("dmabridge: window surface created", "driver", dc.name, "window", win)
	return nil
}

// CreatePbuffer creates an offscreen surface of the given size.
func (dc *DriverContext) CreatePbuffer(width, height int32) error {
	if dc.config == 0 {
		return fmt.Errorf("%w: %s: no config chosen", ErrSurfaceCreation, dc.name)
	}
	s := dc.drv.CreatePbufferSurface(dc.display, dc.config, []backend.Int{
		backend.EGL_WIDTH, backend.Int(width),
		backend.EGL_HEIGHT, backend.Int(height),
		backend.EGL_NONE,
	})
	if s == 0 {
		return eglError(dc.drv, "eglCreatePbufferSurface", ErrSurfaceCreation)
	}
	dc.surface = s
	dc.pbuffer = true
	dc.width, dc.height = width, height
	Logger().Debug("dmabridge: pbuffer created", "driver", dc.name, "width", width, "height", height)
	return nil
}

// SwapBuffers presents the surface. The context must be current.
func (dc *DriverContext) SwapBuffers() error {
	if dc.pbuffer {
		return nil
	}
	if !dc.drv.SwapBuffers(dc.display, dc.surface) {
		return eglError(dc.drv, "eglSwapBuffers", ErrSurfaceCreation)
	}
	return nil
}

// DestroySurface releases the surface only, e.g. before destroying the
// window it was created on.
func (dc *DriverContext) DestroySurface() error {
	if dc.surface == 0 {
		return nil
	}
	ok := dc.drv.DestroySurface(dc.display, dc.surface)
	dc.surface = 0
	if !ok {
		return eglError(dc.drv, "eglDestroySurface", ErrSurfaceCreation)
	}
	return nil
}

// Destroy releases the surface, then the context, then the display,
// skipping members that were never created. It is safe on a partially
// built set and on repeated calls. The context must not be current on the
// arbiter; call Arbiter.Forget first.
func (dc *DriverContext) Destroy() error {
	if dc.display == 0 {
		return nil
	}
	var first error
	if err := dc.DestroySurface(); err != nil {
		first = err
	}
	if dc.context != 0 {
		if !dc.drv.DestroyContext(dc.display, dc.context) && first == nil {
			first = eglError(dc.drv, "eglDestroyContext", ErrContextCreation)
		}
		dc.context = 0
	}
	if releaseDisplay(dc.drv, dc.display) {
		if !dc.drv.Terminate(dc.display) && first == nil {
			first = eglError(dc.drv, "eglTerminate", ErrDisplayInit)
		}
	}
	dc.display = 0
	dc.config = 0
	Logger().Debug("dmabridge: driver context destroyed", "driver", dc.name)
	return first
}
