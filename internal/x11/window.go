// Package x11 implements dmabridge.WindowSystem on the X protocol with xgb.
//
// The EGL drivers open their own Xlib connection through
// EGL_DEFAULT_DISPLAY; the windows created here are plain X resources and
// are shared with the drivers by XID.
package x11

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/gogpu/dmabridge"
	"github.com/gogpu/dmabridge/backend"
)

// ErrNoVisual is returned when the screen has no visual with the requested
// id.
var ErrNoVisual = errors.New("x11: visual not found")

// eventMask selects the events the session needs.
const eventMask = xproto.EventMaskStructureNotify | xproto.EventMaskExposure | xproto.EventMaskKeyPress

// WindowSystem connects to an X server. Each window gets its own
// connection, closed when the window is destroyed.
type WindowSystem struct {
	display string

	mu     sync.Mutex
	logger *slog.Logger
}

// New returns a window system for the given display name; empty uses
// $DISPLAY.
func New(display string) *WindowSystem {
	return &WindowSystem{display: display}
}

// SetLogger sets the logger for window events and errors.
func (ws *WindowSystem) SetLogger(l *slog.Logger) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.logger = l
}

func (ws *WindowSystem) log() *slog.Logger {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.logger == nil {
		return dmabridge.Logger()
	}
	return ws.logger
}

// NativeDisplay implements dmabridge.WindowSystem. xgb speaks the wire
// protocol and has no Xlib Display, so drivers use their default display.
func (ws *WindowSystem) NativeDisplay() backend.NativeDisplay {
	return backend.EGL_DEFAULT_DISPLAY
}

// findVisual returns the depth of the visual with the given id.
func findVisual(screen *xproto.ScreenInfo, id xproto.Visualid) (byte, bool) {
	for _, d := range screen.AllowedDepths {
		for _, v := range d.Visuals {
			if v.VisualId == id {
				return d.Depth, true
			}
		}
	}
	return 0, false
}

// CreateWindow implements dmabridge.WindowSystem. The window accepts
// WM_DELETE_WINDOW and is mapped before it is returned.
func (ws *WindowSystem) CreateWindow(visualID, width, height int32, title string) (dmabridge.Window, error) {
	if width <= 0 || height <= 0 || width > 0xffff || height > 0xffff {
		return nil, fmt.Errorf("x11: invalid window size %dx%d", width, height)
	}
	xu, err := xgbutil.NewConnDisplay(ws.display)
	if err != nil {
		return nil, fmt.Errorf("x11: connect: %w", err)
	}
	w, err := createWindow(xu, visualID, width, height, title)
	if err != nil {
		xu.Conn().Close()
		return nil, err
	}
	w.log = ws.log()
	w.log.Info("x11: window created", "window", uint32(w.id), "visual", visualID, "width", width, "height", height)
	go w.read()
	return w, nil
}

func createWindow(xu *xgbutil.XUtil, visualID, width, height int32, title string) (*Window, error) {
	c := xu.Conn()
	screen := xu.Screen()
	visual := xproto.Visualid(visualID) //nolint:gosec // G115: visual ids are 32-bit XIDs
	depth, ok := findVisual(screen, visual)
	if !ok {
		return nil, fmt.Errorf("%w: %#x", ErrNoVisual, visualID)
	}

	cmap, err := xproto.NewColormapId(c)
	if err != nil {
		return nil, fmt.Errorf("x11: colormap id: %w", err)
	}
	if err := xproto.CreateColormapChecked(c, xproto.ColormapAllocNone, cmap, screen.Root, visual).Check(); err != nil {
		return nil, fmt.Errorf("x11: create colormap: %w", err)
	}
	wid, err := xproto.NewWindowId(c)
	if err != nil {
		xproto.FreeColormap(c, cmap)
		return nil, fmt.Errorf("x11: window id: %w", err)
	}
	//nolint:gosec // G115: size checked by CreateWindow
	err = xproto.CreateWindowChecked(c, depth, wid, screen.Root, 0, 0, uint16(width), uint16(height), 0,
		xproto.WindowClassInputOutput, visual,
		xproto.CwBackPixel|xproto.CwBorderPixel|xproto.CwEventMask|xproto.CwColormap,
		[]uint32{screen.BlackPixel, 0, eventMask, uint32(cmap)}).Check()
	if err != nil {
		xproto.FreeColormap(c, cmap)
		return nil, fmt.Errorf("x11: create window: %w", err)
	}

	keybind.Initialize(xu)
	if err := icccm.WmProtocolsSet(xu, wid, []string{"WM_DELETE_WINDOW"}); err != nil {
		xproto.DestroyWindow(c, wid)
		xproto.FreeColormap(c, cmap)
		return nil, fmt.Errorf("x11: set WM_PROTOCOLS: %w", err)
	}
	// Naming failures only affect the window manager's display.
	_ = icccm.WmNameSet(xu, wid, title)
	_ = ewmh.WmNameSet(xu, wid, title)
	_ = icccm.WmClassSet(xu, wid, &icccm.WmClass{Instance: "texbridge", Class: "Texbridge"})
	_ = ewmh.WmPidSet(xu, wid, uint(os.Getpid())) //nolint:gosec // G115: pids are positive

	if err := xproto.MapWindowChecked(c, wid).Check(); err != nil {
		xproto.DestroyWindow(c, wid)
		xproto.FreeColormap(c, cmap)
		return nil, fmt.Errorf("x11: map window: %w", err)
	}

	w := &Window{
		xu:      xu,
		id:      wid,
		cmap:    cmap,
		width:   width,
		height:  height,
		events:  make(chan dmabridge.Event, 64),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	w.tr = &translator{
		win:    wid,
		width:  width,
		height: height,
		isDelete: func(ev xproto.ClientMessageEvent) bool {
			return icccm.IsDeleteProtocol(xu, xevent.ClientMessageEvent{ClientMessageEvent: &ev})
		},
		keysym: func(code xproto.Keycode) xproto.Keysym {
			return keybind.KeysymGet(xu, code, 0)
		},
	}
	return w, nil
}

// Window is an X window with a goroutine reading its events.
type Window struct {
	xu   *xgbutil.XUtil
	id   xproto.Window
	cmap xproto.Colormap
	tr   *translator
	log  *slog.Logger

	mu            sync.Mutex
	width, height int32

	events  chan dmabridge.Event
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// Native implements dmabridge.Window. The handle is the window XID.
func (w *Window) Native() backend.NativeWindow { return backend.NativeWindow(w.id) }

// Size implements dmabridge.Window.
func (w *Window) Size() (width, height int32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// Events implements dmabridge.Window.
func (w *Window) Events() <-chan dmabridge.Event { return w.events }

func (w *Window) read() {
	defer close(w.stopped)
	defer close(w.events)
	for {
		ev, xerr := w.xu.Conn().WaitForEvent()
		if ev == nil && xerr == nil {
			return
		}
		if xerr != nil {
			w.log.Warn("x11: protocol error", "err", xerr.Error())
			continue
		}
		out, ok := w.tr.translate(ev)
		if !ok {
			continue
		}
		if out.Kind == dmabridge.EventResized {
			w.mu.Lock()
			w.width, w.height = out.Width, out.Height
			w.mu.Unlock()
		}
		select {
		case w.events <- out:
		case <-w.done:
			return
		}
	}
}

// Destroy implements dmabridge.Window. It destroys the window, closes the
// connection and waits for the event reader to finish.
func (w *Window) Destroy() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		c := w.xu.Conn()
		err = xproto.DestroyWindowChecked(c, w.id).Check()
		xproto.FreeColormap(c, w.cmap)
		c.Close()
		<-w.stopped
		w.log.Info("x11: window destroyed", "window", uint32(w.id))
	})
	return err
}

var (
	_ dmabridge.WindowSystem = (*WindowSystem)(nil)
	_ dmabridge.Window       = (*Window)(nil)
)
