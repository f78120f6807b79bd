package x11

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/gogpu/dmabridge"
	"github.com/gogpu/gpucontext"
)

// translator turns X events for one window into session events.
type translator struct {
	win           xproto.Window
	width, height int32

	// isDelete reports whether a client message is WM_DELETE_WINDOW.
	isDelete func(xproto.ClientMessageEvent) bool
	// keysym looks up the unshifted keysym of a keycode.
	keysym func(xproto.Keycode) xproto.Keysym
}

// translate returns the event for ev, or false when ev is for another
// window or carries nothing the session acts on.
func (t *translator) translate(ev xgb.Event) (dmabridge.Event, bool) {
	switch e := ev.(type) {
	case xproto.MapNotifyEvent:
		if e.Window == t.win {
			return dmabridge.Event{Kind: dmabridge.EventMapped}, true
		}
	case xproto.UnmapNotifyEvent:
		if e.Window == t.win {
			return dmabridge.Event{Kind: dmabridge.EventUnmapped}, true
		}
	case xproto.ConfigureNotifyEvent:
		w, h := int32(e.Width), int32(e.Height)
		if e.Window != t.win || (w == t.width && h == t.height) {
			return dmabridge.Event{}, false
		}
		t.width, t.height = w, h
		return dmabridge.Event{Kind: dmabridge.EventResized, Width: w, Height: h}, true
	case xproto.ExposeEvent:
		// Only the last of a series of exposures asks for a redraw.
		if e.Window == t.win && e.Count == 0 {
			return dmabridge.Event{Kind: dmabridge.EventExpose}, true
		}
	case xproto.ClientMessageEvent:
		if e.Window == t.win && t.isDelete(e) {
			return dmabridge.Event{Kind: dmabridge.EventCloseRequested}, true
		}
	case xproto.KeyPressEvent:
		if e.Event != t.win {
			break
		}
		if k := KeyFromKeysym(t.keysym(e.Detail)); k != gpucontext.KeyUnknown {
			return dmabridge.Event{Kind: dmabridge.EventKeyPressed, Key: k}, true
		}
	}
	return dmabridge.Event{}, false
}
