package dmabridge

import (
	"fmt"

	"github.com/gogpu/dmabridge/backend"
	"github.com/gogpu/gpucontext"
)

// EventKind identifies a window event.
type EventKind uint8

const (
	// EventMapped is sent when the window becomes visible.
	EventMapped EventKind = iota + 1

	// EventUnmapped is sent when the window is hidden.
	EventUnmapped

	// EventResized carries the new size in Width and Height.
	EventResized

	// EventExpose asks for a redraw.
	EventExpose

	// EventCloseRequested is sent when the user closes the window.
	EventCloseRequested

	// EventKeyPressed carries the key in Key.
	EventKeyPressed
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventMapped:
		return "Mapped"
	case EventUnmapped:
		return "Unmapped"
	case EventResized:
		return "Resized"
	case EventExpose:
		return "Expose"
	case EventCloseRequested:
		return "CloseRequested"
	case EventKeyPressed:
		return "KeyPressed"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// Event is a window lifecycle or input event.
type Event struct {
	Kind   EventKind
	Width  int32
	Height int32
	Key    gpucontext.Key
}

// WindowSystem creates native windows for EGL window surfaces.
type WindowSystem interface {
	// NativeDisplay returns the handle passed to eglGetDisplay.
	NativeDisplay() backend.NativeDisplay

	// CreateWindow creates and maps a window whose pixel format is the
	// given native visual.
	CreateWindow(visualID int32, width, height int32, title string) (Window, error)
}

// Window is a native window.
type Window interface {
	// Native returns the handle passed to eglCreateWindowSurface.
	Native() backend.NativeWindow

	// Size returns the current size.
	Size() (width, height int32)

	// Events returns the event stream. It is closed when the window is
	// destroyed or the connection is lost.
	Events() <-chan Event

	// Destroy destroys the window.
	Destroy() error
}

// Renderer draws a texture on one driver context. All calls are made with
// that context current.
type Renderer interface {
	// Init prepares drawing tex on dc.
	Init(dc *DriverContext, tex backend.Texture) error

	// Resize sets the viewport for the following draws.
	Resize(width, height int32)

	// Draw renders one frame.
	Draw() error

	// Release frees what Init created.
	Release() error
}
