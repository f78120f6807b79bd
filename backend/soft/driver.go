//go:build linux

package soft

import (
	"github.com/gogpu/dmabridge/backend"
)

// maxTextureSize is GL_MAX_TEXTURE_SIZE of soft contexts.
const maxTextureSize = 16384

const (
	maxTextureUnits = 8
	maxAttribs      = 16
)

// Driver is one soft driver instance. It keeps its own displays, contexts,
// surfaces, images and error state, like a separately loaded libEGL would.
//
// A Driver must be used from one goroutine.
type Driver struct {
	name    string
	dev     *Device
	opts    Options
	configs []ConfigDesc

	eglErr backend.Int
	api    backend.Enum

	displays map[backend.NativeDisplay]*display
	byHandle map[backend.Display]*display
	contexts map[backend.Context]*context
	surfaces map[backend.Surface]*surface
	images   map[backend.Image]*image

	// current is the context this driver believes is bound; last is the
	// triple of the last eglMakeCurrent call that reached the device.
	current *context
	last    triple
}

type triple struct {
	dpy        backend.Display
	draw, read backend.Surface
	ctx        backend.Context
}

type display struct {
	handle      backend.Display
	native      backend.NativeDisplay
	initialized bool
}

type context struct {
	id      backend.Context
	dpy     *display
	cfg     int
	major   int
	objects *objects

	glErr   backend.Enum
	pending []write

	unit     int
	textures [maxTextureUnits]backend.Texture
	fb       backend.Framebuffer
	buf      backend.Buffer
	program  backend.Program
	attribs  [maxAttribs]attrib
	viewport [4]int32
	clear    [4]float32
	draws    int
	sampled  backend.Texture
}

type attrib struct {
	enabled bool
	buf     backend.Buffer
	size    int32
}

// objects is a GL object namespace, shared between contexts created with a
// share context.
type objects struct {
	next         uint32
	refs         int
	textures     map[backend.Texture]*texture
	framebuffers map[backend.Framebuffer]backend.Texture
	buffers      map[backend.Buffer][]byte
	shaders      map[backend.Shader]*shader
	programs     map[backend.Program]*program
}

func newObjects() *objects {
	return &objects{
		refs:         1,
		textures:     make(map[backend.Texture]*texture),
		framebuffers: make(map[backend.Framebuffer]backend.Texture),
		buffers:      make(map[backend.Buffer][]byte),
		shaders:      make(map[backend.Shader]*shader),
		programs:     make(map[backend.Program]*program),
	}
}

func (o *objects) name() uint32 {
	o.next++
	return o.next
}

func (o *objects) release() {
	o.refs--
	if o.refs > 0 {
		return
	}
	for name, t := range o.textures {
		t.drop()
		delete(o.textures, name)
	}
}

// layout describes pixels inside a storage.
type layout struct {
	width, height int
	pitch, offset int
	fourcc        backend.FourCC
	modifier      backend.Modifier
}

// fits reports whether the layout lies inside size bytes.
func (l layout) fits(size int) bool {
	if l.width <= 0 || l.height <= 0 || l.offset < 0 || l.pitch < l.width*4 {
		return false
	}
	return l.offset+l.pitch*(l.height-1)+l.width*4 <= size
}

type texture struct {
	layout
	store *storage
}

func (t *texture) drop() {
	if t.store != nil {
		t.store.release()
		t.store = nil
	}
}

type surface struct {
	handle        backend.Surface
	dpy           *display
	cfg           int
	window        bool
	win           backend.NativeWindow
	width, height int32
	swaps         int
}

type image struct {
	handle backend.Image
	dpy    *display
	layout
	store *storage
}

func newDriver(name string, dev *Device, opts Options) *Driver {
	configs := opts.Configs
	if configs == nil {
		configs = DefaultConfigs
	}
	return &Driver{
		name:     name,
		dev:      dev,
		opts:     opts,
		configs:  configs,
		eglErr:   backend.EGL_SUCCESS,
		displays: make(map[backend.NativeDisplay]*display),
		byHandle: make(map[backend.Display]*display),
		contexts: make(map[backend.Context]*context),
		surfaces: make(map[backend.Surface]*surface),
		images:   make(map[backend.Image]*image),
	}
}

// Name implements backend.Driver.
func (d *Driver) Name() string { return d.name }

// Device returns the device the driver renders on.
func (d *Driver) Device() *Device { return d.dev }

// Stats is a snapshot of a soft driver's state.
type Stats struct {
	Contexts int
	Surfaces int
	Images   int
	Textures int

	// Draws counts glDrawArrays calls over all contexts.
	Draws int
	// Swaps counts eglSwapBuffers calls over all surfaces.
	Swaps int
	// Pending counts queued writes not yet flushed.
	Pending int

	// Viewport and Sampled describe the context the driver has current.
	Viewport [4]int32
	Sampled  backend.Texture
}

// Stats returns a snapshot of the driver state.
func (d *Driver) Stats() Stats {
	s := Stats{
		Contexts: len(d.contexts),
		Surfaces: len(d.surfaces),
		Images:   len(d.images),
	}
	seen := make(map[*objects]bool)
	for _, c := range d.contexts {
		s.Draws += c.draws
		s.Pending += len(c.pending)
		if !seen[c.objects] {
			seen[c.objects] = true
			s.Textures += len(c.objects.textures)
		}
	}
	for _, sf := range d.surfaces {
		s.Swaps += sf.swaps
	}
	if d.current != nil {
		s.Viewport = d.current.viewport
		s.Sampled = d.current.sampled
	}
	return s
}

var _ backend.Driver = (*Driver)(nil)
