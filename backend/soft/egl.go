//go:build linux

package soft

import (
	"github.com/gogpu/dmabridge/backend"
)

const extensions = "EGL_KHR_image_base EGL_KHR_gl_texture_2D_image " +
	"EGL_EXT_image_dma_buf_import EGL_EXT_image_dma_buf_import_modifiers " +
	"EGL_MESA_image_dma_buf_export EGL_KHR_surfaceless_context"

func (d *Driver) fail(code backend.Int) {
	d.eglErr = code
}

// EGLError implements backend.EGL.
func (d *Driver) EGLError() backend.Int {
	code := d.eglErr
	d.eglErr = backend.EGL_SUCCESS
	return code
}

func (d *Driver) display(dpy backend.Display, initialized bool) *display {
	p, ok := d.byHandle[dpy]
	if !ok {
		d.fail(backend.EGL_BAD_DISPLAY)
		return nil
	}
	if initialized && !p.initialized {
		d.fail(backend.EGL_NOT_INITIALIZED)
		return nil
	}
	return p
}

func (d *Driver) config(cfg backend.Config) (int, bool) {
	i := int(cfg) - 1
	if i < 0 || i >= len(d.configs) {
		d.fail(backend.EGL_BAD_CONFIG)
		return 0, false
	}
	return i, true
}

// GetDisplay implements backend.EGL.
func (d *Driver) GetDisplay(native backend.NativeDisplay) backend.Display {
	if native == BadNativeDisplay {
		return 0
	}
	if p, ok := d.displays[native]; ok {
		return p.handle
	}
	p := &display{handle: backend.Display(d.dev.handle()), native: native}
	d.displays[native] = p
	d.byHandle[p.handle] = p
	return p.handle
}

// Initialize implements backend.EGL.
func (d *Driver) Initialize(dpy backend.Display) (major, minor backend.Int, ok bool) {
	p := d.display(dpy, false)
	if p == nil {
		return 0, 0, false
	}
	p.initialized = true
	return 1, 5, true
}

// Terminate implements backend.EGL. Resources of the display are released
// and the display becomes uninitialized.
func (d *Driver) Terminate(dpy backend.Display) bool {
	p := d.display(dpy, false)
	if p == nil {
		return false
	}
	for id, c := range d.contexts {
		if c.dpy == p {
			d.destroyContext(id, c)
		}
	}
	for id, s := range d.surfaces {
		if s.dpy == p {
			delete(d.surfaces, id)
		}
	}
	for id, img := range d.images {
		if img.dpy == p {
			img.store.release()
			delete(d.images, id)
		}
	}
	p.initialized = false
	return true
}

// BindAPI implements backend.EGL.
func (d *Driver) BindAPI(api backend.Enum) bool {
	if api != backend.EGL_OPENGL_ES_API {
		d.fail(backend.EGL_BAD_PARAMETER)
		return false
	}
	d.api = api
	return true
}

// QueryString implements backend.EGL.
func (d *Driver) QueryString(dpy backend.Display, name backend.Int) string {
	if d.display(dpy, true) == nil {
		return ""
	}
	switch name {
	case backend.EGL_VENDOR:
		return "dmabridge soft (" + d.name + ")"
	case backend.EGL_VERSION:
		return "1.5 soft"
	case backend.EGL_EXTENSIONS:
		return extensions
	case backend.EGL_CLIENT_APIS:
		return "OpenGL_ES"
	}
	d.fail(backend.EGL_BAD_PARAMETER)
	return ""
}

// ChooseConfig implements backend.EGL. Configs are returned in list order.
func (d *Driver) ChooseConfig(dpy backend.Display, attribs []backend.Int) ([]backend.Config, bool) {
	if d.display(dpy, true) == nil {
		return nil, false
	}
	want, ok := parseAttribs(attribs)
	if !ok {
		d.fail(backend.EGL_BAD_ATTRIBUTE)
		return nil, false
	}
	var out []backend.Config
	for i, c := range d.configs {
		if d.matches(c, want) {
			out = append(out, backend.Config(i+1))
		}
	}
	return out, true
}

func (d *Driver) matches(c ConfigDesc, want map[backend.Int]backend.Int) bool {
	for k, v := range want {
		if v == backend.EGL_DONT_CARE {
			continue
		}
		var have int32
		switch k {
		case backend.EGL_RED_SIZE:
			have = c.Red
		case backend.EGL_GREEN_SIZE:
			have = c.Green
		case backend.EGL_BLUE_SIZE:
			have = c.Blue
		case backend.EGL_ALPHA_SIZE:
			have = c.Alpha
		case backend.EGL_DEPTH_SIZE:
			have = c.Depth
		case backend.EGL_STENCIL_SIZE:
			have = c.Stencil
		case backend.EGL_RENDERABLE_TYPE:
			if c.Renderable&v != v {
				return false
			}
			continue
		case backend.EGL_SURFACE_TYPE:
			if c.SurfaceType&v != v {
				return false
			}
			continue
		case backend.EGL_COLOR_BUFFER_TYPE:
			if v != backend.EGL_RGB_BUFFER {
				return false
			}
			continue
		default:
			continue
		}
		if !d.opts.LooseChooseConfig && have < int32(v) {
			return false
		}
	}
	return true
}

// parseAttribs reads an EGL_NONE terminated key/value list.
func parseAttribs(attribs []backend.Int) (map[backend.Int]backend.Int, bool) {
	m := make(map[backend.Int]backend.Int)
	for i := 0; i < len(attribs); i += 2 {
		if attribs[i] == backend.EGL_NONE {
			return m, true
		}
		if i+1 >= len(attribs) {
			return nil, false
		}
		m[attribs[i]] = attribs[i+1]
	}
	return m, true
}

// GetConfigAttrib implements backend.EGL.
func (d *Driver) GetConfigAttrib(dpy backend.Display, cfg backend.Config, attr backend.Int) (backend.Int, bool) {
	if d.display(dpy, true) == nil {
		return 0, false
	}
	i, ok := d.config(cfg)
	if !ok {
		return 0, false
	}
	c := d.configs[i]
	switch attr {
	case backend.EGL_RED_SIZE:
		return backend.Int(c.Red), true
	case backend.EGL_GREEN_SIZE:
		return backend.Int(c.Green), true
	case backend.EGL_BLUE_SIZE:
		return backend.Int(c.Blue), true
	case backend.EGL_ALPHA_SIZE:
		return backend.Int(c.Alpha), true
	case backend.EGL_BUFFER_SIZE:
		return backend.Int(c.Red + c.Green + c.Blue + c.Alpha), true
	case backend.EGL_DEPTH_SIZE:
		return backend.Int(c.Depth), true
	case backend.EGL_STENCIL_SIZE:
		return backend.Int(c.Stencil), true
	case backend.EGL_RENDERABLE_TYPE:
		return c.Renderable, true
	case backend.EGL_SURFACE_TYPE:
		return c.SurfaceType, true
	case backend.EGL_COLOR_BUFFER_TYPE:
		return backend.EGL_RGB_BUFFER, true
	case backend.EGL_NATIVE_VISUAL_ID:
		return backend.Int(c.VisualID), true
	case backend.EGL_CONFIG_ID:
		return backend.Int(i + 1), true
	}
	d.fail(backend.EGL_BAD_ATTRIBUTE)
	return 0, false
}

// CreateContext implements backend.EGL. Contexts created with a share
// context use its object namespace.
func (d *Driver) CreateContext(dpy backend.Display, cfg backend.Config, share backend.Context, attribs []backend.Int) backend.Context {
	p := d.display(dpy, true)
	if p == nil {
		return 0
	}
	i, ok := d.config(cfg)
	if !ok {
		return 0
	}
	if d.api != backend.EGL_OPENGL_ES_API {
		d.fail(backend.EGL_BAD_MATCH)
		return 0
	}
	a, ok := parseAttribs(attribs)
	if !ok {
		d.fail(backend.EGL_BAD_ATTRIBUTE)
		return 0
	}
	major := 1
	if v, ok := a[backend.EGL_CONTEXT_MAJOR_VERSION]; ok {
		major = int(v)
	}
	switch {
	case major < 2 || major > 3:
		d.fail(backend.EGL_BAD_MATCH)
		return 0
	case major == 3 && d.configs[i].Renderable&backend.EGL_OPENGL_ES3_BIT == 0:
		d.fail(backend.EGL_BAD_MATCH)
		return 0
	case d.configs[i].Renderable&backend.EGL_OPENGL_ES2_BIT == 0:
		d.fail(backend.EGL_BAD_CONFIG)
		return 0
	}
	var objs *objects
	if share != 0 {
		sc, ok := d.contexts[share]
		if !ok {
			d.fail(backend.EGL_BAD_CONTEXT)
			return 0
		}
		if sc.dpy != p {
			d.fail(backend.EGL_BAD_MATCH)
			return 0
		}
		objs = sc.objects
		objs.refs++
	} else {
		objs = newObjects()
	}
	c := &context{
		id:      backend.Context(d.dev.handle()),
		dpy:     p,
		cfg:     i,
		major:   major,
		objects: objs,
	}
	d.contexts[c.id] = c
	return c.id
}

// DestroyContext implements backend.EGL.
func (d *Driver) DestroyContext(dpy backend.Display, ctx backend.Context) bool {
	if d.display(dpy, true) == nil {
		return false
	}
	c, ok := d.contexts[ctx]
	if !ok {
		d.fail(backend.EGL_BAD_CONTEXT)
		return false
	}
	d.destroyContext(ctx, c)
	return true
}

func (d *Driver) destroyContext(id backend.Context, c *context) {
	c.discard()
	if d.current == c {
		d.current = nil
		d.last = triple{}
		d.dev.unbind(d)
	}
	c.objects.release()
	delete(d.contexts, id)
}

// CreateWindowSurface implements backend.EGL. The window must have been
// registered on the device with the config's native visual.
func (d *Driver) CreateWindowSurface(dpy backend.Display, cfg backend.Config, win backend.NativeWindow, attribs []backend.Int) backend.Surface {
	p := d.display(dpy, true)
	if p == nil {
		return 0
	}
	i, ok := d.config(cfg)
	if !ok {
		return 0
	}
	if d.configs[i].SurfaceType&backend.EGL_WINDOW_BIT == 0 {
		d.fail(backend.EGL_BAD_MATCH)
		return 0
	}
	visual, ok := d.dev.windowVisual(win)
	if !ok {
		d.fail(backend.EGL_BAD_NATIVE_WINDOW)
		return 0
	}
	if visual != d.configs[i].VisualID {
		d.fail(backend.EGL_BAD_MATCH)
		return 0
	}
	if _, ok := parseAttribs(attribs); !ok {
		d.fail(backend.EGL_BAD_ATTRIBUTE)
		return 0
	}
	s := &surface{handle: backend.Surface(d.dev.handle()), dpy: p, cfg: i, window: true, win: win}
	d.surfaces[s.handle] = s
	return s.handle
}

// CreatePbufferSurface implements backend.EGL.
func (d *Driver) CreatePbufferSurface(dpy backend.Display, cfg backend.Config, attribs []backend.Int) backend.Surface {
	p := d.display(dpy, true)
	if p == nil {
		return 0
	}
	i, ok := d.config(cfg)
	if !ok {
		return 0
	}
	if d.configs[i].SurfaceType&backend.EGL_PBUFFER_BIT == 0 {
		d.fail(backend.EGL_BAD_MATCH)
		return 0
	}
	a, ok := parseAttribs(attribs)
	if !ok {
		d.fail(backend.EGL_BAD_ATTRIBUTE)
		return 0
	}
	w, h := a[backend.EGL_WIDTH], a[backend.EGL_HEIGHT]
	if w < 0 || h < 0 {
		d.fail(backend.EGL_BAD_PARAMETER)
		return 0
	}
	s := &surface{handle: backend.Surface(d.dev.handle()), dpy: p, cfg: i, width: int32(w), height: int32(h)}
	d.surfaces[s.handle] = s
	return s.handle
}

// DestroySurface implements backend.EGL.
func (d *Driver) DestroySurface(dpy backend.Display, surf backend.Surface) bool {
	if d.display(dpy, true) == nil {
		return false
	}
	if _, ok := d.surfaces[surf]; !ok {
		d.fail(backend.EGL_BAD_SURFACE)
		return false
	}
	delete(d.surfaces, surf)
	return true
}

// MakeCurrent implements backend.EGL. With Options.CacheCurrent the call
// returns early when the triple equals the last one this driver bound.
func (d *Driver) MakeCurrent(dpy backend.Display, draw, read backend.Surface, ctx backend.Context) bool {
	p := d.display(dpy, true)
	if p == nil {
		return false
	}
	t := triple{dpy: dpy, draw: draw, read: read, ctx: ctx}
	if d.opts.CacheCurrent && t == d.last {
		return true
	}
	if ctx == 0 {
		if draw != 0 || read != 0 {
			d.fail(backend.EGL_BAD_MATCH)
			return false
		}
		d.current = nil
		d.last = t
		d.dev.unbind(d)
		return true
	}
	c, ok := d.contexts[ctx]
	if !ok || c.dpy != p {
		d.fail(backend.EGL_BAD_CONTEXT)
		return false
	}
	for _, s := range []backend.Surface{draw, read} {
		if s == 0 {
			continue
		}
		sf, ok := d.surfaces[s]
		if !ok || sf.dpy != p {
			d.fail(backend.EGL_BAD_SURFACE)
			return false
		}
		if sf.cfg != c.cfg {
			d.fail(backend.EGL_BAD_MATCH)
			return false
		}
	}
	d.current = c
	d.last = t
	d.dev.bind(d, c)
	return true
}

// SwapBuffers implements backend.EGL. It flushes the current context.
func (d *Driver) SwapBuffers(dpy backend.Display, surf backend.Surface) bool {
	if d.display(dpy, true) == nil {
		return false
	}
	s, ok := d.surfaces[surf]
	if !ok {
		d.fail(backend.EGL_BAD_SURFACE)
		return false
	}
	if d.current == nil || d.last.draw != surf {
		d.fail(backend.EGL_BAD_SURFACE)
		return false
	}
	if c := d.ctx(); c != nil {
		c.flush()
	}
	s.swaps++
	return true
}

// CreateImage implements backend.EGL for EGL_GL_TEXTURE_2D_KHR and
// EGL_LINUX_DMA_BUF_EXT targets.
func (d *Driver) CreateImage(dpy backend.Display, ctx backend.Context, target backend.Enum, buffer uintptr, attribs []backend.Int) backend.Image {
	p := d.display(dpy, true)
	if p == nil {
		return 0
	}
	a, ok := parseAttribs(attribs)
	if !ok {
		d.fail(backend.EGL_BAD_ATTRIBUTE)
		return 0
	}
	var img *image
	switch target {
	case backend.EGL_GL_TEXTURE_2D_KHR:
		img = d.textureImage(p, ctx, buffer, a)
	case backend.EGL_LINUX_DMA_BUF_EXT:
		img = d.dmabufImage(p, ctx, buffer, a)
	default:
		d.fail(backend.EGL_BAD_PARAMETER)
	}
	if img == nil {
		return 0
	}
	img.handle = backend.Image(d.dev.handle())
	img.dpy = p
	d.images[img.handle] = img
	return img.handle
}

func (d *Driver) textureImage(p *display, ctx backend.Context, buffer uintptr, a map[backend.Int]backend.Int) *image {
	c, ok := d.contexts[ctx]
	if !ok || c.dpy != p {
		d.fail(backend.EGL_BAD_CONTEXT)
		return nil
	}
	if lvl := a[backend.EGL_GL_TEXTURE_LEVEL_KHR]; lvl != 0 {
		d.fail(backend.EGL_BAD_MATCH)
		return nil
	}
	//nolint:gosec // G115: texture names are 32-bit
	t, ok := c.objects.textures[backend.Texture(buffer)]
	if !ok || t.store == nil {
		d.fail(backend.EGL_BAD_PARAMETER)
		return nil
	}
	return &image{layout: t.layout, store: t.store.retain()}
}

func (d *Driver) dmabufImage(p *display, ctx backend.Context, buffer uintptr, a map[backend.Int]backend.Int) *image {
	if ctx != 0 || buffer != 0 {
		d.fail(backend.EGL_BAD_PARAMETER)
		return nil
	}
	required := []backend.Int{
		backend.EGL_WIDTH, backend.EGL_HEIGHT, backend.EGL_LINUX_DRM_FOURCC_EXT,
		backend.EGL_DMA_BUF_PLANE0_FD_EXT, backend.EGL_DMA_BUF_PLANE0_PITCH_EXT,
	}
	for _, k := range required {
		if _, ok := a[k]; !ok {
			d.fail(backend.EGL_BAD_PARAMETER)
			return nil
		}
	}
	//nolint:gosec // G115: fourcc is a raw 32-bit word
	fourcc := backend.FourCC(uint32(a[backend.EGL_LINUX_DRM_FOURCC_EXT]))
	switch fourcc {
	case backend.FourCCABGR8888, backend.FourCCXBGR8888, backend.FourCCARGB8888:
	default:
		d.fail(backend.EGL_BAD_MATCH)
		return nil
	}
	modifier := backend.ModifierInvalid
	lo, hasLo := a[backend.EGL_DMA_BUF_PLANE0_MODIFIER_LO_EXT]
	hi, hasHi := a[backend.EGL_DMA_BUF_PLANE0_MODIFIER_HI_EXT]
	if hasLo != hasHi {
		d.fail(backend.EGL_BAD_PARAMETER)
		return nil
	}
	if hasLo {
		//nolint:gosec // G115: modifier halves are raw 32-bit words
		modifier = backend.Modifier(uint32(lo)) | backend.Modifier(uint32(hi))<<32
		if modifier != backend.ModifierLinear {
			d.fail(backend.EGL_BAD_MATCH)
			return nil
		}
	}
	l := layout{
		width:    int(a[backend.EGL_WIDTH]),
		height:   int(a[backend.EGL_HEIGHT]),
		pitch:    int(a[backend.EGL_DMA_BUF_PLANE0_PITCH_EXT]),
		offset:   int(a[backend.EGL_DMA_BUF_PLANE0_OFFSET_EXT]),
		fourcc:   fourcc,
		modifier: backend.ModifierLinear,
	}
	st, err := mapStorage(int(a[backend.EGL_DMA_BUF_PLANE0_FD_EXT]))
	if err != nil {
		d.fail(backend.EGL_BAD_PARAMETER)
		return nil
	}
	if !l.fits(len(st.mem)) {
		st.release()
		d.fail(backend.EGL_BAD_ACCESS)
		return nil
	}
	return &image{layout: l, store: st}
}

// DestroyImage implements backend.EGL.
func (d *Driver) DestroyImage(dpy backend.Display, img backend.Image) bool {
	if d.display(dpy, true) == nil {
		return false
	}
	im, ok := d.images[img]
	if !ok {
		d.fail(backend.EGL_BAD_PARAMETER)
		return false
	}
	im.store.release()
	delete(d.images, img)
	return true
}

// ExportDMABUFImageQuery implements backend.EGL.
func (d *Driver) ExportDMABUFImageQuery(dpy backend.Display, img backend.Image) (backend.FourCC, int, backend.Modifier, bool) {
	if d.display(dpy, true) == nil {
		return 0, 0, 0, false
	}
	im, ok := d.images[img]
	if !ok {
		d.fail(backend.EGL_BAD_PARAMETER)
		return 0, 0, 0, false
	}
	return im.fourcc, 1, im.modifier, true
}

// ExportDMABUFImage implements backend.EGL. Tiled images cannot be
// exported.
func (d *Driver) ExportDMABUFImage(dpy backend.Display, img backend.Image, planes int) ([]int, []backend.Int, []backend.Int, bool) {
	if d.display(dpy, true) == nil {
		return nil, nil, nil, false
	}
	im, ok := d.images[img]
	if !ok {
		d.fail(backend.EGL_BAD_PARAMETER)
		return nil, nil, nil, false
	}
	if planes < 1 {
		d.fail(backend.EGL_BAD_PARAMETER)
		return nil, nil, nil, false
	}
	if im.modifier != backend.ModifierLinear {
		d.fail(backend.EGL_BAD_MATCH)
		return nil, nil, nil, false
	}
	fd, err := im.store.export()
	if err != nil {
		d.fail(backend.EGL_BAD_ALLOC)
		return nil, nil, nil, false
	}
	//nolint:gosec // G115: pitch and offset are bounded by maxTextureSize
	return []int{fd}, []backend.Int{backend.Int(im.pitch)}, []backend.Int{backend.Int(im.offset)}, true
}
