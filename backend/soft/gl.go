//go:build linux

package soft

import (
	"math"

	"github.com/gogpu/dmabridge/backend"
)

// ctx returns the context GL calls apply to. A call issued while the
// driver's context does not hold the device binding is dropped and counted.
func (d *Driver) ctx() *context {
	c := d.current
	if c == nil {
		return nil
	}
	if !d.dev.isBound(c) {
		d.dev.misdirect()
		return nil
	}
	return c
}

func (c *context) fail(code backend.Enum) {
	if c.glErr == backend.GL_NO_ERROR {
		c.glErr = code
	}
}

// write is a queued store into a storage. It holds a storage reference
// until applied or discarded.
type write struct {
	st *storage
	fn func(mem []byte)
}

// queue defers fn until the context is flushed.
func (c *context) queue(st *storage, fn func(mem []byte)) {
	c.pending = append(c.pending, write{st: st.retain(), fn: fn})
}

func (c *context) flush() {
	p := c.pending
	c.pending = nil
	for _, w := range p {
		if w.st.mem != nil {
			w.fn(w.st.mem)
		}
		w.st.release()
	}
}

// discard drops queued writes without applying them.
func (c *context) discard() {
	p := c.pending
	c.pending = nil
	for _, w := range p {
		w.st.release()
	}
}

func (c *context) boundTexture() (*texture, bool) {
	name := c.textures[c.unit]
	if name == 0 {
		c.fail(backend.GL_INVALID_OPERATION)
		return nil, false
	}
	t, ok := c.objects.textures[name]
	if !ok {
		t = &texture{}
		c.objects.textures[name] = t
	}
	return t, true
}

// GLError implements backend.GL.
func (d *Driver) GLError() backend.Enum {
	c := d.ctx()
	if c == nil {
		return backend.GL_NO_ERROR
	}
	code := c.glErr
	c.glErr = backend.GL_NO_ERROR
	return code
}

// GenTexture implements backend.GL.
func (d *Driver) GenTexture() backend.Texture {
	c := d.ctx()
	if c == nil {
		return 0
	}
	name := backend.Texture(c.objects.name())
	c.objects.textures[name] = &texture{}
	return name
}

// DeleteTexture implements backend.GL.
func (d *Driver) DeleteTexture(tex backend.Texture) {
	c := d.ctx()
	if c == nil || tex == 0 {
		return
	}
	t, ok := c.objects.textures[tex]
	if !ok {
		return
	}
	t.drop()
	delete(c.objects.textures, tex)
	for i := range c.textures {
		if c.textures[i] == tex {
			c.textures[i] = 0
		}
	}
	for fb, att := range c.objects.framebuffers {
		if att == tex {
			c.objects.framebuffers[fb] = 0
		}
	}
}

// BindTexture implements backend.GL.
func (d *Driver) BindTexture(target backend.Enum, tex backend.Texture) {
	c := d.ctx()
	if c == nil {
		return
	}
	if target != backend.GL_TEXTURE_2D {
		c.fail(backend.GL_INVALID_ENUM)
		return
	}
	if tex != 0 {
		if _, ok := c.objects.textures[tex]; !ok {
			c.objects.textures[tex] = &texture{}
		}
	}
	c.textures[c.unit] = tex
}

// ActiveTexture implements backend.GL.
func (d *Driver) ActiveTexture(unit backend.Enum) {
	c := d.ctx()
	if c == nil {
		return
	}
	i := int(unit) - int(backend.GL_TEXTURE0)
	if i < 0 || i >= maxTextureUnits {
		c.fail(backend.GL_INVALID_ENUM)
		return
	}
	c.unit = i
}

// TexParameteri implements backend.GL. Sampling state has no effect on
// soft textures.
func (d *Driver) TexParameteri(target, pname backend.Enum, param int32) {
	c := d.ctx()
	if c == nil {
		return
	}
	if target != backend.GL_TEXTURE_2D {
		c.fail(backend.GL_INVALID_ENUM)
		return
	}
	switch pname {
	case backend.GL_TEXTURE_MIN_FILTER, backend.GL_TEXTURE_MAG_FILTER,
		backend.GL_TEXTURE_WRAP_S, backend.GL_TEXTURE_WRAP_T:
	default:
		c.fail(backend.GL_INVALID_ENUM)
		return
	}
	c.boundTexture()
}

func checkFormat(c *context, format, typ backend.Enum) bool {
	if format != backend.GL_RGBA {
		c.fail(backend.GL_INVALID_ENUM)
		return false
	}
	if typ != backend.GL_UNSIGNED_BYTE {
		c.fail(backend.GL_INVALID_ENUM)
		return false
	}
	return true
}

// TexImage2D implements backend.GL. Storage is allocated immediately; the
// pixel upload is queued until the next flush.
func (d *Driver) TexImage2D(target backend.Enum, level, internalFormat, width, height int32, format, typ backend.Enum, pixels []byte) {
	c := d.ctx()
	if c == nil {
		return
	}
	if target != backend.GL_TEXTURE_2D {
		c.fail(backend.GL_INVALID_ENUM)
		return
	}
	if !checkFormat(c, format, typ) {
		return
	}
	switch backend.Enum(internalFormat) { //nolint:gosec // G115: GL passes internal formats as GLint
	case backend.GL_RGBA, backend.GL_RGBA8:
	default:
		c.fail(backend.GL_INVALID_VALUE)
		return
	}
	if level != 0 || width <= 0 || height <= 0 || width > maxTextureSize || height > maxTextureSize {
		c.fail(backend.GL_INVALID_VALUE)
		return
	}
	w, h := int(width), int(height)
	if pixels != nil && len(pixels) < w*h*4 {
		c.fail(backend.GL_INVALID_VALUE)
		return
	}
	t, ok := c.boundTexture()
	if !ok {
		return
	}
	pitch := alignPitch(w)
	st, err := newStorage(pitch * h)
	if err != nil {
		c.fail(backend.GL_OUT_OF_MEMORY)
		return
	}
	t.drop()
	modifier := backend.ModifierLinear
	if d.opts.Tiled {
		modifier = ModifierTiled
	}
	t.layout = layout{width: w, height: h, pitch: pitch, fourcc: backend.FourCCABGR8888, modifier: modifier}
	t.store = st
	if pixels != nil {
		c.queueRect(t, 0, 0, w, h, pixels)
	}
}

// queueRect queues a tightly packed RGBA rectangle write into t.
func (c *context) queueRect(t *texture, x, y, w, h int, pixels []byte) {
	data := append([]byte(nil), pixels[:w*h*4]...)
	l := t.layout
	c.queue(t.store, func(mem []byte) {
		for row := 0; row < h; row++ {
			dst := l.offset + (y+row)*l.pitch + x*4
			copy(mem[dst:dst+w*4], data[row*w*4:(row+1)*w*4])
		}
	})
}

// TexSubImage2D implements backend.GL.
func (d *Driver) TexSubImage2D(target backend.Enum, level, x, y, width, height int32, format, typ backend.Enum, pixels []byte) {
	c := d.ctx()
	if c == nil {
		return
	}
	if target != backend.GL_TEXTURE_2D {
		c.fail(backend.GL_INVALID_ENUM)
		return
	}
	if !checkFormat(c, format, typ) {
		return
	}
	t, ok := c.boundTexture()
	if !ok {
		return
	}
	if t.store == nil {
		c.fail(backend.GL_INVALID_OPERATION)
		return
	}
	xi, yi, w, h := int(x), int(y), int(width), int(height)
	if level != 0 || xi < 0 || yi < 0 || w < 0 || h < 0 || xi+w > t.width || yi+h > t.height || len(pixels) < w*h*4 {
		c.fail(backend.GL_INVALID_VALUE)
		return
	}
	if w == 0 || h == 0 {
		return
	}
	c.queueRect(t, xi, yi, w, h, pixels)
}

// EGLImageTargetTexture2DOES implements backend.GL.
func (d *Driver) EGLImageTargetTexture2DOES(target backend.Enum, img backend.Image) {
	c := d.ctx()
	if c == nil {
		return
	}
	if target != backend.GL_TEXTURE_2D {
		c.fail(backend.GL_INVALID_ENUM)
		return
	}
	im, ok := d.images[img]
	if !ok || im.dpy != c.dpy {
		c.fail(backend.GL_INVALID_VALUE)
		return
	}
	t, ok := c.boundTexture()
	if !ok {
		return
	}
	t.drop()
	t.layout = im.layout
	t.store = im.store.retain()
}

// GenFramebuffer implements backend.GL.
func (d *Driver) GenFramebuffer() backend.Framebuffer {
	c := d.ctx()
	if c == nil {
		return 0
	}
	fb := backend.Framebuffer(c.objects.name())
	c.objects.framebuffers[fb] = 0
	return fb
}

// DeleteFramebuffer implements backend.GL.
func (d *Driver) DeleteFramebuffer(fb backend.Framebuffer) {
	c := d.ctx()
	if c == nil || fb == 0 {
		return
	}
	delete(c.objects.framebuffers, fb)
	if c.fb == fb {
		c.fb = 0
	}
}

// BindFramebuffer implements backend.GL.
func (d *Driver) BindFramebuffer(target backend.Enum, fb backend.Framebuffer) {
	c := d.ctx()
	if c == nil {
		return
	}
	if target != backend.GL_FRAMEBUFFER {
		c.fail(backend.GL_INVALID_ENUM)
		return
	}
	if fb != 0 {
		if _, ok := c.objects.framebuffers[fb]; !ok {
			c.objects.framebuffers[fb] = 0
		}
	}
	c.fb = fb
}

// FramebufferTexture2D implements backend.GL.
func (d *Driver) FramebufferTexture2D(target, attachment, texTarget backend.Enum, tex backend.Texture, level int32) {
	c := d.ctx()
	if c == nil {
		return
	}
	if target != backend.GL_FRAMEBUFFER || attachment != backend.GL_COLOR_ATTACHMENT0 || texTarget != backend.GL_TEXTURE_2D {
		c.fail(backend.GL_INVALID_ENUM)
		return
	}
	if level != 0 {
		c.fail(backend.GL_INVALID_VALUE)
		return
	}
	if c.fb == 0 {
		c.fail(backend.GL_INVALID_OPERATION)
		return
	}
	if _, ok := c.objects.textures[tex]; tex != 0 && !ok {
		c.fail(backend.GL_INVALID_OPERATION)
		return
	}
	c.objects.framebuffers[c.fb] = tex
}

// attachment returns the texture attached to the bound framebuffer.
func (c *context) attachment() *texture {
	if c.fb == 0 {
		return nil
	}
	t := c.objects.textures[c.objects.framebuffers[c.fb]]
	if t == nil || t.store == nil {
		return nil
	}
	return t
}

// CheckFramebufferStatus implements backend.GL.
func (d *Driver) CheckFramebufferStatus(target backend.Enum) backend.Enum {
	c := d.ctx()
	if c == nil {
		return 0
	}
	if target != backend.GL_FRAMEBUFFER {
		c.fail(backend.GL_INVALID_ENUM)
		return 0
	}
	if c.fb == 0 {
		return backend.GL_FRAMEBUFFER_COMPLETE
	}
	tex := c.objects.framebuffers[c.fb]
	if tex == 0 {
		return backend.GL_FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT
	}
	if c.attachment() == nil {
		return backend.GL_FRAMEBUFFER_INCOMPLETE_ATTACHMENT
	}
	return backend.GL_FRAMEBUFFER_COMPLETE
}

// ReadPixels implements backend.GL. Reading completes the context's queued
// writes first; the default framebuffer has no readable pixels.
func (d *Driver) ReadPixels(x, y, width, height int32, format, typ backend.Enum, dst []byte) {
	c := d.ctx()
	if c == nil {
		return
	}
	if !checkFormat(c, format, typ) {
		return
	}
	t := c.attachment()
	if t == nil {
		c.fail(backend.GL_INVALID_FRAMEBUFFER_OPERATION)
		return
	}
	xi, yi, w, h := int(x), int(y), int(width), int(height)
	if xi < 0 || yi < 0 || w < 0 || h < 0 || xi+w > t.width || yi+h > t.height {
		c.fail(backend.GL_INVALID_VALUE)
		return
	}
	if len(dst) < w*h*4 {
		c.fail(backend.GL_INVALID_OPERATION)
		return
	}
	c.flush()
	mem := t.store.mem
	for row := 0; row < h; row++ {
		src := t.offset + (yi+row)*t.pitch + xi*4
		copy(dst[row*w*4:(row+1)*w*4], mem[src:src+w*4])
	}
}

// GenBuffer implements backend.GL.
func (d *Driver) GenBuffer() backend.Buffer {
	c := d.ctx()
	if c == nil {
		return 0
	}
	b := backend.Buffer(c.objects.name())
	c.objects.buffers[b] = nil
	return b
}

// DeleteBuffer implements backend.GL.
func (d *Driver) DeleteBuffer(buf backend.Buffer) {
	c := d.ctx()
	if c == nil || buf == 0 {
		return
	}
	delete(c.objects.buffers, buf)
	if c.buf == buf {
		c.buf = 0
	}
}

// BindBuffer implements backend.GL.
func (d *Driver) BindBuffer(target backend.Enum, buf backend.Buffer) {
	c := d.ctx()
	if c == nil {
		return
	}
	if target != backend.GL_ARRAY_BUFFER {
		c.fail(backend.GL_INVALID_ENUM)
		return
	}
	if _, ok := c.objects.buffers[buf]; buf != 0 && !ok {
		c.objects.buffers[buf] = nil
	}
	c.buf = buf
}

// BufferData implements backend.GL.
func (d *Driver) BufferData(target backend.Enum, data []byte, usage backend.Enum) {
	c := d.ctx()
	if c == nil {
		return
	}
	if target != backend.GL_ARRAY_BUFFER || usage != backend.GL_STATIC_DRAW {
		c.fail(backend.GL_INVALID_ENUM)
		return
	}
	if c.buf == 0 {
		c.fail(backend.GL_INVALID_OPERATION)
		return
	}
	c.objects.buffers[c.buf] = append([]byte(nil), data...)
}

// VertexAttribPointer implements backend.GL. Client-side arrays are not
// supported; a buffer must be bound.
func (d *Driver) VertexAttribPointer(index uint32, size int32, typ backend.Enum, normalized bool, stride int32, offset uintptr) {
	c := d.ctx()
	if c == nil {
		return
	}
	if index >= maxAttribs || size < 1 || size > 4 || stride < 0 {
		c.fail(backend.GL_INVALID_VALUE)
		return
	}
	if typ != backend.GL_FLOAT && typ != backend.GL_UNSIGNED_BYTE {
		c.fail(backend.GL_INVALID_ENUM)
		return
	}
	if c.buf == 0 {
		c.fail(backend.GL_INVALID_OPERATION)
		return
	}
	c.attribs[index].buf = c.buf
	c.attribs[index].size = size
}

// EnableVertexAttribArray implements backend.GL.
func (d *Driver) EnableVertexAttribArray(index uint32) {
	c := d.ctx()
	if c == nil {
		return
	}
	if index >= maxAttribs {
		c.fail(backend.GL_INVALID_VALUE)
		return
	}
	c.attribs[index].enabled = true
}

// DrawArrays implements backend.GL. Soft contexts do not rasterise; a draw
// validates state and records the texture sampled from unit 0.
func (d *Driver) DrawArrays(mode backend.Enum, first, count int32) {
	c := d.ctx()
	if c == nil {
		return
	}
	switch mode {
	case backend.GL_TRIANGLES, backend.GL_TRIANGLE_STRIP, backend.GL_TRIANGLE_FAN:
	default:
		c.fail(backend.GL_INVALID_ENUM)
		return
	}
	if first < 0 || count < 0 {
		c.fail(backend.GL_INVALID_VALUE)
		return
	}
	p, ok := c.objects.programs[c.program]
	if !ok || !p.linked {
		c.fail(backend.GL_INVALID_OPERATION)
		return
	}
	for _, a := range c.attribs {
		if a.enabled && c.objects.buffers[a.buf] == nil {
			c.fail(backend.GL_INVALID_OPERATION)
			return
		}
	}
	c.draws++
	c.sampled = c.textures[0]
}

// Viewport implements backend.GL.
func (d *Driver) Viewport(x, y, width, height int32) {
	c := d.ctx()
	if c == nil {
		return
	}
	if width < 0 || height < 0 {
		c.fail(backend.GL_INVALID_VALUE)
		return
	}
	c.viewport = [4]int32{x, y, width, height}
}

// ClearColor implements backend.GL.
func (d *Driver) ClearColor(r, g, b, a float32) {
	c := d.ctx()
	if c == nil {
		return
	}
	c.clear = [4]float32{r, g, b, a}
}

func unorm8(v float32) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return byte(math.Round(float64(v) * 255))
}

// Clear implements backend.GL. Clearing the color buffer of a framebuffer
// with a texture attachment queues a fill of that texture.
func (d *Driver) Clear(mask backend.Enum) {
	c := d.ctx()
	if c == nil {
		return
	}
	all := backend.GL_COLOR_BUFFER_BIT | backend.GL_DEPTH_BUFFER_BIT | backend.GL_STENCIL_BUFFER_BIT
	if mask&^all != 0 {
		c.fail(backend.GL_INVALID_VALUE)
		return
	}
	if mask&backend.GL_COLOR_BUFFER_BIT == 0 {
		return
	}
	t := c.attachment()
	if t == nil {
		return
	}
	px := [4]byte{unorm8(c.clear[0]), unorm8(c.clear[1]), unorm8(c.clear[2]), unorm8(c.clear[3])}
	l := t.layout
	c.queue(t.store, func(mem []byte) {
		for row := 0; row < l.height; row++ {
			line := mem[l.offset+row*l.pitch : l.offset+row*l.pitch+l.width*4]
			for i := 0; i < len(line); i += 4 {
				copy(line[i:i+4], px[:])
			}
		}
	})
}

// Flush implements backend.GL. Queued writes land in storage.
func (d *Driver) Flush() {
	if c := d.ctx(); c != nil {
		c.flush()
	}
}

// Finish implements backend.GL.
func (d *Driver) Finish() {
	if c := d.ctx(); c != nil {
		c.flush()
	}
}
