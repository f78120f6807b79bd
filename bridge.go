package dmabridge

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/dmabridge/backend"
	"github.com/gogpu/gputypes"
)

// BridgeStats reports bridge activity.
type BridgeStats struct {
	Exports     int
	Imports     int
	LiveExports int
	LiveImports int

	// LiveBytes is the pixel size of the live exports.
	LiveBytes int64
}

// Bridge moves textures between driver instances as dma-bufs.
//
// All calls must be made on the arbiter's thread. A Bridge keeps track of
// what it exported and imported so that Close can release imports before
// the exports they alias.
type Bridge struct {
	arb     *Arbiter
	exports []*ExportedTexture
	imports []*ImportedTexture
	closed  bool

	exportCount int
	importCount int
}

// NewBridge returns a bridge that activates contexts through arb.
func NewBridge(arb *Arbiter) *Bridge {
	return &Bridge{arb: arb}
}

// Arbiter returns the arbiter the bridge activates contexts through.
func (b *Bridge) Arbiter() *Arbiter { return b.arb }

// Export allocates a texture on src and exports its storage.
//
// pixels may be nil, leaving the content undefined. Otherwise it holds
// tightly packed rows and the exporter is finished before the descriptor is
// returned, so a following import sees them. Anything created before a
// failure is released again.
func (b *Bridge) Export(src *DriverContext, spec TextureSpec, pixels []byte) (*ExportedTexture, error) {
	if b.closed {
		return nil, fmt.Errorf("%w: bridge closed", ErrReleased)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	if pixels != nil && len(pixels) < spec.ByteSize() {
		return nil, fmt.Errorf("%w: %d bytes of pixels, want %d", ErrExport, len(pixels), spec.ByteSize())
	}
	if err := b.arb.Activate(src); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	drv := src.drv
	drv.GLError()

	tex := drv.GenTexture()
	drv.BindTexture(backend.GL_TEXTURE_2D, tex)
	setSampling(drv)
	internalFormat, format, typ := spec.Format.GL()
	drv.TexImage2D(backend.GL_TEXTURE_2D, 0, internalFormat, spec.Width, spec.Height, format, typ, pixels)
	if err := glError(drv, "glTexImage2D", ErrExport); err != nil {
		drv.DeleteTexture(tex)
		return nil, err
	}

	img := drv.CreateImage(src.display, src.context, backend.EGL_GL_TEXTURE_2D_KHR, uintptr(tex), []backend.Int{
		backend.EGL_GL_TEXTURE_LEVEL_KHR, 0,
		backend.EGL_IMAGE_PRESERVED_KHR, backend.EGL_TRUE,
		backend.EGL_NONE,
	})
	if img == 0 {
		err := eglError(drv, "eglCreateImageKHR", ErrExport)
		drv.DeleteTexture(tex)
		return nil, err
	}
	fail := func(err error) (*ExportedTexture, error) {
		drv.DestroyImage(src.display, img)
		drv.DeleteTexture(tex)
		return nil, err
	}

	fourcc, planes, modifier, ok := drv.ExportDMABUFImageQuery(src.display, img)
	if !ok {
		return fail(eglError(drv, "eglExportDMABUFImageQueryMESA", ErrExport))
	}
	format, known := FormatFromFourCC(fourcc)
	if !known {
		return fail(fmt.Errorf("%w: %s: unsupported fourcc %s", ErrExport, src.name, fourcc))
	}
	if planes != 1 {
		return fail(fmt.Errorf("%w: %s: %d planes, only single-plane images are supported", ErrExport, src.name, planes))
	}
	fds, strides, offsets, ok := drv.ExportDMABUFImage(src.display, img, planes)
	if !ok {
		return fail(eglError(drv, "eglExportDMABUFImageMESA", ErrExport))
	}
	desc := &SharedImageDescriptor{
		Width:    spec.Width,
		Height:   spec.Height,
		FourCC:   fourcc,
		Modifier: modifier,
		Planes:   make([]Plane, len(fds)),
	}
	for i := range fds {
		desc.Planes[i] = Plane{FD: fds[i], Stride: int32(strides[i]), Offset: int32(offsets[i])}
	}

	exp := &ExportedTexture{
		bridge: b,
		src:    src,
		spec:   spec,
		tex:    tex,
		img:    img,
		desc:   desc,
	}
	if pixels != nil {
		drv.Finish()
		exp.uploads, exp.flushed = 1, 1
	}
	if format != spec.Format {
		Logger().Debug("dmabridge: driver chose a different format",
			"driver", src.name, "want", spec.Format.String(), "got", format.String())
	}
	b.exports = append(b.exports, exp)
	b.exportCount++
	Logger().Info("dmabridge: texture exported", "driver", src.name, "texture", tex,
		"format", format.GPUFormat().String(), "descriptor", desc.String())
	return exp, nil
}

// Import binds exp's storage to a new texture on dst. width and height
// declare the size of the imported view and must equal the exported size;
// they are checked before any driver call.
//
// Importing content that has not been flushed succeeds, but the result is
// Stale until the exporter flushes and reads may return old or zeroed
// pixels.
func (b *Bridge) Import(dst *DriverContext, exp *ExportedTexture, width, height int32) (*ImportedTexture, error) {
	if b.closed {
		return nil, fmt.Errorf("%w: bridge closed", ErrReleased)
	}
	if exp.released {
		return nil, fmt.Errorf("%w: %w", ErrImport, ErrReleased)
	}
	desc := exp.desc
	if width != desc.Width || height != desc.Height {
		return nil, fmt.Errorf("%w: declared size %dx%d does not match exported %dx%d",
			ErrImport, width, height, desc.Width, desc.Height)
	}
	if !exp.spec.usage().Contains(gputypes.TextureUsageTextureBinding) {
		return nil, fmt.Errorf("%w: export lacks texture binding usage", ErrImport)
	}
	if desc.PlaneCount() != 1 {
		return nil, fmt.Errorf("%w: %d planes", ErrImport, desc.PlaneCount())
	}
	if err := b.arb.Activate(dst); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImport, err)
	}
	drv := dst.drv

	fds, err := desc.dup()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImport, err)
	}
	img := drv.CreateImage(dst.display, 0, backend.EGL_LINUX_DMA_BUF_EXT, 0, desc.importAttribs(fds, width, height))
	var imgErr error
	if img == 0 {
		imgErr = eglError(drv, "eglCreateImageKHR", ErrImport)
	}
	if err := closeFDs(fds); err != nil {
		Logger().Warn("dmabridge: closing import fds", "driver", dst.name, "err", err)
	}
	if imgErr != nil {
		return nil, imgErr
	}

	drv.GLError()
	tex := drv.GenTexture()
	drv.BindTexture(backend.GL_TEXTURE_2D, tex)
	setSampling(drv)
	drv.EGLImageTargetTexture2DOES(backend.GL_TEXTURE_2D, img)
	if err := glError(drv, "glEGLImageTargetTexture2DOES", ErrImport); err != nil {
		drv.DeleteTexture(tex)
		drv.DestroyImage(dst.display, img)
		return nil, err
	}

	imp := &ImportedTexture{
		bridge: b,
		dst:    dst,
		exp:    exp,
		tex:    tex,
		img:    img,
		width:  width,
		height: height,
	}
	exp.imports++
	b.imports = append(b.imports, imp)
	b.importCount++
	if exp.Dirty() {
		Logger().Warn("dmabridge: imported texture has unflushed writes",
			"exporter", exp.src.name, "importer", dst.name)
	}
	Logger().Info("dmabridge: texture imported", "driver", dst.name, "texture", tex, "descriptor", desc.String())
	return imp, nil
}

// Close releases every import, then every export, and makes the bridge
// unusable. It returns the joined release errors; whatever failed to
// release is kept and retried by the next Close.
func (b *Bridge) Close() error {
	b.closed = true
	var errs []error
	imports := slices.Clone(b.imports)
	for i := len(imports) - 1; i >= 0; i-- {
		if err := imports[i].Release(); err != nil {
			errs = append(errs, err)
		}
	}
	exports := slices.Clone(b.exports)
	for i := len(exports) - 1; i >= 0; i-- {
		if err := exports[i].Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats returns counters and live totals.
func (b *Bridge) Stats() BridgeStats {
	s := BridgeStats{
		Exports:     b.exportCount,
		Imports:     b.importCount,
		LiveExports: len(b.exports),
		LiveImports: len(b.imports),
	}
	for _, e := range b.exports {
		s.LiveBytes += int64(e.spec.ByteSize())
	}
	return s
}

func setSampling(drv backend.Driver) {
	drv.TexParameteri(backend.GL_TEXTURE_2D, backend.GL_TEXTURE_MIN_FILTER, int32(backend.GL_LINEAR))
	drv.TexParameteri(backend.GL_TEXTURE_2D, backend.GL_TEXTURE_MAG_FILTER, int32(backend.GL_LINEAR))
	drv.TexParameteri(backend.GL_TEXTURE_2D, backend.GL_TEXTURE_WRAP_S, int32(backend.GL_CLAMP_TO_EDGE))
	drv.TexParameteri(backend.GL_TEXTURE_2D, backend.GL_TEXTURE_WRAP_T, int32(backend.GL_CLAMP_TO_EDGE))
}

// ExportedTexture is a texture whose storage has been exported. It owns the
// texture, its EGL image and the descriptor fds.
type ExportedTexture struct {
	bridge *Bridge
	src    *DriverContext
	spec   TextureSpec
	tex    backend.Texture
	img    backend.Image
	desc   *SharedImageDescriptor

	// uploads counts content writes; flushed is the value of uploads at the
	// last completed flush.
	uploads int
	flushed int

	imports  int
	released bool
}

// Descriptor returns the shareable description of the storage.
func (e *ExportedTexture) Descriptor() *SharedImageDescriptor { return e.desc }

// Spec returns the texture description.
func (e *ExportedTexture) Spec() TextureSpec { return e.spec }

// Texture returns the GL name on the exporting context.
func (e *ExportedTexture) Texture() backend.Texture { return e.tex }

// Context returns the exporting context.
func (e *ExportedTexture) Context() *DriverContext { return e.src }

// Imports returns the number of live imports.
func (e *ExportedTexture) Imports() int { return e.imports }

// Dirty reports whether there are uploads not yet flushed.
func (e *ExportedTexture) Dirty() bool { return e.uploads > e.flushed }

// Upload replaces the texture content. The write is not visible to
// importers until Flush.
func (e *ExportedTexture) Upload(pixels []byte) error {
	if e.released {
		return fmt.Errorf("%w: upload", ErrReleased)
	}
	if !e.spec.usage().Contains(gputypes.TextureUsageCopyDst) {
		return fmt.Errorf("%w: texture lacks copy destination usage", ErrExport)
	}
	if len(pixels) < e.spec.ByteSize() {
		return fmt.Errorf("%w: %d bytes of pixels, want %d", ErrExport, len(pixels), e.spec.ByteSize())
	}
	if err := e.bridge.arb.Activate(e.src); err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	drv := e.src.drv
	drv.GLError()
	drv.BindTexture(backend.GL_TEXTURE_2D, e.tex)
	_, format, typ := e.spec.Format.GL()
	drv.TexSubImage2D(backend.GL_TEXTURE_2D, 0, 0, 0, e.spec.Width, e.spec.Height, format, typ, pixels)
	if err := glError(drv, "glTexSubImage2D", ErrExport); err != nil {
		return err
	}
	e.uploads++
	return nil
}

// Flush waits for all submitted work on the exporting context, making
// uploads visible to importers.
func (e *ExportedTexture) Flush() error {
	if e.released {
		return fmt.Errorf("%w: flush", ErrReleased)
	}
	if err := e.bridge.arb.Activate(e.src); err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	e.src.drv.Finish()
	e.flushed = e.uploads
	Logger().Debug("dmabridge: glFinish", "driver", e.src.name, "uploads", e.uploads)
	return nil
}

// ReadPixels reads the texture back through the exporting driver.
func (e *ExportedTexture) ReadPixels() ([]byte, error) {
	if e.released {
		return nil, fmt.Errorf("%w: read", ErrReleased)
	}
	if !e.spec.usage().Contains(gputypes.TextureUsageCopySrc) {
		return nil, fmt.Errorf("%w: texture lacks copy source usage", ErrExport)
	}
	if err := e.bridge.arb.Activate(e.src); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	return readTexture(e.src.drv, e.tex, e.spec.Width, e.spec.Height, ErrExport)
}

// Release destroys the texture, its image and closes the descriptor fds.
// It fails with ErrImportsOutstanding while imports of it are alive. When
// the image cannot be destroyed the export stays live and the fds stay
// open, so Release can be retried.
func (e *ExportedTexture) Release() error {
	if e.released {
		return nil
	}
	if e.imports > 0 {
		return fmt.Errorf("%w: %d", ErrImportsOutstanding, e.imports)
	}
	if err := e.bridge.arb.Activate(e.src); err != nil {
		return fmt.Errorf("%w: release: %w", ErrExport, err)
	}
	drv := e.src.drv
	if e.img != 0 {
		if !drv.DestroyImage(e.src.display, e.img) {
			return eglError(drv, "eglDestroyImageKHR", ErrExport)
		}
		e.img = 0
	}
	drv.DeleteTexture(e.tex)
	e.released = true
	e.bridge.exports = slices.DeleteFunc(e.bridge.exports, func(x *ExportedTexture) bool { return x == e })
	Logger().Info("dmabridge: export released", "driver", e.src.name, "texture", e.tex)
	return e.desc.Release()
}

// ImportedTexture is a texture on the importing context whose storage is
// an exported texture's.
type ImportedTexture struct {
	bridge *Bridge
	dst    *DriverContext
	exp    *ExportedTexture
	tex    backend.Texture
	img    backend.Image
	width  int32
	height int32

	released bool
}

// Texture returns the GL name on the importing context.
func (i *ImportedTexture) Texture() backend.Texture { return i.tex }

// Context returns the importing context.
func (i *ImportedTexture) Context() *DriverContext { return i.dst }

// Export returns the texture this one aliases.
func (i *ImportedTexture) Export() *ExportedTexture { return i.exp }

// Size returns the declared size.
func (i *ImportedTexture) Size() (width, height int32) { return i.width, i.height }

// Stale reports whether the exporter has uploads it has not flushed, in
// which case reads through this texture may see old or zeroed content.
func (i *ImportedTexture) Stale() bool { return i.exp.Dirty() }

// ReadPixels reads the texture back through the importing driver.
func (i *ImportedTexture) ReadPixels() ([]byte, error) {
	if i.released {
		return nil, fmt.Errorf("%w: read", ErrReleased)
	}
	if err := i.bridge.arb.Activate(i.dst); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImport, err)
	}
	return readTexture(i.dst.drv, i.tex, i.width, i.height, ErrImport)
}

// Release deletes the texture and its external image. The import stays
// live, and keeps its export from being released, until both are gone.
func (i *ImportedTexture) Release() error {
	if i.released {
		return nil
	}
	if err := i.bridge.arb.Activate(i.dst); err != nil {
		return fmt.Errorf("%w: release: %w", ErrImport, err)
	}
	drv := i.dst.drv
	if i.tex != 0 {
		drv.DeleteTexture(i.tex)
		i.tex = 0
	}
	if !drv.DestroyImage(i.dst.display, i.img) {
		return eglError(drv, "eglDestroyImageKHR", ErrImport)
	}
	i.released = true
	i.exp.imports--
	i.bridge.imports = slices.DeleteFunc(i.bridge.imports, func(x *ImportedTexture) bool { return x == i })
	Logger().Info("dmabridge: import released", "driver", i.dst.name)
	return nil
}
