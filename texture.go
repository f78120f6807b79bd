package dmabridge

import (
	"fmt"

	"github.com/gogpu/dmabridge/backend"
	"github.com/gogpu/gputypes"
)

// TextureFormat is the pixel format of a bridged texture.
type TextureFormat uint8

const (
	// FormatRGBA8 is 8-bit RGBA, byte order R, G, B, A (DRM ABGR8888).
	FormatRGBA8 TextureFormat = iota

	// FormatRGBX8 is FormatRGBA8 with the alpha channel ignored on import
	// (DRM XBGR8888).
	FormatRGBX8

	// FormatBGRA8 is 8-bit BGRA, byte order B, G, R, A (DRM ARGB8888).
	// GLES needs GL_EXT_texture_format_BGRA8888 to allocate it.
	FormatBGRA8
)

// String returns the format name.
func (f TextureFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGBX8:
		return "RGBX8"
	case FormatBGRA8:
		return "BGRA8"
	default:
		return fmt.Sprintf("TextureFormat(%d)", f)
	}
}

// BytesPerPixel returns the size of one pixel.
func (f TextureFormat) BytesPerPixel() int { return 4 }

// FourCC returns the DRM format code of the exported storage.
func (f TextureFormat) FourCC() backend.FourCC {
	switch f {
	case FormatRGBX8:
		return backend.FourCCXBGR8888
	case FormatBGRA8:
		return backend.FourCCARGB8888
	default:
		return backend.FourCCABGR8888
	}
}

// GL returns the internal format, format and type for glTexImage2D.
func (f TextureFormat) GL() (internalFormat int32, format, typ backend.Enum) {
	if f == FormatBGRA8 {
		return int32(backend.GL_BGRA_EXT), backend.GL_BGRA_EXT, backend.GL_UNSIGNED_BYTE
	}
	return int32(backend.GL_RGBA), backend.GL_RGBA, backend.GL_UNSIGNED_BYTE
}

// GPUFormat returns the matching WebGPU texture format.
func (f TextureFormat) GPUFormat() gputypes.TextureFormat {
	if f == FormatBGRA8 {
		return gputypes.TextureFormatBGRA8Unorm
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// FormatFromFourCC maps a DRM format code back to a TextureFormat.
func FormatFromFourCC(code backend.FourCC) (TextureFormat, bool) {
	switch code {
	case backend.FourCCABGR8888:
		return FormatRGBA8, true
	case backend.FourCCXBGR8888:
		return FormatRGBX8, true
	case backend.FourCCARGB8888:
		return FormatBGRA8, true
	}
	return 0, false
}

// TextureSpec describes a texture to export.
type TextureSpec struct {
	Width  int32
	Height int32
	Format TextureFormat

	// Usage defaults to DefaultTextureUsage when zero. Upload needs CopyDst,
	// ReadPixels on the export needs CopySrc and importing needs
	// TextureBinding.
	Usage gputypes.TextureUsage
}

// MaxTextureSize is the largest width or height accepted for an export.
const MaxTextureSize = 16384

// DefaultTextureUsage is the usage of an exported texture: the exporter
// uploads to it and reads it back, the importer samples it.
const DefaultTextureUsage = gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageTextureBinding

// Size returns the texture extent.
func (s TextureSpec) Size() gputypes.Extent3D {
	//nolint:gosec // G115: validated positive by validate
	return gputypes.NewExtent2D(uint32(s.Width), uint32(s.Height))
}

// ByteSize returns the size of tightly packed pixel data for the texture.
func (s TextureSpec) ByteSize() int {
	return int(s.Width) * int(s.Height) * s.Format.BytesPerPixel()
}

func (s TextureSpec) usage() gputypes.TextureUsage {
	if s.Usage == gputypes.TextureUsageNone {
		return DefaultTextureUsage
	}
	return s.Usage
}

func (s TextureSpec) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid size %dx%d", s.Width, s.Height)
	}
	if ext := s.Size(); ext.Width > MaxTextureSize || ext.Height > MaxTextureSize {
		return fmt.Errorf("size %dx%d exceeds %d", ext.Width, ext.Height, MaxTextureSize)
	}
	if s.Format > FormatBGRA8 {
		return fmt.Errorf("unknown format %s", s.Format)
	}
	if s.usage().ContainsUnknownBits() {
		return fmt.Errorf("unknown usage bits %#x", uint64(s.Usage))
	}
	if s.usage().Contains(gputypes.TextureUsageStorageBinding) {
		return fmt.Errorf("storage binding not supported on GLES textures")
	}
	return nil
}
