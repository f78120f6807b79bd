package dmabridge

import (
	"github.com/gogpu/dmabridge/backend"
)

// DontCare marks a size requirement as soft: any value is acceptable.
const DontCare = int32(backend.EGL_DONT_CARE)

// ConfigRequirements is the declarative config request. Channel, depth and
// stencil sizes are minimums; Renderable and SurfaceType are bit sets the
// config must contain.
type ConfigRequirements struct {
	RedSize, GreenSize, BlueSize, AlphaSize int32
	DepthSize, StencilSize                  int32

	Renderable  backend.Int
	SurfaceType backend.Int

	// NativeVisualID, when non-zero, must equal the config's native visual.
	NativeVisualID int32
}

// DefaultConfigRequirements returns an 8-bit RGB, 16-bit depth, ES2 capable
// window config with any stencil size.
func DefaultConfigRequirements() ConfigRequirements {
	return ConfigRequirements{
		RedSize:     8,
		GreenSize:   8,
		BlueSize:    8,
		AlphaSize:   DontCare,
		DepthSize:   16,
		StencilSize: DontCare,
		Renderable:  backend.EGL_OPENGL_ES2_BIT,
		SurfaceType: backend.EGL_WINDOW_BIT,
	}
}

// Attribs returns the EGL_NONE terminated attribute list for eglChooseConfig.
func (r ConfigRequirements) Attribs() []backend.Int {
	attribs := []backend.Int{backend.EGL_COLOR_BUFFER_TYPE, backend.EGL_RGB_BUFFER}
	add := func(key backend.Int, v int32) {
		if v == 0 {
			return
		}
		attribs = append(attribs, key, backend.Int(v))
	}
	add(backend.EGL_RED_SIZE, r.RedSize)
	add(backend.EGL_GREEN_SIZE, r.GreenSize)
	add(backend.EGL_BLUE_SIZE, r.BlueSize)
	add(backend.EGL_ALPHA_SIZE, r.AlphaSize)
	add(backend.EGL_DEPTH_SIZE, r.DepthSize)
	add(backend.EGL_STENCIL_SIZE, r.StencilSize)
	if r.Renderable != 0 {
		attribs = append(attribs, backend.EGL_RENDERABLE_TYPE, r.Renderable)
	}
	if r.SurfaceType != 0 {
		attribs = append(attribs, backend.EGL_SURFACE_TYPE, r.SurfaceType)
	}
	return append(attribs, backend.EGL_NONE)
}

// configAttribs is what satisfies checks against a candidate.
type configAttribs struct {
	red, green, blue, alpha int32
	depth, stencil          int32
	renderable, surfaceType backend.Int
	visualID                int32
}

// satisfies reports whether a candidate meets every hard requirement.
func (r ConfigRequirements) satisfies(c configAttribs) bool {
	atLeast := func(have, want int32) bool {
		return want == DontCare || have >= want
	}
	switch {
	case !atLeast(c.red, r.RedSize), !atLeast(c.green, r.GreenSize), !atLeast(c.blue, r.BlueSize):
		return false
	case !atLeast(c.alpha, r.AlphaSize), !atLeast(c.depth, r.DepthSize), !atLeast(c.stencil, r.StencilSize):
		return false
	case c.renderable&r.Renderable != r.Renderable:
		return false
	case c.surfaceType&r.SurfaceType != r.SurfaceType:
		return false
	case r.NativeVisualID != 0 && c.visualID != r.NativeVisualID:
		return false
	}
	return true
}
