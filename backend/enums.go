package backend

import "fmt"

// EGL constants, from EGL/egl.h and EGL/eglext.h.
const (
	EGL_FALSE Int = 0
	EGL_TRUE  Int = 1

	EGL_DONT_CARE Int = -1
	EGL_NONE      Int = 0x3038

	EGL_SUCCESS             Int = 0x3000
	EGL_NOT_INITIALIZED     Int = 0x3001
	EGL_BAD_ACCESS          Int = 0x3002
	EGL_BAD_ALLOC           Int = 0x3003
	EGL_BAD_ATTRIBUTE       Int = 0x3004
	EGL_BAD_CONFIG          Int = 0x3005
	EGL_BAD_CONTEXT         Int = 0x3006
	EGL_BAD_CURRENT_SURFACE Int = 0x3007
	EGL_BAD_DISPLAY         Int = 0x3008
	EGL_BAD_MATCH           Int = 0x3009
	EGL_BAD_NATIVE_PIXMAP   Int = 0x300A
	EGL_BAD_NATIVE_WINDOW   Int = 0x300B
	EGL_BAD_PARAMETER       Int = 0x300C
	EGL_BAD_SURFACE         Int = 0x300D
	EGL_CONTEXT_LOST        Int = 0x300E

	EGL_BUFFER_SIZE       Int = 0x3020
	EGL_ALPHA_SIZE        Int = 0x3021
	EGL_BLUE_SIZE         Int = 0x3022
	EGL_GREEN_SIZE        Int = 0x3023
	EGL_RED_SIZE          Int = 0x3024
	EGL_DEPTH_SIZE        Int = 0x3025
	EGL_STENCIL_SIZE      Int = 0x3026
	EGL_CONFIG_ID         Int = 0x3028
	EGL_NATIVE_VISUAL_ID  Int = 0x302E
	EGL_SURFACE_TYPE      Int = 0x3033
	EGL_COLOR_BUFFER_TYPE Int = 0x303F
	EGL_RENDERABLE_TYPE   Int = 0x3040
	EGL_RGB_BUFFER        Int = 0x308E

	EGL_PBUFFER_BIT    Int = 0x0001
	EGL_WINDOW_BIT     Int = 0x0004
	EGL_OPENGL_ES2_BIT Int = 0x0004
	EGL_OPENGL_ES3_BIT Int = 0x0040

	EGL_VENDOR      Int = 0x3053
	EGL_VERSION     Int = 0x3054
	EGL_EXTENSIONS  Int = 0x3055
	EGL_CLIENT_APIS Int = 0x308D
	EGL_HEIGHT      Int = 0x3056
	EGL_WIDTH       Int = 0x3057

	EGL_OPENGL_ES_API Enum = 0x30A0

	EGL_CONTEXT_MAJOR_VERSION Int = 0x3098
	EGL_CONTEXT_MINOR_VERSION Int = 0x30FB

	EGL_GL_TEXTURE_2D_KHR    Enum = 0x30B1
	EGL_GL_TEXTURE_LEVEL_KHR Int  = 0x30BC
	EGL_IMAGE_PRESERVED_KHR  Int  = 0x30D2

	EGL_LINUX_DMA_BUF_EXT              Enum = 0x3270
	EGL_LINUX_DRM_FOURCC_EXT           Int  = 0x3271
	EGL_DMA_BUF_PLANE0_FD_EXT          Int  = 0x3272
	EGL_DMA_BUF_PLANE0_OFFSET_EXT      Int  = 0x3273
	EGL_DMA_BUF_PLANE0_PITCH_EXT       Int  = 0x3274
	EGL_DMA_BUF_PLANE0_MODIFIER_LO_EXT Int  = 0x3443
	EGL_DMA_BUF_PLANE0_MODIFIER_HI_EXT Int  = 0x3444
)

// EGL_DEFAULT_DISPLAY is the native display that selects the platform default.
const EGL_DEFAULT_DISPLAY NativeDisplay = 0

// GL constants, from GLES2/gl2.h, GLES3/gl3.h and GLES2/gl2ext.h.
const (
	GL_NO_ERROR          Enum = 0
	GL_INVALID_ENUM      Enum = 0x0500
	GL_INVALID_VALUE     Enum = 0x0501
	GL_INVALID_OPERATION Enum = 0x0502
	GL_OUT_OF_MEMORY     Enum = 0x0505

	GL_INVALID_FRAMEBUFFER_OPERATION Enum = 0x0506

	GL_FALSE Enum = 0
	GL_TRUE  Enum = 1

	GL_TEXTURE_2D         Enum = 0x0DE1
	GL_TEXTURE_MAG_FILTER Enum = 0x2800
	GL_TEXTURE_MIN_FILTER Enum = 0x2801
	GL_TEXTURE_WRAP_S     Enum = 0x2802
	GL_TEXTURE_WRAP_T     Enum = 0x2803
	GL_NEAREST            Enum = 0x2600
	GL_LINEAR             Enum = 0x2601
	GL_CLAMP_TO_EDGE      Enum = 0x812F
	GL_TEXTURE0           Enum = 0x84C0

	GL_RGBA          Enum = 0x1908
	GL_RGBA8         Enum = 0x8058
	GL_BGRA_EXT      Enum = 0x80E1
	GL_UNSIGNED_BYTE Enum = 0x1401
	GL_FLOAT         Enum = 0x1406

	GL_FRAMEBUFFER          Enum = 0x8D40
	GL_COLOR_ATTACHMENT0    Enum = 0x8CE0
	GL_FRAMEBUFFER_COMPLETE Enum = 0x8CD5

	GL_FRAMEBUFFER_INCOMPLETE_ATTACHMENT         Enum = 0x8CD6
	GL_FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT Enum = 0x8CD7

	GL_ARRAY_BUFFER   Enum = 0x8892
	GL_STATIC_DRAW    Enum = 0x88E4
	GL_TRIANGLES      Enum = 0x0004
	GL_TRIANGLE_STRIP Enum = 0x0005
	GL_TRIANGLE_FAN   Enum = 0x0006

	GL_DEPTH_BUFFER_BIT   Enum = 0x0100
	GL_STENCIL_BUFFER_BIT Enum = 0x0400
	GL_COLOR_BUFFER_BIT   Enum = 0x4000

	GL_FRAGMENT_SHADER Enum = 0x8B30
	GL_VERTEX_SHADER   Enum = 0x8B31
	GL_SHADER_TYPE     Enum = 0x8B4F
	GL_COMPILE_STATUS  Enum = 0x8B81
	GL_LINK_STATUS     Enum = 0x8B82
	GL_INFO_LOG_LENGTH Enum = 0x8B84
)

// FourCC is a DRM pixel format code (drm_fourcc.h).
type FourCC uint32

// DRM formats used for single-plane RGBA sharing. Names follow drm_fourcc.h,
// where the channel order is given for a little-endian 32-bit word.
const (
	FourCCABGR8888 FourCC = 'A' | 'B'<<8 | '2'<<16 | '4'<<24
	FourCCXBGR8888 FourCC = 'X' | 'B'<<8 | '2'<<16 | '4'<<24
	FourCCARGB8888 FourCC = 'A' | 'R'<<8 | '2'<<16 | '4'<<24
)

// String returns the four characters of the code.
func (f FourCC) String() string {
	b := []byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("FourCC(0x%08x)", uint32(f))
		}
	}
	return string(b)
}

// Modifier is a DRM format modifier describing tiling and compression.
type Modifier uint64

const (
	// ModifierLinear is DRM_FORMAT_MOD_LINEAR.
	ModifierLinear Modifier = 0

	// ModifierInvalid is DRM_FORMAT_MOD_INVALID: the layout is implied by
	// the buffer and no modifier attributes are passed on import.
	ModifierInvalid Modifier = 0x00ffffffffffffff
)

// String returns a short description of the modifier.
func (m Modifier) String() string {
	switch m {
	case ModifierLinear:
		return "LINEAR"
	case ModifierInvalid:
		return "INVALID"
	default:
		return fmt.Sprintf("0x%016x", uint64(m))
	}
}

// Split returns the low and high 32 bits as EGL attribute values.
func (m Modifier) Split() (lo, hi Int) {
	//nolint:gosec // G115: attribute values are raw 32-bit words
	return Int(uint32(m)), Int(uint32(m >> 32))
}

var eglErrorNames = map[Int]string{
	EGL_SUCCESS:             "EGL_SUCCESS",
	EGL_NOT_INITIALIZED:     "EGL_NOT_INITIALIZED",
	EGL_BAD_ACCESS:          "EGL_BAD_ACCESS",
	EGL_BAD_ALLOC:           "EGL_BAD_ALLOC",
	EGL_BAD_ATTRIBUTE:       "EGL_BAD_ATTRIBUTE",
	EGL_BAD_CONFIG:          "EGL_BAD_CONFIG",
	EGL_BAD_CONTEXT:         "EGL_BAD_CONTEXT",
	EGL_BAD_CURRENT_SURFACE: "EGL_BAD_CURRENT_SURFACE",
	EGL_BAD_DISPLAY:         "EGL_BAD_DISPLAY",
	EGL_BAD_MATCH:           "EGL_BAD_MATCH",
	EGL_BAD_NATIVE_PIXMAP:   "EGL_BAD_NATIVE_PIXMAP",
	EGL_BAD_NATIVE_WINDOW:   "EGL_BAD_NATIVE_WINDOW",
	EGL_BAD_PARAMETER:       "EGL_BAD_PARAMETER",
	EGL_BAD_SURFACE:         "EGL_BAD_SURFACE",
	EGL_CONTEXT_LOST:        "EGL_CONTEXT_LOST",
}

// EGLErrorString returns the symbolic name of an EGL error code.
func EGLErrorString(code Int) string {
	if s, ok := eglErrorNames[code]; ok {
		return s
	}
	return fmt.Sprintf("EGL error 0x%04x", int32(code))
}

// GLErrorString returns the symbolic name of a GL error code.
func GLErrorString(code Enum) string {
	switch code {
	case GL_NO_ERROR:
		return "GL_NO_ERROR"
	case GL_INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case GL_INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case GL_INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case GL_OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	case GL_INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	default:
		return fmt.Sprintf("GL error 0x%04x", uint32(code))
	}
}
