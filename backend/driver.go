package backend

// EGL handle types. The zero value is the EGL_NO_* value.
type (
	Display uintptr
	Config  uintptr
	Context uintptr
	Surface uintptr
	Image   uintptr

	// NativeDisplay is the platform display handed to eglGetDisplay.
	NativeDisplay uintptr

	// NativeWindow is the platform window handed to eglCreateWindowSurface.
	// On X11 it is the window XID.
	NativeWindow uintptr
)

// GL object names. Zero is never a valid object.
type (
	Texture     uint32
	Framebuffer uint32
	Buffer      uint32
	Shader      uint32
	Program     uint32
)

// Int is an EGLint: attribute keys, values and error codes.
type Int int32

// Enum is a GLenum.
type Enum uint32

// Driver is the complete set of entry points one driver instance exposes.
//
// Methods mirror the EGL and GLES calls they wrap and report failure the same
// way the C API does (zero handles, false results); callers query EGLError or
// GLError right after the failing call. All methods must be called from the
// thread the driver's context is current on.
type Driver interface {
	// Name returns the diagnostic name of the driver instance.
	Name() string

	EGL
	GL
}

// LibraryIdentifier is implemented by drivers whose EGL state lives in a
// shared library that other drivers may have loaded too. Drivers reporting
// the same LibraryID share displays: the loader returns one image per path,
// so eglGetDisplay hands both of them the same EGLDisplay.
type LibraryIdentifier interface {
	LibraryID() uintptr
}

// EGL holds the display, config, context, surface and image entry points.
type EGL interface {
	GetDisplay(native NativeDisplay) Display
	Initialize(dpy Display) (major, minor Int, ok bool)
	Terminate(dpy Display) bool
	BindAPI(api Enum) bool
	QueryString(dpy Display, name Int) string

	// ChooseConfig returns every config matching attribs in the driver's
	// preference order.
	ChooseConfig(dpy Display, attribs []Int) ([]Config, bool)
	GetConfigAttrib(dpy Display, cfg Config, attr Int) (Int, bool)

	CreateContext(dpy Display, cfg Config, share Context, attribs []Int) Context
	DestroyContext(dpy Display, ctx Context) bool
	CreateWindowSurface(dpy Display, cfg Config, win NativeWindow, attribs []Int) Surface
	CreatePbufferSurface(dpy Display, cfg Config, attribs []Int) Surface
	DestroySurface(dpy Display, surf Surface) bool
	MakeCurrent(dpy Display, draw, read Surface, ctx Context) bool
	SwapBuffers(dpy Display, surf Surface) bool

	// EGLError returns and clears the calling thread's EGL error.
	EGLError() Int

	// CreateImage wraps eglCreateImageKHR.
	CreateImage(dpy Display, ctx Context, target Enum, buffer uintptr, attribs []Int) Image
	DestroyImage(dpy Display, img Image) bool

	// ExportDMABUFImageQuery wraps eglExportDMABUFImageQueryMESA.
	ExportDMABUFImageQuery(dpy Display, img Image) (fourcc FourCC, planes int, modifier Modifier, ok bool)

	// ExportDMABUFImage wraps eglExportDMABUFImageMESA. The returned fds are
	// owned by the caller.
	ExportDMABUFImage(dpy Display, img Image, planes int) (fds []int, strides, offsets []Int, ok bool)
}

// GL holds the GLES entry points.
type GL interface {
	// GLError returns and clears the current context's GL error.
	GLError() Enum

	GenTexture() Texture
	DeleteTexture(tex Texture)
	BindTexture(target Enum, tex Texture)
	ActiveTexture(unit Enum)
	TexParameteri(target, pname Enum, param int32)
	TexImage2D(target Enum, level, internalFormat, width, height int32, format, typ Enum, pixels []byte)
	TexSubImage2D(target Enum, level, x, y, width, height int32, format, typ Enum, pixels []byte)

	// EGLImageTargetTexture2DOES binds img as the storage of the texture
	// currently bound to target.
	EGLImageTargetTexture2DOES(target Enum, img Image)

	GenFramebuffer() Framebuffer
	DeleteFramebuffer(fb Framebuffer)
	BindFramebuffer(target Enum, fb Framebuffer)
	FramebufferTexture2D(target, attachment, texTarget Enum, tex Texture, level int32)
	CheckFramebufferStatus(target Enum) Enum
	ReadPixels(x, y, width, height int32, format, typ Enum, dst []byte)

	GenBuffer() Buffer
	DeleteBuffer(buf Buffer)
	BindBuffer(target Enum, buf Buffer)
	BufferData(target Enum, data []byte, usage Enum)
	VertexAttribPointer(index uint32, size int32, typ Enum, normalized bool, stride int32, offset uintptr)
	EnableVertexAttribArray(index uint32)
	DrawArrays(mode Enum, first, count int32)

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask Enum)

	CreateShader(typ Enum) Shader
	ShaderSource(s Shader, src string)
	CompileShader(s Shader)
	GetShaderi(s Shader, pname Enum) int32
	GetShaderInfoLog(s Shader) string
	DeleteShader(s Shader)

	CreateProgram() Program
	AttachShader(p Program, s Shader)
	LinkProgram(p Program)
	GetProgrami(p Program, pname Enum) int32
	GetProgramInfoLog(p Program) string
	UseProgram(p Program)
	DeleteProgram(p Program)
	GetAttribLocation(p Program, name string) int32
	GetUniformLocation(p Program, name string) int32
	Uniform1i(location, v int32)

	Flush()
	Finish()
}
