package backend

// RequiredEGLSymbols lists every EGL entry point a Driver calls.
// The image and dma-buf export entries are extensions; backends may resolve
// them through eglGetProcAddress.
var RequiredEGLSymbols = []string{
	"eglGetDisplay",
	"eglInitialize",
	"eglTerminate",
	"eglBindAPI",
	"eglQueryString",
	"eglChooseConfig",
	"eglGetConfigAttrib",
	"eglCreateContext",
	"eglDestroyContext",
	"eglCreateWindowSurface",
	"eglCreatePbufferSurface",
	"eglDestroySurface",
	"eglMakeCurrent",
	"eglSwapBuffers",
	"eglGetError",
	"eglCreateImageKHR",
	"eglDestroyImageKHR",
	"eglExportDMABUFImageQueryMESA",
	"eglExportDMABUFImageMESA",
}

// RequiredGLESSymbols lists every GLES entry point a Driver calls.
var RequiredGLESSymbols = []string{
	"glGetError",
	"glGenTextures",
	"glDeleteTextures",
	"glBindTexture",
	"glActiveTexture",
	"glTexParameteri",
	"glTexImage2D",
	"glTexSubImage2D",
	"glEGLImageTargetTexture2DOES",
	"glGenFramebuffers",
	"glDeleteFramebuffers",
	"glBindFramebuffer",
	"glFramebufferTexture2D",
	"glCheckFramebufferStatus",
	"glReadPixels",
	"glGenBuffers",
	"glDeleteBuffers",
	"glBindBuffer",
	"glBufferData",
	"glVertexAttribPointer",
	"glEnableVertexAttribArray",
	"glDrawArrays",
	"glViewport",
	"glClearColor",
	"glClear",
	"glCreateShader",
	"glShaderSource",
	"glCompileShader",
	"glGetShaderiv",
	"glGetShaderInfoLog",
	"glDeleteShader",
	"glCreateProgram",
	"glAttachShader",
	"glLinkProgram",
	"glGetProgramiv",
	"glGetProgramInfoLog",
	"glUseProgram",
	"glDeleteProgram",
	"glGetAttribLocation",
	"glGetUniformLocation",
	"glUniform1i",
	"glFlush",
	"glFinish",
}

// AllSymbols returns RequiredEGLSymbols followed by RequiredGLESSymbols.
func AllSymbols() []string {
	all := make([]string, 0, len(RequiredEGLSymbols)+len(RequiredGLESSymbols))
	all = append(all, RequiredEGLSymbols...)
	return append(all, RequiredGLESSymbols...)
}
