// Package dmabridge shares one GPU texture between two independently
// initialised EGL/GLES driver stacks without copying pixels.
//
// A process binds two drivers (typically the system Mesa driver and a second
// driver such as ANGLE loaded from an explicit directory), gives each its own
// display, config, context and surface, and moves texture storage between
// them as a Linux dma-buf:
//
//	native, _ := dmabridge.LoadBinding(be, dmabridge.DefaultRequirements("libEGL.so.1", "libGLESv2.so.2")...)
//	drv, _ := native.Driver("native")
//	src := dmabridge.NewDriverContext("native", drv)
//	// OpenDisplay, ChooseConfig, CreateContext, CreatePbuffer ...
//
//	arb := dmabridge.NewArbiter()
//	br := dmabridge.NewBridge(arb)
//	exp, _ := br.Export(src, dmabridge.TextureSpec{Width: 256, Height: 256, Format: dmabridge.FormatRGBA8}, pixels)
//	imp, _ := br.Import(dst, exp, 256, 256)
//
// # Drivers
//
// Entry points come from a [backend.Backend]. The "egl" backend dlopens real
// driver libraries; the "soft" backend emulates EGL and GLES in Go with
// memfd-backed storage and is what the tests run against.
//
// # Current context
//
// EGL current state is per thread and some drivers cache the triple they
// made current last. Every activation goes through an [Arbiter], which
// detaches the previously active driver with a null triple before switching.
// Callers must run all driver calls on one OS thread
// (runtime.LockOSThread).
//
// # Synchronisation
//
// There are no fences. The exporter runs glFinish before a descriptor is
// handed out and after every upload is flushed; an import of content that has
// not been flushed succeeds but reports [ImportedTexture.Stale].
//
// # Session
//
// [Session] strings the steps together for a windowed or headless run and
// tears everything down in reverse order on failure or shutdown.
package dmabridge
