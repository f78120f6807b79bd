// Command texbridge shares a texture between two EGL/GLES drivers loaded
// into one process.
//
// The native driver allocates and fills a texture and exports it as a
// dma-buf; the secondary driver (typically ANGLE, from -angle-dir) imports it
// and draws it in an X window. With -headless both drivers render to
// pbuffers, the secondary driver's view of the texture is compared with
// what was uploaded and the exit status reports the result.
//
// Keys: Escape quits, Space re-runs the verification.
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	_ "github.com/gogpu/dmabridge/backend/egl"
	_ "github.com/gogpu/dmabridge/backend/soft"
)

func init() {
	// EGL binds contexts to the calling OS thread.
	runtime.LockOSThread()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := newApp(os.Stderr).run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
