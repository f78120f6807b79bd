//go:build linux

// Package soft implements an EGL/GLES driver in pure Go.
//
// The soft backend follows the observable contract of a real driver closely
// enough to exercise every dmabridge code path without a GPU:
//
//   - texture storage lives in memfd-backed shared mappings, and dma-buf
//     export hands out duplicated memfd descriptors, so an import in a second
//     driver instance aliases the exporter's pixels without a copy
//   - writes (glTexImage2D, glTexSubImage2D) are queued per context and only
//     land in storage on glFlush, glFinish or eglSwapBuffers, modelling the
//     asynchronous pipeline between submission and completion
//   - all drivers created on one [Device] share its notion of the thread's
//     hardware-bound context; with [Options.CacheCurrent] a driver skips
//     eglMakeCurrent for the triple it activated last, reproducing the
//     stale-cache hazard of drivers with client-side current caches
//
// GL calls issued while another driver owns the hardware binding are dropped
// and counted by [Device.Misdirected].
package soft
