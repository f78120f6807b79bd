package dmabridge

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/dmabridge/backend"
	"golang.org/x/sys/unix"
)

// Plane is one memory plane of an exported image.
type Plane struct {
	// FD is the dma-buf file descriptor. It is owned by the descriptor.
	FD     int
	Stride int32
	Offset int32
}

// SharedImageDescriptor describes exported texture storage in terms another
// driver can import. The plane fds are owned by the descriptor and closed
// by Release; importers work on duplicates.
type SharedImageDescriptor struct {
	Width    int32
	Height   int32
	FourCC   backend.FourCC
	Modifier backend.Modifier
	Planes   []Plane

	released atomic.Bool
}

// PlaneCount returns the number of planes.
func (d *SharedImageDescriptor) PlaneCount() int { return len(d.Planes) }

// Released reports whether Release has been called.
func (d *SharedImageDescriptor) Released() bool { return d.released.Load() }

// String returns a one-line summary for diagnostics.
func (d *SharedImageDescriptor) String() string {
	return fmt.Sprintf("%dx%d %s modifier=%s planes=%d", d.Width, d.Height, d.FourCC, d.Modifier, len(d.Planes))
}

// dup returns close-on-exec duplicates of the plane fds. An EGL import does
// not take ownership of the fds it is given, and a single fd is not assumed
// to survive more than one import, so every import gets its own copies.
func (d *SharedImageDescriptor) dup() ([]int, error) {
	if d.released.Load() {
		return nil, ErrReleased
	}
	fds := make([]int, 0, len(d.Planes))
	for _, p := range d.Planes {
		fd, err := unix.FcntlInt(uintptr(p.FD), unix.F_DUPFD_CLOEXEC, 0)
		if err != nil {
			closeFDs(fds)
			return nil, fmt.Errorf("dup plane fd %d: %w", p.FD, err)
		}
		fds = append(fds, fd)
	}
	return fds, nil
}

// Release closes the plane fds. Only the first call has an effect.
func (d *SharedImageDescriptor) Release() error {
	if d.released.Swap(true) {
		return nil
	}
	fds := make([]int, len(d.Planes))
	for i, p := range d.Planes {
		fds[i] = p.FD
	}
	return closeFDs(fds)
}

func closeFDs(fds []int) error {
	var errs []error
	for _, fd := range fds {
		if err := unix.Close(fd); err != nil {
			errs = append(errs, fmt.Errorf("close fd %d: %w", fd, err))
		}
	}
	return errors.Join(errs...)
}

// importAttribs builds the EGL_LINUX_DMA_BUF_EXT attribute list for a
// single-plane import of fds with the declared size.
func (d *SharedImageDescriptor) importAttribs(fds []int, width, height int32) []backend.Int {
	p := d.Planes[0]
	attribs := []backend.Int{
		backend.EGL_WIDTH, backend.Int(width),
		backend.EGL_HEIGHT, backend.Int(height),
		backend.EGL_LINUX_DRM_FOURCC_EXT, backend.Int(d.FourCC), //nolint:gosec // G115: fourcc is a raw 32-bit word
		backend.EGL_DMA_BUF_PLANE0_FD_EXT, backend.Int(fds[0]), //nolint:gosec // G115: fds fit in an EGLint
		backend.EGL_DMA_BUF_PLANE0_OFFSET_EXT, backend.Int(p.Offset),
		backend.EGL_DMA_BUF_PLANE0_PITCH_EXT, backend.Int(p.Stride),
	}
	if d.Modifier != backend.ModifierInvalid {
		lo, hi := d.Modifier.Split()
		attribs = append(attribs,
			backend.EGL_DMA_BUF_PLANE0_MODIFIER_LO_EXT, lo,
			backend.EGL_DMA_BUF_PLANE0_MODIFIER_HI_EXT, hi)
	}
	return append(attribs, backend.EGL_NONE)
}
