//go:build linux

package soft

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// pitchAlign is the row alignment of soft texture allocations.
const pitchAlign = 256

// storage is a shared memory allocation backing textures and images.
// It owns fd and the mapping; refs counts textures and images using it.
type storage struct {
	fd   int
	mem  []byte
	refs int
}

func alignPitch(width int) int {
	p := width * 4
	return (p + pitchAlign - 1) &^ (pitchAlign - 1)
}

// newStorage allocates size bytes of zeroed shareable memory.
func newStorage(size int) (*storage, error) {
	fd, err := unix.MemfdCreate("dmabridge-soft", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("soft: memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("soft: ftruncate: %w", err)
	}
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("soft: mmap: %w", err)
	}
	return &storage{fd: fd, mem: mem, refs: 1}, nil
}

// mapStorage maps an existing descriptor. The caller keeps ownership of fd;
// the storage holds its own duplicate.
func mapStorage(fd int) (*storage, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, fmt.Errorf("soft: fstat: %w", err)
	}
	if st.Size <= 0 {
		return nil, fmt.Errorf("soft: empty buffer")
	}
	dup, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("soft: dup: %w", err)
	}
	mem, err := unix.Mmap(dup, 0, int(st.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(dup)
		return nil, fmt.Errorf("soft: mmap: %w", err)
	}
	return &storage{fd: dup, mem: mem, refs: 1}, nil
}

func (s *storage) retain() *storage {
	s.refs++
	return s
}

func (s *storage) release() {
	s.refs--
	if s.refs > 0 {
		return
	}
	if s.mem != nil {
		_ = unix.Munmap(s.mem)
		s.mem = nil
	}
	if s.fd >= 0 {
		_ = unix.Close(s.fd)
		s.fd = -1
	}
}

// export returns a new descriptor for the storage owned by the caller.
func (s *storage) export() (int, error) {
	return unix.FcntlInt(uintptr(s.fd), unix.F_DUPFD_CLOEXEC, 0)
}
