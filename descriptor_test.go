//go:build linux

package dmabridge

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/dmabridge/backend"
	"golang.org/x/sys/unix"
)

// memfdDescriptor returns a single-plane descriptor backed by a memfd.
func memfdDescriptor(t *testing.T, modifier backend.Modifier) *SharedImageDescriptor {
	t.Helper()
	fd, err := unix.MemfdCreate("dmabridge-test", unix.MFD_CLOEXEC)
	if err != nil {
		t.Skipf("memfd_create: %v", err)
	}
	d := &SharedImageDescriptor{
		Width:    4,
		Height:   2,
		FourCC:   backend.FourCCABGR8888,
		Modifier: modifier,
		Planes:   []Plane{{FD: fd, Stride: 64, Offset: 0}},
	}
	t.Cleanup(func() { _ = d.Release() })
	return d
}

func sameFile(t *testing.T, a, b int) bool {
	t.Helper()
	var sa, sb unix.Stat_t
	if err := unix.Fstat(a, &sa); err != nil {
		t.Fatalf("fstat(%d): %v", a, err)
	}
	if err := unix.Fstat(b, &sb); err != nil {
		t.Fatalf("fstat(%d): %v", b, err)
	}
	return sa.Dev == sb.Dev && sa.Ino == sb.Ino
}

// TestDescriptorDup tests that every dup returns fresh close-on-exec fds
// for the same file.
func TestDescriptorDup(t *testing.T) {
	d := memfdDescriptor(t, backend.ModifierLinear)
	orig := d.Planes[0].FD

	a, err := d.dup()
	if err != nil {
		t.Fatalf("dup() error = %v", err)
	}
	b, err := d.dup()
	if err != nil {
		t.Fatalf("dup() error = %v", err)
	}
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("dup() returned %d and %d fds, want 1", len(a), len(b))
	}
	if a[0] == orig || b[0] == orig || a[0] == b[0] {
		t.Errorf("dup() fds = %d, %d for plane fd %d, want distinct", a[0], b[0], orig)
	}
	if !sameFile(t, a[0], orig) {
		t.Error("dup() fd refers to a different file")
	}
	flags, err := unix.FcntlInt(uintptr(a[0]), unix.F_GETFD, 0)
	if err != nil {
		t.Fatal(err)
	}
	if flags&unix.FD_CLOEXEC == 0 {
		t.Error("dup() fd is not close-on-exec")
	}

	if err := closeFDs(slices.Concat(a, b)); err != nil {
		t.Errorf("closeFDs() error = %v", err)
	}
	// Closing duplicates leaves the descriptor usable.
	if _, err := unix.FcntlInt(uintptr(orig), unix.F_GETFD, 0); err != nil {
		t.Errorf("plane fd closed with its duplicates: %v", err)
	}
}

// TestDescriptorRelease tests that Release closes the plane fds once and
// disables dup.
func TestDescriptorRelease(t *testing.T) {
	d := memfdDescriptor(t, backend.ModifierLinear)
	orig := d.Planes[0].FD
	if d.Released() {
		t.Fatal("Released() = true before Release")
	}
	if err := d.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if !d.Released() {
		t.Error("Released() = false after Release")
	}
	if _, err := unix.FcntlInt(uintptr(orig), unix.F_GETFD, 0); !errors.Is(err, unix.EBADF) {
		t.Errorf("plane fd still open after Release: %v", err)
	}
	if err := d.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
	if _, err := d.dup(); !errors.Is(err, ErrReleased) {
		t.Errorf("dup() after Release error = %v, want ErrReleased", err)
	}
}

func TestCloseFDsBad(t *testing.T) {
	if err := closeFDs([]int{-1}); err == nil {
		t.Error("closeFDs(-1) = nil, want error")
	}
	if err := closeFDs(nil); err != nil {
		t.Errorf("closeFDs(nil) = %v", err)
	}
}

func attribValue(attribs []backend.Int, name backend.Int) (backend.Int, bool) {
	for i := 0; i+1 < len(attribs); i += 2 {
		if attribs[i] == name {
			return attribs[i+1], true
		}
	}
	return 0, false
}

func TestImportAttribs(t *testing.T) {
	tests := []struct {
		name     string
		modifier backend.Modifier
		wantMod  bool
	}{
		{"linear", backend.ModifierLinear, true},
		{"tiled", backend.Modifier(0x0100000000000002), true},
		{"implicit", backend.ModifierInvalid, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &SharedImageDescriptor{
				Width: 8, Height: 4, FourCC: backend.FourCCXBGR8888, Modifier: tt.modifier,
				Planes: []Plane{{FD: 3, Stride: 64, Offset: 16}},
			}
			attribs := d.importAttribs([]int{42}, 8, 4)
			if attribs[len(attribs)-1] != backend.EGL_NONE {
				t.Fatalf("importAttribs() = %v, not EGL_NONE terminated", attribs)
			}
			want := map[backend.Int]backend.Int{
				backend.EGL_WIDTH:                     8,
				backend.EGL_HEIGHT:                    4,
				backend.EGL_LINUX_DRM_FOURCC_EXT:      backend.Int(backend.FourCCXBGR8888),
				backend.EGL_DMA_BUF_PLANE0_FD_EXT:     42,
				backend.EGL_DMA_BUF_PLANE0_OFFSET_EXT: 16,
				backend.EGL_DMA_BUF_PLANE0_PITCH_EXT:  64,
			}
			for name, v := range want {
				if got, ok := attribValue(attribs, name); !ok || got != v {
					t.Errorf("attribute %#x = %d (present %v), want %d", name, got, ok, v)
				}
			}
			lo, okLo := attribValue(attribs, backend.EGL_DMA_BUF_PLANE0_MODIFIER_LO_EXT)
			hi, okHi := attribValue(attribs, backend.EGL_DMA_BUF_PLANE0_MODIFIER_HI_EXT)
			if okLo != tt.wantMod || okHi != tt.wantMod {
				t.Fatalf("modifier attributes present = %v/%v, want %v", okLo, okHi, tt.wantMod)
			}
			if tt.wantMod {
				wantLo, wantHi := tt.modifier.Split()
				if lo != wantLo || hi != wantHi {
					t.Errorf("modifier = (%#x, %#x), want (%#x, %#x)", lo, hi, wantLo, wantHi)
				}
			}
		})
	}
}

func TestDescriptorString(t *testing.T) {
	d := &SharedImageDescriptor{
		Width: 256, Height: 128, FourCC: backend.FourCCABGR8888, Modifier: backend.ModifierLinear,
		Planes: []Plane{{FD: 7, Stride: 1024}},
	}
	want := "256x128 AB24 modifier=LINEAR planes=1"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
