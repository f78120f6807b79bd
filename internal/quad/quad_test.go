//go:build linux

package quad

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/gogpu/dmabridge"
	"github.com/gogpu/dmabridge/backend"
	"github.com/gogpu/dmabridge/backend/soft"
	"github.com/gogpu/gputypes"
)

// importedTexture exports a pattern from one soft driver, imports it into
// another and leaves the importing context current.
func importedTexture(t *testing.T) (*dmabridge.DriverContext, *dmabridge.ImportedTexture) {
	t.Helper()
	be := soft.NewBackend(soft.NewDevice(), soft.Options{CacheCurrent: true})
	arb := dmabridge.NewArbiter()
	req := dmabridge.DefaultConfigRequirements()
	req.SurfaceType = backend.EGL_PBUFFER_BIT

	open := func(name, egl, gles string) *dmabridge.DriverContext {
		b, err := dmabridge.LoadBinding(be, dmabridge.DefaultRequirements(egl, gles)...)
		if err != nil {
			t.Fatalf("LoadBinding() error = %v", err)
		}
		t.Cleanup(func() { _ = b.Close() })
		drv, err := b.Driver(name)
		if err != nil {
			t.Fatal(err)
		}
		dc := dmabridge.NewDriverContext(name, drv)
		t.Cleanup(func() {
			_ = arb.Forget(dc)
			_ = dc.Destroy()
		})
		for _, step := range []func() error{
			func() error { return dc.OpenDisplay(backend.EGL_DEFAULT_DISPLAY) },
			func() error { return dc.ChooseConfig(req) },
			func() error { return dc.CreateContext(nil, dmabridge.ES2) },
			func() error { return dc.CreatePbuffer(64, 64) },
		} {
			if err := step(); err != nil {
				t.Fatal(err)
			}
		}
		return dc
	}
	src := open("native", "libEGL.so.1", "libGLESv2.so.2")
	dst := open("secondary", "/opt/angle/libEGL.so", "/opt/angle/libGLESv2.so")

	bridge := dmabridge.NewBridge(arb)
	t.Cleanup(func() { _ = bridge.Close() })
	exp, err := bridge.Export(src, dmabridge.TextureSpec{Width: 32, Height: 32}, dmabridge.Pattern(32, 32))
	if err != nil {
		t.Fatal(err)
	}
	imp, err := bridge.Import(dst, exp, 32, 32)
	if err != nil {
		t.Fatal(err)
	}
	if err := arb.Activate(dst); err != nil {
		t.Fatal(err)
	}
	return dst, imp
}

func TestRendererDraw(t *testing.T) {
	dc, imp := importedTexture(t)
	r := New()
	r.SetLogger(slog.New(slog.DiscardHandler))
	if err := r.Init(dc, imp.Texture()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	r.Resize(400, 300)
	if w, h := r.Size(); w != 400 || h != 300 {
		t.Errorf("Size() = %dx%d, want 400x300", w, h)
	}
	for i := 0; i < 2; i++ {
		if err := r.Draw(); err != nil {
			t.Fatalf("Draw() error = %v", err)
		}
	}
	st := dc.Driver().(*soft.Driver).Stats()
	if st.Draws != 2 {
		t.Errorf("Draws = %d, want 2", st.Draws)
	}
	if st.Sampled != imp.Texture() {
		t.Errorf("Sampled = %d, want imported texture %d", st.Sampled, imp.Texture())
	}
	if st.Viewport != [4]int32{0, 0, 400, 300} {
		t.Errorf("Viewport = %v, want [0 0 400 300]", st.Viewport)
	}
	if err := r.Init(dc, imp.Texture()); err == nil {
		t.Error("second Init() = nil, want error")
	}

	if err := r.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := r.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
	if err := r.Draw(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Draw() after Release error = %v, want ErrNotInitialized", err)
	}
}

func TestRendererNotInitialized(t *testing.T) {
	r := New()
	r.Resize(10, 10)
	if err := r.Draw(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Draw() error = %v, want ErrNotInitialized", err)
	}
	if err := r.Release(); err != nil {
		t.Errorf("Release() error = %v", err)
	}
}

func TestLayout(t *testing.T) {
	if Layout.ArrayStride != 16 {
		t.Errorf("ArrayStride = %d, want 16", Layout.ArrayStride)
	}
	if len(Layout.Attributes) != len(attribNames) {
		t.Fatalf("%d attributes, %d names", len(Layout.Attributes), len(attribNames))
	}
	for i, a := range Layout.Attributes {
		if a.Format != gputypes.VertexFormatFloat32x2 || a.ShaderLocation != uint32(i) {
			t.Errorf("Attributes[%d] = %+v", i, a)
		}
	}
	if got := uint64(len(vertices)) * 4 / Layout.ArrayStride; got != vertexCount {
		t.Errorf("vertex data holds %d vertices, want %d", got, vertexCount)
	}
}

func TestVertexBytes(t *testing.T) {
	b := vertexBytes([]float32{1, -0.5})
	want := binary.LittleEndian.AppendUint32(nil, math.Float32bits(1))
	want = binary.LittleEndian.AppendUint32(want, math.Float32bits(-0.5))
	if !bytes.Equal(b, want) {
		t.Errorf("vertexBytes() = %x, want %x", b, want)
	}
}
