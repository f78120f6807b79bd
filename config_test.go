//go:build linux

package dmabridge

import (
	"errors"
	"testing"

	"github.com/gogpu/dmabridge/backend"
	"github.com/gogpu/dmabridge/backend/soft"
)

func TestConfigRequirementsAttribs(t *testing.T) {
	got := DefaultConfigRequirements().Attribs()
	if got[len(got)-1] != backend.EGL_NONE {
		t.Fatalf("Attribs() = %v, not EGL_NONE terminated", got)
	}
	pairs := make(map[backend.Int]backend.Int)
	for i := 0; i+1 < len(got); i += 2 {
		pairs[got[i]] = got[i+1]
	}
	want := map[backend.Int]backend.Int{
		backend.EGL_COLOR_BUFFER_TYPE: backend.EGL_RGB_BUFFER,
		backend.EGL_RED_SIZE:          8,
		backend.EGL_GREEN_SIZE:        8,
		backend.EGL_BLUE_SIZE:         8,
		backend.EGL_ALPHA_SIZE:        backend.EGL_DONT_CARE,
		backend.EGL_DEPTH_SIZE:        16,
		backend.EGL_STENCIL_SIZE:      backend.EGL_DONT_CARE,
		backend.EGL_RENDERABLE_TYPE:   backend.EGL_OPENGL_ES2_BIT,
		backend.EGL_SURFACE_TYPE:      backend.EGL_WINDOW_BIT,
	}
	for k, v := range want {
		if pairs[k] != v {
			t.Errorf("Attribs()[%#x] = %d, want %d", int32(k), pairs[k], v)
		}
	}
	if len(pairs) != len(want) {
		t.Errorf("Attribs() has %d pairs, want %d", len(pairs), len(want))
	}

	empty := ConfigRequirements{}.Attribs()
	if len(empty) != 3 {
		t.Errorf("zero Attribs() = %v, want only the color buffer type", empty)
	}
}

func TestConfigRequirementsSatisfies(t *testing.T) {
	rgb888 := configAttribs{red: 8, green: 8, blue: 8, depth: 16,
		renderable: backend.EGL_OPENGL_ES2_BIT, surfaceType: backend.EGL_WINDOW_BIT, visualID: 0x22}
	tests := []struct {
		name string
		req  ConfigRequirements
		want bool
	}{
		{"default", DefaultConfigRequirements(), true},
		{"alpha", ConfigRequirements{AlphaSize: 8}, false},
		{"deep", ConfigRequirements{RedSize: 10}, false},
		{"stencil dont care", ConfigRequirements{StencilSize: DontCare}, true},
		{"stencil", ConfigRequirements{StencilSize: 8}, false},
		{"es3", ConfigRequirements{Renderable: backend.EGL_OPENGL_ES3_BIT}, false},
		{"pbuffer", ConfigRequirements{SurfaceType: backend.EGL_PBUFFER_BIT}, false},
		{"visual", ConfigRequirements{NativeVisualID: 0x22}, true},
		{"other visual", ConfigRequirements{NativeVisualID: 0x21}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.satisfies(rgb888); got != tt.want {
				t.Errorf("satisfies() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestChooseConfigDepths tests that the chosen config reports channel,
// depth and stencil sizes at least as large as requested, including on a
// driver whose eglChooseConfig ignores sizes.
func TestChooseConfigDepths(t *testing.T) {
	// Worst match first, so the driver order alone would pick wrong.
	configs := []soft.ConfigDesc{soft.DefaultConfigs[2], soft.DefaultConfigs[1], soft.DefaultConfigs[0]}
	reqs := []ConfigRequirements{
		DefaultConfigRequirements(),
		{RedSize: 5, GreenSize: 6, BlueSize: 5},
		{RedSize: 8, GreenSize: 8, BlueSize: 8, AlphaSize: 8},
		{RedSize: 8, GreenSize: 8, BlueSize: 8, DepthSize: 24, StencilSize: 8},
		{RedSize: 1, DepthSize: 1, StencilSize: DontCare, Renderable: backend.EGL_OPENGL_ES3_BIT},
		{SurfaceType: backend.EGL_PBUFFER_BIT},
	}
	for _, loose := range []bool{false, true} {
		be := soft.NewBackend(soft.NewDevice(), soft.Options{LooseChooseConfig: loose, Configs: configs})
		drv := loadDriver(t, be, "native", DefaultRequirements(nativeEGL, nativeGLES))
		for i, req := range reqs {
			dc := NewDriverContext("native", drv)
			if err := dc.OpenDisplay(backend.EGL_DEFAULT_DISPLAY); err != nil {
				t.Fatalf("OpenDisplay() error = %v", err)
			}
			if err := dc.ChooseConfig(req); err != nil {
				t.Errorf("loose=%v reqs[%d]: ChooseConfig() error = %v", loose, i, err)
				continue
			}
			got, err := dc.configAttribs(dc.Config())
			if err != nil {
				t.Fatalf("configAttribs() error = %v", err)
			}
			checks := []struct {
				name      string
				have, min int32
			}{
				{"red", got.red, req.RedSize},
				{"green", got.green, req.GreenSize},
				{"blue", got.blue, req.BlueSize},
				{"alpha", got.alpha, req.AlphaSize},
				{"depth", got.depth, req.DepthSize},
				{"stencil", got.stencil, req.StencilSize},
			}
			for _, c := range checks {
				if c.min != DontCare && c.have < c.min {
					t.Errorf("loose=%v reqs[%d]: %s = %d, want >= %d", loose, i, c.name, c.have, c.min)
				}
			}
			if got.renderable&req.Renderable != req.Renderable {
				t.Errorf("loose=%v reqs[%d]: renderable = %#x, want %#x", loose, i, got.renderable, req.Renderable)
			}
			if err := dc.Destroy(); err != nil {
				t.Errorf("Destroy() error = %v", err)
			}
		}
	}
}

// TestChooseConfigMismatch tests that unsatisfiable requests fail with
// ErrConfigMismatch.
func TestChooseConfigMismatch(t *testing.T) {
	tests := []struct {
		name  string
		loose bool
		req   ConfigRequirements
	}{
		{"deep color", false, ConfigRequirements{RedSize: 10}},
		{"deep color loose", true, ConfigRequirements{RedSize: 10}},
		{"deep depth loose", true, ConfigRequirements{DepthSize: 32}},
		{"unknown visual", false, ConfigRequirements{NativeVisualID: 0x99}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := soft.NewBackend(soft.NewDevice(), soft.Options{LooseChooseConfig: tt.loose})
			dc := NewDriverContext("native", loadDriver(t, be, "native", DefaultRequirements(nativeEGL, nativeGLES)))
			defer dc.Destroy()
			if err := dc.OpenDisplay(backend.EGL_DEFAULT_DISPLAY); err != nil {
				t.Fatalf("OpenDisplay() error = %v", err)
			}
			if err := dc.ChooseConfig(tt.req); !errors.Is(err, ErrConfigMismatch) {
				t.Errorf("ChooseConfig() error = %v, want ErrConfigMismatch", err)
			}
			if dc.Config() != 0 {
				t.Errorf("Config() = %v after a mismatch", dc.Config())
			}
		})
	}
}

// TestChooseConfigVisual tests selection by native visual.
func TestChooseConfigVisual(t *testing.T) {
	be := soft.NewBackend(soft.NewDevice(), soft.Options{})
	dc := NewDriverContext("native", loadDriver(t, be, "native", DefaultRequirements(nativeEGL, nativeGLES)))
	defer dc.Destroy()
	if err := dc.OpenDisplay(backend.EGL_DEFAULT_DISPLAY); err != nil {
		t.Fatalf("OpenDisplay() error = %v", err)
	}
	for _, visual := range []int32{0x23, 0x22, 0x21} {
		req := ConfigRequirements{RedSize: 5, NativeVisualID: visual}
		if err := dc.ChooseConfig(req); err != nil {
			t.Fatalf("ChooseConfig(visual %#x) error = %v", visual, err)
		}
		got, err := dc.NativeVisualID()
		if err != nil {
			t.Fatalf("NativeVisualID() error = %v", err)
		}
		if got != visual {
			t.Errorf("NativeVisualID() = %#x, want %#x", got, visual)
		}
	}
}

func TestChooseConfigBeforeDisplay(t *testing.T) {
	be := soft.NewBackend(soft.NewDevice(), soft.Options{})
	dc := NewDriverContext("native", loadDriver(t, be, "native", DefaultRequirements(nativeEGL, nativeGLES)))
	if err := dc.ChooseConfig(DefaultConfigRequirements()); !errors.Is(err, ErrConfigMismatch) {
		t.Errorf("ChooseConfig() error = %v, want ErrConfigMismatch", err)
	}
	if _, err := dc.NativeVisualID(); !errors.Is(err, ErrConfigMismatch) {
		t.Errorf("NativeVisualID() error = %v, want ErrConfigMismatch", err)
	}
}
