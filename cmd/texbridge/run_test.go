//go:build linux

package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/dmabridge"
	"github.com/gogpu/dmabridge/backend"
	"github.com/gogpu/dmabridge/backend/soft"
	"github.com/gogpu/gpucontext"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// scriptedWindowSystem creates windows on the soft device whose event
// stream is replayed from script.
type scriptedWindowSystem struct {
	script  []dmabridge.Event
	windows []*scriptedWindow
}

func (ws *scriptedWindowSystem) NativeDisplay() backend.NativeDisplay { return 0x52 }

func (ws *scriptedWindowSystem) CreateWindow(visualID, width, height int32, title string) (dmabridge.Window, error) {
	w := &scriptedWindow{
		native: backend.NativeWindow(0x2000 + len(ws.windows)),
		width:  width,
		height: height,
		title:  title,
		events: make(chan dmabridge.Event, len(ws.script)),
	}
	for _, ev := range ws.script {
		w.events <- ev
	}
	soft.DefaultDevice().RegisterWindow(w.native, visualID)
	ws.windows = append(ws.windows, w)
	return w, nil
}

type scriptedWindow struct {
	native        backend.NativeWindow
	width, height int32
	title         string
	events        chan dmabridge.Event
	destroyed     bool
}

func (w *scriptedWindow) Native() backend.NativeWindow { return w.native }

func (w *scriptedWindow) Size() (width, height int32) { return w.width, w.height }

func (w *scriptedWindow) Events() <-chan dmabridge.Event { return w.events }

func (w *scriptedWindow) Destroy() error {
	if !w.destroyed {
		w.destroyed = true
		soft.DefaultDevice().UnregisterWindow(w.native)
		close(w.events)
	}
	return nil
}

func testApp(stderr *bytes.Buffer, ws *scriptedWindowSystem) *app {
	a := newApp(stderr)
	a.getenv = func(string) string { return "" }
	a.newWindowSystem = func(string) dmabridge.WindowSystem { return ws }
	return a
}

// TestRunHeadless tests a headless verification on the soft backend.
func TestRunHeadless(t *testing.T) {
	var stderr bytes.Buffer
	code := testApp(&stderr, nil).run(context.Background(),
		[]string{"-backend", "soft", "-headless", "-width", "64", "-height", "32", "-log", "info"})
	if code != 0 {
		t.Fatalf("run() = %d, want 0; stderr:\n%s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "shared texture verified") {
		t.Errorf("stderr missing verification message:\n%s", stderr.String())
	}
}

// TestRunSnapshot tests that every snapshot format decodes to the pattern.
func TestRunSnapshot(t *testing.T) {
	const w, h = 40, 24
	decoders := map[string]func(*os.File) (image.Image, error){
		"out.png":  func(f *os.File) (image.Image, error) { return png.Decode(f) },
		"out.bmp":  func(f *os.File) (image.Image, error) { return bmp.Decode(f) },
		"out.tiff": func(f *os.File) (image.Image, error) { return tiff.Decode(f) },
	}
	want := dmabridge.Pattern(w, h)
	for name, decode := range decoders {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			var stderr bytes.Buffer
			code := testApp(&stderr, nil).run(context.Background(),
				[]string{"-backend", "soft", "-headless", "-width", "40", "-height", "24", "-snapshot", path})
			if code != 0 {
				t.Fatalf("run() = %d, want 0; stderr:\n%s", code, stderr.String())
			}
			f, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			m, err := decode(f)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got := m.Bounds(); got != image.Rect(0, 0, w, h) {
				t.Fatalf("Bounds() = %v, want %dx%d", got, w, h)
			}
			for _, p := range []image.Point{{X: 0, Y: 0}, {X: 7, Y: 3}, {X: w - 1, Y: h - 1}} {
				i := (p.Y*w + p.X) * 4
				wantC := color.NRGBA{R: want[i], G: want[i+1], B: want[i+2], A: want[i+3]}
				if got := color.NRGBAModel.Convert(m.At(p.X, p.Y)); got != wantC {
					t.Errorf("At(%v) = %v, want %v", p, got, wantC)
				}
			}
		})
	}
}

// TestRunMissingSymbol tests that a driver without the export extension
// fails the run with one diagnostic line.
func TestRunMissingSymbol(t *testing.T) {
	backend.Register("soft-noexport", func() backend.Backend {
		return soft.NewBackend(soft.DefaultDevice(), soft.Options{Missing: []string{"eglExportDMABUFImageMESA"}})
	})
	t.Cleanup(func() { backend.Unregister("soft-noexport") })

	var stderr bytes.Buffer
	code := testApp(&stderr, nil).run(context.Background(),
		[]string{"-backend", "soft-noexport", "-headless", "-log", "error"})
	if code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	out := stderr.String()
	if strings.Count(out, "\n") != 1 || !strings.HasPrefix(out, "texbridge: ") {
		t.Errorf("stderr = %q, want one texbridge: line", out)
	}
	if !strings.Contains(out, "eglExportDMABUFImageMESA") {
		t.Errorf("stderr = %q, want the missing symbol named", out)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown backend", []string{"-backend", "vulkan", "-headless"}, `unknown backend "vulkan"`},
		{"bad size", []string{"-backend", "soft", "-width", "0"}, "invalid size"},
		{"bad snapshot", []string{"-backend", "soft", "-snapshot", "out.gif"}, "unsupported format"},
		{"missing config", []string{"-config", "/nonexistent/texbridge.toml"}, "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			code := testApp(&stderr, nil).run(context.Background(), tt.args)
			if code != 1 {
				t.Fatalf("run() = %d, want 1", code)
			}
			if !strings.Contains(stderr.String(), tt.want) {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.want)
			}
		})
	}
}

// TestRunConfigFile tests that the XDG config file is read.
func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "texbridge"), 0o700); err != nil {
		t.Fatal(err)
	}
	cfg := "backend = \"soft\"\nheadless = true\nwidth = 16\nheight = 16\n"
	if err := os.WriteFile(filepath.Join(dir, "texbridge", configFile), []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	var stderr bytes.Buffer
	a := testApp(&stderr, nil)
	a.getenv = func(k string) string {
		if k == "XDG_CONFIG_HOME" {
			return dir
		}
		return ""
	}
	if code := a.run(context.Background(), nil); code != 0 {
		t.Fatalf("run() = %d, want 0; stderr:\n%s", code, stderr.String())
	}
}

// TestRunWindowed tests the event loop with the quad renderer on a scripted
// window.
func TestRunWindowed(t *testing.T) {
	ws := &scriptedWindowSystem{script: []dmabridge.Event{
		{Kind: dmabridge.EventMapped},
		{Kind: dmabridge.EventExpose},
		{Kind: dmabridge.EventResized, Width: 300, Height: 200},
		{Kind: dmabridge.EventKeyPressed, Key: gpucontext.KeySpace},
		{Kind: dmabridge.EventKeyPressed, Key: gpucontext.KeyEscape},
	}}
	dev := soft.DefaultDevice()
	misdirected := dev.Misdirected()
	var stderr bytes.Buffer
	code := testApp(&stderr, ws).run(context.Background(),
		[]string{"-backend", "soft", "-width", "64", "-height", "64", "-title", "bridge test", "-log", "info"})
	if code != 0 {
		t.Fatalf("run() = %d, want 0; stderr:\n%s", code, stderr.String())
	}
	if len(ws.windows) != 1 {
		t.Fatalf("windows = %d, want 1", len(ws.windows))
	}
	w := ws.windows[0]
	if w.title != "bridge test" || !w.destroyed {
		t.Errorf("window title, destroyed = %q, %v", w.title, w.destroyed)
	}
	if !strings.Contains(stderr.String(), "verification passed") {
		t.Errorf("stderr missing verification message:\n%s", stderr.String())
	}
	if got := dev.Misdirected() - misdirected; got != 0 {
		t.Errorf("misdirected calls = %d, want 0", got)
	}
	if _, _, ok := dev.Bound(); ok {
		t.Error("a context is still bound after shutdown")
	}
}
