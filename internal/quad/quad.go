// Package quad draws a texture over the whole viewport with GLES 2.
//
// It implements dmabridge.Renderer and is what the texbridge command uses to
// show the imported texture in its window.
package quad

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/gogpu/dmabridge"
	"github.com/gogpu/dmabridge/backend"
	"github.com/gogpu/dmabridge/internal/shader"
	"github.com/gogpu/gputypes"
)

//go:embed shaders/quad.vert
var vertexSource string

//go:embed shaders/quad.frag
var fragmentSource string

// Layout describes the vertex buffer: a clip-space position and a texture
// coordinate per vertex, interleaved.
var Layout = gputypes.VertexBufferLayout{
	ArrayStride: 2 * gputypes.VertexFormatFloat32x2.Size(),
	StepMode:    gputypes.VertexStepModeVertex,
	Attributes: []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
		{Format: gputypes.VertexFormatFloat32x2, Offset: gputypes.VertexFormatFloat32x2.Size(), ShaderLocation: 1},
	},
}

// attribNames maps Layout attributes to shader inputs by index.
var attribNames = []string{"a_position", "a_texcoord"}

// vertices is a triangle strip covering clip space. Texture row 0 is drawn
// at the top of the window.
var vertices = []float32{
	-1, -1, 0, 1,
	1, -1, 1, 1,
	-1, 1, 0, 0,
	1, 1, 1, 0,
}

const vertexCount = 4

// ErrNotInitialized is returned by Draw before Init or after Release.
var ErrNotInitialized = errors.New("quad: renderer not initialized")

// Renderer draws one texture as a full-viewport quad.
type Renderer struct {
	drv  backend.Driver
	prog *shader.Program
	vbo  backend.Buffer
	tex  backend.Texture
	locs []uint32

	width, height int32
	clear         [4]float32
	logger        *slog.Logger
}

// New returns a renderer that clears to opaque black.
func New() *Renderer {
	return &Renderer{clear: [4]float32{0, 0, 0, 1}}
}

// SetLogger sets the logger of the renderer and the shader package.
func (r *Renderer) SetLogger(l *slog.Logger) {
	r.logger = l
	shader.SetLogger(l)
}

func (r *Renderer) log() *slog.Logger {
	if r.logger == nil {
		return dmabridge.Logger()
	}
	return r.logger
}

// SetClearColor sets the color drawn around and under the quad.
func (r *Renderer) SetClearColor(red, green, blue, alpha float32) {
	r.clear = [4]float32{red, green, blue, alpha}
}

// Init implements dmabridge.Renderer. It links the program and uploads the
// vertex buffer on dc's driver.
func (r *Renderer) Init(dc *dmabridge.DriverContext, tex backend.Texture) error {
	if r.prog != nil {
		return errors.New("quad: renderer already initialized")
	}
	drv := dc.Driver()
	prog, err := shader.Link(drv, vertexSource, fragmentSource)
	if err != nil {
		return err
	}
	locs := make([]uint32, len(Layout.Attributes))
	for i := range Layout.Attributes {
		loc, err := prog.Attrib(attribNames[i])
		if err != nil {
			prog.Delete()
			return err
		}
		locs[i] = loc
	}

	vbo := drv.GenBuffer()
	drv.BindBuffer(backend.GL_ARRAY_BUFFER, vbo)
	drv.BufferData(backend.GL_ARRAY_BUFFER, vertexBytes(vertices), backend.GL_STATIC_DRAW)
	if code := drv.GLError(); code != backend.GL_NO_ERROR {
		drv.DeleteBuffer(vbo)
		prog.Delete()
		return fmt.Errorf("quad: %s: vertex buffer: %s", drv.Name(), backend.GLErrorString(code))
	}

	r.drv, r.prog, r.vbo, r.tex, r.locs = drv, prog, vbo, tex, locs
	r.log().Debug("quad: initialized", "driver", drv.Name(), "program", prog.ID(), "texture", tex)
	return nil
}

// Resize implements dmabridge.Renderer.
func (r *Renderer) Resize(width, height int32) {
	r.width, r.height = width, height
	if r.drv != nil {
		r.drv.Viewport(0, 0, width, height)
	}
}

// Size returns the viewport size set by the last Resize.
func (r *Renderer) Size() (width, height int32) { return r.width, r.height }

// Draw implements dmabridge.Renderer.
func (r *Renderer) Draw() error {
	if r.prog == nil {
		return ErrNotInitialized
	}
	drv := r.drv
	drv.Viewport(0, 0, r.width, r.height)
	drv.ClearColor(r.clear[0], r.clear[1], r.clear[2], r.clear[3])
	drv.Clear(backend.GL_COLOR_BUFFER_BIT)

	r.prog.Use()
	drv.ActiveTexture(backend.GL_TEXTURE0)
	drv.BindTexture(backend.GL_TEXTURE_2D, r.tex)
	r.prog.SetInt("u_texture", 0)

	drv.BindBuffer(backend.GL_ARRAY_BUFFER, r.vbo)
	stride := int32(Layout.ArrayStride) //nolint:gosec // G115: a few bytes
	for i, a := range Layout.Attributes {
		loc := r.locs[i]
		drv.VertexAttribPointer(loc, 2, backend.GL_FLOAT, false, stride, uintptr(a.Offset))
		drv.EnableVertexAttribArray(loc)
	}
	drv.DrawArrays(backend.GL_TRIANGLE_STRIP, 0, vertexCount)
	if code := drv.GLError(); code != backend.GL_NO_ERROR {
		return fmt.Errorf("quad: %s: draw: %s", drv.Name(), backend.GLErrorString(code))
	}
	return nil
}

// Release implements dmabridge.Renderer.
func (r *Renderer) Release() error {
	if r.prog == nil {
		return nil
	}
	r.drv.DeleteBuffer(r.vbo)
	r.prog.Delete()
	r.prog, r.vbo = nil, 0
	return nil
}

func vertexBytes(v []float32) []byte {
	b := make([]byte, 0, len(v)*4)
	for _, f := range v {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

var _ dmabridge.Renderer = (*Renderer)(nil)
