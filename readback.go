package dmabridge

import (
	"fmt"

	"github.com/gogpu/dmabridge/backend"
)

// readTexture reads a width x height RGBA8 texture through a temporary
// framebuffer. The owning context must be current. Rows are returned in
// texture order, tightly packed.
func readTexture(drv backend.Driver, tex backend.Texture, width, height int32, kind error) ([]byte, error) {
	drv.GLError()
	fb := drv.GenFramebuffer()
	if fb == 0 {
		if err := glError(drv, "glGenFramebuffers", kind); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: no framebuffer", kind, drv.Name())
	}
	defer func() {
		drv.BindFramebuffer(backend.GL_FRAMEBUFFER, 0)
		drv.DeleteFramebuffer(fb)
	}()
	drv.BindFramebuffer(backend.GL_FRAMEBUFFER, fb)
	drv.FramebufferTexture2D(backend.GL_FRAMEBUFFER, backend.GL_COLOR_ATTACHMENT0, backend.GL_TEXTURE_2D, tex, 0)
	if status := drv.CheckFramebufferStatus(backend.GL_FRAMEBUFFER); status != backend.GL_FRAMEBUFFER_COMPLETE {
		return nil, fmt.Errorf("%w: %s: framebuffer status %#x", kind, drv.Name(), uint32(status))
	}
	buf := make([]byte, int(width)*int(height)*4)
	drv.ReadPixels(0, 0, width, height, backend.GL_RGBA, backend.GL_UNSIGNED_BYTE, buf)
	if err := glError(drv, "glReadPixels", kind); err != nil {
		return nil, err
	}
	return buf, nil
}
