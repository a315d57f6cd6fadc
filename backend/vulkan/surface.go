package vulkan

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/rendercore"
)

// Surface is one acquired swapchain image. It stays valid until it is
// presented or discarded, or its swapchain is torn down.
type Surface struct {
	rendercore.SurfaceBase

	sc    *Swapchain
	image *rendercore.Texture
	index int
	done  atomic.Bool
}

var _ rendercore.Surface = (*Surface)(nil)

// IsValid reports whether the surface can still be drawn to and presented.
func (s *Surface) IsValid() bool {
	return s.SurfaceBase.IsValid() && !s.done.Load() && !s.sc.TornDown() && s.image.IsValid()
}

// ImageIndex returns the swapchain image index.
func (s *Surface) ImageIndex() int { return s.index }

// Present attaches a tracking fence to the image and hands it to the
// window. The surface's frame slot is returned whatever the outcome.
func (s *Surface) Present() error {
	valid := s.IsValid()
	if s.done.Swap(true) {
		return fmt.Errorf("%w: image %d already presented", rendercore.ErrSurfaceInvalid, s.index)
	}
	defer s.sc.frames.Release(1)
	if !valid {
		return rendercore.ErrSurfaceInvalid
	}

	ctx := s.sc.ctx
	if err := ctx.FlushCommandBuffers(); err != nil {
		ctx.Log().Warn("vulkan: flush before present failed", "error", err)
	}
	ctx.AddTrackingFence(s.image)
	if err := s.sc.ws.Present(s.image); err != nil {
		ctx.Log().Warn("vulkan: present failed", "image", s.index, "error", err)
		return fmt.Errorf("%w: %w", rendercore.ErrPresentFailed, err)
	}
	return nil
}

// Discard gives the frame slot back without presenting.
func (s *Surface) Discard() {
	if !s.done.Swap(true) {
		s.sc.frames.Release(1)
	}
}
