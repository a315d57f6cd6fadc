package rendercore

// Surface is a presentable render target.
type Surface interface {
	// RenderTarget returns the attachments to draw into.
	RenderTarget() *RenderTarget

	// Size returns the extent of color attachment 0.
	Size() ISize

	// IsValid reports whether the surface can be drawn to and presented.
	IsValid() bool

	// Present publishes the frame to the window system.
	Present() error
}

// SurfaceBase implements Surface for a render target with no presentation
// mechanism. Backend surfaces embed it and override Present.
//
// Validity is decided once at construction: a surface whose target has no
// resolvable color attachment 0 stays invalid forever.
type SurfaceBase struct {
	target RenderTarget
	size   ISize
	valid  bool
}

// NewSurfaceBase builds a surface over target.
func NewSurfaceBase(target RenderTarget) SurfaceBase {
	size, ok := target.ColorAttachmentSize(0)
	return SurfaceBase{target: target, size: size, valid: ok && target.IsValid()}
}

// RenderTarget returns the surface's attachments.
func (s *SurfaceBase) RenderTarget() *RenderTarget { return &s.target }

// Size returns the extent of color attachment 0, or zero when invalid.
func (s *SurfaceBase) Size() ISize { return s.size }

// IsValid reports whether the surface was constructed from a usable target.
func (s *SurfaceBase) IsValid() bool { return s.valid }

// Present fails: the base surface has nowhere to present to.
func (s *SurfaceBase) Present() error {
	if !s.valid {
		return ErrSurfaceInvalid
	}
	return ErrPresentUnsupported
}
