package rendercore

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// TextureUsage is a bitmask of the ways a texture may be bound.
type TextureUsage uint32

const (
	TextureUsageShaderRead TextureUsage = 1 << iota
	TextureUsageShaderWrite
	TextureUsageRenderTarget
)

// TextureDescriptor describes a texture allocation.
type TextureDescriptor struct {
	Label       string
	Size        ISize
	Format      gputypes.TextureFormat
	Usage       TextureUsage
	SampleCount uint32
	MipCount    uint32
	StorageMode StorageMode
}

// IsValid reports whether the descriptor can be allocated at all.
func (d TextureDescriptor) IsValid() bool {
	if d.Size.IsEmpty() || BytesPerPixel(d.Format) == 0 {
		return false
	}
	switch d.SampleCount {
	case 0, 1, 4:
	default:
		return false
	}
	return d.MipCount <= MipCountForSize(d.Size)
}

// Samples returns SampleCount with zero treated as one.
func (d TextureDescriptor) Samples() uint32 {
	if d.SampleCount == 0 {
		return 1
	}
	return d.SampleCount
}

// Mips returns MipCount with zero treated as one.
func (d TextureDescriptor) Mips() uint32 {
	if d.MipCount == 0 {
		return 1
	}
	return d.MipCount
}

// BytesPerRow returns the tightly packed row pitch of the base level.
func (d TextureDescriptor) BytesPerRow() uint32 {
	return d.Size.Width * BytesPerPixel(d.Format)
}

// BaseMipByteSize returns the tightly packed size of the base level.
func (d TextureDescriptor) BaseMipByteSize() uint64 {
	return uint64(d.BytesPerRow()) * uint64(d.Size.Height)
}

// MipCountForSize returns the length of the full mip chain for size.
func MipCountForSize(size ISize) uint32 {
	m := max(size.Width, size.Height)
	var n uint32
	for m > 0 {
		n++
		m >>= 1
	}
	return n
}

// BytesPerPixel returns the texel size of an uncompressed format, or 0 for
// formats rendercore cannot lay out (block-compressed and unknown ones).
func BytesPerPixel(f gputypes.TextureFormat) uint32 {
	switch f {
	case gputypes.TextureFormatR8Unorm, gputypes.TextureFormatR8Snorm,
		gputypes.TextureFormatR8Uint, gputypes.TextureFormatR8Sint,
		gputypes.TextureFormatStencil8:
		return 1
	case gputypes.TextureFormatR16Unorm, gputypes.TextureFormatR16Snorm,
		gputypes.TextureFormatR16Uint, gputypes.TextureFormatR16Sint,
		gputypes.TextureFormatR16Float,
		gputypes.TextureFormatRG8Unorm, gputypes.TextureFormatRG8Snorm,
		gputypes.TextureFormatRG8Uint, gputypes.TextureFormatRG8Sint,
		gputypes.TextureFormatDepth16Unorm:
		return 2
	case gputypes.TextureFormatR32Float, gputypes.TextureFormatR32Uint,
		gputypes.TextureFormatR32Sint,
		gputypes.TextureFormatRG16Unorm, gputypes.TextureFormatRG16Snorm,
		gputypes.TextureFormatRG16Uint, gputypes.TextureFormatRG16Sint,
		gputypes.TextureFormatRG16Float,
		gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatRGBA8Snorm, gputypes.TextureFormatRGBA8Uint,
		gputypes.TextureFormatRGBA8Sint,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb,
		gputypes.TextureFormatRGB10A2Uint, gputypes.TextureFormatRGB10A2Unorm,
		gputypes.TextureFormatRG11B10Ufloat, gputypes.TextureFormatRGB9E5Ufloat,
		gputypes.TextureFormatDepth24Plus, gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.TextureFormatDepth32Float:
		return 4
	case gputypes.TextureFormatRG32Float, gputypes.TextureFormatRG32Uint,
		gputypes.TextureFormatRG32Sint,
		gputypes.TextureFormatRGBA16Unorm, gputypes.TextureFormatRGBA16Snorm,
		gputypes.TextureFormatRGBA16Uint, gputypes.TextureFormatRGBA16Sint,
		gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatDepth32FloatStencil8:
		return 8
	case gputypes.TextureFormatRGBA32Float, gputypes.TextureFormatRGBA32Uint,
		gputypes.TextureFormatRGBA32Sint:
		return 16
	default:
		return 0
	}
}

// TextureImpl is the backend half of a Texture.
type TextureImpl interface {
	// OnSetContents uploads a tightly packed base level.
	OnSetContents(data []byte, bytesPerRow uint32) error

	// Destroy frees the native image and its views.
	Destroy()
}

// Texture is a GPU image. Textures returned from allocators are always
// fully constructed; there is no partially valid state.
type Texture struct {
	desc    TextureDescriptor
	backend BackendType
	impl    TextureImpl
	refs    atomic.Int64
	fence   atomic.Pointer[fenceBox]
	onFree  func(*Texture)
}

type fenceBox struct{ f Fence }

// NewTexture wraps a backend image. It fails with [ErrInvalidTexture] when
// impl is nil or the descriptor is not allocatable, so callers never see a
// half-built texture.
func NewTexture(backend BackendType, desc TextureDescriptor, impl TextureImpl, onFree func(*Texture)) (*Texture, error) {
	if impl == nil {
		return nil, fmt.Errorf("%w: no native image", ErrInvalidTexture)
	}
	if !desc.IsValid() {
		return nil, fmt.Errorf("%w: descriptor %s %v", ErrInvalidTexture, desc.Size, desc.Format)
	}
	t := &Texture{desc: desc, backend: backend, impl: impl, onFree: onFree}
	t.refs.Store(1)
	return t, nil
}

// Descriptor returns the descriptor the texture was created with.
func (t *Texture) Descriptor() TextureDescriptor { return t.desc }

// Size returns the base level extent.
func (t *Texture) Size() ISize { return t.desc.Size }

// Label returns the debug label.
func (t *Texture) Label() string { return t.desc.Label }

// Backend returns the backend that created the texture.
func (t *Texture) Backend() BackendType { return t.backend }

// Impl returns the backend half of the texture.
func (t *Texture) Impl() TextureImpl { return t.impl }

// IsValid reports whether the texture is live.
func (t *Texture) IsValid() bool {
	return t != nil && t.refs.Load() > 0
}

// MustBelongTo panics if t was created by a different backend. Handing a
// texture to the wrong backend is a wiring bug, not a runtime condition.
func (t *Texture) MustBelongTo(b BackendType) {
	if t.backend != b {
		panic(fmt.Sprintf("rendercore: %s texture %q used with %s backend", t.backend, t.desc.Label, b))
	}
}

// Retain adds a reference and returns t.
func (t *Texture) Retain() *Texture {
	if t.refs.Add(1) <= 1 {
		panic("rendercore: Retain on released Texture")
	}
	return t
}

// Release drops a reference and destroys the native image with the last one.
func (t *Texture) Release() {
	n := t.refs.Add(-1)
	switch {
	case n == 0:
		t.impl.Destroy()
		if t.onFree != nil {
			t.onFree(t)
		}
	case n < 0:
		panic("rendercore: Texture released more times than retained")
	}
}

// SetContents uploads a tightly packed base level. len(data) must equal
// the descriptor's base mip size.
func (t *Texture) SetContents(data []byte) error {
	if !t.IsValid() {
		return ErrInvalidTexture
	}
	if want := t.desc.BaseMipByteSize(); uint64(len(data)) != want {
		return fmt.Errorf("%w: contents are %d bytes, texture needs %d", ErrOutOfBounds, len(data), want)
	}
	return t.impl.OnSetContents(data, t.desc.BytesPerRow())
}

// SetFence attaches a tracking fence that signals when the last GPU work
// writing the texture retires.
func (t *Texture) SetFence(f Fence) {
	if f == nil {
		t.fence.Store(nil)
		return
	}
	t.fence.Store(&fenceBox{f: f})
}

// Fence returns the tracking fence, or nil.
func (t *Texture) Fence() Fence {
	if b := t.fence.Load(); b != nil {
		return b.f
	}
	return nil
}
