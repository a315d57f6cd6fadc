package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendercore"
	"github.com/gogpu/wgpu/hal"
)

// textureImpl backs a rendercore.Texture with a HAL texture and its
// default view. Both handles are destroyed exactly once.
type textureImpl struct {
	dev    *Device
	desc   rendercore.TextureDescriptor
	native *rendercore.UniqueHandle[hal.Texture]
	view   *rendercore.UniqueHandle[hal.TextureView]
}

func textureUsage(desc rendercore.TextureDescriptor) gputypes.TextureUsage {
	usage := gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst
	if desc.Usage&rendercore.TextureUsageShaderRead != 0 {
		usage |= gputypes.TextureUsageTextureBinding
	}
	if desc.Usage&rendercore.TextureUsageShaderWrite != 0 {
		usage |= gputypes.TextureUsageStorageBinding
	}
	if desc.Usage&rendercore.TextureUsageRenderTarget != 0 {
		usage |= gputypes.TextureUsageRenderAttachment
	}
	return usage
}

// newTextureImpl creates the texture and its view. On any failure every
// native object created so far is destroyed.
func newTextureImpl(dev *Device, desc rendercore.TextureDescriptor) (*textureImpl, error) {
	tex, err := dev.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Size.Width, Height: desc.Size.Height, DepthOrArrayLayers: 1},
		MipLevelCount: desc.Mips(),
		SampleCount:   desc.Samples(),
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         textureUsage(desc),
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	view, err := dev.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: desc.Label + "_view",
	})
	if err != nil {
		dev.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view %q: %w", desc.Label, err)
	}
	return wrapTexture(dev, desc, tex, view), nil
}

func wrapTexture(dev *Device, desc rendercore.TextureDescriptor, tex hal.Texture, view hal.TextureView) *textureImpl {
	return &textureImpl{
		dev:  dev,
		desc: desc,
		native: rendercore.NewUniqueHandle[hal.Texture](tex, nil, func(t hal.Texture) {
			if !dev.Closed() {
				dev.device.DestroyTexture(t)
			}
		}),
		view: rendercore.NewUniqueHandle[hal.TextureView](view, nil, func(v hal.TextureView) {
			if !dev.Closed() {
				dev.device.DestroyTextureView(v)
			}
		}),
	}
}

// WrapExternalTexture adopts a texture owned by the embedder, such as the
// framebuffer of a window. The result never destroys tex or view and is
// not counted against any allocator budget.
func WrapExternalTexture(dev *Device, desc rendercore.TextureDescriptor, tex hal.Texture, view hal.TextureView) (*rendercore.Texture, error) {
	if tex == nil || view == nil {
		return nil, fmt.Errorf("%w: external texture %q has no native handle", rendercore.ErrInvalidTexture, desc.Label)
	}
	impl := &textureImpl{
		dev:    dev,
		desc:   desc,
		native: rendercore.NewUniqueHandle[hal.Texture](tex, nil, nil),
		view:   rendercore.NewUniqueHandle[hal.TextureView](view, nil, nil),
	}
	return rendercore.NewTexture(dev.backend, desc, impl, nil)
}

// Native returns the HAL texture.
func (t *textureImpl) Native() hal.Texture { return t.native.Get() }

// View returns the default HAL view.
func (t *textureImpl) View() hal.TextureView { return t.view.Get() }

func (t *textureImpl) OnSetContents(data []byte, bytesPerRow uint32) error {
	tex := t.native.Get()
	if tex == nil {
		return rendercore.ErrInvalidTexture
	}
	t.dev.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  bytesPerRow,
			RowsPerImage: t.desc.Size.Height,
		},
		&hal.Extent3D{Width: t.desc.Size.Width, Height: t.desc.Size.Height, DepthOrArrayLayers: 1},
	)
	return nil
}

// Destroy releases the view before the texture it was created from.
func (t *textureImpl) Destroy() {
	t.view.Close()
	t.native.Close()
}

// textureFrom unwraps a rendercore texture created by this package.
func textureFrom(tex *rendercore.Texture, backend rendercore.BackendType) *textureImpl {
	tex.MustBelongTo(backend)
	impl, ok := tex.Impl().(*textureImpl)
	if !ok {
		panic(fmt.Sprintf("halgpu: texture %q was not created by halgpu", tex.Label()))
	}
	return impl
}

// ReadbackLayout returns the padded row pitch and total size of a buffer
// that receives tex through BlitPass.CopyTextureToBuffer.
func ReadbackLayout(desc rendercore.TextureDescriptor) (bytesPerRow uint32, size uint64) {
	const copyPitchAlignment = 256
	tight := desc.BytesPerRow()
	bytesPerRow = (tight + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	return bytesPerRow, uint64(bytesPerRow) * uint64(desc.Size.Height)
}
