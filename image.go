package rendercore

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"
)

// UploadImage creates an RGBA8 texture holding img. When size is empty
// the image's own extent is used, otherwise img is scaled to size.
func UploadImage(a Allocator, img image.Image, size ISize, label string) (*Texture, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrNilSource)
	}
	b := img.Bounds()
	if size.IsEmpty() {
		size = ISize{Width: uint32(b.Dx()), Height: uint32(b.Dy())}
	}
	if size.IsEmpty() {
		return nil, fmt.Errorf("%w: image %q is empty", ErrInvalidTexture, label)
	}

	dst := image.NewRGBA(image.Rect(0, 0, int(size.Width), int(size.Height)))
	if b.Dx() == int(size.Width) && b.Dy() == int(size.Height) {
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	}

	tex, err := a.CreateTexture(TextureDescriptor{
		Label:       label,
		Size:        size,
		Format:      gputypes.TextureFormatRGBA8Unorm,
		Usage:       TextureUsageShaderRead,
		StorageMode: StorageHostVisible,
	})
	if err != nil {
		return nil, err
	}
	if err := tex.SetContents(dst.Pix); err != nil {
		tex.Release()
		return nil, err
	}
	return tex, nil
}

// ImageFromRows builds an image from tightly or padded packed 8-bit RGBA
// or BGRA rows, as written by a texture-to-buffer blit.
func ImageFromRows(data []byte, size ISize, bytesPerRow uint32, format gputypes.TextureFormat) (*image.RGBA, error) {
	swap := false
	switch format {
	case gputypes.TextureFormatRGBA8Unorm:
	case gputypes.TextureFormatBGRA8Unorm:
		swap = true
	default:
		return nil, fmt.Errorf("%w: cannot convert format %v", ErrInvalidTexture, format)
	}
	row := size.Width * 4
	if bytesPerRow < row {
		return nil, fmt.Errorf("%w: row pitch %d below %d", ErrOutOfBounds, bytesPerRow, row)
	}
	if size.Height > 0 && uint64(len(data)) < uint64(bytesPerRow)*uint64(size.Height-1)+uint64(row) {
		return nil, fmt.Errorf("%w: %d bytes for %s image", ErrSourceOutOfBounds, len(data), size)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(size.Width), int(size.Height)))
	n := int(row)
	for y := range size.Height {
		lo, hi := rowSpan(y, bytesPerRow, row)
		src := data[lo:hi]
		dst := img.Pix[int(y)*img.Stride : int(y)*img.Stride+n]
		copy(dst, src)
		if swap {
			for x := 0; x < n; x += 4 {
				dst[x], dst[x+2] = dst[x+2], dst[x]
			}
		}
	}
	return img, nil
}

// rowSpan returns the byte range of row y in a buffer with the given pitch.
// Offsets are computed in 64 bits so large readbacks do not wrap.
func rowSpan(y, bytesPerRow, row uint32) (int, int) {
	lo := uint64(y) * uint64(bytesPerRow)
	return int(lo), int(lo + uint64(row))
}
