package halgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendercore"
	"github.com/gogpu/wgpu/hal"
)

// copyAlignment is the offset and size granularity of queue buffer writes.
const copyAlignment = 4

func alignUp(v, a uint64) uint64 {
	return (v + a - 1) &^ (a - 1)
}

// bufferUsage covers every way rendercore may bind a buffer.
const bufferUsage = gputypes.BufferUsageVertex | gputypes.BufferUsageUniform |
	gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst

// bufferImpl backs a rendercore.DeviceBuffer with a HAL buffer.
//
// Host-visible buffers keep a host shadow of the allocation. On
// non-coherent devices Flush uploads a shadow range and Invalidate reads a
// device range back into it. On coherent devices host copies are uploaded
// immediately and device writes are read back when the writing command
// buffer retires, so Flush and Invalidate have nothing to do.
type bufferImpl struct {
	dev      *Device
	native   *rendercore.UniqueHandle[hal.Buffer]
	size     uint64
	alloc    uint64
	coherent bool

	mu     sync.Mutex
	shadow []byte
}

func newBufferImpl(dev *Device, desc rendercore.DeviceBufferDescriptor, coherent bool) (*bufferImpl, error) {
	alloc := alignUp(desc.Size, copyAlignment)
	native, err := dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  alloc,
		Usage: bufferUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}
	b := &bufferImpl{
		dev:      dev,
		size:     desc.Size,
		alloc:    alloc,
		coherent: coherent,
	}
	b.native = rendercore.NewUniqueHandle[hal.Buffer](native, nil, func(buf hal.Buffer) {
		if !dev.Closed() {
			dev.device.DestroyBuffer(buf)
		}
	})
	if desc.StorageMode == rendercore.StorageHostVisible {
		b.shadow = make([]byte, alloc)
	}
	return b, nil
}

// Native returns the HAL buffer.
func (b *bufferImpl) Native() hal.Buffer { return b.native.Get() }

func (b *bufferImpl) OnCopyHostBuffer(src []byte, offset uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	copy(b.shadow[offset:], src)
	if b.coherent {
		b.upload(rendercore.Range{Offset: offset, Length: uint64(len(src))})
	}
	return nil
}

func (b *bufferImpl) Contents() []byte {
	if b.shadow == nil {
		return nil
	}
	return b.shadow[:b.size]
}

func (b *bufferImpl) Flush(r rendercore.Range) error {
	if b.coherent {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.upload(r)
	return nil
}

func (b *bufferImpl) Invalidate(r rendercore.Range) error {
	if b.coherent {
		return nil
	}
	return b.readback(r)
}

func (b *bufferImpl) Destroy() {
	b.native.Close()
}

// upload writes the aligned span around r from the shadow. Callers hold b.mu.
func (b *bufferImpl) upload(r rendercore.Range) {
	start, end := b.span(r)
	if end <= start {
		return
	}
	b.dev.queue.WriteBuffer(b.native.Get(), start, b.shadow[start:end])
}

// readback reads the aligned span around r from the device and copies
// only the bytes of r into the shadow. Unflushed host writes next to r
// survive.
func (b *bufferImpl) readback(r rendercore.Range) error {
	start, end := b.span(r)
	if end <= start {
		return nil
	}
	tmp := make([]byte, end-start)
	if err := b.dev.queue.ReadBuffer(b.native.Get(), start, tmp); err != nil {
		return fmt.Errorf("read buffer: %w", err)
	}
	b.mu.Lock()
	b.mergeReadback(r, start, tmp)
	b.mu.Unlock()
	return nil
}

// mergeReadback copies the part of tmp, which holds device bytes starting
// at start, that covers r into the shadow. Callers hold b.mu.
func (b *bufferImpl) mergeReadback(r rendercore.Range, start uint64, tmp []byte) {
	lo := r.Offset
	hi := min(r.Offset+r.Length, start+uint64(len(tmp)), uint64(len(b.shadow)))
	if hi <= lo {
		return
	}
	copy(b.shadow[lo:hi], tmp[lo-start:hi-start])
}

func (b *bufferImpl) span(r rendercore.Range) (uint64, uint64) {
	if b.shadow == nil {
		return 0, 0
	}
	start := r.Offset &^ (copyAlignment - 1)
	end := min(alignUp(r.Offset+r.Length, copyAlignment), b.alloc)
	return start, end
}

// bufferFrom unwraps a rendercore buffer created by this package.
func bufferFrom(buf *rendercore.DeviceBuffer, backend rendercore.BackendType) *bufferImpl {
	if buf.Backend() != backend {
		panic(fmt.Sprintf("halgpu: %s buffer %q used with %s context", buf.Backend(), buf.Label(), backend))
	}
	impl, ok := buf.Impl().(*bufferImpl)
	if !ok {
		panic(fmt.Sprintf("halgpu: buffer %q was not allocated by halgpu", buf.Label()))
	}
	return impl
}
