package rendercore

import (
	"fmt"
	"sync/atomic"
)

// StorageMode describes where a resource's memory lives and who can touch it.
type StorageMode int

const (
	// StorageHostVisible memory is mapped into the host address space.
	StorageHostVisible StorageMode = iota
	// StorageDevicePrivate memory is only reachable by the GPU.
	StorageDevicePrivate
	// StorageDeviceTransient memory exists only for the duration of a render pass.
	StorageDeviceTransient
)

func (m StorageMode) String() string {
	switch m {
	case StorageHostVisible:
		return "host-visible"
	case StorageDevicePrivate:
		return "device-private"
	case StorageDeviceTransient:
		return "device-transient"
	default:
		return fmt.Sprintf("StorageMode(%d)", int(m))
	}
}

// DeviceBufferDescriptor describes a buffer allocation.
type DeviceBufferDescriptor struct {
	Size        uint64
	StorageMode StorageMode
	Label       string
}

// BufferImpl is the backend half of a DeviceBuffer.
//
// DeviceBuffer validates every argument before calling into BufferImpl,
// so implementations may assume ranges are in bounds.
type BufferImpl interface {
	// OnCopyHostBuffer writes src into the buffer at offset.
	OnCopyHostBuffer(src []byte, offset uint64) error

	// Contents returns the host view of a host-visible buffer, or nil.
	Contents() []byte

	// Flush makes host writes in r visible to the device.
	Flush(r Range) error

	// Invalidate makes device writes in r visible to the host.
	Invalidate(r Range) error

	// Destroy frees the native allocation.
	Destroy()
}

// DeviceBuffer is a reference counted GPU byte range.
//
// A new buffer holds one reference. Every BufferView and every in-flight
// command buffer that references the buffer holds another. The native
// allocation is destroyed when the last reference is released.
type DeviceBuffer struct {
	desc    DeviceBufferDescriptor
	backend BackendType
	impl    BufferImpl
	refs    atomic.Int64
	onFree  func(*DeviceBuffer)
}

// NewDeviceBuffer wraps a backend allocation. It is called by allocators;
// applications obtain buffers from [Allocator.CreateBuffer].
// onFree, if non-nil, runs after the native allocation is destroyed.
func NewDeviceBuffer(backend BackendType, desc DeviceBufferDescriptor, impl BufferImpl, onFree func(*DeviceBuffer)) *DeviceBuffer {
	if impl == nil {
		panic("rendercore: NewDeviceBuffer with nil impl")
	}
	b := &DeviceBuffer{desc: desc, backend: backend, impl: impl, onFree: onFree}
	b.refs.Store(1)
	return b
}

// Descriptor returns the descriptor the buffer was created with.
func (b *DeviceBuffer) Descriptor() DeviceBufferDescriptor { return b.desc }

// Size returns the buffer size in bytes.
func (b *DeviceBuffer) Size() uint64 { return b.desc.Size }

// StorageMode returns the buffer storage mode.
func (b *DeviceBuffer) StorageMode() StorageMode { return b.desc.StorageMode }

// Label returns the debug label.
func (b *DeviceBuffer) Label() string { return b.desc.Label }

// Backend returns the backend that allocated the buffer.
func (b *DeviceBuffer) Backend() BackendType { return b.backend }

// Impl returns the backend half of the buffer.
func (b *DeviceBuffer) Impl() BufferImpl { return b.impl }

// IsValid reports whether the buffer still holds at least one reference.
func (b *DeviceBuffer) IsValid() bool {
	return b != nil && b.refs.Load() > 0
}

// Retain adds a reference and returns b.
func (b *DeviceBuffer) Retain() *DeviceBuffer {
	if b.refs.Add(1) <= 1 {
		panic("rendercore: Retain on released DeviceBuffer")
	}
	return b
}

// Release drops a reference. The native allocation is destroyed when the
// last reference goes away.
func (b *DeviceBuffer) Release() {
	n := b.refs.Add(-1)
	switch {
	case n == 0:
		b.impl.Destroy()
		if b.onFree != nil {
			b.onFree(b)
		}
		Logger().Debug("rendercore: buffer freed", "label", b.desc.Label, "size", b.desc.Size)
	case n < 0:
		panic("rendercore: DeviceBuffer released more times than retained")
	}
}

// CopyHostBuffer copies source[sourceRange] into the buffer at offset.
//
// Checks run in a fixed order: an empty range succeeds immediately (even
// with a nil source), then a nil source, a non host-visible buffer, the
// destination bounds and the source bounds are rejected in turn. The
// buffer is not modified when an error is returned.
func (b *DeviceBuffer) CopyHostBuffer(source []byte, sourceRange Range, offset uint64) error {
	if sourceRange.Length == 0 {
		return nil
	}
	if source == nil {
		return ErrNilSource
	}
	if b.desc.StorageMode != StorageHostVisible {
		return ErrNotHostVisible
	}
	if !(Range{Offset: offset, Length: sourceRange.Length}).Within(b.desc.Size) {
		return fmt.Errorf("%w: write %d bytes at %d into buffer of %d",
			ErrOutOfBounds, sourceRange.Length, offset, b.desc.Size)
	}
	if !sourceRange.Within(uint64(len(source))) {
		return fmt.Errorf("%w: %v of %d bytes", ErrSourceOutOfBounds, sourceRange, len(source))
	}
	if !b.IsValid() {
		return ErrBufferReleased
	}
	end := sourceRange.Offset + sourceRange.Length
	return b.impl.OnCopyHostBuffer(source[sourceRange.Offset:end], offset)
}

// Contents returns the host view of a host-visible buffer.
// It returns nil for device-private or released buffers.
func (b *DeviceBuffer) Contents() []byte {
	if !b.IsValid() || b.desc.StorageMode != StorageHostVisible {
		return nil
	}
	return b.impl.Contents()
}

// Flush publishes host writes in r to the device. Pass [WholeRange] for the
// entire buffer. It is a no-op on backends with coherent memory.
func (b *DeviceBuffer) Flush(r Range) error {
	if !b.IsValid() {
		return ErrBufferReleased
	}
	if b.desc.StorageMode != StorageHostVisible {
		return nil
	}
	r = r.Clamp(b.desc.Size)
	if r.Length == 0 {
		return nil
	}
	return b.impl.Flush(r)
}

// Invalidate pulls device writes in r into the host view. Pass
// [WholeRange] for the entire buffer. It is a no-op on backends with
// coherent memory.
func (b *DeviceBuffer) Invalidate(r Range) error {
	if !b.IsValid() {
		return ErrBufferReleased
	}
	if b.desc.StorageMode != StorageHostVisible {
		return nil
	}
	r = r.Clamp(b.desc.Size)
	if r.Length == 0 {
		return nil
	}
	return b.impl.Invalidate(r)
}
