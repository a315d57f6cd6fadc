package halgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/rendercore"
)

// Memory management errors.
var (
	// ErrMemoryBudgetExceeded is returned when an allocation would exceed the budget.
	ErrMemoryBudgetExceeded = errors.New("halgpu: memory budget exceeded")

	// ErrAllocatorClosed is returned after the owning context shut down.
	ErrAllocatorClosed = errors.New("halgpu: allocator closed")
)

// MinMemoryBudget is the smallest budget an allocator accepts (16 MB).
const MinMemoryBudget = 16 * 1024 * 1024

// Allocator creates buffers and textures on a Device and accounts them
// against a memory budget.
//
// Allocator is safe for concurrent use.
type Allocator struct {
	dev      *Device
	coherent bool

	mu           sync.Mutex
	budgetBytes  uint64
	usedBytes    uint64
	bufferCount  int
	textureCount int
	closed       bool
}

// NewAllocator returns an allocator with the given budget in bytes.
// Budgets below MinMemoryBudget select rendercore.DefaultMemoryBudget.
// coherent selects unified-memory buffer semantics.
func NewAllocator(dev *Device, budget uint64, coherent bool) *Allocator {
	if budget < MinMemoryBudget {
		budget = rendercore.DefaultMemoryBudget
	}
	return &Allocator{dev: dev, budgetBytes: budget, coherent: coherent}
}

func (a *Allocator) reserve(bytes uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrAllocatorClosed
	}
	if bytes > a.budgetBytes-a.usedBytes {
		return fmt.Errorf("%w: need %d bytes, %d of %d in use",
			ErrMemoryBudgetExceeded, bytes, a.usedBytes, a.budgetBytes)
	}
	a.usedBytes += bytes
	return nil
}

func (a *Allocator) unreserve(bytes uint64) {
	a.mu.Lock()
	a.usedBytes -= min(bytes, a.usedBytes)
	a.mu.Unlock()
}

// CreateBuffer allocates a buffer. Zero-sized buffers and buffers larger
// than the device limit are rejected.
func (a *Allocator) CreateBuffer(desc rendercore.DeviceBufferDescriptor) (*rendercore.DeviceBuffer, error) {
	if desc.Size == 0 || desc.Size > a.dev.maxBuffer {
		return nil, fmt.Errorf("%w: buffer %q of %d bytes", rendercore.ErrInvalidDescriptor, desc.Label, desc.Size)
	}
	size := alignUp(desc.Size, copyAlignment)
	if err := a.reserve(size); err != nil {
		return nil, err
	}
	impl, err := newBufferImpl(a.dev, desc, a.coherent)
	if err != nil {
		a.unreserve(size)
		return nil, err
	}

	a.mu.Lock()
	a.bufferCount++
	a.mu.Unlock()

	rendercore.Logger().Debug("halgpu: buffer allocated",
		"label", desc.Label, "size", desc.Size, "mode", desc.StorageMode)
	return rendercore.NewDeviceBuffer(a.dev.backend, desc, impl, func(*rendercore.DeviceBuffer) {
		a.mu.Lock()
		a.bufferCount--
		a.usedBytes -= min(size, a.usedBytes)
		a.mu.Unlock()
	}), nil
}

// CreateTexture allocates a texture and its default view. A texture is
// returned only when both exist.
func (a *Allocator) CreateTexture(desc rendercore.TextureDescriptor) (*rendercore.Texture, error) {
	if !desc.IsValid() {
		return nil, fmt.Errorf("%w: texture %q", rendercore.ErrInvalidDescriptor, desc.Label)
	}
	if maxSize := a.MaxTextureSize(); desc.Size.Width > maxSize.Width || desc.Size.Height > maxSize.Height {
		return nil, fmt.Errorf("%w: texture %q is %s, limit %s",
			rendercore.ErrInvalidDescriptor, desc.Label, desc.Size, maxSize)
	}
	size := textureByteSize(desc)
	if err := a.reserve(size); err != nil {
		return nil, err
	}
	impl, err := newTextureImpl(a.dev, desc)
	if err != nil {
		a.unreserve(size)
		return nil, err
	}
	tex, err := rendercore.NewTexture(a.dev.backend, desc, impl, func(*rendercore.Texture) {
		a.mu.Lock()
		a.textureCount--
		a.usedBytes -= min(size, a.usedBytes)
		a.mu.Unlock()
	})
	if err != nil {
		impl.Destroy()
		a.unreserve(size)
		return nil, err
	}

	a.mu.Lock()
	a.textureCount++
	a.mu.Unlock()

	rendercore.Logger().Debug("halgpu: texture allocated",
		"label", desc.Label, "size", desc.Size, "format", desc.Format)
	return tex, nil
}

// textureByteSize estimates the memory of a texture including its mip
// chain and samples.
func textureByteSize(desc rendercore.TextureDescriptor) uint64 {
	base := desc.BaseMipByteSize() * uint64(desc.Samples())
	total := base
	for i := uint32(1); i < desc.Mips(); i++ {
		base /= 4
		total += base
	}
	return total
}

// MaxTextureSize returns the device's 2D texture limit.
func (a *Allocator) MaxTextureSize() rendercore.ISize {
	return rendercore.ISize{Width: a.dev.maxTexture2D, Height: a.dev.maxTexture2D}
}

// Stats returns current memory usage statistics.
func (a *Allocator) Stats() rendercore.MemoryStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	var utilization float64
	if a.budgetBytes > 0 {
		utilization = float64(a.usedBytes) / float64(a.budgetBytes)
	}
	return rendercore.MemoryStats{
		TotalBytes:     a.budgetBytes,
		UsedBytes:      a.usedBytes,
		AvailableBytes: a.budgetBytes - a.usedBytes,
		BufferCount:    a.bufferCount,
		TextureCount:   a.textureCount,
		Utilization:    utilization,
	}
}

// close rejects further allocations. Live resources stay accounted until
// released.
func (a *Allocator) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.bufferCount > 0 || a.textureCount > 0 {
		rendercore.Logger().Warn("halgpu: allocator closed with live resources",
			"buffers", a.bufferCount, "textures", a.textureCount, "bytes", a.usedBytes)
	}
}
