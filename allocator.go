package rendercore

import "fmt"

// Allocator creates buffers and textures for one context.
type Allocator interface {
	CreateBuffer(desc DeviceBufferDescriptor) (*DeviceBuffer, error)
	CreateTexture(desc TextureDescriptor) (*Texture, error)
	MaxTextureSize() ISize
	Stats() MemoryStats
}

// CreateBufferWithData allocates a host-visible buffer holding a copy of data.
func CreateBufferWithData(a Allocator, data []byte, label string) (*DeviceBuffer, error) {
	buf, err := a.CreateBuffer(DeviceBufferDescriptor{
		Size:        uint64(len(data)),
		StorageMode: StorageHostVisible,
		Label:       label,
	})
	if err != nil {
		return nil, err
	}
	if err := buf.CopyHostBuffer(data, Range{Length: uint64(len(data))}, 0); err != nil {
		buf.Release()
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	if err := buf.Flush(WholeRange); err != nil {
		buf.Release()
		return nil, fmt.Errorf("flush %s: %w", label, err)
	}
	return buf, nil
}

// MemoryStats reports allocator usage against its budget.
type MemoryStats struct {
	// TotalBytes is the budget in bytes.
	TotalBytes uint64

	// UsedBytes is the currently allocated memory in bytes.
	UsedBytes uint64

	// AvailableBytes is the remaining budget.
	AvailableBytes uint64

	BufferCount  int
	TextureCount int

	// Utilization is UsedBytes/TotalBytes (0.0 to 1.0).
	Utilization float64
}

// String returns a human-readable string of memory stats.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d MB, %d buffers, %d textures]",
		s.Utilization*100,
		s.UsedBytes/(1024*1024),
		s.TotalBytes/(1024*1024),
		s.BufferCount,
		s.TextureCount)
}
