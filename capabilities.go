package rendercore

import "github.com/gogpu/gputypes"

// Capabilities describes what a context's device supports.
type Capabilities struct {
	SupportsOffscreenMSAA         bool
	SupportsStorageBuffers        bool
	SupportsBufferToTextureBlits  bool
	SupportsTextureToBufferBlits  bool
	SupportsCompute               bool
	SupportsReadFromResolve       bool
	SupportsDeviceTransientMemory bool

	DefaultColorFormat        gputypes.TextureFormat
	DefaultStencilFormat      gputypes.TextureFormat
	DefaultDepthStencilFormat gputypes.TextureFormat

	MaxTextureSize ISize
	MaxBufferSize  uint64
}
