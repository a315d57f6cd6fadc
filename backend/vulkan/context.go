package vulkan

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendercore"
	"github.com/gogpu/rendercore/internal/halgpu"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func init() {
	rendercore.Register(rendercore.BackendVulkan, func(opts rendercore.ContextOptions) (rendercore.Context, error) {
		c, err := New(opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// Context is a Vulkan rendercore context.
type Context struct {
	*halgpu.Context
}

var _ rendercore.Context = (*Context)(nil)

// New opens a Vulkan device, or adopts opts.Provider's device when set.
func New(opts rendercore.ContextOptions) (*Context, error) {
	var (
		dev *halgpu.Device
		err error
	)
	if opts.Provider != nil {
		dev, err = halgpu.FromProvider(opts.Provider, rendercore.BackendVulkan)
	} else {
		dev, err = halgpu.Open(gputypes.BackendVulkan, rendercore.BackendVulkan)
	}
	if err != nil {
		return nil, fmt.Errorf("vulkan: %w", err)
	}
	return NewWithDevice(dev, opts), nil
}

// NewWithDevice builds a context on an already opened device. The context
// takes ownership of dev.
func NewWithDevice(dev *halgpu.Device, opts rendercore.ContextOptions) *Context {
	if dev.Backend() != rendercore.BackendVulkan {
		panic(fmt.Sprintf("vulkan: device opened for %s", dev.Backend()))
	}
	return &Context{Context: halgpu.NewContext(dev, opts, halgpu.Config{
		ColorFormat: gputypes.TextureFormatBGRA8Unorm,
	})}
}
