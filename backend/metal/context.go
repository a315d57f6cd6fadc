package metal

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendercore"
	"github.com/gogpu/rendercore/internal/halgpu"
)

// ErrNoDevice is returned by New without a device provider.
var ErrNoDevice = errors.New("metal: a device provider is required")

func init() {
	rendercore.Register(rendercore.BackendMetal, func(opts rendercore.ContextOptions) (rendercore.Context, error) {
		c, err := New(opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// Context is a Metal rendercore context.
type Context struct {
	*halgpu.Context
}

var _ rendercore.Context = (*Context)(nil)

// New adopts the Metal device of opts.Provider.
func New(opts rendercore.ContextOptions) (*Context, error) {
	if opts.Provider == nil {
		return nil, ErrNoDevice
	}
	dev, err := halgpu.FromProvider(opts.Provider, rendercore.BackendMetal)
	if err != nil {
		return nil, fmt.Errorf("metal: %w", err)
	}
	return NewWithDevice(dev, opts), nil
}

// NewWithDevice builds a context on an already opened device. The context
// takes ownership of dev.
func NewWithDevice(dev *halgpu.Device, opts rendercore.ContextOptions) *Context {
	if dev.Backend() != rendercore.BackendMetal {
		panic(fmt.Sprintf("metal: device opened for %s", dev.Backend()))
	}
	return &Context{Context: halgpu.NewContext(dev, opts, halgpu.Config{
		Coherent:    true,
		ColorFormat: gputypes.TextureFormatBGRA8Unorm,
	})}
}
