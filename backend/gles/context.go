package gles

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendercore"
	"github.com/gogpu/rendercore/internal/halgpu"
	"github.com/gogpu/rendercore/toolkit/egl"
)

var (
	// ErrNoDevice is returned by New without a device provider.
	ErrNoDevice = errors.New("gles: a device provider is required")

	// ErrNoEGLContext is returned by MakeCurrent before BindEGL.
	ErrNoEGLContext = errors.New("gles: no EGL context bound")
)

func init() {
	rendercore.Register(rendercore.BackendGLES, func(opts rendercore.ContextOptions) (rendercore.Context, error) {
		c, err := New(opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// Context is an OpenGL ES rendercore context.
type Context struct {
	*halgpu.Context

	mu      sync.Mutex
	egl     *egl.Context
	surface *egl.Surface
}

var _ rendercore.Context = (*Context)(nil)

// New adopts the GLES device of opts.Provider.
func New(opts rendercore.ContextOptions) (*Context, error) {
	if opts.Provider == nil {
		return nil, ErrNoDevice
	}
	dev, err := halgpu.FromProvider(opts.Provider, rendercore.BackendGLES)
	if err != nil {
		return nil, fmt.Errorf("gles: %w", err)
	}
	return NewWithDevice(dev, opts), nil
}

// NewWithDevice builds a context on an already opened device. The context
// takes ownership of dev.
func NewWithDevice(dev *halgpu.Device, opts rendercore.ContextOptions) *Context {
	if dev.Backend() != rendercore.BackendGLES {
		panic(fmt.Sprintf("gles: device opened for %s", dev.Backend()))
	}
	return &Context{Context: halgpu.NewContext(dev, opts, halgpu.Config{
		ColorFormat: gputypes.TextureFormatRGBA8Unorm,
	})}
}

// BindEGL sets the EGL context and draw surface GL work runs against.
// Ownership stays with the caller. A nil surface binds surfaceless.
func (c *Context) BindEGL(ctx *egl.Context, s *egl.Surface) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.egl = ctx
	c.surface = s
}

// EGL returns the bound EGL context, or nil.
func (c *Context) EGL() *egl.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.egl
}

// MakeCurrent makes the bound EGL context current on the calling thread.
func (c *Context) MakeCurrent() error {
	c.mu.Lock()
	ctx, s := c.egl, c.surface
	c.mu.Unlock()
	if ctx == nil {
		return ErrNoEGLContext
	}
	return ctx.MakeCurrent(s)
}

// ResetThreadLocalState releases the EGL binding of the calling thread.
func (c *Context) ResetThreadLocalState() {
	ctx := c.EGL()
	if ctx == nil || !ctx.IsValid() {
		return
	}
	if err := ctx.ClearCurrent(); err != nil {
		c.Log().Warn("gles: reset thread state failed", "error", err)
	}
}
