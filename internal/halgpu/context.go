package halgpu

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendercore"
)

// shutdownTimeout bounds how long Shutdown waits for in-flight work.
const shutdownTimeout = 5 * time.Second

// Config tunes a Context for one backend.
type Config struct {
	// Coherent selects unified-memory buffers. Host writes become visible
	// without Flush and blit destinations are refreshed on retirement.
	Coherent bool

	// ColorFormat is the default color format. Zero selects BGRA8Unorm.
	ColorFormat gputypes.TextureFormat
}

// Context is a rendercore.Context on a HAL device. Backends embed it.
type Context struct {
	rendercore.ContextBase

	dev     *Device
	opts    rendercore.ContextOptions
	cfg     Config
	log     *slog.Logger
	alloc   *Allocator
	queue   *Queue
	library *rendercore.ShaderLibrary
	caps    rendercore.Capabilities

	mu        sync.Mutex
	pipelines map[*Pipeline]struct{}
	cmdSeq    atomic.Uint64
	down      atomic.Bool
	shutdown  sync.Once
}

// NewContext builds a context that owns dev. The device is closed by
// Shutdown unless it is external.
func NewContext(dev *Device, opts rendercore.ContextOptions, cfg Config) *Context {
	if cfg.ColorFormat == gputypes.TextureFormatUndefined {
		cfg.ColorFormat = gputypes.TextureFormatBGRA8Unorm
	}
	gate := rendercore.NewSyncSwitch(false)
	queue := NewQueue(dev, gate)
	c := &Context{
		ContextBase: rendercore.NewContextBase(dev.backend, opts.Flags, queue, gate),
		dev:         dev,
		opts:        opts,
		cfg:         cfg,
		log:         opts.Log(),
		alloc:       NewAllocator(dev, opts.MemoryBudget, cfg.Coherent),
		queue:       queue,
		library:     rendercore.NewShaderLibrary(ShaderFactory(dev)),
		pipelines:   make(map[*Pipeline]struct{}),
	}
	c.caps = capabilitiesFor(dev, cfg)
	c.log.Info("halgpu: context created",
		"backend", dev.backend,
		"adapter", c.DescribeGPUModel(),
		"coherent", cfg.Coherent,
		"flags", opts.Flags)
	return c
}

var _ rendercore.Context = (*Context)(nil)

func capabilitiesFor(dev *Device, cfg Config) rendercore.Capabilities {
	return rendercore.Capabilities{
		SupportsOffscreenMSAA:         true,
		SupportsStorageBuffers:        true,
		SupportsBufferToTextureBlits:  false,
		SupportsTextureToBufferBlits:  true,
		SupportsCompute:               false,
		SupportsReadFromResolve:       false,
		SupportsDeviceTransientMemory: cfg.Coherent,
		DefaultColorFormat:            cfg.ColorFormat,
		DefaultStencilFormat:          gputypes.TextureFormatDepth24PlusStencil8,
		DefaultDepthStencilFormat:     gputypes.TextureFormatDepth24PlusStencil8,
		MaxTextureSize:                rendercore.ISize{Width: dev.maxTexture2D, Height: dev.maxTexture2D},
		MaxBufferSize:                 dev.maxBuffer,
	}
}

// Device returns the underlying device.
func (c *Context) Device() *Device { return c.dev }

// Options returns the options the context was built with.
func (c *Context) Options() rendercore.ContextOptions { return c.opts }

// Log returns the context's logger.
func (c *Context) Log() *slog.Logger { return c.log }

// Queue returns the submission queue.
func (c *Context) Queue() *Queue { return c.queue }

// IsValid reports whether the context has not been shut down.
func (c *Context) IsValid() bool { return !c.down.Load() && !c.dev.Closed() }

// DescribeGPUModel returns the adapter name.
func (c *Context) DescribeGPUModel() string {
	if c.dev.adapterName != "" {
		return c.dev.adapterName
	}
	if c.dev.external {
		return fmt.Sprintf("external %s device", c.dev.backend)
	}
	return fmt.Sprintf("unknown %s device", c.dev.backend)
}

// Capabilities returns what the device supports.
func (c *Context) Capabilities() rendercore.Capabilities { return c.caps }

// ResourceAllocator returns the budgeted allocator.
func (c *Context) ResourceAllocator() rendercore.Allocator { return c.alloc }

// ShaderLibrary returns the context's shader library.
func (c *Context) ShaderLibrary() *rendercore.ShaderLibrary { return c.library }

// CreateCommandBuffer returns a new pending command buffer.
func (c *Context) CreateCommandBuffer() (rendercore.CommandBuffer, error) {
	if !c.IsValid() {
		return nil, rendercore.ErrContextShutdown
	}
	label := fmt.Sprintf("%s_cmd_%d", c.opts.Label, c.cmdSeq.Add(1))
	return newCommandBuffer(c.dev, c.cfg.Coherent, label)
}

// CreatePipeline builds a render pipeline. Pipelines live until
// ReleasePipeline or Shutdown.
func (c *Context) CreatePipeline(desc rendercore.PipelineDescriptor) (rendercore.Pipeline, error) {
	if !c.IsValid() {
		return nil, rendercore.ErrContextShutdown
	}
	p, err := createPipeline(c.dev, desc)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.pipelines[p] = struct{}{}
	c.mu.Unlock()
	c.log.Debug("halgpu: pipeline created", "label", desc.Label)
	return p, nil
}

// ReleasePipeline destroys p. Command buffers already encoded with p
// must have retired.
func (c *Context) ReleasePipeline(p rendercore.Pipeline) {
	hp := pipelineFrom(p)
	c.mu.Lock()
	delete(c.pipelines, hp)
	c.mu.Unlock()
	hp.destroy()
}

// FlushCommandBuffers retires finished submissions.
func (c *Context) FlushCommandBuffers() error {
	c.queue.Flush()
	return nil
}

// IdleWaiter returns the queue.
func (c *Context) IdleWaiter() rendercore.IdleWaiter { return c.queue }

// AddTrackingFence attaches a fence covering everything submitted so far.
func (c *Context) AddTrackingFence(tex *rendercore.Texture) bool {
	if tex == nil || !tex.IsValid() {
		return false
	}
	tex.MustBelongTo(c.dev.backend)
	tex.SetFence(c.queue.trackingFence())
	return true
}

// Shutdown waits for the GPU, fails anything still in flight and
// releases the library, pipelines and device. It is idempotent.
func (c *Context) Shutdown() {
	c.shutdown.Do(func() {
		c.down.Store(true)
		c.queue.close(shutdownTimeout)
		c.library.Close()

		c.mu.Lock()
		pipes := c.pipelines
		c.pipelines = make(map[*Pipeline]struct{})
		c.mu.Unlock()
		for p := range pipes {
			p.destroy()
		}

		c.alloc.close()
		c.dev.Close()
		c.log.Info("halgpu: context shut down", "backend", c.dev.backend)
	})
}
