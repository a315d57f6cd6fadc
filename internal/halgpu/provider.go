package halgpu

import (
	"context"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Provider exposes a context's device to libraries that accept a
// gpucontext.DeviceProvider. The context keeps ownership of the device.
type Provider struct {
	c *Context
}

var _ gpucontext.DeviceProvider = (*Provider)(nil)

// Provider returns a device provider sharing this context's device.
func (c *Context) Provider() *Provider { return &Provider{c: c} }

// Device returns a handle whose Poll retires or drains the queue.
func (p *Provider) Device() gpucontext.Device { return providerDevice{p.c} }

// Queue returns the queue handle.
func (p *Provider) Queue() gpucontext.Queue { return providerQueue{} }

// Adapter returns the adapter handle.
func (p *Provider) Adapter() gpucontext.Adapter { return providerAdapter{} }

// SurfaceFormat returns the context's default color format.
func (p *Provider) SurfaceFormat() gputypes.TextureFormat {
	return p.c.caps.DefaultColorFormat
}

// HalDevice returns the hal.Device.
func (p *Provider) HalDevice() any { return p.c.dev.device }

// HalQueue returns the hal.Queue.
func (p *Provider) HalQueue() any { return p.c.dev.queue }

type providerDevice struct{ c *Context }

func (d providerDevice) Poll(wait bool) {
	if !wait {
		d.c.queue.Flush()
		return
	}
	if err := d.c.queue.WaitIdle(context.Background()); err != nil {
		d.c.log.Warn("halgpu: provider poll failed", "error", err)
	}
}

// Destroy does nothing; the owning context destroys the device.
func (providerDevice) Destroy() {}

type providerQueue struct{}

type providerAdapter struct{}
