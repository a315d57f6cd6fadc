package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"math"
	"os"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendercore"
	"github.com/gogpu/rendercore/backend/gles"
	"github.com/gogpu/rendercore/backend/metal"
	"github.com/gogpu/rendercore/backend/vulkan"
	"github.com/gogpu/rendercore/internal/halgpu"
	"github.com/gogpu/wgpu/hal"
)

const triangleShader = `
@vertex
fn vs_main(@location(0) position: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.9, 0.4, 0.1, 1.0);
}
`

const frameTimeout = 5 * time.Second

type runStats struct {
	frames    int
	presented int
	memory    rendercore.MemoryStats
}

// headlessWindow stands in for a window, layer or framebuffer owner.
type headlessWindow struct {
	presented atomic.Int64
}

func (*headlessWindow) Handle() uintptr { return 1 }

func (w *headlessWindow) Present(*rendercore.Texture) error {
	w.presented.Add(1)
	return nil
}

func (w *headlessWindow) swap() bool {
	w.presented.Add(1)
	return true
}

// display yields one surface per frame for a backend.
type display struct {
	ctx          rendercore.Context
	depthStencil gputypes.TextureFormat
	acquire      func(context.Context) (rendercore.Surface, error)
	discard      func(rendercore.Surface)
	close        func()
	window       *headlessWindow
}

func openDisplay(cfg config, log *slog.Logger) (*display, error) {
	backend, err := rendercore.ParseBackendType(cfg.Backend)
	if err != nil {
		return nil, err
	}
	dev, err := halgpu.OpenHeadless(backend)
	if err != nil {
		return nil, err
	}
	opts := rendercore.ResolveContextOptions(cfg.options(log)...)
	win := &headlessWindow{}
	size := cfg.size()

	switch backend {
	case rendercore.BackendVulkan:
		c := vulkan.NewSurfaceContext(vulkan.NewWithDevice(dev, opts))
		if err := c.SetWindowSurface(win, size); err != nil {
			c.Shutdown()
			return nil, err
		}
		return &display{
			ctx:          c,
			depthStencil: c.Capabilities().DefaultStencilFormat,
			acquire: func(ctx context.Context) (rendercore.Surface, error) {
				return c.AcquireNextSurfaceContext(ctx)
			},
			discard: func(s rendercore.Surface) { s.(*vulkan.Surface).Discard() },
			close:   c.Shutdown,
			window:  win,
		}, nil

	case rendercore.BackendMetal:
		c := metal.NewWithDevice(dev, opts)
		return &display{
			ctx: c,
			acquire: func(context.Context) (rendercore.Surface, error) {
				return c.NextSurface(win, size)
			},
			discard: func(s rendercore.Surface) { s.(*metal.Surface).Discard() },
			close:   c.Shutdown,
			window:  win,
		}, nil

	default:
		c := gles.NewWithDevice(dev, opts)
		fb, release, err := newFramebuffer(c, size)
		if err != nil {
			c.Shutdown()
			return nil, err
		}
		s := c.NewSurface(fb, win.swap)
		return &display{
			ctx: c,
			acquire: func(context.Context) (rendercore.Surface, error) {
				return s, nil
			},
			discard: func(rendercore.Surface) {},
			close: func() {
				s.Release()
				if err := rendercore.WaitIdle(context.Background(), c); err != nil {
					log.Warn("rcdemo: wait idle failed", "error", err)
				}
				release()
				c.Shutdown()
			},
			window: win,
		}, nil
	}
}

// newFramebuffer creates the texture a GLES window would otherwise own.
func newFramebuffer(c *gles.Context, size rendercore.ISize) (gles.Framebuffer, func(), error) {
	hd, _ := c.Device().HAL()
	format := c.Capabilities().DefaultColorFormat
	tex, err := hd.CreateTexture(&hal.TextureDescriptor{
		Label:         "window",
		Size:          hal.Extent3D{Width: size.Width, Height: size.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return gles.Framebuffer{}, nil, err
	}
	view, err := hd.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "window_view"})
	if err != nil {
		hd.DestroyTexture(tex)
		return gles.Framebuffer{}, nil, err
	}
	release := func() {
		hd.DestroyTextureView(view)
		hd.DestroyTexture(tex)
	}
	return gles.Framebuffer{Size: size, Format: format, Texture: tex, View: view}, release, nil
}

func run(cfg config, log *slog.Logger) (runStats, error) {
	var stats runStats
	d, err := openDisplay(cfg, log)
	if err != nil {
		return stats, err
	}
	defer d.close()
	c := d.ctx

	pipeline, err := createPipeline(c, d.depthStencil)
	if err != nil {
		return stats, err
	}
	vertices, err := rendercore.CreateBufferWithData(c.ResourceAllocator(), triangleVertices(), "triangle")
	if err != nil {
		return stats, err
	}
	defer vertices.Release()

	var readback *rendercore.DeviceBuffer
	for frame := range cfg.Frames {
		last := frame == cfg.Frames-1
		ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
		s, err := d.acquire(ctx)
		cancel()
		if err != nil {
			return stats, fmt.Errorf("frame %d: %w", frame, err)
		}

		var rb *rendercore.DeviceBuffer
		if last && cfg.Output != "" {
			rb, err = encodeFrameWithReadback(c, s, pipeline, vertices)
			readback = rb
		} else {
			err = encodeFrame(c, s, pipeline, vertices, nil)
		}
		if err != nil {
			d.discard(s)
			return stats, fmt.Errorf("frame %d: %w", frame, err)
		}
		if err := s.Present(); err != nil {
			return stats, fmt.Errorf("frame %d: %w", frame, err)
		}
		stats.frames++
	}

	if err := rendercore.WaitIdle(context.Background(), c); err != nil {
		return stats, err
	}
	if readback != nil {
		defer readback.Release()
		if err := writePNG(cfg.Output, readback, cfg.size(), c.Capabilities().DefaultColorFormat); err != nil {
			return stats, err
		}
	}
	stats.presented = int(d.window.presented.Load())
	stats.memory = c.ResourceAllocator().Stats()
	return stats, nil
}

func createPipeline(c rendercore.Context, depthStencil gputypes.TextureFormat) (rendercore.Pipeline, error) {
	lib := c.ShaderLibrary()
	var ok bool
	lib.RegisterFunction("vs_main", rendercore.ShaderStageVertex, []byte(triangleShader), func(r bool) { ok = r })
	if !ok {
		return nil, errors.New("vertex shader rejected")
	}
	lib.RegisterFunction("fs_main", rendercore.ShaderStageFragment, []byte(triangleShader), func(r bool) { ok = r })
	if !ok {
		return nil, errors.New("fragment shader rejected")
	}
	return c.CreatePipeline(rendercore.PipelineDescriptor{
		Label:            "triangle",
		VertexFunction:   lib.GetFunction("vs_main", rendercore.ShaderStageVertex),
		FragmentFunction: lib.GetFunction("fs_main", rendercore.ShaderStageFragment),
		VertexLayouts: []gputypes.VertexBufferLayout{{
			ArrayStride: 8,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		}},
		ColorFormat:        c.Capabilities().DefaultColorFormat,
		DepthStencilFormat: depthStencil,
	})
}

func triangleVertices() []byte {
	pts := []float32{0, 0.8, -0.8, -0.8, 0.8, -0.8}
	data := make([]byte, 4*len(pts))
	for i, v := range pts {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
	}
	return data
}

// encodeFrame records the triangle into s and, when blit is non-nil,
// lets it append transfers to the same command buffer.
func encodeFrame(c rendercore.Context, s rendercore.Surface, p rendercore.Pipeline, vertices *rendercore.DeviceBuffer,
	blit func(rendercore.CommandBuffer) error) error {
	cmd, err := c.CreateCommandBuffer()
	if err != nil {
		return err
	}
	pass, err := cmd.CreateRenderPass(s.RenderTarget())
	if err != nil {
		return err
	}
	view, err := rendercore.NewBufferView(vertices, rendercore.Range{Length: vertices.Size()})
	if err != nil {
		return err
	}
	defer view.Release()
	if err := pass.AddCommand(rendercore.Command{
		Label:        "triangle",
		Pipeline:     p,
		VertexBuffer: view,
		VertexCount:  3,
	}); err != nil {
		return err
	}
	if err := pass.EncodeCommands(); err != nil {
		return err
	}
	if blit != nil {
		if err := blit(cmd); err != nil {
			return err
		}
	}
	return c.SubmitOnscreen(cmd)
}

func encodeFrameWithReadback(c rendercore.Context, s rendercore.Surface, p rendercore.Pipeline,
	vertices *rendercore.DeviceBuffer) (*rendercore.DeviceBuffer, error) {
	color, _ := s.RenderTarget().ColorAttachment(0)
	_, size := halgpu.ReadbackLayout(color.Texture.Descriptor())
	dst, err := c.ResourceAllocator().CreateBuffer(rendercore.DeviceBufferDescriptor{
		Size:        size,
		StorageMode: rendercore.StorageHostVisible,
		Label:       "readback",
	})
	if err != nil {
		return nil, err
	}
	err = encodeFrame(c, s, p, vertices, func(cmd rendercore.CommandBuffer) error {
		blit, err := cmd.CreateBlitPass()
		if err != nil {
			return err
		}
		if err := blit.CopyTextureToBuffer(color.Texture, rendercore.BufferView{Buffer: dst, Range: rendercore.Range{Length: size}}); err != nil {
			return err
		}
		return blit.EncodeCommands()
	})
	if err != nil {
		dst.Release()
		return nil, err
	}
	return dst, nil
}

func writePNG(path string, buf *rendercore.DeviceBuffer, size rendercore.ISize, format gputypes.TextureFormat) error {
	if err := buf.Invalidate(rendercore.WholeRange); err != nil {
		return err
	}
	pitch, _ := halgpu.ReadbackLayout(rendercore.TextureDescriptor{Size: size, Format: format})
	img, err := rendercore.ImageFromRows(buf.Contents(), size, pitch, format)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
