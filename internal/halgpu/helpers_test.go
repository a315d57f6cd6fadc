package halgpu

import (
	"context"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendercore"
	"github.com/gogpu/wgpu/hal/noop"
)

const testShader = `
@vertex
fn vs_main(@location(0) position: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

func createNoopDevice(t *testing.T) *Device {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	dev, err := OpenInstance(instance, rendercore.BackendVulkan)
	if err != nil {
		instance.Destroy()
		t.Fatalf("OpenInstance failed: %v", err)
	}
	t.Cleanup(dev.Close)
	return dev
}

func createNoopContext(t *testing.T, cfg Config) *Context {
	t.Helper()
	opts := rendercore.DefaultContextOptions()
	opts.Label = "test"
	c := NewContext(createNoopDevice(t), opts, cfg)
	t.Cleanup(c.Shutdown)
	return c
}

func waitIdle(t *testing.T, c *Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Queue().WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
}

func createTarget(t *testing.T, c *Context, w, h uint32) *rendercore.Texture {
	t.Helper()
	tex, err := c.ResourceAllocator().CreateTexture(rendercore.TextureDescriptor{
		Label:  "target",
		Size:   rendercore.ISize{Width: w, Height: h},
		Format: gputypes.TextureFormatBGRA8Unorm,
		Usage:  rendercore.TextureUsageRenderTarget | rendercore.TextureUsageShaderRead,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	return tex
}

func registerTestShaders(t *testing.T, c *Context) (vs, fs rendercore.ShaderFunction) {
	t.Helper()
	lib := c.ShaderLibrary()
	for _, fn := range []struct {
		name  string
		stage rendercore.ShaderStage
	}{
		{"vs_main", rendercore.ShaderStageVertex},
		{"fs_main", rendercore.ShaderStageFragment},
	} {
		var ok bool
		lib.RegisterFunction(fn.name, fn.stage, []byte(testShader), func(r bool) { ok = r })
		if !ok {
			t.Fatalf("RegisterFunction(%s) failed", fn.name)
		}
	}
	return lib.GetFunction("vs_main", rendercore.ShaderStageVertex),
		lib.GetFunction("fs_main", rendercore.ShaderStageFragment)
}

func createTestPipeline(t *testing.T, c *Context) rendercore.Pipeline {
	t.Helper()
	vs, fs := registerTestShaders(t, c)
	p, err := c.CreatePipeline(rendercore.PipelineDescriptor{
		Label:            "triangle",
		VertexFunction:   vs,
		FragmentFunction: fs,
		VertexLayouts: []gputypes.VertexBufferLayout{{
			ArrayStride: 8,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		}},
		ColorFormat: gputypes.TextureFormatBGRA8Unorm,
	})
	if err != nil {
		t.Fatalf("CreatePipeline: %v", err)
	}
	return p
}
