package gles

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendercore"
	"github.com/gogpu/rendercore/internal/halgpu"
	"github.com/gogpu/rendercore/toolkit/egl"
	"github.com/gogpu/wgpu/hal"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	dev, err := halgpu.OpenHeadless(rendercore.BackendGLES)
	if err != nil {
		t.Fatalf("OpenHeadless: %v", err)
	}
	c := NewWithDevice(dev, rendercore.DefaultContextOptions())
	t.Cleanup(c.Shutdown)
	return c
}

// newFramebuffer stands in for the embedder's window framebuffer.
func newFramebuffer(t *testing.T, c *Context, size rendercore.ISize) Framebuffer {
	t.Helper()
	hd, _ := c.Device().HAL()
	tex, err := hd.CreateTexture(&hal.TextureDescriptor{
		Label:         "window",
		Size:          hal.Extent3D{Width: size.Width, Height: size.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	view, err := hd.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "window_view"})
	if err != nil {
		hd.DestroyTexture(tex)
		t.Fatalf("CreateTextureView: %v", err)
	}
	t.Cleanup(func() {
		hd.DestroyTextureView(view)
		hd.DestroyTexture(tex)
	})
	return Framebuffer{FBO: 7, Size: size, Texture: tex, View: view}
}

var size64 = rendercore.ISize{Width: 64, Height: 64}

func TestContextDefaults(t *testing.T) {
	c := newTestContext(t)
	if c.BackendType() != rendercore.BackendGLES {
		t.Errorf("backend = %v", c.BackendType())
	}
	if got := c.Capabilities().DefaultColorFormat; got != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("color format = %v", got)
	}
}

func TestNewRequiresProvider(t *testing.T) {
	if _, err := New(rendercore.DefaultContextOptions()); !errors.Is(err, ErrNoDevice) {
		t.Errorf("err = %v, want ErrNoDevice", err)
	}
}

func TestNewWithDeviceBackendMismatch(t *testing.T) {
	dev, err := halgpu.OpenHeadless(rendercore.BackendVulkan)
	if err != nil {
		t.Fatalf("OpenHeadless: %v", err)
	}
	t.Cleanup(dev.Close)
	defer func() {
		if recover() == nil {
			t.Error("NewWithDevice accepted a Vulkan device")
		}
	}()
	NewWithDevice(dev, rendercore.DefaultContextOptions())
}

func TestSurfacePresent(t *testing.T) {
	c := newTestContext(t)
	swaps := 0
	accept := true
	s := c.NewSurface(newFramebuffer(t, c, size64), func() bool {
		swaps++
		return accept
	})
	defer s.Release()

	if !s.IsValid() || s.Size() != size64 || s.FBO() != 7 {
		t.Fatalf("surface valid=%v size=%v fbo=%d", s.IsValid(), s.Size(), s.FBO())
	}

	cmd, err := c.CreateCommandBuffer()
	if err != nil {
		t.Fatalf("CreateCommandBuffer: %v", err)
	}
	pass, err := cmd.CreateRenderPass(s.RenderTarget())
	if err != nil {
		t.Fatalf("CreateRenderPass: %v", err)
	}
	if err := pass.EncodeCommands(); err != nil {
		t.Fatalf("EncodeCommands: %v", err)
	}
	if err := c.SubmitOnscreen(cmd); err != nil {
		t.Fatalf("SubmitOnscreen: %v", err)
	}
	if err := s.Present(); err != nil {
		t.Fatalf("Present: %v", err)
	}

	accept = false
	if err := s.Present(); !errors.Is(err, rendercore.ErrPresentFailed) {
		t.Errorf("rejected swap err = %v", err)
	}
	if swaps != 2 {
		t.Errorf("swap callback ran %d times, want 2", swaps)
	}
}

func TestSurfaceDoesNotOwnFramebuffer(t *testing.T) {
	c := newTestContext(t)
	s := c.NewSurface(newFramebuffer(t, c, size64), func() bool { return true })
	if n := c.ResourceAllocator().Stats().TextureCount; n != 0 {
		t.Errorf("wrapped framebuffer counted as %d allocations", n)
	}
	s.Release()
	s.Release()
	if s.IsValid() {
		t.Error("surface valid after Release")
	}
	if err := s.Present(); !errors.Is(err, rendercore.ErrSurfaceInvalid) {
		t.Errorf("Present after Release err = %v", err)
	}
}

func TestSurfaceInvalidFramebuffer(t *testing.T) {
	c := newTestContext(t)
	called := false
	s := c.NewSurface(Framebuffer{FBO: 3, Size: size64}, func() bool {
		called = true
		return true
	})
	defer s.Release()
	if s.IsValid() {
		t.Error("surface without framebuffer texture is valid")
	}
	if err := s.Present(); !errors.Is(err, rendercore.ErrSurfaceInvalid) {
		t.Errorf("err = %v, want ErrSurfaceInvalid", err)
	}
	if called {
		t.Error("swap callback ran for an invalid surface")
	}
}

func TestSurfaceWithoutCallback(t *testing.T) {
	c := newTestContext(t)
	s := c.NewSurface(newFramebuffer(t, c, size64), nil)
	defer s.Release()
	if err := s.Present(); !errors.Is(err, rendercore.ErrPresentUnsupported) {
		t.Errorf("err = %v, want ErrPresentUnsupported", err)
	}
}

// stubEGL accepts every call.
type stubEGL struct {
	current uintptr
}

func (*stubEGL) GetDisplay(uintptr) uintptr                             { return 1 }
func (*stubEGL) Initialize(uintptr) (int32, int32, bool)                { return 1, 5, true }
func (*stubEGL) Terminate(uintptr) bool                                 { return true }
func (*stubEGL) BindAPI(uint32) bool                                    { return true }
func (*stubEGL) ChooseConfig(uintptr, []int32) (uintptr, bool)          { return 2, true }
func (*stubEGL) CreateContext(_, _, _ uintptr, _ []int32) uintptr       { return 3 }
func (*stubEGL) DestroyContext(_, _ uintptr) bool                       { return true }
func (*stubEGL) CreateWindowSurface(_, _, _ uintptr, _ []int32) uintptr { return 4 }
func (*stubEGL) CreatePbufferSurface(_, _ uintptr, _ []int32) uintptr   { return 5 }
func (*stubEGL) DestroySurface(_, _ uintptr) bool                       { return true }
func (*stubEGL) SwapBuffers(_, _ uintptr) bool                          { return true }
func (*stubEGL) GetError() int32                                        { return 0x3000 }
func (s *stubEGL) MakeCurrent(_, _, _, ctx uintptr) bool                { s.current = ctx; return true }

func TestThreadLocalState(t *testing.T) {
	c := newTestContext(t)
	if err := c.MakeCurrent(); !errors.Is(err, ErrNoEGLContext) {
		t.Errorf("MakeCurrent without EGL err = %v", err)
	}
	c.ResetThreadLocalState()

	api := &stubEGL{}
	d, err := egl.OpenDisplay(api, 0)
	if err != nil {
		t.Fatalf("OpenDisplay: %v", err)
	}
	defer d.Close()
	cfg, err := d.ChooseConfig(egl.ConfigDescriptor{API: egl.OpenGLES3, SurfaceType: egl.SurfaceTypePbuffer})
	if err != nil {
		t.Fatalf("ChooseConfig: %v", err)
	}
	ectx, err := d.CreateContext(cfg, nil)
	if err != nil {
		t.Fatalf("CreateContext: %v", err)
	}
	defer ectx.Close()
	pb, err := d.CreatePbufferSurface(cfg, size64)
	if err != nil {
		t.Fatalf("CreatePbufferSurface: %v", err)
	}
	defer pb.Close()

	c.BindEGL(ectx, pb)
	if err := c.MakeCurrent(); err != nil {
		t.Fatalf("MakeCurrent: %v", err)
	}
	if api.current != ectx.Handle() || ectx.CurrentSurface() != pb {
		t.Error("EGL context not current")
	}
	c.ResetThreadLocalState()
	if api.current != 0 || ectx.CurrentSurface() != nil {
		t.Error("ResetThreadLocalState left the context current")
	}
}

func TestRegistered(t *testing.T) {
	if !rendercore.IsRegistered(rendercore.BackendGLES) {
		t.Error("gles backend not registered")
	}
}
