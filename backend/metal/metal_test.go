package metal

import (
	"errors"
	"testing"

	"github.com/gogpu/rendercore"
	"github.com/gogpu/rendercore/internal/halgpu"
)

type fakeLayer struct {
	handle    uintptr
	presented int
	fail      error
}

func (l *fakeLayer) Handle() uintptr { return l.handle }

func (l *fakeLayer) Present(drawable *rendercore.Texture) error {
	if l.fail != nil {
		return l.fail
	}
	if !drawable.IsValid() {
		return errors.New("presented a released drawable")
	}
	l.presented++
	return nil
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	dev, err := halgpu.OpenHeadless(rendercore.BackendMetal)
	if err != nil {
		t.Fatalf("OpenHeadless: %v", err)
	}
	c := NewWithDevice(dev, rendercore.DefaultContextOptions())
	t.Cleanup(c.Shutdown)
	return c
}

var size32 = rendercore.ISize{Width: 32, Height: 32}

func TestCoherentBuffers(t *testing.T) {
	c := newTestContext(t)
	if !c.Capabilities().SupportsDeviceTransientMemory {
		t.Error("metal context is not unified memory")
	}
	buf, err := rendercore.CreateBufferWithData(c.ResourceAllocator(), []byte{1, 2, 3, 4}, "data")
	if err != nil {
		t.Fatalf("CreateBufferWithData: %v", err)
	}
	defer buf.Release()
	if got := buf.Contents(); len(got) != 4 || got[3] != 4 {
		t.Errorf("contents = %v", got)
	}
}

func TestNewRequiresProvider(t *testing.T) {
	if _, err := New(rendercore.DefaultContextOptions()); !errors.Is(err, ErrNoDevice) {
		t.Errorf("err = %v, want ErrNoDevice", err)
	}
}

func TestNextSurfaceErrors(t *testing.T) {
	c := newTestContext(t)
	if _, err := c.NextSurface(nil, size32); !errors.Is(err, ErrNoLayer) {
		t.Errorf("nil layer err = %v", err)
	}
	if _, err := c.NextSurface(&fakeLayer{}, size32); !errors.Is(err, ErrLayerLost) {
		t.Errorf("lost layer err = %v", err)
	}
	if _, err := c.NextSurface(&fakeLayer{handle: 1}, rendercore.ISize{}); !errors.Is(err, rendercore.ErrInvalidDescriptor) {
		t.Errorf("empty size err = %v", err)
	}
}

func TestPresentDrawable(t *testing.T) {
	c := newTestContext(t)
	layer := &fakeLayer{handle: 1}
	s, err := c.NextSurface(layer, size32)
	if err != nil {
		t.Fatalf("NextSurface: %v", err)
	}
	if !s.IsValid() || s.Size() != size32 {
		t.Fatalf("surface valid=%v size=%v", s.IsValid(), s.Size())
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
	if err := c.EnqueueCommandBuffer(cmd); err != nil {
		t.Fatalf("EnqueueCommandBuffer: %v", err)
	}
	if err := s.Present(); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if layer.presented != 1 {
		t.Errorf("presented = %d", layer.presented)
	}
	if s.IsValid() {
		t.Error("surface valid after Present")
	}
	if err := s.Present(); !errors.Is(err, rendercore.ErrSurfaceInvalid) {
		t.Errorf("second Present err = %v", err)
	}
}

func TestPresentFailureReleasesDrawable(t *testing.T) {
	c := newTestContext(t)
	s, err := c.NextSurface(&fakeLayer{handle: 1, fail: errors.New("layer detached")}, size32)
	if err != nil {
		t.Fatalf("NextSurface: %v", err)
	}
	if err := s.Present(); !errors.Is(err, rendercore.ErrPresentFailed) {
		t.Errorf("err = %v, want ErrPresentFailed", err)
	}
	if s.Drawable().IsValid() {
		t.Error("drawable still referenced after failed Present")
	}
}

func TestLostLayerInvalidatesSurface(t *testing.T) {
	c := newTestContext(t)
	layer := &fakeLayer{handle: 1}
	s, err := c.NextSurface(layer, size32)
	if err != nil {
		t.Fatalf("NextSurface: %v", err)
	}
	layer.handle = 0
	if s.IsValid() {
		t.Error("surface valid after layer was lost")
	}
	if err := s.Present(); !errors.Is(err, rendercore.ErrSurfaceInvalid) {
		t.Errorf("err = %v, want ErrSurfaceInvalid", err)
	}
	if layer.presented != 0 {
		t.Error("lost layer received a drawable")
	}
}

func TestDiscard(t *testing.T) {
	c := newTestContext(t)
	s, err := c.NextSurface(&fakeLayer{handle: 1}, size32)
	if err != nil {
		t.Fatalf("NextSurface: %v", err)
	}
	s.Discard()
	s.Discard()
	if n := c.ResourceAllocator().Stats().TextureCount; n != 0 {
		t.Errorf("live textures after Discard = %d", n)
	}
}

func TestRegistered(t *testing.T) {
	if !rendercore.IsRegistered(rendercore.BackendMetal) {
		t.Error("metal backend not registered")
	}
}
