package halgpu

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendercore"
)

func newCommandBufferT(t *testing.T, c *Context) *CommandBuffer {
	t.Helper()
	cmd, err := c.CreateCommandBuffer()
	if err != nil {
		t.Fatalf("CreateCommandBuffer: %v", err)
	}
	return cmd.(*CommandBuffer)
}

func TestRenderPassSubmit(t *testing.T) {
	c := createNoopContext(t, Config{})
	pipe := createTestPipeline(t, c)
	target := createTarget(t, c, 64, 64)

	verts := []byte{
		0, 0, 0, 0, 0, 0, 128, 63,
		0, 0, 128, 63, 0, 0, 0, 0,
		0, 0, 128, 191, 0, 0, 0, 0,
	}
	vb, err := rendercore.CreateBufferWithData(c.ResourceAllocator(), verts, "verts")
	if err != nil {
		t.Fatalf("CreateBufferWithData: %v", err)
	}

	cmd := newCommandBufferT(t, c)
	var rt rendercore.RenderTarget
	rt.SetColorAttachment(rendercore.ColorAttachment{
		Texture:     target,
		LoadAction:  rendercore.LoadActionClear,
		StoreAction: rendercore.StoreActionStore,
		ClearColor:  rendercore.Color{A: 1},
	}, 0)
	pass, err := cmd.CreateRenderPass(&rt)
	if err != nil {
		t.Fatalf("CreateRenderPass: %v", err)
	}
	pass.SetLabel("triangle pass")
	view := rendercore.AsBufferView(vb)
	if err := pass.AddCommand(rendercore.Command{
		Pipeline:     pipe,
		VertexBuffer: view,
		VertexCount:  3,
	}); err != nil {
		t.Fatalf("AddCommand: %v", err)
	}
	if err := pass.EncodeCommands(); err != nil {
		t.Fatalf("EncodeCommands: %v", err)
	}
	// The command buffer keeps the vertex buffer and target alive.
	view.Release()
	target.Release()
	if s := c.ResourceAllocator().Stats(); s.BufferCount != 1 || s.TextureCount != 1 {
		t.Errorf("encoded resources freed early: %+v", s)
	}

	var (
		mu     sync.Mutex
		status []rendercore.CommandBufferStatus
	)
	err = c.CommandQueue().Submit([]rendercore.CommandBuffer{cmd}, func(_ rendercore.CommandBuffer, s rendercore.CommandBufferStatus) {
		mu.Lock()
		status = append(status, s)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitIdle(t, c)

	mu.Lock()
	defer mu.Unlock()
	if len(status) != 1 || status[0] != rendercore.CommandBufferCompleted {
		t.Fatalf("completion statuses = %v, want [Completed]", status)
	}
	if cmd.Status() != rendercore.CommandBufferCompleted {
		t.Errorf("Status = %v", cmd.Status())
	}
	if s := c.ResourceAllocator().Stats(); s.BufferCount != 0 || s.TextureCount != 0 {
		t.Errorf("resources still live after retirement: %+v", s)
	}
}

func TestRenderPassWithDepthStencil(t *testing.T) {
	c := createNoopContext(t, Config{})
	color := createTarget(t, c, 32, 32)
	defer color.Release()
	ds, err := c.ResourceAllocator().CreateTexture(rendercore.TextureDescriptor{
		Label:  "depth",
		Size:   rendercore.ISize{Width: 32, Height: 32},
		Format: gputypes.TextureFormatDepth24PlusStencil8,
		Usage:  rendercore.TextureUsageRenderTarget,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	defer ds.Release()

	var rt rendercore.RenderTarget
	rt.SetColorAttachment(rendercore.ColorAttachment{Texture: color, LoadAction: rendercore.LoadActionClear}, 0)
	rt.SetDepthAttachment(rendercore.DepthAttachment{Texture: ds, ClearDepth: 1})
	rt.SetStencilAttachment(rendercore.StencilAttachment{Texture: ds})

	cmd := newCommandBufferT(t, c)
	pass, err := cmd.CreateRenderPass(&rt)
	if err != nil {
		t.Fatalf("CreateRenderPass: %v", err)
	}
	if err := pass.EncodeCommands(); err != nil {
		t.Fatalf("EncodeCommands: %v", err)
	}
	if err := c.EnqueueCommandBuffer(cmd); err != nil {
		t.Fatalf("EnqueueCommandBuffer: %v", err)
	}
	waitIdle(t, c)
}

func TestCommandBufferResubmit(t *testing.T) {
	c := createNoopContext(t, Config{})
	cmd := newCommandBufferT(t, c)
	if err := c.EnqueueCommandBuffer(cmd); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := c.EnqueueCommandBuffer(cmd); !errors.Is(err, rendercore.ErrCommandBufferSubmitted) {
		t.Errorf("second submit err = %v, want ErrCommandBufferSubmitted", err)
	}
	if _, err := cmd.CreateBlitPass(); !errors.Is(err, rendercore.ErrCommandBufferSubmitted) {
		t.Errorf("CreateBlitPass after submit err = %v", err)
	}
}

func TestCommandBufferDiscard(t *testing.T) {
	c := createNoopContext(t, Config{})
	cmd := newCommandBufferT(t, c)
	cmd.Discard()
	if cmd.IsValid() {
		t.Error("discarded buffer still valid")
	}
	if err := c.EnqueueCommandBuffer(cmd); !errors.Is(err, rendercore.ErrInvalidCommandBuffer) {
		t.Errorf("submit after discard err = %v", err)
	}
}

func TestBlitPassValidation(t *testing.T) {
	c := createNoopContext(t, Config{})
	a := c.ResourceAllocator()
	small, _ := a.CreateBuffer(rendercore.DeviceBufferDescriptor{Size: 8})
	large, _ := a.CreateBuffer(rendercore.DeviceBufferDescriptor{Size: 64})
	defer small.Release()
	defer large.Release()

	cmd := newCommandBufferT(t, c)
	blit, err := cmd.CreateBlitPass()
	if err != nil {
		t.Fatalf("CreateBlitPass: %v", err)
	}

	view := func(b *rendercore.DeviceBuffer, off, n uint64) rendercore.BufferView {
		return rendercore.BufferView{Buffer: b, Range: rendercore.Range{Offset: off, Length: n}}
	}
	if err := blit.CopyBufferToBuffer(view(large, 0, 64), view(small, 0, 8)); !errors.Is(err, rendercore.ErrInvalidCommand) {
		t.Errorf("oversized copy err = %v", err)
	}
	if err := blit.CopyBufferToBuffer(view(large, 2, 4), view(small, 0, 8)); !errors.Is(err, rendercore.ErrInvalidCommand) {
		t.Errorf("unaligned copy err = %v", err)
	}
	if err := blit.CopyBufferToBuffer(view(large, 0, 8), view(small, 0, 8)); err != nil {
		t.Errorf("valid copy: %v", err)
	}

	tex := createTarget(t, c, 16, 16)
	defer tex.Release()
	if err := blit.CopyTextureToBuffer(tex, view(small, 0, 8)); !errors.Is(err, rendercore.ErrInvalidCommand) {
		t.Errorf("short readback err = %v", err)
	}
}

func TestBlitReadback(t *testing.T) {
	for _, coherent := range []bool{false, true} {
		c := createNoopContext(t, Config{Coherent: coherent})
		tex := createTarget(t, c, 16, 16)
		bytesPerRow, size := ReadbackLayout(tex.Descriptor())
		if bytesPerRow != 256 || size != 256*16 {
			t.Fatalf("layout = %d/%d, want 256/4096", bytesPerRow, size)
		}
		dst, err := c.ResourceAllocator().CreateBuffer(rendercore.DeviceBufferDescriptor{
			Size:        size,
			StorageMode: rendercore.StorageHostVisible,
		})
		if err != nil {
			t.Fatalf("CreateBuffer: %v", err)
		}

		cmd := newCommandBufferT(t, c)
		blit, _ := cmd.CreateBlitPass()
		blit.SetLabel("readback")
		if err := blit.CopyTextureToBuffer(tex, rendercore.BufferView{Buffer: dst, Range: rendercore.Range{Length: size}}); err != nil {
			t.Fatalf("CopyTextureToBuffer: %v", err)
		}
		if err := blit.EncodeCommands(); err != nil {
			t.Fatalf("EncodeCommands: %v", err)
		}
		if err := blit.EncodeCommands(); err == nil {
			t.Error("second EncodeCommands succeeded")
		}
		if want := 1; coherent && len(cmd.readbacks) != want {
			t.Errorf("coherent readbacks = %d, want %d", len(cmd.readbacks), want)
		}
		if err := c.EnqueueCommandBuffer(cmd); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		waitIdle(t, c)
		if err := dst.Invalidate(rendercore.WholeRange); err != nil {
			t.Errorf("Invalidate: %v", err)
		}
		if len(dst.Contents()) != int(size) {
			t.Errorf("contents length = %d", len(dst.Contents()))
		}
		dst.Release()
		tex.Release()
	}
}
