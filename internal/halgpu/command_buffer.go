package halgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendercore"
	"github.com/gogpu/wgpu/hal"
)

// CommandBuffer records passes into one HAL command encoder.
//
// Passes are written to the encoder in the order their EncodeCommands is
// called. Every buffer and texture a pass references is retained from
// encode time until the queue retires the buffer.
type CommandBuffer struct {
	dev      *Device
	coherent bool

	mu        sync.Mutex
	label     string
	encoder   hal.CommandEncoder
	encoding  bool
	valid     bool
	status    rendercore.CommandBufferStatus
	buffers   []*rendercore.DeviceBuffer
	textures  []*rendercore.Texture
	readbacks []pendingReadback
}

type pendingReadback struct {
	buf *bufferImpl
	r   rendercore.Range
}

func newCommandBuffer(dev *Device, coherent bool, label string) (*CommandBuffer, error) {
	enc, err := dev.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	return &CommandBuffer{dev: dev, coherent: coherent, label: label, encoder: enc, valid: true}, nil
}

// IsValid reports whether the buffer can still be recorded or submitted.
func (c *CommandBuffer) IsValid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid
}

// Label returns the debug label.
func (c *CommandBuffer) Label() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.label
}

// SetLabel sets the debug label used for the encoding.
func (c *CommandBuffer) SetLabel(label string) {
	c.mu.Lock()
	c.label = label
	c.mu.Unlock()
}

// Status returns the buffer's lifecycle state.
func (c *CommandBuffer) Status() rendercore.CommandBufferStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// CreateRenderPass starts a render pass into target.
func (c *CommandBuffer) CreateRenderPass(target *rendercore.RenderTarget) (rendercore.RenderPass, error) {
	if err := c.recordable(); err != nil {
		return nil, err
	}
	base, err := rendercore.NewRenderPassBase(c.dev.backend, target)
	if err != nil {
		return nil, err
	}
	return &renderPass{RenderPassBase: base, cmd: c}, nil
}

// CreateBlitPass starts a transfer pass.
func (c *CommandBuffer) CreateBlitPass() (rendercore.BlitPass, error) {
	if err := c.recordable(); err != nil {
		return nil, err
	}
	return &blitPass{cmd: c}, nil
}

// Discard drops the recording and releases everything it retained.
// It does nothing once the buffer has been submitted.
func (c *CommandBuffer) Discard() {
	c.mu.Lock()
	if c.status != rendercore.CommandBufferPending || !c.valid {
		c.mu.Unlock()
		return
	}
	if c.encoding {
		c.encoder.DiscardEncoding()
	}
	c.encoder = nil
	c.valid = false
	c.mu.Unlock()
	c.finish(rendercore.CommandBufferError)
}

func (c *CommandBuffer) recordable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return rendercore.ErrInvalidCommandBuffer
	}
	if c.status != rendercore.CommandBufferPending {
		return rendercore.ErrCommandBufferSubmitted
	}
	return nil
}

// beginLocked starts encoding on first use. Callers hold c.mu.
func (c *CommandBuffer) beginLocked() error {
	if c.encoding {
		return nil
	}
	if err := c.encoder.BeginEncoding(c.label); err != nil {
		c.valid = false
		return fmt.Errorf("begin encoding: %w", err)
	}
	c.encoding = true
	return nil
}

// end finishes encoding and returns the native command buffer.
func (c *CommandBuffer) end() (hal.CommandBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.beginLocked(); err != nil {
		return nil, err
	}
	native, err := c.encoder.EndEncoding()
	c.encoder = nil
	c.encoding = false
	if err != nil {
		c.valid = false
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	return native, nil
}

func (c *CommandBuffer) markSubmitted() {
	c.mu.Lock()
	c.status = rendercore.CommandBufferSubmitted
	c.mu.Unlock()
}

// finish records the final status, refreshes coherent readbacks and
// releases every retained resource.
func (c *CommandBuffer) finish(status rendercore.CommandBufferStatus) {
	c.mu.Lock()
	c.status = status
	bufs, texs, rbs := c.buffers, c.textures, c.readbacks
	c.buffers, c.textures, c.readbacks = nil, nil, nil
	c.mu.Unlock()

	if status == rendercore.CommandBufferCompleted && !c.dev.Closed() {
		for _, rb := range rbs {
			if err := rb.buf.readback(rb.r); err != nil {
				rendercore.Logger().Warn("halgpu: coherent readback failed", "error", err)
			}
		}
	}
	for _, b := range bufs {
		b.Release()
	}
	for _, t := range texs {
		t.Release()
	}
}

func (c *CommandBuffer) retainTextureLocked(t *rendercore.Texture) *textureImpl {
	impl := textureFrom(t, c.dev.backend)
	c.textures = append(c.textures, t.Retain())
	return impl
}

func (c *CommandBuffer) retainBufferLocked(b *rendercore.DeviceBuffer) *bufferImpl {
	impl := bufferFrom(b, c.dev.backend)
	c.buffers = append(c.buffers, b.Retain())
	return impl
}

func loadOp(a rendercore.LoadAction) gputypes.LoadOp {
	if a == rendercore.LoadActionLoad {
		return gputypes.LoadOpLoad
	}
	return gputypes.LoadOpClear
}

func storeOp(a rendercore.StoreAction) gputypes.StoreOp {
	switch a {
	case rendercore.StoreActionStore, rendercore.StoreActionStoreAndMultisampleResolve:
		return gputypes.StoreOpStore
	default:
		return gputypes.StoreOpDiscard
	}
}

// renderPass encodes a rendercore render pass.
type renderPass struct {
	*rendercore.RenderPassBase
	cmd *CommandBuffer
}

func (p *renderPass) EncodeCommands() error {
	cmds, err := p.TakeCommands()
	if err != nil {
		return err
	}
	return p.cmd.encodeRenderPass(p.Label(), p.RenderTarget(), cmds)
}

func (c *CommandBuffer) encodeRenderPass(label string, target *rendercore.RenderTarget, cmds []rendercore.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || c.status != rendercore.CommandBufferPending {
		return rendercore.ErrInvalidCommandBuffer
	}
	if err := c.beginLocked(); err != nil {
		return err
	}

	desc := &hal.RenderPassDescriptor{Label: label}
	for _, i := range target.ColorAttachmentIndices() {
		a, _ := target.ColorAttachment(i)
		att := hal.RenderPassColorAttachment{
			View:    c.retainTextureLocked(a.Texture).View(),
			LoadOp:  loadOp(a.LoadAction),
			StoreOp: storeOp(a.StoreAction),
			ClearValue: gputypes.Color{
				R: a.ClearColor.R, G: a.ClearColor.G, B: a.ClearColor.B, A: a.ClearColor.A,
			},
		}
		if a.ResolveTexture != nil {
			att.ResolveTarget = c.retainTextureLocked(a.ResolveTexture).View()
		}
		desc.ColorAttachments = append(desc.ColorAttachments, att)
	}

	depth, hasDepth := target.DepthAttachment()
	stencil, hasStencil := target.StencilAttachment()
	if hasDepth || hasStencil {
		ds := &hal.RenderPassDepthStencilAttachment{
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		}
		if hasDepth {
			ds.View = c.retainTextureLocked(depth.Texture).View()
			ds.DepthLoadOp = loadOp(depth.LoadAction)
			ds.DepthStoreOp = storeOp(depth.StoreAction)
			ds.DepthClearValue = depth.ClearDepth
		}
		if hasStencil {
			if !hasDepth || stencil.Texture != depth.Texture {
				ds.View = c.retainTextureLocked(stencil.Texture).View()
			}
			ds.StencilLoadOp = loadOp(stencil.LoadAction)
			ds.StencilStoreOp = storeOp(stencil.StoreAction)
			ds.StencilClearValue = stencil.ClearStencil
		}
		desc.DepthStencilAttachment = ds
	}

	rp := c.encoder.BeginRenderPass(desc)
	for _, cmd := range cmds {
		pipe := pipelineFrom(cmd.Pipeline)
		vb := c.retainBufferLocked(cmd.VertexBuffer.Buffer)
		rp.SetPipeline(pipe.native)
		rp.SetVertexBuffer(0, vb.Native(), cmd.VertexBuffer.Range.Offset)
		rp.Draw(cmd.VertexCount, cmd.Instances(), cmd.FirstVertex, 0)
	}
	rp.End()

	rendercore.Logger().Debug("halgpu: render pass encoded",
		"label", label, "draws", len(cmds), "size", target.Size())
	return nil
}

// blitPass records transfers and writes them to the encoder on EncodeCommands.
type blitPass struct {
	cmd     *CommandBuffer
	label   string
	ops     []blitOp
	encoded bool
}

type blitOp struct {
	src     rendercore.BufferView
	srcTex  *rendercore.Texture
	dst     rendercore.BufferView
	texCopy bool
}

func (p *blitPass) SetLabel(label string) { p.label = label }

func aligned4(v uint64) bool { return v%copyAlignment == 0 }

// CopyBufferToBuffer copies src.Range.Length bytes from src into dst.
// Offsets and length must be multiples of 4 and dst must be large enough.
func (p *blitPass) CopyBufferToBuffer(src, dst rendercore.BufferView) error {
	if !src.IsValid() || !dst.IsValid() {
		return fmt.Errorf("%w: blit with invalid buffer view", rendercore.ErrInvalidCommand)
	}
	if src.Range.Length == 0 || dst.Range.Length < src.Range.Length {
		return fmt.Errorf("%w: copy %v into %v", rendercore.ErrInvalidCommand, src.Range, dst.Range)
	}
	if !aligned4(src.Range.Offset) || !aligned4(dst.Range.Offset) || !aligned4(src.Range.Length) {
		return fmt.Errorf("%w: buffer copies must be 4-byte aligned", rendercore.ErrInvalidCommand)
	}
	p.ops = append(p.ops, blitOp{src: src, dst: dst})
	return nil
}

// CopyTextureToBuffer copies the base level of src into dst using the
// padded layout reported by ReadbackLayout.
func (p *blitPass) CopyTextureToBuffer(src *rendercore.Texture, dst rendercore.BufferView) error {
	if !src.IsValid() || !dst.IsValid() {
		return fmt.Errorf("%w: blit with invalid resource", rendercore.ErrInvalidCommand)
	}
	_, size := ReadbackLayout(src.Descriptor())
	if dst.Range.Length < size {
		return fmt.Errorf("%w: texture readback needs %d bytes, view has %d",
			rendercore.ErrInvalidCommand, size, dst.Range.Length)
	}
	if !aligned4(dst.Range.Offset) {
		return fmt.Errorf("%w: readback offset must be 4-byte aligned", rendercore.ErrInvalidCommand)
	}
	p.ops = append(p.ops, blitOp{srcTex: src, dst: dst, texCopy: true})
	return nil
}

func (p *blitPass) EncodeCommands() error {
	if p.encoded {
		return fmt.Errorf("halgpu: blit pass %q already encoded", p.label)
	}
	p.encoded = true
	return p.cmd.encodeBlits(p.label, p.ops)
}

func (c *CommandBuffer) encodeBlits(label string, ops []blitOp) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || c.status != rendercore.CommandBufferPending {
		return rendercore.ErrInvalidCommandBuffer
	}
	if err := c.beginLocked(); err != nil {
		return err
	}

	for _, op := range ops {
		dst := c.retainBufferLocked(op.dst.Buffer)
		if op.texCopy {
			c.encodeTextureCopyLocked(op.srcTex, dst, op.dst.Range.Offset)
		} else {
			src := c.retainBufferLocked(op.src.Buffer)
			c.encoder.CopyBufferToBuffer(src.Native(), dst.Native(), []hal.BufferCopy{{
				SrcOffset: op.src.Range.Offset,
				DstOffset: op.dst.Range.Offset,
				Size:      op.src.Range.Length,
			}})
		}
		if c.coherent && dst.shadow != nil {
			c.readbacks = append(c.readbacks, pendingReadback{buf: dst, r: op.dst.Range})
		}
	}
	rendercore.Logger().Debug("halgpu: blit pass encoded", "label", label, "copies", len(ops))
	return nil
}

func (c *CommandBuffer) encodeTextureCopyLocked(src *rendercore.Texture, dst *bufferImpl, offset uint64) {
	tex := c.retainTextureLocked(src)
	desc := src.Descriptor()
	bytesPerRow, _ := ReadbackLayout(desc)
	renderable := desc.Usage&rendercore.TextureUsageRenderTarget != 0

	// Render attachments must be moved to a copy source layout first.
	if renderable {
		c.encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: tex.Native(),
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
	}
	c.encoder.CopyTextureToBuffer(tex.Native(), dst.Native(), []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: offset, BytesPerRow: bytesPerRow, RowsPerImage: desc.Size.Height},
		TextureBase:  hal.ImageCopyTexture{Texture: tex.Native(), MipLevel: 0},
		Size:         hal.Extent3D{Width: desc.Size.Width, Height: desc.Size.Height, DepthOrArrayLayers: 1},
	}})
	if renderable {
		c.encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: tex.Native(),
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
	}
}
