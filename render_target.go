package rendercore

import "sort"

// LoadAction says what happens to an attachment when a pass begins.
type LoadAction int

const (
	LoadActionDontCare LoadAction = iota
	LoadActionLoad
	LoadActionClear
)

// StoreAction says what happens to an attachment when a pass ends.
type StoreAction int

const (
	StoreActionDontCare StoreAction = iota
	StoreActionStore
	StoreActionMultisampleResolve
	StoreActionStoreAndMultisampleResolve
)

// Color is a linear RGBA color.
type Color struct {
	R, G, B, A float64
}

// ColorAttachment binds a texture as a color output.
type ColorAttachment struct {
	Texture        *Texture
	ResolveTexture *Texture
	LoadAction     LoadAction
	StoreAction    StoreAction
	ClearColor     Color
}

// DepthAttachment binds a texture as the depth output.
type DepthAttachment struct {
	Texture     *Texture
	LoadAction  LoadAction
	StoreAction StoreAction
	ClearDepth  float32
}

// StencilAttachment binds a texture as the stencil output.
type StencilAttachment struct {
	Texture      *Texture
	LoadAction   LoadAction
	StoreAction  StoreAction
	ClearStencil uint32
}

// RenderTarget is the set of attachments a render pass draws into.
// The zero value has no attachments.
type RenderTarget struct {
	colors  map[int]ColorAttachment
	depth   *DepthAttachment
	stencil *StencilAttachment
}

// SetColorAttachment binds a at index, replacing any previous attachment.
func (rt *RenderTarget) SetColorAttachment(a ColorAttachment, index int) *RenderTarget {
	if rt.colors == nil {
		rt.colors = make(map[int]ColorAttachment)
	}
	rt.colors[index] = a
	return rt
}

// SetDepthAttachment binds the depth attachment. A nil texture clears it.
func (rt *RenderTarget) SetDepthAttachment(a DepthAttachment) *RenderTarget {
	if a.Texture == nil {
		rt.depth = nil
		return rt
	}
	rt.depth = &a
	return rt
}

// SetStencilAttachment binds the stencil attachment. A nil texture clears it.
func (rt *RenderTarget) SetStencilAttachment(a StencilAttachment) *RenderTarget {
	if a.Texture == nil {
		rt.stencil = nil
		return rt
	}
	rt.stencil = &a
	return rt
}

// ColorAttachment returns the attachment at index.
func (rt *RenderTarget) ColorAttachment(index int) (ColorAttachment, bool) {
	a, ok := rt.colors[index]
	return a, ok
}

// ColorAttachmentIndices returns the bound indices in ascending order.
func (rt *RenderTarget) ColorAttachmentIndices() []int {
	idx := make([]int, 0, len(rt.colors))
	for i := range rt.colors {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// DepthAttachment returns the depth attachment, if any.
func (rt *RenderTarget) DepthAttachment() (DepthAttachment, bool) {
	if rt.depth == nil {
		return DepthAttachment{}, false
	}
	return *rt.depth, true
}

// StencilAttachment returns the stencil attachment, if any.
func (rt *RenderTarget) StencilAttachment() (StencilAttachment, bool) {
	if rt.stencil == nil {
		return StencilAttachment{}, false
	}
	return *rt.stencil, true
}

// ColorAttachmentSize resolves the extent of the texture bound at index.
func (rt *RenderTarget) ColorAttachmentSize(index int) (ISize, bool) {
	a, ok := rt.colors[index]
	if !ok || !a.Texture.IsValid() {
		return ISize{}, false
	}
	return a.Texture.Size(), true
}

// Size returns the extent of color attachment 0.
func (rt *RenderTarget) Size() ISize {
	s, _ := rt.ColorAttachmentSize(0)
	return s
}

// IsValid reports whether color attachment 0 resolves and every other
// attachment matches its extent.
func (rt *RenderTarget) IsValid() bool {
	size, ok := rt.ColorAttachmentSize(0)
	if !ok {
		return false
	}
	for _, a := range rt.colors {
		if !a.Texture.IsValid() || a.Texture.Size() != size {
			return false
		}
		if a.ResolveTexture != nil && a.ResolveTexture.Size() != size {
			return false
		}
	}
	if rt.depth != nil && rt.depth.Texture.Size() != size {
		return false
	}
	if rt.stencil != nil && rt.stencil.Texture.Size() != size {
		return false
	}
	return true
}

// Textures returns every texture referenced by the target.
func (rt *RenderTarget) Textures() []*Texture {
	var out []*Texture
	for _, i := range rt.ColorAttachmentIndices() {
		a := rt.colors[i]
		out = append(out, a.Texture)
		if a.ResolveTexture != nil {
			out = append(out, a.ResolveTexture)
		}
	}
	if rt.depth != nil {
		out = append(out, rt.depth.Texture)
	}
	if rt.stencil != nil && (rt.depth == nil || rt.stencil.Texture != rt.depth.Texture) {
		out = append(out, rt.stencil.Texture)
	}
	return out
}
