package rendercore

import (
	"fmt"
	"sync"
)

// CommandBufferStatus is the state a completion callback reports.
type CommandBufferStatus int

const (
	// CommandBufferPending buffers are still being recorded.
	CommandBufferPending CommandBufferStatus = iota
	// CommandBufferSubmitted buffers were accepted by a queue.
	CommandBufferSubmitted
	// CommandBufferCompleted buffers have been retired by the GPU.
	CommandBufferCompleted
	// CommandBufferError buffers failed to encode or execute.
	CommandBufferError
)

func (s CommandBufferStatus) String() string {
	switch s {
	case CommandBufferPending:
		return "pending"
	case CommandBufferSubmitted:
		return "submitted"
	case CommandBufferCompleted:
		return "completed"
	case CommandBufferError:
		return "error"
	default:
		return fmt.Sprintf("CommandBufferStatus(%d)", int(s))
	}
}

// CommandBuffer is a recorded batch of GPU work submitted as a unit.
// A command buffer can be submitted once.
type CommandBuffer interface {
	IsValid() bool
	Label() string
	SetLabel(label string)
	Status() CommandBufferStatus

	// CreateRenderPass starts a render pass into target. The pass must be
	// encoded with EncodeCommands before the buffer is submitted.
	CreateRenderPass(target *RenderTarget) (RenderPass, error)

	// CreateBlitPass starts a transfer pass.
	CreateBlitPass() (BlitPass, error)
}

// Pipeline is a compiled render pipeline.
type Pipeline interface {
	Label() string
	Backend() BackendType
	IsValid() bool
}

// Command is one recorded draw. Recording does not take the caller's
// reference on VertexBuffer; backends retain what they encode.
type Command struct {
	Label         string
	Pipeline      Pipeline
	VertexBuffer  BufferView
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
}

// Instances returns InstanceCount with zero treated as one.
func (c Command) Instances() uint32 {
	if c.InstanceCount == 0 {
		return 1
	}
	return c.InstanceCount
}

// RenderPass records draws into a render target.
type RenderPass interface {
	RenderTarget() *RenderTarget
	SetLabel(label string)
	AddCommand(cmd Command) error
	EncodeCommands() error
}

// BlitPass records transfers between buffers and textures.
type BlitPass interface {
	SetLabel(label string)
	CopyBufferToBuffer(src, dst BufferView) error
	CopyTextureToBuffer(src *Texture, dst BufferView) error
	EncodeCommands() error
}

// RenderPassBase holds the backend-neutral half of a render pass: the
// target, the label and the validated command list. Backends embed it and
// implement EncodeCommands.
type RenderPassBase struct {
	mu       sync.Mutex
	backend  BackendType
	target   *RenderTarget
	label    string
	commands []Command
	encoded  bool
}

// NewRenderPassBase validates target for backend.
func NewRenderPassBase(backend BackendType, target *RenderTarget) (*RenderPassBase, error) {
	if target == nil || !target.IsValid() {
		return nil, fmt.Errorf("%w: render target has no valid color attachment 0", ErrInvalidDescriptor)
	}
	for _, tex := range target.Textures() {
		tex.MustBelongTo(backend)
	}
	return &RenderPassBase{backend: backend, target: target}, nil
}

// RenderTarget returns the pass's target.
func (p *RenderPassBase) RenderTarget() *RenderTarget { return p.target }

// SetLabel sets the debug label.
func (p *RenderPassBase) SetLabel(label string) {
	p.mu.Lock()
	p.label = label
	p.mu.Unlock()
}

// Label returns the debug label.
func (p *RenderPassBase) Label() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.label
}

// AddCommand validates and records cmd.
func (p *RenderPassBase) AddCommand(cmd Command) error {
	if cmd.Pipeline == nil || !cmd.Pipeline.IsValid() {
		return fmt.Errorf("%w: draw %q has no valid pipeline", ErrInvalidCommand, cmd.Label)
	}
	if cmd.Pipeline.Backend() != p.backend {
		panic(fmt.Sprintf("rendercore: %s pipeline recorded into %s pass", cmd.Pipeline.Backend(), p.backend))
	}
	if cmd.VertexCount == 0 {
		return fmt.Errorf("%w: draw %q has zero vertices", ErrInvalidCommand, cmd.Label)
	}
	if !cmd.VertexBuffer.IsValid() {
		return fmt.Errorf("%w: draw %q has no valid vertex buffer", ErrInvalidCommand, cmd.Label)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.encoded {
		panic("rendercore: AddCommand after EncodeCommands")
	}
	p.commands = append(p.commands, cmd)
	return nil
}

// TakeCommands marks the pass encoded and returns the recorded commands.
// Backends call it once from EncodeCommands.
func (p *RenderPassBase) TakeCommands() ([]Command, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.encoded {
		return nil, fmt.Errorf("rendercore: render pass %q already encoded", p.label)
	}
	p.encoded = true
	cmds := p.commands
	p.commands = nil
	return cmds, nil
}
