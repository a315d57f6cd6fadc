package halgpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendercore"
	"github.com/gogpu/wgpu/hal"
)

// Pipeline is a native render pipeline with its layout.
type Pipeline struct {
	dev      *Device
	label    string
	layout   hal.PipelineLayout
	native   hal.RenderPipeline
	released atomic.Bool
	once     sync.Once
}

// Label returns the debug label.
func (p *Pipeline) Label() string { return p.label }

// Backend returns the backend the pipeline was built for.
func (p *Pipeline) Backend() rendercore.BackendType { return p.dev.backend }

// IsValid reports whether the pipeline can still be drawn with.
func (p *Pipeline) IsValid() bool { return !p.released.Load() }

func (p *Pipeline) destroy() {
	p.once.Do(func() {
		p.released.Store(true)
		if p.dev.Closed() {
			return
		}
		p.dev.device.DestroyRenderPipeline(p.native)
		p.dev.device.DestroyPipelineLayout(p.layout)
	})
}

func hasStencil(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatDepth24PlusStencil8
}

// createPipeline builds a render pipeline with premultiplied alpha
// blending and no bind groups.
func createPipeline(dev *Device, desc rendercore.PipelineDescriptor) (*Pipeline, error) {
	if err := desc.Validate(dev.backend); err != nil {
		return nil, err
	}
	vs := shaderFrom(desc.VertexFunction)
	fs := shaderFrom(desc.FragmentFunction)

	layout, err := dev.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: desc.Label + "_layout",
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout %q: %w", desc.Label, err)
	}

	samples := desc.SampleCount
	if samples == 0 {
		samples = 1
	}
	premul := gputypes.BlendStatePremultiplied()
	pd := &hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     vs.module,
			EntryPoint: vs.name,
			Buffers:    desc.VertexLayouts,
		},
		Fragment: &hal.FragmentState{
			Module:     fs.module,
			EntryPoint: fs.name,
			Targets: []gputypes.ColorTargetState{{
				Format:    desc.ColorFormat,
				Blend:     &premul,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: samples,
			Mask:  0xFFFFFFFF,
		},
	}
	if desc.DepthStencilFormat != gputypes.TextureFormatUndefined {
		keep := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
		ds := &hal.DepthStencilState{
			Format:            desc.DepthStencilFormat,
			DepthWriteEnabled: false,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront:      keep,
			StencilBack:       keep,
		}
		if hasStencil(desc.DepthStencilFormat) {
			ds.StencilReadMask = 0xFF
			ds.StencilWriteMask = 0xFF
		}
		pd.DepthStencil = ds
	}

	native, err := dev.device.CreateRenderPipeline(pd)
	if err != nil {
		dev.device.DestroyPipelineLayout(layout)
		return nil, fmt.Errorf("create render pipeline %q: %w", desc.Label, err)
	}
	return &Pipeline{dev: dev, label: desc.Label, layout: layout, native: native}, nil
}

func pipelineFrom(p rendercore.Pipeline) *Pipeline {
	hp, ok := p.(*Pipeline)
	if !ok {
		panic(fmt.Sprintf("halgpu: pipeline %q was not created by halgpu", p.Label()))
	}
	return hp
}
