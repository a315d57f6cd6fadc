package rendercore

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// PipelineDescriptor describes a render pipeline built from registered
// shader functions.
type PipelineDescriptor struct {
	Label            string
	VertexFunction   ShaderFunction
	FragmentFunction ShaderFunction
	VertexLayouts    []gputypes.VertexBufferLayout
	ColorFormat      gputypes.TextureFormat

	// DepthStencilFormat is TextureFormatUndefined for pipelines without
	// a depth/stencil attachment.
	DepthStencilFormat gputypes.TextureFormat

	SampleCount uint32
}

// Validate checks the descriptor against backend.
func (d PipelineDescriptor) Validate(backend BackendType) error {
	if d.VertexFunction == nil || d.FragmentFunction == nil {
		return fmt.Errorf("%w: pipeline %q needs vertex and fragment functions", ErrInvalidDescriptor, d.Label)
	}
	if d.VertexFunction.Stage() != ShaderStageVertex {
		return fmt.Errorf("%w: pipeline %q vertex function is a %s shader", ErrInvalidDescriptor, d.Label, d.VertexFunction.Stage())
	}
	if d.FragmentFunction.Stage() != ShaderStageFragment {
		return fmt.Errorf("%w: pipeline %q fragment function is a %s shader", ErrInvalidDescriptor, d.Label, d.FragmentFunction.Stage())
	}
	if d.VertexFunction.Backend() != backend || d.FragmentFunction.Backend() != backend {
		panic(fmt.Sprintf("rendercore: pipeline %q mixes shader functions from another backend", d.Label))
	}
	if d.ColorFormat == gputypes.TextureFormatUndefined {
		return fmt.Errorf("%w: pipeline %q has no color format", ErrInvalidDescriptor, d.Label)
	}
	return nil
}
