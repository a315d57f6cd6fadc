package halgpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/rendercore"
	"github.com/gogpu/wgpu/hal"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// ErrInvalidShader is returned for code that is neither SPIR-V nor WGSL
// the compiler accepts.
var ErrInvalidShader = errors.New("halgpu: invalid shader code")

// CompileWGSL compiles WGSL source to SPIR-V words.
func CompileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidShader, err)
	}
	return spirvWords(spirvBytes)
}

// spirvWords converts little-endian SPIR-V bytes to words.
func spirvWords(code []byte) ([]uint32, error) {
	if len(code) < 20 || len(code)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a SPIR-V module", ErrInvalidShader, len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("%w: bad SPIR-V magic %#08x", ErrInvalidShader, words[0])
	}
	return words, nil
}

func isSPIRV(code []byte) bool {
	return len(code) >= 4 && binary.LittleEndian.Uint32(code) == spirvMagic
}

// shaderFunction is one entry point of a native shader module.
type shaderFunction struct {
	dev     *Device
	name    string
	stage   rendercore.ShaderStage
	module  hal.ShaderModule
	destroy sync.Once
}

func (f *shaderFunction) Name() string                    { return f.name }
func (f *shaderFunction) Stage() rendercore.ShaderStage   { return f.stage }
func (f *shaderFunction) Backend() rendercore.BackendType { return f.dev.backend }

// Destroy frees the shader module. The shader library calls it when the
// function is replaced or unregistered.
func (f *shaderFunction) Destroy() {
	f.destroy.Do(func() {
		if !f.dev.Closed() {
			f.dev.device.DestroyShaderModule(f.module)
		}
	})
}

// ShaderFactory returns a factory building shader functions on dev. The
// code is SPIR-V when it begins with the SPIR-V magic and WGSL otherwise.
// The function name is used as the entry point.
func ShaderFactory(dev *Device) rendercore.ShaderFunctionFactory {
	return func(name string, stage rendercore.ShaderStage, code []byte) (rendercore.ShaderFunction, error) {
		if name == "" {
			return nil, fmt.Errorf("%w: empty function name", ErrInvalidShader)
		}
		var (
			words []uint32
			err   error
		)
		if isSPIRV(code) {
			words, err = spirvWords(code)
		} else {
			words, err = CompileWGSL(string(code))
		}
		if err != nil {
			return nil, err
		}
		module, err := dev.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  name,
			Source: hal.ShaderSource{SPIRV: words},
		})
		if err != nil {
			return nil, fmt.Errorf("create shader module %q: %w", name, err)
		}
		return &shaderFunction{dev: dev, name: name, stage: stage, module: module}, nil
	}
}

func shaderFrom(fn rendercore.ShaderFunction) *shaderFunction {
	sf, ok := fn.(*shaderFunction)
	if !ok {
		panic(fmt.Sprintf("halgpu: shader function %q was not created by halgpu", fn.Name()))
	}
	return sf
}
