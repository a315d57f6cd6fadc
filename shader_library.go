package rendercore

import (
	"errors"
	"fmt"
	"sync"
)

// ShaderStage is the pipeline stage a function runs in.
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
	ShaderStageCompute
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	case ShaderStageCompute:
		return "compute"
	default:
		return fmt.Sprintf("ShaderStage(%d)", int(s))
	}
}

// ShaderFunction is a backend shader module bound to one entry point.
type ShaderFunction interface {
	Name() string
	Stage() ShaderStage
	Backend() BackendType
}

// ShaderFunctionFactory turns an opaque bytecode blob into a backend
// shader function. The blob format belongs to the offline compiler.
type ShaderFunctionFactory func(name string, stage ShaderStage, code []byte) (ShaderFunction, error)

// ErrNoShaderFactory is returned by libraries that cannot create functions.
var ErrNoShaderFactory = errors.New("rendercore: shader library has no backend")

type shaderKey struct {
	name  string
	stage ShaderStage
}

// ShaderLibrary maps (name, stage) to shader functions.
//
// ShaderLibrary is safe for concurrent use.
type ShaderLibrary struct {
	mu      sync.RWMutex
	funcs   map[shaderKey]ShaderFunction
	factory ShaderFunctionFactory
}

// NewShaderLibrary returns an empty library that builds functions with factory.
func NewShaderLibrary(factory ShaderFunctionFactory) *ShaderLibrary {
	return &ShaderLibrary{funcs: make(map[shaderKey]ShaderFunction), factory: factory}
}

// IsValid reports whether the library can register functions.
func (l *ShaderLibrary) IsValid() bool {
	return l != nil && l.factory != nil
}

// RegisterFunction builds a function from code and stores it under
// (name, stage), replacing any previous one. callback, if non-nil, receives
// the outcome once, after the library lock is released.
func (l *ShaderLibrary) RegisterFunction(name string, stage ShaderStage, code []byte, callback func(ok bool)) {
	err := l.register(name, stage, code)
	if err != nil {
		Logger().Warn("rendercore: shader registration failed",
			"name", name, "stage", stage, "error", err)
	}
	if callback != nil {
		callback(err == nil)
	}
}

func (l *ShaderLibrary) register(name string, stage ShaderStage, code []byte) error {
	if !l.IsValid() {
		return ErrNoShaderFactory
	}
	if name == "" || len(code) == 0 {
		return fmt.Errorf("%w: shader %q has no code", ErrInvalidDescriptor, name)
	}
	fn, err := l.factory(name, stage, code)
	if err != nil {
		return err
	}
	l.mu.Lock()
	old := l.funcs[shaderKey{name, stage}]
	l.funcs[shaderKey{name, stage}] = fn
	l.mu.Unlock()
	destroyShaderFunction(old)
	return nil
}

// GetFunction returns the function registered under (name, stage), or nil.
func (l *ShaderLibrary) GetFunction(name string, stage ShaderStage) ShaderFunction {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.funcs[shaderKey{name, stage}]
}

// UnregisterFunction removes and destroys the function under (name, stage).
func (l *ShaderLibrary) UnregisterFunction(name string, stage ShaderStage) {
	l.mu.Lock()
	fn := l.funcs[shaderKey{name, stage}]
	delete(l.funcs, shaderKey{name, stage})
	l.mu.Unlock()
	destroyShaderFunction(fn)
}

// Len returns the number of registered functions.
func (l *ShaderLibrary) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.funcs)
}

// Close destroys every registered function.
func (l *ShaderLibrary) Close() {
	l.mu.Lock()
	funcs := l.funcs
	l.funcs = make(map[shaderKey]ShaderFunction)
	l.mu.Unlock()
	for _, fn := range funcs {
		destroyShaderFunction(fn)
	}
}

func destroyShaderFunction(fn ShaderFunction) {
	if d, ok := fn.(interface{ Destroy() }); ok {
		d.Destroy()
	}
}
