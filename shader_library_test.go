package rendercore

import (
	"errors"
	"sync"
	"testing"
)

type fakeShaderFunction struct {
	name      string
	stage     ShaderStage
	destroyed *int
}

func (f *fakeShaderFunction) Name() string         { return f.name }
func (f *fakeShaderFunction) Stage() ShaderStage   { return f.stage }
func (f *fakeShaderFunction) Backend() BackendType { return BackendVulkan }
func (f *fakeShaderFunction) Destroy()             { *f.destroyed++ }

func newFakeLibrary(destroyed *int) *ShaderLibrary {
	return NewShaderLibrary(func(name string, stage ShaderStage, code []byte) (ShaderFunction, error) {
		if string(code) == "bad" {
			return nil, errors.New("bad bytecode")
		}
		return &fakeShaderFunction{name: name, stage: stage, destroyed: destroyed}, nil
	})
}

func TestShaderLibraryRegisterAndGet(t *testing.T) {
	var destroyed int
	lib := newFakeLibrary(&destroyed)

	var results []bool
	cb := func(ok bool) { results = append(results, ok) }

	lib.RegisterFunction("main", ShaderStageVertex, []byte("code"), cb)
	lib.RegisterFunction("main", ShaderStageFragment, []byte("code"), cb)
	lib.RegisterFunction("broken", ShaderStageVertex, []byte("bad"), cb)
	lib.RegisterFunction("empty", ShaderStageVertex, nil, cb)

	want := []bool{true, true, false, false}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("callback %d = %v, want %v", i, results[i], want[i])
		}
	}

	if fn := lib.GetFunction("main", ShaderStageVertex); fn == nil || fn.Stage() != ShaderStageVertex {
		t.Error("vertex main not found")
	}
	if fn := lib.GetFunction("main", ShaderStageCompute); fn != nil {
		t.Error("lookup is keyed by stage; compute main should be missing")
	}
	if fn := lib.GetFunction("broken", ShaderStageVertex); fn != nil {
		t.Error("failed registration should not store a function")
	}
	if lib.Len() != 2 {
		t.Errorf("Len() = %d, want 2", lib.Len())
	}

	// Re-registering replaces and destroys the old function.
	lib.RegisterFunction("main", ShaderStageVertex, []byte("v2"), nil)
	if destroyed != 1 {
		t.Errorf("destroyed = %d after replace, want 1", destroyed)
	}

	lib.UnregisterFunction("main", ShaderStageVertex)
	if lib.GetFunction("main", ShaderStageVertex) != nil {
		t.Error("function still present after unregister")
	}
	lib.UnregisterFunction("missing", ShaderStageVertex)

	lib.Close()
	if lib.Len() != 0 || destroyed != 3 {
		t.Errorf("after Close: Len=%d destroyed=%d, want 0 and 3", lib.Len(), destroyed)
	}
}

func TestShaderLibraryWithoutFactory(t *testing.T) {
	lib := NewShaderLibrary(nil)
	if lib.IsValid() {
		t.Error("library without factory reports valid")
	}
	called := false
	lib.RegisterFunction("main", ShaderStageVertex, []byte{1}, func(ok bool) {
		called = true
		if ok {
			t.Error("registration should fail")
		}
	})
	if !called {
		t.Error("callback not invoked")
	}
}

func TestShaderLibraryCallbackOutsideLock(t *testing.T) {
	var destroyed int
	lib := newFakeLibrary(&destroyed)
	var wg sync.WaitGroup
	wg.Add(1)
	lib.RegisterFunction("main", ShaderStageVertex, []byte("x"), func(bool) {
		defer wg.Done()
		// Must not deadlock.
		_ = lib.GetFunction("main", ShaderStageVertex)
	})
	wg.Wait()
}
