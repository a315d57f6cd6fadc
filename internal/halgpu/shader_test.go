package halgpu

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gogpu/rendercore"
)

func TestSpirvWords(t *testing.T) {
	code := make([]byte, 20)
	binary.LittleEndian.PutUint32(code, spirvMagic)
	binary.LittleEndian.PutUint32(code[4:], 0x00010000)
	words, err := spirvWords(code)
	if err != nil {
		t.Fatalf("spirvWords: %v", err)
	}
	if len(words) != 5 || words[0] != spirvMagic || words[1] != 0x00010000 {
		t.Errorf("words = %#x", words)
	}
}

func TestSpirvWordsRejects(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"short", make([]byte, 8)},
		{"unaligned", make([]byte, 21)},
		{"magic", make([]byte, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := spirvWords(tt.code); !errors.Is(err, ErrInvalidShader) {
				t.Errorf("err = %v, want ErrInvalidShader", err)
			}
		})
	}
}

func TestCompileWGSL(t *testing.T) {
	words, err := CompileWGSL(testShader)
	if err != nil {
		t.Fatalf("CompileWGSL: %v", err)
	}
	if words[0] != spirvMagic {
		t.Errorf("first word = %#x, want SPIR-V magic", words[0])
	}
	if _, err := CompileWGSL("fn broken( {"); !errors.Is(err, ErrInvalidShader) {
		t.Errorf("broken source err = %v", err)
	}
}

func TestShaderLibraryRegistration(t *testing.T) {
	c := createNoopContext(t, Config{})
	lib := c.ShaderLibrary()

	vs, fs := registerTestShaders(t, c)
	if vs == nil || fs == nil {
		t.Fatal("registered functions not found")
	}
	if vs.Backend() != rendercore.BackendVulkan || vs.Stage() != rendercore.ShaderStageVertex {
		t.Errorf("vs = %s/%s", vs.Backend(), vs.Stage())
	}

	ok := true
	lib.RegisterFunction("bad", rendercore.ShaderStageFragment, []byte("not wgsl at all"), func(r bool) { ok = r })
	if ok {
		t.Error("invalid shader registered")
	}
	if lib.GetFunction("bad", rendercore.ShaderStageFragment) != nil {
		t.Error("failed registration left a function behind")
	}

	// Registering precompiled SPIR-V replaces the WGSL function.
	words, err := CompileWGSL(testShader)
	if err != nil {
		t.Fatalf("CompileWGSL: %v", err)
	}
	spirv := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(spirv[i*4:], w)
	}
	lib.RegisterFunction("vs_main", rendercore.ShaderStageVertex, spirv, func(r bool) { ok = r })
	if !ok {
		t.Fatal("SPIR-V registration failed")
	}
	if lib.GetFunction("vs_main", rendercore.ShaderStageVertex) == vs {
		t.Error("function was not replaced")
	}
	if lib.Len() != 2 {
		t.Errorf("Len = %d, want 2", lib.Len())
	}
}
