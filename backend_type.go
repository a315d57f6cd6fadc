package rendercore

import "fmt"

// BackendType identifies the native graphics API behind a Context.
type BackendType int

const (
	// BackendGLES is OpenGL ES driven through EGL.
	BackendGLES BackendType = iota
	// BackendVulkan is Vulkan.
	BackendVulkan
	// BackendMetal is Metal on Apple platforms.
	BackendMetal
)

// String returns the backend name.
func (b BackendType) String() string {
	switch b {
	case BackendGLES:
		return "gles"
	case BackendVulkan:
		return "vulkan"
	case BackendMetal:
		return "metal"
	default:
		return fmt.Sprintf("BackendType(%d)", int(b))
	}
}

// ParseBackendType is the inverse of BackendType.String.
func ParseBackendType(s string) (BackendType, error) {
	switch s {
	case "gles", "opengles", "gl":
		return BackendGLES, nil
	case "vulkan", "vk":
		return BackendVulkan, nil
	case "metal", "mtl":
		return BackendMetal, nil
	}
	return 0, fmt.Errorf("rendercore: unknown backend %q", s)
}
