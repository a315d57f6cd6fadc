package egl

// ClientAPI is the OpenGL ES level a config and its contexts support.
type ClientAPI int

const (
	OpenGLES2 ClientAPI = iota
	OpenGLES3
)

func (a ClientAPI) major() int {
	if a == OpenGLES3 {
		return 3
	}
	return 2
}

func (a ClientAPI) renderableBit() int32 {
	if a == OpenGLES3 {
		return eglOpenGLES3Bit
	}
	return eglOpenGLES2Bit
}

// ColorFormat is the channel layout of a config's color buffer.
type ColorFormat int

const (
	ColorFormatRGBA8888 ColorFormat = iota
	ColorFormatRGB565
)

// SurfaceType selects which surfaces a config must support.
type SurfaceType int

const (
	SurfaceTypeWindow SurfaceType = iota
	SurfaceTypePbuffer
)

// ConfigDescriptor describes the framebuffer a config must provide.
type ConfigDescriptor struct {
	API         ClientAPI
	ColorFormat ColorFormat
	DepthBits   int32
	StencilBits int32
	Samples     int32
	SurfaceType SurfaceType
}

func (d ConfigDescriptor) attribs() []int32 {
	a := []int32{eglRenderableType, d.API.renderableBit()}
	if d.SurfaceType == SurfaceTypePbuffer {
		a = append(a, eglSurfaceType, eglPbufferBit)
	} else {
		a = append(a, eglSurfaceType, eglWindowBit)
	}
	switch d.ColorFormat {
	case ColorFormatRGB565:
		a = append(a, eglRedSize, 5, eglGreenSize, 6, eglBlueSize, 5)
	default:
		a = append(a, eglRedSize, 8, eglGreenSize, 8, eglBlueSize, 8, eglAlphaSize, 8)
	}
	a = append(a, eglDepthSize, d.DepthBits, eglStencilSize, d.StencilBits)
	if d.Samples > 1 {
		a = append(a, eglSampleBuffers, 1, eglSamples, d.Samples)
	}
	return append(a, eglNone)
}

// Config is a chosen framebuffer configuration.
type Config struct {
	desc   ConfigDescriptor
	handle uintptr
}

// IsValid reports whether the config has a native handle.
func (c *Config) IsValid() bool { return c != nil && c.handle != 0 }

// Descriptor returns the descriptor the config was chosen for.
func (c *Config) Descriptor() ConfigDescriptor { return c.desc }

// Handle returns the native config.
func (c *Config) Handle() uintptr { return c.handle }
