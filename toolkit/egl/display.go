package egl

import (
	"fmt"
	"sync"

	"github.com/gogpu/rendercore"
)

// minVersion is the oldest EGL this package drives.
var minVersion = rendercore.Version{Major: 1, Minor: 4}

// Display is an initialized EGL display bound to the OpenGL ES API.
type Display struct {
	api     API
	handle  uintptr
	version rendercore.Version

	closeOnce sync.Once
}

// OpenDisplay gets and initializes the display for a native display
// handle (zero selects EGL_DEFAULT_DISPLAY).
func OpenDisplay(api API, native uintptr) (*Display, error) {
	handle := api.GetDisplay(native)
	if handle == 0 {
		return nil, ErrNoDisplay
	}
	major, minor, ok := api.Initialize(handle)
	if !ok {
		return nil, lastError(api, "eglInitialize")
	}
	version, ok := rendercore.VersionFromSlice([]uint{uint(major), uint(minor)})
	if !ok || !version.IsAtLeast(minVersion) {
		api.Terminate(handle)
		return nil, fmt.Errorf("%w: have %s", ErrVersion, version)
	}
	if !api.BindAPI(eglOpenGLESAPI) {
		err := lastError(api, "eglBindAPI")
		api.Terminate(handle)
		return nil, err
	}
	rendercore.Logger().Info("egl: display initialized", "version", version)
	return &Display{api: api, handle: handle, version: version}, nil
}

// Version returns the EGL version reported by eglInitialize.
func (d *Display) Version() rendercore.Version { return d.version }

// Handle returns the native display.
func (d *Display) Handle() uintptr { return d.handle }

// Close terminates the display. Objects created from it must be closed
// first.
func (d *Display) Close() {
	d.closeOnce.Do(func() {
		if !d.api.Terminate(d.handle) {
			rendercore.Logger().Warn("egl: terminate failed", "error", lastError(d.api, "eglTerminate"))
		}
	})
}

// ChooseConfig returns the first config matching desc.
func (d *Display) ChooseConfig(desc ConfigDescriptor) (*Config, error) {
	handle, ok := d.api.ChooseConfig(d.handle, desc.attribs())
	if !ok || handle == 0 {
		return nil, fmt.Errorf("%w: %+v", ErrNoConfig, desc)
	}
	return &Config{desc: desc, handle: handle}, nil
}

// CreateContext creates a context for config sharing objects with share,
// which may be nil.
func (d *Display) CreateContext(config *Config, share *Context) (*Context, error) {
	if !config.IsValid() {
		return nil, ErrInvalidConfig
	}
	var shareHandle uintptr
	if share != nil {
		shareHandle = share.handle
	}
	attribs := []int32{eglContextMajorVersion, int32(config.desc.API.major()), eglNone}
	handle := d.api.CreateContext(d.handle, config.handle, shareHandle, attribs)
	if handle == 0 {
		err := lastError(d.api, "eglCreateContext")
		rendercore.Logger().Warn("egl: context creation failed", "error", err)
		return nil, err
	}
	return &Context{display: d, config: config, handle: handle}, nil
}

// CreateWindowSurface creates an on-screen surface for a native window.
func (d *Display) CreateWindowSurface(config *Config, window uintptr) (*Surface, error) {
	if !config.IsValid() {
		return nil, ErrInvalidConfig
	}
	handle := d.api.CreateWindowSurface(d.handle, config.handle, window, []int32{eglNone})
	if handle == 0 {
		err := lastError(d.api, "eglCreateWindowSurface")
		rendercore.Logger().Warn("egl: window surface creation failed", "error", err)
		return nil, err
	}
	return &Surface{display: d, handle: handle}, nil
}

// CreatePbufferSurface creates an off-screen surface of the given size.
func (d *Display) CreatePbufferSurface(config *Config, size rendercore.ISize) (*Surface, error) {
	if !config.IsValid() {
		return nil, ErrInvalidConfig
	}
	attribs := []int32{eglWidth, int32(size.Width), eglHeight, int32(size.Height), eglNone}
	handle := d.api.CreatePbufferSurface(d.handle, config.handle, attribs)
	if handle == 0 {
		err := lastError(d.api, "eglCreatePbufferSurface")
		rendercore.Logger().Warn("egl: pbuffer creation failed", "size", size, "error", err)
		return nil, err
	}
	return &Surface{display: d, handle: handle}, nil
}
