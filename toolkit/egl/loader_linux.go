//go:build linux

package egl

import (
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

var (
	loadOnce sync.Once
	loaded   *nativeAPI
	loadErr  error
)

// nativeAPI calls libEGL through purego.
type nativeAPI struct {
	getDisplay           func(uintptr) uintptr
	initialize           func(uintptr, *int32, *int32) uint32
	terminate            func(uintptr) uint32
	bindAPI              func(uint32) uint32
	chooseConfig         func(uintptr, *int32, *uintptr, int32, *int32) uint32
	createContext        func(uintptr, uintptr, uintptr, *int32) uintptr
	destroyContext       func(uintptr, uintptr) uint32
	createWindowSurface  func(uintptr, uintptr, uintptr, *int32) uintptr
	createPbufferSurface func(uintptr, uintptr, *int32) uintptr
	destroySurface       func(uintptr, uintptr) uint32
	makeCurrent          func(uintptr, uintptr, uintptr, uintptr) uint32
	swapBuffers          func(uintptr, uintptr) uint32
	getError             func() int32
}

// Load opens libEGL.so.1 once and returns its API.
func Load() (API, error) {
	loadOnce.Do(func() {
		lib, err := purego.Dlopen("libEGL.so.1", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			loadErr = fmt.Errorf("%w: %w", ErrUnavailable, err)
			return
		}
		a := &nativeAPI{}
		purego.RegisterLibFunc(&a.getDisplay, lib, "eglGetDisplay")
		purego.RegisterLibFunc(&a.initialize, lib, "eglInitialize")
		purego.RegisterLibFunc(&a.terminate, lib, "eglTerminate")
		purego.RegisterLibFunc(&a.bindAPI, lib, "eglBindAPI")
		purego.RegisterLibFunc(&a.chooseConfig, lib, "eglChooseConfig")
		purego.RegisterLibFunc(&a.createContext, lib, "eglCreateContext")
		purego.RegisterLibFunc(&a.destroyContext, lib, "eglDestroyContext")
		purego.RegisterLibFunc(&a.createWindowSurface, lib, "eglCreateWindowSurface")
		purego.RegisterLibFunc(&a.createPbufferSurface, lib, "eglCreatePbufferSurface")
		purego.RegisterLibFunc(&a.destroySurface, lib, "eglDestroySurface")
		purego.RegisterLibFunc(&a.makeCurrent, lib, "eglMakeCurrent")
		purego.RegisterLibFunc(&a.swapBuffers, lib, "eglSwapBuffers")
		purego.RegisterLibFunc(&a.getError, lib, "eglGetError")
		loaded = a
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return loaded, nil
}

// attribPtr returns a pointer to an EGL_NONE terminated attribute list.
func attribPtr(attribs []int32) *int32 {
	if len(attribs) == 0 || attribs[len(attribs)-1] != eglNone {
		attribs = append(attribs, eglNone)
	}
	return &attribs[0]
}

func (a *nativeAPI) GetDisplay(native uintptr) uintptr { return a.getDisplay(native) }

func (a *nativeAPI) Initialize(display uintptr) (major, minor int32, ok bool) {
	ok = a.initialize(display, &major, &minor) != 0
	return major, minor, ok
}

func (a *nativeAPI) Terminate(display uintptr) bool { return a.terminate(display) != 0 }
func (a *nativeAPI) BindAPI(api uint32) bool        { return a.bindAPI(api) != 0 }

func (a *nativeAPI) ChooseConfig(display uintptr, attribs []int32) (uintptr, bool) {
	var (
		config uintptr
		count  int32
	)
	if a.chooseConfig(display, attribPtr(attribs), &config, 1, &count) == 0 || count == 0 {
		return 0, false
	}
	return config, true
}

func (a *nativeAPI) CreateContext(display, config, share uintptr, attribs []int32) uintptr {
	return a.createContext(display, config, share, attribPtr(attribs))
}

func (a *nativeAPI) DestroyContext(display, context uintptr) bool {
	return a.destroyContext(display, context) != 0
}

func (a *nativeAPI) CreateWindowSurface(display, config, window uintptr, attribs []int32) uintptr {
	return a.createWindowSurface(display, config, window, attribPtr(attribs))
}

func (a *nativeAPI) CreatePbufferSurface(display, config uintptr, attribs []int32) uintptr {
	return a.createPbufferSurface(display, config, attribPtr(attribs))
}

func (a *nativeAPI) DestroySurface(display, surface uintptr) bool {
	return a.destroySurface(display, surface) != 0
}

func (a *nativeAPI) MakeCurrent(display, draw, read, context uintptr) bool {
	return a.makeCurrent(display, draw, read, context) != 0
}

func (a *nativeAPI) SwapBuffers(display, surface uintptr) bool {
	return a.swapBuffers(display, surface) != 0
}

func (a *nativeAPI) GetError() int32 { return a.getError() }
