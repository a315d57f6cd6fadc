package egl

import (
	"errors"
	"fmt"
)

// EGL enums used by this package.
const (
	eglSuccess           = 0x3000
	eglNotInitialized    = 0x3001
	eglBadAccess         = 0x3002
	eglBadAlloc          = 0x3003
	eglBadAttribute      = 0x3004
	eglBadConfig         = 0x3005
	eglBadContext        = 0x3006
	eglBadCurrentSurface = 0x3007
	eglBadDisplay        = 0x3008
	eglBadMatch          = 0x3009
	eglBadNativePixmap   = 0x300A
	eglBadNativeWindow   = 0x300B
	eglBadParameter      = 0x300C
	eglBadSurface        = 0x300D
	eglContextLost       = 0x300E

	eglAlphaSize      = 0x3021
	eglBlueSize       = 0x3022
	eglGreenSize      = 0x3023
	eglRedSize        = 0x3024
	eglDepthSize      = 0x3025
	eglStencilSize    = 0x3026
	eglSurfaceType    = 0x3033
	eglNone           = 0x3038
	eglRenderableType = 0x3040
	eglSamples        = 0x3031
	eglSampleBuffers  = 0x3032
	eglHeight         = 0x3056
	eglWidth          = 0x3057

	eglPbufferBit = 0x0001
	eglWindowBit  = 0x0004

	eglOpenGLES2Bit = 0x0004
	eglOpenGLES3Bit = 0x0040

	eglOpenGLESAPI         = 0x30A0
	eglContextMajorVersion = 0x3098
)

// ErrUnavailable is returned when libEGL cannot be loaded.
var ErrUnavailable = errors.New("egl: library not available")

// Errors reported by wrapper operations. Native failures wrap an ErrorCode.
var (
	ErrNoDisplay       = errors.New("egl: no display")
	ErrVersion         = errors.New("egl: version 1.4 or newer required")
	ErrNoConfig        = errors.New("egl: no matching config")
	ErrInvalidConfig   = errors.New("egl: invalid config")
	ErrSurfaceReleased = errors.New("egl: surface released")
	ErrContextReleased = errors.New("egl: context released")
)

// ErrorCode is an EGL error as reported by eglGetError.
type ErrorCode int32

func (e ErrorCode) Error() string {
	switch e {
	case eglSuccess:
		return "egl: success"
	case eglNotInitialized:
		return "egl: not initialized"
	case eglBadAccess:
		return "egl: bad access"
	case eglBadAlloc:
		return "egl: bad alloc"
	case eglBadAttribute:
		return "egl: bad attribute"
	case eglBadConfig:
		return "egl: bad config"
	case eglBadContext:
		return "egl: bad context"
	case eglBadCurrentSurface:
		return "egl: bad current surface"
	case eglBadDisplay:
		return "egl: bad display"
	case eglBadMatch:
		return "egl: bad match"
	case eglBadNativePixmap:
		return "egl: bad native pixmap"
	case eglBadNativeWindow:
		return "egl: bad native window"
	case eglBadParameter:
		return "egl: bad parameter"
	case eglBadSurface:
		return "egl: bad surface"
	case eglContextLost:
		return "egl: context lost"
	default:
		return fmt.Sprintf("egl: error %#x", int32(e))
	}
}

// API is the subset of libEGL this package calls. Handles are opaque
// native pointers; zero is EGL_NO_*. Boolean results report EGL_TRUE.
type API interface {
	GetDisplay(native uintptr) uintptr
	Initialize(display uintptr) (major, minor int32, ok bool)
	Terminate(display uintptr) bool
	BindAPI(api uint32) bool
	ChooseConfig(display uintptr, attribs []int32) (config uintptr, ok bool)
	CreateContext(display, config, share uintptr, attribs []int32) uintptr
	DestroyContext(display, context uintptr) bool
	CreateWindowSurface(display, config, window uintptr, attribs []int32) uintptr
	CreatePbufferSurface(display, config uintptr, attribs []int32) uintptr
	DestroySurface(display, surface uintptr) bool
	MakeCurrent(display, draw, read, context uintptr) bool
	SwapBuffers(display, surface uintptr) bool
	GetError() int32
}

// lastError wraps the pending EGL error for op.
func lastError(api API, op string) error {
	return fmt.Errorf("%s: %w", op, ErrorCode(api.GetError()))
}
