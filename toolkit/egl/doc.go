// Package egl wraps the EGL display, config, surface and context objects
// that must exist before any OpenGL ES work can be issued.
//
// Native handles are owned by the wrapper that created them and are
// destroyed exactly once. Native failures are logged and returned as
// errors; nothing in this package panics on a driver error.
//
// libEGL is loaded at runtime with purego, so the package builds without
// cgo. Tests and embedders can substitute their own API implementation.
package egl
