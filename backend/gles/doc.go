// Package gles provides the OpenGL ES rendercore backend.
//
// A GLES context is thread-affine: the EGL context bound with BindEGL must
// be current on the thread issuing GPU work. Call MakeCurrent after
// locking the OS thread and ResetThreadLocalState before handing the
// thread back.
//
// Window surfaces wrap a framebuffer owned by the embedder and publish
// frames through a swap callback:
//
//	s := ctx.NewSurface(fb, func() bool { return window.SwapBuffers() == nil })
//	defer s.Release()
//	...
//	err := s.Present()
package gles
