// Package rendercore provides a GPU command-buffer and render-target
// abstraction shared by Vulkan, OpenGL ES and Metal backends.
//
// # Overview
//
// A [Context] is created once per GPU device session. It owns the command
// queue, the resource allocator and the idle waiter. Buffers and textures are
// allocated through the context's [Allocator], recorded into a
// [CommandBuffer] via [RenderPass] and [BlitPass], and submitted with
// [Context.EnqueueCommandBuffer]. Presentation goes through a [Surface].
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/rendercore"
//	    _ "github.com/gogpu/rendercore/backend/vulkan"
//	)
//
//	ctx, err := rendercore.NewContext()
//	if err != nil {
//	    // ctx is non-nil and invalid; every operation fails safely.
//	}
//	defer ctx.Shutdown()
//
//	buf, err := ctx.ResourceAllocator().CreateBuffer(rendercore.DeviceBufferDescriptor{
//	    Size:        1024,
//	    StorageMode: rendercore.StorageHostVisible,
//	})
//
// # Backends
//
// Backends register themselves with [Register] from an init function.
// [NewContext] picks the first available backend by priority
// (Metal, Vulkan, GLES) unless [WithBackend] names one explicitly.
//
// # Ownership
//
// [DeviceBuffer] and [Texture] are reference counted. Command buffers retain
// every resource they reference until the GPU retires the submission, so a
// caller may release its own reference right after recording. Use
// [IdleWaiter.WaitIdle] before tearing down a context.
//
// # Logging
//
// By default rendercore produces no log output. Call [SetLogger] to enable it.
package rendercore
