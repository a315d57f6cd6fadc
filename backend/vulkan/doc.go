// Package vulkan provides the Vulkan rendercore backend.
//
// Importing the package registers the backend with rendercore:
//
//	import _ "github.com/gogpu/rendercore/backend/vulkan"
//
// Besides the plain Context, the package provides SurfaceContext, which
// owns a window swapchain. The swapchain can be torn down and rebuilt
// without touching the device, so window close, minimize and resize never
// require a new Context.
package vulkan
