// Package halgpu implements the rendercore resource and submission model on
// top of the gogpu/wgpu HAL. The Vulkan, GLES and Metal backends are thin
// layers over this package that add their presentation and thread-binding
// rules.
//
// Ownership follows rendercore: buffers and textures are reference counted,
// command buffers retain what they reference until the GPU retires them,
// and Queue is the only place that waits on native fences.
package halgpu
