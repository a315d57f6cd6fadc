// Package metal provides the Metal rendercore backend.
//
// Metal devices share memory between host and GPU, so buffers are
// coherent: Flush and Invalidate are no-ops and blit readbacks land in the
// host view when the command buffer retires.
//
// Surfaces are drawables of a layer supplied by the embedder. Each call to
// NextSurface yields one drawable that must be presented or discarded.
package metal
