package rendercore

import "sync"

// UniqueHandle owns a native handle and frees it exactly once.
//
// The handle is invalid when it equals the sentinel given at construction.
// Reset and Close free the owned value; Release hands it back unfreed.
type UniqueHandle[T comparable] struct {
	mu      sync.Mutex
	value   T
	invalid T
	free    func(T)
}

// NewUniqueHandle takes ownership of value. free is called with value once
// when the handle is reset or closed, unless value equals invalid.
func NewUniqueHandle[T comparable](value, invalid T, free func(T)) *UniqueHandle[T] {
	return &UniqueHandle[T]{value: value, invalid: invalid, free: free}
}

// Get returns the owned handle.
func (h *UniqueHandle[T]) Get() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value
}

// IsValid reports whether the handle owns a native value.
func (h *UniqueHandle[T]) IsValid() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value != h.invalid
}

// Reset frees the current value and takes ownership of v.
func (h *UniqueHandle[T]) Reset(v T) {
	h.mu.Lock()
	old := h.value
	h.value = v
	h.mu.Unlock()
	if old != h.invalid && old != v && h.free != nil {
		h.free(old)
	}
}

// Release gives up ownership without freeing and returns the value.
func (h *UniqueHandle[T]) Release() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	v := h.value
	h.value = h.invalid
	return v
}

// Close frees the value. It is safe to call more than once.
func (h *UniqueHandle[T]) Close() {
	h.Reset(h.invalid)
}
