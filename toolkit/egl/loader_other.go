//go:build !linux

package egl

// Load reports ErrUnavailable; libEGL is only loaded on Linux.
func Load() (API, error) {
	return nil, ErrUnavailable
}
