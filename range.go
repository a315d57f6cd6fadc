package rendercore

import (
	"fmt"
	"math"
)

// Range is a byte window {Offset, Length}.
type Range struct {
	Offset uint64
	Length uint64
}

// WholeRange selects an entire buffer in Flush and Invalidate.
var WholeRange = Range{Offset: 0, Length: math.MaxUint64}

// End returns Offset+Length and false if the sum overflows.
func (r Range) End() (uint64, bool) {
	end := r.Offset + r.Length
	if end < r.Offset {
		return 0, false
	}
	return end, true
}

// Within reports whether r lies inside [0, size).
func (r Range) Within(size uint64) bool {
	end, ok := r.End()
	return ok && end <= size
}

// Clamp limits r to a buffer of the given size.
func (r Range) Clamp(size uint64) Range {
	if r.Offset >= size {
		return Range{Offset: size}
	}
	if r.Length > size-r.Offset {
		r.Length = size - r.Offset
	}
	return r
}

func (r Range) String() string {
	return fmt.Sprintf("[%d+%d]", r.Offset, r.Length)
}

// ISize is an integer extent in pixels.
type ISize struct {
	Width  uint32
	Height uint32
}

// IsEmpty reports whether either dimension is zero.
func (s ISize) IsEmpty() bool {
	return s.Width == 0 || s.Height == 0
}

// Area returns Width*Height.
func (s ISize) Area() uint64 {
	return uint64(s.Width) * uint64(s.Height)
}

func (s ISize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
