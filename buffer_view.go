package rendercore

import "fmt"

// BufferView is a window into a DeviceBuffer. A view holds one reference
// on its buffer and grants no storage of its own.
type BufferView struct {
	Buffer *DeviceBuffer
	Range  Range
}

// AsBufferView returns a view over the whole of buf. The caller's reference
// moves into the view: after this call the view keeps buf alive and the
// caller must not Release buf itself.
func AsBufferView(buf *DeviceBuffer) BufferView {
	return BufferView{Buffer: buf, Range: Range{Offset: 0, Length: buf.Size()}}
}

// NewBufferView returns a view over r of buf. The view takes its own
// reference; the caller keeps theirs.
func NewBufferView(buf *DeviceBuffer, r Range) (BufferView, error) {
	if !buf.IsValid() {
		return BufferView{}, ErrBufferReleased
	}
	if !r.Within(buf.Size()) {
		return BufferView{}, fmt.Errorf("%w: view %v of buffer of %d", ErrOutOfBounds, r, buf.Size())
	}
	return BufferView{Buffer: buf.Retain(), Range: r}, nil
}

// IsValid reports whether the view references a live buffer and lies within it.
func (v BufferView) IsValid() bool {
	return v.Buffer.IsValid() && v.Range.Within(v.Buffer.Size())
}

// Release drops the view's reference on its buffer.
func (v BufferView) Release() {
	if v.Buffer != nil {
		v.Buffer.Release()
	}
}

// Bytes returns the host-visible bytes covered by the view, or nil.
func (v BufferView) Bytes() []byte {
	if !v.IsValid() {
		return nil
	}
	c := v.Buffer.Contents()
	if c == nil {
		return nil
	}
	return c[v.Range.Offset : v.Range.Offset+v.Range.Length]
}
