package rendercore

import (
	"context"
	"sync"

	"github.com/gogpu/gputypes"
)

var testColorFormat = gputypes.TextureFormatBGRA8Unorm

// fakeBuffer is an in-memory BufferImpl.
type fakeBuffer struct {
	mu          sync.Mutex
	data        []byte
	copies      int
	flushes     []Range
	invalidates []Range
	destroyed   int
	copyErr     error
}

func newFakeBuffer(size uint64) *fakeBuffer {
	return &fakeBuffer{data: make([]byte, size)}
}

func (f *fakeBuffer) OnCopyHostBuffer(src []byte, offset uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.copyErr != nil {
		return f.copyErr
	}
	f.copies++
	copy(f.data[offset:], src)
	return nil
}

func (f *fakeBuffer) Contents() []byte { return f.data }

func (f *fakeBuffer) Flush(r Range) error {
	f.flushes = append(f.flushes, r)
	return nil
}

func (f *fakeBuffer) Invalidate(r Range) error {
	f.invalidates = append(f.invalidates, r)
	return nil
}

func (f *fakeBuffer) Destroy() { f.destroyed++ }

func newTestBuffer(size uint64, mode StorageMode) (*DeviceBuffer, *fakeBuffer) {
	impl := newFakeBuffer(size)
	return NewDeviceBuffer(BackendVulkan, DeviceBufferDescriptor{Size: size, StorageMode: mode, Label: "test"}, impl, nil), impl
}

// fakeTexture is a TextureImpl that records uploads.
type fakeTexture struct {
	uploads     int
	bytesPerRow uint32
	destroyed   int
}

func (f *fakeTexture) OnSetContents(_ []byte, bytesPerRow uint32) error {
	f.uploads++
	f.bytesPerRow = bytesPerRow
	return nil
}

func (f *fakeTexture) Destroy() { f.destroyed++ }

func newTestTexture(t interface{ Fatalf(string, ...any) }, backend BackendType, w, h uint32) *Texture {
	tex, err := NewTexture(backend, TextureDescriptor{
		Label:  "tex",
		Size:   ISize{Width: w, Height: h},
		Format: testColorFormat,
		Usage:  TextureUsageRenderTarget,
	}, &fakeTexture{}, nil)
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	return tex
}

// fakePipeline is a Pipeline with a fixed backend.
type fakePipeline struct {
	backend BackendType
	valid   bool
}

func (p fakePipeline) Label() string        { return "fake" }
func (p fakePipeline) Backend() BackendType { return p.backend }
func (p fakePipeline) IsValid() bool        { return p.valid }

// fakeQueue records submissions and completes them immediately.
type fakeQueue struct {
	mu        sync.Mutex
	submitted [][]CommandBuffer
	err       error
}

func (q *fakeQueue) Submit(buffers []CommandBuffer, completion CompletionCallback) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.submitted = append(q.submitted, buffers)
	for _, b := range buffers {
		if completion != nil {
			completion(b, CommandBufferCompleted)
		}
	}
	return nil
}

// fakeContext is a minimal backend built on ContextBase.
type fakeContext struct {
	ContextBase
	valid    bool
	shutdown int
}

func newFakeContext(b BackendType, valid bool) *fakeContext {
	return &fakeContext{ContextBase: NewContextBase(b, 0, &fakeQueue{}, nil), valid: valid}
}

func (c *fakeContext) IsValid() bool                { return c.valid }
func (c *fakeContext) DescribeGPUModel() string     { return "fake " + c.BackendType().String() }
func (c *fakeContext) Capabilities() Capabilities   { return Capabilities{} }
func (c *fakeContext) ResourceAllocator() Allocator { return nil }
func (c *fakeContext) ShaderLibrary() *ShaderLibrary {
	return NewShaderLibrary(nil)
}
func (c *fakeContext) CreateCommandBuffer() (CommandBuffer, error) { return nil, ErrContextInvalid }
func (c *fakeContext) CreatePipeline(PipelineDescriptor) (Pipeline, error) {
	return nil, ErrContextInvalid
}
func (c *fakeContext) Shutdown() { c.shutdown++ }

type fakeIdleWaiter struct{ calls int }

func (w *fakeIdleWaiter) WaitIdle(ctx context.Context) error {
	w.calls++
	return ctx.Err()
}

type signaledFence struct{}

func (signaledFence) IsSignaled() bool           { return true }
func (signaledFence) Wait(context.Context) error { return nil }
