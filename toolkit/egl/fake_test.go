package egl

import "sync"

// fakeAPI is an in-memory EGL that hands out increasing handles.
type fakeAPI struct {
	mu sync.Mutex

	major, minor int32
	noDisplay    bool
	failInit     bool
	noConfig     bool
	failCreate   bool
	failDestroy  bool
	failSwap     bool
	failMake     bool

	next       uintptr
	lastError  int32
	attribs    []int32
	live       map[uintptr]bool
	destroyed  map[uintptr]int
	swaps      int
	current    uintptr
	terminated int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		major:     1,
		minor:     5,
		next:      0x100,
		live:      make(map[uintptr]bool),
		destroyed: make(map[uintptr]int),
	}
}

func (f *fakeAPI) alloc() uintptr {
	f.next++
	f.live[f.next] = true
	return f.next
}

func (f *fakeAPI) fail(code int32) {
	f.lastError = code
}

func (f *fakeAPI) GetDisplay(uintptr) uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.noDisplay {
		return 0
	}
	return 1
}

func (f *fakeAPI) Initialize(uintptr) (int32, int32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInit {
		f.fail(eglNotInitialized)
		return 0, 0, false
	}
	return f.major, f.minor, true
}

func (f *fakeAPI) Terminate(uintptr) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated++
	return true
}

func (f *fakeAPI) BindAPI(uint32) bool { return true }

func (f *fakeAPI) ChooseConfig(_ uintptr, attribs []int32) (uintptr, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attribs = attribs
	if f.noConfig {
		return 0, false
	}
	return f.alloc(), true
}

func (f *fakeAPI) create() uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		f.fail(eglBadAlloc)
		return 0
	}
	return f.alloc()
}

func (f *fakeAPI) CreateContext(_, _, _ uintptr, _ []int32) uintptr       { return f.create() }
func (f *fakeAPI) CreateWindowSurface(_, _, _ uintptr, _ []int32) uintptr { return f.create() }
func (f *fakeAPI) CreatePbufferSurface(_, _ uintptr, _ []int32) uintptr   { return f.create() }
func (f *fakeAPI) DestroyContext(_, h uintptr) bool                       { return f.destroy(h) }
func (f *fakeAPI) DestroySurface(_, h uintptr) bool                       { return f.destroy(h) }

func (f *fakeAPI) destroy(h uintptr) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed[h]++
	delete(f.live, h)
	if f.failDestroy {
		f.fail(eglBadSurface)
		return false
	}
	return true
}

func (f *fakeAPI) MakeCurrent(_, _, _, ctx uintptr) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMake {
		f.fail(eglBadMatch)
		return false
	}
	f.current = ctx
	return true
}

func (f *fakeAPI) SwapBuffers(uintptr, uintptr) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSwap {
		f.fail(eglBadSurface)
		return false
	}
	f.swaps++
	return true
}

func (f *fakeAPI) GetError() int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	code := f.lastError
	f.lastError = eglSuccess
	return code
}
