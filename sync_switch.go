package rendercore

import "sync"

// SyncSwitchHandlers are the two branches run by SyncSwitch.Execute.
// Either may be nil.
type SyncSwitchHandlers struct {
	IfTrue  func()
	IfFalse func()
}

// SyncSwitch is a boolean shared between threads. Readers run one of two
// branches under a shared lock, so the value cannot flip while a branch is
// executing. Writers flip the value under the exclusive lock and notify
// observers after releasing it.
//
// Observers are kept under their own lock and are called with no lock
// held, so an observer may remove itself or others while being notified.
type SyncSwitch struct {
	mu    sync.RWMutex
	value bool

	obsMu     sync.Mutex
	observers map[uint64]func(bool)
	nextID    uint64
}

// NewSyncSwitch returns a switch holding initial.
func NewSyncSwitch(initial bool) *SyncSwitch {
	return &SyncSwitch{value: initial}
}

// Execute runs h.IfTrue or h.IfFalse depending on the current value.
// SetSwitch blocks until the branch returns. A branch must not call
// SetSwitch on the same switch.
func (s *SyncSwitch) Execute(h SyncSwitchHandlers) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.value {
		if h.IfTrue != nil {
			h.IfTrue()
		}
		return
	}
	if h.IfFalse != nil {
		h.IfFalse()
	}
}

// Value returns the current value.
func (s *SyncSwitch) Value() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// SetSwitch stores v and, if it changed, notifies observers.
func (s *SyncSwitch) SetSwitch(v bool) {
	s.mu.Lock()
	changed := s.value != v
	s.value = v
	s.mu.Unlock()
	if !changed {
		return
	}

	s.obsMu.Lock()
	fns := make([]func(bool), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// AddObserver registers fn to be called after every change. The returned
// function removes it and may be called more than once.
func (s *SyncSwitch) AddObserver(fn func(bool)) (remove func()) {
	s.obsMu.Lock()
	if s.observers == nil {
		s.observers = make(map[uint64]func(bool))
	}
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}
