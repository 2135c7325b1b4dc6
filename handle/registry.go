package handle

import "sync"

// Slot is one arena entry. Fields other than the generation are attached by
// the resource manager after allocation.
type Slot struct {
	generation uint32
	kind       Kind
	live       bool
	released   bool

	// Backing is the context-native object (gl.Buffer, gl.Texture, gl.Program).
	Backing any
	// Meta is the resource metadata (size, format, usage).
	Meta any
}

// Generation returns the slot's current generation.
func (s *Slot) Generation() uint32 { return s.generation }

// Kind returns the kind of the resource occupying the slot.
func (s *Slot) Kind() Kind { return s.kind }

// Released reports whether destruction of the resource was requested and
// the slot is waiting to be reclaimed.
func (s *Slot) Released() bool { return s.released }

// Registry is an arena of resource slots with a LIFO free list.
//
// Registry is safe for concurrent use. Pointers returned by Resolve and
// Lookup stay valid for the life of the registry; their Backing and Meta
// fields must only be mutated by the goroutine owning the graphics context.
type Registry struct {
	mu    sync.RWMutex
	slots []*Slot
	free  []uint32
	live  int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		slots: make([]*Slot, 0, 64),
		free:  make([]uint32, 0, 16),
	}
}

// Allocate reserves a slot for a resource of the given kind. Freed slot
// indices are reused most-recently-freed first; reuse increments the slot
// generation so handles to the previous occupant stay invalid.
func (r *Registry) Allocate(kind Kind) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	var idx uint32
	var s *Slot
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
		s = r.slots[idx]
		s.generation++
		if s.generation == 0 {
			// Skip zero on wraparound so the zero Handle never resolves.
			s.generation = 1
		}
	} else {
		// #nosec G115 -- slot count is bounded by available memory, well under uint32 max
		idx = uint32(len(r.slots))
		s = &Slot{generation: 1}
		r.slots = append(r.slots, s)
	}
	s.kind = kind
	s.live = true
	s.released = false
	s.Backing = nil
	s.Meta = nil
	r.live++

	return Handle{index: idx, generation: s.generation, kind: kind}
}

// Free returns the slot to the free list. Freeing an already-free or stale
// handle fails with ErrInvalidHandle and leaves the registry untouched.
func (r *Registry) Free(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slotLocked(h)
	if err != nil {
		return err
	}
	s.live = false
	s.released = false
	s.Backing = nil
	s.Meta = nil
	r.free = append(r.free, h.index)
	r.live--
	return nil
}

// Resolve returns the slot for a live handle. Released slots fail: once
// destruction is requested the handle cannot be used for new work.
func (r *Registry) Resolve(h Handle) (*Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, err := r.slotLocked(h)
	if err != nil {
		return nil, err
	}
	if s.released {
		return nil, invalid(h, "was destroyed")
	}
	return s, nil
}

// Lookup is Resolve for work recorded before a destroy request: it also
// returns released slots that have not been reclaimed yet.
func (r *Registry) Lookup(h Handle) (*Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slotLocked(h)
}

// Release marks a live handle as destroyed. The slot keeps its generation
// and backing object until Free is called.
func (r *Registry) Release(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slotLocked(h)
	if err != nil {
		return err
	}
	if s.released {
		return invalid(h, "already destroyed")
	}
	s.released = true
	return nil
}

// Bind attaches the backing object and metadata to a live slot.
func (r *Registry) Bind(h Handle, backing, meta any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slotLocked(h)
	if err != nil {
		return err
	}
	s.Backing = backing
	s.Meta = meta
	return nil
}

// Len returns the number of slots ever allocated (the arena size).
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}

// Live returns the number of occupied slots, including released ones not
// yet freed.
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.live
}

// Each calls fn for every occupied slot. fn must not call back into the
// registry.
func (r *Registry) Each(fn func(Handle, *Slot)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, s := range r.slots {
		if s.live {
			// #nosec G115 -- index bounded by slot count
			fn(Handle{index: uint32(i), generation: s.generation, kind: s.kind}, s)
		}
	}
}

func (r *Registry) slotLocked(h Handle) (*Slot, error) {
	if h.generation == 0 || int(h.index) >= len(r.slots) {
		return nil, invalid(h, "unknown")
	}
	s := r.slots[h.index]
	if !s.live {
		return nil, invalid(h, "is free")
	}
	if s.generation != h.generation {
		return nil, invalid(h, "is stale")
	}
	if s.kind != h.kind {
		return nil, invalid(h, "kind mismatch")
	}
	return s, nil
}
