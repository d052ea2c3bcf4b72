package webtex

import "sync"

// instanceTable maps handles to live instances. Handles are assigned
// monotonically, never reused, and 0 is never assigned.
type instanceTable struct {
	mu   sync.RWMutex
	m    map[Handle]*Instance
	last uint32
}

func (t *instanceTable) reserve() Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last++
	if t.last == uint32(InvalidHandle) {
		t.last++
	}
	return Handle(t.last)
}

func (t *instanceTable) put(inst *Instance) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.m == nil {
		t.m = make(map[Handle]*Instance)
	}
	t.m[inst.id] = inst
}

func (t *instanceTable) get(h Handle) (*Instance, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	inst, ok := t.m[h]
	return inst, ok
}

func (t *instanceTable) remove(h Handle) (*Instance, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	inst, ok := t.m[h]
	if ok {
		delete(t.m, h)
	}
	return inst, ok
}

// all returns a snapshot of the live instances, so fan-out can run
// without holding the table lock.
func (t *instanceTable) all() []*Instance {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Instance, 0, len(t.m))
	for _, inst := range t.m {
		out = append(out, inst)
	}
	return out
}

func (t *instanceTable) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m = nil
}

func (t *instanceTable) size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}
