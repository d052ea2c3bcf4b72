// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package softdev

import (
	"sync"

	"github.com/gogpu/webtex/native"
)

// Resource is a committed explicit-API resource with a tracked access
// state.
type Resource struct {
	mu sync.Mutex

	desc     native.TextureDesc
	rowPitch uint32
	buf      []byte
	state    native.ResourceState
	released bool
}

// Desc returns the resource's current descriptor.
func (r *Resource) Desc() native.TextureDesc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.desc
}

// Release frees the resource.
func (r *Resource) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = true
	r.buf = nil
}

// State returns the resource's current access state. Test observation
// hook.
func (r *Resource) State() native.ResourceState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Released reports whether Release was called. Test observation hook.
func (r *Resource) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

// Pixels returns the raw BGRA bytes. Test observation hook.
func (r *Resource) Pixels() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf
}

// Reshape reallocates the resource at a new size behind the same handle,
// the way a host engine swaps the surface under a cached identity.
func (r *Resource) Reshape(width, height uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.desc.Width = width
	r.desc.Height = height
	r.rowPitch = width * bytesPerPixel
	r.buf = make([]byte, int(r.rowPitch)*int(height))
}

func (r *Resource) setState(s native.ResourceState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Fence is a monotonic counter with a condition-variable wait.
type Fence struct {
	mu        sync.Mutex
	cond      *sync.Cond
	completed uint64
	released  bool
}

// NewFence creates a fence starting at initial.
func NewFence(initial uint64) *Fence {
	f := &Fence{completed: initial}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// CompletedValue returns the highest processed counter value.
func (f *Fence) CompletedValue() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Wait blocks until the completed value reaches value or the fence is
// released.
func (f *Fence) Wait(value uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.completed < value && !f.released {
		f.cond.Wait()
	}
}

// Release frees the fence and wakes any waiters.
func (f *Fence) Release() {
	f.mu.Lock()
	f.released = true
	f.cond.Broadcast()
	f.mu.Unlock()
}

func (f *Fence) complete(value uint64) {
	f.mu.Lock()
	if value > f.completed {
		f.completed = value
	}
	f.cond.Broadcast()
	f.mu.Unlock()
}

// Queue is the software command queue. By default a signal completes
// immediately, as if the GPU were infinitely fast. In manual mode signals
// queue up until Pump is called, so tests can hold the GPU back and
// observe a genuine fence stall.
type Queue struct {
	mu      sync.Mutex
	manual  bool
	pending []pendingSignal
	signals int
}

type pendingSignal struct {
	fence *Fence
	value uint64
}

// NewQueue creates a queue in immediate mode.
func NewQueue() *Queue { return &Queue{} }

// SetManual toggles manual pump mode. Turning it off pumps everything
// pending.
func (q *Queue) SetManual(manual bool) {
	q.mu.Lock()
	q.manual = manual
	q.mu.Unlock()
	if !manual {
		q.Pump()
	}
}

// Signal enqueues a fence signal.
func (q *Queue) Signal(f native.Fence, value uint64) error {
	sf, ok := f.(*Fence)
	if !ok {
		return native.ErrInvalidResource
	}
	q.mu.Lock()
	q.signals++
	if q.manual {
		q.pending = append(q.pending, pendingSignal{fence: sf, value: value})
		q.mu.Unlock()
		return nil
	}
	q.mu.Unlock()
	sf.complete(value)
	return nil
}

// Pump completes every pending signal in submission order.
func (q *Queue) Pump() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, p := range pending {
		p.fence.complete(p.value)
	}
}

// Signals reports how many signals were submitted. Test observation hook.
func (q *Queue) Signals() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.signals
}

// ExplicitDevice is the software command-queue device.
type ExplicitDevice struct {
	mu       sync.Mutex
	adapter  native.AdapterID
	released bool
}

// NewExplicitDevice creates a software explicit device on a fresh
// adapter.
func NewExplicitDevice() *ExplicitDevice {
	return &ExplicitDevice{adapter: NewAdapterID()}
}

// CreateCommittedTexture allocates a resource in the given initial state.
func (d *ExplicitDevice) CreateCommittedTexture(desc native.TextureDesc, initial native.ResourceState) (native.ExplicitResource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil, native.ErrDeviceLost
	}
	p := desc.Width * bytesPerPixel
	return &Resource{
		desc:     desc,
		rowPitch: p,
		buf:      make([]byte, int(p)*int(desc.Height)),
		state:    initial,
	}, nil
}

// CreateFence creates a fence starting at initial.
func (d *ExplicitDevice) CreateFence(initial uint64) (native.Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil, native.ErrDeviceLost
	}
	return NewFence(initial), nil
}

// AdapterID reports the adapter the device was created on.
func (d *ExplicitDevice) AdapterID() native.AdapterID { return d.adapter }

// Release frees the device.
func (d *ExplicitDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
}

// InteropDevice is a legacy-compatible layer over an explicit device.
// Wrapped views alias the explicit resource's memory, so legacy-context
// writes through a view land in the resource.
type InteropDevice struct {
	*LegacyDevice
	dev   *ExplicitDevice
	queue *Queue
}

// wrappedView is a legacy texture view aliasing an explicit resource.
type wrappedView struct {
	res      *Resource
	in, out  native.ResourceState
	acquired bool
}

func (v *wrappedView) Desc() native.TextureDesc { return v.res.Desc() }
func (v *wrappedView) Release()                 {}
func (v *wrappedView) bytes() []byte            { return v.res.buf }
func (v *wrappedView) pitch() uint32            { return v.res.rowPitch }

// WrapResource creates a legacy view over res.
func (d *InteropDevice) WrapResource(res native.ExplicitResource, in, out native.ResourceState) (native.Texture2D, error) {
	r, ok := res.(*Resource)
	if !ok || r.Released() {
		return nil, native.ErrInvalidResource
	}
	return &wrappedView{res: r, in: in, out: out}, nil
}

// AcquireWrapped transitions the wrapped resource to its in state.
func (d *InteropDevice) AcquireWrapped(t native.Texture2D) {
	v, ok := t.(*wrappedView)
	if !ok {
		return
	}
	v.acquired = true
	v.res.setState(v.in)
}

// ReleaseWrapped transitions the wrapped resource back to its out state.
func (d *InteropDevice) ReleaseWrapped(t native.Texture2D) {
	v, ok := t.(*wrappedView)
	if !ok {
		return
	}
	v.acquired = false
	v.res.setState(v.out)
}

var (
	_ native.ExplicitDevice = (*ExplicitDevice)(nil)
	_ native.InteropDevice  = (*InteropDevice)(nil)
	_ native.Fence          = (*Fence)(nil)
	_ native.CommandQueue   = (*Queue)(nil)
)
