// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package softdev

import (
	"errors"
	"sync"

	"github.com/gogpu/webtex/native"
)

// ErrInjected is returned by platform factories whose failure flag is
// set.
var ErrInjected = errors.New("softdev: injected failure")

// CompositionDevice is the software compositor device handle.
type CompositionDevice struct {
	mu       sync.Mutex
	released bool
}

// Release frees the device.
func (c *CompositionDevice) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
}

// Released reports whether Release was called. Test observation hook.
func (c *CompositionDevice) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// Platform creates software devices. The Fail* flags make the matching
// factory return ErrInjected, for exercising initialization rollback.
type Platform struct {
	mu sync.Mutex

	FailInterop     bool
	FailLegacy      bool
	FailComposition bool

	// RowAlign is applied to every legacy device the platform creates.
	RowAlign uint32

	legacyDevices []*LegacyDevice
	compDevices   []*CompositionDevice
}

// NewPlatform creates a software platform.
func NewPlatform() *Platform { return &Platform{} }

// CreateInteropDevice layers a legacy-compatible device over an explicit
// device and its queue, on the same adapter.
func (p *Platform) CreateInteropDevice(dev native.ExplicitDevice, queue native.CommandQueue) (native.InteropDevice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailInterop {
		return nil, ErrInjected
	}
	ed, ok := dev.(*ExplicitDevice)
	if !ok {
		return nil, native.ErrInvalidResource
	}
	q, ok := queue.(*Queue)
	if !ok {
		return nil, native.ErrInvalidResource
	}
	ld := NewLegacyDeviceOn(ed.AdapterID())
	ld.RowAlign = p.RowAlign
	p.legacyDevices = append(p.legacyDevices, ld)
	return &InteropDevice{LegacyDevice: ld, dev: ed, queue: q}, nil
}

// CreateLegacyDevice creates a standalone legacy device on the given
// adapter.
func (p *Platform) CreateLegacyDevice(id native.AdapterID) (native.LegacyDevice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailLegacy {
		return nil, ErrInjected
	}
	d := NewLegacyDeviceOn(id)
	d.RowAlign = p.RowAlign
	p.legacyDevices = append(p.legacyDevices, d)
	return d, nil
}

// CreateCompositionDevice builds a composition device bound to dev.
func (p *Platform) CreateCompositionDevice(dev native.LegacyDevice) (native.CompositionDevice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailComposition {
		return nil, ErrInjected
	}
	if dev == nil {
		return nil, native.ErrInvalidResource
	}
	c := &CompositionDevice{}
	p.compDevices = append(p.compDevices, c)
	return c, nil
}

// LegacyDevices returns every legacy device the platform has created.
// Test observation hook.
func (p *Platform) LegacyDevices() []*LegacyDevice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*LegacyDevice(nil), p.legacyDevices...)
}

// CompositionDevices returns every composition device the platform has
// created. Test observation hook.
func (p *Platform) CompositionDevices() []*CompositionDevice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*CompositionDevice(nil), p.compDevices...)
}

var _ native.Platform = (*Platform)(nil)
