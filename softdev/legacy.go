// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package softdev

import (
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/webtex/native"
)

// LegacyDevice is the software immediate-mode device.
type LegacyDevice struct {
	mu sync.Mutex

	adapter native.AdapterID
	ctx     *legacyContext

	// RowAlign pads staging row pitches to this byte alignment when set,
	// so readback code cannot assume pitch == width*4.
	RowAlign uint32

	flushes  int
	released bool
}

// NewLegacyDevice creates a software legacy device on a fresh adapter.
func NewLegacyDevice() *LegacyDevice {
	return NewLegacyDeviceOn(NewAdapterID())
}

// NewLegacyDeviceOn creates a software legacy device on a given adapter.
func NewLegacyDeviceOn(id native.AdapterID) *LegacyDevice {
	d := &LegacyDevice{adapter: id}
	d.ctx = &legacyContext{dev: d}
	return d
}

// CreateTexture2D allocates a CPU-backed texture.
func (d *LegacyDevice) CreateTexture2D(desc native.TextureDesc) (native.Texture2D, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil, native.ErrDeviceLost
	}
	return newTexture(desc, 1), nil
}

// CreateStagingTexture allocates a CPU-readable texture, padded to
// RowAlign.
func (d *LegacyDevice) CreateStagingTexture(desc native.TextureDesc) (native.StagingTexture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil, native.ErrDeviceLost
	}
	return newTexture(desc, d.RowAlign), nil
}

// ImmediateContext returns the device's context.
func (d *LegacyDevice) ImmediateContext() native.LegacyContext { return d.ctx }

// AdapterID reports the adapter the device was created on.
func (d *LegacyDevice) AdapterID() native.AdapterID { return d.adapter }

// Release frees the device.
func (d *LegacyDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
}

// Released reports whether Release was called. Test observation hook.
func (d *LegacyDevice) Released() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// Flushes reports how many times the context was flushed. Test
// observation hook.
func (d *LegacyDevice) Flushes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushes
}

// legacyContext performs every operation synchronously on the CPU.
type legacyContext struct {
	dev *LegacyDevice
}

func (c *legacyContext) CopyResource(dst, src native.Texture2D) error {
	ds, err := asSurface(dst)
	if err != nil {
		return err
	}
	ss, err := asSurface(src)
	if err != nil {
		return err
	}
	dd, sd := ds.Desc(), ss.Desc()
	if dd.Width != sd.Width || dd.Height != sd.Height || dd.Format != sd.Format {
		return native.ErrInvalidResource
	}
	copyRows(ds.bytes(), ds.pitch(), 0, 0, ss.bytes(), ss.pitch(), 0, 0, sd.Width, sd.Height)
	return nil
}

func (c *legacyContext) CopyRegion(dst native.Texture2D, dstX, dstY uint32, src native.Texture2D, box native.Box) error {
	ds, err := asSurface(dst)
	if err != nil {
		return err
	}
	ss, err := asSurface(src)
	if err != nil {
		return err
	}
	w := box.Right - box.Left
	h := box.Bottom - box.Top
	dd, sd := ds.Desc(), ss.Desc()
	if box.Right > sd.Width || box.Bottom > sd.Height ||
		dstX+w > dd.Width || dstY+h > dd.Height {
		return native.ErrInvalidResource
	}
	copyRows(ds.bytes(), ds.pitch(), dstX, dstY, ss.bytes(), ss.pitch(), box.Left, box.Top, w, h)
	return nil
}

func (c *legacyContext) UpdateSubresource(dst native.Texture2D, box *native.Box, data []byte, rowPitch uint32) error {
	ds, err := asSurface(dst)
	if err != nil {
		return err
	}
	dd := ds.Desc()
	region := native.Box{Right: dd.Width, Bottom: dd.Height}
	if box != nil {
		region = *box
	}
	if region.Right > dd.Width || region.Bottom > dd.Height || region.Left > region.Right || region.Top > region.Bottom {
		return native.ErrInvalidResource
	}
	w := region.Right - region.Left
	h := region.Bottom - region.Top
	copyRows(ds.bytes(), ds.pitch(), region.Left, region.Top, data, rowPitch, 0, 0, w, h)
	return nil
}

func (c *legacyContext) Map(st native.StagingTexture) (*native.Mapped, error) {
	s, err := asSurface(st)
	if err != nil {
		return nil, native.ErrMapFailed
	}
	return &native.Mapped{
		Data: s.bytes(),
		Layout: gputypes.TextureDataLayout{
			BytesPerRow:  s.pitch(),
			RowsPerImage: s.Desc().Height,
		},
	}, nil
}

func (c *legacyContext) Unmap(st native.StagingTexture) {}

func (c *legacyContext) Flush() {
	c.dev.mu.Lock()
	c.dev.flushes++
	c.dev.mu.Unlock()
}

var _ native.LegacyDevice = (*LegacyDevice)(nil)
