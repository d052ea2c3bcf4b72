// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package softdev

import (
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/webtex/capture"
	"github.com/gogpu/webtex/compositor"
	"github.com/gogpu/webtex/native"
)

// CaptureDevice creates software capture objects whose frame textures
// live on the given legacy device.
type CaptureDevice struct {
	dev native.LegacyDevice

	// ReportZeroItemSize makes every item report a zero size, the way a
	// real capture item does before its first frame.
	ReportZeroItemSize bool
}

// NewCaptureDevice wraps a legacy device for capture.
func NewCaptureDevice(dev native.LegacyDevice) *CaptureDevice {
	return &CaptureDevice{dev: dev}
}

// DeviceFactory is a capture.DeviceFactory over software devices.
func DeviceFactory(dev native.LegacyDevice) (capture.Device, error) {
	if dev == nil {
		return nil, native.ErrDeviceLost
	}
	return NewCaptureDevice(dev), nil
}

// CreateItemForWindow creates a capture item for a window's client area.
func (d *CaptureDevice) CreateItemForWindow(w compositor.Window) (capture.Item, error) {
	sw, ok := w.(*Window)
	if !ok || !sw.IsValid() {
		return nil, compositor.ErrInvalidWindow
	}
	return &captureItem{dev: d, win: sw}, nil
}

// CreateFramePool creates a frame pool of the given depth.
func (d *CaptureDevice) CreateFramePool(format gputypes.TextureFormat, depth int, width, height uint32) (capture.FramePool, error) {
	return &framePool{dev: d.dev, format: format, depth: depth, width: width, height: height}, nil
}

// CreateSession binds a pool to an item.
func (d *CaptureDevice) CreateSession(pool capture.FramePool, item capture.Item) (capture.Session, error) {
	p, ok := pool.(*framePool)
	if !ok {
		return nil, native.ErrInvalidResource
	}
	it, ok := item.(*captureItem)
	if !ok {
		return nil, native.ErrInvalidResource
	}
	return &captureSession{pool: p, win: it.win}, nil
}

// captureItem references one window's content.
type captureItem struct {
	dev *CaptureDevice
	win *Window
}

func (i *captureItem) Size() (width, height uint32) {
	if i.dev.ReportZeroItemSize {
		return 0, 0
	}
	return i.win.ClientSize()
}

// framePool is a bounded ring of captured frames. A present that arrives
// while every slot is held by an unclosed frame is dropped, which is the
// starvation a leaked frame causes.
type framePool struct {
	mu sync.Mutex

	dev    native.LegacyDevice
	format gputypes.TextureFormat
	depth  int
	width  uint32
	height uint32

	ready    []*capturedFrame
	inUse    int
	closed   bool
	dropped  int
	captured int
}

func (p *framePool) deliver(buf []byte, pitch, width, height uint32) {
	p.mu.Lock()
	if p.closed || p.inUse >= p.depth {
		p.dropped++
		p.mu.Unlock()
		return
	}
	p.inUse++
	p.captured++
	p.mu.Unlock()

	// Frames carry the pixels at the size the window presented, which
	// during a resize may differ from the pool's nominal size.
	tex, err := p.dev.CreateTexture2D(native.TextureDesc{
		Label:  "softdev captured frame",
		Width:  width,
		Height: height,
		Format: p.format,
		Usage:  gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		p.mu.Lock()
		p.inUse--
		p.mu.Unlock()
		return
	}
	s, _ := asSurface(tex)
	copyRows(s.bytes(), s.pitch(), 0, 0, buf, pitch, 0, 0, width, height)

	p.mu.Lock()
	if p.closed {
		p.inUse--
		p.mu.Unlock()
		tex.Release()
		return
	}
	p.ready = append(p.ready, &capturedFrame{pool: p, tex: tex})
	p.mu.Unlock()
}

// TryGetNextFrame returns the oldest ready frame without blocking, or
// nil.
func (p *framePool) TryGetNextFrame() capture.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || len(p.ready) == 0 {
		return nil
	}
	f := p.ready[0]
	p.ready = p.ready[1:]
	return f
}

// Close stops delivery and frees ready frames.
func (p *framePool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for _, f := range p.ready {
		f.tex.Release()
		p.inUse--
	}
	p.ready = nil
}

// Dropped reports how many presents found no free slot. Test observation
// hook.
func (p *framePool) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Captured reports how many frames entered the pool. Test observation
// hook.
func (p *framePool) Captured() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.captured
}

func (p *framePool) frameClosed(tex native.Texture2D) {
	tex.Release()
	p.mu.Lock()
	p.inUse--
	p.mu.Unlock()
}

// capturedFrame is one delivered frame.
type capturedFrame struct {
	pool   *framePool
	tex    native.Texture2D
	closed bool
}

func (f *capturedFrame) Surface() capture.Surface { return &frameSurface{tex: f.tex} }

func (f *capturedFrame) Close() {
	if f.closed {
		return
	}
	f.closed = true
	f.pool.frameClosed(f.tex)
}

type frameSurface struct {
	tex native.Texture2D
}

func (s *frameSurface) Texture() native.Texture2D { return s.tex }

// captureSession routes window presents into a pool.
type captureSession struct {
	mu      sync.Mutex
	pool    *framePool
	win     *Window
	started bool
}

// Start attaches the session to the window's present path.
func (s *captureSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if !s.win.IsValid() {
		return compositor.ErrInvalidWindow
	}
	s.win.attach(s)
	s.started = true
	return nil
}

// Close detaches the session. The pool stays open.
func (s *captureSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.win.detach(s)
		s.started = false
	}
}

func (s *captureSession) deliver(buf []byte, pitch, width, height uint32) {
	s.pool.deliver(buf, pitch, width, height)
}

var (
	_ capture.Device        = (*CaptureDevice)(nil)
	_ capture.Item          = (*captureItem)(nil)
	_ capture.FramePool     = (*framePool)(nil)
	_ capture.Session       = (*captureSession)(nil)
	_ capture.Frame         = (*capturedFrame)(nil)
	_ capture.DeviceFactory = DeviceFactory
)
