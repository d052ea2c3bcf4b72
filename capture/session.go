package capture

import (
	"fmt"
	"sync"

	"github.com/gogpu/webtex/backend"
	"github.com/gogpu/webtex/compositor"
	"github.com/gogpu/webtex/internal/wlog"
	"github.com/gogpu/webtex/native"
)

// State is the capture session's lifecycle state.
type State int32

const (
	// Uninitialized: no capture objects exist. Initialize may be
	// retried from here.
	Uninitialized State = iota

	// VisualReady: the visual tree is built and the window valid, but
	// capture has not started.
	VisualReady

	// Capturing: frames are being delivered into the pool.
	Capturing

	// Resizing: transient while the pool and session are rebuilt; returns
	// to Capturing before Resize returns.
	Resizing

	// ShutDown: terminal.
	ShutDown
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case VisualReady:
		return "visual-ready"
	case Capturing:
		return "capturing"
	case Resizing:
		return "resizing"
	case ShutDown:
		return "shut-down"
	default:
		return "uninitialized"
	}
}

// CaptureSession owns the capture item, the frame pool and the session
// object for one browser instance, and drives captured frames into the
// instance's shared texture through the graphics backend.
//
// It holds non-owning references to the backend and the visual tree; the
// owning instance is identified by handle, never by back-pointer.
type CaptureSession struct {
	mu sync.Mutex

	state State

	dev  Device
	tree *compositor.VisualTree
	gb   backend.GraphicsBackend

	item    Item
	pool    FramePool
	session Session
}

// New creates a capture session bound to a built visual tree. The state
// starts at VisualReady when the tree is usable, Uninitialized otherwise.
func New(dev Device, tree *compositor.VisualTree, gb backend.GraphicsBackend) *CaptureSession {
	s := &CaptureSession{dev: dev, tree: tree, gb: gb}
	if tree.Ready() {
		s.state = VisualReady
	}
	return s
}

// State returns the current lifecycle state.
func (s *CaptureSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Initialize creates the capture item, a frame pool of depth
// FramePoolDepth sized to the item's current size (falling back to the
// logical surface size when the item reports zero), and a session from
// the pool, then starts capture.
//
// Failures are logged and leave the session Uninitialized; they never
// propagate. A later call may retry.
func (s *CaptureSession) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == ShutDown || s.state == Capturing {
		return
	}
	if !s.tree.Ready() {
		wlog.Logger().Warn("capture: initialize skipped", "err", ErrVisualTreeNotReady)
		s.state = Uninitialized
		return
	}

	if err := s.buildLocked(); err != nil {
		wlog.Logger().Warn("capture: initialize failed", "err", err)
		s.teardownLocked()
		s.state = Uninitialized
		return
	}
	s.state = Capturing
	wlog.Logger().Info("capture: session started")
}

// buildLocked creates item, pool and session at the current window size
// and starts capture. The item is reused if it already exists.
func (s *CaptureSession) buildLocked() error {
	if s.item == nil {
		item, err := s.dev.CreateItemForWindow(s.tree.Window())
		if err != nil {
			return fmt.Errorf("capture item: %w", err)
		}
		s.item = item
	}

	width, height := s.item.Size()
	if width == 0 || height == 0 {
		// The item reports zero until its first frame; fall back to the
		// logical surface size.
		width, height = s.tree.Size()
	}

	pool, err := s.dev.CreateFramePool(native.SharedTextureFormat, FramePoolDepth, width, height)
	if err != nil {
		return fmt.Errorf("frame pool: %w", err)
	}
	s.pool = pool

	session, err := s.dev.CreateSession(pool, s.item)
	if err != nil {
		return fmt.Errorf("capture session: %w", err)
	}
	s.session = session

	if err := session.Start(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	return nil
}

// teardownLocked stops and frees capture objects: session before pool,
// so no in-flight callback touches a freed pool.
func (s *CaptureSession) teardownLocked() {
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}

// UpdateTexture polls the frame pool once. No frame ready is not an
// error; the call returns immediately. When a frame is available its
// surface is copied into dst through the backend (with the capture
// convention's Y-flip) and the frame is closed so its pool slot recycles.
func (s *CaptureSession) UpdateTexture(dst backend.SharedTexture) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Capturing || s.pool == nil || dst == nil {
		return
	}

	frame := s.pool.TryGetNextFrame()
	if frame == nil {
		return
	}
	// Close even when the surface is unusable: a leaked frame starves
	// the pool after FramePoolDepth misses.
	defer frame.Close()

	surface := frame.Surface()
	if surface == nil {
		return
	}
	tex := surface.Texture()
	if tex == nil {
		return
	}

	s.gb.CopyCapturedTexture(tex, dst, true)
}

// Resize rebuilds the capture pipeline at a new size. The capture
// primitive cannot be resized in place without instability, so the item,
// pool and session are torn down and recreated on the same device;
// capture is restarted before Resize returns. The visual tree's root
// size is updated in the same call.
func (s *CaptureSession) Resize(width, height uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == ShutDown {
		return ErrShutDown
	}

	s.tree.Resize(width, height)

	if s.state != Capturing {
		return ErrNotCapturing
	}
	s.state = Resizing

	s.teardownLocked()
	s.item = nil

	item, err := s.dev.CreateItemForWindow(s.tree.Window())
	if err != nil {
		s.state = Uninitialized
		return fmt.Errorf("capture: rebuild item: %w", err)
	}
	s.item = item

	pool, err := s.dev.CreateFramePool(native.SharedTextureFormat, FramePoolDepth, width, height)
	if err != nil {
		s.state = Uninitialized
		return fmt.Errorf("capture: rebuild frame pool: %w", err)
	}
	s.pool = pool

	session, err := s.dev.CreateSession(pool, s.item)
	if err != nil {
		s.teardownLocked()
		s.state = Uninitialized
		return fmt.Errorf("capture: rebuild session: %w", err)
	}
	s.session = session

	if err := session.Start(); err != nil {
		s.teardownLocked()
		s.state = Uninitialized
		return fmt.Errorf("capture: restart: %w", err)
	}

	s.state = Capturing
	wlog.Logger().Debug("capture: pipeline rebuilt", "width", width, "height", height)
	return nil
}

// Shutdown stops capture and releases everything in strict order:
// session, then pool, then the visual tree, so no in-flight callback
// references a freed composition object. Terminal.
func (s *CaptureSession) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == ShutDown {
		return
	}
	s.teardownLocked()
	s.item = nil
	if s.tree != nil {
		s.tree.Release()
	}
	s.state = ShutDown
	wlog.Logger().Info("capture: session shut down")
}
