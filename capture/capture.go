// Package capture drives the frame-producing capture pipeline: an
// off-screen window's composited content is delivered through a bounded
// frame pool and copied into the host engine's shared texture.
package capture

import (
	"errors"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/webtex/compositor"
	"github.com/gogpu/webtex/native"
)

// FramePoolDepth is the fixed ring depth of every capture frame pool.
// Two buffers: one being filled, one being drained.
const FramePoolDepth = 2

// Package errors.
var (
	// ErrNotCapturing is returned by Resize when no session is live.
	ErrNotCapturing = errors.New("capture: not capturing")

	// ErrShutDown is returned by Resize after the session has been shut
	// down. Terminal.
	ErrShutDown = errors.New("capture: shut down")

	// ErrVisualTreeNotReady is returned when the visual tree or its
	// window is missing.
	ErrVisualTreeNotReady = errors.New("capture: visual tree not ready")
)

// Surface is one captured frame's pixel surface.
type Surface interface {
	// Texture returns the native texture carrying the frame, owned by
	// the capture device.
	Texture() native.Texture2D
}

// Frame is one delivered capture frame. Frames must be closed after use:
// an unclosed frame occupies a pool slot, and the pool starves after
// FramePoolDepth leaks.
type Frame interface {
	Surface() Surface
	Close()
}

// FramePool is a fixed-depth ring of capturable surfaces.
type FramePool interface {
	// TryGetNextFrame returns the next ready frame without blocking, or
	// nil when none is available.
	TryGetNextFrame() Frame

	// Close stops frame delivery and frees the ring.
	Close()
}

// Item is a reference to a capture target's content, created once per
// window and reused across pool rebuilds.
type Item interface {
	// Size returns the item's current content size. May report zero
	// before the first frame.
	Size() (width, height uint32)
}

// Session controls frame delivery from an item into a pool.
type Session interface {
	// Start begins capture. Frames arrive in the pool afterwards.
	Start() error

	// Close stops capture. The pool outlives the session and must be
	// closed separately, after the session.
	Close()
}

// Device creates capture objects on a graphics device. On the explicit
// backend this wraps the standalone capture device; on the legacy
// backend it wraps the main device.
type Device interface {
	// CreateItemForWindow creates a capture item for a window's client
	// area.
	CreateItemForWindow(w compositor.Window) (Item, error)

	// CreateFramePool creates a frame pool of the given depth and size.
	CreateFramePool(format gputypes.TextureFormat, depth int, width, height uint32) (FramePool, error)

	// CreateSession binds a pool to an item.
	CreateSession(pool FramePool, item Item) (Session, error)
}

// DeviceFactory builds a capture Device over a graphics device. The
// factory is re-invoked after a device restore so capture binds the
// fresh device.
type DeviceFactory func(dev native.LegacyDevice) (Device, error)
