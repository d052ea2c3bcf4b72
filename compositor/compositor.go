// Package compositor defines the composition contract and the visual
// tree that bridges the browser's composited output to an off-screen
// window.
package compositor

import "errors"

// Package errors.
var (
	// ErrInvalidWindow is returned when the target window is missing or
	// no longer valid.
	ErrInvalidWindow = errors.New("compositor: invalid window")

	// ErrNoTarget is returned when the browser has not produced a
	// composition target yet.
	ErrNoTarget = errors.New("compositor: no composition target")
)

// Window is the off-screen window hosting the browser's composition. It
// doubles as the capture source: capture frames carry the window's
// client-area pixels.
type Window interface {
	// IsValid reports whether the underlying window still exists.
	IsValid() bool

	// ClientSize returns the client-area size in pixels.
	ClientSize() (width, height uint32)

	// SetClientSize resizes the client area. The capture primitive
	// captures the client area, so the window must track the logical
	// surface size.
	SetClientSize(width, height uint32)
}

// Visual is one node in the compositor's visual hierarchy.
type Visual interface {
	// SetSize sets an explicit size in pixels.
	SetSize(width, height float32)

	// SetRelativeSize sizes the visual proportionally to its parent:
	// (1, 1) fills the parent and tracks parent resizes automatically.
	SetRelativeSize(x, y float32)

	// SetVisible toggles visibility.
	SetVisible(visible bool)

	// InsertAtTop adds child above any existing children.
	InsertAtTop(child Visual) error

	// Release frees the visual.
	Release()
}

// WindowTarget binds a visual tree root to a window.
type WindowTarget interface {
	// SetRoot installs v as the root of the window's visual tree.
	SetRoot(v Visual) error

	// Release frees the target.
	Release()
}

// Compositor creates visuals and window targets.
type Compositor interface {
	// CreateWindowTarget binds the compositor to an off-screen window.
	CreateWindowTarget(w Window) (WindowTarget, error)

	// CreateContainerVisual creates an empty container visual.
	CreateContainerVisual() (Visual, error)

	// Release frees the compositor.
	Release()
}

// CompositionTarget is the browser collaborator's composition surface:
// the browser renders into whatever visual is installed here.
type CompositionTarget interface {
	// SetRootVisual makes v the browser's render destination.
	SetRootVisual(v Visual) error
}
