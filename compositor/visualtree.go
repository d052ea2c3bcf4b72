package compositor

import (
	"fmt"

	"github.com/gogpu/webtex/internal/wlog"
)

// VisualTree is the visual hierarchy built once per browser instance:
// a root container visual sized to the logical surface, attached to the
// off-screen window through a window target, with one child visual that
// the browser renders into. The child uses relative sizing, so only the
// root ever needs an explicit size update.
//
// The tree holds non-owning references to the window and the browser's
// composition target; its own lifetime matches the owning instance.
type VisualTree struct {
	compositor Compositor
	target     WindowTarget
	root       Visual
	child      Visual

	window Window

	width  uint32
	height uint32
}

// Build constructs the visual tree: window target on win, root visual
// with the explicit logical size, child visual with relative size (1, 1)
// inserted at the top and handed to the browser as its render
// destination.
func Build(c Compositor, win Window, browser CompositionTarget, width, height uint32) (*VisualTree, error) {
	if win == nil || !win.IsValid() {
		return nil, ErrInvalidWindow
	}
	if browser == nil {
		return nil, ErrNoTarget
	}

	target, err := c.CreateWindowTarget(win)
	if err != nil {
		return nil, fmt.Errorf("compositor: window target: %w", err)
	}

	root, err := c.CreateContainerVisual()
	if err != nil {
		target.Release()
		return nil, fmt.Errorf("compositor: root visual: %w", err)
	}
	root.SetSize(float32(width), float32(height))
	root.SetVisible(true)

	if err := target.SetRoot(root); err != nil {
		root.Release()
		target.Release()
		return nil, fmt.Errorf("compositor: attach root: %w", err)
	}

	child, err := c.CreateContainerVisual()
	if err != nil {
		root.Release()
		target.Release()
		return nil, fmt.Errorf("compositor: child visual: %w", err)
	}
	// The child tracks the root automatically; it never needs an
	// explicit size.
	child.SetRelativeSize(1, 1)

	if err := root.InsertAtTop(child); err != nil {
		child.Release()
		root.Release()
		target.Release()
		return nil, fmt.Errorf("compositor: insert child: %w", err)
	}

	if err := browser.SetRootVisual(child); err != nil {
		child.Release()
		root.Release()
		target.Release()
		return nil, fmt.Errorf("compositor: bind browser target: %w", err)
	}

	wlog.Logger().Debug("compositor: visual tree built", "width", width, "height", height)
	return &VisualTree{
		compositor: c,
		target:     target,
		root:       root,
		child:      child,
		window:     win,
		width:      width,
		height:     height,
	}, nil
}

// Window returns the off-screen window the tree is bound to.
func (t *VisualTree) Window() Window { return t.window }

// Size returns the logical surface size.
func (t *VisualTree) Size() (width, height uint32) { return t.width, t.height }

// Ready reports whether the tree is built and its window still valid.
func (t *VisualTree) Ready() bool {
	return t != nil && t.root != nil && t.window != nil && t.window.IsValid()
}

// Resize updates the root visual's explicit size. The child is defined
// proportionally and follows on its own.
func (t *VisualTree) Resize(width, height uint32) {
	t.width = width
	t.height = height
	if t.root != nil {
		t.root.SetSize(float32(width), float32(height))
	}
}

// Release frees the tree: child, root, target, compositor, in that
// order.
func (t *VisualTree) Release() {
	if t.child != nil {
		t.child.Release()
		t.child = nil
	}
	if t.root != nil {
		t.root.Release()
		t.root = nil
	}
	if t.target != nil {
		t.target.Release()
		t.target = nil
	}
	if t.compositor != nil {
		t.compositor.Release()
		t.compositor = nil
	}
}
