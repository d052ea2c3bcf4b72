// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package softdev

import (
	"image"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/webtex/compositor"
)

// frameSink receives the window's presented BGRA pixels. Implemented by
// capture sessions.
type frameSink interface {
	deliver(buf []byte, pitch, width, height uint32)
}

// Window is the software off-screen window. Presenting flattens its
// visual tree at the window's current client size and hands the pixels
// to every attached capture session, so a present racing a resize
// delivers a frame at whichever size the window has at that moment.
type Window struct {
	mu sync.Mutex

	valid  bool
	width  uint32
	height uint32

	root  *Visual
	sinks []frameSink
}

// NewWindow creates a valid window with the given client size.
func NewWindow(width, height uint32) *Window {
	return &Window{valid: true, width: width, height: height}
}

// IsValid reports whether the window still exists.
func (w *Window) IsValid() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.valid
}

// ClientSize returns the client-area size.
func (w *Window) ClientSize() (width, height uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// SetClientSize resizes the client area.
func (w *Window) SetClientSize(width, height uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.width = width
	w.height = height
}

// Destroy invalidates the window.
func (w *Window) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.valid = false
}

func (w *Window) attach(s frameSink) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sinks = append(w.sinks, s)
}

func (w *Window) detach(s frameSink) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, x := range w.sinks {
		if x == s {
			w.sinks = append(w.sinks[:i], w.sinks[i+1:]...)
			return
		}
	}
}

// Present flattens the visual tree into a BGRA surface at the window's
// current size and delivers it to attached capture sessions.
func (w *Window) Present() {
	w.mu.Lock()
	if !w.valid || w.width == 0 || w.height == 0 {
		w.mu.Unlock()
		return
	}
	width, height := w.width, w.height
	root := w.root
	sinks := append([]frameSink(nil), w.sinks...)
	w.mu.Unlock()

	canvas := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	if root != nil {
		root.flatten(canvas, float64(width), float64(height))
	}

	pitch := width * bytesPerPixel
	buf := make([]byte, int(pitch)*int(height))
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			o := canvas.PixOffset(int(x), int(y))
			i := y*pitch + x*bytesPerPixel
			buf[i+0] = canvas.Pix[o+2]
			buf[i+1] = canvas.Pix[o+1]
			buf[i+2] = canvas.Pix[o+0]
			buf[i+3] = canvas.Pix[o+3]
		}
	}
	for _, s := range sinks {
		s.deliver(buf, pitch, width, height)
	}
}

// Visual is a node in the software visual tree. It carries either an
// explicit size or a size relative to its parent, and optionally a
// content image that is scaled into its rectangle when the window
// presents.
type Visual struct {
	mu sync.Mutex

	width    float32
	height   float32
	relative bool
	relX     float32
	relY     float32
	visible  bool

	children []*Visual
	content  image.Image
	released bool
}

// SetSize sets an explicit size in pixels.
func (v *Visual) SetSize(width, height float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.width = width
	v.height = height
	v.relative = false
}

// SetRelativeSize sizes the visual proportionally to its parent.
func (v *Visual) SetRelativeSize(x, y float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.relX = x
	v.relY = y
	v.relative = true
}

// SetVisible toggles visibility.
func (v *Visual) SetVisible(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = visible
}

// InsertAtTop adds child above any existing children.
func (v *Visual) InsertAtTop(child compositor.Visual) error {
	c, ok := child.(*Visual)
	if !ok {
		return compositor.ErrNoTarget
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.children = append(v.children, c)
	return nil
}

// Release frees the visual.
func (v *Visual) Release() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.released = true
}

// Released reports whether Release was called. Test observation hook.
func (v *Visual) Released() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.released
}

// SetContent installs the image the visual shows. It is scaled to the
// visual's rectangle when the window presents.
func (v *Visual) SetContent(img image.Image) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.content = img
}

// flatten draws the visual and its children into canvas. parentW and
// parentH resolve relative sizing.
func (v *Visual) flatten(canvas *image.RGBA, parentW, parentH float64) {
	v.mu.Lock()
	w, h := float64(v.width), float64(v.height)
	if v.relative {
		w = parentW * float64(v.relX)
		h = parentH * float64(v.relY)
	}
	visible := v.visible || v.relative
	content := v.content
	children := append([]*Visual(nil), v.children...)
	v.mu.Unlock()

	if !visible || w <= 0 || h <= 0 {
		return
	}
	if content != nil {
		rect := image.Rect(0, 0, int(w), int(h))
		xdraw.ApproxBiLinear.Scale(canvas, rect, content, content.Bounds(), xdraw.Over, nil)
	}
	for _, c := range children {
		c.flatten(canvas, w, h)
	}
}

// windowTarget binds a visual tree root to a window.
type windowTarget struct {
	win      *Window
	released bool
}

func (t *windowTarget) SetRoot(v compositor.Visual) error {
	sv, ok := v.(*Visual)
	if !ok {
		return compositor.ErrNoTarget
	}
	t.win.mu.Lock()
	defer t.win.mu.Unlock()
	t.win.root = sv
	return nil
}

func (t *windowTarget) Release() {
	t.win.mu.Lock()
	defer t.win.mu.Unlock()
	t.win.root = nil
	t.released = true
}

// SoftCompositor creates software visuals and window targets. The Fail*
// flags make the matching factory return ErrInjected.
type SoftCompositor struct {
	mu       sync.Mutex
	released bool

	FailTarget bool
	FailVisual bool

	visuals []*Visual
}

// NewCompositor creates a software compositor.
func NewCompositor() *SoftCompositor { return &SoftCompositor{} }

// CreateWindowTarget binds the compositor to an off-screen window.
func (c *SoftCompositor) CreateWindowTarget(w compositor.Window) (compositor.WindowTarget, error) {
	if c.FailTarget {
		return nil, ErrInjected
	}
	sw, ok := w.(*Window)
	if !ok || !sw.IsValid() {
		return nil, compositor.ErrInvalidWindow
	}
	return &windowTarget{win: sw}, nil
}

// CreateContainerVisual creates an empty container visual.
func (c *SoftCompositor) CreateContainerVisual() (compositor.Visual, error) {
	if c.FailVisual {
		return nil, ErrInjected
	}
	v := &Visual{}
	c.mu.Lock()
	c.visuals = append(c.visuals, v)
	c.mu.Unlock()
	return v, nil
}

// Visuals returns every visual the compositor has created. Test
// observation hook.
func (c *SoftCompositor) Visuals() []*Visual {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Visual(nil), c.visuals...)
}

// Release frees the compositor.
func (c *SoftCompositor) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
}

// Released reports whether Release was called. Test observation hook.
func (c *SoftCompositor) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// Browser is the software browser collaborator: it holds the composition
// visual handed to it and paints frames into it.
type Browser struct {
	mu   sync.Mutex
	root *Visual
}

// SetRootVisual installs v as the browser's render destination.
func (b *Browser) SetRootVisual(v compositor.Visual) error {
	sv, ok := v.(*Visual)
	if !ok {
		return compositor.ErrNoTarget
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.root = sv
	return nil
}

// RootVisual returns the installed visual, or nil. Test observation
// hook.
func (b *Browser) RootVisual() *Visual {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.root
}

// Paint draws img into the browser's visual.
func (b *Browser) Paint(img image.Image) {
	b.mu.Lock()
	root := b.root
	b.mu.Unlock()
	if root != nil {
		root.SetContent(img)
	}
}

var (
	_ compositor.Window            = (*Window)(nil)
	_ compositor.Visual            = (*Visual)(nil)
	_ compositor.WindowTarget      = (*windowTarget)(nil)
	_ compositor.Compositor        = (*SoftCompositor)(nil)
	_ compositor.CompositionTarget = (*Browser)(nil)
)
