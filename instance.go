package webtex

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/webtex/backend"
	"github.com/gogpu/webtex/capture"
	"github.com/gogpu/webtex/compositor"
	"github.com/gogpu/webtex/internal/wlog"
)

// Handle identifies a browser instance. Handles are assigned
// monotonically and never reused within a Context.
type Handle uint32

// InvalidHandle is never assigned to an instance.
const InvalidHandle Handle = 0

// Instance-related errors.
var (
	// ErrUnknownHandle is returned when a handle does not name a live
	// instance.
	ErrUnknownHandle = errors.New("webtex: unknown instance handle")

	// ErrNilWindow is returned when the config carries no off-screen
	// window.
	ErrNilWindow = errors.New("webtex: nil window")

	// ErrNilBrowser is returned when the config carries no browser
	// composition target.
	ErrNilBrowser = errors.New("webtex: nil browser target")

	// ErrNilFactory is returned when a required factory is missing from
	// the config.
	ErrNilFactory = errors.New("webtex: nil factory")
)

// InstanceConfig describes one browser instance.
//
// The compositor is created per instance and released with its visual
// tree, so a factory is supplied rather than a compositor. The capture
// device factory is re-invoked after a device restore so capture binds
// the fresh device.
type InstanceConfig struct {
	// Width and Height are the logical surface size in pixels.
	Width  uint32
	Height uint32

	// Window is the off-screen window the browser composes into.
	Window compositor.Window

	// Browser is the browser collaborator's composition target.
	Browser compositor.CompositionTarget

	// NewCompositor builds the compositor the visual tree is assembled
	// with.
	NewCompositor func() (compositor.Compositor, error)

	// CaptureDevice builds the capture device over the backend's capture
	// device.
	CaptureDevice capture.DeviceFactory
}

func (c InstanceConfig) validate() error {
	if c.Width == 0 || c.Height == 0 {
		return backend.ErrInvalidDimensions
	}
	if c.Window == nil {
		return ErrNilWindow
	}
	if c.Browser == nil {
		return ErrNilBrowser
	}
	if c.NewCompositor == nil || c.CaptureDevice == nil {
		return ErrNilFactory
	}
	return nil
}

// Instance is one browser instance: its shared texture, visual tree and
// capture session. Instances are owned by a Context and addressed by
// handle; no subsystem holds a pointer back to them.
type Instance struct {
	mu sync.Mutex

	id  Handle
	cfg InstanceConfig
	gb  backend.GraphicsBackend

	width  uint32
	height uint32

	tex     backend.SharedTexture
	session *capture.CaptureSession
}

// newInstance builds the full pipeline for one instance: shared texture,
// visual tree, capture session.
func newInstance(id Handle, cfg InstanceConfig, gb backend.GraphicsBackend) (*Instance, error) {
	inst := &Instance{
		id:     id,
		cfg:    cfg,
		gb:     gb,
		width:  cfg.Width,
		height: cfg.Height,
	}

	tex, err := gb.CreateSharedTexture(cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("webtex: shared texture: %w", err)
	}
	inst.tex = tex

	if err := inst.buildCapture(); err != nil {
		gb.DestroySharedTexture(tex)
		return nil, err
	}
	wlog.Logger().Info("webtex: instance created",
		"handle", id, "width", cfg.Width, "height", cfg.Height)
	return inst, nil
}

// buildCapture assembles compositor, visual tree and capture session at
// the current logical size and starts capture. Capture start failures
// are logged, not fatal: the session may be re-initialized later.
func (i *Instance) buildCapture() error {
	comp, err := i.cfg.NewCompositor()
	if err != nil {
		return fmt.Errorf("webtex: compositor: %w", err)
	}

	tree, err := compositor.Build(comp, i.cfg.Window, i.cfg.Browser, i.width, i.height)
	if err != nil {
		comp.Release()
		return err
	}

	dev, err := i.cfg.CaptureDevice(i.gb.CaptureDevice())
	if err != nil {
		tree.Release()
		return fmt.Errorf("webtex: capture device: %w", err)
	}

	i.session = capture.New(dev, tree, i.gb)
	i.session.Initialize()
	return nil
}

// ID returns the instance's handle.
func (i *Instance) ID() Handle { return i.id }

// Size returns the logical surface size.
func (i *Instance) Size() (width, height uint32) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.width, i.height
}

// NativeTexture returns the backend-native handle of the current shared
// texture, or nil while the device is lost. The identity changes across
// resize and device restore; hosts re-query every frame.
func (i *Instance) NativeTexture() any {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.tex == nil {
		return nil
	}
	return i.tex.Native()
}

// SessionState reports the capture session state. Diagnostic.
func (i *Instance) SessionState() capture.State {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.session == nil {
		return capture.Uninitialized
	}
	return i.session.State()
}

// resize replaces the shared texture at the new size, resizes the
// window's client area, and rebuilds the capture pipeline. The old
// texture identity is invalid after the call whether or not it succeeds.
func (i *Instance) resize(width, height uint32) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if width == 0 || height == 0 {
		return backend.ErrInvalidDimensions
	}

	tex, err := i.gb.ResizeSharedTexture(i.tex, width, height)
	i.tex = tex
	if err != nil {
		return fmt.Errorf("webtex: resize texture: %w", err)
	}
	i.width = width
	i.height = height

	// The capture item captures the client area; resize it before the
	// pipeline rebuild so new frames arrive at the new size.
	i.cfg.Window.SetClientSize(width, height)

	if i.session != nil {
		if err := i.session.Resize(width, height); err != nil {
			wlog.Logger().Warn("webtex: capture resize failed", "handle", i.id, "err", err)
		}
	}
	return nil
}

// updateTexture polls capture once and copies an available frame into
// the shared texture. No-op while the device is lost or capture is not
// running.
func (i *Instance) updateTexture() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.tex == nil || i.session == nil {
		return
	}
	i.session.UpdateTexture(i.tex)
}

// tryUpdateTexture is updateTexture with try-lock semantics for the
// all-instances sweep: an instance busy in a resize or teardown is
// skipped rather than waited on.
func (i *Instance) tryUpdateTexture() {
	if !i.mu.TryLock() {
		return
	}
	defer i.mu.Unlock()
	if i.tex == nil || i.session == nil {
		return
	}
	i.session.UpdateTexture(i.tex)
}

// onDeviceLost shuts down capture and drops the texture handle without
// destroying it. The device the texture lived on is already gone;
// destroying through it would touch freed state.
func (i *Instance) onDeviceLost() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.session != nil {
		i.session.Shutdown()
		i.session = nil
	}
	i.tex = nil
	wlog.Logger().Info("webtex: instance device lost", "handle", i.id)
}

// onDeviceRestored recreates the shared texture at the logical size on
// the fresh device, then rebuilds the capture pipeline. Failures are
// logged; the instance stays alive with whatever it got.
func (i *Instance) onDeviceRestored() {
	i.mu.Lock()
	defer i.mu.Unlock()

	tex, err := i.gb.CreateSharedTexture(i.width, i.height)
	if err != nil {
		wlog.Logger().Warn("webtex: texture restore failed", "handle", i.id, "err", err)
		return
	}
	i.tex = tex

	if err := i.buildCapture(); err != nil {
		wlog.Logger().Warn("webtex: capture restore failed", "handle", i.id, "err", err)
		return
	}
	wlog.Logger().Info("webtex: instance device restored", "handle", i.id)
}

// close tears the instance down: capture first, then the shared texture.
func (i *Instance) close() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.session != nil {
		i.session.Shutdown()
		i.session = nil
	}
	if i.tex != nil {
		i.gb.DestroySharedTexture(i.tex)
		i.tex = nil
	}
	wlog.Logger().Info("webtex: instance closed", "handle", i.id)
}
