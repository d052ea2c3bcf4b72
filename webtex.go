package webtex

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gogpu/webtex/backend"
	"github.com/gogpu/webtex/internal/wlog"
	"github.com/gogpu/webtex/native"

	// The two graphics backends register themselves with the backend
	// factory.
	_ "github.com/gogpu/webtex/backend/explicit"
	_ "github.com/gogpu/webtex/backend/legacy"
)

// Context errors.
var (
	// ErrAlreadyInitialized is returned by Initialize on an initialized
	// Context. The call still resets the shutdown flag.
	ErrAlreadyInitialized = errors.New("webtex: already initialized")

	// ErrNotInitialized is returned when an operation needs a backend and
	// Initialize has not succeeded.
	ErrNotInitialized = errors.New("webtex: not initialized")

	// ErrShutDown is returned after Shutdown.
	ErrShutDown = errors.New("webtex: shut down")
)

// RenderEvent is an integer event code issued from the host engine's
// render thread. The codes are part of the host-facing contract and
// must not change.
type RenderEvent int32

const (
	// RenderEventInitialize binds the graphics device on the render
	// thread, using the host interfaces from the last device event.
	RenderEventInitialize RenderEvent = 0

	// RenderEventShutdown releases all device-dependent state on the
	// render thread.
	RenderEventShutdown RenderEvent = 1

	// RenderEventUpdateTexture sweeps every instance, copying any newly
	// captured frame into its shared texture.
	RenderEventUpdateTexture RenderEvent = 2
)

// Context owns everything the bridge holds: the graphics backend, the
// instance table and the shutdown flag. There is no package-level state;
// independent Contexts do not interfere.
//
// The mutex serializes every render-affecting operation: device events,
// instance lifecycle, resize and texture updates all exclude each other
// through it.
type Context struct {
	mu sync.Mutex

	shutdown atomic.Bool

	gb    backend.GraphicsBackend
	host  native.HostInterfaces
	table instanceTable
}

// NewContext creates an empty Context. Initialize selects the backend.
func NewContext() *Context { return &Context{} }

// Initialize selects and creates the graphics backend for the given API.
// The backend stays device-less until a device event binds the host's
// device.
//
// Initializing an already-initialized Context resets the shutdown flag
// and returns ErrAlreadyInitialized: a host that bounces through a
// shutdown/initialize pair comes back usable.
func (c *Context) Initialize(api backend.APIKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gb != nil {
		c.shutdown.Store(false)
		return ErrAlreadyInitialized
	}

	gb, err := backend.New(api)
	if err != nil {
		return err
	}
	c.gb = gb
	c.shutdown.Store(false)
	wlog.Logger().Info("webtex: context initialized", "api", api)
	return nil
}

// Shutdown abandons the Context. The flag is set first, with release
// ordering, so any late asynchronous completion observes it and becomes
// a no-op before any state is dropped. Instances are dropped from the
// table without teardown: the process is exiting and a leak is safer
// than touching devices that may already be gone.
func (c *Context) Shutdown() {
	c.shutdown.Store(true)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.table.clear()
	c.host = nil
	wlog.Logger().Info("webtex: context shut down")
}

// IsShutDown reports whether Shutdown has been called.
func (c *Context) IsShutDown() bool { return c.shutdown.Load() }

// Backend returns the graphics backend, or nil before Initialize.
func (c *Context) Backend() backend.GraphicsBackend {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gb
}

// InstanceCount reports the number of live instances.
func (c *Context) InstanceCount() int { return c.table.size() }

// OnDeviceEvent is the host engine's device lifecycle callback.
//
// Loss events (shutdown, before-reset) fan out to every instance before
// the backend releases its devices, so capture tears down while the
// devices still exist. Restore events (initialize, after-reset) rebuild
// instance state after the backend has bound the fresh device.
func (c *Context) OnDeviceEvent(ev backend.DeviceEvent, host native.HostInterfaces) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gb == nil {
		return
	}

	switch ev {
	case backend.EventShutdown, backend.EventBeforeReset:
		for _, inst := range c.table.all() {
			inst.onDeviceLost()
		}
		c.host = nil
		c.gb.ProcessDeviceEvent(ev, host)

	case backend.EventInitialize, backend.EventAfterReset:
		c.host = host
		c.gb.ProcessDeviceEvent(ev, host)
		if c.gb.IsInitialized() {
			for _, inst := range c.table.all() {
				inst.onDeviceRestored()
			}
		}
	}
}

// CreateInstance builds a browser instance and returns its handle.
func (c *Context) CreateInstance(cfg InstanceConfig) (Handle, error) {
	if c.shutdown.Load() {
		return InvalidHandle, ErrShutDown
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gb == nil {
		return InvalidHandle, ErrNotInitialized
	}
	if err := cfg.validate(); err != nil {
		return InvalidHandle, err
	}

	h := c.table.reserve()
	inst, err := newInstance(h, cfg, c.gb)
	if err != nil {
		return InvalidHandle, err
	}
	c.table.put(inst)
	return h, nil
}

// DestroyInstance tears an instance down and removes it from the table.
func (c *Context) DestroyInstance(h Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst, ok := c.table.remove(h)
	if !ok {
		return ErrUnknownHandle
	}
	inst.close()
	return nil
}

// Instance returns a live instance by handle, for host-side queries such
// as NativeTexture.
func (c *Context) Instance(h Handle) (*Instance, error) {
	inst, ok := c.table.get(h)
	if !ok {
		return nil, ErrUnknownHandle
	}
	return inst, nil
}

// Resize resizes an instance's surface: the shared texture is replaced
// (its identity changes), the off-screen window's client area follows,
// and the capture pipeline is rebuilt at the new size.
func (c *Context) Resize(h Handle, width, height uint32) error {
	if c.shutdown.Load() {
		return ErrShutDown
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	inst, ok := c.table.get(h)
	if !ok {
		return ErrUnknownHandle
	}
	return inst.resize(width, height)
}

// UpdateTexture copies a newly captured frame into one instance's shared
// texture, if one is available. Never blocks on frame production.
func (c *Context) UpdateTexture(h Handle) error {
	if c.shutdown.Load() {
		return ErrShutDown
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	inst, ok := c.table.get(h)
	if !ok {
		return ErrUnknownHandle
	}
	inst.updateTexture()
	return nil
}

// HandleRenderEvent is the host render thread's entry point for the
// integer event codes. Unknown codes are ignored. Every code is a no-op
// after Shutdown.
func (c *Context) HandleRenderEvent(code RenderEvent) {
	if c.shutdown.Load() {
		return
	}

	switch code {
	case RenderEventInitialize:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gb != nil && !c.gb.IsInitialized() && c.host != nil {
			c.gb.ProcessDeviceEvent(backend.EventInitialize, c.host)
		}

	case RenderEventShutdown:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gb == nil {
			return
		}
		for _, inst := range c.table.all() {
			inst.onDeviceLost()
		}
		c.gb.ProcessDeviceEvent(backend.EventShutdown, nil)

	case RenderEventUpdateTexture:
		c.updateAllTextures()
	}
}

// HandleRenderEventData is the render-thread entry point carrying an
// instance handle. Only the update-texture code is per-instance; other
// codes fall back to the plain entry point.
func (c *Context) HandleRenderEventData(code RenderEvent, h Handle) {
	if code != RenderEventUpdateTexture {
		c.HandleRenderEvent(code)
		return
	}
	if c.shutdown.Load() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if inst, ok := c.table.get(h); ok {
		inst.updateTexture()
	}
}

// updateAllTextures sweeps every instance with try-lock semantics at
// both levels: if a device event holds the context, or a resize holds an
// instance, this frame's update is skipped rather than stalling the
// render thread.
func (c *Context) updateAllTextures() {
	if !c.mu.TryLock() {
		return
	}
	defer c.mu.Unlock()

	for _, inst := range c.table.all() {
		inst.tryUpdateTexture()
	}
}
