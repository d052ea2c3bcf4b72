// Package legacy implements the graphics backend for the immediate-mode
// API generation.
//
// The legacy device can drive the compositor directly, so there is no
// cross-API wrapping here: shared textures are allocated on the host's
// device, render bracketing is a no-op, and WaitForGPU reduces to a
// context flush.
package legacy

import (
	"fmt"
	"sync"

	"github.com/gogpu/webtex/backend"
	"github.com/gogpu/webtex/internal/wlog"
	"github.com/gogpu/webtex/native"
)

func init() {
	backend.Register(backend.APILegacy, func() backend.GraphicsBackend {
		return New()
	})
}

// Backend is the immediate-mode backend. It is safe for concurrent use;
// render-affecting calls are expected to arrive serialized from the host's
// render-thread callback queue, but nothing here depends on that.
type Backend struct {
	mu sync.RWMutex

	device native.LegacyDevice
	ctx    native.LegacyContext
	comp   native.CompositionDevice

	live        int
	initialized bool
}

// New creates a legacy backend. It stays uninitialized until a
// device-initialize event binds the host device.
func New() *Backend {
	return &Backend{}
}

// APIKind reports backend.APILegacy.
func (b *Backend) APIKind() backend.APIKind { return backend.APILegacy }

// IsInitialized reports whether a device is bound.
func (b *Backend) IsInitialized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized
}

// ProcessDeviceEvent binds the host's legacy device on initialize and
// after-reset, and releases everything on shutdown and before-reset.
func (b *Backend) ProcessDeviceEvent(ev backend.DeviceEvent, host native.HostInterfaces) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch ev {
	case backend.EventInitialize, backend.EventAfterReset:
		// A second initialize without an intervening release must not
		// leak the previous composition device.
		b.releaseLocked()
		if host == nil {
			return
		}
		if err := b.acquireLocked(host); err != nil {
			wlog.Logger().Warn("legacy: device acquire failed", "err", err)
			b.releaseLocked()
		}

	case backend.EventShutdown, backend.EventBeforeReset:
		b.releaseLocked()
	}
}

func (b *Backend) acquireLocked(host native.HostInterfaces) error {
	dev := host.Legacy()
	if dev == nil {
		return backend.ErrDeviceCreationFailed
	}

	comp, err := host.GraphicsPlatform().CreateCompositionDevice(dev)
	if err != nil {
		return fmt.Errorf("%w: %w", backend.ErrCompositionFailed, err)
	}

	b.device = dev
	b.ctx = dev.ImmediateContext()
	b.comp = comp
	b.initialized = true
	wlog.Logger().Info("legacy: device bound", "adapter", dev.AdapterID())
	return nil
}

func (b *Backend) releaseLocked() {
	if b.comp != nil {
		b.comp.Release()
		b.comp = nil
	}
	// The device and context are owned by the host; dropping the
	// references is all the release there is. Every shared texture was
	// allocated on that device, so none survive it.
	b.ctx = nil
	b.device = nil
	b.live = 0
	b.initialized = false
}

// CompositionDevice returns the composition device, or nil before
// initialization.
func (b *Backend) CompositionDevice() native.CompositionDevice {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.comp
}

// CaptureDevice returns the main device: on the legacy API, capture frame
// pools share the composition device.
func (b *Backend) CaptureDevice() native.LegacyDevice {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.device
}

// LiveTextures reports the number of shared textures currently allocated.
func (b *Backend) LiveTextures() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}

// sharedTexture is the legacy backend's shared-texture handle.
type sharedTexture struct {
	tex native.Texture2D
}

func (t *sharedTexture) Desc() native.TextureDesc { return t.tex.Desc() }
func (t *sharedTexture) Native() any              { return t.tex }

// CreateSharedTexture allocates a GPU-shared texture directly on the
// host's device.
func (b *Backend) CreateSharedTexture(width, height uint32) (backend.SharedTexture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	if width == 0 || height == 0 {
		return nil, backend.ErrInvalidDimensions
	}

	tex, err := b.device.CreateTexture2D(native.SharedTextureDesc(width, height))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrTextureCreationFailed, err)
	}
	b.live++
	return &sharedTexture{tex: tex}, nil
}

// DestroySharedTexture releases a shared texture. Safe no-op on nil.
func (b *Backend) DestroySharedTexture(tex backend.SharedTexture) {
	st, ok := tex.(*sharedTexture)
	if !ok || st == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	st.tex.Release()
	b.live--
}

// ResizeSharedTexture is destroy-then-create. The old handle is invalid
// after the call whether or not it succeeds.
func (b *Backend) ResizeSharedTexture(tex backend.SharedTexture, width, height uint32) (backend.SharedTexture, error) {
	b.DestroySharedTexture(tex)
	return b.CreateSharedTexture(width, height)
}

// BeginRenderToTexture is a no-op: the browser composes straight into the
// shared texture on this API.
func (b *Backend) BeginRenderToTexture(backend.SharedTexture) {}

// EndRenderToTexture flushes so the composed content is visible to the
// host's next read.
func (b *Backend) EndRenderToTexture(backend.SharedTexture) {
	b.mu.RLock()
	ctx := b.ctx
	b.mu.RUnlock()
	if ctx != nil {
		ctx.Flush()
	}
}

// WaitForGPU flushes the immediate context. On this API a flush is
// sufficient ordering for destroy-then-create paths.
func (b *Backend) WaitForGPU() {
	b.mu.RLock()
	ctx := b.ctx
	b.mu.RUnlock()
	if ctx != nil {
		ctx.Flush()
	}
}

// CopyCapturedTexture copies a captured surface into the shared texture.
// Without a flip this is a whole-resource copy. The copy primitive has no
// native flip, so a requested Y-flip copies row by row in reverse row
// order: source row H-1-y lands on destination row y.
func (b *Backend) CopyCapturedTexture(src native.Texture2D, dst backend.SharedTexture, flipY bool) {
	st, ok := dst.(*sharedTexture)
	if src == nil || !ok || st == nil {
		return
	}

	b.mu.RLock()
	ctx := b.ctx
	b.mu.RUnlock()
	if ctx == nil {
		return
	}

	srcDesc := src.Desc()
	dstDesc := st.tex.Desc()

	// During a resize, old-sized frames may still be in the pool. Skip
	// them; the next frame self-corrects.
	if srcDesc.Width != dstDesc.Width || srcDesc.Height != dstDesc.Height {
		wlog.Logger().Debug("legacy: captured frame size mismatch, skipping",
			"src", fmt.Sprintf("%dx%d", srcDesc.Width, srcDesc.Height),
			"dst", fmt.Sprintf("%dx%d", dstDesc.Width, dstDesc.Height))
		return
	}

	if !flipY {
		if err := ctx.CopyResource(st.tex, src); err != nil {
			wlog.Logger().Warn("legacy: captured frame copy failed", "err", err)
		}
		return
	}

	for y := uint32(0); y < srcDesc.Height; y++ {
		box := native.RowBox(srcDesc.Width, srcDesc.Height-1-y)
		if err := ctx.CopyRegion(st.tex, 0, y, src, box); err != nil {
			wlog.Logger().Warn("legacy: captured frame row copy failed", "row", y, "err", err)
			return
		}
	}
}

var _ backend.GraphicsBackend = (*Backend)(nil)
