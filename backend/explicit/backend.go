// Package explicit implements the graphics backend for the command-queue
// API generation.
//
// The explicit device cannot drive the compositor API by itself, so this
// backend bridges two device worlds: a legacy-compatible interop device
// layered over the host's device and queue (for resource wrapping and
// composition), and a standalone legacy device on the same physical
// adapter used exclusively for capture. A fence provides the blocking
// GPU/CPU synchronization the immediate API got for free.
package explicit

import (
	"fmt"
	"sync"

	"github.com/gogpu/webtex/backend"
	"github.com/gogpu/webtex/internal/wlog"
	"github.com/gogpu/webtex/native"
)

func init() {
	backend.Register(backend.APIExplicit, func() backend.GraphicsBackend {
		return New()
	})
}

// Backend is the command-queue backend.
type Backend struct {
	mu sync.RWMutex

	device native.ExplicitDevice
	queue  native.CommandQueue

	interop    native.InteropDevice
	interopCtx native.LegacyContext

	captureDev native.LegacyDevice
	captureCtx native.LegacyContext

	comp native.CompositionDevice

	fence      native.Fence
	fenceValue uint64

	wrapped map[native.ExplicitResource]*wrappedTexture

	live        int
	initialized bool
}

// New creates an explicit backend. It stays uninitialized until a
// device-initialize event binds the host device and queue.
func New() *Backend {
	return &Backend{wrapped: make(map[native.ExplicitResource]*wrappedTexture)}
}

// APIKind reports backend.APIExplicit.
func (b *Backend) APIKind() backend.APIKind { return backend.APIExplicit }

// IsInitialized reports whether the full device chain is bound.
func (b *Backend) IsInitialized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized
}

// ProcessDeviceEvent builds the device chain on initialize and
// after-reset, and releases it on shutdown and before-reset.
//
// Initialization is strictly ordered: interop device, capture device,
// composition device, fence. Any step's failure aborts and leaves the
// backend uninitialized; a later after-reset event may retry.
func (b *Backend) ProcessDeviceEvent(ev backend.DeviceEvent, host native.HostInterfaces) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch ev {
	case backend.EventInitialize, backend.EventAfterReset:
		b.releaseLocked()
		if host == nil {
			return
		}
		if err := b.acquireLocked(host); err != nil {
			wlog.Logger().Warn("explicit: device acquire failed", "err", err)
			b.releaseLocked()
		}

	case backend.EventShutdown, backend.EventBeforeReset:
		b.releaseLocked()
	}
}

func (b *Backend) acquireLocked(host native.HostInterfaces) error {
	dev, queue := host.Explicit()
	if dev == nil || queue == nil {
		return backend.ErrDeviceCreationFailed
	}
	platform := host.GraphicsPlatform()

	interop, err := platform.CreateInteropDevice(dev, queue)
	if err != nil {
		return fmt.Errorf("%w: interop device: %w", backend.ErrDeviceCreationFailed, err)
	}

	// Capture callbacks cannot safely share the interop device, so
	// capture gets its own device on the same physical adapter.
	captureDev, err := platform.CreateLegacyDevice(dev.AdapterID())
	if err != nil {
		interop.Release()
		return fmt.Errorf("%w: capture device: %w", backend.ErrDeviceCreationFailed, err)
	}

	comp, err := platform.CreateCompositionDevice(interop)
	if err != nil {
		captureDev.Release()
		interop.Release()
		return fmt.Errorf("%w: %w", backend.ErrCompositionFailed, err)
	}

	fence, err := dev.CreateFence(0)
	if err != nil {
		comp.Release()
		captureDev.Release()
		interop.Release()
		return fmt.Errorf("%w: fence: %w", backend.ErrDeviceCreationFailed, err)
	}

	b.device = dev
	b.queue = queue
	b.interop = interop
	b.interopCtx = interop.ImmediateContext()
	b.captureDev = captureDev
	b.captureCtx = captureDev.ImmediateContext()
	b.comp = comp
	b.fence = fence
	b.fenceValue = 0
	b.initialized = true
	wlog.Logger().Info("explicit: device chain bound", "adapter", dev.AdapterID())
	return nil
}

// releaseLocked tears the chain down in reverse build order. Idempotent.
func (b *Backend) releaseLocked() {
	if b.initialized {
		// Nothing submitted before this point may still touch the
		// wrappers or textures we are about to drop.
		b.waitForGPULocked()
	}

	for res, w := range b.wrapped {
		w.view.Release()
		delete(b.wrapped, res)
	}

	if b.fence != nil {
		b.fence.Release()
		b.fence = nil
	}
	if b.comp != nil {
		b.comp.Release()
		b.comp = nil
	}
	if b.captureDev != nil {
		b.captureDev.Release()
		b.captureDev = nil
		b.captureCtx = nil
	}
	if b.interop != nil {
		b.interop.Release()
		b.interop = nil
		b.interopCtx = nil
	}
	b.queue = nil
	b.device = nil
	// Shared textures were committed on the released device; none
	// survive it.
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

// CaptureDevice returns the standalone capture device.
func (b *Backend) CaptureDevice() native.LegacyDevice {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.captureDev
}

// LiveTextures reports the number of shared textures currently allocated.
func (b *Backend) LiveTextures() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}

// sharedTexture is the explicit backend's shared-texture handle.
type sharedTexture struct {
	res native.ExplicitResource
}

func (t *sharedTexture) Desc() native.TextureDesc { return t.res.Desc() }
func (t *sharedTexture) Native() any              { return t.res }

// CreateSharedTexture allocates a raw explicit-API resource. It starts
// shader-readable because the host engine expects to sample it, and is
// render-target-capable for the browser side.
func (b *Backend) CreateSharedTexture(width, height uint32) (backend.SharedTexture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	if width == 0 || height == 0 {
		return nil, backend.ErrInvalidDimensions
	}

	res, err := b.device.CreateCommittedTexture(
		native.SharedTextureDesc(width, height), native.StateShaderResource)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrTextureCreationFailed, err)
	}
	b.live++
	return &sharedTexture{res: res}, nil
}

// DestroySharedTexture releases the resource and evicts any wrapper over
// it. Safe no-op on nil.
func (b *Backend) DestroySharedTexture(tex backend.SharedTexture) {
	st, ok := tex.(*sharedTexture)
	if !ok || st == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.evictWrappedLocked(st.res)
	st.res.Release()
	b.live--
}

// ResizeSharedTexture waits for the GPU before destroying the old
// resource, then allocates a fresh one. The old handle is invalid after
// the call whether or not it succeeds.
func (b *Backend) ResizeSharedTexture(tex backend.SharedTexture, width, height uint32) (backend.SharedTexture, error) {
	// The old texture may still be referenced by in-flight work.
	b.WaitForGPU()
	b.DestroySharedTexture(tex)
	return b.CreateSharedTexture(width, height)
}

// BeginRenderToTexture acquires the cross-API wrapper, transitioning the
// resource to render-target for browser composition.
func (b *Backend) BeginRenderToTexture(tex backend.SharedTexture) {
	st, ok := tex.(*sharedTexture)
	if !ok || st == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return
	}

	w, err := b.wrappedForLocked(st.res)
	if err != nil {
		wlog.Logger().Warn("explicit: wrap for render failed", "err", err)
		return
	}
	b.interop.AcquireWrapped(w.view)
}

// EndRenderToTexture releases the wrapper, transitioning the resource
// back to shader-readable, and flushes the interop context so the
// composed commands are submitted.
func (b *Backend) EndRenderToTexture(tex backend.SharedTexture) {
	st, ok := tex.(*sharedTexture)
	if !ok || st == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return
	}

	w, ok := b.wrapped[st.res]
	if !ok {
		return
	}
	b.interop.ReleaseWrapped(w.view)
	b.interopCtx.Flush()
}

// WaitForGPU blocks until the command queue has processed everything
// submitted before the call: signal the next fence value, then wait on
// the fence if the GPU has not reached it yet.
//
// This is a genuine stall with no timeout. It is reserved for paths that
// destroy or replace a resource that may still be in flight.
func (b *Backend) WaitForGPU() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.waitForGPULocked()
}

func (b *Backend) waitForGPULocked() {
	if b.queue == nil || b.fence == nil {
		return
	}

	b.fenceValue++
	target := b.fenceValue
	if err := b.queue.Signal(b.fence, target); err != nil {
		wlog.Logger().Warn("explicit: fence signal failed", "err", err)
		return
	}
	if b.fence.CompletedValue() < target {
		b.fence.Wait(target)
	}
}

var _ backend.GraphicsBackend = (*Backend)(nil)
