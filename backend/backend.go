package backend

import (
	"errors"

	"github.com/gogpu/webtex/native"
)

// Common backend errors.
var (
	// ErrUnsupportedAPI is returned when no backend implements the
	// requested graphics API.
	ErrUnsupportedAPI = errors.New("backend: unsupported graphics API")

	// ErrNotInitialized is returned when operations are called before a
	// device-initialize event has bound a device.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrInvalidDimensions is returned when width or height is zero.
	ErrInvalidDimensions = errors.New("backend: invalid dimensions")

	// ErrTextureCreationFailed is returned when the underlying texture
	// allocation fails.
	ErrTextureCreationFailed = errors.New("backend: texture creation failed")

	// ErrDeviceCreationFailed is returned when a dependent device cannot
	// be built during initialization.
	ErrDeviceCreationFailed = errors.New("backend: device creation failed")

	// ErrCompositionFailed is returned when the composition device cannot
	// be created.
	ErrCompositionFailed = errors.New("backend: composition device creation failed")
)

// APIKind selects the graphics-API generation a backend drives.
type APIKind int32

const (
	// APIUnknown is the zero value; no backend implements it.
	APIUnknown APIKind = iota

	// APILegacy is the immediate-mode graphics API.
	APILegacy

	// APIExplicit is the command-queue graphics API with manual resource
	// state management.
	APIExplicit
)

// String returns the API name.
func (k APIKind) String() string {
	switch k {
	case APILegacy:
		return "legacy"
	case APIExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// DeviceEvent is a host-engine graphics device notification.
type DeviceEvent int32

const (
	// EventInitialize is sent once when the host's device becomes
	// available.
	EventInitialize DeviceEvent = iota

	// EventShutdown is sent when the host's device goes away for good.
	EventShutdown

	// EventBeforeReset is sent before the host resets its device; all
	// device-dependent objects must be released.
	EventBeforeReset

	// EventAfterReset is sent after a device reset; objects are rebuilt
	// against the new device.
	EventAfterReset
)

// SharedTexture is the GPU surface carrying composited browser output
// into the host engine. It is owned exclusively by the backend that
// created it; holders keep only the handle and must re-query after a
// resize or device restore because the identity changes.
type SharedTexture interface {
	// Desc returns the texture's current descriptor.
	Desc() native.TextureDesc

	// Native returns the backend-specific native handle the host engine
	// binds: a native.Texture2D on the legacy backend, a
	// native.ExplicitResource on the explicit backend.
	Native() any
}

// GraphicsBackend abstracts the two graphics-API generations. All
// operations are issued from the host's render-thread callback domain;
// implementations serialize internally and never block in the per-frame
// paths.
type GraphicsBackend interface {
	// APIKind reports which graphics API this backend drives.
	APIKind() APIKind

	// ProcessDeviceEvent binds or releases the host device. Initialize
	// and AfterReset acquire the device and rebuild all dependent
	// objects; BeforeReset and Shutdown release them. Acquiring twice
	// without an intervening release first releases the previous state,
	// so repeated initialize events neither leak nor double-acquire.
	ProcessDeviceEvent(ev DeviceEvent, host native.HostInterfaces)

	// IsInitialized reports whether a device is currently bound.
	IsInitialized() bool

	// CreateSharedTexture allocates a shared texture in the fixed color
	// format, render-target-capable and shader-visible.
	CreateSharedTexture(width, height uint32) (SharedTexture, error)

	// DestroySharedTexture releases a shared texture. Passing nil is a
	// no-op.
	DestroySharedTexture(tex SharedTexture)

	// ResizeSharedTexture replaces tex with a new texture of the given
	// size. This is destroy-then-create, never an in-place resize: the
	// old handle is invalid after the call whether or not it succeeds.
	ResizeSharedTexture(tex SharedTexture, width, height uint32) (SharedTexture, error)

	// BeginRenderToTexture brackets the start of a frame of browser
	// composition into tex.
	BeginRenderToTexture(tex SharedTexture)

	// EndRenderToTexture brackets the end of a frame of browser
	// composition into tex.
	EndRenderToTexture(tex SharedTexture)

	// WaitForGPU blocks until all GPU work submitted before the call has
	// completed. Reserved for paths that destroy or replace a resource
	// possibly still in flight (resize, teardown); never called from the
	// per-frame update path.
	WaitForGPU()

	// CopyCapturedTexture copies a captured surface into a shared
	// texture, optionally flipping rows vertically. A dimension mismatch
	// between src and dst is an expected transient during an in-flight
	// resize: the frame is skipped without error and without any GPU
	// work.
	CopyCapturedTexture(src native.Texture2D, dst SharedTexture, flipY bool)

	// CompositionDevice returns the composition device the browser
	// collaborator composes through, or nil before initialization.
	CompositionDevice() native.CompositionDevice

	// CaptureDevice returns the legacy device capture frame pools run
	// on. On the legacy backend this is the main device; on the explicit
	// backend it is a standalone device on the same adapter.
	CaptureDevice() native.LegacyDevice

	// LiveTextures reports the number of shared textures currently
	// allocated. Diagnostic.
	LiveTextures() int
}
