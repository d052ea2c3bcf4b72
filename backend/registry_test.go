package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/webtex/native"
)

// stubBackend is a minimal GraphicsBackend for registry tests.
type stubBackend struct {
	api APIKind
}

func (s *stubBackend) APIKind() APIKind                                      { return s.api }
func (s *stubBackend) ProcessDeviceEvent(DeviceEvent, native.HostInterfaces) {}
func (s *stubBackend) IsInitialized() bool                                   { return false }

func (s *stubBackend) CreateSharedTexture(uint32, uint32) (SharedTexture, error) {
	return nil, ErrNotInitialized
}

func (s *stubBackend) DestroySharedTexture(SharedTexture) {}

func (s *stubBackend) ResizeSharedTexture(SharedTexture, uint32, uint32) (SharedTexture, error) {
	return nil, ErrNotInitialized
}

func (s *stubBackend) BeginRenderToTexture(SharedTexture)                        {}
func (s *stubBackend) EndRenderToTexture(SharedTexture)                          {}
func (s *stubBackend) WaitForGPU()                                               {}
func (s *stubBackend) CopyCapturedTexture(native.Texture2D, SharedTexture, bool) {}
func (s *stubBackend) CompositionDevice() native.CompositionDevice               { return nil }
func (s *stubBackend) CaptureDevice() native.LegacyDevice                        { return nil }
func (s *stubBackend) LiveTextures() int                                         { return 0 }

func TestRegistry(t *testing.T) {
	const kind = APIKind(200)

	t.Run("unregistered kind errors", func(t *testing.T) {
		if _, err := New(kind); !errors.Is(err, ErrUnsupportedAPI) {
			t.Fatalf("New(unregistered) err = %v, want ErrUnsupportedAPI", err)
		}
	})

	t.Run("register and create", func(t *testing.T) {
		Register(kind, func() GraphicsBackend { return &stubBackend{api: kind} })
		defer Unregister(kind)

		if !IsRegistered(kind) {
			t.Fatal("IsRegistered = false after Register")
		}
		b, err := New(kind)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if b.APIKind() != kind {
			t.Fatalf("APIKind = %v, want %v", b.APIKind(), kind)
		}
	})

	t.Run("unregister", func(t *testing.T) {
		Register(kind, func() GraphicsBackend { return &stubBackend{api: kind} })
		Unregister(kind)
		if IsRegistered(kind) {
			t.Fatal("IsRegistered = true after Unregister")
		}
	})
}

func TestAPIKindString(t *testing.T) {
	tests := []struct {
		kind APIKind
		want string
	}{
		{APILegacy, "legacy"},
		{APIExplicit, "explicit"},
		{APIUnknown, "unknown"},
		{APIKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("APIKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
