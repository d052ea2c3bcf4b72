package legacy

import (
	"errors"
	"testing"

	"github.com/gogpu/webtex/backend"
	"github.com/gogpu/webtex/native"
	"github.com/gogpu/webtex/softdev"
)

// pixelSource exposes the raw bytes of a softdev texture.
type pixelSource interface {
	Pixels() []byte
}

func newBoundBackend(t *testing.T) (*Backend, *softdev.Host) {
	t.Helper()
	b := New()
	host := softdev.NewLegacyHost()
	b.ProcessDeviceEvent(backend.EventInitialize, host)
	if !b.IsInitialized() {
		t.Fatal("backend not initialized after device event")
	}
	return b, host
}

// fillRows writes byte(y+1) into every byte of row y.
func fillRows(t *testing.T, tex native.Texture2D) {
	t.Helper()
	px, ok := tex.(pixelSource)
	if !ok {
		t.Fatal("texture does not expose pixels")
	}
	desc := tex.Desc()
	buf := px.Pixels()
	pitch := len(buf) / int(desc.Height)
	for y := 0; y < int(desc.Height); y++ {
		for x := 0; x < pitch; x++ {
			buf[y*pitch+x] = byte(y + 1)
		}
	}
}

func rowValue(t *testing.T, tex native.Texture2D, y int) byte {
	t.Helper()
	px, ok := tex.(pixelSource)
	if !ok {
		t.Fatal("texture does not expose pixels")
	}
	buf := px.Pixels()
	pitch := len(buf) / int(tex.Desc().Height)
	return buf[y*pitch]
}

func TestProcessDeviceEvent(t *testing.T) {
	t.Run("initialize and shutdown", func(t *testing.T) {
		b, host := newBoundBackend(t)
		if b.CompositionDevice() == nil {
			t.Fatal("no composition device after initialize")
		}
		if b.CaptureDevice() != host.LegacyDev() {
			t.Fatal("capture device is not the host device")
		}

		b.ProcessDeviceEvent(backend.EventShutdown, nil)
		if b.IsInitialized() {
			t.Fatal("still initialized after shutdown")
		}
		comps := host.Platform().CompositionDevices()
		if len(comps) != 1 || !comps[0].Released() {
			t.Fatal("composition device not released on shutdown")
		}
	})

	t.Run("double initialize releases previous state", func(t *testing.T) {
		b, host := newBoundBackend(t)
		b.ProcessDeviceEvent(backend.EventInitialize, host)
		if !b.IsInitialized() {
			t.Fatal("not initialized after second initialize")
		}
		comps := host.Platform().CompositionDevices()
		if len(comps) != 2 {
			t.Fatalf("composition devices created = %d, want 2", len(comps))
		}
		if !comps[0].Released() {
			t.Fatal("first composition device leaked")
		}
		if comps[1].Released() {
			t.Fatal("current composition device released")
		}
	})

	t.Run("device loss resets live texture count", func(t *testing.T) {
		b, host := newBoundBackend(t)
		if _, err := b.CreateSharedTexture(64, 64); err != nil {
			t.Fatalf("CreateSharedTexture: %v", err)
		}
		if _, err := b.CreateSharedTexture(32, 32); err != nil {
			t.Fatalf("CreateSharedTexture: %v", err)
		}

		// Losing the device takes every texture with it; the instances
		// drop their handles without destroying them individually.
		b.ProcessDeviceEvent(backend.EventBeforeReset, nil)
		if got := b.LiveTextures(); got != 0 {
			t.Fatalf("LiveTextures = %d after device loss, want 0", got)
		}

		b.ProcessDeviceEvent(backend.EventAfterReset, host)
		tex, err := b.CreateSharedTexture(64, 64)
		if err != nil {
			t.Fatalf("CreateSharedTexture after reset: %v", err)
		}
		if got := b.LiveTextures(); got != 1 {
			t.Fatalf("LiveTextures = %d after reset, want 1", got)
		}
		b.DestroySharedTexture(tex)
	})

	t.Run("composition failure leaves uninitialized", func(t *testing.T) {
		b := New()
		host := softdev.NewLegacyHost()
		host.Platform().FailComposition = true
		b.ProcessDeviceEvent(backend.EventInitialize, host)
		if b.IsInitialized() {
			t.Fatal("initialized despite composition failure")
		}
	})
}

func TestCreateSharedTexture(t *testing.T) {
	t.Run("before initialization", func(t *testing.T) {
		b := New()
		if _, err := b.CreateSharedTexture(64, 64); !errors.Is(err, backend.ErrNotInitialized) {
			t.Fatalf("err = %v, want ErrNotInitialized", err)
		}
	})

	t.Run("zero dimensions", func(t *testing.T) {
		b, _ := newBoundBackend(t)
		if _, err := b.CreateSharedTexture(0, 64); !errors.Is(err, backend.ErrInvalidDimensions) {
			t.Fatalf("err = %v, want ErrInvalidDimensions", err)
		}
	})

	t.Run("create and destroy balance", func(t *testing.T) {
		b, _ := newBoundBackend(t)
		tex, err := b.CreateSharedTexture(64, 48)
		if err != nil {
			t.Fatalf("CreateSharedTexture: %v", err)
		}
		desc := tex.Desc()
		if desc.Width != 64 || desc.Height != 48 {
			t.Fatalf("desc = %dx%d, want 64x48", desc.Width, desc.Height)
		}
		if desc.Format != native.SharedTextureFormat {
			t.Fatalf("format = %v, want shared format", desc.Format)
		}
		if b.LiveTextures() != 1 {
			t.Fatalf("LiveTextures = %d, want 1", b.LiveTextures())
		}
		b.DestroySharedTexture(tex)
		if b.LiveTextures() != 0 {
			t.Fatalf("LiveTextures = %d after destroy, want 0", b.LiveTextures())
		}
	})

	t.Run("destroy nil is a no-op", func(t *testing.T) {
		b, _ := newBoundBackend(t)
		b.DestroySharedTexture(nil)
		if b.LiveTextures() != 0 {
			t.Fatal("LiveTextures changed by nil destroy")
		}
	})
}

func TestResizeSharedTexture(t *testing.T) {
	b, _ := newBoundBackend(t)

	tex, err := b.CreateSharedTexture(800, 600)
	if err != nil {
		t.Fatalf("CreateSharedTexture: %v", err)
	}
	oldNative := tex.Native()

	resized, err := b.ResizeSharedTexture(tex, 1024, 768)
	if err != nil {
		t.Fatalf("ResizeSharedTexture: %v", err)
	}
	if resized.Native() == oldNative {
		t.Fatal("resize returned the same texture identity")
	}
	desc := resized.Desc()
	if desc.Width != 1024 || desc.Height != 768 {
		t.Fatalf("desc = %dx%d, want 1024x768", desc.Width, desc.Height)
	}
	// Resize-to-same-size must still produce a fresh identity.
	again, err := b.ResizeSharedTexture(resized, 1024, 768)
	if err != nil {
		t.Fatalf("ResizeSharedTexture same size: %v", err)
	}
	if again.Native() == resized.Native() {
		t.Fatal("same-size resize reused the texture identity")
	}
	if b.LiveTextures() != 1 {
		t.Fatalf("LiveTextures = %d, want 1", b.LiveTextures())
	}
	b.DestroySharedTexture(again)
}

func TestCopyCapturedTexture(t *testing.T) {
	const width, height = 8, 6

	newSrc := func(t *testing.T, b *Backend, w, h uint32) native.Texture2D {
		src, err := b.CaptureDevice().CreateTexture2D(native.SharedTextureDesc(w, h))
		if err != nil {
			t.Fatalf("source texture: %v", err)
		}
		return src
	}

	t.Run("straight copy", func(t *testing.T) {
		b, _ := newBoundBackend(t)
		dst, err := b.CreateSharedTexture(width, height)
		if err != nil {
			t.Fatalf("CreateSharedTexture: %v", err)
		}
		src := newSrc(t, b, width, height)
		fillRows(t, src)

		b.CopyCapturedTexture(src, dst, false)

		out := dst.Native().(native.Texture2D)
		for y := 0; y < height; y++ {
			if got := rowValue(t, out, y); got != byte(y+1) {
				t.Fatalf("row %d = %d, want %d", y, got, y+1)
			}
		}
	})

	t.Run("flip reverses row order", func(t *testing.T) {
		b, _ := newBoundBackend(t)
		dst, err := b.CreateSharedTexture(width, height)
		if err != nil {
			t.Fatalf("CreateSharedTexture: %v", err)
		}
		src := newSrc(t, b, width, height)
		fillRows(t, src)

		b.CopyCapturedTexture(src, dst, true)

		out := dst.Native().(native.Texture2D)
		for y := 0; y < height; y++ {
			want := byte(height - y)
			if got := rowValue(t, out, y); got != want {
				t.Fatalf("row %d = %d, want %d", y, got, want)
			}
		}
	})

	t.Run("size mismatch skips silently", func(t *testing.T) {
		b, _ := newBoundBackend(t)
		dst, err := b.CreateSharedTexture(width, height)
		if err != nil {
			t.Fatalf("CreateSharedTexture: %v", err)
		}
		src := newSrc(t, b, width*2, height)
		fillRows(t, src)

		b.CopyCapturedTexture(src, dst, true)

		out := dst.Native().(native.Texture2D)
		for y := 0; y < height; y++ {
			if got := rowValue(t, out, y); got != 0 {
				t.Fatalf("row %d = %d after mismatched copy, want untouched 0", y, got)
			}
		}
	})
}
