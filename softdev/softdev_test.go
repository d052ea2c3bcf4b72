// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package softdev

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/webtex/native"
)

func TestLegacyContextOps(t *testing.T) {
	dev := NewLegacyDevice()
	ctx := dev.ImmediateContext()

	newTex := func(t *testing.T, w, h uint32) native.Texture2D {
		t.Helper()
		tex, err := dev.CreateTexture2D(native.SharedTextureDesc(w, h))
		if err != nil {
			t.Fatalf("CreateTexture2D: %v", err)
		}
		return tex
	}

	t.Run("copy resource requires matching dims", func(t *testing.T) {
		a := newTex(t, 4, 4)
		b := newTex(t, 8, 4)
		if err := ctx.CopyResource(a, b); err == nil {
			t.Fatal("mismatched CopyResource succeeded")
		}
	})

	t.Run("copy region places rows", func(t *testing.T) {
		src := newTex(t, 4, 4)
		dst := newTex(t, 4, 4)
		sb := src.(*texture).buf
		for i := range sb {
			sb[i] = 7
		}
		// Copy source row 3 onto destination row 0.
		if err := ctx.CopyRegion(dst, 0, 0, src, native.RowBox(4, 3)); err != nil {
			t.Fatalf("CopyRegion: %v", err)
		}
		db := dst.(*texture).buf
		for x := 0; x < 16; x++ {
			if db[x] != 7 {
				t.Fatalf("dst row 0 byte %d = %d, want 7", x, db[x])
			}
		}
		if db[16] != 0 {
			t.Fatal("CopyRegion wrote outside the destination row")
		}
	})

	t.Run("map reports padded pitch", func(t *testing.T) {
		dev := NewLegacyDevice()
		dev.RowAlign = 256
		st, err := dev.CreateStagingTexture(native.StagingTextureDesc(native.SharedTextureDesc(10, 2)))
		if err != nil {
			t.Fatalf("CreateStagingTexture: %v", err)
		}
		m, err := dev.ImmediateContext().Map(st)
		if err != nil {
			t.Fatalf("Map: %v", err)
		}
		if m.Layout.BytesPerRow != 256 {
			t.Fatalf("BytesPerRow = %d, want 256", m.Layout.BytesPerRow)
		}
		if len(m.Data) != 512 {
			t.Fatalf("len(Data) = %d, want 512", len(m.Data))
		}
	})

	t.Run("released texture is rejected", func(t *testing.T) {
		a := newTex(t, 4, 4)
		b := newTex(t, 4, 4)
		a.Release()
		if err := ctx.CopyResource(b, a); err == nil {
			t.Fatal("copy from released texture succeeded")
		}
	})
}

func TestFenceAndQueue(t *testing.T) {
	t.Run("immediate mode completes on signal", func(t *testing.T) {
		q := NewQueue()
		f := NewFence(0)
		if err := q.Signal(f, 5); err != nil {
			t.Fatalf("Signal: %v", err)
		}
		if got := f.CompletedValue(); got != 5 {
			t.Fatalf("CompletedValue = %d, want 5", got)
		}
		f.Wait(5) // must not block
	})

	t.Run("manual mode defers until pump", func(t *testing.T) {
		q := NewQueue()
		q.SetManual(true)
		f := NewFence(0)
		if err := q.Signal(f, 1); err != nil {
			t.Fatalf("Signal: %v", err)
		}
		if got := f.CompletedValue(); got != 0 {
			t.Fatalf("CompletedValue = %d before pump, want 0", got)
		}

		done := make(chan struct{})
		go func() {
			f.Wait(1)
			close(done)
		}()
		select {
		case <-done:
			t.Fatal("Wait returned before pump")
		case <-time.After(20 * time.Millisecond):
		}

		q.Pump()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Wait did not return after pump")
		}
	})

	t.Run("release wakes waiters", func(t *testing.T) {
		f := NewFence(0)
		done := make(chan struct{})
		go func() {
			f.Wait(10)
			close(done)
		}()
		f.Release()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Wait did not return after fence release")
		}
	})
}

func TestResourceStates(t *testing.T) {
	dev := NewExplicitDevice()
	queue := NewQueue()
	p := NewPlatform()
	interop, err := p.CreateInteropDevice(dev, queue)
	if err != nil {
		t.Fatalf("CreateInteropDevice: %v", err)
	}

	res, err := dev.CreateCommittedTexture(native.SharedTextureDesc(8, 8), native.StateShaderResource)
	if err != nil {
		t.Fatalf("CreateCommittedTexture: %v", err)
	}
	r := res.(*Resource)

	view, err := interop.WrapResource(res, native.StateRenderTarget, native.StateShaderResource)
	if err != nil {
		t.Fatalf("WrapResource: %v", err)
	}

	interop.AcquireWrapped(view)
	if r.State() != native.StateRenderTarget {
		t.Fatalf("state after acquire = %v, want render-target", r.State())
	}
	interop.ReleaseWrapped(view)
	if r.State() != native.StateShaderResource {
		t.Fatalf("state after release = %v, want shader-resource", r.State())
	}

	t.Run("view writes land in the resource", func(t *testing.T) {
		data := make([]byte, 8*4)
		for i := range data {
			data[i] = 9
		}
		box := native.RowBox(8, 2)
		if err := interop.ImmediateContext().UpdateSubresource(view, &box, data, 8*4); err != nil {
			t.Fatalf("UpdateSubresource: %v", err)
		}
		if r.Pixels()[2*8*4] != 9 {
			t.Fatal("write through the view did not reach the resource")
		}
	})
}

func TestFramePool(t *testing.T) {
	newPool := func(t *testing.T) (*Window, *framePool, *captureSession) {
		t.Helper()
		win := NewWindow(16, 16)
		dev := NewCaptureDevice(NewLegacyDevice())
		item, err := dev.CreateItemForWindow(win)
		if err != nil {
			t.Fatalf("CreateItemForWindow: %v", err)
		}
		pool, err := dev.CreateFramePool(gputypes.TextureFormatBGRA8Unorm, 2, 16, 16)
		if err != nil {
			t.Fatalf("CreateFramePool: %v", err)
		}
		session, err := dev.CreateSession(pool, item)
		if err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
		if err := session.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
		return win, pool.(*framePool), session.(*captureSession)
	}

	t.Run("starves after depth unclosed frames", func(t *testing.T) {
		win, pool, _ := newPool(t)
		win.Present()
		win.Present()
		win.Present()
		if got := pool.Captured(); got != 2 {
			t.Fatalf("captured = %d, want 2", got)
		}
		if got := pool.Dropped(); got != 1 {
			t.Fatalf("dropped = %d, want 1", got)
		}

		// Closing a frame frees its slot.
		f := pool.TryGetNextFrame()
		if f == nil {
			t.Fatal("no ready frame")
		}
		f.Close()
		win.Present()
		if got := pool.Captured(); got != 3 {
			t.Fatalf("captured = %d after close, want 3", got)
		}
	})

	t.Run("empty pool returns nil", func(t *testing.T) {
		_, pool, _ := newPool(t)
		if f := pool.TryGetNextFrame(); f != nil {
			t.Fatal("frame from an empty pool")
		}
	})

	t.Run("closed session stops delivery", func(t *testing.T) {
		win, pool, session := newPool(t)
		session.Close()
		win.Present()
		if got := pool.Captured(); got != 0 {
			t.Fatalf("captured = %d after session close, want 0", got)
		}
	})

	t.Run("closed pool drops presents", func(t *testing.T) {
		win, pool, _ := newPool(t)
		pool.Close()
		win.Present()
		if f := pool.TryGetNextFrame(); f != nil {
			t.Fatal("frame delivered into a closed pool")
		}
	})
}

func TestWindowFlatten(t *testing.T) {
	win := NewWindow(8, 8)
	comp := NewCompositor()

	target, err := comp.CreateWindowTarget(win)
	if err != nil {
		t.Fatalf("CreateWindowTarget: %v", err)
	}
	rootV, err := comp.CreateContainerVisual()
	if err != nil {
		t.Fatalf("CreateContainerVisual: %v", err)
	}
	root := rootV.(*Visual)
	root.SetSize(8, 8)
	root.SetVisible(true)
	if err := target.SetRoot(root); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}
	childV, _ := comp.CreateContainerVisual()
	child := childV.(*Visual)
	child.SetRelativeSize(1, 1)
	if err := root.InsertAtTop(child); err != nil {
		t.Fatalf("InsertAtTop: %v", err)
	}

	// Content at a different size gets scaled to the child's resolved
	// rectangle.
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	child.SetContent(src)

	dev := NewCaptureDevice(NewLegacyDevice())
	item, _ := dev.CreateItemForWindow(win)
	pool, _ := dev.CreateFramePool(gputypes.TextureFormatBGRA8Unorm, 2, 8, 8)
	session, _ := dev.CreateSession(pool, item)
	if err := session.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	win.Present()
	frame := pool.TryGetNextFrame()
	if frame == nil {
		t.Fatal("no frame after present")
	}
	defer frame.Close()

	tex := frame.Surface().Texture().(*texture)
	// BGRA: red content means byte 2 is 255 at the center.
	center := tex.buf[(4*8+4)*4:]
	if center[2] != 255 || center[3] != 255 {
		t.Fatalf("center pixel = %v, want opaque red", center[:4])
	}
}

func TestHostProvider(t *testing.T) {
	// The software host hands out no gpucontext-level handles; the
	// provider surface is present so hosts can be passed wherever a
	// real engine's device provider goes.
	h := NewLegacyHost()
	if h.Device() != nil || h.Queue() != nil || h.Adapter() != nil {
		t.Fatal("software host returned a non-nil gpucontext handle")
	}
	if info := h.AdapterInfo(); info.Type != gpucontext.AdapterTypeSoftware {
		t.Fatalf("AdapterInfo.Type = %v, want software", info.Type)
	}
	if h.SurfaceFormat() != native.SharedTextureFormat {
		t.Fatalf("SurfaceFormat = %v, want shared format", h.SurfaceFormat())
	}
}
