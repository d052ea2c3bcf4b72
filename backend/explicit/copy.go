package explicit

import (
	"fmt"

	"github.com/gogpu/webtex/backend"
	"github.com/gogpu/webtex/internal/wlog"
	"github.com/gogpu/webtex/native"
)

// CopyCapturedTexture copies a captured surface into the shared texture.
//
// The captured surface lives on the standalone capture device; the
// destination is reachable only through the interop device. The two are
// not copy-compatible, so the copy is CPU-mediated: stage the captured
// surface into a CPU-readable texture on the capture device, map it, and
// push the mapped bytes into the acquired wrapped destination. The
// wrapper acquire/release brackets the state transition; the interop
// context is flushed at the end.
//
// Any dimension mismatch between the captured and destination surfaces is
// an expected transient during an in-flight resize. It is detected before
// any GPU work and the frame is silently dropped.
func (b *Backend) CopyCapturedTexture(src native.Texture2D, dst backend.SharedTexture, flipY bool) {
	st, ok := dst.(*sharedTexture)
	if src == nil || !ok || st == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return
	}

	srcDesc := src.Desc()
	dstDesc := st.res.Desc()
	if srcDesc.Width != dstDesc.Width || srcDesc.Height != dstDesc.Height {
		wlog.Logger().Debug("explicit: captured frame size mismatch, skipping",
			"src", fmt.Sprintf("%dx%d", srcDesc.Width, srcDesc.Height),
			"dst", fmt.Sprintf("%dx%d", dstDesc.Width, dstDesc.Height))
		return
	}

	w, err := b.wrappedForLocked(st.res)
	if err != nil {
		wlog.Logger().Warn("explicit: wrap for copy failed", "err", err)
		return
	}

	// Stage the captured surface into CPU-readable memory on the capture
	// device.
	staging, err := b.captureDev.CreateStagingTexture(native.StagingTextureDesc(srcDesc))
	if err != nil {
		wlog.Logger().Warn("explicit: staging texture creation failed", "err", err)
		return
	}
	defer staging.Release()

	if err := b.captureCtx.CopyResource(staging, src); err != nil {
		wlog.Logger().Warn("explicit: stage copy failed", "err", err)
		return
	}

	mapped, err := b.captureCtx.Map(staging)
	if err != nil {
		wlog.Logger().Warn("explicit: staging map failed", "err", err)
		return
	}
	defer b.captureCtx.Unmap(staging)

	b.interop.AcquireWrapped(w.view)
	defer func() {
		b.interop.ReleaseWrapped(w.view)
		b.interopCtx.Flush()
	}()

	pitch := mapped.Layout.BytesPerRow
	if !flipY {
		if err := b.interopCtx.UpdateSubresource(w.view, nil, mapped.Data, pitch); err != nil {
			wlog.Logger().Warn("explicit: destination update failed", "err", err)
		}
		return
	}

	// Reverse row order: source row H-1-y lands on destination row y.
	for y := uint32(0); y < srcDesc.Height; y++ {
		srcY := srcDesc.Height - 1 - y
		row := mapped.Data[srcY*pitch : srcY*pitch+pitch]
		box := native.RowBox(srcDesc.Width, y)
		if err := b.interopCtx.UpdateSubresource(w.view, &box, row, pitch); err != nil {
			wlog.Logger().Warn("explicit: destination row update failed", "row", y, "err", err)
			return
		}
	}
}
