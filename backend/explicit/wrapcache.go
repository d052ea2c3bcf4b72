package explicit

import (
	"fmt"

	"github.com/gogpu/webtex/backend"
	"github.com/gogpu/webtex/internal/wlog"
	"github.com/gogpu/webtex/native"
)

// wrappedTexture pairs an explicit-API resource with a legacy-API view
// over the same memory, plus the dimensions the view was built for. The
// cached dimensions let a lookup detect that the host replaced or resized
// the resource behind the handle.
type wrappedTexture struct {
	res  native.ExplicitResource
	view native.Texture2D

	width  uint32
	height uint32
}

// wrappedForLocked returns the cached wrapper for res, building one on
// first use. A cached wrapper whose dimensions disagree with the
// resource's current descriptor is stale (the host resized the texture
// out from under the cache); it is discarded and rebuilt.
//
// The invariant is at most one live wrapper per outstanding shared
// texture. b.mu must be held.
func (b *Backend) wrappedForLocked(res native.ExplicitResource) (*wrappedTexture, error) {
	cur := res.Desc()

	if w, ok := b.wrapped[res]; ok {
		if w.width == cur.Width && w.height == cur.Height {
			return w, nil
		}
		wlog.Logger().Debug("explicit: wrapped resource stale, rebuilding",
			"cached", fmt.Sprintf("%dx%d", w.width, w.height),
			"current", fmt.Sprintf("%dx%d", cur.Width, cur.Height))
		w.view.Release()
		delete(b.wrapped, res)
	}

	if b.interop == nil {
		return nil, backend.ErrNotInitialized
	}

	// In state: render-target, for browser-side drawing. Out state:
	// shader-readable, for host consumption. All transitions thereafter
	// happen by acquiring and releasing the wrapper.
	view, err := b.interop.WrapResource(res, native.StateRenderTarget, native.StateShaderResource)
	if err != nil {
		return nil, err
	}

	w := &wrappedTexture{res: res, view: view, width: cur.Width, height: cur.Height}
	b.wrapped[res] = w
	return w, nil
}

// evictWrappedLocked drops the wrapper for res, if any. b.mu must be
// held.
func (b *Backend) evictWrappedLocked(res native.ExplicitResource) {
	if w, ok := b.wrapped[res]; ok {
		w.view.Release()
		delete(b.wrapped, res)
	}
}
