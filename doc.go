// Package webtex bridges an embedded browser engine's composited output
// into a host real-time engine's texture.
//
// # Overview
//
// The browser composes into an off-screen window; a capture session
// delivers the window's frames through a bounded pool; the graphics
// backend copies each frame into a shared GPU texture the host engine
// samples. Two graphics-API generations are supported behind one
// interface: an immediate-mode legacy backend and a command-queue
// explicit backend that bridges device worlds through an interop layer.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/webtex"
//	    "github.com/gogpu/webtex/backend"
//	)
//
//	ctx := webtex.NewContext()
//	if err := ctx.Initialize(backend.APIExplicit); err != nil { ... }
//
//	// Host engine device callback:
//	ctx.OnDeviceEvent(backend.EventInitialize, host)
//
//	// Per browser instance:
//	h, err := ctx.CreateInstance(cfg)
//
//	// Host render thread, every frame:
//	ctx.HandleRenderEvent(webtex.RenderEventUpdateTexture)
//
// # Architecture
//
// The module is organized into:
//   - Root: Context, the instance table and the render-event entry points
//   - native: the cross-API device contract backends are written against
//   - backend, backend/legacy, backend/explicit: the two graphics backends
//   - compositor: visual-tree construction over a composition contract
//   - capture: the frame-delivery state machine
//   - softdev: a CPU implementation of every contract, used by tests
//
// webtex never creates a GPU device itself: the host engine supplies its
// devices through native.HostInterfaces on every device event.
package webtex
