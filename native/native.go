// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native defines the cross-API device contract that webtex
// backends are written against.
//
// Two generations of graphics device are covered: a legacy immediate-mode
// device (textures, an immediate context, blocking map) and an explicit
// command-queue device (committed resources with tracked states, fences).
// webtex never creates a device itself; the host engine hands devices in
// through HostInterfaces on every device event, following the gpucontext
// provider model.
package native

import (
	"github.com/gogpu/gputypes"
)

// AdapterID identifies a physical graphics adapter. Devices created
// against the same AdapterID share physical GPU memory visibility.
type AdapterID uint64

// ResourceState is the access state of an explicit-API resource.
// State transitions are performed by acquiring and releasing wrapped
// resources, never by manual barriers.
type ResourceState int32

const (
	// StateCommon is the state of a resource with no declared access.
	StateCommon ResourceState = iota

	// StateRenderTarget allows rendering into the resource.
	StateRenderTarget

	// StateShaderResource allows sampling the resource from shaders.
	// This is the state the host engine reads shared textures in.
	StateShaderResource
)

// String returns the state name for logging.
func (s ResourceState) String() string {
	switch s {
	case StateRenderTarget:
		return "render-target"
	case StateShaderResource:
		return "shader-resource"
	default:
		return "common"
	}
}

// SharedTextureFormat is the fixed color format of every shared texture:
// 4 channels, 8 bits per channel, BGRA order as composited browser engines
// produce it.
const SharedTextureFormat = gputypes.TextureFormatBGRA8Unorm

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	// Label is an optional debug name.
	Label string

	// Width and Height are the dimensions in pixels.
	Width  uint32
	Height uint32

	// Format is the pixel format.
	Format gputypes.TextureFormat

	// Usage declares how the texture may be bound.
	Usage gputypes.TextureUsage
}

// Extent returns the descriptor's size as an Extent3D.
func (d TextureDesc) Extent() gputypes.Extent3D {
	return gputypes.Extent3D{Width: d.Width, Height: d.Height, DepthOrArrayLayers: 1}
}

// SharedTextureDesc returns the descriptor for a shared texture: the fixed
// color format, render-target-capable and shader-visible, so the browser
// can draw into it and the host engine can sample it.
func SharedTextureDesc(width, height uint32) TextureDesc {
	return TextureDesc{
		Label:  "webtex shared",
		Width:  width,
		Height: height,
		Format: SharedTextureFormat,
		Usage: gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageRenderAttachment |
			gputypes.TextureUsageCopySrc |
			gputypes.TextureUsageCopyDst,
	}
}

// StagingTextureDesc returns the descriptor for a CPU-readable staging
// texture matching src's size and format.
func StagingTextureDesc(src TextureDesc) TextureDesc {
	return TextureDesc{
		Label:  "webtex staging",
		Width:  src.Width,
		Height: src.Height,
		Format: src.Format,
		Usage:  gputypes.TextureUsageCopyDst,
	}
}

// Box is a sub-region of a 2D texture. Right and Bottom are exclusive.
type Box struct {
	Left, Top     uint32
	Right, Bottom uint32
}

// RowBox returns the box covering one full-width row of a surface.
func RowBox(width, y uint32) Box {
	return Box{Left: 0, Top: y, Right: width, Bottom: y + 1}
}

// Mapped is the CPU view of a mapped staging texture. Data holds at least
// Layout.BytesPerRow bytes per row; rows may be padded beyond the pixel
// width.
type Mapped struct {
	Data   []byte
	Layout gputypes.TextureDataLayout
}
