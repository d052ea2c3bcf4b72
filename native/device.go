// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import "errors"

// Package errors for the device contract.
var (
	// ErrDeviceLost is returned when the underlying device is gone.
	ErrDeviceLost = errors.New("native: device lost")

	// ErrInvalidResource is returned when a texture or resource handle does
	// not belong to the device it was passed to.
	ErrInvalidResource = errors.New("native: invalid resource")

	// ErrMapFailed is returned when a staging texture cannot be mapped.
	ErrMapFailed = errors.New("native: map failed")
)

// Texture2D is a texture owned by a legacy-API device, or a legacy-API
// view wrapped over an explicit-API resource.
type Texture2D interface {
	// Desc returns the texture's current descriptor.
	Desc() TextureDesc

	// Release frees the texture. Safe to call once.
	Release()
}

// StagingTexture is a CPU-readable texture used to read GPU surfaces
// back. It is a Texture2D so copy operations accept it as a destination.
type StagingTexture interface {
	Texture2D
}

// LegacyContext is the immediate context of a legacy device. All
// operations are submitted in call order.
type LegacyContext interface {
	// CopyResource copies src into dst in full. Both textures must have
	// identical dimensions and format, and belong to this context's device.
	CopyResource(dst, src Texture2D) error

	// CopyRegion copies the src sub-region box to (dstX, dstY) in dst.
	CopyRegion(dst Texture2D, dstX, dstY uint32, src Texture2D, box Box) error

	// UpdateSubresource pushes CPU bytes into dst. A nil box updates the
	// whole surface; otherwise only the box region is written. rowPitch is
	// the byte stride between consecutive rows in data.
	UpdateSubresource(dst Texture2D, box *Box, data []byte, rowPitch uint32) error

	// Map blocks until st is CPU-readable and returns its bytes.
	Map(st StagingTexture) (*Mapped, error)

	// Unmap invalidates the Mapped view returned by Map.
	Unmap(st StagingTexture)

	// Flush submits all pending work to the GPU.
	Flush()
}

// LegacyDevice is an immediate-mode graphics device.
type LegacyDevice interface {
	// CreateTexture2D allocates a GPU texture.
	CreateTexture2D(desc TextureDesc) (Texture2D, error)

	// CreateStagingTexture allocates a CPU-readable staging texture.
	CreateStagingTexture(desc TextureDesc) (StagingTexture, error)

	// ImmediateContext returns the device's immediate context. The context
	// is owned by the device and valid until Release.
	ImmediateContext() LegacyContext

	// AdapterID identifies the physical adapter the device runs on.
	AdapterID() AdapterID

	// Release frees the device.
	Release()
}

// ExplicitResource is a committed resource on an explicit-API device.
type ExplicitResource interface {
	// Desc returns the resource's current descriptor. The host engine may
	// replace the resource behind a cached handle; callers revalidate
	// dimensions against this descriptor before reuse.
	Desc() TextureDesc

	// Release frees the resource.
	Release()
}

// Fence is a monotonic GPU/CPU synchronization counter with one blocking
// wait primitive.
type Fence interface {
	// CompletedValue returns the highest counter value the GPU has
	// processed.
	CompletedValue() uint64

	// Wait blocks the calling goroutine until CompletedValue reaches
	// value. No timeout.
	Wait(value uint64)

	// Release frees the fence and its wait primitive.
	Release()
}

// CommandQueue is the submission queue of an explicit-API device.
type CommandQueue interface {
	// Signal enqueues a fence signal: once the GPU has processed all work
	// submitted before this call, the fence's completed value becomes
	// value.
	Signal(f Fence, value uint64) error
}

// ExplicitDevice is a command-queue graphics device with manual resource
// state management.
type ExplicitDevice interface {
	// CreateCommittedTexture allocates a resource in the given initial
	// state.
	CreateCommittedTexture(desc TextureDesc, initial ResourceState) (ExplicitResource, error)

	// CreateFence creates a fence starting at the given counter value.
	CreateFence(initial uint64) (Fence, error)

	// AdapterID identifies the physical adapter the device runs on.
	AdapterID() AdapterID

	// Release frees the device.
	Release()
}

// InteropDevice is a legacy-compatible device layered over an explicit
// device and its command queue. It shares the explicit device's memory
// and can wrap explicit resources as legacy textures.
type InteropDevice interface {
	LegacyDevice

	// WrapResource creates a legacy-API view over res's memory. Acquiring
	// the view transitions res to the in state; releasing it transitions
	// res to the out state.
	WrapResource(res ExplicitResource, in, out ResourceState) (Texture2D, error)

	// AcquireWrapped transitions the wrapped resource to its in state and
	// makes the view usable on this device.
	AcquireWrapped(t Texture2D)

	// ReleaseWrapped transitions the wrapped resource back to its out
	// state. The view must not be used until the next AcquireWrapped.
	ReleaseWrapped(t Texture2D)
}

// CompositionDevice drives the OS compositor. webtex itself never draws
// through it; it is created on the device the browser composes with and
// handed to the browser collaborator.
type CompositionDevice interface {
	Release()
}

// Platform creates devices and composition objects. It is the Go
// rendition of the platform factory surface (adapter enumeration, interop
// layering, composition device creation).
type Platform interface {
	// CreateInteropDevice layers a legacy-compatible device over an
	// explicit device and the queue its work is submitted on.
	CreateInteropDevice(dev ExplicitDevice, queue CommandQueue) (InteropDevice, error)

	// CreateLegacyDevice creates a standalone legacy device on the adapter
	// with the given identity.
	CreateLegacyDevice(id AdapterID) (LegacyDevice, error)

	// CreateCompositionDevice builds a composition device bound to dev.
	CreateCompositionDevice(dev LegacyDevice) (CompositionDevice, error)
}
