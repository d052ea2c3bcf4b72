// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package softdev

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/webtex/native"
)

// Host is a software host engine: it owns the devices and hands them to
// the bridge through the native.HostInterfaces surface, the way a real
// engine does on its device events.
type Host struct {
	platform *Platform

	legacy *LegacyDevice

	explicit *ExplicitDevice
	queue    *Queue
}

// NewLegacyHost creates a host running the immediate-mode API.
func NewLegacyHost() *Host {
	return &Host{
		platform: NewPlatform(),
		legacy:   NewLegacyDevice(),
	}
}

// NewExplicitHost creates a host running the command-queue API.
func NewExplicitHost() *Host {
	return &Host{
		platform: NewPlatform(),
		explicit: NewExplicitDevice(),
		queue:    NewQueue(),
	}
}

// Platform returns the host's platform factory for failure injection and
// device inspection.
func (h *Host) Platform() *Platform { return h.platform }

// LegacyDev returns the host's legacy device, or nil on an explicit
// host.
func (h *Host) LegacyDev() *LegacyDevice { return h.legacy }

// ExplicitDev returns the host's explicit device, or nil on a legacy
// host.
func (h *Host) ExplicitDev() *ExplicitDevice { return h.explicit }

// CommandQueue returns the host's queue, or nil on a legacy host.
func (h *Host) CommandQueue() *Queue { return h.queue }

// Device implements gpucontext.DeviceProvider. The software host has no
// gpucontext-level handles.
func (h *Host) Device() gpucontext.Device { return nil }

// Queue implements gpucontext.DeviceProvider.
func (h *Host) Queue() gpucontext.Queue { return nil }

// Adapter implements gpucontext.DeviceProvider.
func (h *Host) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo implements gpucontext.DeviceProvider.
func (h *Host) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "softdev", Type: gpucontext.AdapterTypeSoftware}
}

// SurfaceFormat reports the shared texture format.
func (h *Host) SurfaceFormat() gputypes.TextureFormat { return native.SharedTextureFormat }

// Legacy returns the host's immediate-mode device, or nil.
func (h *Host) Legacy() native.LegacyDevice {
	if h.legacy == nil {
		return nil
	}
	return h.legacy
}

// Explicit returns the host's command-queue device and queue, or nils.
func (h *Host) Explicit() (native.ExplicitDevice, native.CommandQueue) {
	if h.explicit == nil {
		return nil, nil
	}
	return h.explicit, h.queue
}

// GraphicsPlatform returns the platform factory.
func (h *Host) GraphicsPlatform() native.Platform { return h.platform }

var _ native.HostInterfaces = (*Host)(nil)
