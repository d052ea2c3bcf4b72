// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"github.com/gogpu/gpucontext"
)

// HostInterfaces is the accessor surface the host engine supplies with
// each device event. webtex receives devices from the host, it does not
// create them, so the provider half follows gpucontext.DeviceProvider:
// the raw device, queue and adapter handles pass through untyped, while
// the typed accessors below expose the generation-specific contract the
// backends are written against.
//
// Exactly one generation is bound at a time: Legacy returns nil when the
// host runs the explicit API, and Explicit returns nils when the host
// runs the legacy API.
type HostInterfaces interface {
	gpucontext.DeviceProvider

	// Legacy returns the host's immediate-mode device, or nil.
	Legacy() LegacyDevice

	// Explicit returns the host's command-queue device and the queue it
	// renders on, or nils.
	Explicit() (ExplicitDevice, CommandQueue)

	// GraphicsPlatform returns the platform factory for interop and
	// composition objects.
	GraphicsPlatform() Platform
}
