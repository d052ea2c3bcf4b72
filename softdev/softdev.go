// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package softdev is a software rendition of the native device contract.
//
// Every device, resource and composition object is backed by plain CPU
// memory: textures are BGRA byte buffers with a row pitch, fences are
// condition variables, the compositor flattens its visual tree with the
// x/image scalers, and capture delivers frames whenever the off-screen
// window presents. It exists so the full bridge pipeline runs and is
// observable without any real GPU.
package softdev

import (
	"sync/atomic"

	"github.com/gogpu/webtex/native"
)

// bytesPerPixel is fixed by the shared texture format: BGRA, 8 bits per
// channel.
const bytesPerPixel = 4

var nextAdapterID atomic.Uint64

// NewAdapterID returns a fresh adapter identity.
func NewAdapterID() native.AdapterID {
	return native.AdapterID(nextAdapterID.Add(1))
}

// alignPitch rounds a row byte width up to align. align of 0 or 1 leaves
// it unchanged.
func alignPitch(rowBytes, align uint32) uint32 {
	if align <= 1 {
		return rowBytes
	}
	return (rowBytes + align - 1) / align * align
}

// surface is the internal byte-level view shared by textures and wrapped
// resource views.
type surface interface {
	native.Texture2D
	bytes() []byte
	pitch() uint32
}

// texture is a CPU-backed 2D texture.
type texture struct {
	desc     native.TextureDesc
	rowPitch uint32
	buf      []byte
	released bool
}

func newTexture(desc native.TextureDesc, rowAlign uint32) *texture {
	p := alignPitch(desc.Width*bytesPerPixel, rowAlign)
	return &texture{
		desc:     desc,
		rowPitch: p,
		buf:      make([]byte, int(p)*int(desc.Height)),
	}
}

func (t *texture) Desc() native.TextureDesc { return t.desc }
func (t *texture) Release()                 { t.released = true; t.buf = nil }
func (t *texture) bytes() []byte            { return t.buf }
func (t *texture) pitch() uint32            { return t.rowPitch }

// Pixels returns the raw BGRA bytes. Test observation hook.
func (t *texture) Pixels() []byte { return t.buf }

// asSurface unwraps a contract texture back to its byte view, rejecting
// textures that do not belong to this package or are already released.
func asSurface(t native.Texture2D) (surface, error) {
	s, ok := t.(surface)
	if !ok || s == nil || s.bytes() == nil {
		return nil, native.ErrInvalidResource
	}
	return s, nil
}

// copyRows copies a rectangle of rows between two pitched buffers.
func copyRows(dst []byte, dstPitch, dstX, dstY uint32, src []byte, srcPitch, srcX, srcY, widthPx, rows uint32) {
	rowBytes := widthPx * bytesPerPixel
	for y := uint32(0); y < rows; y++ {
		do := (dstY+y)*dstPitch + dstX*bytesPerPixel
		so := (srcY+y)*srcPitch + srcX*bytesPerPixel
		copy(dst[do:do+rowBytes], src[so:so+rowBytes])
	}
}
