/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package scale

import (
	"bytes"
	"encoding/binary"
	"math/bits"
)

const (
	singleByteMax = 1<<6 - 1
	twoByteMax    = 1<<14 - 1
	fourByteMax   = 1<<30 - 1
)

// Encodable is implemented by values that can write themselves to an Encoder.
type Encodable interface {
	EncodeTo(e *Encoder)
}

// Encoder accumulates encoded values.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode returns the encoding of v.
func Encode(v Encodable) []byte {
	e := NewEncoder()
	v.EncodeTo(e)

	return e.Bytes()
}

// Bytes returns the encoded bytes written so far.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// U8 writes a single byte.
func (e *Encoder) U8(v uint8) {
	e.buf.WriteByte(v)
}

// Bool writes a boolean as 0 or 1.
func (e *Encoder) Bool(v bool) {
	if v {
		e.U8(1)
		return
	}

	e.U8(0)
}

// U16 writes a little-endian uint16.
func (e *Encoder) U16(v uint16) {
	var b [2]byte

	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

// U32 writes a little-endian uint32.
func (e *Encoder) U32(v uint32) {
	var b [4]byte

	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

// U64 writes a little-endian uint64.
func (e *Encoder) U64(v uint64) {
	var b [8]byte

	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

// Compact writes v in the compact integer form.
func (e *Encoder) Compact(v uint64) {
	switch {
	case v <= singleByteMax:
		e.U8(uint8(v << 2))
	case v <= twoByteMax:
		e.U16(uint16(v<<2) | 0b01)
	case v <= fourByteMax:
		e.U32(uint32(v<<2) | 0b10)
	default:
		n := (bits.Len64(v) + 7) / 8

		e.U8(uint8((n-4)<<2) | 0b11)

		for i := 0; i < n; i++ {
			e.U8(uint8(v >> (8 * i)))
		}
	}
}

// Fixed writes b without a length prefix.
func (e *Encoder) Fixed(b []byte) {
	e.buf.Write(b)
}

// Vec writes b prefixed with its compact length.
func (e *Encoder) Vec(b []byte) {
	e.Compact(uint64(len(b)))
	e.buf.Write(b)
}

// String writes s as a length-prefixed UTF-8 byte sequence.
func (e *Encoder) String(s string) {
	e.Vec([]byte(s))
}

// Option writes the presence byte of an optional value. The caller writes the value itself
// when present is true.
func (e *Encoder) Option(present bool) {
	e.Bool(present)
}

// Len writes a collection length.
func (e *Encoder) Len(n int) {
	e.Compact(uint64(n))
}
