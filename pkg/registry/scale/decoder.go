/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package scale

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEOF is returned when the input ends before a value is complete.
	ErrUnexpectedEOF = errors.New("unexpected end of input")
	// ErrTrailingBytes is returned by Decode when input remains after the value.
	ErrTrailingBytes = errors.New("trailing bytes after value")
	// ErrCompactOverflow is returned when a compact integer does not fit in 64 bits.
	ErrCompactOverflow = errors.New("compact integer overflows uint64")
	// ErrBoundExceeded is returned when a bounded sequence is longer than its bound.
	ErrBoundExceeded = errors.New("bounded sequence exceeds its bound")
	// ErrInvalidBool is returned when a boolean byte is neither 0 nor 1.
	ErrInvalidBool = errors.New("invalid boolean byte")
)

const maxCompactBytes = 8

// Decodable is implemented by values that can read themselves from a Decoder.
type Decodable interface {
	DecodeFrom(d *Decoder)
}

// Bound identifies a configurable length bound of a decoded sequence.
type Bound uint8

// Bounds resolves the maximum length of a Bound. ok is false for a bound it does not limit.
type Bounds interface {
	Bound(b Bound) (max uint32, ok bool)
}

// Decoder reads encoded values. The first failure is sticky: once set, every following read
// returns a zero value and Err reports the failure.
type Decoder struct {
	data   []byte
	off    int
	err    error
	bounds Bounds
}

// NewDecoder returns a Decoder over b.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{data: b}
}

// Decode decodes b into v and requires that the whole input is consumed.
func Decode(b []byte, v Decodable) error {
	return DecodeBounded(b, v, nil)
}

// DecodeBounded is Decode with every sequence read through Bounded or BoundedLen checked against
// bounds.
func DecodeBounded(b []byte, v Decodable, bounds Bounds) error {
	d := NewDecoder(b)
	d.bounds = bounds
	v.DecodeFrom(d)

	if d.err != nil {
		return d.err
	}

	if d.Remaining() != 0 {
		return fmt.Errorf("%w: %d bytes", ErrTrailingBytes, d.Remaining())
	}

	return nil
}

// Err returns the first failure met while decoding.
func (d *Decoder) Err() error {
	return d.err
}

// Fail records err unless an earlier failure exists.
func (d *Decoder) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.off
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}

	if n < 0 || d.Remaining() < n {
		d.Fail(ErrUnexpectedEOF)
		return nil
	}

	b := d.data[d.off : d.off+n]
	d.off += n

	return b
}

// U8 reads a single byte.
func (d *Decoder) U8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}

	return b[0]
}

// Bool reads a boolean.
func (d *Decoder) Bool() bool {
	switch d.U8() {
	case 0:
		return false
	case 1:
		return true
	default:
		d.Fail(ErrInvalidBool)
		return false
	}
}

// U16 reads a little-endian uint16.
func (d *Decoder) U16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint16(b)
}

// U32 reads a little-endian uint32.
func (d *Decoder) U32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint32(b)
}

// U64 reads a little-endian uint64.
func (d *Decoder) U64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint64(b)
}

// Compact reads a compact integer.
func (d *Decoder) Compact() uint64 {
	if d.err != nil || d.Remaining() == 0 {
		d.Fail(ErrUnexpectedEOF)
		return 0
	}

	switch d.data[d.off] & 0b11 {
	case 0b00:
		return uint64(d.U8() >> 2)
	case 0b01:
		return uint64(d.U16() >> 2)
	case 0b10:
		return uint64(d.U32() >> 2)
	default:
		n := int(d.U8()>>2) + 4
		if n > maxCompactBytes {
			d.Fail(ErrCompactOverflow)
			return 0
		}

		b := d.take(n)

		var v uint64

		for i := len(b) - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}

		return v
	}
}

// Len reads a collection length and checks it against the remaining input, assuming each
// element takes at least one byte.
func (d *Decoder) Len() int {
	n := d.Compact()
	if d.err != nil {
		return 0
	}

	if n > uint64(d.Remaining()) {
		d.Fail(ErrUnexpectedEOF)
		return 0
	}

	return int(n)
}

// Fixed reads exactly n bytes and returns a copy.
func (d *Decoder) Fixed(n int) []byte {
	b := d.take(n)
	if b == nil {
		return nil
	}

	out := make([]byte, n)
	copy(out, b)

	return out
}

// FixedInto fills dst from the input.
func (d *Decoder) FixedInto(dst []byte) {
	b := d.take(len(dst))
	if b != nil {
		copy(dst, b)
	}
}

// Vec reads a length-prefixed byte sequence.
func (d *Decoder) Vec() []byte {
	n := d.Len()
	if d.err != nil {
		return nil
	}

	return d.Fixed(n)
}

// BoundedVec reads a length-prefixed byte sequence no longer than max.
func (d *Decoder) BoundedVec(max uint32) []byte {
	b := d.Vec()
	if uint64(len(b)) > uint64(max) {
		d.Fail(fmt.Errorf("%w: %d > %d", ErrBoundExceeded, len(b), max))
		return nil
	}

	return b
}

func (d *Decoder) bound(b Bound) (uint32, bool) {
	if d.bounds == nil {
		return 0, false
	}

	return d.bounds.Bound(b)
}

// Bounded reads a length-prefixed byte sequence limited by b. A bound the decoder has no limit for
// reads like Vec.
func (d *Decoder) Bounded(b Bound) []byte {
	max, ok := d.bound(b)
	if !ok {
		return d.Vec()
	}

	return d.BoundedVec(max)
}

// BoundedLen reads a collection length limited by b.
func (d *Decoder) BoundedLen(b Bound) int {
	n := d.Len()

	if max, ok := d.bound(b); ok && d.err == nil && uint64(n) > uint64(max) {
		d.Fail(fmt.Errorf("%w: %d > %d", ErrBoundExceeded, n, max))
		return 0
	}

	return n
}

// String reads a length-prefixed UTF-8 string.
func (d *Decoder) String() string {
	return string(d.Vec())
}

// Option reads the presence byte of an optional value.
func (d *Decoder) Option() bool {
	return d.Bool()
}
