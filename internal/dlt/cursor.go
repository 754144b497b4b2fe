package dlt

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Cursor is a sequential reader over an immutable byte slice. It is a value:
// every read returns the advanced cursor and leaves the receiver untouched.
type Cursor struct {
	buf   []byte
	off   int
	order binary.ByteOrder
}

// NewCursor returns a cursor at offset 0. msbf selects big-endian reads.
func NewCursor(buf []byte, msbf bool) Cursor {
	return Cursor{buf: buf, order: byteOrder(msbf)}
}

func byteOrder(msbf bool) binary.ByteOrder {
	if msbf {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Offset is the number of bytes consumed so far.
func (c Cursor) Offset() int {
	return c.off
}

// Len is the number of unread bytes.
func (c Cursor) Len() int {
	return len(c.buf) - c.off
}

// Remaining returns the unread bytes without copying.
func (c Cursor) Remaining() []byte {
	return c.buf[c.off:]
}

// BigEndian reports the byte order used for multi-byte reads.
func (c Cursor) BigEndian() bool {
	return c.order == binary.BigEndian
}

// WithOrder returns the same position read with another byte order.
func (c Cursor) WithOrder(msbf bool) Cursor {
	c.order = byteOrder(msbf)
	return c
}

func (c Cursor) take(n int) ([]byte, Cursor, error) {
	if n < 0 || c.Len() < n {
		return nil, c, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrOutOfBounds, n, c.off, c.Len())
	}
	out := c.buf[c.off : c.off+n]
	c.off += n
	return out, c, nil
}

// Bytes returns the next n bytes without copying.
func (c Cursor) Bytes(n int) ([]byte, Cursor, error) {
	return c.take(n)
}

// Skip advances by n bytes.
func (c Cursor) Skip(n int) (Cursor, error) {
	_, next, err := c.take(n)
	return next, err
}

func (c Cursor) Uint8() (uint8, Cursor, error) {
	b, next, err := c.take(1)
	if err != nil {
		return 0, c, err
	}
	return b[0], next, nil
}

func (c Cursor) Uint16() (uint16, Cursor, error) {
	b, next, err := c.take(2)
	if err != nil {
		return 0, c, err
	}
	return c.order.Uint16(b), next, nil
}

func (c Cursor) Uint32() (uint32, Cursor, error) {
	b, next, err := c.take(4)
	if err != nil {
		return 0, c, err
	}
	return c.order.Uint32(b), next, nil
}

func (c Cursor) Uint64() (uint64, Cursor, error) {
	b, next, err := c.take(8)
	if err != nil {
		return 0, c, err
	}
	return c.order.Uint64(b), next, nil
}

func (c Cursor) Int8() (int8, Cursor, error) {
	v, next, err := c.Uint8()
	return int8(v), next, err
}

func (c Cursor) Int16() (int16, Cursor, error) {
	v, next, err := c.Uint16()
	return int16(v), next, err
}

func (c Cursor) Int32() (int32, Cursor, error) {
	v, next, err := c.Uint32()
	return int32(v), next, err
}

func (c Cursor) Int64() (int64, Cursor, error) {
	v, next, err := c.Uint64()
	return int64(v), next, err
}

func (c Cursor) Float32() (float32, Cursor, error) {
	v, next, err := c.Uint32()
	return math.Float32frombits(v), next, err
}

func (c Cursor) Float64() (float64, Cursor, error) {
	v, next, err := c.Uint64()
	return math.Float64frombits(v), next, err
}

// Uint reads an unsigned integer of width 1, 2, 4, 8 or 16 bytes.
// Width 16 is consumed but decodes to zero.
func (c Cursor) Uint(width int) (uint64, Cursor, error) {
	switch width {
	case 1:
		v, next, err := c.Uint8()
		return uint64(v), next, err
	case 2:
		v, next, err := c.Uint16()
		return uint64(v), next, err
	case 4:
		v, next, err := c.Uint32()
		return uint64(v), next, err
	case 8:
		return c.Uint64()
	case 16:
		next, err := c.Skip(16)
		return 0, next, err
	default:
		return 0, c, fmt.Errorf("dlt: unsupported integer width %d", width)
	}
}

// Int reads a signed integer of width 1, 2, 4, 8 or 16 bytes.
// Width 16 is consumed but decodes to zero.
func (c Cursor) Int(width int) (int64, Cursor, error) {
	switch width {
	case 1:
		v, next, err := c.Int8()
		return int64(v), next, err
	case 2:
		v, next, err := c.Int16()
		return int64(v), next, err
	case 4:
		v, next, err := c.Int32()
		return int64(v), next, err
	case 8:
		return c.Int64()
	case 16:
		next, err := c.Skip(16)
		return 0, next, err
	default:
		return 0, c, fmt.Errorf("dlt: unsupported integer width %d", width)
	}
}
