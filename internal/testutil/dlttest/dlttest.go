// Package dlttest builds DLT wire bytes for tests.
package dlttest

import (
	"encoding/binary"
	"math"
)

// Type info bits used by the argument builders.
const (
	TYLE8   uint32 = 1
	TYLE16  uint32 = 2
	TYLE32  uint32 = 3
	TYLE64  uint32 = 4
	TYLE128 uint32 = 5

	BOOL uint32 = 0x10
	SINT uint32 = 0x20
	UINT uint32 = 0x40
	FLOA uint32 = 0x80
	ARAY uint32 = 0x100
	STRG uint32 = 0x200
	RAWD uint32 = 0x400
	VARI uint32 = 0x800
	FIXP uint32 = 0x1000
	TRAI uint32 = 0x2000
	STRU uint32 = 0x4000
	UTF8 uint32 = 0x8000
)

// Order returns the byte order selected by msbf.
func Order(msbf bool) binary.ByteOrder {
	if msbf {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func u16(o binary.ByteOrder, v uint16) []byte {
	b := make([]byte, 2)
	o.PutUint16(b, v)
	return b
}

func u32(o binary.ByteOrder, v uint32) []byte {
	b := make([]byte, 4)
	o.PutUint32(b, v)
	return b
}

func u64(o binary.ByteOrder, v uint64) []byte {
	b := make([]byte, 8)
	o.PutUint64(b, v)
	return b
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func intBytes(o binary.ByteOrder, tyle uint32, v uint64) []byte {
	switch tyle {
	case TYLE8:
		return []byte{byte(v)}
	case TYLE16:
		return u16(o, uint16(v))
	case TYLE32:
		return u32(o, uint32(v))
	case TYLE64:
		return u64(o, v)
	case TYLE128:
		return make([]byte, 16)
	default:
		return []byte{byte(v)}
	}
}

// TypeInfo encodes a raw type descriptor.
func TypeInfo(o binary.ByteOrder, raw uint32) []byte {
	return u32(o, raw)
}

// Bool encodes a BOOL argument.
func Bool(o binary.ByteOrder, v bool) []byte {
	b := byte(0)
	if v {
		b = 1
	}
	return cat(u32(o, BOOL|TYLE8), []byte{b})
}

// NamedBool encodes a BOOL argument with a VARI name.
func NamedBool(o binary.ByteOrder, name string, v bool) []byte {
	b := byte(0)
	if v {
		b = 1
	}
	n := append([]byte(name), 0)
	return cat(u32(o, BOOL|TYLE8|VARI), u16(o, uint16(len(n))), n, []byte{b})
}

// Uint encodes a UINT argument of the given TYLE code.
func Uint(o binary.ByteOrder, tyle uint32, v uint64) []byte {
	return cat(u32(o, UINT|tyle), intBytes(o, tyle, v))
}

// Sint encodes a SINT argument of the given TYLE code.
func Sint(o binary.ByteOrder, tyle uint32, v int64) []byte {
	return cat(u32(o, SINT|tyle), intBytes(o, tyle, uint64(v)))
}

// NamedUint encodes a UINT argument with VARI name and unit.
func NamedUint(o binary.ByteOrder, tyle uint32, name, unit string, v uint64) []byte {
	n := append([]byte(name), 0)
	u := append([]byte(unit), 0)
	return cat(u32(o, UINT|tyle|VARI), u16(o, uint16(len(n))), u16(o, uint16(len(u))), n, u, intBytes(o, tyle, v))
}

// FixedUint encodes a UINT argument with FIXP quantization and offset.
func FixedUint(o binary.ByteOrder, tyle uint32, quantization float32, offset int64, v uint64) []byte {
	var off []byte
	switch tyle {
	case TYLE64:
		off = u64(o, uint64(offset))
	case TYLE128:
		off = make([]byte, 16)
	default:
		off = u32(o, uint32(offset))
	}
	return cat(u32(o, UINT|tyle|FIXP), u32(o, math.Float32bits(quantization)), off, intBytes(o, tyle, v))
}

// Float32 encodes a 32-bit FLOA argument.
func Float32(o binary.ByteOrder, v float32) []byte {
	return cat(u32(o, FLOA|TYLE32), u32(o, math.Float32bits(v)))
}

// Float64 encodes a 64-bit FLOA argument.
func Float64(o binary.ByteOrder, v float64) []byte {
	return cat(u32(o, FLOA|TYLE64), u64(o, math.Float64bits(v)))
}

// String encodes a NUL-terminated STRG argument.
func String(o binary.ByteOrder, s string, utf8 bool) []byte {
	ti := STRG
	if utf8 {
		ti |= UTF8
	}
	b := append([]byte(s), 0)
	return cat(u32(o, ti), u16(o, uint16(len(b))), b)
}

// NamedString encodes a UTF-8 STRG argument with a VARI name.
func NamedString(o binary.ByteOrder, name, s string) []byte {
	b := append([]byte(s), 0)
	n := append([]byte(name), 0)
	return cat(u32(o, STRG|UTF8|VARI), u16(o, uint16(len(b))), u16(o, uint16(len(n))), n, b)
}

// Trace encodes a TRAI argument.
func Trace(o binary.ByteOrder, s string) []byte {
	b := append([]byte(s), 0)
	return cat(u32(o, TRAI|UTF8), u16(o, uint16(len(b))), b)
}

// Raw encodes a RAWD argument.
func Raw(o binary.ByteOrder, v []byte) []byte {
	return cat(u32(o, RAWD), u16(o, uint16(len(v))), v)
}

// Struct encodes a STRU argument header with a member count.
func Struct(o binary.ByteOrder, count uint16) []byte {
	return cat(u32(o, STRU), u16(o, count))
}

// Message describes one DLT message to encode.
type Message struct {
	MSBF      bool
	VERS      uint8 // zero encodes version 1
	MCNT      uint8
	ECU       string // sets WEID when non-empty
	SessionID *uint32
	Timestamp *uint32

	Extended bool
	Verbose  bool
	MSTP     uint8
	MTIN     uint8
	APID     string
	CTID     string
	NOAR     *uint8 // defaults to len(Args)

	Args    [][]byte
	Payload []byte // used when Args is empty
}

// Bytes encodes the message with a correct LEN.
func (m Message) Bytes() []byte {
	htyp := (m.VERS & 0x07) << 5
	if m.VERS == 0 {
		htyp = 1 << 5
	}
	var opt []byte
	if m.Extended {
		htyp |= 0x01
	}
	if m.MSBF {
		htyp |= 0x02
	}
	if m.ECU != "" {
		htyp |= 0x04
		opt = append(opt, id4(m.ECU)...)
	}
	if m.SessionID != nil {
		htyp |= 0x08
		opt = append(opt, u32(binary.BigEndian, *m.SessionID)...)
	}
	if m.Timestamp != nil {
		htyp |= 0x10
		opt = append(opt, u32(binary.BigEndian, *m.Timestamp)...)
	}
	var ext []byte
	if m.Extended {
		msin := (m.MTIN&0x0f)<<4 | (m.MSTP&0x07)<<1
		if m.Verbose {
			msin |= 0x01
		}
		noar := uint8(len(m.Args))
		if m.NOAR != nil {
			noar = *m.NOAR
		}
		ext = cat([]byte{msin, noar}, id4(m.APID), id4(m.CTID))
	}
	payload := m.Payload
	if len(m.Args) > 0 {
		payload = cat(m.Args...)
	}
	total := 4 + len(opt) + len(ext) + len(payload)
	head := []byte{htyp, m.MCNT, 0, 0}
	binary.BigEndian.PutUint16(head[2:4], uint16(total))
	return cat(head, opt, ext, payload)
}

// Stored prefixes msg with a storage header.
func Stored(seconds uint32, microseconds int32, ecu string, msg []byte) []byte {
	return cat(StorageHeader(seconds, microseconds, ecu), msg)
}

// StorageHeader encodes a 16-byte storage header.
func StorageHeader(seconds uint32, microseconds int32, ecu string) []byte {
	return cat([]byte{'D', 'L', 'T', 0x01}, u32(binary.LittleEndian, seconds), u32(binary.LittleEndian, uint32(microseconds)), id4(ecu))
}

// Log builds a verbose log message.
func Log(msbf bool, mcnt uint8, mtin uint8, apid, ctid string, args ...[]byte) Message {
	return Message{
		MSBF:     msbf,
		MCNT:     mcnt,
		ECU:      "ECU1",
		Extended: true,
		Verbose:  true,
		MSTP:     0,
		MTIN:     mtin,
		APID:     apid,
		CTID:     ctid,
		Args:     args,
	}
}

func id4(s string) []byte {
	b := make([]byte, 4)
	copy(b, s)
	return b
}

// U32 returns a pointer for optional header fields.
func U32(v uint32) *uint32 {
	return &v
}

// U8 returns a pointer for the NOAR override.
func U8(v uint8) *uint8 {
	return &v
}
