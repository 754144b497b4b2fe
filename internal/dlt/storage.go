package dlt

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

const (
	StorageHeaderLen        = 16
	StoragePattern   uint32 = 0x444C5401 // "DLT\x01"
)

var storagePatternBytes = []byte{'D', 'L', 'T', 0x01}

// StorageHeader prefixes each message in a stored file.
type StorageHeader struct {
	Seconds      uint32
	Microseconds int32
	ECUID        string
}

// UnixMillis is |Microseconds|/1000 + Seconds*1000. The absolute value hides
// negative encodings; it is kept for compatibility with existing viewers.
func (h StorageHeader) UnixMillis() float64 {
	return math.Abs(float64(h.Microseconds))/1000 + float64(h.Seconds)*1000
}

// Time converts UnixMillis to a time.Time.
func (h StorageHeader) Time() time.Time {
	ms := h.UnixMillis()
	sec := math.Floor(ms / 1000)
	nsec := (ms - sec*1000) * float64(time.Millisecond)
	return time.Unix(int64(sec), int64(math.Round(nsec)))
}

// DecodeStorageHeader decodes the storage wrapper at the start of buf.
func DecodeStorageHeader(buf []byte) (StorageHeader, Cursor, error) {
	c := NewCursor(buf, true)
	if len(buf) >= 4 && binary.BigEndian.Uint32(buf[:4]) != StoragePattern {
		return StorageHeader{}, c, newError(CodeNoDLTPattern, "no DLT pattern at start of record (found 0x%08x)", binary.BigEndian.Uint32(buf[:4]))
	}
	if len(buf) < StorageHeaderLen {
		return StorageHeader{}, c, newError(CodeHeaderMinLen, "storage header needs %d bytes, buffer has %d", StorageHeaderLen, len(buf))
	}
	c, _ = c.Skip(4)
	c = c.WithOrder(false)
	var h StorageHeader
	h.Seconds, c, _ = c.Uint32()
	h.Microseconds, c, _ = c.Int32()
	ecu, c, _ := c.Bytes(idLen)
	h.ECUID = decodeID(ecu)
	return h, c.WithOrder(true), nil
}

// NextStoragePattern returns the offset of the next "DLT\x01" in buf at or
// after from, or -1.
func NextStoragePattern(buf []byte, from int) int {
	if from >= len(buf) {
		return -1
	}
	i := bytes.Index(buf[from:], storagePatternBytes)
	if i < 0 {
		return -1
	}
	return from + i
}
