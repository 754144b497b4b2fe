package dlt

import "encoding/binary"

const (
	StandardHeaderMinLen = 4
	ExtendedHeaderLen    = 10
	idLen                = 4
)

// Standard header flags (HTYP byte).
const (
	flagUEH  uint8 = 0b00000001
	flagMSBF uint8 = 0b00000010
	flagWEID uint8 = 0b00000100
	flagWSID uint8 = 0b00001000
	flagWTMS uint8 = 0b00010000
	maskVERS uint8 = 0b11100000
)

// Extended header MSIN layout.
const (
	flagVERB uint8 = 0b00000001
	maskMSTP uint8 = 0b00001110
	maskMTIN uint8 = 0b11110000
)

// StandardHeader is the mandatory header of every message.
type StandardHeader struct {
	UEH  bool // extended header follows
	MSBF bool // payload is big-endian
	WEID bool
	WSID bool
	WTMS bool
	VERS uint8
	MCNT uint8
	LEN  uint16 // whole message, header included
	EID  string
	SID  uint32
	TMS  uint32 // 0.1 ms ticks
}

// Size is the encoded size of the header including optional fields.
func (h StandardHeader) Size() int {
	n := StandardHeaderMinLen
	if h.WEID {
		n += idLen
	}
	if h.WSID {
		n += 4
	}
	if h.WTMS {
		n += 4
	}
	return n
}

// PacketLength reads LEN without decoding anything else.
func PacketLength(buf []byte) (int, error) {
	if len(buf) < StandardHeaderMinLen {
		return 0, newError(CodeHeaderMinLen, "standard header needs %d bytes, buffer has %d", StandardHeaderMinLen, len(buf))
	}
	return int(binary.BigEndian.Uint16(buf[2:4])), nil
}

// CanBeParsed reports whether buf holds at least one whole message.
func CanBeParsed(buf []byte) bool {
	n, err := PacketLength(buf)
	return err == nil && len(buf) >= n
}

// DecodeStandardHeader decodes the header at the start of buf. It fails with
// PACKET_LEN when buf is shorter than LEN, which only means more bytes are needed.
// The returned cursor is positioned after the header and bounded by LEN.
func DecodeStandardHeader(buf []byte) (StandardHeader, Cursor, error) {
	c := NewCursor(buf, true)
	if len(buf) < StandardHeaderMinLen {
		return StandardHeader{}, c, newError(CodeHeaderMinLen, "standard header needs %d bytes, buffer has %d", StandardHeaderMinLen, len(buf))
	}
	htyp, c, _ := c.Uint8()
	h := StandardHeader{
		UEH:  htyp&flagUEH != 0,
		MSBF: htyp&flagMSBF != 0,
		WEID: htyp&flagWEID != 0,
		WSID: htyp&flagWSID != 0,
		WTMS: htyp&flagWTMS != 0,
		VERS: (htyp & maskVERS) >> 5,
	}
	h.MCNT, c, _ = c.Uint8()
	h.LEN, c, _ = c.Uint16()
	if len(buf) < int(h.LEN) {
		return h, c, newError(CodePacketLen, "LEN is %d, buffer has %d bytes", h.LEN, len(buf))
	}
	if int(h.LEN) < h.Size() {
		return h, c, newError(CodeHeaderMinLen, "LEN %d is shorter than standard header (%d bytes)", h.LEN, h.Size())
	}
	c = NewCursor(buf[:h.LEN], true)
	c, _ = c.Skip(StandardHeaderMinLen)
	if h.WEID {
		b, next, _ := c.Bytes(idLen)
		h.EID, c = decodeID(b), next
	}
	if h.WSID {
		h.SID, c, _ = c.Uint32()
	}
	if h.WTMS {
		h.TMS, c, _ = c.Uint32()
	}
	return h, c, nil
}

// ExtendedHeader is present when the standard header has UEH set.
type ExtendedHeader struct {
	MSIN uint8
	VERB bool
	MSTP MessageType
	MTIN MessageTypeInfo
	NOAR uint8
	APID string
	CTID string
}

// DecodeExtendedHeader decodes the 10-byte extended header at c.
func DecodeExtendedHeader(c Cursor) (ExtendedHeader, Cursor, error) {
	if c.Len() < ExtendedHeaderLen {
		return ExtendedHeader{}, c, newError(CodeHeaderMinLen, "extended header needs %d bytes, buffer has %d", ExtendedHeaderLen, c.Len())
	}
	var h ExtendedHeader
	h.MSIN, c, _ = c.Uint8()
	h.VERB = h.MSIN&flagVERB != 0
	h.MSTP = parseMessageType((h.MSIN & maskMSTP) >> 1)
	h.MTIN = resolveMTIN(h.MSTP, (h.MSIN&maskMTIN)>>4)
	h.NOAR, c, _ = c.Uint8()
	apid, c, _ := c.Bytes(idLen)
	ctid, c, _ := c.Bytes(idLen)
	h.APID = decodeID(apid)
	h.CTID = decodeID(ctid)
	return h, c, nil
}

func decodeID(b []byte) string {
	return decodeText(b, CodingASCII)
}
