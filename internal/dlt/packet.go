package dlt

// Packet is one fully decoded message. It owns its contents.
type Packet struct {
	Standard StandardHeader
	Extended *ExtendedHeader
	Payload  Payload
	Length   int
}

// DecodePacket decodes one message from the start of buf. Headers are checked
// before the payload; the first failing sub-decoder's error is returned.
func DecodePacket(buf []byte) (*Packet, error) {
	std, c, err := DecodeStandardHeader(buf)
	if err != nil {
		return nil, err
	}
	p := &Packet{Standard: std, Length: int(std.LEN)}
	if std.UEH {
		ext, next, err := DecodeExtendedHeader(c)
		if err != nil {
			return nil, err
		}
		p.Extended = &ext
		c = next
	}
	p.Payload, err = DecodePayload(c.Remaining(), p.Extended, std.MSBF)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// MTIN returns the message type info, or MTINUndefined without an extended header.
func (p *Packet) MTIN() MessageTypeInfo {
	if p.Extended == nil {
		return MTINUndefined
	}
	return p.Extended.MTIN
}
