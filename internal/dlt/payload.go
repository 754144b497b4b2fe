package dlt

// PayloadMode tells how the payload was encoded.
type PayloadMode uint8

const (
	NonVerbose PayloadMode = iota
	Verbose
)

func (m PayloadMode) String() string {
	if m == Verbose {
		return "VERBOSE"
	}
	return "NON_VERBOSE"
}

// Payload is either a list of typed arguments or a non-verbose message id
// followed by opaque bytes.
type Payload struct {
	Mode      PayloadMode
	Arguments []Argument
	MessageID uint32
	// Data holds the bytes the decoder did not interpret: the non-verbose
	// body, or anything left after the last verbose argument.
	Data []byte
}

// DecodePayload decodes buf as verbose when ext is present with VERB set,
// otherwise as non-verbose. msbf selects the payload byte order.
func DecodePayload(buf []byte, ext *ExtendedHeader, msbf bool) (Payload, error) {
	if ext == nil || !ext.VERB {
		return DecodeNonVerbosePayload(buf)
	}
	return DecodeVerbosePayload(NewCursor(buf, msbf), int(ext.NOAR))
}

// DecodeVerbosePayload decodes exactly noar arguments from c.
func DecodeVerbosePayload(c Cursor, noar int) (Payload, error) {
	if minLen := TypeInfoSize * noar; c.Len() < minLen {
		return Payload{}, newError(CodePayloadLen, "NOAR is %d, payload has %d bytes, need at least %d", noar, c.Len(), minLen)
	}
	p := Payload{Mode: Verbose, Arguments: make([]Argument, 0, noar)}
	for len(p.Arguments) < noar {
		if c.Len() == 0 {
			return Payload{}, newError(CodeNotAllArgsParsed, "payload exhausted after %d of %d arguments", len(p.Arguments), noar)
		}
		arg, next, err := DecodeArgument(c)
		if err != nil {
			return Payload{}, err
		}
		p.Arguments = append(p.Arguments, arg)
		c = next
	}
	if c.Len() > 0 {
		p.Data = copyBytes(c.Remaining())
	}
	return p, nil
}

// DecodeNonVerbosePayload reads the little-endian message id; the rest is opaque.
func DecodeNonVerbosePayload(buf []byte) (Payload, error) {
	id, next, err := NewCursor(buf, false).Uint32()
	if err != nil {
		return Payload{}, wrapError(CodePayloadLen, err, "non-verbose payload has %d bytes, need 4", len(buf))
	}
	return Payload{Mode: NonVerbose, MessageID: id, Data: copyBytes(next.Remaining())}, nil
}

func copyBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
