package dlt

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// Value is the decoded value of one argument. The set of implementations is closed.
type Value interface {
	Kind() ArgType
}

type (
	BoolValue   bool
	IntValue    int64
	UintValue   uint64
	StringValue string
	RawValue    []byte
	TraceValue  string
)

// FloatValue keeps the encoded width so 32-bit values render without widening noise.
type FloatValue struct {
	Value float64
	Bits  int
}

// StructValue carries only the member count; members are not decoded.
type StructValue struct {
	Count uint16
}

func (BoolValue) Kind() ArgType   { return TypeBool }
func (IntValue) Kind() ArgType    { return TypeSint }
func (UintValue) Kind() ArgType   { return TypeUint }
func (FloatValue) Kind() ArgType  { return TypeFloat }
func (StringValue) Kind() ArgType { return TypeString }
func (RawValue) Kind() ArgType    { return TypeRaw }
func (TraceValue) Kind() ArgType  { return TypeTrace }
func (StructValue) Kind() ArgType { return TypeStruct }

// FixedPoint is parsed quantization metadata. It is never applied to the value.
type FixedPoint struct {
	Quantization float32
	Offset       int64
}

// Argument is one decoded verbose argument.
type Argument struct {
	Type       ArgType
	Info       TypeInfo
	Named      bool
	Name       string
	Unit       string
	FixedPoint *FixedPoint
	Value      Value

	// Remaining is the cursor positioned right after this argument.
	Remaining Cursor
}

// DecodeArgument decodes the type info at c and the value that follows it.
func DecodeArgument(c Cursor) (Argument, Cursor, error) {
	info, next, err := DecodeTypeInfo(c)
	if err != nil {
		return Argument{}, c, err
	}
	var arg Argument
	switch info.Type {
	case TypeBool:
		arg, next, err = decodeBool(next, info)
	case TypeSint:
		arg, next, err = decodeSint(next, info)
	case TypeUint:
		arg, next, err = decodeUint(next, info)
	case TypeFloat:
		arg, next, err = decodeFloat(next, info)
	case TypeString:
		arg, next, err = decodeString(next, info)
	case TypeRaw:
		arg, next, err = decodeRaw(next, info)
	case TypeTrace:
		arg, next, err = decodeTrace(next, info)
	case TypeStruct:
		arg, next, err = decodeStruct(next, info)
	case TypeArray, TypeUndefined:
		return Argument{}, c, newError(CodeNoArgumentProcessor, "no processor for type %s (type info 0x%08x)", info.Type, info.Raw)
	default:
		return Argument{}, c, newError(CodeUnknown, "unresolved argument type %d", info.Type)
	}
	if err != nil {
		return Argument{}, c, err
	}
	arg.Type = info.Type
	arg.Info = info
	arg.Remaining = next
	return arg, next, nil
}

func truncated(err error, t ArgType) error {
	return wrapError(CodeNotAllArgsParsed, err, "%s argument truncated", t)
}

func readName(c Cursor) (string, Cursor, error) {
	n, next, err := c.Uint16()
	if err != nil {
		return "", c, err
	}
	b, next, err := next.Bytes(int(n))
	if err != nil {
		return "", c, err
	}
	return decodeText(b, CodingASCII), next, nil
}

func readNameUnit(c Cursor) (string, string, Cursor, error) {
	nameLen, next, err := c.Uint16()
	if err != nil {
		return "", "", c, err
	}
	unitLen, next, err := next.Uint16()
	if err != nil {
		return "", "", c, err
	}
	name, next, err := next.Bytes(int(nameLen))
	if err != nil {
		return "", "", c, err
	}
	unit, next, err := next.Bytes(int(unitLen))
	if err != nil {
		return "", "", c, err
	}
	return decodeText(name, CodingASCII), decodeText(unit, CodingASCII), next, nil
}

func readFixedPoint(c Cursor, info TypeInfo) (*FixedPoint, Cursor, error) {
	q, next, err := c.Float32()
	if err != nil {
		return nil, c, err
	}
	fp := &FixedPoint{Quantization: q}
	switch info.TYLEValue {
	case 4:
		fp.Offset, next, err = next.Int(8)
	case 5:
		fp.Offset, next, err = next.Int(16)
	default:
		fp.Offset, next, err = next.Int(4)
	}
	if err != nil {
		return nil, c, err
	}
	return fp, next, nil
}

// decodeText strips NUL terminators and decodes ASCII (7-bit) or UTF-8.
func decodeText(b []byte, coding uint8) string {
	b = trimNUL(b)
	if coding == CodingASCII {
		out := make([]byte, len(b))
		for i, ch := range b {
			out[i] = ch & 0x7f
		}
		return string(out)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

func trimNUL(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return b
}

func decodeBool(c Cursor, info TypeInfo) (Argument, Cursor, error) {
	var arg Argument
	next := c
	var err error
	if info.VARI {
		arg.Named = true
		if arg.Name, next, err = readName(next); err != nil {
			return Argument{}, c, truncated(err, TypeBool)
		}
	}
	v, next, err := next.Uint8()
	if err != nil {
		return Argument{}, c, truncated(err, TypeBool)
	}
	arg.Value = BoolValue(v != 0)
	return arg, next, nil
}

func decodeIntegerPrefix(c Cursor, info TypeInfo, t ArgType) (Argument, Cursor, error) {
	var arg Argument
	next := c
	var err error
	if info.VARI {
		arg.Named = true
		if arg.Name, arg.Unit, next, err = readNameUnit(next); err != nil {
			return Argument{}, c, truncated(err, t)
		}
	}
	if info.FIXP {
		if arg.FixedPoint, next, err = readFixedPoint(next, info); err != nil {
			return Argument{}, c, truncated(err, t)
		}
	}
	return arg, next, nil
}

func decodeSint(c Cursor, info TypeInfo) (Argument, Cursor, error) {
	arg, next, err := decodeIntegerPrefix(c, info, TypeSint)
	if err != nil {
		return Argument{}, c, err
	}
	v, next, err := next.Int(info.Width())
	if err != nil {
		return Argument{}, c, truncated(err, TypeSint)
	}
	arg.Value = IntValue(v)
	return arg, next, nil
}

func decodeUint(c Cursor, info TypeInfo) (Argument, Cursor, error) {
	arg, next, err := decodeIntegerPrefix(c, info, TypeUint)
	if err != nil {
		return Argument{}, c, err
	}
	v, next, err := next.Uint(info.Width())
	if err != nil {
		return Argument{}, c, truncated(err, TypeUint)
	}
	arg.Value = UintValue(v)
	return arg, next, nil
}

func decodeFloat(c Cursor, info TypeInfo) (Argument, Cursor, error) {
	arg, next, err := decodeIntegerPrefix(c, info, TypeFloat)
	if err != nil {
		return Argument{}, c, err
	}
	switch info.Width() {
	case 4:
		v, n, err := next.Float32()
		if err != nil {
			return Argument{}, c, truncated(err, TypeFloat)
		}
		arg.Value, next = FloatValue{Value: float64(v), Bits: 32}, n
	case 8:
		v, n, err := next.Float64()
		if err != nil {
			return Argument{}, c, truncated(err, TypeFloat)
		}
		arg.Value, next = FloatValue{Value: v, Bits: 64}, n
	case 16:
		n, err := next.Skip(16)
		if err != nil {
			return Argument{}, c, truncated(err, TypeFloat)
		}
		arg.Value, next = FloatValue{Bits: 128}, n
	default:
		return Argument{}, c, newError(CodeNoArgumentProcessor, "unsupported float width %d", info.Width())
	}
	return arg, next, nil
}

func decodeText16(c Cursor, info TypeInfo, t ArgType) (Argument, string, Cursor, error) {
	var arg Argument
	length, next, err := c.Uint16()
	if err != nil {
		return Argument{}, "", c, truncated(err, t)
	}
	if info.VARI {
		arg.Named = true
		if arg.Name, next, err = readName(next); err != nil {
			return Argument{}, "", c, truncated(err, t)
		}
	}
	b, next, err := next.Bytes(int(length))
	if err != nil {
		return Argument{}, "", c, truncated(err, t)
	}
	return arg, decodeText(b, info.SCODValue), next, nil
}

func decodeString(c Cursor, info TypeInfo) (Argument, Cursor, error) {
	arg, text, next, err := decodeText16(c, info, TypeString)
	if err != nil {
		return Argument{}, c, err
	}
	arg.Value = StringValue(text)
	return arg, next, nil
}

func decodeTrace(c Cursor, info TypeInfo) (Argument, Cursor, error) {
	arg, text, next, err := decodeText16(c, info, TypeTrace)
	if err != nil {
		return Argument{}, c, err
	}
	arg.Value = TraceValue(text)
	return arg, next, nil
}

func decodeRaw(c Cursor, info TypeInfo) (Argument, Cursor, error) {
	var arg Argument
	length, next, err := c.Uint16()
	if err != nil {
		return Argument{}, c, truncated(err, TypeRaw)
	}
	if info.VARI {
		arg.Named = true
		if arg.Name, next, err = readName(next); err != nil {
			return Argument{}, c, truncated(err, TypeRaw)
		}
	}
	b, next, err := next.Bytes(int(length))
	if err != nil {
		return Argument{}, c, truncated(err, TypeRaw)
	}
	raw := make([]byte, len(b))
	copy(raw, b)
	arg.Value = RawValue(raw)
	return arg, next, nil
}

// decodeStruct reads the member count, then gives up: members are not decoded,
// so the start of the next argument cannot be located.
func decodeStruct(c Cursor, info TypeInfo) (Argument, Cursor, error) {
	count, next, err := c.Uint16()
	if err != nil {
		return Argument{}, c, truncated(err, TypeStruct)
	}
	if info.VARI {
		if _, _, err = readName(next); err != nil {
			return Argument{}, c, truncated(err, TypeStruct)
		}
	}
	return Argument{}, c, newError(CodeNoArgumentProcessor, "struct argument with %d members is not decodable", count)
}

// String renders the argument the way viewers print payloads.
func (a Argument) String() string {
	switch v := a.Value.(type) {
	case BoolValue:
		return a.named(strconv.FormatBool(bool(v)))
	case IntValue:
		return a.measured(strconv.FormatInt(int64(v), 10))
	case UintValue:
		return a.measured(strconv.FormatUint(uint64(v), 10))
	case FloatValue:
		bits := v.Bits
		if bits != 32 {
			bits = 64
		}
		return a.measured(strconv.FormatFloat(v.Value, 'g', -1, bits))
	case StringValue:
		return a.named(string(v))
	case TraceValue:
		return string(v)
	case RawValue:
		return a.named(hex.EncodeToString(v))
	case StructValue:
		return a.named("{" + strconv.Itoa(int(v.Count)) + "}")
	default:
		return ""
	}
}

func (a Argument) named(value string) string {
	if !a.Named {
		return value
	}
	return a.Name + "=" + value
}

func (a Argument) measured(value string) string {
	switch {
	case !a.Named:
		return value
	case a.Name == "" && a.Unit == "":
		return value
	case a.Name == "":
		return a.Unit + "=" + value
	default:
		return a.Name + ": " + a.Unit + "=" + value
	}
}
