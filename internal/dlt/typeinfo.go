package dlt

// ArgType is the resolved primary type of a verbose argument.
type ArgType uint8

const (
	TypeUndefined ArgType = iota
	TypeBool
	TypeSint
	TypeUint
	TypeFloat
	TypeArray
	TypeString
	TypeRaw
	TypeTrace
	TypeStruct
)

var argTypeNames = [...]string{
	TypeUndefined: "UNDEFINED",
	TypeBool:      "BOOL",
	TypeSint:      "SINT",
	TypeUint:      "UINT",
	TypeFloat:     "FLOA",
	TypeArray:     "ARAY",
	TypeString:    "STRG",
	TypeRaw:       "RAWD",
	TypeTrace:     "TRAI",
	TypeStruct:    "STRU",
}

func (t ArgType) String() string {
	if int(t) < len(argTypeNames) {
		return argTypeNames[t]
	}
	return argTypeNames[TypeUndefined]
}

// TypeInfo bit layout.
const (
	TypeInfoSize = 4

	maskTYLE uint32 = 0x0000000F
	flagBOOL uint32 = 0x00000010
	flagSINT uint32 = 0x00000020
	flagUINT uint32 = 0x00000040
	flagFLOA uint32 = 0x00000080
	flagARAY uint32 = 0x00000100
	flagSTRG uint32 = 0x00000200
	flagRAWD uint32 = 0x00000400
	flagVARI uint32 = 0x00000800
	flagFIXP uint32 = 0x00001000
	flagTRAI uint32 = 0x00002000
	flagSTRU uint32 = 0x00004000
	maskSCOD uint32 = 0x00038000

	shiftSCOD = 15
)

// String coding values.
const (
	CodingASCII uint8 = 0
	CodingUTF8  uint8 = 1
)

// TypeInfo is the decoded 32-bit argument type descriptor.
type TypeInfo struct {
	Raw uint32

	TYLE bool
	BOOL bool
	SINT bool
	UINT bool
	FLOA bool
	ARAY bool
	STRG bool
	RAWD bool
	VARI bool
	FIXP bool
	TRAI bool
	STRU bool
	SCOD bool

	TYLEValue uint8
	SCODValue uint8
	Type      ArgType
}

// Width returns the byte width selected by TYLE.
func (ti TypeInfo) Width() int {
	switch ti.TYLEValue {
	case 1:
		return 1
	case 2:
		return 2
	case 3:
		return 4
	case 4:
		return 8
	case 5:
		return 16
	default:
		return 1
	}
}

// DecodeTypeInfo reads one type descriptor.
func DecodeTypeInfo(c Cursor) (TypeInfo, Cursor, error) {
	if c.Len() < TypeInfoSize {
		return TypeInfo{}, c, newError(CodeTypeInfoLen, "type info needs %d bytes, buffer has %d", TypeInfoSize, c.Len())
	}
	raw, next, err := c.Uint32()
	if err != nil {
		return TypeInfo{}, c, wrapError(CodeUnknown, err, "read type info")
	}
	return ParseTypeInfo(raw), next, nil
}

// ParseTypeInfo splits a raw descriptor into flags. When several primary
// type flags are set the first of BOOL, SINT, UINT, FLOA, ARAY, STRG, RAWD,
// TRAI, STRU wins.
func ParseTypeInfo(raw uint32) TypeInfo {
	ti := TypeInfo{
		Raw:       raw,
		TYLE:      raw&maskTYLE != 0,
		BOOL:      raw&flagBOOL != 0,
		SINT:      raw&flagSINT != 0,
		UINT:      raw&flagUINT != 0,
		FLOA:      raw&flagFLOA != 0,
		ARAY:      raw&flagARAY != 0,
		STRG:      raw&flagSTRG != 0,
		RAWD:      raw&flagRAWD != 0,
		VARI:      raw&flagVARI != 0,
		FIXP:      raw&flagFIXP != 0,
		TRAI:      raw&flagTRAI != 0,
		STRU:      raw&flagSTRU != 0,
		SCOD:      raw&maskSCOD != 0,
		TYLEValue: uint8(raw & maskTYLE),
		SCODValue: uint8((raw & maskSCOD) >> shiftSCOD),
	}
	switch {
	case ti.BOOL:
		ti.Type = TypeBool
	case ti.SINT:
		ti.Type = TypeSint
	case ti.UINT:
		ti.Type = TypeUint
	case ti.FLOA:
		ti.Type = TypeFloat
	case ti.ARAY:
		ti.Type = TypeArray
	case ti.STRG:
		ti.Type = TypeString
	case ti.RAWD:
		ti.Type = TypeRaw
	case ti.TRAI:
		ti.Type = TypeTrace
	case ti.STRU:
		ti.Type = TypeStruct
	}
	return ti
}
