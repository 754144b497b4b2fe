package dlt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/danmuck/dltkit/internal/testutil/dlttest"
)

func TestParseTypeInfoPriority(t *testing.T) {
	ti := ParseTypeInfo(dlttest.SINT | dlttest.UINT | dlttest.TYLE32)
	if ti.Type != TypeSint {
		t.Fatalf("expected SINT to win over UINT, got %s", ti.Type)
	}
	if !ti.SINT || !ti.UINT {
		t.Fatalf("expected both flags kept: %+v", ti)
	}
	if ti.TYLEValue != 3 || ti.Width() != 4 {
		t.Fatalf("unexpected width: tyle=%d width=%d", ti.TYLEValue, ti.Width())
	}

	ti = ParseTypeInfo(dlttest.STRG | dlttest.UTF8 | dlttest.VARI)
	if ti.Type != TypeString || !ti.VARI || !ti.SCOD || ti.SCODValue != CodingUTF8 {
		t.Fatalf("unexpected string type info: %+v", ti)
	}

	ti = ParseTypeInfo(dlttest.STRU | dlttest.BOOL)
	if ti.Type != TypeBool {
		t.Fatalf("expected BOOL to win over STRU, got %s", ti.Type)
	}

	if ParseTypeInfo(dlttest.VARI).Type != TypeUndefined {
		t.Fatalf("expected undefined type without primary flag")
	}
}

func TestDecodeTypeInfoShortBuffer(t *testing.T) {
	_, _, err := DecodeTypeInfo(NewCursor([]byte{0x10, 0x00}, false))
	if !errors.Is(err, ErrTypeInfoLen) {
		t.Fatalf("expected ErrTypeInfoLen, got %v", err)
	}
	if CodeOf(err) != CodeTypeInfoLen {
		t.Fatalf("unexpected code: %s", CodeOf(err))
	}
}

func TestDecodeArgumentKinds(t *testing.T) {
	le := binary.LittleEndian
	be := binary.BigEndian
	cases := []struct {
		name  string
		buf   []byte
		msbf  bool
		typ   ArgType
		value Value
		text  string
	}{
		{"bool true", dlttest.Bool(le, true), false, TypeBool, BoolValue(true), "true"},
		{"bool nonzero", append(dlttest.TypeInfo(le, dlttest.BOOL|dlttest.TYLE8), 0x02), false, TypeBool, BoolValue(true), "true"},
		{"bool named", dlttest.NamedBool(be, "flag", false), true, TypeBool, BoolValue(false), "flag=false"},
		{"uint8", dlttest.Uint(le, dlttest.TYLE8, 200), false, TypeUint, UintValue(200), "200"},
		{"uint16 be", dlttest.Uint(be, dlttest.TYLE16, 0x1234), true, TypeUint, UintValue(0x1234), "4660"},
		{"uint64", dlttest.Uint(le, dlttest.TYLE64, 1<<40), false, TypeUint, UintValue(1 << 40), "1099511627776"},
		{"sint32", dlttest.Sint(le, dlttest.TYLE32, -7), false, TypeSint, IntValue(-7), "-7"},
		{"sint8", dlttest.Sint(be, dlttest.TYLE8, -1), true, TypeSint, IntValue(-1), "-1"},
		{"uint named", dlttest.NamedUint(le, dlttest.TYLE16, "speed", "km/h", 88), false, TypeUint, UintValue(88), "speed: km/h=88"},
		{"uint unit only", dlttest.NamedUint(le, dlttest.TYLE8, "", "ms", 5), false, TypeUint, UintValue(5), "ms=5"},
		{"float32", dlttest.Float32(le, 1.5), false, TypeFloat, FloatValue{Value: 1.5, Bits: 32}, "1.5"},
		{"float64", dlttest.Float64(be, -0.25), true, TypeFloat, FloatValue{Value: -0.25, Bits: 64}, "-0.25"},
		{"string ascii", dlttest.String(le, "hello", false), false, TypeString, StringValue("hello"), "hello"},
		{"string utf8", dlttest.String(be, "grüße", true), true, TypeString, StringValue("grüße"), "grüße"},
		{"string named", dlttest.NamedString(le, "msg", "ok"), false, TypeString, StringValue("ok"), "msg=ok"},
		{"trace", dlttest.Trace(le, "enter"), false, TypeTrace, TraceValue("enter"), "enter"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			arg, next, err := DecodeArgument(NewCursor(tc.buf, tc.msbf))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if arg.Type != tc.typ {
				t.Fatalf("unexpected type: %s", arg.Type)
			}
			if arg.Value != tc.value {
				t.Fatalf("unexpected value: %#v want %#v", arg.Value, tc.value)
			}
			if got := arg.String(); got != tc.text {
				t.Fatalf("unexpected text: %q want %q", got, tc.text)
			}
			if next.Len() != 0 {
				t.Fatalf("expected argument fully consumed, %d bytes left", next.Len())
			}
			if arg.Remaining.Offset() != next.Offset() {
				t.Fatalf("remaining cursor mismatch: %d vs %d", arg.Remaining.Offset(), next.Offset())
			}
		})
	}
}

func TestDecodeArgumentRaw(t *testing.T) {
	buf := dlttest.Raw(binary.LittleEndian, []byte{0xde, 0xad, 0x00})
	arg, next, err := DecodeArgument(NewCursor(buf, false))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	raw, ok := arg.Value.(RawValue)
	if !ok {
		t.Fatalf("expected RawValue, got %T", arg.Value)
	}
	if !bytes.Equal(raw, []byte{0xde, 0xad, 0x00}) {
		t.Fatalf("raw bytes must not be text-decoded: %x", []byte(raw))
	}
	if arg.String() != "dead00" {
		t.Fatalf("unexpected raw text: %q", arg.String())
	}
	if next.Len() != 0 {
		t.Fatalf("expected nothing left, got %d", next.Len())
	}
}

func TestDecodeArgumentASCIIMasksHighBit(t *testing.T) {
	buf := dlttest.String(binary.LittleEndian, "a\xe1", false)
	arg, _, err := DecodeArgument(NewCursor(buf, false))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if arg.Value != StringValue("aa") {
		t.Fatalf("unexpected ascii decode: %q", arg.Value)
	}
}

func TestDecodeArgumentFixedPointParsedNotApplied(t *testing.T) {
	buf := dlttest.FixedUint(binary.LittleEndian, dlttest.TYLE16, 0.5, 10, 100)
	arg, next, err := DecodeArgument(NewCursor(buf, false))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if arg.FixedPoint == nil {
		t.Fatalf("expected fixed point metadata")
	}
	if arg.FixedPoint.Quantization != 0.5 || arg.FixedPoint.Offset != 10 {
		t.Fatalf("unexpected fixed point: %+v", *arg.FixedPoint)
	}
	if arg.Value != UintValue(100) {
		t.Fatalf("quantization must not be applied, got %v", arg.Value)
	}
	if next.Len() != 0 {
		t.Fatalf("expected fixed point fully consumed, %d left", next.Len())
	}
}

func TestDecodeArgumentWidth128DecodesToZero(t *testing.T) {
	buf := append(dlttest.Uint(binary.LittleEndian, dlttest.TYLE128, 0), 0x99)
	arg, next, err := DecodeArgument(NewCursor(buf, false))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if arg.Value != UintValue(0) {
		t.Fatalf("expected zero, got %v", arg.Value)
	}
	if next.Len() != 1 {
		t.Fatalf("expected 16 value bytes consumed, %d left", next.Len())
	}
}

func TestDecodeArgumentNoProcessor(t *testing.T) {
	le := binary.LittleEndian
	for name, buf := range map[string][]byte{
		"undefined": dlttest.TypeInfo(le, dlttest.VARI),
		"array":     append(dlttest.TypeInfo(le, dlttest.ARAY|dlttest.TYLE8), 0, 0),
		"struct":    dlttest.Struct(le, 2),
	} {
		_, next, err := DecodeArgument(NewCursor(buf, false))
		if !errors.Is(err, ErrNoArgumentProcessor) {
			t.Fatalf("%s: expected ErrNoArgumentProcessor, got %v", name, err)
		}
		if next.Offset() != 0 {
			t.Fatalf("%s: failed decode advanced cursor", name)
		}
	}
}

func TestDecodeArgumentTruncatedValue(t *testing.T) {
	buf := dlttest.String(binary.LittleEndian, "truncated", false)
	_, _, err := DecodeArgument(NewCursor(buf[:len(buf)-3], false))
	if !errors.Is(err, ErrNotAllArgsParsed) {
		t.Fatalf("expected ErrNotAllArgsParsed, got %v", err)
	}
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected bounds cause to be wrapped, got %v", err)
	}
}
