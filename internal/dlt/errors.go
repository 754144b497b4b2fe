package dlt

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a decode failure.
type ErrorCode string

const (
	CodeHeaderMinLen        ErrorCode = "HEADER_MIN_LEN"
	CodeNoDLTPattern        ErrorCode = "NO_DLT_PATTERN"
	CodePacketLen           ErrorCode = "PACKET_LEN"
	CodeTypeInfoLen         ErrorCode = "TYPE_INFO_LEN"
	CodeNotAllArgsParsed    ErrorCode = "NOT_ALL_ARGS_PARSED"
	CodeNoArgumentProcessor ErrorCode = "NO_ARGUMENT_PROCESSOR"
	CodePayloadLen          ErrorCode = "PAYLOAD_LEN"
	CodeUnknown             ErrorCode = "UNKNOWN"
)

var (
	ErrHeaderMinLen        = errors.New("dlt: header shorter than minimal length")
	ErrNoDLTPattern        = errors.New("dlt: storage pattern not found")
	ErrPacketLen           = errors.New("dlt: buffer shorter than packet length")
	ErrTypeInfoLen         = errors.New("dlt: buffer shorter than type info")
	ErrNotAllArgsParsed    = errors.New("dlt: not all arguments parsed")
	ErrNoArgumentProcessor = errors.New("dlt: no argument processor")
	ErrPayloadLen          = errors.New("dlt: payload shorter than minimal length")
	ErrUnknown             = errors.New("dlt: unknown decode failure")

	ErrOutOfBounds = errors.New("dlt: read out of bounds")
)

var codeSentinels = map[ErrorCode]error{
	CodeHeaderMinLen:        ErrHeaderMinLen,
	CodeNoDLTPattern:        ErrNoDLTPattern,
	CodePacketLen:           ErrPacketLen,
	CodeTypeInfoLen:         ErrTypeInfoLen,
	CodeNotAllArgsParsed:    ErrNotAllArgsParsed,
	CodeNoArgumentProcessor: ErrNoArgumentProcessor,
	CodePayloadLen:          ErrPayloadLen,
	CodeUnknown:             ErrUnknown,
}

// DecodeError is the error returned by every decoder in this package.
// errors.Is matches it against the sentinel of its Code.
type DecodeError struct {
	Code ErrorCode
	Msg  string
	Err  error
}

func newError(code ErrorCode, format string, args ...any) *DecodeError {
	return &DecodeError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(code ErrorCode, err error, format string, args ...any) *DecodeError {
	return &DecodeError{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dlt %s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("dlt %s: %s", e.Code, e.Msg)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	sentinel, ok := codeSentinels[e.Code]
	return ok && sentinel == target
}

// CodeOf returns the code carried by err, or CodeUnknown when err is not a DecodeError.
func CodeOf(err error) ErrorCode {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnknown
}

// IsPending reports whether err only means more bytes are needed.
func IsPending(err error) bool {
	return errors.Is(err, ErrPacketLen) || errors.Is(err, ErrHeaderMinLen)
}
