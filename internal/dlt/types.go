package dlt

import (
	"fmt"
	"strings"
)

// MessageType is the MSTP field of the extended header.
type MessageType uint8

const (
	TypeLog MessageType = iota
	TypeAppTrace
	TypeNwTrace
	TypeControl
	TypeMSTPUndefined MessageType = 0xff
)

var messageTypeNames = map[MessageType][2]string{
	TypeLog:      {"DLT_TYPE_LOG", "LOG"},
	TypeAppTrace: {"DLT_TYPE_APP_TRACE", "APP_TRACE"},
	TypeNwTrace:  {"DLT_TYPE_NW_TRACE", "NW_TRACE"},
	TypeControl:  {"DLT_TYPE_CONTROL", "CONTROL"},
}

func parseMessageType(v uint8) MessageType {
	mt := MessageType(v)
	if _, ok := messageTypeNames[mt]; ok {
		return mt
	}
	return TypeMSTPUndefined
}

func (t MessageType) String() string {
	if n, ok := messageTypeNames[t]; ok {
		return n[0]
	}
	return "UNDEFINED"
}

// Short returns the column form, e.g. LOG.
func (t MessageType) Short() string {
	if n, ok := messageTypeNames[t]; ok {
		return n[1]
	}
	return "UNDEFINED"
}

// MessageTypeInfo is the MTIN field resolved against its MSTP.
type MessageTypeInfo uint8

const (
	MTINUndefined MessageTypeInfo = iota

	LogFatal
	LogError
	LogWarn
	LogInfo
	LogDebug
	LogVerbose

	TraceVariable
	TraceFunctionIn
	TraceFunctionOut
	TraceState
	TraceVFB

	NwTraceIPC
	NwTraceCAN
	NwTraceFlexRay
	NwTraceMOST

	ControlRequest
	ControlResponse
	ControlTime
)

var mtinNames = [...][2]string{
	MTINUndefined:    {"UNDEFINED", "UNDEFINED"},
	LogFatal:         {"DLT_LOG_FATAL", "FATAL"},
	LogError:         {"DLT_LOG_ERROR", "ERROR"},
	LogWarn:          {"DLT_LOG_WARN", "WARN"},
	LogInfo:          {"DLT_LOG_INFO", "INFO"},
	LogDebug:         {"DLT_LOG_DEBUG", "DEBUG"},
	LogVerbose:       {"DLT_LOG_VERBOSE", "VERBOSE"},
	TraceVariable:    {"DLT_TRACE_VARIABLE", "VARIABLE"},
	TraceFunctionIn:  {"DLT_TRACE_FUNCTION_IN", "FUNCTION_IN"},
	TraceFunctionOut: {"DLT_TRACE_FUNCTION_OUT", "FUNCTION_OUT"},
	TraceState:       {"DLT_TRACE_STATE", "STATE"},
	TraceVFB:         {"DLT_TRACE_VFB", "VFB"},
	NwTraceIPC:       {"DLT_NW_TRACE_IPC", "IPC"},
	NwTraceCAN:       {"DLT_NW_TRACE_CAN", "CAN"},
	NwTraceFlexRay:   {"DLT_NW_TRACE_FLEXRAY", "FLEXRAY"},
	NwTraceMOST:      {"DLT_NW_TRACE_MOST", "MOST"},
	ControlRequest:   {"DLT_CONTROL_REQUEST", "REQUEST"},
	ControlResponse:  {"DLT_CONTROL_RESPONSE", "RESPONSE"},
	ControlTime:      {"DLT_CONTROL_TIME", "TIME"},
}

// mtinByType maps the raw 4-bit MTIN value per message type.
var mtinByType = map[MessageType]map[uint8]MessageTypeInfo{
	TypeLog: {
		0x01: LogFatal,
		0x02: LogError,
		0x03: LogWarn,
		0x04: LogInfo,
		0x05: LogDebug,
		0x06: LogVerbose,
	},
	TypeAppTrace: {
		0x01: TraceVariable,
		0x02: TraceFunctionIn,
		0x03: TraceFunctionOut,
		0x04: TraceState,
		0x05: TraceVFB,
	},
	TypeNwTrace: {
		0x01: NwTraceIPC,
		0x02: NwTraceCAN,
		0x03: NwTraceFlexRay,
		0x04: NwTraceMOST,
	},
	TypeControl: {
		0x01: ControlRequest,
		0x02: ControlResponse,
		0x03: ControlTime,
	},
}

func resolveMTIN(mstp MessageType, raw uint8) MessageTypeInfo {
	if m, ok := mtinByType[mstp]; ok {
		if v, ok := m[raw]; ok {
			return v
		}
	}
	return MTINUndefined
}

func (m MessageTypeInfo) String() string {
	if int(m) < len(mtinNames) {
		return mtinNames[m][0]
	}
	return "UNDEFINED"
}

// Short returns the column form, e.g. INFO.
func (m MessageTypeInfo) Short() string {
	if int(m) < len(mtinNames) {
		return mtinNames[m][1]
	}
	return "UNDEFINED"
}

// ParseMessageTypeInfo accepts either the long (DLT_LOG_INFO) or short (INFO) name.
// Short names are unique across message types.
func ParseMessageTypeInfo(s string) (MessageTypeInfo, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range mtinNames {
		if MessageTypeInfo(i) == MTINUndefined {
			continue
		}
		if s == n[0] || s == n[1] {
			return MessageTypeInfo(i), nil
		}
	}
	return MTINUndefined, fmt.Errorf("dlt: unknown message type info %q", s)
}
