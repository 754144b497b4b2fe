package stream

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/dltkit/internal/dlt"
)

// Column names a rendered field.
type Column string

const (
	ColECUID    Column = "ECUID"
	ColDatetime Column = "DATETIME"

	ColUEH  Column = "UEH"
	ColMSBF Column = "MSBF"
	ColWEID Column = "WEID"
	ColWSID Column = "WSID"
	ColWTMS Column = "WTMS"
	ColVERS Column = "VERS"
	ColMCNT Column = "MCNT"
	ColLEN  Column = "LEN"
	ColSID  Column = "SID"
	ColTMS  Column = "TMS"
	ColEID  Column = "EID"

	ColMSIN Column = "MSIN"
	ColVERB Column = "VERB"
	ColMSTP Column = "MSTP"
	ColMTIN Column = "MTIN"
	ColNOAR Column = "NOAR"
	ColAPID Column = "APID"
	ColCTID Column = "CTID"

	ColPayload Column = "PAYLOAD"
)

var allColumns = []Column{
	ColECUID, ColDatetime,
	ColUEH, ColMSBF, ColWEID, ColWSID, ColWTMS, ColVERS, ColMCNT, ColLEN, ColSID, ColTMS, ColEID,
	ColMSIN, ColVERB, ColMSTP, ColMTIN, ColNOAR, ColAPID, ColCTID,
	ColPayload,
}

// DefaultColumns is the column order used when none is configured.
var DefaultColumns = []Column{
	ColDatetime, ColECUID, ColMCNT, ColTMS, ColEID, ColAPID, ColCTID, ColMSTP, ColMTIN, ColPayload,
}

const datetimeLayout = "2006-01-02 15:04:05.000"

// ParseColumns validates names case-insensitively.
func ParseColumns(names []string) ([]Column, error) {
	out := make([]Column, 0, len(names))
	for _, raw := range names {
		name := Column(strings.ToUpper(strings.TrimSpace(raw)))
		if name == "" {
			continue
		}
		if !knownColumn(name) {
			return nil, fmt.Errorf("stream: unknown column %q", raw)
		}
		out = append(out, name)
	}
	return out, nil
}

func knownColumn(c Column) bool {
	for _, k := range allColumns {
		if k == c {
			return true
		}
	}
	return false
}

func (f *Formatter) render(p *dlt.Packet, s *dlt.StorageHeader) string {
	var b strings.Builder
	for i, col := range f.cfg.Columns {
		if i > 0 {
			b.WriteString(f.cfg.ColumnsDelimiter)
		}
		b.WriteString(f.value(col, p, s))
	}
	return b.String()
}

func (f *Formatter) value(col Column, p *dlt.Packet, s *dlt.StorageHeader) string {
	std := p.Standard
	ext := p.Extended
	switch col {
	case ColECUID:
		if s == nil {
			return ""
		}
		return s.ECUID
	case ColDatetime:
		if s == nil {
			return ""
		}
		return f.datetime(s)
	case ColUEH:
		return strconv.FormatBool(std.UEH)
	case ColMSBF:
		return strconv.FormatBool(std.MSBF)
	case ColWEID:
		return strconv.FormatBool(std.WEID)
	case ColWSID:
		return strconv.FormatBool(std.WSID)
	case ColWTMS:
		return strconv.FormatBool(std.WTMS)
	case ColVERS:
		return strconv.Itoa(int(std.VERS))
	case ColMCNT:
		return strconv.Itoa(int(std.MCNT))
	case ColLEN:
		return strconv.Itoa(int(std.LEN))
	case ColSID:
		if !std.WSID {
			return ""
		}
		return strconv.FormatUint(uint64(std.SID), 10)
	case ColTMS:
		if !std.WTMS {
			return ""
		}
		return strconv.FormatUint(uint64(std.TMS), 10)
	case ColEID:
		return std.EID
	case ColPayload:
		return f.payload(p.Payload)
	}
	if ext == nil {
		return ""
	}
	switch col {
	case ColMSIN:
		return strconv.Itoa(int(ext.MSIN))
	case ColVERB:
		return strconv.FormatBool(ext.VERB)
	case ColMSTP:
		return ext.MSTP.Short()
	case ColMTIN:
		return ext.MTIN.Short()
	case ColNOAR:
		return strconv.Itoa(int(ext.NOAR))
	case ColAPID:
		return ext.APID
	case ColCTID:
		return ext.CTID
	}
	return ""
}

func (f *Formatter) datetime(s *dlt.StorageHeader) string {
	if !f.cfg.Datetime {
		return strconv.FormatFloat(s.UnixMillis(), 'f', -1, 64)
	}
	loc := f.cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return s.Time().In(loc).Format(datetimeLayout)
}

func (f *Formatter) payload(p dlt.Payload) string {
	if p.Mode == dlt.NonVerbose {
		id := "[" + strconv.FormatUint(uint64(p.MessageID), 10) + "]"
		if len(p.Data) == 0 {
			return id
		}
		return id + f.cfg.ArgumentsDelimiter + hex.EncodeToString(p.Data)
	}
	parts := make([]string, len(p.Arguments))
	for i, arg := range p.Arguments {
		parts[i] = arg.String()
	}
	return strings.Join(parts, f.cfg.ArgumentsDelimiter)
}
