package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "dltcat", "viewer":
		return viewerTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const viewerTemplate = `name = "dltcat"

[source]
mode = "file"
file = "trace.dlt"
addr = "127.0.0.1:3490"
dial_timeout_ms = 5000
max_connect_attempts = 0

[source.backoff]
initial_delay_ms = 250
multiplier = 2.0
max_delay_ms = 5000
jitter = true

[format]
columns = ["DATETIME", "ECUID", "MCNT", "TMS", "EID", "APID", "CTID", "MSTP", "MTIN", "PAYLOAD"]
columns_delimiter = " "
arguments_delimiter = " "
mtin_filter = []
datetime = false
timezone = "UTC"
stop_on_error = false

[metrics]
enabled = false
addr = "127.0.0.1:9464"
cors_origins = ["http://localhost:3000"]
`
