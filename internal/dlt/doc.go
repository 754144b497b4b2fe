// Package dlt decodes Diagnostic Log and Trace messages.
//
// Ownership boundary:
// - byte cursor and error taxonomy
// - standard, extended and storage headers
// - verbose/non-verbose payloads and typed arguments
// - single packet decode and availability probe
//
// Buffer reassembly across partial reads lives in the stream subpackage.
package dlt
