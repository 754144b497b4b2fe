// Package stream turns a byte stream of DLT messages into packets.
//
// Reassembler buffers partial reads and emits every decodable record per
// Ingest call. Formatter wraps it with column selection, MTIN filtering and
// text rendering. Neither type is safe for concurrent use; independent
// instances share nothing.
package stream
