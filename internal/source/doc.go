// Package source feeds bytes from a stored file or a live daemon connection
// into a stream.Formatter and hands every resulting chunk to a Sink.
package source
