// Package adapter provides the byte sinks a printer command encoder writes
// through: a buffered USB transport, a direct network stream, and a generic
// file-like sink. All three satisfy the same Adapter contract and are
// interchangeable at the call site.
package adapter

// Adapter is the sink contract consumed by the command-encoding layer.
// Payload contents are never interpreted here.
type Adapter interface {
	// Write accepts data for delivery and returns the number of bytes
	// accepted. Only the USB adapter defers the actual I/O to Flush.
	Write(data []byte) (int, error)

	// Flush delivers everything accepted so far to the physical target.
	Flush() error

	// Close releases the underlying device or stream.
	Close() error
}
