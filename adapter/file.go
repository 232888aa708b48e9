package adapter

import (
	"io"
	"os"
)

// FileAdapter forwards writes to a generic byte sink, typically a local
// file or a character device such as /dev/usb/lp0.
type FileAdapter struct {
	w io.Writer
}

// NewFileAdapter opens path for writing, creating it if absent.
func NewFileAdapter(path string) (*FileAdapter, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileAdapter{w: f}, nil
}

// NewWriterAdapter wraps an already-open sink.
func NewWriterAdapter(w io.Writer) *FileAdapter {
	return &FileAdapter{w: w}
}

// Write forwards data to the sink immediately.
func (a *FileAdapter) Write(data []byte) (int, error) {
	return a.w.Write(data)
}

// Flush forwards to the sink's own flush when it has one. Files are
// synced to storage; plain writers have nothing to flush.
func (a *FileAdapter) Flush() error {
	switch w := a.w.(type) {
	case *os.File:
		return w.Sync()
	case interface{ Flush() error }:
		return w.Flush()
	}
	return nil
}

// Close closes the sink when it is closable.
func (a *FileAdapter) Close() error {
	if c, ok := a.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
