package adapter

import (
	"bytes"
	"errors"
	"time"

	"github.com/nixxel-company-limited/escpos-transport/usb"
)

// DefaultTimeout bounds the single bulk transfer a Flush performs.
const DefaultTimeout = 10 * time.Second

// session is the slice of usb.Session the flush protocol needs. Tests
// substitute a fake to drive the protocol without hardware.
type session interface {
	Reset() error
	Configure(loc usb.Locator) error
	Transfer(payload []byte, timeout time.Duration) (int, error)
	Close() error
}

// USBAdapter accumulates writes in memory and delivers them to a USB
// printer. Write never touches the device; Flush resets and reconfigures
// it, then issues one bulk transfer of the whole pending buffer. The
// buffer is cleared on every Flush, successful or not: a partially sent
// payload is never resent, so a failed job cannot double-print. Callers
// that need guaranteed delivery must resend at the application level.
//
// Not safe for concurrent use; a single caller owns the adapter.
type USBAdapter struct {
	sess    session // nil when a tolerant constructor found no printer
	loc     usb.Locator
	buf     bytes.Buffer
	timeout time.Duration
}

// NewUSBAdapter binds to the printer with the given vendor/product
// identity. Construction fails with usb.ErrDeviceUnavailable when the
// device cannot be opened and usb.ErrNoPrinter when it has no bulk OUT
// endpoint.
func NewUSBAdapter(vid, pid uint16) (*USBAdapter, error) {
	sess, loc, err := usb.Open(vid, pid)
	if err != nil {
		return nil, err
	}
	return &USBAdapter{sess: sess, loc: loc, timeout: DefaultTimeout}, nil
}

// NewUSBAdapterAuto binds to the first printer-class device found on the
// bus. Construction fails with usb.ErrNoPrinter when there is none.
func NewUSBAdapterAuto() (*USBAdapter, error) {
	sess, loc, err := usb.Find()
	if err != nil {
		return nil, err
	}
	return &USBAdapter{sess: sess, loc: loc, timeout: DefaultTimeout}, nil
}

// NewUSBAdapterTolerant is like NewUSBAdapterAuto, except that an absent
// printer is not an error: the adapter accepts writes and silently
// discards them on Flush. Use Connected to tell the two apart.
func NewUSBAdapterTolerant() (*USBAdapter, error) {
	sess, loc, err := usb.Find()
	if errors.Is(err, usb.ErrNoPrinter) {
		return &USBAdapter{timeout: DefaultTimeout}, nil
	}
	if err != nil {
		return nil, err
	}
	return &USBAdapter{sess: sess, loc: loc, timeout: DefaultTimeout}, nil
}

// Connected reports whether a printer was bound at construction.
func (a *USBAdapter) Connected() bool {
	return a.sess != nil
}

// SetTimeout overrides the transfer timeout used by Flush.
func (a *USBAdapter) SetTimeout(d time.Duration) {
	a.timeout = d
}

// Write appends data to the pending buffer and reports the full count. It
// performs no device I/O and cannot fail on hardware state, even with the
// printer absent or disconnected.
func (a *USBAdapter) Write(data []byte) (int, error) {
	a.buf.Write(data)
	return len(data), nil
}

// Flush sends the pending buffer to the printer: reset, reconfigure, one
// bulk transfer. The first failing step aborts the cycle and is returned
// as-is (usb.ConfigError, usb.TransferError); the buffer is cleared
// regardless of the outcome and the adapter stays usable for the next
// write/flush cycle. Without a bound printer Flush discards and succeeds.
func (a *USBAdapter) Flush() error {
	defer a.buf.Reset()

	if a.sess == nil {
		return nil
	}
	if err := a.sess.Reset(); err != nil {
		return err
	}
	if err := a.sess.Configure(a.loc); err != nil {
		return err
	}
	if _, err := a.sess.Transfer(a.buf.Bytes(), a.timeout); err != nil {
		return err
	}
	return nil
}

// Close drops any pending bytes and closes the device session.
func (a *USBAdapter) Close() error {
	a.buf.Reset()
	if a.sess == nil {
		return nil
	}
	return a.sess.Close()
}
