package usb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/google/gousb"
)

// Session owns an open handle to one physical printer. The handle is held
// exclusively: no other component may operate it while the session lives.
// A session is not safe for concurrent use; the caller serializes access.
//
// The expected cycle per print job is Reset, then Configure, then Transfer.
// Reset runs before every reconfiguration because a prior transfer, or
// another process, may have left the device in an indeterminate state.
type Session struct {
	ctx *gousb.Context
	dev *gousb.Device

	// claimed between Configure and the next Reset/Close
	cfg  *gousb.Config
	intf *gousb.Interface
	out  *gousb.OutEndpoint
}

// Open binds to the device with the given vendor/product identity and
// locates its first bulk OUT endpoint. When multiple identical devices are
// attached the first one in enumeration order wins.
func Open(vid, pid uint16) (*Session, Locator, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, Locator{}, fmt.Errorf("%w: %04x:%04x: %v", ErrDeviceUnavailable, vid, pid, err)
	}
	if dev == nil {
		ctx.Close()
		return nil, Locator{}, fmt.Errorf("%w: %04x:%04x", ErrDeviceUnavailable, vid, pid)
	}
	return newSession(ctx, dev)
}

// Find scans the bus and binds to the first printer-class device that
// exposes a bulk OUT endpoint. Enumeration order is whatever the platform
// yields, so the pick among several printers is not stable across runs.
// ErrNoPrinter is returned when the scan turns up nothing.
func Find() (*Session, Locator, error) {
	ctx := gousb.NewContext()
	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return HasPrinterInterface(desc)
	})
	if err != nil {
		if len(devices) == 0 {
			ctx.Close()
			return nil, Locator{}, fmt.Errorf("%w: %v", ErrNoPrinter, err)
		}
		// Unreadable devices are uninteresting, not fatal to the scan.
		log.Printf("usb: enumeration skipped some devices: %v", err)
	}

	var picked *gousb.Device
	var loc Locator
	for _, dev := range devices {
		if picked == nil {
			if l, ok := FindOutEndpoint(dev.Desc); ok {
				picked, loc = dev, l
				continue
			}
		}
		dev.Close()
	}
	if picked == nil {
		ctx.Close()
		return nil, Locator{}, ErrNoPrinter
	}

	if runtime.GOOS == "linux" {
		picked.SetAutoDetach(true)
	}
	return &Session{ctx: ctx, dev: picked}, loc, nil
}

func newSession(ctx *gousb.Context, dev *gousb.Device) (*Session, Locator, error) {
	loc, ok := FindOutEndpoint(dev.Desc)
	if !ok {
		dev.Close()
		ctx.Close()
		return nil, Locator{}, ErrNoPrinter
	}
	if runtime.GOOS == "linux" {
		dev.SetAutoDetach(true)
	}
	return &Session{ctx: ctx, dev: dev}, loc, nil
}

// Desc returns the descriptor of the bound device.
func (s *Session) Desc() *gousb.DeviceDesc {
	return s.dev.Desc
}

// Reset issues a hardware reset of the device. Any claimed interface is
// released first; Configure must run again before the next Transfer.
func (s *Session) Reset() error {
	s.release()
	if err := s.dev.Reset(); err != nil {
		return fmt.Errorf("device reset: %w", err)
	}
	return nil
}

// Configure activates the configuration, claims the interface and selects
// the alternate setting named by loc, then opens its OUT endpoint. The
// first failing stage aborts the sequence.
func (s *Session) Configure(loc Locator) error {
	s.release()

	cfg, err := s.dev.Config(loc.Config)
	if err != nil {
		return &ConfigError{Stage: StageSetConfig, Err: err}
	}

	// gousb claims the interface and selects the alternate setting in one
	// call; the stage name reflects which of the two was requested.
	intf, err := cfg.Interface(loc.Interface, loc.Alt)
	if err != nil {
		cfg.Close()
		stage := StageClaimInterface
		if loc.Alt != 0 {
			stage = StageSetAltSetting
		}
		return &ConfigError{Stage: stage, Err: err}
	}

	out, err := intf.OutEndpoint(loc.Endpoint)
	if err != nil {
		intf.Close()
		cfg.Close()
		return &ConfigError{Stage: StageOpenEndpoint, Err: err}
	}

	s.cfg, s.intf, s.out = cfg, intf, out
	return nil
}

// Transfer performs one bulk write of payload to the endpoint opened by the
// preceding Configure, bounded by timeout. It returns the number of bytes
// the device accepted; a short count is reported, not retried. Once issued,
// the write cannot be aborted before the timeout expires.
func (s *Session) Transfer(payload []byte, timeout time.Duration) (int, error) {
	if s.out == nil {
		return 0, &TransferError{Err: errors.New("endpoint not configured")}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := s.out.WriteContext(ctx, payload)
	if err != nil {
		return n, &TransferError{Err: err}
	}
	return n, nil
}

// Close releases any claimed interface and closes the device and its
// context. The session cannot be reused afterwards.
func (s *Session) Close() error {
	s.release()

	var errs []error
	if s.dev != nil {
		if err := s.dev.Close(); err != nil {
			errs = append(errs, err)
		}
		s.dev = nil
	}
	if s.ctx != nil {
		if err := s.ctx.Close(); err != nil {
			errs = append(errs, err)
		}
		s.ctx = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close session: %v", errs)
	}
	return nil
}

func (s *Session) release() {
	s.out = nil
	if s.intf != nil {
		s.intf.Close()
		s.intf = nil
	}
	if s.cfg != nil {
		s.cfg.Close()
		s.cfg = nil
	}
}
