package usb

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPrinter is returned when no printer-class device with a bulk OUT
	// endpoint is present on the bus.
	ErrNoPrinter = errors.New("no printer found")

	// ErrDeviceUnavailable is returned when a device with the requested
	// identity cannot be opened (absent, already claimed, or no permission).
	ErrDeviceUnavailable = errors.New("device unavailable")
)

// Configure stage names, reported by ConfigError.
const (
	StageSetConfig      = "set config"
	StageClaimInterface = "claim interface"
	StageSetAltSetting  = "set alt setting"
	StageOpenEndpoint   = "open endpoint"
)

// ConfigError reports the first configuration stage that failed. The device
// is left unconfigured; a later Reset+Configure cycle may still succeed.
type ConfigError struct {
	Stage string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configure printer: %s: %v", e.Stage, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TransferError reports a failed bulk transfer (timeout, stall, or the
// device disconnecting mid-write).
type TransferError struct {
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("bulk transfer: %v", e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }
