package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixxel-company-limited/escpos-transport/usb"
)

// fakeSession records the flush protocol instead of touching hardware.
type fakeSession struct {
	calls       []string
	resetErr    error
	configErr   error
	transferErr error

	gotLoc      usb.Locator
	gotPayloads [][]byte
	gotTimeout  time.Duration
	closed      bool
}

func (f *fakeSession) Reset() error {
	f.calls = append(f.calls, "reset")
	return f.resetErr
}

func (f *fakeSession) Configure(loc usb.Locator) error {
	f.calls = append(f.calls, "configure")
	f.gotLoc = loc
	return f.configErr
}

func (f *fakeSession) Transfer(payload []byte, timeout time.Duration) (int, error) {
	f.calls = append(f.calls, "transfer")
	f.gotPayloads = append(f.gotPayloads, append([]byte(nil), payload...))
	f.gotTimeout = timeout
	if f.transferErr != nil {
		return 0, f.transferErr
	}
	return len(payload), nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

var testLocator = usb.Locator{Config: 1, Interface: 0, Alt: 0, Endpoint: 2, Address: 0x02}

func newTestAdapter(f *fakeSession) *USBAdapter {
	return &USBAdapter{sess: f, loc: testLocator, timeout: DefaultTimeout}
}

func TestUSBAdapterWriteBuffers(t *testing.T) {
	f := &fakeSession{}
	a := newTestAdapter(f)

	chunks := [][]byte{{0x1B, 0x40}, {0x0A}, []byte("hello")}
	for _, chunk := range chunks {
		n, err := a.Write(chunk)
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}

	// Write only accumulates; no device I/O yet.
	assert.Empty(t, f.calls)
	assert.Equal(t, []byte("\x1B\x40\x0Ahello"), a.buf.Bytes())
}

func TestUSBAdapterFlushProtocol(t *testing.T) {
	f := &fakeSession{}
	a := newTestAdapter(f)

	_, err := a.Write([]byte{0x1B, 0x40})
	require.NoError(t, err)
	_, err = a.Write([]byte{0x0A})
	require.NoError(t, err)

	require.NoError(t, a.Flush())

	assert.Equal(t, []string{"reset", "configure", "transfer"}, f.calls)
	assert.Equal(t, testLocator, f.gotLoc)
	assert.Equal(t, DefaultTimeout, f.gotTimeout)
	require.Len(t, f.gotPayloads, 1)
	assert.Equal(t, []byte{0x1B, 0x40, 0x0A}, f.gotPayloads[0])
	assert.Zero(t, a.buf.Len())
}

func TestUSBAdapterFlushResetFailure(t *testing.T) {
	f := &fakeSession{resetErr: errors.New("reset failed")}
	a := newTestAdapter(f)

	_, err := a.Write([]byte("job"))
	require.NoError(t, err)

	err = a.Flush()
	require.Error(t, err)
	assert.Equal(t, []string{"reset"}, f.calls)
	assert.Zero(t, a.buf.Len(), "buffer must be cleared on a failed flush")
}

func TestUSBAdapterFlushConfigureFailure(t *testing.T) {
	f := &fakeSession{configErr: &usb.ConfigError{
		Stage: usb.StageClaimInterface,
		Err:   errors.New("interface busy"),
	}}
	a := newTestAdapter(f)

	_, err := a.Write([]byte("job"))
	require.NoError(t, err)

	err = a.Flush()
	require.Error(t, err)

	var ce *usb.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, usb.StageClaimInterface, ce.Stage)

	assert.NotContains(t, f.calls, "transfer")
	assert.Zero(t, a.buf.Len())
}

func TestUSBAdapterFlushTransferFailure(t *testing.T) {
	f := &fakeSession{transferErr: &usb.TransferError{Err: context.DeadlineExceeded}}
	a := newTestAdapter(f)

	_, err := a.Write([]byte("first job"))
	require.NoError(t, err)

	err = a.Flush()
	require.Error(t, err)

	var te *usb.TransferError
	assert.ErrorAs(t, err, &te)
	assert.Zero(t, a.buf.Len())

	// The next cycle starts fresh: no residue from the failed job.
	f.transferErr = nil
	_, err = a.Write([]byte("second job"))
	require.NoError(t, err)
	require.NoError(t, a.Flush())

	require.Len(t, f.gotPayloads, 2)
	assert.Equal(t, []byte("second job"), f.gotPayloads[1])
}

func TestUSBAdapterFlushEmptyBuffer(t *testing.T) {
	f := &fakeSession{}
	a := newTestAdapter(f)

	require.NoError(t, a.Flush())
	require.Len(t, f.gotPayloads, 1)
	assert.Empty(t, f.gotPayloads[0])
}

func TestUSBAdapterTolerantDiscards(t *testing.T) {
	a := &USBAdapter{timeout: DefaultTimeout}

	assert.False(t, a.Connected())

	n, err := a.Write([]byte("into the void"))
	require.NoError(t, err)
	assert.Equal(t, 13, n)

	require.NoError(t, a.Flush())
	assert.Zero(t, a.buf.Len())
	require.NoError(t, a.Close())
}

func TestUSBAdapterSetTimeout(t *testing.T) {
	f := &fakeSession{}
	a := newTestAdapter(f)
	a.SetTimeout(2 * time.Second)

	_, err := a.Write([]byte{0x0A})
	require.NoError(t, err)
	require.NoError(t, a.Flush())

	assert.Equal(t, 2*time.Second, f.gotTimeout)
}

func TestUSBAdapterClose(t *testing.T) {
	f := &fakeSession{}
	a := newTestAdapter(f)

	_, err := a.Write([]byte("pending"))
	require.NoError(t, err)

	require.NoError(t, a.Close())
	assert.True(t, f.closed)
	assert.Zero(t, a.buf.Len())
}

func TestNewUSBAdapterAuto(t *testing.T) {
	a, err := NewUSBAdapterAuto()
	if err != nil {
		t.Skip("No USB printer found, skipping test")
	}
	defer a.Close()

	assert.True(t, a.Connected())

	_, err = a.Write([]byte{0x1B, 0x40})
	require.NoError(t, err)
	require.NoError(t, a.Flush())
}
