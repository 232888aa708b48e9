package usb

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferBeforeConfigure(t *testing.T) {
	s := &Session{}

	_, err := s.Transfer([]byte{0x1B, 0x40}, time.Second)
	require.Error(t, err)

	var te *TransferError
	assert.ErrorAs(t, err, &te)
}

func TestOpenUnknownDevice(t *testing.T) {
	// ffff:ffff is reserved and never on a real bus.
	_, _, err := Open(0xffff, 0xffff)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
}

func TestFindAndTransfer(t *testing.T) {
	sess, loc, err := Find()
	if errors.Is(err, ErrNoPrinter) {
		t.Skip("No USB printer found, skipping test")
	}
	require.NoError(t, err)
	defer sess.Close()

	assert.NotNil(t, sess.Desc())

	require.NoError(t, sess.Reset())
	require.NoError(t, sess.Configure(loc))

	// ESC @ initializes the printer without producing output.
	n, err := sess.Transfer([]byte{0x1B, 0x40}, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
