package adapter

import (
	"fmt"
	"net"
	"strconv"
)

// NetworkAdapter forwards writes directly to a printer listening on a TCP
// port (typically 9100). There is no buffering: Write maps 1:1 to the
// stream and Flush has nothing to do.
type NetworkAdapter struct {
	conn net.Conn
}

// NewNetworkAdapter dials the printer at host:port.
func NewNetworkAdapter(host string, port uint16) (*NetworkAdapter, error) {
	conn, err := net.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(int(port))))
	if err != nil {
		return nil, fmt.Errorf("connect to printer: %w", err)
	}
	return &NetworkAdapter{conn: conn}, nil
}

// NewConnAdapter wraps an already-established connection.
func NewConnAdapter(conn net.Conn) *NetworkAdapter {
	return &NetworkAdapter{conn: conn}
}

// Write sends data on the stream immediately.
func (a *NetworkAdapter) Write(data []byte) (int, error) {
	return a.conn.Write(data)
}

// Flush is a no-op: every Write already went out on the stream.
func (a *NetworkAdapter) Flush() error {
	return nil
}

// Close closes the connection.
func (a *NetworkAdapter) Close() error {
	return a.conn.Close()
}
