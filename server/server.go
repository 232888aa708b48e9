// Package server exposes a printer adapter on a TCP port, in the style of
// a JetDirect raw-print service: clients connect, send an opaque payload,
// and disconnect. One connection is one print job.
package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/nixxel-company-limited/escpos-transport/adapter"
)

// Server accepts raw payloads over TCP and forwards them to a printer
// adapter. Bytes are written to the adapter as they arrive; the adapter is
// flushed when the client disconnects. Jobs are serialized: the adapter is
// single-owner, so concurrent connections take turns.
type Server struct {
	adapter adapter.Adapter
	address string
	logger  *log.Logger

	mu       sync.Mutex
	listener net.Listener
	running  bool
	wg       sync.WaitGroup

	// jobMu holds the adapter for the duration of one connection's job.
	jobMu sync.Mutex
}

// New creates a server that forwards to device and listens on address.
func New(device adapter.Adapter, address string) *Server {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags|log.Lmsgprefix)
	return NewWithLogger(device, address, logger)
}

// NewWithLogger is New with a caller-supplied logger.
func NewWithLogger(device adapter.Adapter, address string, logger *log.Logger) *Server {
	return &Server{
		adapter: device,
		address: address,
		logger:  logger,
	}
}

// Start listens on the configured address and blocks serving connections
// until Stop is called.
func (s *Server) Start() error {
	if err := s.listen(); err != nil {
		return err
	}
	s.acceptConnections()
	return nil
}

// StartAsync starts the server in a goroutine and returns once it is
// listening.
func (s *Server) StartAsync() error {
	if err := s.listen(); err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptConnections()
	}()
	return nil
}

func (s *Server) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.listener = listener
	s.running = true
	s.logger.Printf("Listening on %s", s.address)
	return nil
}

func (s *Server) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()

			if !running {
				return
			}
			s.logger.Printf("Error accepting connection: %v", err)
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection forwards one client's payload to the adapter and
// flushes when the client is done. Any end of the connection, clean or
// not, ends the job; what arrived by then is what gets printed.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	client := conn.RemoteAddr().String()
	s.logger.Printf("Client connected: %s", client)

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	buf := make([]byte, 4096)
	total := 0
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if _, werr := s.adapter.Write(buf[:n]); werr != nil {
				s.logger.Printf("Error writing to printer: %v", werr)
				return
			}
			total += n
		}
		if err != nil {
			if err != io.EOF {
				s.logger.Printf("Error reading from %s: %v", client, err)
			}
			break
		}
	}

	if total == 0 {
		s.logger.Printf("Client %s sent no data", client)
		return
	}
	if err := s.adapter.Flush(); err != nil {
		s.logger.Printf("Print job from %s failed: %v", client, err)
		return
	}
	s.logger.Printf("Print job from %s: %d bytes", client, total)
}

// Stop closes the listener and waits for in-flight jobs to finish. The
// adapter is left open; the owner closes it.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}
	s.wg.Wait()

	s.logger.Println("Server stopped")
	return nil
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.address
}
