package serial

import (
	"sync"

	"grblcore/protocol"
)

// Stream adapts a Port to the firmware's non-blocking stream contract:
// a background reader drains the port into a bounded FIFO, the
// foreground polls one byte at a time, and jog-cancel/stop can discard
// everything buffered but not yet consumed.
type Stream struct {
	port Port

	// Siphon, when set, sees every incoming byte on the reader
	// goroutine before buffering; a true return consumes the byte.
	// Wired to the realtime ingest so control characters take effect
	// even while the foreground is parked in a busy-wait.
	Siphon func(byte) bool

	mu        sync.Mutex
	fifo      *protocol.FifoBuffer
	suspended bool

	closed chan struct{}
}

// NewStream starts the reader goroutine over an open port.
func NewStream(port Port) *Stream {
	s := &Stream{
		port:   port,
		fifo:   protocol.NewFifoBuffer(1024),
		closed: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *Stream) readLoop() {
	buf := make([]byte, 64)
	for {
		select {
		case <-s.closed:
			return
		default:
		}
		n, err := s.port.Read(buf)
		if err != nil && n == 0 {
			continue // read timeout; poll again
		}
		for _, b := range buf[:n] {
			if s.Siphon != nil && s.Siphon(b) {
				continue
			}
			s.mu.Lock()
			if !s.suspended {
				s.fifo.Write([]byte{b})
			}
			s.mu.Unlock()
		}
	}
}

// Read returns the next buffered byte without blocking.
func (s *Stream) Read() (byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var one [1]byte
	if s.fifo.Read(one[:]) == 0 {
		return 0, false
	}
	return one[0], true
}

// Write sends bytes back out the port.
func (s *Stream) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// SuspendRead pauses or resumes buffering of incoming bytes.
func (s *Stream) SuspendRead(suspend bool) {
	s.mu.Lock()
	s.suspended = suspend
	s.mu.Unlock()
}

// CancelReadBuffer discards everything buffered but not yet consumed.
func (s *Stream) CancelReadBuffer() {
	s.mu.Lock()
	s.fifo.Reset()
	s.mu.Unlock()
}

// Close stops the reader and closes the port.
func (s *Stream) Close() error {
	close(s.closed)
	return s.port.Close()
}
