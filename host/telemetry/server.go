// Package telemetry exposes the machine over a WebSocket: status
// snapshots stream out as binary frames, and single realtime control
// characters received from a client are relayed into the same ingest
// path the serial stream uses.
package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"grblcore/protocol"
	"grblcore/state"
)

// Server is the WebSocket telemetry endpoint.
type Server struct {
	addr string

	// Relay receives control bytes sent by remote clients; wired to
	// the realtime ingest's Classify.
	Relay func(byte) bool

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	scratch protocol.ScratchOutput

	httpServer *http.Server
}

// New returns a server listening on addr once Start is called.
func New(addr string) *Server {
	return &Server{
		addr:    addr,
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start begins serving in the background.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/telemetry", s.handleWebSocket)

	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ln := make(chan error, 1)
	go func() { ln <- s.httpServer.ListenAndServe() }()

	select {
	case err := <-ln:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s.httpServer != nil {
		s.httpServer.Close()
	}
	s.mu.Lock()
	for c := range s.clients {
		c.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	// Read loop: each received byte is a realtime control character.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if s.Relay == nil {
			continue
		}
		for _, b := range data {
			s.Relay(b)
		}
	}
}

// BroadcastStatus snapshots the machine into a binary status frame and
// pushes it to every connected client.
func (s *Server) BroadcastStatus(m *state.Machine) {
	pos := m.MachinePosition()
	frame := protocol.StatusFrame{
		Mode:       uint8(modeOrdinal(m.Mode)),
		Alarm:      uint8(m.RT.PendingAlarm()),
		FeedPct:    uint8(m.Override.FeedPct),
		RapidPct:   uint8(m.Override.RapidPct),
		SpindlePct: uint8(m.Override.SpindlePct),
		PositionUM: make([]int32, len(pos)),
	}
	for i, p := range pos {
		frame.PositionUM[i] = int32(p * 1000)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data := protocol.EncodeStatusFrame(&s.scratch, &frame)
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.WriteMessage(websocket.BinaryMessage, data); err != nil {
			c.Close()
			delete(s.clients, c)
		}
	}
}

// modeOrdinal compresses the mode bit to a small wire value.
func modeOrdinal(m state.Mode) int {
	n := 0
	for m > 1 {
		m >>= 1
		n++
	}
	return n
}
