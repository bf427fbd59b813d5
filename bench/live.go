package bench

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// LiveServer pushes per-configuration results to websocket subscribers so
// long sweeps can be watched as they run. Results are sent as one JSON text
// message each; subscribers that stop reading are dropped.
type LiveServer struct {
	listener net.Listener
	server   *http.Server
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}

	handlers sync.WaitGroup
}

// NewLiveServer binds addr immediately so the effective address is known
// before Start (addr may use port 0).
func NewLiveServer(addr string) (*LiveServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &LiveServer{
		listener: listener,
		conns:    map[*websocket.Conn]struct{}{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/live", s.handleLive)
	s.server = &http.Server{Handler: mux}
	return s, nil
}

// Addr returns the bound listen address.
func (s *LiveServer) Addr() string {
	return s.listener.Addr().String()
}

// Start accepts subscribers until Close.
func (s *LiveServer) Start() {
	s.handlers.Add(1)
	go func() {
		defer s.handlers.Done()
		_ = s.server.Serve(s.listener)
	}()
}

func (s *LiveServer) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	// Drain the connection so control frames are processed; the subscriber
	// is removed when its read side errors.
	s.handlers.Add(1)
	go func() {
		defer s.handlers.Done()
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				break
			}
		}
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()
}

// SubscriberCount returns the number of connected subscribers.
func (s *LiveServer) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Publish sends one result to every subscriber, dropping connections whose
// writes fail.
func (s *LiveServer) Publish(result Result) {
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		if writeErr := conn.WriteMessage(websocket.TextMessage, payload); writeErr != nil {
			delete(s.conns, conn)
			_ = conn.Close()
		}
	}
}

// Close stops the listener and disconnects all subscribers, then waits for
// handler goroutines to exit.
func (s *LiveServer) Close() error {
	err := s.server.Close()
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
	s.mu.Unlock()
	s.handlers.Wait()
	return err
}
