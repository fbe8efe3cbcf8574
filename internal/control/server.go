// Package control is the line-oriented TCP surface a UI shell drives
// the player through. Commands get OK or ACK replies; clients may park
// in idle mode and be woken when a subsystem changes.
package control

import (
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/halvard/chime/internal/artwork"
	"github.com/halvard/chime/internal/library"
	"github.com/halvard/chime/internal/player"
)

// Server speaks the control protocol over TCP.
type Server struct {
	mu       sync.Mutex
	listener net.Listener
	addr     string
	running  bool

	player      *player.Player
	catalog     *library.Catalog
	playlistDir string
	art         *artwork.Cache
	rescan      func()

	// Idle connection management
	idleMu    sync.RWMutex
	idleConns map[*idleConnection]bool
}

// NewServer wires the protocol surface to the player and its
// collaborators. rescan triggers a library refresh and may be nil.
func NewServer(addr string, p *player.Player, catalog *library.Catalog, playlistDir string, art *artwork.Cache, rescan func()) *Server {
	s := &Server{
		addr:        addr,
		player:      p,
		catalog:     catalog,
		playlistDir: playlistDir,
		art:         art,
		rescan:      rescan,
		idleConns:   make(map[*idleConnection]bool),
	}

	// Player state changes wake idle clients.
	p.SetNotify(s.NotifySubsystemChange)

	return s
}

// Start begins listening and accepting clients.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to start control server: %w", err)
	}

	s.listener = listener
	s.running = true

	log.Printf("Control server listening on %s", s.addr)

	go s.acceptLoop()

	return nil
}

// Stop closes the listener. Established connections drain on their own.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()
			if !running {
				return
			}
			log.Printf("Accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}
