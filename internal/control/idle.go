package control

import "log"

// idleConnection is a client parked in idle mode waiting for changes.
type idleConnection struct {
	subsystems map[string]bool // watched subsystems, empty = all
	notify     chan string
	cancel     chan struct{}
}

func (s *Server) registerIdle(idle *idleConnection) {
	s.idleMu.Lock()
	defer s.idleMu.Unlock()
	s.idleConns[idle] = true
}

func (s *Server) unregisterIdle(idle *idleConnection) {
	s.idleMu.Lock()
	defer s.idleMu.Unlock()
	delete(s.idleConns, idle)
}

// NotifySubsystemChange wakes every idle client watching the subsystem.
func (s *Server) NotifySubsystemChange(subsystem string) {
	s.idleMu.RLock()
	defer s.idleMu.RUnlock()

	for idle := range s.idleConns {
		if len(idle.subsystems) == 0 || idle.subsystems[subsystem] {
			// Non-blocking; a client that stopped draining loses
			// notifications rather than wedging the player.
			select {
			case idle.notify <- subsystem:
			default:
				log.Printf("Idle notification channel full, dropping %s", subsystem)
			}
		}
	}
}
