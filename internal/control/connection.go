package control

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
)

const greeting = "OK chime 0.1\n"

// handleConnection runs the scanner loop for a single client.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	log.Printf("Client connected: %s", conn.RemoteAddr())

	fmt.Fprint(conn, greeting)

	// Connection-specific idle state
	var currentIdle *idleConnection
	var idleMu sync.Mutex

	scanner := bufio.NewScanner(conn)
	inCommandList := false
	commandListOk := false // emit list_OK after each buffered command
	var commandListResponses strings.Builder

	defer func() {
		idleMu.Lock()
		if currentIdle != nil {
			s.unregisterIdle(currentIdle)
		}
		idleMu.Unlock()
	}()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// Command list mode buffers replies until command_list_end.
		if line == "command_list_begin" {
			inCommandList = true
			commandListOk = false
			commandListResponses.Reset()
			continue
		}
		if line == "command_list_ok_begin" {
			inCommandList = true
			commandListOk = true
			commandListResponses.Reset()
			continue
		}
		if line == "command_list_end" {
			if inCommandList {
				fmt.Fprint(conn, commandListResponses.String())
				fmt.Fprint(conn, "OK\n")
				inCommandList = false
				commandListOk = false
				commandListResponses.Reset()
			}
			continue
		}

		parts := strings.Fields(line)
		var response string

		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "idle":
			idleMu.Lock()
			if currentIdle != nil {
				idleMu.Unlock()
				continue
			}

			subsystems := make(map[string]bool)
			for _, arg := range args {
				subsystems[strings.ToLower(arg)] = true
			}

			idle := &idleConnection{
				subsystems: subsystems,
				notify:     make(chan string, 10),
				cancel:     make(chan struct{}),
			}
			currentIdle = idle
			s.registerIdle(idle)
			idleMu.Unlock()

			select {
			case subsystem := <-idle.notify:
				response = fmt.Sprintf("changed: %s\nOK\n", subsystem)
			case <-idle.cancel:
				response = "OK\n"
			}

			idleMu.Lock()
			s.unregisterIdle(idle)
			currentIdle = nil
			idleMu.Unlock()

		case "noidle":
			idleMu.Lock()
			if currentIdle != nil {
				close(currentIdle.cancel)
				// The parked idle command sends the reply.
				idleMu.Unlock()
				continue
			}
			idleMu.Unlock()
			response = "OK\n"

		case "close":
			return

		default:
			response = s.handleCommand(line)
		}

		if inCommandList {
			// Buffer the reply without its terminating OK.
			response = strings.TrimSuffix(response, "OK\n")
			commandListResponses.WriteString(response)
			if commandListOk {
				commandListResponses.WriteString("list_OK\n")
			}
		} else {
			fmt.Fprint(conn, response)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Printf("Connection error: %v", err)
	}

	log.Printf("Client disconnected: %s", conn.RemoteAddr())
}
