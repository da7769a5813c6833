package socket

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"time"
)

// Server represents a Unix socket server for accepting external commands
type Server struct {
	socketPath string
	listener   net.Listener
	msgChan    chan Message
	stopChan   chan struct{}
}

// socketDir is where instances put their sockets: XDG_RUNTIME_DIR when
// set, ~/.local/share otherwise.
func socketDir() string {
	if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
		return filepath.Join(xdgRuntime, "tui-columns")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "tui-columns")
}

// NewServer creates a new Unix socket server
func NewServer(pid int) (*Server, error) {
	dir := socketDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}

	socketPath := filepath.Join(dir, fmt.Sprintf("tuc-%d.sock", pid))

	// Remove existing socket if it exists
	if err := os.RemoveAll(socketPath); err != nil {
		return nil, fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on socket: %w", err)
	}

	log.Printf("Socket server listening on: %s", socketPath)

	return &Server{
		socketPath: socketPath,
		listener:   listener,
		msgChan:    make(chan Message, 10),
		stopChan:   make(chan struct{}),
	}, nil
}

// Start begins accepting connections on the socket
func (s *Server) Start() {
	go s.acceptLoop()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
				return
			default:
				log.Printf("Error accepting connection: %v", err)
				continue
			}
		}
		go s.handleConnection(conn)
	}
}

// handleConnection reads one message, hands it to the instance and writes
// back its reply.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var msg Message
	if err := decoder.Decode(&msg); err != nil {
		if err != io.EOF {
			log.Printf("Error decoding message: %v", err)
		}
		encoder.Encode(Response{Message: fmt.Sprintf("Invalid message format: %v", err)})
		return
	}

	switch msg.Command {
	case CommandExecute, CommandText:
	case "":
		encoder.Encode(Response{Message: "Missing command field"})
		return
	default:
		encoder.Encode(Response{Message: fmt.Sprintf("Unknown command %q", msg.Command)})
		return
	}

	msg.ResponseChan = make(chan *Response, 1)
	select {
	case s.msgChan <- msg:
		select {
		case response := <-msg.ResponseChan:
			encoder.Encode(response)
		case <-time.After(10 * time.Second):
			encoder.Encode(Response{Message: "Command timed out"})
		case <-s.stopChan:
			encoder.Encode(Response{Message: "Server is shutting down"})
		}
	case <-s.stopChan:
		encoder.Encode(Response{Message: "Server is shutting down"})
	}
}

// Messages returns the channel for receiving messages. The receiver must
// send exactly one reply on each message's ResponseChan.
func (s *Server) Messages() <-chan Message {
	return s.msgChan
}

// SocketPath returns the path to the Unix socket
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Stop stops the server and cleans up resources
func (s *Server) Stop() {
	close(s.stopChan)
	if s.listener != nil {
		s.listener.Close()
	}
	if s.socketPath != "" {
		os.Remove(s.socketPath)
	}
	log.Printf("Socket server stopped")
}
