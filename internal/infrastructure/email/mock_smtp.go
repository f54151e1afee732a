// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
)

// ReceivedMessage is a message accepted by MockSMTPServer.
type ReceivedMessage struct {
	From       string
	Recipients []string
	Data       string
}

// MockSMTPServer is a minimal SMTP server for tests and local development.
// It accepts every message unless RejectSender is set.
type MockSMTPServer struct {
	listener net.Listener
	addr     string

	mu       sync.Mutex
	messages []ReceivedMessage

	// RejectSender makes the server answer MAIL FROM with a permanent failure.
	RejectSender bool
}

// NewMockSMTPServer starts a mock SMTP server on a random local port.
func NewMockSMTPServer() (*MockSMTPServer, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	server := &MockSMTPServer{
		listener: listener,
		addr:     listener.Addr().String(),
	}

	go server.serve()
	return server, nil
}

// GetAddress returns the server address (host:port)
func (s *MockSMTPServer) GetAddress() string {
	return s.addr
}

// Config returns an SMTPConfig pointing at the server.
func (s *MockSMTPServer) Config(from string) (SMTPConfig, error) {
	host, portStr, err := net.SplitHostPort(s.addr)
	if err != nil {
		return SMTPConfig{}, err
	}

	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return SMTPConfig{}, err
	}

	return SMTPConfig{Host: host, Port: port, From: from}, nil
}

// Messages returns the messages received so far.
func (s *MockSMTPServer) Messages() []ReceivedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReceivedMessage(nil), s.messages...)
}

// Close shuts down the mock server
func (s *MockSMTPServer) Close() error {
	return s.listener.Close()
}

func (s *MockSMTPServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // Server closed
		}

		go s.handleConnection(conn)
	}
}

func (s *MockSMTPServer) handleConnection(conn net.Conn) {
	defer func() {
		_ = conn.Close() // Ignore close error in mock server
	}()

	reader := bufio.NewReader(conn)
	reply := func(line string) {
		_, _ = conn.Write([]byte(line + "\r\n"))
	}

	reply("220 localhost ESMTP ready")

	var current ReceivedMessage
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		verb := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(verb, "EHLO"), strings.HasPrefix(verb, "HELO"):
			reply("250-localhost")
			reply("250 8BITMIME")
		case strings.HasPrefix(verb, "MAIL FROM:"):
			if s.RejectSender {
				reply("550 Mailbox unavailable")
				continue
			}
			current = ReceivedMessage{From: extractAddress(line[len("MAIL FROM:"):])}
			reply("250 OK")
		case strings.HasPrefix(verb, "RCPT TO:"):
			current.Recipients = append(current.Recipients, extractAddress(line[len("RCPT TO:"):]))
			reply("250 OK")
		case verb == "DATA":
			reply("354 Start mail input; end with <CRLF>.<CRLF>")
			data, err := readData(reader)
			if err != nil {
				return
			}
			current.Data = data
			s.mu.Lock()
			s.messages = append(s.messages, current)
			s.mu.Unlock()
			current = ReceivedMessage{}
			reply("250 OK")
		case verb == "RSET", verb == "NOOP":
			reply("250 OK")
		case verb == "QUIT":
			reply("221 Bye")
			return
		default:
			reply("502 Command not implemented")
		}
	}
}

// readData reads a DATA payload up to the terminating dot line.
func readData(reader *bufio.Reader) (string, error) {
	var data strings.Builder
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		if line == ".\r\n" || line == ".\n" {
			return data.String(), nil
		}
		// Undo dot stuffing.
		data.WriteString(strings.TrimPrefix(line, "."))
	}
}

func extractAddress(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, " "); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(s, "<>")
}
