// Package ws is the realtime transport: it multiplexes chat sessions over
// WebSocket connections with heartbeat, per-address admission control and
// frame validation. Transport failures are reported per connection and never
// crash the listener.
package ws

import "encoding/json"

// Server→client frame types.
const (
	FrameConnection = "connection"
	FrameBot        = "bot"
	FrameTyping     = "typing"
	FrameError      = "error"
)

// ServerFrame is any frame the server sends. Empty fields stay off the wire.
type ServerFrame struct {
	Type      string   `json:"type"`
	SessionID string   `json:"sessionId,omitempty"`
	Message   string   `json:"message,omitempty"`
	Sources   []string `json:"sources,omitempty"`
}

// ClientFrame is the only inbound shape: both fields are required and
// non-empty, anything else earns an error frame.
type ClientFrame struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

func connectionFrame(sessionID string) ServerFrame {
	return ServerFrame{Type: FrameConnection, SessionID: sessionID}
}

func typingFrame(sessionID string) ServerFrame {
	return ServerFrame{Type: FrameTyping, SessionID: sessionID}
}

func errorFrame(message string) ServerFrame {
	return ServerFrame{Type: FrameError, Message: message}
}

func botFrame(sessionID, message string, sources []string) ServerFrame {
	return ServerFrame{Type: FrameBot, SessionID: sessionID, Message: message, Sources: sources}
}

func (f ServerFrame) encode() []byte {
	data, _ := json.Marshal(f)
	return data
}
