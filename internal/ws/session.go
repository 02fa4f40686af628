package ws

import (
	"context"
	"encoding/json"
	"time"

	"news-rag-chatbot/internal/logger"
	"news-rag-chatbot/models"
)

// Answerer runs the RAG pipeline for one query.
type Answerer interface {
	Answer(ctx context.Context, sessionID, query string) models.ChatResponse
}

// SessionEnsurer lazily creates a session record on hand-off.
type SessionEnsurer interface {
	EnsureSession(ctx context.Context, sessionID string) error
}

// MessageAppender writes messages to the durable log.
type MessageAppender interface {
	Append(ctx context.Context, msg models.ChatMessage) error
}

// frameTimeout bounds the full validate/dispatch/respond sequence for one
// inbound frame, matching the REST surface's request bound. Without it a hung
// upstream call would wedge the session's read loop for good.
const frameTimeout = 30 * time.Second

// session is the per-connection state machine, decoupled from the socket so
// the whole validate/dispatch/respond sequence is testable with a captured
// send function.
type session struct {
	sessionID string
	answerer  Answerer
	sessions  SessionEnsurer
	messages  MessageAppender
}

// handleFrame processes one inbound frame. Invalid input produces an error
// frame and leaves the connection open; a valid message produces a typing
// frame, runs the pipeline, then produces the bot frame.
func (s *session) handleFrame(ctx context.Context, raw []byte, send func(ServerFrame)) {
	ctx, cancel := context.WithTimeout(ctx, frameTimeout)
	defer cancel()

	var in ClientFrame
	if err := json.Unmarshal(raw, &in); err != nil {
		send(errorFrame("Invalid message format"))
		return
	}
	if in.SessionID == "" || in.Message == "" {
		send(errorFrame("sessionId and message are required"))
		return
	}

	// A differing session id is a hand-off: adopt it and lazily create the
	// record. The check-then-create inside EnsureSession is non-atomic by
	// design; duplicate creates are tolerated.
	if in.SessionID != s.sessionID {
		if err := s.sessions.EnsureSession(ctx, in.SessionID); err != nil {
			logger.Warn("session hand-off create failed", "session_id", in.SessionID, "error", err)
		}
		s.sessionID = in.SessionID
	}

	if err := s.messages.Append(ctx, models.ChatMessage{
		SessionID: s.sessionID,
		Content:   in.Message,
		IsUser:    true,
		CreatedAt: time.Now(),
	}); err != nil {
		logger.Warn("failed to log user message", "session_id", s.sessionID, "error", err)
	}

	send(typingFrame(s.sessionID))

	resp := s.answerer.Answer(ctx, s.sessionID, in.Message)

	if err := s.messages.Append(ctx, models.ChatMessage{
		SessionID: s.sessionID,
		Content:   resp.Message,
		IsUser:    false,
		Sources:   resp.Sources,
		CreatedAt: time.Now(),
	}); err != nil {
		logger.Warn("failed to log assistant message", "session_id", s.sessionID, "error", err)
	}

	send(botFrame(s.sessionID, resp.Message, resp.Sources))
}
