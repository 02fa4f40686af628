package ws

import (
	"context"
	"testing"
	"time"

	"news-rag-chatbot/models"
)

type fakeAnswerer struct {
	calls   []string
	lastCtx context.Context
}

func (f *fakeAnswerer) Answer(ctx context.Context, sessionID, query string) models.ChatResponse {
	f.calls = append(f.calls, query)
	f.lastCtx = ctx
	return models.ChatResponse{
		SessionID: sessionID,
		Message:   "grounded answer",
		Sources:   []string{"Some Article"},
	}
}

type fakeSessions struct {
	ensured []string
}

func (f *fakeSessions) EnsureSession(_ context.Context, sessionID string) error {
	f.ensured = append(f.ensured, sessionID)
	return nil
}

type fakeMessages struct {
	appended []models.ChatMessage
}

func (f *fakeMessages) Append(_ context.Context, msg models.ChatMessage) error {
	f.appended = append(f.appended, msg)
	return nil
}

func newTestSession() (*session, *fakeAnswerer, *fakeSessions, *fakeMessages) {
	answerer := &fakeAnswerer{}
	sessions := &fakeSessions{}
	messages := &fakeMessages{}
	s := &session{
		sessionID: "conn-session",
		answerer:  answerer,
		sessions:  sessions,
		messages:  messages,
	}
	return s, answerer, sessions, messages
}

func collectFrames(s *session, raw string) []ServerFrame {
	var frames []ServerFrame
	s.handleFrame(context.Background(), []byte(raw), func(f ServerFrame) {
		frames = append(frames, f)
	})
	return frames
}

func TestHandleFrameMalformedJSON(t *testing.T) {
	s, answerer, _, _ := newTestSession()

	frames := collectFrames(s, "{not json")
	if len(frames) != 1 || frames[0].Type != FrameError {
		t.Fatalf("frames = %+v, want exactly one error frame", frames)
	}
	if len(answerer.calls) != 0 {
		t.Fatal("pipeline must not run on malformed input")
	}

	// Connection stays usable: a valid frame afterwards still succeeds.
	frames = collectFrames(s, `{"sessionId":"conn-session","message":"hi"}`)
	if len(frames) != 2 || frames[0].Type != FrameTyping || frames[1].Type != FrameBot {
		t.Fatalf("frames after recovery = %+v, want typing then bot", frames)
	}
}

func TestHandleFrameMissingFields(t *testing.T) {
	s, _, _, _ := newTestSession()

	for _, raw := range []string{
		`{"message":"hi"}`,
		`{"sessionId":"s"}`,
		`{"sessionId":"","message":""}`,
	} {
		frames := collectFrames(s, raw)
		if len(frames) != 1 || frames[0].Type != FrameError {
			t.Errorf("input %s: frames = %+v, want one error frame", raw, frames)
		}
	}
}

func TestHandleFrameTypingThenBot(t *testing.T) {
	s, answerer, _, messages := newTestSession()

	frames := collectFrames(s, `{"sessionId":"conn-session","message":"what happened?"}`)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Type != FrameTyping {
		t.Errorf("first frame = %q, want typing", frames[0].Type)
	}
	if frames[1].Type != FrameBot || frames[1].Message != "grounded answer" {
		t.Errorf("second frame = %+v, want bot with answer", frames[1])
	}
	if len(frames[1].Sources) != 1 || frames[1].Sources[0] != "Some Article" {
		t.Errorf("bot frame sources = %v", frames[1].Sources)
	}
	if len(answerer.calls) != 1 || answerer.calls[0] != "what happened?" {
		t.Errorf("answerer calls = %v", answerer.calls)
	}

	// User message then assistant message in the durable log.
	if len(messages.appended) != 2 {
		t.Fatalf("appended %d messages, want 2", len(messages.appended))
	}
	if !messages.appended[0].IsUser || messages.appended[1].IsUser {
		t.Error("message roles out of order")
	}
}

func TestHandleFrameBoundsPipelineCalls(t *testing.T) {
	s, answerer, _, _ := newTestSession()

	collectFrames(s, `{"sessionId":"conn-session","message":"hi"}`)

	if answerer.lastCtx == nil {
		t.Fatal("pipeline did not run")
	}
	deadline, ok := answerer.lastCtx.Deadline()
	if !ok {
		t.Fatal("pipeline context carries no deadline; a hung upstream call would block the session forever")
	}
	if remaining := time.Until(deadline); remaining > frameTimeout {
		t.Errorf("deadline %v out, want at most %v", remaining, frameTimeout)
	}
}

func TestHandleFrameSessionHandOff(t *testing.T) {
	s, _, sessions, messages := newTestSession()

	collectFrames(s, `{"sessionId":"other-session","message":"hello"}`)

	if s.sessionID != "other-session" {
		t.Errorf("session id = %q, want adopted hand-off id", s.sessionID)
	}
	if len(sessions.ensured) != 1 || sessions.ensured[0] != "other-session" {
		t.Errorf("ensured sessions = %v", sessions.ensured)
	}
	if messages.appended[0].SessionID != "other-session" {
		t.Errorf("user message logged under %q", messages.appended[0].SessionID)
	}

	// Same id again: no second create.
	collectFrames(s, `{"sessionId":"other-session","message":"again"}`)
	if len(sessions.ensured) != 1 {
		t.Errorf("ensured sessions after repeat = %v", sessions.ensured)
	}
}
