package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"news-rag-chatbot/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T, cfg *config.Config) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(cfg, &fakeAnswerer{}, &fakeSessions{}, &fakeMessages{}, nil)
	router := gin.New()
	router.GET("/ws", hub.HandleWS)
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		hub.Stop()
		srv.Close()
	})
	return hub, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestHandleWSAcceptsAndGreets(t *testing.T) {
	_, srv := newTestHub(t, &config.Config{
		WSAttemptLimit:    5,
		WSAttemptWindow:   60,
		HeartbeatInterval: 1,
	})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ack ServerFrame
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if ack.Type != FrameConnection || ack.SessionID == "" {
		t.Fatalf("ack frame = %+v, want connection frame with session id", ack)
	}

	var welcome ServerFrame
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if welcome.Type != FrameBot || welcome.Message != WelcomeMessage {
		t.Fatalf("welcome frame = %+v", welcome)
	}
}

func TestHandleWSAdmissionRefusedBeforeUpgrade(t *testing.T) {
	_, srv := newTestHub(t, &config.Config{
		WSAttemptLimit:    1,
		WSAttemptWindow:   60,
		HeartbeatInterval: 1,
	})

	first, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("first dial: %v", err)
	}
	defer first.Close()

	// Beyond the limit the handshake itself is refused; no upgrade happens.
	second, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err == nil {
		second.Close()
		t.Fatal("second dial should be refused by admission control")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("refusal response = %+v, want status 429", resp)
	}
}

func TestNewHubClampsZeroIntervals(t *testing.T) {
	// An all-zero config must not produce zero tickers downstream.
	hub := NewHub(&config.Config{}, &fakeAnswerer{}, &fakeSessions{}, &fakeMessages{}, nil)

	if hub.heartbeat <= 0 {
		t.Errorf("heartbeat = %v, want positive default", hub.heartbeat)
	}
	if hub.limiter.window <= 0 {
		t.Errorf("attempt window = %v, want positive default", hub.limiter.window)
	}
	if hub.limiter.limit <= 0 {
		t.Errorf("attempt limit = %d, want positive default", hub.limiter.limit)
	}
}
