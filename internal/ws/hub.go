package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"news-rag-chatbot/internal/config"
	"news-rag-chatbot/internal/logger"
	"news-rag-chatbot/internal/telemetry"
	"news-rag-chatbot/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WelcomeMessage opens every new connection after the ack frame.
const WelcomeMessage = "Hi! Ask me anything about recent news coverage."

// Defaults applied when the corresponding config values are unset; a zero
// heartbeat or attempt window would panic the tickers built from them.
const (
	defaultHeartbeat     = 30 * time.Second
	defaultAttemptLimit  = 10
	defaultAttemptWindow = time.Minute
)

// Hub owns all live connections and the per-address admission counters.
// Everything is instance state so tests can run isolated hubs.
type Hub struct {
	answerer Answerer
	sessions SessionEnsurer
	messages MessageAppender
	metrics  *telemetry.Metrics

	heartbeat      time.Duration
	maxMissedPongs int

	limiter  *AttemptLimiter
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*Conn

	stop     chan struct{}
	stopOnce sync.Once
}

func NewHub(cfg *config.Config, answerer Answerer, sessions SessionEnsurer, messages MessageAppender, metrics *telemetry.Metrics) *Hub {
	heartbeat := time.Duration(cfg.HeartbeatInterval) * time.Second
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	limit := cfg.WSAttemptLimit
	if limit <= 0 {
		limit = defaultAttemptLimit
	}
	window := time.Duration(cfg.WSAttemptWindow) * time.Second
	if window <= 0 {
		window = defaultAttemptWindow
	}

	return &Hub{
		answerer:       answerer,
		sessions:       sessions,
		messages:       messages,
		metrics:        metrics,
		heartbeat:      heartbeat,
		maxMissedPongs: cfg.MaxMissedPongs,
		limiter:        NewAttemptLimiter(limit, window),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients are served from configured CORS origins; the
			// widget runs cross-origin by design.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*Conn),
		stop:  make(chan struct{}),
	}
}

// Start launches the hub's background tasks.
func (h *Hub) Start() {
	go h.limiter.RunSweeper(h.stop)
}

// Stop cancels background tasks and closes every live connection.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })

	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}

// HandleWS runs the connection lifecycle: admission check, upgrade, fresh
// session id, ack + welcome frames, then the read/write pumps. Admission is
// checked before the upgrade so a reconnect storm never pays handshake cost;
// the attempt is counted against the address's window whether or not the
// upgrade later succeeds.
func (h *Hub) HandleWS(c *gin.Context) {
	if !h.limiter.Allow(c.ClientIP()) {
		if h.metrics != nil {
			h.metrics.WSRefusals.Add(context.Background(), 1)
		}
		logger.Warn("connection refused by admission control", "remote", c.ClientIP())
		utils.RespondWithError(c, http.StatusTooManyRequests, "connection_rate_limited",
			"Too many connection attempts. Please wait before reconnecting.", nil)
		c.Abort()
		return
	}

	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "remote", c.ClientIP(), "error", err)
		return
	}

	sessionID := uuid.New().String()
	conn := newConn(h, wsConn, sessionID)
	h.register(sessionID, conn)
	if h.metrics != nil {
		h.metrics.WSConnections.Add(context.Background(), 1)
	}
	logger.Info("websocket connected", "session_id", sessionID, "remote", c.ClientIP())

	conn.enqueue(connectionFrame(sessionID))
	conn.enqueue(botFrame(sessionID, WelcomeMessage, nil))

	go conn.writePump()
	go conn.readPump()
}

func (h *Hub) register(sessionID string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[sessionID] = conn
}

func (h *Hub) deregister(sessionID string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[sessionID] == conn {
		delete(h.conns, sessionID)
	}
}

// rebind moves a connection to a new session id after a hand-off.
func (h *Hub) rebind(oldID, newID string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[oldID] == conn {
		delete(h.conns, oldID)
	}
	h.conns[newID] = conn
}
