package ws

import (
	"context"
	"sync"
	"time"

	"news-rag-chatbot/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 8192
)

// Conn owns one WebSocket connection: its session state machine, outbound
// queue and heartbeat.
type Conn struct {
	hub  *Hub
	ws   *websocket.Conn
	sess *session

	send chan ServerFrame
	done chan struct{}

	mu             sync.Mutex
	lastPingSentAt time.Time
	missedPongs    int

	closeOnce sync.Once
}

func newConn(hub *Hub, wsConn *websocket.Conn, sessionID string) *Conn {
	c := &Conn{
		hub: hub,
		ws:  wsConn,
		sess: &session{
			sessionID: sessionID,
			answerer:  hub.answerer,
			sessions:  hub.sessions,
			messages:  hub.messages,
		},
		send: make(chan ServerFrame, 16),
		done: make(chan struct{}),
	}

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(c.readTimeout()))
	wsConn.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.missedPongs = 0
		c.mu.Unlock()
		return wsConn.SetReadDeadline(time.Now().Add(c.readTimeout()))
	})
	return c
}

// readTimeout allows a few heartbeat intervals of silence before the read
// loop gives up on its own.
func (c *Conn) readTimeout() time.Duration {
	return 4 * c.hub.heartbeat
}

// enqueue hands a frame to the write pump. Dropping on a full queue is the
// backpressure policy: a reader this far behind is effectively dead and the
// heartbeat will reap it.
func (c *Conn) enqueue(frame ServerFrame) {
	select {
	case c.send <- frame:
	case <-c.done:
	default:
		logger.Warn("outbound queue full, dropping frame", "session_id", c.sess.sessionID, "type", frame.Type)
	}
}

// readPump processes inbound frames in arrival order; there is no
// reordering within a session.
func (c *Conn) readPump() {
	defer c.close()

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read ended", "session_id", c.sess.sessionID, "error", err)
			}
			return
		}

		before := c.sess.sessionID
		c.sess.handleFrame(context.Background(), raw, c.enqueue)
		if after := c.sess.sessionID; after != before {
			c.hub.rebind(before, after, c)
		}
	}
}

// writePump serializes all writes and owns the heartbeat ticker. A ping goes
// out every heartbeat interval; after MaxMissedPongs unanswered pings the
// connection is closed (0 disables the forced close).
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.hub.heartbeat)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame.encode()); err != nil {
				return
			}

		case <-ticker.C:
			c.mu.Lock()
			missed := c.missedPongs
			c.missedPongs++
			c.lastPingSentAt = time.Now()
			c.mu.Unlock()

			if c.hub.maxMissedPongs > 0 && missed >= c.hub.maxMissedPongs {
				logger.Info("closing unresponsive connection", "session_id", c.sess.sessionID, "missed_pongs", missed)
				return
			}
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// close tears the connection down once: deregister, stop the pumps, close
// the socket. The heartbeat ticker dies with the write pump.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.hub.deregister(c.sess.sessionID, c)
		c.ws.Close()
	})
}
