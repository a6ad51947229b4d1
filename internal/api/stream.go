package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// PredictionEvent is the websocket payload emitted for each analyzed claim.
// It carries no claim fields.
type PredictionEvent struct {
	Type          string    `json:"type"`
	RequestID     string    `json:"request_id,omitempty"`
	Score         int       `json:"score,omitempty"`
	DecisionClass string    `json:"decisionClass,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

const (
	feedBufferSize   = 16
	feedWriteTimeout = 10 * time.Second
)

// wsClient owns a websocket connection. Events are queued on send and written
// by a dedicated goroutine, so a slow reader never blocks a broadcaster.
type wsClient struct {
	conn      *websocket.Conn
	send      chan PredictionEvent
	done      chan struct{}
	closeOnce sync.Once
}

// PredictionNotifier keeps track of feed subscribers and broadcasts decisions.
type PredictionNotifier struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewPredictionNotifier constructs a notifier instance.
func NewPredictionNotifier() *PredictionNotifier {
	return &PredictionNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and greets it with a "connected" event.
func (n *PredictionNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{
		conn: conn,
		send: make(chan PredictionEvent, feedBufferSize),
		done: make(chan struct{}),
	}
	client.send <- PredictionEvent{Type: "connected", Timestamp: time.Now().UTC()}
	go client.writeLoop()

	n.mu.Lock()
	n.clients[client] = struct{}{}
	n.mu.Unlock()
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *PredictionNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	client.close()
}

// Broadcast queues the event for every subscriber without waiting on the
// network. Subscribers whose queue is full are evicted.
func (n *PredictionNotifier) Broadcast(event PredictionEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	defer n.mu.Unlock()
	for client := range n.clients {
		select {
		case client.send <- event:
		case <-client.done:
			delete(n.clients, client)
		default:
			delete(n.clients, client)
			client.close()
			logrus.WithField("remote", client.conn.RemoteAddr().String()).Warn("evicted slow prediction feed subscriber")
		}
	}
}

// Subscribers reports the number of connected feed clients.
func (n *PredictionNotifier) Subscribers() int {
	if n == nil {
		return 0
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

func (c *wsClient) writeLoop() {
	for {
		select {
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := c.conn.WriteJSON(event); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (s *Server) handlePredictionStream(c *gin.Context) {
	if s.notifier == nil {
		s.renderError(c, http.StatusNotFound, errFeedDisabled)
		return
	}

	upgrader := websocket.Upgrader{
		HandshakeTimeout: 5 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("prediction feed connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("prediction feed closed")
			} else {
				logrus.WithError(err).Warn("prediction feed unexpected close")
			}
			break
		}
	}
}
