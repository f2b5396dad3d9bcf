package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxFrame   = 64 << 10
)

// Frame is the envelope for every message on the plain websocket transport
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// wsConn is a single websocket client
type wsConn struct {
	id      string
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) ID() string { return c.id }

// Emit writes a frame (thread-safe)
func (c *wsConn) Emit(event string, payload interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(outFrame{Event: event, Data: payload})
}

func (c *wsConn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// WebSocketServer serves the plain websocket transport. Clients authenticate
// on upgrade and then exchange Frame values.
type WebSocketServer struct {
	upgrader   websocket.Upgrader
	registry   *Registry
	dispatcher *Dispatcher
	auth       Authenticator
	typing     *typingThrottle
	log        zerolog.Logger
}

func NewWebSocketServer(registry *Registry, dispatcher *Dispatcher, auth Authenticator, log zerolog.Logger) *WebSocketServer {
	return &WebSocketServer{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		registry:   registry,
		dispatcher: dispatcher,
		auth:       auth,
		typing:     newTypingThrottle(typingThrottleDuration),
		log:        log.With().Str("component", "websocket").Logger(),
	}
}

// Handler authenticates, upgrades and runs the connection until it closes
func (s *WebSocketServer) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": ErrNoToken.Error()})
			return
		}
		userID, err := s.auth(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			s.log.Error().Err(err).Msg("websocket upgrade failed")
			return
		}

		conn := &wsConn{id: "ws-" + uuid.NewString(), ws: ws}
		s.serve(conn, userID)
	}
}

func (s *WebSocketServer) serve(conn *wsConn, userID uint) {
	done := make(chan struct{})
	defer func() {
		close(done)
		conn.ws.Close()
		if _, offline := s.registry.Leave(conn); offline {
			s.typing.Forget(userID)
			s.dispatcher.PresenceChanged(userID, false)
		}
	}()

	if s.registry.Join(userID, conn) {
		s.dispatcher.PresenceChanged(userID, true)
	}
	if err := conn.Emit(EventOnlineUsers, s.registry.OnlineUsers()); err != nil {
		return
	}

	go s.pingLoop(conn, done)

	conn.ws.SetReadLimit(maxFrame)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Str("conn", conn.id).Msg("websocket closed")
			}
			return
		}
		var frame Frame
		if err := json.Unmarshal(msg, &frame); err != nil {
			s.log.Debug().Err(err).Str("conn", conn.id).Msg("malformed frame")
			continue
		}
		s.handleFrame(conn, userID, frame)
	}
}

func (s *WebSocketServer) handleFrame(conn *wsConn, userID uint, frame Frame) {
	switch frame.Event {
	case EventTypingStart:
		var req TypingRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil || req.ReceiverID == 0 {
			return
		}
		if s.typing.Allow(userID) {
			s.dispatcher.Typing(userID, req.ReceiverID)
		}
	case EventGetOnlineUsers:
		_ = conn.Emit(EventOnlineUsers, s.registry.OnlineUsers())
	default:
		s.log.Debug().Str("event", frame.Event).Str("conn", conn.id).Msg("unknown frame")
	}
}

func (s *WebSocketServer) pingLoop(conn *wsConn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}
