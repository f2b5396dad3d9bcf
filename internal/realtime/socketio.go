package realtime

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/rs/zerolog"
)

// socketConn adapts a socket.io connection to Conn
type socketConn struct {
	conn socketio.Conn
}

func (c socketConn) ID() string {
	return "sio-" + c.conn.ID()
}

func (c socketConn) Emit(event string, payload interface{}) error {
	c.conn.Emit(event, payload)
	return nil
}

// SocketServer is the socket.io transport. Every authenticated connection is
// registered under its user's room until it disconnects.
type SocketServer struct {
	server     *socketio.Server
	registry   *Registry
	dispatcher *Dispatcher
	auth       Authenticator
	typing     *typingThrottle
	log        zerolog.Logger
}

func NewSocketServer(registry *Registry, dispatcher *Dispatcher, auth Authenticator, log zerolog.Logger) *SocketServer {
	s := &SocketServer{
		server: socketio.NewServer(&engineio.Options{
			Transports: []transport.Transport{
				&websocket.Transport{
					CheckOrigin: func(r *http.Request) bool { return true },
				},
				&polling.Transport{
					CheckOrigin: func(r *http.Request) bool { return true },
				},
			},
		}),
		registry:   registry,
		dispatcher: dispatcher,
		auth:       auth,
		typing:     newTypingThrottle(typingThrottleDuration),
		log:        log.With().Str("component", "socketio").Logger(),
	}

	s.server.OnConnect("/", s.onConnect)
	s.server.OnEvent("/", EventJoin, s.onJoin)
	s.server.OnEvent("/", EventTypingStart, s.onTyping)
	s.server.OnEvent("/", EventGetOnlineUsers, func(c socketio.Conn, _ string) {
		c.Emit(EventOnlineUsers, s.registry.OnlineUsers())
	})
	s.server.OnDisconnect("/", s.onDisconnect)
	s.server.OnError("/", func(c socketio.Conn, err error) {
		s.log.Warn().Err(err).Msg("socket error")
		if c != nil {
			s.leave(c)
		}
	})

	return s
}

func (s *SocketServer) onConnect(c socketio.Conn) error {
	u := c.URL()
	token := tokenFromURL(u)
	if token == "" {
		s.log.Info().Str("socket", c.ID()).Msg("Socket connection rejected: no token provided")
		return ErrNoToken
	}

	userID, err := s.auth(context.Background(), token)
	if err != nil {
		s.log.Info().Str("socket", c.ID()).Err(err).Msg("Socket connection rejected: invalid token")
		return err
	}

	c.SetContext(userID)
	s.join(c, userID)
	c.Emit(EventOnlineUsers, s.registry.OnlineUsers())
	return nil
}

// onJoin accepts "user_<id>" for the caller's own id only
func (s *SocketServer) onJoin(c socketio.Conn, room string) {
	userID, ok := c.Context().(uint)
	if !ok {
		return
	}
	requested, err := ParseRoom(room)
	if err != nil || requested != userID {
		s.log.Warn().Str("socket", c.ID()).Str("room", room).Uint("user_id", userID).Msg("Refused join to foreign room")
		return
	}
	s.join(c, userID)
}

func (s *SocketServer) onTyping(c socketio.Conn, req TypingRequest) {
	userID, ok := c.Context().(uint)
	if !ok || req.ReceiverID == 0 {
		return
	}
	if s.typing.Allow(userID) {
		s.dispatcher.Typing(userID, req.ReceiverID)
	}
}

func (s *SocketServer) onDisconnect(c socketio.Conn, reason string) {
	s.log.Debug().Str("socket", c.ID()).Str("reason", reason).Msg("socket closed")
	s.leave(c)
}

func (s *SocketServer) join(c socketio.Conn, userID uint) {
	c.Join(RoomFor(userID))
	if s.registry.Join(userID, socketConn{conn: c}) {
		s.dispatcher.PresenceChanged(userID, true)
	}
	s.log.Debug().Str("socket", c.ID()).Uint("user_id", userID).Msg("socket joined")
}

func (s *SocketServer) leave(c socketio.Conn) {
	userID, offline := s.registry.Leave(socketConn{conn: c})
	if offline {
		s.typing.Forget(userID)
		s.dispatcher.PresenceChanged(userID, false)
	}
}

// Serve runs the engine loop; it blocks until Close
func (s *SocketServer) Serve() error {
	return s.server.Serve()
}

func (s *SocketServer) Close() error {
	return s.server.Close()
}

// Handler mounts the socket.io endpoint on gin
func (s *SocketServer) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.server.ServeHTTP(c.Writer, c.Request)
	}
}

func tokenFromURL(u url.URL) string {
	r := &http.Request{URL: &u, Header: http.Header{}}
	return tokenFromRequest(r)
}
