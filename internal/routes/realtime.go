package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/realtime"
)

// RegisterRealtimeRoutes mounts both push transports. They authenticate on
// their own and stay outside the rate limiters.
func RegisterRealtimeRoutes(r gin.IRouter, sio *realtime.SocketServer, ws *realtime.WebSocketServer) {
	if sio != nil {
		r.GET("/socket.io/*any", sio.Handler())
		r.POST("/socket.io/*any", sio.Handler())
	}
	if ws != nil {
		r.GET("/ws", ws.Handler())
	}
}
