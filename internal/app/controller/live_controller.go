package controller

import (
	apperrors "github.com/booktime/booktime-backend/internal/errors"
	"github.com/booktime/booktime-backend/internal/middleware"
	ws "github.com/booktime/booktime-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// LiveController streams order events to staff dashboards.
type LiveController struct {
	hub      *ws.Hub
	upgrader *websocket.Upgrader
}

func NewLiveController(hub *ws.Hub, allowedOrigins []string) *LiveController {
	return &LiveController{
		hub:      hub,
		upgrader: ws.NewUpgrader(allowedOrigins),
	}
}

// Orders upgrades to a websocket subscribed to the caller's role
// GET /api/v1/admin/live?token=<access token>
func (ctrl *LiveController) Orders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	role, _ := middleware.GetUserRole(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, userID, role)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("Live feed connected", map[string]interface{}{
		"user_id": userID,
		"role":    role,
	})
}
