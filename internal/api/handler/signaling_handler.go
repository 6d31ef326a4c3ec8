package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tempoedu/skillswap/internal/signaling"
)

// SignalingHandler mounts the websocket gateway and its admin view.
type SignalingHandler struct {
	server   http.Handler
	registry *signaling.Registry
}

func NewSignalingHandler(server http.Handler, registry *signaling.Registry) *SignalingHandler {
	return &SignalingHandler{server: server, registry: registry}
}

// Connect handles GET /ws/webrtc. Authentication happens after the upgrade
// using the "token" query parameter or a bearer header.
//
// @Summary      WebRTC signaling websocket
// @Tags         signaling
// @Param        token  query  string  false  "Access token"
// @Success      101
// @Router       /ws/webrtc [get]
func (h *SignalingHandler) Connect(c echo.Context) error {
	h.server.ServeHTTP(c.Response(), c.Request())
	return nil
}

// Rooms handles GET /admin/signaling/rooms.
//
// @Summary      Current signaling rooms
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  roomsResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin/signaling/rooms [get]
func (h *SignalingHandler) Rooms(c echo.Context) error {
	rooms := h.registry.Snapshot()
	if rooms == nil {
		rooms = []signaling.RoomSnapshot{}
	}
	return c.JSON(http.StatusOK, roomsResponse{
		Online: h.registry.Online(),
		Rooms:  rooms,
	})
}
