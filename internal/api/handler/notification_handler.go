package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
)

// NotificationHandler serves the caller's notification inbox.
type NotificationHandler struct {
	service ports.NotificationService
}

func NewNotificationHandler(service ports.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List handles GET /notifications.
//
// @Summary      List notifications, newest first
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Page size (default 20, max 100)"
// @Success      200    {object}  notificationListResponse
// @Failure      401    {object}  errorResponse
// @Router       /notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var q pageQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pagination")
	}

	page, err := h.service.List(c.Request().Context(), userID, q.Page, q.Limit)
	if err != nil {
		return err
	}
	items := page.Items
	if items == nil {
		items = []*domain.Notification{}
	}

	return c.JSON(http.StatusOK, notificationListResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	})
}

// UnreadCount handles GET /notifications/unread-count.
//
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  unreadCountResponse
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	n, err := h.service.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, unreadCountResponse{Count: n})
}

// MarkRead handles PATCH /notifications/:id/read.
//
// @Summary      Mark one notification as read
// @Tags         notifications
// @Security     BearerAuth
// @Param        id   path  string  true  "Notification ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.service.MarkRead(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead handles PATCH /notifications/read-all.
//
// @Summary      Mark every notification as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  markAllReadResponse
// @Router       /notifications/read-all [patch]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	n, err := h.service.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, markAllReadResponse{Updated: n})
}
