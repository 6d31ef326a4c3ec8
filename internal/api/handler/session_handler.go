package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
)

// SessionHandler handles HTTP requests for the session lifecycle.
type SessionHandler struct {
	service ports.SessionService
}

func NewSessionHandler(service ports.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// Create handles POST /sessions.
//
// @Summary      Book a session with a provider
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createSessionRequest  true  "Session request"
// @Success      201   {object}  domain.Session
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /sessions [post]
func (h *SessionHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req createSessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sess, err := h.service.Create(c.Request().Context(), ports.CreateSessionInput{
		RequesterID: userID,
		ProviderID:  req.ProviderID,
		SkillID:     req.SkillID,
		ScheduledAt: req.ScheduledAt,
		Duration:    req.Duration,
		Message:     req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sess)
}

// Mine handles GET /sessions/my.
//
// @Summary      List the caller's sessions
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Success      200     {object}  sessionListResponse
// @Failure      400     {object}  errorResponse
// @Router       /sessions/my [get]
func (h *SessionHandler) Mine(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var q listSessionsQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	items, err := h.service.ListForUser(c.Request().Context(), userID, domain.SessionStatus(q.Status))
	if err != nil {
		return err
	}
	if items == nil {
		items = []*domain.Session{}
	}
	return c.JSON(http.StatusOK, sessionListResponse{Items: items, Count: len(items)})
}

// Get handles GET /sessions/:id.
//
// @Summary      Get a session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.Session
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /sessions/{id} [get]
func (h *SessionHandler) Get(c echo.Context) error {
	return h.act(c, h.service.Get)
}

// Update handles PATCH /sessions/:id.
//
// @Summary      Update session status and/or meeting link
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Session ID"
// @Param        body  body      updateSessionRequest  true  "Status change"
// @Success      200   {object}  domain.Session
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /sessions/{id} [patch]
func (h *SessionHandler) Update(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateSessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Status == "" && req.MeetingLink == "" {
		return domain.ValidationError("status or meeting_link is required")
	}

	sess, err := h.service.Update(c.Request().Context(), ports.UpdateSessionInput{
		SessionID:   c.Param("id"),
		ActorID:     userID,
		Status:      domain.SessionStatus(req.Status),
		MeetingLink: req.MeetingLink,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// Accept handles POST /sessions/:id/accept.
//
// @Summary      Provider accepts a pending session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.Session
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /sessions/{id}/accept [post]
func (h *SessionHandler) Accept(c echo.Context) error {
	return h.act(c, h.service.Accept)
}

// Reject handles POST /sessions/:id/reject.
//
// @Summary      Provider rejects a pending session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.Session
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /sessions/{id}/reject [post]
func (h *SessionHandler) Reject(c echo.Context) error {
	return h.act(c, h.service.Reject)
}

// Cancel handles POST /sessions/:id/cancel.
//
// @Summary      Either participant cancels a session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.Session
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c echo.Context) error {
	return h.act(c, h.service.Cancel)
}

// Confirm handles POST /sessions/:id/confirm. The second confirmation
// transfers the credits and completes the session.
//
// @Summary      Confirm a session took place
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.Session
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /sessions/{id}/confirm [post]
func (h *SessionHandler) Confirm(c echo.Context) error {
	return h.act(c, h.service.Confirm)
}

// Settle handles POST /sessions/:id/settle.
//
// @Summary      Retry the credit transfer of a fully confirmed session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.Session
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /sessions/{id}/settle [post]
func (h *SessionHandler) Settle(c echo.Context) error {
	return h.act(c, h.service.Settle)
}

// SetMeetingLink handles PUT /sessions/:id/meeting-link.
//
// @Summary      Set the meeting link of an accepted session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Session ID"
// @Param        body  body      meetingLinkRequest  true  "Meeting link"
// @Success      200   {object}  domain.Session
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /sessions/{id}/meeting-link [put]
func (h *SessionHandler) SetMeetingLink(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req meetingLinkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sess, err := h.service.SetMeetingLink(c.Request().Context(), c.Param("id"), userID, req.MeetingLink)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

type sessionAction func(ctx context.Context, sessionID, actorID string) (*domain.Session, error)

// act runs a (session, actor) operation and renders the resulting session.
func (h *SessionHandler) act(c echo.Context, fn sessionAction) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	sess, err := fn(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}
