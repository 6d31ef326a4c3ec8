package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
)

// ReviewHandler serves session reviews and user reputation.
type ReviewHandler struct {
	service ports.ReviewService
}

func NewReviewHandler(service ports.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// Create handles POST /sessions/:id/review.
//
// @Summary      Review the other participant of a completed session
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Session ID"
// @Param        body  body      createReviewRequest  true  "Rating and comment"
// @Success      201   {object}  domain.Review
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /sessions/{id}/review [post]
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req createReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	review, err := h.service.Create(c.Request().Context(), ports.CreateReviewInput{
		SessionID:  c.Param("id"),
		ReviewerID: userID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, review)
}

// ForSession handles GET /sessions/:id/reviews.
//
// @Summary      List the reviews left on a session
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID"
// @Success      200  {array}   domain.Review
// @Failure      404  {object}  errorResponse
// @Router       /sessions/{id}/reviews [get]
func (h *ReviewHandler) ForSession(c echo.Context) error {
	reviews, err := h.service.ListForSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}
	return c.JSON(http.StatusOK, reviews)
}

// ForUser handles GET /users/:id/reviews.
//
// @Summary      List reviews a user received, with their reputation
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "User ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Page size (default 20, max 100)"
// @Success      200    {object}  reviewListResponse
// @Router       /users/{id}/reviews [get]
func (h *ReviewHandler) ForUser(c echo.Context) error {
	var q pageQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pagination")
	}

	page, err := h.service.ListForUser(c.Request().Context(), c.Param("id"), q.Page, q.Limit)
	if err != nil {
		return err
	}
	items := page.Items
	if items == nil {
		items = []*domain.Review{}
	}

	return c.JSON(http.StatusOK, reviewListResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
		Reputation: page.Reputation,
	})
}
