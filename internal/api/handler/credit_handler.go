package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
)

// CreditHandler exposes the caller's balance and ledger history.
type CreditHandler struct {
	ledger ports.LedgerService
}

func NewCreditHandler(ledger ports.LedgerService) *CreditHandler {
	return &CreditHandler{ledger: ledger}
}

// Balance handles GET /credits/balance.
//
// @Summary      Current credit balance
// @Tags         credits
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  balanceResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /credits/balance [get]
func (h *CreditHandler) Balance(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	credits, err := h.ledger.Balance(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, balanceResponse{Credits: credits})
}

// History handles GET /credits/history, newest entries first.
//
// @Summary      Ledger history
// @Tags         credits
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Page size (default 20, max 100)"
// @Success      200    {object}  historyResponse
// @Failure      401    {object}  errorResponse
// @Router       /credits/history [get]
func (h *CreditHandler) History(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var q pageQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pagination")
	}

	res, err := h.ledger.History(c.Request().Context(), userID, q.Page, q.Limit)
	if err != nil {
		return err
	}

	items := res.Items
	if items == nil {
		items = []*domain.Transaction{}
	}

	return c.JSON(http.StatusOK, historyResponse{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	})
}
