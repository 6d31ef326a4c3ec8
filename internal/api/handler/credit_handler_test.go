package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
)

type stubLedgerService struct {
	ports.LedgerService

	balance  int
	history  *ports.HistoryResult
	gotUser  string
	gotPage  int
	gotLimit int
}

func (s *stubLedgerService) Balance(_ context.Context, userID string) (int, error) {
	s.gotUser = userID
	return s.balance, nil
}

func (s *stubLedgerService) History(_ context.Context, userID string, page, limit int) (*ports.HistoryResult, error) {
	s.gotUser, s.gotPage, s.gotLimit = userID, page, limit
	return s.history, nil
}

func TestCreditHandler_Balance(t *testing.T) {
	stub := &stubLedgerService{balance: 7}
	h := NewCreditHandler(stub)

	rec, err := call(t, h.Balance, http.MethodGet, "/credits/balance", "", "u1")
	expectStatus(t, rec, err, http.StatusOK)

	var resp balanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Credits != 7 {
		t.Fatalf("unexpected body %s (%v)", rec.Body.String(), err)
	}
	if stub.gotUser != "u1" {
		t.Fatalf("balance read for %q", stub.gotUser)
	}
}

func TestCreditHandler_History(t *testing.T) {
	stub := &stubLedgerService{history: &ports.HistoryResult{
		Items: []*domain.Transaction{
			{ID: "t2", Amount: -2, Kind: domain.KindDebit, SessionID: "s1", BalanceAfter: 3},
			{ID: "t1", Amount: 5, Kind: domain.KindInitial, BalanceAfter: 5},
		},
		Total: 2, Page: 1, Limit: 10, TotalPages: 1,
	}}
	h := NewCreditHandler(stub)

	rec, err := call(t, h.History, http.MethodGet, "/credits/history?page=1&limit=10", "", "u1")
	expectStatus(t, rec, err, http.StatusOK)
	if stub.gotPage != 1 || stub.gotLimit != 10 {
		t.Fatalf("pagination not forwarded: %d %d", stub.gotPage, stub.gotLimit)
	}

	var resp historyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Total != 2 || len(resp.Items) != 2 || resp.Items[0].ID != "t2" {
		t.Fatalf("unexpected history: %+v", resp)
	}
}

func TestCreditHandler_HistoryBadQuery(t *testing.T) {
	h := NewCreditHandler(&stubLedgerService{})

	_, err := call(t, h.History, http.MethodGet, "/credits/history?page=abc", "", "u1")
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}
