package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
)

// stubSessionService records the last call and returns sess or err.
type stubSessionService struct {
	sess *domain.Session
	list []*domain.Session
	err  error

	lastOp     string
	lastID     string
	lastActor  string
	lastCreate ports.CreateSessionInput
	lastUpdate ports.UpdateSessionInput
	lastStatus domain.SessionStatus
	lastLink   string
}

func (s *stubSessionService) record(op, id, actor string) (*domain.Session, error) {
	s.lastOp, s.lastID, s.lastActor = op, id, actor
	return s.sess, s.err
}

func (s *stubSessionService) Create(_ context.Context, in ports.CreateSessionInput) (*domain.Session, error) {
	s.lastCreate = in
	return s.record("create", "", in.RequesterID)
}

func (s *stubSessionService) Get(_ context.Context, id, actor string) (*domain.Session, error) {
	return s.record("get", id, actor)
}

func (s *stubSessionService) ListForUser(_ context.Context, userID string, status domain.SessionStatus) ([]*domain.Session, error) {
	s.lastActor, s.lastStatus = userID, status
	return s.list, s.err
}

func (s *stubSessionService) Accept(_ context.Context, id, actor string) (*domain.Session, error) {
	return s.record("accept", id, actor)
}

func (s *stubSessionService) Reject(_ context.Context, id, actor string) (*domain.Session, error) {
	return s.record("reject", id, actor)
}

func (s *stubSessionService) Cancel(_ context.Context, id, actor string) (*domain.Session, error) {
	return s.record("cancel", id, actor)
}

func (s *stubSessionService) Confirm(_ context.Context, id, actor string) (*domain.Session, error) {
	return s.record("confirm", id, actor)
}

func (s *stubSessionService) Settle(_ context.Context, id, actor string) (*domain.Session, error) {
	return s.record("settle", id, actor)
}

func (s *stubSessionService) SetMeetingLink(_ context.Context, id, actor, link string) (*domain.Session, error) {
	s.lastLink = link
	return s.record("meeting-link", id, actor)
}

func (s *stubSessionService) Update(_ context.Context, in ports.UpdateSessionInput) (*domain.Session, error) {
	s.lastUpdate = in
	return s.record("update", in.SessionID, in.ActorID)
}

func (s *stubSessionService) CanJoinRoom(context.Context, string, string) (bool, error) {
	return false, nil
}

func TestSessionHandler_Create(t *testing.T) {
	stub := &stubSessionService{sess: &domain.Session{ID: "s1", Status: domain.SessionPending}}
	h := NewSessionHandler(stub)

	rec, err := call(t, h.Create, http.MethodPost, "/sessions",
		`{"provider_id":"p1","skill_id":"go","scheduled_at":"2026-11-02T15:00:00Z","duration":2,"message":"hi"}`, "r1")
	expectStatus(t, rec, err, http.StatusCreated)

	in := stub.lastCreate
	if in.RequesterID != "r1" || in.ProviderID != "p1" || in.Duration != 2 || in.SkillID != "go" {
		t.Fatalf("unexpected input: %+v", in)
	}
	if !in.ScheduledAt.Equal(time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("scheduled_at not parsed: %v", in.ScheduledAt)
	}

	var got domain.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || got.ID != "s1" {
		t.Fatalf("unexpected body %s (%v)", rec.Body.String(), err)
	}
}

func TestSessionHandler_Create_Validation(t *testing.T) {
	stub := &stubSessionService{}
	h := NewSessionHandler(stub)

	bodies := map[string]string{
		"duration too long": `{"provider_id":"p1","skill_id":"go","scheduled_at":"2026-11-02T15:00:00Z","duration":5}`,
		"missing provider":  `{"skill_id":"go","scheduled_at":"2026-11-02T15:00:00Z","duration":1}`,
		"missing schedule":  `{"provider_id":"p1","skill_id":"go","duration":1}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			_, err := call(t, h.Create, http.MethodPost, "/sessions", body, "r1")
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if stub.lastOp != "" {
		t.Fatalf("service must not be called on invalid input")
	}
}

func TestSessionHandler_Actions(t *testing.T) {
	cases := []struct {
		op     string
		method string
		pick   func(h *SessionHandler) echo.HandlerFunc
	}{
		{"get", http.MethodGet, func(h *SessionHandler) echo.HandlerFunc { return h.Get }},
		{"accept", http.MethodPost, func(h *SessionHandler) echo.HandlerFunc { return h.Accept }},
		{"reject", http.MethodPost, func(h *SessionHandler) echo.HandlerFunc { return h.Reject }},
		{"cancel", http.MethodPost, func(h *SessionHandler) echo.HandlerFunc { return h.Cancel }},
		{"confirm", http.MethodPost, func(h *SessionHandler) echo.HandlerFunc { return h.Confirm }},
		{"settle", http.MethodPost, func(h *SessionHandler) echo.HandlerFunc { return h.Settle }},
	}

	for _, tc := range cases {
		t.Run(tc.op, func(t *testing.T) {
			stub := &stubSessionService{sess: &domain.Session{ID: "s1"}}
			h := NewSessionHandler(stub)

			rec, err := call(t, tc.pick(h), tc.method, "/sessions/s1", "", "u1", "id", "s1")
			expectStatus(t, rec, err, http.StatusOK)
			if stub.lastOp != tc.op || stub.lastID != "s1" || stub.lastActor != "u1" {
				t.Fatalf("unexpected call: %s %s %s", stub.lastOp, stub.lastID, stub.lastActor)
			}
		})
	}
}

func TestSessionHandler_ActionErrorsPropagate(t *testing.T) {
	stub := &stubSessionService{err: domain.ErrNotParticipant}
	h := NewSessionHandler(stub)

	_, err := call(t, h.Confirm, http.MethodPost, "/", "", "intruder", "id", "s1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSessionHandler_Update(t *testing.T) {
	stub := &stubSessionService{sess: &domain.Session{ID: "s1"}}
	h := NewSessionHandler(stub)

	rec, err := call(t, h.Update, http.MethodPatch, "/sessions/s1",
		`{"status":"accepted","meeting_link":"https://meet.example.com/abc"}`, "p1", "id", "s1")
	expectStatus(t, rec, err, http.StatusOK)

	in := stub.lastUpdate
	if in.SessionID != "s1" || in.ActorID != "p1" || in.Status != domain.SessionAccepted || in.MeetingLink != "https://meet.example.com/abc" {
		t.Fatalf("unexpected update input: %+v", in)
	}

	_, err = call(t, h.Update, http.MethodPatch, "/sessions/s1", `{}`, "p1", "id", "s1")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty update must be a validation error, got %v", err)
	}

	_, err = call(t, h.Update, http.MethodPatch, "/sessions/s1", `{"status":"done"}`, "p1", "id", "s1")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("unknown status must be a validation error, got %v", err)
	}
}

func TestSessionHandler_SetMeetingLink(t *testing.T) {
	stub := &stubSessionService{sess: &domain.Session{ID: "s1"}}
	h := NewSessionHandler(stub)

	rec, err := call(t, h.SetMeetingLink, http.MethodPut, "/sessions/s1/meeting-link",
		`{"meeting_link":"https://meet.example.com/room"}`, "r1", "id", "s1")
	expectStatus(t, rec, err, http.StatusOK)
	if stub.lastLink != "https://meet.example.com/room" {
		t.Fatalf("link not forwarded: %q", stub.lastLink)
	}

	_, err = call(t, h.SetMeetingLink, http.MethodPut, "/sessions/s1/meeting-link",
		`{"meeting_link":"not a url"}`, "r1", "id", "s1")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSessionHandler_Mine(t *testing.T) {
	stub := &stubSessionService{list: []*domain.Session{{ID: "s1"}, {ID: "s2"}}}
	h := NewSessionHandler(stub)

	rec, err := call(t, h.Mine, http.MethodGet, "/sessions/my?status=accepted", "", "u1")
	expectStatus(t, rec, err, http.StatusOK)
	if stub.lastStatus != domain.SessionAccepted || stub.lastActor != "u1" {
		t.Fatalf("filter not forwarded: %s %s", stub.lastStatus, stub.lastActor)
	}

	var resp sessionListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Count != 2 || len(resp.Items) != 2 {
		t.Fatalf("unexpected list: %+v", resp)
	}

	_, err = call(t, h.Mine, http.MethodGet, "/sessions/my?status=bogus", "", "u1")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
