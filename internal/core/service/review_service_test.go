package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
)

func (f *fixture) completed(t *testing.T, duration int) *domain.Session {
	t.Helper()
	sess := f.accepted(t, duration)
	if _, err := f.svc.Confirm(context.Background(), sess.ID, f.requester); err != nil {
		t.Fatalf("confirm requester: %v", err)
	}
	sess, err := f.svc.Confirm(context.Background(), sess.ID, f.provider)
	if err != nil {
		t.Fatalf("confirm provider: %v", err)
	}
	if sess.Status != domain.SessionCompleted {
		t.Fatalf("expected completed session, got %s", sess.Status)
	}
	return sess
}

func newReviewService(f *fixture) ports.ReviewService {
	return NewReviewService(f.store.Reviews(), f.store.Sessions(), f.sink, discardLogger)
}

func TestReviewService_Create(t *testing.T) {
	f := newFixture(t, 5, 0)
	svc := newReviewService(f)
	sess := f.completed(t, 1)

	review, err := svc.Create(context.Background(), ports.CreateReviewInput{
		SessionID:  sess.ID,
		ReviewerID: f.requester,
		Rating:     5,
		Comment:    "  patient teacher  ",
	})
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	if review.RevieweeID != f.provider || review.Comment != "patient teacher" {
		t.Fatalf("unexpected review: %+v", review)
	}

	kinds := f.sink.kinds(f.provider)
	if len(kinds) == 0 || kinds[len(kinds)-1] != domain.NotifyNewReview {
		t.Fatalf("reviewee not notified: %v", kinds)
	}

	_, err = svc.Create(context.Background(), ports.CreateReviewInput{SessionID: sess.ID, ReviewerID: f.requester, Rating: 3})
	if !errors.Is(err, domain.ErrReviewExists) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on second review, got %v", err)
	}

	back, err := svc.Create(context.Background(), ports.CreateReviewInput{SessionID: sess.ID, ReviewerID: f.provider, Rating: 4})
	if err != nil || back.RevieweeID != f.requester {
		t.Fatalf("provider review: %+v, %v", back, err)
	}
}

func TestReviewService_Create_Rejections(t *testing.T) {
	f := newFixture(t, 5, 0)
	svc := newReviewService(f)
	done := f.completed(t, 1)
	open := f.accepted(t, 1)

	tests := []struct {
		name string
		in   ports.CreateReviewInput
		want error
	}{
		{"rating too low", ports.CreateReviewInput{SessionID: done.ID, ReviewerID: f.requester, Rating: 0}, domain.ErrValidation},
		{"rating too high", ports.CreateReviewInput{SessionID: done.ID, ReviewerID: f.requester, Rating: 6}, domain.ErrValidation},
		{"comment too long", ports.CreateReviewInput{SessionID: done.ID, ReviewerID: f.requester, Rating: 3, Comment: strings.Repeat("x", domain.MaxReviewComment+1)}, domain.ErrValidation},
		{"missing session", ports.CreateReviewInput{ReviewerID: f.requester, Rating: 3}, domain.ErrValidation},
		{"unknown session", ports.CreateReviewInput{SessionID: "ghost", ReviewerID: f.requester, Rating: 3}, domain.ErrNotFound},
		{"outsider", ports.CreateReviewInput{SessionID: done.ID, ReviewerID: f.outsider, Rating: 3}, domain.ErrNotParticipant},
		{"not completed", ports.CreateReviewInput{SessionID: open.ID, ReviewerID: f.requester, Rating: 3}, domain.ErrNotCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	reviews, err := svc.ListForSession(context.Background(), done.ID)
	if err != nil || len(reviews) != 0 {
		t.Fatalf("rejected reviews must not be stored: %d, %v", len(reviews), err)
	}
}

func TestReviewService_ListForUser(t *testing.T) {
	f := newFixture(t, 10, 0)
	svc := newReviewService(f)

	for _, rating := range []int{5, 4, 4} {
		sess := f.completed(t, 1)
		if _, err := svc.Create(context.Background(), ports.CreateReviewInput{SessionID: sess.ID, ReviewerID: f.requester, Rating: rating}); err != nil {
			t.Fatalf("create review: %v", err)
		}
	}

	page, err := svc.ListForUser(context.Background(), f.provider, 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 2 || page.TotalPages != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Reputation.Count != 3 || page.Reputation.Average != 4.3 {
		t.Fatalf("unexpected reputation: %+v", page.Reputation)
	}

	empty, err := svc.ListForUser(context.Background(), f.outsider, 0, 0)
	if err != nil || empty.Total != 0 || empty.Reputation.Count != 0 {
		t.Fatalf("expected empty page: %+v, %v", empty, err)
	}

	if _, err := svc.ListForSession(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
