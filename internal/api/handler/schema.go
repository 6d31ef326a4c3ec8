package handler

import (
	"time"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/signaling"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  validate:"required,max=100"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

// --- Credits ---

type pageQuery struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

type balanceResponse struct {
	Credits int `json:"credits"`
}

type historyResponse struct {
	Items      []*domain.Transaction `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"total_pages"`
}

// --- Sessions ---

type createSessionRequest struct {
	ProviderID  string    `json:"provider_id"  validate:"required"`
	SkillID     string    `json:"skill_id"     validate:"required"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Duration    int       `json:"duration"     validate:"required,min=1,max=4"`
	Message     string    `json:"message"      validate:"max=1000"`
}

type updateSessionRequest struct {
	Status      string `json:"status"       validate:"omitempty,oneof=accepted rejected completed cancelled pending"`
	MeetingLink string `json:"meeting_link" validate:"omitempty,url,max=2048"`
}

type meetingLinkRequest struct {
	MeetingLink string `json:"meeting_link" validate:"required,url,max=2048"`
}

type listSessionsQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=pending accepted rejected completed cancelled"`
}

type sessionListResponse struct {
	Items []*domain.Session `json:"items"`
	Count int               `json:"count"`
}

// --- Notifications ---

type notificationListResponse struct {
	Items      []*domain.Notification `json:"items"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

type unreadCountResponse struct {
	Count int64 `json:"count"`
}

type markAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// --- Signaling ---

type roomsResponse struct {
	Online int                      `json:"online"`
	Rooms  []signaling.RoomSnapshot `json:"rooms"`
}

// --- Reviews ---

type createReviewRequest struct {
	Rating  int    `json:"rating"  validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=500"`
}

type reviewListResponse struct {
	Items      []*domain.Review  `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Reputation domain.Reputation `json:"reputation"`
}
