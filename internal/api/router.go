package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/tempoedu/skillswap/docs"
	"github.com/tempoedu/skillswap/internal/api/handler"
	"github.com/tempoedu/skillswap/internal/api/middleware"
	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
	"github.com/tempoedu/skillswap/internal/signaling"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Auth          ports.AuthService
	Ledger        ports.LedgerService
	Sessions      ports.SessionService
	Notifications ports.NotificationService
	Reviews       ports.ReviewService
	Verifier      ports.TokenVerifier

	// Signaling serves /ws/webrtc; Registry backs the admin room view.
	Signaling http.Handler
	Registry  *signaling.Registry

	Health      []handler.DependencyCheck
	CORSOrigins []string
	Log         zerolog.Logger

	// Registerer receives the HTTP metrics. Nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "skillswap",
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/metrics") || strings.HasPrefix(c.Path(), "/health")
		},
	}))

	auth := middleware.Auth(d.Verifier)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	creditHandler := handler.NewCreditHandler(d.Ledger)
	sessionHandler := handler.NewSessionHandler(d.Sessions)
	notificationHandler := handler.NewNotificationHandler(d.Notifications)
	reviewHandler := handler.NewReviewHandler(d.Reviews)
	signalingHandler := handler.NewSignalingHandler(d.Signaling, d.Registry)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/me", authHandler.Me, auth)

	// --- Credits ---
	credits := e.Group("/credits", auth)
	credits.GET("/balance", creditHandler.Balance)
	credits.GET("/history", creditHandler.History)

	// --- Sessions ---
	sessions := e.Group("/sessions", auth)
	sessions.POST("", sessionHandler.Create)
	sessions.GET("/my", sessionHandler.Mine)
	sessions.GET("/:id", sessionHandler.Get)
	sessions.PATCH("/:id", sessionHandler.Update)
	sessions.POST("/:id/accept", sessionHandler.Accept)
	sessions.POST("/:id/reject", sessionHandler.Reject)
	sessions.POST("/:id/cancel", sessionHandler.Cancel)
	sessions.POST("/:id/confirm", sessionHandler.Confirm)
	sessions.POST("/:id/settle", sessionHandler.Settle)
	sessions.PUT("/:id/meeting-link", sessionHandler.SetMeetingLink)
	sessions.POST("/:id/review", reviewHandler.Create)
	sessions.GET("/:id/reviews", reviewHandler.ForSession)

	// --- Reviews ---
	e.GET("/users/:id/reviews", reviewHandler.ForUser, auth)

	// --- Notifications ---
	notifications := e.Group("/notifications", auth)
	notifications.GET("", notificationHandler.List)
	notifications.GET("/unread-count", notificationHandler.UnreadCount)
	notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
	notifications.PATCH("/:id/read", notificationHandler.MarkRead)

	// --- Signaling (authenticates after the upgrade) ---
	e.GET("/ws/webrtc", signalingHandler.Connect)

	admin := e.Group("/admin", auth, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/signaling/rooms", signalingHandler.Rooms)

	// --- Health (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Health...)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness

	// --- Operations ---
	gatherer := prometheus.DefaultGatherer
	if g, ok := d.Registerer.(prometheus.Gatherer); ok {
		gatherer = g
	}
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger emits one structured line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= http.StatusInternalServerError:
				ev = log.Error().Err(v.Error)
			case v.Error != nil:
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", redactURI(v.URI)).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// sensitiveParams are query parameters that carry credentials.
var sensitiveParams = []string{"token", "access_token"}

// redactURI masks credential query parameters so they never reach the logs.
func redactURI(uri string) string {
	u, err := url.ParseRequestURI(uri)
	if err != nil {
		if i := strings.IndexByte(uri, '?'); i >= 0 {
			return uri[:i]
		}
		return uri
	}
	q := u.Query()
	redacted := false
	for _, name := range sensitiveParams {
		if q.Has(name) {
			q.Set(name, "REDACTED")
			redacted = true
		}
	}
	if !redacted {
		return uri
	}
	u.RawQuery = q.Encode()
	return u.RequestURI()
}
