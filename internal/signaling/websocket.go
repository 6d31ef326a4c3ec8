package signaling

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tempoedu/skillswap/internal/pkg/metrics"
)

var (
	// ErrBackpressure is returned when a peer's outbound buffer is full.
	ErrBackpressure = errors.New("signaling: send buffer full")
	// ErrPeerClosed is returned when sending to a closed peer.
	ErrPeerClosed = errors.New("signaling: peer closed")
)

const (
	defaultReadLimit    = 64 << 10
	defaultMessageRate  = rate.Limit(50)
	defaultMessageBurst = 100
	defaultPingPeriod   = 25 * time.Second
	defaultSendBuffer   = 32
	writeWait           = 5 * time.Second
)

// ServerConfig tunes the websocket transport.
type ServerConfig struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	SendBuffer     int
	AllowedOrigins []string

	// MessageRate caps inbound messages per second per connection; excess
	// messages are dropped. MessageBurst is the token bucket size.
	MessageRate  rate.Limit
	MessageBurst int
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.ReadLimit <= 0 {
		c.ReadLimit = defaultReadLimit
	}
	if c.PingPeriod <= 0 {
		c.PingPeriod = defaultPingPeriod
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = defaultSendBuffer
	}
	if c.MessageRate <= 0 {
		c.MessageRate = defaultMessageRate
	}
	if c.MessageBurst <= 0 {
		c.MessageBurst = defaultMessageBurst
	}
	return c
}

// Server adapts websocket connections to the Gateway.
type Server struct {
	gateway  *Gateway
	cfg      ServerConfig
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewServer(gateway *Gateway, cfg ServerConfig, log zerolog.Logger) *Server {
	cfg = cfg.withDefaults()
	s := &Server{
		gateway: gateway,
		cfg:     cfg,
		log:     log.With().Str("module", "signaling").Logger(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades the request and runs the connection until it closes. The
// token is read from the "token" query parameter or a bearer Authorization
// header. The upgrade happens before authentication so a rejected client sees
// a close frame rather than an HTTP error.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("ws upgrade")
		return
	}

	p := newWSPeer(ws, s.cfg.SendBuffer)
	userID, err := s.gateway.Connect(token, p)
	if err != nil {
		return
	}
	p.closeCode.Store(websocket.CloseNormalClosure)

	ctx, cancel := context.WithCancel(context.Background())
	go s.writePump(ctx, p)
	s.readPump(ctx, userID, p)
	cancel()
}

func bearerToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func (s *Server) readPump(ctx context.Context, userID string, p *wsPeer) {
	defer func() {
		s.gateway.Disconnect(userID, p)
		p.Close()
	}()

	pongWait := s.cfg.PingPeriod * 10 / 9
	p.conn.SetReadLimit(s.cfg.ReadLimit)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := rate.NewLimiter(s.cfg.MessageRate, s.cfg.MessageBurst)
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Str("user_id", userID).Msg("readPump read error")
			}
			return
		}
		if !limiter.Allow() {
			s.log.Debug().Str("user_id", userID).Msg("message rate exceeded, dropping")
			metrics.SignalingMessagesTotal.WithLabelValues("any", "rate_limited").Inc()
			continue
		}
		s.gateway.Handle(ctx, userID, data)
	}
}

func (s *Server) writePump(ctx context.Context, p *wsPeer) {
	ticker := time.NewTicker(s.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		p.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case msg := <-p.send:
			if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.log.Debug().Err(err).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// wsPeer is a websocket-backed Peer with a bounded outbound queue.
type wsPeer struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	// closeCode is sent in the close frame; unauthenticated peers get a policy violation.
	closeCode atomic.Int32
}

func newWSPeer(conn *websocket.Conn, buffer int) *wsPeer {
	p := &wsPeer{
		conn: conn,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
	p.closeCode.Store(websocket.ClosePolicyViolation)
	return p
}

func (p *wsPeer) Send(msg []byte) error {
	select {
	case <-p.done:
		return ErrPeerClosed
	default:
	}
	select {
	case p.send <- msg:
		return nil
	default:
		return ErrBackpressure
	}
}

// Close sends a best-effort close frame and closes the socket. Safe to call repeatedly.
func (p *wsPeer) Close() {
	p.once.Do(func() {
		close(p.done)
		_ = p.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(int(p.closeCode.Load()), ""),
			time.Now().Add(writeWait),
		)
		_ = p.conn.Close()
	})
}
