package socket

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/domain"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/auth"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/json"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/logging"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/metrics"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/ws"
)

type Authenticator interface {
	Authenticate(token string) (*domain.Identity, error)
}

type Options struct {
	AllowedOrigins []string
	Client         ws.ClientOptions
}

type Handler struct {
	core          *ws.Core
	authenticator Authenticator
	upgrader      websocket.Upgrader
	clientOpts    ws.ClientOptions
	logger        logging.Logger
	metrics       *metrics.Metrics
}

func NewHandler(core *ws.Core, authenticator Authenticator, logger logging.Logger, m *metrics.Metrics, opts Options) *Handler {
	return &Handler{
		core:          core,
		authenticator: authenticator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
		clientOpts: opts.Client,
		logger:     logger,
		metrics:    m,
	}
}

// ServeWS authenticates the handshake before upgrading. A rejected handshake
// gets a plain 401 and never becomes a connection.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticator.Authenticate(auth.TokenFromRequest(r))
	if err != nil {
		reason := "invalid_token"
		if errors.Is(err, auth.ErrNoPublicKey) {
			reason = "no_public_key"
		}
		h.metrics.HandshakesRejected.WithLabelValues(reason).Inc()
		h.logger.Warn(logging.Auth, logging.Unauthorized, "handshake rejected", map[logging.ExtraKey]any{
			logging.ClientIp:     r.RemoteAddr,
			logging.ErrorMessage: err.Error(),
		})
		json.WriteUnauthorized(w)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.metrics.HandshakesRejected.WithLabelValues("upgrade").Inc()
		h.logger.Warn(logging.WebSocket, logging.Connect, "upgrade failed", map[logging.ExtraKey]any{
			logging.ClientIp:     r.RemoteAddr,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	cl := ws.NewClient(conn, identity, h.clientOpts)
	if err := h.core.Register(r.Context(), cl); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"))
		_ = conn.Close()
		return
	}

	go cl.WriteMessage(h.core)
	go cl.ReadMessage(h.core)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	origins := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		origins[strings.ToLower(strings.TrimRight(origin, "/"))] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := origins[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}
