package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	"coursehub/internal/microservices/http-api/repository"
	"coursehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler upgrades authenticated HTTP requests to realtime connections.
type Handler struct {
	registry   *Registry
	relay      *Relay
	principals repository.PrincipalRepository
	verifier   service.IdentityVerifier
	upgrader   websocket.Upgrader
	rateLimit  int
	rateBurst  int
}

type HandlerOptions struct {
	AllowedOrigins []string
	RateLimit      int // inbound events per second
	RateBurst      int
}

func NewHandler(registry *Registry, relay *Relay, principals repository.PrincipalRepository, verifier service.IdentityVerifier, opts HandlerOptions) *Handler {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 20
	}
	return &Handler{
		registry:   registry,
		relay:      relay,
		principals: principals,
		verifier:   verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
		rateLimit: opts.RateLimit,
		rateBurst: opts.RateBurst,
	}
}

// ServeWS verifies the bearer token (header or ?token=) and upgrades the connection
func (h *Handler) ServeWS(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}

	identity, err := h.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		slog.Warn("ws_auth_failed", "remote_addr", c.ClientIP(), "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote an HTTP error
		slog.Error("ws_upgrade_failed", "email", identity.Email, "error", err)
		return
	}

	client := newClient(uuid.NewString(), identity, conn, h)
	h.registry.Register(client.ID, client)

	go client.WritePump()
	go client.ReadPump()
}

// Stats reports live connection and room counts
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connections": h.registry.ConnectionCount(),
		"rooms":       h.registry.RoomCount(),
	})
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// originChecker allows requests without an Origin header (non-browser
// clients) and browser requests from the configured origins.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
