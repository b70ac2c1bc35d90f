package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/atelier/internal/collab"
	identityDomain "github.com/felixgeelhaar/atelier/internal/identity/domain"
)

// WSHandler upgrades authenticated requests to collaboration room sessions.
type WSHandler struct {
	hub        *collab.Hub
	authorizer collab.RoomAuthorizer
	userRepo   identityDomain.Repository
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewWSHandler creates the websocket handler.
func NewWSHandler(hub *collab.Hub, authorizer collab.RoomAuthorizer, userRepo identityDomain.Repository, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		hub:        hub,
		authorizer: authorizer,
		userRepo:   userRepo,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: logger,
	}
}

// Serve handles GET /ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	user, err := h.userRepo.FindByID(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Debug("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	// Run blocks until the peer disconnects. The request context dies when
	// this handler returns, so the session gets its own.
	session := collab.NewSession(h.hub, conn, userID, user.Username(), h.authorizer, h.logger)
	session.Run(context.Background())
}
