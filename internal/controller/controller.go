// Package controller wires the HTTP API onto the services. Handlers are
// thin: decode, call the service, map the error kind to a status code.
package controller

import (
	"net/http"

	"go.uber.org/zap"

	"slotswap/internal/service"
)

type Controller struct {
	authService *service.AuthService
	slotService *service.SlotService
	swapService *service.SwapService
	logger      *zap.Logger
}

func New(
	authService *service.AuthService,
	slotService *service.SlotService,
	swapService *service.SwapService,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		authService: authService,
		slotService: slotService,
		swapService: swapService,
		logger:      logger,
	}
}

// Routes builds the API router.
func (c *Controller) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", c.handleHealth)

	mux.HandleFunc("POST /api/auth/register", c.handleRegister)
	mux.HandleFunc("POST /api/auth/login", c.handleLogin)
	mux.Handle("GET /api/auth/me", c.requireUser(c.handleMe))

	mux.Handle("POST /api/events", c.requireUser(c.handleCreateEvent))
	mux.Handle("GET /api/events", c.requireUser(c.handleListEvents))
	mux.Handle("GET /api/events/{id}", c.requireUser(c.handleGetEvent))
	mux.Handle("PATCH /api/events/{id}", c.requireUser(c.handleUpdateEvent))
	mux.Handle("PATCH /api/events/{id}/status", c.requireUser(c.handleUpdateEventStatus))
	mux.Handle("DELETE /api/events/{id}", c.requireUser(c.handleDeleteEvent))

	mux.Handle("GET /api/marketplace/swappable-slots", c.requireUser(c.handleMarketplace))

	mux.Handle("POST /api/swap/swap-request", c.requireUser(c.handleSwapRequest))
	mux.Handle("POST /api/swap/swap-response/{id}", c.requireUser(c.handleSwapResponse))
	mux.Handle("GET /api/swap/swap-requests/incoming", c.requireUser(c.handleIncoming))
	mux.Handle("GET /api/swap/swap-requests/outgoing", c.requireUser(c.handleOutgoing))

	return mux
}

func (c *Controller) handleHealth(w http.ResponseWriter, r *http.Request) {
	c.respond(w, http.StatusOK, envelope{"success": true})
}
