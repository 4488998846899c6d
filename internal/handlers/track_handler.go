package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dineqr/order-api/internal/service"
	"github.com/go-chi/chi/v5"
)

// TrackHandler serves customer-facing order lookups by token.
type TrackHandler struct {
	trackService *service.TrackService
	log          *slog.Logger
}

// NewTrackHandler creates a new track handler.
func NewTrackHandler(trackService *service.TrackService, log *slog.Logger) *TrackHandler {
	return &TrackHandler{
		trackService: trackService,
		log:          log,
	}
}

// TrackOrder handles GET /api/order/track/{token}
func (h *TrackHandler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	tracked, err := h.trackService.Track(r.Context(), token)
	if err != nil {
		var rej *service.Rejection
		if errors.As(err, &rej) {
			WriteError(w, rej.Status, rej.Message, h.log)
			return
		}

		h.log.Error("failed to look up order", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}

	WriteJSON(w, http.StatusOK, tracked, h.log)
}
