package reminder

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carrierdesk/carrierdesk/internal/documents"
	"github.com/carrierdesk/carrierdesk/internal/platform/httpx"
)

// Handler serves the reminder JSON API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the reminder endpoints that are not tied to one party.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reminders/outstanding", h.outstanding)
}

// MountPartyRoutes registers per-party endpoints on the /parties subrouter.
func (h *Handler) MountPartyRoutes(r chi.Router) {
	r.Post("/{id}/reminders", h.send)
	r.Get("/{id}/reminders", h.history)
}

func (h *Handler) outstanding(w http.ResponseWriter, r *http.Request) {
	dues, err := h.service.Outstanding(r.Context())
	if err != nil {
		h.fail(w, "list outstanding failed", err)
		return
	}
	if dues == nil {
		dues = []Outstanding{}
	}
	httpx.JSON(w, http.StatusOK, dues)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req SendRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	rem, err := h.service.Send(r.Context(), id, req)
	if err != nil {
		h.fail(w, "send reminder failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rem)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.History(r.Context(), id)
	if err != nil {
		h.fail(w, "list reminders failed", err)
		return
	}
	if list == nil {
		list = []Reminder{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if h.logger != nil {
		switch documents.Reason(err) {
		case documents.ReasonValidation, documents.ReasonNotFound:
			h.logger.Info(msg, slog.Any("error", err))
		default:
			h.logger.Error(msg, slog.Any("error", err))
		}
	}
	httpx.RespondError(w, err)
}
