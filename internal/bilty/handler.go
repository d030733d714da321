package bilty

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/carrierdesk/carrierdesk/internal/documents"
	"github.com/carrierdesk/carrierdesk/internal/export"
	"github.com/carrierdesk/carrierdesk/internal/platform/httpx"
	"github.com/carrierdesk/carrierdesk/internal/shared"
)

// Printer renders a bilty as PDF.
type Printer interface {
	RenderBilty(ctx context.Context, b Bilty) ([]byte, error)
}

// Handler serves the bilty JSON API.
type Handler struct {
	logger  *slog.Logger
	service *Service
	printer Printer
	now     func() time.Time
}

// NewHandler constructs a Handler. printer may be nil when PDF output is not configured.
func NewHandler(logger *slog.Logger, service *Service, printer Printer) *Handler {
	return &Handler{logger: logger, service: service, printer: printer, now: time.Now}
}

type listResponse struct {
	Items      []Bilty           `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

type nextNumberResponse struct {
	Number int64  `json:"number"`
	Scope  string `json:"scope"`
}

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	from, to := shared.DateRange(q)
	f := ListFilter{
		From:        from,
		To:          to,
		PaymentMode: PaymentMode(q.Get("payment_mode")),
		Search:      q.Get("search"),
	}
	if q.Has("scope") {
		scope := q.Get("scope")
		f.Scope = &scope
	}
	if id, err := strconv.ParseInt(q.Get("party_id"), 10, 64); err == nil {
		f.PartyID = id
	}
	return f
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	f := filterFromQuery(r)
	f.Limit, f.Offset = perPage, shared.Offset(page, perPage)
	bilties, total, err := h.service.List(r.Context(), f)
	if err != nil {
		h.fail(w, "list bilties failed", err)
		return
	}
	if bilties == nil {
		bilties = []Bilty{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: bilties, Pagination: shared.NewPagination(page, perPage, total)})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get bilty failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	number, err := strconv.ParseInt(q.Get("number"), 10, 64)
	if err != nil || number <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid number", httpx.ErrBadRequest))
		return
	}
	b, err := h.service.GetByNumber(r.Context(), q.Get("scope"), number)
	if err != nil {
		h.fail(w, "lookup bilty failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create bilty failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	b, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update bilty failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete bilty failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) nextNumber(w http.ResponseWriter, r *http.Request) {
	date := h.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := shared.ParseDate(raw)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: date must be YYYY-MM-DD", httpx.ErrBadRequest))
			return
		}
		date = d
	}
	n, scope, err := h.service.NextNumber(r.Context(), date)
	if err != nil {
		h.fail(w, "peek bilty number failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, nextNumberResponse{Number: n, Scope: scope})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", export.ContentTypeCSV)
	w.Header().Set("Content-Disposition", `attachment; filename="bilties.csv"`)
	if err := h.service.ExportCSV(r.Context(), w, filterFromQuery(r)); err != nil {
		h.fail(w, "export bilties failed", err)
	}
}

func (h *Handler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="bilties.xlsx"`)
	if err := h.service.ExportXLSX(r.Context(), w, filterFromQuery(r)); err != nil {
		h.fail(w, "export bilties failed", err)
	}
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	if h.printer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Printing Unavailable", httpx.CodeInternal, "pdf renderer not configured")
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get bilty failed", err)
		return
	}
	pdf, err := h.printer.RenderBilty(r.Context(), b)
	if err != nil {
		h.fail(w, "render bilty pdf failed", err)
		return
	}
	httpx.Attachment(w, "application/pdf", fmt.Sprintf("bilty-%s-%d.pdf", scopeLabel(b.Scope), b.Number), pdf)
}

func scopeLabel(scope string) string {
	if scope == "" {
		return "all"
	}
	return scope
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
