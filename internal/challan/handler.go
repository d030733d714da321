package challan

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

// Printer renders a challan as PDF.
type Printer interface {
	RenderChallan(ctx context.Context, c Challan) ([]byte, error)
}

// Handler serves the challan JSON API.
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
	Items      []Challan         `json:"items"`
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
		From:   from,
		To:     to,
		Search: q.Get("search"),
	}
	if v := q.Get("vehicle_no"); v != "" {
		f.VehicleNo = documents.NormalizeVehicleNo(v)
	}
	if q.Has("scope") {
		scope := q.Get("scope")
		f.Scope = &scope
	}
	return f
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	f := filterFromQuery(r)
	f.Limit, f.Offset = perPage, shared.Offset(page, perPage)
	challans, total, err := h.service.List(r.Context(), f)
	if err != nil {
		h.fail(w, "list challans failed", err)
		return
	}
	if challans == nil {
		challans = []Challan{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: challans, Pagination: shared.NewPagination(page, perPage, total)})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get challan failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	number, err := strconv.ParseInt(q.Get("number"), 10, 64)
	if err != nil || number <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid number", httpx.ErrBadRequest))
		return
	}
	c, err := h.service.GetByNumber(r.Context(), q.Get("scope"), number)
	if err != nil {
		h.fail(w, "lookup challan failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create challan failed", err)
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
	c, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update challan failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete challan failed", err)
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
		h.fail(w, "peek challan number failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, nextNumberResponse{Number: n, Scope: scope})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", export.ContentTypeCSV)
	w.Header().Set("Content-Disposition", `attachment; filename="challans.csv"`)
	if err := h.service.ExportCSV(r.Context(), w, filterFromQuery(r)); err != nil {
		h.fail(w, "export challans failed", err)
	}
}

func (h *Handler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="challans.xlsx"`)
	if err := h.service.ExportXLSX(r.Context(), w, filterFromQuery(r)); err != nil {
		h.fail(w, "export challans failed", err)
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
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get challan failed", err)
		return
	}
	pdf, err := h.printer.RenderChallan(r.Context(), c)
	if err != nil {
		h.fail(w, "render challan pdf failed", err)
		return
	}
	httpx.Attachment(w, "application/pdf", fmt.Sprintf("challan-%s-%d.pdf", scopeLabel(c.Scope), c.Number), pdf)
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
