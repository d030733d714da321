package bilty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carrierdesk/carrierdesk/internal/documents"
	"github.com/carrierdesk/carrierdesk/internal/platform/httpx"
)

type stubPrinter struct {
	last Bilty
}

func (p *stubPrinter) RenderBilty(_ context.Context, b Bilty) ([]byte, error) {
	p.last = b
	return []byte("%PDF-1.4 bilty"), nil
}

const createBody = `{
	"date": "2024-06-15",
	"consignor": {"name": "Gupta Sons"},
	"consignee": {"name": "Verma Stores", "gstin": "27AAPFU0939F1ZV"},
	"from": "Pune",
	"to": "Indore",
	"goods": [{"description": "Cartons", "packages": 4, "weight": "120.5"}],
	"freight": "1800"
}`

func newTestRouter(t *testing.T) (http.Handler, fixture, *stubPrinter) {
	t.Helper()
	fx := newFixture(5)
	printer := &stubPrinter{}
	h := NewHandler(nil, fx.svc, printer)
	h.now = func() time.Time { return time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, fx, printer
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rr
}

func TestHandlerCreateReturnsNumber(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := do(t, router, http.MethodPost, "/bilties", createBody)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created documents.Created
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, documents.Created{ID: 1, Number: 1, Scope: "2024-25"}, created)

	rr = do(t, router, http.MethodPost, "/bilties", createBody)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, int64(2), created.Number)
}

func TestHandlerCreateValidationFailure(t *testing.T) {
	router, fx, _ := newTestRouter(t)

	rr := do(t, router, http.MethodPost, "/bilties", `{"date":"2024-06-15","from":"Pune","to":"Indore","goods":[]}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	assert.Equal(t, httpx.CodeValidation, problem.Code)
	assert.Contains(t, problem.Fields, "goods")
	assert.Contains(t, problem.Fields, "consignor.name")

	rr = do(t, router, http.MethodGet, "/bilties/next-number?date=2024-06-15", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"number":1,"scope":"2024-25"}`, rr.Body.String())
	assert.Empty(t, fx.repo.bilties)
}

func TestHandlerUpdatePreservesNumber(t *testing.T) {
	router, _, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/bilties", createBody).Code)

	body := strings.Replace(createBody, `"to": "Indore"`, `"to": "Nagpur"`, 1)
	rr := do(t, router, http.MethodPut, "/bilties/1", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var b Bilty
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &b))
	assert.Equal(t, int64(1), b.Number)
	assert.Equal(t, "Nagpur", b.To)

	rr = do(t, router, http.MethodGet, "/bilties/lookup?scope=2024-25&number=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Nagpur")
}

func TestHandlerNextNumberDefaultsToToday(t *testing.T) {
	router, _, _ := newTestRouter(t)
	rr := do(t, router, http.MethodGet, "/bilties/next-number", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"number":1,"scope":"2024-25"}`, rr.Body.String())

	rr = do(t, router, http.MethodGet, "/bilties/next-number?date=tomorrow", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerPDF(t *testing.T) {
	router, _, printer := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/bilties", createBody).Code)

	rr := do(t, router, http.MethodGet, "/bilties/1/pdf", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "bilty-2024-25-1.pdf")
	assert.Equal(t, int64(1), printer.last.Number)

	rr = do(t, router, http.MethodGet, "/bilties/9/pdf", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerExportAndList(t *testing.T) {
	router, _, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/bilties", createBody).Code)

	rr := do(t, router, http.MethodGet, "/bilties/export.csv", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rr.Body.String(), "Verma Stores")

	rr = do(t, router, http.MethodGet, "/bilties?payment_mode=paid", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Empty(t, list.Items)

	rr = do(t, router, http.MethodDelete, "/bilties/1", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
