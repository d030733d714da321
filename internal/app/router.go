package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/carrierdesk/carrierdesk/internal/bilty"
	"github.com/carrierdesk/carrierdesk/internal/challan"
	"github.com/carrierdesk/carrierdesk/internal/observability"
	"github.com/carrierdesk/carrierdesk/internal/party"
	"github.com/carrierdesk/carrierdesk/internal/platform/httpx"
	"github.com/carrierdesk/carrierdesk/internal/reminder"
	"github.com/carrierdesk/carrierdesk/internal/stats"
	"github.com/carrierdesk/carrierdesk/jobs"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	PartyHandler    *party.Handler
	BiltyHandler    *bilty.Handler
	ChallanHandler  *challan.Handler
	ReminderHandler *reminder.Handler
	StatsHandler    *stats.Handler
	JobHandler      *jobs.Handler
	Readiness       map[string]Pinger
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with carrier desk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(params.Logger, params.Readiness))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.PartyHandler != nil {
			var nested []func(chi.Router)
			if params.ReminderHandler != nil {
				nested = append(nested, params.ReminderHandler.MountPartyRoutes)
			}
			params.PartyHandler.MountRoutes(r, nested...)
		}
		if params.ReminderHandler != nil {
			params.ReminderHandler.MountRoutes(r)
		}
		if params.BiltyHandler != nil {
			params.BiltyHandler.MountRoutes(r)
		}
		if params.ChallanHandler != nil {
			params.ChallanHandler.MountRoutes(r)
		}
		if params.StatsHandler != nil {
			params.StatsHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}

func readiness(logger *slog.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := make(map[string]string, len(deps))
		code := http.StatusOK
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				if logger != nil {
					logger.Warn("readiness check failed", slog.String("dependency", name), slog.Any("error", err))
				}
				status[name] = "unavailable"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		httpx.JSON(w, code, status)
	}
}
