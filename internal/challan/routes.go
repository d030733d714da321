package challan

import "github.com/go-chi/chi/v5"

// MountRoutes registers the challan endpoints under /challans.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/challans", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/next-number", h.nextNumber)
		r.Get("/lookup", h.lookup)
		r.Get("/export.csv", h.exportCSV)
		r.Get("/export.xlsx", h.exportXLSX)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Get("/{id}/pdf", h.pdf)
	})
}
