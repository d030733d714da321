package party

import "github.com/go-chi/chi/v5"

// MountRoutes registers the party endpoints under /parties. nested mounts extra
// per-party routes from other packages on the same subrouter.
func (h *Handler) MountRoutes(r chi.Router, nested ...func(chi.Router)) {
	r.Route("/parties", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/export.xlsx", h.exportXLSX)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		for _, mount := range nested {
			mount(r)
		}
	})
}
